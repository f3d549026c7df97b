package usermem

import (
	"fmt"
	"strings"
)

// Prot is a mapping protection bitmask.
type Prot uint8

const (
	ProtNone  Prot = 0
	ProtRead  Prot = 1 << 0
	ProtWrite Prot = 1 << 1

	ProtReadWrite = ProtRead | ProtWrite
)

// CanRead reports whether the protection permits kernel reads.
func (p Prot) CanRead() bool {
	return p&ProtRead != 0
}

// CanWrite reports whether the protection permits kernel writes.
func (p Prot) CanWrite() bool {
	return p&ProtWrite != 0
}

// String renders the protection the way /proc/<pid>/maps does.
func (p Prot) String() string {
	var sb strings.Builder
	if p.CanRead() {
		sb.WriteByte('r')
	} else {
		sb.WriteByte('-')
	}
	if p.CanWrite() {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('-')
	}
	return sb.String()
}

// ParseProt parses "rw", "r", "w", "r-", "-w", "--" or "none".
func ParseProt(s string) (Prot, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rw", "":
		return ProtReadWrite, nil
	case "r", "r-":
		return ProtRead, nil
	case "w", "-w":
		return ProtWrite, nil
	case "--", "none":
		return ProtNone, nil
	default:
		return ProtNone, fmt.Errorf("%w: unknown protection %q", ErrInvalidMapping, s)
	}
}
