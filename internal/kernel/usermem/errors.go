package usermem

import (
	"errors"
	"fmt"
)

var (
	// ErrFault is returned when a range is unmapped or lacks the protection
	// an access needs.
	ErrFault = errors.New("bad address")

	// ErrNoMemory is returned when a mapping would exceed the space limit.
	ErrNoMemory = errors.New("address space limit exceeded")

	// ErrInvalidMapping is returned for malformed Map/Unmap/Protect requests.
	ErrInvalidMapping = errors.New("invalid mapping request")
)

// Access identifies the kind of access that faulted.
type Access int

const (
	AccessRead Access = iota
	AccessWrite
)

func (a Access) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	default:
		return "unknown"
	}
}

// FaultError describes a rejected access. It wraps ErrFault.
type FaultError struct {
	Access Access
	Addr   Addr
	Count  int
	Reason string
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("%s fault at %s (%d words): %s", e.Access, e.Addr, e.Count, e.Reason)
}

func (e *FaultError) Unwrap() error {
	return ErrFault
}

func fault(access Access, addr Addr, count int, reason string) error {
	return &FaultError{Access: access, Addr: addr, Count: count, Reason: reason}
}
