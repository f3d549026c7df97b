package logging

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/sortcall/internal/kernel/usermem"
)

// PID tags a log line with a process id.
func PID(pid uint32) zap.Field {
	return zap.Uint32("pid", pid)
}

// Addr tags a log line with a caller address.
func Addr(addr usermem.Addr) zap.Field {
	return zap.Stringer("addr", addr)
}

// Count tags a log line with an element count.
func Count(n int) zap.Field {
	return zap.Int("count", n)
}

// Syscall tags a log line with a syscall name and number.
func Syscall(name string, nr int) []zap.Field {
	return []zap.Field{zap.String("syscall", name), zap.Int("nr", nr)}
}
