package sortcall

import "errors"

// Status is the outcome of one invocation. Its Code is the syscall return
// value seen by the caller.
type Status int

const (
	Success                Status = 0
	InvalidArgument        Status = 22 // EINVAL
	AllocationFailure      Status = 134
	BoundaryCopyInFailure  Status = 135
	BoundaryCopyOutFailure Status = 136
)

var (
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrAllocationFailure      = errors.New("working buffer allocation failed")
	ErrBoundaryCopyInFailure  = errors.New("copy from caller memory failed")
	ErrBoundaryCopyOutFailure = errors.New("copy to caller memory failed")
)

// Code returns the numeric syscall return value.
func (s Status) Code() int64 {
	return int64(s)
}

// OK reports whether the status is Success.
func (s Status) OK() bool {
	return s == Success
}

// String returns the stable name of the status.
func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case InvalidArgument:
		return "invalid_argument"
	case AllocationFailure:
		return "allocation_failure"
	case BoundaryCopyInFailure:
		return "boundary_copy_in_failure"
	case BoundaryCopyOutFailure:
		return "boundary_copy_out_failure"
	default:
		return "unknown"
	}
}

// Err maps a failing status to its sentinel error. Success maps to nil.
func (s Status) Err() error {
	switch s {
	case Success:
		return nil
	case InvalidArgument:
		return ErrInvalidArgument
	case AllocationFailure:
		return ErrAllocationFailure
	case BoundaryCopyInFailure:
		return ErrBoundaryCopyInFailure
	case BoundaryCopyOutFailure:
		return ErrBoundaryCopyOutFailure
	default:
		return errors.New("unknown status")
	}
}

// StatusFromCode converts a syscall return value back to a Status.
func StatusFromCode(code int64) (Status, bool) {
	s := Status(code)
	switch s {
	case Success, InvalidArgument, AllocationFailure, BoundaryCopyInFailure, BoundaryCopyOutFailure:
		return s, true
	default:
		return s, false
	}
}

// ParseStatus converts a status name back to a Status.
func ParseStatus(name string) (Status, bool) {
	for _, s := range []Status{Success, InvalidArgument, AllocationFailure, BoundaryCopyInFailure, BoundaryCopyOutFailure} {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}
