// Package sortcall implements the sort_descending service call.
//
// One invocation moves through a fixed sequence of stages:
//
//	Init → CopiedIn → Sorted → CopiedOut → Released
//
// The caller's buffer is copied across the trust boundary into a working
// buffer from the Allocator, sorted there in descending order, and copied
// back. Any failing step ends the call with its own Status. Once the working
// buffer has been allocated it is released exactly once before Invoke
// returns, whichever path the call took.
//
// Status codes:
//   - Success (0)
//   - InvalidArgument (22): null address or negative count
//   - AllocationFailure (134): no working buffer could be allocated
//   - BoundaryCopyInFailure (135): caller memory could not be read
//   - BoundaryCopyOutFailure (136): caller memory could not be written; the
//     caller's buffer is left exactly as it was
//
// A zero count with a non-null address succeeds without allocating or
// touching caller memory.
//
// Example Usage:
//
//	svc := sortcall.New(kmem.NewArena(64 << 20))
//	status := svc.Invoke(proc.Space, addr, 4)
//	if !status.OK() {
//		return status.Err()
//	}
package sortcall
