// Package usermem models the memory of a calling process as seen from the
// privileged side of the trust boundary.
//
// An AddressSpace is a set of page-aligned mappings, each with its own
// protection. Address 0 is never mapped, so a zero Addr is always null.
//
// Two kinds of access exist:
//   - Owner access (Store, Load): the process touching its own memory. The
//     range must be mapped; protection is not consulted.
//   - Kernel access (CopyIn, CopyOut): the service crossing the boundary.
//     The whole range is validated for mapping and protection before a single
//     byte moves, and any problem is reported as a *FaultError instead of
//     crashing the service.
//
// Values crossing the boundary are little-endian signed 32-bit integers.
//
// Example Usage:
//
//	as := usermem.NewAddressSpace(1 << 20)
//	addr, _ := as.Map(16, usermem.ProtReadWrite)
//	_ = as.Store(addr, []int32{5, 3, 9, 1})
//
//	buf := make([]int32, 4)
//	if err := as.CopyIn(buf, addr); err != nil {
//		// errors.Is(err, usermem.ErrFault)
//	}
package usermem
