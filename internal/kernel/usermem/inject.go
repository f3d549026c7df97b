package usermem

import "sync/atomic"

// FaultInjector wraps a Boundary and fails selected copies on purpose.
// Failed copies never reach the wrapped boundary.
type FaultInjector struct {
	Boundary Boundary

	FailCopyIn  bool
	FailCopyOut bool

	copyIns  atomic.Int64
	copyOuts atomic.Int64
}

// CopyIn implements Boundary.
func (f *FaultInjector) CopyIn(dst []int32, src Addr) error {
	f.copyIns.Add(1)
	if f.FailCopyIn {
		return fault(AccessRead, src, len(dst), "injected")
	}
	return f.Boundary.CopyIn(dst, src)
}

// CopyOut implements Boundary.
func (f *FaultInjector) CopyOut(dst Addr, src []int32) error {
	f.copyOuts.Add(1)
	if f.FailCopyOut {
		return fault(AccessWrite, dst, len(src), "injected")
	}
	return f.Boundary.CopyOut(dst, src)
}

// CopyIns returns how many copy-ins were attempted.
func (f *FaultInjector) CopyIns() int64 {
	return f.copyIns.Load()
}

// CopyOuts returns how many copy-outs were attempted.
func (f *FaultInjector) CopyOuts() int64 {
	return f.copyOuts.Load()
}
