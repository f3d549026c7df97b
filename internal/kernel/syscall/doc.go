// Package syscall dispatches numbered service calls made by processes in
// the process table.
//
// The dispatcher resolves the calling process and the handler, runs the
// handler with the process's address space as caller memory, and owns the
// cross-cutting concerns of every call: a zap log line per step, Prometheus
// counters and durations, and a trace span with one entry per stage.
//
// Registered calls:
//
//	333 sort_descending(addr, count)
//
// Dispatch errors (unknown process, unknown number, wrong argument count)
// are Go errors. A call that ran always produces a Result whose Ret is the
// value the caller sees, even when the call itself failed.
package syscall
