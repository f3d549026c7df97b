/*
Package client is a Go client for the sortcall HTTP API.

Requests go through resty with sonic as its JSON codec, over a
retryablehttp transport that retries connection errors and 5xx answers.
Every request first waits on a token bucket and then runs inside a circuit
breaker. 4xx answers come back as *APIError and leave the breaker alone.

Example:

	c := client.New(client.DefaultConfig("http://localhost:8000"))
	p, err := c.Spawn(ctx, "driver")
	addr, err := c.Mmap(ctx, p.PID, 1024, "rw")
	err = c.Store(ctx, p.PID, addr, values)
	res, err := c.Syscall(ctx, p.PID, 333, int64(addr), int64(len(values)))
	sorted, err := c.Load(ctx, p.PID, addr, len(values))

A syscall that returns a failure status is not an error; check res.Ret.
*/
package client
