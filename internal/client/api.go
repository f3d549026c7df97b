package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// Process is a freshly spawned process.
type Process struct {
	PID        uint32 `json:"pid"`
	InstanceID string `json:"instance_id"`
}

// Health is the /health answer.
type Health struct {
	Status    string `json:"status"`
	Processes int    `json:"processes"`
}

// SyscallResult is the outcome of one syscall.
type SyscallResult struct {
	CallID string `json:"call_id"`
	Ret    int64  `json:"ret"`
	Status string `json:"status"`
}

// SortResult is the outcome of POST /sort.
type SortResult struct {
	SyscallResult
	Values []int32 `json:"values"`
}

// Health checks the service.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &h)
	return h, err
}

// Spawn creates a process with an empty address space.
func (c *Client) Spawn(ctx context.Context, name string) (Process, error) {
	var p Process
	err := c.do(ctx, http.MethodPost, "/processes", map[string]string{"name": name}, &p)
	return p, err
}

// Kill removes a process and its memory.
func (c *Client) Kill(ctx context.Context, pid uint32) error {
	return c.do(ctx, http.MethodDelete, "/processes/"+pidPath(pid), nil, nil)
}

// Mmap maps length bytes with prot ("rw", "r", "w" or "none") and returns the
// start address.
func (c *Client) Mmap(ctx context.Context, pid uint32, length uint64, prot string) (uint64, error) {
	var out struct {
		Addr uint64 `json:"addr"`
	}
	body := map[string]interface{}{"length": length, "prot": prot}
	if err := c.do(ctx, http.MethodPost, "/processes/"+pidPath(pid)+"/mmap", body, &out); err != nil {
		return 0, err
	}
	return out.Addr, nil
}

// Mprotect changes the protection of the mapping at addr.
func (c *Client) Mprotect(ctx context.Context, pid uint32, addr uint64, prot string) error {
	body := map[string]interface{}{"addr": addr, "prot": prot}
	return c.do(ctx, http.MethodPost, "/processes/"+pidPath(pid)+"/mprotect", body, nil)
}

// Store writes values at addr in the process's memory.
func (c *Client) Store(ctx context.Context, pid uint32, addr uint64, values []int32) error {
	body := map[string][]int32{"values": values}
	return c.do(ctx, http.MethodPut, memoryPath(pid, addr), body, nil)
}

// Load reads count values at addr from the process's memory.
func (c *Client) Load(ctx context.Context, pid uint32, addr uint64, count int) ([]int32, error) {
	var out struct {
		Values []int32 `json:"values"`
	}
	path := memoryPath(pid, addr) + "?count=" + strconv.Itoa(count)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Values, nil
}

// Syscall runs syscall nr on behalf of pid. A failing syscall status is not an
// error; inspect Ret.
func (c *Client) Syscall(ctx context.Context, pid uint32, nr int, args ...int64) (SyscallResult, error) {
	if args == nil {
		args = []int64{}
	}
	var res SyscallResult
	body := map[string]interface{}{"pid": pid, "nr": nr, "args": args}
	err := c.do(ctx, http.MethodPost, "/syscalls", body, &res)
	return res, err
}

// Sort sorts values descending in a short-lived server-side process.
func (c *Client) Sort(ctx context.Context, values []int32) (SortResult, error) {
	if values == nil {
		values = []int32{}
	}
	var res SortResult
	err := c.do(ctx, http.MethodPost, "/sort", map[string][]int32{"values": values}, &res)
	return res, err
}

func pidPath(pid uint32) string {
	return strconv.FormatUint(uint64(pid), 10)
}

func memoryPath(pid uint32, addr uint64) string {
	return fmt.Sprintf("/processes/%d/memory/%#x", pid, addr)
}
