// Package http exposes the process table, caller memory and the syscall
// dispatcher over a Gin HTTP API.
//
// Routes:
//   - GET    /health
//   - POST   /processes                         spawn {name}
//   - GET    /processes
//   - DELETE /processes/:pid
//   - POST   /processes/:pid/mmap               {length, prot}
//   - POST   /processes/:pid/mprotect           {addr, prot}
//   - PUT    /processes/:pid/memory/:addr       {values}
//   - GET    /processes/:pid/memory/:addr?count=n
//   - GET    /syscalls
//   - POST   /syscalls                          {pid, nr, args}
//   - POST   /sort                              {values}
//   - GET    /metrics/json
//   - GET    /heartbeat
//   - GET    /heartbeat/stream                  websocket
//
// Addresses in paths accept decimal or 0x-prefixed hex. Failed requests
// answer {"success": false, "error": ...}. A syscall that ran answers 200
// whatever status it returned.
package http
