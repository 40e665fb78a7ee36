// Package session drives one IRC connection over a transport.
//
// Ownership boundary:
// - connect and teardown of the transport
// - the receive pump: line reassembly, parsing, PING/PONG keepalive
// - the inbound message queue read by the consumer
// - retry/backoff helpers for callers that reconnect
//
// Each Session runs exactly one pump goroutine. Send may be called from any
// goroutine; the transport serialises writes. Close blocks until the pump
// has exited.
package session
