// Package channel emulates a push-capable, ordered event socket over
// discrete request/response exchanges.
//
// Ownership boundary:
// - handler registry and connection state (connect/disconnect/reconnect)
// - outbound task queue and exchange batching
// - adaptive heartbeat pacing (stress, coast, back off)
// - error reporting back into the event stream
//
// Each Channel owns one loop goroutine. Poll state and the exchange timer
// are only touched from that goroutine; Emit, On and Log are safe to call
// from any goroutine, including from inside handlers.
package channel
