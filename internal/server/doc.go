// Package server is the request/response endpoint the channel polls.
//
// Each POST carries one client's queued tasks and returns whatever the
// session's outbox has accumulated since the previous poll.
package server
