// Package protocol owns the exchange wire contract.
//
// Ownership boundary:
// - event tuple shape ([name, param...])
// - request envelope (identity, namespace, ordered tasks)
// - request/response encode and decode entry points
package protocol
