// Package api defines the wire-level types shared by the Caesarion client:
// chat messages, tool invocations, streaming frames, sandbox lifecycle
// states, and the structured error type used at component boundaries.
//
// The types here mirror what the backend actually sends. State transitions
// for tool invocations and the sandbox are validated by the functions in
// state.go; terminal states never allow outgoing transitions.
package api
