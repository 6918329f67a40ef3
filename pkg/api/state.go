package api

import "fmt"

// ValidateInvocationTransition checks whether a tool invocation state
// transition is valid. An empty "from" state represents a call that has not
// been announced yet. Terminal states (result, error) do not allow outgoing
// transitions: an invocation never regresses.
func ValidateInvocationTransition(from, to InvocationState) *APIError {
	valid := map[InvocationState][]InvocationState{
		// A call may be announced with complete args ("9:" frame) without a
		// preceding start frame, so the initial state admits both.
		"":                  {InvocationPending, InvocationExecuting},
		InvocationPending:   {InvocationExecuting, InvocationError},
		InvocationExecuting: {InvocationResult, InvocationError},
	}

	allowed, exists := valid[from]
	if !exists {
		return NewInvalidRequestError("state",
			fmt.Sprintf("invalid transition from %s to %s", from, to))
	}

	for _, s := range allowed {
		if s == to {
			return nil
		}
	}

	return NewInvalidRequestError("state",
		fmt.Sprintf("invalid transition from %s to %s", from, to))
}

// ValidateSandboxTransition checks whether a sandbox state transition is
// valid. Ready and Failed are terminal for the process lifetime; a failed
// sandbox is surfaced to the user, never silently retried.
func ValidateSandboxTransition(from, to SandboxState) *APIError {
	valid := map[SandboxState][]SandboxState{
		SandboxUnknown:      {SandboxInitializing},
		SandboxInitializing: {SandboxReady, SandboxFailed},
	}

	allowed, exists := valid[from]
	if !exists {
		return NewInvalidRequestError("state",
			fmt.Sprintf("invalid transition from %s to %s", from, to))
	}

	for _, s := range allowed {
		if s == to {
			return nil
		}
	}

	return NewInvalidRequestError("state",
		fmt.Sprintf("invalid transition from %s to %s", from, to))
}
