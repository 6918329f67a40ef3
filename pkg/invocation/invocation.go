// Package invocation tracks tool invocations surfaced by the chat stream
// and dispatches their rendering.
//
// The visible status indicator is driven by the classified outcome, not the
// raw lifecycle state: a Result-state invocation whose outputs contain an
// error record is shown as failed. Rendering dispatch is table-driven (tool
// name to renderer), so adding a tool is a table entry, not a control-flow
// change.
package invocation

import (
	"sync"

	"github.com/yeti-teti/Caesarion/pkg/api"
	"github.com/yeti-teti/Caesarion/pkg/observability"
	"github.com/yeti-teti/Caesarion/pkg/outputs"
)

// Outcome is the classified, user-visible outcome of a tool invocation.
type Outcome string

const (
	OutcomeExecuting Outcome = "executing"
	OutcomeCompleted Outcome = "completed"
	OutcomeError     Outcome = "error"
)

// Classify maps an invocation to its visible outcome. An invocation in the
// Result state classifies as an error when any execution output in its
// result is the Error variant, even if other outputs are not.
func Classify(inv api.ToolInvocation) Outcome {
	switch inv.State {
	case api.InvocationResult:
		res, err := api.ParseCodeResult(inv.Result)
		if err != nil {
			// Result payloads of non-interpreter tools are arbitrary JSON;
			// they carry no execution outputs and cannot have failed.
			return OutcomeCompleted
		}
		if outputs.HasError(outputs.ClassifyAll(res.Outputs)) {
			return OutcomeError
		}
		return OutcomeCompleted
	case api.InvocationError:
		return OutcomeError
	default:
		return OutcomeExecuting
	}
}

// Renderer renders one tool invocation for display. Placeholder is shown
// while the invocation is still executing, when no output data exists yet
// by definition.
type Renderer interface {
	Render(inv api.ToolInvocation) string
	Placeholder() string
}

// Registry maps tool names to renderers. Unrecognized tool names fall back
// to the generic renderer.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]Renderer
	fallback Renderer
}

// NewRegistry creates a registry with the given fallback renderer.
func NewRegistry(fallback Renderer) *Registry {
	return &Registry{
		entries:  make(map[string]Renderer),
		fallback: fallback,
	}
}

// Register binds a tool name to a renderer, replacing any previous entry.
func (r *Registry) Register(toolName string, renderer Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[toolName] = renderer
}

// Lookup returns the renderer for a tool name, or the fallback.
func (r *Registry) Lookup(toolName string) Renderer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if renderer, ok := r.entries[toolName]; ok {
		return renderer
	}
	return r.fallback
}

// Tracker maintains per-call outcome state across stream updates and
// records each invocation's terminal outcome exactly once.
type Tracker struct {
	registry *Registry

	mu       sync.Mutex
	outcomes map[string]Outcome
}

// NewTracker creates a tracker dispatching through the given registry.
func NewTracker(registry *Registry) *Tracker {
	return &Tracker{
		registry: registry,
		outcomes: make(map[string]Outcome),
	}
}

// Update classifies an invocation update and returns its outcome. The
// first time a call reaches a terminal outcome, it is counted.
func (t *Tracker) Update(inv api.ToolInvocation) Outcome {
	outcome := Classify(inv)

	t.mu.Lock()
	defer t.mu.Unlock()

	prev, seen := t.outcomes[inv.CallID]
	t.outcomes[inv.CallID] = outcome

	terminal := outcome == OutcomeCompleted || outcome == OutcomeError
	wasTerminal := seen && (prev == OutcomeCompleted || prev == OutcomeError)
	if terminal && !wasTerminal {
		observability.ToolInvocationsTotal.WithLabelValues(inv.ToolName, string(outcome)).Inc()
	}
	return outcome
}

// Render renders an invocation through the registry. While the invocation
// is executing, the renderer's content-free placeholder is returned.
func (t *Tracker) Render(inv api.ToolInvocation) string {
	renderer := t.registry.Lookup(inv.ToolName)
	if Classify(inv) == OutcomeExecuting {
		return renderer.Placeholder()
	}
	return renderer.Render(inv)
}
