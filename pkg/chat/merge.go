package chat

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/yeti-teti/Caesarion/pkg/api"
)

// mergeState tracks incremental assembly across the frames of one streamed
// turn: tool-call arguments arrive as text deltas and are buffered per call
// until the full announcement.
type mergeState struct {
	argBufs map[string]*strings.Builder
}

func newMergeState() *mergeState {
	return &mergeState{argBufs: make(map[string]*strings.Builder)}
}

// Reduce merges one frame into the message history and returns the updated
// slice. It mutates only the in-progress last assistant message; earlier
// messages are never touched and frames are never reordered. Invocation
// state changes are validated for monotonicity: a frame that would regress
// a terminal invocation is logged and dropped.
func (s *mergeState) Reduce(msgs []api.ChatMessage, f api.Frame) []api.ChatMessage {
	switch f.Type {
	case api.FrameText:
		msgs = ensureAssistant(msgs)
		last := &msgs[len(msgs)-1]
		last.Content += f.Text

	case api.FrameToolCallStart:
		msgs = ensureAssistant(msgs)
		last := &msgs[len(msgs)-1]
		if inv := findInvocation(last, f.ToolCallID); inv != nil {
			break // duplicate start frame
		}
		s.argBufs[f.ToolCallID] = &strings.Builder{}
		last.ToolInvocations = append(last.ToolInvocations, api.ToolInvocation{
			CallID:   f.ToolCallID,
			ToolName: f.ToolName,
			State:    api.InvocationPending,
		})

	case api.FrameToolCallDelta:
		if buf, ok := s.argBufs[f.ToolCallID]; ok {
			buf.WriteString(f.ArgsDelta)
		}

	case api.FrameToolCall:
		msgs = ensureAssistant(msgs)
		last := &msgs[len(msgs)-1]
		inv := findInvocation(last, f.ToolCallID)
		if inv == nil {
			// Announced without a preceding start frame.
			last.ToolInvocations = append(last.ToolInvocations, api.ToolInvocation{
				CallID:   f.ToolCallID,
				ToolName: f.ToolName,
			})
			inv = &last.ToolInvocations[len(last.ToolInvocations)-1]
		}
		if !transition(inv, api.InvocationExecuting) {
			break
		}
		inv.Args = f.Args
		if len(inv.Args) == 0 {
			inv.Args = s.flushArgs(f.ToolCallID)
		}
		if inv.ToolName == "" {
			inv.ToolName = f.ToolName
		}

	case api.FrameToolResult:
		msgs = ensureAssistant(msgs)
		last := &msgs[len(msgs)-1]
		inv := findInvocation(last, f.ToolCallID)
		if inv == nil {
			// A result may arrive for a call whose announcement was lost;
			// synthesize the call so the result is never dangling.
			last.ToolInvocations = append(last.ToolInvocations, api.ToolInvocation{
				CallID:   f.ToolCallID,
				ToolName: f.ToolName,
				State:    api.InvocationExecuting,
			})
			inv = &last.ToolInvocations[len(last.ToolInvocations)-1]
		}
		if inv.State != api.InvocationExecuting && !transition(inv, api.InvocationExecuting) {
			break
		}
		if !transition(inv, api.InvocationResult) {
			break
		}
		inv.Result = f.Result
		if len(f.Args) > 0 {
			inv.Args = f.Args
		}
		if inv.ToolName == "" {
			inv.ToolName = f.ToolName
		}

	case api.FrameError, api.FrameStepFinish, api.FrameFinish:
		// Handled by the client, not merged into message state.
	}

	return msgs
}

// flushArgs returns the buffered argument text for a call as raw JSON when
// it parses, and clears the buffer.
func (s *mergeState) flushArgs(callID string) json.RawMessage {
	buf, ok := s.argBufs[callID]
	if !ok {
		return nil
	}
	delete(s.argBufs, callID)

	text := buf.String()
	if text == "" {
		return nil
	}
	if !json.Valid([]byte(text)) {
		slog.Warn("discarding non-JSON tool call arguments", "call_id", callID)
		return nil
	}
	return json.RawMessage(text)
}

// ensureAssistant appends a fresh in-progress assistant message unless the
// history already ends with one.
func ensureAssistant(msgs []api.ChatMessage) []api.ChatMessage {
	if len(msgs) > 0 && msgs[len(msgs)-1].Role == api.RoleAssistant {
		return msgs
	}
	return append(msgs, api.ChatMessage{
		ID:   api.NewMessageID(),
		Role: api.RoleAssistant,
	})
}

// findInvocation returns a pointer to the invocation with the given call ID
// within msg, or nil.
func findInvocation(msg *api.ChatMessage, callID string) *api.ToolInvocation {
	for i := range msg.ToolInvocations {
		if msg.ToolInvocations[i].CallID == callID {
			return &msg.ToolInvocations[i]
		}
	}
	return nil
}

// transition applies an invocation state change after validating it.
// Returns false (and logs) when the change would regress the lifecycle.
func transition(inv *api.ToolInvocation, to api.InvocationState) bool {
	if err := api.ValidateInvocationTransition(inv.State, to); err != nil {
		slog.Warn("invocation transition rejected",
			"call_id", inv.CallID,
			"from", inv.State,
			"to", to,
		)
		return false
	}
	inv.State = to
	return true
}
