package api

import "encoding/json"

// FrameType identifies the type of a streaming frame.
type FrameType string

const (
	FrameText          FrameType = "text"
	FrameToolCallStart FrameType = "tool_call_start"
	FrameToolCallDelta FrameType = "tool_call_delta"
	FrameToolCall      FrameType = "tool_call"
	FrameToolResult    FrameType = "tool_result"
	FrameError         FrameType = "error"
	FrameStepFinish    FrameType = "step_finish"
	FrameFinish        FrameType = "finish"
	FrameUnknown       FrameType = "unknown"
)

// framePrefixes maps the one-character wire prefix of each frame line to
// its frame type. Lines whose prefix is not listed here are classified as
// FrameUnknown and skipped by the consumer.
var framePrefixes = map[string]FrameType{
	"0": FrameText,
	"b": FrameToolCallStart,
	"c": FrameToolCallDelta,
	"9": FrameToolCall,
	"a": FrameToolResult,
	"3": FrameError,
	"e": FrameStepFinish,
	"d": FrameFinish,
}

// FrameTypeForPrefix returns the frame type for a wire prefix, or
// FrameUnknown if the prefix is not part of the protocol.
func FrameTypeForPrefix(prefix string) FrameType {
	if t, ok := framePrefixes[prefix]; ok {
		return t
	}
	return FrameUnknown
}

// Frame is one incremental unit of a streamed chat response. Which fields
// are populated depends on Type:
//
//	FrameText           Text (the delta)
//	FrameToolCallStart  ToolCallID, ToolName
//	FrameToolCallDelta  ToolCallID, ArgsDelta
//	FrameToolCall       ToolCallID, ToolName, Args
//	FrameToolResult     ToolCallID, ToolName, Args, Result
//	FrameError          Text (the error message)
//	FrameStepFinish     FinishReason
//	FrameFinish         FinishReason
//	FrameUnknown        Raw (the unparsed line)
type Frame struct {
	Type         FrameType
	Text         string
	ToolCallID   string
	ToolName     string
	ArgsDelta    string
	Args         json.RawMessage
	Result       json.RawMessage
	FinishReason string
	Raw          string
}

// toolCallStartPayload is the JSON body of a "b:" frame.
type toolCallStartPayload struct {
	ToolCallID string `json:"toolCallId"`
	ToolName   string `json:"toolName"`
}

// toolCallDeltaPayload is the JSON body of a "c:" frame.
type toolCallDeltaPayload struct {
	ToolCallID    string `json:"toolCallId"`
	ArgsTextDelta string `json:"argsTextDelta"`
}

// toolCallPayload is the JSON body of a "9:" frame.
type toolCallPayload struct {
	ToolCallID string          `json:"toolCallId"`
	ToolName   string          `json:"toolName"`
	Args       json.RawMessage `json:"args"`
}

// toolResultPayload is the JSON body of an "a:" frame.
type toolResultPayload struct {
	ToolCallID string          `json:"toolCallId"`
	ToolName   string          `json:"toolName"`
	Args       json.RawMessage `json:"args,omitempty"`
	Result     json.RawMessage `json:"result"`
}

// finishPayload is the JSON body of "e:" and "d:" frames.
type finishPayload struct {
	FinishReason string `json:"finishReason"`
}

// ParseFrame decodes one wire line ("<prefix>:<payload>") into a Frame.
// The boolean result is false when the line is not a well-formed frame;
// such lines are skipped by the consumer, never treated as fatal.
func ParseFrame(line string) (Frame, bool) {
	if len(line) < 2 || line[1] != ':' {
		return Frame{Type: FrameUnknown, Raw: line}, false
	}

	prefix, payload := line[:1], line[2:]
	frameType := FrameTypeForPrefix(prefix)

	switch frameType {
	case FrameText, FrameError:
		// Payload is a JSON-encoded string.
		var text string
		if err := json.Unmarshal([]byte(payload), &text); err != nil {
			return Frame{Type: FrameUnknown, Raw: line}, false
		}
		return Frame{Type: frameType, Text: text}, true

	case FrameToolCallStart:
		var p toolCallStartPayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return Frame{Type: FrameUnknown, Raw: line}, false
		}
		return Frame{Type: frameType, ToolCallID: p.ToolCallID, ToolName: p.ToolName}, true

	case FrameToolCallDelta:
		var p toolCallDeltaPayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return Frame{Type: FrameUnknown, Raw: line}, false
		}
		return Frame{Type: frameType, ToolCallID: p.ToolCallID, ArgsDelta: p.ArgsTextDelta}, true

	case FrameToolCall:
		var p toolCallPayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return Frame{Type: FrameUnknown, Raw: line}, false
		}
		return Frame{Type: frameType, ToolCallID: p.ToolCallID, ToolName: p.ToolName, Args: p.Args}, true

	case FrameToolResult:
		var p toolResultPayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return Frame{Type: FrameUnknown, Raw: line}, false
		}
		return Frame{
			Type:       frameType,
			ToolCallID: p.ToolCallID,
			ToolName:   p.ToolName,
			Args:       p.Args,
			Result:     p.Result,
		}, true

	case FrameStepFinish, FrameFinish:
		var p finishPayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return Frame{Type: FrameUnknown, Raw: line}, false
		}
		return Frame{Type: frameType, FinishReason: p.FinishReason}, true

	default:
		return Frame{Type: FrameUnknown, Raw: line}, false
	}
}
