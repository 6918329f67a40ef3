package outputs

import (
	"encoding/json"
	"strings"
)

// Type identifies the variant of an execution output record.
type Type string

const (
	TypeStream        Type = "stream"
	TypeExecuteResult Type = "execute_result"
	TypeDisplayData   Type = "display_data"
	TypeError         Type = "error"
	TypeUnknown       Type = "unknown"
)

// StreamData is the payload of a stream output: text written to stdout or
// stderr during execution. The channel name controls presentation emphasis
// but not classification.
type StreamData struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// IsStderr reports whether the stream was captured from stderr.
func (s *StreamData) IsStderr() bool {
	return s.Name == "stderr"
}

// RichData is the payload of an execute_result or display_data output:
// a mapping from MIME type to content. The mapping has at most one entry
// per MIME type, so representation selection has no ties.
type RichData struct {
	Data map[string]json.RawMessage `json:"data"`
}

// ErrorData is the payload of an error output: the exception name, its
// message, and the traceback as an ordered sequence of lines.
type ErrorData struct {
	Name      string   `json:"ename"`
	Message   string   `json:"evalue"`
	Traceback []string `json:"traceback"`
}

// JoinedTraceback returns the traceback lines joined with newlines,
// preserving line order exactly as received.
func (e *ErrorData) JoinedTraceback() string {
	return strings.Join(e.Traceback, "\n")
}

// Output is one classified execution-output record. Exactly one of the
// variant pointers is non-nil for the stream/execute_result/display_data/
// error types; Raw always holds the original record.
type Output struct {
	Type   Type
	Stream *StreamData
	Rich   *RichData
	Err    *ErrorData
	Raw    json.RawMessage
}

// discriminant extracts the output_type field used for dispatch.
type discriminant struct {
	OutputType string `json:"output_type"`
}

// Classify maps one raw execution-output record to its tagged variant.
// It is total: malformed or unrecognized records classify as Unknown.
func Classify(raw json.RawMessage) Output {
	var d discriminant
	if err := json.Unmarshal(raw, &d); err != nil {
		return Output{Type: TypeUnknown, Raw: raw}
	}

	switch d.OutputType {
	case "stream":
		var s StreamData
		if err := json.Unmarshal(raw, &s); err != nil {
			return Output{Type: TypeUnknown, Raw: raw}
		}
		return Output{Type: TypeStream, Stream: &s, Raw: raw}

	case "execute_result":
		var r RichData
		if err := json.Unmarshal(raw, &r); err != nil {
			return Output{Type: TypeUnknown, Raw: raw}
		}
		return Output{Type: TypeExecuteResult, Rich: &r, Raw: raw}

	case "display_data":
		var r RichData
		if err := json.Unmarshal(raw, &r); err != nil {
			return Output{Type: TypeUnknown, Raw: raw}
		}
		return Output{Type: TypeDisplayData, Rich: &r, Raw: raw}

	case "error":
		var e ErrorData
		if err := json.Unmarshal(raw, &e); err != nil {
			return Output{Type: TypeUnknown, Raw: raw}
		}
		return Output{Type: TypeError, Err: &e, Raw: raw}

	default:
		return Output{Type: TypeUnknown, Raw: raw}
	}
}

// ClassifyAll classifies an ordered sequence of records, preserving order.
func ClassifyAll(raws []json.RawMessage) []Output {
	if len(raws) == 0 {
		return nil
	}
	outs := make([]Output, 0, len(raws))
	for _, raw := range raws {
		outs = append(outs, Classify(raw))
	}
	return outs
}

// HasError reports whether any output in the sequence is the Error variant.
func HasError(outs []Output) bool {
	for _, o := range outs {
		if o.Type == TypeError {
			return true
		}
	}
	return false
}
