package api

import "testing"

func TestParseFrame_Text(t *testing.T) {
	f, ok := ParseFrame(`0:"Hello"`)
	if !ok {
		t.Fatal("expected frame to parse")
	}
	if f.Type != FrameText {
		t.Errorf("expected text frame, got %s", f.Type)
	}
	if f.Text != "Hello" {
		t.Errorf("expected text %q, got %q", "Hello", f.Text)
	}
}

func TestParseFrame_ToolCallStart(t *testing.T) {
	f, ok := ParseFrame(`b:{"toolCallId":"call_abc","toolName":"python_interpreter"}`)
	if !ok {
		t.Fatal("expected frame to parse")
	}
	if f.Type != FrameToolCallStart {
		t.Errorf("expected tool_call_start frame, got %s", f.Type)
	}
	if f.ToolCallID != "call_abc" || f.ToolName != "python_interpreter" {
		t.Errorf("unexpected identity: %q %q", f.ToolCallID, f.ToolName)
	}
}

func TestParseFrame_ToolCallDelta(t *testing.T) {
	f, ok := ParseFrame(`c:{"toolCallId":"call_abc","argsTextDelta":"{\"co"}`)
	if !ok {
		t.Fatal("expected frame to parse")
	}
	if f.Type != FrameToolCallDelta {
		t.Errorf("expected tool_call_delta frame, got %s", f.Type)
	}
	if f.ArgsDelta != `{"co` {
		t.Errorf("unexpected args delta %q", f.ArgsDelta)
	}
}

func TestParseFrame_ToolCallAndResult(t *testing.T) {
	f, ok := ParseFrame(`9:{"toolCallId":"call_abc","toolName":"python_interpreter","args":{"code":"1+1"}}`)
	if !ok {
		t.Fatal("expected tool call frame to parse")
	}
	if f.Type != FrameToolCall {
		t.Errorf("expected tool_call frame, got %s", f.Type)
	}
	if string(f.Args) != `{"code":"1+1"}` {
		t.Errorf("unexpected args %s", f.Args)
	}

	f, ok = ParseFrame(`a:{"toolCallId":"call_abc","toolName":"python_interpreter","result":{"code":"1+1","outputs":[]}}`)
	if !ok {
		t.Fatal("expected tool result frame to parse")
	}
	if f.Type != FrameToolResult {
		t.Errorf("expected tool_result frame, got %s", f.Type)
	}
	if len(f.Result) == 0 {
		t.Error("expected result payload")
	}
}

func TestParseFrame_FinishMarkers(t *testing.T) {
	f, ok := ParseFrame(`e:{"finishReason":"tool-calls"}`)
	if !ok || f.Type != FrameStepFinish {
		t.Fatalf("expected step_finish, got %s ok=%v", f.Type, ok)
	}

	f, ok = ParseFrame(`d:{"finishReason":"stop"}`)
	if !ok || f.Type != FrameFinish {
		t.Fatalf("expected finish, got %s ok=%v", f.Type, ok)
	}
	if f.FinishReason != "stop" {
		t.Errorf("expected finish reason %q, got %q", "stop", f.FinishReason)
	}
}

func TestParseFrame_Malformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty line", ""},
		{"no separator", "hello world"},
		{"unknown prefix", `z:{"x":1}`},
		{"text payload not a string", `0:{"x":1}`},
		{"truncated json", `b:{"toolCallId":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := ParseFrame(tt.line)
			if ok {
				t.Errorf("expected parse failure for %q", tt.line)
			}
			if f.Type != FrameUnknown {
				t.Errorf("expected unknown frame, got %s", f.Type)
			}
		})
	}
}
