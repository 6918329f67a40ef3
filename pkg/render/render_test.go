package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/yeti-teti/Caesarion/pkg/api"
	"github.com/yeti-teti/Caesarion/pkg/invocation"
)

func TestSessionLine(t *testing.T) {
	line := SessionLine("89abcdef", "ready")
	if !strings.Contains(line, "89abcdef") {
		t.Errorf("session id missing from indicator: %q", line)
	}
	if !strings.Contains(line, "sandbox ready") {
		t.Errorf("sandbox state missing from indicator: %q", line)
	}

	line = SessionLine("89abcdef", "failed")
	if !strings.Contains(line, "sandbox failed") {
		t.Errorf("failed state not surfaced: %q", line)
	}
}

func TestStatusLine(t *testing.T) {
	got := StatusLine(invocation.OutcomeExecuting, "python_interpreter")
	if !strings.Contains(got, "Executing code in sandbox") {
		t.Errorf("interpreter executing status wrong: %q", got)
	}

	got = StatusLine(invocation.OutcomeExecuting, "get_current_weather")
	if strings.Contains(got, "sandbox") {
		t.Errorf("non-interpreter tool should not mention the sandbox: %q", got)
	}

	got = StatusLine(invocation.OutcomeError, "python_interpreter")
	if !strings.Contains(got, "failed") {
		t.Errorf("error status wrong: %q", got)
	}

	got = StatusLine(invocation.OutcomeCompleted, "python_interpreter")
	if !strings.Contains(got, "completed") {
		t.Errorf("completed status wrong: %q", got)
	}
}

func TestCodeCell_RenderSuccess(t *testing.T) {
	inv := api.ToolInvocation{
		CallID:   "call_1",
		ToolName: "python_interpreter",
		State:    api.InvocationResult,
		Result: json.RawMessage(`{
			"code": "print('hi')\n6*7",
			"outputs": [
				{"output_type":"stream","name":"stdout","text":"hi\n"},
				{"output_type":"execute_result","data":{"text/plain":"42"}}
			]
		}`),
	}

	out := CodeCell{}.Render(inv)
	for _, want := range []string{"print('hi')", "hi", "42", "In"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered cell missing %q:\n%s", want, out)
		}
	}
}

func TestCodeCell_RenderError(t *testing.T) {
	inv := api.ToolInvocation{
		CallID:   "call_1",
		ToolName: "python_interpreter",
		State:    api.InvocationResult,
		Result: json.RawMessage(`{
			"code": "1/0",
			"outputs": [{
				"output_type":"error",
				"ename":"ZeroDivisionError",
				"evalue":"division by zero",
				"traceback":["Traceback (most recent call last):","ZeroDivisionError: division by zero"]
			}]
		}`),
	}

	out := CodeCell{}.Render(inv)
	if !strings.Contains(out, "ZeroDivisionError") || !strings.Contains(out, "division by zero") {
		t.Errorf("error identity missing:\n%s", out)
	}
	if !strings.Contains(out, "Traceback (most recent call last):") {
		t.Errorf("traceback missing:\n%s", out)
	}
}

func TestCodeCell_ImagePlaceholder(t *testing.T) {
	inv := api.ToolInvocation{
		State: api.InvocationResult,
		Result: json.RawMessage(`{
			"outputs": [{"output_type":"display_data","data":{"image/png":"aWdub3JlZA=="}}]
		}`),
	}

	out := CodeCell{}.Render(inv)
	if !strings.Contains(out, "image/png image") {
		t.Errorf("expected image label instead of raw bytes:\n%s", out)
	}
	if strings.Contains(out, "aWdub3JlZA==") {
		t.Errorf("base64 bytes leaked into terminal output:\n%s", out)
	}
}

func TestExtractCode_ResultEchoWins(t *testing.T) {
	inv := api.ToolInvocation{
		Args:   json.RawMessage(`{"code":"from args"}`),
		Result: json.RawMessage(`{"code":"from result","outputs":[]}`),
	}
	if got := extractCode(inv); got != "from result" {
		t.Errorf("expected result echo, got %q", got)
	}

	inv = api.ToolInvocation{Args: json.RawMessage(`{"code":"from args"}`)}
	if got := extractCode(inv); got != "from args" {
		t.Errorf("expected args fallback, got %q", got)
	}
}

func TestWeather_Render(t *testing.T) {
	inv := api.ToolInvocation{
		ToolName: "get_current_weather",
		State:    api.InvocationResult,
		Result: json.RawMessage(`{
			"latitude": 52.52, "longitude": 13.41, "timezone": "Europe/Berlin",
			"current_units": {"temperature_2m": "°C"},
			"current": {"time": "2024-06-01T12:00", "temperature_2m": 21.4}
		}`),
	}

	out := Weather{}.Render(inv)
	if !strings.Contains(out, "21.4") || !strings.Contains(out, "Europe/Berlin") {
		t.Errorf("weather card missing fields:\n%s", out)
	}
}

func TestDefaultRegistry_Bindings(t *testing.T) {
	reg := DefaultRegistry()

	if _, ok := reg.Lookup("python_interpreter").(CodeCell); !ok {
		t.Error("python_interpreter not bound to the code cell renderer")
	}
	if _, ok := reg.Lookup("get_current_weather").(Weather); !ok {
		t.Error("get_current_weather not bound to the weather renderer")
	}
	if _, ok := reg.Lookup("unheard_of").(Generic); !ok {
		t.Error("unknown tools should fall back to the generic renderer")
	}
}
