package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yeti-teti/Caesarion/pkg/api"
	"github.com/yeti-teti/Caesarion/pkg/outputs"
)

// CodeCell renders python_interpreter invocations as a notebook-style
// cell: the executed code behind an "In" gutter, followed by each
// classified execution output in order.
type CodeCell struct{}

// Render draws the cell for a finished invocation.
func (CodeCell) Render(inv api.ToolInvocation) string {
	var b strings.Builder

	code := extractCode(inv)
	if code != "" {
		b.WriteString(renderGutterBlock("In", code))
		b.WriteString("\n")
	}

	res, err := api.ParseCodeResult(inv.Result)
	if err != nil {
		b.WriteString(panelStyle.Render(prettyJSON(inv.Result)))
		return b.String()
	}

	for _, out := range outputs.ClassifyAll(res.Outputs) {
		b.WriteString(renderOutput(out))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Placeholder draws the skeleton cell shown while code is executing.
func (CodeCell) Placeholder() string {
	return renderGutterBlock("In", dimStyle.Render("...")) + "\n" +
		dimStyle.Render("waiting for sandbox output")
}

// renderOutput draws one classified execution output.
func renderOutput(out outputs.Output) string {
	switch out.Type {
	case outputs.TypeStream:
		text := strings.TrimRight(out.Stream.Text, "\n")
		if out.Stream.IsStderr() {
			return renderGutterBlock("Err", stderrStyle.Render(text))
		}
		return renderGutterBlock("Out", text)

	case outputs.TypeExecuteResult, outputs.TypeDisplayData:
		rep := out.Rich.Select()
		switch rep.MIME {
		case "image/png", "image/jpeg":
			// Terminals get a placeholder, not inline image bytes.
			label := fmt.Sprintf("[%s image, %d bytes base64]", rep.MIME, len(rep.Content))
			return renderGutterBlock("Out", dimStyle.Render(label))
		case "text/html":
			return renderGutterBlock("Out", rep.Content+"\n"+dimStyle.Render("[text/html]"))
		default:
			return renderGutterBlock("Out", rep.Content)
		}

	case outputs.TypeError:
		header := stderrStyle.Render(fmt.Sprintf("%s: %s", out.Err.Name, out.Err.Message))
		return panelStyle.Render(header + "\n" + out.Err.JoinedTraceback())

	default:
		return renderGutterBlock("Out", prettyJSON(out.Raw))
	}
}

// renderGutterBlock draws content behind a right-aligned gutter label,
// one gutter per block with continuation lines indented.
func renderGutterBlock(label, content string) string {
	gutter := gutterStyle.Render(fmt.Sprintf("%4s │ ", label))
	cont := dimStyle.Render("     │ ")

	lines := strings.Split(content, "\n")
	var b strings.Builder
	for i, line := range lines {
		if i == 0 {
			b.WriteString(gutter)
		} else {
			b.WriteString(cont)
		}
		b.WriteString(line)
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// extractCode returns the executed code: the result echo wins, falling
// back to the code argument of the call.
func extractCode(inv api.ToolInvocation) string {
	if res, err := api.ParseCodeResult(inv.Result); err == nil && res.Code != "" {
		return res.Code
	}

	var args struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(inv.Args, &args); err == nil {
		return args.Code
	}
	return ""
}

// prettyJSON pretty-prints a raw JSON payload, falling back to the raw
// bytes when the payload is not valid JSON.
func prettyJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var buf strings.Builder
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return string(raw)
	}
	return strings.TrimRight(buf.String(), "\n")
}
