package outputs

import (
	"encoding/json"
	"strings"
	"testing"
)

func richData(entries map[string]string) *RichData {
	data := make(map[string]json.RawMessage, len(entries))
	for mime, content := range entries {
		encoded, _ := json.Marshal(content)
		data[mime] = encoded
	}
	return &RichData{Data: data}
}

func TestSelect_PreferenceOrder(t *testing.T) {
	tests := []struct {
		name     string
		entries  map[string]string
		wantMIME string
	}{
		{
			"html wins over everything",
			map[string]string{"text/html": "<b>x</b>", "image/png": "AAA", "text/plain": "x"},
			"text/html",
		},
		{
			"png wins over jpeg and plain",
			map[string]string{"image/jpeg": "BBB", "image/png": "AAA", "text/plain": "x"},
			"image/png",
		},
		{
			"jpeg wins over plain",
			map[string]string{"image/jpeg": "BBB", "text/plain": "x"},
			"image/jpeg",
		},
		{
			"plain as last resort",
			map[string]string{"text/plain": "42"},
			"text/plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := richData(tt.entries).Select()
			if rep.MIME != tt.wantMIME {
				t.Errorf("expected %s selected, got %s", tt.wantMIME, rep.MIME)
			}
		})
	}
}

func TestSelect_PlainTextVerbatim(t *testing.T) {
	content := "  col_a  col_b\n0     1      2\n"
	rep := richData(map[string]string{"text/plain": content}).Select()
	if rep.Content != content {
		t.Errorf("whitespace not preserved:\nwant %q\ngot  %q", content, rep.Content)
	}
}

func TestSelect_LineListPayload(t *testing.T) {
	rd := &RichData{Data: map[string]json.RawMessage{
		"text/plain": json.RawMessage(`["line one\n","line two"]`),
	}}
	rep := rd.Select()
	if rep.Content != "line one\nline two" {
		t.Errorf("line list not joined verbatim: %q", rep.Content)
	}
}

func TestSelect_FallbackPrettyPrints(t *testing.T) {
	rd := &RichData{Data: map[string]json.RawMessage{
		"application/vnd.custom+json": json.RawMessage(`{"a":1}`),
	}}
	rep := rd.Select()
	if rep.MIME != "" {
		t.Errorf("expected no MIME for fallback, got %s", rep.MIME)
	}
	if !strings.Contains(rep.Content, "application/vnd.custom+json") {
		t.Errorf("expected whole mapping in fallback, got %q", rep.Content)
	}
}

func TestSelect_EmptyMapping(t *testing.T) {
	rd := &RichData{Data: map[string]json.RawMessage{}}
	rep := rd.Select()
	if rep.MIME != "" {
		t.Errorf("expected fallback for empty mapping, got %s", rep.MIME)
	}
}
