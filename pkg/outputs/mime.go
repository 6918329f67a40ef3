package outputs

import (
	"encoding/json"
	"strings"
)

// mimePreference is the fixed priority order used to pick one human-facing
// representation when a result offers several encodings of the same
// content. Richer, human-authored representations win over raw data.
var mimePreference = []string{
	"text/html",
	"image/png",
	"image/jpeg",
	"text/plain",
}

// Representation is the single representation selected from a MIME-keyed
// payload. MIME is empty for the raw-structure fallback, in which case
// Content holds the pretty-printed payload.
type Representation struct {
	MIME    string
	Content string
}

// Select picks the preferred representation from the data mapping. When no
// preferred MIME type is present, the whole mapping is pretty-printed as
// the fallback. Selection is a pure, total function.
func (r *RichData) Select() Representation {
	for _, mime := range mimePreference {
		if raw, ok := r.Data[mime]; ok {
			return Representation{MIME: mime, Content: decodePayload(raw)}
		}
	}

	pretty, err := json.MarshalIndent(r.Data, "", "  ")
	if err != nil {
		return Representation{Content: string(concatRaw(r.Data))}
	}
	return Representation{Content: string(pretty)}
}

// decodePayload converts one MIME payload value to its text content.
// Jupyter encodes values either as a JSON string or as a list of strings
// (one per line, newlines included); anything else is pretty-printed.
func decodePayload(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, "")
	}

	pretty, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(pretty)
}

func concatRaw(data map[string]json.RawMessage) []byte {
	var b []byte
	for _, v := range data {
		b = append(b, v...)
	}
	return b
}
