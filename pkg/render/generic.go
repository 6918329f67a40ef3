package render

import (
	"github.com/yeti-teti/Caesarion/pkg/api"
	"github.com/yeti-teti/Caesarion/pkg/invocation"
)

// Generic is the fallback renderer for unrecognized tool names: a
// pretty-printed dump of the structured result.
type Generic struct{}

// Render draws the raw result payload.
func (Generic) Render(inv api.ToolInvocation) string {
	return panelStyle.Render(prettyJSON(inv.Result))
}

// Placeholder draws the skeleton shown while the tool runs.
func (Generic) Placeholder() string {
	return dimStyle.Render("running tool...")
}

// DefaultRegistry builds the renderer table with the known tools bound and
// Generic as the fallback.
func DefaultRegistry() *invocation.Registry {
	reg := invocation.NewRegistry(Generic{})
	reg.Register("python_interpreter", CodeCell{})
	reg.Register("get_current_weather", Weather{})
	return reg
}
