package api

import "encoding/json"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn of the conversation. The last message in a
// conversation may still be in progress (text and tool invocations mutate
// as frames arrive); all earlier messages are immutable.
type ChatMessage struct {
	ID              string           `json:"id"`
	Role            Role             `json:"role"`
	Content         string           `json:"content,omitempty"`
	ToolInvocations []ToolInvocation `json:"toolInvocations,omitempty"`
	Attachments     []Attachment     `json:"experimental_attachments,omitempty"`
}

// Attachment references a file associated with a message.
type Attachment struct {
	Name        string `json:"name,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	URL         string `json:"url"`
}

// InvocationState is the lifecycle state of a single tool invocation.
type InvocationState string

const (
	InvocationPending   InvocationState = "pending"
	InvocationExecuting InvocationState = "executing"
	InvocationResult    InvocationState = "result"
	InvocationError     InvocationState = "error"
)

// ToolInvocation is a request, embedded in an assistant turn, to execute a
// named external capability. CallID is unique within a session. Result is
// the raw JSON payload delivered by the backend; for the code-interpreter
// tool it decodes to CodeResult, for other tools it is arbitrary JSON.
type ToolInvocation struct {
	CallID   string          `json:"toolCallId"`
	ToolName string          `json:"toolName"`
	State    InvocationState `json:"state"`
	Args     json.RawMessage `json:"args,omitempty"`
	Result   json.RawMessage `json:"result,omitempty"`

	// Note holds a client-side annotation for invocations forced into a
	// terminal state (e.g. cancelled mid-stream). Never sent on the wire.
	Note string `json:"-"`
}

// CodeResult is the result payload of the code-interpreter tool: the code
// that was executed (when echoed back) and the ordered execution outputs.
type CodeResult struct {
	Code    string            `json:"code,omitempty"`
	Outputs []json.RawMessage `json:"outputs,omitempty"`
}

// ParseCodeResult decodes a tool result payload into a CodeResult.
func ParseCodeResult(raw json.RawMessage) (*CodeResult, error) {
	var res CodeResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ChatRequest is the body sent to the streaming chat endpoint.
type ChatRequest struct {
	SessionID string        `json:"session_id"`
	Messages  []ChatMessage `json:"messages"`
}

// SandboxState is the lifecycle state of the per-session sandbox.
type SandboxState string

const (
	SandboxUnknown      SandboxState = "unknown"
	SandboxInitializing SandboxState = "initializing"
	SandboxReady        SandboxState = "ready"
	SandboxFailed       SandboxState = "failed"
)

// InitializeResponse is the body of POST /api/sessions/{id}/initialize.
// Status values "created" and "exists" indicate a usable sandbox; anything
// else is treated as failure.
type InitializeResponse struct {
	Status string `json:"status"`
}

// UploadResponse is the success body of POST /api/sandboxes/upload.
type UploadResponse struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size,omitempty"`
	Path     string `json:"path,omitempty"`
}
