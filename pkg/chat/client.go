package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yeti-teti/Caesarion/pkg/api"
	"github.com/yeti-teti/Caesarion/pkg/debug"
	"github.com/yeti-teti/Caesarion/pkg/observability"
)

// ErrBusy is returned when Submit is called while a request is in flight.
// The caller-facing gate (input disabled while streaming) normally prevents
// this; the client enforces it as well.
var ErrBusy = errors.New("a chat request is already in flight")

// TranscriptStore persists completed turns. Implementations live in
// pkg/storage; a nil store disables persistence.
type TranscriptStore interface {
	AppendMessage(ctx context.Context, sessionID string, msg api.ChatMessage) error
}

// Events holds optional callbacks invoked as frames are merged. All
// callbacks run on the goroutine consuming the stream, in frame order.
type Events struct {
	// TextDelta is invoked for each incremental assistant text token.
	TextDelta func(delta string)
	// InvocationUpdate is invoked whenever a tool invocation changes state.
	InvocationUpdate func(inv api.ToolInvocation)
	// TurnComplete is invoked with the final assistant message of a turn.
	TurnComplete func(msg api.ChatMessage)
}

// Config holds Client construction parameters.
type Config struct {
	BaseURL     string
	ChatPath    string // default: "/api/chat"
	SessionID   string
	HTTPClient  *http.Client // optional; default has no overall timeout (streaming)
	Events      Events
	Transcripts TranscriptStore // optional
}

// Client drives the streaming conversation. At most one request is in
// flight at a time; the session ID is bound into every request.
type Client struct {
	baseURL     string
	chatPath    string
	sessionID   string
	httpClient  *http.Client
	events      Events
	transcripts TranscriptStore

	mu       sync.Mutex
	messages []api.ChatMessage
	merge    *mergeState
	inFlight bool
	cancel   context.CancelFunc
}

// New creates a chat client bound to one session.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("chat: base URL is required")
	}

	chatPath := cfg.ChatPath
	if chatPath == "" {
		chatPath = "/api/chat"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// No overall timeout: a streamed turn may legitimately run for
		// minutes while code executes in the sandbox.
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:     cfg.BaseURL,
		chatPath:    chatPath,
		sessionID:   cfg.SessionID,
		httpClient:  httpClient,
		events:      cfg.Events,
		transcripts: cfg.Transcripts,
	}, nil
}

// Messages returns a snapshot of the conversation history.
func (c *Client) Messages() []api.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]api.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Restore seeds the conversation history, typically from a persisted
// transcript. It must be called before the first Submit.
func (c *Client) Restore(msgs []api.ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight || len(c.messages) > 0 {
		return
	}
	c.messages = append(c.messages, msgs...)
}

// Cancel aborts the in-flight stream, if any. Partially merged assistant
// content is retained; incomplete tool invocations are sanitized so none is
// left dangling in a non-terminal state.
func (c *Client) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Submit appends a user message, issues the streamed request, and consumes
// response frames until the end marker. It blocks for the duration of the
// turn; Cancel may be called concurrently to abort.
func (c *Client) Submit(ctx context.Context, userText string) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.sessionID == "" {
		c.mu.Unlock()
		return api.NewInvalidRequestError("session_id", "session not established")
	}

	userMsg := api.ChatMessage{
		ID:      api.NewMessageID(),
		Role:    api.RoleUser,
		Content: userText,
	}
	c.messages = append(c.messages, userMsg)
	history := make([]api.ChatMessage, len(c.messages))
	copy(history, c.messages)

	streamCtx, cancel := context.WithCancel(ctx)
	c.inFlight = true
	c.cancel = cancel
	c.mu.Unlock()

	defer func() {
		cancel()
		c.mu.Lock()
		c.inFlight = false
		c.cancel = nil
		c.mu.Unlock()
	}()

	start := time.Now()
	err := c.streamTurn(streamCtx, history)
	observability.TurnDuration.Observe(time.Since(start).Seconds())

	// Regardless of outcome, incomplete invocations must not dangle.
	c.sanitizeIncomplete(err)

	if err != nil {
		kind := "backend"
		if api.IsRateLimited(err) {
			kind = "rate_limited"
		} else if errors.Is(err, context.Canceled) {
			kind = "cancelled"
		}
		observability.StreamErrorsTotal.WithLabelValues(kind).Inc()

		// A user-initiated cancel ends the turn without failing it.
		if errors.Is(err, context.Canceled) {
			slog.Info("chat turn cancelled", "session_id", c.sessionID)
			c.persistTurn(userMsg)
			return nil
		}
		return err
	}

	c.persistTurn(userMsg)
	c.finishTurn()
	return nil
}

// streamTurn issues the HTTP request and consumes the frame stream.
func (c *Client) streamTurn(ctx context.Context, history []api.ChatMessage) error {
	body, err := json.Marshal(api.ChatRequest{
		SessionID: c.sessionID,
		Messages:  history,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.chatPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	debug.Log("chat", "submitting turn",
		"session_id", c.sessionID,
		"history_len", len(history),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return api.NewStreamError("chat request failed: " + err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(resp)
	}

	var streamErr error
	consumeErr := ConsumeStream(ctx, resp.Body, func(f api.Frame) {
		if f.Type == api.FrameError {
			streamErr = classifyErrorFrame(f.Text)
			return
		}
		c.applyFrame(f)
	})

	if consumeErr != nil {
		if errors.Is(consumeErr, context.Canceled) {
			return consumeErr
		}
		return api.NewStreamError("stream read error: " + consumeErr.Error())
	}
	return streamErr
}

// applyFrame merges one frame into the history and fires event callbacks.
func (c *Client) applyFrame(f api.Frame) {
	c.mu.Lock()
	if c.merge == nil {
		c.merge = newMergeState()
	}
	c.messages = c.merge.Reduce(c.messages, f)

	var inv *api.ToolInvocation
	if f.ToolCallID != "" && len(c.messages) > 0 {
		inv = findInvocation(&c.messages[len(c.messages)-1], f.ToolCallID)
	}
	var invCopy api.ToolInvocation
	if inv != nil {
		invCopy = *inv
	}
	c.mu.Unlock()

	switch {
	case f.Type == api.FrameText && c.events.TextDelta != nil:
		c.events.TextDelta(f.Text)
	case inv != nil && c.events.InvocationUpdate != nil:
		c.events.InvocationUpdate(invCopy)
	}
}

// sanitizeIncomplete forces any invocation still pending or executing into
// the error state. Called after every turn, so cancellation or a dropped
// stream never leaves an invocation dangling with no further updates.
func (c *Client) sanitizeIncomplete(cause error) {
	note := "stream ended before a result arrived"
	if errors.Is(cause, context.Canceled) {
		note = "cancelled before a result arrived"
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.merge = nil
	if len(c.messages) == 0 {
		return
	}

	last := &c.messages[len(c.messages)-1]
	for i := range last.ToolInvocations {
		inv := &last.ToolInvocations[i]
		if inv.State == api.InvocationPending || inv.State == api.InvocationExecuting || inv.State == "" {
			inv.State = api.InvocationError
			inv.Note = note
			slog.Warn("tool invocation sanitized",
				"call_id", inv.CallID,
				"tool", inv.ToolName,
			)
		}
	}
}

// persistTurn appends the user message and the completed assistant message
// to the transcript store, when one is configured.
func (c *Client) persistTurn(userMsg api.ChatMessage) {
	if c.transcripts == nil {
		return
	}

	c.mu.Lock()
	var assistant *api.ChatMessage
	if len(c.messages) > 0 && c.messages[len(c.messages)-1].Role == api.RoleAssistant {
		m := c.messages[len(c.messages)-1]
		assistant = &m
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.transcripts.AppendMessage(ctx, c.sessionID, userMsg); err != nil {
		slog.Warn("transcript append failed", "error", err)
	}
	if assistant != nil {
		if err := c.transcripts.AppendMessage(ctx, c.sessionID, *assistant); err != nil {
			slog.Warn("transcript append failed", "error", err)
		}
	}
}

// finishTurn fires the TurnComplete callback with the final assistant message.
func (c *Client) finishTurn() {
	c.mu.Lock()
	var final *api.ChatMessage
	if len(c.messages) > 0 && c.messages[len(c.messages)-1].Role == api.RoleAssistant {
		m := c.messages[len(c.messages)-1]
		final = &m
	}
	c.mu.Unlock()

	if final != nil && c.events.TurnComplete != nil {
		c.events.TurnComplete(*final)
	}
}

// statusError converts a non-2xx response into the appropriate error,
// detecting the backend's throttling signal.
func (c *Client) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode == http.StatusTooManyRequests || strings.Contains(string(body), "Too many requests") {
		return api.NewTooManyRequestsError("You are sending too many messages. Please try again later.")
	}
	return api.NewStreamError(fmt.Sprintf("backend returned HTTP %d: %s",
		resp.StatusCode, debug.Truncate(string(body), 200)))
}

// classifyErrorFrame converts an error-frame payload into the appropriate
// error, detecting the backend's throttling signal.
func classifyErrorFrame(message string) error {
	if strings.Contains(message, "Too many requests") {
		return api.NewTooManyRequestsError("You are sending too many messages. Please try again later.")
	}
	return api.NewStreamError(message)
}
