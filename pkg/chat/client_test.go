package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yeti-teti/Caesarion/pkg/api"
	"github.com/yeti-teti/Caesarion/pkg/storage/memory"
)

// streamHandler returns a handler that writes the given frame lines and
// flushes after each one.
func streamHandler(lines ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintln(w, line)
			flusher.Flush()
		}
	}
}

func newTestClient(t *testing.T, url string, events Events, transcripts TranscriptStore) *Client {
	t.Helper()
	client, err := New(Config{
		BaseURL:     url,
		SessionID:   "sess-test",
		Events:      events,
		Transcripts: transcripts,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestSubmit_TextTurn(t *testing.T) {
	srv := httptest.NewServer(streamHandler(
		`0:"Hi"`,
		`0:" there"`,
		`d:{"finishReason":"stop"}`,
	))
	defer srv.Close()

	var deltas []string
	var final *api.ChatMessage
	client := newTestClient(t, srv.URL, Events{
		TextDelta:    func(d string) { deltas = append(deltas, d) },
		TurnComplete: func(m api.ChatMessage) { final = &m },
	}, nil)

	if err := client.Submit(context.Background(), "hello"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if len(deltas) != 2 || deltas[0] != "Hi" || deltas[1] != " there" {
		t.Errorf("deltas out of order: %v", deltas)
	}
	if final == nil || final.Content != "Hi there" {
		t.Errorf("unexpected final message: %+v", final)
	}

	msgs := client.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected user + assistant, got %d", len(msgs))
	}
	if msgs[0].Role != api.RoleUser || msgs[0].Content != "hello" {
		t.Errorf("user message wrong: %+v", msgs[0])
	}
	if msgs[1].Role != api.RoleAssistant || msgs[1].Content != "Hi there" {
		t.Errorf("assistant message wrong: %+v", msgs[1])
	}
}

func TestSubmit_ToolTurn(t *testing.T) {
	srv := httptest.NewServer(streamHandler(
		`b:{"toolCallId":"call_1","toolName":"python_interpreter"}`,
		`c:{"toolCallId":"call_1","argsTextDelta":"{\"code\":\"1+1\"}"}`,
		`9:{"toolCallId":"call_1","toolName":"python_interpreter"}`,
		`a:{"toolCallId":"call_1","toolName":"python_interpreter","result":{"code":"1+1","outputs":[]}}`,
		`d:{"finishReason":"stop"}`,
	))
	defer srv.Close()

	var states []api.InvocationState
	client := newTestClient(t, srv.URL, Events{
		InvocationUpdate: func(inv api.ToolInvocation) {
			states = append(states, inv.State)
		},
	}, nil)

	if err := client.Submit(context.Background(), "run it"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	want := []api.InvocationState{api.InvocationPending, api.InvocationExecuting, api.InvocationResult}
	if len(states) != len(want) {
		t.Fatalf("expected %d updates, got %v", len(want), states)
	}
	for i, w := range want {
		if states[i] != w {
			t.Errorf("update %d: expected %s, got %s", i, w, states[i])
		}
	}

	msgs := client.Messages()
	inv := msgs[len(msgs)-1].ToolInvocations[0]
	if inv.State != api.InvocationResult {
		t.Errorf("expected result state, got %s", inv.State)
	}
	if string(inv.Args) != `{"code":"1+1"}` {
		t.Errorf("streamed args lost: %s", inv.Args)
	}
}

func TestSubmit_RateLimitedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, Events{}, nil)
	err := client.Submit(context.Background(), "hi")
	if !api.IsRateLimited(err) {
		t.Errorf("expected rate-limited error, got %v", err)
	}
}

func TestSubmit_RateLimitedErrorFrame(t *testing.T) {
	srv := httptest.NewServer(streamHandler(
		`3:"Too many requests, please slow down"`,
		`d:{"finishReason":"error"}`,
	))
	defer srv.Close()

	client := newTestClient(t, srv.URL, Events{}, nil)
	err := client.Submit(context.Background(), "hi")
	if !api.IsRateLimited(err) {
		t.Errorf("expected rate-limited error, got %v", err)
	}
}

func TestSubmit_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, Events{}, nil)
	err := client.Submit(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}
	if api.IsRateLimited(err) {
		t.Error("HTTP 500 misclassified as throttling")
	}
}

func TestSubmit_EmptySessionRejected(t *testing.T) {
	client, err := New(Config{BaseURL: "http://127.0.0.1:0"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = client.Submit(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected rejection with no session id")
	}
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeInvalidRequest {
		t.Errorf("expected invalid_request, got %v", err)
	}
}

func TestSubmit_BusyGate(t *testing.T) {
	srv := httptest.NewServer(streamHandler(
		`0:"working"`,
		`d:{"finishReason":"stop"}`,
	))
	defer srv.Close()

	var client *Client
	var nested error
	client = newTestClient(t, srv.URL, Events{
		TextDelta: func(string) {
			nested = client.Submit(context.Background(), "second")
		},
	}, nil)

	if err := client.Submit(context.Background(), "first"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !errors.Is(nested, ErrBusy) {
		t.Errorf("expected ErrBusy for concurrent submit, got %v", nested)
	}
}

func TestSubmit_CancelSanitizesInvocations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprintln(w, `b:{"toolCallId":"call_9","toolName":"python_interpreter"}`)
		flusher.Flush()
		// Hold the stream open until the client gives up.
		<-r.Context().Done()
	}))
	defer srv.Close()

	var client *Client
	client = newTestClient(t, srv.URL, Events{
		InvocationUpdate: func(inv api.ToolInvocation) {
			client.Cancel()
		},
	}, nil)

	// A user-initiated cancel ends the turn without an error.
	if err := client.Submit(context.Background(), "run forever"); err != nil {
		t.Fatalf("Submit after cancel: %v", err)
	}

	msgs := client.Messages()
	last := msgs[len(msgs)-1]
	if len(last.ToolInvocations) == 0 {
		t.Fatal("partial invocation was dropped entirely")
	}
	for _, inv := range last.ToolInvocations {
		if inv.State != api.InvocationError {
			t.Errorf("invocation %s left dangling in state %s", inv.CallID, inv.State)
		}
	}
}

func TestSubmit_PersistsTurn(t *testing.T) {
	srv := httptest.NewServer(streamHandler(
		`0:"done"`,
		`d:{"finishReason":"stop"}`,
	))
	defer srv.Close()

	store := memory.New()
	client := newTestClient(t, srv.URL, Events{}, store)

	if err := client.Submit(context.Background(), "persist me"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	msgs, err := store.ListMessages(context.Background(), "sess-test")
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(msgs))
	}
	if msgs[0].Content != "persist me" || msgs[1].Content != "done" {
		t.Errorf("unexpected transcript: %+v", msgs)
	}
}

func TestRestore_SeedsHistoryOnce(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0", Events{}, nil)

	seed := []api.ChatMessage{
		{ID: api.NewMessageID(), Role: api.RoleUser, Content: "old"},
	}
	client.Restore(seed)
	client.Restore(seed)

	if got := len(client.Messages()); got != 1 {
		t.Errorf("expected restore to apply once, got %d messages", got)
	}
}

func TestMessages_ReturnsSnapshot(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0", Events{}, nil)
	client.Restore([]api.ChatMessage{
		{ID: api.NewMessageID(), Role: api.RoleUser, Content: "original"},
	})

	snapshot := client.Messages()
	snapshot[0].Content = "mutated"

	if client.Messages()[0].Content != "original" {
		t.Error("snapshot mutation leaked into client state")
	}
}

func TestSubmit_RequestCarriesSessionAndHistory(t *testing.T) {
	var got api.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprintln(w, `d:{"finishReason":"stop"}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, Events{}, nil)
	if err := client.Submit(context.Background(), "check wire"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if got.SessionID != "sess-test" {
		t.Errorf("session id not bound into request: %q", got.SessionID)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "check wire" {
		t.Errorf("history not carried: %+v", got.Messages)
	}
}
