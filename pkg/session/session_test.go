package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yeti-teti/Caesarion/pkg/api"
	"github.com/yeti-teti/Caesarion/pkg/storage/memory"
)

func newTestController(t *testing.T, baseURL string) *Controller {
	t.Helper()
	c, err := NewController(Config{
		Store:   memory.New(),
		BaseURL: baseURL,
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c
}

func TestEnsureSession_CreatesAndPersists(t *testing.T) {
	store := memory.New()
	c, err := NewController(Config{Store: store, BaseURL: "http://127.0.0.1:0"})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	sess, err := c.EnsureSession(context.Background())
	if err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("expected a generated session id")
	}

	persisted, err := store.Get(context.Background(), SessionKey)
	if err != nil || persisted != sess.ID {
		t.Errorf("session id not persisted: %q, err %v", persisted, err)
	}
}

func TestEnsureSession_Idempotent(t *testing.T) {
	c := newTestController(t, "http://127.0.0.1:0")

	first, err := c.EnsureSession(context.Background())
	if err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := c.EnsureSession(context.Background())
		if err != nil {
			t.Fatalf("EnsureSession call %d: %v", i, err)
		}
		if again.ID != first.ID {
			t.Fatalf("identity changed within one lifetime: %q vs %q", again.ID, first.ID)
		}
	}
}

func TestEnsureSession_RestoresExisting(t *testing.T) {
	store := memory.New()
	store.Set(context.Background(), SessionKey, "prior-session-id")

	c, err := NewController(Config{Store: store, BaseURL: "http://127.0.0.1:0"})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	sess, err := c.EnsureSession(context.Background())
	if err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	if sess.ID != "prior-session-id" {
		t.Errorf("expected restored id, got %q", sess.ID)
	}
}

func TestSession_Short(t *testing.T) {
	s := &Session{ID: "0123456789abcdef"}
	if got := s.Short(); got != "89abcdef" {
		t.Errorf("expected last 8 chars, got %q", got)
	}

	s = &Session{ID: "tiny"}
	if got := s.Short(); got != "tiny" {
		t.Errorf("short id should pass through, got %q", got)
	}
}

func TestInitializeSandbox_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    api.SandboxState
	}{
		{"created", http.StatusOK, `{"status":"created"}`, api.SandboxReady},
		{"exists", http.StatusOK, `{"status":"exists"}`, api.SandboxReady},
		{"unexpected status value", http.StatusOK, `{"status":"pending"}`, api.SandboxFailed},
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, api.SandboxFailed},
		{"unparsable body", http.StatusOK, `not json`, api.SandboxFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newTestController(t, srv.URL)
			got := c.InitializeSandbox(context.Background(), "sess-1")
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
			if c.SandboxState() != tt.want {
				t.Errorf("controller state %s does not match outcome %s", c.SandboxState(), tt.want)
			}
		})
	}
}

func TestInitializeSandbox_TransportFailure(t *testing.T) {
	c := newTestController(t, "http://127.0.0.1:1")

	if got := c.InitializeSandbox(context.Background(), "sess-1"); got != api.SandboxFailed {
		t.Errorf("expected failed on transport error, got %s", got)
	}
}

func TestInitializeSandbox_FailedIsTerminal(t *testing.T) {
	c := newTestController(t, "http://127.0.0.1:1")
	c.InitializeSandbox(context.Background(), "sess-1")
	if c.SandboxState() != api.SandboxFailed {
		t.Fatalf("expected failed, got %s", c.SandboxState())
	}

	// A second attempt must not move a failed sandbox back to ready.
	c.InitializeSandbox(context.Background(), "sess-1")
	if c.SandboxState() != api.SandboxFailed {
		t.Errorf("failed sandbox resurrected to %s", c.SandboxState())
	}
}
