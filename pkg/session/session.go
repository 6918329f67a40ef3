// Package session owns the client's durable identity and the lifecycle of
// its remote sandbox. A single session ID correlates every chat request and
// file upload issued by one client; it is created once, persisted under a
// fixed storage key, and treated as immutable for the process lifetime.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yeti-teti/Caesarion/pkg/api"
	"github.com/yeti-teti/Caesarion/pkg/observability"
	"github.com/yeti-teti/Caesarion/pkg/storage"
)

// SessionKey is the well-known storage key under which the session
// identifier is persisted across client restarts.
const SessionKey = "session_id"

// Store abstracts the persisted key/value state backing the session
// identity. Implementations live in pkg/storage/memory and
// pkg/storage/sqlite.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Session is the durable client-side identity correlating all requests for
// one user's sandbox and conversation.
type Session struct {
	ID string
}

// Short returns the last 8 characters of the session ID, used for the
// session indicator line.
func (s *Session) Short() string {
	if len(s.ID) <= 8 {
		return s.ID
	}
	return s.ID[len(s.ID)-8:]
}

// Controller establishes the session identity and drives sandbox
// initialization. Chat availability is gated on EnsureSession having
// returned; sandbox initialization is fire-and-forget relative to chat.
type Controller struct {
	store      Store
	httpClient *http.Client
	baseURL    string

	mu      sync.Mutex
	session *Session
	sandbox api.SandboxState
}

// Config holds Controller construction parameters.
type Config struct {
	Store      Store
	BaseURL    string
	HTTPClient *http.Client // optional; defaults to a 30s-timeout client
}

// NewController creates a session controller. The sandbox starts in the
// Unknown state.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("session: store is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("session: base URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Controller{
		store:      cfg.Store,
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		sandbox:    api.SandboxUnknown,
	}, nil
}

// EnsureSession returns the client's stable session identity. It reads a
// previously persisted ID; if absent, it generates a cryptographically
// random UUID and persists it. Re-entrant and idempotent: every call in one
// client lifetime returns the identical identifier.
func (c *Controller) EnsureSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return c.session, nil
	}

	id, err := c.store.Get(ctx, SessionKey)
	switch {
	case err == nil && id != "":
		slog.Debug("session restored", "session_id", id)
	case errors.Is(err, storage.ErrNotFound) || id == "":
		id = uuid.NewString()
		if err := c.store.Set(ctx, SessionKey, id); err != nil {
			return nil, fmt.Errorf("persist session id: %w", err)
		}
		slog.Info("session created", "session_id", id)
	default:
		return nil, fmt.Errorf("read session id: %w", err)
	}

	c.session = &Session{ID: id}
	return c.session, nil
}

// SandboxState returns the current sandbox lifecycle state.
func (c *Controller) SandboxState() api.SandboxState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sandbox
}

// InitializeSandbox issues the single sandbox-initialization request for
// the given session and returns the resulting state. A logical outcome of
// "created" or "exists" on a 2xx response yields Ready; any other outcome,
// status, or transport failure yields Failed. Failed is terminal until the
// process restarts: the state is surfaced to the user, never silently
// retried, so a stuck sandbox cannot amplify requests.
func (c *Controller) InitializeSandbox(ctx context.Context, id string) api.SandboxState {
	c.transition(api.SandboxInitializing)

	state := c.requestInitialize(ctx, id)
	c.transition(state)
	observability.SandboxInitTotal.WithLabelValues(string(state)).Inc()
	return state
}

func (c *Controller) requestInitialize(ctx context.Context, id string) api.SandboxState {
	url := fmt.Sprintf("%s/api/sessions/%s/initialize", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		slog.Warn("sandbox initialize request invalid", "error", err)
		return api.SandboxFailed
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("sandbox initialize failed", "session_id", id, "error", err)
		return api.SandboxFailed
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("sandbox initialize read failed", "session_id", id, "error", err)
		return api.SandboxFailed
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("sandbox initialize rejected",
			"session_id", id,
			"status", resp.StatusCode,
		)
		return api.SandboxFailed
	}

	var initResp api.InitializeResponse
	if err := json.Unmarshal(body, &initResp); err != nil {
		slog.Warn("sandbox initialize body unparsable", "session_id", id, "error", err)
		return api.SandboxFailed
	}

	switch initResp.Status {
	case "created", "exists":
		slog.Info("sandbox ready", "session_id", id, "status", initResp.Status)
		return api.SandboxReady
	default:
		slog.Warn("sandbox initialize returned unexpected status",
			"session_id", id,
			"status", initResp.Status,
		)
		return api.SandboxFailed
	}
}

// transition applies a sandbox state change, validating monotonicity.
// Invalid transitions are logged and ignored rather than applied.
func (c *Controller) transition(to api.SandboxState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := api.ValidateSandboxTransition(c.sandbox, to); err != nil {
		slog.Warn("sandbox transition rejected", "from", c.sandbox, "to", to)
		return
	}
	c.sandbox = to
}
