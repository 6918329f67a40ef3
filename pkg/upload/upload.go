// Package upload manages the session's file-transfer channel: at most one
// in-flight multipart upload to the sandbox, with monotonic progress
// reporting and explicit cancellation.
//
// Validation failures (missing session, missing file, oversized file) are
// rejected synchronously before any network call. Terminal outcomes never
// retry automatically; the user re-triggers after a failure.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yeti-teti/Caesarion/pkg/api"
	"github.com/yeti-teti/Caesarion/pkg/debug"
	"github.com/yeti-teti/Caesarion/pkg/observability"
)

// MaxFileSize is the fixed upload size limit (10 GiB). Larger files are
// rejected before any network call.
const MaxFileSize = 10 << 30

// ErrBusy is returned when Upload is called while a transfer is in flight.
var ErrBusy = errors.New("an upload is already in progress")

// State is the lifecycle state of an upload task.
type State string

const (
	StateIdle      State = "idle"
	StateInFlight  State = "in_flight"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Task is a snapshot of the current upload task.
type Task struct {
	Filename  string
	SessionID string
	State     State
	Progress  float64
}

// Config holds Manager construction parameters.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client  // optional; default has no overall timeout
	ResetDelay time.Duration // how long a success is displayed before reset; default 1s
}

// Manager owns the single upload task. A new transfer is accepted only
// while the task is Idle, Succeeded, or Failed.
type Manager struct {
	httpClient *http.Client
	baseURL    string
	resetDelay time.Duration

	mu   sync.Mutex
	task Task
}

// NewManager creates an upload manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("upload: base URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	resetDelay := cfg.ResetDelay
	if resetDelay == 0 {
		resetDelay = time.Second
	}

	return &Manager{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		resetDelay: resetDelay,
		task:       Task{State: StateIdle},
	}, nil
}

// Task returns a snapshot of the current task.
func (m *Manager) Task() Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.task
}

// Upload transfers one file to the sandbox, bound to the session via a
// query parameter. Progress fractions reported through onProgress are
// monotonically non-decreasing and reach exactly 1.0 only on success.
// Cancel by cancelling ctx.
func (m *Manager) Upload(ctx context.Context, path, sessionID string, onProgress func(float64)) (*api.UploadResponse, error) {
	// Fail-fast validation: no network call is issued past this block
	// unless every check passes.
	if sessionID == "" {
		observability.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, api.NewInvalidRequestError("session_id", "no session found, restart the client")
	}
	if path == "" {
		observability.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, api.NewInvalidRequestError("file", "no file selected")
	}
	info, err := os.Stat(path)
	if err != nil {
		observability.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, api.NewInvalidRequestError("file", "cannot read file: "+err.Error())
	}
	if info.Size() > MaxFileSize {
		observability.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, api.NewInvalidRequestError("file",
			fmt.Sprintf("file too large: %d bytes exceeds the 10 GiB limit", info.Size()))
	}

	if err := m.begin(path, sessionID); err != nil {
		return nil, err
	}

	resp, err := m.transfer(ctx, path, sessionID, info.Size(), onProgress)
	if err != nil {
		m.finishFailure(ctx, err)
		return nil, err
	}

	m.finishSuccess(resp, onProgress)
	return resp, nil
}

// begin claims the single task slot.
func (m *Manager) begin(path, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.task.State == StateInFlight {
		return ErrBusy
	}
	m.task = Task{
		Filename:  filepath.Base(path),
		SessionID: sessionID,
		State:     StateInFlight,
	}
	return nil
}

// transfer performs the multipart POST, streaming the file through a pipe
// so progress can be observed as the transport consumes bytes.
func (m *Manager) transfer(ctx context.Context, path, sessionID string, size int64, onProgress func(float64)) (*api.UploadResponse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, api.NewUploadError("cannot open file: " + err.Error())
	}
	defer file.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		counter := &progressReader{
			r:     file,
			total: size,
			emit:  m.progressEmitter(onProgress),
		}
		if _, err := io.Copy(part, counter); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	endpoint := fmt.Sprintf("%s/api/sandboxes/upload?session_id=%s",
		m.baseURL, url.QueryEscape(sessionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		return nil, api.NewUploadError("create request: " + err.Error())
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	debug.Log("upload", "upload starting",
		"file", filepath.Base(path),
		"size", size,
		"session_id", sessionID,
	)

	httpResp, err := m.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, api.NewUploadError("network error during upload: " + err.Error())
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, api.NewUploadError("read response: " + err.Error())
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, api.NewUploadError(fmt.Sprintf("upload failed with status %d", httpResp.StatusCode))
	}

	var resp api.UploadResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Filename == "" {
		return nil, api.NewUploadError("invalid response from server")
	}
	if resp.Size == 0 {
		resp.Size = size
	}
	return &resp, nil
}

// progressEmitter clamps in-transfer progress below 1.0 (the final 1.0 is
// reserved for a confirmed success) and enforces monotonicity.
func (m *Manager) progressEmitter(onProgress func(float64)) func(float64) {
	const transferCap = 0.99

	return func(fraction float64) {
		if fraction > transferCap {
			fraction = transferCap
		}

		m.mu.Lock()
		if fraction < m.task.Progress {
			fraction = m.task.Progress
		}
		m.task.Progress = fraction
		m.mu.Unlock()

		debug.Trace("upload", "progress", "fraction", fraction)
		if onProgress != nil {
			onProgress(fraction)
		}
	}
}

// finishSuccess pins progress at 1.0 for the display window, then resets
// to Idle so a subsequent upload can begin.
func (m *Manager) finishSuccess(resp *api.UploadResponse, onProgress func(float64)) {
	m.mu.Lock()
	m.task.State = StateSucceeded
	m.task.Progress = 1.0
	m.mu.Unlock()

	if onProgress != nil {
		onProgress(1.0)
	}

	observability.UploadsTotal.WithLabelValues("succeeded").Inc()
	observability.UploadBytesTotal.Add(float64(resp.Size))
	slog.Info("upload succeeded", "filename", resp.Filename, "size", resp.Size)

	time.AfterFunc(m.resetDelay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.task.State == StateSucceeded {
			m.task = Task{State: StateIdle}
		}
	})
}

// finishFailure records the terminal state and resets progress
// immediately. Failed and Cancelled both accept a new upload right away.
func (m *Manager) finishFailure(ctx context.Context, cause error) {
	state := StateFailed
	outcome := "failed"
	if errors.Is(cause, context.Canceled) || ctx.Err() != nil {
		state = StateCancelled
		outcome = "cancelled"
	}

	m.mu.Lock()
	m.task.State = state
	m.task.Progress = 0
	m.mu.Unlock()

	observability.UploadsTotal.WithLabelValues(outcome).Inc()
	slog.Warn("upload did not complete", "state", state, "error", cause)
}

// progressReader counts bytes as the transport pulls them through the
// multipart pipe and reports the running fraction of the file transferred.
type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	emit  func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		if p.total > 0 && p.emit != nil {
			p.emit(float64(p.read) / float64(p.total))
		}
	}
	return n, err
}
