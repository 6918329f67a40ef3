// Command mock-backend runs a deterministic sandbox backend for local
// development and conformance testing. It speaks the client's streamed
// frame protocol and returns canned responses chosen by keyword in the
// last user message:
//
//	"weather"   - a get_current_weather tool call
//	"fail"      - a python_interpreter run whose output is an error record
//	"throttle"  - HTTP 429 with the throttling message
//	anything else - a python_interpreter run with stdout and a result
//
// Configuration:
//
//	MOCK_PORT - Listen port (default: 9191)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9191"
	}

	b := newBackend()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/api/chat", b.handleChat)
	r.Post("/api/sessions/{sessionID}/initialize", b.handleInitialize)
	r.Post("/api/sandboxes/upload", b.handleUpload)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: ":" + port, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

type backend struct {
	mu       sync.Mutex
	sessions map[string]bool
}

func newBackend() *backend {
	return &backend{sessions: make(map[string]bool)}
}

// --- Request types ---

type chatRequest struct {
	SessionID string        `json:"session_id"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// --- Handlers ---

func (b *backend) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request"}`, http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		http.Error(w, `{"error":"session_id is required"}`, http.StatusBadRequest)
		return
	}

	prompt := lastUserContent(req.Messages)
	if strings.Contains(prompt, "throttle") {
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	s := newStreamWriter(w)
	switch {
	case strings.Contains(prompt, "weather"):
		b.streamWeatherTurn(s)
	case strings.Contains(prompt, "fail"):
		b.streamPythonTurn(s, failingOutputs)
	default:
		b.streamPythonTurn(s, successOutputs)
	}
}

func (b *backend) handleInitialize(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, `{"error":"session id is required"}`, http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	status := "created"
	if b.sessions[sessionID] {
		status = "exists"
	}
	b.sessions[sessionID] = true
	b.mu.Unlock()

	slog.Info("sandbox initialize", "session_id", sessionID, "status", status)
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (b *backend) handleUpload(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, `{"error":"session_id is required"}`, http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, `{"error":"file field is required"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	var size int64
	buf := make([]byte, 32*1024)
	for {
		n, err := file.Read(buf)
		size += int64(n)
		if err != nil {
			break
		}
	}

	slog.Info("upload received", "session_id", sessionID, "filename", header.Filename, "size", size)
	writeJSON(w, http.StatusOK, map[string]any{
		"filename": header.Filename,
		"size":     size,
		"path":     "/workspace/" + header.Filename,
	})
}

// --- Canned turns ---

const pythonCode = "x = 6 * 7\nprint(\"computing\")\nx"

var successOutputs = []map[string]any{
	{"output_type": "stream", "name": "stdout", "text": "computing\n"},
	{"output_type": "execute_result", "data": map[string]string{"text/plain": "42"}},
}

var failingOutputs = []map[string]any{
	{"output_type": "stream", "name": "stdout", "text": "computing\n"},
	{
		"output_type": "error",
		"ename":       "ZeroDivisionError",
		"evalue":      "division by zero",
		"traceback":   []string{"Traceback (most recent call last):", "  File \"<stdin>\", line 1", "ZeroDivisionError: division by zero"},
	},
}

func (b *backend) streamPythonTurn(s *streamWriter, outs []map[string]any) {
	callID := fmt.Sprintf("call_mock%d", time.Now().UnixNano()%1_000_000)
	args := map[string]string{"code": pythonCode}

	s.text("Let me ", "run that ", "in the sandbox.")
	s.frame("b", map[string]any{"toolCallId": callID, "toolName": "python_interpreter"})

	argsJSON, _ := json.Marshal(args)
	half := len(argsJSON) / 2
	s.frame("c", map[string]any{"toolCallId": callID, "argsTextDelta": string(argsJSON[:half])})
	s.frame("c", map[string]any{"toolCallId": callID, "argsTextDelta": string(argsJSON[half:])})

	s.frame("9", map[string]any{"toolCallId": callID, "toolName": "python_interpreter", "args": args})
	s.frame("a", map[string]any{
		"toolCallId": callID,
		"toolName":   "python_interpreter",
		"args":       args,
		"result":     map[string]any{"code": pythonCode, "outputs": outs},
	})

	s.frame("e", map[string]any{"finishReason": "tool-calls"})
	s.text("Done.")
	s.frame("d", map[string]any{"finishReason": "stop"})
}

func (b *backend) streamWeatherTurn(s *streamWriter) {
	callID := fmt.Sprintf("call_mock%d", time.Now().UnixNano()%1_000_000)
	args := map[string]string{"city": "Berlin"}

	s.text("Checking the ", "weather.")
	s.frame("b", map[string]any{"toolCallId": callID, "toolName": "get_current_weather"})
	s.frame("9", map[string]any{"toolCallId": callID, "toolName": "get_current_weather", "args": args})
	s.frame("a", map[string]any{
		"toolCallId": callID,
		"toolName":   "get_current_weather",
		"args":       args,
		"result": map[string]any{
			"latitude":      52.52,
			"longitude":     13.41,
			"timezone":      "Europe/Berlin",
			"current_units": map[string]string{"temperature_2m": "°C"},
			"current":       map[string]any{"time": "2024-06-01T12:00", "temperature_2m": 21.4},
		},
	})

	s.frame("e", map[string]any{"finishReason": "tool-calls"})
	s.text("It is mild out.")
	s.frame("d", map[string]any{"finishReason": "stop"})
}

// --- Stream plumbing ---

// streamWriter emits one frame per line and flushes after each, so the
// client observes the stream incrementally.
type streamWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newStreamWriter(w http.ResponseWriter) *streamWriter {
	flusher, _ := w.(http.Flusher)
	return &streamWriter{w: w, flusher: flusher}
}

func (s *streamWriter) frame(prefix string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "%s:%s\n", prefix, data)
	if s.flusher != nil {
		s.flusher.Flush()
	}
	time.Sleep(20 * time.Millisecond)
}

func (s *streamWriter) text(tokens ...string) {
	for _, tok := range tokens {
		s.frame("0", tok)
	}
}

func lastUserContent(msgs []chatMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			return strings.ToLower(msgs[i].Content)
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
