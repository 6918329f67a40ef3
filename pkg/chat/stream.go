package chat

import (
	"bufio"
	"context"
	"io"
	"log/slog"

	"github.com/yeti-teti/Caesarion/pkg/api"
	"github.com/yeti-teti/Caesarion/pkg/debug"
	"github.com/yeti-teti/Caesarion/pkg/observability"
)

// Scanner buffer sizing: rich display outputs (base64-encoded images)
// arrive as a single frame line, so the line limit must be generous.
const (
	scannerInitialBuffer = 64 * 1024
	scannerMaxLine       = 16 * 1024 * 1024
)

// ConsumeStream reads data-stream frames from r one line at a time and
// invokes apply for each well-formed frame, strictly in arrival order.
//
// Wire format: one frame per line, "<type>:<json>". Malformed lines are
// logged and skipped, never fatal. Context cancellation stops reading
// immediately and returns ctx.Err(); a transport failure mid-stream is
// returned as the scanner error.
func ConsumeStream(ctx context.Context, r io.Reader, apply func(api.Frame)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scannerInitialBuffer), scannerMaxLine)

	for scanner.Scan() {
		// Check for cancellation between frames.
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Text()
		if line == "" {
			continue
		}

		frame, ok := api.ParseFrame(line)
		if !ok {
			slog.Warn("skipping malformed stream frame",
				"data", debug.Truncate(line, 200),
			)
			continue
		}

		observability.StreamFramesTotal.WithLabelValues(string(frame.Type)).Inc()
		debug.Log("chat", "frame received", "type", frame.Type)

		apply(frame)

		// The end marker terminates the sequence; the stream is
		// non-restartable past this point.
		if frame.Type == api.FrameFinish {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}
