package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yeti-teti/Caesarion/pkg/api"
)

// collectFrames runs ConsumeStream over the given wire data and returns all
// applied frames.
func collectFrames(t *testing.T, data string) []api.Frame {
	t.Helper()

	var frames []api.Frame
	err := ConsumeStream(context.Background(), strings.NewReader(data), func(f api.Frame) {
		frames = append(frames, f)
	})
	if err != nil {
		t.Fatalf("ConsumeStream: %v", err)
	}
	return frames
}

func TestConsumeStream_TextTurn(t *testing.T) {
	data := `0:"Hi"
0:" there"
d:{"finishReason":"stop"}
`
	frames := collectFrames(t, data)
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	if frames[0].Text != "Hi" || frames[1].Text != " there" {
		t.Errorf("token order not preserved: %q %q", frames[0].Text, frames[1].Text)
	}
	if frames[2].Type != api.FrameFinish {
		t.Errorf("expected finish last, got %s", frames[2].Type)
	}
}

func TestConsumeStream_SkipsMalformedLines(t *testing.T) {
	data := `0:"ok"
this line is not a frame
z:{"unknown":"prefix"}
0:{"not":"a string"}
0:" still ok"
d:{"finishReason":"stop"}
`
	frames := collectFrames(t, data)
	if len(frames) != 3 {
		t.Fatalf("expected malformed lines skipped, got %d frames", len(frames))
	}
	if frames[0].Text != "ok" || frames[1].Text != " still ok" {
		t.Errorf("well-formed frames lost around malformed ones: %+v", frames)
	}
}

func TestConsumeStream_StopsAtFinish(t *testing.T) {
	data := `0:"before"
d:{"finishReason":"stop"}
0:"after"
`
	frames := collectFrames(t, data)
	for _, f := range frames {
		if f.Text == "after" {
			t.Error("frame after the end marker was applied")
		}
	}
}

func TestConsumeStream_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data := "0:\"one\"\n0:\"two\"\n"
	err := ConsumeStream(ctx, strings.NewReader(data), func(api.Frame) {
		t.Error("no frame should be applied after cancellation")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestConsumeStream_EmptyLinesIgnored(t *testing.T) {
	data := "\n\n0:\"x\"\n\nd:{\"finishReason\":\"stop\"}\n"
	frames := collectFrames(t, data)
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
}
