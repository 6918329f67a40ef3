package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yeti-teti/Caesarion/pkg/api"
	"github.com/yeti-teti/Caesarion/pkg/chat"
	"github.com/yeti-teti/Caesarion/pkg/invocation"
	"github.com/yeti-teti/Caesarion/pkg/render"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat with the sandbox backend.

While the assistant is responding, Ctrl+C cancels the in-flight turn and
keeps the partial response. Type /quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func runChat(ctx context.Context) error {
	tracker := invocation.NewTracker(render.DefaultRegistry())

	// One status line per outcome change, not per frame.
	outcomes := make(map[string]invocation.Outcome)
	firstDelta := true

	client, err := chat.New(chat.Config{
		BaseURL:     cfg.Backend.BaseURL,
		ChatPath:    cfg.Backend.ChatPath,
		SessionID:   sess.ID,
		Transcripts: store,
		Events: chat.Events{
			TextDelta: func(delta string) {
				if firstDelta {
					fmt.Print(render.AssistantPrefix())
					firstDelta = false
				}
				fmt.Print(delta)
			},
			InvocationUpdate: func(inv api.ToolInvocation) {
				outcome := tracker.Update(inv)
				if prev, ok := outcomes[inv.CallID]; ok && prev == outcome {
					return
				}
				outcomes[inv.CallID] = outcome

				fmt.Println()
				fmt.Println(render.StatusLine(outcome, inv.ToolName))
				if outcome != invocation.OutcomeExecuting {
					fmt.Println(tracker.Render(inv))
				}
			},
			TurnComplete: func(msg api.ChatMessage) {
				fmt.Println()
			},
		},
	})
	if err != nil {
		return err
	}

	if msgs, err := store.ListMessages(ctx, sess.ID); err == nil && len(msgs) > 0 {
		client.Restore(msgs)
		fmt.Println(render.Warning(fmt.Sprintf("restored %d messages from a previous run", len(msgs))))
	}

	// Sandbox initialization runs alongside the prompt; chat does not wait
	// for it.
	go controller.InitializeSandbox(ctx, sess.ID)

	// Ctrl+C aborts the in-flight turn instead of the process.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			client.Cancel()
		}
	}()

	fmt.Println(render.SessionLine(sess.Short(), string(controller.SandboxState())))
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(render.UserPrefix())
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/session":
			fmt.Println(render.SessionLine(sess.Short(), string(controller.SandboxState())))
			continue
		}

		firstDelta = true
		err := client.Submit(ctx, line)
		switch {
		case err == nil:
			// turn completed or was cancelled
		case errors.Is(err, chat.ErrBusy):
			fmt.Println(render.Warning("a response is still streaming"))
		case api.IsRateLimited(err):
			fmt.Println(render.Warning(err.Error()))
		default:
			fmt.Println(render.Warning("chat failed: " + err.Error()))
		}
		fmt.Println()
	}
}
