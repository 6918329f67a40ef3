package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yeti-teti/Caesarion/pkg/api"
	"github.com/yeti-teti/Caesarion/pkg/invocation"
	"github.com/yeti-teti/Caesarion/pkg/render"
	"github.com/yeti-teti/Caesarion/pkg/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Show or manage the client's session identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("session id: %s\n", sess.ID)
		fmt.Println(render.SessionLine(sess.Short(), string(controller.SandboxState())))
		return nil
	},
}

var sessionHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Replay the persisted transcript for this session",
	RunE: func(cmd *cobra.Command, args []string) error {
		msgs, err := store.ListMessages(cmd.Context(), sess.ID)
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			fmt.Println("no messages recorded for this session")
			return nil
		}

		tracker := invocation.NewTracker(render.DefaultRegistry())
		for _, msg := range msgs {
			switch msg.Role {
			case api.RoleUser:
				fmt.Println(render.UserPrefix() + msg.Content)
			case api.RoleAssistant:
				if msg.Content != "" {
					fmt.Println(render.AssistantPrefix() + msg.Content)
				}
				for _, inv := range msg.ToolInvocations {
					fmt.Println(render.StatusLine(tracker.Update(inv), inv.ToolName))
					fmt.Println(tracker.Render(inv))
				}
			}
			fmt.Println()
		}
		return nil
	},
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Abandon the current session and start a fresh one",
	Long: `Abandon the current session identity. The next run of the client uses a
new session id, which means a fresh sandbox with no carried-over variables
or files. The old transcript stays in local storage under the old id.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		next := uuid.NewString()
		if err := store.Set(cmd.Context(), session.SessionKey, next); err != nil {
			return err
		}
		fmt.Printf("session reset; next run uses %s\n", next)
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionHistoryCmd)
	sessionCmd.AddCommand(sessionResetCmd)
}
