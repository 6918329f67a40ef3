package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeti-teti/Caesarion/pkg/render"
	"github.com/yeti-teti/Caesarion/pkg/upload"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a file into the sandbox filesystem",
	Long: `Upload a file into the sandbox filesystem, bound to this client's
session. Uploaded files are visible to code executed in later turns.

Files larger than 10 GiB are rejected before any data is sent. Ctrl+C
cancels an upload in progress.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpload(cmd, args[0])
	},
}

func runUpload(cmd *cobra.Command, path string) error {
	mgr, err := upload.NewManager(upload.Config{
		BaseURL:    cfg.Backend.BaseURL,
		ResetDelay: cfg.Upload.ResetDelay,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	name := filepath.Base(path)
	resp, err := mgr.Upload(ctx, path, sess.ID, func(fraction float64) {
		fmt.Printf("\r%s  %3.0f%%", name, fraction*100)
	})
	fmt.Println()
	if err != nil {
		if ctx.Err() != nil {
			fmt.Println(render.Warning("upload cancelled"))
			return nil
		}
		return err
	}

	fmt.Printf("uploaded %s (%d bytes) to %s\n", resp.Filename, resp.Size, resp.Path)
	return nil
}
