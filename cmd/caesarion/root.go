package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yeti-teti/Caesarion/pkg/api"
	"github.com/yeti-teti/Caesarion/pkg/config"
	"github.com/yeti-teti/Caesarion/pkg/debug"
	"github.com/yeti-teti/Caesarion/pkg/observability"
	"github.com/yeti-teti/Caesarion/pkg/session"
	"github.com/yeti-teti/Caesarion/pkg/storage/memory"
	"github.com/yeti-teti/Caesarion/pkg/storage/sqlite"
)

// clientStore is the full storage surface the client needs: session
// key/value state plus transcript persistence. Both store backends
// implement it.
type clientStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	AppendMessage(ctx context.Context, sessionID string, msg api.ChatMessage) error
	ListMessages(ctx context.Context, sessionID string) ([]api.ChatMessage, error)
	Close() error
}

var (
	configPath string

	cfg        *config.Config
	store      clientStore
	controller *session.Controller
	sess       *session.Session
)

var rootCmd = &cobra.Command{
	Use:   "caesarion",
	Short: "Chat with a remote code-execution sandbox",
	Long: `Caesarion is a terminal client for a remote stateful code-execution
sandbox. Each client holds a durable session identity; the backend keeps a
Python interpreter alive per session, so variables and files persist across
conversational turns.

Quick start:
  caesarion                  # start an interactive chat
  caesarion upload data.csv  # put a file into the sandbox filesystem
  caesarion session          # show the session identity and sandbox state`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			store.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(sessionCmd)
}

// setup wires configuration, storage, and the session identity. Every
// subcommand runs through here first.
func setup(ctx context.Context) error {
	// Local development overrides, ignored when the file is absent.
	godotenv.Load(".env.local")

	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	debug.Init(cfg.Debug.Categories, cfg.Debug.Level)

	store, err = openStore(cfg.Storage)
	if err != nil {
		return err
	}

	if cfg.Observability.Metrics.Enabled {
		observability.Serve(cfg.Observability.Metrics.Addr, cfg.Observability.Metrics.Path)
	}

	controller, err = session.NewController(session.Config{
		Store:      store,
		BaseURL:    cfg.Backend.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.Backend.InitTimeout},
	})
	if err != nil {
		return err
	}

	sess, err = controller.EnsureSession(ctx)
	return err
}

// openStore constructs the configured storage backend.
func openStore(sc config.StorageConfig) (clientStore, error) {
	switch sc.Type {
	case "memory":
		return memory.New(), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(sc.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
		return sqlite.Open(sc.Path)
	default:
		return nil, fmt.Errorf("unknown storage type %q", sc.Type)
	}
}
