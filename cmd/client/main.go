package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/yourusername/watchroom-chat/internal/client"
	"github.com/yourusername/watchroom-chat/internal/client/connection"
	"github.com/yourusername/watchroom-chat/internal/client/session"
	"github.com/yourusername/watchroom-chat/internal/client/storage"
	"github.com/yourusername/watchroom-chat/internal/client/ui"
	"github.com/yourusername/watchroom-chat/internal/config"
	ilog "github.com/yourusername/watchroom-chat/internal/log"
	"github.com/yourusername/watchroom-chat/internal/metrics"
	"github.com/yourusername/watchroom-chat/internal/protocol"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
	)

	load := func() (config.Config, error) {
		cfg, path, err := config.Load(nil, configPath)
		if err != nil {
			return cfg, err
		}
		cfg.UpdateFrom(overrides)
		if err := cfg.Validate(); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
		return cfg, nil
	}

	root := &cobra.Command{
		Use:           "chat-client",
		Short:         "Chat client for a watch-party room",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default ./chat-client.yaml)")
	pf.StringVar(&overrides.ServerURL, "server", "", "WebSocket server URL")
	pf.StringVar(&overrides.SessionID, "session", "", "session id")
	pf.StringVar(&overrides.RoomType, "room", "", "room type")
	pf.BoolVar(&overrides.IsAdmin, "admin", false, "enable moderation controls")
	pf.StringVar(&overrides.LogLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&overrides.LogFile, "log-file", "", "log file used by the interactive client")
	pf.StringVar(&overrides.Storage.Driver, "storage", "", "identity storage: file or sqlite")
	pf.StringVar(&overrides.Storage.Path, "storage-path", "", "identity storage path")
	pf.StringVar(&overrides.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	chat := &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive chat (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runChat(cmd.Context(), cfg)
		},
	}

	tail := &cobra.Command{
		Use:   "tail",
		Short: "Join the room and print the transcript to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runTail(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	mod := &cobra.Command{
		Use:   "mod <mute|unmute|ban|delete|toggle> [username|message-id]",
		Short: "Send one moderation command",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := client.ParseAction(args[0])
			if err != nil {
				return err
			}
			target := ""
			if len(args) == 2 {
				target = args[1]
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			return runModerate(cmd.Context(), cfg, action, target, cmd.OutOrStdout())
		},
	}

	root.RunE = chat.RunE
	root.AddCommand(chat, tail, mod)
	return root
}

// room bundles what every subcommand needs for one joined room.
type room struct {
	store storage.Store
	sess  *session.Session
	mgr   *connection.Manager
}

func openRoom(ctx context.Context, cfg config.Config, logger *zerolog.Logger) (*room, error) {
	store, err := storage.Open(cfg.Storage, storage.Key(cfg.SessionID, cfg.RoomType))
	if err != nil {
		return nil, err
	}

	stored, err := store.Load(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("could not read stored username")
	}
	username := session.ResolveUsername(stored, rand.Intn)

	sess := session.New(session.Context{
		SessionID: cfg.SessionID,
		RoomType:  cfg.RoomType,
		IsAdmin:   cfg.IsAdmin,
	}, username)

	mgr := connection.NewManager(cfg.ServerURL, connection.Options{
		HandshakeTimeout: cfg.HandshakeTimeout,
		WriteTimeout:     cfg.WriteTimeout,
		Logger:           logger,
	})

	logger.Info().
		Str("session_id", cfg.SessionID).
		Str("room_type", cfg.RoomType).
		Str("username", username).
		Bool("admin", cfg.IsAdmin).
		Msg("joining room")

	return &room{store: store, sess: sess, mgr: mgr}, nil
}

func runChat(ctx context.Context, cfg config.Config) error {
	logFile, err := ilog.OpenFile(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger := ilog.New(cfg.LogLevel, logFile)

	stopMetrics := serveMetrics(cfg.MetricsAddr, logger)
	defer stopMetrics()

	r, err := openRoom(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer r.store.Close()

	model := ui.NewModel(ui.Options{
		Manager:   r.mgr,
		Session:   r.sess,
		Store:     r.store,
		Logger:    logger,
		ServerURL: cfg.ServerURL,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	r.mgr.Disconnect()
	if err != nil {
		return fmt.Errorf("run ui: %w", err)
	}

	if m, ok := final.(ui.Model); ok && m.ExitReason() != "" {
		return &client.RemovedError{Reason: m.ExitReason()}
	}
	return nil
}

func runTail(ctx context.Context, cfg config.Config, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := ilog.New(cfg.LogLevel, os.Stderr)
	stopMetrics := serveMetrics(cfg.MetricsAddr, logger)
	defer stopMetrics()

	r, err := openRoom(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer r.store.Close()

	return client.NewRunner(r.mgr, r.sess, r.store, logger, out).Tail(ctx)
}

func runModerate(ctx context.Context, cfg config.Config, action protocol.Action, target string, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.HandshakeTimeout+cfg.WriteTimeout)
	defer cancel()

	logger := ilog.New(cfg.LogLevel, os.Stderr)

	r, err := openRoom(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer r.store.Close()

	return client.NewRunner(r.mgr, r.sess, r.store, logger, out).Moderate(ctx, action, target)
}

// serveMetrics exposes Prometheus metrics when addr is set and returns a
// shutdown func.
func serveMetrics(addr string, logger *zerolog.Logger) func() {
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
