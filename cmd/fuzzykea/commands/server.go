package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/fuzzykea/errors"
	"github.com/teranos/fuzzykea/logger"
	"github.com/teranos/fuzzykea/server"
)

// ServerCmd starts the HTTP API
var ServerCmd = &cobra.Command{
	Use:     "server",
	Aliases: []string{"serve"},
	Short:   "Start the fuzzyKEA HTTP API",
	Long: `Start the HTTP API.

The reference dataset is loaded once at startup and replaced only by
POST /api/reference/reload. With server.watch_config enabled, changes to
the analysis defaults in the active config file apply without a restart.

Endpoints:
  POST /api/analyze            Run an enrichment
  GET  /api/reference          Served dataset summary
  POST /api/reference/reload   Reload reference data
  GET  /api/example            Example input
  GET  /healthz                Readiness
  GET  /metrics                Prometheus metrics`,
	RunE: runServer,
}

var (
	serverDBPath string
	serverAddr   string
)

func init() {
	ServerCmd.Flags().StringVar(&serverDBPath, "db-path", "", "Custom database path (overrides config)")
	ServerCmd.Flags().StringVar(&serverAddr, "addr", "", "Listen address (overrides server.host and server.port)")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Default to Info for a long-running process
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if verbosity == 0 {
		if err := logger.InitializeFromEnv(); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
	}

	sess, err := newSession(serverDBPath)
	if err != nil {
		return err
	}
	defer sess.Close()

	opts := server.OptionsFromConfig(sess.cfg)
	if serverAddr != "" {
		opts.Addr = serverAddr
	}

	srv, err := server.New(sess.cfg, opts, sess.loader, logger.Logger.Named("server"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Reload(ctx); err != nil {
		return errors.Wrap(err, "initial reference load failed")
	}
	if sess.cfg.Server.WatchConfig {
		if err := srv.WatchConfig(); err != nil {
			logger.Logger.Warnw("Config hot-reload disabled", "error", err)
		}
	}

	pterm.Info.Printfln("fuzzyKEA API listening on http://%s", opts.Addr)
	return srv.ListenAndServe(ctx)
}
