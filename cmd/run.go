package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"uefbridge/internal/session"
	"uefbridge/internal/tokens"
	"uefbridge/internal/transport"
	"uefbridge/pkg/logging"
)

// runGateway overrides the configured shell gateway endpoint.
var runGateway string

// runToken is a boot-injected bearer credential. It takes priority over
// every stored credential and is never persisted.
var runToken string

// runCmd connects to the shell gateway and drives a live session until
// interrupted.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the shell gateway and run a session",
	Long: `Connects to the configured shell gateway over websocket and runs the
client session: handshake, authorization, capability registration and panel
lifecycle. The session runs until the host disconnects or the process is
interrupted.

The bearer credential is resolved from the first available source: the
--token flag, the primary storage key, then the legacy storage key. If the
host rejects the credential and a refresh endpoint is configured, one
refresh is attempted before the session ends.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadSessionConfig()
	if err != nil {
		return err
	}
	if runGateway != "" {
		cfg.GatewayURL = runGateway
	}
	if cfg.GatewayURL == "" {
		return fmt.Errorf("no gateway endpoint: set gatewayUrl in config.yaml or pass --gateway")
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	opts, err := buildSessionOptions(cfg, store, runToken)
	if err != nil {
		return err
	}
	if err := preflightCredential(opts); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Invalidate the cached credential when an external provider rewrites
	// its file, so a reconnect picks up the fresh value.
	watcher := tokens.NewWatcher(tokens.WatcherConfig{
		Store: store,
		Keys:  []string{cfg.Tokens.PrimaryKey, cfg.Tokens.LegacyKey},
		OnChange: func(key string) {
			logging.Info("Run", "credential %s changed on disk", key)
		},
	})
	if err := watcher.Start(); err != nil {
		logging.Warn("Run", "credential watcher unavailable: %v", err)
	} else {
		defer watcher.Stop()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Connecting to shell gateway..."
	s.Start()

	surface, err := transport.DialWebsocket(ctx, cfg.GatewayURL)
	if err != nil {
		s.Stop()
		return err
	}
	defer surface.Close()
	s.Stop()

	sess, err := session.New(surface, opts)
	if err != nil {
		return err
	}

	logging.Info("Run", "session starting against %s", cfg.HostOrigin)
	return sess.Run(ctx)
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runGateway, "gateway", "", "Shell gateway websocket endpoint (overrides config)")
	runCmd.Flags().StringVar(&runToken, "token", "", "Boot-injected bearer credential (highest priority, not persisted)")
}
