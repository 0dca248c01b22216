package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"uefbridge/internal/config"
	"uefbridge/internal/content"
	"uefbridge/internal/session"
	"uefbridge/internal/tokens"
	"uefbridge/pkg/logging"
)

// loadBridgeConfig loads the configuration, honoring the --config-dir flag,
// and initializes logging at the configured level. Session invariants are
// checked separately by loadSessionConfig; commands that only touch the
// credential store do not need a complete session configuration.
func loadBridgeConfig() (config.BridgeConfig, error) {
	dir := configDir
	if dir == "" {
		dir = config.GetDefaultConfigPathOrPanic()
	}

	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return config.BridgeConfig{}, fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.ParseLevel(cfg.LogLevel), os.Stderr)
	return cfg, nil
}

// loadSessionConfig loads the configuration and checks the invariants a
// session cannot start without.
func loadSessionConfig() (config.BridgeConfig, error) {
	cfg, err := loadBridgeConfig()
	if err != nil {
		return config.BridgeConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.BridgeConfig{}, err
	}
	return cfg, nil
}

// openStore opens the credential store configured for persistence.
func openStore(cfg config.BridgeConfig) (*tokens.Store, error) {
	return tokens.NewStore(tokens.StoreConfig{
		StorageDir: cfg.Tokens.StorageDir,
		FileMode:   true,
	})
}

// buildSessionOptions assembles session options from the configuration, the
// credential store and an optional boot-injected token.
func buildSessionOptions(cfg config.BridgeConfig, store *tokens.Store, injectedToken string) (session.Options, error) {
	opts := session.Options{
		HostOrigin:    cfg.HostOrigin,
		ClientVersion: cfg.ClientVersion,
		Embed: session.Embed{
			URL:        cfg.Embed.URL,
			PanelTitle: cfg.Embed.PanelTitle,
			PanelType:  cfg.Embed.PanelType,
		},
		Resolver: &tokens.Resolver{
			Injected:   injectedToken,
			Store:      store,
			PrimaryKey: cfg.Tokens.PrimaryKey,
			LegacyKey:  cfg.Tokens.LegacyKey,
		},
		Store:          store,
		StoreKey:       cfg.Tokens.PrimaryKey,
		RequestTimeout: time.Duration(cfg.Session.RequestTimeoutSeconds) * time.Second,
	}

	if cfg.Tokens.RefreshURL != "" {
		opts.Refresher = tokens.NewRefresher(cfg.Tokens.RefreshURL, cfg.Tokens.ClientID)
	}

	if cfg.Help.ID != "" {
		opts.Help = &session.HelpEntry{
			ID:          cfg.Help.ID,
			DisplayName: cfg.Help.DisplayName,
			IconURL:     cfg.Help.IconURL,
		}
	}

	if cfg.Route.Name != "" {
		placeholder, err := content.RenderPlaceholder(cfg.Route.PlaceholderTemplate, content.PlaceholderData{
			RouteName:   cfg.Route.Name,
			DisplayName: cfg.Route.DisplayName,
		})
		if err != nil {
			return session.Options{}, fmt.Errorf("invalid placeholder template: %w", err)
		}
		opts.Route = &session.RouteEntry{
			Name:        cfg.Route.Name,
			DisplayName: cfg.Route.DisplayName,
			Placeholder: placeholder,
		}
	}

	return opts, nil
}

// cancelableContext derives a cancelable context from the command.
func cancelableContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithCancel(ctx)
}

// preflightCredential verifies that some credential source exists before any
// network activity. A session that cannot possibly authorize should fail
// here with a semantic exit code rather than connect and stall.
func preflightCredential(opts session.Options) error {
	if _, _, ok := opts.Resolver.Resolve(); !ok {
		return fmt.Errorf("no bearer credential found in any source: %w", session.ErrNoCredentialSource)
	}
	return nil
}
