package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uefbridge/internal/config"
	"uefbridge/internal/session"
)

func sessionConfig() config.BridgeConfig {
	cfg := config.GetDefaultConfig()
	cfg.HostOrigin = "https://school.example.edu"
	cfg.Embed.URL = "https://widget.example.com/app"
	cfg.Embed.PanelTitle = "Widget"
	cfg.Help = config.HelpConfig{ID: "widget-help", DisplayName: "Widget Help"}
	cfg.Route = config.RouteConfig{Name: "widget", DisplayName: "Widget"}
	return cfg
}

func TestBuildSessionOptions(t *testing.T) {
	cfg := sessionConfig()
	cfg.Tokens.RefreshURL = "https://provider.example.com/refresh"

	opts, err := buildSessionOptions(cfg, nil, "injected-token")
	require.NoError(t, err)

	assert.Equal(t, "https://school.example.edu", opts.HostOrigin)
	assert.Equal(t, "injected-token", opts.Resolver.Injected)
	assert.Equal(t, "uefBearerToken", opts.Resolver.PrimaryKey)
	assert.Equal(t, "xythosBearerToken", opts.Resolver.LegacyKey)
	assert.NotNil(t, opts.Refresher)

	require.NotNil(t, opts.Help)
	assert.Equal(t, "widget-help", opts.Help.ID)

	require.NotNil(t, opts.Route)
	require.NotNil(t, opts.Route.Placeholder, "route registration carries a placeholder")
}

func TestBuildSessionOptionsWithoutRefreshEndpoint(t *testing.T) {
	opts, err := buildSessionOptions(sessionConfig(), nil, "injected-token")
	require.NoError(t, err)
	assert.Nil(t, opts.Refresher, "no refresh endpoint means no refresh path")
}

func TestBuildSessionOptionsBadTemplate(t *testing.T) {
	cfg := sessionConfig()
	cfg.Route.PlaceholderTemplate = "{{ .Broken"
	_, err := buildSessionOptions(cfg, nil, "")
	assert.Error(t, err)
}

func TestPreflightCredential(t *testing.T) {
	opts, err := buildSessionOptions(sessionConfig(), nil, "")
	require.NoError(t, err)
	assert.ErrorIs(t, preflightCredential(opts), session.ErrNoCredentialSource)

	opts, err = buildSessionOptions(sessionConfig(), nil, "bearer-abc")
	require.NoError(t, err)
	assert.NoError(t, preflightCredential(opts))
}
