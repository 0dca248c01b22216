package config

// BridgeConfig is the top-level configuration structure for uefbridge.
type BridgeConfig struct {
	// GatewayURL is the websocket endpoint of the shell gateway.
	GatewayURL string `yaml:"gatewayUrl,omitempty"`

	// HostOrigin is the trusted host origin. Handshake replies from any
	// other origin are rejected. This is an explicit trust boundary; there
	// is no origin discovery.
	HostOrigin string `yaml:"hostOrigin,omitempty"`

	// ClientVersion is advertised in the opening hello.
	ClientVersion string `yaml:"clientVersion,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel,omitempty"`

	Embed   EmbedConfig   `yaml:"embed,omitempty"`
	Help    HelpConfig    `yaml:"help,omitempty"`
	Route   RouteConfig   `yaml:"route,omitempty"`
	Tokens  TokensConfig  `yaml:"tokens,omitempty"`
	Session SessionConfig `yaml:"session,omitempty"`
}

// EmbedConfig describes the embedded content placed into opened panels.
type EmbedConfig struct {
	// URL is the embedded content URL rendered in an iframe.
	URL string `yaml:"url,omitempty"`

	// PanelTitle is shown in the host panel chrome.
	PanelTitle string `yaml:"panelTitle,omitempty"`

	// PanelType is a host style hint (e.g. "small", "full").
	PanelType string `yaml:"panelType,omitempty"`
}

// HelpConfig describes the help-menu entry. ID must be stable across
// reloads; the host keys update-vs-duplicate on it.
type HelpConfig struct {
	ID          string `yaml:"id,omitempty"`
	DisplayName string `yaml:"displayName,omitempty"`
	IconURL     string `yaml:"iconUrl,omitempty"`
}

// RouteConfig describes the navigation route entry.
type RouteConfig struct {
	Name        string `yaml:"name,omitempty"`
	DisplayName string `yaml:"displayName,omitempty"`

	// PlaceholderTemplate renders the route's initial contents. It must not
	// embed the content URL itself.
	PlaceholderTemplate string `yaml:"placeholderTemplate,omitempty"`
}

// TokensConfig describes credential storage and the Token Provider.
type TokensConfig struct {
	// StorageDir overrides the default credential directory.
	StorageDir string `yaml:"storageDir,omitempty"`

	// PrimaryKey is the designated storage key for the bearer credential.
	PrimaryKey string `yaml:"primaryKey,omitempty"`

	// LegacyKey is the alternate key consulted for tokens stored by older
	// builds.
	LegacyKey string `yaml:"legacyKey,omitempty"`

	// RefreshURL is the Token Provider's credential-refresh endpoint.
	RefreshURL string `yaml:"refreshUrl,omitempty"`

	// ClientID identifies this integration to the Token Provider.
	ClientID string `yaml:"clientId,omitempty"`
}

// SessionConfig tunes protocol timing.
type SessionConfig struct {
	// RequestTimeoutSeconds bounds the wait for any correlated host reply.
	RequestTimeoutSeconds int `yaml:"requestTimeoutSeconds,omitempty"`
}

// GetDefaultConfig returns the default configuration for uefbridge.
func GetDefaultConfig() BridgeConfig {
	return BridgeConfig{
		ClientVersion: "dev",
		LogLevel:      "info",
		Embed: EmbedConfig{
			PanelType: "small",
		},
		Tokens: TokensConfig{
			PrimaryKey: "uefBearerToken",
			LegacyKey:  "xythosBearerToken",
		},
		Session: SessionConfig{
			RequestTimeoutSeconds: 5,
		},
	}
}
