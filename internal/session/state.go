package session

// AuthState is the authorization state of the session.
type AuthState int

const (
	// AuthUnauthorized means no authorization has succeeded.
	AuthUnauthorized AuthState = iota

	// AuthAuthorizing means an authorize request is in flight.
	AuthAuthorizing

	// AuthAuthorized means the host accepted the credential.
	AuthAuthorized

	// AuthRejected means authorization failed terminally for this session;
	// the user must re-launch.
	AuthRejected
)

// String returns the string representation of the auth state.
func (s AuthState) String() string {
	switch s {
	case AuthUnauthorized:
		return "unauthorized"
	case AuthAuthorizing:
		return "authorizing"
	case AuthAuthorized:
		return "authorized"
	case AuthRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// PanelState is the lifecycle state of the single tracked panel.
type PanelState int

const (
	// PanelClosed means no panel is tracked.
	PanelClosed PanelState = iota

	// PanelOpening means an open request is in flight.
	PanelOpening

	// PanelOpen means the host confirmed the panel and assigned a render
	// target.
	PanelOpen
)

// String returns the string representation of the panel state.
func (s PanelState) String() string {
	switch s {
	case PanelClosed:
		return "closed"
	case PanelOpening:
		return "opening"
	case PanelOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time view of session state, safe to read from any
// goroutine.
type Snapshot struct {
	ChannelEstablished bool
	Auth               AuthState
	HelpRegistered     bool
	RouteRegistered    bool
	Panel              PanelState
	PortalID           string
}
