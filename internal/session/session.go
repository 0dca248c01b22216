package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"uefbridge/internal/content"
	"uefbridge/internal/tokens"
	"uefbridge/internal/transport"
	"uefbridge/internal/uef"
	"uefbridge/pkg/logging"
)

// DefaultRequestTimeout bounds the wait for any correlated or type-keyed
// host reply.
const DefaultRequestTimeout = 5 * time.Second

// HelpEntry configures the help-menu invocation source.
type HelpEntry struct {
	// ID is the stable identifier; the host keys update-vs-duplicate on it,
	// so it must be identical across reloads.
	ID          string
	DisplayName string
	IconURL     string
}

// RouteEntry configures the navigation-route invocation source.
type RouteEntry struct {
	Name        string
	DisplayName string

	// Placeholder is the lightweight initial contents for the route's
	// content area. It must not contain the embedded content.
	Placeholder *uef.ContentNode
}

// Embed describes the content rendered into opened panels.
type Embed struct {
	URL        string
	PanelTitle string
	PanelType  string
}

// Options configures a Session.
type Options struct {
	// HostOrigin is the trusted host origin; required.
	HostOrigin string

	// ClientVersion is advertised in the hello.
	ClientVersion string

	// Help and Route are the invocation sources; at least one must be set.
	Help  *HelpEntry
	Route *RouteEntry

	Embed Embed

	// Resolver locates the bearer credential; required.
	Resolver *tokens.Resolver

	// Refresher recovers an expired credential once per session. Nil
	// disables the refresh path.
	Refresher *tokens.Refresher

	// Store persists a refreshed credential under StoreKey. Nil skips
	// persistence.
	Store    *tokens.Store
	StoreKey string

	// RequestTimeout bounds waits for host replies. Zero means
	// DefaultRequestTimeout.
	RequestTimeout time.Duration
}

// registration tracks one advertised capability.
type registration struct {
	acked    bool
	inflight bool
	failed   bool
}

// panelTracking is the single tracked panel.
type panelTracking struct {
	state         PanelState
	correlationID string
	callbackID    string
	portalID      string
}

func (p *panelTracking) clear() {
	*p = panelTracking{}
}

type refreshResult struct {
	token *oauth2.Token
	err   error
}

// Session is the UEF client session state machine. Create one per
// connection with New and drive it with Run.
type Session struct {
	opts    Options
	surface transport.Surface

	// Loop-owned protocol state.
	port         transport.Port
	portRecv     <-chan uef.Message
	authState    AuthState
	cred         *tokens.StoredCredential
	refreshed    bool
	helpReg      registration
	routeReg     registration
	panel        panelTracking
	routeOpened  bool
	pending      *pendingTable
	refreshCh    chan refreshResult
	terminalAuth error

	// snapMu guards the snapshot mirror only.
	snapMu   sync.RWMutex
	snapshot Snapshot
}

// New creates a session over the given surface. Configuration errors are
// fatal before any network activity.
func New(surface transport.Surface, opts Options) (*Session, error) {
	if opts.HostOrigin == "" {
		return nil, ErrNoHostOrigin
	}
	if opts.Embed.URL == "" {
		return nil, ErrNoEmbedURL
	}
	if opts.Help == nil && opts.Route == nil {
		return nil, fmt.Errorf("no invocation source configured: need a help entry or a route entry")
	}
	if opts.Resolver == nil {
		return nil, ErrNoCredentialSource
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.Embed.PanelType == "" {
		opts.Embed.PanelType = "small"
	}

	return &Session{
		opts:      opts,
		surface:   surface,
		pending:   newPendingTable(opts.RequestTimeout),
		refreshCh: make(chan refreshResult, 1),
	}, nil
}

// Snapshot returns a point-in-time view of the session state.
func (s *Session) Snapshot() Snapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snapshot
}

func (s *Session) publishSnapshot() {
	snap := Snapshot{
		ChannelEstablished: s.port != nil,
		Auth:               s.authState,
		HelpRegistered:     s.helpReg.acked,
		RouteRegistered:    s.routeReg.acked,
		Panel:              s.panel.state,
		PortalID:           s.panel.portalID,
	}
	s.snapMu.Lock()
	s.snapshot = snap
	s.snapMu.Unlock()
}

// Run sends the hello and processes events until the context is cancelled
// or the transport closes. It returns a terminal authorization error if one
// occurred, otherwise nil.
func (s *Session) Run(ctx context.Context) error {
	logging.Info("Session", "announcing to host origin %s", s.opts.HostOrigin)
	if err := s.surface.Post(uef.NewHello(s.opts.ClientVersion)); err != nil {
		return fmt.Errorf("failed to send hello: %w", err)
	}
	s.publishSnapshot()

	defer s.pending.stop()

	for {
		select {
		case <-ctx.Done():
			logging.Debug("Session", "context done, session ending")
			return s.terminalAuth

		case grant, ok := <-s.surface.Grants():
			if !ok {
				logging.Info("Session", "surface closed before handshake completed")
				return s.terminalAuth
			}
			s.handleGrant(grant)

		case msg, ok := <-s.portRecv:
			if !ok {
				logging.Info("Session", "channel closed by host, session ending")
				return s.terminalAuth
			}
			s.dispatch(msg)

		case key := <-s.pending.Fires():
			if s.pending.expired(key) {
				s.handleTimeout(key)
			}

		case result := <-s.refreshCh:
			s.handleRefreshResult(result)
		}
		s.publishSnapshot()
	}
}

// --- handshake ---

func (s *Session) handleGrant(grant transport.Grant) {
	if grant.Origin != s.opts.HostOrigin {
		logging.Warn("Session", "rejecting handshake reply from untrusted origin %s", grant.Origin)
		return
	}
	if s.port != nil {
		// Duplicate replies happen on host reload races; only the first
		// channel is ever adopted.
		logging.Info("Session", "ignoring duplicate handshake reply (port %s)", grant.PortID)
		return
	}

	s.port = grant.Port
	s.portRecv = grant.Port.Recv()
	logging.Info("Session", "channel established (port %s)", grant.PortID)

	s.authorize()
}

// --- authorization ---

func (s *Session) authorize() {
	cred, source, ok := s.opts.Resolver.Resolve()
	if !ok {
		logging.Warn("Session", "no credential available; authorization not attempted")
		return
	}
	s.cred = cred
	logging.Debug("Session", "credential resolved from %s source", source)

	s.sendAuthorize(cred.AccessToken)
}

func (s *Session) sendAuthorize(token string) {
	if !s.pending.add(typeKey(uef.TypeAuthorize)) {
		logging.Debug("Session", "authorize request already in flight")
		return
	}
	s.authState = AuthAuthorizing
	s.send(uef.NewAuthorize(token))
}

func (s *Session) handleAuthorizeResponse(resp *uef.AuthorizeResponse) {
	if !s.pending.resolve(typeKey(uef.TypeAuthorize)) {
		logging.Debug("Session", "ignoring unexpected authorization reply")
		return
	}

	if resp.Status == uef.StatusSuccess {
		s.authState = AuthAuthorized
		logging.Info("Session", "authorization succeeded")
		s.subscribe()
		s.register()
		return
	}

	s.authState = AuthUnauthorized
	logging.Warn("Session", "authorization rejected: %s", resp.Reason)

	// One refresh-and-retry when a refresh credential exists; a second
	// rejection is terminal for the session.
	if s.refreshed || s.opts.Refresher == nil || s.cred == nil || s.cred.RefreshToken == "" {
		s.authState = AuthRejected
		s.terminalAuth = &AuthRejectedError{Reason: resp.Reason}
		logging.Error("Session", s.terminalAuth, "authorization is terminal; user must re-launch")
		return
	}
	s.refreshed = true
	s.startRefresh(s.cred.RefreshToken)
}

func (s *Session) startRefresh(refreshToken string) {
	logging.Info("Session", "attempting credential refresh")
	refresher := s.opts.Refresher
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), tokens.DefaultRefreshTimeout)
		defer cancel()
		token, err := refresher.Refresh(ctx, refreshToken)
		s.refreshCh <- refreshResult{token: token, err: err}
	}()
}

func (s *Session) handleRefreshResult(result refreshResult) {
	if result.err != nil {
		s.authState = AuthRejected
		s.terminalAuth = &AuthRejectedError{Reason: "credential refresh failed"}
		logging.Error("Session", result.err, "credential refresh failed; authorization is terminal")
		return
	}

	if s.opts.Store != nil && s.opts.StoreKey != "" {
		if err := s.opts.Store.Save(s.opts.StoreKey, result.token); err != nil {
			logging.Warn("Session", "failed to persist refreshed credential: %v", err)
		}
	}

	s.cred = &tokens.StoredCredential{
		AccessToken:  result.token.AccessToken,
		RefreshToken: result.token.RefreshToken,
		TokenType:    result.token.TokenType,
		Expiry:       result.token.Expiry,
	}
	logging.Info("Session", "credential refreshed, retrying authorization")
	s.sendAuthorize(s.cred.AccessToken)
}

// --- registration & subscription ---

func (s *Session) subscribe() {
	s.send(uef.NewEventSubscribe(
		uef.EventClick,
		uef.EventRoute,
		uef.EventHelpRequest,
		uef.EventPortalRemove,
	))
}

func (s *Session) register() {
	if s.opts.Help != nil {
		s.registerHelp()
	}
	if s.opts.Route != nil {
		s.registerRoute()
	}
}

func (s *Session) registerHelp() {
	if s.helpReg.acked || s.helpReg.inflight || s.helpReg.failed {
		return
	}
	if !s.pending.add(typeKey(uef.TypeHelpRegister)) {
		return
	}
	s.helpReg.inflight = true
	s.send(&uef.HelpRegister{
		Type:         uef.TypeHelpRegister,
		ID:           s.opts.Help.ID,
		DisplayName:  s.opts.Help.DisplayName,
		IconURL:      s.opts.Help.IconURL,
		ProviderType: uef.ProviderIframe,
	})
}

func (s *Session) registerRoute() {
	if s.routeReg.acked || s.routeReg.inflight || s.routeReg.failed {
		return
	}
	if !s.pending.add(typeKey(uef.TypeRouteRegister)) {
		return
	}
	s.routeReg.inflight = true
	s.send(&uef.RouteRegister{
		Type:            uef.TypeRouteRegister,
		RouteName:       s.opts.Route.Name,
		DisplayName:     s.opts.Route.DisplayName,
		InitialContents: s.opts.Route.Placeholder,
	})
}

func (s *Session) handleHelpRegisterResponse(resp *uef.HelpRegisterResponse) {
	if !s.pending.resolve(typeKey(uef.TypeHelpRegister)) {
		logging.Debug("Session", "ignoring unexpected help registration reply")
		return
	}
	s.helpReg.inflight = false
	if resp.Status == uef.StatusSuccess {
		s.helpReg.acked = true
		logging.Info("Session", "help entry registered (id %s)", s.opts.Help.ID)
		return
	}
	// Not retried within the session.
	s.helpReg.failed = true
	logging.Warn("Session", "help registration failed: %s", resp.Reason)
}

func (s *Session) handleRouteRegisterResponse(resp *uef.RouteRegisterResponse) {
	if !s.pending.resolve(typeKey(uef.TypeRouteRegister)) {
		logging.Debug("Session", "ignoring unexpected route registration reply")
		return
	}
	s.routeReg.inflight = false
	if resp.Status == uef.StatusSuccess {
		s.routeReg.acked = true
		logging.Info("Session", "route registered (name %s)", s.opts.Route.Name)
		return
	}
	s.routeReg.failed = true
	logging.Warn("Session", "route registration failed: %s", resp.Reason)
}

// --- dispatch ---

func (s *Session) dispatch(msg uef.Message) {
	switch m := msg.(type) {
	case *uef.AuthorizeResponse:
		s.handleAuthorizeResponse(m)
	case *uef.HelpRegisterResponse:
		s.handleHelpRegisterResponse(m)
	case *uef.RouteRegisterResponse:
		s.handleRouteRegisterResponse(m)
	case *uef.Event:
		s.handleEvent(m)
	case *uef.PortalNewResponse:
		s.handlePortalNewResponse(m)
	case *uef.PortalCallback:
		s.handlePortalCallback(m)
	case *uef.Unknown:
		logging.Debug("Session", "ignoring unknown record type %s", m.Type)
	default:
		logging.Debug("Session", "ignoring unexpected %s record", msg.MessageType())
	}
}

func (s *Session) handleEvent(ev *uef.Event) {
	switch ev.EventType {
	case uef.EventHelpRequest:
		s.handleHelpInvocation(ev)
	case uef.EventRoute:
		s.handleRouteChange(ev)
	case uef.EventPortalRemove:
		s.handlePortalRemove(ev)
	default:
		logging.Debug("Session", "ignoring %s event", ev.EventType)
	}
}

// handleHelpInvocation acknowledges the help request and opens the panel.
// The acknowledgment goes out unconditionally: the host enforces a response
// timeout for this interaction, and a missed ack degrades the help-menu
// entry even when the panel itself opens fine.
func (s *Session) handleHelpInvocation(ev *uef.Event) {
	if s.opts.Help == nil {
		return
	}
	if ev.ID != "" && ev.ID != s.opts.Help.ID {
		logging.Debug("Session", "ignoring help request for foreign entry %s", ev.ID)
		return
	}

	if ev.CorrelationID != "" {
		s.send(uef.NewHelpRequestResponse(ev.CorrelationID))
	}
	s.requestPanel()
}

// handleRouteChange filters route notifications to the registered route and
// debounces repeats: the host may emit the same route more than once per
// navigation, and only the first may open the panel. Leaving the route
// resets the debounce.
func (s *Session) handleRouteChange(ev *uef.Event) {
	if s.opts.Route == nil {
		return
	}
	if ev.RouteName != s.opts.Route.Name {
		if s.routeOpened {
			logging.Debug("Session", "left route %s", s.opts.Route.Name)
			s.routeOpened = false
		}
		return
	}
	if s.routeOpened {
		logging.Debug("Session", "suppressing repeated notification for route %s", ev.RouteName)
		return
	}
	s.routeOpened = true
	s.requestPanel()
}

func (s *Session) handlePortalRemove(ev *uef.Event) {
	if s.panel.state != PanelOpen || ev.PortalID == "" || ev.PortalID != s.panel.portalID {
		logging.Debug("Session", "ignoring portal removal for unrelated portal %s", ev.PortalID)
		return
	}
	logging.Info("Session", "panel removed by host (portal %s)", ev.PortalID)
	s.panel.clear()
}

func (s *Session) handlePortalCallback(cb *uef.PortalCallback) {
	// A stale or duplicate close callback must not clear live state.
	if s.panel.callbackID == "" || cb.CallbackID != s.panel.callbackID {
		logging.Debug("Session", "ignoring close callback %s for untracked panel", cb.CallbackID)
		return
	}
	logging.Info("Session", "panel closed (callback %s)", cb.CallbackID)
	s.panel.clear()
}

// --- panel lifecycle ---

// requestPanel drives the shared panel state machine for both invocation
// sources.
func (s *Session) requestPanel() {
	switch s.panel.state {
	case PanelOpening:
		// Re-entrant trigger inside the open window; one request in flight.
		logging.Debug("Session", "panel open already in flight, ignoring invocation")

	case PanelOpen:
		// Focus/refresh: no second open request, just a re-render into the
		// existing target.
		logging.Debug("Session", "panel already open, re-rendering into portal %s", s.panel.portalID)
		s.render(s.panel.portalID)

	case PanelClosed:
		s.panel.correlationID = uuid.NewString()
		s.panel.callbackID = uuid.NewString()
		s.panel.state = PanelOpening
		s.pending.add(s.panel.correlationID)
		s.send(&uef.PortalNew{
			Type:          uef.TypePortalNew,
			CorrelationID: s.panel.correlationID,
			PanelType:     s.opts.Embed.PanelType,
			PanelTitle:    s.opts.Embed.PanelTitle,
			CallbackID:    s.panel.callbackID,
		})
		logging.Debug("Session", "panel open requested (correlation %s)", s.panel.correlationID)
	}
}

func (s *Session) handlePortalNewResponse(resp *uef.PortalNewResponse) {
	if s.panel.state != PanelOpening || resp.CorrelationID != s.panel.correlationID {
		logging.Debug("Session", "ignoring panel reply with correlation %s", resp.CorrelationID)
		return
	}
	if !s.pending.resolve(resp.CorrelationID) {
		return
	}

	if resp.Status != uef.StatusSuccess {
		// Not retried; the user must re-invoke.
		logging.Warn("Session", "panel open failed: %s", resp.Reason)
		s.panel.clear()
		return
	}

	s.panel.state = PanelOpen
	s.panel.portalID = resp.PortalID
	logging.Info("Session", "panel open (portal %s)", resp.PortalID)
	s.render(resp.PortalID)
}

// render places the embedded content iframe into the render target. Render
// has no state-bearing reply; a failure is logged host-side.
func (s *Session) render(portalID string) {
	s.send(&uef.PortalRender{
		Type:     uef.TypePortalRender,
		PortalID: portalID,
		Contents: content.Iframe(s.opts.Embed.URL, nil),
	})
}

// --- timeouts ---

func (s *Session) handleTimeout(key string) {
	switch key {
	case typeKey(uef.TypeAuthorize):
		logging.Warn("Session", "authorization reply timed out")
		if s.authState == AuthAuthorizing {
			s.authState = AuthUnauthorized
		}

	case typeKey(uef.TypeHelpRegister):
		logging.Warn("Session", "help registration reply timed out")
		s.helpReg.inflight = false

	case typeKey(uef.TypeRouteRegister):
		logging.Warn("Session", "route registration reply timed out")
		s.routeReg.inflight = false

	default:
		// Correlation-keyed: the only correlated request the client sends
		// is the panel open.
		if s.panel.state == PanelOpening && key == s.panel.correlationID {
			logging.Warn("Session", "panel open timed out (correlation %s)", key)
			s.panel.clear()
		} else {
			logging.Debug("Session", "stale timeout for %s", key)
		}
	}
}

// --- plumbing ---

// send transmits on the private channel. A message may only be sent once
// the channel exists; this is an invariant of the protocol, so a violation
// is logged loudly rather than silently queued.
func (s *Session) send(msg uef.Message) {
	if s.port == nil {
		logging.Errorf("Session", "dropping %s: no channel established", msg.MessageType())
		return
	}
	if err := s.port.Send(msg); err != nil {
		logging.Error("Session", err, "failed to send %s", msg.MessageType())
	}
}
