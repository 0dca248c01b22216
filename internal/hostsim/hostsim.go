package hostsim

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"uefbridge/internal/transport"
	"uefbridge/internal/uef"
	"uefbridge/pkg/logging"
)

// Options configures the simulated host.
type Options struct {
	// ExpectedToken is the bearer value the host accepts. Empty accepts any
	// non-empty token.
	ExpectedToken string

	// RejectFirstAuthorize makes the host reject the first authorization
	// attempt, exercising the client's refresh path.
	RejectFirstAuthorize bool
}

// Registration is a capability the client advertised.
type Registration struct {
	Kind        string
	ID          string
	DisplayName string
}

// Panel is a panel the simulated host opened for the client.
type Panel struct {
	PortalID   string
	CallbackID string
	Title      string
	// RenderedURL is the iframe source of the last render, if any.
	RenderedURL string
}

// Host simulates the LMS side of the protocol over a pipe.
type Host struct {
	pipe *transport.Pipe
	opts Options

	cmds chan func()

	// Loop-owned.
	port          *transport.HostPort
	authorized    bool
	authAttempts  int
	subscriptions []string

	// mu guards the observation mirror read by callers.
	mu            sync.RWMutex
	registrations []Registration
	panels        map[string]*Panel
	lastCallback  string
}

// New creates a simulated host over the given pipe.
func New(pipe *transport.Pipe, opts Options) *Host {
	return &Host{
		pipe:   pipe,
		opts:   opts,
		cmds:   make(chan func(), 16),
		panels: make(map[string]*Panel),
	}
}

// Run processes client traffic and injected commands until the context is
// cancelled.
func (h *Host) Run(ctx context.Context) {
	var recv <-chan uef.Message

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-h.pipe.HostInbound():
			if !ok {
				return
			}
			if hello, isHello := msg.(*uef.Hello); isHello {
				logging.Info("HostSim", "hello from client version %s", hello.ClientVersion)
				h.port = h.pipe.GrantPort("sim-port-" + uuid.NewString()[:8])
				recv = h.port.Recv()
			}

		case msg, ok := <-recv:
			if !ok {
				return
			}
			h.handle(msg)

		case cmd := <-h.cmds:
			cmd()
		}
	}
}

func (h *Host) handle(msg uef.Message) {
	switch m := msg.(type) {
	case *uef.Authorize:
		h.handleAuthorize(m)
	case *uef.EventSubscribe:
		h.subscriptions = m.Subscriptions
		logging.Info("HostSim", "client subscribed to %v", m.Subscriptions)
	case *uef.HelpRegister:
		h.record(Registration{Kind: "help", ID: m.ID, DisplayName: m.DisplayName})
		logging.Info("HostSim", "help entry registered: %s", m.DisplayName)
		h.send(&uef.HelpRegisterResponse{Type: uef.TypeHelpRegister, Status: uef.StatusSuccess})
	case *uef.RouteRegister:
		h.record(Registration{Kind: "route", ID: m.RouteName, DisplayName: m.DisplayName})
		logging.Info("HostSim", "route registered: %s", m.RouteName)
		h.send(&uef.RouteRegisterResponse{Type: uef.TypeRouteRegister, Status: uef.StatusSuccess})
	case *uef.PortalNew:
		h.handlePortalNew(m)
	case *uef.PortalRender:
		h.handleRender(m)
	default:
		logging.Debug("HostSim", "ignoring %s record", msg.MessageType())
	}
}

func (h *Host) handleAuthorize(m *uef.Authorize) {
	h.authAttempts++

	reject := m.Token == "" ||
		(h.opts.ExpectedToken != "" && m.Token != h.opts.ExpectedToken) ||
		(h.opts.RejectFirstAuthorize && h.authAttempts == 1)
	if reject {
		logging.Warn("HostSim", "rejecting authorization attempt %d", h.authAttempts)
		h.send(uef.NewAuthorizeResponse(uef.StatusFailure, "invalid or expired token"))
		return
	}

	h.authorized = true
	logging.Info("HostSim", "client authorized")
	h.send(uef.NewAuthorizeResponse(uef.StatusSuccess, ""))
}

func (h *Host) handlePortalNew(m *uef.PortalNew) {
	if !h.authorized {
		h.send(&uef.PortalNewResponse{
			Type:          uef.TypePortalNewResponse,
			CorrelationID: m.CorrelationID,
			Status:        uef.StatusFailure,
			Reason:        "not authorized",
		})
		return
	}

	portalID := "portal-" + uuid.NewString()[:8]
	h.mu.Lock()
	h.panels[portalID] = &Panel{PortalID: portalID, CallbackID: m.CallbackID, Title: m.PanelTitle}
	h.lastCallback = m.CallbackID
	h.mu.Unlock()

	logging.Info("HostSim", "panel %q opened as %s", m.PanelTitle, portalID)
	h.send(&uef.PortalNewResponse{
		Type:          uef.TypePortalNewResponse,
		CorrelationID: m.CorrelationID,
		Status:        uef.StatusSuccess,
		PortalID:      portalID,
	})
}

func (h *Host) handleRender(m *uef.PortalRender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	panel, ok := h.panels[m.PortalID]
	if !ok {
		logging.Warn("HostSim", "render into unknown portal %s", m.PortalID)
		return
	}
	panel.RenderedURL = iframeSrc(m.Contents)
	logging.Info("HostSim", "portal %s renders %s", m.PortalID, panel.RenderedURL)
}

// iframeSrc digs the iframe source out of a rendered content tree.
func iframeSrc(node *uef.ContentNode) string {
	if node == nil {
		return ""
	}
	if node.Tag == "iframe" {
		return node.Props["src"]
	}
	for _, child := range node.Children {
		if src := iframeSrc(child); src != "" {
			return src
		}
	}
	return ""
}

// --- injected events ---

// EmitHelpRequest simulates the user picking the help entry. It returns the
// correlation id the client must acknowledge.
func (h *Host) EmitHelpRequest(id string) string {
	correlationID := uuid.NewString()
	h.cmds <- func() {
		h.send(&uef.Event{
			Type:          uef.TypeEvent,
			EventType:     uef.EventHelpRequest,
			CorrelationID: correlationID,
			ID:            id,
		})
	}
	return correlationID
}

// EmitRoute simulates the user navigating to a route.
func (h *Host) EmitRoute(routeName string) {
	h.cmds <- func() {
		h.send(&uef.Event{Type: uef.TypeEvent, EventType: uef.EventRoute, RouteName: routeName})
	}
}

// ClosePanel simulates the user dismissing the most recently opened panel.
func (h *Host) ClosePanel() error {
	h.mu.RLock()
	callbackID := h.lastCallback
	h.mu.RUnlock()
	if callbackID == "" {
		return fmt.Errorf("no panel has been opened")
	}
	h.cmds <- func() {
		h.send(uef.NewPortalCallback(callbackID))
	}
	return nil
}

// RemovePanel simulates the host tearing a panel down, as on navigation.
func (h *Host) RemovePanel(portalID string) {
	h.cmds <- func() {
		h.send(&uef.Event{Type: uef.TypeEvent, EventType: uef.EventPortalRemove, PortalID: portalID})
	}
}

// --- observation ---

// Registrations returns the capabilities the client has advertised.
func (h *Host) Registrations() []Registration {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Registration, len(h.registrations))
	copy(out, h.registrations)
	return out
}

// Panels returns the panels opened so far.
func (h *Host) Panels() []Panel {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Panel, 0, len(h.panels))
	for _, p := range h.panels {
		out = append(out, *p)
	}
	return out
}

func (h *Host) record(reg Registration) {
	h.mu.Lock()
	h.registrations = append(h.registrations, reg)
	h.mu.Unlock()
}

func (h *Host) send(msg uef.Message) {
	if h.port == nil {
		logging.Errorf("HostSim", "dropping %s: no channel", msg.MessageType())
		return
	}
	if err := h.port.Send(msg); err != nil {
		logging.Error("HostSim", err, "failed to send %s", msg.MessageType())
	}
}
