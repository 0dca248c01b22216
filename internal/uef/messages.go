package uef

// Message type discriminators. Fixed by the host contract.
const (
	TypeHello               = "integration:hello"
	TypeHelloResponse       = "integration:hello:response"
	TypeAuthorize           = "authorization:authorize"
	TypeHelpRegister        = "help:register"
	TypeRouteRegister       = "route:register"
	TypeEventSubscribe      = "event:subscribe"
	TypeEvent               = "event:event"
	TypeHelpRequestResponse = "help:request:response"
	TypePortalNew           = "portal:new"
	TypePortalNewResponse   = "portal:new:response"
	TypePortalRender        = "portal:render"
	TypePortalCallback      = "portal:callback"
)

// Event categories delivered inside event:event records.
const (
	EventRoute        = "route"
	EventHelpRequest  = "help:request"
	EventPortalRemove = "portal:remove"
	EventClick        = "click"
)

// Status values carried by reply records.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// ProviderIframe is the help provider kind for iframe-backed help content.
const ProviderIframe = "iframe"

// Message is implemented by every wire record.
type Message interface {
	// MessageType returns the type discriminator of the record.
	MessageType() string
}

// Hello is the client's opening signal on the public message surface.
type Hello struct {
	Type string `json:"type"`
	// ClientVersion identifies the integration build to the host.
	ClientVersion string `json:"clientVersion,omitempty"`
}

func NewHello(clientVersion string) *Hello {
	return &Hello{Type: TypeHello, ClientVersion: clientVersion}
}

func (m *Hello) MessageType() string { return TypeHello }

// HelloResponse is the host's handshake reply. It grants the private port
// over which all subsequent protocol traffic flows.
type HelloResponse struct {
	Type string `json:"type"`
	// PortID names the granted private port on the transport.
	PortID string `json:"portId"`
}

func NewHelloResponse(portID string) *HelloResponse {
	return &HelloResponse{Type: TypeHelloResponse, PortID: portID}
}

func (m *HelloResponse) MessageType() string { return TypeHelloResponse }

// Authorize carries the bearer credential to the host.
type Authorize struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

func NewAuthorize(token string) *Authorize {
	return &Authorize{Type: TypeAuthorize, Token: token}
}

func (m *Authorize) MessageType() string { return TypeAuthorize }

// AuthorizeResponse is the host's type-keyed authorization reply.
type AuthorizeResponse struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func NewAuthorizeResponse(status, reason string) *AuthorizeResponse {
	return &AuthorizeResponse{Type: TypeAuthorize, Status: status, Reason: reason}
}

func (m *AuthorizeResponse) MessageType() string { return TypeAuthorize }

// HelpRegister advertises a help-menu entry. The id must be stable across
// reloads; the host treats it as the key for update-vs-duplicate.
type HelpRegister struct {
	Type         string `json:"type"`
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	IconURL      string `json:"iconUrl,omitempty"`
	ProviderType string `json:"providerType"`
}

func (m *HelpRegister) MessageType() string { return TypeHelpRegister }

// HelpRegisterResponse is the host's type-keyed help registration reply.
type HelpRegisterResponse struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func (m *HelpRegisterResponse) MessageType() string { return TypeHelpRegister }

// RouteRegister advertises a navigation route. InitialContents is the
// lightweight placeholder the host may render directly into the route's
// content area; it must not contain the embedded content itself.
type RouteRegister struct {
	Type            string       `json:"type"`
	RouteName       string       `json:"routeName"`
	DisplayName     string       `json:"displayName"`
	InitialContents *ContentNode `json:"initialContents,omitempty"`
}

func (m *RouteRegister) MessageType() string { return TypeRouteRegister }

// RouteRegisterResponse is the host's type-keyed route registration reply.
type RouteRegisterResponse struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func (m *RouteRegisterResponse) MessageType() string { return TypeRouteRegister }

// EventSubscribe declares which event categories the client wants delivered.
// The host does not reply.
type EventSubscribe struct {
	Type          string   `json:"type"`
	Subscriptions []string `json:"subscriptions"`
}

func NewEventSubscribe(subscriptions ...string) *EventSubscribe {
	return &EventSubscribe{Type: TypeEventSubscribe, Subscriptions: subscriptions}
}

func (m *EventSubscribe) MessageType() string { return TypeEventSubscribe }

// Event is a host notification in one of the subscribed categories.
//
// The two invocation sources arrive in different shapes: help invocations
// carry a correlationId the client must answer, route changes carry only
// the routeName.
type Event struct {
	Type          string `json:"type"`
	EventType     string `json:"eventType"`
	CorrelationID string `json:"correlationId,omitempty"`
	ID            string `json:"id,omitempty"`
	RouteName     string `json:"routeName,omitempty"`
	PortalID      string `json:"portalId,omitempty"`
}

func (m *Event) MessageType() string { return TypeEvent }

// HelpRequestResponse acknowledges a help invocation event. The host
// enforces a response timeout for this interaction; a missed acknowledgment
// degrades the help-menu entry even if the panel opens.
type HelpRequestResponse struct {
	Type          string `json:"type"`
	CorrelationID string `json:"correlationId"`
}

func NewHelpRequestResponse(correlationID string) *HelpRequestResponse {
	return &HelpRequestResponse{Type: TypeHelpRequestResponse, CorrelationID: correlationID}
}

func (m *HelpRequestResponse) MessageType() string { return TypeHelpRequestResponse }

// PortalNew asks the host to open a panel. CorrelationID is client-generated
// and round-tripped; CallbackID is the close-callback id the host fires when
// the user dismisses the panel.
type PortalNew struct {
	Type          string            `json:"type"`
	CorrelationID string            `json:"correlationId"`
	PanelType     string            `json:"panelType"`
	PanelTitle    string            `json:"panelTitle,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	CallbackID    string            `json:"callbackId"`
}

func (m *PortalNew) MessageType() string { return TypePortalNew }

// PortalNewResponse is the host's correlated panel-open reply. On success it
// carries the host-assigned render target id.
type PortalNewResponse struct {
	Type          string `json:"type"`
	CorrelationID string `json:"correlationId"`
	Status        string `json:"status"`
	PortalID      string `json:"portalId,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

func (m *PortalNewResponse) MessageType() string { return TypePortalNewResponse }

// PortalRender places a content tree into an open panel's render target.
// There is no state-bearing reply; a render failure is the host's to log.
type PortalRender struct {
	Type     string       `json:"type"`
	PortalID string       `json:"portalId"`
	Contents *ContentNode `json:"contents"`
}

func (m *PortalRender) MessageType() string { return TypePortalRender }

// PortalCallback is the host notification fired with the close-callback id
// registered at panel-open time.
type PortalCallback struct {
	Type       string `json:"type"`
	CallbackID string `json:"callbackId"`
}

func NewPortalCallback(callbackID string) *PortalCallback {
	return &PortalCallback{Type: TypePortalCallback, CallbackID: callbackID}
}

func (m *PortalCallback) MessageType() string { return TypePortalCallback }
