package uef

import (
	"encoding/json"
	"fmt"
)

// Unknown is a record whose type discriminator this client does not know.
// The dispatch layer ignores these; they are not errors.
type Unknown struct {
	Type string
	Raw  json.RawMessage
}

func (m *Unknown) MessageType() string { return m.Type }

// Encode marshals a wire record to JSON.
func Encode(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s message: %w", m.MessageType(), err)
	}
	return data, nil
}

// Decode unmarshals a wire record, dispatching on the type discriminator.
// A record with a missing discriminator is an error; a record with an
// unrecognized discriminator is returned as *Unknown.
func Decode(data []byte) (Message, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to decode message head: %w", err)
	}
	if head.Type == "" {
		return nil, fmt.Errorf("message has no type discriminator")
	}

	var msg Message
	switch head.Type {
	case TypeHello:
		msg = &Hello{}
	case TypeHelloResponse:
		msg = &HelloResponse{}
	case TypeAuthorize:
		// The host answers with the request's own type. Direction
		// disambiguates: replies carry a status field, requests never do.
		if hasStatus(data) {
			msg = &AuthorizeResponse{}
		} else {
			msg = &Authorize{}
		}
	case TypeHelpRegister:
		if hasStatus(data) {
			msg = &HelpRegisterResponse{}
		} else {
			msg = &HelpRegister{}
		}
	case TypeRouteRegister:
		if hasStatus(data) {
			msg = &RouteRegisterResponse{}
		} else {
			msg = &RouteRegister{}
		}
	case TypeEventSubscribe:
		msg = &EventSubscribe{}
	case TypeEvent:
		msg = &Event{}
	case TypeHelpRequestResponse:
		msg = &HelpRequestResponse{}
	case TypePortalNew:
		msg = &PortalNew{}
	case TypePortalNewResponse:
		msg = &PortalNewResponse{}
	case TypePortalRender:
		msg = &PortalRender{}
	case TypePortalCallback:
		msg = &PortalCallback{}
	default:
		return &Unknown{Type: head.Type, Raw: json.RawMessage(data)}, nil
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("failed to decode %s message: %w", head.Type, err)
	}
	return msg, nil
}

func hasStatus(data []byte) bool {
	var probe struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.Status != ""
}

