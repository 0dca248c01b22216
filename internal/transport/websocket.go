package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"uefbridge/internal/uef"
	"uefbridge/pkg/logging"
)

// wsFrame is the gateway framing: one JSON object per text frame, wrapping a
// wire record with its origin and, for port traffic, the port id. Frames
// without a port id belong to the public surface.
type wsFrame struct {
	Origin  string          `json:"origin,omitempty"`
	PortID  string          `json:"portId,omitempty"`
	Message json.RawMessage `json:"message"`
}

// WebsocketSurface is a Surface carried over a websocket connection to a
// shell gateway.
type WebsocketSurface struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu     sync.Mutex
	ports  map[string]*wsPort
	closed bool

	teardown sync.Once
	grants   chan Grant
}

// DialWebsocket connects to a shell gateway and starts the read loop.
func DialWebsocket(ctx context.Context, gatewayURL string) (*WebsocketSurface, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, gatewayURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial gateway %s: %w", gatewayURL, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	s := &WebsocketSurface{
		conn:   conn,
		ports:  make(map[string]*wsPort),
		grants: make(chan Grant, 8),
	}
	go s.readLoop()
	return s, nil
}

// Post sends a record on the public surface.
func (s *WebsocketSurface) Post(msg uef.Message) error {
	return s.write(wsFrame{}, msg)
}

// Grants delivers handshake replies arriving on the public surface.
func (s *WebsocketSurface) Grants() <-chan Grant {
	return s.grants
}

// Close interrupts the connection. The read loop observes the closed
// connection and performs the actual channel teardown, so inbound delivery
// and channel closes never race.
func (s *WebsocketSurface) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.conn.Close()
}

// drain closes all inbound channels. Called only from the read loop
// goroutine, after the last delivery.
func (s *WebsocketSurface) drain() {
	s.teardown.Do(func() {
		s.mu.Lock()
		s.closed = true
		ports := s.ports
		s.ports = nil
		s.mu.Unlock()

		for _, p := range ports {
			close(p.in)
		}
		close(s.grants)
		s.conn.Close()
	})
}

func (s *WebsocketSurface) write(frame wsFrame, msg uef.Message) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}

	data, err := uef.Encode(msg)
	if err != nil {
		return err
	}
	frame.Message = data

	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to encode gateway frame: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("failed to write gateway frame: %w", err)
	}
	return nil
}

func (s *WebsocketSurface) readLoop() {
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			logging.Debug("Transport", "gateway read loop ending: %v", err)
			s.drain()
			return
		}

		var frame wsFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			logging.Warn("Transport", "dropping malformed gateway frame: %v", err)
			continue
		}

		msg, err := uef.Decode(frame.Message)
		if err != nil {
			logging.Warn("Transport", "dropping undecodable record: %v", err)
			continue
		}

		if frame.PortID == "" {
			s.handleSurfaceFrame(frame.Origin, msg)
			continue
		}
		s.deliverToPort(frame.PortID, msg)
	}
}

// handleSurfaceFrame processes public-surface traffic. The only meaningful
// record there is the handshake grant.
func (s *WebsocketSurface) handleSurfaceFrame(origin string, msg uef.Message) {
	grant, ok := msg.(*uef.HelloResponse)
	if !ok {
		logging.Debug("Transport", "ignoring %s record on public surface", msg.MessageType())
		return
	}

	port := &wsPort{
		surface: s,
		id:      grant.PortID,
		in:      make(chan uef.Message, pipeBufferSize),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.ports[grant.PortID] = port
	s.mu.Unlock()

	s.grants <- Grant{Origin: origin, PortID: grant.PortID, Port: port}
}

func (s *WebsocketSurface) deliverToPort(portID string, msg uef.Message) {
	s.mu.Lock()
	port := s.ports[portID]
	s.mu.Unlock()
	if port == nil {
		logging.Debug("Transport", "dropping record for unknown port %s", portID)
		return
	}
	port.in <- msg
}

// wsPort is a private channel multiplexed over the gateway connection.
type wsPort struct {
	surface *WebsocketSurface
	id      string
	in      chan uef.Message
}

func (p *wsPort) Send(msg uef.Message) error {
	return p.surface.write(wsFrame{PortID: p.id}, msg)
}

func (p *wsPort) Recv() <-chan uef.Message {
	return p.in
}

func (p *wsPort) Close() error {
	p.surface.mu.Lock()
	if p.surface.ports != nil {
		delete(p.surface.ports, p.id)
	}
	p.surface.mu.Unlock()
	return nil
}
