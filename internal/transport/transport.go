package transport

import (
	"errors"

	"uefbridge/internal/uef"
)

// ErrClosed is returned when sending on a closed surface or port.
var ErrClosed = errors.New("transport is closed")

// Port is the private two-way channel granted by the handshake. All
// protocol traffic after the hello flows through a Port.
type Port interface {
	// Send transmits a record to the host.
	Send(msg uef.Message) error

	// Recv delivers inbound records. The channel is closed when the port
	// closes.
	Recv() <-chan uef.Message

	// Close releases the port.
	Close() error
}

// Grant is delivered on the public surface when the host answers a hello.
// Origin is the host origin the reply arrived from; the session rejects
// grants whose origin does not exactly match its configured trust anchor.
type Grant struct {
	Origin string
	PortID string
	Port   Port
}

// Surface is the public message surface of the page. It exists only to
// carry the hello and receive handshake grants.
type Surface interface {
	// Post sends a record toward the configured host origin.
	Post(msg uef.Message) error

	// Grants delivers handshake replies. The host may reply more than once;
	// adopting exactly one grant is the session's job, not the transport's.
	Grants() <-chan Grant

	// Close releases the surface and any ports granted through it.
	Close() error
}
