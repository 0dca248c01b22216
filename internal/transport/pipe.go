package transport

import (
	"sync"

	"uefbridge/internal/uef"
)

const pipeBufferSize = 64

// Pipe is an in-memory transport connecting a client surface to a host
// endpoint in the same process. The host side of the pipe is driven by
// tests and by the host simulator.
type Pipe struct {
	mu     sync.Mutex
	origin string
	closed bool

	hello  chan uef.Message
	grants chan Grant
}

// NewPipe creates a pipe whose handshake grants will claim the given host
// origin.
func NewPipe(origin string) *Pipe {
	return &Pipe{
		origin: origin,
		hello:  make(chan uef.Message, pipeBufferSize),
		grants: make(chan Grant, pipeBufferSize),
	}
}

// Surface returns the client side of the pipe.
func (p *Pipe) Surface() Surface {
	return (*pipeSurface)(p)
}

// HostInbound delivers records the client posts on the public surface.
func (p *Pipe) HostInbound() <-chan uef.Message {
	return p.hello
}

// GrantPort creates a private port, delivers the grant to the client
// surface, and returns the host side of the port. Calling it twice models a
// host that answers the hello more than once.
func (p *Pipe) GrantPort(portID string) *HostPort {
	return p.GrantPortFrom(p.origin, portID)
}

// GrantPortFrom delivers a grant claiming an arbitrary origin. Tests use it
// to model replies from an untrusted frame.
func (p *Pipe) GrantPortFrom(origin, portID string) *HostPort {
	toClient := make(chan uef.Message, pipeBufferSize)
	toHost := make(chan uef.Message, pipeBufferSize)

	hp := &HostPort{in: toHost, out: toClient}
	client := &pipePort{in: toClient, out: toHost}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return hp
	}

	p.grants <- Grant{Origin: origin, PortID: portID, Port: client}
	return hp
}

// Close releases the pipe's public surface.
func (p *Pipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.grants)
	return nil
}

type pipeSurface Pipe

func (s *pipeSurface) Post(msg uef.Message) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	s.hello <- msg
	return nil
}

func (s *pipeSurface) Grants() <-chan Grant {
	return s.grants
}

func (s *pipeSurface) Close() error {
	return (*Pipe)(s).Close()
}

// pipePort is the client side of a granted port.
type pipePort struct {
	mu     sync.Mutex
	closed bool
	in     chan uef.Message
	out    chan uef.Message
}

func (p *pipePort) Send(msg uef.Message) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}
	p.out <- msg
	return nil
}

func (p *pipePort) Recv() <-chan uef.Message {
	return p.in
}

func (p *pipePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return nil
}

// HostPort is the host side of a granted port.
type HostPort struct {
	mu     sync.Mutex
	closed bool
	in     chan uef.Message
	out    chan uef.Message
}

// Send transmits a record to the client.
func (p *HostPort) Send(msg uef.Message) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}
	p.out <- msg
	return nil
}

// Recv delivers records the client sends on the port.
func (p *HostPort) Recv() <-chan uef.Message {
	return p.in
}

// Close ends delivery to the client. The client observes a closed Recv
// channel, the same signal a real transport produces on disconnect.
func (p *HostPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.out)
	return nil
}
