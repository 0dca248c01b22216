package session

import (
	"time"
)

// pendingTable tracks outbound requests awaiting a host reply, each under a
// bounded wait. Keys are correlation ids for correlation-keyed traffic and
// "type:<discriminator>" for the type-keyed authorization and registration
// replies.
//
// The table is owned by the Run loop: add, resolve and expired are only
// called from there. Timer callbacks touch nothing but the fires channel.
type pendingTable struct {
	timeout time.Duration
	waiters map[string]*time.Timer
	fires   chan string
}

func newPendingTable(timeout time.Duration) *pendingTable {
	return &pendingTable{
		timeout: timeout,
		waiters: make(map[string]*time.Timer),
		fires:   make(chan string, 16),
	}
}

// Fires delivers the keys of requests whose bounded wait elapsed. The loop
// must confirm each with expired before acting: a reply may have resolved
// the request after the timer fired but before the loop got to the key.
func (p *pendingTable) Fires() <-chan string {
	return p.fires
}

// add registers a request under key. A request already pending under the
// same key is left untouched and add reports false; the caller must not
// send a second request (at most one outstanding per key).
func (p *pendingTable) add(key string) bool {
	if _, exists := p.waiters[key]; exists {
		return false
	}
	p.waiters[key] = time.AfterFunc(p.timeout, func() {
		p.fires <- key
	})
	return true
}

// resolve clears the pending entry for key, reporting whether one existed.
// Replies with no pending entry are the caller's cue to ignore the record.
func (p *pendingTable) resolve(key string) bool {
	timer, ok := p.waiters[key]
	if !ok {
		return false
	}
	timer.Stop()
	delete(p.waiters, key)
	return true
}

// expired confirms a fired timeout is still live, clearing the entry.
func (p *pendingTable) expired(key string) bool {
	if _, ok := p.waiters[key]; !ok {
		return false
	}
	delete(p.waiters, key)
	return true
}

// stop cancels all timers. Abandoned waits are not an error; page unload is
// the only cancellation mechanism in this protocol.
func (p *pendingTable) stop() {
	for key, timer := range p.waiters {
		timer.Stop()
		delete(p.waiters, key)
	}
}

// typeKey builds the pending key for a type-keyed request.
func typeKey(messageType string) string {
	return "type:" + messageType
}
