// Package broadcaster implements the event fan-out layer: the
// subscription registry and the broadcaster loop that routes match
// events to the right sessions.
package broadcaster

import (
	"sync"

	"matchcore/internal/common"
)

// Message is the unit the registry hands to a session's outbound
// writer: already-serialized JSON bytes, so the broadcaster only
// encodes a MatchEvent once no matter how many sessions receive it.
type Message []byte

// endpoint is one session's outbound pipe. Go channels are bounded, so a
// slow reader would otherwise block the broadcaster loop; relay buffers
// everything sent to in onto an internal slice and forwards it to out as
// the session's writer drains it, giving the session an effectively
// unbounded outbound queue at the cost of its own memory.
type endpoint struct {
	in   chan Message
	out  chan Message
	stop chan struct{}
}

func newEndpoint() *endpoint {
	e := &endpoint{
		in:   make(chan Message),
		out:  make(chan Message),
		stop: make(chan struct{}),
	}
	go e.relay()
	return e
}

func (e *endpoint) relay() {
	var queue []Message
	for {
		if len(queue) == 0 {
			select {
			case v := <-e.in:
				queue = append(queue, v)
			case <-e.stop:
				return
			}
			continue
		}

		select {
		case v := <-e.in:
			queue = append(queue, v)
		case e.out <- queue[0]:
			queue = queue[1:]
		case <-e.stop:
			return
		}
	}
}

// Registry tracks a map of live per-user send endpoints and a map of
// per-market subscriber sets. Both maps are independently consistent — a
// stale user_id left in a subscriber set after its connection is gone is
// a non-error transient state that routing simply skips.
type Registry struct {
	connMu sync.RWMutex
	conns  map[string]*endpoint

	subMu sync.RWMutex
	subs  map[common.Market]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*endpoint),
		subs:  make(map[common.Market]map[string]struct{}),
	}
}

// Register installs userID's outbound endpoint, replacing any prior
// entry (last-writer-wins). Any endpoint it replaces has its relay
// stopped immediately, since nothing will ever route to it again once
// the map entry is gone. It returns the receive side for the session's
// outbound writer to drain.
func (r *Registry) Register(userID string) <-chan Message {
	ep := newEndpoint()
	r.connMu.Lock()
	old, hadOld := r.conns[userID]
	r.conns[userID] = ep
	r.connMu.Unlock()
	if hadOld {
		close(old.stop)
	}
	return ep.out
}

// Deregister removes userID's outbound endpoint and stops its relay.
// Subscriber-set entries for userID are left in place and reaped lazily.
func (r *Registry) Deregister(userID string) {
	r.connMu.Lock()
	ep, ok := r.conns[userID]
	delete(r.conns, userID)
	r.connMu.Unlock()
	if ok {
		close(ep.stop)
	}
}

// Subscribe adds userID to market's subscriber set. Idempotent.
func (r *Registry) Subscribe(userID string, market common.Market) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	set, ok := r.subs[market]
	if !ok {
		set = make(map[string]struct{})
		r.subs[market] = set
	}
	set[userID] = struct{}{}
}

func (r *Registry) connection(userID string) (*endpoint, bool) {
	r.connMu.RLock()
	defer r.connMu.RUnlock()
	ep, ok := r.conns[userID]
	return ep, ok
}

// subscribers returns a snapshot of market's subscriber set, safe to
// range over while other goroutines keep inserting.
func (r *Registry) subscribers(market common.Market) []string {
	r.subMu.RLock()
	defer r.subMu.RUnlock()
	set := r.subs[market]
	out := make([]string, 0, len(set))
	for uid := range set {
		out = append(out, uid)
	}
	return out
}

// deliver is a best-effort send to userID's endpoint: it never blocks
// on the remote session actually receiving the message (the endpoint's
// relay absorbs it), and an absent connection is a routing miss, not an
// error.
func (r *Registry) deliver(userID string, msg Message) (delivered bool) {
	ep, ok := r.connection(userID)
	if !ok {
		return false
	}
	select {
	case ep.in <- msg:
		return true
	case <-ep.stop:
		return false
	}
}
