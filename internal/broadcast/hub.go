package broadcast

import (
	"live-auction/internal/models"
	"live-auction/utils"
	"sync"
)

// Subscriber is one connected observer. Send must not block: delivery is best-effort
// and a false return means the event was dropped for this subscriber.
type Subscriber interface {
	ID() string
	Send(event models.Event) bool
}

type room struct {
	mu      sync.Mutex
	members map[string]Subscriber
	closed  bool // set once the room is emptied and unlinked; joiners must fetch a new one
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithObserver forwards the events the hub originates itself (viewer_count) to p,
// e.g. the Redis mirror. p.Publish is called with the room lock held and must not block.
func WithObserver(p Publisher) HubOption {
	return func(h *Hub) { h.observer = p }
}

// Hub tracks the subscribers of every auction and fans events out to them.
// Each auction has its own room lock; rooms never coordinate with each other.
type Hub struct {
	mu       sync.RWMutex // guards the rooms map only
	rooms    map[string]*room
	observer Publisher
}

// NewHub creates an empty Hub
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{rooms: make(map[string]*room)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) room(auctionID string, create bool) *room {
	h.mu.RLock()
	r, ok := h.rooms[auctionID]
	h.mu.RUnlock()
	if ok || !create {
		return r
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok = h.rooms[auctionID]; !ok {
		r = &room{members: make(map[string]Subscriber)}
		h.rooms[auctionID] = r
	}
	return r
}

// Join adds sub to the auction's subscriber set and returns the new count.
// Joining twice is a no-op and emits nothing.
func (h *Hub) Join(auctionID string, sub Subscriber) int {
	for {
		r := h.room(auctionID, true)
		r.mu.Lock()
		if r.closed {
			// lost a race with the last leaver
			r.mu.Unlock()
			continue
		}

		if _, ok := r.members[sub.ID()]; !ok {
			r.members[sub.ID()] = sub
			h.viewerCount(r, auctionID)
		}
		n := len(r.members)
		r.mu.Unlock()
		return n
	}
}

// Leave removes the subscriber from the auction's set and returns the new count
func (h *Hub) Leave(auctionID, subscriberID string) int {
	r := h.room(auctionID, false)
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	h.leave(r, auctionID, subscriberID)
	return len(r.members)
}

// LeaveAll removes the subscriber from every auction it joined, e.g. on disconnect
func (h *Hub) LeaveAll(subscriberID string) {
	h.mu.RLock()
	ids := make([]string, 0, len(h.rooms))
	rooms := make([]*room, 0, len(h.rooms))
	for id, r := range h.rooms {
		ids = append(ids, id)
		rooms = append(rooms, r)
	}
	h.mu.RUnlock()

	for i, r := range rooms {
		r.mu.Lock()
		h.leave(r, ids[i], subscriberID)
		r.mu.Unlock()
	}
}

// Count returns the current number of subscribers of an auction
func (h *Hub) Count(auctionID string) int {
	r := h.room(auctionID, false)
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Rooms returns the number of auctions with at least one subscriber
func (h *Hub) Rooms() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// Publish delivers event to every current subscriber of its auction.
// Events published for one auction reach each subscriber in publish order.
func (h *Hub) Publish(event models.Event) {
	r := h.room(event.AuctionID, false)
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliver(event)
}

// leave must be called with r.mu held. The last leaver unlinks the room.
func (h *Hub) leave(r *room, auctionID, subscriberID string) {
	if _, ok := r.members[subscriberID]; !ok {
		return
	}
	delete(r.members, subscriberID)
	h.viewerCount(r, auctionID)

	if len(r.members) == 0 && !r.closed {
		r.closed = true
		h.mu.Lock()
		if h.rooms[auctionID] == r {
			delete(h.rooms, auctionID)
		}
		h.mu.Unlock()
	}
}

// viewerCount must be called with r.mu held
func (h *Hub) viewerCount(r *room, auctionID string) {
	ev := models.ViewerCountEvent(auctionID, len(r.members))
	r.deliver(ev)
	if h.observer != nil {
		h.observer.Publish(ev)
	}
}

// deliver must be called with r.mu held
func (r *room) deliver(event models.Event) {
	for id, sub := range r.members {
		if !sub.Send(event) {
			utils.Warn("broadcast: event dropped for slow subscriber", map[string]any{
				"subscriber_id": id,
				"auction_id":    event.AuctionID,
				"event":         string(event.Type),
			})
		}
	}
}
