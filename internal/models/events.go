package models

// EventType names a change event delivered to the subscribers of one auction
type EventType string

const (
	EventNewBid       EventType = "new_bid"
	EventAuctionSold  EventType = "auction_sold"
	EventAuctionEnded EventType = "auction_ended"
	EventTimeUpdate   EventType = "time_update"
	EventViewerCount  EventType = "viewer_count"
)

// Event is a typed state delta scoped to a single auction
type Event struct {
	Type      EventType `json:"event"`
	AuctionID string    `json:"-"`
	Data      any       `json:"data"`
}

type NewBidPayload struct {
	Auction Auction `json:"auction"`
	Bid     Bid     `json:"bid"`
}

type AuctionSoldPayload struct {
	Auction Auction `json:"auction"`
}

type AuctionEndedPayload struct {
	AuctionID string `json:"auction_id"`
}

type TimeUpdatePayload struct {
	AuctionID   string `json:"auction_id"`
	SecondsLeft int64  `json:"seconds_left"`
}

type ViewerCountPayload struct {
	AuctionID string `json:"auction_id"`
	Count     int    `json:"count"`
}

// NewBidEvent builds the event emitted for an accepted bid
func NewBidEvent(auction Auction, bid Bid) Event {
	return Event{Type: EventNewBid, AuctionID: auction.AuctionID, Data: NewBidPayload{Auction: auction, Bid: bid}}
}

// AuctionSoldEvent builds the event emitted for an accepted buyout
func AuctionSoldEvent(auction Auction) Event {
	return Event{Type: EventAuctionSold, AuctionID: auction.AuctionID, Data: AuctionSoldPayload{Auction: auction}}
}

// AuctionEndedEvent builds the event emitted on deadline expiry
func AuctionEndedEvent(auctionID string) Event {
	return Event{Type: EventAuctionEnded, AuctionID: auctionID, Data: AuctionEndedPayload{AuctionID: auctionID}}
}

// TimeUpdateEvent builds the per-tick countdown event
func TimeUpdateEvent(auctionID string, secondsLeft int64) Event {
	return Event{Type: EventTimeUpdate, AuctionID: auctionID, Data: TimeUpdatePayload{AuctionID: auctionID, SecondsLeft: secondsLeft}}
}

// ViewerCountEvent builds the event emitted on subscriber membership change
func ViewerCountEvent(auctionID string, count int) Event {
	return Event{Type: EventViewerCount, AuctionID: auctionID, Data: ViewerCountPayload{AuctionID: auctionID, Count: count}}
}
