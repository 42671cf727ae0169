package repository

import (
	"fmt"
	"live-auction/internal/biddingerrors"
	model "live-auction/internal/models"
	"live-auction/utils"
	"sort"
	"sync"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// EventPublisher receives the events of committed updates, in commit order per auction
type EventPublisher interface {
	Publish(event model.Event)
}

// Update is the outcome of a mutation computed inside one auction's exclusive section
type Update struct {
	Auction model.Auction
	Bid     *model.Bid
	Events  []model.Event
}

// UpdateFunc computes the next state of an auction from its current state.
// Returning an error rejects the update and nothing is persisted or published.
type UpdateFunc func(current model.Auction) (Update, error)

// AuctionDB defines the auction storage interface
type AuctionDB interface {
	WithAuction(auctionID string, fn UpdateFunc) (model.Auction, error)
	GetAuction(auctionID string) (model.Auction, error)
	GetRecentBids(auctionID string, limit int) ([]model.Bid, error)
	ListAuctions() ([]model.Auction, error)
}

type auctionEntry struct {
	mu      sync.Mutex
	auction model.Auction
	bids    []model.Bid // commit order, bid_time ascending
}

// snapshot must be called with e.mu held
func (e *auctionEntry) snapshot() model.Auction {
	a := e.auction
	a.LeadingBidder = ""
	if n := len(e.bids); n > 0 {
		a.LeadingBidder = e.bids[n-1].BidderName
	}
	return a
}

// MemoryRepo is an in-memory AuctionDB with one lock per auction
type MemoryRepo struct {
	mu        sync.RWMutex // guards the auctions map only
	auctions  map[string]*auctionEntry
	publisher EventPublisher
}

type noopPublisher struct{}

func (noopPublisher) Publish(model.Event) {}

// NewMemoryRepo creates a new in-memory repository instance. A nil publisher discards events.
func NewMemoryRepo(publisher EventPublisher) *MemoryRepo {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &MemoryRepo{
		auctions:  make(map[string]*auctionEntry),
		publisher: publisher,
	}
}

// AddAuction registers an auction created outside the engine (seed or admin)
func (r *MemoryRepo) AddAuction(auction model.Auction) error {
	if auction.AuctionID == "" {
		return fmt.Errorf("add auction: %w - empty auction ID", biddingerrors.ErrValidationFailed)
	}
	if auction.Status != model.StatusPending && auction.Status != model.StatusActive {
		return fmt.Errorf("add auction %s: %w - initial status %q", auction.AuctionID, biddingerrors.ErrInvalidState, auction.Status)
	}
	if auction.CurrentPrice.IsZero() {
		auction.CurrentPrice = auction.StartingPrice
	}
	auction.TotalBids = 0
	auction.WinnerName, auction.WinnerEmail = "", ""

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.auctions[auction.AuctionID]; exists {
		return fmt.Errorf("add auction %s: %w - duplicate ID", auction.AuctionID, biddingerrors.ErrValidationFailed)
	}
	r.auctions[auction.AuctionID] = &auctionEntry{auction: auction}
	return nil
}

func (r *MemoryRepo) entry(auctionID string) (*auctionEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.auctions[auctionID]
	return e, ok
}

// WithAuction runs fn against the current state of one auction while holding that
// auction's exclusive section, then commits the update and publishes its events.
// Calls for the same auction serialize; calls for different auctions do not contend.
func (r *MemoryRepo) WithAuction(auctionID string, fn UpdateFunc) (model.Auction, error) {
	e, ok := r.entry(auctionID)
	if !ok {
		return model.Auction{}, fmt.Errorf("with auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.snapshot()
	update, err := safeApply(fn, current)
	if err != nil {
		return model.Auction{}, err
	}
	if err := validateUpdate(current, len(e.bids), update); err != nil {
		utils.Error("repository: rejected inconsistent update", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return model.Auction{}, err
	}

	e.auction = update.Auction
	if update.Bid != nil {
		e.bids = append(e.bids, *update.Bid)
	}
	for _, ev := range update.Events {
		r.publisher.Publish(ev)
	}
	return e.snapshot(), nil
}

func safeApply(fn UpdateFunc, current model.Auction) (update Update, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: update of auction %s panicked: %v", biddingerrors.ErrInternal, current.AuctionID, p)
		}
	}()
	return fn(current)
}

// validateUpdate enforces the store-level invariants before anything is written
func validateUpdate(current model.Auction, committedBids int, u Update) error {
	next := u.Auction
	switch {
	case next.AuctionID != current.AuctionID:
		return fmt.Errorf("%w: update changes auction ID %s to %s", biddingerrors.ErrInternal, current.AuctionID, next.AuctionID)
	case next.CurrentPrice.LessThan(current.CurrentPrice):
		return fmt.Errorf("%w: current price of %s would decrease", biddingerrors.ErrInternal, current.AuctionID)
	case current.Status.IsTerminal() && next.Status != current.Status:
		return fmt.Errorf("%w: auction %s is %s", biddingerrors.ErrInternal, current.AuctionID, current.Status)
	case next.EndTime.Before(current.EndTime) && next.Status != model.StatusSold:
		return fmt.Errorf("%w: end time of %s would move backwards", biddingerrors.ErrInternal, current.AuctionID)
	}

	wantBids := committedBids
	if u.Bid != nil {
		if u.Bid.AuctionID != current.AuctionID {
			return fmt.Errorf("%w: bid %s belongs to auction %s", biddingerrors.ErrInternal, u.Bid.BidID, u.Bid.AuctionID)
		}
		wantBids++
	}
	if next.TotalBids != wantBids {
		return fmt.Errorf("%w: total bids %d does not match %d records", biddingerrors.ErrInternal, next.TotalBids, wantBids)
	}
	return nil
}

// GetAuction returns a consistent snapshot of one auction
func (r *MemoryRepo) GetAuction(auctionID string) (model.Auction, error) {
	e, ok := r.entry(auctionID)
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot(), nil
}

// GetRecentBids returns up to limit bids, most recent first. A non-positive limit returns all bids.
func (r *MemoryRepo) GetRecentBids(auctionID string, limit int) ([]model.Bid, error) {
	e, ok := r.entry(auctionID)
	if !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.bids)
	if limit <= 0 || limit > n {
		limit = n
	}
	bids := make([]model.Bid, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		bids = append(bids, e.bids[i])
	}
	return bids, nil
}

var statusRank = map[model.AuctionStatus]int{
	model.StatusActive:  1,
	model.StatusPending: 2,
	model.StatusEnded:   3,
}

func rank(s model.AuctionStatus) int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return 4
}

// ListAuctions returns a snapshot of every auction: active first, then pending, ended and sold,
// each group ordered by start time
func (r *MemoryRepo) ListAuctions() ([]model.Auction, error) {
	r.mu.RLock()
	entries := make([]*auctionEntry, 0, len(r.auctions))
	for _, e := range r.auctions {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	auctions := make([]model.Auction, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		auctions = append(auctions, e.snapshot())
		e.mu.Unlock()
	}

	sort.SliceStable(auctions, func(i, j int) bool {
		ri, rj := rank(auctions[i].Status), rank(auctions[j].Status)
		if ri != rj {
			return ri < rj
		}
		if !auctions[i].StartTime.Equal(auctions[j].StartTime) {
			return auctions[i].StartTime.Before(auctions[j].StartTime)
		}
		return auctions[i].AuctionID < auctions[j].AuctionID
	})
	return auctions, nil
}
