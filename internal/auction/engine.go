package auction

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkarev/nftmarket/internal/ledger"
	"github.com/mkarev/nftmarket/internal/model"
)

var (
	// ErrInvalidPrice is returned when an auction is opened with a
	// non-positive minimum price.
	ErrInvalidPrice = errors.New("minimum price must be positive")

	// ErrNoActiveAuction is returned for a bid on a token with no open
	// auction.
	ErrNoActiveAuction = errors.New("item not on auction")

	// ErrAuctionExpired is returned for a bid after the bidding window.
	ErrAuctionExpired = errors.New("auction bidding window closed")

	// ErrSameBidder is returned when the current leader bids again.
	ErrSameBidder = errors.New("bidder already leads the auction")

	// ErrInsufficientBid is returned when the bid does not strictly exceed
	// the current floor.
	ErrInsufficientBid = errors.New("bid does not exceed current floor")

	// ErrNoSuchAuction is returned when finishing a token with no open
	// auction.
	ErrNoSuchAuction = errors.New("no such auction")

	// ErrTooEarly is returned when finishing before the bidding window
	// has closed.
	ErrTooEarly = errors.New("bidding window still open")
)

// Config holds Auction Engine configuration.
type Config struct {
	Duration   time.Duration // Bidding window length
	SettleBids int           // Minimum accepted bids for settlement
}

// DefaultConfig returns the reference policy: 72h window, settle on 3 bids.
func DefaultConfig() Config {
	return Config{
		Duration:   72 * time.Hour,
		SettleBids: 3,
	}
}

// Bid is the outcome of an accepted bid.
type Bid struct {
	Auction      model.Auction // State after the bid
	Refunded     uuid.UUID     // Outbid leader, uuid.Nil for the first bid
	RefundAmount int64         // Amount returned to the outbid leader
}

// Result is the outcome of a finished auction.
type Result struct {
	Settled      bool          // true: sold to Winner; false: rolled back
	Seller       uuid.UUID     // Recipient of the asset (cancel) or payment (settle)
	Winner       uuid.UUID     // Leading bidder on settlement
	Amount       int64         // Payment to seller on settlement
	Refunded     uuid.UUID     // Leader refunded on cancellation, if any
	RefundAmount int64         // Amount refunded on cancellation
	BidCount     int           // Total accepted bids
}

// Engine runs the auction state machine. Escrowed bid funds are held on the
// escrow account via the injected ledger; time advances only through the
// injected clock.
type Engine struct {
	cfg    Config
	ledger ledger.Ledger
	escrow uuid.UUID
	now    func() time.Time
	logger *slog.Logger

	mu       sync.RWMutex
	auctions map[model.TokenID]model.Auction
}

// New creates an Auction Engine.
func New(cfg Config, led ledger.Ledger, escrow uuid.UUID, now func() time.Time, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{
		cfg:      cfg,
		ledger:   led,
		escrow:   escrow,
		now:      now,
		logger:   logger,
		auctions: make(map[model.TokenID]model.Auction),
	}
}

// Start opens an auction for the token.
func (e *Engine) Start(id model.TokenID, seller uuid.UUID, minPrice int64) error {
	if minPrice <= 0 {
		return ErrInvalidPrice
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.auctions[id]; ok {
		return fmt.Errorf("auction already open for token %d", id)
	}

	a := model.Auction{
		TokenID:   id,
		Seller:    seller,
		MinPrice:  minPrice,
		StartTime: e.now().UnixMicro(),
	}
	e.auctions[id] = a

	e.logger.Info("auction opened",
		"token_id", id,
		"seller", seller,
		"min_price", minPrice,
	)
	return nil
}

// PlaceBid validates and accepts a bid. The outbid leader (if any) is
// refunded from escrow before the new bidder's funds are debited, so a
// bidder's balance is never blocked by their own pending refund. A failed bid
// leaves the ledger untouched: funds and allowance are checked before any
// transfer.
func (e *Engine) PlaceBid(id model.TokenID, bidder uuid.UUID, amount int64) (Bid, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.auctions[id]
	if !ok {
		return Bid{}, ErrNoActiveAuction
	}

	if e.now().UnixMicro() >= a.StartTime+e.cfg.Duration.Microseconds() {
		return Bid{}, ErrAuctionExpired
	}
	if bidder == a.HighestBidder {
		return Bid{}, ErrSameBidder
	}

	floor := a.MinPrice
	if a.BidCount > 0 {
		floor = a.HighestBid
	}
	if amount <= floor {
		return Bid{}, ErrInsufficientBid
	}

	if e.ledger.BalanceOf(bidder) < amount {
		return Bid{}, ledger.ErrInsufficientFunds
	}
	if e.ledger.Allowance(bidder, e.escrow) < amount {
		return Bid{}, ledger.ErrNotApproved
	}

	var res Bid
	if a.BidCount > 0 {
		if err := e.ledger.Transfer(e.escrow, a.HighestBidder, a.HighestBid); err != nil {
			return Bid{}, fmt.Errorf("refund previous bidder: %w", err)
		}
		res.Refunded = a.HighestBidder
		res.RefundAmount = a.HighestBid
	}
	if err := e.ledger.TransferFrom(e.escrow, bidder, e.escrow, amount); err != nil {
		return Bid{}, fmt.Errorf("escrow bid: %w", err)
	}

	a.HighestBidder = bidder
	a.HighestBid = amount
	a.BidCount++
	e.auctions[id] = a
	res.Auction = a

	e.logger.Info("bid accepted",
		"token_id", id,
		"bidder", bidder,
		"amount", amount,
		"bid_count", a.BidCount,
	)
	return res, nil
}

// Finish resolves an auction whose bidding window has closed. With SettleBids
// or more accepted bids the auction settles: the leading bid is paid from
// escrow to the seller and the winner is reported for the asset handoff.
// With fewer bids it cancels: the leader (if any) is refunded and the asset
// goes back to the seller. The auction record is removed either way, so a
// second Finish fails with ErrNoSuchAuction.
func (e *Engine) Finish(id model.TokenID) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.auctions[id]
	if !ok {
		return Result{}, ErrNoSuchAuction
	}

	if e.now().UnixMicro() < a.StartTime+e.cfg.Duration.Microseconds() {
		return Result{}, ErrTooEarly
	}

	res := Result{
		Seller:   a.Seller,
		BidCount: a.BidCount,
	}

	if a.BidCount >= e.cfg.SettleBids {
		if err := e.ledger.Transfer(e.escrow, a.Seller, a.HighestBid); err != nil {
			return Result{}, fmt.Errorf("pay seller: %w", err)
		}
		res.Settled = true
		res.Winner = a.HighestBidder
		res.Amount = a.HighestBid
	} else if a.BidCount > 0 {
		if err := e.ledger.Transfer(e.escrow, a.HighestBidder, a.HighestBid); err != nil {
			return Result{}, fmt.Errorf("refund bidder: %w", err)
		}
		res.Refunded = a.HighestBidder
		res.RefundAmount = a.HighestBid
	}

	delete(e.auctions, id)

	e.logger.Info("auction finished",
		"token_id", id,
		"settled", res.Settled,
		"bid_count", res.BidCount,
	)
	return res, nil
}

// Abort drops an open auction without resolving it, reporting any stranded
// leading bid still held in escrow. Used by listing cancellation, which does
// not refund the leader.
func (e *Engine) Abort(id model.TokenID) (stranded uuid.UUID, amount int64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, exists := e.auctions[id]
	if !exists {
		return uuid.Nil, 0, false
	}
	delete(e.auctions, id)
	return a.HighestBidder, a.HighestBid, true
}

// Get returns the auction state for a token, if open.
func (e *Engine) Get(id model.TokenID) (model.Auction, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.auctions[id]
	return a, ok
}

// Open returns a snapshot of all open auctions.
func (e *Engine) Open() []model.Auction {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]model.Auction, 0, len(e.auctions))
	for _, a := range e.auctions {
		out = append(out, a)
	}
	return out
}

// Expired returns open auctions whose bidding window has already closed.
func (e *Engine) Expired() []model.Auction {
	now := e.now().UnixMicro()

	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []model.Auction
	for _, a := range e.auctions {
		if now >= a.StartTime+e.cfg.Duration.Microseconds() {
			out = append(out, a)
		}
	}
	return out
}

// Deadline returns when the bidding window closes for an auction (µs since
// epoch).
func (e *Engine) Deadline(a model.Auction) int64 {
	return a.StartTime + e.cfg.Duration.Microseconds()
}
