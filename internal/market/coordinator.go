package market

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkarev/nftmarket/internal/auction"
	"github.com/mkarev/nftmarket/internal/events"
	"github.com/mkarev/nftmarket/internal/ledger"
	"github.com/mkarev/nftmarket/internal/listing"
	"github.com/mkarev/nftmarket/internal/model"
	"github.com/mkarev/nftmarket/internal/registry"
)

var (
	// ErrNotOwner is returned when the caller does not own the token the
	// operation targets.
	ErrNotOwner = errors.New("caller is not the owner")

	// ErrNotForSale is returned when buying a token that has no sale
	// listing.
	ErrNotForSale = errors.New("item not on sale")

	// ErrNothingListed is returned when cancelling a token with no active
	// listing.
	ErrNothingListed = errors.New("item not listed")

	// ErrInvalidPrice is returned when listing a sale at a negative price.
	// A zero price is valid (free transfer).
	ErrInvalidPrice = errors.New("negative price")
)

// Config holds Marketplace Coordinator configuration.
type Config struct {
	// Account is the marketplace's own identity: custodian of escrowed
	// tokens and holder of escrowed bid funds.
	Account uuid.UUID

	// Clock supplies the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Coordinator orchestrates the registry, ledger, listing store and auction
// engine behind the public marketplace operations. A single mutex serializes
// operations so each call is all-or-nothing.
type Coordinator struct {
	cfg      Config
	registry registry.Registry
	ledger   ledger.Ledger
	auctions *auction.Engine
	events   *events.Dispatcher
	logger   *slog.Logger

	mu       sync.RWMutex
	listings *listing.Store
	owners   map[model.TokenID]uuid.UUID
}

// New creates a Marketplace Coordinator. The dispatcher may be nil when no
// event consumers are wired.
func New(cfg Config, reg registry.Registry, led ledger.Ledger, eng *auction.Engine, disp *events.Dispatcher, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Coordinator{
		cfg:      cfg,
		registry: reg,
		ledger:   led,
		auctions: eng,
		events:   disp,
		logger:   logger,
		listings: listing.NewStore(),
		owners:   make(map[model.TokenID]uuid.UUID),
	}
}

// Account returns the marketplace's own identity.
func (c *Coordinator) Account() uuid.UUID {
	return c.cfg.Account
}

// CreateItem mints a new token owned by the caller.
func (c *Coordinator) CreateItem(caller uuid.UUID, uri string) (model.TokenID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.registry.Mint(caller, uri)
	if err != nil {
		return 0, fmt.Errorf("mint: %w", err)
	}
	c.owners[id] = caller

	c.emit(model.EventItemCreated, id, caller, uuid.Nil, 0)
	c.logger.Info("item created", "token_id", id, "owner", caller)
	return id, nil
}

// ListItem puts the caller's token up for fixed-price sale, escrowing it to
// the marketplace. A zero price is valid. Requires a prior registry approval
// for the marketplace account.
func (c *Coordinator) ListItem(caller uuid.UUID, id model.TokenID, price int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if price < 0 {
		return ErrInvalidPrice
	}
	if err := c.checkOwner(caller, id); err != nil {
		return err
	}

	if err := c.registry.TransferFrom(c.cfg.Account, caller, c.cfg.Account, id); err != nil {
		return fmt.Errorf("escrow token: %w", err)
	}

	c.listings.Create(model.Listing{
		TokenID: id,
		State:   model.StateSale,
		Seller:  caller,
		Price:   price,
	})

	c.emit(model.EventTokenTransfer, id, caller, c.cfg.Account, 0)
	c.emit(model.EventItemListed, id, caller, uuid.Nil, price)
	c.logger.Info("item listed", "token_id", id, "seller", caller, "price", price)
	return nil
}

// Cancel removes a sale or auction listing and returns the token to the
// seller. Only the seller may cancel. Cancelling an auction that already
// holds a leading bid leaves that bid in escrow unrefunded; the stranded
// amount is logged.
func (c *Coordinator) Cancel(caller uuid.UUID, id model.TokenID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.listings.Get(id)
	if !ok {
		return ErrNothingListed
	}
	if caller != l.Seller {
		return ErrNotOwner
	}

	if err := c.registry.Transfer(c.cfg.Account, l.Seller, id); err != nil {
		return fmt.Errorf("return token: %w", err)
	}

	if l.State == model.StateAuction {
		if stranded, amount, ok := c.auctions.Abort(id); ok && stranded != uuid.Nil {
			c.logger.Warn("auction cancelled with escrowed bid unrefunded",
				"token_id", id,
				"bidder", stranded,
				"amount", amount,
			)
		}
	}
	c.listings.Clear(id)

	c.emit(model.EventTokenTransfer, id, c.cfg.Account, l.Seller, 0)
	c.emit(model.EventListingCancelled, id, caller, uuid.Nil, 0)
	c.logger.Info("listing cancelled", "token_id", id, "seller", caller, "state", l.State.String())
	return nil
}

// BuyItem purchases a token on sale: the price moves buyer to seller through
// the ledger (zero-price transfers still happen), the token leaves escrow to
// the buyer, and the buyer becomes the business owner.
func (c *Coordinator) BuyItem(caller uuid.UUID, id model.TokenID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.listings.Get(id)
	if !ok || l.State != model.StateSale {
		return ErrNotForSale
	}

	if err := c.checkCustody(id); err != nil {
		return err
	}
	if err := c.ledger.TransferFrom(c.cfg.Account, caller, l.Seller, l.Price); err != nil {
		return fmt.Errorf("pay seller: %w", err)
	}
	if err := c.registry.Transfer(c.cfg.Account, caller, id); err != nil {
		return fmt.Errorf("release token: %w", err)
	}

	c.owners[id] = caller
	c.listings.Clear(id)

	c.emit(model.EventPaymentTransfer, id, caller, l.Seller, l.Price)
	c.emit(model.EventTokenTransfer, id, c.cfg.Account, caller, 0)
	c.emit(model.EventItemSold, id, caller, l.Seller, l.Price)
	c.logger.Info("item sold",
		"token_id", id,
		"buyer", caller,
		"seller", l.Seller,
		"price", l.Price,
	)
	return nil
}

// ListItemOnAuction opens an auction for the caller's token, escrowing it to
// the marketplace. The minimum price must be positive.
func (c *Coordinator) ListItemOnAuction(caller uuid.UUID, id model.TokenID, minPrice int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if minPrice <= 0 {
		return auction.ErrInvalidPrice
	}
	if err := c.checkOwner(caller, id); err != nil {
		return err
	}

	if err := c.registry.TransferFrom(c.cfg.Account, caller, c.cfg.Account, id); err != nil {
		return fmt.Errorf("escrow token: %w", err)
	}
	if err := c.auctions.Start(id, caller, minPrice); err != nil {
		return err
	}

	c.listings.Create(model.Listing{
		TokenID:  id,
		State:    model.StateAuction,
		Seller:   caller,
		MinPrice: minPrice,
	})

	c.emit(model.EventTokenTransfer, id, caller, c.cfg.Account, 0)
	c.emit(model.EventAuctionStarted, id, caller, uuid.Nil, minPrice)
	c.logger.Info("auction listed", "token_id", id, "seller", caller, "min_price", minPrice)
	return nil
}

// MakeBid places a bid on an open auction. The outbid leader, if any, is
// refunded before the caller's funds move to escrow.
func (c *Coordinator) MakeBid(caller uuid.UUID, id model.TokenID, amount int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	bid, err := c.auctions.PlaceBid(id, caller, amount)
	if err != nil {
		return err
	}

	if bid.Refunded != uuid.Nil {
		c.emit(model.EventBidRefunded, id, c.cfg.Account, bid.Refunded, bid.RefundAmount)
	}
	c.emit(model.EventBidPlaced, id, caller, c.cfg.Account, amount)
	return nil
}

// FinishAuction resolves an auction whose bidding window has closed. Any
// caller may trigger resolution. A repeated call fails with ErrNoSuchAuction
// and moves nothing.
func (c *Coordinator) FinishAuction(caller uuid.UUID, id model.TokenID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.auctions.Get(id); !ok {
		return auction.ErrNoSuchAuction
	}
	if err := c.checkCustody(id); err != nil {
		return err
	}

	res, err := c.auctions.Finish(id)
	if err != nil {
		return err
	}

	if res.Settled {
		if err := c.registry.Transfer(c.cfg.Account, res.Winner, id); err != nil {
			return fmt.Errorf("release token: %w", err)
		}
		c.owners[id] = res.Winner

		c.emit(model.EventPaymentTransfer, id, c.cfg.Account, res.Seller, res.Amount)
		c.emit(model.EventTokenTransfer, id, c.cfg.Account, res.Winner, 0)
		c.emit(model.EventAuctionSettled, id, res.Winner, res.Seller, res.Amount)
	} else {
		if err := c.registry.Transfer(c.cfg.Account, res.Seller, id); err != nil {
			return fmt.Errorf("return token: %w", err)
		}
		if res.Refunded != uuid.Nil {
			c.emit(model.EventBidRefunded, id, c.cfg.Account, res.Refunded, res.RefundAmount)
		}
		c.emit(model.EventTokenTransfer, id, c.cfg.Account, res.Seller, 0)
		c.emit(model.EventAuctionCancelled, id, res.Seller, uuid.Nil, 0)
	}
	c.listings.Clear(id)

	c.logger.Info("auction resolved",
		"token_id", id,
		"caller", caller,
		"settled", res.Settled,
		"bid_count", res.BidCount,
	)
	return nil
}

// OwnerOf returns the business owner of a token: the coordinator's own record,
// which keeps pointing at the seller while the registry shows the marketplace
// as custodian during escrow.
func (c *Coordinator) OwnerOf(id model.TokenID) (uuid.UUID, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	owner, ok := c.owners[id]
	if !ok {
		return uuid.Nil, registry.ErrNoSuchToken
	}
	return owner, nil
}

// ListingOf returns the active listing for a token, if any.
func (c *Coordinator) ListingOf(id model.TokenID) (model.Listing, bool) {
	return c.listings.Get(id)
}

// AuctionOf returns the open auction state for a token, if any.
func (c *Coordinator) AuctionOf(id model.TokenID) (model.Auction, bool) {
	return c.auctions.Get(id)
}

// Auctions returns a snapshot of all open auctions.
func (c *Coordinator) Auctions() []model.Auction {
	return c.auctions.Open()
}

// ExpiredAuctions returns open auctions whose bidding window has closed.
func (c *Coordinator) ExpiredAuctions() []model.Auction {
	return c.auctions.Expired()
}

// ItemInfo is a read-model row combining ownership, metadata and listing
// state for the query API.
type ItemInfo struct {
	TokenID  model.TokenID `json:"token_id"`
	Owner    uuid.UUID     `json:"owner"`
	URI      string        `json:"uri"`
	State    string        `json:"state"`
	Price    int64         `json:"price,omitempty"`
	MinPrice int64         `json:"min_price,omitempty"`
}

// Items returns a read snapshot of every known token.
func (c *Coordinator) Items() []ItemInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]ItemInfo, 0, len(c.owners))
	for id, owner := range c.owners {
		info := ItemInfo{
			TokenID: id,
			Owner:   owner,
			State:   model.StateNone.String(),
		}
		if uri, err := c.registry.TokenURI(id); err == nil {
			info.URI = uri
		}
		if l, ok := c.listings.Get(id); ok {
			info.State = l.State.String()
			info.Price = l.Price
			info.MinPrice = l.MinPrice
		}
		out = append(out, info)
	}
	return out
}

// Item returns the read-model row for one token.
func (c *Coordinator) Item(id model.TokenID) (ItemInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	owner, ok := c.owners[id]
	if !ok {
		return ItemInfo{}, false
	}
	info := ItemInfo{
		TokenID: id,
		Owner:   owner,
		State:   model.StateNone.String(),
	}
	if uri, err := c.registry.TokenURI(id); err == nil {
		info.URI = uri
	}
	if l, ok := c.listings.Get(id); ok {
		info.State = l.State.String()
		info.Price = l.Price
		info.MinPrice = l.MinPrice
	}
	return info, true
}

// checkOwner verifies the caller currently owns the token per the registry.
// While a token is escrowed the registry reports the marketplace as holder,
// so a second listing attempt also fails here.
func (c *Coordinator) checkOwner(caller uuid.UUID, id model.TokenID) error {
	owner, err := c.registry.OwnerOf(id)
	if err != nil {
		return err
	}
	if owner != caller {
		return ErrNotOwner
	}
	return nil
}

// checkCustody verifies the marketplace still holds the escrowed token before
// any funds move, keeping failed calls free of side effects.
func (c *Coordinator) checkCustody(id model.TokenID) error {
	holder, err := c.registry.OwnerOf(id)
	if err != nil {
		return err
	}
	if holder != c.cfg.Account {
		return fmt.Errorf("escrow custody lost for token %d: %w", id, registry.ErrNotHolder)
	}
	return nil
}

// emit publishes a marketplace event when a dispatcher is wired.
func (c *Coordinator) emit(t model.EventType, id model.TokenID, actor, counterparty uuid.UUID, amount int64) {
	if c.events == nil {
		return
	}
	c.events.Publish(model.Event{
		ID:           uuid.New(),
		Type:         t,
		TokenID:      id,
		Actor:        actor,
		Counterparty: counterparty,
		Amount:       amount,
		At:           c.cfg.Clock().UnixMicro(),
	})
}
