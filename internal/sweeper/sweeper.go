package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkarev/nftmarket/internal/events"
	"github.com/mkarev/nftmarket/internal/model"
)

// AuctionSource provides open auctions past their bidding deadline.
type AuctionSource interface {
	ExpiredAuctions() []model.Auction
}

// Config holds sweeper configuration.
type Config struct {
	Interval time.Duration // Scan cadence
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Interval: time.Minute}
}

// Sweeper periodically scans for expired open auctions and announces each one
// once.
type Sweeper struct {
	cfg    Config
	src    AuctionSource
	disp   *events.Dispatcher
	logger *slog.Logger
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	announced map[model.TokenID]struct{}
}

// New creates a Sweeper. The dispatcher may be nil; expiries are then only
// logged.
func New(cfg Config, src AuctionSource, disp *events.Dispatcher, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		cfg:       cfg,
		src:       src,
		disp:      disp,
		logger:    logger,
		now:       time.Now,
		announced: make(map[model.TokenID]struct{}),
	}
}

// Start begins the scan loop.
func (s *Sweeper) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("auction sweeper started", "interval", s.cfg.Interval)
	return nil
}

// Stop gracefully shuts down the sweeper.
func (s *Sweeper) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("auction sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main scan loop.
func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	// Scan immediately on start.
	s.sweep()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep announces newly expired auctions and forgets resolved ones.
func (s *Sweeper) sweep() {
	expired := s.src.ExpiredAuctions()

	current := make(map[model.TokenID]struct{}, len(expired))
	for _, a := range expired {
		current[a.TokenID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.announced {
		if _, ok := current[id]; !ok {
			delete(s.announced, id)
		}
	}

	for _, a := range expired {
		if _, ok := s.announced[a.TokenID]; ok {
			continue
		}
		s.announced[a.TokenID] = struct{}{}

		s.logger.Info("auction ready to finish",
			"token_id", a.TokenID,
			"seller", a.Seller,
			"bid_count", a.BidCount,
			"highest_bid", a.HighestBid,
		)
		if s.disp != nil {
			s.disp.Publish(model.Event{
				ID:      uuid.New(),
				Type:    model.EventAuctionExpired,
				TokenID: a.TokenID,
				Actor:   a.Seller,
				Amount:  a.HighestBid,
				At:      s.now().UnixMicro(),
			})
		}
	}
}
