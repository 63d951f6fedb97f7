// Command simulate runs a scripted marketplace session against an in-process
// engine with a manual clock: a fixed-price sale, then a full auction with
// three bids, refunds on outbid, and settlement after the bidding window.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkarev/nftmarket/internal/auction"
	"github.com/mkarev/nftmarket/internal/events"
	"github.com/mkarev/nftmarket/internal/ledger"
	"github.com/mkarev/nftmarket/internal/market"
	"github.com/mkarev/nftmarket/internal/registry"
)

const tokenURI = "ipfs://bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi/metadata/1"

// manualClock is a settable clock for deterministic runs.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	clock := &manualClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}

	reg := registry.NewInMemory(logger)
	led := ledger.NewInMemory(logger)
	disp := events.NewDispatcher(logger)

	marketAccount := uuid.New()
	eng := auction.New(auction.DefaultConfig(), led, marketAccount, clock.Now, logger)
	coord := market.New(market.Config{Account: marketAccount, Clock: clock.Now}, reg, led, eng, disp, logger)

	// Print every event as it happens.
	sub := disp.Subscribe("stdout", 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			ev, ok := sub.Receive()
			if !ok {
				return
			}
			fmt.Printf("  event %-18s token=%d actor=%s amount=%d\n",
				ev.Type, ev.TokenID, short(ev.Actor), ev.Amount)
		}
	}()

	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()
	dave := uuid.New()
	for _, acct := range []uuid.UUID{alice, bob, carol, dave} {
		must(led.Mint(acct, 100))
	}

	fmt.Println("-- fixed-price sale --")
	saleToken, err := coord.CreateItem(alice, tokenURI)
	must(err)
	must(reg.Approve(alice, marketAccount, saleToken))
	must(coord.ListItem(alice, saleToken, 10))
	must(led.Approve(bob, marketAccount, 10))
	must(coord.BuyItem(bob, saleToken))
	owner, err := coord.OwnerOf(saleToken)
	must(err)
	fmt.Printf("token %d owner: %s, alice balance: %d, bob balance: %d\n\n",
		saleToken, short(owner), led.BalanceOf(alice), led.BalanceOf(bob))

	fmt.Println("-- auction, three bids, settles --")
	aucToken, err := coord.CreateItem(alice, tokenURI)
	must(err)
	must(reg.Approve(alice, marketAccount, aucToken))
	must(coord.ListItemOnAuction(alice, aucToken, 2))

	bids := []struct {
		bidder uuid.UUID
		amount int64
	}{
		{bob, 4},
		{carol, 5},
		{dave, 6},
	}
	for _, b := range bids {
		must(led.Approve(b.bidder, marketAccount, b.amount))
		must(coord.MakeBid(b.bidder, aucToken, b.amount))
		clock.Advance(27 * time.Hour)
	}

	clock.Advance(72 * time.Hour)
	must(coord.FinishAuction(alice, aucToken))

	winner, err := coord.OwnerOf(aucToken)
	must(err)
	fmt.Printf("token %d winner: %s, seller proceeds: %d\n",
		aucToken, short(winner), led.BalanceOf(alice))

	disp.Close()
	<-done
}

func short(id uuid.UUID) string {
	s := id.String()
	return s[:8]
}

func must(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "simulate:", err)
		os.Exit(1)
	}
}
