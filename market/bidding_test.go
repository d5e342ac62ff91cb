package market

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bidhouse/models"
	"bidhouse/testutil"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCheckBid(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	open := &models.Auction{Price: dec("50"), ClosingDate: now.Add(time.Hour)}
	closed := &models.Auction{Price: dec("50"), ClosingDate: now}
	negativeBase := &models.Auction{Price: dec("-10"), ClosingDate: now.Add(time.Hour)}

	tests := []struct {
		name    string
		auction *models.Auction
		highest *models.Bid
		price   string
		field   string
	}{
		{name: "above base without bids", auction: open, price: "50.01"},
		{name: "above highest", auction: open, highest: &models.Bid{Price: dec("80")}, price: "81"},
		{name: "closed auction", auction: closed, price: "100", field: "auction"},
		{name: "equal to base", auction: open, price: "50", field: "price"},
		{name: "below base", auction: open, price: "10", field: "price"},
		{name: "equal to highest", auction: open, highest: &models.Bid{Price: dec("80")}, price: "80", field: "price"},
		{name: "below highest", auction: open, highest: &models.Bid{Price: dec("80")}, price: "60", field: "price"},
		{name: "zero", auction: negativeBase, price: "0", field: "price"},
		{name: "negative", auction: negativeBase, price: "-1", field: "price"},
		{name: "fraction of a cent above highest", auction: open, highest: &models.Bid{Price: dec("100")}, price: "100.001", field: "price"},
		{name: "above column range", auction: open, price: "100000000", field: "price"},
		{name: "huge exponent", auction: open, price: "1e99999999", field: "price"},
		{name: "column maximum", auction: open, price: "99999999.99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			within(t, time.Second, func() {
				err = CheckBid(tt.auction, tt.highest, dec(tt.price), now)
			})
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			_, ok := FieldError(err, tt.field)
			assert.True(t, ok, "expected field error on %s, got %v", tt.field, err)
		})
	}
}

func TestCheckFunds(t *testing.T) {
	_, ok := FieldError(CheckFunds(nil, dec("1")), "wallet")
	assert.True(t, ok)
	_, ok = FieldError(CheckFunds(&models.Wallet{Money: dec("99.99")}, dec("100")), "wallet")
	assert.True(t, ok)
	assert.NoError(t, CheckFunds(&models.Wallet{Money: dec("100")}, dec("100")))
}

func TestPlaceBid(t *testing.T) {
	ctx := context.Background()

	t.Run("higher bid accepted and lower bid rejected", func(t *testing.T) {
		f := setupService(t)
		auction := f.auction(t, "50", time.Now().Add(24*time.Hour))
		testutil.CreateWallet(t, f.db, f.buyer.ID, "1000")

		b1, err := f.svc.PlaceBid(ctx, actorOf(f.buyer), auction.ID, dec("100"))
		require.NoError(t, err)
		assert.True(t, b1.Price.Equal(dec("100")))

		_, err = f.svc.PlaceBid(ctx, actorOf(f.buyer), auction.ID, dec("90"))
		_, ok := FieldError(err, "price")
		assert.True(t, ok, "got %v", err)

		bids, err := f.svc.ListAuctionBids(ctx, auction.ID)
		require.NoError(t, err)
		require.Len(t, bids, 1)
		assert.Equal(t, b1.ID, bids[0].ID)

		events := f.publisher.Events(AuctionChannel(auction.ID))
		require.Len(t, events, 1)
		assert.Equal(t, "100.00", events[0].Price)
		assert.Equal(t, "buyer", events[0].Bidder)
	})

	t.Run("closed auction", func(t *testing.T) {
		f := setupService(t)
		auction := f.auction(t, "50", time.Now().Add(-time.Minute))
		testutil.CreateWallet(t, f.db, f.buyer.ID, "1000")

		_, err := f.svc.PlaceBid(ctx, actorOf(f.buyer), auction.ID, dec("100"))
		_, ok := FieldError(err, "auction")
		assert.True(t, ok, "got %v", err)
	})

	t.Run("without wallet", func(t *testing.T) {
		f := setupService(t)
		auction := f.auction(t, "50", time.Now().Add(24*time.Hour))

		_, err := f.svc.PlaceBid(ctx, actorOf(f.buyer), auction.ID, dec("100"))
		_, ok := FieldError(err, "wallet")
		assert.True(t, ok, "got %v", err)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		f := setupService(t)
		auction := f.auction(t, "50", time.Now().Add(24*time.Hour))
		testutil.CreateWallet(t, f.db, f.buyer.ID, "99")

		_, err := f.svc.PlaceBid(ctx, actorOf(f.buyer), auction.ID, dec("100"))
		_, ok := FieldError(err, "wallet")
		assert.True(t, ok, "got %v", err)
		assert.Empty(t, f.publisher.Events(AuctionChannel(auction.ID)))
	})

	t.Run("unknown auction", func(t *testing.T) {
		f := setupService(t)
		_, err := f.svc.PlaceBid(ctx, actorOf(f.buyer), 999, dec("100"))
		assert.ErrorIs(t, err, ErrAuctionNotFound)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent equal bids accept exactly one", func(t *testing.T) {
		f := setupService(t)
		auction := f.auction(t, "50", time.Now().Add(24*time.Hour))
		testutil.CreateWallet(t, f.db, f.buyer.ID, "1000")

		const n = 8
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.svc.PlaceBid(ctx, actorOf(f.buyer), auction.ID, dec("100"))
			}(i)
		}
		wg.Wait()

		accepted := 0
		for _, err := range errs {
			if err == nil {
				accepted++
				continue
			}
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr), "got %v", err)
		}
		assert.Equal(t, 1, accepted)
	})
}

func TestUpdateBid(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)
	auction := f.auction(t, "50", time.Now().Add(24*time.Hour))
	testutil.CreateWallet(t, f.db, f.buyer.ID, "200")
	testutil.CreateWallet(t, f.db, f.admin.ID, "1000")

	mine, err := f.svc.PlaceBid(ctx, actorOf(f.buyer), auction.ID, dec("100"))
	require.NoError(t, err)
	_, err = f.svc.PlaceBid(ctx, actorOf(f.admin), auction.ID, dec("150"))
	require.NoError(t, err)

	t.Run("edit is not compared against other bids", func(t *testing.T) {
		bid, err := f.svc.UpdateBid(ctx, actorOf(f.buyer), auction.ID, mine.ID, dec("60"))
		require.NoError(t, err)
		assert.True(t, bid.Price.Equal(dec("60")))
	})

	t.Run("edit re-checks the wallet", func(t *testing.T) {
		_, err := f.svc.UpdateBid(ctx, actorOf(f.buyer), auction.ID, mine.ID, dec("500"))
		_, ok := FieldError(err, "wallet")
		assert.True(t, ok, "got %v", err)
	})

	t.Run("edit rejects non-positive price", func(t *testing.T) {
		_, err := f.svc.UpdateBid(ctx, actorOf(f.buyer), auction.ID, mine.ID, dec("0"))
		_, ok := FieldError(err, "price")
		assert.True(t, ok, "got %v", err)
	})

	t.Run("only the bidder may edit", func(t *testing.T) {
		_, err := f.svc.UpdateBid(ctx, actorOf(f.seller), auction.ID, mine.ID, dec("70"))
		_, ok := FieldError(err, "bidder")
		assert.True(t, ok, "got %v", err)
	})

	t.Run("bid of another auction", func(t *testing.T) {
		other := f.auction(t, "1", time.Now().Add(24*time.Hour))
		_, err := f.svc.UpdateBid(ctx, actorOf(f.buyer), other.ID, mine.ID, dec("70"))
		assert.ErrorIs(t, err, ErrBidNotFound)
	})

	t.Run("closed auction", func(t *testing.T) {
		require.NoError(t, f.db.Model(&models.Auction{ID: auction.ID}).Update("closing_date", time.Now().UTC().Add(-time.Minute)).Error)
		_, err := f.svc.UpdateBid(ctx, actorOf(f.buyer), auction.ID, mine.ID, dec("70"))
		_, ok := FieldError(err, "auction")
		assert.True(t, ok, "got %v", err)

		err = f.svc.DeleteBid(ctx, actorOf(f.buyer), auction.ID, mine.ID)
		_, ok = FieldError(err, "auction")
		assert.True(t, ok, "got %v", err)
	})
}

func TestDeleteBid(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)
	auction := f.auction(t, "50", time.Now().Add(24*time.Hour))
	testutil.CreateWallet(t, f.db, f.buyer.ID, "200")

	bid, err := f.svc.PlaceBid(ctx, actorOf(f.buyer), auction.ID, dec("100"))
	require.NoError(t, err)

	err = f.svc.DeleteBid(ctx, actorOf(f.seller), auction.ID, bid.ID)
	_, ok := FieldError(err, "bidder")
	assert.True(t, ok, "got %v", err)

	require.NoError(t, f.svc.DeleteBid(ctx, actorOf(f.buyer), auction.ID, bid.ID))
	_, err = f.svc.GetBid(ctx, auction.ID, bid.ID)
	assert.ErrorIs(t, err, ErrBidNotFound)

	// the freed price can be bid again
	_, err = f.svc.PlaceBid(ctx, actorOf(f.buyer), auction.ID, dec("100"))
	assert.NoError(t, err)

	mine, err := f.svc.ListUserBids(ctx, f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Auction)
	assert.Equal(t, auction.ID, mine[0].Auction.ID)
}
