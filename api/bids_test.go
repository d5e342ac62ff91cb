package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bidhouse/testutil"
)

func TestPlaceBid(t *testing.T) {
	env := newTestEnv(t)
	auction := env.auction(t, "10", time.Now().Add(time.Hour))
	path := fmt.Sprintf("/api/auctions/%d/bids", auction.ID)

	rec := env.do(t, http.MethodPost, path, map[string]any{"price": "15"}, env.buyer)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "wallet")

	testutil.CreateWallet(t, env.db, env.buyer.ID, "100")

	rec = env.do(t, http.MethodPost, path, map[string]any{}, env.buyer)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "price")

	rec = env.do(t, http.MethodPost, path, map[string]any{"price": 15}, env.buyer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bid := decode[BidResponse](t, rec)
	assert.Equal(t, "15.00", bid.Price)
	assert.Equal(t, "buyer", bid.BidderUsername)
	assert.Equal(t, fmt.Sprintf("%s/%d", path, bid.ID), rec.Header().Get("Location"))

	rec = env.do(t, http.MethodPost, path, map[string]any{"price": "15"}, env.buyer)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "price")

	rec = env.do(t, http.MethodPost, path, map[string]any{"price": "1000"}, env.buyer)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "wallet")

	rec = env.do(t, http.MethodPost, "/api/auctions/999/bids", map[string]any{"price": "15"}, env.buyer)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBidOnClosedAuction(t *testing.T) {
	env := newTestEnv(t)
	auction := env.auction(t, "10", time.Now().Add(-time.Minute))
	testutil.CreateWallet(t, env.db, env.buyer.ID, "100")

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/auctions/%d/bids", auction.ID), map[string]any{"price": "20"}, env.buyer)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "auction")
}

func TestBidLifecycle(t *testing.T) {
	env := newTestEnv(t)
	auction := env.auction(t, "10", time.Now().Add(time.Hour))
	testutil.CreateWallet(t, env.db, env.buyer.ID, "100")
	testutil.CreateWallet(t, env.db, env.admin.ID, "100")
	path := fmt.Sprintf("/api/auctions/%d/bids", auction.ID)

	first := decode[BidResponse](t, env.do(t, http.MethodPost, path, map[string]any{"price": "20"}, env.buyer))
	second := decode[BidResponse](t, env.do(t, http.MethodPost, path, map[string]any{"price": "30"}, env.admin))

	rec := env.do(t, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	bids := decode[[]BidResponse](t, rec)
	require.Len(t, bids, 2)
	assert.Equal(t, second.ID, bids[0].ID)
	assert.Equal(t, first.ID, bids[1].ID)

	bidPath := fmt.Sprintf("%s/%d", path, first.ID)
	rec = env.do(t, http.MethodGet, bidPath, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "20.00", decode[BidResponse](t, rec).Price)

	rec = env.do(t, http.MethodPatch, bidPath, map[string]any{"price": "25"}, env.seller)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "bidder")

	rec = env.do(t, http.MethodPut, bidPath, map[string]any{"price": "25"}, env.buyer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "25.00", decode[BidResponse](t, rec).Price)

	rec = env.do(t, http.MethodGet, "/api/bids/mine", nil, env.buyer)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decode[[]BidResponse](t, rec)
	require.Len(t, mine, 1)
	assert.Equal(t, "Item", mine[0].AuctionTitle)

	rec = env.do(t, http.MethodDelete, bidPath, nil, env.buyer)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, bidPath, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOversizedAmounts(t *testing.T) {
	env := newTestEnv(t)
	auction := env.auction(t, "10", time.Now().Add(time.Hour))
	testutil.CreateWallet(t, env.db, env.buyer.ID, "500")
	bids := fmt.Sprintf("/api/auctions/%d/bids", auction.ID)

	rec := env.do(t, http.MethodPost, bids, map[string]any{"price": "100"}, env.buyer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bid := decode[BidResponse](t, rec)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		user   bool
		field  string
	}{
		{name: "listing min price", method: http.MethodGet, path: "/api/auctions?minPrice=1e99999999", field: "minPrice"},
		{name: "listing max price", method: http.MethodGet, path: "/api/auctions?maxPrice=1e99999999", field: "maxPrice"},
		{name: "listing min rating", method: http.MethodGet, path: "/api/auctions?minRating=1e99999999", field: "minRating"},
		{name: "bid exponent", method: http.MethodPost, path: bids, body: `{"price": 1e99999999}`, user: true, field: "price"},
		{name: "bid exponent string", method: http.MethodPost, path: bids, body: `{"price": "1e99999999"}`, user: true, field: "price"},
		{name: "bid fraction of a cent", method: http.MethodPost, path: bids, body: `{"price": "100.001"}`, user: true, field: "price"},
		{name: "bid above column range", method: http.MethodPost, path: bids, body: `{"price": "100000000"}`, user: true, field: "price"},
		{name: "bid edit exponent", method: http.MethodPut, path: fmt.Sprintf("%s/%d", bids, bid.ID), body: `{"price": 1e99999999}`, user: true, field: "price"},
		{name: "wallet exponent", method: http.MethodPatch, path: "/api/wallet", body: `{"money": 1e99999999}`, user: true, field: "money"},
		{name: "wallet fraction of a cent", method: http.MethodPatch, path: "/api/wallet", body: `{"money": "0.001"}`, user: true, field: "money"},
		{
			name:   "auction price exponent",
			method: http.MethodPost,
			path:   "/api/auctions",
			body: map[string]any{
				"title":        "Rare book",
				"description":  "First edition",
				"price":        "1e99999999",
				"stock":        1,
				"brand":        "Penguin",
				"category":     env.category.ID,
				"thumbnail":    "https://example.com/book.png",
				"closing_date": time.Now().UTC().Add(20 * 24 * time.Hour),
			},
			user:  true,
			field: "price",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := env.buyer
			if !tt.user {
				user = nil
			}
			rec := env.doWithin(t, 2*time.Second, tt.method, tt.path, tt.body, user)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Contains(t, decode[ErrorResponse](t, rec).Fields, tt.field)
		})
	}

	rec = env.do(t, http.MethodGet, "/api/wallet", nil, env.buyer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "500.00", decode[WalletResponse](t, rec).Money)
}
