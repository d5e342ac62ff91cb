package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRating(t *testing.T) {
	env := newTestEnv(t)
	auction := env.auction(t, "10", time.Now().Add(time.Hour))
	path := fmt.Sprintf("/api/auctions/%d/ratings", auction.ID)

	rec := env.do(t, http.MethodPost, path, map[string]any{"value": 3}, env.buyer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "3.00", decode[ratingResult](t, rec).Rating)

	rec = env.do(t, http.MethodPost, path, map[string]any{"value": 5}, env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "4.00", decode[ratingResult](t, rec).Rating)

	rec = env.do(t, http.MethodPost, path, map[string]any{"value": 6}, env.buyer)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "value")

	rec = env.do(t, http.MethodPost, path, map[string]any{}, env.buyer)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "value")

	rec = env.do(t, http.MethodGet, "/api/ratings/mine", nil, env.buyer)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decode[[]RatingResponse](t, rec)
	require.Len(t, mine, 1)
	assert.Equal(t, 3, mine[0].Value)

	rec = env.do(t, http.MethodPost, path, map[string]any{"value": 0}, env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3.00", decode[ratingResult](t, rec).Rating)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/auctions/%d", auction.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3.00", decode[AuctionResponse](t, rec).Rating)
}

func TestComments(t *testing.T) {
	env := newTestEnv(t)
	auction := env.auction(t, "10", time.Now().Add(time.Hour))
	path := fmt.Sprintf("/api/auctions/%d/comments", auction.ID)

	rec := env.do(t, http.MethodPost, path, map[string]any{"title": "Question", "description": "Is it <b>signed</b>?<img src=x onerror=alert(1)>"}, env.buyer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	comment := decode[CommentResponse](t, rec)
	assert.Equal(t, "buyer", comment.Username)
	assert.NotContains(t, comment.Description, "onerror")
	assert.Contains(t, comment.Description, "<b>signed</b>")

	rec = env.do(t, http.MethodPost, path, map[string]any{"title": ""}, env.buyer)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode[ErrorResponse](t, rec).Fields
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "description")

	rec = env.do(t, http.MethodPost, "/api/auctions/999/comments", map[string]any{"title": "x", "description": "y"}, env.buyer)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]CommentResponse](t, rec), 1)

	commentPath := fmt.Sprintf("/api/comments/%d", comment.ID)
	rec = env.do(t, http.MethodPatch, commentPath, map[string]any{"title": "Edited"}, env.seller)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPatch, commentPath, map[string]any{"title": "Edited"}, env.buyer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Edited", decode[CommentResponse](t, rec).Title)

	rec = env.do(t, http.MethodDelete, commentPath, nil, env.admin)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, commentPath, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFavorites(t *testing.T) {
	env := newTestEnv(t)
	auction := env.auction(t, "10", time.Now().Add(time.Hour))
	path := fmt.Sprintf("/api/auctions/%d/favorites", auction.ID)

	rec := env.do(t, http.MethodPost, path, map[string]any{"note": "gift idea"}, env.buyer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	favorite := decode[FavoriteResponse](t, rec)
	assert.Equal(t, "Item", favorite.AuctionTitle)
	assert.Equal(t, "gift idea", favorite.Note)

	rec = env.do(t, http.MethodPost, path, nil, env.buyer)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Fields, "auction")

	rec = env.do(t, http.MethodPost, "/api/auctions/999/favorites", nil, env.buyer)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	favoritePath := fmt.Sprintf("/api/favorites/%d", favorite.ID)
	rec = env.do(t, http.MethodPatch, favoritePath, map[string]any{"note": "mine now"}, env.seller)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPatch, favoritePath, map[string]any{"note": "birthday"}, env.buyer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "birthday", decode[FavoriteResponse](t, rec).Note)

	rec = env.do(t, http.MethodGet, "/api/favorites/mine", nil, env.buyer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]FavoriteResponse](t, rec), 1)

	rec = env.do(t, http.MethodDelete, favoritePath, nil, env.buyer)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/favorites/mine", nil, env.buyer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]FavoriteResponse](t, rec))
}
