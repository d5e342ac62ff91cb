package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"bidhouse/market"
	"bidhouse/models"
)

type ratingRequest struct {
	Value *int `json:"value" binding:"required"`
}

type ratingResult struct {
	Auction uint   `json:"auction"`
	Value   int    `json:"value"`
	Rating  string `json:"rating"`
}

// submitRating stores the caller's rating; a value of 0 withdraws it.
func (impl *ServerImpl) submitRating(c *gin.Context) {
	const op = "SubmitRating"
	auctionID, err := pathID(c, "id", market.ErrAuctionNotFound)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	var req ratingRequest
	if err := bindJSON(c, &req); err != nil {
		impl.fail(c, op, err)
		return
	}
	average, err := impl.market.SubmitRating(c.Request.Context(), actorOf(c), auctionID, *req.Value)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, ratingResult{Auction: auctionID, Value: *req.Value, Rating: average.StringFixed(2)})
}

func (impl *ServerImpl) listMyRatings(c *gin.Context) {
	const op = "ListMyRatings"
	ratings, err := impl.market.ListUserRatings(c.Request.Context(), actorOf(c).UserID)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(ratings, func(r models.Rating, _ int) RatingResponse {
		return newRatingResponse(r)
	}))
}
