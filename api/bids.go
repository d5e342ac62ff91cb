package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"bidhouse/market"
	"bidhouse/models"
)

type bidRequest struct {
	Price *decimal.Decimal `json:"price" binding:"required"`
}

func newBidResponses(bids []models.Bid) []BidResponse {
	return lo.Map(bids, func(b models.Bid, _ int) BidResponse {
		return newBidResponse(b)
	})
}

// bidPath reads the auction and bid IDs of a nested bid route.
func bidPath(c *gin.Context) (uint, uint, error) {
	auctionID, err := pathID(c, "id", market.ErrAuctionNotFound)
	if err != nil {
		return 0, 0, err
	}
	bidID, err := pathID(c, "bidId", market.ErrBidNotFound)
	if err != nil {
		return 0, 0, err
	}
	return auctionID, bidID, nil
}

func (impl *ServerImpl) listBids(c *gin.Context) {
	const op = "ListBids"
	auctionID, err := pathID(c, "id", market.ErrAuctionNotFound)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	bids, err := impl.market.ListAuctionBids(c.Request.Context(), auctionID)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, newBidResponses(bids))
}

func (impl *ServerImpl) placeBid(c *gin.Context) {
	const op = "PlaceBid"
	auctionID, err := pathID(c, "id", market.ErrAuctionNotFound)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	var req bidRequest
	if err := bindJSON(c, &req); err != nil {
		impl.fail(c, op, err)
		return
	}
	actor := actorOf(c)
	bid, err := impl.market.PlaceBid(c.Request.Context(), actor, auctionID, *req.Price)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	bid.Bidder = &models.User{ID: actor.UserID, Username: actor.Username}
	c.Header("Location", c.Request.URL.Path+"/"+strconv.FormatUint(uint64(bid.ID), 10))
	c.JSON(http.StatusCreated, newBidResponse(*bid))
}

func (impl *ServerImpl) getBid(c *gin.Context) {
	const op = "GetBid"
	auctionID, bidID, err := bidPath(c)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	bid, err := impl.market.GetBid(c.Request.Context(), auctionID, bidID)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, newBidResponse(*bid))
}

func (impl *ServerImpl) updateBid(c *gin.Context) {
	const op = "UpdateBid"
	auctionID, bidID, err := bidPath(c)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	var req bidRequest
	if err := bindJSON(c, &req); err != nil {
		impl.fail(c, op, err)
		return
	}
	bid, err := impl.market.UpdateBid(c.Request.Context(), actorOf(c), auctionID, bidID, *req.Price)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, newBidResponse(*bid))
}

func (impl *ServerImpl) deleteBid(c *gin.Context) {
	const op = "DeleteBid"
	auctionID, bidID, err := bidPath(c)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	if err := impl.market.DeleteBid(c.Request.Context(), actorOf(c), auctionID, bidID); err != nil {
		impl.fail(c, op, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (impl *ServerImpl) listMyBids(c *gin.Context) {
	const op = "ListMyBids"
	bids, err := impl.market.ListUserBids(c.Request.Context(), actorOf(c).UserID)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, newBidResponses(bids))
}
