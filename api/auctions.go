package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bidhouse/market"
)

// auctionRequest is shared by create, replace and patch; absent fields are nil.
type auctionRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Rating      *decimal.Decimal `json:"rating"`
	Stock       *int             `json:"stock"`
	Brand       *string          `json:"brand"`
	Category    *uint            `json:"category"`
	Thumbnail   *string          `json:"thumbnail"`
	ClosingDate *time.Time       `json:"closing_date"`
}

// checkComplete reports every field a full auction representation lacks.
func (r *auctionRequest) checkComplete() error {
	ve := &market.ValidationError{}
	for field, missing := range map[string]bool{
		"title":        r.Title == nil,
		"description":  r.Description == nil,
		"price":        r.Price == nil,
		"stock":        r.Stock == nil,
		"brand":        r.Brand == nil,
		"category":     r.Category == nil,
		"thumbnail":    r.Thumbnail == nil,
		"closing_date": r.ClosingDate == nil,
	} {
		if missing {
			ve.Add(field, "this field is required")
		}
	}
	return ve.Err()
}

func (r *auctionRequest) patch() market.AuctionPatch {
	return market.AuctionPatch{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Rating:      r.Rating,
		Stock:       r.Stock,
		Brand:       r.Brand,
		CategoryID:  r.Category,
		Thumbnail:   r.Thumbnail,
		ClosingDate: r.ClosingDate,
	}
}

func (impl *ServerImpl) listAuctions(c *gin.Context) {
	const op = "ListAuctions"
	params := c.Request.URL.Query()
	filter, err := market.ParseAuctionFilter(params)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	page, err := market.ParsePage(params)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	auctions, count, err := impl.market.ListAuctions(c.Request.Context(), filter, page)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, AuctionPage{Count: count, Results: newAuctionResponses(auctions, impl.now())})
}

func (impl *ServerImpl) listMyAuctions(c *gin.Context) {
	const op = "ListMyAuctions"
	auctions, err := impl.market.ListUserAuctions(c.Request.Context(), actorOf(c).UserID)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, newAuctionResponses(auctions, impl.now()))
}

func (impl *ServerImpl) createAuction(c *gin.Context) {
	const op = "CreateAuction"
	var req auctionRequest
	if err := bindJSON(c, &req); err != nil {
		impl.fail(c, op, err)
		return
	}
	if err := req.checkComplete(); err != nil {
		impl.fail(c, op, err)
		return
	}
	auction, err := impl.market.CreateAuction(c.Request.Context(), actorOf(c), market.AuctionInput{
		Title:       *req.Title,
		Description: *req.Description,
		Price:       *req.Price,
		Rating:      req.Rating,
		Stock:       *req.Stock,
		Brand:       *req.Brand,
		CategoryID:  *req.Category,
		Thumbnail:   *req.Thumbnail,
		ClosingDate: *req.ClosingDate,
	})
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	auction, err = impl.market.GetAuction(c.Request.Context(), auction.ID)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	c.Header("Location", c.Request.URL.Path+"/"+market.AuctionChannel(auction.ID))
	c.JSON(http.StatusCreated, newAuctionResponse(*auction, impl.now()))
}

func (impl *ServerImpl) getAuction(c *gin.Context) {
	const op = "GetAuction"
	id, err := pathID(c, "id", market.ErrAuctionNotFound)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	auction, err := impl.market.GetAuction(c.Request.Context(), id)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, newAuctionResponse(*auction, impl.now()))
}

func (impl *ServerImpl) putAuction(c *gin.Context) {
	impl.changeAuction(c, "PutAuction", true)
}

func (impl *ServerImpl) patchAuction(c *gin.Context) {
	impl.changeAuction(c, "PatchAuction", false)
}

func (impl *ServerImpl) changeAuction(c *gin.Context, op string, complete bool) {
	id, err := pathID(c, "id", market.ErrAuctionNotFound)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	var req auctionRequest
	if err := bindJSON(c, &req); err != nil {
		impl.fail(c, op, err)
		return
	}
	if complete {
		if err := req.checkComplete(); err != nil {
			impl.fail(c, op, err)
			return
		}
	}
	auction, err := impl.market.UpdateAuction(c.Request.Context(), actorOf(c), id, req.patch())
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, newAuctionResponse(*auction, impl.now()))
}

func (impl *ServerImpl) deleteAuction(c *gin.Context) {
	const op = "DeleteAuction"
	id, err := pathID(c, "id", market.ErrAuctionNotFound)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	if err := impl.market.DeleteAuction(c.Request.Context(), actorOf(c), id); err != nil {
		impl.fail(c, op, err)
		return
	}
	c.Status(http.StatusNoContent)
}
