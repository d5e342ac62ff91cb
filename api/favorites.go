package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"bidhouse/market"
	"bidhouse/models"
)

type favoriteRequest struct {
	Note string `json:"note" binding:"max=255"`
}

func (impl *ServerImpl) listMyFavorites(c *gin.Context) {
	const op = "ListMyFavorites"
	var favorites []models.Favorite
	err := impl.db.WithContext(c.Request.Context()).
		Preload("Auction").
		Where("user_id = ?", actorOf(c).UserID).
		Order("id").
		Find(&favorites).Error
	if err != nil {
		impl.fail(c, op, fmt.Errorf("fail to list favorites, err=%w", err))
		return
	}
	c.JSON(http.StatusOK, lo.Map(favorites, func(f models.Favorite, _ int) FavoriteResponse {
		return newFavoriteResponse(f)
	}))
}

func (impl *ServerImpl) createFavorite(c *gin.Context) {
	const op = "CreateFavorite"
	auctionID, err := pathID(c, "id", market.ErrAuctionNotFound)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	var req favoriteRequest
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			impl.fail(c, op, err)
			return
		}
	}
	auction, err := impl.market.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		impl.fail(c, op, err)
		return
	}

	favorite := models.Favorite{UserID: actorOf(c).UserID, AuctionID: auctionID, Note: req.Note}
	err = impl.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Favorite{}).Where("user_id = ? AND auction_id = ?", favorite.UserID, auctionID).Count(&count).Error; err != nil {
			return fmt.Errorf("fail to check favorite, err=%w", err)
		}
		if count > 0 {
			return market.NewValidationError("auction", "this auction is already in your favorites")
		}
		if err := tx.Create(&favorite).Error; err != nil {
			return fmt.Errorf("fail to create favorite, err=%w", err)
		}
		return nil
	})
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	favorite.Auction = auction
	c.JSON(http.StatusCreated, newFavoriteResponse(favorite))
}

// findOwnFavorite hides favorites of other users behind a not found.
func (impl *ServerImpl) findOwnFavorite(c *gin.Context) (*models.Favorite, error) {
	id, err := pathID(c, "id", market.ErrFavoriteNotFound)
	if err != nil {
		return nil, err
	}
	var favorite models.Favorite
	err = impl.db.WithContext(c.Request.Context()).
		Preload("Auction").
		Where("id = ? AND user_id = ?", id, actorOf(c).UserID).
		First(&favorite).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, market.ErrFavoriteNotFound
		}
		return nil, fmt.Errorf("fail to find favorite %d, err=%w", id, err)
	}
	return &favorite, nil
}

func (impl *ServerImpl) updateFavorite(c *gin.Context) {
	const op = "UpdateFavorite"
	favorite, err := impl.findOwnFavorite(c)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	var req favoriteRequest
	if err := bindJSON(c, &req); err != nil {
		impl.fail(c, op, err)
		return
	}
	if err := impl.db.WithContext(c.Request.Context()).Model(&models.Favorite{ID: favorite.ID}).Update("note", req.Note).Error; err != nil {
		impl.fail(c, op, fmt.Errorf("fail to update favorite, err=%w", err))
		return
	}
	favorite.Note = req.Note
	c.JSON(http.StatusOK, newFavoriteResponse(*favorite))
}

func (impl *ServerImpl) deleteFavorite(c *gin.Context) {
	const op = "DeleteFavorite"
	favorite, err := impl.findOwnFavorite(c)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	if err := impl.db.WithContext(c.Request.Context()).Delete(&models.Favorite{}, favorite.ID).Error; err != nil {
		impl.fail(c, op, fmt.Errorf("fail to delete favorite, err=%w", err))
		return
	}
	c.Status(http.StatusNoContent)
}
