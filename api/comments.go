package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"bidhouse/market"
	"bidhouse/models"
)

type commentRequest struct {
	Title       string `json:"title" binding:"required,max=150"`
	Description string `json:"description" binding:"required"`
}

type commentPatchRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=150"`
	Description *string `json:"description"`
}

func (impl *ServerImpl) listComments(c *gin.Context) {
	const op = "ListComments"
	auctionID, err := pathID(c, "id", market.ErrAuctionNotFound)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	if _, err := impl.market.GetAuction(c.Request.Context(), auctionID); err != nil {
		impl.fail(c, op, err)
		return
	}
	var comments []models.Commentary
	if err := impl.db.WithContext(c.Request.Context()).Preload("User").Where("auction_id = ?", auctionID).Order("id").Find(&comments).Error; err != nil {
		impl.fail(c, op, fmt.Errorf("fail to list comments, err=%w", err))
		return
	}
	c.JSON(http.StatusOK, lo.Map(comments, func(comment models.Commentary, _ int) CommentResponse {
		return newCommentResponse(comment)
	}))
}

func (impl *ServerImpl) createComment(c *gin.Context) {
	const op = "CreateComment"
	auctionID, err := pathID(c, "id", market.ErrAuctionNotFound)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	var req commentRequest
	if err := bindJSON(c, &req); err != nil {
		impl.fail(c, op, err)
		return
	}
	if _, err := impl.market.GetAuction(c.Request.Context(), auctionID); err != nil {
		impl.fail(c, op, err)
		return
	}
	actor := actorOf(c)
	comment := models.Commentary{
		Title:       strings.TrimSpace(req.Title),
		Description: market.SanitizeText(req.Description),
		UserID:      actor.UserID,
		AuctionID:   auctionID,
	}
	if err := impl.db.WithContext(c.Request.Context()).Create(&comment).Error; err != nil {
		impl.fail(c, op, fmt.Errorf("fail to create comment, err=%w", err))
		return
	}
	comment.User = &models.User{ID: actor.UserID, Username: actor.Username}
	c.JSON(http.StatusCreated, newCommentResponse(comment))
}

func (impl *ServerImpl) findComment(c *gin.Context) (*models.Commentary, error) {
	id, err := pathID(c, "id", market.ErrCommentNotFound)
	if err != nil {
		return nil, err
	}
	var comment models.Commentary
	if err := impl.db.WithContext(c.Request.Context()).Preload("User").First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, market.ErrCommentNotFound
		}
		return nil, fmt.Errorf("fail to find comment %d, err=%w", id, err)
	}
	return &comment, nil
}

func (impl *ServerImpl) getComment(c *gin.Context) {
	const op = "GetComment"
	comment, err := impl.findComment(c)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, newCommentResponse(*comment))
}

func (impl *ServerImpl) updateComment(c *gin.Context) {
	const op = "UpdateComment"
	comment, err := impl.findComment(c)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	if !actorOf(c).CanModify(comment.UserID) {
		impl.fail(c, op, market.ErrNotAuthor)
		return
	}
	var req commentPatchRequest
	if err := bindJSON(c, &req); err != nil {
		impl.fail(c, op, err)
		return
	}
	updates := map[string]any{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			impl.fail(c, op, market.NewValidationError("title", "this field is required"))
			return
		}
		updates["title"] = title
		comment.Title = title
	}
	if req.Description != nil {
		updates["description"] = market.SanitizeText(*req.Description)
		comment.Description = updates["description"].(string)
	}
	if len(updates) > 0 {
		if err := impl.db.WithContext(c.Request.Context()).Model(&models.Commentary{ID: comment.ID}).Updates(updates).Error; err != nil {
			impl.fail(c, op, fmt.Errorf("fail to update comment, err=%w", err))
			return
		}
	}
	c.JSON(http.StatusOK, newCommentResponse(*comment))
}

func (impl *ServerImpl) deleteComment(c *gin.Context) {
	const op = "DeleteComment"
	comment, err := impl.findComment(c)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	if !actorOf(c).CanModify(comment.UserID) {
		impl.fail(c, op, market.ErrNotAuthor)
		return
	}
	if err := impl.db.WithContext(c.Request.Context()).Delete(&models.Commentary{}, comment.ID).Error; err != nil {
		impl.fail(c, op, fmt.Errorf("fail to delete comment, err=%w", err))
		return
	}
	c.Status(http.StatusNoContent)
}
