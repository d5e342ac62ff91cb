package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	internalS3 "bidhouse/adapters/s3"
	"bidhouse/market"
	"bidhouse/models"
)

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, key, contentType string, content []byte) (string, error)
}

// uploadImage stores the raw request body as an image, typically an auction thumbnail.
func (impl *ServerImpl) uploadImage(c *gin.Context) {
	const op = "UploadImage"
	if impl.images == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{Message: "image upload is not configured"})
		return
	}
	ctx := c.Request.Context()
	actor := actorOf(c)

	if limit := impl.config.S3.RateLimitPerHour; limit > 0 {
		var uploaded int64
		err := impl.db.WithContext(ctx).Model(&models.Image{}).
			Where("uploader_id = ? AND created_at > ?", actor.UserID, impl.now().Add(-time.Hour)).
			Count(&uploaded).Error
		if err != nil {
			impl.fail(c, op, fmt.Errorf("fail to count uploaded images, err=%w", err))
			return
		}
		if uploaded >= limit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Message: "upload limit reached, try again later"})
			return
		}
	}

	image, err := internalS3.ReadImage(c.Request.Body, impl.config.S3.MaxImageSize)
	if err != nil {
		var limitErr *internalS3.ReachLimitError
		var typeErr *internalS3.UnsupportedImageError
		if errors.As(err, &limitErr) || errors.As(err, &typeErr) {
			impl.fail(c, op, market.NewValidationError("image", err.Error()))
			return
		}
		impl.fail(c, op, err)
		return
	}

	url, err := impl.images.Upload(ctx, uuid.NewString()+"."+image.Extension, image.MIMEType, image.Content)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	record := models.Image{UploaderID: actor.UserID, Url: url, CreatedAt: impl.now()}
	if err := impl.db.WithContext(ctx).Create(&record).Error; err != nil {
		impl.fail(c, op, fmt.Errorf("fail to record image, err=%w", err))
		return
	}
	c.Header("Location", url)
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
