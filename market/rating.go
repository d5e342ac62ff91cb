package market

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bidhouse/models"
)

// AverageRating is the mean of values rounded to 2 decimal places, or DefaultRating when empty.
func AverageRating(values []int) decimal.Decimal {
	if len(values) == 0 {
		return DefaultRating
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromInt(int64(v)))
	}
	return sum.DivRound(decimal.NewFromInt(int64(len(values))), 2)
}

// SubmitRating replaces the actor's rating of an auction and recomputes the auction average.
// A value of 0 removes the actor's rating. It returns the new average.
func (s *Service) SubmitRating(ctx context.Context, actor Actor, auctionID uint, value int) (decimal.Decimal, error) {
	const op = "SubmitRating"
	if value < 0 || value > 5 {
		return decimal.Zero, NewValidationError("value", "the rating must be between 1 and 5, or 0 to remove it")
	}
	var average decimal.Decimal
	err := s.withLock(ctx, auctionLockKey(auctionID), func(tx *gorm.DB) error {
		if _, err := findAuction(tx, auctionID, true); err != nil {
			return err
		}
		if err := tx.Where("auction_id = ? AND user_id = ?", auctionID, actor.UserID).Delete(&models.Rating{}).Error; err != nil {
			return fmt.Errorf("fail to delete previous rating, err=%w", err)
		}
		if value != 0 {
			rating := models.Rating{AuctionID: auctionID, UserID: actor.UserID, Value: value}
			if err := tx.Create(&rating).Error; err != nil {
				return fmt.Errorf("fail to create rating, err=%w", err)
			}
		}
		var values []int
		if err := tx.Model(&models.Rating{}).Where("auction_id = ?", auctionID).Pluck("value", &values).Error; err != nil {
			return fmt.Errorf("fail to load ratings, err=%w", err)
		}
		average = AverageRating(values)
		if err := tx.Model(&models.Auction{ID: auctionID}).Update("rating", average).Error; err != nil {
			return fmt.Errorf("fail to store average rating, err=%w", err)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, wrapOp(op, err)
	}
	return average, nil
}

// ListUserRatings returns the ratings submitted by a user.
func (s *Service) ListUserRatings(ctx context.Context, userID uint) ([]models.Rating, error) {
	var ratings []models.Rating
	if err := s.db.WithContext(ctx).Preload("Auction").Where("user_id = ?", userID).Order("id").Find(&ratings).Error; err != nil {
		return nil, fmt.Errorf("[ListUserRatings] Fail to list ratings, err=%w", err)
	}
	return ratings, nil
}
