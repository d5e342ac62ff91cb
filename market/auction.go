package market

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bidhouse/models"
)

var (
	minRating     = decimal.NewFromInt(1)
	maxRating     = decimal.NewFromInt(5)
	DefaultRating = decimal.NewFromInt(1)

	textPolicy = bluemonday.UGCPolicy()
)

// SanitizeText strips unsafe markup from user supplied rich text.
func SanitizeText(s string) string {
	return textPolicy.Sanitize(s)
}

// AuctionInput carries the fields of a new auction.
type AuctionInput struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Rating      *decimal.Decimal
	Stock       int
	Brand       string
	CategoryID  uint
	Thumbnail   string
	ClosingDate time.Time
}

// AuctionPatch carries the fields to change on an auction; nil fields are left alone.
type AuctionPatch struct {
	Title       *string
	Description *string
	Price       *decimal.Decimal
	Rating      *decimal.Decimal
	Stock       *int
	Brand       *string
	CategoryID  *uint
	Thumbnail   *string
	ClosingDate *time.Time
}

func checkTitle(ve *ValidationError, title string) {
	switch n := utf8.RuneCountInString(strings.TrimSpace(title)); {
	case n == 0:
		ve.Add("title", "the title is required")
	case n > 150:
		ve.Add("title", "the title must have at most 150 characters")
	}
}

func checkBrand(ve *ValidationError, brand string) {
	if utf8.RuneCountInString(brand) > 100 {
		ve.Add("brand", "the brand must have at most 100 characters")
	}
}

func checkPrice(ve *ValidationError, price decimal.Decimal) {
	if msg := amountProblem(price, maxPriceAmount); msg != "" {
		ve.Add("price", msg)
		return
	}
	if price.IsNegative() {
		ve.Add("price", "the price must be 0 or greater")
	}
}

func checkStock(ve *ValidationError, stock int) {
	if stock < 0 {
		ve.Add("stock", "the stock must be 0 or greater")
	}
}

func checkRating(ve *ValidationError, rating decimal.Decimal) {
	if msg := amountProblem(rating, maxRatingAmount); msg != "" {
		ve.Add("rating", msg)
		return
	}
	if rating.LessThan(minRating) || rating.GreaterThan(maxRating) {
		ve.Add("rating", "the rating must be between 1 and 5")
	}
}

func checkThumbnail(ve *ValidationError, thumbnail string) {
	u, err := url.ParseRequestURI(thumbnail)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		ve.Add("thumbnail", "the thumbnail must be a valid http(s) URL")
	}
}

func checkCategory(tx *gorm.DB, ve *ValidationError, categoryID uint) error {
	var count int64
	if err := tx.Model(&models.Category{}).Where("id = ?", categoryID).Count(&count).Error; err != nil {
		return fmt.Errorf("fail to check category, err=%w", err)
	}
	if count == 0 {
		ve.Add("category", "category not found")
	}
	return nil
}

// CheckClosingDate enforces the minimum auction duration relative to creation.
func CheckClosingDate(closing, creation time.Time) error {
	if !closing.After(creation) {
		return NewValidationError("closing_date", "the closing date must be after the creation date")
	}
	if closing.Before(creation.Add(models.MinAuctionDuration)) {
		return NewValidationError("closing_date", "the closing date must be at least 15 days after the creation date")
	}
	return nil
}

// CreateAuction lists a new auction with the actor as auctioneer.
func (s *Service) CreateAuction(ctx context.Context, actor Actor, in AuctionInput) (*models.Auction, error) {
	const op = "CreateAuction"
	db := s.db.WithContext(ctx)
	now := s.now()

	ve := &ValidationError{}
	checkTitle(ve, in.Title)
	checkBrand(ve, in.Brand)
	checkPrice(ve, in.Price)
	checkStock(ve, in.Stock)
	rating := DefaultRating
	if in.Rating != nil {
		checkRating(ve, *in.Rating)
		rating = *in.Rating
	}
	checkThumbnail(ve, in.Thumbnail)
	if err := CheckClosingDate(in.ClosingDate, now); err != nil {
		msg, _ := FieldError(err, "closing_date")
		ve.Add("closing_date", msg)
	}
	if err := checkCategory(db, ve, in.CategoryID); err != nil {
		return nil, fmt.Errorf("[%s] %w", op, err)
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	auction := models.Auction{
		Title:        strings.TrimSpace(in.Title),
		Description:  SanitizeText(in.Description),
		Price:        in.Price,
		Rating:       rating,
		Stock:        in.Stock,
		Brand:        in.Brand,
		CategoryID:   in.CategoryID,
		Thumbnail:    in.Thumbnail,
		CreationDate: now,
		ClosingDate:  in.ClosingDate.UTC(),
		AuctioneerID: actor.UserID,
	}
	if err := db.Create(&auction).Error; err != nil {
		return nil, fmt.Errorf("[%s] Fail to create auction, err=%w", op, err)
	}
	return &auction, nil
}

// GetAuction returns an auction with its category.
func (s *Service) GetAuction(ctx context.Context, id uint) (*models.Auction, error) {
	var auction models.Auction
	err := s.db.WithContext(ctx).Preload("Category").Preload("Auctioneer").First(&auction, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAuctionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[GetAuction] Fail to find auction, err=%w", err)
	}
	return &auction, nil
}

// UpdateAuction applies a patch on behalf of the auctioneer or an administrator.
func (s *Service) UpdateAuction(ctx context.Context, actor Actor, id uint, patch AuctionPatch) (*models.Auction, error) {
	const op = "UpdateAuction"
	var auction *models.Auction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		auction, err = findAuction(tx, id, true)
		if err != nil {
			return err
		}
		if !actor.CanModify(auction.AuctioneerID) {
			return ErrNotAuctioneer
		}

		ve := &ValidationError{}
		updates := map[string]any{}
		if patch.Title != nil {
			checkTitle(ve, *patch.Title)
			updates["title"] = strings.TrimSpace(*patch.Title)
		}
		if patch.Description != nil {
			updates["description"] = SanitizeText(*patch.Description)
		}
		if patch.Price != nil {
			checkPrice(ve, *patch.Price)
			updates["price"] = *patch.Price
		}
		if patch.Rating != nil {
			checkRating(ve, *patch.Rating)
			updates["rating"] = *patch.Rating
		}
		if patch.Stock != nil {
			checkStock(ve, *patch.Stock)
			updates["stock"] = *patch.Stock
		}
		if patch.Brand != nil {
			checkBrand(ve, *patch.Brand)
			updates["brand"] = *patch.Brand
		}
		if patch.Thumbnail != nil {
			checkThumbnail(ve, *patch.Thumbnail)
			updates["thumbnail"] = *patch.Thumbnail
		}
		if patch.CategoryID != nil {
			if err := checkCategory(tx, ve, *patch.CategoryID); err != nil {
				return err
			}
			updates["category_id"] = *patch.CategoryID
		}
		if patch.ClosingDate != nil {
			if !patch.ClosingDate.After(auction.CreationDate) {
				ve.Add("closing_date", "the closing date must be after the creation date")
			}
			updates["closing_date"] = patch.ClosingDate.UTC()
		}
		if err := ve.Err(); err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&models.Auction{ID: auction.ID}).Updates(updates).Error; err != nil {
			return fmt.Errorf("fail to update auction, err=%w", err)
		}
		return nil
	})
	if err != nil {
		return nil, wrapOp(op, err)
	}
	return s.GetAuction(ctx, auction.ID)
}

// DeleteAuction removes an auction together with its bids, ratings, comments and favorites.
func (s *Service) DeleteAuction(ctx context.Context, actor Actor, id uint) error {
	const op = "DeleteAuction"
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		auction, err := findAuction(tx, id, true)
		if err != nil {
			return err
		}
		if !actor.CanModify(auction.AuctioneerID) {
			return ErrNotAuctioneer
		}
		return deleteAuctions(tx, []uint{auction.ID})
	})
	return wrapOp(op, err)
}

// deleteAuctions removes auctions and everything they own.
func deleteAuctions(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	for _, owned := range []any{&models.Bid{}, &models.Rating{}, &models.Commentary{}, &models.Favorite{}} {
		if err := tx.Where("auction_id IN ?", ids).Delete(owned).Error; err != nil {
			return fmt.Errorf("fail to delete auction children, err=%w", err)
		}
	}
	if err := tx.Delete(&models.Auction{}, ids).Error; err != nil {
		return fmt.Errorf("fail to delete auctions, err=%w", err)
	}
	return nil
}

// ListAuctions returns one page of auctions matching the filter and the total match count.
func (s *Service) ListAuctions(ctx context.Context, filter AuctionFilter, page Page) ([]models.Auction, int64, error) {
	const op = "ListAuctions"
	db := s.db.WithContext(ctx)
	if filter.CategoryID != nil {
		ve := &ValidationError{}
		if err := checkCategory(db, ve, *filter.CategoryID); err != nil {
			return nil, 0, fmt.Errorf("[%s] %w", op, err)
		}
		if err := ve.Err(); err != nil {
			return nil, 0, err
		}
	}

	query := filter.Apply(db.Model(&models.Auction{}), s.now())
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("[%s] Fail to count auctions, err=%w", op, err)
	}
	var auctions []models.Auction
	if err := filter.order(filter.Apply(db.Model(&models.Auction{}), s.now())).
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&auctions).Error; err != nil {
		return nil, 0, fmt.Errorf("[%s] Fail to list auctions, err=%w", op, err)
	}
	return auctions, count, nil
}

// ListUserAuctions returns the auctions listed by a user.
func (s *Service) ListUserAuctions(ctx context.Context, userID uint) ([]models.Auction, error) {
	var auctions []models.Auction
	if err := s.db.WithContext(ctx).Where("auctioneer_id = ?", userID).Order("id").Find(&auctions).Error; err != nil {
		return nil, fmt.Errorf("[ListUserAuctions] Fail to list auctions, err=%w", err)
	}
	return auctions, nil
}

// DeleteCategory removes a category and every auction filed under it.
func (s *Service) DeleteCategory(ctx context.Context, actor Actor, id uint) error {
	const op = "DeleteCategory"
	if !actor.IsAdmin {
		return ErrNotAdmin
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return fmt.Errorf("fail to find category, err=%w", err)
		}
		var ids []uint
		if err := tx.Model(&models.Auction{}).Where("category_id = ?", id).Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("fail to list category auctions, err=%w", err)
		}
		if err := deleteAuctions(tx, ids); err != nil {
			return err
		}
		if err := tx.Delete(&models.Category{}, id).Error; err != nil {
			return fmt.Errorf("fail to delete category, err=%w", err)
		}
		return nil
	})
	return wrapOp(op, err)
}
