package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bidhouse/models"
)

// CheckBid applies the price rules for a new bid, in order:
// the auction must be open, the price must be a storable amount, beat the starting price,
// beat the current highest bid (if any) and be positive.
func CheckBid(auction *models.Auction, highest *models.Bid, price decimal.Decimal, now time.Time) error {
	if !auction.IsOpen(now) {
		return NewValidationError("auction", "the auction is closed")
	}
	if err := CheckAmount("price", price, maxPriceAmount); err != nil {
		return err
	}
	if !price.GreaterThan(auction.Price) {
		return NewValidationError("price", fmt.Sprintf("the bid must be higher than the starting price %s", auction.Price.StringFixed(2)))
	}
	if highest != nil && !price.GreaterThan(highest.Price) {
		return NewValidationError("price", fmt.Sprintf("the bid must be higher than the highest bid %s", highest.Price.StringFixed(2)))
	}
	if !price.IsPositive() {
		return NewValidationError("price", "the bid must be positive")
	}
	return nil
}

// CheckFunds verifies the wallet can cover price. The balance is checked, not reserved.
func CheckFunds(wallet *models.Wallet, price decimal.Decimal) error {
	if wallet == nil {
		return NewValidationError("wallet", "a wallet is required to bid")
	}
	if wallet.Money.LessThan(price) {
		return NewValidationError("wallet", "insufficient balance for this bid")
	}
	return nil
}

func highestBid(tx *gorm.DB, auctionID uint) (*models.Bid, error) {
	var bid models.Bid
	err := tx.Where("auction_id = ?", auctionID).Order("price DESC").Order("id ASC").First(&bid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fail to find highest bid, err=%w", err)
	}
	return &bid, nil
}

func findWallet(tx *gorm.DB, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := tx.Where("user_id = ?", userID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fail to find wallet, err=%w", err)
	}
	return &wallet, nil
}

// PlaceBid validates and records a new bid for the actor.
func (s *Service) PlaceBid(ctx context.Context, actor Actor, auctionID uint, price decimal.Decimal) (*models.Bid, error) {
	const op = "PlaceBid"
	var bid *models.Bid
	err := s.withLock(ctx, auctionLockKey(auctionID), func(tx *gorm.DB) error {
		auction, err := findAuction(tx, auctionID, true)
		if err != nil {
			return err
		}
		highest, err := highestBid(tx, auctionID)
		if err != nil {
			return err
		}
		if err := CheckBid(auction, highest, price, s.now()); err != nil {
			return err
		}
		wallet, err := findWallet(tx, actor.UserID)
		if err != nil {
			return err
		}
		if err := CheckFunds(wallet, price); err != nil {
			return err
		}
		bid = &models.Bid{
			AuctionID: auctionID,
			BidderID:  actor.UserID,
			Price:     price,
		}
		if err := tx.Create(bid).Error; err != nil {
			return fmt.Errorf("fail to create bid, err=%w", err)
		}
		return nil
	})
	if err != nil {
		return nil, wrapOp(op, err)
	}
	s.publishBid(bid, actor.Username)
	return bid, nil
}

func (s *Service) publishBid(bid *models.Bid, bidder string) {
	if s.events == nil {
		return
	}
	event := BidEvent{
		AuctionID: bid.AuctionID,
		BidID:     bid.ID,
		Price:     bid.Price.StringFixed(2),
		Bidder:    bidder,
		Time:      bid.CreationDate,
	}
	if err := s.events.Publish(AuctionChannel(bid.AuctionID), event); err != nil {
		s.logger.Warn("Fail to publish bid event", slog.Uint64("auctionID", uint64(bid.AuctionID)), slog.Any("error", err))
	}
}

// loadOwnBid finds a bid of the auction and checks the actor may change it while the auction is open.
func (s *Service) loadOwnBid(tx *gorm.DB, actor Actor, auctionID, bidID uint) (*models.Bid, error) {
	auction, err := findAuction(tx, auctionID, true)
	if err != nil {
		return nil, err
	}
	var bid models.Bid
	if err := tx.Where("id = ? AND auction_id = ?", bidID, auctionID).First(&bid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBidNotFound
		}
		return nil, fmt.Errorf("fail to find bid, err=%w", err)
	}
	if !actor.CanModify(bid.BidderID) {
		return nil, NewValidationError("bidder", "you can only change your own bids")
	}
	if !auction.IsOpen(s.now()) {
		return nil, NewValidationError("auction", "bids on a closed auction cannot be changed")
	}
	return &bid, nil
}

// UpdateBid revises the price of a bid. Only wallet sufficiency is re-checked;
// the new price is not compared against other bids.
func (s *Service) UpdateBid(ctx context.Context, actor Actor, auctionID, bidID uint, price decimal.Decimal) (*models.Bid, error) {
	const op = "UpdateBid"
	var bid *models.Bid
	err := s.withLock(ctx, auctionLockKey(auctionID), func(tx *gorm.DB) error {
		var err error
		bid, err = s.loadOwnBid(tx, actor, auctionID, bidID)
		if err != nil {
			return err
		}
		if err := CheckAmount("price", price, maxPriceAmount); err != nil {
			return err
		}
		if !price.IsPositive() {
			return NewValidationError("price", "the bid must be positive")
		}
		wallet, err := findWallet(tx, bid.BidderID)
		if err != nil {
			return err
		}
		if err := CheckFunds(wallet, price); err != nil {
			return err
		}
		bid.Price = price
		if err := tx.Model(&models.Bid{ID: bid.ID}).Update("price", price).Error; err != nil {
			return fmt.Errorf("fail to update bid, err=%w", err)
		}
		return nil
	})
	if err != nil {
		return nil, wrapOp(op, err)
	}
	return bid, nil
}

// DeleteBid withdraws a bid while its auction is open.
func (s *Service) DeleteBid(ctx context.Context, actor Actor, auctionID, bidID uint) error {
	const op = "DeleteBid"
	err := s.withLock(ctx, auctionLockKey(auctionID), func(tx *gorm.DB) error {
		bid, err := s.loadOwnBid(tx, actor, auctionID, bidID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.Bid{}, bid.ID).Error; err != nil {
			return fmt.Errorf("fail to delete bid, err=%w", err)
		}
		return nil
	})
	return wrapOp(op, err)
}

// GetBid returns one bid of an auction.
func (s *Service) GetBid(ctx context.Context, auctionID, bidID uint) (*models.Bid, error) {
	var bid models.Bid
	err := s.db.WithContext(ctx).Preload("Bidder").Where("id = ? AND auction_id = ?", bidID, auctionID).First(&bid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBidNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[GetBid] Fail to find bid, err=%w", err)
	}
	return &bid, nil
}

// ListAuctionBids returns the bids of an auction, highest price first.
func (s *Service) ListAuctionBids(ctx context.Context, auctionID uint) ([]models.Bid, error) {
	const op = "ListAuctionBids"
	if _, err := findAuction(s.db.WithContext(ctx), auctionID, false); err != nil {
		return nil, wrapOp(op, err)
	}
	var bids []models.Bid
	if err := s.db.WithContext(ctx).Preload("Bidder").Where("auction_id = ?", auctionID).Order("price DESC").Order("id ASC").Find(&bids).Error; err != nil {
		return nil, fmt.Errorf("[%s] Fail to list bids, err=%w", op, err)
	}
	return bids, nil
}

// ListUserBids returns every bid placed by a user, newest first.
func (s *Service) ListUserBids(ctx context.Context, userID uint) ([]models.Bid, error) {
	var bids []models.Bid
	if err := s.db.WithContext(ctx).Preload("Auction").Where("bidder_id = ?", userID).Order("id DESC").Find(&bids).Error; err != nil {
		return nil, fmt.Errorf("[ListUserBids] Fail to list bids, err=%w", err)
	}
	return bids, nil
}

// wrapOp prefixes infrastructure errors with the operation name and leaves domain errors untouched.
func wrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
		return err
	}
	return fmt.Errorf("[%s] %w", op, err)
}
