package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bidhouse/models"
)

// WalletPatch changes a wallet. CreditCard replaces the stored card, an empty string clears it.
// Money is a signed delta added to the balance.
type WalletPatch struct {
	CreditCard *string
	Money      *string
}

// ValidateCreditCard accepts 13 to 19 decimal digits.
func ValidateCreditCard(card string) error {
	if len(card) < 13 || len(card) > 19 {
		return NewValidationError("credit_card", "the card number must have between 13 and 19 digits")
	}
	for _, r := range card {
		if r < '0' || r > '9' {
			return NewValidationError("credit_card", "the card number must contain only digits")
		}
	}
	return nil
}

// ApplyDelta returns balance+delta, rejecting malformed deltas and results outside the balance range.
func ApplyDelta(balance decimal.Decimal, delta string) (decimal.Decimal, error) {
	d, err := ParseAmount("money", delta, maxBalanceAmount)
	if err != nil {
		return balance, err
	}
	next := balance.Add(d)
	if next.IsNegative() {
		return balance, NewValidationError("money", "insufficient balance for this withdrawal")
	}
	if next.GreaterThan(maxBalanceAmount) {
		return balance, NewValidationError("money", "the balance must be at most "+maxBalanceAmount.StringFixed(2))
	}
	return next, nil
}

func walletOf(tx *gorm.DB, userID uint, lock bool) (*models.Wallet, error) {
	q := tx
	if lock {
		q = forUpdate(tx)
	}
	var wallet models.Wallet
	if err := q.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("fail to find wallet, err=%w", err)
	}
	return &wallet, nil
}

// CreateWallet opens the actor's wallet with a zero balance.
func (s *Service) CreateWallet(ctx context.Context, actor Actor, card *string) (*models.Wallet, error) {
	const op = "CreateWallet"
	wallet := &models.Wallet{UserID: actor.UserID, Money: decimal.Zero}
	if card != nil && *card != "" {
		if err := ValidateCreditCard(*card); err != nil {
			return nil, err
		}
		wallet.CreditCard = card
	}
	err := s.withLock(ctx, walletLockKey(actor.UserID), func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Wallet{}).Where("user_id = ?", actor.UserID).Count(&count).Error; err != nil {
			return fmt.Errorf("fail to check wallet, err=%w", err)
		}
		if count > 0 {
			return NewValidationError("user", "this user already has a wallet")
		}
		if err := tx.Create(wallet).Error; err != nil {
			return fmt.Errorf("fail to create wallet, err=%w", err)
		}
		return nil
	})
	if err != nil {
		return nil, wrapOp(op, err)
	}
	return wallet, nil
}

// GetWallet returns the wallet of a user.
func (s *Service) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	wallet, err := walletOf(s.db.WithContext(ctx), userID, false)
	return wallet, wrapOp("GetWallet", err)
}

// UpdateWallet replaces the card and adds the money delta atomically.
// A rejected delta leaves the wallet unchanged.
func (s *Service) UpdateWallet(ctx context.Context, actor Actor, patch WalletPatch) (*models.Wallet, error) {
	const op = "UpdateWallet"
	if patch.CreditCard != nil && *patch.CreditCard != "" {
		if err := ValidateCreditCard(*patch.CreditCard); err != nil {
			return nil, err
		}
	}
	var wallet *models.Wallet
	err := s.withLock(ctx, walletLockKey(actor.UserID), func(tx *gorm.DB) error {
		var err error
		wallet, err = walletOf(tx, actor.UserID, true)
		if err != nil {
			return err
		}
		updates := map[string]any{}
		if patch.Money != nil {
			money, err := ApplyDelta(wallet.Money, *patch.Money)
			if err != nil {
				return err
			}
			wallet.Money = money
			updates["money"] = money
		}
		if patch.CreditCard != nil {
			if *patch.CreditCard == "" {
				wallet.CreditCard = nil
				updates["credit_card"] = gorm.Expr("NULL")
			} else {
				wallet.CreditCard = patch.CreditCard
				updates["credit_card"] = *patch.CreditCard
			}
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&models.Wallet{ID: wallet.ID}).Updates(updates).Error; err != nil {
			return fmt.Errorf("fail to update wallet, err=%w", err)
		}
		return nil
	})
	if err != nil {
		return nil, wrapOp(op, err)
	}
	return wallet, nil
}
