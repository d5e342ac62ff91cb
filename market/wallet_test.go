package market

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bidhouse/testutil"
)

func TestValidateCreditCard(t *testing.T) {
	tests := []struct {
		card  string
		valid bool
	}{
		{card: "4111111111111", valid: true},
		{card: "4111111111111111", valid: true},
		{card: "4111111111111111111", valid: true},
		{card: "411111111111", valid: false},
		{card: "41111111111111111111", valid: false},
		{card: "4111-1111-1111-1111", valid: false},
		{card: "41111111111a1111", valid: false},
	}
	for _, tt := range tests {
		err := ValidateCreditCard(tt.card)
		if tt.valid {
			assert.NoError(t, err, tt.card)
			continue
		}
		_, ok := FieldError(err, "credit_card")
		assert.True(t, ok, tt.card)
	}
}

func TestApplyDelta(t *testing.T) {
	got, err := ApplyDelta(dec("50"), "25.5")
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("75.5")))

	got, err = ApplyDelta(dec("50"), "-50")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = ApplyDelta(dec("50"), "-100")
	_, ok := FieldError(err, "money")
	assert.True(t, ok)
	assert.True(t, got.Equal(dec("50")))

	_, err = ApplyDelta(dec("50"), "lots")
	_, ok = FieldError(err, "money")
	assert.True(t, ok)

	for _, delta := range []string{"1e99999999", "-1e99999999", "1e-99999999", "0.001", "10000000000", "9999999950.00"} {
		t.Run(delta, func(t *testing.T) {
			within(t, time.Second, func() {
				got, err := ApplyDelta(dec("50"), delta)
				_, ok := FieldError(err, "money")
				assert.True(t, ok, "expected field error, got %v", err)
				assert.True(t, got.Equal(dec("50")))
			})
		})
	}

	got, err = ApplyDelta(dec("50"), "9999999949.99")
	require.NoError(t, err)
	assert.True(t, got.Equal(maxBalanceAmount))
}

func TestWalletWorkflow(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)
	actor := actorOf(f.buyer)

	_, err := f.svc.GetWallet(ctx, f.buyer.ID)
	assert.ErrorIs(t, err, ErrWalletNotFound)

	_, err = f.svc.CreateWallet(ctx, actor, lo.ToPtr("123"))
	_, ok := FieldError(err, "credit_card")
	assert.True(t, ok)

	wallet, err := f.svc.CreateWallet(ctx, actor, nil)
	require.NoError(t, err)
	assert.True(t, wallet.Money.IsZero())

	_, err = f.svc.CreateWallet(ctx, actor, nil)
	_, ok = FieldError(err, "user")
	assert.True(t, ok)

	wallet, err = f.svc.UpdateWallet(ctx, actor, WalletPatch{Money: lo.ToPtr("50"), CreditCard: lo.ToPtr("4111111111111111")})
	require.NoError(t, err)
	assert.True(t, wallet.Money.Equal(dec("50")))

	_, err = f.svc.UpdateWallet(ctx, actor, WalletPatch{Money: lo.ToPtr("-100")})
	_, ok = FieldError(err, "money")
	assert.True(t, ok)

	stored, err := f.svc.GetWallet(ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.True(t, stored.Money.Equal(dec("50")))
	require.NotNil(t, stored.CreditCard)
	assert.Equal(t, "4111111111111111", *stored.CreditCard)

	wallet, err = f.svc.UpdateWallet(ctx, actor, WalletPatch{CreditCard: lo.ToPtr("")})
	require.NoError(t, err)
	assert.Nil(t, wallet.CreditCard)
	stored, err = f.svc.GetWallet(ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CreditCard)

	_, err = f.svc.UpdateWallet(ctx, actorOf(f.seller), WalletPatch{Money: lo.ToPtr("1")})
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestWalletConcurrentWithdrawals(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)
	testutil.CreateWallet(t, f.db, f.buyer.ID, "100")

	done := make(chan error, 5)
	for i := 0; i < 5; i++ {
		go func() {
			_, err := f.svc.UpdateWallet(ctx, actorOf(f.buyer), WalletPatch{Money: lo.ToPtr("-30")})
			done <- err
		}()
	}
	failures := 0
	for i := 0; i < 5; i++ {
		if err := <-done; err != nil {
			failures++
		}
	}
	assert.Equal(t, 2, failures)

	wallet, err := f.svc.GetWallet(ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.True(t, wallet.Money.Equal(dec("10")))
}
