package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParseToMessage(t *testing.T) {
	t.Run("struct", func(t *testing.T) {
		result, err := DefaultParseToMessage(feedMessage{AuctionID: 1, Price: "10.00"})
		require.NoError(t, err)
		assert.Len(t, result, 1)
		assert.NotEmpty(t, result["data"])
	})

	t.Run("empty struct", func(t *testing.T) {
		result, err := DefaultParseToMessage(struct{}{})
		require.NoError(t, err)
		assert.NotEmpty(t, result["data"])
	})

	t.Run("pointer type error", func(t *testing.T) {
		_, err := DefaultParseToMessage(&feedMessage{})
		assert.ErrorIs(t, err, ErrPointerType)

		var nilPtr *feedMessage
		_, err = DefaultParseToMessage(nilPtr)
		assert.ErrorIs(t, err, ErrPointerType)
	})
}

func TestDefaultParseFromMessage(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		input := feedMessage{
			AuctionID: 42,
			Price:     "120.50",
			Bidder:    "alice",
			Time:      time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		}
		message, err := DefaultParseToMessage(input)
		require.NoError(t, err)

		result, err := DefaultParseFromMessage[feedMessage](message)
		require.NoError(t, err)
		assert.Equal(t, input.AuctionID, result.AuctionID)
		assert.Equal(t, input.Price, result.Price)
		assert.Equal(t, input.Bidder, result.Bidder)
		assert.True(t, input.Time.Equal(result.Time))
	})

	t.Run("empty and nil map give zero value", func(t *testing.T) {
		result, err := DefaultParseFromMessage[feedMessage](map[string]any{})
		require.NoError(t, err)
		assert.Zero(t, result)

		result, err = DefaultParseFromMessage[feedMessage](nil)
		require.NoError(t, err)
		assert.Zero(t, result)
	})

	t.Run("pointer type error", func(t *testing.T) {
		_, err := DefaultParseFromMessage[*feedMessage](map[string]any{"data": "x"})
		assert.ErrorIs(t, err, ErrPointerType)
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := DefaultParseFromMessage[feedMessage](map[string]any{"data": "invalid base64"})
		assert.ErrorContains(t, err, "base64 decode error")
	})

	t.Run("missing data field", func(t *testing.T) {
		_, err := DefaultParseFromMessage[feedMessage](map[string]any{"wrong_field": "x"})
		assert.ErrorContains(t, err, "data field not found")
	})

	t.Run("invalid data type", func(t *testing.T) {
		_, err := DefaultParseFromMessage[feedMessage](map[string]any{"data": 123})
		assert.ErrorContains(t, err, "invalid type")
	})
}
