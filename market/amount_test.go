package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "integer", raw: "100", want: "100"},
		{name: "two places", raw: "100.25", want: "100.25"},
		{name: "trailing zeros", raw: "100.2500", want: "100.25"},
		{name: "negative", raw: "-3.5", want: "-3.5"},
		{name: "column maximum", raw: "99999999.99", want: "99999999.99"},
		{name: "spaces", raw: " 7 ", want: "7"},
		{name: "three places", raw: "100.001", wantErr: true},
		{name: "above maximum", raw: "100000000", wantErr: true},
		{name: "below negative maximum", raw: "-100000000", wantErr: true},
		{name: "huge exponent", raw: "1e99999999", wantErr: true},
		{name: "tiny exponent", raw: "1e-99999999", wantErr: true},
		{name: "zero with huge exponent", raw: "0e99999999", wantErr: true},
		{name: "not a number", raw: "ten", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got decimal.Decimal
			var err error
			within(t, time.Second, func() {
				got, err = ParseAmount("price", tt.raw, maxPriceAmount)
			})
			if tt.wantErr {
				_, ok := FieldError(err, "price")
				assert.True(t, ok, "expected field error, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(dec(tt.want)), "got %s", got)
		})
	}
}
