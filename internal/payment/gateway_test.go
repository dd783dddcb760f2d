package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saraelshenawy632/project-grad/internal/apperr"
)

func testGateway(rand func() float64) *Gateway {
	return NewGateway(Config{
		MaxAmount: 50000,
		Latency:   time.Millisecond,
		Rand:      rand,
		Now:       func() time.Time { return time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC) },
	}, nil)
}

func validDetails() CardDetails {
	return CardDetails{
		CardNumber:  "4111111111111111",
		ExpiryMonth: 12,
		ExpiryYear:  2027,
		CVV:         "123",
		Amount:      100,
	}
}

func TestDetectBrand(t *testing.T) {
	tests := map[string]struct {
		number string
		want   CardBrand
	}{
		"visa":                  {"4111111111111111", BrandVisa},
		"mastercard 55 prefix":  {"5500000000000004", BrandMastercard},
		"mastercard 51 prefix":  {"5100000000000008", BrandMastercard},
		"amex 34 prefix":        {"340000000000009", BrandAmex},
		"amex 37 prefix":        {"370000000000002", BrandAmex},
		"unknown prefix":        {"1234567890123456", BrandUnknown},
		"56 is not mastercard":  {"5600000000000003", BrandUnknown},
		"spaces and hyphens ok": {"4111 1111-1111 1111", BrandVisa},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectBrand(tt.number))
		})
	}
}

func TestGatewayValidate(t *testing.T) {
	g := testGateway(func() float64 { return 0 })

	tests := map[string]struct {
		mutate   func(*CardDetails)
		wantKind apperr.Kind
	}{
		"valid":            {func(d *CardDetails) {}, ""},
		"missing number":   {func(d *CardDetails) { d.CardNumber = "" }, apperr.KindInvalidPaymentDetails},
		"missing month":    {func(d *CardDetails) { d.ExpiryMonth = 0 }, apperr.KindInvalidPaymentDetails},
		"missing year":     {func(d *CardDetails) { d.ExpiryYear = 0 }, apperr.KindInvalidPaymentDetails},
		"missing cvv":      {func(d *CardDetails) { d.CVV = "" }, apperr.KindInvalidPaymentDetails},
		"zero amount":      {func(d *CardDetails) { d.Amount = 0 }, apperr.KindInvalidAmount},
		"negative amount":  {func(d *CardDetails) { d.Amount = -5 }, apperr.KindInvalidAmount},
		"just over max":    {func(d *CardDetails) { d.Amount = 50000.01 }, apperr.KindInvalidAmount},
		"exactly max ok":   {func(d *CardDetails) { d.Amount = 50000 }, ""},
		"unsupported card": {func(d *CardDetails) { d.CardNumber = "1234567890123456" }, apperr.KindUnsupportedCard},
		"expired year":     {func(d *CardDetails) { d.ExpiryYear = 2025; d.ExpiryMonth = 12 }, apperr.KindCardExpired},
		"expired month":    {func(d *CardDetails) { d.ExpiryYear = 2026; d.ExpiryMonth = 5 }, apperr.KindCardExpired},
		"current month ok": {func(d *CardDetails) { d.ExpiryYear = 2026; d.ExpiryMonth = 6 }, ""},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			d := validDetails()
			tt.mutate(&d)

			err := g.Validate(d)
			if tt.wantKind == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))
		})
	}
}

func TestGatewayAuthorize(t *testing.T) {
	ctx := context.Background()

	t.Run("success returns unique transaction ids", func(t *testing.T) {
		g := testGateway(func() float64 { return 0 })

		seen := make(map[string]bool)
		for i := 0; i < 20; i++ {
			res, err := g.Authorize(ctx, "order-1", validDetails())
			require.NoError(t, err)
			require.NotEmpty(t, res.TransactionID)
			require.False(t, seen[res.TransactionID], "transaction id reused: %s", res.TransactionID)
			seen[res.TransactionID] = true
		}
	})

	t.Run("decline", func(t *testing.T) {
		g := testGateway(func() float64 { return 0.99 })

		_, err := g.Authorize(ctx, "order-1", validDetails())
		require.Error(t, err)
		assert.Equal(t, apperr.KindPaymentDeclined, apperr.KindOf(err))
	})

	t.Run("validation failure propagates before the provider call", func(t *testing.T) {
		g := testGateway(func() float64 { t.Fatal("provider reached"); return 0 })

		d := validDetails()
		d.Amount = 0
		_, err := g.Authorize(ctx, "order-1", d)
		assert.Equal(t, apperr.KindInvalidAmount, apperr.KindOf(err))
	})
}

func TestGatewayRefund(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		g := testGateway(func() float64 { return 0 })
		res, err := g.Refund(ctx, "TR-1", 10)
		require.NoError(t, err)
		assert.NotEmpty(t, res.RefundID)
	})

	t.Run("decline", func(t *testing.T) {
		g := testGateway(func() float64 { return 0.99 })
		_, err := g.Refund(ctx, "TR-1", 10)
		assert.Equal(t, apperr.KindRefundDeclined, apperr.KindOf(err))
	})
}

func TestMaskCard(t *testing.T) {
	assert.Equal(t, "************1111", maskCard("4111111111111111"))
	assert.Equal(t, "**** ****-**** 1111", maskCard("4111 1111-1111 1111"))
}
