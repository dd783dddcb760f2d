// Package payment simulates a payment provider: realistic validation, a
// nondeterministic authorize/refund outcome behind a fixed delay, and the
// durable payment records backing verification and refunds.
//
// The Gateway is the provider boundary. Swapping it for a real integration
// must not change the Processor's contract toward it.
package payment

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/saraelshenawy632/project-grad/internal/apperr"
)

type CardDetails struct {
	CardNumber  string  `json:"cardNumber"`
	ExpiryMonth int     `json:"expiryMonth"`
	ExpiryYear  int     `json:"expiryYear"`
	CVV         string  `json:"cvv"`
	Amount      float64 `json:"amount"`
}

// Config is passed explicitly to NewGateway; there is no process-wide
// gateway state.
type Config struct {
	MaxAmount            float64
	AuthorizeSuccessRate float64
	RefundSuccessRate    float64
	Latency              time.Duration
	SupportedBrands      []CardBrand

	// Rand and Now are overridable so tests can force outcomes. Zero values
	// mean math/rand and time.Now.
	Rand func() float64
	Now  func() time.Time
}

const defaultMaxAmount = 50000

func (c Config) withDefaults() Config {
	if c.MaxAmount == 0 {
		c.MaxAmount = defaultMaxAmount
	}
	if c.AuthorizeSuccessRate == 0 {
		c.AuthorizeSuccessRate = 0.90
	}
	if c.RefundSuccessRate == 0 {
		c.RefundSuccessRate = 0.95
	}
	if c.Latency == 0 {
		c.Latency = time.Second
	}
	if len(c.SupportedBrands) == 0 {
		c.SupportedBrands = []CardBrand{BrandVisa, BrandMastercard, BrandAmex}
	}
	if c.Rand == nil {
		c.Rand = rand.Float64
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

type Gateway struct {
	cfg       Config
	supported map[CardBrand]bool
	logger    *log.Logger
}

func NewGateway(cfg Config, logger *log.Logger) *Gateway {
	cfg = cfg.withDefaults()
	supported := make(map[CardBrand]bool, len(cfg.SupportedBrands))
	for _, b := range cfg.SupportedBrands {
		supported[b] = true
	}
	return &Gateway{cfg: cfg, supported: supported, logger: logger}
}

// Validate checks the card details without touching the simulated provider.
func (g *Gateway) Validate(d CardDetails) error {
	if d.CardNumber == "" || d.ExpiryMonth == 0 || d.ExpiryYear == 0 || d.CVV == "" {
		return apperr.New(apperr.KindInvalidPaymentDetails, "missing required payment details")
	}
	if d.Amount <= 0 || d.Amount > g.cfg.MaxAmount {
		return apperr.New(apperr.KindInvalidAmount, "amount must be between 0 and %.0f", g.cfg.MaxAmount)
	}

	brand := DetectBrand(d.CardNumber)
	if !g.supported[brand] {
		return apperr.New(apperr.KindUnsupportedCard, "card type %s is not supported", brand)
	}

	now := g.cfg.Now()
	if d.ExpiryYear < now.Year() ||
		(d.ExpiryYear == now.Year() && time.Month(d.ExpiryMonth) < now.Month()) {
		return apperr.New(apperr.KindCardExpired, "card has expired")
	}

	return nil
}

type AuthResult struct {
	TransactionID string    `json:"transactionId"`
	Timestamp     time.Time `json:"timestamp"`
}

// Authorize validates the details and runs the simulated provider call.
// It always resolves after the configured latency; there is no cancellation
// path, matching a provider that cannot abort an in-flight authorization.
func (g *Gateway) Authorize(ctx context.Context, orderID string, d CardDetails) (AuthResult, error) {
	if err := g.Validate(d); err != nil {
		return AuthResult{}, err
	}

	if g.logger != nil {
		g.logger.Printf("processing payment for order %s with card %s", orderID, maskCard(d.CardNumber))
	}

	time.Sleep(g.cfg.Latency)

	if g.cfg.Rand() >= g.cfg.AuthorizeSuccessRate {
		return AuthResult{}, apperr.New(apperr.KindPaymentDeclined, "transaction declined by payment provider")
	}

	return AuthResult{
		TransactionID: fmt.Sprintf("TR-%s", uuid.NewString()),
		Timestamp:     g.cfg.Now().UTC(),
	}, nil
}

type RefundResult struct {
	RefundID  string    `json:"refundId"`
	Timestamp time.Time `json:"timestamp"`
}

// Refund runs the simulated provider refund. The outcome is independent of
// the original authorization; amount bookkeeping is the Processor's job.
func (g *Gateway) Refund(ctx context.Context, transactionID string, amount float64) (RefundResult, error) {
	time.Sleep(g.cfg.Latency)

	if g.cfg.Rand() >= g.cfg.RefundSuccessRate {
		return RefundResult{}, apperr.New(apperr.KindRefundDeclined, "refund declined by payment provider")
	}

	return RefundResult{
		RefundID:  fmt.Sprintf("RF-%s", uuid.NewString()),
		Timestamp: g.cfg.Now().UTC(),
	}, nil
}
