// Package payment talks to the hosted payment gateway: it opens gateway
// orders for checkout and confirms payments before they are recorded.
package payment

import (
	"context"
	"errors"
)

// ErrVerification means a client-reported payment could not be confirmed
// with the gateway.
var ErrVerification = errors.New("payment verification failed")

type OrderRequest struct {
	Amount   int64 // minor currency units
	Currency string
	Receipt  string
	Notes    map[string]string
}

type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

// Confirmation is what the checkout widget hands back after payment.
type Confirmation struct {
	OrderID   string
	PaymentID string
	Signature string
}

type Gateway interface {
	// KeyID is the public key the browser checkout needs.
	KeyID() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	// VerifyPayment returns ErrVerification (possibly wrapped) unless the
	// payment is genuine, belongs to the order and is authorized or captured.
	VerifyPayment(ctx context.Context, c Confirmation) error
}
