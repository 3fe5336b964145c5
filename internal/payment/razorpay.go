package payment

import (
	"context"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type paymentAPI interface {
	Fetch(paymentID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpay is the Gateway backed by Razorpay's Orders and Payments APIs.
type Razorpay struct {
	keyID    string
	secret   string
	orders   orderAPI
	payments paymentAPI
}

func NewRazorpay(keyID, secret string) *Razorpay {
	client := razorpay.NewClient(keyID, secret)
	return newRazorpay(keyID, secret, client.Order, client.Payment)
}

func newRazorpay(keyID, secret string, orders orderAPI, payments paymentAPI) *Razorpay {
	return &Razorpay{keyID: keyID, secret: secret, orders: orders, payments: payments}
}

func (g *Razorpay) KeyID() string { return g.keyID }

func (g *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	body, err := g.orders.Create(map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    notes,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, errors.New("razorpay create order: response has no id")
	}
	order := &Order{ID: id, Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt}
	if amount, ok := body["amount"].(float64); ok {
		order.Amount = int64(amount)
	}
	if currency, ok := body["currency"].(string); ok {
		order.Currency = currency
	}
	return order, nil
}

func (g *Razorpay) VerifyPayment(ctx context.Context, c Confirmation) error {
	if c.OrderID == "" || c.PaymentID == "" || c.Signature == "" {
		return fmt.Errorf("%w: incomplete confirmation", ErrVerification)
	}
	attrs := map[string]interface{}{
		"razorpay_order_id":   c.OrderID,
		"razorpay_payment_id": c.PaymentID,
	}
	if !utils.VerifyPaymentSignature(attrs, c.Signature, g.secret) {
		return fmt.Errorf("%w: bad signature", ErrVerification)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := g.payments.Fetch(c.PaymentID, nil, nil)
	if err != nil {
		return fmt.Errorf("razorpay fetch payment: %w", err)
	}
	if orderID, _ := body["order_id"].(string); orderID != c.OrderID {
		return fmt.Errorf("%w: payment belongs to order %q", ErrVerification, orderID)
	}
	switch status, _ := body["status"].(string); status {
	case "authorized", "captured":
		return nil
	default:
		return fmt.Errorf("%w: payment status %q", ErrVerification, status)
	}
}
