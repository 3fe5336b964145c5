package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alextreichler/shop2host/internal/config"
	"github.com/alextreichler/shop2host/internal/metrics"
	"github.com/alextreichler/shop2host/internal/models"
	"github.com/alextreichler/shop2host/internal/payment"
	"github.com/alextreichler/shop2host/internal/store"
	"github.com/alextreichler/shop2host/internal/wizard"
)

const (
	msgBillingSaved    = "Billing details saved successfully."
	msgStepsIncomplete = "Please complete all steps before checkout."
	msgOrderCreated    = "Order Created"
	msgSomethingWrong  = "Something went wrong!"
)

type OrderHandler struct {
	Store     *store.Store
	Templates *TemplateCache
	Plans     *config.Catalog
	Gateway   payment.Gateway
	Currency  string
}

func (h *OrderHandler) BillingForm(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	data := pageData(r, v, map[string]interface{}{
		"Wizard":   v.Wizard,
		"KeyID":    h.Gateway.KeyID(),
		"Currency": h.Currency,
	})
	if p, ok := h.Plans.Get(v.Wizard.Plan); ok {
		data["Plan"] = p
	}
	h.Templates.Render(w, r, http.StatusOK, "billing.html", data)
}

func (h *OrderHandler) Billing(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	in, err := readInput(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "msg": msgInvalidRequest})
		return
	}
	step := wizard.Billing{
		Name:    field(in, "name"),
		Email:   field(in, "email"),
		Phone:   field(in, "phone"),
		Address: field(in, "address"),
		State:   field(in, "state"),
		Country: field(in, "country"),
		PinCode: field(in, "pin_code"),
	}
	if err := v.Wizard.Apply(step); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "msg": msgAllFieldsRequired})
		return
	}
	if err := v.Save(w, r); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "msg": msgSomethingWrong})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "msg": msgBillingSaved})
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	c, err := v.Wizard.Checkout()
	if err != nil {
		slog.InfoContext(r.Context(), "Checkout attempted early", "user_id", v.UserID, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "msg": msgStepsIncomplete})
		return
	}

	req := payment.OrderRequest{
		Amount:   c.Amount * 100,
		Currency: h.Currency,
		Receipt:  fmt.Sprintf("receipt#%d", time.Now().UnixMilli()),
		Notes: map[string]string{
			"productType":  c.Product.ProductType,
			"experience":   c.Product.Experience,
			"productCount": c.Product.ProductCount,
			"userId":       strconv.FormatInt(v.UserID, 10),
			"storeName":    c.Details.Name,
			"address":      c.Details.Address,
			"email":        c.Details.Email,
			"phone":        c.Details.Phone,
			"whatsapp":     c.Details.WhatsApp,
		},
	}
	order, err := h.Gateway.CreateOrder(r.Context(), req)
	metrics.RecordGatewayOrder(err)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create gateway order", "user_id", v.UserID, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "msg": msgSomethingWrong})
		return
	}

	v.Wizard.GatewayOrderID = order.ID
	if err := v.Save(w, r); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "msg": msgSomethingWrong})
		return
	}

	title := c.Plan
	if p, ok := h.Plans.Get(c.Plan); ok {
		title = p.Title
	}
	slog.InfoContext(r.Context(), "Gateway order created", "user_id", v.UserID, "order_id", order.ID, "amount", order.Amount)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"msg":          msgOrderCreated,
		"order_id":     order.ID,
		"amount":       order.Amount,
		"currency":     order.Currency,
		"key_id":       h.Gateway.KeyID(),
		"product_name": title,
		"description":  "Shop2Host " + title + " plan for " + c.Details.Name,
		"name":         c.Billing.Name,
		"contact":      c.Billing.Phone,
		"email":        c.Billing.Email,
	})
}

func (h *OrderHandler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	reject := func(status int) {
		writeJSON(w, status, map[string]interface{}{"success": false})
	}

	in, err := readInput(r)
	if err != nil {
		reject(http.StatusBadRequest)
		return
	}
	conf := payment.Confirmation{
		OrderID:   field(in, "orderId"),
		PaymentID: field(in, "paymentId"),
		Signature: field(in, "signature"),
	}
	if conf.OrderID == "" || conf.PaymentID == "" {
		reject(http.StatusBadRequest)
		return
	}
	c, err := v.Wizard.Checkout()
	if err != nil {
		slog.InfoContext(r.Context(), "Payment for incomplete wizard", "user_id", v.UserID, "error", err)
		reject(http.StatusBadRequest)
		return
	}
	if conf.OrderID != v.Wizard.GatewayOrderID {
		slog.WarnContext(r.Context(), "Payment for unknown gateway order", "user_id", v.UserID, "order_id", conf.OrderID)
		metrics.RecordPayment("unknown_order")
		reject(http.StatusBadRequest)
		return
	}
	if err := h.Gateway.VerifyPayment(r.Context(), conf); err != nil {
		if errors.Is(err, payment.ErrVerification) {
			slog.WarnContext(r.Context(), "Payment verification failed", "order_id", conf.OrderID, "error", err)
			metrics.RecordPayment("rejected")
		} else {
			slog.ErrorContext(r.Context(), "Could not verify payment", "order_id", conf.OrderID, "error", err)
			metrics.RecordPayment("error")
		}
		reject(http.StatusBadRequest)
		return
	}

	st := &models.Store{
		UserID:   v.UserID,
		Name:     c.Details.Name,
		Logo:     c.Details.Logo,
		Address:  c.Details.Address,
		Email:    c.Details.Email,
		Phone:    c.Details.Phone,
		WhatsApp: c.Details.WhatsApp,
	}
	order := &models.Order{
		OrderID:       conf.OrderID,
		PaymentID:     conf.PaymentID,
		UserID:        v.UserID,
		Name:          c.Billing.Name,
		Email:         c.Billing.Email,
		Phone:         c.Billing.Phone,
		Address:       c.Billing.Address,
		State:         c.Billing.State,
		Country:       c.Billing.Country,
		PinCode:       c.Billing.PinCode,
		DomainName:    c.DomainName,
		BusinessEmail: c.BusinessEmail,
		ProductType:   c.Product.ProductType,
		Experience:    c.Product.Experience,
		ProductCount:  c.Product.ProductCount,
		Plan:          c.Plan,
		Amount:        c.Amount,
	}
	res, err := h.Store.FinalizeOrder(r.Context(), st, order)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			slog.WarnContext(r.Context(), "Gateway order already recorded", "order_id", conf.OrderID)
			metrics.RecordPayment("duplicate")
			reject(http.StatusBadRequest)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to record order", "order_id", conf.OrderID, "error", err)
		metrics.RecordPayment("error")
		reject(http.StatusInternalServerError)
		return
	}
	metrics.RecordPayment("ok")
	metrics.RecordStoreFinalized(res.Created)

	v.Wizard = wizard.Progress{}
	if err := v.Save(w, r); err != nil {
		slog.ErrorContext(r.Context(), "Failed to clear wizard", "error", err)
	}
	slog.InfoContext(r.Context(), "Order recorded",
		"user_id", v.UserID, "order_id", conf.OrderID, "store_id", res.StoreID, "store_created", res.Created)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
