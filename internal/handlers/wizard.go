package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alextreichler/shop2host/internal/config"
	"github.com/alextreichler/shop2host/internal/domains"
	"github.com/alextreichler/shop2host/internal/media"
	"github.com/alextreichler/shop2host/internal/wizard"
)

const (
	maxUploadSize = 10 << 20 // 10MB

	msgInvalidDomain   = "Please enter a valid domain name."
	msgDomainSaved     = "Domain saved successfully!"
	msgExistingDomain  = "Please enter your existing domain name."
	msgMailboxRequired = "Please enter a name for your mailbox."
	msgBadLogo         = "Unsupported image. Only PNG, JPG and JPEG files are allowed."
)

// DomainChecker reports whether a fully qualified domain is unregistered.
type DomainChecker interface {
	Available(ctx context.Context, domain string) bool
}

type WizardHandler struct {
	Templates *TemplateCache
	Plans     *config.Catalog
	Domains   DomainChecker
	Media     media.Storage
}

// Sample content for the store preview when the user skipped a field.
var demoStore = wizard.StoreDetails{
	Name:     "My Awesome Store",
	Logo:     "/static/images/sample-logo.svg",
	Address:  "221B Baker Street, London",
	Email:    "hello@example.com",
	Phone:    "+91 98765 43210",
	WhatsApp: "+91 98765 43210",
}

// save persists the visitor and reports failure as a 500.
func save(w http.ResponseWriter, r *http.Request, v *Visitor) bool {
	if err := v.Save(w, r); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save session", "error", err)
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *WizardHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, v *Visitor, extra map[string]interface{}) {
	data := pageData(r, v, extra)
	data["Wizard"] = v.Wizard
	if p, ok := h.Plans.Get(v.Wizard.Plan); ok {
		data["Plan"] = p
	}
	h.Templates.Render(w, r, status, name, data)
}

func (h *WizardHandler) CreateStoreForm(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	// The amount always comes from the catalog; the query value is only a
	// hint for the pricing page.
	if p, ok := h.Plans.Get(r.URL.Query().Get("plan")); ok {
		v.Wizard.SelectPlan(p.Name, p.Price, p.DomainSuffix)
	} else if !v.Wizard.HasPlan() {
		http.Redirect(w, r, "/pricing-plan", http.StatusSeeOther)
		return
	}
	if !save(w, r, v) {
		return
	}
	h.render(w, r, http.StatusOK, "create-store.html", v, nil)
}

func (h *WizardHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	step := wizard.ProductInfo{
		ProductType:  strings.TrimSpace(r.FormValue("productType")),
		Experience:   strings.TrimSpace(r.FormValue("experience")),
		ProductCount: strings.TrimSpace(r.FormValue("productCount")),
	}
	if err := v.Wizard.Apply(step); err != nil {
		h.render(w, r, http.StatusBadRequest, "create-store.html", v, map[string]interface{}{
			"Error": msgAllFieldsRequired,
			"Form":  step,
		})
		return
	}
	if !save(w, r, v) {
		return
	}
	http.Redirect(w, r, "/store-details", http.StatusSeeOther)
}

func (h *WizardHandler) StoreDetailsForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "store-details.html", visitorFrom(r), nil)
}

func (h *WizardHandler) StoreDetails(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.render(w, r, http.StatusBadRequest, "store-details.html", v, map[string]interface{}{
			"Error": "File too large. Max 10MB.",
		})
		return
	}

	step := wizard.StoreDetails{
		UserID:   v.UserID,
		Name:     strings.TrimSpace(r.FormValue("storeName")),
		Address:  strings.TrimSpace(r.FormValue("address")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Phone:    strings.TrimSpace(r.FormValue("phone")),
		WhatsApp: strings.TrimSpace(r.FormValue("whatsapp")),
	}
	fail := func(status int, msg string) {
		h.render(w, r, status, "store-details.html", v, map[string]interface{}{"Error": msg, "Form": step})
	}
	if err := step.Validate(); err != nil {
		fail(http.StatusBadRequest, msgAllFieldsRequired)
		return
	}

	if v.Wizard.Details != nil {
		step.Logo = v.Wizard.Details.Logo
	}
	file, header, err := r.FormFile("logo")
	if err == nil {
		defer file.Close()
		url, err := media.SaveLogo(r.Context(), h.Media, file, header.Filename)
		if err != nil {
			if errors.Is(err, media.ErrInvalidImage) {
				fail(http.StatusBadRequest, msgBadLogo)
				return
			}
			slog.ErrorContext(r.Context(), "Failed to store logo", "error", err)
			fail(http.StatusInternalServerError, "Error saving logo. Please try again.")
			return
		}
		step.Logo = url
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		fail(http.StatusBadRequest, msgBadLogo)
		return
	}

	if err := v.Wizard.Apply(step); err != nil {
		fail(http.StatusBadRequest, msgAllFieldsRequired)
		return
	}
	if !save(w, r, v) {
		return
	}
	http.Redirect(w, r, "/find-domain", http.StatusSeeOther)
}

func (h *WizardHandler) FindDomainForm(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	h.render(w, r, http.StatusOK, "find-domain.html", v, map[string]interface{}{
		"Suffix": h.Plans.DomainSuffix(v.Wizard.Plan),
	})
}

func (h *WizardHandler) FindDomain(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	in, err := readInput(r)
	if err != nil || field(in, "domainName") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": msgInvalidDomain})
		return
	}
	domain := domains.FullDomain(field(in, "domainName"), h.Plans.DomainSuffix(v.Wizard.Plan))
	available := h.Domains.Available(r.Context(), domain)
	writeJSON(w, http.StatusOK, map[string]interface{}{"isAvailable": available, "domain": domain})
}

func (h *WizardHandler) SaveDomain(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	in, err := readInput(r)
	if err != nil || field(in, "domainName") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": msgInvalidDomain})
		return
	}
	domain := domains.FullDomain(field(in, "domainName"), h.Plans.DomainSuffix(v.Wizard.Plan))
	if err := v.Wizard.Apply(wizard.Domain{Name: domain}); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": msgInvalidDomain})
		return
	}
	if err := v.Save(w, r); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Something went wrong!"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": msgDomainSaved, "domain": domain})
}

func (h *WizardHandler) ExistingDomain(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	name := strings.TrimSpace(r.FormValue("existingDomainName"))
	if err := v.Wizard.Apply(wizard.Domain{Name: name, Existing: true}); err != nil {
		h.render(w, r, http.StatusBadRequest, "find-domain.html", v, map[string]interface{}{
			"Suffix": h.Plans.DomainSuffix(v.Wizard.Plan),
			"Error":  msgExistingDomain,
		})
		return
	}
	if !save(w, r, v) {
		return
	}
	http.Redirect(w, r, "/business-email", http.StatusSeeOther)
}

func (h *WizardHandler) businessEmailData(v *Visitor) map[string]interface{} {
	domain := v.Wizard.SelectedDomain()
	if domain == "" {
		domain = wizard.FallbackEmailDomain
	}
	return map[string]interface{}{"Domain": domain}
}

func (h *WizardHandler) BusinessEmailForm(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	h.render(w, r, http.StatusOK, "business-email.html", v, h.businessEmailData(v))
}

func (h *WizardHandler) BusinessEmail(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	mailbox := strings.TrimSpace(r.FormValue("subdomain"))
	if err := v.Wizard.Apply(wizard.BusinessEmail{Mailbox: mailbox}); err != nil {
		data := h.businessEmailData(v)
		data["Error"] = msgMailboxRequired
		h.render(w, r, http.StatusBadRequest, "business-email.html", v, data)
		return
	}
	if !save(w, r, v) {
		return
	}
	http.Redirect(w, r, "/ecommerce-demo", http.StatusSeeOther)
}

func (h *WizardHandler) EcommerceDemo(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	preview := demoStore
	if d := v.Wizard.Details; d != nil {
		preview = wizard.StoreDetails{
			Name:     orDefault(d.Name, demoStore.Name),
			Logo:     orDefault(d.Logo, demoStore.Logo),
			Address:  orDefault(d.Address, demoStore.Address),
			Email:    orDefault(d.Email, demoStore.Email),
			Phone:    orDefault(d.Phone, demoStore.Phone),
			WhatsApp: orDefault(d.WhatsApp, demoStore.WhatsApp),
		}
	}
	h.render(w, r, http.StatusOK, "ecommerce-demo.html", v, map[string]interface{}{"Store": preview})
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
