// Package wizard models the store-creation flow as a typed record of the
// steps a user has completed so far.
package wizard

import (
	"encoding/gob"
	"errors"
	"fmt"
	"strings"
)

func init() {
	gob.Register(Progress{})
}

// FallbackEmailDomain hosts business mailboxes for users without a domain.
const FallbackEmailDomain = "shop2host.com"

// ErrIncomplete is returned by Checkout when a required step is missing.
var ErrIncomplete = errors.New("wizard incomplete")

// MissingFieldsError lists form fields that were left empty.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Step is one increment of the flow. The set of steps is closed.
type Step interface {
	Validate() error
	step()
}

type ProductInfo struct {
	ProductType  string
	Experience   string
	ProductCount string
}

type StoreDetails struct {
	UserID   int64
	Name     string
	Logo     string
	Address  string
	Email    string
	Phone    string
	WhatsApp string
}

// Domain is either a freshly checked name (with the plan suffix applied)
// or one the user already owns.
type Domain struct {
	Name     string
	Existing bool
}

// BusinessEmail is the mailbox name. The address is built on whatever
// domain is selected at checkout.
type BusinessEmail struct {
	Mailbox string
}

type Billing struct {
	Name    string
	Email   string
	Phone   string
	Address string
	State   string
	Country string
	PinCode string
}

func (ProductInfo) step()   {}
func (StoreDetails) step()  {}
func (Domain) step()        {}
func (BusinessEmail) step() {}
func (Billing) step()       {}

func (p ProductInfo) Validate() error {
	return required(
		"productType", p.ProductType,
		"experience", p.Experience,
		"productCount", p.ProductCount,
	)
}

// Validate ignores Logo and UserID; the logo upload is optional.
func (d StoreDetails) Validate() error {
	return required(
		"storeName", d.Name,
		"address", d.Address,
		"email", d.Email,
		"phone", d.Phone,
		"whatsapp", d.WhatsApp,
	)
}

func (d Domain) Validate() error {
	return required("domainName", d.Name)
}

func (e BusinessEmail) Validate() error {
	return required("subdomain", e.Mailbox)
}

func (b Billing) Validate() error {
	return required(
		"name", b.Name,
		"email", b.Email,
		"phone", b.Phone,
		"address", b.Address,
		"state", b.State,
		"country", b.Country,
		"pin_code", b.PinCode,
	)
}

// required takes name/value pairs.
func required(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// Progress is kept in the user's session between requests.
type Progress struct {
	Plan    string
	Amount  int64 // whole currency units, from the plan catalog
	Product *ProductInfo
	Details *StoreDetails
	Domain  *Domain
	Email   *BusinessEmail
	Billing *Billing

	// GatewayOrderID is the last payment-gateway order created for this
	// progress. Only that order can be finalized.
	GatewayOrderID string
}

// SelectPlan starts (or restarts) the flow on a plan. Previously entered
// steps are kept so the user can switch plans without retyping, except a
// registered domain (and its mailbox) that lacks the plan's suffix.
func (p *Progress) SelectPlan(name string, amount int64, suffix string) {
	if p.Plan != name || p.Amount != amount {
		p.GatewayOrderID = ""
	}
	if p.Domain != nil && !p.Domain.Existing && !strings.HasSuffix(p.Domain.Name, suffix) {
		p.Domain = nil
		p.Email = nil
		p.GatewayOrderID = ""
	}
	p.Plan = name
	p.Amount = amount
}

func (p *Progress) HasPlan() bool {
	return p.Plan != "" && p.Amount > 0
}

// Apply validates s and records it.
func (p *Progress) Apply(s Step) error {
	if err := s.Validate(); err != nil {
		return err
	}
	switch v := s.(type) {
	case ProductInfo:
		p.Product = &v
	case StoreDetails:
		p.Details = &v
	case Domain:
		p.Domain = &v
	case BusinessEmail:
		p.Email = &v
	case Billing:
		p.Billing = &v
	default:
		return fmt.Errorf("unknown wizard step %T", s)
	}
	// Anything that changes what would be paid for invalidates the pending
	// gateway order.
	p.GatewayOrderID = ""
	return nil
}

// Missing names the required steps not yet completed, in flow order.
func (p *Progress) Missing() []string {
	var out []string
	if !p.HasPlan() {
		out = append(out, "plan")
	}
	if p.Product == nil {
		out = append(out, "productInfo")
	}
	if p.Details == nil {
		out = append(out, "details")
	}
	if p.Billing == nil {
		out = append(out, "billingDetails")
	}
	return out
}

// SelectedDomain is the chosen domain name, or "" when the step was skipped.
func (p *Progress) SelectedDomain() string {
	if p.Domain == nil {
		return ""
	}
	return p.Domain.Name
}

// Complete is a fully specified checkout.
type Complete struct {
	Plan          string
	Amount        int64
	Product       ProductInfo
	Details       StoreDetails
	Billing       Billing
	DomainName    string
	BusinessEmail string
}

// Checkout returns the accumulated steps once every required one is present.
// Domain and business email are optional and come back empty when skipped.
func (p *Progress) Checkout() (*Complete, error) {
	if missing := p.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	c := &Complete{
		Plan:       p.Plan,
		Amount:     p.Amount,
		Product:    *p.Product,
		Details:    *p.Details,
		Billing:    *p.Billing,
		DomainName: p.SelectedDomain(),
	}
	if p.Email != nil {
		c.BusinessEmail = BusinessAddress(p.Email.Mailbox, c.DomainName)
	}
	return c, nil
}

// BusinessAddress builds the mailbox address for a subdomain on the chosen
// domain, falling back to the shared hosting domain.
func BusinessAddress(subdomain, domain string) string {
	subdomain = strings.TrimSpace(subdomain)
	domain = strings.TrimSpace(domain)
	if domain == "" {
		domain = FallbackEmailDomain
	}
	return subdomain + "@" + domain
}
