package handlers

import (
	"net/http"

	"github.com/alextreichler/shop2host/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server bundles every handler group behind one router.
type Server struct {
	Visitors    *Visitors
	Home        *HomeHandler
	Auth        *AuthHandler
	Wizard      *WizardHandler
	Orders      *OrderHandler
	Support     *SupportHandler
	Admin       *AdminHandler
	RateLimiter *RateLimiter
	StaticDir   string
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(SecurityHeadersMiddleware)

	r.Handle("/metrics", metrics.Handler())
	if s.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(s.StaticDir))))
	}

	r.Mount("/admin", s.Admin.Routes(s.RateLimiter))

	r.Group(func(r chi.Router) {
		r.Use(s.Visitors.Middleware)

		// Public pages
		r.Get("/", s.Home.Page("home.html"))
		r.Get("/lite-plan", s.Home.PlanPage("lite"))
		r.Get("/hero-plan", s.Home.PlanPage("hero"))
		r.Get("/pro-plan", s.Home.PlanPage("pro"))
		r.Get("/pricing-plan", s.Home.Page("pricing-plan.html"))
		r.Get("/faq", s.Home.Page("faq.html"))
		r.Get("/contact", s.Home.Page("contact.html"))
		r.Get("/about", s.Home.Page("about.html"))
		r.Get("/terms", s.Home.Page("terms.html"))
		r.Get("/privacy-policy", s.Home.Page("privacy-policy.html"))

		r.Get("/verify-email", s.Auth.VerifyEmail)
		r.Get("/signout", s.Auth.Signout)

		r.Group(func(r chi.Router) {
			r.Use(s.Visitors.RedirectIfLoggedIn)
			r.Get("/signup", s.Auth.SignupForm)
			r.With(s.RateLimiter.Middleware).Post("/signup", s.Auth.Signup)
			r.Get("/login", s.Auth.LoginForm)
			r.With(s.RateLimiter.Middleware).Post("/login", s.Auth.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.Visitors.RequireUser)
			r.Get("/dashboard", s.Home.Dashboard)
			r.Get("/store-management", s.Home.StoreManagement)

			r.Get("/create-store", s.Wizard.CreateStoreForm)
			r.Post("/create-store", s.Wizard.CreateStore)
			r.Get("/store-details", s.Wizard.StoreDetailsForm)
			r.Post("/store-details", s.Wizard.StoreDetails)
			r.Get("/find-domain", s.Wizard.FindDomainForm)
			r.Post("/find-domain", s.Wizard.FindDomain)
			r.Post("/save-domain", s.Wizard.SaveDomain)
			r.Post("/existing-domain", s.Wizard.ExistingDomain)
			r.Get("/business-email", s.Wizard.BusinessEmailForm)
			r.Post("/business-email", s.Wizard.BusinessEmail)
			r.Get("/ecommerce-demo", s.Wizard.EcommerceDemo)

			r.Get("/billing", s.Orders.BillingForm)
			r.Post("/billing", s.Orders.Billing)
			r.With(s.RateLimiter.Middleware).Post("/create-order", s.Orders.CreateOrder)
			r.Post("/payment-success", s.Orders.PaymentSuccess)

			r.Get("/open-ticket", s.Support.OpenTicketForm)
			r.With(s.RateLimiter.Middleware).Post("/open-ticket", s.Support.OpenTicket)
			r.Get("/support", s.Support.Support)
		})
	})
	return r
}
