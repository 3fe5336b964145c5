package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alextreichler/shop2host/internal/config"
	"github.com/alextreichler/shop2host/internal/domains"
	"github.com/alextreichler/shop2host/internal/handlers"
	"github.com/alextreichler/shop2host/internal/mailer"
	"github.com/alextreichler/shop2host/internal/media"
	"github.com/alextreichler/shop2host/internal/oauth"
	"github.com/alextreichler/shop2host/internal/payment"
	"github.com/alextreichler/shop2host/internal/session"
	"github.com/alextreichler/shop2host/internal/store"
	"github.com/alextreichler/shop2host/web"
	"github.com/gorilla/csrf"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var logHandler slog.Handler = slog.NewTextHandler(os.Stdout, handlerOpts)
	if cfg.LogFormat == "json" {
		logHandler = slog.NewJSONHandler(os.Stdout, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))

	plans, err := config.LoadPlans(cfg.PlansFile)
	if err != nil {
		slog.Error("Failed to load plans", "error", err)
		os.Exit(1)
	}

	// 2. Init DB
	db, err := store.NewStore(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// 3. Session Setup
	scheduler := cron.New()
	var backend session.Backend
	switch cfg.SessionBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		if err := client.Ping(context.Background()).Err(); err != nil {
			slog.Error("Failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		backend = session.NewRedisBackend(client)
	default:
		backend = session.NewSQLBackend(db)
		// Redis expires its own keys; the SQL table needs sweeping.
		if _, err := session.SchedulePurge(scheduler, db, cfg.SessionPurgeInterval); err != nil {
			slog.Error("Failed to schedule session purge", "error", err)
			os.Exit(1)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	userSessions := newSessionStore(cfg, backend, cfg.SessionKey)
	adminSessions := newSessionStore(cfg, backend, cfg.AdminSessionKey)

	// 4. Outside services
	var mail mailer.Sender = mailer.LogSender{}
	if cfg.MailHost != "" {
		mail, err = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.MailHost,
			Port:     cfg.MailPort,
			Username: cfg.MailUser,
			Password: cfg.MailPass,
			From:     cfg.MailFrom,
		})
		if err != nil {
			slog.Error("Failed to configure mailer", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("MAIL_HOST not set. Emails will only be logged.")
	}

	if cfg.RazorpayKeyID == "" || cfg.RazorpaySecret == "" {
		slog.Warn("Razorpay keys not set. Checkout will fail until RAZORPAY_ID_KEY and RAZORPAY_SECRET_KEY are configured.")
	}
	gateway := payment.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpaySecret)

	var storage media.Storage
	switch cfg.MediaBackend {
	case "s3":
		storage, err = media.NewS3Storage(context.Background(), media.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	default:
		storage, err = media.NewLocalStorage(cfg.UploadDir)
	}
	if err != nil {
		slog.Error("Failed to initialize media storage", "backend", cfg.MediaBackend, "error", err)
		os.Exit(1)
	}

	var google oauth.Provider
	if cfg.GoogleClientID != "" {
		google = oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.BaseURL+"/admin/auth/google/callback")
	}

	// 5. Init Templates
	templates := handlers.NewTemplateCache()
	if err := templates.LoadFS(web.Templates()); err != nil {
		slog.Error("Failed to load templates", "error", err)
		os.Exit(1)
	}

	// 6. Setup Handlers
	srv := &handlers.Server{
		Visitors: &handlers.Visitors{Store: db, SessionStore: userSessions},
		Home:     &handlers.HomeHandler{Store: db, Templates: templates, Plans: plans},
		Auth: &handlers.AuthHandler{
			Store:     db,
			Templates: templates,
			Mailer:    mail,
			BaseURL:   cfg.BaseURL,
		},
		Wizard: &handlers.WizardHandler{
			Templates: templates,
			Plans:     plans,
			Domains:   domains.NewChecker(),
			Media:     storage,
		},
		Orders: &handlers.OrderHandler{
			Store:     db,
			Templates: templates,
			Plans:     plans,
			Gateway:   gateway,
			Currency:  cfg.Currency,
		},
		Support: &handlers.SupportHandler{Store: db, Templates: templates},
		Admin: &handlers.AdminHandler{
			Store:        db,
			SessionStore: adminSessions,
			Templates:    templates,
			Mailer:       mail,
			BaseURL:      cfg.BaseURL,
			OAuth:        google,
			StateKey:     cfg.AdminSessionKey,
			IsAdminEmail: cfg.IsAdminEmail,
		},
		RateLimiter: handlers.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
		StaticDir:   cfg.StaticDir,
	}

	// 7. CSRF
	origins := []string{"localhost:" + cfg.Port, "127.0.0.1:" + cfg.Port}
	if u, err := url.Parse(cfg.BaseURL); err == nil && u.Host != "" {
		origins = append(origins, u.Host)
	}
	protect := csrf.Protect(
		cfg.CSRFKey,
		csrf.Secure(cfg.CookieSecure),
		csrf.Path("/"),
		csrf.TrustedOrigins(origins),
	)
	handler := protect(srv.Routes())
	if !cfg.CookieSecure {
		// Local development runs over plain HTTP.
		secured := handler
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secured.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}

	// 8. Start Server with Graceful Shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("Server starting", "port", cfg.Port, "db", cfg.DBDriver, "sessions", cfg.SessionBackend, "media", cfg.MediaBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	<-stop

	slog.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited gracefully.")
}

func newSessionStore(cfg *config.Config, backend session.Backend, key []byte) *session.Store {
	s := session.NewStore(backend, cfg.SessionTTL, key)
	s.Options.Secure = cfg.CookieSecure
	if cfg.CookieDomain != "" {
		s.Options.Domain = cfg.CookieDomain
	}
	return s
}
