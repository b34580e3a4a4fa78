package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/auth"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/config"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/eventbus"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/logging"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/metrics"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/middleware"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/prooftoken"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/proxy"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/supabase"
	"github.com/achrafbusiness-collab/avo-logistics-sub002/internal/tenant"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	logger := logging.New("gateway")

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	m := metrics.New()

	// Backend collaborators are wired when the configuration allows it.
	// Handlers verify their own required settings first, so a partially
	// configured process still answers with the fatal-configuration error
	// instead of crashing.
	var store *supabase.Client
	if cfg.SupabaseURL != "" && cfg.ServiceKey != "" {
		store, err = supabase.NewClient(supabase.Config{
			URL:        cfg.SupabaseURL,
			AnonKey:    cfg.AnonKey,
			ServiceKey: cfg.ServiceKey,
		})
		if err != nil {
			logger.WithError(err).Error("failed to create backend client")
			os.Exit(1)
		}
	}

	resolver := tenant.NewResolver(store)
	validator := auth.NewValidator(store, cfg.JWTSecret)
	issuer := prooftoken.NewIssuer(cfg.ProofTokenSecret, resolver)

	proxyOpts := proxy.Options{Logger: logger, Metrics: m}
	session := proxy.NewSessionForwarder(cfg.SupabaseURL, cfg.AnonKey, proxyOpts)
	data := proxy.NewDataForwarder(cfg.SupabaseURL, proxyOpts)

	bus := eventbus.New[eventbus.RequestEvent](64)
	events, unsubscribe := bus.Subscribe()
	go func() {
		for ev := range events {
			logger.WithFields(map[string]interface{}{
				"endpoint":     ev.Endpoint,
				"method":       ev.Method,
				"principal_id": ev.PrincipalID,
				"status":       ev.Status,
				"duration_ms":  ev.Duration.Milliseconds(),
			}).Info("gateway request")
		}
	}()

	g := &gateway{
		cfg:       cfg,
		logger:    logger,
		validator: validator,
		tenants:   resolver,
		issuer:    issuer,
		session:   session,
		data:      data,
		bus:       bus,
	}

	cors := middleware.NewCORSMiddleware(cfg.AllowedOrigins())

	router := mux.NewRouter()
	router.Use(mux.MiddlewareFunc(cors.Handler))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.MetricsMiddleware(m))

	if cfg.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
		limiter.StartCleanup(time.Minute)
		router.Use(mux.MiddlewareFunc(limiter.Handler))
	}

	router.HandleFunc("/health", g.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/company/is-owner", g.handleIsOwner)
	api.HandleFunc("/company/profiles", g.handleProfiles)
	api.HandleFunc("/me", g.handleMe)
	api.HandleFunc("/proof-token", g.handleProofToken)
	api.HandleFunc("/auth/proxy", g.handleSessionProxy)
	api.HandleFunc("/data/proxy", g.handleDataProxy)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.WithFields(map[string]interface{}{"addr": cfg.ListenAddr}).Info("gateway listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("server failed")
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("shutdown failed")
	}
	unsubscribe()
	bus.Close()
}
