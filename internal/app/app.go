package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/dukahub/dukapos/internal/domain/checkout"
	"github.com/dukahub/dukapos/internal/domain/insight"
	"github.com/dukahub/dukapos/internal/domain/promo"
	"github.com/dukahub/dukapos/internal/handler"
	"github.com/dukahub/dukapos/internal/llm"
	"github.com/dukahub/dukapos/internal/repository"
	"github.com/dukahub/dukapos/pkg/health"
	"github.com/dukahub/dukapos/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.DatabaseCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Repositories.
	productRepo := repository.NewProductRepository(pool)
	promoRepo := repository.NewPromoRepository(pool)
	saleRepo := repository.NewSaleRepository(pool)
	checkoutRepo := repository.NewCheckoutRepository(pool)
	apikeyRepo := repository.NewAPIKeyRepository(pool)

	// Promo negative-lookup filter, warmed from active codes and re-warmed
	// periodically so codes ingested while the server runs become visible.
	// An unwarmed filter fails open, so lookups reach the database until the
	// first successful warm-up.
	codeFilter := promo.NewCodeFilter()
	if n, err := codeFilter.Warm(ctx, promoRepo); err != nil {
		lg.Warn("Promo filter warm-up failed", zap.Error(err))
	} else {
		lg.Info("Promo filter warmed", zap.Int("codes", n))
	}
	go func() {
		ticker := time.NewTicker(cfg.PromoFilterRefresh)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := codeFilter.Warm(ctx, promoRepo); err != nil {
					lg.Warn("Promo filter refresh failed", zap.Error(err))
				}
			}
		}
	}()

	// Domain services.
	promoValidator := promo.NewRepoValidator(promoRepo, codeFilter)
	checkoutService := checkout.NewService(checkoutRepo)

	var model llm.Client = llm.Disabled{}
	if cfg.LLM.BaseURL != "" {
		model = llm.NewHTTPClient(llm.Config{
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			APIKey:  cfg.LLM.APIKey,
			Timeout: cfg.LLM.Timeout,
		})
	}
	insightService := insight.NewService(productRepo, saleRepo, model)

	// HTTP handlers.
	h := handler.NewHandler(productRepo, saleRepo, promoValidator, checkoutService, insightService)
	securityHandler := handler.NewSecurityHandler(apikeyRepo, []byte(cfg.APIKeyPepper))

	// Mux: health endpoints stay open, API routes require an API key.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", securityHandler.RequireAPIKey()(h.Routes()))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "X-API-Key"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("dukapos-api", m),
			httpmiddleware.LogRequests(),
		),
	}

	healthSvc.SetReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
