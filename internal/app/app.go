// Package app wires every dependency together and runs the HTTP server.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/TessaEngelbrecht/artos-pos/internal/auth"
	"github.com/TessaEngelbrecht/artos-pos/internal/domain/order"
	"github.com/TessaEngelbrecht/artos-pos/internal/filestore"
	"github.com/TessaEngelbrecht/artos-pos/internal/handler"
	"github.com/TessaEngelbrecht/artos-pos/internal/notify"
	"github.com/TessaEngelbrecht/artos-pos/internal/report"
	"github.com/TessaEngelbrecht/artos-pos/internal/repository"
	"github.com/TessaEngelbrecht/artos-pos/internal/storage/redis"
	"github.com/TessaEngelbrecht/artos-pos/internal/verify"
	"github.com/TessaEngelbrecht/artos-pos/pkg/health"
	"github.com/TessaEngelbrecht/artos-pos/pkg/httpmiddleware"
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

	// Redis for cart storage.
	redisOpts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		return errors.Wrap(err, "parse redis URL")
	}
	redisClient := goredis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddReadinessCheck("redis", 5*time.Second, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories and stores.
	productRepo := repository.NewProductRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	cartStore := redis.NewCartStore(redisClient)

	proofStore, err := filestore.NewStore(cfg.ProofDir)
	if err != nil {
		return errors.Wrap(err, "create proof store")
	}

	// Domain services and collaborators.
	orderService := order.NewService(productRepo, orderRepo, cfg.LocationLabels())
	reportService := report.NewService(orderRepo)
	tokenManager := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.AdminEmails)
	verifier := verify.NewClient(verify.Config{
		BaseURL: cfg.Verify.BaseURL,
		APIKey:  cfg.Verify.APIKey,
		Model:   cfg.Verify.Model,
		Timeout: cfg.Verify.Timeout,
	})
	mailer := notify.NewMailer(notify.Config{
		ServiceID:  cfg.Email.ServiceID,
		TemplateID: cfg.Email.TemplateID,
		PublicKey:  cfg.Email.PublicKey,
	})
	if !mailer.Enabled() {
		lg.Info("EmailJS not configured, confirmation emails disabled")
	}

	// HTTP handlers.
	locations := make([]handler.PickupLocation, len(cfg.Checkout.Locations))
	for i, l := range cfg.Checkout.Locations {
		locations[i] = handler.PickupLocation{Label: l.Label, Address: l.Address, Times: l.Times}
	}
	h := handler.NewHandler(
		handler.Config{
			PickupLocations: locations,
			Bank: handler.BankDetails{
				AccountHolder: cfg.Checkout.Bank.AccountHolder,
				Bank:          cfg.Checkout.Bank.Bank,
				AccountNumber: cfg.Checkout.Bank.AccountNumber,
				BranchCode:    cfg.Checkout.Bank.BranchCode,
			},
			OrderDeadline: cfg.Checkout.OrderDeadline,
		},
		productRepo,
		customerRepo,
		orderService,
		orderRepo,
		cartStore,
		tokenManager,
		reportService,
		verifier,
		mailer,
		proofStore,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Routes(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("artos-api", m),
			httpmiddleware.LogRequests(),
		),
	}

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
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
