package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/xenking/botica/internal/api"
	"github.com/xenking/botica/internal/domain/auth"
	"github.com/xenking/botica/internal/domain/contact"
	"github.com/xenking/botica/internal/domain/order"
	"github.com/xenking/botica/internal/storage"
	"github.com/xenking/botica/internal/storage/file"
	"github.com/xenking/botica/internal/storage/postgres"
	"github.com/xenking/botica/internal/storage/redis"
	"github.com/xenking/botica/internal/storage/s3"
	"github.com/xenking/botica/pkg/health"
	"github.com/xenking/botica/pkg/httpmiddleware"
)

// OpenStore returns the document backend selected by cfg and a function that
// releases it. A missing file document is created empty.
func OpenStore(ctx context.Context, lg *zap.Logger, cfg StoreConfig) (storage.Backend, func(), error) {
	return openStore(ctx, lg, cfg, true)
}

// OpenExistingStore is OpenStore for tools that only inspect the store: a
// missing file document fails with storage.ErrUnavailable instead of being
// created.
func OpenExistingStore(ctx context.Context, lg *zap.Logger, cfg StoreConfig) (storage.Backend, func(), error) {
	return openStore(ctx, lg, cfg, false)
}

func openStore(ctx context.Context, lg *zap.Logger, cfg StoreConfig, create bool) (storage.Backend, func(), error) {
	switch cfg.Driver {
	case DriverMemory:
		lg.Warn("Using in-memory store, data is lost on exit")
		return storage.NewMemory(), func() {}, nil
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		lg.Info("Using postgres store", zap.String("document", cfg.DocumentID))
		return postgres.NewDocumentStore(pool, cfg.DocumentID), pool.Close, nil
	case DriverRedis:
		client, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect redis")
		}
		lg.Info("Using redis store", zap.String("key", cfg.RedisKey))
		return redis.NewDocumentStore(client, cfg.RedisKey), func() { _ = client.Close() }, nil
	case DriverS3:
		client, err := s3.NewClient(ctx, s3.ClientConfig{
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			return nil, nil, errors.Wrap(err, "create s3 client")
		}
		lg.Info("Using s3 store",
			zap.String("bucket", cfg.S3.Bucket),
			zap.String("key", cfg.S3.Key),
		)
		return s3.NewDocumentStore(client, cfg.S3.Bucket, cfg.S3.Key), func() {}, nil
	default:
		s := file.New(cfg.Path)
		if !create {
			if err := s.Ping(ctx); err != nil {
				return nil, nil, errors.Wrap(err, "open file store")
			}
			lg.Info("Using file store", zap.String("path", s.Path()))
			return s, func() {}, nil
		}
		created, err := s.Init(ctx)
		if err != nil {
			return nil, nil, errors.Wrap(err, "init file store")
		}
		lg.Info("Using file store", zap.String("path", s.Path()), zap.Bool("created", created))
		return s, func() {}, nil
	}
}

// NewHandler builds the services over backend and returns the complete HTTP
// handler: API routes, health probes and the middleware chain.
func NewHandler(
	ctx context.Context,
	lg *zap.Logger,
	t httpmiddleware.Telemetry,
	cfg *Config,
	backend storage.Backend,
	healthSvc *health.Health,
) (http.Handler, error) {
	// Repositories.
	users := storage.NewUserRepository(backend)
	products := storage.NewProductRepository(backend)
	orders := storage.NewOrderRepository(backend)
	contacts := storage.NewContactRepository(backend)

	// Domain services.
	authService, err := auth.NewService(users, auth.Config{
		Secret:     []byte(cfg.Auth.JWTSecret),
		TokenTTL:   cfg.Auth.TokenTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create auth service")
	}
	orderService := order.NewService(products, orders)
	contactService := contact.NewService(contacts)

	metrics, err := api.NewMetrics(t.MeterProvider().Meter("botica"))
	if err != nil {
		return nil, errors.Wrap(err, "create metrics")
	}
	h := api.NewHandler(
		api.Config{ImageBaseURL: cfg.ImageBaseURL},
		authService,
		orderService,
		products,
		contactService,
		metrics,
	)

	router := chi.NewRouter()
	router.Use(
		httpmiddleware.Instrument("botica-api", t),
		httpmiddleware.LogRequests(),
	)
	router.Get("/livez", healthSvc.LiveHandler)
	router.Get("/readyz", healthSvc.ReadyHandler)
	h.Mount(router)

	return httpmiddleware.Wrap(router,
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			Origins:          cfg.CORS.Origins,
			Headers:          []string{"Content-Type", "Authorization"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           24 * time.Hour,
		}),
		httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Requests: cfg.RateLimit.Max,
			Window:   cfg.RateLimit.Window,
		}),
	), nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store.Driver),
	)

	backend, closeStore, err := OpenStore(ctx, lg, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	healthSvc := health.New()
	healthSvc.Ready(health.Check{Name: "store", Timeout: 5 * time.Second, Func: health.PingCheck(backend)})
	healthSvc.Live(health.Check{Name: "goroutines", Func: health.GoroutineLimit(10000)})
	healthSvc.Start(ctx, 10*time.Second)
	defer healthSvc.Stop()

	handler, err := NewHandler(ctx, lg, m, cfg, backend, healthSvc)
	if err != nil {
		return err
	}
	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           handler,
	}
	healthSvc.MarkReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		healthSvc.MarkReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
