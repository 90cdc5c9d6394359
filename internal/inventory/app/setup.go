// Package app contains the application setup for the inventory service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/inventory/internal/inventory/config"
	"github.com/abgdnv/inventory/internal/inventory/service"
	"github.com/abgdnv/inventory/internal/inventory/store"
	grpcImpl "github.com/abgdnv/inventory/internal/inventory/transport/grpc"
	"github.com/abgdnv/inventory/internal/inventory/transport/rest"
	"github.com/abgdnv/inventory/pkg/auth"
	"github.com/abgdnv/inventory/pkg/bootstrap"
	"github.com/abgdnv/inventory/pkg/messaging"
	natsclient "github.com/abgdnv/inventory/pkg/nats"
	"github.com/abgdnv/inventory/pkg/server"
	"github.com/abgdnv/inventory/pkg/web"
	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

type Dependencies struct {
	ProductService service.ProductService
	Limiter        *web.ClientRateLimiter
	Verifier       auth.Verifier
	Logger         *slog.Logger
}

// Resources are the external connections the service was wired to. Close releases them.
// Verifier is nil when authentication is disabled.
type Resources struct {
	Store     store.ProductStore
	Publisher messaging.Publisher
	Verifier  auth.Verifier
	closers   []func()
}

func (r *Resources) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// SetupResources connects the configured store and, when enabled, the NATS publisher and the token verifier.
func SetupResources(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Resources, error) {
	res := &Resources{Publisher: messaging.NoopPublisher{}}

	productStore, err := newStore(ctx, cfg, logger, res)
	if err != nil {
		res.Close()
		return nil, err
	}
	res.Store = productStore

	if cfg.NATS.Enabled {
		nc, err := natsclient.NewClient(cfg.NATS.Url, cfg.NATS.Timeout)
		if err != nil {
			res.Close()
			return nil, err
		}
		res.closers = append(res.closers, func() { _ = nc.Drain() })
		js, err := natsclient.NewJetStreamContext(nc)
		if err != nil {
			res.Close()
			return nil, err
		}
		if err := natsclient.EnsureStream(ctx, js, cfg.NATS.Stream, messaging.StockSubjects); err != nil {
			res.Close()
			return nil, err
		}
		res.Publisher = natsclient.NewNatsPublisher(js)
		logger.Info("Publishing stock events to NATS", slog.String("stream", cfg.NATS.Stream))
	}

	if cfg.Auth.Enabled {
		verifier, err := auth.NewJWTVerifier(ctx, cfg.Auth)
		if err != nil {
			res.Close()
			return nil, err
		}
		res.Verifier = verifier
		logger.Info("Catalog management requires a bearer token", slog.String("issuer", cfg.Auth.Issuer))
	}
	return res, nil
}

func newStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, res *Resources) (store.ProductStore, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		if cfg.Database.Migrate {
			if err := store.Migrate(cfg.Database.URL); err != nil {
				return nil, err
			}
			logger.Info("Database migrations applied")
		}
		dbPool, err := bootstrap.NewDbPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		res.closers = append(res.closers, dbPool.Close)
		logger.Info("Successfully connected to the database!")
		return store.NewPgStore(dbPool), nil
	case config.DriverRedis:
		rdb, err := bootstrap.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		res.closers = append(res.closers, func() { _ = rdb.Close() })
		logger.Info("Successfully connected to redis!", slog.String("addr", cfg.Redis.Addr))
		return store.NewRedisStore(rdb, cfg.Redis.KeyPrefix), nil
	case config.DriverMemory:
		logger.Warn("Using the in-memory store, data is lost on restart")
		return store.NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func SetupDependencies(res *Resources, cfg *config.Config, logger *slog.Logger) *Dependencies {
	var limiter *web.ClientRateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = web.NewClientRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	return &Dependencies{
		ProductService: service.NewService(res.Store, res.Publisher, logger),
		Limiter:        limiter,
		Verifier:       res.Verifier,
		Logger:         logger,
	}
}

// SetupHttpHandler initializes the routes and middleware of the inventory HTTP API.
// Used by E2E tests to serve the API without a listener.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger, deps.Limiter)
	wireRoutes(mux, deps)
	return server.WithTracing(mux, "inventory-http")
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	productHandler := rest.NewHandler(deps.ProductService, deps.Logger)
	if deps.Verifier == nil {
		productHandler.RegisterRoutes(mux)
		return
	}
	productHandler.RegisterRoutes(mux, auth.RequireBearer(deps.Verifier, deps.Logger))
}

// SetupHttpServer creates and configures the HTTP server of the inventory service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	handler := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, handler)
}

// SetupGrpcServer initializes the gRPC server with the inventory service registered.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) (*grpc.Server, *health.Server) {
	inventoryRegisterFunc := func(s *grpc.Server) {
		grpcImpl.RegisterInventoryServer(s, grpcImpl.NewServer(deps.ProductService, deps.Logger))
	}
	return server.NewGRPCServer(deps.Logger, reflectionEnabled, inventoryRegisterFunc)
}
