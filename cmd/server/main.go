package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accesshandler "estatehub/internal/access/handler"
	accessmiddleware "estatehub/internal/access/middleware"
	accessservice "estatehub/internal/access/service"
	"estatehub/internal/access/token"
	"estatehub/internal/platform/config"
	"estatehub/internal/platform/health"
	"estatehub/internal/platform/logger"
	"estatehub/internal/property/analytics"
	propertyhandler "estatehub/internal/property/handler"
	propertymetrics "estatehub/internal/property/metrics"
	propertyservice "estatehub/internal/property/service"
	ratelimitmetrics "estatehub/internal/ratelimit/metrics"
	ratelimitmw "estatehub/internal/ratelimit/middleware"
	ratelimitmodels "estatehub/internal/ratelimit/models"
	"estatehub/internal/seeder"
	tenanthandler "estatehub/internal/tenant/handler"
	"estatehub/internal/tenant/limits"
	tenantmetrics "estatehub/internal/tenant/metrics"
	tenantmodels "estatehub/internal/tenant/models"
	"estatehub/internal/tenant/resolver"
	tenantservice "estatehub/internal/tenant/service"
	httptransport "estatehub/internal/transport/http"
	"estatehub/pkg/platform/circuit"
	"estatehub/pkg/platform/middleware/request"
	"estatehub/pkg/platform/tracer"
)

const shutdownTimeout = 10 * time.Second

// main wires the platform backends into the catalog services, exposes the
// HTTP router, and drains background work on shutdown.
func main() {
	config.LoadDotEnv()
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	if cfg.IsProduction() && cfg.UsesDefaultSigningKey() {
		return errors.New("JWT_SIGNING_KEY must be set in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing estatehub",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"platform_domain", cfg.Tenancy.PlatformDomain,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	checks := health.New(cfg.Environment)
	in, err := setupInfra(ctx, cfg, reg, checks, log)
	if err != nil {
		return err
	}
	defer in.close(log)

	trc := tracer.NewOTel(tracer.WithBaseAttributes(tracer.String(tracer.AttrEnvironment, cfg.Environment)))
	tMetrics := tenantmetrics.New(reg)
	pMetrics := propertymetrics.New(reg)

	guard := limits.New(
		limits.WithCounter(tenantmodels.LimitProperties, in.properties),
		limits.WithCounter(tenantmodels.LimitUsers, in.users),
		limits.WithLogger(log),
		limits.WithMetrics(tMetrics),
		limits.WithTracer(trc),
	)

	counter := analytics.New(in.properties,
		analytics.WithLogger(log),
		analytics.WithMetrics(pMetrics),
		analytics.WithTracer(trc),
		analytics.WithTimeout(cfg.Catalog.AnalyticsTimeout),
	)

	tokens := token.NewService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.TokenTTL)

	users := accessservice.New(in.users, guard,
		accessservice.WithLogger(log),
		accessservice.WithPublisher(in.publisher),
		accessservice.WithTx(in.tx),
		accessservice.WithTokenIssuer(tokens),
	)

	tenants := tenantservice.New(in.tenants, in.properties, in.users, users,
		tenantservice.WithLogger(log),
		tenantservice.WithPublisher(in.publisher),
		tenantservice.WithMetrics(tMetrics),
		tenantservice.WithTracer(trc),
		tenantservice.WithTx(in.tx),
	)

	properties := propertyservice.New(in.properties, guard, counter,
		propertyservice.WithLogger(log),
		propertyservice.WithPublisher(in.publisher),
		propertyservice.WithMetrics(pMetrics),
		propertyservice.WithTracer(trc),
		propertyservice.WithTx(in.tx),
		propertyservice.WithBatchViews(cfg.Catalog.CountListViews),
	)

	resolverOpts := []resolver.Option{
		resolver.WithLogger(log),
		resolver.WithMetrics(tMetrics),
		resolver.WithTracer(trc),
	}
	if in.throttle != nil {
		resolverOpts = append(resolverOpts, resolver.WithThrottler(in.throttle))
	} else {
		resolverOpts = append(resolverOpts, resolver.WithThrottler(resolver.NewLocalThrottle(nil)))
	}
	tenantResolver := resolver.New(in.tenants, resolver.Config{
		PlatformDomain:     cfg.Tenancy.PlatformDomain,
		ReservedSubdomains: cfg.Tenancy.ReservedSubdomains,
		TouchInterval:      cfg.Tenancy.ActivityTouchInterval,
	}, resolverOpts...)

	if err := bootstrapAdmin(ctx, cfg.Bootstrap, users, log); err != nil {
		return err
	}
	if cfg.Bootstrap.SeedDemo {
		if cfg.IsProduction() {
			log.Warn("SEED_DEMO_DATA ignored in production")
		} else if err := seeder.New(tenants, properties, log).SeedAll(ctx, cfg.Bootstrap.DemoAdminEmail, cfg.Bootstrap.DemoAdminPassword); err != nil {
			return err
		}
	}

	var limiter *ratelimitmw.Middleware
	if cfg.RateLimit.Enabled {
		var opts []ratelimitmw.Option
		if in.bucketFallback != nil {
			opts = append(opts, ratelimitmw.WithFallback(in.bucketFallback, circuit.New("ratelimit-redis")))
		}
		limiter = ratelimitmw.New(in.buckets, map[ratelimitmodels.EndpointClass]ratelimitmodels.Policy{
			ratelimitmodels.ClassAuth:  {Limit: cfg.RateLimit.AuthPerMinute, Window: time.Minute},
			ratelimitmodels.ClassWrite: {Limit: cfg.RateLimit.WritePerMinute, Window: time.Minute},
		}, log, ratelimitmetrics.New(reg), opts...)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		RequestTimeout: cfg.RequestTimeout,
		TrustProxy:     cfg.TrustProxy,
		RequestMetrics: request.NewMetrics(reg),
		Health:         checks,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		RateLimit:      limiter,
		Resolver:       tenantResolver,
		Access:         accessmiddleware.New(token.NewAdapter(tokens), users, log),
		Tenants:        tenanthandler.New(tenants, log, cfg.Catalog.MaxPageSize),
		Properties:     propertyhandler.New(properties, log, cfg.Catalog.MaxPageSize),
		Users:          accesshandler.New(users, log, cfg.Catalog.MaxPageSize),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	tenantResolver.Wait()
	counter.Wait()

	log.Info("server stopped")
	return nil
}

func bootstrapAdmin(ctx context.Context, cfg config.BootstrapConfig, users *accessservice.Service, log *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	admin, created, err := users.BootstrapSuperAdmin(ctx, cfg.AdminEmail, "Platform Admin", cfg.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		log.Info("super admin created", "user_id", admin.ID.String())
	}
	return nil
}
