package main

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	accessservice "estatehub/internal/access/service"
	userstore "estatehub/internal/access/store/user"
	"estatehub/internal/platform/config"
	"estatehub/internal/platform/database"
	"estatehub/internal/platform/events"
	"estatehub/internal/platform/health"
	"estatehub/internal/platform/kafka"
	"estatehub/internal/platform/kafka/producer"
	"estatehub/internal/platform/redis"
	"estatehub/internal/property/analytics"
	propertyservice "estatehub/internal/property/service"
	propertystore "estatehub/internal/property/store/property"
	ratelimitmw "estatehub/internal/ratelimit/middleware"
	"estatehub/internal/ratelimit/store/bucket"
	"estatehub/internal/tenant/resolver"
	tenantservice "estatehub/internal/tenant/service"
	tenantstore "estatehub/internal/tenant/store/tenant"
	"estatehub/migrations"
	"estatehub/pkg/platform/tx"
)

type tenantBackend interface {
	tenantservice.TenantStore
	resolver.Store
}

type propertyBackend interface {
	propertyservice.Store
	analytics.Store
	tenantservice.ResourceCounter
}

type userBackend interface {
	accessservice.Store
	tenantservice.ResourceCounter
}

// infra holds the storage and messaging backends. Every external system is
// optional; without it the server falls back to in-process implementations.
type infra struct {
	tenants    tenantBackend
	properties propertyBackend
	users      userBackend
	tx         tx.Runner
	publisher  events.Publisher
	throttle   *redis.Throttle
	buckets    ratelimitmw.Limiter
	// bucketFallback is set when buckets live in Redis.
	bucketFallback ratelimitmw.Limiter

	closers []func() error
}

func setupInfra(ctx context.Context, cfg config.Server, reg prometheus.Registerer, checks *health.Handler, log *slog.Logger) (*infra, error) {
	in := &infra{}

	if cfg.Database.URL != "" {
		pool, err := database.New(ctx, database.Config{
			URL:             cfg.Database.URL,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		in.closers = append(in.closers, pool.Close)

		applied, err := pool.Migrate(ctx, migrations.FS)
		if err != nil {
			in.close(log)
			return nil, err
		}
		log.Info("database ready", "migrations_applied", len(applied))

		db := pool.DB()
		in.tenants = tenantstore.NewPostgres(db)
		in.properties = propertystore.NewPostgres(db)
		in.users = userstore.NewPostgres(db)
		in.tx = tx.NewPostgres(db)
		checks.RegisterCheck("database", pool.Health)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		in.tenants = tenantstore.NewInMemory()
		in.properties = propertystore.NewInMemory()
		in.users = userstore.NewInMemory()
		in.tx = tx.NewMemory()
	}

	if cfg.Redis.URL != "" {
		client, err := redis.New(ctx, cfg.Redis, reg)
		if err != nil {
			in.close(log)
			return nil, err
		}
		in.closers = append(in.closers, client.Close)
		in.throttle = redis.NewThrottle(client, "estatehub:tenant-touch:")
		in.buckets = bucket.NewRedisBucketStore(client, "estatehub:ratelimit:")
		in.bucketFallback = bucket.NewInMemoryBucketStore()
		checks.RegisterCheck("redis", client.Health)
	} else {
		in.buckets = bucket.NewInMemoryBucketStore()
	}

	if cfg.Kafka.Brokers != "" {
		p, err := producer.New(cfg.Kafka, log)
		if err != nil {
			in.close(log)
			return nil, err
		}
		in.closers = append(in.closers, p.Close)
		in.publisher = events.NewKafkaPublisher(p, cfg.Kafka.EventsTopic, log)
		brokerCheck := kafka.NewHealthChecker(cfg.Kafka.Brokers)
		checks.RegisterCheck(brokerCheck.Name(), brokerCheck.Check)
	} else {
		in.publisher = events.NewLogPublisher(log)
	}

	return in, nil
}

// close releases backends in reverse order of acquisition.
func (in *infra) close(log *slog.Logger) {
	for i := len(in.closers) - 1; i >= 0; i-- {
		if err := in.closers[i](); err != nil {
			log.Error("failed to close backend", "error", err)
		}
	}
	in.closers = nil
}
