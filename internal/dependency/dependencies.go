package dependency

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bidhouse/bidhouse/internal/cache"
	"github.com/bidhouse/bidhouse/internal/events"
	"github.com/bidhouse/bidhouse/internal/handlers"
	"github.com/bidhouse/bidhouse/internal/repository"
	"github.com/bidhouse/bidhouse/internal/service"
	"github.com/bidhouse/bidhouse/pkg/clock"
	"github.com/bidhouse/bidhouse/pkg/jwt"
	"github.com/bidhouse/bidhouse/pkg/logger"
	"github.com/bidhouse/bidhouse/pkg/utils"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies holds all the intialized instances required by the application.
type Dependencies struct {
	Services       *service.Services
	Pool           *pgxpool.Pool
	Cache          cache.Cacher
	Publisher      events.Publisher
	JwtManager     jwt.JWTManager
	Clock          clock.Clock
	ListingHandler *handlers.ListingHandler
	BidHandler     *handlers.BidHandler
	MarketHandler  *handlers.MarketHandler
	AdminHandler   *handlers.AdminHandler
}

// NewDependencies connects the backends and wires up all services.
// With no DB_DSN it falls back to the in-memory repository, with no
// KAFKA_BROKERS events are dropped, with no REDIS_ADDR the projection
// cache stays in-process.
func NewDependencies(ctx context.Context, log *logger.Logger) (*Dependencies, error) {
	clk := clock.New()

	var (
		store  repository.ListingStore
		ledger repository.BidLedger
		pool   *pgxpool.Pool
	)
	if dsn := utils.GetEnv("DB_DSN", ""); dsn != "" {
		p, err := pgxpool.New(ctx, dsn)
		if err != nil {
			slog.Error("[DB] connection failed -> ", "error", err.Error())
			return nil, err
		}
		if err := p.Ping(ctx); err != nil {
			slog.Error("[DB] ping failed -> ", "error", err.Error())
			return nil, err
		}
		repo := repository.NewPGRepo(p)
		store, ledger, pool = repo, repo, p
		slog.Info("[DB] connection established")
	} else {
		repo := repository.NewMemoryRepo()
		store, ledger = repo, repo
		slog.Warn("[DB] DB_DSN not set, using in-memory repository")
	}

	var pub events.Publisher = events.NopPublisher{}
	if brokers := utils.GetEnv("KAFKA_BROKERS", ""); brokers != "" {
		topic := utils.GetEnv("KAFKA_TOPIC", "auction-events")
		pub = events.NewKafkaPublisher(strings.Split(brokers, ","), topic, 256)
		slog.Info("[EVENTS] kafka publisher enabled", "topic", topic)
	}

	var c cache.Cacher
	if utils.GetEnv("REDIS_ADDR", "") != "" {
		redisCache, err := cache.NewRedisClient(ctx)
		if err != nil {
			slog.Error("[Cache] failed to initialized ->", "error", err.Error())
			return nil, err
		}
		if err := redisCache.Ping(ctx); err != nil {
			slog.Error("[Cache] Unable to ping ->", "error", err.Error())
		} else {
			slog.Info("[Cache] connected")
		}
		c = redisCache
	} else {
		c = cache.NewMemoryCache()
	}

	jm, err := jwt.NewJwtManager()
	if err != nil {
		slog.Error("[JWT] failed to initialize -> ", "error", err.Error())
		return nil, err
	}

	services, err := service.NewServices(store, ledger, clk, pub, log)
	if err != nil {
		slog.Error("[Service] failed to initialized -> ", "error", err.Error())
		return nil, err
	}

	listingHandler, err := handlers.NewListingHandler(services.ListingService, services.BidService, services.LifecycleService, clk)
	if err != nil {
		return nil, err
	}
	bidHandler, err := handlers.NewBidHandler(services.BidService, services.QueryService, c)
	if err != nil {
		return nil, err
	}
	marketHandler, err := handlers.NewMarketHandler(services.QueryService, c)
	if err != nil {
		return nil, err
	}
	adminHandler, err := handlers.NewAdminHandler(services.LifecycleService, services.QueryService, c)
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		Services:       services,
		Pool:           pool,
		Cache:          c,
		Publisher:      pub,
		JwtManager:     jm,
		Clock:          clk,
		ListingHandler: listingHandler,
		BidHandler:     bidHandler,
		MarketHandler:  marketHandler,
		AdminHandler:   adminHandler,
	}, nil
}

// Close releases every backend the dependency graph holds.
func (d *Dependencies) Close() {
	if err := d.Publisher.Close(); err != nil {
		slog.Error("[EVENTS] failed to close publisher", "error", err)
	}
	if err := d.Cache.Close(); err != nil {
		slog.Error("[Cache] failed to close", "error", err)
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
}
