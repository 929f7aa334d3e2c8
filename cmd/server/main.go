// @title                       Dine Dorm API
// @version                     1.0
// @description                 Hostel meal ordering: meals, likes, meal requests, reviews, membership payments.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the token from POST /jwt.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	_ "github.com/dinedorm/server/docs"
	"github.com/dinedorm/server/internal/api"
	"github.com/dinedorm/server/internal/api/handler"
	"github.com/dinedorm/server/internal/core/service"
	"github.com/dinedorm/server/internal/infrastructure/db/mongo"
	"github.com/dinedorm/server/internal/infrastructure/db/redis"
	"github.com/dinedorm/server/internal/infrastructure/gateway"
	"github.com/dinedorm/server/internal/infrastructure/queue"
	"github.com/dinedorm/server/internal/infrastructure/scheduler"
	"github.com/dinedorm/server/internal/pkg/config"
	"github.com/dinedorm/server/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "dinedorm",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Stores ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.StoreTimeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  cfg.StoreTimeout,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongo.NewUserRepository(db, cfg.StoreTimeout)
	meals := mongo.NewMealRepository(db, cfg.StoreTimeout)
	upcoming := mongo.NewUpcomingMealRepository(db, cfg.StoreTimeout)
	payments := mongo.NewPaymentRepository(db, cfg.StoreTimeout)
	packages := mongo.NewPackageRepository(db, cfg.StoreTimeout)
	requests := mongo.NewRequestRepository(db, cfg.StoreTimeout)
	reviews := mongo.NewReviewRepository(db, cfg.StoreTimeout)

	for name, ensure := range map[string]func(context.Context) error{
		"users":    users.EnsureIndexes,
		"meals":    meals.EnsureIndexes,
		"payments": payments.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return err
		}
		log.Debug().Str("collection", name).Msg("indexes ensured")
	}

	// --- Services ---
	if cfg.Payment.StripeSecretKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY not set, payment intents will fail")
	}
	stripe := gateway.NewStripeGateway(cfg.Payment.StripeSecretKey, nil)

	tokenSvc := service.NewTokenService(cfg.JWTSecret)
	userSvc := service.NewUserService(users, logger.Component("users"))
	mealSvc := service.NewMealService(meals, upcoming, logger.Component("meals"))
	promotionSvc := service.NewPromotionService(meals, upcoming, logger.Component("promotion"))
	catalogSvc := service.NewCatalogService(packages, requests, reviews, meals, logger.Component("catalog"))
	paymentSvc := service.NewPaymentService(
		payments, users, stripe, redis.NewIdempotencyStore(rdb),
		logger.Component("payments"), cfg.Payment.Currency,
	)

	dispatcher := queue.NewDispatcher(cfg.Payment.BadgeWorkers, paymentSvc, logger.Component("badge-dispatcher"))
	paymentSvc.SetRetryQueue(dispatcher)
	dispatcher.Start(ctx)

	reconciler := service.NewReconcileService(payments, meals, upcoming, paymentSvc, logger.Component("reconcile"))
	sched := scheduler.New(logger.Component("scheduler"))
	if err := sched.Add("reconcile", cfg.Reconcile.Schedule, reconciler.Run); err != nil {
		return err
	}
	sched.Start()

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Tokens:    tokenSvc,
		Users:     userSvc,
		Meals:     mealSvc,
		Promotion: promotionSvc,
		Payments:  paymentSvc,
		Catalog:   catalogSvc,
		Probes: map[string]handler.Probe{
			"mongodb": mongoProbe(db),
			"redis":   redisProbe(rdb, cfg.StoreTimeout),
		},
		Log:          logger.Component("http"),
		RateLimitRPS: cfg.RateLimitRPS,
		BodyLimit:    cfg.BodyLimit,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	sched.Stop(shutdownCtx)
	return nil
}

func mongoProbe(db *mongodriver.Database) handler.Probe {
	return func(ctx context.Context) error {
		return db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
	}
}

func redisProbe(rdb *goredis.Client, timeout time.Duration) handler.Probe {
	return func(ctx context.Context) error {
		return redis.Ping(ctx, rdb, timeout)
	}
}
