package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-service/internal/cart"
	"github.com/vasiliy-maslov/shop-service/internal/catalog"
	"github.com/vasiliy-maslov/shop-service/internal/config"
	"github.com/vasiliy-maslov/shop-service/internal/coupon"
	"github.com/vasiliy-maslov/shop-service/internal/db"
	shopHttp "github.com/vasiliy-maslov/shop-service/internal/handler/http"
	"github.com/vasiliy-maslov/shop-service/internal/order"
	"github.com/vasiliy-maslov/shop-service/internal/user"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "shop-service").Logger()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		log.Warn().Str("log_level", cfg.App.LogLevel).Msg("Unknown log level, falling back to info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().Msg("Shop service starting...")

	ctx := context.Background()

	if err := db.Migrate(cfg.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	tx := db.NewTxManager(pg.Pool)
	variants := catalog.NewRepository(pg.Pool)
	users := user.NewRepository(pg.Pool)
	cartRepo := cart.NewRepository(pg.Pool)

	cartSvc := cart.NewService(cartRepo, variants, users, tx, cart.WithTTL(cfg.App.CartTTL))
	couponSvc := coupon.NewService(coupon.NewRepository(pg.Pool), nil)
	orderSvc := order.NewService(
		order.NewRepository(pg.Pool),
		order.NewStatsRepository(pg.SQLX()),
		cartRepo,
		variants,
		couponSvc,
		users,
		tx,
		order.WithShippingCost(cfg.ShippingCostAmount()),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      shopHttp.NewRouter(cartSvc, couponSvc, orderSvc),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
