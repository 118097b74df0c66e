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

	"tradefolio/internal/auth"
	"tradefolio/internal/config"
	"tradefolio/internal/db"
	"tradefolio/internal/events"
	"tradefolio/internal/health"
	"tradefolio/internal/httpserver"
	"tradefolio/internal/ledger"
	"tradefolio/internal/orders"
	"tradefolio/internal/portfolios"
	"tradefolio/internal/positions"
	"tradefolio/internal/refdata"
	"tradefolio/internal/store"
	"tradefolio/internal/store/memory"
	"tradefolio/internal/store/postgres"
	"tradefolio/internal/wallets"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		st   store.Store
		pool *pgxpool.Pool
	)
	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on exit")
		st = memory.New(nil)
	default:
		pc := db.DefaultPoolConfig(cfg.DBDSN)
		pc.MaxConns = cfg.DBMaxConns
		pool, err = db.NewPool(ctx, pc)
		if err != nil {
			return err
		}
		defer pool.Close()
		if cfg.MigrateOnStart {
			if err := db.NewMigrator(pool, logger).ApplyAll(ctx); err != nil {
				return err
			}
		}
		st = postgres.New(pool, logger)
	}

	bus := events.NewBus()
	authSvc := auth.NewService(st, cfg.JWTIssuer, []byte(cfg.JWTSecret), cfg.JWTTTL, logger)
	if cfg.AdminEmail != "" {
		if err := authSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPasswordHash); err != nil {
			return err
		}
	}
	refSvc := refdata.NewService(st, bus, logger)
	walletSvc := wallets.NewService(st, bus, logger)
	portfolioSvc := portfolios.NewService(st, bus, logger)
	positionSvc := positions.NewService(st, bus, logger)
	orderSvc := orders.NewService(st, bus, logger)
	ledgerSvc := ledger.NewService(st, bus, logger)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Auth:                  authSvc,
		AuthHandler:           auth.NewHandler(authSvc),
		HealthHandler:         health.NewHandler(pool, cfg.Store, time.Now(), cfg.HTTPAddr),
		WalletHandler:         wallets.NewHandler(walletSvc),
		AssetHandler:          refdata.NewAssetHandler(refSvc),
		ExternalEntityHandler: refdata.NewExternalEntityHandler(refSvc),
		GroupHandler:          refdata.NewGroupHandler(refSvc),
		PortfolioHandler:      portfolios.NewPortfolioHandler(portfolioSvc),
		StrategyHandler:       portfolios.NewStrategyHandler(portfolioSvc),
		PositionHandler:       positions.NewHandler(positionSvc),
		OrderHandler:          orders.NewHandler(orderSvc),
		TransactionHandler:    ledger.NewHandler(ledgerSvc),
		EventsWSHandler:       events.NewWSHandler(bus, authSvc, cfg.WebSocketOrigin, logger),
		Logger:                logger,
		CORSOrigin:            cfg.WebSocketOrigin,
		RateLimiter:           httpserver.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	})

	if cfg.OrderExpiryInterval > 0 {
		go orderSvc.RunExpiryWorker(ctx, cfg.OrderExpiryInterval)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.HTTPAddr, "store", cfg.Store)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
