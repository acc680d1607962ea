package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/fintrack/internal/cache"
	cachemem "github.com/tinoosan/fintrack/internal/cache/memory"
	"github.com/tinoosan/fintrack/internal/cache/redis"
	"github.com/tinoosan/fintrack/internal/cache/resilient"
	"github.com/tinoosan/fintrack/internal/config"
	httpapi "github.com/tinoosan/fintrack/internal/httpapi/v1"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/service/account"
	"github.com/tinoosan/fintrack/internal/service/catalog"
	"github.com/tinoosan/fintrack/internal/service/report"
	"github.com/tinoosan/fintrack/internal/service/transaction"
	"github.com/tinoosan/fintrack/internal/storage"
	"github.com/tinoosan/fintrack/internal/storage/memory"
	pgstore "github.com/tinoosan/fintrack/internal/storage/postgres"
)

type backend interface {
	storage.Store
	report.Repo
	Ready(ctx context.Context) error
}

func main() {
	configPath := flag.String("config", os.Getenv("FINTRACK_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store   backend
		closeFn func()
	)
	if cfg.Database.URL != "" {
		pg, err := pgstore.Open(ctx, cfg.Database.URL)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		store, closeFn = pg, pg.Close
		logger.Info("storage backend: postgres")
	} else {
		store = memory.New()
		logger.Info("storage backend: memory")
	}
	ready := []httpapi.ReadyChecker{store}

	optsCache, err := buildCache(cfg, logger)
	if err != nil {
		logger.Error("failed to set up cache", "err", err)
		os.Exit(1)
	}
	if p, ok := optsCache.(pinger); ok {
		ready = append(ready, pingReady{p})
	}
	logger.Info("cache backend: " + optsCache.Name())

	svc := httpapi.Services{
		Accounts:     account.New(store, optsCache, logger),
		Transactions: transaction.New(store, transaction.Options{RejectDeletedAccounts: cfg.Ledger.RejectDeletedAccounts}, logger),
		Reports:      report.New(store, optsCache, logger),
		Catalog:      catalog.New(store, logger),
	}

	if cfg.Dev.Seed {
		if err := devSeed(ctx, svc, logger); err != nil {
			logger.Error("dev seed failed", "err", err)
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.New(svc, httpapi.Options{AllowedOrigins: cfg.CORS.AllowedOrigins, Ready: ready}, logger).Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("fintrack listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if err := optsCache.Close(); err != nil {
		logger.Warn("cache close", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

func buildCache(cfg *config.Config, logger *slog.Logger) (cache.AccountOptions, error) {
	switch cfg.Cache.Backend {
	case "none":
		return cache.Nop{}, nil
	case "redis":
		rc := redis.DefaultConfig()
		rc.Addr = cfg.Redis.Addr
		rc.Password = cfg.Redis.Password
		rc.DB = cfg.Redis.DB
		rc.KeyPrefix = cfg.Redis.KeyPrefix
		rc.TTL = cfg.Cache.TTL
		c, err := redis.New(rc)
		if err != nil { return nil, err }
		return resilient.Wrap(c, resilient.DefaultConfig(), logger), nil
	default:
		return cachemem.New(cfg.Cache.TTL), nil
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// pingReady exposes a remote cache to /readyz.
type pingReady struct{ p pinger }

func (r pingReady) Ready(ctx context.Context) error { return r.p.Ping(ctx) }

// devSeed creates a throwaway user with the default catalog and a Cash account.
func devSeed(ctx context.Context, svc httpapi.Services, l *slog.Logger) error {
	user := uuid.New()
	seeded, err := svc.Catalog.SeedDefaults(ctx, user)
	if err != nil { return err }

	types, err := svc.Catalog.ListAccountTypes(ctx, user)
	if err != nil { return err }
	currencies, err := svc.Catalog.ListCurrencies(ctx, user)
	if err != nil { return err }
	if len(types) == 0 || len(currencies) == 0 {
		return errors.New("dev seed: empty catalog")
	}

	cash, err := svc.Accounts.Create(ctx, ledger.Account{
		OwnerID:       user,
		Name:          "Cash",
		Balance:       decimal.MustParse("100"),
		AccountTypeID: types[0].ID,
		CurrencyID:    currencies[0].ID,
	})
	if err != nil { return err }

	l.Info("DEV seed", "user_id", user.String(), "cash_account_id", cash.ID.String(),
		"categories", seeded.Categories, "currencies", seeded.Currencies, "account_types", seeded.AccountTypes)
	fmt.Println("==================== DEV SEED ====================")
	fmt.Printf("user_id: %s\n", user)
	fmt.Printf("cash_account_id: %s\n", cash.ID)
	fmt.Println("==================================================")
	return nil
}
