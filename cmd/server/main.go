package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"marketserver/internal/auth"
	"marketserver/internal/config"
	"marketserver/internal/domain"
	"marketserver/internal/httpapi"
	"marketserver/internal/migrate"
	"marketserver/internal/service"
	"marketserver/internal/store/postgres"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)

	tokens := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	loginCfg := service.LoginConfig{
		MaxAttempts:   cfg.MaxLoginAttempts,
		LockoutWindow: cfg.LockoutWindow,
	}

	var (
		userLogin     *service.LoginService
		customerLogin *service.LoginService
		sellerLogin   *service.LoginService
		usersSvc      *service.UsersService
		customersSvc  *service.CustomersService
		sellersSvc    *service.SellersService
		productsSvc   *service.ProductsService
		dbPing        func(context.Context) error
	)

	if cfg.DBDSN != "" {
		if err := migrate.Up(context.Background(), cfg.DBDSN); err != nil {
			logger.Error("migrations failed", "err", err)
			os.Exit(1)
		}

		pgPool, err := postgres.Open(context.Background(), cfg.DBDSN)
		if err != nil {
			logger.Error("db open failed", "err", err)
			os.Exit(1)
		}
		defer pgPool.Close()

		users := postgres.NewUsersStore(pgPool)
		customers := postgres.NewCustomersStore(pgPool)
		sellers := postgres.NewSellersStore(pgPool)
		products := postgres.NewProductsStore(pgPool)

		if err := bootstrapAccounts(context.Background(), logger, users, customers, sellers, cfg); err != nil {
			logger.Error("bootstrap accounts failed", "err", err)
			os.Exit(1)
		}

		userLogin = service.NewUserLoginService(users,
			postgres.NewAttemptsStore(pgPool, domain.KindUser), tokens, loginCfg)
		customerLogin = service.NewCustomerLoginService(customers,
			postgres.NewAttemptsStore(pgPool, domain.KindCustomer), tokens, loginCfg)
		sellerLogin = service.NewSellerLoginService(sellers,
			postgres.NewAttemptsStore(pgPool, domain.KindSeller), tokens, loginCfg)

		usersSvc = &service.UsersService{Store: users}
		customersSvc = &service.CustomersService{Store: customers, Products: products}
		sellersSvc = &service.SellersService{Store: sellers}
		productsSvc = &service.ProductsService{Store: products, Sellers: sellers}
		dbPing = pgPool.Ping
	}

	apiRouter := httpapi.NewRouter(httpapi.RouterOpts{
		Logger:        logger,
		IsProd:        cfg.IsProd(),
		DBPing:        dbPing,
		Tokens:        tokens,
		UserLogin:     userLogin,
		CustomerLogin: customerLogin,
		SellerLogin:   sellerLogin,
		Users:         usersSvc,
		Customers:     customersSvc,
		Sellers:       sellersSvc,
		Products:      productsSvc,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiRouter,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

// bootstrapAccounts creates the default back-office user plus a starter
// customer and seller account when bootstrap credentials are configured.
// Accounts that already exist are left alone.
func bootstrapAccounts(ctx context.Context, logger *slog.Logger, users *postgres.UsersStore, customers *postgres.CustomersStore, sellers *postgres.SellersStore, cfg config.Config) error {
	if cfg.BootstrapPassword == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.BootstrapPassword) < 12 {
		return errors.New("APP_BOOTSTRAP_PASSWORD: must be at least 12 characters")
	}

	hash, err := auth.HashPassword(cfg.BootstrapPassword)
	if err != nil {
		return fmt.Errorf("bootstrap: hash password: %w", err)
	}

	create := func(kind string, fn func() error) error {
		err := fn()
		if err == nil {
			logger.Info("bootstrap: created account", "kind", kind, "email", cfg.BootstrapEmail)
			return nil
		}
		if errors.Is(err, domain.ErrEmailTaken) {
			logger.Info("bootstrap: account already exists", "kind", kind, "email", cfg.BootstrapEmail)
			return nil
		}
		return fmt.Errorf("bootstrap: create %s: %w", kind, err)
	}

	if err := create("user", func() error {
		_, err := users.CreateUser(ctx, cfg.BootstrapName, cfg.BootstrapEmail, hash)
		return err
	}); err != nil {
		return err
	}
	if err := create("customer", func() error {
		_, err := customers.CreateCustomer(ctx, cfg.BootstrapName, cfg.BootstrapEmail, hash)
		return err
	}); err != nil {
		return err
	}
	return create("seller", func() error {
		_, err := sellers.CreateSeller(ctx, cfg.BootstrapName, cfg.BootstrapEmail, hash)
		return err
	})
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
