package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go-bank-ledger/card"
	"go-bank-ledger/config"
	"go-bank-ledger/engine"
	"go-bank-ledger/handler"
	"go-bank-ledger/loan"
	"go-bank-ledger/marketdata"
	"go-bank-ledger/portfolio"
	"go-bank-ledger/storage"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			// Setup signal handling for graceful shutdown
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func openStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (storage.Store, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn("using in-memory store, data is lost on exit")
		return storage.NewMemoryStore(), nil
	}
	store, err := storage.NewPostgresStore(ctx, cfg.Database.URL, cfg.Database.ConnectRetries)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(cfg.Database.URL); err != nil {
		store.Close()
		return nil, err
	}
	log.Info("database connection established and schema migrated")
	return store, nil
}

// startFeeds starts a poller per configured price endpoint.
func startFeeds(ctx context.Context, cfg config.MarketDataConfig, log logrus.FieldLogger) marketdata.MultiFeed {
	var feeds marketdata.MultiFeed
	add := func(name, url string, interval time.Duration) {
		if url == "" {
			return
		}
		p := marketdata.NewPoller(name, marketdata.NewHTTPSource(url, cfg.Timeout), interval, log)
		go p.Run(ctx)
		feeds = append(feeds, p)
		log.WithFields(logrus.Fields{"feed": name, "interval": interval}).Info("price feed started")
	}
	add("crypto", cfg.CryptoURL, cfg.CryptoInterval)
	add("equities", cfg.EquitiesURL, cfg.EquitiesInterval)
	return feeds
}

func serve(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	e := engine.New(store, engine.WithLogger(log), engine.WithMaxRetries(cfg.Engine.MaxRetries))

	currency, _ := cfg.TreasuryCurrency()
	opening, _ := cfg.OpeningBalance()
	treasury, err := e.EnsureTreasury(ctx, cfg.Treasury.AccountNumber, currency, opening)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"account": treasury.AccountNumber, "currency": treasury.Currency}).Info("treasury ready")

	base, rates, _ := cfg.Rates()
	table, err := marketdata.NewRateTable(base, rates)
	if err != nil {
		return err
	}
	feeds := startFeeds(ctx, cfg.MarketData, log)

	router := handler.NewRouter(handler.Services{
		Ledger:    e,
		Loans:     loan.NewManager(e, log),
		Portfolio: portfolio.NewManager(e, feeds, table, log),
		Cards:     card.NewService(e, log),
		Feed:      feeds,
	}, log)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal
	select {
	case err := <-errCh:
		return fmt.Errorf("listen error: %w", err)
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("server gracefully stopped")
	return nil
}
