package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"investra/configs"
	"investra/internal/adapter"
	"investra/internal/prices"
	"investra/internal/session"
	"investra/internal/store"
)

// Terminal client: signs in against the API, keeps the session fresh
// and streams price updates until interrupted.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := godotenv.Load(); err != nil {
		logger.Warn(".env file not found, using environment variables")
	}

	cfg := configs.Load()

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := cfg.Client.DataDir
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(home, dataDir)
	}

	fileStore, err := store.NewFileStore(dataDir)
	if err != nil {
		logger.Fatalf("Failed to open session store: %v", err)
	}

	client := adapter.NewBrokerClient(cfg.Client.BaseURL)
	manager := session.NewManager(client, fileStore, logger)
	defer manager.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, unsubscribe := manager.Subscribe()
	defer unsubscribe()
	go func() {
		for ev := range events {
			switch ev.Type {
			case session.EventAuthChanged:
				if ev.User != nil {
					logger.Infof("Signed in as %s (balance %.2f)", ev.User.Username, ev.User.Balance)
				} else {
					logger.Info("Signed out")
				}
			case session.EventUserUpdated:
				if ev.User != nil {
					logger.Infof("Account updated: balance %.2f, %d activities", ev.User.Balance, len(ev.User.Transactions))
				}
			}
		}
	}()

	// Resume a stored session if one exists, otherwise sign in with the
	// configured credentials.
	if err := manager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to restore session: %v", err)
	}
	if !manager.Snapshot().IsAuthenticated {
		if cfg.Client.Email == "" || cfg.Client.Password == "" {
			logger.Fatal("No stored session and CLIENT_EMAIL/CLIENT_PASSWORD not set")
		}
		if _, err := manager.Login(ctx, cfg.Client.Email, cfg.Client.Password); err != nil {
			logger.Fatalf("Login failed: %v", err)
		}
	}

	// The terminal has no backgrounded state, so both tickers always
	// poll.
	gecko := prices.NewCoinGeckoClient()
	marketTicker := prices.NewMarketTicker(gecko, prices.HeadlineSymbols, nil, logger)
	headlineTicker := prices.NewHeadlineTicker(gecko, nil, logger)
	marketTicker.Start(ctx)
	headlineTicker.Start(ctx)
	defer headlineTicker.Stop()
	defer marketTicker.Stop()

	go func() {
		t := time.NewTicker(prices.MarketPollInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				values, updated := marketTicker.Prices()
				if len(values) == 0 {
					continue
				}
				logger.Infof("Prices (as of %s): %v", updated.Format("15:04:05"), values)
			case <-ctx.Done():
				return
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down terminal...")
	cancel()
}
