package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"crypto-convert-bot/internal/api"
	"crypto-convert-bot/internal/bot"
	"crypto-convert-bot/internal/config"
	"crypto-convert-bot/internal/convert"
	"crypto-convert-bot/internal/logging"
	"crypto-convert-bot/internal/market"
	"crypto-convert-bot/internal/metrics"
	"crypto-convert-bot/internal/push/telegram"
	"crypto-convert-bot/internal/symbols"
)

func main() {
	configPath := flag.String("config", "configs/app.yaml", "path to the YAML config")
	envPath := flag.String("env", ".env", "optional .env file")
	flag.Parse()

	if err := config.LoadDotEnv(*envPath); err != nil {
		logrus.WithError(err).Debug("no env file loaded, using process environment")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		logrus.Fatalf("logging error: %v", err)
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("bot stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	syms, err := symbols.Default()
	if err != nil {
		return fmt.Errorf("load symbol tables: %w", err)
	}
	loc, err := cfg.Bot.Location()
	if err != nil {
		return err
	}

	coinbase := market.NewCoinbaseProvider(market.ClientConfig{
		BaseURL:            cfg.Market.Coinbase.BaseURL,
		UserAgent:          cfg.Market.Coinbase.UserAgent,
		Timeout:            cfg.Market.Coinbase.Timeout(),
		InsecureSkipVerify: cfg.Market.Coinbase.InsecureSkipVerify,
	}, m)
	gecko := market.NewCoinGeckoProvider(market.ClientConfig{
		BaseURL:            cfg.Market.CoinGecko.BaseURL,
		APIKey:             cfg.Market.CoinGecko.APIKey,
		Timeout:            cfg.Market.CoinGecko.Timeout(),
		InsecureSkipVerify: cfg.Market.CoinGecko.InsecureSkipVerify,
	}, m)

	rates := market.NewRateResolver(coinbase, cfg.Market.Coinbase.Timeout(), log)
	changes := market.NewChangeTracker(syms, gecko, cfg.Market.CoinGecko.Timeout(), log)
	snaps := market.NewSnapshots(gecko, cfg.Market.CoinGecko.Timeout(), log)
	conv := convert.NewService(rates, changes, syms, loc, log)

	tg, err := telegram.NewClient(telegram.Config{
		Token:       cfg.Bot.Token,
		PollTimeout: cfg.Bot.PollTimeout(),
	}, log)
	if err != nil {
		return err
	}
	identity := tg.Identity()
	log.Infof("bot is running as @%s", identity.Username)

	handler := bot.NewHandler(tg, conv, snaps, bot.Options{
		Identity:     identity,
		ExpireAfter:  cfg.Bot.SnapshotTTL(),
		BugReportURL: cfg.Bot.BugReportURL,
		HelpFooter:   cfg.Bot.HelpFooter,
		Metrics:      m,
		Logger:       log,
	})
	defer handler.Close()
	tg.Register(handler)

	var h *server.Hertz
	if cfg.Server.Enabled {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		h = server.Default(server.WithHostPorts(addr))
		api.RegisterRoutes(h, api.Deps{
			Converter: conv,
			Snapshots: snaps,
			Gatherer:  reg,
			BotName:   identity.Username,
			Logger:    log,
		})
		go func() {
			log.Infof("ops server starting on %s", addr)
			if err := h.Run(); err != nil {
				log.WithError(err).Error("ops server stopped")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go tg.Start()
	log.Info("bot launched and running")

	<-ctx.Done()
	log.Info("shutting down")
	tg.Stop()
	if h != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("ops server shutdown")
		}
	}
	return nil
}
