package main

import (
	"context"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/quantghar/paper-trader/internal/config"
	"github.com/quantghar/paper-trader/internal/control"
	"github.com/quantghar/paper-trader/internal/engine"
	"github.com/quantghar/paper-trader/internal/logger"
	"github.com/quantghar/paper-trader/internal/marketdata"
	"github.com/quantghar/paper-trader/internal/portfolio"
	"github.com/quantghar/paper-trader/internal/postgres"
	"github.com/quantghar/paper-trader/internal/server"
	"github.com/quantghar/paper-trader/internal/store"
	"github.com/quantghar/paper-trader/internal/strategy"
	"github.com/quantghar/paper-trader/internal/tradelog"
)

const _cfgFilePath = "./configs/paper-trader.yaml"

func main() {
	zapLogger, loggerSync, err := logger.NewZapLogger(logger.Debug)
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	if err := godotenv.Load(); err != nil {
		zapLogger.Warnf("can't detect .env file")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig(_cfgFilePath)
	if err != nil {
		zapLogger.Fatalf("%s: can't load cfg", err)
	}

	db, err := postgres.NewDB(postgres.NewConfigFromEnv().Setup())
	if err != nil {
		zapLogger.Fatalf("%s: can't connect to postgres", err)
	}

	st, err := store.NewStore(db, zapLogger)
	if err != nil {
		zapLogger.Fatalf("%s: can't init store", err)
	}
	defer st.Close()

	strategies, err := strategy.Build(cfg.Strategies, zapLogger)
	if err != nil {
		zapLogger.Fatalf("%s: can't build strategies", err)
	}

	capitals := make(map[string]float64, len(cfg.Strategies))
	for _, s := range cfg.Strategies {
		capitals[s.Name] = s.Capital
	}

	manager := portfolio.NewManager(st, tradelog.NewLogger(st, zapLogger), capitals, zapLogger)
	if err := manager.Init(ctx); err != nil {
		zapLogger.Fatalf("%s: can't init portfolio manager", err)
	}

	sw := control.NewSwitch(cfg.Engine.ControlFile)
	hb := control.NewHeartbeat(cfg.Engine.HeartbeatFile)

	cache := marketdata.NewBarCache()
	client := marketdata.NewClient(cfg.Provider, zapLogger)
	fetcher := marketdata.NewFetcher(client, cache, sw, cfg.Fetcher, cfg.Instruments(), zapLogger)

	eng := engine.NewEngine(cache, manager, strategies, sw, hb, cfg.Engine, zapLogger)
	httpServer := server.NewHTTPServer(ctx, cfg.Engine.HTTPPort, server.NewStatusHandler(hb))

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		fetcher.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		eng.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := httpServer.Run(ctx); err != nil {
			zapLogger.Errorf("%s: http server stopped", err)
		}
	}()

	zapLogger.Infof("paper trading engine started: %d strategy instances, %d instruments",
		len(strategies), len(cfg.Instruments()))
	wg.Wait()
}
