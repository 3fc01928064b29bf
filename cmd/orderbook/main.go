package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	match "github.com/0x5487/limit-orderbook"
	"github.com/0x5487/limit-orderbook/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

func main() {
	configFile := flag.String("config", "", "Path to config file (YAML)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, sync, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	match.SetLogger(logger)

	err = run(cfg)
	_ = sync()
	if err != nil {
		logger.Error("order book demo failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (*slog.Logger, func() error, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}

	zapConfig := zap.NewDevelopmentConfig()
	if cfg.Log.Production {
		zapConfig = zap.NewProductionConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, nil, err
	}
	return slog.New(zapslog.NewHandler(zapLogger.Core())), zapLogger.Sync, nil
}

func run(cfg *config.Config) error {
	tick, err := match.NewTickSize(cfg.TickSize)
	if err != nil {
		return err
	}

	metrics, err := match.NewMetricsPublishLog(prometheus.NewRegistry())
	if err != nil {
		return err
	}

	aggregated := match.NewAggregatedBook()
	async := match.NewAsyncPublishLog(cfg.PublishBuffer, aggregated)
	async.Start()

	book := match.NewOrderBook(cfg.MarketID, match.NewMultiPublishLog(metrics, async))
	go func() {
		_ = book.Start()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	orderID := xid.New().String()
	if _, err := book.AddOrder(ctx, match.NewOrder(orderID, match.GoodTillCancel, match.Buy, 100, 10)); err != nil {
		return err
	}

	size, err := book.Size(ctx)
	if err != nil {
		return err
	}
	fmt.Println(size) // 1

	depth, err := book.Depth(ctx, cfg.DepthLimit)
	if err != nil {
		return err
	}
	for _, item := range depth.Bids {
		match.Logger().Info("bid level",
			slog.String("market_id", cfg.MarketID),
			slog.String("price", tick.ToDecimal(item.Price).String()),
			slog.Uint64("size", item.Size),
		)
	}

	if err := book.CancelOrder(ctx, orderID); err != nil {
		return err
	}

	size, err = book.Size(ctx)
	if err != nil {
		return err
	}
	fmt.Println(size) // 0

	if err := book.Shutdown(ctx); err != nil {
		return err
	}
	if err := async.Shutdown(ctx); err != nil {
		return err
	}

	match.Logger().Info("downstream depth replayed",
		slog.Uint64("seq_id", aggregated.SequenceID()),
		slog.Int("bid_levels", len(aggregated.Levels(match.Buy))),
		slog.Int("ask_levels", len(aggregated.Levels(match.Sell))),
	)
	return nil
}
