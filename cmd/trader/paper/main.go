package main

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ocho011/ict-2025-sub001/internal/dbg"
	"github.com/ocho011/ict-2025-sub001/pkg/datasource/synthetic"
	"github.com/ocho011/ict-2025-sub001/pkg/engine"
	"github.com/ocho011/ict-2025-sub001/pkg/event"
	"github.com/ocho011/ict-2025-sub001/pkg/exchange/paper"
	"github.com/ocho011/ict-2025-sub001/pkg/position"
	"github.com/ocho011/ict-2025-sub001/pkg/strategy"
	"github.com/ocho011/ict-2025-sub001/pkg/utility/fixed"
)

func main() {
	logger := dbg.NewDevLogger()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	logger.Info("trader started", zap.String("environment", "paper"), zap.String("symbol", Symbol))
	defer logger.Info("trader finished")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bus := event.NewBus(logger)
	holdings := position.NewTracker()

	e := engine.New(logger, engine.Config{ShutdownTimeout: ShutdownTimeout}, bus)
	e.SetDataSource(synthetic.NewCandleGenerator(
		Symbol,
		rand.New(rand.NewSource(GeneratorSeed)),
		GeneratorStart,
		StartPrice, Drift, Volatility,
		CandlePeriod,
		GeneratorUpdates, GeneratorCandles,
		GeneratorPacing))
	e.SetStrategy(strategy.NewZScore(
		Symbol,
		StrategyWindow,
		fixed.FromInt(2, 0),
		fixed.MustFromString("0.01")))
	e.SetOrderClient(paper.NewClient(logger))
	e.SetHoldings(holdings)

	if err := e.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("engine failed", zap.Error(err))
	}

	logger.Info("open positions at exit", zap.Int("count", holdings.Count()))
}
