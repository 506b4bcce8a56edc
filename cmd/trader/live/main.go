package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ocho011/ict-2025-sub001/internal/dbg"
	"github.com/ocho011/ict-2025-sub001/pkg/datasource/live"
	"github.com/ocho011/ict-2025-sub001/pkg/engine"
	"github.com/ocho011/ict-2025-sub001/pkg/event"
	"github.com/ocho011/ict-2025-sub001/pkg/exchange/paper"
	"github.com/ocho011/ict-2025-sub001/pkg/position"
	"github.com/ocho011/ict-2025-sub001/pkg/strategy"
	"github.com/ocho011/ict-2025-sub001/pkg/utility/fixed"
)

func main() {
	logger := dbg.NewProdLogger()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	logger.Info("trader started", zap.String("environment", "live"), zap.String("symbol", Symbol))
	defer logger.Info("trader finished")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bus := event.NewBus(logger)
	holdings := position.NewTracker()

	// Live market data, paper execution. A real venue client slots in behind
	// the same OrderClient contract.
	e := engine.New(logger, engine.Config{ShutdownTimeout: ShutdownTimeout}, bus)
	e.SetDataSource(live.NewStream(logger, StreamURL, CandlePeriod))
	e.SetStrategy(strategy.NewZScore(
		Symbol,
		StrategyWindow,
		fixed.FromInt(SignalThreshold, 0),
		fixed.MustFromString(OrderSize)))
	e.SetOrderClient(paper.NewClient(logger,
		paper.WithMinInterval(OrderMinInterval),
		paper.WithCommissionRate(fixed.MustFromString(CommissionRate))))
	e.SetHoldings(holdings)

	if err := e.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("engine failed", zap.Error(err))
	}

	logger.Info("open positions at exit", zap.Int("count", holdings.Count()))
}
