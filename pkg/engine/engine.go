package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ocho011/ict-2025-sub001/pkg/common"
	"github.com/ocho011/ict-2025-sub001/pkg/datasource"
	"github.com/ocho011/ict-2025-sub001/pkg/event"
	"github.com/ocho011/ict-2025-sub001/pkg/exchange"
	"github.com/ocho011/ict-2025-sub001/pkg/position"
	"github.com/ocho011/ict-2025-sub001/pkg/strategy"
)

const engineComponentName = "engine"

type Config struct {
	// ShutdownTimeout is the per-queue drain window passed to the bus.
	ShutdownTimeout time.Duration

	// SettleDelay is the pause between stopping the data source and shutting
	// the bus down, so a just-published event lands in its queue first.
	SettleDelay time.Duration
}

func (c *Config) applyDefaults() {
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 100 * time.Millisecond
	}
}

// Engine owns the event bus and wires the candle-to-signal-to-order pipeline
// across it. Collaborators are injected via setters so the engine is testable
// without live I/O; a missing collaborator degrades its stage to a logged
// no-op.
type Engine struct {
	logger *zap.Logger
	cfg    Config
	bus    *event.Bus

	source   datasource.Source
	strategy strategy.Strategy
	orders   exchange.OrderClient
	holdings *position.Tracker
}

func New(logger *zap.Logger, cfg Config, bus *event.Bus) *Engine {
	cfg.applyDefaults()

	e := &Engine{
		logger: logger,
		cfg:    cfg,
		bus:    bus,
	}

	bus.Subscribe(event.CandleClosed, e.onCandleClosed)
	bus.Subscribe(event.SignalGenerated, e.onSignalGenerated)
	bus.Subscribe(event.OrderFilled, e.onOrderFilled)

	return e
}

func (e *Engine) SetDataSource(s datasource.Source)     { e.source = s }
func (e *Engine) SetStrategy(s strategy.Strategy)       { e.strategy = s }
func (e *Engine) SetOrderClient(c exchange.OrderClient) { e.orders = c }
func (e *Engine) SetHoldings(t *position.Tracker)       { e.holdings = t }

func (e *Engine) Bus() *event.Bus { return e.bus }

// Run starts the bus and the data source stream, then blocks until ctx is
// cancelled or the source ends. The bus is always shut down on the way out.
func (e *Engine) Run(ctx context.Context) error {
	// The bus deliberately does not inherit the caller's context: an
	// interrupt must stop the producers, not the dispatch loops, or the
	// shutdown drain would have nothing left to run on.
	busCtx, busCancel := context.WithCancel(context.Background())
	defer busCancel()

	busDone := make(chan error, 1)
	go func() {
		busDone <- e.bus.Start(busCtx)
	}()

	srcCtx, srcCancel := context.WithCancel(ctx)
	defer srcCancel()

	var sourceDone chan error
	if e.source != nil {
		sourceDone = make(chan error, 1)
		go func() {
			sourceDone <- e.source.Start(srcCtx, e.onMarketData)
		}()
	} else {
		e.logger.Warn("no data source configured, engine is idle until stopped")
	}

	defer e.shutdown(busDone)

	select {
	case <-ctx.Done():
		e.logger.Info("engine interrupted")
		return ctx.Err()
	case err := <-sourceDone:
		if err != nil && !errors.Is(err, datasource.ErrEof) && !errors.Is(err, context.Canceled) {
			e.logger.Error("data source failed", zap.Error(err))
			return fmt.Errorf("data source: %w", err)
		}
		e.logger.Info("data source finished")
		return nil
	case err := <-busDone:
		// The bus only exits on its own if something stopped it underneath
		// us. Hand the result back so the deferred shutdown sees it instead
		// of waiting out its timeout on an already-finished bus.
		busDone <- err
		return err
	}
}

func (e *Engine) shutdown(busDone <-chan error) {
	if e.source != nil {
		e.source.Stop()
	}
	time.Sleep(e.cfg.SettleDelay)

	e.bus.Shutdown(e.cfg.ShutdownTimeout)
	select {
	case <-busDone:
	case <-time.After(e.cfg.ShutdownTimeout):
	}
	e.bus.PrintStatistics()
}

// onMarketData classifies every source update into the two candle event
// types and publishes it on the data queue.
func (e *Engine) onMarketData(ctx context.Context, candle common.Candle) {
	t := event.CandleUpdate
	if candle.Complete {
		t = event.CandleClosed
	}
	if err := e.bus.Publish(ctx, event.QueueData, event.New(t, candle, candle.Source)); err != nil {
		e.logger.Warn("unable to publish candle",
			zap.Stringer("event_type", t),
			zap.String("symbol", candle.Symbol),
			zap.Error(err))
	}
}

func (e *Engine) onCandleClosed(ctx context.Context, ev event.Event) error {
	candle, ok := ev.Payload.(common.Candle)
	if !ok {
		return fmt.Errorf("invalid payload type %T for candle closed event", ev.Payload)
	}

	if e.strategy == nil {
		e.logger.Debug("no strategy configured, candle ignored",
			zap.String("symbol", candle.Symbol))
		return nil
	}

	signal, err := e.strategy.Analyze(ctx, candle)
	if err != nil {
		return fmt.Errorf("strategy %s: %w", e.strategy.Name(), err)
	}
	if signal == nil {
		return nil
	}

	e.logger.Info("signal generated",
		zap.String("strategy", e.strategy.Name()),
		zap.String("symbol", signal.Symbol),
		zap.Stringer("entry", signal.Entry),
		zap.Stringer("target", signal.Target),
		zap.Uint8("strength", signal.Strength))

	return e.bus.Publish(ctx, event.QueueSignal,
		event.New(event.SignalGenerated, *signal, engineComponentName))
}

func (e *Engine) onSignalGenerated(ctx context.Context, ev event.Event) error {
	signal, ok := ev.Payload.(common.Signal)
	if !ok {
		return fmt.Errorf("invalid payload type %T for signal generated event", ev.Payload)
	}

	if e.orders == nil {
		e.logger.Debug("no order client configured, signal ignored",
			zap.String("symbol", signal.Symbol))
		return nil
	}

	fill, err := e.orders.Execute(ctx, signal)
	if err != nil {
		// Processed but failed. The client owns retries, so the outcome is
		// logged and the signal is done with.
		e.logger.Warn("order execution failed",
			zap.String("symbol", signal.Symbol),
			zap.Uint64("trace_id", signal.TraceID),
			zap.Error(err))
		return nil
	}

	e.logger.Info("order executed",
		zap.String("symbol", fill.OriginalOrder.Symbol),
		zap.Stringer("side", fill.OriginalOrder.Side),
		zap.Stringer("fill_price", fill.FillPrice),
		zap.Int64("position_id", fill.PositionID))

	return e.bus.Publish(ctx, event.QueueOrder,
		event.New(event.OrderFilled, fill, engineComponentName))
}

func (e *Engine) onOrderFilled(ctx context.Context, ev event.Event) error {
	fill, ok := ev.Payload.(common.OrderFilled)
	if !ok {
		return fmt.Errorf("invalid payload type %T for order filled event", ev.Payload)
	}

	e.logger.Info("order fill acknowledged",
		zap.String("symbol", fill.OriginalOrder.Symbol),
		zap.Int64("position_id", fill.PositionID),
		zap.Uint64("trace_id", fill.TraceID))

	if e.holdings == nil {
		return nil
	}

	opened := e.holdings.OnOrderFilled(fill)
	return e.bus.Publish(ctx, event.QueueOrder,
		event.New(event.PositionOpened, opened, engineComponentName))
}
