package event

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// processor is the single dispatch loop draining one queue. Handlers for one
// event run sequentially in subscription order; a handler failure or panic is
// logged and never aborts the remaining handlers or the remaining events.
type processor struct {
	logger *zap.Logger
	bus    *Bus
	queue  *Queue

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}

	dispatched atomic.Uint64
	failures   atomic.Uint64
}

func newProcessor(logger *zap.Logger, b *Bus, q *Queue) *processor {
	return &processor{
		logger: logger,
		bus:    b,
		queue:  q,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// requestStop tells the loop to drain its backlog and exit. Idempotent.
// Queues are stopped one at a time, in declaration order, so an upstream
// handler that publishes downstream during its drain still has a live
// consumer there.
func (p *processor) requestStop() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
}

func (p *processor) run(ctx context.Context) {
	defer close(p.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			p.drain(ctx)
			return
		case ev := <-p.queue.events:
			p.dispatch(ctx, ev)
		}
	}
}

// drain keeps dispatching until the queue is momentarily empty. Producers are
// expected to have stopped by now; whatever is still buffered gets its chance
// before the drain window closes on this loop.
func (p *processor) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.queue.events:
			p.dispatch(ctx, ev)
		default:
			return
		}
	}
}

func (p *processor) dispatch(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			p.failures.Add(1)
			p.logger.Error("dispatch loop fault",
				zap.String("queue", p.queue.name),
				zap.Stringer("event_type", ev.Type),
				zap.Any("panic", r))
		}
	}()

	handlers := p.bus.handlersFor(ev.Type)
	if len(handlers) == 0 {
		p.logger.Debug("no handlers for event",
			zap.String("queue", p.queue.name),
			zap.Stringer("event_type", ev.Type))
		p.dispatched.Add(1)
		return
	}

	for idx, handler := range handlers {
		p.invoke(ctx, idx, handler, ev)
	}
	p.dispatched.Add(1)
}

func (p *processor) invoke(ctx context.Context, idx int, handler Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			p.failures.Add(1)
			p.logger.Error("handler panicked",
				zap.String("queue", p.queue.name),
				zap.Stringer("event_type", ev.Type),
				zap.String("origin", ev.Origin),
				zap.Int("handler", idx),
				zap.Any("panic", r))
		}
	}()

	if err := handler(ctx, ev); err != nil {
		p.failures.Add(1)
		p.logger.Error("handler failed",
			zap.String("queue", p.queue.name),
			zap.Stringer("event_type", ev.Type),
			zap.String("origin", ev.Origin),
			zap.Int("handler", idx),
			zap.Error(err))
	}
}
