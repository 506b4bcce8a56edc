package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Queue names instantiated by convention, one per criticality class.
const (
	QueueData   = "data"
	QueueSignal = "signal"
	QueueOrder  = "order"
)

type State int32

const (
	StateStopped State = iota
	StateRunning
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

const processorExitGrace = 500 * time.Millisecond

type Option func(*Bus)

// WithQueue adds a queue or replaces the default configuration of a queue
// with the same name. Only usable at construction time.
func WithQueue(cfg QueueConfig) Option {
	return func(b *Bus) {
		if _, ok := b.queues[cfg.Name]; !ok {
			b.queueOrder = append(b.queueOrder, cfg.Name)
		}
		b.queues[cfg.Name] = newQueue(b.logger, cfg)
	}
}

func defaultQueueConfigs() []QueueConfig {
	return []QueueConfig{
		{Name: QueueData, Capacity: 1000, Policy: DropWithTimeout, EnqueueWait: time.Second},
		{Name: QueueSignal, Capacity: 100, Policy: BlockWithTimeout, EnqueueWait: 5 * time.Second},
		{Name: QueueOrder, Capacity: 50, Policy: BlockNever},
	}
}

// Bus routes events from concurrent producers to subscribed handlers through
// named bounded queues, one dispatch loop per queue. Instances are fully
// independent; there is no package-level bus.
type Bus struct {
	logger *zap.Logger

	mu       sync.RWMutex
	handlers map[Type][]Handler

	queues     map[string]*Queue
	queueOrder []string

	state    atomic.Int32
	stopOnce sync.Once

	procMu        sync.Mutex
	processors    []*processor
	cancel        context.CancelFunc
	stopRequested bool
}

func NewBus(logger *zap.Logger, options ...Option) *Bus {
	b := &Bus{
		logger:   logger,
		handlers: make(map[Type][]Handler),
		queues:   make(map[string]*Queue),
	}

	for _, cfg := range defaultQueueConfigs() {
		WithQueue(cfg)(b)
	}
	for _, option := range options {
		option(b)
	}

	return b
}

func (b *Bus) State() State {
	return State(b.state.Load())
}

// Queue returns the named queue for inspection of its counters.
func (b *Bus) Queue(name string) (*Queue, bool) {
	q, ok := b.queues[name]
	return q, ok
}

// Subscribe appends handler to the list for t. Execution order equals
// subscription order and duplicates are allowed. There is no unsubscribe.
func (b *Bus) Subscribe(t Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], handler)
}

func (b *Bus) handlersFor(t Type) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.handlers[t]
}

// Publish enqueues ev on the named queue, applying that queue's overflow
// policy. Safe to call from arbitrarily many goroutines.
func (b *Bus) Publish(ctx context.Context, queueName string, ev Event) error {
	q, ok := b.queues[queueName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownQueue, queueName)
	}
	return q.enqueue(ctx, ev)
}

// Start spawns one dispatch loop per queue and blocks until every loop has
// exited, which happens after Stop or Shutdown, or when ctx is cancelled.
func (b *Bus) Start(ctx context.Context) error {
	if !b.state.CompareAndSwap(int32(StateStopped), int32(StateRunning)) {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)

	b.procMu.Lock()
	b.cancel = cancel
	b.processors = b.processors[:0]
	for _, name := range b.queueOrder {
		b.processors = append(b.processors, newProcessor(b.logger, b, b.queues[name]))
	}
	procs := b.processors
	stopPending := b.stopRequested
	b.procMu.Unlock()

	// A Stop or Shutdown issued before the processors were registered has
	// nothing to signal; it latches the request instead, and Start delivers
	// it here so the loops drain and exit rather than running unstoppable.
	if stopPending {
		for _, p := range procs {
			p.requestStop()
		}
	}

	b.logger.Info("event bus started", zap.Int("queues", len(procs)))

	var wg sync.WaitGroup
	for _, p := range procs {
		wg.Add(1)
		go func(p *processor) {
			defer wg.Done()
			p.run(runCtx)
		}(p)
	}
	wg.Wait()

	cancel()
	b.state.Store(int32(StateStopped))
	b.logger.Info("event bus stopped")
	return ctx.Err()
}

// Stop signals every dispatch loop to drain its backlog and exit. It does not
// wait for that to happen.
func (b *Bus) Stop() {
	b.stopOnce.Do(func() {
		b.state.CompareAndSwap(int32(StateRunning), int32(StateDraining))
		b.procMu.Lock()
		b.stopRequested = true
		procs := b.processors
		b.procMu.Unlock()
		for _, p := range procs {
			p.requestStop()
		}
		b.logger.Info("event bus stop requested")
	})
}

// Shutdown stops the queues one at a time, in declaration order, giving each
// up to timeout to drain. Stopping sequentially keeps downstream queues
// consuming while an upstream drain republishes into them. A queue that
// misses its window is logged with its backlog size and abandoned; any
// dispatch loop still alive afterwards is hard-cancelled. Worst case duration
// is roughly timeout times the number of queues.
func (b *Bus) Shutdown(timeout time.Duration) {
	b.state.CompareAndSwap(int32(StateRunning), int32(StateDraining))

	b.procMu.Lock()
	b.stopRequested = true
	procs := b.processors
	cancel := b.cancel
	b.procMu.Unlock()

	for _, p := range procs {
		p.requestStop()
		select {
		case <-p.done:
		case <-time.After(timeout):
			b.logger.Warn("queue drain timed out",
				zap.String("queue", p.queue.name),
				zap.Int("undrained", p.queue.Len()),
				zap.Duration("timeout", timeout))
		}
	}

	if cancel != nil {
		cancel()
	}
	for _, p := range procs {
		select {
		case <-p.done:
		case <-time.After(processorExitGrace):
			b.logger.Error("dispatch loop did not exit after cancellation",
				zap.String("queue", p.queue.name))
		}
	}
}
