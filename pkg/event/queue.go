package event

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// OverflowPolicy decides what Publish does when the queue is full.
type OverflowPolicy int

const (
	// DropWithTimeout waits up to EnqueueWait for space, then drops the
	// event, counts it and returns nil. For high-frequency market data.
	DropWithTimeout OverflowPolicy = iota

	// BlockWithTimeout waits up to EnqueueWait for space, then returns
	// ErrPublishTimeout so the producer sees the backpressure.
	BlockWithTimeout

	// BlockNever blocks until space is available. Never drops and never
	// returns a timeout; a stalled publisher logs a warning every
	// StallWarning interval. The publisher's context is the only way out.
	BlockNever
)

func (p OverflowPolicy) String() string {
	switch p {
	case DropWithTimeout:
		return "drop-with-timeout"
	case BlockWithTimeout:
		return "block-with-timeout"
	case BlockNever:
		return "block-never"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

type QueueConfig struct {
	Name         string
	Capacity     int
	Policy       OverflowPolicy
	EnqueueWait  time.Duration
	StallWarning time.Duration
}

const defaultStallWarning = 30 * time.Second

// Queue is a named, bounded event buffer. Capacity and policy are fixed at
// construction. Safe for concurrent enqueue alongside a single dequeuer.
type Queue struct {
	name         string
	policy       OverflowPolicy
	enqueueWait  time.Duration
	stallWarning time.Duration
	logger       *zap.Logger

	events chan Event

	published atomic.Uint64
	dropped   atomic.Uint64
}

func newQueue(logger *zap.Logger, cfg QueueConfig) *Queue {
	if cfg.Capacity <= 0 {
		panic(fmt.Sprintf("queue %q: capacity must be positive", cfg.Name))
	}
	stall := cfg.StallWarning
	if stall <= 0 {
		stall = defaultStallWarning
	}
	return &Queue{
		name:         cfg.Name,
		policy:       cfg.Policy,
		enqueueWait:  cfg.EnqueueWait,
		stallWarning: stall,
		logger:       logger,
		events:       make(chan Event, cfg.Capacity),
	}
}

func (q *Queue) Name() string           { return q.name }
func (q *Queue) Capacity() int          { return cap(q.events) }
func (q *Queue) Len() int               { return len(q.events) }
func (q *Queue) Policy() OverflowPolicy { return q.policy }
func (q *Queue) Published() uint64      { return q.published.Load() }
func (q *Queue) Dropped() uint64        { return q.dropped.Load() }

func (q *Queue) enqueue(ctx context.Context, ev Event) error {
	select {
	case q.events <- ev:
		q.published.Add(1)
		return nil
	default:
	}

	switch q.policy {
	case DropWithTimeout:
		timer := time.NewTimer(q.enqueueWait)
		defer timer.Stop()
		select {
		case q.events <- ev:
			q.published.Add(1)
			return nil
		case <-timer.C:
			q.dropped.Add(1)
			q.logger.Debug("queue full, event dropped",
				zap.String("queue", q.name),
				zap.Stringer("event_type", ev.Type),
				zap.Uint64("dropped_total", q.dropped.Load()))
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}

	case BlockWithTimeout:
		timer := time.NewTimer(q.enqueueWait)
		defer timer.Stop()
		select {
		case q.events <- ev:
			q.published.Add(1)
			return nil
		case <-timer.C:
			return fmt.Errorf("queue %q: %w after %v", q.name, ErrPublishTimeout, q.enqueueWait)
		case <-ctx.Done():
			return ctx.Err()
		}

	case BlockNever:
		stall := time.NewTicker(q.stallWarning)
		defer stall.Stop()
		for {
			select {
			case q.events <- ev:
				q.published.Add(1)
				return nil
			case <-stall.C:
				q.logger.Warn("publisher stalled on full queue",
					zap.String("queue", q.name),
					zap.Stringer("event_type", ev.Type),
					zap.Int("backlog", len(q.events)))
			case <-ctx.Done():
				return ctx.Err()
			}
		}

	default:
		return fmt.Errorf("queue %q: unsupported overflow policy %v", q.name, q.policy)
	}
}
