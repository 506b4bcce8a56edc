package event

import (
	"go.uber.org/zap"
)

type QueueStatistics struct {
	Queue      string
	Capacity   int
	Backlog    int
	Published  uint64
	Dropped    uint64
	Dispatched uint64
	Failures   uint64
}

func (b *Bus) Statistics() []QueueStatistics {
	b.procMu.Lock()
	procs := b.processors
	b.procMu.Unlock()

	dispatched := make(map[string]uint64, len(procs))
	failures := make(map[string]uint64, len(procs))
	for _, p := range procs {
		dispatched[p.queue.name] = p.dispatched.Load()
		failures[p.queue.name] = p.failures.Load()
	}

	stats := make([]QueueStatistics, 0, len(b.queueOrder))
	for _, name := range b.queueOrder {
		q := b.queues[name]
		stats = append(stats, QueueStatistics{
			Queue:      q.name,
			Capacity:   q.Capacity(),
			Backlog:    q.Len(),
			Published:  q.Published(),
			Dropped:    q.Dropped(),
			Dispatched: dispatched[name],
			Failures:   failures[name],
		})
	}
	return stats
}

func (b *Bus) PrintStatistics() {
	for _, s := range b.Statistics() {
		b.logger.Info("queue statistics",
			zap.String("queue", s.Queue),
			zap.Int("capacity", s.Capacity),
			zap.Int("backlog", s.Backlog),
			zap.Uint64("published", s.Published),
			zap.Uint64("dropped", s.Dropped),
			zap.Uint64("dispatched", s.Dispatched),
			zap.Uint64("failures", s.Failures))
	}
}
