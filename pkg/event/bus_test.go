package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestBus() *Bus {
	return NewBus(zap.NewNop(),
		WithQueue(QueueConfig{Name: QueueData, Capacity: 100, Policy: DropWithTimeout, EnqueueWait: 20 * time.Millisecond}),
		WithQueue(QueueConfig{Name: QueueSignal, Capacity: 100, Policy: BlockWithTimeout, EnqueueWait: 100 * time.Millisecond}),
		WithQueue(QueueConfig{Name: QueueOrder, Capacity: 50, Policy: BlockNever}))
}

func queueStats(t *testing.T, b *Bus, name string) QueueStatistics {
	t.Helper()
	for _, s := range b.Statistics() {
		if s.Queue == name {
			return s
		}
	}
	t.Fatalf("no statistics for queue %q", name)
	return QueueStatistics{}
}

func TestBus_PublishUnknownQueue(t *testing.T) {
	b := newTestBus()

	err := b.Publish(context.Background(), "bogus", New(CandleClosed, nil, "test"))
	if !errors.Is(err, ErrUnknownQueue) {
		t.Errorf("expected ErrUnknownQueue, got %v", err)
	}
}

func TestBus_SubscriptionOrder(t *testing.T) {
	b := newTestBus()

	var mu sync.Mutex
	var got []string
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("handler-%d", i)
		b.Subscribe(CandleClosed, func(ctx context.Context, ev Event) error {
			mu.Lock()
			got = append(got, name)
			mu.Unlock()
			return nil
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- b.Start(context.Background())
	}()

	if err := b.Publish(context.Background(), QueueData, New(CandleClosed, nil, "test")); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	b.Shutdown(time.Second)
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 5 {
		t.Fatalf("expected 5 handler invocations, got %d", len(got))
	}
	for i, name := range got {
		if expected := fmt.Sprintf("handler-%d", i); name != expected {
			t.Errorf("invocation %d: expected %s, got %s", i, expected, name)
		}
	}
}

func TestBus_ZeroHandlers(t *testing.T) {
	b := newTestBus()

	done := make(chan error, 1)
	go func() {
		done <- b.Start(context.Background())
	}()

	for i := 0; i < 5; i++ {
		if err := b.Publish(context.Background(), QueueData, New(CandleUpdate, nil, "test")); err != nil {
			t.Fatalf("publish %d failed: %v", i, err)
		}
	}

	b.Shutdown(time.Second)
	<-done

	stats := queueStats(t, b, QueueData)
	if stats.Dispatched != 5 {
		t.Errorf("expected dispatched=5, got %d", stats.Dispatched)
	}
	if stats.Failures != 0 {
		t.Errorf("expected failures=0, got %d", stats.Failures)
	}
}

func TestBus_HandlerErrorIsolation(t *testing.T) {
	b := newTestBus()

	var mu sync.Mutex
	var seen int
	b.Subscribe(CandleClosed, func(ctx context.Context, ev Event) error {
		return errors.New("boom")
	})
	b.Subscribe(CandleClosed, func(ctx context.Context, ev Event) error {
		mu.Lock()
		seen++
		mu.Unlock()
		return nil
	})

	done := make(chan error, 1)
	go func() {
		done <- b.Start(context.Background())
	}()

	for i := 0; i < 2; i++ {
		if err := b.Publish(context.Background(), QueueData, New(CandleClosed, nil, "test")); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}

	b.Shutdown(time.Second)
	<-done

	mu.Lock()
	defer mu.Unlock()
	if seen != 2 {
		t.Errorf("expected second handler to see 2 events, got %d", seen)
	}

	stats := queueStats(t, b, QueueData)
	if stats.Failures != 2 {
		t.Errorf("expected failures=2, got %d", stats.Failures)
	}
	if stats.Dispatched != 2 {
		t.Errorf("expected dispatched=2, got %d", stats.Dispatched)
	}
}

func TestBus_HandlerPanicIsolation(t *testing.T) {
	b := newTestBus()

	var mu sync.Mutex
	var seen int
	b.Subscribe(CandleClosed, func(ctx context.Context, ev Event) error {
		panic("handler exploded")
	})
	b.Subscribe(CandleClosed, func(ctx context.Context, ev Event) error {
		mu.Lock()
		seen++
		mu.Unlock()
		return nil
	})

	done := make(chan error, 1)
	go func() {
		done <- b.Start(context.Background())
	}()

	if err := b.Publish(context.Background(), QueueData, New(CandleClosed, nil, "test")); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	b.Shutdown(time.Second)
	<-done

	mu.Lock()
	defer mu.Unlock()
	if seen != 1 {
		t.Errorf("expected second handler to run despite panic, seen=%d", seen)
	}
}

func TestBus_StopTerminatesProcessors(t *testing.T) {
	b := newTestBus()

	done := make(chan error, 1)
	go func() {
		done <- b.Start(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	b.Stop()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("dispatch loops did not terminate after stop")
	}

	if b.State() != StateStopped {
		t.Errorf("expected stopped state, got %v", b.State())
	}
}

func TestBus_StartTwice(t *testing.T) {
	b := newTestBus()

	done := make(chan error, 1)
	go func() {
		done <- b.Start(context.Background())
	}()
	time.Sleep(10 * time.Millisecond)

	if err := b.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}

	b.Shutdown(time.Second)
	<-done
}

func TestBus_ShutdownDrainsBacklog(t *testing.T) {
	b := newTestBus()

	var mu sync.Mutex
	var seen int
	b.Subscribe(CandleClosed, func(ctx context.Context, ev Event) error {
		mu.Lock()
		seen++
		mu.Unlock()
		return nil
	})

	// Backlog accumulates before any dispatch loop runs.
	for i := 0; i < 10; i++ {
		if err := b.Publish(context.Background(), QueueData, New(CandleClosed, nil, "test")); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- b.Start(context.Background())
	}()
	time.Sleep(10 * time.Millisecond)

	b.Shutdown(time.Second)
	<-done

	mu.Lock()
	defer mu.Unlock()
	if seen != 10 {
		t.Errorf("expected all 10 backlogged events dispatched, got %d", seen)
	}

	if q, _ := b.Queue(QueueData); q.Len() != 0 {
		t.Errorf("expected empty queue after drain, got %d", q.Len())
	}
}

func TestBus_ShutdownTimeoutWithSlowHandler(t *testing.T) {
	b := newTestBus()

	b.Subscribe(CandleClosed, func(ctx context.Context, ev Event) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})

	for i := 0; i < 5; i++ {
		if err := b.Publish(context.Background(), QueueData, New(CandleClosed, nil, "test")); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- b.Start(context.Background())
	}()
	time.Sleep(10 * time.Millisecond)

	start := time.Now()
	b.Shutdown(100 * time.Millisecond)
	elapsed := time.Since(start)

	// One drain window per queue plus the hard-cancellation grace, not the
	// full second it would take to work through the backlog.
	if elapsed > 2*time.Second {
		t.Errorf("shutdown took %v, expected bounded duration", elapsed)
	}

	q, _ := b.Queue(QueueData)
	if q.Len() == 0 {
		t.Error("expected undrained events to remain in the queue")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("bus did not stop after shutdown")
	}
}

func TestBus_ShutdownRacesStart(t *testing.T) {
	// Shutdown issued before the Start goroutine has registered its
	// processors must still stop the bus; the request is latched and
	// delivered once the loops exist.
	for i := 0; i < 25; i++ {
		b := newTestBus()

		var mu sync.Mutex
		var seen int
		b.Subscribe(CandleClosed, func(ctx context.Context, ev Event) error {
			mu.Lock()
			seen++
			mu.Unlock()
			return nil
		})

		if err := b.Publish(context.Background(), QueueData, New(CandleClosed, nil, "test")); err != nil {
			t.Fatalf("publish failed: %v", err)
		}

		done := make(chan error, 1)
		go func() {
			done <- b.Start(context.Background())
		}()
		b.Shutdown(time.Second)

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("iteration %d: start did not return after shutdown", i)
		}

		if b.State() != StateStopped {
			t.Fatalf("iteration %d: expected stopped state, got %v", i, b.State())
		}

		mu.Lock()
		if seen != 1 {
			t.Errorf("iteration %d: expected backlogged event dispatched, seen=%d", i, seen)
		}
		mu.Unlock()
	}
}

func TestBus_StopBeforeStart(t *testing.T) {
	b := newTestBus()
	b.Stop()

	done := make(chan error, 1)
	go func() {
		done <- b.Start(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("start did not observe the earlier stop request")
	}
}

func TestBus_IndependentInstances(t *testing.T) {
	b1 := newTestBus()
	b2 := newTestBus()

	var mu sync.Mutex
	var seen1, seen2 int
	b1.Subscribe(CandleClosed, func(ctx context.Context, ev Event) error {
		mu.Lock()
		seen1++
		mu.Unlock()
		return nil
	})
	b2.Subscribe(CandleClosed, func(ctx context.Context, ev Event) error {
		mu.Lock()
		seen2++
		mu.Unlock()
		return nil
	})

	done1 := make(chan error, 1)
	done2 := make(chan error, 1)
	go func() { done1 <- b1.Start(context.Background()) }()
	go func() { done2 <- b2.Start(context.Background()) }()

	if err := b1.Publish(context.Background(), QueueData, New(CandleClosed, nil, "test")); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	b1.Shutdown(time.Second)
	b2.Shutdown(time.Second)
	<-done1
	<-done2

	mu.Lock()
	defer mu.Unlock()
	if seen1 != 1 || seen2 != 0 {
		t.Errorf("expected seen1=1 seen2=0, got %d and %d", seen1, seen2)
	}
}

func TestBus_ConcurrentPublish(t *testing.T) {
	b := newTestBus()

	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 50

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				if err := b.Publish(context.Background(), QueueOrder, New(OrderFilled, nil, "test")); err != nil {
					t.Errorf("publish failed: %v", err)
				}
			}
		}()
	}

	done := make(chan error, 1)
	go func() {
		done <- b.Start(context.Background())
	}()

	wg.Wait()
	b.Shutdown(time.Second)
	<-done

	stats := queueStats(t, b, QueueOrder)
	expected := uint64(numGoroutines * eventsPerGoroutine)
	if stats.Published != expected {
		t.Errorf("expected published=%d, got %d", expected, stats.Published)
	}
	if stats.Dispatched != expected {
		t.Errorf("expected dispatched=%d, got %d", expected, stats.Dispatched)
	}
	if stats.Dropped != 0 {
		t.Errorf("expected dropped=0, got %d", stats.Dropped)
	}
}
