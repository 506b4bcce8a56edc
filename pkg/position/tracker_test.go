package position

import (
	"errors"
	"testing"
	"time"

	"github.com/ocho011/ict-2025-sub001/pkg/common"
	"github.com/ocho011/ict-2025-sub001/pkg/utility/fixed"
)

func testFill(id common.PositionID, side common.OrderSide, price, size float64) common.OrderFilled {
	return common.OrderFilled{
		OriginalOrder: common.Order{
			Side:   side,
			Size:   fixed.FromFloat64(size),
			Symbol: "BTCUSDT",
		},
		FillPrice:  fixed.FromFloat64(price),
		PositionID: id,
		TimeStamp:  time.Now(),
	}
}

func TestTrackerOpensFromFill(t *testing.T) {
	tracker := NewTracker()

	p := tracker.OnOrderFilled(testFill(1, common.OrderSideBuy, 100, 2))

	if p.Status != common.PositionStatusOpen {
		t.Errorf("expected open status, got %v", p.Status)
	}
	if p.Side != common.PositionSideLong {
		t.Errorf("expected long side, got %v", p.Side)
	}
	if tracker.Count() != 1 {
		t.Errorf("expected 1 position, got %d", tracker.Count())
	}

	found, err := tracker.Find(1)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if !found.OpenPrice.Eq(fixed.FromFloat64(100)) {
		t.Errorf("unexpected open price %v", found.OpenPrice)
	}
}

func TestTrackerShortSide(t *testing.T) {
	tracker := NewTracker()

	p := tracker.OnOrderFilled(testFill(1, common.OrderSideSell, 100, 1))
	if p.Side != common.PositionSideShort {
		t.Errorf("expected short side, got %v", p.Side)
	}
}

func TestTrackerCloseLongProfit(t *testing.T) {
	tracker := NewTracker()
	tracker.OnOrderFilled(testFill(1, common.OrderSideBuy, 100, 2))

	closed, err := tracker.Close(1, fixed.FromFloat64(110), time.Now())
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if closed.Status != common.PositionStatusClosed {
		t.Errorf("expected closed status, got %v", closed.Status)
	}
	if !closed.GrossProfit.Eq(fixed.FromFloat64(20)) {
		t.Errorf("expected profit 20, got %v", closed.GrossProfit)
	}
	if tracker.Count() != 0 {
		t.Errorf("expected position removed, count is %d", tracker.Count())
	}
}

func TestTrackerCloseShortProfit(t *testing.T) {
	tracker := NewTracker()
	tracker.OnOrderFilled(testFill(1, common.OrderSideSell, 100, 2))

	closed, err := tracker.Close(1, fixed.FromFloat64(90), time.Now())
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !closed.GrossProfit.Eq(fixed.FromFloat64(20)) {
		t.Errorf("expected profit 20, got %v", closed.GrossProfit)
	}
}

func TestTrackerCloseUnknown(t *testing.T) {
	tracker := NewTracker()

	if _, err := tracker.Close(42, fixed.FromFloat64(100), time.Now()); !errors.Is(err, ErrPosNotFound) {
		t.Errorf("expected ErrPosNotFound, got %v", err)
	}
	if _, err := tracker.Find(42); !errors.Is(err, ErrPosNotFound) {
		t.Errorf("expected ErrPosNotFound, got %v", err)
	}
}

func TestTrackerOpenSnapshot(t *testing.T) {
	tracker := NewTracker()
	tracker.OnOrderFilled(testFill(1, common.OrderSideBuy, 100, 1))
	tracker.OnOrderFilled(testFill(2, common.OrderSideBuy, 101, 1))

	open := tracker.Open()
	if len(open) != 2 {
		t.Fatalf("expected 2 open positions, got %d", len(open))
	}

	open[0].ID = 99
	if found, _ := tracker.Find(1); found.ID != 1 {
		t.Error("snapshot mutation leaked into tracker")
	}
}
