package position

import (
	"errors"
	"sync"
	"time"

	"github.com/ocho011/ict-2025-sub001/pkg/common"
	"github.com/ocho011/ict-2025-sub001/pkg/utility/fixed"
)

var ErrPosNotFound = errors.New("position is not found")

// Tracker is the in-memory ledger of open positions. Handlers on the order
// queue run sequentially, but the tracker is also read from outside the bus,
// so access is locked.
type Tracker struct {
	mu        sync.RWMutex
	positions []common.Position
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// OnOrderFilled opens a position from a fill and returns it.
func (t *Tracker) OnOrderFilled(fill common.OrderFilled) common.Position {
	side := common.PositionSideLong
	if fill.OriginalOrder.Side == common.OrderSideSell {
		side = common.PositionSideShort
	}

	p := common.Position{
		ID:          fill.PositionID,
		Status:      common.PositionStatusOpen,
		Side:        side,
		Size:        fill.OriginalOrder.Size,
		OpenPrice:   fill.FillPrice,
		OpenTime:    fill.TimeStamp,
		Commissions: fill.Commission,
		Source:      fill.Source,
		Symbol:      fill.OriginalOrder.Symbol,
		ExecutionID: fill.ExecutionID,
		TraceID:     fill.TraceID,
		TimeStamp:   fill.TimeStamp,
	}

	t.mu.Lock()
	t.positions = append(t.positions, p)
	t.mu.Unlock()
	return p
}

// Close removes the position and returns it with close fields populated.
func (t *Tracker) Close(id common.PositionID, price fixed.Point, at time.Time) (common.Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for idx, p := range t.positions {
		if p.ID == id {
			t.positions = append(t.positions[:idx], t.positions[idx+1:]...)
			p.Status = common.PositionStatusClosed
			p.ClosePrice = price
			p.CloseTime = at

			profit := price.Sub(p.OpenPrice).Mul(p.Size)
			if p.Side == common.PositionSideShort {
				profit = profit.Neg()
			}
			p.GrossProfit = profit
			return p, nil
		}
	}
	return common.Position{}, ErrPosNotFound
}

func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.positions)
}

func (t *Tracker) Find(id common.PositionID) (common.Position, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, p := range t.positions {
		if p.ID == id {
			return p, nil
		}
	}
	return common.Position{}, ErrPosNotFound
}

func (t *Tracker) Open() []common.Position {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]common.Position, len(t.positions))
	copy(out, t.positions)
	return out
}
