package event

import (
	"context"
	"fmt"
	"time"

	"github.com/ocho011/ict-2025-sub001/pkg/utility"
)

// Type is the closed set of event categories routed by the bus.
type Type uint8

const (
	CandleUpdate Type = iota
	CandleClosed
	SignalGenerated
	OrderPlaced
	OrderFilled
	PositionOpened
	PositionClosed
)

func (t Type) String() string {
	switch t {
	case CandleUpdate:
		return "candle-update"
	case CandleClosed:
		return "candle-closed"
	case SignalGenerated:
		return "signal-generated"
	case OrderPlaced:
		return "order-placed"
	case OrderFilled:
		return "order-filled"
	case PositionOpened:
		return "position-opened"
	case PositionClosed:
		return "position-closed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Event is the immutable envelope routed through the bus. Payload is opaque
// to the bus and must not be mutated by handlers.
type Event struct {
	Type      Type
	Payload   any
	TimeStamp time.Time
	Origin    string
	TraceID   utility.TraceID
}

func New(t Type, payload any, origin string) Event {
	return Event{
		Type:      t,
		Payload:   payload,
		TimeStamp: time.Now(),
		Origin:    origin,
		TraceID:   utility.CreateTraceID(),
	}
}

// Handler consumes one event. A non-nil error is logged by the dispatching
// processor and never aborts delivery to the remaining handlers.
type Handler func(ctx context.Context, ev Event) error
