package common

import (
	"time"

	"github.com/ocho011/ict-2025-sub001/pkg/utility"
	"github.com/ocho011/ict-2025-sub001/pkg/utility/fixed"
)

type OrderType int
type OrderSide int

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimit
)

const (
	OrderSideBuy OrderSide = iota
	OrderSideSell
)

func (s OrderSide) String() string {
	if s == OrderSideSell {
		return "sell"
	}
	return "buy"
}

type Order struct {
	Type    OrderType   `json:"type"`
	Side    OrderSide   `json:"side"`
	Price   fixed.Point `json:"price"`
	Size    fixed.Point `json:"size"`
	Comment string      `json:"comment,omitempty"`

	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

type OrderFilled struct {
	OriginalOrder Order       `json:"original_order"`
	FillPrice     fixed.Point `json:"fill_price"`
	Commission    fixed.Point `json:"commission"`
	PositionID    PositionID  `json:"position_id"`

	Source      string              `json:"src,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}
