package common

import (
	"time"

	"github.com/ocho011/ict-2025-sub001/pkg/utility"
	"github.com/ocho011/ict-2025-sub001/pkg/utility/fixed"
)

type PositionSide int
type PositionStatus string
type PositionID = int64

const (
	PositionSideLong PositionSide = iota
	PositionSideShort
)

const (
	PositionStatusOpen   PositionStatus = "open"
	PositionStatusClosed PositionStatus = "closed"
)

type Position struct {
	ID          PositionID     `json:"id"`
	Status      PositionStatus `json:"status"`
	Side        PositionSide   `json:"side"`
	Size        fixed.Point    `json:"size"`
	OpenPrice   fixed.Point    `json:"open_price"`
	ClosePrice  fixed.Point    `json:"close_price"`
	OpenTime    time.Time      `json:"open_time"`
	CloseTime   time.Time      `json:"close_time"`
	GrossProfit fixed.Point    `json:"gross_profit"`
	Commissions fixed.Point    `json:"commissions"`

	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}
