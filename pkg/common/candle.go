package common

import (
	"time"

	"github.com/ocho011/ict-2025-sub001/pkg/utility"
	"github.com/ocho011/ict-2025-sub001/pkg/utility/fixed"
)

// Candle is an OHLCV aggregate over a fixed period. Complete is false while
// the period is still forming and true exactly once, on the closing update.
type Candle struct {
	Open   fixed.Point `json:"open"`
	High   fixed.Point `json:"high"`
	Low    fixed.Point `json:"low"`
	Close  fixed.Point `json:"close"`
	Volume fixed.Point `json:"volume"`

	Period   time.Duration `json:"period"`
	OpenTime time.Time     `json:"open_time"`
	Complete bool          `json:"complete"`

	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}
