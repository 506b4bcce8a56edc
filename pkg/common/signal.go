package common

import (
	"time"

	"github.com/ocho011/ict-2025-sub001/pkg/utility"
	"github.com/ocho011/ict-2025-sub001/pkg/utility/fixed"
)

// Signal is a trade proposal produced by a strategy. Direction is implied by
// the relation of Target to Entry.
type Signal struct {
	Source      string              `json:"source,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
	Entry       fixed.Point         `json:"entry"`
	Target      fixed.Point         `json:"target"`
	Size        fixed.Point         `json:"size,omitempty"`
	Strength    uint8               `json:"strength,omitempty"`
	Comment     string              `json:"comment,omitempty"`
}
