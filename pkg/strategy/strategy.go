package strategy

import (
	"context"

	"github.com/ocho011/ict-2025-sub001/pkg/common"
)

// Strategy maps a closed candle to an optional trade signal. A nil signal
// with a nil error means no trade. Analyze runs inline in the dispatch loop
// and is expected to be fast.
type Strategy interface {
	Name() string
	Analyze(ctx context.Context, candle common.Candle) (*common.Signal, error)
}
