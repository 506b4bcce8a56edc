package datasource

import (
	"context"
	"errors"

	"github.com/ocho011/ict-2025-sub001/pkg/common"
)

// ErrEof is returned by a finite source once its data is exhausted.
var ErrEof = errors.New("EOF")

// Callback receives every candle update, complete or not. The consumer
// classifies updates against closes via Candle.Complete.
type Callback func(ctx context.Context, candle common.Candle)

// Source streams candle updates. Start blocks until the stream ends, Stop is
// called, or ctx is cancelled. Stop is safe to call more than once and from
// another goroutine.
type Source interface {
	Start(ctx context.Context, cb Callback) error
	Stop()
}
