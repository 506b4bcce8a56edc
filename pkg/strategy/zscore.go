package strategy

import (
	"context"
	"fmt"

	"github.com/ocho011/ict-2025-sub001/pkg/common"
	"github.com/ocho011/ict-2025-sub001/pkg/utility"
	"github.com/ocho011/ict-2025-sub001/pkg/utility/fixed"
)

const zScoreComponentName = "strategy.zscore"

// ZScore is a mean-reversion strategy. Once the close window is full it
// signals whenever the latest close deviates from the window mean by at least
// threshold standard deviations, targeting the mean.
type ZScore struct {
	symbol    string
	threshold fixed.Point
	size      fixed.Point
	closes    *fixed.RingBuffer
}

func NewZScore(symbol string, window int, threshold, size fixed.Point) *ZScore {
	return &ZScore{
		symbol:    symbol,
		threshold: threshold,
		size:      size,
		closes:    fixed.NewRingBuffer(window),
	}
}

func (z *ZScore) Name() string {
	return zScoreComponentName
}

func (z *ZScore) Analyze(_ context.Context, candle common.Candle) (*common.Signal, error) {
	if candle.Symbol != z.symbol {
		return nil, nil
	}

	z.closes.Add(candle.Close)
	if !z.closes.IsFull() {
		return nil, nil
	}

	mean := z.closes.Mean()
	stdDev := z.closes.SampleStdDev()
	if stdDev.IsZero() {
		return nil, nil
	}

	score := candle.Close.Sub(mean).Div(stdDev)
	if score.Abs().Lt(z.threshold) {
		return nil, nil
	}

	return &common.Signal{
		Source:      zScoreComponentName,
		Symbol:      candle.Symbol,
		ExecutionID: utility.GetExecutionID(),
		TraceID:     candle.TraceID,
		TimeStamp:   candle.TimeStamp,
		Entry:       candle.Close,
		Target:      mean,
		Size:        z.size,
		Strength:    100,
		Comment:     fmt.Sprintf("z-score: %v", score),
	}, nil
}
