package synthetic

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/ocho011/ict-2025-sub001/pkg/common"
	"github.com/ocho011/ict-2025-sub001/pkg/datasource"
	"github.com/ocho011/ict-2025-sub001/pkg/utility"
	"github.com/ocho011/ict-2025-sub001/pkg/utility/fixed"
)

const generatorComponentName = "datasource.synthetic.generator"

// CandleGenerator produces GBM random-walk candles. Each candle is emitted as
// a sequence of incomplete updates followed by one closing update. Injecting
// the rng keeps runs reproducible.
type CandleGenerator struct {
	symbol string
	rng    *rand.Rand

	startTime  time.Time
	startPrice float64
	drift      float64
	volatility float64

	period           time.Duration
	updatesPerCandle int
	candleLimit      int
	pacing           time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewCandleGenerator builds a generator emitting candleLimit candles of the
// given period. A zero pacing emits as fast as the consumer accepts.
func NewCandleGenerator(
	symbol string,
	rng *rand.Rand,
	startTime time.Time,
	startPrice, drift, volatility float64,
	period time.Duration,
	updatesPerCandle, candleLimit int,
	pacing time.Duration) *CandleGenerator {

	if updatesPerCandle < 1 {
		updatesPerCandle = 1
	}

	return &CandleGenerator{
		symbol:           symbol,
		rng:              rng,
		startTime:        startTime,
		startPrice:       startPrice,
		drift:            drift,
		volatility:       volatility,
		period:           period,
		updatesPerCandle: updatesPerCandle,
		candleLimit:      candleLimit,
		pacing:           pacing,
		stopCh:           make(chan struct{}),
	}
}

func (g *CandleGenerator) Start(ctx context.Context, cb datasource.Callback) error {
	price := g.startPrice
	deltaT := 1.0 / float64(g.updatesPerCandle)

	for i := 0; g.candleLimit <= 0 || i < g.candleLimit; i++ {
		openTime := g.startTime.Add(time.Duration(i) * g.period)

		open := price
		high := price
		low := price
		volume := 0.0

		for u := 0; u < g.updatesPerCandle; u++ {
			step := (g.drift-0.5*g.volatility*g.volatility)*deltaT +
				g.volatility*math.Sqrt(deltaT)*g.rng.NormFloat64()
			price *= math.Exp(step)

			high = math.Max(high, price)
			low = math.Min(low, price)
			volume += 10 + 90*g.rng.Float64()

			candle := common.Candle{
				Open:        fixed.FromFloat64(open),
				High:        fixed.FromFloat64(high),
				Low:         fixed.FromFloat64(low),
				Close:       fixed.FromFloat64(price),
				Volume:      fixed.FromFloat64(volume),
				Period:      g.period,
				OpenTime:    openTime,
				Complete:    u == g.updatesPerCandle-1,
				Source:      generatorComponentName,
				Symbol:      g.symbol,
				ExecutionID: utility.GetExecutionID(),
				TraceID:     utility.CreateTraceID(),
				TimeStamp:   openTime.Add(time.Duration(float64(g.period) * deltaT * float64(u+1))),
			}
			cb(ctx, candle)

			stopped, err := g.wait(ctx)
			if err != nil {
				return err
			}
			if stopped {
				return nil
			}
		}
	}

	return datasource.ErrEof
}

func (g *CandleGenerator) Stop() {
	g.stopOnce.Do(func() {
		close(g.stopCh)
	})
}

func (g *CandleGenerator) wait(ctx context.Context) (stopped bool, err error) {
	if g.pacing <= 0 {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-g.stopCh:
			return true, nil
		default:
			return false, nil
		}
	}

	timer := time.NewTimer(g.pacing)
	defer timer.Stop()
	select {
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-g.stopCh:
		return true, nil
	}
}
