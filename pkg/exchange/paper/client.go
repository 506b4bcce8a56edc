package paper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ocho011/ict-2025-sub001/pkg/common"
	"github.com/ocho011/ict-2025-sub001/pkg/exchange"
	"github.com/ocho011/ict-2025-sub001/pkg/utility"
	"github.com/ocho011/ict-2025-sub001/pkg/utility/fixed"
)

const clientComponentName = "exchange.paper.client"

// Client fills every valid signal at its entry price adjusted for slippage.
// It applies its own pacing between orders; retries are deliberately absent.
type Client struct {
	logger *zap.Logger

	slippage       fixed.Point
	commissionRate fixed.Point
	minInterval    time.Duration

	mu          sync.Mutex
	lastOrderAt time.Time
	positionSeq common.PositionID
}

func NewClient(logger *zap.Logger, options ...Option) *Client {
	c := &Client{
		logger:   logger,
		slippage: fixed.Zero,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Client) Execute(ctx context.Context, signal common.Signal) (common.OrderFilled, error) {
	if signal.Entry.IsZero() {
		return common.OrderFilled{}, fmt.Errorf("%w: signal has no entry price", exchange.ErrOrderRejected)
	}
	if signal.Size.IsZero() || signal.Size.Lt(fixed.Zero) {
		return common.OrderFilled{}, fmt.Errorf("%w: signal has no size", exchange.ErrOrderRejected)
	}

	if err := c.pace(ctx); err != nil {
		return common.OrderFilled{}, err
	}

	side := common.OrderSideBuy
	fillPrice := signal.Entry.Add(c.slippage)
	if signal.Target.Lt(signal.Entry) {
		side = common.OrderSideSell
		fillPrice = signal.Entry.Sub(c.slippage)
	}

	now := time.Now()
	order := common.Order{
		Type:        common.OrderTypeMarket,
		Side:        side,
		Price:       signal.Entry,
		Size:        signal.Size,
		Comment:     signal.Comment,
		Source:      clientComponentName,
		Symbol:      signal.Symbol,
		ExecutionID: utility.GetExecutionID(),
		TraceID:     signal.TraceID,
		TimeStamp:   now,
	}

	commission := fixed.Zero
	if !c.commissionRate.IsZero() {
		commission = fillPrice.Mul(order.Size).Mul(c.commissionRate)
	}

	c.mu.Lock()
	c.positionSeq++
	positionID := c.positionSeq
	c.mu.Unlock()

	fill := common.OrderFilled{
		OriginalOrder: order,
		FillPrice:     fillPrice,
		Commission:    commission,
		PositionID:    positionID,
		Source:        clientComponentName,
		ExecutionID:   order.ExecutionID,
		TraceID:       order.TraceID,
		TimeStamp:     now,
	}

	c.logger.Debug("paper fill",
		zap.String("symbol", order.Symbol),
		zap.Stringer("side", order.Side),
		zap.Stringer("fill_price", fill.FillPrice),
		zap.Int64("position_id", fill.PositionID))

	return fill, nil
}

// pace blocks until the minimum interval since the previous order has passed.
func (c *Client) pace(ctx context.Context) error {
	if c.minInterval <= 0 {
		return nil
	}

	c.mu.Lock()
	wait := c.minInterval - time.Since(c.lastOrderAt)
	c.lastOrderAt = time.Now().Add(max(wait, 0))
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
