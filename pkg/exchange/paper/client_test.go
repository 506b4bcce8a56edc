package paper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ocho011/ict-2025-sub001/pkg/common"
	"github.com/ocho011/ict-2025-sub001/pkg/exchange"
	"github.com/ocho011/ict-2025-sub001/pkg/utility/fixed"
)

func testSignal(entry, target float64) common.Signal {
	return common.Signal{
		Symbol:    "BTCUSDT",
		Entry:     fixed.FromFloat64(entry),
		Target:    fixed.FromFloat64(target),
		Size:      fixed.One,
		TimeStamp: time.Now(),
	}
}

func TestClient_BuyFillWithSlippage(t *testing.T) {
	c := NewClient(zap.NewNop(), WithSlippage(fixed.FromFloat64(0.5)))

	fill, err := c.Execute(context.Background(), testSignal(100, 105))
	require.NoError(t, err)

	assert.Equal(t, common.OrderSideBuy, fill.OriginalOrder.Side)
	assert.True(t, fill.FillPrice.Eq(fixed.FromFloat64(100.5)), "buy fills above entry")
	assert.Equal(t, common.PositionID(1), fill.PositionID)
}

func TestClient_SellFillWithSlippage(t *testing.T) {
	c := NewClient(zap.NewNop(), WithSlippage(fixed.FromFloat64(0.5)))

	fill, err := c.Execute(context.Background(), testSignal(100, 95))
	require.NoError(t, err)

	assert.Equal(t, common.OrderSideSell, fill.OriginalOrder.Side)
	assert.True(t, fill.FillPrice.Eq(fixed.FromFloat64(99.5)), "sell fills below entry")
}

func TestClient_Commission(t *testing.T) {
	c := NewClient(zap.NewNop(), WithCommissionRate(fixed.MustFromString("0.001")))

	fill, err := c.Execute(context.Background(), testSignal(100, 105))
	require.NoError(t, err)

	assert.True(t, fill.Commission.Eq(fixed.MustFromString("0.1")),
		"expected 0.1, got %v", fill.Commission)
}

func TestClient_RejectsEmptySignal(t *testing.T) {
	c := NewClient(zap.NewNop())

	_, err := c.Execute(context.Background(), common.Signal{Size: fixed.One})
	assert.ErrorIs(t, err, exchange.ErrOrderRejected)

	_, err = c.Execute(context.Background(), common.Signal{Entry: fixed.FromFloat64(100)})
	assert.ErrorIs(t, err, exchange.ErrOrderRejected)
}

func TestClient_PacesConsecutiveOrders(t *testing.T) {
	c := NewClient(zap.NewNop(), WithMinInterval(100*time.Millisecond))

	start := time.Now()
	_, err := c.Execute(context.Background(), testSignal(100, 105))
	require.NoError(t, err)
	_, err = c.Execute(context.Background(), testSignal(100, 105))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestClient_PaceObservesContext(t *testing.T) {
	c := NewClient(zap.NewNop(), WithMinInterval(5*time.Second))

	_, err := c.Execute(context.Background(), testSignal(100, 105))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.Execute(ctx, testSignal(100, 105))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_SequentialPositionIDs(t *testing.T) {
	c := NewClient(zap.NewNop())

	for i := 1; i <= 3; i++ {
		fill, err := c.Execute(context.Background(), testSignal(100, 105))
		require.NoError(t, err)
		assert.Equal(t, common.PositionID(i), fill.PositionID)
	}
}
