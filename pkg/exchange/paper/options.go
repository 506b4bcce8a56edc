package paper

import (
	"time"

	"github.com/ocho011/ict-2025-sub001/pkg/utility/fixed"
)

type Option func(*Client)

// WithSlippage shifts every fill price against the order side by the given
// absolute amount.
func WithSlippage(slippage fixed.Point) Option {
	return func(c *Client) {
		c.slippage = slippage
	}
}

// WithCommissionRate charges the given fraction of the fill notional per
// order.
func WithCommissionRate(rate fixed.Point) Option {
	return func(c *Client) {
		c.commissionRate = rate
	}
}

// WithMinInterval enforces a minimum spacing between consecutive orders.
// Execute sleeps through the remainder of the interval.
func WithMinInterval(interval time.Duration) Option {
	return func(c *Client) {
		c.minInterval = interval
	}
}
