package exchange

import (
	"context"
	"errors"

	"github.com/ocho011/ict-2025-sub001/pkg/common"
)

// ErrOrderRejected is wrapped by Execute when the venue refuses the order.
// Retry policy, if any, lives inside the client.
var ErrOrderRejected = errors.New("order rejected")

// OrderClient turns a signal into a fill or a typed failure.
type OrderClient interface {
	Execute(ctx context.Context, signal common.Signal) (common.OrderFilled, error)
}
