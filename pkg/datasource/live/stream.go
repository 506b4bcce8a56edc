package live

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ocho011/ict-2025-sub001/pkg/common"
	"github.com/ocho011/ict-2025-sub001/pkg/datasource"
	"github.com/ocho011/ict-2025-sub001/pkg/utility"
	"github.com/ocho011/ict-2025-sub001/pkg/utility/fixed"
)

const streamComponentName = "datasource.live.stream"

// klineMessage mirrors the exchange kline stream payload.
type klineMessage struct {
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Kline     struct {
		StartTime int64  `json:"t"`
		Open      string `json:"o"`
		High      string `json:"h"`
		Low       string `json:"l"`
		Close     string `json:"c"`
		Volume    string `json:"v"`
		Closed    bool   `json:"x"`
	} `json:"k"`
}

// Stream reads a websocket kline feed and forwards every update. A broken
// connection fails the stream; reconnect policy belongs to the supervisor
// that restarts the engine, not here.
type Stream struct {
	logger *zap.Logger
	url    string
	period time.Duration

	mu      sync.Mutex
	conn    *websocket.Conn
	stopped bool
}

func NewStream(logger *zap.Logger, url string, period time.Duration) *Stream {
	return &Stream{
		logger: logger,
		url:    url,
		period: period,
	}
}

func (s *Stream) Start(ctx context.Context, cb datasource.Callback) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("unable to dial %q: %w", s.url, err)
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	s.conn = conn
	s.mu.Unlock()

	// ReadMessage only unblocks when the connection closes underneath it.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	s.logger.Info("kline stream connected", zap.String("url", s.url))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || s.isStopped() {
				return nil
			}
			return fmt.Errorf("stream read failed: %w", err)
		}

		var msg klineMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			s.logger.Warn("unmarshal failed",
				zap.ByteString("raw", message),
				zap.Error(err))
			continue
		}

		candle, err := s.toCandle(msg)
		if err != nil {
			s.logger.Warn("malformed kline dropped",
				zap.String("symbol", msg.Symbol),
				zap.Error(err))
			continue
		}
		cb(ctx, candle)
	}
}

func (s *Stream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

func (s *Stream) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Stream) toCandle(msg klineMessage) (common.Candle, error) {
	open, err := fixed.FromString(msg.Kline.Open)
	if err != nil {
		return common.Candle{}, fmt.Errorf("open: %w", err)
	}
	high, err := fixed.FromString(msg.Kline.High)
	if err != nil {
		return common.Candle{}, fmt.Errorf("high: %w", err)
	}
	low, err := fixed.FromString(msg.Kline.Low)
	if err != nil {
		return common.Candle{}, fmt.Errorf("low: %w", err)
	}
	closePrice, err := fixed.FromString(msg.Kline.Close)
	if err != nil {
		return common.Candle{}, fmt.Errorf("close: %w", err)
	}
	volume, err := fixed.FromString(msg.Kline.Volume)
	if err != nil {
		return common.Candle{}, fmt.Errorf("volume: %w", err)
	}

	return common.Candle{
		Open:        open,
		High:        high,
		Low:         low,
		Close:       closePrice,
		Volume:      volume,
		Period:      s.period,
		OpenTime:    time.UnixMilli(msg.Kline.StartTime),
		Complete:    msg.Kline.Closed,
		Source:      streamComponentName,
		Symbol:      msg.Symbol,
		ExecutionID: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   time.UnixMilli(msg.EventTime),
	}, nil
}
