package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/ocho011/ict-2025-sub001/pkg/common"
	"github.com/ocho011/ict-2025-sub001/pkg/datasource"
	"github.com/ocho011/ict-2025-sub001/pkg/utility"
	"github.com/ocho011/ict-2025-sub001/pkg/utility/fixed"
)

const sourceComponentName = "datasource.duckdb.source"

// Source replays recorded candles from a DuckDB file. Rows are streamed in
// open-time order and every candle is emitted as already complete.
type Source struct {
	dataSourceName string
	symbol         string
	period         time.Duration
	from, to       time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
}

func NewSource(dataSourceName, symbol string, period time.Duration, from, to time.Time) *Source {
	return &Source{
		dataSourceName: dataSourceName,
		symbol:         symbol,
		period:         period,
		from:           from,
		to:             to,
	}
}

func (s *Source) Start(ctx context.Context, cb datasource.Callback) error {
	srcCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.cancel = cancel
	s.mu.Unlock()

	db, err := sql.Open("duckdb", s.dataSourceName)
	if err != nil {
		return fmt.Errorf("unable to open data source %q: %w", s.dataSourceName, err)
	}
	defer func() {
		_ = db.Close()
	}()

	// Table-per-symbol layout, e.g. btcusdt_candles.
	query := fmt.Sprintf(
		`SELECT open_time, open, high, low, close, volume FROM %s_candles WHERE open_time BETWEEN ? AND ? ORDER BY open_time`,
		strings.ToLower(s.symbol))

	rows, err := db.QueryContext(srcCtx, query, s.from, s.to)
	if err != nil {
		return fmt.Errorf("error querying candles: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var openTime time.Time
		var open, high, low, closePrice, volume float64
		if err := rows.Scan(&openTime, &open, &high, &low, &closePrice, &volume); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}

		cb(srcCtx, common.Candle{
			Open:        fixed.FromFloat64(open),
			High:        fixed.FromFloat64(high),
			Low:         fixed.FromFloat64(low),
			Close:       fixed.FromFloat64(closePrice),
			Volume:      fixed.FromFloat64(volume),
			Period:      s.period,
			OpenTime:    openTime,
			Complete:    true,
			Source:      sourceComponentName,
			Symbol:      s.symbol,
			ExecutionID: utility.GetExecutionID(),
			TraceID:     utility.CreateTraceID(),
			TimeStamp:   openTime.Add(s.period),
		})

		select {
		case <-srcCtx.Done():
			return nil
		default:
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error scanning rows: %w", err)
	}
	return datasource.ErrEof
}

func (s *Source) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
}
