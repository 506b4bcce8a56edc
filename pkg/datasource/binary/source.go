package binary

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/exp/mmap"

	"github.com/ocho011/ict-2025-sub001/pkg/common"
	"github.com/ocho011/ict-2025-sub001/pkg/datasource"
	"github.com/ocho011/ict-2025-sub001/pkg/utility"
	"github.com/ocho011/ict-2025-sub001/pkg/utility/fixed"
)

const sourceComponentName = "datasource.binary.source"

// candleRecord is the packed on-disk layout of one recorded candle.
type candleRecord struct {
	OpenTimeNano int64
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       float64
}

var recordSize = int64(unsafe.Sizeof(candleRecord{}))

// Source replays candles from a memory-mapped file of fixed-size records, the
// format produced by the session recorder. Every candle is emitted complete.
type Source struct {
	dataSourceName string
	symbol         string
	period         time.Duration

	reader *mmap.ReaderAt

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewSource(dataSourceName, symbol string, period time.Duration) *Source {
	return &Source{
		dataSourceName: dataSourceName,
		symbol:         symbol,
		period:         period,
		stopCh:         make(chan struct{}),
	}
}

func (s *Source) Start(ctx context.Context, cb datasource.Callback) error {
	count, err := s.entryCount()
	if err != nil {
		return err
	}

	s.reader, err = mmap.Open(s.dataSourceName)
	if err != nil {
		return fmt.Errorf("unable to open data source %q: %w", s.dataSourceName, err)
	}
	defer func() {
		_ = s.reader.Close()
	}()

	buffer := make([]byte, recordSize)
	for index := int64(0); index < count; index++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		default:
		}

		n, err := s.reader.ReadAt(buffer, index*recordSize)
		if err != nil && err != io.EOF {
			return fmt.Errorf("unable to read record %d: %w", index, err)
		}
		if int64(n) < recordSize {
			break
		}

		record := *(*candleRecord)(unsafe.Pointer(&buffer[0])) // #nosec G103
		openTime := time.Unix(0, record.OpenTimeNano)

		cb(ctx, common.Candle{
			Open:        fixed.FromFloat64(record.Open),
			High:        fixed.FromFloat64(record.High),
			Low:         fixed.FromFloat64(record.Low),
			Close:       fixed.FromFloat64(record.Close),
			Volume:      fixed.FromFloat64(record.Volume),
			Period:      s.period,
			OpenTime:    openTime,
			Complete:    true,
			Source:      sourceComponentName,
			Symbol:      s.symbol,
			ExecutionID: utility.GetExecutionID(),
			TraceID:     utility.CreateTraceID(),
			TimeStamp:   openTime.Add(s.period),
		})
	}

	return datasource.ErrEof
}

func (s *Source) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

func (s *Source) entryCount() (int64, error) {
	fileInfo, err := os.Stat(s.dataSourceName)
	if err != nil {
		return 0, fmt.Errorf("unable to get data source %q stats: %w", s.dataSourceName, err)
	}

	totalSize := fileInfo.Size()
	if totalSize%recordSize != 0 {
		return 0, fmt.Errorf("file size %d is not a multiple of record size %d", totalSize, recordSize)
	}
	return totalSize / recordSize, nil
}
