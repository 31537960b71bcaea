// Package service implements the attempt telemetry writer.
//
// Attempt rows are buffered in memory and flushed to ClickHouse in
// batches. The writer is best effort end to end: a full buffer drops
// the row, a failed flush drops the batch, and neither ever fails or
// slows the request that produced the row.
package service

import (
	"context"
	"sync"
	"time"

	"leveler/internal/platform/logger"
	"leveler/internal/services/telemetry/repo"
	tdom "leveler/internal/services/transform/domain"
)

// Config for the telemetry writer
type Config struct {
	// BatchSize triggers an early flush when the buffer reaches it
	BatchSize int
	// FlushInterval is the idle flush cadence
	FlushInterval time.Duration
	// BufferCap bounds queued rows; beyond it rows are dropped
	BufferCap int
	// FlushTimeout bounds one insert
	FlushTimeout time.Duration
}

func (c *Config) defaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 256
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 2 * time.Second
	}
	if c.BufferCap <= 0 {
		c.BufferCap = 4096
	}
	if c.FlushTimeout <= 0 {
		c.FlushTimeout = 10 * time.Second
	}
}

// Writer buffers attempt rows and flushes them in the background
type Writer struct {
	storage repo.Storage
	cfg     Config
	log     logger.Logger

	in   chan tdom.AttemptTelemetry
	stop chan struct{}
	done chan struct{}

	mu      sync.Mutex
	dropped int64
}

var _ tdom.TelemetryPort = (*Writer)(nil)

// New constructs a Writer and starts its flush loop
func New(storage repo.Storage, cfg Config) *Writer {
	cfg.defaults()
	w := &Writer{
		storage: storage,
		cfg:     cfg,
		log:     *logger.Named("telemetry"),
		in:      make(chan tdom.AttemptTelemetry, cfg.BufferCap),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// RecordAttempt implements the transform telemetry port. It never
// blocks; when the buffer is full the row is counted and dropped
func (w *Writer) RecordAttempt(_ context.Context, a tdom.AttemptTelemetry) {
	if a.At.IsZero() {
		a.At = time.Now().UTC()
	}
	select {
	case w.in <- a:
	default:
		w.mu.Lock()
		w.dropped++
		n := w.dropped
		w.mu.Unlock()
		if n%1000 == 1 {
			w.log.Warn().Int64("dropped_total", n).Msg("telemetry buffer full, dropping rows")
		}
	}
}

// Dropped reports how many rows were discarded due to backpressure
func (w *Writer) Dropped() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}

// Close flushes what is buffered and stops the loop
func (w *Writer) Close() {
	close(w.stop)
	<-w.done
}

func (w *Writer) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]tdom.AttemptTelemetry, 0, w.cfg.BatchSize)
	for {
		select {
		case a := <-w.in:
			batch = append(batch, a)
			if len(batch) >= w.cfg.BatchSize {
				batch = w.flush(batch)
			}
		case <-ticker.C:
			batch = w.flush(batch)
		case <-w.stop:
			// drain whatever arrived before Close
			for {
				select {
				case a := <-w.in:
					batch = append(batch, a)
					if len(batch) >= w.cfg.BatchSize {
						batch = w.flush(batch)
					}
					continue
				default:
				}
				break
			}
			w.flush(batch)
			return
		}
	}
}

// flush writes the batch and returns an empty slice reusing the backing
// array. A failed insert is logged and the batch is dropped
func (w *Writer) flush(batch []tdom.AttemptTelemetry) []tdom.AttemptTelemetry {
	if len(batch) == 0 {
		return batch
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.FlushTimeout)
	defer cancel()

	if err := w.storage.InsertAttempts(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("rows", len(batch)).Msg("attempt flush failed, dropping batch")
	}
	return batch[:0]
}
