package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultFlushRows is the batch size used when NewRecorder gets zero.
const DefaultFlushRows = 4096

var ErrRecorderClosed = errors.New("recorder is closed")

// Recorder buffers decision rows and writes them out as atomic Parquet
// batches. It is safe for concurrent use.
type Recorder struct {
	dir       string
	flushRows int
	logger    *slog.Logger

	mu     sync.Mutex
	buf    []DecisionRow
	files  []string
	rows   int
	closed bool
}

func NewRecorder(dir string, flushRows int, logger *slog.Logger) (*Recorder, error) {
	if dir == "" {
		return nil, fmt.Errorf("record dir is required")
	}
	if flushRows <= 0 {
		flushRows = DefaultFlushRows
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		dir:       dir,
		flushRows: flushRows,
		logger:    logger,
		buf:       make([]DecisionRow, 0, flushRows),
	}, nil
}

// Record appends rows and flushes once the buffer reaches the batch size.
func (r *Recorder) Record(rows ...DecisionRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRecorderClosed
	}
	r.buf = append(r.buf, rows...)
	if len(r.buf) < r.flushRows {
		return nil
	}
	return r.flushLocked()
}

// Flush writes whatever is buffered.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

func (r *Recorder) flushLocked() error {
	if len(r.buf) == 0 {
		return nil
	}
	path, err := WriteBatchParquetAtomic(r.dir, r.buf)
	if err != nil {
		return err
	}
	r.logger.Info("wrote decision batch", "path", path, "rows", len(r.buf))
	r.files = append(r.files, path)
	r.rows += len(r.buf)
	r.buf = make([]DecisionRow, 0, r.flushRows)
	return nil
}

// Close flushes the buffer. Later Record calls fail with ErrRecorderClosed.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.flushLocked()
}

// Files returns the batch files written so far.
func (r *Recorder) Files() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.files...)
}

// Rows returns the number of rows written to disk so far.
func (r *Recorder) Rows() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows
}
