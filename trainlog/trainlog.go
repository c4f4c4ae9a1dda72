// Package trainlog records per-refresh training metrics to an append-only
// CSV file. The column set is fixed so downstream plotting scripts can rely
// on it across runs.
package trainlog

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
)

// Header is the fixed CSV column set, written once per file.
var Header = []string{"iter", "acc_cluster", "nmi", "ari", "acc_sentiment", "L", "Lc", "Ls"}

// Record is one row of the training log, emitted at every target
// distribution refresh.
type Record struct {
	Iter int

	// Clustering quality against ground-truth cluster labels. Zero when no
	// such labels exist, which is the normal case.
	AccCluster float64
	NMI        float64
	ARI        float64

	// AccSentiment is the labeled-set classification accuracy.
	AccSentiment float64

	// L is the total loss; Lc and Ls are the clustering and sentiment
	// components.
	L  float64
	Lc float64
	Ls float64
}

// Writer appends records to a CSV file. It is not safe for concurrent use;
// the training loop emits records from a single goroutine.
type Writer struct {
	f      *os.File
	csv    *csv.Writer
	logger *slog.Logger
}

// NewWriter creates (truncating) the log file at path and writes the
// header row.
func NewWriter(path string, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("trainlog: create %s: %w", path, err)
	}

	w := &Writer{
		f:      f,
		csv:    csv.NewWriter(f),
		logger: logger,
	}

	if err := w.csv.Write(Header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("trainlog: write header: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("trainlog: write header: %w", err)
	}

	return w, nil
}

// Append writes one record and flushes it to disk, so a crashed run keeps
// every row logged so far.
func (w *Writer) Append(rec Record) error {
	row := []string{
		strconv.Itoa(rec.Iter),
		formatMetric(rec.AccCluster),
		formatMetric(rec.NMI),
		formatMetric(rec.ARI),
		formatMetric(rec.AccSentiment),
		formatMetric(rec.L),
		formatMetric(rec.Lc),
		formatMetric(rec.Ls),
	}
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("trainlog: write row: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("trainlog: flush: %w", err)
	}

	w.logger.Debug("training metrics",
		slog.Int("iter", rec.Iter),
		slog.Float64("acc_sentiment", rec.AccSentiment),
		slog.Float64("loss", rec.L),
		slog.Float64("loss_clustering", rec.Lc),
		slog.Float64("loss_sentiment", rec.Ls),
	)

	return nil
}

// Close flushes buffered rows and closes the file.
func (w *Writer) Close() error {
	w.csv.Flush()
	flushErr := w.csv.Error()
	closeErr := w.f.Close()
	if flushErr != nil {
		return fmt.Errorf("trainlog: flush: %w", flushErr)
	}
	return closeErr
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'g', 5, 64)
}
