package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/avelory/steamflipper/internal/domain"
)

// RecordSource provides read access to the evaluation history for export
// purposes. The Postgres opportunity store satisfies this through its
// time-ranged query.
type RecordSource interface {
	// ListRange returns all records detected in [since, until), oldest first.
	ListRange(ctx context.Context, since, until time.Time) ([]domain.Record, error)
}

// BlobWriter is the narrow upload surface the exporter needs.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// Exporter periodically copies the evaluation history to object storage as
// JSONL files. It is a cold copy only: rows are never deleted from the
// primary store.
type Exporter struct {
	writer   BlobWriter
	source   RecordSource
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewExporter creates an Exporter that uploads one file per interval.
func NewExporter(writer BlobWriter, source RecordSource, interval time.Duration, logger *slog.Logger) *Exporter {
	return &Exporter{
		writer:   writer,
		source:   source,
		interval: interval,
		logger:   logger.With(slog.String("component", "exporter")),
		now:      time.Now,
	}
}

// Run exports on every tick until the context is cancelled. Each export
// covers the window since the previous tick, so consecutive files partition
// the history without overlap.
func (e *Exporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	since := e.now().UTC()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			until := e.now().UTC()
			count, err := e.ExportOnce(ctx, since, until)
			if err != nil {
				// Export is best-effort; the primary store still holds
				// everything, so retry with the same window next tick.
				e.logger.ErrorContext(ctx, "export failed",
					slog.String("error", err.Error()),
				)
				continue
			}
			e.logger.InfoContext(ctx, "export complete",
				slog.Int64("records", count),
				slog.Time("since", since),
				slog.Time("until", until),
			)
			since = until
		}
	}
}

// ExportOnce serializes all records in [since, until) to JSONL and uploads
// them as a single object. It returns the number of exported records; an
// empty window uploads nothing.
func (e *Exporter) ExportOnce(ctx context.Context, since, until time.Time) (int64, error) {
	recs, err := e.source.ListRange(ctx, since, until)
	if err != nil {
		return 0, fmt.Errorf("s3blob: export query: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(recs)
	if err != nil {
		return 0, fmt.Errorf("s3blob: export marshal: %w", err)
	}

	path := exportPath(until)
	if int64(len(buf)) > minPartSize {
		err = e.writer.PutMultipart(ctx, path, bytes.NewReader(buf), minPartSize)
	} else {
		err = e.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
	}
	if err != nil {
		return 0, fmt.Errorf("s3blob: export upload: %w", err)
	}

	return int64(len(recs)), nil
}

// exportPath builds the S3 key for an export file, named by the end of its
// window:
//
//	exports/opportunities/2025-01-31T235900Z.jsonl
func exportPath(until time.Time) string {
	return fmt.Sprintf("exports/opportunities/%s.jsonl", until.UTC().Format("2006-01-02T150405Z"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
