package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/avelory/steamflipper/internal/domain"
)

type fakeSource struct {
	records   []domain.Record
	err       error
	lastSince time.Time
	lastUntil time.Time
}

func (s *fakeSource) ListRange(ctx context.Context, since, until time.Time) ([]domain.Record, error) {
	s.lastSince, s.lastUntil = since, until
	return s.records, s.err
}

type fakeWriter struct {
	puts       map[string][]byte
	multiparts map[string][]byte
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{puts: map[string][]byte{}, multiparts: map[string][]byte{}}
}

func (w *fakeWriter) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.puts[path] = b
	return nil
}

func (w *fakeWriter) PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.multiparts[path] = b
	return nil
}

func testExporter(w BlobWriter, s RecordSource) *Exporter {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewExporter(w, s, time.Hour, logger)
}

func TestExportOnceWritesJSONL(t *testing.T) {
	source := &fakeSource{records: []domain.Record{
		{ID: 1, ItemName: "Fracture Case", Profitable: true},
		{ID: 2, ItemName: "AK-47 | Redline", RejectReason: domain.RejectLowProfit},
	}}
	writer := newFakeWriter()
	e := testExporter(writer, source)

	since := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	until := since.Add(24 * time.Hour)

	count, err := e.ExportOnce(context.Background(), since, until)
	if err != nil {
		t.Fatalf("ExportOnce: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if !source.lastSince.Equal(since) || !source.lastUntil.Equal(until) {
		t.Errorf("queried window = [%v, %v)", source.lastSince, source.lastUntil)
	}

	wantPath := "exports/opportunities/2025-06-02T000000Z.jsonl"
	body, ok := writer.puts[wantPath]
	if !ok {
		t.Fatalf("no upload at %s; puts = %v", wantPath, writer.puts)
	}

	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	var rec domain.Record
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("line 0 not JSON: %v", err)
	}
	if rec.ID != 1 || rec.ItemName != "Fracture Case" {
		t.Errorf("line 0 = %+v", rec)
	}
}

func TestExportOnceEmptyWindowUploadsNothing(t *testing.T) {
	writer := newFakeWriter()
	e := testExporter(writer, &fakeSource{})

	count, err := e.ExportOnce(context.Background(), time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("ExportOnce: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	if len(writer.puts) != 0 || len(writer.multiparts) != 0 {
		t.Error("upload happened for an empty window")
	}
}

func TestExportOncePropagatesQueryError(t *testing.T) {
	e := testExporter(newFakeWriter(), &fakeSource{err: errors.New("boom")})

	if _, err := e.ExportOnce(context.Background(), time.Time{}, time.Now()); err == nil {
		t.Fatal("ExportOnce swallowed the query error")
	}
}

func TestExportOnceUsesMultipartForLargePayloads(t *testing.T) {
	// A record with a name long enough that ~6k copies exceed the 5 MiB
	// single-shot threshold.
	big := domain.Record{ItemName: strings.Repeat("x", 1024)}
	records := make([]domain.Record, 6*1024)
	for i := range records {
		records[i] = big
	}
	writer := newFakeWriter()
	e := testExporter(writer, &fakeSource{records: records})

	if _, err := e.ExportOnce(context.Background(), time.Time{}, time.Now()); err != nil {
		t.Fatalf("ExportOnce: %v", err)
	}
	if len(writer.multiparts) != 1 {
		t.Errorf("multiparts = %d, want 1 (puts = %d)", len(writer.multiparts), len(writer.puts))
	}
}

func TestMarshalJSONLDoesNotEscapeHTML(t *testing.T) {
	buf, err := marshalJSONL([]domain.Record{{ItemName: "AK-47 | Redline <StatTrak>"}})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf, []byte("<StatTrak>")) {
		t.Errorf("JSONL escaped HTML: %s", buf)
	}
}
