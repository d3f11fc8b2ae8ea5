package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/zip"
)

// ZipEntry describes one entry of a test archive. Names ending in "/" are
// written as directory entries and Content is ignored.
type ZipEntry struct {
	Name    string
	Content []byte
}

// File returns a file entry.
func File(name, content string) ZipEntry {
	return ZipEntry{Name: name, Content: []byte(content)}
}

// Dir returns a directory entry.
func Dir(name string) ZipEntry {
	if !strings.HasSuffix(name, "/") {
		name += "/"
	}
	return ZipEntry{Name: name}
}

// BuildZip returns the bytes of a zip archive holding entries in order.
func BuildZip(tb testing.TB, entries ...ZipEntry) []byte {
	tb.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name, "/") {
			if _, err := zw.Create(entry.Name); err != nil {
				tb.Fatalf("create dir %s: %v", entry.Name, err)
			}
			continue
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: entry.Name, Method: zip.Deflate})
		if err != nil {
			tb.Fatalf("create %s: %v", entry.Name, err)
		}
		if _, err := w.Write(entry.Content); err != nil {
			tb.Fatalf("write %s: %v", entry.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// LogRecorder is a slog.Handler that keeps every record it handles.
type LogRecorder struct {
	mu      sync.Mutex
	records []slog.Record
}

// NewLogger returns a logger that records at every level, and its recorder.
func NewLogger() (*slog.Logger, *LogRecorder) {
	r := &LogRecorder{}
	return slog.New(r), r
}

// Enabled implements slog.Handler.
func (r *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler.
func (r *LogRecorder) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec.Clone())
	return nil
}

// WithAttrs implements slog.Handler. Attributes are not retained.
func (r *LogRecorder) WithAttrs([]slog.Attr) slog.Handler { return r }

// WithGroup implements slog.Handler. Groups are not retained.
func (r *LogRecorder) WithGroup(string) slog.Handler { return r }

// Records returns the records handled at level.
func (r *LogRecorder) Records(level slog.Level) []slog.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []slog.Record
	for _, rec := range r.records {
		if rec.Level == level {
			out = append(out, rec)
		}
	}
	return out
}

// Messages returns the messages of the records handled at level.
func (r *LogRecorder) Messages(level slog.Level) []string {
	var out []string
	for _, rec := range r.Records(level) {
		out = append(out, rec.Message)
	}
	return out
}

// Attr returns the value of the named attribute on rec.
func Attr(rec slog.Record, key string) (slog.Value, bool) {
	var (
		value slog.Value
		found bool
	)
	rec.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			value, found = a.Value, true
			return false
		}
		return true
	})
	return value, found
}
