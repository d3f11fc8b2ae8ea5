package runprov

import (
	"bytes"
	"fmt"
	"io"
	"iter"

	"github.com/klauspost/compress/zip"
)

// extractConfig holds configuration for archive extraction.
type extractConfig struct {
	maxEntrySize uint64
}

// ExtractOption configures Extract.
type ExtractOption func(*extractConfig)

// ExtractWithMaxEntrySize limits the uncompressed size of a single entry.
// Zero means no limit.
func ExtractWithMaxEntrySize(n uint64) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.maxEntrySize = n
	}
}

// Extract returns the file entries of a zip archive held in data.
//
// Entries are produced lazily in archive order. Directory entries are never
// produced. If data is not a valid zip archive, or an entry cannot be read,
// the sequence yields a single error wrapping [ErrArchiveFormat] and stops.
func Extract(data []byte, opts ...ExtractOption) iter.Seq2[ArchiveEntry, error] {
	var cfg extractConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(yield func(ArchiveEntry, error) bool) {
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			yield(ArchiveEntry{}, fmt.Errorf("%w: %w", ErrArchiveFormat, err))
			return
		}

		for _, f := range zr.File {
			if f.Mode().IsDir() {
				continue
			}
			content, err := readEntry(f, cfg.maxEntrySize)
			if err != nil {
				yield(ArchiveEntry{Name: f.Name}, err)
				return
			}
			if !yield(ArchiveEntry{Name: f.Name, Content: content}, nil) {
				return
			}
		}
	}
}

// readEntry reads the full content of a zip entry. The checksum is verified
// by the zip reader once the entry has been read to EOF.
func readEntry(f *zip.File, maxSize uint64) ([]byte, error) {
	if maxSize > 0 && f.UncompressedSize64 > maxSize {
		return nil, fmt.Errorf("%w: %s (%d bytes, limit %d)", ErrEntryTooLarge, f.Name, f.UncompressedSize64, maxSize)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrArchiveFormat, f.Name, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if maxSize > 0 {
		// The header size is not trusted; bound the read as well.
		r = io.LimitReader(rc, int64(maxSize)+1) //nolint:gosec // limit is a configured size
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrArchiveFormat, f.Name, err)
	}
	if maxSize > 0 && uint64(len(content)) > maxSize {
		return nil, fmt.Errorf("%w: %s (limit %d)", ErrEntryTooLarge, f.Name, maxSize)
	}
	return content, nil
}
