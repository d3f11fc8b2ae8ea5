package disk

import (
	"cmp"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// tempPrefix names in-flight writes. They are never counted or evicted;
// leftovers from an interrupted Put are removed by New.
const tempPrefix = "cache-"

// storedArchive is one compressed archive on disk.
type storedArchive struct {
	path     string
	size     int64
	lastUsed time.Time
}

// scanArchives lists every stored archive under root and returns their total
// size. A missing root holds nothing.
func scanArchives(root string) ([]storedArchive, int64, error) {
	var (
		archives []storedArchive
		total    int64
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		archives = append(archives, storedArchive{path: path, size: info.Size(), lastUsed: info.ModTime()})
		total += info.Size()
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, nil
	}
	return archives, total, err
}

// evictLeastRecent removes archives, least recently used first, until at
// most targetBytes remain.
func evictLeastRecent(root string, targetBytes int64) (freed, remaining int64, err error) {
	archives, remaining, err := scanArchives(root)
	if err != nil || remaining <= targetBytes {
		return 0, remaining, err
	}

	slices.SortFunc(archives, func(a, b storedArchive) int {
		if c := a.lastUsed.Compare(b.lastUsed); c != 0 {
			return c
		}
		return cmp.Compare(a.path, b.path)
	})

	for _, archive := range archives {
		if remaining <= targetBytes {
			break
		}
		if err := os.Remove(archive.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return freed, remaining, err
		}
		remaining -= archive.size
		freed += archive.size
	}
	return freed, remaining, nil
}

// removeInterruptedWrites deletes temp files left under root by a Put that
// never finished. It must only run before the cache is shared.
func removeInterruptedWrites(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && strings.HasPrefix(d.Name(), tempPrefix) {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// touch marks path as used now so eviction keeps it longest.
func touch(path string) {
	now := time.Now()
	_ = os.Chtimes(path, now, now)
}
