// Package scan walks directories for supported image files and reads
// their metadata with a bounded worker pool. Per-file failures are
// logged and skipped, so one corrupt file never aborts a batch.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"imsizer/internal/imsize"
)

var supported = func() map[string]bool {
	m := make(map[string]bool)
	for _, ext := range imsize.Extensions() {
		m[ext] = true
	}
	return m
}()

// IsSupported reports whether the file has an extension that
// imsize.Read knows how to parse.
func IsSupported(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return supported[ext]
}

// Scanner reads image metadata for whole directory trees.
type Scanner struct {
	workers    int
	log        zerolog.Logger
	progressFn func(scanned, total int, current string)
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWorkers sets the number of parallel workers.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the logger used for per-file failures.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Scanner) {
		s.log = log
	}
}

// WithProgress sets a progress callback.
func WithProgress(fn func(scanned, total int, current string)) Option {
	return func(s *Scanner) {
		s.progressFn = fn
	}
}

// New creates a Scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		workers: 8,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanPaths collects supported image files from the given files and
// directories (directories are walked recursively) and reads their
// metadata. Results are sorted by path. Files that fail to parse are
// logged and omitted.
func (s *Scanner) ScanPaths(paths []string) ([]*imsize.ImageInfo, error) {
	var files []string
	for _, path := range paths {
		fi, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", path, err)
		}
		if !fi.IsDir() {
			files = append(files, path)
			continue
		}
		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return nil // skip unreadable entries
			}
			if !info.IsDir() && IsSupported(p) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", path, err)
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, nil
	}

	var (
		results   []*imsize.ImageInfo
		resultsMu sync.Mutex
		wg        sync.WaitGroup
		scanned   int64
		total     = len(files)
	)
	work := make(chan string, len(files))
	for _, f := range files {
		work <- f
	}
	close(work)

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range work {
				info, err := imsize.Read(path)
				n := atomic.AddInt64(&scanned, 1)
				if err != nil {
					s.log.Warn().Str("file", path).Err(err).Msg("skipping unreadable image")
					continue
				}
				resultsMu.Lock()
				results = append(results, info)
				resultsMu.Unlock()
				if s.progressFn != nil {
					s.progressFn(int(n), total, path)
				}
			}
		}()
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].FileSpec < results[j].FileSpec
	})
	return results, nil
}
