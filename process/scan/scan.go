// Package scan identifies card photos on disk in bulk, either once over a set
// of files or continuously as new files land in a directory.
package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"

	"cardprice/pkg/identify"
)

// Identifier runs the identification pipeline on one photo.
type Identifier interface {
	Identify(ctx context.Context, img image.Image) (identify.Outcome, error)
}

// Result is the outcome for one file.
type Result struct {
	File    string
	Outcome identify.Outcome
	Err     error
	Elapsed time.Duration
}

// Scanner feeds files through an Identifier with a fixed pool of workers.
type Scanner struct {
	Identifier   Identifier
	Workers      int           // default NumCPU
	Timeout      time.Duration // per file, 0 means none
	ProcessedDir string        // identified files are moved here; empty leaves them in place
	Verbose      bool
}

func (s *Scanner) workers() int {
	if s.Workers <= 0 {
		return runtime.NumCPU()
	}
	return s.Workers
}

func (s *Scanner) logV(format string, args ...any) {
	if s.Verbose {
		log.Printf(format, args...)
	}
}

// Expand turns file and directory arguments into a sorted-per-directory list
// of supported image paths. Explicit files are kept even with an unknown extension.
func Expand(args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		fi, err := os.Stat(a)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			out = append(out, a)
			continue
		}
		for _, name := range ListImageFiles(a) {
			out = append(out, filepath.Join(a, name))
		}
	}
	return out, nil
}

// ListImageFiles returns the supported image names directly inside dir, sorted.
func ListImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

// IsSupportedExt reports whether name looks like a photo the pipeline can decode.
func IsSupportedExt(name string) bool {
	// editors and uploaders drop hidden partial files next to the real one
	if strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return true
	}
	return false
}

// Run identifies every path and returns results in input order.
func (s *Scanner) Run(ctx context.Context, paths []string) []Result {
	results := make([]Result, len(paths))
	idx := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < min(s.workers(), max(len(paths), 1)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				results[i] = s.processFile(ctx, paths[i])
			}
		}()
	}
	for i := range paths {
		if ctx.Err() != nil {
			results[i] = Result{File: paths[i], Err: ctx.Err()}
			continue
		}
		idx <- i
	}
	close(idx)
	wg.Wait()
	return results
}

// Watch identifies images created in dir until ctx is cancelled. onResult is
// never called concurrently.
func (s *Scanner) Watch(ctx context.Context, dir string, onResult func(Result)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	fileCh := make(chan string, 256)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < s.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range fileCh {
				r := s.processFile(ctx, path)
				mu.Lock()
				onResult(r)
				mu.Unlock()
			}
		}()
	}
	defer wg.Wait()
	defer close(fileCh)

	// a file is handed over once no create/write event touched it for stableAfter
	const stableAfter = 300 * time.Millisecond
	pending := map[string]time.Time{}
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !IsSupportedExt(filepath.Base(ev.Name)) {
				continue
			}
			pending[ev.Name] = time.Now()
		case <-ticker.C:
			now := time.Now()
			for path, t := range pending {
				if now.Sub(t) > stableAfter {
					delete(pending, path)
					select {
					case fileCh <- path:
					case <-ctx.Done():
						return nil
					}
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		}
	}
}

func (s *Scanner) processFile(ctx context.Context, path string) Result {
	started := time.Now()
	res := Result{File: path}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		res.Err = fmt.Errorf("decode %s: %w", filepath.Base(path), err)
		res.Elapsed = time.Since(started)
		return res
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	res.Outcome, res.Err = s.Identifier.Identify(ctx, img)
	res.Elapsed = time.Since(started)
	if res.Err != nil {
		s.logV("SCAN %s: %v", path, res.Err)
		return res
	}
	s.logV("SCAN %s -> %s (%.3f)", path, res.Outcome.Match.MatchedName, res.Outcome.Match.SimilarityScore)
	if s.ProcessedDir != "" {
		if err := moveToProcessed(path, s.ProcessedDir); err != nil {
			log.Printf("SCAN move %s failed: %v", path, err)
		}
	}
	return res
}

// moveToProcessed moves src into dir, falling back to copy+remove across devices.
func moveToProcessed(src, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(dir, filepath.Base(src))
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	return copyRemove(src, dst)
}

func copyRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return errors.Join(err, os.Remove(dst))
	}
	return os.Remove(src)
}
