package scan

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"cardprice/pkg/card"
	"cardprice/pkg/identify"
)

// widthIdentifier names the match after the photo width so results can be
// traced back to their file.
type widthIdentifier struct {
	mu    sync.Mutex
	calls int
}

func (w *widthIdentifier) Identify(_ context.Context, img image.Image) (identify.Outcome, error) {
	w.mu.Lock()
	w.calls++
	w.mu.Unlock()
	width := img.Bounds().Dx()
	if width == 13 {
		return identify.Outcome{}, identify.ErrNoCardDetected
	}
	return identify.Outcome{
		ExtractedText: "Opt",
		Match:         &card.MatchResult{MatchedName: "Opt", SimilarityScore: float64(width) / 100},
	}, nil
}

func writeImage(t *testing.T, path string, width int) {
	t.Helper()
	if err := imaging.Save(imaging.New(width, 20, color.White), path); err != nil {
		t.Fatal(err)
	}
}

func TestIsSupportedExt(t *testing.T) {
	cases := map[string]bool{
		"a.png": true, "b.JPG": true, "c.jpeg": true, "d.webp": true, "e.gif": true,
		"notes.txt": false, ".partial.png": false, "noext": false,
	}
	for name, want := range cases {
		if got := IsSupportedExt(name); got != want {
			t.Errorf("IsSupportedExt(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestExpandAndRunKeepOrder(t *testing.T) {
	dir := t.TempDir()
	widths := map[string]int{"c.png": 30, "a.png": 10, "b.png": 13}
	for name, w := range widths {
		writeImage(t, filepath.Join(dir, name), w)
	}
	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644)
	os.Mkdir(filepath.Join(dir, "sub"), 0o755)

	paths, err := Expand([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 3 || filepath.Base(paths[0]) != "a.png" || filepath.Base(paths[2]) != "c.png" {
		t.Fatalf("paths = %v", paths)
	}

	id := &widthIdentifier{}
	s := &Scanner{Identifier: id, Workers: 3}
	results := s.Run(context.Background(), paths)
	if id.calls != 3 {
		t.Fatalf("identify calls = %d", id.calls)
	}
	if results[0].Err != nil || results[0].Outcome.Match.SimilarityScore != 0.10 {
		t.Fatalf("a.png result = %+v", results[0])
	}
	if !errors.Is(results[1].Err, identify.ErrNoCardDetected) {
		t.Fatalf("b.png err = %v", results[1].Err)
	}
	if results[2].Outcome.Match.SimilarityScore != 0.30 {
		t.Fatalf("c.png result = %+v", results[2])
	}
}

func TestRunUndecodableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	os.WriteFile(path, []byte("not a png"), 0o644)
	s := &Scanner{Identifier: &widthIdentifier{}, Workers: 1}
	res := s.Run(context.Background(), []string{path})
	if res[0].Err == nil {
		t.Fatal("expected decode error")
	}
}

func TestRunMovesIdentifiedFiles(t *testing.T) {
	dir := t.TempDir()
	done := filepath.Join(dir, "processed")
	good, bad := filepath.Join(dir, "good.png"), filepath.Join(dir, "bad.png")
	writeImage(t, good, 20)
	writeImage(t, bad, 13)

	s := &Scanner{Identifier: &widthIdentifier{}, Workers: 2, ProcessedDir: done}
	s.Run(context.Background(), []string{good, bad})

	if _, err := os.Stat(filepath.Join(done, "good.png")); err != nil {
		t.Fatalf("identified file not moved: %v", err)
	}
	if _, err := os.Stat(bad); err != nil {
		t.Fatalf("failed file should stay in place: %v", err)
	}
}

func TestWatchPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Result, 4)
	s := &Scanner{Identifier: &widthIdentifier{}, Workers: 1}
	errCh := make(chan error, 1)
	go func() { errCh <- s.Watch(ctx, dir, func(r Result) { got <- r }) }()

	// give the watcher time to register
	time.Sleep(200 * time.Millisecond)
	os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644)
	writeImage(t, filepath.Join(dir, "new.png"), 40)

	select {
	case r := <-got:
		if filepath.Base(r.File) != "new.png" || r.Err != nil {
			t.Fatalf("result = %+v", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not report the new file")
	}
	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("watch returned %v", err)
	}
}
