package match

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/time/rate"

	"cardprice/pkg/card"
)

// imageServer serves PNG-encoded images by path; unknown paths return 500.
func imageServer(t *testing.T, images map[string]image.Image) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		img, ok := images[r.URL.Path]
		if !ok {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			t.Errorf("encode: %v", err)
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func solid(w int) *image.NRGBA {
	return imaging.New(w, w, color.NRGBA{255, 255, 255, 255})
}

func TestSelectBestMatchEmpty(t *testing.T) {
	res, err := NewMatcher(DefaultConfig(), nil).SelectBestMatch(context.Background(), solid(10), nil)
	if err != nil || res != nil {
		t.Fatalf("expected absent result, got %+v err=%v", res, err)
	}
}

func TestSelectBestMatchTieGoesToFirst(t *testing.T) {
	// reference images differ only in width, which the fake metric maps to a score
	srv := imageServer(t, map[string]image.Image{"/a": solid(8), "/b": solid(9), "/c": solid(10)})
	scores := map[int]float64{8: 0.4, 9: 0.8, 10: 0.8}
	cands := []card.Candidate{
		{Name: "A", ImageURL: srv.URL + "/a"},
		{Name: "B", ImageURL: srv.URL + "/b"},
		{Name: "C", ImageURL: srv.URL + "/c"},
	}
	for run := 0; run < 20; run++ {
		m := NewMatcher(Config{Concurrency: 3}, nil).WithScore(func(_, ref image.Image) float64 {
			return scores[ref.Bounds().Dx()]
		})
		res, err := m.SelectBestMatch(context.Background(), solid(10), cands)
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if res.MatchedName != "B" || res.SimilarityScore != 0.8 {
			t.Fatalf("run %d: expected B at 0.8, got %s at %v", run, res.MatchedName, res.SimilarityScore)
		}
	}
}

func TestSelectBestMatchSkipsFailedDownloads(t *testing.T) {
	upload := artwork(250, 350, color.NRGBA{30, 60, 90, 255}, color.NRGBA{220, 200, 40, 255}, image.Rect(40, 50, 200, 300))
	other := artwork(250, 350, color.NRGBA{240, 240, 240, 255}, color.NRGBA{10, 10, 10, 255}, image.Rect(150, 10, 240, 100))
	srv := imageServer(t, map[string]image.Image{"/same": upload, "/other": other})
	cands := []card.Candidate{
		{Name: "Broken", ImageURL: srv.URL + "/missing"},
		{Name: "Other", ImageURL: srv.URL + "/other", Prices: card.Prices{"usd": "0.25"}},
		{Name: "Same", ImageURL: srv.URL + "/same", Prices: card.Prices{"usd": "3.50"}},
	}
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.ReferenceDir = dir
	res, err := NewMatcher(cfg, nil).SelectBestMatch(context.Background(), upload, cands)
	if err != nil {
		t.Fatalf("SelectBestMatch: %v", err)
	}
	if res.MatchedName != "Same" || res.Prices["usd"] != "3.50" {
		t.Fatalf("unexpected match %+v", res)
	}
	if res.SimilarityScore < 0.99 {
		t.Fatalf("expected near-perfect score, got %v", res.SimilarityScore)
	}
	if res.ReferenceImagePath == "" {
		t.Fatal("winning reference image not saved")
	}
	if _, err := os.Stat(res.ReferenceImagePath); err != nil {
		t.Fatalf("reference image missing: %v", err)
	}
}

func TestSelectBestMatchAllFailed(t *testing.T) {
	srv := imageServer(t, nil)
	cands := []card.Candidate{{Name: "A", ImageURL: srv.URL + "/a"}, {Name: "B", ImageURL: srv.URL + "/b"}}
	_, err := NewMatcher(DefaultConfig(), nil).SelectBestMatch(context.Background(), solid(10), cands)
	if !errors.Is(err, ErrNoMatchSelected) {
		t.Fatalf("expected ErrNoMatchSelected got %v", err)
	}
}

func TestSelectBestMatchCancelled(t *testing.T) {
	srv := imageServer(t, map[string]image.Image{"/a": solid(8)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMatcher(DefaultConfig(), nil).SelectBestMatch(ctx, solid(10), []card.Candidate{{Name: "A", ImageURL: srv.URL + "/a"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled got %v", err)
	}
}

func TestSelectBest(t *testing.T) {
	got := selectBest([]scored{{ok: false, score: 0.9}, {ok: true, score: 0.4}, {ok: true, score: 0.8}, {ok: true, score: 0.8}})
	if got != 2 {
		t.Fatalf("selectBest = %d want 2", got)
	}
	if selectBest([]scored{{}, {}}) != -1 {
		t.Fatal("expected -1 when nothing scored")
	}
}

func TestSelectBestMatchSavesLeaderImage(t *testing.T) {
	srv := imageServer(t, map[string]image.Image{"/a": solid(8), "/b": solid(9), "/c": solid(10)})
	scores := map[int]float64{8: 0.4, 9: 0.8, 10: 0.8}
	cands := []card.Candidate{
		{Name: "A", ImageURL: srv.URL + "/a"},
		{Name: "B", ImageURL: srv.URL + "/b"},
		{Name: "C", ImageURL: srv.URL + "/c"},
	}
	for run := 0; run < 10; run++ {
		cfg := Config{Concurrency: 3, ReferenceDir: t.TempDir()}
		m := NewMatcher(cfg, nil).WithScore(func(_, ref image.Image) float64 {
			return scores[ref.Bounds().Dx()]
		})
		res, err := m.SelectBestMatch(context.Background(), solid(10), cands)
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		saved, err := imaging.Open(res.ReferenceImagePath)
		if err != nil {
			t.Fatalf("run %d: open saved reference: %v", run, err)
		}
		if saved.Bounds().Dx() != 9 {
			t.Fatalf("run %d: saved reference width %d, want the winner's 9", run, saved.Bounds().Dx())
		}
	}
}

func TestLeaderOffer(t *testing.T) {
	l := &leader{idx: -1}
	l.offer(2, 0.8, solid(3))
	l.offer(0, 0.4, solid(1))
	l.offer(1, 0.8, solid(2))
	l.offer(3, 0.8, solid(4))
	if l.idx != 1 || l.img.Bounds().Dx() != 2 {
		t.Fatalf("leader = %d width %d, want 1 width 2", l.idx, l.img.Bounds().Dx())
	}
}

func TestSelectBestMatchLimiterPastDeadline(t *testing.T) {
	srv := imageServer(t, map[string]image.Image{"/a": solid(8)})
	limiter := rate.NewLimiter(rate.Every(time.Second), 1)
	limiter.Allow() // drain the only token
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewMatcher(DefaultConfig(), limiter).SelectBestMatch(ctx, solid(10), []card.Candidate{{Name: "A", ImageURL: srv.URL + "/a"}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
