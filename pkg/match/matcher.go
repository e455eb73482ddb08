// Package match picks the printing whose artwork best resembles an uploaded photo.
package match

import (
	"context"
	"errors"
	"image"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"cardprice/pkg/card"
)

// ScoreFunc rates the similarity of a reference image to the uploaded photo in [0,1].
type ScoreFunc func(uploaded, reference image.Image) float64

// Config controls comparison and download behaviour.
type Config struct {
	CanvasWidth  int
	CanvasHeight int
	Concurrency  int           // parallel downloads, at least 1
	Timeout      time.Duration // per download
	ReferenceDir string        // where the winning artwork is saved; empty disables
}

// DefaultConfig compares on a 250x350 canvas, the printed card aspect ratio.
func DefaultConfig() Config {
	return Config{CanvasWidth: 250, CanvasHeight: 350, Concurrency: 4, Timeout: 15 * time.Second}
}

// Matcher downloads candidate artwork and selects the most similar printing.
type Matcher struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	score   ScoreFunc
}

// NewMatcher returns a Matcher scoring with SSIM. limiter paces downloads; nil disables pacing.
func NewMatcher(cfg Config, limiter *rate.Limiter) *Matcher {
	d := DefaultConfig()
	if cfg.CanvasWidth <= 0 || cfg.CanvasHeight <= 0 {
		cfg.CanvasWidth, cfg.CanvasHeight = d.CanvasWidth, d.CanvasHeight
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = d.Timeout
	}
	return &Matcher{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
	}
}

// WithScore replaces the similarity metric.
func (m *Matcher) WithScore(fn ScoreFunc) *Matcher {
	m.score = fn
	return m
}

type scored struct {
	ok    bool
	score float64
}

// leader holds the image of the best candidate seen so far, so only one
// decoded reference stays alive while scoring.
type leader struct {
	mu    sync.Mutex
	idx   int
	score float64
	img   image.Image
}

// offer keeps img when it beats the current leader, or ties it from an
// earlier position.
func (l *leader) offer(i int, score float64, img image.Image) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.idx < 0 || score > l.score || (score == l.score && i < l.idx) {
		l.idx, l.score, l.img = i, score, img
	}
}

// SelectBestMatch scores every candidate against uploaded and returns the
// highest scoring one. Ties go to the earliest candidate in the input order.
// An empty candidate list yields (nil, nil). Candidates whose artwork cannot be
// fetched are skipped; if none remain ErrNoMatchSelected is returned.
func (m *Matcher) SelectBestMatch(ctx context.Context, uploaded image.Image, cands []card.Candidate) (*card.MatchResult, error) {
	if len(cands) == 0 {
		return nil, nil
	}
	if uploaded == nil {
		return nil, errors.New("match: nil uploaded image")
	}
	similarity := m.scorer(uploaded)

	results := make([]scored, len(cands))
	top := &leader{idx: -1}
	var timedOut atomic.Bool
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Concurrency)
	for i, c := range cands {
		g.Go(func() error {
			ref, err := m.download(gctx, c.ImageURL)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					timedOut.Store(true)
				}
				log.Printf("MATCH skip %s (%s #%s): %v", c.Name, c.Set, c.CollectorNumber, err)
				return nil
			}
			score := similarity(ref)
			results[i] = scored{ok: true, score: score}
			top.offer(i, score, ref)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	best := selectBest(results)
	if best < 0 {
		if timedOut.Load() {
			return nil, context.DeadlineExceeded
		}
		return nil, ErrNoMatchSelected
	}
	c := cands[best]
	res := &card.MatchResult{
		MatchedName:       c.Name,
		Set:               c.Set,
		CollectorNumber:   c.CollectorNumber,
		Prices:            c.Prices,
		SimilarityScore:   results[best].score,
		ReferenceImageURL: c.ImageURL,
	}
	log.Printf("MATCH best=%s (%s #%s) score=%.4f of %d candidates", c.Name, c.Set, c.CollectorNumber, res.SimilarityScore, len(cands))
	if path, err := m.saveReference(top.img); err != nil {
		log.Printf("WARN failed to save reference image for %s: %v", c.Name, err)
	} else {
		res.ReferenceImagePath = path
	}
	return res, nil
}

// selectBest folds over results in order, keeping the first strictly greater score.
func selectBest(results []scored) int {
	best := -1
	for i, r := range results {
		if !r.ok {
			continue
		}
		if best == -1 || r.score > results[best].score {
			best = i
		}
	}
	return best
}

// scorer returns the per-reference rating function for one upload. The upload
// luminance is computed once and reused across candidates.
func (m *Matcher) scorer(uploaded image.Image) func(image.Image) float64 {
	if m.score != nil {
		return func(ref image.Image) float64 { return m.score(uploaded, ref) }
	}
	w, h := m.cfg.CanvasWidth, m.cfg.CanvasHeight
	up := luminance(uploaded, w, h)
	return func(ref image.Image) float64 {
		return ssimLuma(up, luminance(ref, w, h), w, h)
	}
}

func (m *Matcher) saveReference(img image.Image) (string, error) {
	if m.cfg.ReferenceDir == "" || img == nil {
		return "", nil
	}
	if err := os.MkdirAll(m.cfg.ReferenceDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(m.cfg.ReferenceDir, uuid.NewString()+".png")
	if err := imaging.Save(img, path); err != nil {
		return "", err
	}
	return path, nil
}
