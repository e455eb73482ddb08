// Package identify turns a card photo into a priced printing.
package identify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"cardprice/pkg/cache"
	"cardprice/pkg/card"
	"cardprice/pkg/ocr"
	"cardprice/pkg/vision"
)

// Locator isolates the title band of a card photo.
type Locator interface {
	LocateAndCropTitle(img image.Image) (*vision.TitleRegion, error)
}

// TitleReader reads the card title from a title band.
type TitleReader interface {
	ExtractTitle(ctx context.Context, region image.Image) (ocr.Extraction, error)
}

// Fetcher lists printings for a title.
type Fetcher interface {
	FetchCandidates(ctx context.Context, title string) ([]card.Candidate, error)
}

// Matcher picks the printing that looks most like the photo.
type Matcher interface {
	SelectBestMatch(ctx context.Context, uploaded image.Image, cands []card.Candidate) (*card.MatchResult, error)
}

// Outcome is what a pipeline run produced. ExtractedText is set as soon as OCR
// succeeds, even if a later stage fails.
type Outcome struct {
	ExtractedText string
	Match         *card.MatchResult
	Cached        bool
}

// Pipeline wires the stages together. Cache and DebugDir are optional.
type Pipeline struct {
	Locator  Locator
	Reader   TitleReader
	Fetcher  Fetcher
	Matcher  Matcher
	Cache    cache.Store
	DebugDir string
}

// Identify runs locate, read, lookup and match for img.
func (p *Pipeline) Identify(ctx context.Context, img image.Image) (Outcome, error) {
	var out Outcome
	if img == nil {
		return out, errors.New("identify: nil image")
	}
	started := time.Now()

	region, err := p.Locator.LocateAndCropTitle(img)
	if err != nil {
		return out, err
	}
	ex, err := p.Reader.ExtractTitle(ctx, region.Image)
	p.writeDebug(region, ex)
	if err != nil {
		return out, err
	}
	out.ExtractedText = ex.Title

	key := cache.Key(ex.Title)
	if res, ok := p.lookup(ctx, key); ok {
		out.Match = res
		out.Cached = true
		log.Printf("IDENTIFY cache hit title=%q match=%q", ex.Title, res.MatchedName)
		return out, nil
	}

	cands, err := p.Fetcher.FetchCandidates(ctx, ex.Title)
	if err != nil {
		return out, err
	}
	if len(cands) == 0 {
		return out, fmt.Errorf("%w: %q", ErrNoCandidatesFound, ex.Title)
	}
	res, err := p.Matcher.SelectBestMatch(ctx, img, cands)
	if err != nil {
		return out, err
	}
	if res == nil {
		return out, ErrNoMatchSelected
	}
	out.Match = res
	p.store(ctx, key, res)
	log.Printf("IDENTIFY title=%q match=%q set=%s score=%.4f candidates=%d took=%s",
		ex.Title, res.MatchedName, res.Set, res.SimilarityScore, len(cands), time.Since(started).Round(time.Millisecond))
	return out, nil
}

func (p *Pipeline) lookup(ctx context.Context, key string) (*card.MatchResult, bool) {
	if p.Cache == nil || key == "" {
		return nil, false
	}
	raw, ok, err := p.Cache.Get(ctx, key)
	if err != nil {
		log.Printf("CACHE get %q failed: %v", key, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var res card.MatchResult
	if err := json.Unmarshal(raw, &res); err != nil {
		log.Printf("CACHE entry %q unreadable: %v", key, err)
		return nil, false
	}
	return &res, true
}

func (p *Pipeline) store(ctx context.Context, key string, res *card.MatchResult) {
	if p.Cache == nil || key == "" {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		log.Printf("CACHE encode %q failed: %v", key, err)
		return
	}
	if err := p.Cache.Put(ctx, key, raw); err != nil {
		log.Printf("CACHE put %q failed: %v", key, err)
	}
}

func (p *Pipeline) writeDebug(region *vision.TitleRegion, ex ocr.Extraction) {
	if p.DebugDir == "" || region == nil {
		return
	}
	dir := filepath.Join(p.DebugDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("DEBUG mkdir %s: %v", dir, err)
		return
	}
	if err := imaging.Save(region.Image, filepath.Join(dir, "title.png")); err != nil {
		log.Printf("DEBUG save title: %v", err)
	}
	if ex.Thresholded != nil {
		if err := imaging.Save(ex.Thresholded, filepath.Join(dir, "thresholded.png")); err != nil {
			log.Printf("DEBUG save thresholded: %v", err)
		}
	}
	if ex.Raw != "" {
		_ = os.WriteFile(filepath.Join(dir, "ocr.txt"), []byte(ex.Raw), 0o644)
	}
}
