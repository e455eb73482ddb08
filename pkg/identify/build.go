package identify

import (
	"golang.org/x/time/rate"

	"cardprice/pkg/cache"
	"cardprice/pkg/catalog"
	"cardprice/pkg/config"
	"cardprice/pkg/match"
	"cardprice/pkg/ocr"
	"cardprice/pkg/vision"
)

// New wires the production stages from cfg. Scryfall queries and artwork
// downloads share one limiter so the service is never hit faster than
// SCRYFALL_DELAY. store may be nil.
func New(cfg *config.Config, store cache.Store) (*Pipeline, error) {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.ScryfallDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.ScryfallDelay), 1)
	}
	fetcher, err := catalog.NewFetcher(cfg.Catalog(), limiter)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Locator:  vision.NewPreprocessor(cfg.Vision()),
		Reader:   ocr.NewExtractor(nil, cfg.OCR()),
		Fetcher:  fetcher,
		Matcher:  match.NewMatcher(cfg.Match(), limiter),
		Cache:    store,
		DebugDir: cfg.DebugDir,
	}, nil
}
