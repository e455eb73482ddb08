// Package catalog retrieves candidate printings from Scryfall.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	scryfall "github.com/BlueMonday/go-scryfall"
	"golang.org/x/time/rate"

	"cardprice/pkg/card"
)

// Config configures the Scryfall client.
type Config struct {
	BaseURL       string // empty uses the public API
	MaxCandidates int
	Timeout       time.Duration
}

// Searcher is the subset of the Scryfall client used by Fetcher.
type Searcher interface {
	SearchCards(ctx context.Context, query string, opts scryfall.SearchCardsOptions) (scryfall.CardListResponse, error)
}

// Fetcher looks up every printing of a card title.
type Fetcher struct {
	client  Searcher
	limiter *rate.Limiter
	max     int
}

// NewFetcher builds a Fetcher on the go-scryfall client. limiter paces every
// query and may be shared with other callers of external services; nil disables pacing.
func NewFetcher(cfg Config, limiter *rate.Limiter) (*Fetcher, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	opts := []scryfall.ClientOption{scryfall.WithHTTPClient(&http.Client{Timeout: timeout})}
	if cfg.BaseURL != "" {
		opts = append(opts, scryfall.WithBaseURL(cfg.BaseURL))
	}
	client, err := scryfall.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("scryfall client: %w", err)
	}
	return NewFetcherWithClient(client, limiter, cfg.MaxCandidates), nil
}

// NewFetcherWithClient wraps an existing Searcher.
func NewFetcherWithClient(client Searcher, limiter *rate.Limiter, maxCandidates int) *Fetcher {
	return &Fetcher{client: client, limiter: limiter, max: maxCandidates}
}

// Query returns the search expression sent for title: the literal text, quoted.
func Query(title string) string {
	return `"` + strings.ReplaceAll(strings.TrimSpace(title), `"`, "") + `"`
}

// FetchCandidates returns all printings matching title that carry artwork,
// cheapest-first as ordered by the database. Zero matches yield an empty slice
// and a nil error; transport and status failures wrap ErrDatabaseUnavailable.
func (f *Fetcher) FetchCandidates(ctx context.Context, title string) ([]card.Candidate, error) {
	if strings.TrimSpace(title) == "" {
		return nil, nil
	}
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, limiterErr(ctx, err)
		}
	}
	q := Query(title)
	log.Printf("Searching for card value: %s", q)
	resp, err := f.client.SearchCards(ctx, q, scryfall.SearchCardsOptions{
		Unique: scryfall.UniqueModePrints,
		Order:  scryfall.OrderUSD,
	})
	if err != nil {
		var serr *scryfall.Error
		if errors.As(err, &serr) && (serr.Code == "not_found" || serr.Status == http.StatusNotFound) {
			return nil, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}

	out := make([]card.Candidate, 0, len(resp.Cards))
	for _, c := range resp.Cards {
		cand, ok := toCandidate(c)
		if !ok {
			log.Printf("CATALOG skip %s (%s #%s): no artwork", c.Name, c.Set, c.CollectorNumber)
			continue
		}
		out = append(out, cand)
		if f.max > 0 && len(out) >= f.max {
			break
		}
	}
	log.Printf("CATALOG %s -> %d printings (%d with artwork)", q, len(resp.Cards), len(out))
	return out, nil
}

// limiterErr reports a limiter refusal as a deadline. Wait refuses early when
// the next token would arrive after the deadline, before ctx itself expires.
func limiterErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
}

func toCandidate(c scryfall.Card) (card.Candidate, bool) {
	url := artworkURL(c.ImageURIs)
	if url == "" {
		for _, face := range c.CardFaces {
			if url = artworkURL(&face.ImageURIs); url != "" {
				break
			}
		}
	}
	if url == "" {
		return card.Candidate{}, false
	}
	return card.Candidate{
		Name:            c.Name,
		Set:             c.Set,
		CollectorNumber: c.CollectorNumber,
		ImageURL:        url,
		Prices:          toPrices(c.Prices),
	}, true
}

// artworkURL prefers the normal-size scan, which is close to the comparison canvas.
func artworkURL(uris *scryfall.ImageURIs) string {
	if uris == nil {
		return ""
	}
	for _, u := range []string{uris.Normal, uris.Large, uris.PNG, uris.Small} {
		if u != "" {
			return u
		}
	}
	return ""
}

func toPrices(p scryfall.Prices) card.Prices {
	out := card.Prices{}
	for k, v := range map[string]string{
		card.PriceUSD:     p.USD,
		card.PriceUSDFoil: p.USDFoil,
		card.PriceEUR:     p.EUR,
		card.PriceTix:     p.Tix,
	} {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
