package match

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"

	"github.com/disintegration/imaging"
)

// maxReferenceBytes bounds a single reference image download.
const maxReferenceBytes = 20 << 20

// download fetches and decodes the image at url.
func (m *Matcher) download(ctx context.Context, url string) (image.Image, error) {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// Wait refuses early when the token would arrive after the deadline
			return nil, fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}
	img, err := imaging.Decode(io.LimitReader(resp.Body, maxReferenceBytes))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return img, nil
}
