package identify

import (
	"context"
	"errors"

	"cardprice/pkg/catalog"
	"cardprice/pkg/match"
	"cardprice/pkg/ocr"
	"cardprice/pkg/vision"
)

// Pipeline failures. Each is matchable with errors.Is; the stage sentinels of
// the underlying packages are aliased so callers only import identify.
var (
	ErrNoCardDetected      = vision.ErrNoCardDetected
	ErrNoTitleExtracted    = ocr.ErrNoTitle
	ErrDatabaseUnavailable = catalog.ErrDatabaseUnavailable
	ErrNoCandidatesFound   = errors.New("no matching cards found in database")
	ErrNoMatchSelected     = match.ErrNoMatchSelected
)

// Reason renders err as a message suitable for an end user.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoCardDetected):
		return "No card detected in the image"
	case errors.Is(err, ErrNoTitleExtracted):
		return "Could not read a card title from the image"
	case errors.Is(err, ErrDatabaseUnavailable):
		return "Card database unavailable, try again later"
	case errors.Is(err, ErrNoCandidatesFound):
		return "No matching cards found in database"
	case errors.Is(err, ErrNoMatchSelected):
		return "No matching card found"
	case errors.Is(err, context.DeadlineExceeded):
		return "Timed out identifying the card, try again"
	}
	return "Internal error"
}
