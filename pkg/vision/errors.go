package vision

import "errors"

// ErrNoCardDetected is returned when no plausible card boundary is found in the frame.
var ErrNoCardDetected = errors.New("no card detected")
