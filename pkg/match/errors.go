package match

import "errors"

// ErrNoMatchSelected is returned when candidates existed but none could be scored.
var ErrNoMatchSelected = errors.New("no candidate could be scored")
