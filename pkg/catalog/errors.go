package catalog

import "errors"

// ErrDatabaseUnavailable wraps transport and status failures of the card database.
var ErrDatabaseUnavailable = errors.New("card database unavailable")
