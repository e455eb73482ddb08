package ocr

import "errors"

// ErrNoTitle is returned when OCR produced no usable title line.
var ErrNoTitle = errors.New("no title found")
