// Package vision isolates the printed title band of a trading card photo.
package vision

import (
	"errors"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// TitleRegion is the enhanced title band cut from the detected card.
type TitleRegion struct {
	Image image.Image     // upscaled, sharpened, contrast-enhanced band
	Card  image.Rectangle // detected card box in the source frame
	Band  image.Rectangle // title band in the source frame
}

// Preprocessor turns an arbitrary photo into an OCR-ready title region.
type Preprocessor struct {
	cfg Config
}

// NewPreprocessor returns a Preprocessor; zero config fields fall back to defaults.
func NewPreprocessor(cfg Config) *Preprocessor {
	return &Preprocessor{cfg: cfg.withDefaults()}
}

// LocateAndCropTitle finds the card in img and returns its enhanced title band.
// It returns ErrNoCardDetected when no card boundary can be found.
func (p *Preprocessor) LocateAndCropTitle(img image.Image) (*TitleRegion, error) {
	if img == nil {
		return nil, errors.New("vision: nil image")
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrNoCardDetected
	}
	box, err := p.locateCard(img)
	if err != nil {
		return nil, err
	}
	band := p.titleBand(box)
	region := imaging.Crop(img, band)

	w := int(math.Round(float64(band.Dx()) * p.cfg.UpscaleFactor))
	h := int(math.Round(float64(band.Dy()) * p.cfg.UpscaleFactor))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	out := imaging.Resize(region, w, h, imaging.Linear)
	if p.cfg.SharpenSigma > 0 {
		out = imaging.Sharpen(out, p.cfg.SharpenSigma)
	}
	if p.cfg.ContrastFactor != 1 {
		out = imaging.AdjustContrast(out, (p.cfg.ContrastFactor-1)*100)
	}
	return &TitleRegion{Image: out, Card: box, Band: band}, nil
}

// titleBand returns the top TitleBandRatio share of box, at least one pixel tall.
func (p *Preprocessor) titleBand(box image.Rectangle) image.Rectangle {
	h := int(math.Round(float64(box.Dy()) * p.cfg.TitleBandRatio))
	if h < 1 {
		h = 1
	}
	if h > box.Dy() {
		h = box.Dy()
	}
	return image.Rect(box.Min.X, box.Min.Y, box.Max.X, box.Min.Y+h)
}
