// Package ocr reads the printed title from a prepared title region.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Recognizer turns an image into raw text.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Tesseract is a Recognizer backed by the Tesseract engine.
type Tesseract struct {
	Language    string
	PageSegMode gosseract.PageSegMode
	Whitelist   string
}

// NewTesseract returns an English recognizer that assumes one uniform block of text.
func NewTesseract() Tesseract {
	return Tesseract{Language: "eng", PageSegMode: gosseract.PSM_SINGLE_BLOCK}
}

// Recognize runs Tesseract on img. The image is handed over in memory as PNG.
func (t Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode region: %w", err)
	}
	client := gosseract.NewClient()
	defer client.Close()
	lang := t.Language
	if lang == "" {
		lang = "eng"
	}
	_ = client.SetLanguage(lang)
	_ = client.SetPageSegMode(t.PageSegMode)
	if t.Whitelist != "" {
		_ = client.SetWhitelist(t.Whitelist)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr error: %w", err)
	}
	return text, nil
}

// Config controls the thresholding applied before recognition.
type Config struct {
	Threshold        uint8 // global black/white cutoff
	AdaptiveFallback bool  // retry with a local-mean threshold when the first pass reads nothing
}

// DefaultConfig uses the intensity midpoint and enables the fallback pass.
func DefaultConfig() Config {
	return Config{Threshold: 128, AdaptiveFallback: true}
}

// Extraction is the outcome of reading a title region.
type Extraction struct {
	Title       string
	Raw         string
	Lines       []string
	Thresholded image.Image
}

// Extractor thresholds a title region, recognizes its text and cleans it.
type Extractor struct {
	rec Recognizer
	cfg Config
}

// NewExtractor returns an Extractor using rec, or Tesseract when rec is nil.
func NewExtractor(rec Recognizer, cfg Config) *Extractor {
	if rec == nil {
		rec = NewTesseract()
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultConfig().Threshold
	}
	return &Extractor{rec: rec, cfg: cfg}
}

// ExtractTitle returns the first clean line of text in region. It returns
// ErrNoTitle together with the partial Extraction when nothing usable is read.
func (e *Extractor) ExtractTitle(ctx context.Context, region image.Image) (Extraction, error) {
	if region == nil {
		return Extraction{}, errors.New("ocr: nil region")
	}
	ex, err := e.pass(ctx, binarize(region, e.cfg.Threshold))
	if err != nil {
		return ex, err
	}
	if len(ex.Lines) == 0 && e.cfg.AdaptiveFallback {
		log.Printf("OCR global threshold read nothing usable, raw=%q; trying adaptive pass", snippet(normalizeOCRText(ex.Raw), 80))
		ex, err = e.pass(ctx, adaptiveThreshold(region, 15, 7))
		if err != nil {
			return ex, err
		}
	}
	if len(ex.Lines) == 0 {
		return ex, ErrNoTitle
	}
	ex.Title = ex.Lines[0]
	log.Printf("OCR title=%q lines=%d", ex.Title, len(ex.Lines))
	return ex, nil
}

func (e *Extractor) pass(ctx context.Context, bw image.Image) (Extraction, error) {
	raw, err := e.rec.Recognize(ctx, bw)
	if err != nil {
		return Extraction{Thresholded: bw}, err
	}
	log.Printf("OCR RAW snippet=%q", snippet(normalizeOCRText(raw), 180))
	return Extraction{Raw: raw, Lines: CleanLines(raw), Thresholded: bw}, nil
}

// snippet shortens s to at most n runes for log lines.
func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func normalizeOCRText(t string) string {
	return strings.Join(strings.Fields(t), " ")
}
