package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

type fakeRecognizer struct {
	texts []string
	calls int
}

func (f *fakeRecognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	f.calls++
	if f.calls > len(f.texts) {
		return "", nil
	}
	return f.texts[f.calls-1], nil
}

func TestExtractTitleUsesFirstCleanLine(t *testing.T) {
	rec := &fakeRecognizer{texts: []string{"Tarmogoyf i\nCreature"}}
	region := imaging.New(200, 40, color.NRGBA{255, 255, 255, 255})
	ex, err := NewExtractor(rec, DefaultConfig()).ExtractTitle(context.Background(), region)
	if err != nil {
		t.Fatalf("ExtractTitle: %v", err)
	}
	if ex.Title != "Tarmogoyf" {
		t.Fatalf("title %q", ex.Title)
	}
	if rec.calls != 1 {
		t.Fatalf("expected a single pass, got %d", rec.calls)
	}
	if ex.Thresholded == nil {
		t.Fatal("thresholded region missing")
	}
}

func TestExtractTitleAdaptiveFallback(t *testing.T) {
	rec := &fakeRecognizer{texts: []string{"  ", "Dark Ritual"}}
	region := imaging.New(200, 40, color.NRGBA{90, 90, 90, 255})
	ex, err := NewExtractor(rec, DefaultConfig()).ExtractTitle(context.Background(), region)
	if err != nil {
		t.Fatalf("ExtractTitle: %v", err)
	}
	if ex.Title != "Dark Ritual" || rec.calls != 2 {
		t.Fatalf("title=%q calls=%d", ex.Title, rec.calls)
	}
}

func TestExtractTitleNothingRead(t *testing.T) {
	rec := &fakeRecognizer{texts: []string{"~~", "|"}}
	region := imaging.New(200, 40, color.NRGBA{255, 255, 255, 255})
	_, err := NewExtractor(rec, DefaultConfig()).ExtractTitle(context.Background(), region)
	if !errors.Is(err, ErrNoTitle) {
		t.Fatalf("expected ErrNoTitle got %v", err)
	}
}

func TestTesseractBlankRegion(t *testing.T) {
	region := imaging.New(400, 80, color.NRGBA{255, 255, 255, 255})
	_, err := NewExtractor(nil, DefaultConfig()).ExtractTitle(context.Background(), region)
	if err == nil || err != ErrNoTitle {
		t.Fatalf("expected ErrNoTitle got %v", err)
	}
}

func TestBinarize(t *testing.T) {
	img := imaging.New(2, 1, color.NRGBA{255, 255, 255, 255})
	img.SetNRGBA(0, 0, color.NRGBA{100, 100, 100, 255})
	img.SetNRGBA(1, 0, color.NRGBA{200, 200, 200, 255})
	bw := binarize(img, 128)
	if bw.NRGBAAt(0, 0) != black || bw.NRGBAAt(1, 0) != white {
		t.Fatalf("unexpected pixels %v %v", bw.NRGBAAt(0, 0), bw.NRGBAAt(1, 0))
	}
}
