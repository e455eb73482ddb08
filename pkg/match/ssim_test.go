package match

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"
)

// artwork draws a simple two-tone pattern so SSIM has structure to compare.
func artwork(w, h int, bg, fg color.NRGBA, box image.Rectangle) *image.NRGBA {
	img := imaging.New(w, h, bg)
	return imaging.Paste(img, imaging.New(box.Dx(), box.Dy(), fg), box.Min)
}

func TestSSIMIdentical(t *testing.T) {
	a := artwork(300, 420, color.NRGBA{30, 60, 90, 255}, color.NRGBA{220, 200, 40, 255}, image.Rect(40, 50, 200, 300))
	if got := SSIM(a, a, 250, 350); got != 1 {
		t.Fatalf("SSIM(a, a) = %v want 1", got)
	}
}

func TestSSIMSymmetricAndOrdered(t *testing.T) {
	a := artwork(250, 350, color.NRGBA{30, 60, 90, 255}, color.NRGBA{220, 200, 40, 255}, image.Rect(40, 50, 200, 300))
	near := artwork(250, 350, color.NRGBA{30, 60, 90, 255}, color.NRGBA{220, 200, 40, 255}, image.Rect(44, 54, 204, 304))
	far := artwork(250, 350, color.NRGBA{240, 240, 240, 255}, color.NRGBA{10, 10, 10, 255}, image.Rect(150, 10, 240, 100))

	ab, ba := SSIM(a, near, 250, 350), SSIM(near, a, 250, 350)
	if math.Abs(ab-ba) > 1e-12 {
		t.Fatalf("SSIM not symmetric: %v vs %v", ab, ba)
	}
	farScore := SSIM(a, far, 250, 350)
	if !(ab > farScore) {
		t.Fatalf("expected near (%v) to beat far (%v)", ab, farScore)
	}
	for _, s := range []float64{ab, farScore} {
		if s < 0 || s > 1 {
			t.Fatalf("score %v outside [0,1]", s)
		}
	}
}

func TestSSIMTinyCanvas(t *testing.T) {
	a := imaging.New(3, 3, color.NRGBA{10, 10, 10, 255})
	if got := SSIM(a, a, 3, 3); got != 1 {
		t.Fatalf("tiny canvas SSIM = %v", got)
	}
}
