package match

import (
	"image"

	"github.com/disintegration/imaging"
)

// SSIM constants for 8-bit luminance.
const (
	ssimWindow = 7
	ssimC1     = (0.01 * 255) * (0.01 * 255)
	ssimC2     = (0.03 * 255) * (0.03 * 255)
)

// luminance returns the gray levels of img resized to w x h.
func luminance(img image.Image, w, h int) []float64 {
	g := imaging.Grayscale(imaging.Resize(img, w, h, imaging.Linear))
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[y*w+x] = float64(g.Pix[y*g.Stride+x*4])
		}
	}
	return out
}

// SSIM resizes a and b to a w x h canvas and returns their mean structural
// similarity over 7x7 windows, clamped to [0,1].
func SSIM(a, b image.Image, w, h int) float64 {
	return ssimLuma(luminance(a, w, h), luminance(b, w, h), w, h)
}

// ssimLuma computes mean SSIM of two w x h luminance planes using
// summed-area tables for the window moments.
func ssimLuma(x, y []float64, w, h int) float64 {
	win := ssimWindow
	if w < win || h < win {
		win = min(w, h)
	}
	if win < 1 {
		return 0
	}
	sx := integral(x, nil, w, h)
	sy := integral(y, nil, w, h)
	sxx := integral(x, x, w, h)
	syy := integral(y, y, w, h)
	sxy := integral(x, y, w, h)

	n := float64(win * win)
	cov := 1.0
	if n > 1 {
		cov = n / (n - 1)
	}
	var total float64
	count := 0
	for r := 0; r+win <= h; r++ {
		for c := 0; c+win <= w; c++ {
			mx := boxSum(sx, w, c, r, win) / n
			my := boxSum(sy, w, c, r, win) / n
			vx := (boxSum(sxx, w, c, r, win)/n - mx*mx) * cov
			vy := (boxSum(syy, w, c, r, win)/n - my*my) * cov
			vxy := (boxSum(sxy, w, c, r, win)/n - mx*my) * cov
			num := (2*mx*my + ssimC1) * (2*vxy + ssimC2)
			den := (mx*mx + my*my + ssimC1) * (vx + vy + ssimC2)
			total += num / den
			count++
		}
	}
	score := total / float64(count)
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}

// integral builds a (w+1) x (h+1) summed-area table of a, or of a*b when b is non-nil.
func integral(a, b []float64, w, h int) []float64 {
	s := make([]float64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var row float64
		for x := 0; x < w; x++ {
			v := a[y*w+x]
			if b != nil {
				v *= b[y*w+x]
			}
			row += v
			s[(y+1)*(w+1)+x+1] = s[y*(w+1)+x+1] + row
		}
	}
	return s
}

func boxSum(s []float64, w, x, y, win int) float64 {
	stride := w + 1
	return s[(y+win)*stride+x+win] - s[y*stride+x+win] - s[(y+win)*stride+x] + s[y*stride+x]
}
