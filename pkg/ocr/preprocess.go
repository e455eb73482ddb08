package ocr

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

var (
	black = color.NRGBA{0, 0, 0, 255}
	white = color.NRGBA{255, 255, 255, 255}
)

// binarize converts img to pure black and white around a global threshold.
// Pixels at or below threshold become black.
func binarize(img image.Image, threshold uint8) *image.NRGBA {
	return imaging.AdjustFunc(imaging.Grayscale(img), func(c color.NRGBA) color.NRGBA {
		if c.R <= threshold {
			return black
		}
		return white
	})
}

// adaptiveThreshold binarizes against the mean of a window x window neighbourhood
// minus bias. Used as a second pass when glare defeats the global cutoff.
func adaptiveThreshold(img image.Image, window, bias int) *image.NRGBA {
	if window < 3 {
		window = 3
	}
	if window%2 == 0 {
		window++
	}
	gray := imaging.Grayscale(img)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	out := imaging.New(w, h, white)
	if w == 0 || h == 0 {
		return out
	}
	// summed-area table with a zero row and column
	sums := make([]int, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		row := 0
		for x := 0; x < w; x++ {
			row += int(gray.Pix[y*gray.Stride+x*4])
			sums[(y+1)*(w+1)+x+1] = sums[y*(w+1)+x+1] + row
		}
	}
	half := window / 2
	for y := 0; y < h; y++ {
		y0, y1 := max(y-half, 0), min(y+half, h-1)
		for x := 0; x < w; x++ {
			x0, x1 := max(x-half, 0), min(x+half, w-1)
			sum := sums[(y1+1)*(w+1)+x1+1] - sums[y0*(w+1)+x1+1] - sums[(y1+1)*(w+1)+x0] + sums[y0*(w+1)+x0]
			mean := sum / ((x1 - x0 + 1) * (y1 - y0 + 1))
			if int(gray.Pix[y*gray.Stride+x*4]) < mean-bias {
				out.SetNRGBA(x, y, black)
			}
		}
	}
	return out
}
