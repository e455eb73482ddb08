package vision

import (
	"fmt"
	"image"
	"log"

	"gocv.io/x/gocv"
)

// locateCard returns the bounding box of the largest edge contour in img,
// in img's coordinate space.
func (p *Preprocessor) locateCard(img image.Image) (image.Rectangle, error) {
	b := img.Bounds()
	if b.Dx() < p.cfg.MinDimension || b.Dy() < p.cfg.MinDimension {
		log.Printf("VISION small frame %dx%d, using full frame as card", b.Dx(), b.Dy())
		return b, nil
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("convert image: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, p.cfg.CannyLow, p.cfg.CannyHigh)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	if contours.Size() == 0 {
		return image.Rectangle{}, ErrNoCardDetected
	}

	var largestArea float64
	largest := -1
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if largest == -1 || area > largestArea {
			largestArea = area
			largest = i
		}
	}
	box := gocv.BoundingRect(contours.At(largest))
	// the box comes back in Mat coordinates which always start at 0,0
	box = box.Add(b.Min).Intersect(b)
	if box.Dx() < 2 || box.Dy() < 2 {
		return image.Rectangle{}, ErrNoCardDetected
	}
	log.Printf("VISION card box=%v area=%.0f contours=%d", box, largestArea, contours.Size())
	return box, nil
}
