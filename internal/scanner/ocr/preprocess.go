package ocr

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// Adaptive threshold parameters: local mean over roughly an 11px window,
// offset by a small constant so flat background binarizes to white.
const (
	thresholdSigma  = 5.5
	thresholdOffset = 2
)

// Preprocess prepares a field crop for OCR: grayscale, adaptive
// binarization against a Gaussian local mean, then a light blur to soften
// binarization artifacts.
func Preprocess(img image.Image) image.Image {
	gray := imaging.Grayscale(img)

	// Gaussian-weighted local mean; comparing each pixel against it is an
	// adaptive threshold that survives uneven card lighting.
	localMean := blur.Gaussian(gray, thresholdSigma)

	bounds := gray.Bounds()
	binary := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(gray.At(x, y)).(color.Gray)
			m := color.GrayModel.Convert(localMean.At(x, y)).(color.Gray)

			if int(g.Y) > int(m.Y)-thresholdOffset {
				binary.SetGray(x, y, color.Gray{Y: 255})
			} else {
				binary.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}

	return blur.Gaussian(binary, 0.5)
}
