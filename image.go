package ziptfrecord

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"

	"github.com/disintegration/imaging"
)

// decodeImage decodes the raster image read from r.
func decodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	return img, err
}

// encodeJPEG re-encodes img as JPEG with the given quality.
func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// resizeImage resamples the image to match the longer and shorter sides (one
// may be 0 to keep the aspect ratio). Downsampling uses a box filter,
// upsampling bilinear resampling.
//
// Returns the resized image along with the width and height scale factors.
func resizeImage(img image.Image, longerSide, shorterSide int) (
		resized image.Image, scaleWidth, scaleHeight float64) {

	imgBounds := img.Bounds()
	imgWidth := imgBounds.Dx()
	imgHeight := imgBounds.Dy()

	imgLonger := imgWidth
	imgShorter := imgHeight
	isLandscape := true
	if imgHeight > imgWidth {
		imgLonger = imgHeight
		imgShorter = imgWidth
		isLandscape = false
	}

	// Calculate the target dimensions.
	if longerSide <= 0 {
		longerSide = int(math.Round(float64(shorterSide) * (float64(imgLonger) / float64(imgShorter))))
	} else if shorterSide <= 0 {
		shorterSide = int(math.Round(float64(longerSide) * (float64(imgShorter) / float64(imgLonger))))
	}

	// Select the filter based on the direction of the rescaling operation.
	filter := imaging.Linear
	if longerSide*shorterSide < imgWidth*imgHeight {
		filter = imaging.Box
	}

	// Resize.
	if isLandscape {
		resized = imaging.Resize(img, longerSide, shorterSide, filter)
		scaleWidth = float64(longerSide) / float64(imgLonger)
		scaleHeight = float64(shorterSide) / float64(imgShorter)
	} else { // Portrait.
		resized = imaging.Resize(img, shorterSide, longerSide, filter)
		scaleWidth = float64(shorterSide) / float64(imgShorter)
		scaleHeight = float64(longerSide) / float64(imgLonger)
	}

	return resized, scaleWidth, scaleHeight
}

// scaleBoxes rescales bounding box coordinates to match a resized image.
func scaleBoxes(boxes []BoundingBox, scaleWidth, scaleHeight float64) []BoundingBox {
	scaled := make([]BoundingBox, len(boxes))
	for i, b := range boxes {
		scaled[i] = BoundingBox{
			XMin:  b.XMin * scaleWidth,
			YMin:  b.YMin * scaleHeight,
			XMax:  b.XMax * scaleWidth,
			YMax:  b.YMax * scaleHeight,
			Label: b.Label,
		}
	}
	return scaled
}
