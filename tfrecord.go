package ziptfrecord

// TFRecord object detection specific functionality.

import (
	"fmt"
	"image"
	"io"

	"github.com/golang/protobuf/proto"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
)

// DefaultJPEGQuality is used when no quality is configured.
const DefaultJPEGQuality = 90

// Encoder converts one decoded image and its bounding boxes into a
// serialized tensorflow.Example payload.
type Encoder struct {
	JPEGQuality int // JPEG quality for the embedded image, [1, 100].
}

// Encode re-encodes img as JPEG and wraps it together with boxes in an
// Example with the fields image, xmins, xmaxs, ymins, ymaxs and labels.
// Index i of every coordinate and label list refers to boxes[i].
func (e Encoder) Encode(img image.Image, boxes []BoundingBox) (payload []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("conversion to TensorFlow Example failed: %v", r)
		}
	}()

	quality := e.JPEGQuality
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	imgData, err := encodeJPEG(img, quality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode the image: %w", err)
	}

	// Prepare the per box data.
	numBoxes := len(boxes)
	xmins := make([]float32, numBoxes)
	ymins := make([]float32, numBoxes)
	xmaxs := make([]float32, numBoxes)
	ymaxs := make([]float32, numBoxes)
	labels := make([]int64, numBoxes)
	for i, b := range boxes {
		xmins[i] = float32(b.XMin)
		ymins[i] = float32(b.YMin)
		xmaxs[i] = float32(b.XMax)
		ymaxs[i] = float32(b.YMax)
		labels[i] = b.Label
	}

	f := make(map[string]interface{}, 6)
	f["image"] = imgData
	f["xmins"] = xmins
	f["xmaxs"] = xmaxs
	f["ymins"] = ymins
	f["ymaxs"] = ymaxs
	f["labels"] = labels

	// Marshal deterministically so that re-running the pipeline on unchanged
	// input produces identical bytes.
	var buf proto.Buffer
	buf.SetDeterministic(true)
	if err := buf.Marshal(example.New(f)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// WriteRecord frames one serialized payload as a TFRecord and writes it to w.
func WriteRecord(w io.Writer, payload []byte) error {
	return tfrecord.Write(w, payload)
}
