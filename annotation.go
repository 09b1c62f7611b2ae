package ziptfrecord

// Annotation file parsing.

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// AnnotationSuffix identifies the annotation entry inside the archive. The
// entry may be nested in a subdirectory.
const AnnotationSuffix = "location.txt"

// BoundingBox is a single labelled rectangle in absolute pixel coordinates.
type BoundingBox struct {
	XMin, YMin float64
	XMax, YMax float64
	Label      int64 // The integer class id.
}

// AnnotationIndex maps an image base file name to its bounding boxes, in the
// order the annotation lines were encountered.
type AnnotationIndex map[string][]BoundingBox

// Boxes returns the bounding boxes for the image at name, matching on the
// last path segment. Images without annotations yield an empty list.
func (idx AnnotationIndex) Boxes(name string) []BoundingBox {
	return idx[path.Base(name)]
}

// ParseAnnotations builds an AnnotationIndex from annotation lines.
//
// A line is accepted only if it splits into exactly six whitespace-separated
// tokens: image name, integer class id, x, y, width and height. Lines with
// any other token count are skipped. A line with six tokens that do not parse
// as numbers is an error.
func ParseAnnotations(lines []string) (AnnotationIndex, error) {
	idx := make(AnnotationIndex, len(lines))
	for _, line := range lines {
		tokens := strings.Fields(line)
		if len(tokens) != 6 {
			continue
		}

		box, err := parseBoundingBox(tokens)
		if err != nil {
			return nil, fmt.Errorf("unexpected values in %q: %w", line, err)
		}
		idx[tokens[0]] = append(idx[tokens[0]], box)
	}

	return idx, nil
}

// parseBoundingBox parses the token values for a single annotation. The box
// is stored as corner coordinates, so width and height are added to x and y.
func parseBoundingBox(tokens []string) (BoundingBox, error) {
	label, err := strconv.ParseInt(tokens[1], 10, 64)
	if err != nil {
		return BoundingBox{}, err
	}

	var v [4]float64 // x, y, width, height
	for i := 2; i < 6 && err == nil; i++ {
		v[i-2], err = strconv.ParseFloat(tokens[i], 64)
	}
	if err != nil {
		return BoundingBox{}, err
	}

	return BoundingBox{
		XMin:  v[0],
		YMin:  v[1],
		XMax:  v[0] + v[2],
		YMax:  v[1] + v[3],
		Label: label,
	}, nil
}
