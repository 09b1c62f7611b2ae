// Package ziptfrecord converts zip archives of images with bounding box
// annotations into TFRecord files for object detection training.
package ziptfrecord

import (
	"archive/zip"
	"bufio"
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// imageSuffixes are the recognized raster image entry suffixes. Matching is
// case-sensitive, so entries like photo.JPG are not converted.
var imageSuffixes = []string{".png", ".jpg", ".jpeg"}

// Pipeline converts one zip archive into one TFRecord file. The archive must
// contain an annotation entry whose name ends in AnnotationSuffix; every
// image entry produces one record, in archive listing order.
type Pipeline struct {
	encoder       Encoder
	resizeLonger  int
	resizeShorter int
	log           *zap.Logger
}

// NewPipeline creates a Pipeline with the image processing options from cfg.
func NewPipeline(cfg Config, log *zap.Logger) *Pipeline {
	return &Pipeline{
		encoder:       Encoder{JPEGQuality: cfg.JPEGQuality},
		resizeLonger:  cfg.ResizeLonger,
		resizeShorter: cfg.ResizeShorter,
		log:           log,
	}
}

// Run converts the in-memory archive and writes the records to outPath.
//
// Any failure aborts the whole run; there is no per-image error isolation and
// a partially written output file is not cleaned up.
func (p *Pipeline) Run(archive []byte, outPath string) (err error) {
	r, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return &Error{Op: "open archive", Err: err}
	}

	// First pass: locate and parse the annotation entry before any output is
	// written.
	index, err := p.buildIndex(r.File)
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return &Error{Op: "create output file", Err: err}
	}
	defer closeWithErrCheck(out, &err)

	// Second pass: convert the image entries in listing order.
	numRecords, err := p.writeRecords(out, r.File, index)
	if err != nil {
		return err
	}

	p.log.Info("Wrote TFRecord file",
		zap.String("path", outPath),
		zap.Int("records", numRecords))
	return nil
}

// buildIndex scans the entries for the first one ending in AnnotationSuffix
// and parses it into an AnnotationIndex.
func (p *Pipeline) buildIndex(entries []*zip.File) (AnnotationIndex, error) {
	for _, f := range entries {
		if !strings.HasSuffix(f.Name, AnnotationSuffix) {
			continue
		}

		lines, err := readEntryLines(f)
		if err != nil {
			return nil, &Error{Op: "read annotation entry", Err: fmt.Errorf("%s: %w", f.Name, err)}
		}
		index, err := ParseAnnotations(lines)
		if err != nil {
			return nil, &Error{Op: "parse annotations", Err: fmt.Errorf("%s: %w", f.Name, err)}
		}

		p.log.Info("Parsed annotations",
			zap.String("entry", f.Name),
			zap.Int("annotated_images", len(index)))
		return index, nil
	}

	return nil, &Error{Op: "scan archive", Err: ErrAnnotationsMissing}
}

// writeRecords encodes every image entry as one record and appends it to w.
// Returns the number of records written.
func (p *Pipeline) writeRecords(w io.Writer, entries []*zip.File, index AnnotationIndex) (int, error) {
	numRecords := 0
	for _, f := range entries {
		if !hasImageSuffix(f.Name) {
			continue
		}

		img, err := readEntryImage(f)
		if err != nil {
			return numRecords, &Error{Op: "decode image", Err: fmt.Errorf("%s: %w", f.Name, err)}
		}

		boxes := index.Boxes(f.Name)
		if p.resizeLonger > 0 || p.resizeShorter > 0 {
			var scaleWidth, scaleHeight float64
			img, scaleWidth, scaleHeight = resizeImage(img, p.resizeLonger, p.resizeShorter)
			boxes = scaleBoxes(boxes, scaleWidth, scaleHeight)
		}

		payload, err := p.encoder.Encode(img, boxes)
		if err != nil {
			return numRecords, &Error{Op: "encode record", Err: fmt.Errorf("%s: %w", f.Name, err)}
		}
		if err := WriteRecord(w, payload); err != nil {
			return numRecords, &Error{Op: "write record", Err: fmt.Errorf("%s: %w", f.Name, err)}
		}
		numRecords++
	}

	return numRecords, nil
}

// hasImageSuffix reports whether name ends in a recognized image suffix.
func hasImageSuffix(name string) bool {
	for _, suffix := range imageSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// readEntryLines reads the zip entry as text lines.
func readEntryLines(f *zip.File) (lines []string, err error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer closeWithErrCheck(rc, &err)

	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if sErr := scanner.Err(); sErr != nil {
		return nil, sErr
	}

	return lines, nil
}

// readEntryImage decodes the zip entry as a raster image.
func readEntryImage(f *zip.File) (img image.Image, err error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer closeWithErrCheck(rc, &err)

	return decodeImage(rc)
}

// closeWithErrCheck calls c.Close(). If it returns an error, and (*e == nil),
// e is set to that error.
func closeWithErrCheck(c io.Closer, e *error) {
	err := c.Close()
	if err != nil && *e == nil {
		*e = err
	}
}
