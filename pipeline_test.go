package ziptfrecord

import (
	"archive/zip"
	"bytes"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ryszard/tfutils/go/tfrecord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type archiveEntry struct {
	name string
	data []byte
}

func buildArchive(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		f, err := w.Create(e.name)
		require.NoError(t, err)
		_, err = f.Write(e.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func jpegBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(width, height), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(width, height)))
	return buf.Bytes()
}

func readRecords(t *testing.T, path string) [][]byte {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records [][]byte
	for {
		data, err := tfrecord.Read(f)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		records = append(records, data)
	}

	return records
}

func TestPipelineRun(t *testing.T) {
	archive := buildArchive(t, []archiveEntry{
		{"images/a.jpg", jpegBytes(t, 32, 32)},
		{"images/b.png", pngBytes(t, 16, 16)},
		{"notes.md", []byte("not an image")},
		{"labels/location.txt", []byte("a.jpg 3 10 20 5 8\n")},
	})

	outPath := filepath.Join(t.TempDir(), OutputFileName)
	require.NoError(t, NewPipeline(Config{}, zap.NewNop()).Run(archive, outPath))

	records := readRecords(t, outPath)
	require.Len(t, records, 2)

	// First record in archive listing order: a.jpg with one box.
	f := decodeExample(t, records[0])
	assert.Equal(t, []float32{10}, f["xmins"].GetFloatList().Value)
	assert.Equal(t, []float32{15}, f["xmaxs"].GetFloatList().Value)
	assert.Equal(t, []float32{20}, f["ymins"].GetFloatList().Value)
	assert.Equal(t, []float32{28}, f["ymaxs"].GetFloatList().Value)
	assert.Equal(t, []int64{3}, f["labels"].GetInt64List().Value)

	// b.png has no annotations but still produces a record with empty lists.
	f = decodeExample(t, records[1])
	assert.NotEmpty(t, f["image"].GetBytesList().Value)
	assert.Empty(t, f["xmins"].GetFloatList().Value)
	assert.Empty(t, f["labels"].GetInt64List().Value)
}

func TestPipelineMissingAnnotations(t *testing.T) {
	archive := buildArchive(t, []archiveEntry{
		{"a.jpg", jpegBytes(t, 8, 8)},
	})

	outPath := filepath.Join(t.TempDir(), OutputFileName)
	err := NewPipeline(Config{}, zap.NewNop()).Run(archive, outPath)
	require.ErrorIs(t, err, ErrAnnotationsMissing)

	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr), "no output may be written")
}

func TestPipelineCaseSensitiveSuffixes(t *testing.T) {
	archive := buildArchive(t, []archiveEntry{
		{"a.JPG", jpegBytes(t, 8, 8)},
		{"location.txt", nil},
	})

	outPath := filepath.Join(t.TempDir(), OutputFileName)
	require.NoError(t, NewPipeline(Config{}, zap.NewNop()).Run(archive, outPath))

	assert.Empty(t, readRecords(t, outPath))
}

func TestPipelineBadImageAborts(t *testing.T) {
	archive := buildArchive(t, []archiveEntry{
		{"location.txt", []byte("a.jpg 1 0 0 1 1\n")},
		{"a.jpg", jpegBytes(t, 8, 8)},
		{"broken.jpg", []byte("not an image")},
	})

	outPath := filepath.Join(t.TempDir(), OutputFileName)
	err := NewPipeline(Config{}, zap.NewNop()).Run(archive, outPath)
	require.Error(t, err)

	var opErr *Error
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "decode image", opErr.Op)
}

func TestPipelineDeterministic(t *testing.T) {
	archive := buildArchive(t, []archiveEntry{
		{"a.jpg", jpegBytes(t, 24, 24)},
		{"b.jpg", jpegBytes(t, 12, 12)},
		{"location.txt", []byte("a.jpg 2 1 2 3 4\nb.jpg 5 0 0 6 6\n")},
	})

	dir := t.TempDir()
	first := filepath.Join(dir, "first.tfrecord")
	second := filepath.Join(dir, "second.tfrecord")
	require.NoError(t, NewPipeline(Config{}, zap.NewNop()).Run(archive, first))
	require.NoError(t, NewPipeline(Config{}, zap.NewNop()).Run(archive, second))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPipelineResizeRescalesBoxes(t *testing.T) {
	archive := buildArchive(t, []archiveEntry{
		{"a.jpg", jpegBytes(t, 100, 50)},
		{"location.txt", []byte("a.jpg 1 10 10 20 20\n")},
	})

	outPath := filepath.Join(t.TempDir(), OutputFileName)
	cfg := Config{ResizeLonger: 50}
	require.NoError(t, NewPipeline(cfg, zap.NewNop()).Run(archive, outPath))

	records := readRecords(t, outPath)
	require.Len(t, records, 1)

	f := decodeExample(t, records[0])
	assert.Equal(t, []float32{5}, f["xmins"].GetFloatList().Value)
	assert.Equal(t, []float32{5}, f["ymins"].GetFloatList().Value)
	assert.Equal(t, []float32{15}, f["xmaxs"].GetFloatList().Value)
	assert.Equal(t, []float32{15}, f["ymaxs"].GetFloatList().Value)
}

func TestPipelineMalformedLinesSkipped(t *testing.T) {
	archive := buildArchive(t, []archiveEntry{
		{"a.jpg", jpegBytes(t, 8, 8)},
		{"location.txt", []byte("a.jpg 1 0 0 4\nb.jpg extra tokens on this line here too\n")},
	})

	outPath := filepath.Join(t.TempDir(), OutputFileName)
	require.NoError(t, NewPipeline(Config{}, zap.NewNop()).Run(archive, outPath))

	records := readRecords(t, outPath)
	require.Len(t, records, 1)
	assert.Empty(t, decodeExample(t, records[0])["labels"].GetInt64List().Value)
}
