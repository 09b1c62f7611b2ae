// Converts a zip archive of images and location.txt bounding box annotations
// from object storage into a TFRecord file for object detection training.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sensorable/ziptfrecord"
)

var cfg ziptfrecord.Config

func init() {
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", filepath.Base(os.Args[0]))
		_, _ = fmt.Fprintln(os.Stderr, "  required:\t-source-bucket -zip-key -target-bucket -output-prefix")
		_, _ = fmt.Fprintln(os.Stderr, "  \t\tparameters may also be set via JOB_* environment variables")
		_, _ = fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}

	flag.StringVar(&cfg.SourceBucket, "source-bucket", "",
		"The source `bucket` holding the zip archive")
	flag.StringVar(&cfg.ZipKey, "zip-key", "",
		"The object `key` of the zip archive in the source bucket")
	flag.StringVar(&cfg.TargetBucket, "target-bucket", "",
		"The target `bucket` for the TFRecord file")
	flag.StringVar(&cfg.OutputPrefix, "output-prefix", "",
		"The key `prefix` for the TFRecord file in the target bucket")
	flag.IntVar(&cfg.JPEGQuality, "jpeg-quality", ziptfrecord.DefaultJPEGQuality,
		"The quality to use when re-encoding JPEGs [1, 100]")
	flag.IntVar(&cfg.ResizeLonger, "resize-longer", 0,
		"The target `length` for the longer side of embedded images (zero keeps the original size)")
	flag.IntVar(&cfg.ResizeShorter, "resize-shorter", 0,
		"The target `length` for the shorter side of embedded images (zero keeps the original size)")
}

func main() {
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Stderr.WriteString("CRITICAL: Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	cfg.FillFromEnv()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid job configuration", zap.Error(err))
		flag.Usage()
		_ = logger.Sync()
		os.Exit(2)
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = ziptfrecord.DefaultJPEGQuality
		logger.Warn("Invalid JPEG quality, using the default",
			zap.Int("quality", cfg.JPEGQuality))
	}

	ctx := context.Background()
	store, err := ziptfrecord.NewS3Storage(ctx, logger)
	if err != nil {
		logger.Error("Failed to initialize object storage", zap.Error(err))
		_ = logger.Sync()
		os.Exit(2)
	}

	if err := ziptfrecord.RunJob(ctx, cfg, store, logger); err != nil {
		logger.Error("Conversion job failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(2)
	}

	logger.Info("Conversion job finished")
}
