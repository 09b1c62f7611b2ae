package ziptfrecord

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"
)

// OutputFileName is the fixed name of the record file under the output prefix.
const OutputFileName = "data.tfrecord"

// RunJob fetches the archive from the source bucket, converts it to a
// TFRecord file in the local temp directory and uploads the result to the
// target bucket under <output_prefix>/data.tfrecord.
func RunJob(ctx context.Context, cfg Config, store ObjectStorage, log *zap.Logger) error {
	archive, err := store.Fetch(ctx, cfg.SourceBucket, cfg.ZipKey)
	if err != nil {
		return err
	}

	outPath := filepath.Join(os.TempDir(), OutputFileName)
	if err := NewPipeline(cfg, log).Run(archive, outPath); err != nil {
		return err
	}

	return store.Store(ctx, cfg.TargetBucket, path.Join(cfg.OutputPrefix, OutputFileName), outPath)
}
