package ziptfrecord

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds the resolved job parameters.
type Config struct {
	SourceBucket string // Bucket holding the input zip archive.
	ZipKey       string // Object key of the zip archive.
	TargetBucket string // Bucket receiving the TFRecord file.
	OutputPrefix string // Key prefix for the TFRecord file.

	JPEGQuality   int // JPEG quality for re-encoded images.
	ResizeLonger  int // Target length for the longer image side (0 keeps the size).
	ResizeShorter int // Target length for the shorter image side (0 keeps the size).
}

// FillFromEnv backfills parameters that were not set on the command line from
// JOB_-prefixed environment variables, e.g. JOB_SOURCE_BUCKET.
func (c *Config) FillFromEnv() {
	v := viper.New()
	v.SetEnvPrefix("JOB")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = v.GetString(key)
		}
	}
	fill(&c.SourceBucket, "source_bucket")
	fill(&c.ZipKey, "zip_key")
	fill(&c.TargetBucket, "target_bucket")
	fill(&c.OutputPrefix, "output_prefix")
}

// Validate returns a ConfigError naming every missing required parameter.
func (c *Config) Validate() error {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"source_bucket", c.SourceBucket},
		{"zip_key", c.ZipKey},
		{"target_bucket", c.TargetBucket},
		{"output_prefix", c.OutputPrefix},
	}
	for _, p := range required {
		if p.value == "" {
			missing = append(missing, p.name)
		}
	}

	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}
