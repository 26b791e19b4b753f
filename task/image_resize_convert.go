package task

import (
	"context"
	"fmt"
	"path/filepath"

	"mediabatch/imaging"
)

// ImageResizeConvertConfig combines the resize targets with the convert
// parameters.
type ImageResizeConvertConfig struct {
	TargetW      int    `mapstructure:"target_w"`
	TargetH      int    `mapstructure:"target_h"`
	OutputFormat string `mapstructure:"output_format"`
	Quality      int    `mapstructure:"quality"`
}

// ImageResizeConvert resizes then re-encodes in one sequential operation
// per file, producing a single combined-named output.
type ImageResizeConvert struct {
	cfg ImageResizeConvertConfig
}

func NewImageResizeConvert(cfg ImageResizeConvertConfig) (*ImageResizeConvert, error) {
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "jpg"
	}
	if cfg.Quality <= 0 {
		cfg.Quality = 90
	}
	if !imaging.CanEncode(cfg.OutputFormat) {
		return nil, fmt.Errorf("unsupported output format: %q", cfg.OutputFormat)
	}
	return &ImageResizeConvert{cfg: cfg}, nil
}

func (t *ImageResizeConvert) ID() string   { return "image.resize_convert" }
func (t *ImageResizeConvert) Name() string { return "Image resize + convert" }

func (t *ImageResizeConvert) Accept(filename string) bool {
	_, ok := convertExtensions[lowerExt(filename)]
	return ok
}

func (t *ImageResizeConvert) outputPath(inputPath, outputDir string) string {
	outExt := imaging.NormalizeExt(t.cfg.OutputFormat)
	return filepath.Join(outputDir, filepath.Base(inputPath)+"_resized_converted"+outExt)
}

func (t *ImageResizeConvert) ProcessOne(ctx context.Context, inputPath, outputDir string) Outcome {
	if err := ensureDir(outputDir); err != nil {
		return Failed(KindEncodeError, inputPath, err)
	}

	outPath := t.outputPath(inputPath, outputDir)
	if fileExists(outPath) {
		return Skipped(outPath)
	}

	img, err := imaging.Decode(inputPath)
	if err != nil {
		return Failed(KindDecodeError, inputPath, err)
	}

	img = imaging.Resize(img, t.cfg.TargetW, t.cfg.TargetH)

	if err := imaging.Encode(outPath, img, t.cfg.Quality); err != nil {
		return Failed(KindEncodeError, inputPath, err)
	}
	return Succeeded(inputPath, outPath)
}
