package task

import (
	"context"
	"path/filepath"
	"strings"

	"mediabatch/imaging"
)

var resizeExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}, ".bmp": {},
}

// ImageResizeConfig carries the typed parameters for the resize task.
type ImageResizeConfig struct {
	TargetW int `mapstructure:"target_w"`
	TargetH int `mapstructure:"target_h"`
	Quality int `mapstructure:"quality"`
}

// ImageResize stretches images to a target size, deriving a missing
// dimension from the source aspect ratio. Output keeps the original
// extension with a _resized suffix.
type ImageResize struct {
	cfg ImageResizeConfig
}

func NewImageResize(cfg ImageResizeConfig) *ImageResize {
	if cfg.Quality <= 0 {
		cfg.Quality = 100
	}
	return &ImageResize{cfg: cfg}
}

func (t *ImageResize) ID() string   { return "image.resize" }
func (t *ImageResize) Name() string { return "Image resize" }

func (t *ImageResize) Accept(filename string) bool {
	_, ok := resizeExtensions[lowerExt(filename)]
	return ok
}

func (t *ImageResize) ProcessOne(ctx context.Context, inputPath, outputDir string) Outcome {
	name := filepath.Base(inputPath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	outPath := filepath.Join(outputDir, stem+"_resized"+filepath.Ext(name))

	if err := ensureDir(outputDir); err != nil {
		return Failed(KindEncodeError, inputPath, err)
	}
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
