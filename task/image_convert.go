package task

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"mediabatch/imaging"
)

var convertExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}, ".bmp": {}, ".tif": {}, ".tiff": {},
}

// ImageConvertConfig carries the typed parameters for the format
// conversion task.
type ImageConvertConfig struct {
	FilterMode   string `mapstructure:"input_filter_mode"`   // all/only_png/only_jpg/custom
	FilterCustom string `mapstructure:"input_filter_custom"` // e.g. "png,jpg"
	OutputFormat string `mapstructure:"output_format"`       // any encodable image extension
	Quality      int    `mapstructure:"quality"`
}

// ImageConvert re-encodes images into a target format, compositing alpha
// sources onto white when the target cannot carry transparency.
type ImageConvert struct {
	cfg    ImageConvertConfig
	custom map[string]struct{}
}

func NewImageConvert(cfg ImageConvertConfig) (*ImageConvert, error) {
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "jpg"
	}
	if cfg.Quality <= 0 {
		cfg.Quality = 90
	}
	if !imaging.CanEncode(cfg.OutputFormat) {
		return nil, fmt.Errorf("unsupported output format: %q", cfg.OutputFormat)
	}
	switch strings.ToLower(cfg.FilterMode) {
	case "", "all", "only_png", "only_jpg", "custom":
	default:
		return nil, fmt.Errorf("unknown input filter mode: %q", cfg.FilterMode)
	}
	return &ImageConvert{
		cfg:    cfg,
		custom: parseCustomExts(cfg.FilterCustom),
	}, nil
}

func (t *ImageConvert) ID() string   { return "image.convert" }
func (t *ImageConvert) Name() string { return "Image convert" }

func (t *ImageConvert) Accept(filename string) bool {
	ext := lowerExt(filename)
	if _, ok := convertExtensions[ext]; !ok {
		return false
	}

	switch strings.ToLower(t.cfg.FilterMode) {
	case "only_png":
		return ext == ".png"
	case "only_jpg":
		return ext == ".jpg" || ext == ".jpeg"
	case "custom":
		// An empty custom set degrades to accepting all supported
		// extensions.
		if len(t.custom) == 0 {
			return true
		}
		_, ok := t.custom[ext]
		return ok
	default:
		return true
	}
}

func (t *ImageConvert) outputPath(inputPath, outputDir string) string {
	outExt := imaging.NormalizeExt(t.cfg.OutputFormat)
	return filepath.Join(outputDir, filepath.Base(inputPath)+"_converted"+outExt)
}

func (t *ImageConvert) ProcessOne(ctx context.Context, inputPath, outputDir string) Outcome {
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

	if err := imaging.Encode(outPath, img, t.cfg.Quality); err != nil {
		return Failed(KindEncodeError, inputPath, err)
	}
	return Succeeded(inputPath, outPath)
}
