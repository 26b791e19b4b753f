// Package imaging wraps image decoding, resampling, and encoding behind
// extension-driven helpers so tasks never touch codec packages directly.
package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	xwebp "golang.org/x/image/webp"
)

// NormalizeExt lowercases an extension, ensures a leading dot, and folds
// ".jpeg" to ".jpg".
func NormalizeExt(ext string) string {
	e := strings.ToLower(strings.TrimSpace(ext))
	if e == "" {
		return ""
	}
	if !strings.HasPrefix(e, ".") {
		e = "." + e
	}
	if e == ".jpeg" {
		e = ".jpg"
	}
	return e
}

// Decode reads and decodes the image at path based on its extension.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open image: %w", err)
	}
	defer f.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(f)
	case ".png":
		img, err = png.Decode(f)
	case ".webp":
		img, err = xwebp.Decode(f)
	case ".bmp":
		img, err = bmp.Decode(f)
	case ".tif", ".tiff":
		img, err = tiff.Decode(f)
	default:
		return nil, fmt.Errorf("unsupported image format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("could not decode image: %w", err)
	}
	return img, nil
}

// TargetSize computes output dimensions from the configured targets.
// Both positive: exact stretch. One positive: the other side is derived
// from the source aspect ratio, rounded to nearest, floored at 1.
// Neither positive: unchanged.
func TargetSize(w, h, targetW, targetH int) (int, int) {
	switch {
	case targetW > 0 && targetH > 0:
		return targetW, targetH
	case targetW > 0:
		nh := int(math.Round(float64(h) * float64(targetW) / float64(w)))
		if nh < 1 {
			nh = 1
		}
		return targetW, nh
	case targetH > 0:
		nw := int(math.Round(float64(w) * float64(targetH) / float64(h)))
		if nw < 1 {
			nw = 1
		}
		return nw, targetH
	default:
		return w, h
	}
}

// Resize scales img to the dimensions produced by TargetSize using a
// high-quality resampling kernel. Returns img unchanged when the size
// already matches.
func Resize(img image.Image, targetW, targetH int) image.Image {
	b := img.Bounds()
	nw, nh := TargetSize(b.Dx(), b.Dy(), targetW, targetH)
	if nw == b.Dx() && nh == b.Dy() {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// FlattenOnWhite composites img onto an opaque white background. Required
// when encoding to a format without alpha support; opaque sources pass
// through visually unchanged.
func FlattenOnWhite(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// CompressLevel maps a 1-100 quality value onto the 0-9 PNG compression
// scale: level = round((100-q)*9/99), clamped to [0,9].
func CompressLevel(quality int) int {
	level := int(math.Round(float64(100-quality) * 9 / 99))
	if level < 0 {
		level = 0
	}
	if level > 9 {
		level = 9
	}
	return level
}

// pngCompression buckets a 0-9 level onto the encoder's discrete settings.
func pngCompression(level int) png.CompressionLevel {
	switch {
	case level == 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

// CanEncode reports whether Encode supports the extension.
func CanEncode(ext string) bool {
	switch NormalizeExt(ext) {
	case ".jpg", ".png", ".webp", ".bmp", ".tif", ".tiff":
		return true
	}
	return false
}

// Encode writes img to path, selecting the codec from the path's
// extension. quality is forwarded where the format has a quality knob and
// remapped via CompressLevel for PNG. No error path leaves a partial file
// behind; a later existence check must only ever see complete outputs.
func Encode(path string, img image.Image, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create output: %w", err)
	}

	switch NormalizeExt(filepath.Ext(path)) {
	case ".jpg":
		err = jpeg.Encode(f, FlattenOnWhite(img), &jpeg.Options{Quality: quality})
	case ".png":
		enc := &png.Encoder{CompressionLevel: pngCompression(CompressLevel(quality))}
		err = enc.Encode(f, img)
	case ".webp":
		err = webp.Encode(f, img, &webp.Options{Quality: float32(quality)})
	case ".bmp":
		err = bmp.Encode(f, img)
	case ".tif", ".tiff":
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = fmt.Errorf("unsupported output format: %s", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("could not encode image: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("could not encode image: %w", err)
	}
	return nil
}
