package imaging

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetSize(t *testing.T) {
	t.Run("both dimensions stretch exactly", func(t *testing.T) {
		w, h := TargetSize(600, 400, 100, 100)
		assert.Equal(t, 100, w)
		assert.Equal(t, 100, h)
	})

	t.Run("width only preserves aspect ratio", func(t *testing.T) {
		w, h := TargetSize(600, 400, 300, 0)
		assert.Equal(t, 300, w)
		assert.Equal(t, 200, h)
	})

	t.Run("height only preserves aspect ratio", func(t *testing.T) {
		w, h := TargetSize(600, 400, 0, 200)
		assert.Equal(t, 300, w)
		assert.Equal(t, 200, h)
	})

	t.Run("derived dimension rounds to nearest", func(t *testing.T) {
		// 1000x333 at width 100 -> 33.3 rounds to 33
		w, h := TargetSize(1000, 333, 100, 0)
		assert.Equal(t, 100, w)
		assert.Equal(t, 33, h)
	})

	t.Run("derived dimension floors at one", func(t *testing.T) {
		_, h := TargetSize(10000, 2, 100, 0)
		assert.Equal(t, 1, h)
	})

	t.Run("neither positive passes through", func(t *testing.T) {
		w, h := TargetSize(600, 400, 0, 0)
		assert.Equal(t, 600, w)
		assert.Equal(t, 400, h)
	})
}

func TestResize(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 600, 400))

	out := Resize(src, 300, 0)
	assert.Equal(t, 300, out.Bounds().Dx())
	assert.Equal(t, 200, out.Bounds().Dy())

	out = Resize(src, 100, 100)
	assert.Equal(t, 100, out.Bounds().Dx())
	assert.Equal(t, 100, out.Bounds().Dy())

	// Matching size returns the source untouched.
	same := Resize(src, 600, 400)
	assert.Same(t, image.Image(src), same)
}

func TestCompressLevel(t *testing.T) {
	assert.Equal(t, 0, CompressLevel(100))
	assert.Equal(t, 9, CompressLevel(1))

	prev := CompressLevel(1)
	for q := 2; q <= 100; q++ {
		level := CompressLevel(q)
		assert.GreaterOrEqual(t, prev, level, "quality %d", q)
		assert.GreaterOrEqual(t, level, 0)
		assert.LessOrEqual(t, level, 9)
		prev = level
	}
}

func TestFlattenOnWhite(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.RGBA{})                          // fully transparent
	src.Set(1, 0, color.RGBA{R: 255, A: 255})            // opaque red

	flat := FlattenOnWhite(src)

	r, g, b, a := flat.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)
	assert.Equal(t, uint32(0xffff), a)

	r, g, b, _ = flat.At(1, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0), b)
}

func TestNormalizeExt(t *testing.T) {
	assert.Equal(t, ".jpg", NormalizeExt("jpeg"))
	assert.Equal(t, ".jpg", NormalizeExt(".JPEG"))
	assert.Equal(t, ".png", NormalizeExt("png"))
	assert.Equal(t, ".webp", NormalizeExt(" webp "))
	assert.Equal(t, "", NormalizeExt(""))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 60), A: 255})
		}
	}

	for _, ext := range []string{".png", ".jpg", ".bmp"} {
		path := filepath.Join(dir, "img"+ext)
		require.NoError(t, Encode(path, src, 90), ext)

		img, err := Decode(path)
		require.NoError(t, err, ext)
		assert.Equal(t, 8, img.Bounds().Dx(), ext)
		assert.Equal(t, 4, img.Bounds().Dy(), ext)
	}
}

func TestDecodeRejectsUnknownFormat(t *testing.T) {
	_, err := Decode(filepath.Join(t.TempDir(), "file.xyz"))
	assert.Error(t, err)
}

func TestCanEncode(t *testing.T) {
	for _, ext := range []string{"jpg", ".jpeg", "png", "webp", ".bmp", "tif", "tiff"} {
		assert.True(t, CanEncode(ext), ext)
	}
	assert.False(t, CanEncode("gif"))
	assert.False(t, CanEncode(""))
}

func TestEncodeFailureLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.xyz")
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))

	require.Error(t, Encode(path, src, 90))

	// A failed encode must not leave a partial output that an existence
	// check would later count as a completed conversion.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.Error(t, Encode(path, src, 90))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
