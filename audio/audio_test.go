package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildArgs(t *testing.T) {
	t.Run("minimal mp3 conversion uses preset container and codec", func(t *testing.T) {
		args := BuildArgs("in.wav", "out/in_converted.mp3", EncodeOptions{OutputFormat: "mp3"})
		expected := []string{
			"-y", "-hide_banner", "-loglevel", "error", "-i", "in.wav",
			"-f", "mp3", "-c:a", "libmp3lame",
			"out/in_converted.mp3",
		}
		assert.Equal(t, expected, args)
	})

	t.Run("explicit codec wins over preset", func(t *testing.T) {
		args := BuildArgs("in.wav", "out.mp3", EncodeOptions{OutputFormat: "mp3", Codec: "libshine"})
		assert.Contains(t, args, "libshine")
		assert.NotContains(t, args, "libmp3lame")
	})

	t.Run("format without preset leaves container and codec unset", func(t *testing.T) {
		args := BuildArgs("in.wav", "out.wv", EncodeOptions{OutputFormat: "wv"})
		assert.NotContains(t, args, "-f")
		assert.NotContains(t, args, "-c:a")
	})

	t.Run("cut points follow the input", func(t *testing.T) {
		args := BuildArgs("in.mp3", "out.mp3", EncodeOptions{
			OutputFormat: "mp3",
			CutStart:     "00:00:10",
			CutEnd:       "00:01:00",
		})
		expected := []string{
			"-y", "-hide_banner", "-loglevel", "error", "-i", "in.mp3",
			"-ss", "00:00:10", "-to", "00:01:00",
			"-f", "mp3", "-c:a", "libmp3lame",
			"out.mp3",
		}
		assert.Equal(t, expected, args)
	})

	t.Run("channel rate bitrate and volume are forwarded when set", func(t *testing.T) {
		args := BuildArgs("in.flac", "out.mp3", EncodeOptions{
			OutputFormat: "mp3",
			Channels:     2,
			SampleRateHz: 44100,
			BitrateKbps:  192,
			VolumeDB:     "-3dB",
		})
		assert.Subset(t, args, []string{"-ac", "2", "-ar", "44100", "-b:a", "192k", "-filter:a", "volume=-3dB"})
	})

	t.Run("extra args precede the output path", func(t *testing.T) {
		args := BuildArgs("in.wav", "out.mp3", EncodeOptions{
			OutputFormat: "mp3",
			ExtraArgs:    []string{"-metadata", "title=x"},
		})
		assert.Equal(t, "out.mp3", args[len(args)-1])
		assert.Equal(t, "title=x", args[len(args)-2])
	})
}

func TestSplitArgs(t *testing.T) {
	args, err := SplitArgs(`-metadata "title=My Song" -map_metadata 0`)
	assert.NoError(t, err)
	assert.Equal(t, []string{"-metadata", "title=My Song", "-map_metadata", "0"}, args)
}

func TestSanitizeArgs(t *testing.T) {
	t.Run("clean args pass", func(t *testing.T) {
		assert.NoError(t, SanitizeArgs([]string{"-metadata", "title=x"}))
	})

	t.Run("shell metacharacters rejected", func(t *testing.T) {
		err := SanitizeArgs([]string{"-vf", "crop=$(whoami)"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "disallowed character")
	})

	t.Run("additional inputs rejected", func(t *testing.T) {
		err := SanitizeArgs([]string{"-i", "/etc/passwd"})
		assert.Error(t, err)
	})
}

func TestFormatPresets(t *testing.T) {
	assert.Equal(t, "libmp3lame", FormatPresets["mp3"].Codec)
	assert.Equal(t, "pcm_s16le", FormatPresets["wav"].Codec)
	assert.Equal(t, "flac", FormatPresets["flac"].Codec)
	// ogg intentionally defers codec choice to the encoder
	assert.Empty(t, FormatPresets["ogg"].Codec)
}

func TestExtensions(t *testing.T) {
	assert.Len(t, Extensions, 28)
	_, ok := Extensions[".mp3"]
	assert.True(t, ok)
	_, ok = Extensions[".midi"]
	assert.False(t, ok)
}
