package task

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediabatch/audio"
)

// mockEncoder records transcode calls and optionally fails.
type mockEncoder struct {
	calls []audio.EncodeOptions
	err   error
}

func (m *mockEncoder) Transcode(ctx context.Context, inputPath, outputPath string, opts audio.EncodeOptions) error {
	m.calls = append(m.calls, opts)
	if m.err != nil {
		return m.err
	}
	return os.WriteFile(outputPath, []byte("audio"), 0o644)
}

func TestAudioConvertProcessOne(t *testing.T) {
	ctx := context.Background()

	t.Run("successful transcode", func(t *testing.T) {
		in, out := t.TempDir(), t.TempDir()
		src := filepath.Join(in, "song.wav")
		require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

		enc := &mockEncoder{}
		tk, err := NewAudioConvert(AudioConvertConfig{OutputFormat: "mp3", BitrateKbps: 192}, enc, nil)
		require.NoError(t, err)

		outcome := tk.ProcessOne(ctx, src, out)
		require.True(t, outcome.Success, outcome.Message)
		assert.Equal(t, filepath.Join(out, "song_converted.mp3"), outcome.OutputPath)

		require.Len(t, enc.calls, 1)
		assert.Equal(t, "mp3", enc.calls[0].OutputFormat)
		assert.Equal(t, 192, enc.calls[0].BitrateKbps)
	})

	t.Run("existing output is skipped without invoking the encoder", func(t *testing.T) {
		in, out := t.TempDir(), t.TempDir()
		src := filepath.Join(in, "song.wav")
		require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(out, "song_converted.mp3"), []byte("old"), 0o644))

		enc := &mockEncoder{}
		tk, err := NewAudioConvert(AudioConvertConfig{OutputFormat: "mp3"}, enc, nil)
		require.NoError(t, err)

		outcome := tk.ProcessOne(ctx, src, out)
		assert.Equal(t, KindSkippedExists, outcome.Kind)
		assert.Empty(t, enc.calls)
	})

	t.Run("missing encoder binary is a dependency failure", func(t *testing.T) {
		in, out := t.TempDir(), t.TempDir()
		src := filepath.Join(in, "song.wav")
		require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

		tk, err := NewAudioConvert(AudioConvertConfig{}, nil,
			errors.New("encoder binary not found or not in PATH: ffmpeg"))
		require.NoError(t, err)

		outcome := tk.ProcessOne(ctx, src, out)
		assert.False(t, outcome.Success)
		assert.Equal(t, KindDependencyMissing, outcome.Kind)
		assert.Contains(t, outcome.Message, "not in PATH")
	})

	t.Run("encoder failure maps to process-failed", func(t *testing.T) {
		in, out := t.TempDir(), t.TempDir()
		src := filepath.Join(in, "song.wav")
		require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

		enc := &mockEncoder{err: errors.New("Invalid data found when processing input")}
		tk, err := NewAudioConvert(AudioConvertConfig{}, enc, nil)
		require.NoError(t, err)

		outcome := tk.ProcessOne(ctx, src, out)
		assert.Equal(t, KindProcessFailed, outcome.Kind)
		assert.Contains(t, outcome.Message, "failed: song.wav")
		assert.Contains(t, outcome.Message, "Invalid data")
	})

	t.Run("extra args flow through to the encoder", func(t *testing.T) {
		in, out := t.TempDir(), t.TempDir()
		src := filepath.Join(in, "song.wav")
		require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

		enc := &mockEncoder{}
		tk, err := NewAudioConvert(AudioConvertConfig{
			OutputFormat: "mp3",
			ExtraArgs:    `-metadata "title=My Song"`,
		}, enc, nil)
		require.NoError(t, err)

		outcome := tk.ProcessOne(ctx, src, out)
		require.True(t, outcome.Success, outcome.Message)
		require.Len(t, enc.calls, 1)
		assert.Equal(t, []string{"-metadata", "title=My Song"}, enc.calls[0].ExtraArgs)
	})
}

func TestAudioConvertOutputFormatNormalization(t *testing.T) {
	tk, err := NewAudioConvert(AudioConvertConfig{OutputFormat: ".FLAC"}, &mockEncoder{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "flac", tk.cfg.OutputFormat)
}
