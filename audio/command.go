package audio

import (
	"fmt"
	"strings"
)

// EncodeOptions holds everything needed to build one ffmpeg invocation.
// Zero values mean "leave the choice to the encoder".
type EncodeOptions struct {
	OutputFormat string // extension, no dot
	Codec        string // explicit codec, wins over the preset
	Channels     int
	SampleRateHz int
	BitrateKbps  int
	VolumeDB     string // e.g. "-10dB"
	CutStart     string // "HH:MM:SS" or seconds
	CutEnd       string
	ExtraArgs    []string // pre-split and sanitized
}

// BuildArgs assembles the ffmpeg argument list for one file. Cut points go
// after -i for accuracy; the preset supplies container and codec defaults
// that an explicit codec choice overrides.
func BuildArgs(inputPath, outputPath string, opts EncodeOptions) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", inputPath,
	}

	if opts.CutStart != "" {
		args = append(args, "-ss", opts.CutStart)
	}
	if opts.CutEnd != "" {
		args = append(args, "-to", opts.CutEnd)
	}

	ext := strings.ToLower(strings.TrimPrefix(opts.OutputFormat, "."))
	preset, hasPreset := FormatPresets[ext]

	if hasPreset && preset.Container != "" {
		args = append(args, "-f", preset.Container)
	}

	codec := opts.Codec
	if codec == "" && hasPreset {
		codec = preset.Codec
	}
	if codec != "" {
		args = append(args, "-c:a", codec)
	}

	if opts.Channels > 0 {
		args = append(args, "-ac", fmt.Sprintf("%d", opts.Channels))
	}
	if opts.SampleRateHz > 0 {
		args = append(args, "-ar", fmt.Sprintf("%d", opts.SampleRateHz))
	}
	if opts.BitrateKbps > 0 {
		args = append(args, "-b:a", fmt.Sprintf("%dk", opts.BitrateKbps))
	}

	if opts.VolumeDB != "" {
		args = append(args, "-filter:a", fmt.Sprintf("volume=%s", opts.VolumeDB))
	}

	args = append(args, opts.ExtraArgs...)
	args = append(args, outputPath)
	return args
}
