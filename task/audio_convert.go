package task

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"mediabatch/audio"
)

// Encoder is the external audio encoder boundary. Satisfied by
// audio.Transcoder; tests substitute a mock.
type Encoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string, opts audio.EncodeOptions) error
}

// AudioConvertConfig carries the typed parameters for audio transcoding.
type AudioConvertConfig struct {
	OutputFormat string `mapstructure:"output_format"` // extension, no dot
	Codec        string `mapstructure:"audio_codec"`   // empty = preset/encoder choice
	Channels     int    `mapstructure:"channels"`
	BitrateKbps  int    `mapstructure:"bitrate_kbps"`
	SampleRateHz int    `mapstructure:"sample_rate_hz"`
	VolumeDB     string `mapstructure:"volume_db"`
	CutStart     string `mapstructure:"cut_start"`
	CutEnd       string `mapstructure:"cut_end"`
	FilterMode   string `mapstructure:"input_filter_mode"`   // all/custom
	FilterCustom string `mapstructure:"input_filter_custom"` // e.g. "mp3,wav"
	ExtraArgs    string `mapstructure:"extra_args"`
}

// AudioConvert transcodes audio files through the external encoder.
type AudioConvert struct {
	cfg       AudioConvertConfig
	custom    map[string]struct{}
	extraArgs []string
	enc       Encoder
	encErr    error
}

// NewAudioConvert validates the configuration and splits any extra
// encoder arguments. encErr is remembered, not returned: a missing
// encoder binary is a per-file dependency failure, not a construction
// error, so discovery and progress reporting still run.
func NewAudioConvert(cfg AudioConvertConfig, enc Encoder, encErr error) (*AudioConvert, error) {
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "mp3"
	}
	cfg.OutputFormat = strings.ToLower(strings.TrimPrefix(cfg.OutputFormat, "."))

	// One cut point without the other would silently convert the
	// whole file.
	if (cfg.CutStart == "") != (cfg.CutEnd == "") {
		return nil, fmt.Errorf("cut start and cut end must be set together")
	}

	switch strings.ToLower(cfg.FilterMode) {
	case "", "all", "custom":
	default:
		return nil, fmt.Errorf("unknown input filter mode: %q", cfg.FilterMode)
	}

	var extraArgs []string
	if cfg.ExtraArgs != "" {
		args, err := audio.SplitArgs(cfg.ExtraArgs)
		if err != nil {
			return nil, err
		}
		if err := audio.SanitizeArgs(args); err != nil {
			return nil, err
		}
		extraArgs = args
	}

	return &AudioConvert{
		cfg:       cfg,
		custom:    parseCustomExts(cfg.FilterCustom),
		extraArgs: extraArgs,
		enc:       enc,
		encErr:    encErr,
	}, nil
}

func (t *AudioConvert) ID() string   { return "audio.convert" }
func (t *AudioConvert) Name() string { return "Audio convert" }

func (t *AudioConvert) Accept(filename string) bool {
	ext := lowerExt(filename)
	if _, ok := audio.Extensions[ext]; !ok {
		return false
	}
	if strings.ToLower(t.cfg.FilterMode) == "custom" && len(t.custom) > 0 {
		_, ok := t.custom[ext]
		return ok
	}
	return true
}

func (t *AudioConvert) outputPath(inputPath, outputDir string) string {
	name := filepath.Base(inputPath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(outputDir, fmt.Sprintf("%s_converted.%s", stem, t.cfg.OutputFormat))
}

func (t *AudioConvert) ProcessOne(ctx context.Context, inputPath, outputDir string) Outcome {
	if t.enc == nil {
		err := t.encErr
		if err == nil {
			err = fmt.Errorf("no audio encoder configured")
		}
		return Failed(KindDependencyMissing, inputPath, err)
	}

	if err := ensureDir(outputDir); err != nil {
		return Failed(KindProcessFailed, inputPath, err)
	}

	outPath := t.outputPath(inputPath, outputDir)
	if fileExists(outPath) {
		return Skipped(outPath)
	}

	opts := audio.EncodeOptions{
		OutputFormat: t.cfg.OutputFormat,
		Codec:        t.cfg.Codec,
		Channels:     t.cfg.Channels,
		SampleRateHz: t.cfg.SampleRateHz,
		BitrateKbps:  t.cfg.BitrateKbps,
		VolumeDB:     t.cfg.VolumeDB,
		CutStart:     t.cfg.CutStart,
		CutEnd:       t.cfg.CutEnd,
		ExtraArgs:    t.extraArgs,
	}

	if err := t.enc.Transcode(ctx, inputPath, outPath, opts); err != nil {
		return Failed(KindProcessFailed, inputPath, err)
	}
	return Succeeded(inputPath, outPath)
}
