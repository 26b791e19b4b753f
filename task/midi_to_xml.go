package task

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"mediabatch/notation"
)

var midiExtensions = map[string]struct{}{
	".mid": {}, ".midi": {},
}

// MidiToXMLConfig carries the typed parameters for notation conversion.
type MidiToXMLConfig struct {
	QuantizeMode    string `mapstructure:"quantize_mode"` // off/auto/1/8/1/16/1/32
	RemoveTinyRests bool   `mapstructure:"remove_tiny_rests"`
}

// MidiToXML converts MIDI files to MusicXML notation.
type MidiToXML struct {
	cfg MidiToXMLConfig
}

func NewMidiToXML(cfg MidiToXMLConfig) (*MidiToXML, error) {
	if cfg.QuantizeMode == "" {
		cfg.QuantizeMode = "auto"
	}
	if cfg.QuantizeMode != "off" && cfg.QuantizeMode != "auto" {
		if _, ok := notation.QuantizeGrids[cfg.QuantizeMode]; !ok {
			return nil, fmt.Errorf("unknown quantize mode: %q", cfg.QuantizeMode)
		}
	}
	return &MidiToXML{cfg: cfg}, nil
}

func (t *MidiToXML) ID() string   { return "midi.to_xml" }
func (t *MidiToXML) Name() string { return "MIDI to MusicXML" }

func (t *MidiToXML) Accept(filename string) bool {
	_, ok := midiExtensions[lowerExt(filename)]
	return ok
}

func (t *MidiToXML) ProcessOne(ctx context.Context, inputPath, outputDir string) Outcome {
	if err := ensureDir(outputDir); err != nil {
		return Failed(KindEncodeError, inputPath, err)
	}

	name := filepath.Base(inputPath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	outPath := filepath.Join(outputDir, stem+".musicxml")

	if fileExists(outPath) {
		return Skipped(outPath)
	}

	score, err := notation.ParseSMF(inputPath)
	if err != nil {
		return Failed(KindDecodeError, inputPath, err)
	}
	if err := score.ApplyQuantize(t.cfg.QuantizeMode); err != nil {
		return Failed(KindProcessFailed, inputPath, err)
	}
	if t.cfg.RemoveTinyRests {
		score.RemoveTinyRests(notation.TinyRestThreshold)
	}

	if err := notation.WriteMusicXML(score, outPath); err != nil {
		return Failed(KindEncodeError, inputPath, err)
	}
	return Succeeded(inputPath, outPath)
}
