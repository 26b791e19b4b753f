// Package notation converts Standard MIDI Files into MusicXML notation.
// The model is deliberately small: parts hold notes positioned in quarter
// notes, and serialization derives measures, rests, and note types from
// those positions.
package notation

import (
	"fmt"
	"math"
	"sort"
)

// TinyRestThreshold is the quarter-note length below which a rest is
// considered notation noise (a 1/32 note).
const TinyRestThreshold = 0.125

// Quantization grids selectable by the caller, in quarter notes.
var QuantizeGrids = map[string]float64{
	"1/8":  0.5,
	"1/16": 0.25,
	"1/32": 0.125,
}

// autoGrid is the grid used by QuantizeModeAuto.
const autoGrid = 0.25

// Note is a single pitched event, positioned and measured in quarter
// notes from the start of its part.
type Note struct {
	Key      uint8 // MIDI key number
	Start    float64
	Duration float64
}

// Part is one voice of a score.
type Part struct {
	Name  string
	Notes []Note
}

// Score is the parsed, possibly quantized document.
type Score struct {
	Parts []Part
}

// Quantize snaps note starts and durations in every part to the given
// grid. Durations never quantize below one grid step.
func (s *Score) Quantize(grid float64) {
	if grid <= 0 {
		return
	}
	for pi := range s.Parts {
		notes := s.Parts[pi].Notes
		for ni := range notes {
			notes[ni].Start = math.Round(notes[ni].Start/grid) * grid
			d := math.Round(notes[ni].Duration/grid) * grid
			if d < grid {
				d = grid
			}
			notes[ni].Duration = d
		}
		sortNotes(notes)
	}
}

// ApplyQuantize interprets a quantize mode string: "off", "auto", or one
// of the QuantizeGrids keys.
func (s *Score) ApplyQuantize(mode string) error {
	switch mode {
	case "", "off":
		return nil
	case "auto":
		s.Quantize(autoGrid)
		return nil
	}
	grid, ok := QuantizeGrids[mode]
	if !ok {
		return fmt.Errorf("unknown quantize mode: %q", mode)
	}
	s.Quantize(grid)
	return nil
}

// RemoveTinyRests absorbs inter-note gaps shorter than threshold into the
// preceding note so the serialized notation carries no sub-1/32 rests.
func (s *Score) RemoveTinyRests(threshold float64) {
	for pi := range s.Parts {
		notes := s.Parts[pi].Notes
		for ni := 1; ni < len(notes); ni++ {
			prev := &notes[ni-1]
			gap := notes[ni].Start - (prev.Start + prev.Duration)
			if gap > 0 && gap < threshold {
				prev.Duration += gap
			}
		}
	}
}

func sortNotes(notes []Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].Start != notes[j].Start {
			return notes[i].Start < notes[j].Start
		}
		return notes[i].Key < notes[j].Key
	})
}
