package notation

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2/smf"
)

// ParseSMF reads a Standard MIDI File and extracts one Part per track
// that carries notes. Overlapping note-ons on the same key are closed in
// order of arrival.
func ParseSMF(path string) (*Score, error) {
	data, err := smf.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not parse MIDI file: %w", err)
	}

	ppq := 960.0
	if mt, ok := data.TimeFormat.(smf.MetricTicks); ok && uint16(mt) > 0 {
		ppq = float64(uint16(mt))
	}

	score := &Score{}
	for ti, tr := range data.Tracks {
		part := Part{Name: fmt.Sprintf("Track %d", ti+1)}
		open := map[uint8][]openNote{}
		var absTicks uint64

		for _, ev := range tr {
			absTicks += uint64(ev.Delta)

			var ch, key, vel uint8
			switch {
			case ev.Message.GetNoteStart(&ch, &key, &vel):
				open[key] = append(open[key], openNote{start: absTicks})
			case ev.Message.GetNoteEnd(&ch, &key):
				pending := open[key]
				if len(pending) == 0 {
					continue
				}
				on := pending[0]
				open[key] = pending[1:]

				dur := float64(absTicks-on.start) / ppq
				if dur <= 0 {
					continue
				}
				part.Notes = append(part.Notes, Note{
					Key:      key,
					Start:    float64(on.start) / ppq,
					Duration: dur,
				})
			}
		}

		if len(part.Notes) > 0 {
			sortNotes(part.Notes)
			score.Parts = append(score.Parts, part)
		}
	}

	if len(score.Parts) == 0 {
		return nil, fmt.Errorf("no notes found in MIDI file")
	}
	return score, nil
}

type openNote struct {
	start uint64
}
