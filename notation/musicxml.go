package notation

import (
	"encoding/xml"
	"fmt"
	"math"
	"os"
)

// divisions is the number of duration units per quarter note in the
// generated MusicXML.
const divisions = 480

// measureDivisions is one 4/4 measure.
const measureDivisions = 4 * divisions

var pitchSteps = [12]struct {
	step  string
	alter int
}{
	{"C", 0}, {"C", 1}, {"D", 0}, {"D", 1}, {"E", 0}, {"F", 0},
	{"F", 1}, {"G", 0}, {"G", 1}, {"A", 0}, {"A", 1}, {"B", 0},
}

type scorePartwise struct {
	XMLName  xml.Name  `xml:"score-partwise"`
	Version  string    `xml:"version,attr"`
	PartList partList  `xml:"part-list"`
	Parts    []xmlPart `xml:"part"`
}

type partList struct {
	ScoreParts []scorePart `xml:"score-part"`
}

type scorePart struct {
	ID       string `xml:"id,attr"`
	PartName string `xml:"part-name"`
}

type xmlPart struct {
	ID       string       `xml:"id,attr"`
	Measures []xmlMeasure `xml:"measure"`
}

type xmlMeasure struct {
	Number     int            `xml:"number,attr"`
	Attributes *xmlAttributes `xml:"attributes,omitempty"`
	Notes      []xmlNote      `xml:"note"`
}

type xmlAttributes struct {
	Divisions int     `xml:"divisions"`
	Time      xmlTime `xml:"time"`
	Clef      xmlClef `xml:"clef"`
}

type xmlTime struct {
	Beats    int `xml:"beats"`
	BeatType int `xml:"beat-type"`
}

type xmlClef struct {
	Sign string `xml:"sign"`
	Line int    `xml:"line"`
}

type xmlRest struct{}

type xmlPitch struct {
	Step   string `xml:"step"`
	Alter  int    `xml:"alter,omitempty"`
	Octave int    `xml:"octave"`
}

type xmlNote struct {
	Rest     *xmlRest  `xml:"rest,omitempty"`
	Pitch    *xmlPitch `xml:"pitch,omitempty"`
	Duration int       `xml:"duration"`
	Type     string    `xml:"type,omitempty"`
}

// noteType names the largest standard note value not exceeding the
// duration, in divisions.
func noteType(dur int) string {
	switch {
	case dur >= 4*divisions:
		return "whole"
	case dur >= 2*divisions:
		return "half"
	case dur >= divisions:
		return "quarter"
	case dur >= divisions/2:
		return "eighth"
	case dur >= divisions/4:
		return "16th"
	default:
		return "32nd"
	}
}

func midiPitch(key uint8) xmlPitch {
	ps := pitchSteps[key%12]
	return xmlPitch{Step: ps.step, Alter: ps.alter, Octave: int(key)/12 - 1}
}

// timedEvent is a rest or note laid out on the part's division timeline.
type timedEvent struct {
	rest bool
	key  uint8
	dur  int
}

// layoutPart flattens a part into a gap-filled event sequence. Overlaps
// are clamped to the running cursor; chords collapse to the later voice.
func layoutPart(p Part) []timedEvent {
	var events []timedEvent
	cursor := 0
	for _, n := range p.Notes {
		start := int(math.Round(n.Start * divisions))
		dur := int(math.Round(n.Duration * divisions))
		if dur <= 0 {
			continue
		}
		if start > cursor {
			events = append(events, timedEvent{rest: true, dur: start - cursor})
			cursor = start
		}
		if start < cursor {
			dur -= cursor - start
			if dur <= 0 {
				continue
			}
		}
		events = append(events, timedEvent{key: n.Key, dur: dur})
		cursor += dur
	}
	return events
}

// buildMeasures chunks events into 4/4 measures, splitting events that
// cross a barline.
func buildMeasures(events []timedEvent) []xmlMeasure {
	var measures []xmlMeasure
	current := xmlMeasure{Number: 1}
	used := 0

	flush := func() {
		measures = append(measures, current)
		current = xmlMeasure{Number: len(measures) + 1}
		used = 0
	}

	for _, ev := range events {
		remaining := ev.dur
		for remaining > 0 {
			room := measureDivisions - used
			chunk := remaining
			if chunk > room {
				chunk = room
			}

			n := xmlNote{Duration: chunk, Type: noteType(chunk)}
			if ev.rest {
				n.Rest = &xmlRest{}
			} else {
				p := midiPitch(ev.key)
				n.Pitch = &p
			}
			current.Notes = append(current.Notes, n)

			used += chunk
			remaining -= chunk
			if used == measureDivisions {
				flush()
			}
		}
	}

	// Pad the last partial measure with a closing rest.
	if used > 0 {
		current.Notes = append(current.Notes, xmlNote{
			Rest:     &xmlRest{},
			Duration: measureDivisions - used,
			Type:     noteType(measureDivisions - used),
		})
		flush()
	}
	if len(measures) == 0 {
		measures = append(measures, xmlMeasure{Number: 1})
	}

	measures[0].Attributes = &xmlAttributes{
		Divisions: divisions,
		Time:      xmlTime{Beats: 4, BeatType: 4},
		Clef:      xmlClef{Sign: "G", Line: 2},
	}
	return measures
}

// WriteMusicXML serializes the score as a score-partwise document.
func WriteMusicXML(score *Score, path string) error {
	doc := scorePartwise{Version: "3.1"}
	for i, p := range score.Parts {
		id := fmt.Sprintf("P%d", i+1)
		doc.PartList.ScoreParts = append(doc.PartList.ScoreParts, scorePart{ID: id, PartName: p.Name})
		doc.Parts = append(doc.Parts, xmlPart{ID: id, Measures: buildMeasures(layoutPart(p))})
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("could not serialize MusicXML: %w", err)
	}

	out := []byte(xml.Header +
		`<!DOCTYPE score-partwise PUBLIC "-//Recordare//DTD MusicXML 3.1 Partwise//EN" "http://www.musicxml.org/dtds/partwise.dtd">` +
		"\n")
	out = append(out, body...)
	out = append(out, '\n')

	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("could not write MusicXML: %w", err)
	}
	return nil
}

// Convert parses the MIDI file at inputPath, applies the quantize mode
// and rest policy, and writes MusicXML to outputPath.
func Convert(inputPath, outputPath, quantizeMode string, removeTinyRests bool) error {
	score, err := ParseSMF(inputPath)
	if err != nil {
		return err
	}
	if err := score.ApplyQuantize(quantizeMode); err != nil {
		return err
	}
	if removeTinyRests {
		score.RemoveTinyRests(TinyRestThreshold)
	}
	return WriteMusicXML(score, outputPath)
}
