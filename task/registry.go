package task

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"mediabatch/audio"
	"mediabatch/config"
)

// ErrUnknownTask is returned for identifiers the registry cannot resolve
// to a concrete, executable task.
var ErrUnknownTask = errors.New("unknown task")

// Info is one catalog entry.
type Info struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Catalog returns the static task catalog in declaration order.
// "image.tools" is a grouping identifier: it is listed for surrounding
// collaborators but resolves to a concrete image task via the
// active_task_id parameter.
func Catalog() []Info {
	return []Info{
		{ID: "image.tools", Name: "Image tools"},
		{ID: "audio.convert", Name: "Audio convert"},
		{ID: "midi.to_xml", Name: "MIDI to MusicXML"},
	}
}

// Registry constructs concrete tasks from an identifier and a parameter
// bag, validating the bag against the task's typed configuration.
type Registry struct {
	cfg *config.Config
}

func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{cfg: cfg}
}

// decodeParams maps a parameter bag onto a typed config struct. Unknown
// keys and values that cannot convert are construction errors rather than
// silently ignored.
func decodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("invalid task parameters: %w", err)
	}
	return nil
}

// New resolves id and params to a freshly constructed Task.
func (r *Registry) New(id string, params map[string]any) (Task, error) {
	if params == nil {
		params = map[string]any{}
	}

	if id == "image.tools" {
		active, _ := params["active_task_id"].(string)
		switch active {
		case "image.resize", "image.convert", "image.resize_convert":
			rest := make(map[string]any, len(params))
			for k, v := range params {
				if k != "active_task_id" {
					rest[k] = v
				}
			}
			return r.New(active, rest)
		default:
			return nil, fmt.Errorf("%w: image.tools with active_task_id=%q", ErrUnknownTask, active)
		}
	}

	switch id {
	case "image.resize":
		var cfg ImageResizeConfig
		if err := decodeParams(params, &cfg); err != nil {
			return nil, err
		}
		return NewImageResize(cfg), nil

	case "image.convert":
		var cfg ImageConvertConfig
		if err := decodeParams(params, &cfg); err != nil {
			return nil, err
		}
		return NewImageConvert(cfg)

	case "image.resize_convert":
		var cfg ImageResizeConvertConfig
		if err := decodeParams(params, &cfg); err != nil {
			return nil, err
		}
		return NewImageResizeConvert(cfg)

	case "audio.convert":
		var cfg AudioConvertConfig
		if err := decodeParams(params, &cfg); err != nil {
			return nil, err
		}
		enc, encErr := audio.NewTranscoder(r.cfg.FFBin, r.cfg.FFTimeout)
		if encErr != nil {
			return NewAudioConvert(cfg, nil, encErr)
		}
		return NewAudioConvert(cfg, enc, nil)

	case "midi.to_xml":
		var cfg MidiToXMLConfig
		if err := decodeParams(params, &cfg); err != nil {
			return nil, err
		}
		return NewMidiToXML(cfg)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownTask, id)
}
