package audio

// FormatPreset suggests a container and default codec for an output
// extension. An explicit user codec choice always wins; formats without an
// entry leave the decision to the encoder.
type FormatPreset struct {
	Ext       string
	Container string
	Codec     string
}

// FormatPresets maps output extensions (no dot) to encoder hints.
var FormatPresets = map[string]FormatPreset{
	"mp3":  {Ext: "mp3", Container: "mp3", Codec: "libmp3lame"},
	"wav":  {Ext: "wav", Container: "wav", Codec: "pcm_s16le"},
	"aiff": {Ext: "aiff", Container: "aiff", Codec: "pcm_s16le"},
	"flac": {Ext: "flac", Container: "flac", Codec: "flac"},
	"ogg":  {Ext: "ogg", Container: "ogg"},
	"spx":  {Ext: "spx", Container: "ogg", Codec: "libspeex"},
	"aac":  {Ext: "aac", Container: "adts", Codec: "aac"},
	"m4a":  {Ext: "m4a", Container: "ipod", Codec: "aac"},
	"m4r":  {Ext: "m4r", Container: "ipod", Codec: "aac"},
	"amr":  {Ext: "amr", Container: "amr", Codec: "libopencore_amrnb"},
	"gsm":  {Ext: "gsm", Container: "gsm", Codec: "libgsm"},
	"ac3":  {Ext: "ac3", Container: "ac3", Codec: "ac3"},
	"dts":  {Ext: "dts", Container: "dts", Codec: "dca"},
	"au":   {Ext: "au", Container: "au"},
	"caf":  {Ext: "caf", Container: "caf"},
}

// Extensions is the set of input extensions (with dot, lowercase) the
// audio converter will pick up.
var Extensions = map[string]struct{}{
	".sou": {}, ".tta": {}, ".voc": {}, ".8svx": {}, ".au": {},
	".nist": {}, ".ircam": {}, ".caf": {}, ".flac": {}, ".ape": {},
	".wv": {}, ".shn": {}, ".alac": {}, ".m4a": {}, ".m4r": {},
	".spx": {}, ".gsm": {}, ".amr": {}, ".qcp": {}, ".vox": {},
	".wma": {}, ".ogg": {}, ".aac": {}, ".ac3": {}, ".dts": {},
	".wav": {}, ".mp3": {}, ".aiff": {},
}
