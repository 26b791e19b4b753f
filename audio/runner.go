package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Transcoder runs the external encoder binary for one file at a time.
type Transcoder struct {
	bin     string
	timeout time.Duration
}

// NewTranscoder verifies the encoder binary is reachable on the search
// path and fails fast with a descriptive error when it is not.
func NewTranscoder(bin string, timeout time.Duration) (*Transcoder, error) {
	if bin == "" {
		bin = "ffmpeg"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("encoder binary not found or not in PATH: %s", bin)
	}
	return &Transcoder{bin: bin, timeout: timeout}, nil
}

// Transcode converts inputPath to outputPath with the given options. The
// encoder's stderr is returned as the cause on failure.
func (t *Transcoder) Transcode(ctx context.Context, inputPath, outputPath string, opts EncodeOptions) error {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	args := BuildArgs(inputPath, outputPath, opts)
	cmd := exec.CommandContext(ctx, t.bin, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.Debug().
		Str("bin", t.bin).
		Strs("args", args).
		Msg("running encoder")

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("encoder execution failed: %w", err)
	}
	return nil
}
