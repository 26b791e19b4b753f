package task

import (
	"context"
	"fmt"
	"path/filepath"
)

// Kind classifies an Outcome so callers can branch on category instead of
// parsing the human-readable message.
type Kind string

const (
	KindOK                Kind = "ok"
	KindSkippedExists     Kind = "skipped-exists"
	KindDecodeError       Kind = "decode-error"
	KindEncodeError       Kind = "encode-error"
	KindDependencyMissing Kind = "dependency-missing"
	KindProcessFailed     Kind = "process-failed"
	KindInvalidInput      Kind = "invalid-input"
)

// Outcome is the immutable per-file result record. Exactly one is
// produced for every attempted file.
type Outcome struct {
	Kind       Kind   `json:"kind"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	OutputPath string `json:"outputPath,omitempty"`
}

// Succeeded builds the success outcome for one conversion.
func Succeeded(inputPath, outputPath string) Outcome {
	return Outcome{
		Kind:       KindOK,
		Success:    true,
		Message:    fmt.Sprintf("ok: %s -> %s", filepath.Base(inputPath), filepath.Base(outputPath)),
		OutputPath: outputPath,
	}
}

// Skipped builds the idempotent already-exists outcome. Counted as
// success so repeated runs over the same output directory converge.
func Skipped(outputPath string) Outcome {
	return Outcome{
		Kind:       KindSkippedExists,
		Success:    true,
		Message:    fmt.Sprintf("skipped (exists): %s", filepath.Base(outputPath)),
		OutputPath: outputPath,
	}
}

// Failed builds a failure outcome carrying the cause.
func Failed(kind Kind, inputPath string, cause error) Outcome {
	return Outcome{
		Kind:    kind,
		Message: fmt.Sprintf("failed: %s (%v)", filepath.Base(inputPath), cause),
	}
}

// Task is one conversion operation: an extension filter plus per-file
// execution. Configuration is set once at construction and must not be
// mutated while a batch is running.
type Task interface {
	ID() string
	Name() string

	// Accept decides from the file name alone whether this task will
	// process the file. It must not perform I/O.
	Accept(filename string) bool

	// ProcessOne converts a single file into outputDir, producing exactly
	// one output artifact or a failure outcome. Errors never escape as
	// panics or returned errors; they are folded into the Outcome.
	ProcessOne(ctx context.Context, inputPath, outputDir string) Outcome
}
