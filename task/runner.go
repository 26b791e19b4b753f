package task

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"mediabatch/config"
)

// Mode selects between whole-directory and single-file runs.
type Mode string

const (
	ModeBatch  Mode = "batch"
	ModeSingle Mode = "single"
)

// State is the runner's lifecycle phase, exposed for surrounding
// collaborators that track sessions.
type State string

const (
	StateIdle        State = "idle"
	StateDiscovering State = "discovering"
	StateRunning     State = "running"
	StateCompleted   State = "completed"
)

// poolCap is the hard upper bound on concurrent workers.
const poolCap = 32

// Request is the immutable input to one batch run.
type Request struct {
	TaskID      string         `json:"taskId" validate:"required"`
	Params      map[string]any `json:"params"`
	InputDir    string         `json:"inputDir"`
	OutputDir   string         `json:"outputDir" validate:"required"`
	Concurrency int            `json:"concurrency" validate:"omitempty,min=1"`
	Mode        Mode           `json:"mode" validate:"omitempty,oneof=batch single"`
	SingleFile  string         `json:"singleFile"`
}

var validate = validator.New()

// Validate checks the request's structural invariants before a run.
func (r Request) Validate() error {
	return validate.Struct(r)
}

// TaskFactory resolves a task identifier and parameter bag to a concrete
// task. Satisfied by *Registry; tests substitute fakes.
type TaskFactory interface {
	New(id string, params map[string]any) (Task, error)
}

// Runner coordinates discovery, concurrent dispatch, and result
// aggregation for batch runs. A single Runner serves many runs; each Run
// call owns its own worker pool.
type Runner struct {
	cfg     *config.Config
	factory TaskFactory
}

func NewRunner(cfg *config.Config, factory TaskFactory) *Runner {
	return &Runner{cfg: cfg, factory: factory}
}

// clampConcurrency bounds n to [1, poolCap], additionally honoring the
// configured ceiling when it is tighter.
func (r *Runner) clampConcurrency(n int) int {
	cap := poolCap
	if r.cfg.MaxConcurrency > 0 && r.cfg.MaxConcurrency < cap {
		cap = r.cfg.MaxConcurrency
	}
	if n < 1 {
		return 1
	}
	if n > cap {
		return cap
	}
	return n
}

// Run executes one batch to completion. Nothing propagates past this
// boundary: configuration errors, per-file failures, and panics all
// surface as log lines, and rep.Done fires exactly once.
func (r *Runner) Run(ctx context.Context, req Request, rep Reporter) {
	defer rep.Done(req.OutputDir)

	if err := req.Validate(); err != nil {
		rep.Log(fmt.Sprintf("invalid request: %v", err))
		return
	}

	tk, err := r.factory.New(req.TaskID, req.Params)
	if err != nil {
		rep.Log(fmt.Sprintf("unknown task or invalid parameters: %s (%v)", req.TaskID, err))
		return
	}

	candidates, err := r.discover(req, tk)
	if err != nil {
		rep.Log(err.Error())
		return
	}

	total := len(candidates)
	concurrency := r.clampConcurrency(req.Concurrency)

	if r.cfg.ResourceGuard && concurrency > 1 {
		if err := checkResources(r.cfg, req.OutputDir); err != nil {
			log.Warn().Err(err).Msg("resource guard tripped, degrading to sequential processing")
			rep.Log(fmt.Sprintf("low system resources, processing sequentially (%v)", err))
			concurrency = 1
		}
	}

	if req.Mode != ModeSingle {
		rep.Log(fmt.Sprintf("scanning %s: %d files, concurrency=%d", req.InputDir, total, concurrency))
	}
	rep.Progress(0, total)

	if total > 0 {
		r.dispatch(ctx, tk, candidates, req.OutputDir, concurrency, total, rep)
	}

	rep.Log("all processing complete")
}

// discover resolves the candidate file list for the run. Directory
// listing is non-recursive and sorted by name so dispatch order is
// deterministic.
func (r *Runner) discover(req Request, tk Task) ([]string, error) {
	if req.Mode == ModeSingle {
		if req.SingleFile == "" {
			return nil, fmt.Errorf("invalid input file: none given")
		}
		fi, err := os.Stat(req.SingleFile)
		if err != nil || !fi.Mode().IsRegular() {
			return nil, fmt.Errorf("invalid input file: %s", req.SingleFile)
		}
		return []string{req.SingleFile}, nil
	}

	entries, err := os.ReadDir(req.InputDir)
	if err != nil {
		return nil, fmt.Errorf("invalid input directory: %s", req.InputDir)
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() || !e.Type().IsRegular() {
			continue
		}
		if tk.Accept(e.Name()) {
			candidates = append(candidates, filepath.Join(req.InputDir, e.Name()))
		}
	}
	sort.Strings(candidates)
	return candidates, nil
}

// dispatch fans the candidates out over a bounded worker pool and
// aggregates outcomes. The aggregation loop runs on the calling
// goroutine, serializing all Reporter calls and counter increments; with
// concurrency 1 processing is strictly sequential in discovery order.
func (r *Runner) dispatch(ctx context.Context, tk Task, candidates []string, outputDir string, concurrency, total int, rep Reporter) {
	paths := make(chan string)
	results := make(chan Outcome)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range paths {
				results <- r.processOne(ctx, tk, p, outputDir)
			}
		}()
	}

	go func() {
		for _, p := range candidates {
			paths <- p
		}
		close(paths)
		wg.Wait()
		close(results)
	}()

	processed := 0
	for outcome := range results {
		rep.Log(outcome.Message)
		processed++
		rep.Progress(processed, total)
	}
}

// processOne guards a single task invocation: it enforces the input size
// limit and converts any panic escaping the task into a synthetic failed
// outcome, so one bad file never aborts the batch.
func (r *Runner) processOne(ctx context.Context, tk Task, inputPath, outputDir string) (outcome Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("file", inputPath).Msg("task panicked")
			outcome = Failed(KindProcessFailed, inputPath, fmt.Errorf("internal error: %v", rec))
		}
	}()

	if r.cfg.MaxInputSize > 0 {
		if fi, err := os.Stat(inputPath); err == nil && fi.Size() > r.cfg.MaxInputSize {
			return Failed(KindInvalidInput, inputPath,
				fmt.Errorf("input size %d exceeds limit of %d bytes", fi.Size(), r.cfg.MaxInputSize))
		}
	}

	return tk.ProcessOne(ctx, inputPath, outputDir)
}
