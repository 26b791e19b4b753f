package task

// Reporter receives the progress/log surface of one batch run. The runner
// serializes all calls through a single aggregator goroutine, so
// implementations do not need their own locking.
type Reporter interface {
	// Progress is emitted once with processed=0 at run start and once
	// after every attempted file. processed never exceeds total.
	Progress(processed, total int)

	// Log carries one free-text line per attempted file plus run-level
	// notices. It is the sole failure-reporting surface.
	Log(line string)

	// Done is the terminal completion signal, emitted exactly once per
	// run with the resolved output directory.
	Done(outputDir string)
}

// CallbackReporter adapts plain functions to the Reporter interface.
// Nil fields are no-ops.
type CallbackReporter struct {
	OnProgress func(processed, total int)
	OnLog      func(line string)
	OnDone     func(outputDir string)
}

func (r *CallbackReporter) Progress(processed, total int) {
	if r.OnProgress != nil {
		r.OnProgress(processed, total)
	}
}

func (r *CallbackReporter) Log(line string) {
	if r.OnLog != nil {
		r.OnLog(line)
	}
}

func (r *CallbackReporter) Done(outputDir string) {
	if r.OnDone != nil {
		r.OnDone(outputDir)
	}
}
