package watch

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/refwire/refwire/internal/engine"
	"github.com/refwire/refwire/internal/scenefile"
)

// Result is the outcome of re-validating one scene file
type Result struct {
	File     string
	Batch    *engine.BatchReport
	Err      error
	Duration time.Duration
}

// Passed reports whether the file loaded and every host passed
func (r Result) Passed() bool {
	return r.Err == nil && r.Batch != nil && r.Batch.Passed && r.Batch.Err() == nil
}

// Revalidator loads changed scene files and checks them in memory. Files are never written.
type Revalidator struct {
	codec    *scenefile.Codec
	engine   *engine.Engine
	opts     engine.CheckOptions
	logger   *zap.Logger
	onResult func(Result)
}

// NewRevalidator creates a revalidator that passes each result to onResult
func NewRevalidator(codec *scenefile.Codec, e *engine.Engine, opts engine.CheckOptions, logger *zap.Logger, onResult func(Result)) *Revalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Revalidator{
		codec:    codec,
		engine:   e,
		opts:     opts,
		logger:   logger.Named("watch"),
		onResult: onResult,
	}
}

// Revalidate checks each file in order. Load failures are reported and joined into the
// returned error; validation failures are only reported.
func (r *Revalidator) Revalidate(files []string) error {
	var errs []error
	for _, file := range files {
		res := r.check(file)
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
		if r.onResult != nil {
			r.onResult(res)
		}
	}
	return errors.Join(errs...)
}

func (r *Revalidator) check(file string) Result {
	start := time.Now()
	res := Result{File: file}

	g, err := r.codec.Load(file)
	if err != nil {
		res.Err = fmt.Errorf("failed to load scene: %w", err)
		res.Duration = time.Since(start)
		return res
	}

	res.Batch = r.engine.BatchCheck(g, r.opts)
	res.Duration = time.Since(start)

	r.logger.Info("scene revalidated",
		zap.String("file", file),
		zap.Bool("passed", res.Passed()),
		zap.Int("hosts", len(res.Batch.Reports)),
		zap.Duration("duration", res.Duration))
	return res
}
