// Package job runs conversion jobs: extraction of every source, optional
// resolution reconciliation, encoding, cleanup and progress reporting.
package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"animvid/decoder"
	"animvid/encoder"
	"animvid/extract"
	"animvid/framestore"
	"animvid/logger"
	"animvid/models"
	"animvid/normalize"

	"github.com/google/uuid"
)

// ErrBusy is returned by Start and Run while another job is running.
var ErrBusy = errors.New("a conversion job is already running")

const eventBuffer = 64

// Recorder keeps the final result of every job.
type Recorder interface {
	Record(j models.ConversionJob, res models.Result) error
}

// Publisher copies a finished artifact to the job's destinations.
type Publisher interface {
	Publish(ctx context.Context, artifact models.OutputArtifact, dests []models.Destination) error
}

// Status is a snapshot of the runner for pollers.
type Status struct {
	JobID    string          `json:"jobId,omitempty"`
	State    models.JobState `json:"state"`
	Fraction float64         `json:"fraction"`
	Stage    string          `json:"stage,omitempty"`
	Result   *models.Result  `json:"result,omitempty"`
}

// Runner executes one job at a time.
type Runner struct {
	Decoder   decoder.Decoder
	Encoder   encoder.Dispatcher
	Workers   int    // persist/reconcile workers, defaults to runtime.NumCPU()
	TempDir   string // parent of frame stores, defaults to os.TempDir()
	Recorder  Recorder
	Publisher Publisher

	mu     sync.Mutex
	status Status
}

// NewRunner returns an idle runner.
func NewRunner(d decoder.Decoder, e encoder.Dispatcher) *Runner {
	return &Runner{Decoder: d, Encoder: e, Workers: runtime.NumCPU()}
}

// Status returns the current state of the runner.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Start validates j and runs it on a background goroutine. The returned
// channel must be drained. It is closed after the done event and the
// completion callback, if any.
func (r *Runner) Start(ctx context.Context, j models.ConversionJob) (<-chan models.Event, error) {
	if err := r.begin(&j); err != nil {
		return nil, err
	}
	events := make(chan models.Event, eventBuffer)
	go func() {
		defer close(events)
		r.execute(ctx, j, events)
	}()
	return events, nil
}

// Run is the synchronous form of Start. events may be nil.
func (r *Runner) Run(ctx context.Context, j models.ConversionJob, events chan<- models.Event) (models.Result, error) {
	if err := r.begin(&j); err != nil {
		if errors.Is(err, ErrBusy) {
			return models.Result{}, err
		}
		return models.Result{JobID: j.ID, State: models.JobStateFailed, LastStage: "validating", Err: err}, err
	}
	return r.execute(ctx, j, events), nil
}

// begin moves the runner to Running, or to Failed when j is invalid.
func (r *Runner) begin(j *models.ConversionJob) error {
	r.mu.Lock()
	if r.status.State == models.JobStateRunning {
		r.mu.Unlock()
		return ErrBusy
	}
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	err := Validate(*j)
	if err == nil {
		r.status = Status{JobID: j.ID, State: models.JobStateRunning, Stage: "starting"}
		r.mu.Unlock()
		return nil
	}

	res := models.Result{JobID: j.ID, State: models.JobStateFailed, LastStage: "validating", Err: err}
	r.status = Status{JobID: j.ID, State: models.JobStateFailed, Stage: "validating", Result: &res}
	r.mu.Unlock()

	logger.Errorf("Rejected job %s: %v", j.ID, err)
	r.record(*j, res)
	return err
}

func (r *Runner) execute(ctx context.Context, j models.ConversionJob, events chan<- models.Event) models.Result {
	prog := newProgress(len(j.Inputs), func(e models.Event) {
		// the terminal status is set before the done event, and a new job
		// may already own r.status by then
		if e.Kind != models.EventDone {
			r.observe(e)
		}
		if events != nil {
			events <- e
		}
	})
	prog.setStage("starting")

	started := time.Now()
	logger.Infof("Starting job %s: %d source(s) to %s, combine=%t, %d fps, %s",
		j.ID, len(j.Inputs), j.Settings.Format, j.Settings.Combine, j.Settings.FPS, j.Settings.Resolution)

	res := models.Result{JobID: j.ID, State: models.JobStateRunning}
	if err := r.convert(ctx, j, prog, &res); err != nil {
		res.State = models.JobStateFailed
		res.Err = err
		logger.Errorf("Job %s failed: %v", j.ID, err)
	} else {
		res.State = models.JobStateCompleted
		logger.Infof("Job %s %s in %s, %d output(s)", j.ID, res.Summary(), time.Since(started).Round(time.Millisecond), len(res.Outputs))
	}
	res.LastStage = prog.stage

	// Recorded before leaving Running so a poller that sees the terminal
	// state can also read the history record.
	r.record(j, res)

	r.mu.Lock()
	final := res
	r.status.State = res.State
	r.status.Result = &final
	if res.State == models.JobStateCompleted {
		r.status.Fraction = 1
	}
	r.mu.Unlock()
	prog.finish(res.State, res.Summary())

	// The runner is idle from here on; a slow callback receiver does not
	// hold up the next job.
	if j.Callback != nil && j.Callback.URL != "" {
		if err := sendCallback(ctx, j.Callback, res); err != nil {
			logger.Errorf("Failed to send callback for %s: %v", j.ID, err)
		}
	}
	return res
}

func (r *Runner) observe(e models.Event) {
	r.mu.Lock()
	r.status.Fraction = e.Fraction
	r.status.Stage = e.Stage
	r.mu.Unlock()
}

func (r *Runner) convert(ctx context.Context, j models.ConversionJob, prog *progress, res *models.Result) error {
	outDir := outputDir(j.Settings)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	store, err := framestore.New(r.TempDir, j.ID)
	if err != nil {
		return err
	}
	defer closeStore(store)

	pool := extract.NewPool(r.Decoder, j.Settings.Resolution)
	pool.Workers = r.workers()
	if j.Settings.Combine {
		return r.combine(ctx, j, pool, store, prog, res)
	}
	return r.single(ctx, j, pool, store, prog, res)
}

// single encodes each source on its own. Failures stay with their source.
func (r *Runner) single(ctx context.Context, j models.ConversionJob, pool *extract.Pool, store *framestore.Store, prog *progress, res *models.Result) error {
	next, extracted := 0, 0
	for _, src := range j.Inputs {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("job cancelled: %w", err)
		}

		prog.setStage("extracting " + filepath.Base(src))
		ex := extractSource(ctx, pool, store, src, next)
		next += len(ex.Paths)
		extracted += len(ex.Paths)
		prog.advance(1, framesMessage(extracted))

		if ex.Err != nil {
			r.fail(res, prog, src, ex.Err)
			prog.advance(1, framesMessage(extracted))
			continue
		}

		art, err := r.encode(ctx, j, prog, ex.Paths, Stem(src), src)
		if rmErr := store.Remove(ex.Paths); rmErr != nil {
			logger.Warnf("Frames of %s not fully removed: %v", src, rmErr)
		}
		if err != nil {
			r.fail(res, prog, src, err)
		} else {
			res.Outputs = append(res.Outputs, art)
			r.publish(ctx, j, art, prog, res)
		}
		prog.advance(1, framesMessage(extracted))
	}
	return nil
}

// combine concatenates every source into one output. An encode failure
// fails the job.
func (r *Runner) combine(ctx context.Context, j models.ConversionJob, pool *extract.Pool, store *framestore.Store, prog *progress, res *models.Result) error {
	var all []string
	defer func() {
		if err := store.Remove(all); err != nil {
			logger.Warnf("Combined frames not fully removed: %v", err)
		}
	}()

	for _, src := range j.Inputs {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("job cancelled: %w", err)
		}

		prog.setStage("extracting " + filepath.Base(src))
		ex := extractSource(ctx, pool, store, src, len(all))
		if ex.Err != nil {
			r.fail(res, prog, src, ex.Err)
		} else {
			all = append(all, ex.Paths...)
		}
		prog.advance(1, framesMessage(len(all)))
	}
	if len(all) == 0 {
		return &models.EncodeError{Output: CombinedStem, Err: errors.New("no frames extracted from any source")}
	}

	prog.setStage("checking resolutions")
	report, err := normalize.Reconcile(ctx, all, r.workers())
	if err != nil {
		logger.Warnf("Resolution check incomplete: %v", err)
	}
	if report.Advisory != "" {
		res.Advisories = append(res.Advisories, report.Advisory)
		prog.advisory(report.Advisory)
	}
	if report.Failed > 0 {
		logger.Warnf("%d frame(s) could not be normalized to %dx%d", report.Failed, report.Width, report.Height)
	}

	art, err := r.encode(ctx, j, prog, all, CombinedStem, CombinedStem)
	if err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, art)
	r.publish(ctx, j, art, prog, res)
	prog.advance(len(j.Inputs), framesMessage(len(all)))
	return nil
}

// closeStore removes the job's frame directory. Whatever is still in it is
// left for inspection and reported.
func closeStore(store *framestore.Store) {
	err := store.Close()
	if err == nil {
		return
	}
	left, listErr := store.List()
	if listErr != nil {
		logger.Warnf("Frame store left behind: %v", err)
		return
	}
	logger.Warnf("Frame store left behind with %d frame(s): %v", len(left), err)
}

func extractSource(ctx context.Context, pool *extract.Pool, store *framestore.Store, src string, start int) models.ExtractionResult {
	ex := pool.Extract(ctx, store, src, start)
	if ex.Err == nil && len(ex.Paths) == 0 {
		ex.Err = &models.DecodeError{Path: src, Err: errors.New("no frames")}
	}
	return ex
}

func (r *Runner) encode(ctx context.Context, j models.ConversionJob, prog *progress, frames []string, stem, source string) (models.OutputArtifact, error) {
	s := j.Settings
	out, err := OutputPath(outputDir(s), stem, s.Format)
	if err != nil {
		return models.OutputArtifact{}, &models.EncodeError{Output: stem, Err: err}
	}

	prog.setStage("encoding " + filepath.Base(out))
	path, err := r.Encoder.Encode(ctx, frames, s.FPS, out, s.Format, s.Quality)
	if err != nil {
		return models.OutputArtifact{}, err
	}
	logger.Infof("Wrote %s (%d frames)", path, len(frames))
	return models.OutputArtifact{Path: path, Format: s.Format, FrameCount: len(frames), Source: source}, nil
}

func (r *Runner) publish(ctx context.Context, j models.ConversionJob, art models.OutputArtifact, prog *progress, res *models.Result) {
	if r.Publisher == nil || len(j.Settings.Destinations) == 0 {
		return
	}
	prog.setStage("publishing " + filepath.Base(art.Path))
	if err := r.Publisher.Publish(ctx, art, j.Settings.Destinations); err != nil {
		r.fail(res, prog, art.Path, err)
	}
}

func (r *Runner) fail(res *models.Result, prog *progress, source string, err error) {
	logger.Errorf("Skipping %s: %v", source, err)
	res.Errors = append(res.Errors, models.SourceError{Source: source, Error: err.Error(), Err: err})
	prog.sourceError(source, err)
}

func (r *Runner) record(j models.ConversionJob, res models.Result) {
	if r.Recorder == nil {
		return
	}
	if err := r.Recorder.Record(j, res); err != nil {
		// Don't fail the job for history storage errors
		logger.Errorf("Failed to record result of %s: %v", j.ID, err)
	}
}

func (r *Runner) workers() int {
	if r.Workers > 0 {
		return r.Workers
	}
	return runtime.NumCPU()
}

func outputDir(s models.Settings) string {
	if s.OutputDir == "" {
		return "."
	}
	return s.OutputDir
}

func framesMessage(n int) string {
	return fmt.Sprintf("frames extracted: %d", n)
}
