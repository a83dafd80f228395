// Package worker implements the bounded pool that drives a batch run.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bugdex/bugdex/internal/bugs"
	"github.com/bugdex/bugdex/internal/progress"
	"github.com/bugdex/bugdex/internal/sources"
)

// Config controls Pool behavior.
type Config struct {
	// Workers bounds concurrent URL dispatches; defaults to 16.
	Workers int
}

const defaultWorkers = 16

// Dispatcher resolves one URL into a record. *sources.Router satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, rawURL, lead string) (bugs.Record, sources.Kind, error)
}

// Warning describes a URL that did not yield a record.
type Warning struct {
	URL    string
	Reason string
}

// Result is the outcome of a batch run. Every input URL lands in exactly one
// of Records or Warnings, and Records is sorted by case-insensitive id.
type Result struct {
	Records  []bugs.Record
	Warnings []Warning
	Elapsed  time.Duration
}

// Pool fans a URL list out to a fixed number of workers. Failures never stop
// the run; they are logged as they occur and collected as warnings.
type Pool struct {
	dispatcher Dispatcher
	emitter    progress.Emitter
	logger     *zap.Logger
	cfg        Config
}

// New constructs a Pool.
func New(dispatcher Dispatcher, emitter progress.Emitter, logger *zap.Logger, cfg Config) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	return &Pool{
		dispatcher: dispatcher,
		emitter:    emitter,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run processes every URL and blocks until all workers finish. Each URL is
// dispatched once; the same lead applies to the whole batch.
func (p *Pool) Run(ctx context.Context, urls []string, lead string) Result {
	runID := progress.UUIDToBytes(uuid.New())
	start := time.Now()
	p.emit(progress.Event{RunID: runID, TS: start.UTC(), Stage: progress.StageRunStart})

	workers := p.cfg.Workers
	if workers > len(urls) {
		workers = len(urls)
	}

	jobs := make(chan string)
	var (
		mu       sync.Mutex
		records  []bugs.Record
		warnings []Warning
	)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rawURL := range jobs {
				rec, _, err := p.processOne(ctx, runID, rawURL, lead)
				mu.Lock()
				if err != nil {
					warnings = append(warnings, Warning{URL: rawURL, Reason: err.Error()})
				} else {
					records = append(records, rec)
				}
				mu.Unlock()
			}
		}()
	}

	for _, rawURL := range urls {
		jobs <- rawURL
	}
	close(jobs)
	wg.Wait()

	elapsed := time.Since(start)
	stage := progress.StageRunDone
	if ctx.Err() != nil {
		stage = progress.StageRunError
	}
	p.emit(progress.Event{RunID: runID, TS: time.Now().UTC(), Stage: stage, Dur: elapsed})

	bugs.SortRecords(records)
	return Result{Records: records, Warnings: warnings, Elapsed: elapsed}
}

func (p *Pool) processOne(
	ctx context.Context,
	runID [16]byte,
	rawURL string,
	lead string,
) (bugs.Record, sources.Kind, error) {
	start := time.Now()
	rec, kind, err := p.dispatcher.Dispatch(ctx, rawURL, lead)
	dur := time.Since(start)

	if err != nil {
		p.logger.Warn("url skipped",
			zap.String("url", rawURL),
			zap.String("source", string(kind)),
			zap.Error(err),
		)
		p.emit(progress.Event{
			RunID:  runID,
			TS:     time.Now().UTC(),
			Stage:  progress.StageURLWarn,
			Source: string(kind),
			URL:    rawURL,
			Dur:    dur,
			Note:   err.Error(),
		})
		return bugs.Record{}, kind, err
	}

	p.logger.Debug("url processed",
		zap.String("url", rawURL),
		zap.String("source", string(kind)),
		zap.String("id", rec.ID),
		zap.Duration("dur", dur),
	)
	p.emit(progress.Event{
		RunID:  runID,
		TS:     time.Now().UTC(),
		Stage:  progress.StageURLDone,
		Source: string(kind),
		URL:    rawURL,
		Dur:    dur,
	})
	return rec, kind, nil
}

func (p *Pool) emit(evt progress.Event) {
	if p.emitter == nil {
		return
	}
	p.emitter.Emit(evt)
}
