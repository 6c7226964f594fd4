// Package pipeline runs one fetch, enrich and write pass over the warehouse.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roadprox-cli/internal/archive"
	"github.com/sells-group/roadprox-cli/internal/batch"
	"github.com/sells-group/roadprox-cli/internal/model"
	"github.com/sells-group/roadprox-cli/internal/warehouse"
)

// Phase names recorded in RunResult.Phases.
const (
	PhaseFetch   = "fetch"
	PhaseResolve = "resolve"
	PhaseWrite   = "write"
	PhaseArchive = "archive"
)

// Pipeline wires the warehouse, the batch processor and the optional
// archive into a single run.
type Pipeline struct {
	reader    warehouse.Reader
	writer    warehouse.Writer
	processor *batch.Processor
	archiver  archive.Archiver
	dryRun    bool
	now       func() time.Time
	newID     func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithArchiver uploads each run's records after the write.
func WithArchiver(a archive.Archiver) Option {
	return func(p *Pipeline) { p.archiver = a }
}

// WithDryRun skips the write and archive phases.
func WithDryRun(dry bool) Option {
	return func(p *Pipeline) { p.dryRun = dry }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithRunID fixes the run ID instead of generating a UUID.
func WithRunID(id string) Option {
	return func(p *Pipeline) { p.newID = func() string { return id } }
}

// New creates a Pipeline.
func New(reader warehouse.Reader, writer warehouse.Writer, processor *batch.Processor, opts ...Option) *Pipeline {
	p := &Pipeline{
		reader:    reader,
		writer:    writer,
		processor: processor,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run fetches occurrences, resolves their road distances and writes them
// back. Fetch, process and request-level write failures are fatal. Row
// errors and archive failures are logged and counted.
func (p *Pipeline) Run(ctx context.Context) (*model.RunResult, error) {
	result := &model.RunResult{
		RunID:     p.newID(),
		Status:    model.RunStatusRunning,
		StartedAt: p.now(),
		DryRun:    p.dryRun,
	}
	log := zap.L().With(zap.String("run_id", result.RunID))
	log.Info("pipeline: starting run", zap.Bool("dry_run", p.dryRun))

	fail := func(err error) (*model.RunResult, error) {
		result.Status = model.RunStatusFailed
		result.Error = err.Error()
		return result, err
	}

	trackPhase := func(name string, fn func() (map[string]any, error)) error {
		start := p.now()
		meta, err := fn()
		pr := model.PhaseResult{
			Name:     name,
			Status:   model.PhaseStatusComplete,
			Duration: p.now().Sub(start).Milliseconds(),
			Metadata: meta,
		}
		if err != nil {
			pr.Status = model.PhaseStatusFailed
			pr.Error = err.Error()
			log.Error("pipeline: phase failed", zap.String("phase", name), zap.Int64("duration_ms", pr.Duration), zap.Error(err))
		} else {
			log.Info("pipeline: phase complete", zap.String("phase", name), zap.Int64("duration_ms", pr.Duration))
		}
		result.Phases = append(result.Phases, pr)
		return err
	}
	skipPhase := func(name, reason string) {
		result.Phases = append(result.Phases, model.PhaseResult{
			Name:     name,
			Status:   model.PhaseStatusSkipped,
			Metadata: map[string]any{"reason": reason},
		})
	}

	// Fetch
	var occurrences []model.Occurrence
	err := trackPhase(PhaseFetch, func() (map[string]any, error) {
		var fetchErr error
		occurrences, fetchErr = p.reader.FetchOccurrences(ctx)
		if fetchErr != nil {
			return nil, eris.Wrap(fetchErr, "pipeline: fetch occurrences")
		}
		return map[string]any{"records": len(occurrences)}, nil
	})
	if err != nil {
		return fail(err)
	}
	result.Fetched = len(occurrences)

	if len(occurrences) == 0 {
		log.Info("no results to sync")
		result.Status = model.RunStatusEmpty
		return result, nil
	}

	// Resolve
	var enriched []model.Enriched
	err = trackPhase(PhaseResolve, func() (map[string]any, error) {
		var procErr error
		enriched, procErr = p.processor.Process(ctx, occurrences)
		stats := p.processor.Stats()
		result.Resolved, result.NoRoad, result.Unavailable = stats.OK, stats.NoRoad, stats.Unavailable
		meta := map[string]any{"ok": stats.OK, "no_road": stats.NoRoad, "unavailable": stats.Unavailable}
		if procErr != nil {
			return meta, eris.Wrap(procErr, "pipeline: process occurrences")
		}
		return meta, nil
	})
	if err != nil {
		return fail(err)
	}

	if p.dryRun {
		skipPhase(PhaseWrite, "dry run")
		skipPhase(PhaseArchive, "dry run")
		result.Status = model.RunStatusComplete
		log.Info("pipeline: dry run complete", zap.Int("records", len(enriched)))
		return result, nil
	}

	// Write
	err = trackPhase(PhaseWrite, func() (map[string]any, error) {
		report, writeErr := p.writer.InsertEnriched(ctx, enriched)
		if writeErr != nil {
			return nil, eris.Wrap(writeErr, "pipeline: insert enriched")
		}
		result.Inserted = report.Inserted
		result.RowErrors = report.Failed()
		for _, re := range report.RowErrors {
			log.Warn("pipeline: row rejected",
				zap.Int("index", re.Index),
				zap.Int64("gbifid", re.ID),
				zap.String("error", re.Message),
			)
		}
		return map[string]any{"inserted": report.Inserted, "row_errors": report.Failed()}, nil
	})
	if err != nil {
		return fail(err)
	}
	if result.RowErrors > 0 {
		log.Warn("encountered errors while inserting rows", zap.Int("row_errors", result.RowErrors))
	}

	// Archive
	if p.archiver == nil {
		skipPhase(PhaseArchive, "not configured")
	} else {
		_ = trackPhase(PhaseArchive, func() (map[string]any, error) {
			key, archErr := p.archiver.Archive(ctx, result.RunID, result.StartedAt, enriched)
			if archErr != nil {
				return nil, eris.Wrap(archErr, "pipeline: archive run")
			}
			result.ArchiveKey = key
			return map[string]any{"key": key}, nil
		})
	}

	result.Status = model.RunStatusComplete
	log.Info("pipeline: run complete",
		zap.Int("fetched", result.Fetched),
		zap.Int("resolved", result.Resolved),
		zap.Int("inserted", result.Inserted),
		zap.Int("row_errors", result.RowErrors),
	)
	return result, nil
}
