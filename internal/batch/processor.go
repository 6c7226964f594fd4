// Package batch resolves nearest-road distances for a batch of occurrences.
package batch

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roadprox-cli/internal/model"
	"github.com/sells-group/roadprox-cli/internal/resilience"
	"github.com/sells-group/roadprox-cli/internal/roads"
)

// Summary counts outcomes of a Process call.
type Summary struct {
	Total       int `json:"total" yaml:"total"`
	OK          int `json:"ok" yaml:"ok"`
	NoRoad      int `json:"no_road" yaml:"no_road"`
	Unavailable int `json:"unavailable" yaml:"unavailable"`
}

func (s *Summary) add(status model.DistanceStatus) {
	s.Total++
	switch status {
	case model.StatusOK:
		s.OK++
	case model.StatusNoRoad:
		s.NoRoad++
	default:
		s.Unavailable++
	}
}

// Processor enriches occurrences one at a time, waiting on the pacer
// before each map service call.
type Processor struct {
	resolver roads.Resolver
	pacer    resilience.Pacer
	stats    Summary
}

// NewProcessor creates a Processor. A nil pacer disables pacing.
func NewProcessor(resolver roads.Resolver, pacer resilience.Pacer) *Processor {
	if pacer == nil {
		pacer = resilience.Unpaced()
	}
	return &Processor{resolver: resolver, pacer: pacer}
}

// Process returns one Enriched per input, in input order. Lookup failures
// leave Distance nil and never drop a record. Only context cancellation
// stops the batch early, returning the records finished so far.
func (p *Processor) Process(ctx context.Context, occurrences []model.Occurrence) ([]model.Enriched, error) {
	p.stats = Summary{}
	out := make([]model.Enriched, 0, len(occurrences))

	for i, occ := range occurrences {
		if err := p.pacer.Wait(ctx); err != nil {
			return out, eris.Wrapf(err, "batch: wait before record %d", i)
		}

		e := p.enrich(ctx, occ)
		if err := ctx.Err(); err != nil {
			return out, eris.Wrapf(err, "batch: canceled at record %d", i)
		}

		out = append(out, e)
		p.stats.add(e.Status)
	}

	zap.L().Info("batch processed",
		zap.Int("total", p.stats.Total),
		zap.Int("ok", p.stats.OK),
		zap.Int("no_road", p.stats.NoRoad),
		zap.Int("unavailable", p.stats.Unavailable),
	)
	return out, nil
}

// Stats returns the outcome counts of the last Process call.
func (p *Processor) Stats() Summary {
	return p.stats
}

func (p *Processor) enrich(ctx context.Context, occ model.Occurrence) model.Enriched {
	e := model.Enriched{Occurrence: occ}
	log := zap.L().With(zap.Int64("gbifid", occ.ID))

	road, err := p.resolver.NearestRoad(ctx, occ.Point())
	switch {
	case err == nil:
		e.Status = model.StatusOK
		e.Distance = model.Float64(road.DistanceMeters)
		e.RoadID = road.WayID
		e.RoadName = road.Name
		e.Highway = road.Highway
		log.Debug("distance resolved", zap.Float64("distance_m", road.DistanceMeters))
	case errors.Is(err, roads.ErrNoRoad):
		e.Status = model.StatusNoRoad
		log.Debug("no road in range")
	default:
		e.Status = model.StatusUnavailable
		log.Warn("distance unavailable", zap.Error(err))
	}
	return e
}
