package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/myfcd/harvester/internal/domain"
)

// SourceHarvester harvests a single source
type SourceHarvester interface {
	Harvest(ctx context.Context, src domain.SourceConfig) (*domain.SourceResult, error)
}

// Pipeline harvests every configured source and merges the results
type Pipeline struct {
	harvester SourceHarvester
	now       func() time.Time
}

// NewPipeline creates a pipeline over the given harvester
func NewPipeline(harvester SourceHarvester) *Pipeline {
	return &Pipeline{
		harvester: harvester,
		now:       time.Now,
	}
}

// Run harvests the sources one after another, then merges the tables of the
// sources that succeeded in the order given. A source whose discovery fails is
// reported in the result and does not stop the others. ErrNoData is returned,
// together with the result, when no source produced a table.
func (p *Pipeline) Run(ctx context.Context, sources []domain.SourceConfig) (*domain.RunResult, error) {
	run := &domain.RunResult{
		RunID:     uuid.NewString(),
		StartedAt: p.now(),
	}

	var tables []domain.FoodTable
	for _, src := range sources {
		log.Printf("[PIPELINE] Harvesting source %q", src.Name)

		result, err := p.harvester.Harvest(ctx, src)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Printf("[PIPELINE] Source %q failed: %v", src.Name, err)
			run.Sources = append(run.Sources, domain.SourceResult{Source: src.Name, Err: err})
			continue
		}

		run.Sources = append(run.Sources, *result)
		tables = append(tables, result.Table)
	}

	run.Table = Merge(tables...)
	run.FinishedAt = p.now()

	log.Printf("[PIPELINE] Run %s: %d foods from %d/%d sources", run.RunID, len(run.Table), len(tables), len(sources))

	if len(tables) == 0 {
		return run, allSourcesFailed(run)
	}
	return run, nil
}

// allSourcesFailed joins ErrNoData with each source's failure
func allSourcesFailed(run *domain.RunResult) error {
	errs := []error{domain.ErrNoData}
	for _, s := range run.Sources {
		if s.Err != nil {
			errs = append(errs, s.Err)
		}
	}
	return errors.Join(errs...)
}
