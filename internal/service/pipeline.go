package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/cypherlabdev/odds-reconciler-service/internal/classifier"
	"github.com/cypherlabdev/odds-reconciler-service/internal/ingest"
	"github.com/cypherlabdev/odds-reconciler-service/internal/metrics"
	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
	"github.com/cypherlabdev/odds-reconciler-service/internal/reconciler"
)

// DefaultWorkers bounds per-phase concurrency when none is configured
const DefaultWorkers = 8

// PipelineConfig holds cycle configuration
type PipelineConfig struct {
	Workers int
}

// Pipeline runs one collection cycle over the batches buffered since the last one
type Pipeline struct {
	store      Store
	buffer     *ingest.Buffer
	reconciler *reconciler.Reconciler
	snapshots  *SnapshotService
	workers    int
	logger     zerolog.Logger
}

// NewPipeline creates a new cycle pipeline
func NewPipeline(
	store Store,
	buffer *ingest.Buffer,
	reconciler *reconciler.Reconciler,
	snapshots *SnapshotService,
	config PipelineConfig,
	logger zerolog.Logger,
) *Pipeline {
	workers := config.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pipeline{
		store:      store,
		buffer:     buffer,
		reconciler: reconciler,
		snapshots:  snapshots,
		workers:    workers,
		logger:     logger.With().Str("component", "pipeline").Logger(),
	}
}

// RunCycle drains the buffer and runs the phases in order: completions,
// creating sources, attaching sources. Item failures are logged and counted;
// only an unreachable store fails the cycle, and then nothing is drained.
func (p *Pipeline) RunCycle(ctx context.Context) (*models.CycleReport, error) {
	started := time.Now()
	report := &models.CycleReport{StartedAt: started.UTC()}
	defer func() {
		report.Duration = time.Since(started)
		metrics.CycleDuration.Observe(report.Duration.Seconds())
	}()

	if err := p.store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("store unavailable: %w", err)
	}

	batches, failures := p.buffer.Drain()
	for _, f := range failures {
		report.SourceFailures = append(report.SourceFailures, f.Source+": "+f.Err)
	}

	var creating, attaching []*models.SourceBatch
	var completions []sourced[models.GameCompletion]
	for _, b := range batches {
		report.ItemsSkipped += b.Skipped
		for _, c := range b.Completions {
			completions = append(completions, sourced[models.GameCompletion]{source: b.Source, item: c})
		}
		if len(b.Events) == 0 {
			continue
		}
		if b.Role == models.RoleCreating {
			creating = append(creating, b)
		} else {
			attaching = append(attaching, b)
		}
	}

	tally := &cycleTally{report: report}

	p.completeGames(ctx, completions, tally)
	p.runPhase(ctx, "creating", creating, p.reconciler.Reconcile, tally)
	p.runPhase(ctx, "attaching", attaching, p.attach, tally)

	p.logger.Info().
		Int("batches", len(batches)).
		Int("games_completed", report.GamesCompleted).
		Int("games_reconciled", report.GamesReconciled).
		Int("snapshots_inserted", report.SnapshotsInserted).
		Int("snapshots_duplicate", report.SnapshotsDuplicate).
		Int("snapshots_stale", report.SnapshotsStale).
		Int("events_unmatched", report.EventsUnmatched).
		Int("source_failures", len(report.SourceFailures)).
		Dur("duration", time.Since(started)).
		Msg("cycle finished")

	return report, nil
}

type sourced[T any] struct {
	source string
	item   T
}

// cycleTally serializes report updates from pool workers
type cycleTally struct {
	mu     sync.Mutex
	report *models.CycleReport
}

func (t *cycleTally) update(fn func(r *models.CycleReport)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.report)
}

func (p *Pipeline) completeGames(ctx context.Context, completions []sourced[models.GameCompletion], tally *cycleTally) {
	if len(completions) == 0 {
		return
	}

	wp := pool.New().WithMaxGoroutines(p.workers)
	for _, c := range completions {
		wp.Go(func() {
			game, aligned, err := p.reconciler.FindForCompletion(ctx, c.item)
			if err != nil {
				p.itemFailed("completion", c.source, c.item.HomeTeam, c.item.AwayTeam, err, tally)
				return
			}

			done, err := p.snapshots.CompleteGame(ctx, game, aligned)
			if err != nil {
				p.itemFailed("completion", c.source, c.item.HomeTeam, c.item.AwayTeam, err, tally)
				return
			}
			if done {
				tally.update(func(r *models.CycleReport) { r.GamesCompleted++ })
			}
		})
	}
	wp.Wait()
}

type resolvedEvent struct {
	index  int
	source string
	game   *models.Game
	quotes []models.Quote
}

type gameQuotes struct {
	game    *models.Game
	sources map[string]bool
	quotes  []models.Quote
}

// runPhase resolves every event to a game, then stores quotes per game so
// that quotes for one game from several events are de-vigged together
func (p *Pipeline) runPhase(
	ctx context.Context,
	phase string,
	batches []*models.SourceBatch,
	resolve func(context.Context, models.EventCandidate) (*models.Game, error),
	tally *cycleTally,
) {
	var events []sourced[models.EventCandidate]
	for _, b := range batches {
		for _, e := range b.Events {
			events = append(events, sourced[models.EventCandidate]{source: b.Source, item: e})
		}
	}
	if len(events) == 0 {
		return
	}

	rp := pool.NewWithResults[resolvedEvent]().WithMaxGoroutines(p.workers)
	for i, e := range events {
		rp.Go(func() resolvedEvent {
			game, err := resolve(ctx, e.item)
			if err != nil {
				p.itemFailed(phase, e.source, e.item.HomeTeam, e.item.AwayTeam, err, tally)
				return resolvedEvent{index: i}
			}
			return resolvedEvent{index: i, source: e.source, game: game, quotes: e.item.Quotes}
		})
	}
	results := rp.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })

	byGame := make(map[uuid.UUID]*gameQuotes)
	var order []uuid.UUID
	for _, r := range results {
		if r.game == nil {
			continue
		}
		gq, ok := byGame[r.game.ID]
		if !ok {
			gq = &gameQuotes{game: r.game, sources: make(map[string]bool)}
			byGame[r.game.ID] = gq
			order = append(order, r.game.ID)
		}
		gq.sources[r.source] = true
		gq.quotes = append(gq.quotes, r.quotes...)
	}

	tally.update(func(r *models.CycleReport) { r.GamesReconciled += len(order) })

	wp := pool.New().WithMaxGoroutines(p.workers)
	for _, id := range order {
		gq := byGame[id]
		wp.Go(func() {
			home, away := p.reconciler.Pair(gq.game)
			res, err := p.snapshots.StoreQuotes(ctx, gq.game, classifier.Pair{Home: home, Away: away}, gq.quotes)
			tally.update(func(r *models.CycleReport) {
				r.SnapshotsInserted += res.Inserted
				r.SnapshotsDuplicate += res.Duplicate
				r.SnapshotsStale += res.Stale
				r.ItemsSkipped += res.Skipped
			})
			if err != nil {
				for source := range gq.sources {
					p.itemFailed(phase, source, gq.game.HomeTeamNormalized, gq.game.AwayTeamNormalized, err, tally)
				}
			}
		})
	}
	wp.Wait()
}

func (p *Pipeline) attach(ctx context.Context, event models.EventCandidate) (*models.Game, error) {
	return p.reconciler.Attach(ctx, models.AttachQuery{
		Sport:         event.Sport,
		TeamA:         event.HomeTeam,
		TeamB:         event.AwayTeam,
		ReferenceTime: event.StartTime,
		Trusted:       event.TimeTrusted,
	})
}

// itemFailed logs one failed item. Unknown teams and missing games are
// expected per-item outcomes; anything else counts as a source failure.
func (p *Pipeline) itemFailed(phase, source, home, away string, err error, tally *cycleTally) {
	expected := errors.Is(err, models.ErrUnknownTeam) ||
		errors.Is(err, models.ErrNoMatch) ||
		errors.Is(err, models.ErrSameTeam) ||
		errors.Is(err, models.ErrMissingStartTime)

	if expected {
		tally.update(func(r *models.CycleReport) { r.EventsUnmatched++ })
		p.logger.Warn().
			Err(err).
			Str("phase", phase).
			Str("source", source).
			Str("home_team", home).
			Str("away_team", away).
			Msg("item not matched")
		return
	}

	metrics.SourceFailures.WithLabelValues(source).Inc()
	tally.update(func(r *models.CycleReport) {
		r.SourceFailures = append(r.SourceFailures, source+": "+err.Error())
	})
	p.logger.Error().
		Err(err).
		Str("phase", phase).
		Str("source", source).
		Str("home_team", home).
		Str("away_team", away).
		Msg("item failed")
}
