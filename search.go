package textmodel

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/google/uuid"
)

var ErrEmptySearch = errors.New("no configuration survived sampling")

// ═══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION SEARCH: Random Sampling + Tabu Hill Climbing
// ═══════════════════════════════════════════════════════════════════════════════
// The search looks for the configuration with the highest score. Scoring is
// expensive (a cross-validated classifier per configuration) so no configuration
// is ever scored twice: every canonical key that entered a batch goes into a
// tabu set.
//
// THE ALGORITHM:
// --------------
//  1. Sample BatchSize configurations, drop the tabu ones, score the rest
//  2. Rank everything by descending score
//  3. Hill climbing: expand the neighbours of the best configuration, drop the
//     tabu ones, score the rest, merge and re-rank
//  4. Stop as soon as a round does not beat the previous best (or produces no
//     new neighbours)
//
// VISUAL EXAMPLE:
// ---------------
//
//	sample:  A=0.61  B=0.70  C=0.55          best B=0.70
//	round 1: neighbours(B) → D=0.72  E=0.68  best D=0.72  (improved)
//	round 2: neighbours(D) → F=0.71  G=0.72  best D=0.72  (no improvement, stop)
//	result:  [D, G, F, B, E, A, C]
//
// The ascent is greedy and local; the full ranked list is returned so callers
// can inspect the runners-up.
// ═══════════════════════════════════════════════════════════════════════════════

// ScoreFunc evaluates one configuration. The returned Result carries the score
// used for ranking; the searcher stamps the configuration and run id on it.
type ScoreFunc func(ctx context.Context, cfg Config) (Result, error)

// Tabu is the set of canonical keys already scheduled for scoring. It only
// grows.
type Tabu struct {
	keys map[string]struct{}
}

// NewTabu returns a tabu set seeded with keys.
func NewTabu(keys ...string) *Tabu {
	t := &Tabu{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		t.keys[k] = struct{}{}
	}
	return t
}

// Add inserts key and reports whether it was new.
func (t *Tabu) Add(key string) bool {
	if _, ok := t.keys[key]; ok {
		return false
	}
	t.keys[key] = struct{}{}
	return true
}

// Contains reports whether key is tabu.
func (t *Tabu) Contains(key string) bool {
	_, ok := t.keys[key]
	return ok
}

// Len returns the number of tabu keys.
func (t *Tabu) Len() int { return len(t.keys) }

// Searcher drives one search over a ParamSpace.
type Searcher struct {
	Space *ParamSpace
	Score ScoreFunc

	BatchSize    int         // initial sample size (default 32)
	SampleSize   SizeControl // token list size of sampled configurations (default FixedSize(3))
	HillClimbing bool
	Workers      int   // concurrent score calls; <= 1 scores sequentially
	Tabu         *Tabu // optional pre-seeded tabu set

	Logger *slog.Logger
}

// NewSearcher returns a searcher with the default settings.
func NewSearcher(space *ParamSpace, score ScoreFunc) *Searcher {
	return &Searcher{
		Space:        space,
		Score:        score,
		BatchSize:    32,
		SampleSize:   FixedSize(3),
		HillClimbing: true,
		Workers:      1,
	}
}

func (s *Searcher) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Search runs sampling and, when enabled, hill climbing. It returns every
// scored configuration ranked by descending score. Any scoring error aborts
// the search.
func (s *Searcher) Search(ctx context.Context) ([]Result, error) {
	if err := s.Space.Base.Validate(); err != nil {
		return nil, fmt.Errorf("base configuration: %w", err)
	}

	runID := uuid.NewString()
	logger := s.logger().With(slog.String("run", runID))

	tabu := s.Tabu
	if tabu == nil {
		tabu = NewTabu()
	}

	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}

	logger.Info("sampling configurations",
		slog.Int("batch", batchSize),
		slog.Int("tabu", tabu.Len()),
		slog.Int("workers", s.Workers))

	batch := admit(s.Space.Sample(batchSize, s.SampleSize), tabu, logger)
	if len(batch) == 0 {
		return nil, ErrEmptySearch
	}

	results, err := s.evaluate(ctx, batch, runID)
	if err != nil {
		return nil, err
	}
	sortResults(results)

	logger.Info("initial batch scored",
		slog.Int("scored", len(results)),
		slog.Float64("best", results[0].Score))

	if !s.HillClimbing {
		return results, nil
	}

	for round := 1; ; round++ {
		best := results[0]

		neighbors := admit(s.Space.Neighbors(best.Config), tabu, logger)
		if len(neighbors) == 0 {
			logger.Info("hill climbing exhausted", slog.Int("round", round))
			break
		}

		scored, err := s.evaluate(ctx, neighbors, runID)
		if err != nil {
			return nil, err
		}
		results = append(results, scored...)
		sortResults(results)

		logger.Info("hill climbing round",
			slog.Int("round", round),
			slog.Int("scored", len(scored)),
			slog.Float64("previous", best.Score),
			slog.Float64("best", results[0].Score))

		if results[0].Score <= best.Score {
			break
		}
	}

	return results, nil
}

// admit keeps the valid, non-tabu candidates and marks them tabu.
func admit(candidates iter.Seq[Config], tabu *Tabu, logger *slog.Logger) []Config {
	var batch []Config
	for cfg := range candidates {
		if err := cfg.Validate(); err != nil {
			logger.Debug("skipping invalid configuration", slog.Any("error", err))
			continue
		}
		if !tabu.Add(cfg.Key()) {
			continue
		}
		batch = append(batch, cfg)
	}
	return batch
}

func (s *Searcher) evaluate(ctx context.Context, batch []Config, runID string) ([]Result, error) {
	return RunBatch(ctx, s.Workers, batch, func(ctx context.Context, cfg Config) (Result, error) {
		res, err := s.Score(ctx, cfg)
		if err != nil {
			return Result{}, fmt.Errorf("score %s: %w", cfg.Key(), err)
		}
		res.Config = cfg
		res.RunID = runID
		return res, nil
	})
}
