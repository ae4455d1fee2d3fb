package textmodel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// countTrue scores a configuration by how many normalization switches are on.
func countTrue(_ context.Context, cfg Config) (Result, error) {
	score := 0.0
	for _, on := range []bool{cfg.StripDiacritics, cfg.DeleteDuplicates, cfg.DeletePunctuation, cfg.Lowercase} {
		if on {
			score++
		}
	}
	return Result{Score: score}, nil
}

func switchSpace(t *testing.T, seed uint64) *ParamSpace {
	t.Helper()
	space, err := NewParamSpace(DefaultConfig(), seed,
		BoolParam("del_diac"),
		BoolParam("del_dup"),
		BoolParam("del_punc"),
		BoolParam("lc"),
		TokenListParam(1, 2, 3),
	)
	if err != nil {
		t.Fatalf("NewParamSpace() error = %v", err)
	}
	return space
}

func newTestSearcher(space *ParamSpace, score ScoreFunc) *Searcher {
	s := NewSearcher(space, score)
	s.SampleSize = FixedSize(1)
	s.Logger = quietLogger
	return s
}

// ═══════════════════════════════════════════════════════════════════════════════
// TABU TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestTabu(t *testing.T) {
	tabu := NewTabu("a")

	if !tabu.Contains("a") {
		t.Error(`Contains("a") = false for a seeded key`)
	}
	if tabu.Add("a") {
		t.Error(`Add("a") = true for a seeded key`)
	}
	if !tabu.Add("b") {
		t.Error(`Add("b") = false for a new key`)
	}
	if tabu.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tabu.Len())
	}
}

func TestSearcher_NoConfigurationScoredTwice(t *testing.T) {
	var calls atomic.Int64
	seen := map[string]int{}
	score := func(ctx context.Context, cfg Config) (Result, error) {
		calls.Add(1)
		seen[cfg.Key()]++
		return countTrue(ctx, cfg)
	}

	// 16 switch combinations x 3 single-element token lists
	s := newTestSearcher(switchSpace(t, 3), score)
	s.BatchSize = 200

	results, err := s.Search(context.Background())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(results) > 48 {
		t.Errorf("scored %d configurations, the space only has 48", len(results))
	}
	if int(calls.Load()) != len(results) {
		t.Errorf("score called %d times for %d results", calls.Load(), len(results))
	}
	for key, n := range seen {
		if n > 1 {
			t.Errorf("configuration scored %d times: %s", n, key)
		}
	}
}

func TestSearch_AdmitSkipsPreseededKeys(t *testing.T) {
	space, err := NewParamSpace(DefaultConfig(), 11,
		BoolParam("del_diac"),
		BoolParam("del_dup"),
		BoolParam("del_punc"),
		BoolParam("lc"),
		BoolParam("negation"),
		BoolParam("stemming"),
		TokenListParam(DefaultTokenPool...),
	)
	if err != nil {
		t.Fatalf("NewParamSpace() error = %v", err)
	}

	// With the whole pool in every token list only the 6 switches vary: 64 keys.
	names := []string{"del_diac", "del_dup", "del_punc", "lc", "negation", "stemming"}
	var all []string
	for mask := range 64 {
		cfg := space.Base.Clone()
		cfg.TokenList = append([]int(nil), DefaultTokenPool...)
		for i, name := range names {
			*boolFields[name](&cfg) = mask&(1<<i) != 0
		}
		all = append(all, cfg.Key())
	}

	tabu := NewTabu(all[:60]...)
	batch := admit(space.Sample(64, FixedSize(len(DefaultTokenPool))), tabu, quietLogger)

	if len(batch) > 4 {
		t.Errorf("admitted %d configurations, at most 4 are new", len(batch))
	}
	preseeded := NewTabu(all[:60]...)
	for _, cfg := range batch {
		if preseeded.Contains(cfg.Key()) {
			t.Errorf("admitted a pre-seeded configuration: %s", cfg.Key())
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// HILL CLIMBING TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestSearcher_HillClimbingReachesOptimum(t *testing.T) {
	sampleOnly := newTestSearcher(switchSpace(t, 5), countTrue)
	sampleOnly.BatchSize = 3
	sampleOnly.HillClimbing = false

	climbing := newTestSearcher(switchSpace(t, 5), countTrue)
	climbing.BatchSize = 3

	initial, err := sampleOnly.Search(context.Background())
	if err != nil {
		t.Fatalf("Search() without climbing error = %v", err)
	}
	results, err := climbing.Search(context.Background())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if results[0].Score < initial[0].Score {
		t.Errorf("climbing best %v is below the sampled best %v", results[0].Score, initial[0].Score)
	}
	// Every switch flip improves by one until all four are on.
	if results[0].Score != 4 {
		t.Errorf("best score = %v, want 4", results[0].Score)
	}
	if len(results) <= len(initial) {
		t.Errorf("climbing scored %d configurations, sampling alone %d", len(results), len(initial))
	}
}

func TestSearcher_ResultsRanked(t *testing.T) {
	s := newTestSearcher(switchSpace(t, 9), countTrue)
	s.BatchSize = 10

	results, err := s.Search(context.Background())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results[%d].Score = %v above results[%d].Score = %v",
				i, results[i].Score, i-1, results[i-1].Score)
		}
	}

	run := results[0].RunID
	if run == "" {
		t.Fatal("RunID was not stamped")
	}
	for _, res := range results {
		if res.RunID != run {
			t.Errorf("RunID = %q, want %q", res.RunID, run)
		}
		if got, _ := countTrue(context.Background(), res.Config); got.Score != res.Score {
			t.Errorf("result config does not match its score: %s", res.Config.Key())
		}
	}
}

func TestSearcher_WorkersMatchSequential(t *testing.T) {
	sequential := newTestSearcher(switchSpace(t, 21), countTrue)
	sequential.BatchSize = 12

	concurrent := newTestSearcher(switchSpace(t, 21), countTrue)
	concurrent.BatchSize = 12
	concurrent.Workers = 4

	a, err := sequential.Search(context.Background())
	if err != nil {
		t.Fatalf("sequential Search() error = %v", err)
	}
	b, err := concurrent.Search(context.Background())
	if err != nil {
		t.Fatalf("concurrent Search() error = %v", err)
	}

	if len(a) != len(b) {
		t.Fatalf("sequential scored %d, concurrent %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Config.Key() != b[i].Config.Key() || a[i].Score != b[i].Score {
			t.Errorf("rank %d differs: %s vs %s", i+1, a[i].Config.Key(), b[i].Config.Key())
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// ERROR TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestSearcher_ScoreErrorAborts(t *testing.T) {
	errBoom := errors.New("boom")
	score := func(ctx context.Context, cfg Config) (Result, error) {
		if cfg.Lowercase {
			return Result{}, errBoom
		}
		return countTrue(ctx, cfg)
	}

	for _, workers := range []int{1, 4} {
		s := newTestSearcher(switchSpace(t, 1), score)
		s.Workers = workers

		if _, err := s.Search(context.Background()); !errors.Is(err, errBoom) {
			t.Errorf("workers=%d: Search() error = %v, want %v", workers, err, errBoom)
		}
	}
}

func TestSearcher_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	score := func(ctx context.Context, cfg Config) (Result, error) {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		return countTrue(ctx, cfg)
	}

	s := newTestSearcher(switchSpace(t, 1), score)
	if _, err := s.Search(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Search() error = %v, want context.Canceled", err)
	}
}

func TestSearcher_EmptySearch(t *testing.T) {
	space, err := NewParamSpace(DefaultConfig(), 1, BoolParam("lc"))
	if err != nil {
		t.Fatalf("NewParamSpace() error = %v", err)
	}

	on, off := DefaultConfig(), DefaultConfig()
	off.Lowercase = false

	s := newTestSearcher(space, countTrue)
	s.Tabu = NewTabu(on.Key(), off.Key())

	if _, err := s.Search(context.Background()); !errors.Is(err, ErrEmptySearch) {
		t.Errorf("Search() error = %v, want ErrEmptySearch", err)
	}
}

func TestSearcher_InvalidBase(t *testing.T) {
	base := DefaultConfig()
	base.TokenList = nil

	space, err := NewParamSpace(base, 1, BoolParam("lc"))
	if err != nil {
		t.Fatalf("NewParamSpace() error = %v", err)
	}

	s := newTestSearcher(space, countTrue)
	if _, err := s.Search(context.Background()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Search() error = %v, want ErrInvalidConfig", err)
	}
}
