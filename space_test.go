package textmodel

import (
	"errors"
	"math/rand/v2"
	"slices"
	"sort"
	"testing"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SAMPLING TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestParamSpace_Sample(t *testing.T) {
	space := DefaultSpace("", 7)

	n := 0
	for cfg := range space.Sample(50, FixedSize(3)) {
		n++
		if err := cfg.Validate(); err != nil {
			t.Errorf("sampled invalid configuration: %v", err)
		}
		if len(cfg.TokenList) != 3 {
			t.Errorf("token list %v has %d elements, want 3", cfg.TokenList, len(cfg.TokenList))
		}
		if !sort.IntsAreSorted(cfg.TokenList) {
			t.Errorf("token list %v is not sorted", cfg.TokenList)
		}
		for _, q := range cfg.TokenList {
			if !slices.Contains(DefaultTokenPool, q) {
				t.Errorf("token list %v holds %d outside the pool", cfg.TokenList, q)
			}
		}
	}
	if n != 50 {
		t.Errorf("Sample(50) yielded %d configurations", n)
	}
}

func TestParamSpace_Sample_Deterministic(t *testing.T) {
	keys := func(seed uint64) []string {
		var out []string
		for cfg := range DefaultSpace("spanish", seed).Sample(20, nil) {
			out = append(out, cfg.Key())
		}
		return out
	}

	if !slices.Equal(keys(42), keys(42)) {
		t.Error("same seed produced different samples")
	}
	if slices.Equal(keys(42), keys(43)) {
		t.Error("different seeds produced the same samples")
	}
}

func TestParamSpace_Sample_KeepsBase(t *testing.T) {
	base := DefaultConfig()
	base.Threshold = 0.3

	space, err := NewParamSpace(base, 1, BoolParam("lc"))
	if err != nil {
		t.Fatalf("NewParamSpace() error = %v", err)
	}

	for cfg := range space.Sample(10, nil) {
		if cfg.Threshold != 0.3 || !slices.Equal(cfg.TokenList, base.TokenList) {
			t.Errorf("undeclared fields changed: %s", cfg.Key())
		}
	}
}

func TestSizeControl(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	if got := FixedSize(20)(rng, 9); got != 9 {
		t.Errorf("FixedSize(20) = %d, want 9", got)
	}
	if got := FixedSize(0)(rng, 9); got != 1 {
		t.Errorf("FixedSize(0) = %d, want 1", got)
	}

	gauss := GaussianSize(4)
	for range 200 {
		if got := gauss(rng, 9); got < 1 || got > 9 {
			t.Fatalf("GaussianSize(4) = %d outside [1, 9]", got)
		}
	}
}

func TestNewParamSpace_Errors(t *testing.T) {
	tests := []struct {
		name   string
		params []Param
	}{
		{"unknown bool", []Param{BoolParam("shout")}},
		{"choice as bool", []Param{BoolParam("weighting")}},
		{"unknown choice", []Param{ChoiceParam("color")}},
		{"empty pool", []Param{TokenListParam()}},
		{"declared twice", []Param{BoolParam("lc"), BoolParam("lc")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewParamSpace(DefaultConfig(), 1, tt.params...); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("NewParamSpace() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// NEIGHBOURHOOD TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestParamSpace_Neighbors_Count(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TokenList = []int{-1, 3}

	tests := []struct {
		lang string
		want int
	}{
		// 4 bools + 4 options x 2 + weighting x 1 + 2 removals + 7 additions
		{"", 22},
		// + negation + stemming + stopwords x 2
		{"spanish", 26},
	}

	for _, tt := range tests {
		c := cfg.Clone()
		c.Lang = tt.lang

		n := 0
		for range DefaultSpace(tt.lang, 1).Neighbors(c) {
			n++
		}
		if n != tt.want {
			t.Errorf("lang %q: %d neighbours, want %d", tt.lang, n, tt.want)
		}
	}
}

func TestParamSpace_Neighbors_OneEditAway(t *testing.T) {
	space := DefaultSpace("", 1)
	cfg := DefaultConfig()
	cfg.TokenList = []int{-1, 3}

	seen := map[string]bool{}
	for next := range space.Neighbors(cfg) {
		if next.Key() == cfg.Key() {
			t.Error("neighbour equals the origin")
		}
		if seen[next.Key()] {
			t.Errorf("neighbour %s yielded twice", next.Key())
		}
		seen[next.Key()] = true

		if !sort.IntsAreSorted(next.TokenList) {
			t.Errorf("neighbour token list %v is not sorted", next.TokenList)
		}
		if d := len(next.TokenList) - len(cfg.TokenList); d < -1 || d > 1 {
			t.Errorf("token list %v is more than one edit from %v", next.TokenList, cfg.TokenList)
		}
	}

	// The origin is never modified in place.
	if !slices.Equal(cfg.TokenList, []int{-1, 3}) {
		t.Errorf("origin token list changed to %v", cfg.TokenList)
	}
}

func TestParamSpace_Neighbors_SingletonRemoval(t *testing.T) {
	space, err := NewParamSpace(DefaultConfig(), 1, TokenListParam(1, 2))
	if err != nil {
		t.Fatalf("NewParamSpace() error = %v", err)
	}

	cfg := DefaultConfig()
	cfg.TokenList = []int{1}

	var lists [][]int
	for next := range space.Neighbors(cfg) {
		lists = append(lists, next.TokenList)
	}

	if len(lists) != 2 || len(lists[0]) != 0 || !slices.Equal(lists[1], []int{1, 2}) {
		t.Errorf("neighbour token lists = %v, want [[] [1 2]]", lists)
	}
}
