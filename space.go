package textmodel

import (
	"fmt"
	"iter"
	"math"
	"math/rand/v2"
	"slices"
	"sort"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════════
// PARAMETER SPACE
// ═══════════════════════════════════════════════════════════════════════════════
// A ParamSpace declares which Config fields the search may change and which
// values each may take. Fields not declared keep the value of the base config.
//
// Three kinds of parameters exist:
//
//	bool        → del_dup ∈ {false, true}
//	choice      → url_option ∈ {delete, group, none}
//	token list  → an ordered subset of a pool of signed q-gram sizes
//
// The space supports two operations:
//
//	Sample     → n random configurations
//	Neighbors  → every configuration one edit away from a given one
// ═══════════════════════════════════════════════════════════════════════════════

// DefaultTokenPool is the pool token lists are drawn from.
var DefaultTokenPool = []int{-2, -1, 1, 2, 3, 4, 5, 6, 7}

// ParamKind tells how a parameter is drawn and edited.
type ParamKind int

const (
	KindBool ParamKind = iota
	KindChoice
	KindTokenList
)

// Param declares one searchable field.
type Param struct {
	Name    string
	Kind    ParamKind
	Choices []string // KindChoice
	Pool    []int    // KindTokenList
}

// BoolParam declares a boolean field.
func BoolParam(name string) Param {
	return Param{Name: name, Kind: KindBool}
}

// ChoiceParam declares a categorical field. Without choices, the field's full
// option set is used.
func ChoiceParam(name string, choices ...string) Param {
	return Param{Name: name, Kind: KindChoice, Choices: choices}
}

// TokenListParam declares the token list with the given pool.
func TokenListParam(pool ...int) Param {
	return Param{Name: tokenListField, Kind: KindTokenList, Pool: pool}
}

// SizeControl picks how many pool elements a sampled token list keeps.
type SizeControl func(r *rand.Rand, pool int) int

// FixedSize keeps q elements (at most the whole pool).
func FixedSize(q int) SizeControl {
	return func(_ *rand.Rand, pool int) int {
		return clampInt(q, 1, pool)
	}
}

// GaussianSize draws the size from a normal distribution centered on mean with
// unit deviation, rounded and clipped to [1, pool].
func GaussianSize(mean float64) SizeControl {
	return func(r *rand.Rand, pool int) int {
		return clampInt(int(math.Round(r.NormFloat64()+mean)), 1, pool)
	}
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// ParamSpace is a declarative configuration space. It owns a seeded random
// source and is not safe for concurrent use.
type ParamSpace struct {
	Base   Config
	Params []Param // sorted by name
	rng    *rand.Rand
}

// NewParamSpace validates params against the Config fields and returns a space
// seeded with seed.
func NewParamSpace(base Config, seed uint64, params ...Param) (*ParamSpace, error) {
	s := &ParamSpace{
		Base: base.Clone(),
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}

	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if seen[p.Name] {
			return nil, fmt.Errorf("%w: parameter %q declared twice", ErrInvalidConfig, p.Name)
		}
		seen[p.Name] = true

		switch p.Kind {
		case KindBool:
			if _, ok := boolFields[p.Name]; !ok {
				return nil, fmt.Errorf("%w: %q is not a boolean parameter", ErrInvalidConfig, p.Name)
			}
		case KindChoice:
			field, ok := choiceFields[p.Name]
			if !ok {
				return nil, fmt.Errorf("%w: %q is not a categorical parameter", ErrInvalidConfig, p.Name)
			}
			if len(p.Choices) == 0 {
				p.Choices = field.choices
			}
			p.Choices = slices.Clone(p.Choices)
		case KindTokenList:
			if p.Name != tokenListField || len(p.Pool) == 0 {
				return nil, fmt.Errorf("%w: token list parameter needs a non-empty pool", ErrInvalidConfig)
			}
			p.Pool = slices.Clone(p.Pool)
			sort.Ints(p.Pool)
		default:
			return nil, fmt.Errorf("%w: parameter %q has unknown kind %d", ErrInvalidConfig, p.Name, p.Kind)
		}
		s.Params = append(s.Params, p)
	}

	sort.Slice(s.Params, func(i, j int) bool { return s.Params[i].Name < s.Params[j].Name })
	return s, nil
}

// DefaultSpace returns the usual search space: normalization switches, entity
// policies, weighting and token lists drawn from DefaultTokenPool. When lang is
// set the language transforms are searched too.
func DefaultSpace(lang string, seed uint64) *ParamSpace {
	base := DefaultConfig()
	base.Lang = lang

	params := []Param{
		BoolParam("del_diac"),
		BoolParam("del_dup"),
		BoolParam("del_punc"),
		BoolParam("lc"),
		ChoiceParam("num_option"),
		ChoiceParam("url_option"),
		ChoiceParam("usr_option"),
		ChoiceParam("emo_option"),
		ChoiceParam("weighting"),
		TokenListParam(DefaultTokenPool...),
	}
	if lang != "" {
		params = append(params,
			BoolParam("negation"),
			BoolParam("stemming"),
			ChoiceParam("stopwords"),
		)
	}

	s, err := NewParamSpace(base, seed, params...)
	if err != nil {
		// The declarations above only name known fields.
		panic(err)
	}
	return s
}

// ═══════════════════════════════════════════════════════════════════════════════
// SAMPLING
// ═══════════════════════════════════════════════════════════════════════════════

// Sample yields n random configurations. Every iteration draws new ones.
//
// ALGORITHM:
// ----------
// For each declared parameter:
//   - bool:       fair coin
//   - choice:     uniform over the choices
//   - token list: shuffle the pool, keep size(pool) elements, sort ascending
func (s *ParamSpace) Sample(n int, size SizeControl) iter.Seq[Config] {
	if size == nil {
		size = FixedSize(3)
	}
	return func(yield func(Config) bool) {
		for range n {
			if !yield(s.draw(size)) {
				return
			}
		}
	}
}

func (s *ParamSpace) draw(size SizeControl) Config {
	cfg := s.Base.Clone()
	for _, p := range s.Params {
		switch p.Kind {
		case KindBool:
			*boolFields[p.Name](&cfg) = s.rng.IntN(2) == 1
		case KindChoice:
			choiceFields[p.Name].set(&cfg, p.Choices[s.rng.IntN(len(p.Choices))])
		case KindTokenList:
			pool := slices.Clone(p.Pool)
			s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
			list := pool[:size(s.rng, len(pool))]
			sort.Ints(list)
			cfg.TokenList = list
		}
	}
	return cfg
}

// ═══════════════════════════════════════════════════════════════════════════════
// NEIGHBOURHOOD
// ═══════════════════════════════════════════════════════════════════════════════

// Neighbors yields every configuration one edit away from cfg, parameter by
// parameter in name order:
//
//	bool        → the flipped value                       (1 neighbour)
//	choice      → every other choice                      (len(choices)-1)
//	token list  → each element removed, each missing pool
//	              element added and the list re-sorted    (len(pool))
//
// A removal can leave the token list empty; such neighbours fail validation.
func (s *ParamSpace) Neighbors(cfg Config) iter.Seq[Config] {
	return func(yield func(Config) bool) {
		for _, p := range s.Params {
			if strings.HasPrefix(p.Name, "_") || p.Name == "lang" {
				continue
			}
			for next := range neighborsOf(p, cfg) {
				if !yield(next) {
					return
				}
			}
		}
	}
}

func neighborsOf(p Param, cfg Config) iter.Seq[Config] {
	return func(yield func(Config) bool) {
		switch p.Kind {
		case KindBool:
			next := cfg.Clone()
			field := boolFields[p.Name](&next)
			*field = !*field
			yield(next)

		case KindChoice:
			field := choiceFields[p.Name]
			current := field.get(&cfg)
			for _, choice := range p.Choices {
				if choice == current {
					continue
				}
				next := cfg.Clone()
				field.set(&next, choice)
				if !yield(next) {
					return
				}
			}

		case KindTokenList:
			for i := range cfg.TokenList {
				next := cfg.Clone()
				next.TokenList = slices.Delete(next.TokenList, i, i+1)
				if !yield(next) {
					return
				}
			}
			for _, q := range p.Pool {
				if slices.Contains(cfg.TokenList, q) {
					continue
				}
				next := cfg.Clone()
				next.TokenList = append(next.TokenList, q)
				sort.Ints(next.TokenList)
				if !yield(next) {
					return
				}
			}
		}
	}
}
