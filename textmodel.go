package textmodel

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
)

var ErrEmptyCorpus = errors.New("empty corpus")

// TextModel couples the text pipeline of one configuration with the vector
// space fitted on a corpus.
type TextModel struct {
	analyzer *Analyzer
	space    *VectorSpace
}

type modelOptions struct {
	resources *Resources
}

// ModelOption customizes NewTextModel.
type ModelOption func(*modelOptions)

// WithResources shares a lexicon registry between models. Without it every
// model loads its own copy of the embedded lexicons.
func WithResources(res *Resources) ModelOption {
	return func(o *modelOptions) { o.resources = res }
}

// NewTextModel analyzes docs with cfg and fits the vector space.
//
// Entropy pruning runs when cfg.Threshold > 0 and needs one label per document;
// document frequency pruning runs when cfg.TokenMinFilter > 0. labels may be nil
// when no entropy pruning is requested.
func NewTextModel(docs []string, labels []string, cfg Config, opts ...ModelOption) (*TextModel, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}

	o := modelOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.resources == nil {
		o.resources = NewResources()
	}

	analyzer, err := NewAnalyzer(cfg, o.resources)
	if err != nil {
		return nil, err
	}

	corpus := lo.Map(docs, func(doc string, _ int) []string {
		return analyzer.Analyze(doc)
	})

	space := NewVectorSpace(cfg.Weighting)
	space.Fit(corpus)

	if cfg.Threshold > 0 {
		if len(labels) != len(docs) {
			return nil, fmt.Errorf("%w: entropy pruning needs %d labels, got %d", ErrLabelMismatch, len(docs), len(labels))
		}
		if _, err := space.PruneEntropy(labels, cfg.Threshold); err != nil {
			return nil, err
		}
	}
	if cfg.TokenMinFilter > 0 {
		space.PruneDocFreq(cfg.TokenMinFilter)
	}

	slog.Debug("text model fitted",
		slog.Int("documents", len(docs)),
		slog.Int("terms", space.NumTerms()))

	return &TextModel{analyzer: analyzer, space: space}, nil
}

// Config returns the model's configuration.
func (m *TextModel) Config() Config { return m.analyzer.Config() }

// Space returns the fitted vector space.
func (m *TextModel) Space() *VectorSpace { return m.space }

// Transform returns the normalized text the tokenizer sees.
func (m *TextModel) Transform(text string) string { return m.analyzer.Transform(text) }

// Tokenize returns the tokens of text.
func (m *TextModel) Tokenize(text string) []string { return m.analyzer.Analyze(text) }

// Vector returns the sparse vector of text.
func (m *TextModel) Vector(text string) Vector {
	return m.space.Vector(m.Tokenize(text))
}

// Vectors returns the sparse vector of every text.
func (m *TextModel) Vectors(texts []string) []Vector {
	return lo.Map(texts, func(text string, _ int) Vector {
		return m.Vector(text)
	})
}
