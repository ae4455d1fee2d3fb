package textmodel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SCORING
// ═══════════════════════════════════════════════════════════════════════════════
// A scorer turns a configuration into a Result by building a TextModel with it,
// training a classifier on the vectors and measuring the predictions.
//
//	KFoldScorer   → stratified k-fold cross-validation over one corpus
//	HoldoutScorer → train on one corpus, predict a separate test corpus
//
// The ranking score is the macro-F1 of the predictions; accuracy, weighted F1
// and the accumulated fit/predict times are recorded alongside.
//
// Scorers only read the corpora they hold, so one scorer can serve every
// worker of a search.
// ═══════════════════════════════════════════════════════════════════════════════

// KFoldScorer scores configurations by stratified k-fold cross-validation.
type KFoldScorer struct {
	Docs          []string
	Labels        []string
	Folds         int
	Seed          uint64
	NewClassifier ClassifierFactory
	Resources     *Resources

	folds [][]int
}

// NewKFoldScorer fixes the folds once so every configuration is evaluated on
// the same split.
func NewKFoldScorer(docs, labels []string, folds int, seed uint64, newClassifier ClassifierFactory, res *Resources) (*KFoldScorer, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}
	if len(docs) != len(labels) {
		return nil, fmt.Errorf("%w: %d documents, %d labels", ErrLabelMismatch, len(docs), len(labels))
	}
	split, err := StratifiedKFold(labels, folds, seed)
	if err != nil {
		return nil, err
	}
	if newClassifier == nil {
		newClassifier = func() Classifier { return NewLinearSVM(seed) }
	}
	if res == nil {
		res = NewResources()
	}

	return &KFoldScorer{
		Docs:          docs,
		Labels:        labels,
		Folds:         folds,
		Seed:          seed,
		NewClassifier: newClassifier,
		Resources:     res,
		folds:         split,
	}, nil
}

// Score implements ScoreFunc.
func (k *KFoldScorer) Score(ctx context.Context, cfg Config) (Result, error) {
	hy := make([]string, len(k.Docs))
	var timing evalTiming

	for _, test := range k.folds {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		train := complement(len(k.Docs), test)

		pred, t, err := fitPredict(cfg,
			pick(k.Docs, train), pick(k.Labels, train),
			pick(k.Docs, test), k.NewClassifier, k.Resources)
		if err != nil {
			return Result{}, err
		}
		timing.fit += t.fit
		timing.predict += t.predict

		for i, idx := range test {
			hy[idx] = pred[i]
		}
	}

	res := newResult(cfg, k.Labels, hy, timing)
	slog.Debug("configuration scored",
		slog.String("key", cfg.Key()),
		slog.Float64("score", res.Score))
	return res, nil
}

// HoldoutScorer scores configurations on a fixed train/test split.
type HoldoutScorer struct {
	Train         []Document
	Test          []Document
	NewClassifier ClassifierFactory
	Resources     *Resources
}

// Score implements ScoreFunc.
func (h *HoldoutScorer) Score(ctx context.Context, cfg Config) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(h.Train) == 0 || len(h.Test) == 0 {
		return Result{}, ErrEmptyCorpus
	}

	newClassifier := h.NewClassifier
	if newClassifier == nil {
		newClassifier = func() Classifier { return NewLinearSVM(0) }
	}

	pred, timing, err := fitPredict(cfg,
		Texts(h.Train), Labels(h.Train),
		Texts(h.Test), newClassifier, h.Resources)
	if err != nil {
		return Result{}, err
	}
	return newResult(cfg, Labels(h.Test), pred, timing), nil
}

type evalTiming struct {
	fit, predict time.Duration
}

func fitPredict(cfg Config, trainDocs, trainLabels, testDocs []string, newClassifier ClassifierFactory, res *Resources) ([]string, evalTiming, error) {
	var timing evalTiming

	start := time.Now()
	model, err := NewTextModel(trainDocs, trainLabels, cfg, WithResources(res))
	if err != nil {
		return nil, timing, err
	}
	clf := newClassifier()
	if err := clf.Fit(model.Vectors(trainDocs), trainLabels); err != nil {
		return nil, timing, fmt.Errorf("fit classifier: %w", err)
	}
	timing.fit = time.Since(start)

	start = time.Now()
	pred := clf.Predict(model.Vectors(testDocs))
	timing.predict = time.Since(start)
	return pred, timing, nil
}

func newResult(cfg Config, y, hy []string, timing evalTiming) Result {
	macro := MacroF1(y, hy)
	return Result{
		Config:      cfg,
		Score:       macro,
		MacroF1:     macro,
		WeightedF1:  WeightedF1(y, hy),
		Accuracy:    Accuracy(y, hy),
		FitTime:     timing.fit.Seconds(),
		PredictTime: timing.predict.Seconds(),
	}
}

func pick(items []string, idx []int) []string {
	return lo.Map(idx, func(i int, _ int) string { return items[i] })
}
