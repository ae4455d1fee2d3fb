package textmodel

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/samber/lo"
)

// Classifier is a supervised model over sparse vectors.
type Classifier interface {
	Fit(X []Vector, y []string) error
	Predict(X []Vector) []string
	DecisionFunction(X []Vector) [][]float64
}

// ClassifierFactory returns a fresh, unfitted classifier.
type ClassifierFactory func() Classifier

// ═══════════════════════════════════════════════════════════════════════════════
// LINEAR SVM (one-vs-rest, Pegasos)
// ═══════════════════════════════════════════════════════════════════════════════
// One binary hinge-loss model per class, trained with Pegasos stochastic
// sub-gradient descent:
//
//	η_t     = 1 / (λ t)
//	w_t+1   = (1 - η_t λ) w_t + η_t y_i x_i     if y_i <w_t, x_i> < 1
//	w_t+1   = (1 - η_t λ) w_t                   otherwise
//
// The shrink factor is kept as a separate scalar so that an update only touches
// the non-zero components of x_i. A constant bias feature is appended to every
// vector. Prediction picks the class with the largest decision value.
//
// With a single class (or no data) the model degenerates to a constant
// prediction.
// ═══════════════════════════════════════════════════════════════════════════════

// LinearSVM is a one-vs-rest linear support vector machine.
type LinearSVM struct {
	Lambda float64 // regularization; 0 means 1/n
	Epochs int
	Seed   uint64

	classes []string
	weights [][]float64 // per class, bias last
}

// NewLinearSVM returns a LinearSVM with the default settings.
func NewLinearSVM(seed uint64) *LinearSVM {
	return &LinearSVM{Epochs: 10, Seed: seed}
}

// Classes returns the classes in decision-function column order.
func (m *LinearSVM) Classes() []string { return m.classes }

// Fit implements Classifier.
func (m *LinearSVM) Fit(X []Vector, y []string) error {
	if len(X) != len(y) {
		return fmt.Errorf("%w: %d vectors, %d labels", ErrLabelMismatch, len(X), len(y))
	}

	m.classes = lo.Uniq(y)
	sort.Strings(m.classes)
	m.weights = nil
	if len(m.classes) < 2 {
		return nil
	}

	dim := 0
	for _, x := range X {
		for _, tw := range x {
			dim = max(dim, tw.ID+1)
		}
	}

	lambda := m.Lambda
	if lambda <= 0 {
		lambda = 1 / float64(len(X))
	}
	epochs := max(m.Epochs, 1)

	m.weights = make([][]float64, len(m.classes))
	for c, class := range m.classes {
		targets := lo.Map(y, func(label string, _ int) float64 {
			if label == class {
				return 1
			}
			return -1
		})
		rng := rand.New(rand.NewPCG(m.Seed, uint64(c)))
		m.weights[c] = pegasos(X, targets, dim, lambda, epochs, rng)
	}
	return nil
}

func pegasos(X []Vector, y []float64, dim int, lambda float64, epochs int, rng *rand.Rand) []float64 {
	v := make([]float64, dim+1)
	scale := 1.0
	t := 0

	for range epochs {
		for _, i := range rng.Perm(len(X)) {
			t++
			eta := 1 / (lambda * float64(t))
			margin := y[i] * scale * (X[i].Dot(v) + v[dim])

			if shrink := 1 - eta*lambda; shrink <= 0 {
				clear(v)
				scale = 1
			} else {
				scale *= shrink
			}

			if margin < 1 {
				step := eta * y[i] / scale
				for _, tw := range X[i] {
					v[tw.ID] += step * tw.Weight
				}
				v[dim] += step
			}

			if scale < 1e-9 {
				for j := range v {
					v[j] *= scale
				}
				scale = 1
			}
		}
	}

	for j := range v {
		v[j] *= scale
	}
	return v
}

// DecisionFunction implements Classifier. Each row holds one value per class.
func (m *LinearSVM) DecisionFunction(X []Vector) [][]float64 {
	out := make([][]float64, len(X))
	for i, x := range X {
		row := make([]float64, len(m.classes))
		for c, w := range m.weights {
			dim := len(w) - 1
			row[c] = x.Dot(w[:dim]) + w[dim]
		}
		out[i] = row
	}
	return out
}

// Predict implements Classifier.
func (m *LinearSVM) Predict(X []Vector) []string {
	out := make([]string, len(X))
	if len(m.classes) == 0 {
		return out
	}
	if m.weights == nil {
		for i := range out {
			out[i] = m.classes[0]
		}
		return out
	}

	for i, row := range m.DecisionFunction(X) {
		best := 0
		for c := 1; c < len(row); c++ {
			if row[c] > row[best] {
				best = c
			}
		}
		out[i] = m.classes[best]
	}
	return out
}
