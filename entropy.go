package textmodel

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring"
	"github.com/samber/lo"
)

var ErrLabelMismatch = errors.New("labels do not match the fitted documents")

// ═══════════════════════════════════════════════════════════════════════════════
// ENTROPY PRUNING
// ═══════════════════════════════════════════════════════════════════════════════
// A token that shows up evenly in every class cannot help a classifier tell the
// classes apart. Entropy scores each token by how concentrated its documents are
// in a few classes:
//
//	p_c   = docs of class c containing the token / docs containing the token
//	score = 1 + Σ_c p_c · log2(p_c)            (0 · log2 0 := 0)
//
// With more than two classes log2(p_c) is divided by log2(k) so the score stays
// in [0, 1]:
//
//	exclusive to one class      → 1
//	evenly spread over k classes → 0
//
// Class membership is kept as one roaring bitmap per class; per-class counts are
// the intersection cardinalities with the token's document bitmap.
// ═══════════════════════════════════════════════════════════════════════════════

// Entropy returns the score of every id. labels holds the class of each fitted
// document.
func (vs *VectorSpace) Entropy(labels []string) ([]float64, error) {
	if len(labels) != vs.numDocs {
		return nil, fmt.Errorf("%w: %d labels for %d documents", ErrLabelMismatch, len(labels), vs.numDocs)
	}

	classes := lo.Uniq(labels)
	sort.Strings(classes)
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}

	members := make([]*roaring.Bitmap, len(classes))
	for i := range members {
		members[i] = roaring.NewBitmap()
	}
	for docID, label := range labels {
		members[index[label]].Add(uint32(docID))
	}

	k := len(classes)
	scale := 1.0
	if k > 2 {
		scale = math.Log2(float64(k))
	}

	scores := make([]float64, len(vs.docs))
	counts := make([]float64, k)
	for id, docs := range vs.docs {
		var total float64
		for c, m := range members {
			counts[c] = float64(docs.AndCardinality(m))
			total += counts[c]
		}

		var sum float64
		for _, n := range counts {
			p := 1 / float64(k)
			if total > 0 {
				p = n / total
			}
			if p > 0 {
				sum += p * math.Log2(p) / scale
			}
		}
		scores[id] = 1 + sum
	}
	return scores, nil
}

// PruneEntropy removes every id whose entropy score is at or below threshold
// and returns the number of removed ids. Surviving ids are renumbered densely.
func (vs *VectorSpace) PruneEntropy(labels []string, threshold float64) (int, error) {
	scores, err := vs.Entropy(labels)
	if err != nil {
		return 0, err
	}

	removed := vs.retain(func(id int) bool { return scores[id] > threshold })
	slog.Debug("entropy pruning",
		slog.Float64("threshold", threshold),
		slog.Int("removed", removed),
		slog.Int("terms", vs.NumTerms()))
	return removed, nil
}

// PruneDocFreq removes ids whose document frequency is at or below minDF. A
// minDF in (0, 1) is read as a fraction of the fitted documents.
func (vs *VectorSpace) PruneDocFreq(minDF float64) int {
	if minDF > 0 && minDF < 1 {
		minDF *= float64(vs.numDocs)
	}

	removed := vs.retain(func(id int) bool {
		return float64(vs.docs[id].GetCardinality()) > minDF
	})
	slog.Debug("document frequency pruning",
		slog.Float64("min", minDF),
		slog.Int("removed", removed),
		slog.Int("terms", vs.NumTerms()))
	return removed
}
