// ═══════════════════════════════════════════════════════════════════════════════
// WHAT IS A VECTOR SPACE MODEL?
// ═══════════════════════════════════════════════════════════════════════════════
// A vector space model turns a bag of tokens into a sparse vector: one dimension
// per distinct token seen while fitting, weighted by how informative that token
// is across the corpus.
//
// Example: Given these tokenized documents:
//   Doc 0: ["buenos", "dias"]
//   Doc 1: ["buenos", "tardes"]
//
// The vocabulary assigns ids in first-seen order:
//   "buenos" → 0   df=2   weight=log2(2/2)=0
//   "dias"   → 1   df=1   weight=log2(2/1)=1
//   "tardes" → 2   df=1   weight=log2(2/1)=1
//
// and the vector of ["buenos", "dias", "dias"] is
//   tf = {0: 1/3, 1: 2/3} → tf*weight = {0: 0, 1: 2/3} → L2 → {0: 0, 1: 1}
//
// ═══════════════════════════════════════════════════════════════════════════════

package textmodel

import (
	"log/slog"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring"
)

// TermWeight is one component of a sparse vector.
type TermWeight struct {
	ID     int     `json:"id"`
	Weight float64 `json:"weight"`
}

// Vector is a sparse document vector with unique ids in ascending order.
type Vector []TermWeight

// Norm returns the Euclidean norm of v.
func (v Vector) Norm() float64 {
	var sum float64
	for _, tw := range v {
		sum += tw.Weight * tw.Weight
	}
	return math.Sqrt(sum)
}

// Dot returns the inner product of v with a dense weight vector. Ids outside w
// contribute nothing.
func (v Vector) Dot(w []float64) float64 {
	var sum float64
	for _, tw := range v {
		if tw.ID < len(w) {
			sum += tw.Weight * w[tw.ID]
		}
	}
	return sum
}

// ═══════════════════════════════════════════════════════════════════════════════
// CORE DATA STRUCTURE: VectorSpace
// ═══════════════════════════════════════════════════════════════════════════════
// Architecture:
//
//	VectorSpace
//	├── vocabulary: map[string]int        token → id
//	├── tokens:     []string              id → token
//	├── weights:    []float64             id → term weight
//	└── docs:       []*roaring.Bitmap     id → documents containing the token
//
// Document frequency is the cardinality of a term's document bitmap. The bitmaps
// are kept after fitting because entropy pruning intersects them with the
// per-class document sets.
// ═══════════════════════════════════════════════════════════════════════════════
type VectorSpace struct {
	Weighting Weighting

	vocabulary map[string]int
	tokens     []string
	weights    []float64
	docs       []*roaring.Bitmap
	numDocs    int
}

// NewVectorSpace creates an empty vector space using the given weighting.
func NewVectorSpace(weighting Weighting) *VectorSpace {
	return &VectorSpace{
		Weighting:  weighting,
		vocabulary: make(map[string]int),
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// FITTING
// ═══════════════════════════════════════════════════════════════════════════════

// Fit builds the vocabulary and the term weights from a tokenized corpus.
//
// STEP-BY-STEP:
// -------------
//  1. Every unseen token gets the next id
//  2. The document's bit is set in the token's bitmap (once per document,
//     however often the token repeats)
//  3. After the pass, weight = log2(N/df) for tfidf, 1 for tf
//
// Fitting again discards the previous vocabulary.
func (vs *VectorSpace) Fit(corpus [][]string) {
	slog.Debug("fitting vector space", slog.Int("documents", len(corpus)))

	vs.vocabulary = make(map[string]int)
	vs.tokens = vs.tokens[:0]
	vs.docs = vs.docs[:0]
	vs.numDocs = len(corpus)

	for docID, tokens := range corpus {
		for _, token := range tokens {
			id, ok := vs.vocabulary[token]
			if !ok {
				id = len(vs.tokens)
				vs.vocabulary[token] = id
				vs.tokens = append(vs.tokens, token)
				vs.docs = append(vs.docs, roaring.NewBitmap())
			}
			vs.docs[id].Add(uint32(docID))
		}
	}

	vs.weights = make([]float64, len(vs.tokens))
	for id, bm := range vs.docs {
		vs.weights[id] = vs.termWeight(bm.GetCardinality())
	}
}

func (vs *VectorSpace) termWeight(df uint64) float64 {
	if vs.Weighting == WeightingTF || df == 0 {
		return 1
	}
	return math.Log2(float64(vs.numDocs) / float64(df))
}

// NumTerms returns the vocabulary size.
func (vs *VectorSpace) NumTerms() int { return len(vs.tokens) }

// NumDocs returns the number of documents the space was fitted on.
func (vs *VectorSpace) NumDocs() int { return vs.numDocs }

// ID returns the id of token.
func (vs *VectorSpace) ID(token string) (int, bool) {
	id, ok := vs.vocabulary[token]
	return id, ok
}

// Token returns the token with the given id.
func (vs *VectorSpace) Token(id int) (string, bool) {
	if id < 0 || id >= len(vs.tokens) {
		return "", false
	}
	return vs.tokens[id], true
}

// Weight returns the term weight of id.
func (vs *VectorSpace) Weight(id int) float64 {
	if id < 0 || id >= len(vs.weights) {
		return 0
	}
	return vs.weights[id]
}

// DocFreq returns the number of fitted documents containing id.
func (vs *VectorSpace) DocFreq(id int) int {
	if id < 0 || id >= len(vs.docs) {
		return 0
	}
	return int(vs.docs[id].GetCardinality())
}

// ═══════════════════════════════════════════════════════════════════════════════
// TRANSFORM
// ═══════════════════════════════════════════════════════════════════════════════

// Doc2Weight maps tokens onto the vocabulary. Unknown tokens are dropped. For
// every distinct known id (ascending) it returns the term frequency relative
// to the number of known tokens and the stored weight, zero weights included.
//
// Example:
//
//	ids, tf, w := vs.Doc2Weight([]string{"dias", "dias", "unknown", "buenos"})
//	// ids = [0, 1], tf = [1/3, 2/3], w = [weight(0), weight(1)]
func (vs *VectorSpace) Doc2Weight(tokens []string) (ids []int, tf []float64, weight []float64) {
	counts := make(map[int]int, len(tokens))
	total := 0
	for _, token := range tokens {
		if id, ok := vs.vocabulary[token]; ok {
			counts[id]++
			total++
		}
	}
	if total == 0 {
		return nil, nil, nil
	}

	ids = make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	tf = make([]float64, len(ids))
	weight = make([]float64, len(ids))
	for i, id := range ids {
		tf[i] = float64(counts[id]) / float64(total)
		weight[i] = vs.weights[id]
	}
	return ids, tf, weight
}

// Vector returns the L2-normalized tf*weight vector of tokens.
//
// Unlike Doc2Weight, Vector omits zero-weight components: a term found in
// every fitted document (idf 0) gets no (id, 0) entry, so every entry of the
// result is non-zero. A document without known tokens, or whose components
// are all zero, maps to the empty vector.
func (vs *VectorSpace) Vector(tokens []string) Vector {
	ids, tf, weight := vs.Doc2Weight(tokens)

	vec := make(Vector, 0, len(ids))
	for i, id := range ids {
		if w := tf[i] * weight[i]; w != 0 {
			vec = append(vec, TermWeight{ID: id, Weight: w})
		}
	}

	norm := vec.Norm()
	if norm == 0 || math.IsNaN(norm) {
		return Vector{}
	}
	for i := range vec {
		vec[i].Weight /= norm
	}
	return vec
}

// ═══════════════════════════════════════════════════════════════════════════════
// PRUNING
// ═══════════════════════════════════════════════════════════════════════════════

// retain keeps the ids for which keep returns true and compacts the survivors
// into [0, n) preserving their relative order. It returns the number of removed
// ids.
func (vs *VectorSpace) retain(keep func(id int) bool) int {
	n := 0
	for id, token := range vs.tokens {
		if !keep(id) {
			delete(vs.vocabulary, token)
			continue
		}
		vs.tokens[n] = token
		vs.weights[n] = vs.weights[id]
		vs.docs[n] = vs.docs[id]
		vs.vocabulary[token] = n
		n++
	}

	removed := len(vs.tokens) - n
	clear(vs.tokens[n:])
	clear(vs.docs[n:])
	vs.tokens = vs.tokens[:n]
	vs.weights = vs.weights[:n]
	vs.docs = vs.docs[:n]
	return removed
}
