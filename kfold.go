package textmodel

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// StratifiedKFold splits document indexes into k test folds that keep the class
// proportions of labels. The split depends only on labels, k and seed.
//
// ALGORITHM:
// ----------
//  1. Group indexes by class (classes in sorted order)
//  2. Shuffle every group with the seeded source
//  3. Deal the groups, one after another, round-robin over the folds
//
// Example (k=2):
//
//	labels = [a a a b b]  →  folds ≈ [[0 2 3], [1 4]]
func StratifiedKFold(labels []string, k int, seed uint64) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("%w: need at least 2 folds, got %d", ErrInvalidConfig, k)
	}
	if len(labels) < k {
		return nil, fmt.Errorf("%w: %d documents cannot fill %d folds", ErrInvalidConfig, len(labels), k)
	}

	groups := make(map[string][]int)
	for i, label := range labels {
		groups[label] = append(groups[label], i)
	}
	classes := make([]string, 0, len(groups))
	for class := range groups {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	rng := rand.New(rand.NewPCG(seed, uint64(k)))
	folds := make([][]int, k)
	next := 0
	for _, class := range classes {
		idx := groups[class]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for _, i := range idx {
			folds[next] = append(folds[next], i)
			next = (next + 1) % k
		}
	}

	for _, fold := range folds {
		sort.Ints(fold)
	}
	return folds, nil
}

// complement returns the indexes in [0, n) that are not in fold. fold must be
// sorted.
func complement(n int, fold []int) []int {
	out := make([]int, 0, n-len(fold))
	j := 0
	for i := range n {
		if j < len(fold) && fold[j] == i {
			j++
			continue
		}
		out = append(out, i)
	}
	return out
}
