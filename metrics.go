package textmodel

import (
	"sort"

	"github.com/samber/lo"
)

// Accuracy returns the fraction of predictions equal to the gold label.
func Accuracy(y, hy []string) float64 {
	if len(y) == 0 {
		return 0
	}
	hits := 0
	for i := range y {
		if i < len(hy) && y[i] == hy[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(y))
}

// MacroF1 returns the unweighted mean F1 over every class present in y or hy.
func MacroF1(y, hy []string) float64 {
	stats := classStats(y, hy)
	if len(stats) == 0 {
		return 0
	}
	var sum float64
	for _, s := range stats {
		sum += s.f1()
	}
	return sum / float64(len(stats))
}

// WeightedF1 returns the mean F1 weighted by each class's support in y.
func WeightedF1(y, hy []string) float64 {
	stats := classStats(y, hy)
	var sum, support float64
	for _, s := range stats {
		sum += s.f1() * float64(s.support)
		support += float64(s.support)
	}
	if support == 0 {
		return 0
	}
	return sum / support
}

type confusion struct {
	tp, fp, fn int
	support    int
}

func (c confusion) f1() float64 {
	if c.tp == 0 {
		return 0
	}
	precision := float64(c.tp) / float64(c.tp+c.fp)
	recall := float64(c.tp) / float64(c.tp+c.fn)
	return 2 * precision * recall / (precision + recall)
}

func classStats(y, hy []string) []confusion {
	classes := lo.Uniq(append(append([]string(nil), y...), hy...))
	sort.Strings(classes)
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}

	stats := make([]confusion, len(classes))
	for i, gold := range y {
		stats[index[gold]].support++
		if i >= len(hy) {
			stats[index[gold]].fn++
			continue
		}
		if pred := hy[i]; pred == gold {
			stats[index[gold]].tp++
		} else {
			stats[index[gold]].fn++
			stats[index[pred]].fp++
		}
	}
	return stats
}
