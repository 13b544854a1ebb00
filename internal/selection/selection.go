// Package selection partitions a scored, de-duplicated article pool into
// priority picks and deliberately diversified surprise picks under a fixed
// budget and ratio.
package selection

import (
	"sort"

	"github.com/clindevdep/RSS/internal/domain"
)

// Options control one selection pass.
type Options struct {
	// Budget is the maximum total number of articles selected.
	Budget int
	// PriorityRatio in [0,1] is the share of the budget given to
	// top-ranked articles; the remainder goes to surprise picks.
	PriorityRatio float64
	// MinScore drops articles below this overall score before ranking.
	MinScore float64
}

// Select returns the priority and surprise sets for a pool. The sets are
// disjoint, their union is at most Budget, and both come back sorted by
// descending score. Ties keep original fetch order (stable sort), so an
// unchanged, identically-ordered pool always yields identical output.
func Select(pool []domain.ScoredArticle, opts Options) (priority, surprise []domain.ScoredArticle) {
	if opts.Budget <= 0 {
		return nil, nil
	}

	eligible := make([]domain.ScoredArticle, 0, len(pool))
	for _, article := range pool {
		if article.Score >= opts.MinScore {
			eligible = append(eligible, article)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Score > eligible[j].Score
	})

	priorityCount := int(float64(opts.Budget) * opts.PriorityRatio)
	if priorityCount > len(eligible) {
		priorityCount = len(eligible)
	}
	surpriseCount := opts.Budget - int(float64(opts.Budget)*opts.PriorityRatio)

	priority = eligible[:priorityCount]
	remaining := eligible[priorityCount:]
	surprise = pickSurprise(remaining, surpriseCount)

	sort.SliceStable(surprise, func(i, j int) bool {
		return surprise[i].Score > surprise[j].Score
	})
	return priority, surprise
}

// pickSurprise draws from the middle two quartiles of the remaining sorted
// pool, indices [len/4, 3*len/4): high enough to be plausibly interesting,
// low enough not to just be more priority articles. When the band is short
// the set is padded with the best remaining articles outside it. No
// randomness: the same input always yields the same picks.
func pickSurprise(remaining []domain.ScoredArticle, count int) []domain.ScoredArticle {
	if count <= 0 || len(remaining) == 0 {
		return nil
	}
	if len(remaining) <= count {
		return remaining
	}

	start := len(remaining) / 4
	end := 3 * len(remaining) / 4
	band := remaining[start:end]

	if len(band) >= count {
		return band[:count]
	}

	picked := make([]domain.ScoredArticle, 0, count)
	picked = append(picked, band...)
	taken := len(band)
	for i := 0; i < len(remaining) && len(picked) < count; i++ {
		if i >= start && i < start+taken {
			continue
		}
		picked = append(picked, remaining[i])
	}
	return picked
}
