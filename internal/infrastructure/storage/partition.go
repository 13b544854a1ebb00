package storage

import "github.com/clindevdep/RSS/internal/domain"

// partitionBatch splits a batch into fresh and duplicate articles against a
// set of known fingerprints, preserving input order on both sides. An
// article matching on any fingerprint kind is a duplicate (OR of signals).
// Fingerprints of accepted articles join the known set as the batch is
// walked, so a second copy of the same article within one fetch is filtered
// as well, keeping only the first occurrence.
func partitionBatch(articles []domain.Article, perArticle [][]string, known map[string]bool) (fresh, duplicates []domain.Article) {
	seen := make(map[string]bool, len(known)+len(articles))
	for value := range known {
		seen[value] = true
	}

	for i, article := range articles {
		duplicate := false
		for _, value := range perArticle[i] {
			if seen[value] {
				duplicate = true
				break
			}
		}
		if duplicate {
			duplicates = append(duplicates, article)
			continue
		}
		for _, value := range perArticle[i] {
			seen[value] = true
		}
		fresh = append(fresh, article)
	}
	return fresh, duplicates
}
