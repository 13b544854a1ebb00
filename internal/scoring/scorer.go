// Package scoring evaluates articles against a fixed personalized topic
// model, producing per-topic relevance scores in [0, 100].
package scoring

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/clindevdep/RSS/internal/domain"
)

const (
	titleWeight   = 3.0
	contentWeight = 1.0
)

// Scorer is a pure function of its inputs plus a read-only topic model;
// it is safe for concurrent use.
type Scorer struct {
	model Model
}

// NewScorer builds a scorer over a validated topic model.
func NewScorer(model Model) (*Scorer, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}
	if model.Saturation <= 0 {
		model.Saturation = defaultSaturation
	}
	return &Scorer{model: model}, nil
}

// ModelVersion identifies the catalogue the scorer was built from.
func (s *Scorer) ModelVersion() string {
	return s.model.Version
}

// Score computes the relevance of an article to every topic in the catalogue.
// The mapping is total: topics with no matches are present with score 0.
// Empty content degrades to title-only scoring; an unknown source gets a
// neutral affinity multiplier.
func (s *Scorer) Score(title, content, source string) map[string]float64 {
	titleTokens := tokenize(title)
	contentTokens := tokenize(content)

	scores := make(map[string]float64, len(s.model.Topics))
	for _, topic := range s.model.Topics {
		raw := 0.0
		for phrase, weight := range topic.Keywords {
			phraseTokens := tokenize(phrase)
			raw += weight * titleWeight * float64(countOccurrences(titleTokens, phraseTokens))
			raw += weight * contentWeight * float64(countOccurrences(contentTokens, phraseTokens))
		}

		if affinity, ok := topic.Sources[source]; ok {
			raw *= affinity
		}

		scores[topic.Name] = saturate(raw, s.model.Saturation)
	}
	return scores
}

// Result is the per-article outcome of batch scoring. Failures are values,
// not exceptions: a malformed article carries its reason and is dropped
// from the scored set without aborting the batch.
type Result struct {
	Article domain.Article
	Scored  domain.ScoredArticle
	Err     error
}

// ScoreBatch scores every article, preserving input order. Articles without
// a resolvable URL or without any text to score fail individually.
func (s *Scorer) ScoreBatch(articles []domain.Article) []Result {
	results := make([]Result, 0, len(articles))
	for _, article := range articles {
		results = append(results, s.scoreOne(article))
	}
	return results
}

func (s *Scorer) scoreOne(article domain.Article) Result {
	if article.URL == "" {
		return Result{Article: article, Err: fmt.Errorf("article %q has no URL", article.Title)}
	}
	if article.Title == "" && article.Text() == "" {
		return Result{Article: article, Err: fmt.Errorf("article %s has no scorable text", article.URL)}
	}

	scores := s.Score(article.Title, article.Text(), article.Source)
	return Result{
		Article: article,
		Scored: domain.ScoredArticle{
			Article:     article,
			Score:       maxScore(scores),
			TopicScores: scores,
		},
	}
}

// maxScore defines overall relevance as the maximum across topics. This
// conflates "very relevant to one topic" with "broadly relevant" and is
// kept for ranking compatibility.
func maxScore(scores map[string]float64) float64 {
	best := 0.0
	for _, score := range scores {
		if score > best {
			best = score
		}
	}
	return best
}

// saturate maps a raw weighted match count into [0, 100) so that very long
// articles cannot trivially dominate the ranking.
func saturate(raw, saturation float64) float64 {
	if raw <= 0 {
		return 0
	}
	return 100 * raw / (raw + saturation)
}

// tokenize lowercases and splits on anything that is not a letter or digit,
// so keyword matching ignores punctuation and is word-bounded.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// countOccurrences counts non-overlapping appearances of phrase inside text,
// both given as token slices.
func countOccurrences(text, phrase []string) int {
	if len(phrase) == 0 || len(text) < len(phrase) {
		return 0
	}
	count := 0
	for i := 0; i+len(phrase) <= len(text); {
		if matchAt(text, phrase, i) {
			count++
			i += len(phrase)
			continue
		}
		i++
	}
	return count
}

func matchAt(text, phrase []string, at int) bool {
	for j, token := range phrase {
		if text[at+j] != token {
			return false
		}
	}
	return true
}
