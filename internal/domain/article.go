package domain

import "time"

// Article is a core entity describing an item fetched from the reader feed.
type Article struct {
	Title       string
	URL         string
	Content     string
	Summary     string
	Source      string
	PublishedAt time.Time
}

// Text returns the best available body text for scoring and fingerprinting.
func (a Article) Text() string {
	if a.Content != "" {
		return a.Content
	}
	return a.Summary
}

// ScoredArticle pairs an article with its per-topic relevance scores.
// Score is the maximum value in TopicScores; an article strongly relevant
// to a single topic ranks the same as one broadly relevant to many.
type ScoredArticle struct {
	Article     Article
	Score       float64
	TopicScores map[string]float64
}

// SentRecord is the durable proof that an article was delivered in a past
// digest. One record exists per fingerprint value; records are created only
// after a confirmed send and removed only by retention cleanup.
type SentRecord struct {
	Fingerprint  string
	Kind         string
	ArticleURL   string
	SentAt       time.Time
	NewsletterID string
}

// TrackerStats is an observability snapshot of the duplicate store.
type TrackerStats struct {
	TotalTracked int
	OldestRecord time.Time
	NewestRecord time.Time
}

// Newsletter is the immutable record of one successful digest run.
type Newsletter struct {
	ID           string             `json:"id"`
	Date         time.Time          `json:"date"`
	Content      string             `json:"content"`
	ArticleURLs  []string           `json:"article_urls"`
	SurpriseURLs []string           `json:"surprise_urls"`
	Settings     GenerationSettings `json:"generation_settings"`
}

// GenerationSettings snapshots the curation knobs used for a run, stored
// with the newsletter for auditability.
type GenerationSettings struct {
	MinScoreThreshold float64 `json:"min_score_threshold" yaml:"minScoreThreshold"`
	ArticlesPerRun    int     `json:"articles_per_run" yaml:"articlesPerRun"`
	PriorityRatio     float64 `json:"priority_ratio" yaml:"priorityRatio"`
	RetentionDays     int     `json:"retention_days" yaml:"retentionDays"`
}

// Document is a rendered digest ready for delivery.
type Document struct {
	Subject string
	HTML    string
	Text    string
}

// RunOutcome classifies how a curation run ended.
type RunOutcome string

const (
	// OutcomeSent means a digest was delivered and recorded.
	OutcomeSent RunOutcome = "sent"
	// OutcomeSkipped means the run was suppressed before touching any state.
	OutcomeSkipped RunOutcome = "skipped"
	// OutcomeNothingNew means the run completed but no new articles survived
	// scoring, deduplication, or selection; a normal outcome, not an error.
	OutcomeNothingNew RunOutcome = "nothing_new"
)

// RunReport summarizes one curation run for logging and reporting.
type RunReport struct {
	Outcome       RunOutcome
	Fetched       int
	Scored        int
	ScoreFailures int
	BelowCutoff   int
	Duplicates    int
	Priority      int
	Surprise      int
	CleanedUp     int
}
