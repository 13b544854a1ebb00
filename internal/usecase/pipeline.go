// Package usecase contains the curation pipeline: one run turns the raw
// article pool into a scored, de-duplicated, selected, delivered, and
// recorded digest.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/clindevdep/RSS/internal/domain"
	"github.com/clindevdep/RSS/internal/ports"
	"github.com/clindevdep/RSS/internal/scoring"
	"github.com/clindevdep/RSS/internal/selection"
)

// PipelineDeps wires all collaborators into the curation pipeline.
type PipelineDeps struct {
	Source      ports.ArticleSource
	Tracker     ports.SentStore
	Newsletters ports.NewsletterStore
	Scorer      *scoring.Scorer
	Renderer    ports.Renderer
	Sender      ports.Sender
	Logger      *slog.Logger

	Settings        domain.GenerationSettings
	FetchLimit      int
	ActiveHourStart int
	ActiveHourEnd   int
}

// Pipeline implements the digest curation workflow. Data flows strictly
// downward: raw articles, scored articles, de-duplicated articles, selected
// articles, recorded-as-sent. Durable state changes only after a confirmed
// send.
type Pipeline struct {
	source      ports.ArticleSource
	tracker     ports.SentStore
	newsletters ports.NewsletterStore
	scorer      *scoring.Scorer
	renderer    ports.Renderer
	sender      ports.Sender
	logger      *slog.Logger

	settings        domain.GenerationSettings
	fetchLimit      int
	activeHourStart int
	activeHourEnd   int

	newID func() string
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fetchLimit := deps.FetchLimit
	if fetchLimit <= 0 {
		fetchLimit = 200
	}
	return &Pipeline{
		source:          deps.Source,
		tracker:         deps.Tracker,
		newsletters:     deps.Newsletters,
		scorer:          deps.Scorer,
		renderer:        deps.Renderer,
		sender:          deps.Sender,
		logger:          logger,
		settings:        deps.Settings,
		fetchLimit:      fetchLimit,
		activeHourStart: deps.ActiveHourStart,
		activeHourEnd:   deps.ActiveHourEnd,
		newID:           func() string { return uuid.NewString() },
	}
}

// Run executes one curation pass. The returned report always describes how
// far the run got; err is non-nil only for failures, never for the normal
// "nothing new to send" outcome.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (domain.RunReport, error) {
	report := domain.RunReport{Outcome: domain.OutcomeNothingNew}

	if !p.withinActiveHours(now) {
		p.logger.Info("outside active hours, run suppressed",
			"hour", now.Hour(), "window_start", p.activeHourStart, "window_end", p.activeHourEnd)
		report.Outcome = domain.OutcomeSkipped
		return report, nil
	}

	if stats, err := p.tracker.Stats(ctx); err != nil {
		p.logger.Warn("tracker stats unavailable", "error", err)
	} else {
		p.logger.Info("tracker state",
			"total_tracked", stats.TotalTracked,
			"oldest", stats.OldestRecord, "newest", stats.NewestRecord)
	}

	articles, err := p.source.Fetch(ctx, p.fetchLimit)
	if err != nil {
		return report, fmt.Errorf("fetch articles: %w", err)
	}
	report.Fetched = len(articles)
	if len(articles) == 0 {
		p.logger.Info("no articles fetched, nothing to curate")
		return report, nil
	}

	pool, err := p.scoreAndFilter(articles, &report)
	if err != nil {
		return report, err
	}
	if len(pool) == 0 {
		p.logger.Info("no articles passed scoring filter",
			"fetched", report.Fetched, "below_cutoff", report.BelowCutoff)
		return report, nil
	}

	fresh, err := p.dedupe(ctx, pool, &report)
	if err != nil {
		return report, err
	}
	if len(fresh) == 0 {
		p.logger.Info("all scored articles are duplicates, nothing new to send",
			"duplicates", report.Duplicates)
		return report, nil
	}

	priority, surprise := selection.Select(fresh, selection.Options{
		Budget:        p.settings.ArticlesPerRun,
		PriorityRatio: p.settings.PriorityRatio,
		MinScore:      p.settings.MinScoreThreshold,
	})
	report.Priority = len(priority)
	report.Surprise = len(surprise)
	if len(priority)+len(surprise) == 0 {
		p.logger.Info("selection produced no articles")
		return report, nil
	}
	p.logger.Info("selected digest articles",
		"priority", len(priority), "surprise", len(surprise))

	doc, err := p.renderer.Render(priority, surprise, now)
	if err != nil {
		return report, fmt.Errorf("render digest: %w", err)
	}

	if err := p.sender.Send(ctx, doc); err != nil {
		return report, fmt.Errorf("send digest: %w", err)
	}
	report.Outcome = domain.OutcomeSent

	if err := p.record(ctx, now, doc, priority, surprise); err != nil {
		// The digest went out but its inclusion was not recorded; these
		// articles may be re-sent on the next run. Loud failure so the
		// operator sees the inconsistency.
		return report, err
	}

	p.maybeCleanup(ctx, now, &report)
	return report, nil
}

func (p *Pipeline) withinActiveHours(now time.Time) bool {
	if p.activeHourStart == 0 && p.activeHourEnd == 0 {
		return true
	}
	hour := now.Hour()
	return hour >= p.activeHourStart && hour < p.activeHourEnd
}

// scoreAndFilter scores the batch, isolating per-article failures, and
// drops anything below the score threshold.
func (p *Pipeline) scoreAndFilter(articles []domain.Article, report *domain.RunReport) ([]domain.ScoredArticle, error) {
	results := p.scorer.ScoreBatch(articles)

	pool := make([]domain.ScoredArticle, 0, len(results))
	for _, result := range results {
		if result.Err != nil {
			report.ScoreFailures++
			p.logger.Warn("article rejected by scorer", "error", result.Err)
			continue
		}
		report.Scored++
		if result.Scored.Score < p.settings.MinScoreThreshold {
			report.BelowCutoff++
			continue
		}
		pool = append(pool, result.Scored)
	}

	if report.Scored == 0 && report.ScoreFailures > 0 {
		return nil, fmt.Errorf("scoring failed for all %d articles", report.ScoreFailures)
	}
	return pool, nil
}

// dedupe filters already-sent articles out of the scored pool, preserving
// order. A tracker failure aborts the batch: silently admitting possible
// duplicates would degrade every future digest.
func (p *Pipeline) dedupe(ctx context.Context, pool []domain.ScoredArticle, report *domain.RunReport) ([]domain.ScoredArticle, error) {
	articles := make([]domain.Article, len(pool))
	for i, scored := range pool {
		articles[i] = scored.Article
	}

	fresh, duplicates, err := p.tracker.FilterNew(ctx, articles)
	if err != nil {
		return nil, fmt.Errorf("filter duplicates: %w", err)
	}
	report.Duplicates = len(duplicates)

	kept := make([]domain.ScoredArticle, 0, len(fresh))
	next := 0
	for _, scored := range pool {
		if next < len(fresh) && scored.Article == fresh[next] {
			kept = append(kept, scored)
			next++
		}
	}
	return kept, nil
}

// record persists the sent batch and the newsletter, in that order, only
// after delivery succeeded.
func (p *Pipeline) record(ctx context.Context, now time.Time, doc domain.Document, priority, surprise []domain.ScoredArticle) error {
	newsletterID := p.newID()

	final := make([]domain.Article, 0, len(priority)+len(surprise))
	for _, scored := range priority {
		final = append(final, scored.Article)
	}
	for _, scored := range surprise {
		final = append(final, scored.Article)
	}

	if err := p.tracker.RecordSent(ctx, final, newsletterID); err != nil {
		return fmt.Errorf("record sent articles: %w", err)
	}

	newsletter := domain.Newsletter{
		ID:           newsletterID,
		Date:         now,
		Content:      doc.HTML,
		ArticleURLs:  urlsOf(priority),
		SurpriseURLs: urlsOf(surprise),
		Settings:     p.settings,
	}
	if err := p.newsletters.SaveNewsletter(ctx, newsletter); err != nil {
		return fmt.Errorf("save newsletter: %w", err)
	}
	return nil
}

// maybeCleanup prunes expired tracker records on the first run of the
// active window. A pruning failure is reported but never fails a run that
// already delivered.
func (p *Pipeline) maybeCleanup(ctx context.Context, now time.Time, report *domain.RunReport) {
	if now.Hour() != p.activeHourStart {
		return
	}
	removed, err := p.tracker.Cleanup(ctx, p.settings.RetentionDays)
	if err != nil {
		p.logger.Error("tracker cleanup failed", "error", err)
		return
	}
	report.CleanedUp = removed
	if removed > 0 {
		p.logger.Info("cleaned up expired records",
			"removed", removed, "retention_days", p.settings.RetentionDays)
	}
}

func urlsOf(articles []domain.ScoredArticle) []string {
	urls := make([]string, 0, len(articles))
	for _, scored := range articles {
		urls = append(urls, scored.Article.URL)
	}
	return urls
}
