package ports

import (
	"context"
	"time"

	"github.com/clindevdep/RSS/internal/domain"
)

// ArticleSource pulls a fresh pool of articles from the upstream reader.
// It may return fewer than limit; a wholesale failure aborts the run
// before any durable state is touched.
type ArticleSource interface {
	Fetch(ctx context.Context, limit int) ([]domain.Article, error)
}

// SentStore is the duplicate tracker: the persistent record of every
// article ever included in a digest. It is the only component with durable
// state and the exclusive owner of sent records.
//
// Persistence errors on the read path must fail the batch loudly: silently
// assuming "not a duplicate" risks re-sending already-delivered articles.
type SentStore interface {
	// IsDuplicate reports whether any of the article's fingerprints
	// matches an existing sent record.
	IsDuplicate(ctx context.Context, article domain.Article) (bool, error)

	// FilterNew partitions a batch into unseen and already-sent articles,
	// preserving order within each partition. Batch-internal duplicates
	// are filtered too, keeping only the first occurrence.
	FilterNew(ctx context.Context, articles []domain.Article) (fresh, duplicates []domain.Article, err error)

	// RecordSent inserts one sent record per article as a single atomic
	// batch; a partial failure must retain none of them.
	RecordSent(ctx context.Context, articles []domain.Article, newsletterID string) error

	// Stats is an observability snapshot; callers must not branch run
	// control flow on it beyond soft heuristics.
	Stats(ctx context.Context) (domain.TrackerStats, error)

	// Cleanup removes records older than the retention horizon and
	// returns how many were deleted. It never removes newer records,
	// even on partial failure.
	Cleanup(ctx context.Context, daysToKeep int) (int, error)
}

// NewsletterStore persists the immutable record of each successful run.
type NewsletterStore interface {
	SaveNewsletter(ctx context.Context, newsletter domain.Newsletter) error
}

// Renderer turns the selected sets into a deliverable document.
type Renderer interface {
	Render(priority, surprise []domain.ScoredArticle, now time.Time) (domain.Document, error)
}

// Sender delivers a rendered digest. Only a nil error counts as a
// confirmed send.
type Sender interface {
	Send(ctx context.Context, doc domain.Document) error
}

// Scheduler controls when curation runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
