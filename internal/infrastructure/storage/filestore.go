package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/clindevdep/RSS/internal/domain"
	"github.com/clindevdep/RSS/internal/fingerprint"
	"github.com/clindevdep/RSS/internal/ports"
)

// FileStore is the flat-file duplicate tracker: the same contract as the
// Postgres backend, backed by a single JSON state file. It exists as a
// compatibility path for running without a database.
type FileStore struct {
	path   string
	engine *fingerprint.Engine
	now    func() time.Time

	mu      sync.Mutex
	records []fileRecord
}

type fileRecord struct {
	Fingerprint  string    `json:"fingerprint"`
	Kind         string    `json:"kind"`
	ArticleURL   string    `json:"article_url"`
	SentAt       time.Time `json:"sent_at"`
	NewsletterID string    `json:"newsletter_id,omitempty"`
}

type fileState struct {
	Records []fileRecord `json:"records"`
}

var _ ports.SentStore = (*FileStore)(nil)
var _ ports.NewsletterStore = (*FileStore)(nil)

// OpenFileStore loads (or initializes) the JSON state at path.
func OpenFileStore(path string, engine *fingerprint.Engine) (*FileStore, error) {
	store := &FileStore{path: path, engine: engine, now: time.Now}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var state fileState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", path, err)
	}
	store.records = state.Records
	return store, nil
}

// IsDuplicate reports whether any fingerprint of the article is tracked.
func (s *FileStore) IsDuplicate(_ context.Context, article domain.Article) (bool, error) {
	values := fingerprint.Values(s.engine.Fingerprints(article))

	s.mu.Lock()
	defer s.mu.Unlock()
	known := s.knownLocked()
	for _, value := range values {
		if known[value] {
			return true, nil
		}
	}
	return false, nil
}

// FilterNew partitions a batch against the tracked state, filtering
// batch-internal repeats as well.
func (s *FileStore) FilterNew(_ context.Context, articles []domain.Article) ([]domain.Article, []domain.Article, error) {
	perArticle := make([][]string, len(articles))
	for i, article := range articles {
		perArticle[i] = fingerprint.Values(s.engine.Fingerprints(article))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fresh, duplicates := partitionBatch(articles, perArticle, s.knownLocked())
	return fresh, duplicates, nil
}

// RecordSent appends one record per fingerprint and replaces the state file
// atomically; a failed write leaves the previous state intact.
func (s *FileStore) RecordSent(_ context.Context, articles []domain.Article, newsletterID string) error {
	if len(articles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sentAt := s.now().UTC()
	appended := make([]fileRecord, 0, len(articles)*2)
	for _, article := range articles {
		for _, print := range s.engine.Fingerprints(article) {
			appended = append(appended, fileRecord{
				Fingerprint:  print.Value,
				Kind:         print.Kind,
				ArticleURL:   article.URL,
				SentAt:       sentAt,
				NewsletterID: newsletterID,
			})
		}
	}

	next := append(append([]fileRecord{}, s.records...), appended...)
	if err := s.writeLocked(next); err != nil {
		return err
	}
	s.records = next
	return nil
}

// Stats returns an observability snapshot of the tracked state.
func (s *FileStore) Stats(_ context.Context) (domain.TrackerStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := domain.TrackerStats{}
	urls := map[string]bool{}
	for _, record := range s.records {
		urls[record.ArticleURL] = true
		if stats.OldestRecord.IsZero() || record.SentAt.Before(stats.OldestRecord) {
			stats.OldestRecord = record.SentAt
		}
		if record.SentAt.After(stats.NewestRecord) {
			stats.NewestRecord = record.SentAt
		}
	}
	stats.TotalTracked = len(urls)
	return stats, nil
}

// Cleanup removes records older than the retention horizon. The state file
// is rewritten before memory is updated, so a failed write drops nothing.
func (s *FileStore) Cleanup(_ context.Context, daysToKeep int) (int, error) {
	if daysToKeep <= 0 {
		return 0, fmt.Errorf("retention horizon must be positive, got %d", daysToKeep)
	}
	cutoff := s.now().UTC().AddDate(0, 0, -daysToKeep)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]fileRecord, 0, len(s.records))
	removed := map[string]bool{}
	for _, record := range s.records {
		if record.SentAt.Before(cutoff) {
			removed[record.ArticleURL] = true
			continue
		}
		kept = append(kept, record)
	}
	if len(removed) == 0 {
		return 0, nil
	}

	if err := s.writeLocked(kept); err != nil {
		return 0, err
	}
	s.records = kept
	return len(removed), nil
}

// SaveNewsletter writes the newsletter as a JSON document next to the
// state file, one file per run.
func (s *FileStore) SaveNewsletter(_ context.Context, newsletter domain.Newsletter) error {
	raw, err := json.MarshalIndent(newsletter, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal newsletter: %w", err)
	}

	dir := filepath.Join(filepath.Dir(s.path), "newsletters")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create newsletter dir: %w", err)
	}

	name := fmt.Sprintf("newsletter_%s.json", newsletter.Date.UTC().Format("20060102_150405"))
	if err := os.WriteFile(filepath.Join(dir, name), raw, 0o644); err != nil {
		return fmt.Errorf("write newsletter: %w", err)
	}
	return nil
}

func (s *FileStore) knownLocked() map[string]bool {
	known := make(map[string]bool, len(s.records))
	for _, record := range s.records {
		known[record.Fingerprint] = true
	}
	return known
}

func (s *FileStore) writeLocked(records []fileRecord) error {
	raw, err := json.MarshalIndent(fileState{Records: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sent-state-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
