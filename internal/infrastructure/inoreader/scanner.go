// Package inoreader scrapes the article listing of a web-based feed reader.
// The reader is an opaque article source to the pipeline: an ordered list of
// {title, url, summary, source, date} records.
package inoreader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/clindevdep/RSS/internal/domain"
	"github.com/clindevdep/RSS/internal/ports"
)

const defaultPageSize = 100

// Scanner crawls the reader's list pages and extracts article records.
type Scanner struct {
	client   *http.Client
	listURL  string
	cookie   string
	pageSize int
}

var _ ports.ArticleSource = (*Scanner)(nil)

// NewScanner wires an HTTP client; pageSize defaults to 100 entries.
func NewScanner(client *http.Client, listURL, cookie string) *Scanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Scanner{
		client:   client,
		listURL:  listURL,
		cookie:   cookie,
		pageSize: defaultPageSize,
	}
}

// Fetch walks list pages until limit articles are collected or the listing
// is exhausted. It may return fewer than limit.
func (s *Scanner) Fetch(ctx context.Context, limit int) ([]domain.Article, error) {
	if s.listURL == "" {
		return nil, fmt.Errorf("no list URL configured")
	}

	results := make([]domain.Article, 0, limit)
	skip := 0
	for len(results) < limit {
		pageURL, err := buildPageURL(s.listURL, skip, s.pageSize)
		if err != nil {
			return nil, err
		}

		doc, err := s.fetchDocument(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		pageArticles := extractArticles(doc)
		results = append(results, pageArticles...)

		if len(pageArticles) < s.pageSize {
			break
		}
		skip += s.pageSize
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *Scanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "rssdigest/1.0")
	if s.cookie != "" {
		req.Header.Set("Cookie", s.cookie)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reader returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}
	return doc, nil
}

func extractArticles(doc *goquery.Document) []domain.Article {
	var collected []domain.Article
	doc.Find(".article_item, article.item").Each(func(i int, entry *goquery.Selection) {
		article, ok := parseEntry(entry)
		if !ok {
			return
		}
		collected = append(collected, article)
	})
	return collected
}

// parseEntry extracts one article record from a listing entry. Entries
// without a link are unusable downstream (no identifier to fingerprint)
// and are skipped here.
func parseEntry(entry *goquery.Selection) (domain.Article, bool) {
	link := entry.Find("a.article_title_link, .title a").First()
	href, _ := link.Attr("href")
	href = strings.TrimSpace(href)
	if href == "" {
		return domain.Article{}, false
	}

	title := strings.TrimSpace(link.Text())
	if title == "" {
		title = strings.TrimSpace(entry.Find(".article_title, .title").First().Text())
	}

	summary := strings.TrimSpace(entry.Find(".article_content, .summary").First().Text())
	source := strings.TrimSpace(entry.Find(".article_feed_title, .feed").First().Text())

	publishedAt := time.Time{}
	if stamp := strings.TrimSpace(entry.Find(".article_date, time").First().AttrOr("datetime", "")); stamp != "" {
		if parsed, err := time.Parse(time.RFC3339, stamp); err == nil {
			publishedAt = parsed
		}
	}

	return domain.Article{
		Title:       title,
		URL:         href,
		Summary:     summary,
		Source:      source,
		PublishedAt: publishedAt,
	}, true
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid list url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
