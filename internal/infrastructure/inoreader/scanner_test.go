package inoreader

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func listingHTML(entries ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><div class=\"articles\">")
	for _, entry := range entries {
		b.WriteString(entry)
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

func entryHTML(n int) string {
	return fmt.Sprintf(`<div class="article_item">
		<a class="article_title_link" href="https://example.org/story/%d">Story %d</a>
		<div class="article_content">Summary for story %d.</div>
		<div class="article_feed_title">Example Feed</div>
		<span class="article_date" datetime="2026-08-30T09:15:00Z"></span>
	</div>`, n, n, n)
}

func TestFetchParsesListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingHTML(entryHTML(1), entryHTML(2)))
	}))
	defer server.Close()

	scanner := NewScanner(server.Client(), server.URL, "")
	articles, err := scanner.Fetch(context.Background(), 10)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}

	first := articles[0]
	if first.Title != "Story 1" {
		t.Errorf("title = %q", first.Title)
	}
	if first.URL != "https://example.org/story/1" {
		t.Errorf("url = %q", first.URL)
	}
	if first.Summary != "Summary for story 1." {
		t.Errorf("summary = %q", first.Summary)
	}
	if first.Source != "Example Feed" {
		t.Errorf("source = %q", first.Source)
	}
	want := time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(want) {
		t.Errorf("publishedAt = %v, want %v", first.PublishedAt, want)
	}
}

func TestFetchPaginatesUntilLimit(t *testing.T) {
	var requestedSkips []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		requestedSkips = append(requestedSkips, skip)

		entries := make([]string, 0, 2)
		for i := 0; i < 2; i++ {
			entries = append(entries, entryHTML(skip+i))
		}
		fmt.Fprint(w, listingHTML(entries...))
	}))
	defer server.Close()

	scanner := NewScanner(server.Client(), server.URL, "")
	scanner.pageSize = 2

	articles, err := scanner.Fetch(context.Background(), 5)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(articles) != 5 {
		t.Fatalf("expected limit-truncated 5 articles, got %d", len(articles))
	}
	if len(requestedSkips) != 3 {
		t.Fatalf("expected 3 page requests, got %d (%v)", len(requestedSkips), requestedSkips)
	}
	for i, skip := range requestedSkips {
		if skip != i*2 {
			t.Errorf("request %d skip = %d, want %d", i, skip, i*2)
		}
	}
	if articles[4].URL != "https://example.org/story/4" {
		t.Errorf("last article url = %q", articles[4].URL)
	}
}

func TestFetchStopsOnShortPage(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, listingHTML(entryHTML(1)))
	}))
	defer server.Close()

	scanner := NewScanner(server.Client(), server.URL, "")
	scanner.pageSize = 2

	articles, err := scanner.Fetch(context.Background(), 10)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if requests != 1 {
		t.Errorf("expected a single request for an exhausted listing, got %d", requests)
	}
}

func TestFetchSendsCookie(t *testing.T) {
	var gotCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		fmt.Fprint(w, listingHTML())
	}))
	defer server.Close()

	scanner := NewScanner(server.Client(), server.URL, "session=abc123")
	if _, err := scanner.Fetch(context.Background(), 10); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotCookie != "session=abc123" {
		t.Errorf("cookie header = %q", gotCookie)
	}
}

func TestFetchSkipsEntriesWithoutLink(t *testing.T) {
	broken := `<div class="article_item">
		<span class="article_title">No link here</span>
		<div class="article_content">Orphaned entry.</div>
	</div>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingHTML(broken, entryHTML(7)))
	}))
	defer server.Close()

	scanner := NewScanner(server.Client(), server.URL, "")
	articles, err := scanner.Fetch(context.Background(), 10)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected the linkless entry skipped, got %d articles", len(articles))
	}
	if articles[0].URL != "https://example.org/story/7" {
		t.Errorf("url = %q", articles[0].URL)
	}
}

func TestFetchErrorOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session expired", http.StatusForbidden)
	}))
	defer server.Close()

	scanner := NewScanner(server.Client(), server.URL, "")
	if _, err := scanner.Fetch(context.Background(), 10); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestFetchRequiresListURL(t *testing.T) {
	scanner := NewScanner(nil, "", "")
	if _, err := scanner.Fetch(context.Background(), 10); err == nil {
		t.Fatal("expected error when no list URL is configured")
	}
}
