// Package render formats the selected article sets into the deliverable
// digest document, with HTML and plain-text alternatives.
package render

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/clindevdep/RSS/internal/domain"
	"github.com/clindevdep/RSS/internal/ports"
)

// Renderer produces the digest document from the selected sets.
type Renderer struct {
	html *template.Template
}

var _ ports.Renderer = (*Renderer)(nil)

// NewRenderer parses the built-in templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("digest").Parse(htmlTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse digest template: %w", err)
	}
	return &Renderer{html: tmpl}, nil
}

type digestView struct {
	Date         string
	Total        int
	AverageScore float64
	Priority     []articleView
	Surprise     []articleView
}

type articleView struct {
	Index   int
	Title   string
	URL     string
	Source  string
	Score   float64
	Summary string
}

// Render builds the digest document. The sets arrive presentation-sorted
// from selection and are emitted in order.
func (r *Renderer) Render(priority, surprise []domain.ScoredArticle, now time.Time) (domain.Document, error) {
	view := digestView{
		Date:         now.Format("Monday, January 2, 2006 15:04"),
		Total:        len(priority) + len(surprise),
		AverageScore: averageScore(priority, surprise),
		Priority:     toViews(priority, 1),
		Surprise:     toViews(surprise, len(priority)+1),
	}

	var html strings.Builder
	if err := r.html.Execute(&html, view); err != nil {
		return domain.Document{}, fmt.Errorf("render html digest: %w", err)
	}

	return domain.Document{
		Subject: fmt.Sprintf("Daily Digest - %d articles (%s)", view.Total, now.Format("2006-01-02 15:04")),
		HTML:    html.String(),
		Text:    renderText(view),
	}, nil
}

func toViews(articles []domain.ScoredArticle, startIndex int) []articleView {
	views := make([]articleView, 0, len(articles))
	for i, scored := range articles {
		views = append(views, articleView{
			Index:   startIndex + i,
			Title:   scored.Article.Title,
			URL:     scored.Article.URL,
			Source:  scored.Article.Source,
			Score:   scored.Score,
			Summary: clip(scored.Article.Text(), 400),
		})
	}
	return views
}

func renderText(view digestView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily Digest - %s\n", view.Date)
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("=", 50))
	fmt.Fprintf(&b, "Total: %d articles | Average score: %.1f\n", view.Total, view.AverageScore)

	writeSection := func(name string, articles []articleView) {
		if len(articles) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", name)
		for _, a := range articles {
			fmt.Fprintf(&b, "\n%d. %s\n", a.Index, a.Title)
			fmt.Fprintf(&b, "   Source: %s | Score: %.1f/100\n", orUnknown(a.Source), a.Score)
			fmt.Fprintf(&b, "   %s\n", a.URL)
			if a.Summary != "" {
				fmt.Fprintf(&b, "   %s\n", clip(a.Summary, 200))
			}
		}
	}
	writeSection("PRIORITY ARTICLES", view.Priority)
	writeSection("SURPRISE ARTICLES", view.Surprise)
	return b.String()
}

func averageScore(priority, surprise []domain.ScoredArticle) float64 {
	total := len(priority) + len(surprise)
	if total == 0 {
		return 0
	}
	sum := 0.0
	for _, a := range priority {
		sum += a.Score
	}
	for _, a := range surprise {
		sum += a.Score
	}
	return sum / float64(total)
}

func orUnknown(source string) string {
	if source == "" {
		return "Unknown"
	}
	return source
}

func clip(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Daily Digest - {{.Date}}</title>
<style>
body { font-family: 'Segoe UI', Tahoma, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 20px; background-color: #f8f9fa; }
.header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; border-radius: 10px; text-align: center; margin-bottom: 30px; }
.stats { background: white; padding: 20px; border-radius: 8px; margin-bottom: 25px; border-left: 4px solid #667eea; }
.section { background: white; margin-bottom: 30px; border-radius: 8px; overflow: hidden; }
.section-header { padding: 20px; font-size: 1.4em; font-weight: 600; color: white; }
.priority-header { background: linear-gradient(90deg, #ff6b6b, #ee5a24); }
.surprise-header { background: linear-gradient(90deg, #5f27cd, #341f97); }
.article { padding: 20px; border-bottom: 1px solid #f0f0f0; }
.article-title a { color: #333; text-decoration: none; font-weight: 500; }
.article-meta { font-size: 0.9em; color: #666; margin-bottom: 12px; }
.score { background: #d4edda; color: #155724; padding: 2px 8px; border-radius: 12px; font-weight: bold; }
.footer { text-align: center; margin-top: 40px; padding: 20px; color: #666; font-size: 0.9em; }
</style>
</head>
<body>
<div class="header">
<h1>Daily Digest</h1>
<div class="meta">{{.Date}}</div>
</div>
<div class="stats">
Total: <strong>{{.Total}}</strong> articles |
Priority: <strong>{{len .Priority}}</strong> |
Surprise: <strong>{{len .Surprise}}</strong> |
Average score: <strong>{{printf "%.1f" .AverageScore}}</strong>
</div>
{{if .Priority}}
<div class="section">
<div class="section-header priority-header">Priority Articles ({{len .Priority}})</div>
{{range .Priority}}
<div class="article">
<div class="article-title"><strong>{{.Index}}.</strong> <a href="{{.URL}}">{{.Title}}</a></div>
<div class="article-meta">Source: {{if .Source}}{{.Source}}{{else}}Unknown{{end}} |
Score: <span class="score">{{printf "%.1f" .Score}}/100</span></div>
<div class="article-content">{{.Summary}}</div>
</div>
{{end}}
</div>
{{end}}
{{if .Surprise}}
<div class="section">
<div class="section-header surprise-header">Surprise Articles ({{len .Surprise}})</div>
{{range .Surprise}}
<div class="article">
<div class="article-title"><strong>{{.Index}}.</strong> <a href="{{.URL}}">{{.Title}}</a></div>
<div class="article-meta">Source: {{if .Source}}{{.Source}}{{else}}Unknown{{end}} |
Score: <span class="score">{{printf "%.1f" .Score}}/100</span></div>
<div class="article-content">{{.Summary}}</div>
</div>
{{end}}
</div>
{{end}}
<div class="footer">
Generated on {{.Date}} | Personalized topic scoring | Multi-fingerprint duplicate tracking
</div>
</body>
</html>
`
