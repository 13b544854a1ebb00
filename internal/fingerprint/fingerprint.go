// Package fingerprint derives stable identifiers for articles so that the
// same underlying item can be recognized across republications. A URL
// fingerprint survives content edits; a content fingerprint survives URL
// rewrites by feed aggregators. A match on either kind marks a duplicate.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"unicode"

	"github.com/clindevdep/RSS/internal/domain"
)

const (
	// KindURL identifies fingerprints derived from the canonicalized URL.
	KindURL = "url"
	// KindContent identifies fingerprints derived from title + lead text.
	KindContent = "content"

	leadRunes = 200
)

// trackingParams are query parameters added by aggregators and campaign
// links; two shares of the same article must not fingerprint differently
// because of them.
var trackingParams = map[string]bool{
	"fbclid":  true,
	"gclid":   true,
	"igshid":  true,
	"mc_cid":  true,
	"mc_eid":  true,
	"ref":     true,
	"ref_src": true,
}

// Fingerprint is one derived identifier for an article.
type Fingerprint struct {
	Kind  string
	Value string
}

// Engine computes fingerprints. It is stateless and safe for concurrent use.
type Engine struct{}

// NewEngine returns a fingerprint engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Fingerprints derives the identifiers for an article. It never fails:
// an empty URL omits the URL entry, and an article without body text omits
// the content entry so that body-less articles sharing a generic title do
// not collide on it. An article with neither yields an empty set and cannot
// be deduplicated; such articles are rejected before they reach the
// pipeline.
func (e *Engine) Fingerprints(article domain.Article) []Fingerprint {
	prints := make([]Fingerprint, 0, 2)

	if article.URL != "" {
		prints = append(prints, Fingerprint{
			Kind:  KindURL,
			Value: hash(NormalizeURL(article.URL)),
		})
	}

	if lead := leadText(article.Text()); normalizeText(lead) != "" {
		prints = append(prints, Fingerprint{
			Kind:  KindContent,
			Value: hash(normalizeText(article.Title + " " + lead)),
		})
	}

	return prints
}

// Values returns just the fingerprint digests, for membership lookups.
func Values(prints []Fingerprint) []string {
	values := make([]string, 0, len(prints))
	for _, p := range prints {
		values = append(values, p.Value)
	}
	return values
}

// NormalizeURL canonicalizes an article URL: lowercased scheme and host,
// tracking parameters stripped, no trailing slash, no fragment. A string
// that does not parse as a URL is returned trimmed rather than rejected.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""

	query := parsed.Query()
	for key := range query {
		if trackingParams[key] || strings.HasPrefix(strings.ToLower(key), "utm_") {
			query.Del(key)
		}
	}
	parsed.RawQuery = query.Encode()

	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	return parsed.String()
}

// normalizeText lowercases, strips punctuation, and collapses whitespace so
// that cosmetic edits do not change the content fingerprint.
func normalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func leadText(content string) string {
	runes := []rune(content)
	if len(runes) > leadRunes {
		runes = runes[:leadRunes]
	}
	return string(runes)
}

func hash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
