package classify

import (
	"net/url"
	"strings"

	"llmstxt-audit/pkg/models"
)

// Weights control how much each signal group contributes to a category
// score. URL path terms are the strongest signal, then titles and headings,
// then body text.
type Weights struct {
	URL     float64
	Heading float64 // title and h1/h2 headings
	Body    float64
}

// DefaultWeights returns the standard signal weights.
func DefaultWeights() Weights {
	return Weights{URL: 3.0, Heading: 2.0, Body: 1.0}
}

// bodyHitCap limits how many body keyword hits count toward a score, so a
// long page mentioning "donate" fifty times cannot outweigh its URL.
const bodyHitCap = 3

// Classifier assigns a PageCategory to extracted pages by keyword scoring.
// The zero-cost construction and absence of mutable state make one instance
// safe for concurrent use.
type Classifier struct {
	weights Weights
}

// Options configures a Classifier.
type Options struct {
	// Weights overrides DefaultWeights when non-zero.
	Weights *Weights
}

// New creates a Classifier.
func New(opts *Options) *Classifier {
	w := DefaultWeights()
	if opts != nil && opts.Weights != nil {
		w = *opts.Weights
	}
	return &Classifier{weights: w}
}

// Classify scores the page against every category vocabulary and returns the
// best match. A page with no signal at all is CategoryOther. Ties resolve by
// a fixed priority order, so classification is fully deterministic.
func (c *Classifier) Classify(page *models.ExtractedPage) models.PageCategory {
	path := urlPath(page.URL)
	if isRootPath(path) {
		return models.CategoryHome
	}

	headingText := strings.ToLower(page.Title)
	if len(page.Headings) > 0 {
		headingText += " " + strings.ToLower(strings.Join(page.Headings, " "))
	}
	bodyText := strings.ToLower(page.BodyText)

	scores := make(map[models.PageCategory]float64, len(signals))
	for category, sig := range signals {
		var score float64
		for _, term := range sig.pathTerms {
			if strings.Contains(path, term) {
				score += c.weights.URL
			}
		}
		for _, kw := range sig.keywords {
			if strings.Contains(headingText, kw) {
				score += c.weights.Heading
			}
		}
		bodyHits := 0
		for _, kw := range sig.keywords {
			if bodyHits >= bodyHitCap {
				break
			}
			if strings.Contains(bodyText, kw) {
				bodyHits++
			}
		}
		score += float64(bodyHits) * c.weights.Body
		if score > 0 {
			scores[category] = score
		}
	}

	if len(scores) == 0 {
		return models.CategoryOther
	}

	best := models.CategoryOther
	bestScore := 0.0
	for _, category := range tiePriority {
		if score, ok := scores[category]; ok && score > bestScore {
			best = category
			bestScore = score
		}
	}
	return best
}

// urlPath returns the lowercased path component of a page URL.
func urlPath(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return strings.ToLower(pageURL)
	}
	return strings.ToLower(u.Path)
}

// isRootPath reports whether the path is the site root or an explicit home
// page.
func isRootPath(path string) bool {
	switch strings.TrimSuffix(path, "/") {
	case "", "/home", "/index", "/index.html", "/index.php":
		return true
	}
	return false
}
