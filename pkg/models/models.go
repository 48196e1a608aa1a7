package models

import "time"

// FetchedPage is one successfully fetched page. Immutable once produced by
// the crawler; the raw markup is only consumed by the extraction pipeline
// and the page archive, never by downstream synthesis.
type FetchedPage struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	RawHTML    string `json:"raw_html"`
	StatusCode int    `json:"status_code"`
}

// PolicySnapshot records what the politeness resolver found at crawl time,
// so a CrawlResult is self-describing about the rules it ran under.
type PolicySnapshot struct {
	RobotsAvailable bool          `json:"robots_available"` // robots.txt fetched and parsed
	Unreachable     bool          `json:"unreachable"`      // network-level failure after retries (absent file is NOT unreachable)
	CrawlDelay      time.Duration `json:"crawl_delay"`      // effective delay the crawl honored
	RobotsTxt       string        `json:"robots_txt,omitempty"`
	Error           string        `json:"error,omitempty"` // failure category when unreachable
}

// SkipReason explains why a discovered URL was not fetched.
type SkipReason string

const (
	SkipRobots     SkipReason = "robots_disallowed"
	SkipNonHTML    SkipReason = "non_html"
	SkipVisited    SkipReason = "already_visited"
	SkipDepth      SkipReason = "depth_exceeded"
	SkipOutOfScope SkipReason = "out_of_scope"
	SkipPageCap    SkipReason = "page_cap_reached"
	SkipBadURL     SkipReason = "invalid_url"
)

// CrawlResult is the complete outcome of one crawl invocation. Created once,
// read-only thereafter. Invariants: every FetchedPage.URL is unique within
// Pages, and len(Pages) never exceeds the configured page cap. A crawl that
// fetched nothing still returns a CrawlResult; callers inspect Pages and
// Failures to detect the degenerate case.
type CrawlResult struct {
	BaseURL     string                `json:"base_url"`
	Pages       []FetchedPage         `json:"pages"`
	Policy      PolicySnapshot        `json:"policy"`
	SitemapURLs []string              `json:"sitemap_urls,omitempty"` // inventory URLs discovered, whether or not all were fetched
	Failures    map[string]string     `json:"failures,omitempty"`     // URL -> error category
	Skips       map[string]SkipReason `json:"skips,omitempty"`        // URL -> reason
	StartedAt   time.Time             `json:"started_at"`
	Duration    time.Duration         `json:"duration"`
}

// HasInventory reports whether the politeness resolver located a usable
// content inventory (sitemap) for the site.
func (r *CrawlResult) HasInventory() bool {
	return len(r.SitemapURLs) > 0
}

// PageURLs returns the fetched page URLs in crawl order.
func (r *CrawlResult) PageURLs() []string {
	urls := make([]string, 0, len(r.Pages))
	for _, p := range r.Pages {
		urls = append(urls, p.URL)
	}
	return urls
}

// ContactFacts holds structured contact details found on a single page.
// A page with no matches yields a nil ContactFacts, not an error.
type ContactFacts struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ExtractedPage is the structured view of one FetchedPage: cleaned text
// fields plus the assigned category and any structured facts. Derived from
// exactly one FetchedPage; immutable. This is the full contract surface the
// external synthesis collaborator consumes - it never sees raw markup.
type ExtractedPage struct {
	URL           string        `json:"url"`
	Title         string        `json:"title"`
	Description   string        `json:"description,omitempty"`
	Headings      []string      `json:"headings,omitempty"` // h1 and h2 texts in document order
	BodyText      string        `json:"body_text"`
	Category      PageCategory  `json:"category"`
	Contact       *ContactFacts `json:"contact,omitempty"`
	CharityNumber string        `json:"charity_number,omitempty"`
}
