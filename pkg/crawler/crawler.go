package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"llmstxt-audit/pkg/config"
	"llmstxt-audit/pkg/fetch"
	"llmstxt-audit/pkg/frontier"
	"llmstxt-audit/pkg/models"
	"llmstxt-audit/pkg/parse"
	"llmstxt-audit/pkg/policy"
	"llmstxt-audit/pkg/sitemap"
	"llmstxt-audit/pkg/utils"
)

// sitemapSeedFactor bounds sitemap seeding relative to the page cap. The
// frontier may hold more URLs than will ever be fetched; the factor keeps
// huge sitemaps from bloating it further.
const sitemapSeedFactor = 2

// Crawler walks a single origin breadth-first, honoring its robots.txt
// policy, until the page cap, depth limit, or time budget is reached.
type Crawler struct {
	log      *logrus.Entry
	appCfg   *config.AppConfig
	crawlCfg *config.CrawlConfig
	fetcher  *fetch.Fetcher
	resolver *policy.Resolver
	frontier *frontier.Frontier
	base     *url.URL
}

// New creates a Crawler for the configured origin. Both configs must already
// be validated.
func New(appCfg *config.AppConfig, crawlCfg *config.CrawlConfig, client *http.Client, baseLogger *logrus.Logger) (*Crawler, error) {
	base, err := url.Parse(crawlCfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing base URL %q: %v", utils.ErrConfigValidation, crawlCfg.BaseURL, err)
	}

	logger := baseLogger.WithField("origin", base.Host)
	fetcher := fetch.NewFetcher(client, appCfg.Retry(), baseLogger)

	return &Crawler{
		log:      logger,
		appCfg:   appCfg,
		crawlCfg: crawlCfg,
		fetcher:  fetcher,
		resolver: policy.NewResolver(fetcher, appCfg.UserAgent, appCfg.DefaultDelay, logger),
		frontier: frontier.New(),
		base:     base,
	}, nil
}

// Run executes the crawl. The returned result is always usable: a crawl cut
// short by the context or time budget reports the pages fetched so far. The
// error is non-nil only when the parent context ended the crawl early.
func (c *Crawler) Run(ctx context.Context) (*models.CrawlResult, error) {
	startedAt := time.Now()

	if c.crawlCfg.CrawlTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.crawlCfg.CrawlTimeout)
		defer cancel()
	}

	result := &models.CrawlResult{
		BaseURL:   c.base.String(),
		Failures:  make(map[string]string),
		Skips:     make(map[string]models.SkipReason),
		StartedAt: startedAt,
	}

	// Resolve the origin's politeness policy
	var pol *policy.Policy
	if c.crawlCfg.IgnoreRobots {
		c.log.Warn("Robots policy checks disabled for this crawl")
	} else {
		pol = c.resolver.Resolve(ctx, c.base)
		result.Policy = pol.Snapshot()
	}

	delay := c.appCfg.DefaultDelay
	if pol != nil {
		delay = pol.CrawlDelay()
	}
	if c.crawlCfg.DelayOverride > 0 {
		delay = c.crawlCfg.DelayOverride
	}
	limiter := fetch.NewRateLimiter(delay)
	c.log.Infof("Crawl delay: %v", delay)

	// Seed the frontier: base URL first, then sitemap discoveries
	seedNorm, _, err := parse.ParseAndNormalize(c.base.String())
	if err != nil {
		return result, fmt.Errorf("%w: normalizing base URL: %v", utils.ErrConfigValidation, err)
	}
	c.frontier.Add(seedNorm, 0)

	discoverer := sitemap.NewDiscoverer(c.fetcher, limiter, c.appCfg.UserAgent, c.log)
	var declared []string
	if pol != nil {
		declared = pol.SitemapURLs()
	}
	consulted, seeds := discoverer.Discover(ctx, c.base, declared, c.crawlCfg.PageCap*sitemapSeedFactor)
	result.SitemapURLs = consulted
	for _, seed := range seeds {
		c.frontier.Add(seed, 1)
	}
	c.log.Infof("Frontier seeded with %d URL(s)", c.frontier.Len()+1)

	// Main fetch loop
	fetched := 0
	for fetched < c.crawlCfg.PageCap {
		if ctx.Err() != nil {
			c.log.Warnf("Crawl stopped early: %v", ctx.Err())
			break
		}

		entry, nextErr := c.frontier.Next()
		if errors.Is(nextErr, frontier.ErrEmpty) {
			c.log.Info("Frontier exhausted")
			break
		}

		page, skip, pageErr := c.fetchPage(ctx, limiter, pol, entry)
		switch {
		case pageErr != nil:
			if reason, refused := skipReasonFor(pageErr); refused {
				c.frontier.MarkSkipped(entry.URL)
				result.Skips[entry.URL] = reason
				continue
			}
			c.frontier.MarkFailed(entry.URL)
			if ctx.Err() != nil {
				continue // crawl context ended, loop exits on re-check
			}
			result.Failures[entry.URL] = utils.CategorizeError(pageErr)
		case skip != "":
			c.frontier.MarkSkipped(entry.URL)
			result.Skips[entry.URL] = skip
		default:
			c.frontier.MarkFetched(entry.URL)
			result.Pages = append(result.Pages, *page)
			fetched++
		}
	}

	result.Duration = time.Since(startedAt)
	c.log.WithFields(logrus.Fields{
		"pages":    len(result.Pages),
		"failures": len(result.Failures),
		"skips":    len(result.Skips),
		"duration": result.Duration,
	}).Info("Crawl finished")

	if ctx.Err() != nil && len(result.Pages) < c.crawlCfg.PageCap {
		return result, ctx.Err()
	}
	return result, nil
}

// fetchPage fetches one frontier entry. Exactly one of the three outcomes is
// reported: a page, a skip reason, or an error. Refusal errors carry the
// policy sentinels and are turned back into skip reasons by the caller.
func (c *Crawler) fetchPage(ctx context.Context, limiter *fetch.RateLimiter, pol *policy.Policy, entry frontier.Entry) (*models.FetchedPage, models.SkipReason, error) {
	pageLog := c.log.WithField("url", entry.URL)

	pageURL, err := url.Parse(entry.URL)
	if err != nil {
		pageLog.Warnf("Unparseable frontier URL: %v", err)
		return nil, models.SkipBadURL, nil
	}

	if !parse.SameOrigin(c.base, pageURL) {
		return nil, "", fmt.Errorf("%w: %s", utils.ErrScopeViolation, entry.URL)
	}
	if entry.Depth > c.crawlCfg.MaxDepth {
		return nil, "", fmt.Errorf("%w: depth %d", utils.ErrMaxDepthExceeded, entry.Depth)
	}

	if pol != nil && !pol.CanFetch(pageURL) {
		pageLog.Debug("Disallowed by robots policy")
		return nil, "", fmt.Errorf("%w: %s", utils.ErrRobotsDisallowed, entry.URL)
	}

	if err := limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	if c.crawlCfg.PerPageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.crawlCfg.PerPageTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.URL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", utils.ErrRequestCreation, err)
	}
	req.Header.Set("User-Agent", c.appCfg.UserAgent)

	resp, fetchErr := c.fetcher.FetchWithRetry(ctx, req)
	if fetchErr != nil {
		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		return nil, "", fetchErr
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		pageLog.Debugf("Skipping non-HTML content type %q", contentType)
		io.Copy(io.Discard, resp.Body)
		return nil, "", fmt.Errorf("%w: %q", utils.ErrNonHTMLContent, contentType)
	}

	var reader io.Reader = resp.Body
	if c.appCfg.MaxPageSizeBytes > 0 {
		reader = io.LimitReader(resp.Body, c.appCfg.MaxPageSizeBytes)
	}
	bodyBytes, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", utils.ErrResponseBodyRead, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", utils.ErrParsing, err)
	}

	page := &models.FetchedPage{
		URL:        entry.URL,
		Title:      pageTitle(doc),
		RawHTML:    string(bodyBytes),
		StatusCode: resp.StatusCode,
	}

	if entry.Depth < c.crawlCfg.MaxDepth {
		added := c.enqueueLinks(doc, pageURL, entry.Depth+1)
		if added > 0 {
			pageLog.Debugf("Queued %d new link(s)", added)
		}
	}

	return page, "", nil
}

// skipReasonFor maps refusal sentinels onto recorded skip reasons. Any other
// error is a genuine failure.
func skipReasonFor(err error) (models.SkipReason, bool) {
	switch {
	case errors.Is(err, utils.ErrRobotsDisallowed):
		return models.SkipRobots, true
	case errors.Is(err, utils.ErrScopeViolation):
		return models.SkipOutOfScope, true
	case errors.Is(err, utils.ErrMaxDepthExceeded):
		return models.SkipDepth, true
	case errors.Is(err, utils.ErrNonHTMLContent):
		return models.SkipNonHTML, true
	}
	return "", false
}

// enqueueLinks extracts same-origin page links from the document and adds
// them to the frontier at the given depth.
func (c *Crawler) enqueueLinks(doc *goquery.Document, pageURL *url.URL, depth int) int {
	added := 0
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "javascript:") {
			return
		}

		linkURL, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := pageURL.ResolveReference(linkURL)

		if !parse.SameOrigin(c.base, resolved) {
			return
		}
		if parse.IsAssetPath(resolved) {
			return
		}

		normalized := parse.NormalizeURL(resolved)
		if c.frontier.Add(normalized, depth) {
			added++
		}
	})
	return added
}

// pageTitle extracts the document title, falling back to the first h1.
func pageTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	return title
}
