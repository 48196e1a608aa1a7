package sitemap

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"llmstxt-audit/pkg/fetch"
	"llmstxt-audit/pkg/parse"
)

// maxIndexDepth bounds recursion through nested sitemap index files.
const maxIndexDepth = 3

// conventionalPaths are probed in order when robots.txt declares no sitemap.
var conventionalPaths = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemap-index.xml",
}

// xmlURL represents a <url> element in a sitemap
type xmlURL struct {
	Loc string `xml:"loc"`
}

// xmlURLSet represents a <urlset> element in a sitemap
type xmlURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []xmlURL `xml:"url"`
}

// xmlSitemap represents a <sitemap> element in a sitemap index file
type xmlSitemap struct {
	Loc string `xml:"loc"`
}

// xmlSitemapIndex represents a <sitemapindex> element
type xmlSitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Sitemaps []xmlSitemap `xml:"sitemap"`
}

// Discoverer fetches sitemaps for an origin and collects page URLs from them.
type Discoverer struct {
	fetcher   *fetch.Fetcher
	limiter   *fetch.RateLimiter
	userAgent string
	log       *logrus.Entry
}

// NewDiscoverer creates a Discoverer.
func NewDiscoverer(fetcher *fetch.Fetcher, limiter *fetch.RateLimiter, userAgent string, log *logrus.Entry) *Discoverer {
	return &Discoverer{
		fetcher:   fetcher,
		limiter:   limiter,
		userAgent: userAgent,
		log:       log,
	}
}

// Discover collects up to maxURLs same-origin page URLs from the origin's
// sitemaps. declared holds sitemap locations from robots.txt; when empty,
// conventional sitemap paths are probed in order and the first one that
// parses is used. Returns the sitemap URLs consulted and the page URLs
// found. Failures are logged, never fatal.
func (d *Discoverer) Discover(ctx context.Context, base *url.URL, declared []string, maxURLs int) (consulted []string, pageURLs []string) {
	seen := make(map[string]struct{})

	candidates := declared
	probing := false
	if len(candidates) == 0 {
		probing = true
		for _, p := range conventionalPaths {
			u := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: p}
			candidates = append(candidates, u.String())
		}
	}

	for _, smURL := range candidates {
		if ctx.Err() != nil {
			return consulted, pageURLs
		}
		found, ok := d.collect(ctx, base, smURL, seen, maxURLs-len(pageURLs), 0)
		if !ok {
			continue
		}
		consulted = append(consulted, smURL)
		pageURLs = append(pageURLs, found...)
		if len(pageURLs) >= maxURLs {
			break
		}
		if probing {
			// The first conventional path that worked is authoritative.
			break
		}
	}
	return consulted, pageURLs
}

// collect fetches one sitemap and returns the page URLs it yields, recursing
// into index files. ok is false when the sitemap could not be fetched or
// parsed at all.
func (d *Discoverer) collect(ctx context.Context, base *url.URL, smURL string, seen map[string]struct{}, budget, depth int) (urls []string, ok bool) {
	if budget <= 0 || depth > maxIndexDepth {
		return nil, false
	}
	sitemapLog := d.log.WithField("sitemap_url", smURL)

	body, err := d.fetchSitemap(ctx, smURL)
	if err != nil {
		sitemapLog.Debugf("Sitemap fetch failed: %v", err)
		return nil, false
	}

	// Index files and plain sitemaps share no root element, so try both.
	var index xmlSitemapIndex
	if xml.Unmarshal(body, &index) == nil && len(index.Sitemaps) > 0 {
		sitemapLog.Infof("Sitemap index with %d children", len(index.Sitemaps))
		for _, child := range index.Sitemaps {
			loc := strings.TrimSpace(child.Loc)
			if loc == "" {
				continue
			}
			childURLs, childOK := d.collect(ctx, base, loc, seen, budget-len(urls), depth+1)
			if childOK {
				urls = append(urls, childURLs...)
			}
			if len(urls) >= budget {
				break
			}
		}
		return urls, true
	}

	var urlset xmlURLSet
	if err := xml.Unmarshal(body, &urlset); err != nil {
		sitemapLog.Debugf("Sitemap parse failed: %v", err)
		return nil, false
	}

	for _, entry := range urlset.URLs {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" {
			continue
		}
		normalized, parsed, err := parse.ParseAndNormalize(loc)
		if err != nil {
			continue
		}
		if !d.crawlable(base, parsed) {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		urls = append(urls, normalized)
		if len(urls) >= budget {
			break
		}
	}
	sitemapLog.Infof("Sitemap yielded %d page URL(s)", len(urls))
	return urls, true
}

// crawlable filters out entries that cannot be organisation pages.
func (d *Discoverer) crawlable(base, u *url.URL) bool {
	if !parse.SameOrigin(base, u) {
		return false
	}
	if parse.IsAssetPath(u) {
		return false
	}
	return true
}

// fetchSitemap fetches one sitemap document, honoring the origin rate limit.
func (d *Discoverer) fetchSitemap(ctx context.Context, smURL string) ([]byte, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, smURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.fetcher.FetchWithRetry(ctx, req)
	if err != nil {
		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}
