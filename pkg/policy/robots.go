package policy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"

	"llmstxt-audit/pkg/fetch"
	"llmstxt-audit/pkg/models"
	"llmstxt-audit/pkg/utils"
)

// Policy holds the politeness rules resolved for a single origin. A nil group
// means no usable robots.txt was found and every path is allowed.
type Policy struct {
	group     *robotstxt.Group
	delay     time.Duration
	robotsTxt string
	available bool
	err       error // wraps utils.ErrPolicyUnavailable when resolution failed
	sitemaps  []string
}

// Err returns the resolution failure, if any. A missing robots.txt is not a
// failure; only network-level unreachability is.
func (p *Policy) Err() error {
	if p == nil {
		return nil
	}
	return p.err
}

// CanFetch reports whether the crawler may fetch the given URL path.
func (p *Policy) CanFetch(u *url.URL) bool {
	if p == nil || p.group == nil {
		return true
	}
	return p.group.Test(u.RequestURI())
}

// CrawlDelay returns the effective minimum delay between fetches.
func (p *Policy) CrawlDelay() time.Duration {
	return p.delay
}

// SitemapURLs returns sitemap locations declared in robots.txt.
func (p *Policy) SitemapURLs() []string {
	if p == nil {
		return nil
	}
	return p.sitemaps
}

// Snapshot returns the policy facts recorded alongside crawl results.
func (p *Policy) Snapshot() models.PolicySnapshot {
	if p == nil {
		return models.PolicySnapshot{}
	}
	snapshot := models.PolicySnapshot{
		RobotsAvailable: p.available,
		Unreachable:     p.err != nil,
		CrawlDelay:      p.delay,
		RobotsTxt:       p.robotsTxt,
	}
	if p.err != nil {
		snapshot.Error = utils.CategorizeError(p.err)
	}
	return snapshot
}

// Resolver fetches and parses robots.txt for an origin.
type Resolver struct {
	fetcher      *fetch.Fetcher
	userAgent    string
	defaultDelay time.Duration
	log          *logrus.Entry
}

// NewResolver creates a Resolver.
func NewResolver(fetcher *fetch.Fetcher, userAgent string, defaultDelay time.Duration, log *logrus.Entry) *Resolver {
	return &Resolver{
		fetcher:      fetcher,
		userAgent:    userAgent,
		defaultDelay: defaultDelay,
		log:          log,
	}
}

// Resolve fetches robots.txt for the base URL's origin and returns the
// resulting Policy. A missing (4xx) or unparseable robots.txt yields a
// permissive policy; so does a network failure, which is additionally
// recorded as unreachable. Resolve never fails the crawl.
func (r *Resolver) Resolve(ctx context.Context, base *url.URL) *Policy {
	robotsURL := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/robots.txt"}
	robotsLog := r.log.WithField("robots_url", robotsURL.String())

	permissive := &Policy{delay: r.defaultDelay}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		robotsLog.Errorf("Error creating robots.txt request: %v", err)
		permissive.err = fmt.Errorf("%w: %v", utils.ErrPolicyUnavailable, err)
		return permissive
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, fetchErr := r.fetcher.FetchWithRetry(ctx, req)
	if fetchErr != nil {
		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		if errors.Is(fetchErr, utils.ErrClientHTTPError) {
			// No robots.txt published. Everything is allowed.
			robotsLog.Debug("robots.txt not found, using permissive policy")
			return permissive
		}
		robotsLog.Warnf("robots.txt unreachable, crawling permissively: %v", fetchErr)
		permissive.err = fmt.Errorf("%w: %v", utils.ErrPolicyUnavailable, fetchErr)
		return permissive
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		robotsLog.Errorf("Error reading robots.txt body: %v", err)
		permissive.err = fmt.Errorf("%w: %v", utils.ErrPolicyUnavailable, err)
		return permissive
	}

	data, err := robotstxt.FromBytes(bodyBytes)
	if err != nil {
		robotsLog.Warnf("Error parsing robots.txt, using permissive policy: %v", err)
		return permissive
	}

	group := data.FindGroup(r.userAgent)

	// The declared crawl-delay only tightens the politeness floor, never
	// relaxes it below the default.
	delay := r.defaultDelay
	if group != nil && group.CrawlDelay > delay {
		delay = group.CrawlDelay
	}

	robotsLog.WithFields(logrus.Fields{
		"delay":    delay,
		"sitemaps": len(data.Sitemaps),
	}).Info("Resolved robots.txt policy")

	return &Policy{
		group:     group,
		delay:     delay,
		robotsTxt: string(bodyBytes),
		available: true,
		sitemaps:  data.Sitemaps,
	}
}
