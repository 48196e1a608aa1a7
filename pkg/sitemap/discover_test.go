package sitemap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmstxt-audit/pkg/config"
	"llmstxt-audit/pkg/fetch"
)

func testDiscoverer(t *testing.T) *Discoverer {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	fetcher := fetch.NewFetcher(&http.Client{Timeout: 5 * time.Second}, config.RetryPolicy{}, log)
	return NewDiscoverer(fetcher, fetch.NewRateLimiter(0), "llmstxt-audit/1.0", logrus.NewEntry(log))
}

func TestDiscover_PlainSitemap(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/</loc></url>
  <url><loc>%s/about/</loc></url>
  <url><loc>%s/report.pdf</loc></url>
  <url><loc>https://elsewhere.example/page</loc></url>
  <url><loc>%s/about</loc></url>
</urlset>`, server.URL, server.URL, server.URL, server.URL)
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)

	base, _ := url.Parse(server.URL)
	consulted, pages := testDiscoverer(t).Discover(context.Background(), base, nil, 50)

	require.Len(t, consulted, 1)
	assert.Contains(t, consulted[0], "/sitemap.xml")

	// PDF and off-origin entries dropped, trailing-slash duplicate collapsed
	assert.Equal(t, []string{server.URL + "/", server.URL + "/about"}, pages)
}

func TestDiscover_IndexRecursion(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>%s/sitemap-pages.xml</loc></sitemap>
</sitemapindex>`, server.URL)
	})
	mux.HandleFunc("/sitemap-pages.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/contact</loc></url>
</urlset>`, server.URL)
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)

	base, _ := url.Parse(server.URL)
	_, pages := testDiscoverer(t).Discover(context.Background(), base, nil, 50)

	assert.Equal(t, []string{server.URL + "/contact"}, pages)
}

func TestDiscover_ConventionalPathFallback(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	// /sitemap.xml missing, /sitemap_index.xml present
	mux.HandleFunc("/sitemap_index.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/services</loc></url>
</urlset>`, server.URL)
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)

	base, _ := url.Parse(server.URL)
	consulted, pages := testDiscoverer(t).Discover(context.Background(), base, nil, 50)

	require.Len(t, consulted, 1)
	assert.Contains(t, consulted[0], "/sitemap_index.xml")
	assert.Equal(t, []string{server.URL + "/services"}, pages)
}

func TestDiscover_NoSitemapAnywhere(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	base, _ := url.Parse(server.URL)
	consulted, pages := testDiscoverer(t).Discover(context.Background(), base, nil, 50)

	assert.Empty(t, consulted)
	assert.Empty(t, pages)
}

func TestDiscover_BudgetCap(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<?xml version="1.0"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
		for i := 0; i < 20; i++ {
			fmt.Fprintf(w, `<url><loc>%s/page-%d</loc></url>`, server.URL, i)
		}
		io.WriteString(w, `</urlset>`)
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)

	base, _ := url.Parse(server.URL)
	_, pages := testDiscoverer(t).Discover(context.Background(), base, nil, 5)

	assert.Len(t, pages, 5)
}
