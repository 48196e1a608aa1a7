package export

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmstxt-audit/pkg/models"
	"llmstxt-audit/pkg/validate"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(log)
}

func TestPathForURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"root", "https://example.org/", "index.md"},
		{"empty path", "https://example.org", "index.md"},
		{"directory-like", "https://example.org/about-us/", filepath.Join("about-us", "index.md")},
		{"nested directory", "https://example.org/services/advice", filepath.Join("services", "advice", "index.md")},
		{"file-like", "https://example.org/reports/annual2024.html", filepath.Join("reports", "annual2024.md")},
		{"unsafe characters", "https://example.org/what we do?", filepath.Join("what we do", "index.md")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, PathForURL(u))
		})
	}
}

func TestArchiver_WritesMarkdown(t *testing.T) {
	dir := t.TempDir()
	a := NewArchiver(dir, testLogger())

	page := &models.FetchedPage{
		URL:     "https://example.org/about",
		Title:   "About",
		RawHTML: `<html><body><h1>About Us</h1><p>We help <strong>young carers</strong>.</p></body></html>`,
	}

	path, err := a.ArchivePage(page)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "about", "index.md"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# About Us")
	assert.Contains(t, string(content), "**young carers**")
}

func TestArchiver_ArchiveAllSkipsBadPages(t *testing.T) {
	dir := t.TempDir()
	a := NewArchiver(dir, testLogger())

	result := &models.CrawlResult{
		BaseURL: "https://example.org",
		Pages: []models.FetchedPage{
			{URL: "https://example.org/", RawHTML: "<html><body><p>Home</p></body></html>"},
			{URL: "://not a url", RawHTML: "<html></html>"},
		},
	}

	written := a.ArchiveAll(result)
	assert.Equal(t, 1, written)

	_, err := os.Stat(filepath.Join(dir, "index.md"))
	assert.NoError(t, err)
}

func TestReport_WriteJSON(t *testing.T) {
	dir := t.TempDir()

	cr := &models.CrawlResult{
		BaseURL:   "https://example.org",
		Pages:     []models.FetchedPage{{URL: "https://example.org/"}},
		Failures:  map[string]string{"https://example.org/broken": "server_http_error"},
		Skips:     map[string]models.SkipReason{"https://example.org/admin": models.SkipRobots},
		StartedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Duration:  3 * time.Second,
	}
	vr := &validate.Result{IsValid: true, StructuralCompliance: 1.0}

	report := NewReport("charity", cr, vr, nil)
	path, err := report.WriteJSON(dir, testLogger())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"base_url": "https://example.org"`)
	assert.Contains(t, string(data), `"pages_fetched": 1`)
	assert.Contains(t, string(data), `"profile": "charity"`)
	assert.NotContains(t, string(data), `"assessment"`)
}

func TestWriteCandidate(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteCandidate(dir, "# Oakfield Trust\n", testLogger())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "llms.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Oakfield Trust\n", string(data))
}
