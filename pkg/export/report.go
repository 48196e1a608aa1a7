package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"llmstxt-audit/pkg/assess"
	"llmstxt-audit/pkg/models"
	"llmstxt-audit/pkg/utils"
	"llmstxt-audit/pkg/validate"
)

// CrawlSummary is the report view of a crawl: counts and the policy the
// crawler observed, without the raw page bodies.
type CrawlSummary struct {
	BaseURL      string                       `json:"base_url"`
	PagesFetched int                          `json:"pages_fetched"`
	SitemapURLs  []string                     `json:"sitemap_urls,omitempty"`
	Failures     map[string]string            `json:"failures,omitempty"`
	Skips        map[string]models.SkipReason `json:"skips,omitempty"`
	Policy       models.PolicySnapshot        `json:"policy"`
	StartedAt    time.Time                    `json:"started_at"`
	Duration     time.Duration                `json:"duration"`
}

// Report is the full audit output written to disk.
type Report struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Profile     string                   `json:"profile"`
	Crawl       CrawlSummary             `json:"crawl"`
	Validation  *validate.Result         `json:"validation,omitempty"`
	Assessment  *assess.AssessmentResult `json:"assessment,omitempty"`
}

// NewReport assembles a Report from the audit stages. Validation and
// assessment may be nil when no candidate document was supplied.
func NewReport(profileName string, cr *models.CrawlResult, vr *validate.Result, ar *assess.AssessmentResult) *Report {
	return &Report{
		GeneratedAt: time.Now().UTC(),
		Profile:     profileName,
		Crawl: CrawlSummary{
			BaseURL:      cr.BaseURL,
			PagesFetched: len(cr.Pages),
			SitemapURLs:  cr.SitemapURLs,
			Failures:     cr.Failures,
			Skips:        cr.Skips,
			Policy:       cr.Policy,
			StartedAt:    cr.StartedAt,
			Duration:     cr.Duration,
		},
		Validation: vr,
		Assessment: ar,
	}
}

// WriteJSON writes the report as indented JSON into dir and returns the
// file path.
func (r *Report) WriteJSON(dir string, log *logrus.Entry) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: marshaling report: %v", utils.ErrParsing, err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: creating report directory '%s': %v", utils.ErrFilesystem, dir, err)
	}

	path := filepath.Join(dir, "audit_report.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("%w: writing report '%s': %v", utils.ErrFilesystem, path, err)
	}

	log.Infof("Wrote audit report (%d bytes): %s", len(data), path)
	return path, nil
}

// WriteCandidate writes a generated candidate document alongside the report.
func WriteCandidate(dir, doc string, log *logrus.Entry) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: creating output directory '%s': %v", utils.ErrFilesystem, dir, err)
	}

	path := filepath.Join(dir, "llms.txt")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return "", fmt.Errorf("%w: writing candidate '%s': %v", utils.ErrFilesystem, path, err)
	}

	log.Infof("Wrote candidate document: %s", path)
	return path, nil
}
