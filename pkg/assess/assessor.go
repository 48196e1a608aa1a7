package assess

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"llmstxt-audit/pkg/models"
	"llmstxt-audit/pkg/profile"
	"llmstxt-audit/pkg/validate"
)

// Severity ranks findings by how much they hurt the document's usefulness.
type Severity int

const (
	SeverityCritical Severity = iota
	SeverityMajor
	SeverityMedium
	SeverityMinor
	SeverityInformational
)

var severityNames = map[Severity]string{
	SeverityCritical:      "critical",
	SeverityMajor:         "major",
	SeverityMedium:        "medium",
	SeverityMinor:         "minor",
	SeverityInformational: "informational",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Weights are the per-severity quality score deductions.
type Weights struct {
	Critical      int
	Major         int
	Medium        int
	Minor         int
	Informational int
}

// DefaultWeights returns the standard deductions.
func DefaultWeights() Weights {
	return Weights{Critical: 15, Major: 10, Medium: 7, Minor: 3, Informational: 0}
}

func (w Weights) deduction(s Severity) int {
	switch s {
	case SeverityCritical:
		return w.Critical
	case SeverityMajor:
		return w.Major
	case SeverityMedium:
		return w.Medium
	case SeverityMinor:
		return w.Minor
	default:
		return w.Informational
	}
}

// Finding is one assessed problem. ID is stable across recomputation so
// findings can be dismissed by reference.
type Finding struct {
	ID         string   `json:"id"`
	Category   string   `json:"category"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Section    string   `json:"section,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// SectionEntry summarizes one recommended section in the breakdown.
type SectionEntry struct {
	Name    string   `json:"name"`
	Present bool     `json:"present"`
	Issues  []string `json:"issues,omitempty"`
}

// CoverageGaps reports what the crawl expected but never saw.
type CoverageGaps struct {
	MissingCategories []models.PageCategory `json:"missing_categories"`
	HasInventory      bool                  `json:"has_inventory"`
}

// AssessmentResult grades one candidate document against its crawl.
type AssessmentResult struct {
	OverallScore      int                      `json:"overall_score"`
	CompletenessScore int                      `json:"completeness_score"`
	QualityScore      int                      `json:"quality_score"`
	Grade             string                   `json:"grade"`
	Findings          []Finding                `json:"findings"`
	SectionBreakdown  []SectionEntry           `json:"section_breakdown"`
	CoverageGaps      CoverageGaps             `json:"coverage_gaps"`
	TransparencyTier  profile.TransparencyTier `json:"transparency_tier,omitempty"`

	// Dismissed is the set of finding IDs excluded from the quality score.
	// It only ever grows.
	Dismissed map[string]bool `json:"dismissed,omitempty"`

	// Weights are the deduction weights the scores were computed with. They
	// ride along so a stored result can be re-scored after dismissals.
	Weights Weights `json:"weights"`
}

// Assessor turns validation results into graded assessments.
type Assessor struct {
	profile *profile.Profile
	weights Weights
	log     *logrus.Entry
}

// NewAssessor creates an Assessor. weights may be nil to use the defaults.
func NewAssessor(p *profile.Profile, weights *Weights, log *logrus.Entry) *Assessor {
	w := DefaultWeights()
	if weights != nil {
		w = *weights
	}
	return &Assessor{profile: p, weights: w, log: log}
}

// Assess grades a validated document together with the crawl evidence behind
// it. The crawl result and extracted pages feed the coverage-gap analysis;
// both may be nil when only the document is being assessed. reviewerFindings
// are externally produced qualitative findings; they join the internally
// derived ones and count toward the quality score and dismissal like any
// other finding.
func (a *Assessor) Assess(vr *validate.Result, cr *models.CrawlResult, pages []models.ExtractedPage, reviewerFindings []Finding) *AssessmentResult {
	result := &AssessmentResult{
		TransparencyTier: vr.TransparencyTier,
		Dismissed:        make(map[string]bool),
		Weights:          a.weights,
	}

	result.Findings = a.findingsFromIssues(vr.Issues)
	result.CoverageGaps = a.coverageGaps(cr, pages)
	result.Findings = append(result.Findings, a.findingsFromGaps(result.CoverageGaps)...)
	for _, f := range reviewerFindings {
		if f.Category == "" {
			f.Category = validate.CategoryQuality
		}
		f.ID = findingID(f)
		result.Findings = append(result.Findings, f)
	}
	uniquifyIDs(result.Findings)
	result.SectionBreakdown = a.sectionBreakdown(vr, result.Findings)

	result.CompletenessScore = completenessScore(vr)
	recompute(result)

	a.log.WithFields(logrus.Fields{
		"overall":      result.OverallScore,
		"completeness": result.CompletenessScore,
		"quality":      result.QualityScore,
		"grade":        result.Grade,
		"findings":     len(result.Findings),
	}).Info("Assessed candidate document")

	return result
}

// findingsFromIssues maps validation issues onto findings.
func (a *Assessor) findingsFromIssues(issues []validate.Issue) []Finding {
	findings := make([]Finding, 0, len(issues))
	for _, issue := range issues {
		f := Finding{
			Category:   issue.Category,
			Severity:   mapSeverity(issue.Severity),
			Message:    issue.Message,
			Suggestion: suggestionFor(issue),
		}
		if issue.Category == validate.CategoryCompleteness {
			f.Section = sectionFromMessage(issue.Message)
		}
		f.ID = findingID(f)
		findings = append(findings, f)
	}
	return findings
}

// coverageGaps compares the categories the profile expects against what the
// crawl actually surfaced.
func (a *Assessor) coverageGaps(cr *models.CrawlResult, pages []models.ExtractedPage) CoverageGaps {
	gaps := CoverageGaps{}
	if cr != nil {
		gaps.HasInventory = cr.HasInventory()
	}

	observed := make(map[models.PageCategory]bool, len(pages))
	for _, p := range pages {
		observed[p.Category] = true
	}
	for _, want := range a.profile.ExpectedCategories {
		if !observed[want] {
			gaps.MissingCategories = append(gaps.MissingCategories, want)
		}
	}
	sort.Slice(gaps.MissingCategories, func(i, j int) bool {
		return gaps.MissingCategories[i] < gaps.MissingCategories[j]
	})
	return gaps
}

// findingsFromGaps produces findings for crawl coverage problems.
func (a *Assessor) findingsFromGaps(gaps CoverageGaps) []Finding {
	var findings []Finding
	for _, category := range gaps.MissingCategories {
		f := Finding{
			Category:   validate.CategoryCompleteness,
			Severity:   SeverityMinor,
			Message:    fmt.Sprintf("crawl found no %s page", category),
			Suggestion: fmt.Sprintf("publish or link a %s page so it can be included", category),
		}
		f.ID = findingID(f)
		findings = append(findings, f)
	}
	if !gaps.HasInventory {
		f := Finding{
			Category:   validate.CategoryQuality,
			Severity:   SeverityInformational,
			Message:    "site publishes no sitemap",
			Suggestion: "a sitemap.xml makes page discovery reliable",
		}
		f.ID = findingID(f)
		findings = append(findings, f)
	}
	return findings
}

// sectionBreakdown lists every recommended section with its findings.
func (a *Assessor) sectionBreakdown(vr *validate.Result, findings []Finding) []SectionEntry {
	present := make(map[string]bool, len(vr.Sections))
	for _, s := range vr.Sections {
		present[strings.ToLower(s.Name)] = s.NonEmpty
	}

	entries := make([]SectionEntry, 0, len(a.profile.RecommendedSections))
	for _, name := range a.profile.RecommendedSections {
		entry := SectionEntry{Name: name, Present: present[strings.ToLower(name)]}
		for _, f := range findings {
			if strings.EqualFold(f.Section, name) {
				entry.Issues = append(entry.Issues, f.Message)
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// completenessScore blends structural compliance and sector completeness.
func completenessScore(vr *validate.Result) int {
	blended := 0.70*vr.StructuralCompliance + 0.30*vr.SectorCompleteness
	return int(math.Round(100 * blended))
}

// recompute refreshes the quality score, overall score, and grade from the
// current findings and dismissal set. The completeness score never changes.
func recompute(r *AssessmentResult) {
	quality := 100
	for _, f := range r.Findings {
		if r.Dismissed[f.ID] {
			continue
		}
		// Structure findings already shape the completeness score through
		// structural compliance; deducting them again would double-count.
		if f.Category == validate.CategoryStructure {
			continue
		}
		quality -= r.Weights.deduction(f.Severity)
	}
	if quality < 0 {
		quality = 0
	}
	r.QualityScore = quality
	r.OverallScore = int(math.Round(0.5*float64(r.CompletenessScore) + 0.5*float64(quality)))
	r.Grade = gradeFor(r.OverallScore)
}

func gradeFor(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

func mapSeverity(s validate.Severity) Severity {
	switch s {
	case validate.SeverityBlocking:
		return SeverityCritical
	case validate.SeverityAdvisory:
		return SeverityMajor
	default:
		return SeverityInformational
	}
}

// findingID derives a stable identity from the finding's content.
func findingID(f Finding) string {
	return fmt.Sprintf("%s/%s/%s", f.Category, f.Severity, strings.ReplaceAll(f.Message, " ", "-"))
}

// uniquifyIDs suffixes repeated content-derived IDs with an ordinal so
// findings with identical messages stay individually dismissable. The
// findings slice is ordered deterministically, so the suffixes are stable
// across recomputation.
func uniquifyIDs(findings []Finding) {
	seen := make(map[string]int, len(findings))
	for i := range findings {
		base := findings[i].ID
		seen[base]++
		if n := seen[base]; n > 1 {
			findings[i].ID = fmt.Sprintf("%s-%d", base, n)
		}
	}
}

// sectionFromMessage recovers the section name from a missing-section
// message.
func sectionFromMessage(message string) string {
	if idx := strings.LastIndex(message, ": "); idx >= 0 {
		return message[idx+2:]
	}
	return ""
}

func suggestionFor(issue validate.Issue) string {
	switch {
	case strings.Contains(issue.Message, "no level-1 heading"):
		return "start the document with a single '# Organisation Name' line"
	case strings.Contains(issue.Message, "more than one level-1"):
		return "keep one level-1 heading and demote the rest to '##'"
	case strings.Contains(issue.Message, "blockquote summary"):
		return "add a one-line '> summary' directly under the title"
	case strings.Contains(issue.Message, "recommended section"):
		return "add the section with at least one '- [Title](url)' entry"
	case strings.Contains(issue.Message, "contact information"):
		return "include an email address or phone number"
	default:
		return ""
	}
}
