package assess

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmstxt-audit/pkg/models"
	"llmstxt-audit/pkg/profile"
	"llmstxt-audit/pkg/validate"
)

func testAssessor(t *testing.T, p profile.Profile) *Assessor {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewAssessor(&p, nil, logrus.NewEntry(log))
}

func fullCoveragePages(p profile.Profile) []models.ExtractedPage {
	pages := make([]models.ExtractedPage, 0, len(p.ExpectedCategories))
	for _, c := range p.ExpectedCategories {
		pages = append(pages, models.ExtractedPage{Category: c})
	}
	return pages
}

func cleanValidation() *validate.Result {
	return &validate.Result{
		IsValid:              true,
		StructuralCompliance: 1.0,
		SectorCompleteness:   1.0,
		Sections: []validate.Section{
			{Name: "About", NonEmpty: true},
			{Name: "Services", NonEmpty: true},
			{Name: "Get Help", NonEmpty: true},
			{Name: "Contact", NonEmpty: true},
			{Name: "Donate", NonEmpty: true},
			{Name: "Volunteer", NonEmpty: true},
		},
		HasContact: true,
	}
}

func TestAssess_PerfectDocument(t *testing.T) {
	a := testAssessor(t, profile.Charity)
	cr := &models.CrawlResult{SitemapURLs: []string{"https://a.org/sitemap.xml"}}

	result := a.Assess(cleanValidation(), cr, fullCoveragePages(profile.Charity), nil)

	assert.Equal(t, 100, result.CompletenessScore)
	assert.Equal(t, 100, result.QualityScore)
	assert.Equal(t, 100, result.OverallScore)
	assert.Equal(t, "A", result.Grade)
	assert.Empty(t, result.Findings)
	assert.Empty(t, result.CoverageGaps.MissingCategories)
	assert.True(t, result.CoverageGaps.HasInventory)
}

func TestAssess_CompletenessBlend(t *testing.T) {
	vr := cleanValidation()
	vr.StructuralCompliance = 0.5
	vr.SectorCompleteness = 1.0

	a := testAssessor(t, profile.Charity)
	result := a.Assess(vr, &models.CrawlResult{SitemapURLs: []string{"x"}}, fullCoveragePages(profile.Charity), nil)

	// 0.70*0.5 + 0.30*1.0 = 0.65
	assert.Equal(t, 65, result.CompletenessScore)
}

func TestAssess_QualityDeductions(t *testing.T) {
	vr := cleanValidation()
	vr.Issues = []validate.Issue{
		{Severity: validate.SeverityAdvisory, Category: validate.CategoryCompleteness, Message: "recommended section missing or empty: Contact"},
		{Severity: validate.SeverityAdvisory, Category: validate.CategoryQuality, Message: "no contact information found in the document"},
		{Severity: validate.SeverityBlocking, Category: validate.CategoryStructure, Message: "document has no level-1 heading"},
	}

	a := testAssessor(t, profile.Charity)
	result := a.Assess(vr, &models.CrawlResult{SitemapURLs: []string{"x"}}, fullCoveragePages(profile.Charity), nil)

	// Two major findings deduct 10 each; the structure finding does not
	// touch the quality score.
	assert.Equal(t, 80, result.QualityScore)
	require.Len(t, result.Findings, 3)
}

func TestAssess_CoverageGaps(t *testing.T) {
	a := testAssessor(t, profile.Funder)

	pages := []models.ExtractedPage{
		{Category: models.CategoryHome},
		{Category: models.CategoryAbout},
		{Category: models.CategoryContact},
	}
	result := a.Assess(cleanValidation(), &models.CrawlResult{}, pages, nil)

	assert.False(t, result.CoverageGaps.HasInventory)
	assert.Contains(t, result.CoverageGaps.MissingCategories, models.CategoryFundingPriorities)
	assert.Contains(t, result.CoverageGaps.MissingCategories, models.CategoryHowToApply)
	assert.NotContains(t, result.CoverageGaps.MissingCategories, models.CategoryAbout)

	// Each missing category is a minor finding deducting 3
	missing := len(result.CoverageGaps.MissingCategories)
	assert.Equal(t, 100-3*missing, result.QualityScore)
}

func TestAssess_SectionBreakdown(t *testing.T) {
	vr := cleanValidation()
	vr.Sections = []validate.Section{
		{Name: "About", NonEmpty: true},
		{Name: "Contact", NonEmpty: false},
	}
	vr.Issues = []validate.Issue{
		{Severity: validate.SeverityAdvisory, Category: validate.CategoryCompleteness, Message: "recommended section missing or empty: Contact"},
	}

	a := testAssessor(t, profile.Charity)
	result := a.Assess(vr, &models.CrawlResult{SitemapURLs: []string{"x"}}, fullCoveragePages(profile.Charity), nil)

	byName := make(map[string]SectionEntry)
	for _, e := range result.SectionBreakdown {
		byName[e.Name] = e
	}
	assert.True(t, byName["About"].Present)
	assert.False(t, byName["Contact"].Present)
	assert.NotEmpty(t, byName["Contact"].Issues)
}

func TestDismiss_RecomputesQualityOnly(t *testing.T) {
	vr := cleanValidation()
	vr.Issues = []validate.Issue{
		{Severity: validate.SeverityAdvisory, Category: validate.CategoryQuality, Message: "no contact information found in the document"},
	}

	a := testAssessor(t, profile.Charity)
	result := a.Assess(vr, &models.CrawlResult{SitemapURLs: []string{"x"}}, fullCoveragePages(profile.Charity), nil)
	require.Len(t, result.Findings, 1)

	before := result.Snapshot()
	assert.Equal(t, 90, before.QualityScore)

	after := result.Dismiss(result.Findings[0].ID)
	assert.Equal(t, 100, after.QualityScore)
	assert.Equal(t, before.CompletenessScore, after.CompletenessScore)
	assert.Greater(t, after.OverallScore, before.OverallScore)
}

func TestDismiss_Idempotent(t *testing.T) {
	vr := cleanValidation()
	vr.Issues = []validate.Issue{
		{Severity: validate.SeverityAdvisory, Category: validate.CategoryQuality, Message: "no contact information found in the document"},
	}

	a := testAssessor(t, profile.Charity)
	result := a.Assess(vr, &models.CrawlResult{SitemapURLs: []string{"x"}}, fullCoveragePages(profile.Charity), nil)
	id := result.Findings[0].ID

	first := result.Dismiss(id)
	second := result.Dismiss(id, id)
	assert.Equal(t, first, second)
	assert.Len(t, result.Dismissed, 1)
}

func TestDismiss_UnknownIDIgnored(t *testing.T) {
	a := testAssessor(t, profile.Charity)
	result := a.Assess(cleanValidation(), &models.CrawlResult{SitemapURLs: []string{"x"}}, fullCoveragePages(profile.Charity), nil)

	before := result.Snapshot()
	after := result.Dismiss("nonsense-id")
	assert.Equal(t, before, after)
	assert.Empty(t, result.Dismissed)
}

func TestAssess_ReviewerFindingsDeductAndDismiss(t *testing.T) {
	a := testAssessor(t, profile.Charity)

	external := []Finding{
		{Severity: SeverityMajor, Message: "mission statement does not match the charity register entry"},
		{Category: validate.CategoryQuality, Severity: SeverityMinor, Message: "service descriptions are out of date"},
	}
	result := a.Assess(cleanValidation(), &models.CrawlResult{SitemapURLs: []string{"x"}}, fullCoveragePages(profile.Charity), external)

	require.Len(t, result.Findings, 2)
	assert.Equal(t, validate.CategoryQuality, result.Findings[0].Category)
	assert.NotEmpty(t, result.Findings[0].ID)
	assert.Equal(t, 100-10-3, result.QualityScore)

	after := result.Dismiss(result.Findings[0].ID)
	assert.Equal(t, 100-3, after.QualityScore)
}

func TestAssess_DuplicateMessagesDismissIndividually(t *testing.T) {
	vr := cleanValidation()
	vr.Issues = []validate.Issue{
		{Severity: validate.SeverityInformational, Category: validate.CategoryStructure, Message: "section content line is not a link entry or bullet", Line: 4},
		{Severity: validate.SeverityInformational, Category: validate.CategoryStructure, Message: "section content line is not a link entry or bullet", Line: 9},
	}

	a := testAssessor(t, profile.Charity)
	result := a.Assess(vr, &models.CrawlResult{SitemapURLs: []string{"x"}}, fullCoveragePages(profile.Charity), nil)

	require.Len(t, result.Findings, 2)
	assert.NotEqual(t, result.Findings[0].ID, result.Findings[1].ID)

	result.Dismiss(result.Findings[0].ID)
	assert.Len(t, result.Dismissed, 1)
	assert.False(t, result.Dismissed[result.Findings[1].ID])
}

func TestGradeBands(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "A"}, {90, "A"}, {89, "B"}, {80, "B"},
		{79, "C"}, {70, "C"}, {69, "D"}, {60, "D"}, {59, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, gradeFor(tt.score), "score %d", tt.score)
	}
}

func TestQualityScoreFloorsAtZero(t *testing.T) {
	vr := cleanValidation()
	for i := 0; i < 20; i++ {
		vr.Issues = append(vr.Issues, validate.Issue{
			Severity: validate.SeverityAdvisory,
			Category: validate.CategoryQuality,
			Message:  "problem " + string(rune('a'+i)),
		})
	}

	a := testAssessor(t, profile.Charity)
	result := a.Assess(vr, &models.CrawlResult{SitemapURLs: []string{"x"}}, fullCoveragePages(profile.Charity), nil)
	assert.Equal(t, 0, result.QualityScore)
}
