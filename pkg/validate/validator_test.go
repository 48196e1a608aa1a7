package validate

import (
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmstxt-audit/pkg/profile"
)

func testValidator(t *testing.T, p profile.Profile) *Validator {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(&p, logrus.NewEntry(log))
}

const goodCharityDoc = `# Oakfield Trust

> Supporting families across Greater Manchester since 1986.

Oakfield Trust runs advice services and community programmes in the region.

## About

- [Our story](https://oakfield.org.uk/about): history and mission
- Registered charity no. 1123456

## Services

- [Advice service](https://oakfield.org.uk/services/advice): free family advice
- [Community hub](https://oakfield.org.uk/services/hub)

## Get Help

- [Get help](https://oakfield.org.uk/get-help): referrals and drop-ins

## Contact

- [Contact us](https://oakfield.org.uk/contact): hello@oakfield.org.uk, 0161 496 0000

## Donate

- [Donate](https://oakfield.org.uk/donate)

## Volunteer

- [Volunteer](https://oakfield.org.uk/volunteer)
`

func TestValidate_WellFormedDocument(t *testing.T) {
	v := testValidator(t, profile.Charity)
	result := v.Validate(goodCharityDoc)

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Issues)
	assert.Equal(t, 1.0, result.StructuralCompliance)
	assert.Equal(t, 1.0, result.SectorCompleteness)
	assert.True(t, result.HasContact)
	assert.Len(t, result.Sections, 6)
	assert.Equal(t, "About", result.Sections[0].Name)
	assert.True(t, result.Sections[0].NonEmpty)
}

func TestValidate_MissingTitleIsBlocking(t *testing.T) {
	v := testValidator(t, profile.Charity)
	result := v.Validate("Some text without any heading\n\n## About\n- [x](https://a.org)\n")

	assert.False(t, result.IsValid)

	var blocking []Issue
	for _, issue := range result.Issues {
		if issue.Severity == SeverityBlocking {
			blocking = append(blocking, issue)
		}
	}
	require.NotEmpty(t, blocking)
	assert.Less(t, result.StructuralCompliance, 1.0)
}

func TestValidate_SecondTitleIsBlocking(t *testing.T) {
	doc := "# One\n\n> Summary here.\n\n# Two\n\n## About\n- [x](https://a.org)\n"
	v := testValidator(t, profile.Charity)
	result := v.Validate(doc)

	assert.False(t, result.IsValid)
	found := false
	for _, issue := range result.Issues {
		if strings.Contains(issue.Message, "more than one level-1 heading") {
			found = true
			assert.Equal(t, 5, issue.Line)
		}
	}
	assert.True(t, found)
}

func TestValidate_MissingSummaryIsAdvisory(t *testing.T) {
	doc := "# Oakfield Trust\n\n## About\n- [x](https://a.org)\n"
	v := testValidator(t, profile.Charity)
	result := v.Validate(doc)

	assert.True(t, result.IsValid, "advisory issues do not invalidate the document")
	found := false
	for _, issue := range result.Issues {
		if strings.Contains(issue.Message, "missing blockquote summary") {
			found = true
			assert.Equal(t, SeverityAdvisory, issue.Severity)
		}
	}
	assert.True(t, found)
}

func TestValidate_DeepHeadingIsAdvisory(t *testing.T) {
	doc := "# T\n\n> S.\n\n## About\n\n### Deep\n- [x](https://a.org)\n"
	v := testValidator(t, profile.Charity)
	result := v.Validate(doc)

	assert.True(t, result.IsValid)
	found := false
	for _, issue := range result.Issues {
		if strings.Contains(issue.Message, "deeper than level 2") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_UnrecognizedSectionLine(t *testing.T) {
	doc := "# T\n\n> S.\n\n## About\nThis is a bare paragraph inside a section.\n"
	v := testValidator(t, profile.Charity)
	result := v.Validate(doc)

	assert.True(t, result.IsValid)
	found := false
	for _, issue := range result.Issues {
		if strings.Contains(issue.Message, "not a link entry or bullet") {
			found = true
			assert.Equal(t, SeverityInformational, issue.Severity)
			assert.Equal(t, 6, issue.Line)
		}
	}
	assert.True(t, found)
}

func TestValidate_SectorCompleteness(t *testing.T) {
	// Only About and Contact of the six recommended charity sections
	doc := "# T\n\n> S.\n\n## About\n- [a](https://a.org): xyz\n\n## Contact\n- hello@a.org\n"
	v := testValidator(t, profile.Charity)
	result := v.Validate(doc)

	assert.InDelta(t, 2.0/6.0, result.SectorCompleteness, 0.001)

	// Missing required sections are advisory, missing optional ones informational
	var advisory, informational int
	for _, issue := range result.Issues {
		if issue.Category != CategoryCompleteness {
			continue
		}
		switch issue.Severity {
		case SeverityAdvisory:
			advisory++
		case SeverityInformational:
			informational++
		}
	}
	assert.Equal(t, 0, advisory, "both required sections are present")
	assert.Equal(t, 4, informational)
}

func TestValidate_EmptySectionNotCounted(t *testing.T) {
	doc := "# T\n\n> S.\n\n## About\n\n## Contact\n- hello@a.org\n"
	v := testValidator(t, profile.Charity)
	result := v.Validate(doc)

	require.Len(t, result.Sections, 2)
	assert.False(t, result.Sections[0].NonEmpty)
	assert.True(t, result.Sections[1].NonEmpty)
	assert.InDelta(t, 1.0/6.0, result.SectorCompleteness, 0.001)
}

func TestValidate_FunderTransparencyBaseline(t *testing.T) {
	// Mandatory fields present but no success-rate disclosure
	doc := `# Birchwood Foundation

> Grants for community groups in the North West of England.

## About

- [About](https://birchwood.example.org/about): our history

## Funding Priorities

- [What we fund](https://birchwood.example.org/priorities): community projects in the region

## How to Apply

- [Apply](https://birchwood.example.org/apply): application process

## Eligibility

- [Who can apply](https://birchwood.example.org/eligibility)

## Past Grants

- [Grants awarded](https://birchwood.example.org/grants)

## Contact

- [Contact](https://birchwood.example.org/contact): grants@birchwood.example.org
`
	v := testValidator(t, profile.Funder)
	result := v.Validate(doc)

	assert.True(t, result.IsValid)
	assert.Equal(t, profile.TierBasic, result.TransparencyTier)
}

func TestValidate_FunderTransparencyEscalation(t *testing.T) {
	base := `# Birchwood Foundation

> Grants for community groups across the UK.

## Funding Priorities

- [What we fund](https://birchwood.example.org/priorities)

## How to Apply

- [Apply](https://birchwood.example.org/apply)

## Contact

- grants@birchwood.example.org
`
	v := testValidator(t, profile.Funder)

	withRate := base + "\n- Our success rate last year was 32%.\n"
	assert.Equal(t, profile.TierTransparent, v.Validate(withRate).TransparencyTier)

	withData := withRate + "\n- [Grant data](https://birchwood.example.org/grants.csv)\n"
	assert.Equal(t, profile.TierOpen, v.Validate(withData).TransparencyTier)
}

func TestValidate_NeverPanicsOnGarbage(t *testing.T) {
	inputs := []string{
		"",
		"\n\n\n",
		"####### depth",
		strings.Repeat("> quote\n", 100),
		"# \n## \n",
	}
	v := testValidator(t, profile.Funder)
	for _, input := range inputs {
		result := v.Validate(input)
		require.NotNil(t, result)
	}
}

func TestValidate_CharityHasNoTransparencyTier(t *testing.T) {
	v := testValidator(t, profile.Charity)
	result := v.Validate(goodCharityDoc)
	assert.Empty(t, string(result.TransparencyTier))
}
