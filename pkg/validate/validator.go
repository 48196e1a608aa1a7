package validate

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"llmstxt-audit/pkg/profile"
)

// Severity ranks validation issues. Blocking issues break the format
// contract; advisory issues reduce usefulness; informational issues are
// worth a look.
type Severity string

const (
	SeverityBlocking      Severity = "blocking"
	SeverityAdvisory      Severity = "advisory"
	SeverityInformational Severity = "informational"
)

// penalty weights per issue severity, relative to a budget of 10.
var severityPenalty = map[Severity]float64{
	SeverityBlocking:      1.0,
	SeverityAdvisory:      0.5,
	SeverityInformational: 0.1,
}

// Issue categories, used downstream when scoring.
const (
	CategoryStructure    = "structure"
	CategoryCompleteness = "completeness"
	CategoryQuality      = "quality"
)

// Issue is one problem found in a candidate document. Line is 1-based, 0
// when the issue is not tied to a specific line.
type Issue struct {
	Severity Severity `json:"severity"`
	Category string   `json:"category"`
	Message  string   `json:"message"`
	Line     int      `json:"line,omitempty"`
}

// Section records one level-2 section observed in the document.
type Section struct {
	Name     string `json:"name"`
	NonEmpty bool   `json:"non_empty"`
	Line     int    `json:"line"`
}

// Result is the outcome of validating one document. IsValid is true iff no
// blocking issue was found.
type Result struct {
	IsValid              bool                     `json:"is_valid"`
	Issues               []Issue                  `json:"issues"`
	StructuralCompliance float64                  `json:"structural_compliance"`
	SectorCompleteness   float64                  `json:"sector_completeness"`
	TransparencyTier     profile.TransparencyTier `json:"transparency_tier,omitempty"`
	Sections             []Section                `json:"sections"`
	HasContact           bool                     `json:"has_contact"`
}

var (
	linkEntryRe   = regexp.MustCompile(`^- \[[^\]]+\]\([^)]+\)(?::\s*.*)?$`)
	proseBulletRe = regexp.MustCompile(`^- \S`)
	emailRe       = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe       = regexp.MustCompile(`(?:\+44\s?\d{2,4}|\(?0\d{2,4}\)?)\s?\d{3,4}\s?\d{3,4}`)
	dataLinkRe    = regexp.MustCompile(`(?i)https?://[^\s)]+\.(?:json|csv|xlsx?)\b`)

	geographicTerms = []string{
		"uk", "united kingdom", "england", "scotland", "wales",
		"northern ireland", "national", "nationwide", "local", "region",
		"county", "city", "borough", "geographic",
	}
	successRateTerms = []string{"success rate", "approval rate", "applications funded", "% of applications"}
	openDataTerms    = []string{"360giving", "360 giving", "open data"}
)

// Validator checks candidate documents against a profile. Validation never
// fails with an error: malformed input yields issues, not errors.
type Validator struct {
	profile *profile.Profile
	log     *logrus.Entry
}

// New creates a Validator for the given profile.
func New(p *profile.Profile, log *logrus.Entry) *Validator {
	return &Validator{profile: p, log: log}
}

// Validate runs the structural and completeness passes over the document.
func (v *Validator) Validate(doc string) *Result {
	result := &Result{}

	v.structuralPass(doc, result)
	result.StructuralCompliance = complianceScore(result.Issues)
	v.completenessPass(doc, result)

	result.IsValid = true
	for _, issue := range result.Issues {
		if issue.Severity == SeverityBlocking {
			result.IsValid = false
			break
		}
	}

	v.log.WithFields(logrus.Fields{
		"valid":      result.IsValid,
		"issues":     len(result.Issues),
		"structural": result.StructuralCompliance,
		"sector":     result.SectorCompleteness,
	}).Debug("Validated candidate document")

	return result
}

// structuralPass walks the document line by line checking the format
// grammar: one H1 first, a blockquote summary right after it, uniform H2
// sections, and recognizable entry lines inside sections.
func (v *Validator) structuralPass(doc string, result *Result) {
	lines := strings.Split(doc, "\n")

	const (
		stateExpectTitle = iota
		stateExpectSummary
		stateBody
	)
	state := stateExpectTitle
	seenH1 := false
	inSection := false

	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		isH1 := strings.HasPrefix(trimmed, "# ")
		isH2 := strings.HasPrefix(trimmed, "## ")
		isDeepHeading := strings.HasPrefix(trimmed, "### ")
		isQuote := strings.HasPrefix(trimmed, ">")

		switch {
		case isDeepHeading:
			result.Issues = append(result.Issues, Issue{
				Severity: SeverityAdvisory,
				Category: CategoryStructure,
				Message:  "section headings deeper than level 2 are not part of the format",
				Line:     lineNo,
			})
			continue

		case isH1:
			if seenH1 {
				result.Issues = append(result.Issues, Issue{
					Severity: SeverityBlocking,
					Category: CategoryStructure,
					Message:  "document has more than one level-1 heading",
					Line:     lineNo,
				})
				continue
			}
			seenH1 = true
			if state != stateExpectTitle {
				result.Issues = append(result.Issues, Issue{
					Severity: SeverityBlocking,
					Category: CategoryStructure,
					Message:  "level-1 heading must be the first content line",
					Line:     lineNo,
				})
			}
			state = stateExpectSummary
			continue

		case isH2:
			if state == stateExpectSummary {
				result.Issues = append(result.Issues, Issue{
					Severity: SeverityAdvisory,
					Category: CategoryStructure,
					Message:  "missing blockquote summary after the title",
					Line:     lineNo,
				})
			}
			state = stateBody
			inSection = true
			continue
		}

		switch state {
		case stateExpectTitle:
			result.Issues = append(result.Issues, Issue{
				Severity: SeverityBlocking,
				Category: CategoryStructure,
				Message:  "content before the level-1 heading",
				Line:     lineNo,
			})
			state = stateBody

		case stateExpectSummary:
			if !isQuote {
				result.Issues = append(result.Issues, Issue{
					Severity: SeverityAdvisory,
					Category: CategoryStructure,
					Message:  "missing blockquote summary after the title",
					Line:     lineNo,
				})
			}
			state = stateBody

		case stateBody:
			if !inSection {
				// Free paragraphs between the summary and the first section
				// are part of the format.
				continue
			}
			if linkEntryRe.MatchString(trimmed) || proseBulletRe.MatchString(trimmed) {
				continue
			}
			result.Issues = append(result.Issues, Issue{
				Severity: SeverityInformational,
				Category: CategoryStructure,
				Message:  "section content line is not a link entry or bullet",
				Line:     lineNo,
			})
		}
	}

	if !seenH1 {
		result.Issues = append(result.Issues, Issue{
			Severity: SeverityBlocking,
			Category: CategoryStructure,
			Message:  "document has no level-1 heading",
		})
	}
}

// completenessPass parses the document as markdown, records its sections,
// and checks the profile's recommended sections, contact presence, and
// transparency disclosures.
func (v *Validator) completenessPass(doc string, result *Result) {
	source := []byte(doc)
	reader := text.NewReader(source)
	root := goldmark.DefaultParser().Parse(reader)

	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Level != 2 {
			return ast.WalkContinue, nil
		}
		section := Section{
			Name:     headingText(heading, source),
			NonEmpty: sectionHasContent(heading),
			Line:     headingLine(heading, source),
		}
		result.Sections = append(result.Sections, section)
		return ast.WalkSkipChildren, nil
	})

	present := make(map[string]bool, len(result.Sections))
	for _, s := range result.Sections {
		present[strings.ToLower(s.Name)] = s.NonEmpty
	}

	recommended := v.profile.RecommendedSections
	found := 0
	for _, name := range recommended {
		if present[strings.ToLower(name)] {
			found++
			continue
		}
		severity := SeverityAdvisory
		if !v.profile.IsRequired(name) {
			severity = SeverityInformational
		}
		result.Issues = append(result.Issues, Issue{
			Severity: severity,
			Category: CategoryCompleteness,
			Message:  "recommended section missing or empty: " + name,
		})
	}
	if len(recommended) > 0 {
		result.SectorCompleteness = float64(found) / float64(len(recommended))
	}

	result.HasContact = emailRe.MatchString(doc) || phoneRe.MatchString(doc)
	if !result.HasContact {
		result.Issues = append(result.Issues, Issue{
			Severity: SeverityAdvisory,
			Category: CategoryQuality,
			Message:  "no contact information found in the document",
		})
	}

	facts := profile.DocumentFacts{
		SectionsPresent:         sectionsByName(result.Sections),
		HasContact:              result.HasContact,
		MentionsGeographicFocus: containsAny(doc, geographicTerms),
		MentionsSuccessRate:     containsAny(doc, successRateTerms),
		HasMachineReadableLink:  dataLinkRe.MatchString(doc) || containsAny(doc, openDataTerms),
	}
	if v.profile.HasTransparencyTiers {
		result.TransparencyTier = v.profile.Transparency(facts)
	}
}

func sectionsByName(sections []Section) map[string]bool {
	m := make(map[string]bool, len(sections))
	for _, s := range sections {
		m[s.Name] = s.NonEmpty
	}
	return m
}

func containsAny(doc string, terms []string) bool {
	lower := strings.ToLower(doc)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// complianceScore maps accumulated issue penalties onto [0,1].
func complianceScore(issues []Issue) float64 {
	var penalty float64
	for _, issue := range issues {
		penalty += severityPenalty[issue.Severity]
	}
	score := 1.0 - penalty/10.0
	if score < 0 {
		score = 0
	}
	return score
}

// headingText gathers the literal text of a heading node.
func headingText(heading *ast.Heading, source []byte) string {
	var buf bytes.Buffer
	for child := heading.FirstChild(); child != nil; child = child.NextSibling() {
		if textNode, ok := child.(*ast.Text); ok {
			buf.Write(textNode.Segment.Value(source))
		}
	}
	return strings.TrimSpace(buf.String())
}

// sectionHasContent reports whether any non-heading block follows the
// heading before the next heading.
func sectionHasContent(heading *ast.Heading) bool {
	for sibling := heading.NextSibling(); sibling != nil; sibling = sibling.NextSibling() {
		if _, isHeading := sibling.(*ast.Heading); isHeading {
			return false
		}
		return true
	}
	return false
}

// headingLine computes the 1-based source line of a heading.
func headingLine(heading *ast.Heading, source []byte) int {
	if heading.Lines().Len() == 0 {
		return 0
	}
	start := heading.Lines().At(0).Start
	return bytes.Count(source[:start], []byte("\n")) + 1
}
