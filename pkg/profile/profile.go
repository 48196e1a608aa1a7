package profile

import (
	"fmt"
	"strings"

	"llmstxt-audit/pkg/models"
	"llmstxt-audit/pkg/utils"
)

// TransparencyTier is an ordered disclosure level a funder document can
// reach. Each tier requires everything the tiers below it require.
type TransparencyTier string

const (
	TierMinimal     TransparencyTier = "Minimal"
	TierBasic       TransparencyTier = "Basic"
	TierTransparent TransparencyTier = "Transparent"
	TierOpen        TransparencyTier = "Open"
)

// DocumentFacts are the disclosure signals observed in a candidate
// document, consumed by the tier checklist.
type DocumentFacts struct {
	SectionsPresent         map[string]bool // section name -> present and non-empty
	HasContact              bool
	MentionsGeographicFocus bool
	MentionsSuccessRate     bool
	HasMachineReadableLink  bool
}

// Profile describes what a complete document looks like for one kind of
// organisation.
type Profile struct {
	Name string

	// RequiredSections must be present for the document to be considered
	// minimally useful. They weigh double in completeness scoring.
	RequiredSections []string

	// RecommendedSections are the full expected section set, required ones
	// included.
	RecommendedSections []string

	// ExpectedCategories are the page categories a crawl of this kind of
	// organisation should surface somewhere.
	ExpectedCategories []models.PageCategory

	// HasTransparencyTiers marks profiles whose documents are graded on the
	// disclosure checklist.
	HasTransparencyTiers bool
}

// Charity is the profile for service-delivering organisations.
var Charity = Profile{
	Name:             "charity",
	RequiredSections: []string{"About", "Contact"},
	RecommendedSections: []string{
		"About",
		"Services",
		"Get Help",
		"Contact",
		"Donate",
		"Volunteer",
	},
	ExpectedCategories: []models.PageCategory{
		models.CategoryHome,
		models.CategoryAbout,
		models.CategoryServices,
		models.CategoryContact,
		models.CategoryGetHelp,
		models.CategoryDonate,
	},
}

// Funder is the profile for grant-making organisations.
var Funder = Profile{
	Name:             "funder",
	RequiredSections: []string{"About", "Funding Priorities", "Contact"},
	RecommendedSections: []string{
		"About",
		"Funding Priorities",
		"How to Apply",
		"Eligibility",
		"Past Grants",
		"Contact",
	},
	ExpectedCategories: []models.PageCategory{
		models.CategoryHome,
		models.CategoryAbout,
		models.CategoryContact,
		models.CategoryFundingPriorities,
		models.CategoryHowToApply,
		models.CategoryEligibility,
		models.CategoryPastGrants,
	},
	HasTransparencyTiers: true,
}

// ByName resolves a profile name.
func ByName(name string) (*Profile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "charity":
		p := Charity
		return &p, nil
	case "funder":
		p := Funder
		return &p, nil
	default:
		return nil, fmt.Errorf("%w: unknown profile %q (want charity or funder)", utils.ErrConfigValidation, name)
	}
}

// IsRequired reports whether the named section is required by the profile.
func (p *Profile) IsRequired(section string) bool {
	for _, s := range p.RequiredSections {
		if strings.EqualFold(s, section) {
			return true
		}
	}
	return false
}

// IsRecommended reports whether the named section belongs to the profile's
// expected section set.
func (p *Profile) IsRecommended(section string) bool {
	for _, s := range p.RecommendedSections {
		if strings.EqualFold(s, section) {
			return true
		}
	}
	return false
}

// Transparency evaluates the disclosure checklist against the observed
// facts. An entity only reaches a tier when every requirement of all lower
// tiers is also met. Profiles without tiers always report TierMinimal.
func (p *Profile) Transparency(f DocumentFacts) TransparencyTier {
	if !p.HasTransparencyTiers {
		return TierMinimal
	}

	// Basic: the mandatory disclosures
	if !f.MentionsGeographicFocus || !f.HasContact {
		return TierMinimal
	}

	// Transparent: Basic plus success-rate and application detail
	applicationDetail := f.SectionsPresent["How to Apply"] || f.SectionsPresent["Eligibility"]
	if !f.MentionsSuccessRate || !applicationDetail {
		return TierBasic
	}

	// Open: Transparent plus an open machine-readable data source
	if !f.HasMachineReadableLink {
		return TierTransparent
	}
	return TierOpen
}
