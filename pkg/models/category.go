package models

// PageCategory is the closed set of semantic page tags the classifier can
// assign. Every crawled page gets exactly one category; pages matching no
// signal are CategoryOther, never unclassified.
type PageCategory int

const (
	CategoryHome PageCategory = iota
	CategoryAbout
	CategoryServices
	CategoryContact
	CategoryGetHelp
	CategoryVolunteer
	CategoryDonate
	CategoryNews
	CategoryTeam
	CategoryPolicy
	CategoryFundingPriorities
	CategoryHowToApply
	CategoryPastGrants
	CategoryEligibility
	CategoryOther
)

// AllCategories lists every category in declaration order. Used for
// exhaustive iteration by the classifier and the coverage analysis.
var AllCategories = []PageCategory{
	CategoryHome,
	CategoryAbout,
	CategoryServices,
	CategoryContact,
	CategoryGetHelp,
	CategoryVolunteer,
	CategoryDonate,
	CategoryNews,
	CategoryTeam,
	CategoryPolicy,
	CategoryFundingPriorities,
	CategoryHowToApply,
	CategoryPastGrants,
	CategoryEligibility,
	CategoryOther,
}

var categoryNames = map[PageCategory]string{
	CategoryHome:              "home",
	CategoryAbout:             "about",
	CategoryServices:          "services",
	CategoryContact:           "contact",
	CategoryGetHelp:           "get-help",
	CategoryVolunteer:         "volunteer",
	CategoryDonate:            "donate",
	CategoryNews:              "news",
	CategoryTeam:              "team",
	CategoryPolicy:            "policy",
	CategoryFundingPriorities: "funding-priorities",
	CategoryHowToApply:        "how-to-apply",
	CategoryPastGrants:        "past-grants",
	CategoryEligibility:       "eligibility",
	CategoryOther:             "other",
}

// String returns the stable lowercase tag for the category.
func (c PageCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "other"
}

// ParsePageCategory maps a tag string back to its category.
// Unknown tags map to CategoryOther and ok=false.
func ParsePageCategory(s string) (PageCategory, bool) {
	for cat, name := range categoryNames {
		if name == s {
			return cat, true
		}
	}
	return CategoryOther, false
}

// MarshalText implements encoding.TextMarshaler so categories serialize as
// their tag strings in JSON snapshots.
func (c PageCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *PageCategory) UnmarshalText(text []byte) error {
	cat, _ := ParsePageCategory(string(text))
	*c = cat
	return nil
}
