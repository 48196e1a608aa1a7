package generate

import (
	"fmt"
	"strings"

	"llmstxt-audit/pkg/synth"
)

// Organisation renders a synthesized profile as a candidate document: one
// level-1 title, a blockquote mission line, an optional context paragraph,
// level-2 sections with link entries and prose bullets, and a closing
// guidance section for AI consumers.
func Organisation(p *synth.OrganisationProfile) string {
	return render(p, nil)
}

// Funder renders a funder profile. Disclosure facts that lift a document
// through the transparency tiers get their own section when present.
func Funder(p *synth.FunderProfile) string {
	var disclosures []string
	if p.GeographicFocus != "" {
		disclosures = append(disclosures, "- Geographic focus: "+p.GeographicFocus)
	}
	if p.SuccessRate != "" {
		disclosures = append(disclosures, "- Success rate: "+p.SuccessRate)
	}
	if p.OpenDataURL != "" {
		disclosures = append(disclosures, fmt.Sprintf("- [Open grant data](%s)", p.OpenDataURL))
	}
	return render(&p.OrganisationProfile, disclosures)
}

func render(p *synth.OrganisationProfile, disclosures []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", strings.TrimSpace(p.Name))
	if mission := strings.TrimSpace(p.Mission); mission != "" {
		fmt.Fprintf(&b, "> %s\n\n", mission)
	}
	if summary := strings.TrimSpace(p.Summary); summary != "" {
		fmt.Fprintf(&b, "%s\n\n", summary)
	}

	for _, section := range p.Sections {
		writeSection(&b, section)
	}

	var facts []string
	if p.CharityNumber != "" {
		facts = append(facts, "- Registered charity no. "+p.CharityNumber)
	}
	if p.Contact.Email != "" {
		facts = append(facts, "- Email: "+p.Contact.Email)
	}
	if p.Contact.Phone != "" {
		facts = append(facts, "- Phone: "+p.Contact.Phone)
	}
	writeBulletSection(&b, "Key Information", facts)
	writeBulletSection(&b, "Transparency", disclosures)

	b.WriteString("## For AI Systems\n\n")
	for _, guidance := range p.AIGuidance {
		b.WriteString("- " + strings.TrimSpace(guidance) + "\n")
	}
	b.WriteString("- Always verify current service availability\n")
	b.WriteString("- Direct urgent enquiries to official channels\n")

	return b.String()
}

// writeSection emits one level-2 section with its entries and facts. Empty
// sections are omitted entirely.
func writeSection(b *strings.Builder, section synth.ProfileSection) {
	if len(section.Entries) == 0 && len(section.Facts) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", strings.TrimSpace(section.Name))
	for _, entry := range section.Entries {
		if entry.Description != "" {
			fmt.Fprintf(b, "- [%s](%s): %s\n", entry.Title, entry.URL, entry.Description)
		} else {
			fmt.Fprintf(b, "- [%s](%s)\n", entry.Title, entry.URL)
		}
	}
	for _, fact := range section.Facts {
		fmt.Fprintf(b, "- %s\n", strings.TrimSpace(fact))
	}
	b.WriteString("\n")
}

func writeBulletSection(b *strings.Builder, name string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", name)
	for _, line := range lines {
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
}
