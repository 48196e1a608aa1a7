package synth

import (
	"context"

	"llmstxt-audit/pkg/models"
)

// LinkEntry is one linkable fact in a synthesized profile.
type LinkEntry struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// ProfileSection is one named section of a synthesized profile.
type ProfileSection struct {
	Name    string      `json:"name"`
	Entries []LinkEntry `json:"entries,omitempty"`
	Facts   []string    `json:"facts,omitempty"`
}

// OrganisationProfile is the structured understanding of a crawled
// organisation, ready for document generation.
type OrganisationProfile struct {
	Name          string              `json:"name"`
	Mission       string              `json:"mission"`
	Summary       string              `json:"summary,omitempty"`
	CharityNumber string              `json:"charity_number,omitempty"`
	Contact       models.ContactFacts `json:"contact"`
	Sections      []ProfileSection    `json:"sections"`

	// AIGuidance holds per-organisation representation guidance bullets for
	// the document's closing section.
	AIGuidance []string `json:"ai_guidance,omitempty"`
}

// FunderProfile extends OrganisationProfile with grant-maker disclosures.
type FunderProfile struct {
	OrganisationProfile

	GeographicFocus string `json:"geographic_focus,omitempty"`
	SuccessRate     string `json:"success_rate,omitempty"`
	OpenDataURL     string `json:"open_data_url,omitempty"`
}

// Analyzer turns a payload of crawled evidence into a structured profile.
// Implementations typically call a language model; they live outside this
// module and are injected where synthesis is needed.
type Analyzer interface {
	AnalyzeOrganisation(ctx context.Context, payload *Payload) (*OrganisationProfile, error)
	AnalyzeFunder(ctx context.Context, payload *Payload) (*FunderProfile, error)
}
