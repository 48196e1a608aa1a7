package synth

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"

	"llmstxt-audit/pkg/models"
)

// PayloadConfig bounds the analysis payload.
type PayloadConfig struct {
	MaxPageTokens  int // per-page body budget, 0 means DefaultMaxPageTokens
	MaxTotalTokens int // whole-payload budget, 0 means unlimited
}

// DefaultMaxPageTokens is the per-page body budget when none is configured.
const DefaultMaxPageTokens = 1024

// PayloadPage is one page prepared for analysis.
type PayloadPage struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Body        string `json:"body"`
	TokenCount  int    `json:"token_count"`
}

// PayloadSection groups payload pages under one category.
type PayloadSection struct {
	Category models.PageCategory `json:"category"`
	Pages    []PayloadPage       `json:"pages"`
}

// Payload is the category-grouped page evidence handed to an Analyzer.
type Payload struct {
	BaseURL     string           `json:"base_url"`
	Sections    []PayloadSection `json:"sections"`
	TotalTokens int              `json:"total_tokens"`
}

// BuildPayload groups extracted pages by category in the canonical category
// order, truncating oversized bodies to the per-page budget. Pages that
// would push the payload past the total budget are dropped whole, never
// split mid-page.
func BuildPayload(baseURL string, pages []models.ExtractedPage, cfg PayloadConfig) (*Payload, error) {
	maxPage := cfg.MaxPageTokens
	if maxPage <= 0 {
		maxPage = DefaultMaxPageTokens
	}

	byCategory := make(map[models.PageCategory][]models.ExtractedPage)
	for _, page := range pages {
		byCategory[page.Category] = append(byCategory[page.Category], page)
	}

	payload := &Payload{BaseURL: baseURL}
	for _, category := range models.AllCategories {
		group := byCategory[category]
		if len(group) == 0 {
			continue
		}
		section := PayloadSection{Category: category}
		for _, page := range group {
			body, err := truncateToBudget(page.BodyText, maxPage)
			if err != nil {
				return nil, fmt.Errorf("truncating %s: %w", page.URL, err)
			}
			pp := PayloadPage{
				URL:         page.URL,
				Title:       page.Title,
				Description: page.Description,
				Body:        body,
				TokenCount:  tokensOrEstimate(body),
			}
			if cfg.MaxTotalTokens > 0 && payload.TotalTokens+pp.TokenCount > cfg.MaxTotalTokens {
				continue
			}
			payload.TotalTokens += pp.TokenCount
			section.Pages = append(section.Pages, pp)
		}
		if len(section.Pages) > 0 {
			payload.Sections = append(payload.Sections, section)
		}
	}
	return payload, nil
}

// truncateToBudget returns the text unchanged when it fits the token
// budget, otherwise the first split chunk that does.
func truncateToBudget(text string, maxTokens int) (string, error) {
	if tokensOrEstimate(text) <= maxTokens {
		return text, nil
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(maxTokens),
		textsplitter.WithChunkOverlap(0),
		textsplitter.WithLenFunc(tokensOrEstimate),
	)
	parts, err := splitter.SplitText(text)
	if err != nil {
		return "", err
	}
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], nil
}
