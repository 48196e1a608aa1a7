package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"llmstxt-audit/pkg/models"
	"llmstxt-audit/pkg/utils"
)

// strippedSelectors are removed before body text extraction. They hold
// chrome and scripting, not page content.
const strippedSelectors = "script, style, nav, header, footer, aside, noscript, iframe"

// ExtractContent distills a fetched page into its audit-relevant facts.
// It is deterministic: the same HTML always yields the same ExtractedPage.
func ExtractContent(page *models.FetchedPage) (*models.ExtractedPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.RawHTML))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", utils.ErrParsing, page.URL, err)
	}

	// Strip chrome first so titles, headings, and body text all come from
	// the content that survives.
	doc.Find(strippedSelectors).Remove()

	extracted := &models.ExtractedPage{
		URL:         page.URL,
		Title:       pageTitle(doc, page.Title),
		Description: pageDescription(doc),
	}

	doc.Find("h1, h2").Each(func(_ int, sel *goquery.Selection) {
		heading := collapseWhitespace(sel.Text())
		if heading != "" {
			extracted.Headings = append(extracted.Headings, heading)
		}
	})

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	extracted.BodyText = collapseWhitespace(body.Text())

	contact := ExtractContacts(extracted.BodyText, page.RawHTML)
	if contact.Email != "" || contact.Phone != "" {
		extracted.Contact = &contact
	}
	extracted.CharityNumber = ExtractCharityNumber(extracted.BodyText)

	return extracted, nil
}

// pageTitle prefers the document title, falling back to the first h1 and
// finally to whatever the crawler recorded at fetch time.
func pageTitle(doc *goquery.Document, fetched string) string {
	if title := collapseWhitespace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if h1 := collapseWhitespace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return fetched
}

// pageDescription reads the meta description, falling back to the Open Graph
// description.
func pageDescription(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		if desc := collapseWhitespace(content); desc != "" {
			return desc
		}
	}
	if content, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
		return collapseWhitespace(content)
	}
	return ""
}

// collapseWhitespace trims and folds all whitespace runs to single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
