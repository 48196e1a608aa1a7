package extract

import (
	"regexp"
	"strings"

	"llmstxt-audit/pkg/models"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// UK landline/mobile formats: +44 or 0 prefix, then 9-10 digits with
	// optional spacing. Matches "020 7946 0000", "+44 20 7946 0000",
	// "07700 900123".
	ukPhoneRe = regexp.MustCompile(`(?:\+44\s?\d{2,4}|\(?0\d{2,4}\)?)\s?\d{3,4}\s?\d{3,4}`)

	// "Registered charity no. 1234567" and close variants, including
	// Scottish SC-prefixed numbers.
	charityNumberRe = regexp.MustCompile(`(?i)registered\s+charity\s+(?:number|no\.?)[:\s]*((?:SC)?\d{6,8})`)
)

// ExtractContacts finds the first email address and UK phone number in the
// page. The visible text is searched first, then the raw HTML, which catches
// addresses living only in mailto: links.
func ExtractContacts(bodyText, rawHTML string) models.ContactFacts {
	facts := models.ContactFacts{}

	if m := emailRe.FindString(bodyText); m != "" {
		facts.Email = m
	} else if m := emailRe.FindString(rawHTML); m != "" {
		facts.Email = m
	}

	if m := ukPhoneRe.FindString(bodyText); m != "" {
		facts.Phone = strings.TrimSpace(m)
	}

	return facts
}

// ExtractCharityNumber finds a declared charity registration number, e.g.
// "Registered charity no. 1234567" yields "1234567". Returns an empty string
// when none is declared.
func ExtractCharityNumber(bodyText string) string {
	if m := charityNumberRe.FindStringSubmatch(bodyText); m != nil {
		return strings.ToUpper(m[1])
	}
	return ""
}
