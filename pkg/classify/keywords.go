package classify

import "llmstxt-audit/pkg/models"

// categorySignals holds the vocabulary for one page category. Path terms are
// matched against the URL path, keywords against titles, headings, and body
// text.
type categorySignals struct {
	pathTerms []string
	keywords  []string
}

// signals maps each category to its vocabulary. CategoryHome is handled
// structurally (root path), not by keyword.
var signals = map[models.PageCategory]categorySignals{
	models.CategoryAbout: {
		pathTerms: []string{"about", "who-we-are", "our-story", "our-history", "mission"},
		keywords:  []string{"about us", "who we are", "our story", "our mission", "our history", "our vision"},
	},
	models.CategoryServices: {
		pathTerms: []string{"services", "what-we-do", "our-work", "programmes", "programs", "projects"},
		keywords:  []string{"our services", "what we do", "our work", "our programmes", "our projects"},
	},
	models.CategoryContact: {
		pathTerms: []string{"contact", "get-in-touch", "find-us"},
		keywords:  []string{"contact us", "get in touch", "find us", "opening hours", "phone", "email us"},
	},
	models.CategoryGetHelp: {
		pathTerms: []string{"get-help", "get-support", "need-help", "advice", "helpline", "referral"},
		keywords:  []string{"get help", "get support", "need help", "helpline", "referral", "advice line", "crisis"},
	},
	models.CategoryVolunteer: {
		pathTerms: []string{"volunteer", "volunteering", "get-involved"},
		keywords:  []string{"volunteer", "volunteering", "get involved", "join us"},
	},
	models.CategoryDonate: {
		pathTerms: []string{"donate", "donation", "give", "fundraise", "fundraising", "support-us"},
		keywords:  []string{"donate", "donation", "fundraise", "fundraising", "support us", "give today", "leave a legacy"},
	},
	models.CategoryNews: {
		pathTerms: []string{"news", "blog", "stories", "press", "updates", "events"},
		keywords:  []string{"latest news", "blog", "press release", "our stories", "events"},
	},
	models.CategoryTeam: {
		pathTerms: []string{"team", "staff", "people", "trustees", "board"},
		keywords:  []string{"our team", "our people", "our staff", "trustees", "board of directors", "patrons"},
	},
	models.CategoryPolicy: {
		pathTerms: []string{"policy", "policies", "privacy", "safeguarding", "terms", "complaints", "annual-report", "accounts"},
		keywords:  []string{"privacy policy", "safeguarding", "terms and conditions", "complaints procedure", "annual report", "annual accounts"},
	},
	models.CategoryFundingPriorities: {
		pathTerms: []string{"funding-priorities", "what-we-fund", "priorities", "funding-themes", "grants-programmes"},
		keywords:  []string{"funding priorities", "what we fund", "funding themes", "our priorities", "grant programmes"},
	},
	models.CategoryHowToApply: {
		pathTerms: []string{"how-to-apply", "apply-now", "application", "applying", "apply-for-a-grant"},
		keywords:  []string{"how to apply", "apply for a grant", "application process", "application form", "apply online", "deadlines"},
	},
	models.CategoryPastGrants: {
		pathTerms: []string{"past-grants", "grants-awarded", "previous-grants", "grants-made", "who-we-have-funded"},
		keywords:  []string{"grants awarded", "past grants", "previous grants", "who we have funded", "recent grants", "grants made"},
	},
	models.CategoryEligibility: {
		pathTerms: []string{"eligibility", "who-can-apply", "criteria", "can-we-help"},
		keywords:  []string{"eligibility", "who can apply", "eligibility criteria", "are you eligible", "exclusions"},
	},
}

// tiePriority ranks categories for tie-breaking, most specific intent first
// within equal scores.
var tiePriority = []models.PageCategory{
	models.CategoryHome,
	models.CategoryContact,
	models.CategoryGetHelp,
	models.CategoryServices,
	models.CategoryAbout,
	models.CategoryFundingPriorities,
	models.CategoryHowToApply,
	models.CategoryEligibility,
	models.CategoryPastGrants,
	models.CategoryDonate,
	models.CategoryVolunteer,
	models.CategoryTeam,
	models.CategoryNews,
	models.CategoryPolicy,
	models.CategoryOther,
}
