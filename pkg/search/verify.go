package search

import (
	"regexp"
	"strings"
)

// Match score system for candidate profiles:
//
//	100: first+last name AND company in the title
//	 90: first+last name, no company
//	 70: first OR last name AND company
//	 60: first OR last name, no company
//	 30: company only (wrong person)
//	  0: nothing matched
//
// A candidate is verified at score >= 70. Directors usually list their
// employer rather than their board seats, so name matching is the primary
// signal and company a bonus.
const verifiedThreshold = 70

// Verification is the outcome of matching one search result title
// against a director's name and company
type Verification struct {
	Score          int
	Verified       bool
	NameMatched    bool
	CompanyMatched bool
	MatchType      string
	QualityFlag    string
}

// common nickname pairs; matching either direction counts
var nicknames = map[string][]string{
	"william":     {"bill", "will", "billy"},
	"robert":      {"bob", "rob", "bobby"},
	"richard":     {"rick", "dick", "rich"},
	"james":       {"jim", "jimmy", "jamie"},
	"michael":     {"mike", "mick"},
	"thomas":      {"tom", "tommy"},
	"christopher": {"chris"},
	"joseph":      {"joe", "joey"},
	"daniel":      {"dan", "danny"},
	"anthony":     {"tony"},
	"elizabeth":   {"liz", "beth", "betsy"},
	"katherine":   {"kate", "kathy", "katie"},
	"margaret":    {"meg", "peggy", "maggie"},
	"patricia":    {"pat", "patty", "trish"},
	"susan":       {"sue", "susie"},
}

var nameSuffixes = map[string]bool{
	"jr": true, "jr.": true, "sr": true, "sr.": true,
	"ii": true, "iii": true, "iv": true,
	"phd": true, "ph.d.": true, "md": true, "m.d.": true,
	"cpa": true, "esq": true, "esq.": true,
}

// nameParts holds the first-name variations and last-name candidates
// extracted from a director's full name
type nameParts struct {
	firsts []string
	lasts  []string
}

func extractNameParts(name string) nameParts {
	cleaned := strings.ToLower(strings.TrimSpace(name))
	cleaned = strings.NewReplacer(",", " ", "(", " ", ")", " ", "\"", " ").Replace(cleaned)
	fields := strings.Fields(cleaned)

	var parts []string
	for _, f := range fields {
		if !nameSuffixes[f] {
			parts = append(parts, f)
		}
	}
	if len(parts) == 0 {
		return nameParts{}
	}

	first := parts[0]
	firsts := []string{first}
	if nicks, ok := nicknames[first]; ok {
		firsts = append(firsts, nicks...)
	}
	for formal, nicks := range nicknames {
		for _, nick := range nicks {
			if nick == first {
				firsts = append(firsts, formal)
			}
		}
	}

	var lasts []string
	if len(parts) > 1 {
		last := parts[len(parts)-1]
		if len(last) > 1 {
			lasts = append(lasts, last)
		}
	}

	return nameParts{firsts: firsts, lasts: lasts}
}

var companySuffixPattern = regexp.MustCompile(
	`(?i)\s*,?\s*(inc\.?|corp\.?|corporation|ltd\.?|llc|l\.l\.c\.?|plc|co\.?|company|limited|group)\s*$`)

var nonWordPattern = regexp.MustCompile(`[^\w\s-]`)

var companyNoiseWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"of": true, "in": true, "at": true, "by": true, "for": true, "on": true,
}

// companyWords extracts the significant words of a company name for
// title matching; suffixes and noise words are dropped, short acronyms
// (BXP, KLA) survive
func companyWords(company string) []string {
	name := strings.TrimSpace(company)
	if name == "" {
		return nil
	}
	orig := name

	for {
		stripped := companySuffixPattern.ReplaceAllString(name, "")
		if stripped == name {
			break
		}
		name = stripped
	}
	name = nonWordPattern.ReplaceAllString(strings.ToLower(name), " ")

	var words []string
	for _, w := range strings.Fields(name) {
		if companyNoiseWords[w] || isDigits(w) {
			continue
		}
		if len(w) > 3 {
			words = append(words, w)
		}
	}

	if len(words) == 0 && len(orig) >= 2 && len(orig) <= 4 {
		words = []string{strings.ToLower(orig)}
	}
	return words
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Verify scores one search result title against the director's name and
// company
func Verify(directorName, companyName, title string) Verification {
	titleLower := strings.ToLower(title)
	parts := extractNameParts(directorName)

	var hasFirst, hasLast bool
	for _, fn := range parts.firsts {
		if containsWord(titleLower, fn) {
			hasFirst = true
			break
		}
	}
	for _, ln := range parts.lasts {
		if containsWord(titleLower, ln) {
			hasLast = true
			break
		}
	}

	hasCompany := false
	for _, w := range companyWords(companyName) {
		if strings.Contains(titleLower, w) {
			hasCompany = true
			break
		}
	}

	v := Verification{
		NameMatched:    hasFirst || hasLast,
		CompanyMatched: hasCompany,
	}

	switch {
	case hasFirst && hasLast && hasCompany:
		v.Score, v.QualityFlag, v.MatchType = 100, "EXCELLENT", "full_name_and_company"
	case hasFirst && hasLast:
		v.Score, v.QualityFlag, v.MatchType = 90, "GOOD", "full_name_no_company"
	case (hasFirst || hasLast) && hasCompany:
		v.Score, v.QualityFlag, v.MatchType = 70, "GOOD", "partial_name_with_company"
	case hasFirst || hasLast:
		v.Score, v.QualityFlag, v.MatchType = 60, "WEAK", "partial_name_no_company"
	case hasCompany:
		v.Score, v.QualityFlag, v.MatchType = 30, "WRONG_PERSON", "company_only_no_name"
	default:
		v.Score, v.QualityFlag, v.MatchType = 0, "NO_MATCH", "no_match"
	}

	v.Verified = v.Score >= verifiedThreshold
	return v
}

var wordBoundary = regexp.MustCompile(`[\s\-–|,.:;()]+`)

func containsWord(text, word string) bool {
	for _, w := range wordBoundary.Split(text, -1) {
		if w == word {
			return true
		}
	}
	return false
}
