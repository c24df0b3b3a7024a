package search

import (
	"regexp"
	"strings"
)

// Input column names recognized on task rows. The *_clean variants are
// produced during partitioning; the raw names are accepted as fallback.
const (
	ColumnSearchQuery   = "search_query"
	ColumnDirectorName  = "director_name"
	ColumnDirectorClean = "director_name_clean"
	ColumnCompanyName   = "company_name"
	ColumnCompanyClean  = "company_name_clean"
)

var genSuffixPattern = regexp.MustCompile(`(?i)\b(Jr\.?|Sr\.?|I{1,3}|IV|V|VI|VII|VIII|2nd|3rd|4th)\b`)

var credentialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bPhD\.?\b`),
	regexp.MustCompile(`(?i)\bPh\.D\.?\b`),
	regexp.MustCompile(`(?i)\bM\.?D\.?\b`),
	regexp.MustCompile(`(?i)\bM\.?B\.?A\.?\b`),
	regexp.MustCompile(`(?i)\bC\.?P\.?A\.?\b`),
	regexp.MustCompile(`(?i)\bCFA\b`),
	regexp.MustCompile(`(?i)\bJ\.?D\.?\b`),
	regexp.MustCompile(`(?i)\bEsq\.?\b`),
	regexp.MustCompile(`(?i)\bP\.?E\.?\b`),
	regexp.MustCompile(`(?i)\bDr\.?\b`),
}

var whitespacePattern = regexp.MustCompile(`\s+`)
var commaPattern = regexp.MustCompile(`\s*,\s*`)

// CleanDirectorName strips professional credentials from a director's
// name while preserving generational suffixes (Jr, Sr, III)
func CleanDirectorName(name string) string {
	genSuffix := genSuffixPattern.FindString(name)

	cleaned := name
	for _, p := range credentialPatterns {
		cleaned = p.ReplaceAllString(cleaned, "")
	}
	if genSuffix != "" {
		cleaned = genSuffixPattern.ReplaceAllString(cleaned, "")
	}

	cleaned = commaPattern.ReplaceAllString(cleaned, " ")
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if genSuffix != "" {
		cleaned = cleaned + " " + genSuffix
	}
	return strings.TrimSpace(cleaned)
}

// CleanCompanyName standardizes a company name for search matching by
// dropping legal suffixes
func CleanCompanyName(name string) string {
	cleaned := name
	for {
		stripped := companySuffixPattern.ReplaceAllString(cleaned, "")
		if stripped == cleaned {
			break
		}
		cleaned = stripped
	}
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(cleaned, " "))
}

// BuildQuery generates the search query for a director/company pair:
// "FirstName LastName CompanyName"
func BuildQuery(directorName, companyName string) string {
	name := CleanDirectorName(directorName)
	company := CleanCompanyName(companyName)
	if name == "" || company == "" {
		return ""
	}
	return name + " " + company
}
