// Package classify decides whether a scraped account looks like a person or
// an organization.
package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Kind is the outcome of a classification.
type Kind string

const (
	KindPerson       Kind = "person"
	KindOrganization Kind = "organization"
)

// Rule names reported by Explain.
const (
	RuleLegalSuffix = "legal_suffix"
	RuleNameNoun    = "name_indicator"
	RuleBioPhrase   = "bio_phrase"
	RuleBrandCasing = "brand_casing"
)

// legalSuffixes match at the start of any word after the first, so "Acme
// Corporation" and "Globex Incorporated" hit while "Incognito Jane" does not.
var legalSuffixes = []string{
	" inc",
	" ltd",
	" llc",
	" corp",
	" gmbh",
}

// legalTokens match only as a whole word after the first. "ag" as a prefix
// would catch surnames like Agarwal and Agner.
var legalTokens = map[string]struct{}{
	"ag": {},
}

// nameIndicators match anywhere in the name.
var nameIndicators = []string{
	"company",
	"group",
	"agency",
	"network",
	"foundation",
	"institute",
	"association",
	"university",
	"college",
	"capital",
	"ventures",
	"studio",
	"community",
	"academy",
	"club",
	"media",
	"podcast",
	"labs",
	"solutions",
	"consulting",
	"partners",
	"holdings",
	"magazine",
	"official",
	"school",
}

// bioPhrases are self-descriptions organizations use and people rarely do.
var bioPhrases = []string{
	"is a company",
	"we are a",
	"our team",
	"our mission",
	"our company",
	"our clients",
	"our customers",
	"founded in",
	"headquartered",
	"is a leading",
	"official account",
	"official page",
	"follow us",
}

// Classify returns KindOrganization when name, bio or headline carry an
// organization signal, KindPerson otherwise. Headline is accepted for
// symmetry with the provider payloads but carries no rule of its own.
func Classify(name, bio, headline string) Kind {
	if rule := Explain(name, bio, headline); rule != "" {
		return KindOrganization
	}
	return KindPerson
}

// IsOrganization is shorthand for Classify(...) == KindOrganization.
func IsOrganization(name, bio, headline string) bool {
	return Classify(name, bio, headline) == KindOrganization
}

// Explain returns the name of the first rule that classified the input as an
// organization, or "" for a person.
func Explain(name, bio, _ string) string {
	// Casers are stateful, so each call gets its own.
	fold := cases.Fold()
	foldedName := fold.String(name)
	tokens := strings.Fields(foldedName)
	spaced := strings.Join(tokens, " ")

	for _, suf := range legalSuffixes {
		if strings.Contains(spaced, suf) {
			return RuleLegalSuffix
		}
	}
	for i := 1; i < len(tokens); i++ {
		if _, ok := legalTokens[strings.Trim(tokens[i], ".,()&-")]; ok {
			return RuleLegalSuffix
		}
	}
	for _, ind := range nameIndicators {
		if strings.Contains(foldedName, ind) {
			return RuleNameNoun
		}
	}

	foldedBio := fold.String(bio)
	for _, p := range bioPhrases {
		if strings.Contains(foldedBio, p) {
			return RuleBioPhrase
		}
	}

	if isBrandCased(name) {
		return RuleBrandCasing
	}
	return ""
}

// isBrandCased reports a single token longer than three characters with an
// uppercase letter after the first position, e.g. "AwesomeCo".
func isBrandCased(name string) bool {
	fields := strings.Fields(name)
	if len(fields) != 1 {
		return false
	}
	word := fields[0]
	if utf8.RuneCountInString(word) <= 3 {
		return false
	}
	for i, r := range word {
		if i == 0 {
			continue
		}
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
