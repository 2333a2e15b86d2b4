package slugs

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	slugSeparator = '_'
	// rightSingleQuote is dropped from slugs without splitting the word: "l’Europe" -> "leurope".
	rightSingleQuote = '’'
)

func isAlphanumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func hasAlphanumeric(s string) bool {
	return strings.IndexFunc(s, isAlphanumeric) >= 0
}

// ToSlug transforms a talk, speaker, track or room name into an identifier
// suitable for a schedule URL: diacritics removed, leading and trailing
// punctuation dropped, every group of other characters replaced with a
// single underscore and the whole thing lower-cased.
//
// A name without any letter or digit is returned unchanged.
func ToSlug(source string) string {
	trimmed := trimNonAlphanumeric(RemoveDiacritics(source))
	if trimmed == "" {
		return source
	}
	return lowerUS(replaceNonAlphanumericGroups(trimmed, slugSeparator))
}

// TrimEnd returns source without the trailing white space.
func TrimEnd(source string) string {
	return strings.TrimRightFunc(source, unicode.IsSpace)
}

// trimNonAlphanumeric cuts the non-alphanumeric runes off both ends of
// source. The result is empty if source has no letters or digits at all.
func trimNonAlphanumeric(source string) string {
	return strings.TrimFunc(source, func(r rune) bool {
		return !isAlphanumeric(r)
	})
}

// replaceNonAlphanumericGroups replaces every run of non-alphanumeric runes
// with a single replacement rune. Right single quotes are skipped and do not
// interrupt a run.
func replaceNonAlphanumericGroups(source string, replacement rune) string {
	var sb strings.Builder
	sb.Grow(len(source))
	replaced := false
	for _, r := range source {
		switch {
		case isAlphanumeric(r):
			sb.WriteRune(r)
			replaced = false
		case r == rightSingleQuote:
		case !replaced:
			sb.WriteRune(replacement)
			replaced = true
		}
	}
	return sb.String()
}

// lowerUS lower-cases s with the US English rules regardless of the
// process locale. Casers keep state, so a new one is made on every call.
func lowerUS(s string) string {
	return cases.Lower(language.AmericanEnglish).String(s)
}

// normalizeSpaces collapses all the white space runs inside name to single
// spaces and drops the leading and trailing ones.
func normalizeSpaces(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

func unique(slice []string) []string {
	var seen = make(map[string]struct{})
	var result []string
	for _, s := range slice {
		if _, ok := seen[s]; ok {
			continue
		}

		seen[s] = struct{}{}
		result = append(result, s)
	}
	return result
}
