package slugs

import (
	"regexp"
	"strings"
)

// IgnoreList holds the placeholder names and unusable emails which are
// dropped while loading a schedule.
type IgnoreList struct {
	Names   map[string]struct{}
	Emails  map[string]struct{}
	Domains map[string]struct{}
}

// NewIgnoreList returns the default list of placeholders seen in call for
// papers exports.
func NewIgnoreList() IgnoreList {
	return IgnoreList{
		Names: map[string]struct{}{
			"tba":             {},
			"tbd":             {},
			"to be announced": {},
			"to be confirmed": {},
			"unknown":         {},
			"n/a":             {},
			"anonymous":       {},
			"speaker":         {},
		},
		Emails: map[string]struct{}{
			"nobody@fosdem.org":   {},
			"noreply@pretalx.com": {},
		},
		Domains: map[string]struct{}{
			"localhost.localdomain": {},
			"example.com":           {},
			"example.org":           {},
			"test.com":              {},
			"domain.com":            {},
		},
	}
}

func (l IgnoreList) isIgnoredName(name string) bool {
	_, ok := l.Names[strings.ToLower(normalizeSpaces(name))]
	return ok
}

func (l IgnoreList) isIgnoredEmail(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.Contains(s, "@") || l.isBlacklistedEmail(s) || isMultipleEmail(s) {
		return true
	}
	domain := s[strings.LastIndex(s, "@")+1:]
	return l.isIgnoredDomain(domain) ||
		isSingleLabelDomain(domain) ||
		isIPDomain(domain)
}

func (l IgnoreList) isBlacklistedEmail(s string) bool {
	_, ok := l.Emails[s]
	return ok
}

func (l IgnoreList) isIgnoredDomain(s string) bool {
	parts := strings.Split(s, "@")
	_, ok := l.Domains[parts[len(parts)-1]]
	return ok
}

func isMultipleEmail(s string) bool {
	return strings.Index(s, "@") != strings.LastIndex(s, "@")
}

var isIP4EmailRegex = regexp.MustCompile(`\d+\.\d+\.\d+\.\d+$`)
var isIP6EmailRegex = regexp.MustCompile(`(([0-9a-fA-F]{1,4}:){7,7}[0-9a-fA-F]{1,4}|([0-9a-fA-F]{1,4}:){1,7}:|([0-9a-fA-F]{1,4}:){1,6}:[0-9a-fA-F]{1,4}|([0-9a-fA-F]{1,4}:){1,5}(:[0-9a-fA-F]{1,4}){1,2}|([0-9a-fA-F]{1,4}:){1,4}(:[0-9a-fA-F]{1,4}){1,3}|([0-9a-fA-F]{1,4}:){1,3}(:[0-9a-fA-F]{1,4}){1,4}|([0-9a-fA-F]{1,4}:){1,2}(:[0-9a-fA-F]{1,4}){1,5}|[0-9a-fA-F]{1,4}:((:[0-9a-fA-F]{1,4}){1,6})|:((:[0-9a-fA-F]{1,4}){1,7}|:))`)

func isIPDomain(s string) bool {
	return isIP4EmailRegex.MatchString(s) || isIP6EmailRegex.MatchString(s)
}

func isSingleLabelDomain(s string) bool {
	return strings.Count(s, ".") == 0
}
