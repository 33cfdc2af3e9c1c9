package zones

import (
	"regexp"
	"strings"
)

const (
	shortNameLimit   = 25
	truncationTarget = 28
	minBreakIndex    = 15
)

var streetAbbreviations = []struct {
	pattern *regexp.Regexp
	repl    string
}{
	{regexp.MustCompile(`\bADAM CLAYTON POWELL JR BOULEVARD\b`), "ACP Jr Blvd"},
	{regexp.MustCompile(`\bADAM CLAYTON POWELL BOULEVARD\b`), "ACP Blvd"},
	{regexp.MustCompile(`\bFREDERICK DOUGLASS BOULEVARD\b`), "F Douglass Blvd"},
	{regexp.MustCompile(`\bMALCOLM X BOULEVARD\b`), "Malcolm X Blvd"},
	{regexp.MustCompile(`\b(?:SAINT|ST) NICHOLAS AVENUE\b`), "St Nicholas Ave"},
	{regexp.MustCompile(`\b(?:FT|FORT) WASHINGTON AVENUE\b`), "Ft Washington Ave"},
	{regexp.MustCompile(`\bWASHINGTON SQUARE NORTH\b`), "Washington Sq N"},
	{regexp.MustCompile(`\bWASHINGTON SQUARE SOUTH\b`), "Washington Sq S"},
	{regexp.MustCompile(`\bAVENUE OF THE AMERICAS\b`), "6th Ave"},
	{regexp.MustCompile(`\bCENTRAL PARK NORTH\b`), "Central Park N"},
	{regexp.MustCompile(`\bCENTRAL PARK SOUTH\b`), "Central Park S"},
	{regexp.MustCompile(`\bCENTRAL PARK WEST\b`), "Central Park W"},
	{regexp.MustCompile(`\b(EAST|WEST|NORTH|SOUTH)\s+`), ""},
	{regexp.MustCompile(`\bAVENUE\b`), "Ave"},
	{regexp.MustCompile(`\bSTREET\b`), "St"},
	{regexp.MustCompile(`\bBOULEVARD\b`), "Blvd"},
	{regexp.MustCompile(`\bPLAZA\b`), "Plz"},
	{regexp.MustCompile(`\bSQUARE\b`), "Sq"},
	{regexp.MustCompile(`\bPLACE\b`), "Pl"},
	{regexp.MustCompile(`\bTERRACE\b`), "Ter"},
}

var (
	hangingSuffixRe      = regexp.MustCompile(`,\s*(New|North|South|East|West|Manhattan|NY|Brooklyn|Queens)$`)
	hangingPunctuationRe = regexp.MustCompile(`[(:,\-\s]+$`)
	numberedStreetRe     = regexp.MustCompile(`(\d+)\s*(St|Ave|Blvd)`)
)

// ShortenLocationName compresses long street and plaza names into something
// that fits a map label. Names of 25 characters or fewer pass through
// untouched.
func ShortenLocationName(original string) string {
	if len(original) <= shortNameLimit {
		return original
	}

	name := original

	if strings.Contains(name, " between ") {
		name = shortenIntersection(name)
	}

	name = strings.ReplaceAll(name, "Playground", "Park")
	name = smartTruncate(name, truncationTarget)

	return name
}

// shortenIntersection rewrites "X between Y and Z" as "X (Y & Z)", with a
// numeric range ("44-45 St") when both cross streets carry numbers of the
// same street type.
func shortenIntersection(name string) string {
	parts := strings.SplitN(name, " between ", 2)
	if len(parts) != 2 {
		return name
	}

	main := abbreviateStreet(strings.TrimSpace(parts[0]))
	cross := strings.TrimSpace(parts[1])

	streets := regexp.MustCompile(`\s+and\s+`).Split(cross, 2)
	if len(streets) != 2 {
		return main + " (" + abbreviateStreet(cross) + ")"
	}

	s1 := abbreviateStreet(strings.TrimSpace(streets[0]))
	s2 := abbreviateStreet(strings.TrimSpace(streets[1]))

	if r := numberRange(s1, s2); r != "" {
		return main + " (" + r + ")"
	}

	return main + " (" + s1 + " & " + s2 + ")"
}

func abbreviateStreet(street string) string {
	for _, a := range streetAbbreviations {
		street = a.pattern.ReplaceAllString(street, a.repl)
	}
	return strings.TrimSpace(street)
}

func numberRange(s1, s2 string) string {
	m1 := numberedStreetRe.FindStringSubmatch(s1)
	m2 := numberedStreetRe.FindStringSubmatch(s2)
	if m1 == nil || m2 == nil || m1[2] != m2[2] {
		return ""
	}
	return m1[1] + "-" + m2[1] + " " + m1[2]
}

// smartTruncate cuts at a natural breaking point instead of mid-word, then
// cleans up any punctuation left hanging at the end.
func smartTruncate(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}

	for _, bp := range []string{": ", " - ", " (", " and ", " "} {
		if idx := strings.LastIndex(text[:maxLen+1], bp); idx > minBreakIndex {
			return cleanHanging(text[:idx])
		}
	}

	return cleanHanging(text[:maxLen])
}

func cleanHanging(text string) string {
	text = hangingSuffixRe.ReplaceAllString(text, "")
	text = hangingPunctuationRe.ReplaceAllString(text, "")

	// drop an unmatched opening parenthesis together with its fragment
	for strings.Count(text, "(") > strings.Count(text, ")") {
		idx := strings.LastIndex(text, "(")
		text = strings.TrimSpace(text[:idx])
	}

	return strings.TrimSpace(text)
}
