// Package zones holds the static registry of named Manhattan sub-areas used
// to filter recommendations, plus display-name helpers. The registry is
// built once at package init and is read-only afterwards, so concurrent
// lookups need no synchronization.
package zones

import (
	"sort"
	"strings"
)

// manhattanZones maps a zone key to the location-name substrings that place
// a location inside that zone. Matching is case-insensitive.
var manhattanZones = map[string][]string{
	"financial district":  {"financial district", "world trade center", "battery park", "seaport", "wall st"},
	"soho hudson square":  {"soho", "hudson square", "little italy", "nolita"},
	"lower east side":     {"lower east side", "two bridges"},
	"chinatown":           {"chinatown"},
	"greenwich village":   {"greenwich village", "west village", "washington square"},
	"east village":        {"east village", "alphabet city", "tompkins square"},
	"chelsea":             {"chelsea", "flatiron", "meatpacking", "hudson yards"},
	"gramercy":            {"gramercy", "stuyvesant", "kips bay", "murray hill", "union sq"},
	"midtown":             {"midtown", "times sq", "garment district", "theatre district", "herald sq", "bryant park", "grand central", "rockefeller"},
	"upper east side":     {"upper east side", "yorkville", "lenox hill", "carnegie hill"},
	"upper west side":     {"upper west side", "lincoln square", "manhattan valley", "morningside"},
	"central park":        {"central park"},
	"harlem":              {"central harlem", "harlem river", "hamilton heights", "manhattanville"},
	"east harlem":         {"east harlem"},
	"washington heights":  {"washington heights", "fort washington", "fort george"},
	"inwood":              {"inwood", "fort tryon"},
}

var zoneKeys []string

func init() {
	zoneKeys = make([]string, 0, len(manhattanZones))
	for key := range manhattanZones {
		zoneKeys = append(zoneKeys, key)
	}
	sort.Strings(zoneKeys)
}

// Keys returns the registered zone keys in stable order.
func Keys() []string {
	out := make([]string, len(zoneKeys))
	copy(out, zoneKeys)
	return out
}

// Matches reports whether the given location display name falls inside the
// zone. Unknown zone keys match nothing.
func Matches(zoneKey, locationName string) bool {
	subs, ok := manhattanZones[normalize(zoneKey)]
	if !ok {
		return false
	}

	name := strings.ToLower(locationName)
	for _, sub := range subs {
		if strings.Contains(name, sub) {
			return true
		}
	}

	return false
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
