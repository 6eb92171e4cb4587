package normalize

import (
	"sort"
	"strings"

	"freightmatch/internal"
)

// serviceKeywords maps raw service-type vocabulary to categories. Lookup is
// longest-keyword-first so "ocean freight" wins over "freight".
var serviceKeywords = []struct {
	keyword  string
	category internal.ServiceCategory
}{
	{"ocean freight", internal.ServiceOcean},
	{"sea freight", internal.ServiceOcean},
	{"port to port", internal.ServiceOcean},
	{"maritime", internal.ServiceOcean},
	{"ocean", internal.ServiceOcean},
	{"fcl", internal.ServiceOcean},
	{"lcl", internal.ServiceOcean},

	{"container pickup", internal.ServiceDrayage},
	{"port pickup", internal.ServiceDrayage},
	{"drayage", internal.ServiceDrayage},
	{"dray", internal.ServiceDrayage},

	{"intermodal", internal.ServiceIntermodal},
	{"rail", internal.ServiceIntermodal},
	{"imdl", internal.ServiceIntermodal},

	{"transload", internal.ServiceTransload},
	{"trans load", internal.ServiceTransload},
	{"cross dock", internal.ServiceTransload},
	{"cross-dock", internal.ServiceTransload},

	{"air freight", internal.ServiceAir},
	{"airfreight", internal.ServiceAir},
	{"air cargo", internal.ServiceAir},

	{"warehousing", internal.ServiceStorage},
	{"warehouse", internal.ServiceStorage},
	{"storage", internal.ServiceStorage},

	{"over the road", internal.ServiceGround},
	{"heavy haul", internal.ServiceGround},
	{"trucking", internal.ServiceGround},
	{"hotshot", internal.ServiceGround},
	{"flatbed", internal.ServiceGround},
	{"ground", internal.ServiceGround},
	{"truck", internal.ServiceGround},
	{"ftl", internal.ServiceGround},
	{"ltl", internal.ServiceGround},
	{"otr", internal.ServiceGround},
}

var serviceSeparators = strings.NewReplacer("/", ",", ";", ",", "+", ",", "&", ",")

// NormalizeServiceType maps a free-text service label to a category. Combined
// labels collapse: OCEAN with GROUND or DRAYAGE is INTERMODAL, GROUND with
// DRAYAGE is GROUND.
func NormalizeServiceType(text string) internal.ServiceCategory {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return internal.ServiceUnknown
	}

	parts := strings.Split(serviceSeparators.Replace(lowered), ",")
	found := map[internal.ServiceCategory]struct{}{}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if cat := lookupService(part); cat != internal.ServiceUnknown {
			found[cat] = struct{}{}
		}
	}

	if len(found) == 0 {
		return internal.ServiceUnknown
	}
	if len(found) == 1 {
		for cat := range found {
			return cat
		}
	}

	_, hasOcean := found[internal.ServiceOcean]
	_, hasGround := found[internal.ServiceGround]
	_, hasDrayage := found[internal.ServiceDrayage]
	if hasOcean && (hasGround || hasDrayage) {
		return internal.ServiceIntermodal
	}
	if hasGround && hasDrayage {
		return internal.ServiceGround
	}

	// Multiple unrelated categories: pick the most specific deterministically.
	cats := make([]string, 0, len(found))
	for cat := range found {
		cats = append(cats, string(cat))
	}
	sort.Strings(cats)
	return internal.ServiceCategory(cats[0])
}

// lookupService picks the longest matching keyword, not the first in table
// order: "intermodal drayage" is INTERMODAL, not DRAYAGE.
func lookupService(part string) internal.ServiceCategory {
	best := internal.ServiceUnknown
	bestLen := 0
	for _, entry := range serviceKeywords {
		if len(entry.keyword) > bestLen && strings.Contains(part, entry.keyword) {
			best, bestLen = entry.category, len(entry.keyword)
		}
	}
	return best
}

var heavyCargoTokens = []string{
	"excavator", "dozer", "bulldozer", "crane", "loader", "drill rig",
	"oversize", "oversized", "wide load", "heavy equipment", "machinery",
}

// CorrectServiceTypeByDistance overrides an implausible labeled category with
// what the physical route distance allows. A 12-mile "ocean" move is a local
// truck or drayage leg, whatever the label says.
func CorrectServiceTypeByDistance(category internal.ServiceCategory, distanceMiles *float64, cargoText string) internal.ServiceCategory {
	if distanceMiles == nil || *distanceMiles <= 0 {
		return category
	}
	if category != internal.ServiceOcean && category != internal.ServiceIntermodal {
		return category
	}

	miles := *distanceMiles
	if miles < 150 {
		lowered := strings.ToLower(cargoText)
		for _, token := range heavyCargoTokens {
			if strings.Contains(lowered, token) {
				return internal.ServiceGround
			}
		}
		return internal.ServiceDrayage
	}
	if category == internal.ServiceOcean && miles < 300 {
		return internal.ServiceIntermodal
	}
	return category
}
