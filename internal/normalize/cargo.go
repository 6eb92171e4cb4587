package normalize

import (
	"regexp"
	"strings"

	"freightmatch/internal"
)

// cargoKeywords is evaluated in order; the first category with any hit wins.
// Patterns are word-boundary-anchored so "freight" never matches inside
// "refrigerated" and "car" never matches "cargo".
var cargoKeywords = []struct {
	category internal.CargoCategory
	pattern  *regexp.Regexp
}{
	{internal.CargoHazmat, wordPattern("hazmat", "hazardous", "flammable", "corrosive", "explosive", "dangerous goods", "un3077", "un1203")},
	{internal.CargoOversized, wordPattern("oversize", "oversized", "out of gauge", "oog", "wide load", "overweight", "overdimensional", "superload")},
	{internal.CargoMachinery, wordPattern("excavator", "dozer", "bulldozer", "crane", "forklift", "backhoe", "loader", "grader", "compactor", "drill rig", "machinery", "machine", "lathe", "press", "generator", "compressor", "turbine")},
	{internal.CargoVehicles, wordPattern("car", "cars", "truck", "trucks", "bus", "van", "suv", "automobile", "vehicle", "vehicles", "motorcycle", "trailer", "rv")},
	{internal.CargoContainers, wordPattern("container", "containers", "conex", "20ft", "40ft", "20 ft", "40 ft")},
	{internal.CargoAgricultural, wordPattern("grain", "hay", "corn", "wheat", "soybean", "soybeans", "fertilizer", "seed", "livestock", "cattle", "farm", "produce")},
	{internal.CargoIndustrial, wordPattern("steel", "pipe", "pipes", "coil", "coils", "lumber", "beam", "beams", "rebar", "transformer", "tank", "vessel", "skid", "pallets")},
}

func wordPattern(words ...string) *regexp.Regexp {
	escaped := make([]string, 0, len(words))
	for _, w := range words {
		escaped = append(escaped, regexp.QuoteMeta(w))
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
}

// ClassifyCargo assigns a cargo category from a free-text description.
func ClassifyCargo(description string) internal.CargoCategory {
	trimmed := strings.TrimSpace(description)
	if trimmed == "" {
		return internal.CargoUnknown
	}
	for _, entry := range cargoKeywords {
		if entry.pattern.MatchString(trimmed) {
			return entry.category
		}
	}
	return internal.CargoGeneral
}
