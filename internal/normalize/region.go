package normalize

import "strings"

// US regions and international blocs. Longer keywords are listed first within
// each table so "new york" is tested before "york" never applies.
var usRegionKeywords = []struct {
	keyword string
	region  string
}{
	{"new hampshire", "NORTHEAST"},
	{"massachusetts", "NORTHEAST"},
	{"pennsylvania", "NORTHEAST"},
	{"philadelphia", "NORTHEAST"},
	{"connecticut", "NORTHEAST"},
	{"rhode island", "NORTHEAST"},
	{"new jersey", "NORTHEAST"},
	{"new york", "NORTHEAST"},
	{"baltimore", "NORTHEAST"},
	{"vermont", "NORTHEAST"},
	{"boston", "NORTHEAST"},
	{"maine", "NORTHEAST"},
	{"nyc", "NORTHEAST"},
	{" ny", "NORTHEAST"},
	{" nj", "NORTHEAST"},
	{" pa", "NORTHEAST"},
	{" ma", "NORTHEAST"},
	{" ct", "NORTHEAST"},
	{" md", "NORTHEAST"},

	{"north carolina", "SOUTHEAST"},
	{"south carolina", "SOUTHEAST"},
	{"jacksonville", "SOUTHEAST"},
	{"mississippi", "SOUTHEAST"},
	{"tennessee", "SOUTHEAST"},
	{"charleston", "SOUTHEAST"},
	{"savannah", "SOUTHEAST"},
	{"virginia", "SOUTHEAST"},
	{"kentucky", "SOUTHEAST"},
	{"alabama", "SOUTHEAST"},
	{"atlanta", "SOUTHEAST"},
	{"georgia", "SOUTHEAST"},
	{"florida", "SOUTHEAST"},
	{"norfolk", "SOUTHEAST"},
	{"miami", "SOUTHEAST"},
	{"tampa", "SOUTHEAST"},
	{" fl", "SOUTHEAST"},
	{" ga", "SOUTHEAST"},
	{" nc", "SOUTHEAST"},
	{" sc", "SOUTHEAST"},
	{" tn", "SOUTHEAST"},
	{" va", "SOUTHEAST"},
	{" al", "SOUTHEAST"},

	{"indianapolis", "MIDWEST"},
	{"minneapolis", "MIDWEST"},
	{"cleveland", "MIDWEST"},
	{"milwaukee", "MIDWEST"},
	{"wisconsin", "MIDWEST"},
	{"minnesota", "MIDWEST"},
	{"missouri", "MIDWEST"},
	{"michigan", "MIDWEST"},
	{"illinois", "MIDWEST"},
	{"columbus", "MIDWEST"},
	{"nebraska", "MIDWEST"},
	{"chicago", "MIDWEST"},
	{"detroit", "MIDWEST"},
	{"indiana", "MIDWEST"},
	{"kansas", "MIDWEST"},
	{"dakota", "MIDWEST"},
	{"ohio", "MIDWEST"},
	{"iowa", "MIDWEST"},
	{"st louis", "MIDWEST"},
	{"st. louis", "MIDWEST"},
	{" il", "MIDWEST"},
	{" oh", "MIDWEST"},
	{" mi", "MIDWEST"},
	{" mn", "MIDWEST"},
	{" wi", "MIDWEST"},
	{" mo", "MIDWEST"},

	{"new orleans", "GULF_COAST"},
	{"san antonio", "GULF_COAST"},
	{"louisiana", "GULF_COAST"},
	{"galveston", "GULF_COAST"},
	{"beaumont", "GULF_COAST"},
	{"houston", "GULF_COAST"},
	{"mobile", "GULF_COAST"},
	{"texas", "GULF_COAST"},
	{"dallas", "GULF_COAST"},
	{"austin", "GULF_COAST"},
	{" tx", "GULF_COAST"},
	{" la", "GULF_COAST"},

	{"albuquerque", "SOUTHWEST"},
	{"new mexico", "SOUTHWEST"},
	{"scottsdale", "SOUTHWEST"},
	{"las vegas", "SOUTHWEST"},
	{"oklahoma", "SOUTHWEST"},
	{"arizona", "SOUTHWEST"},
	{"phoenix", "SOUTHWEST"},
	{"tucson", "SOUTHWEST"},
	{"nevada", "SOUTHWEST"},
	{" az", "SOUTHWEST"},
	{" nm", "SOUTHWEST"},
	{" nv", "SOUTHWEST"},
	{" ok", "SOUTHWEST"},

	{"salt lake city", "MOUNTAIN"},
	{"colorado", "MOUNTAIN"},
	{"wyoming", "MOUNTAIN"},
	{"montana", "MOUNTAIN"},
	{"denver", "MOUNTAIN"},
	{"idaho", "MOUNTAIN"},
	{"utah", "MOUNTAIN"},
	{"boise", "MOUNTAIN"},
	{" co", "MOUNTAIN"},
	{" ut", "MOUNTAIN"},
	{" mt", "MOUNTAIN"},

	{"san francisco", "WEST_COAST"},
	{"los angeles", "WEST_COAST"},
	{"long beach", "WEST_COAST"},
	{"california", "WEST_COAST"},
	{"sacramento", "WEST_COAST"},
	{"washington", "WEST_COAST"},
	{"san diego", "WEST_COAST"},
	{"portland", "WEST_COAST"},
	{"seattle", "WEST_COAST"},
	{"oakland", "WEST_COAST"},
	{"oregon", "WEST_COAST"},
	{"tacoma", "WEST_COAST"},
	{" ca", "WEST_COAST"},
	{" wa", "WEST_COAST"},
	{" or", "WEST_COAST"},
}

var internationalKeywords = []struct {
	keyword string
	region  string
}{
	{"united kingdom", "EUROPE"},
	{"netherlands", "EUROPE"},
	{"germany", "EUROPE"},
	{"rotterdam", "EUROPE"},
	{"hamburg", "EUROPE"},
	{"antwerp", "EUROPE"},
	{"belgium", "EUROPE"},
	{"france", "EUROPE"},
	{"italy", "EUROPE"},
	{"spain", "EUROPE"},
	{"poland", "EUROPE"},
	{"uk", "EUROPE"},

	{"south korea", "ASIA"},
	{"singapore", "ASIA"},
	{"shanghai", "ASIA"},
	{"shenzhen", "ASIA"},
	{"vietnam", "ASIA"},
	{"ningbo", "ASIA"},
	{"taiwan", "ASIA"},
	{"china", "ASIA"},
	{"japan", "ASIA"},
	{"india", "ASIA"},
	{"busan", "ASIA"},
	{"tokyo", "ASIA"},

	{"vancouver", "CANADA"},
	{"montreal", "CANADA"},
	{"toronto", "CANADA"},
	{"ontario", "CANADA"},
	{"calgary", "CANADA"},
	{"quebec", "CANADA"},
	{"canada", "CANADA"},

	{"guadalajara", "MEXICO"},
	{"monterrey", "MEXICO"},
	{"veracruz", "MEXICO"},
	{"tijuana", "MEXICO"},
	{"mexico", "MEXICO"},

	{"argentina", "SOUTH_AMERICA"},
	{"colombia", "SOUTH_AMERICA"},
	{"brazil", "SOUTH_AMERICA"},
	{"chile", "SOUTH_AMERICA"},
	{"peru", "SOUTH_AMERICA"},

	{"saudi arabia", "MIDDLE_EAST"},
	{"jebel ali", "MIDDLE_EAST"},
	{"dubai", "MIDDLE_EAST"},
	{"qatar", "MIDDLE_EAST"},
	{"uae", "MIDDLE_EAST"},
}

var usCountryTokens = map[string]struct{}{
	"": {}, "us": {}, "usa": {}, "u.s": {}, "u.s.": {}, "u.s.a.": {},
	"united states": {}, "united states of america": {}, "america": {},
}

var haystackPunct = strings.NewReplacer(",", " ", ".", " ", "(", " ", ")", " ", "/", " ")

// GetRegion resolves a city/state/country triple to a US region or an
// international bloc. Matching is whole-token only: "india" must never hit
// inside "indianapolis".
func GetRegion(city, state, country string) string {
	haystack := haystackPunct.Replace(strings.ToLower(city + " " + state + " " + country))
	haystack = " " + strings.Join(strings.Fields(haystack), " ") + " "
	countryNorm := strings.ToLower(strings.TrimSpace(country))
	_, domestic := usCountryTokens[countryNorm]

	if domestic {
		if region, ok := lookupUSRegion(haystack); ok {
			return region
		}
		return "OTHER_US"
	}

	// Bloc table first: a foreign country name outranks a US-looking state
	// token ("Chennai, TN, India" is ASIA, not Tennessee).
	for _, entry := range internationalKeywords {
		if strings.Contains(haystack, " "+entry.keyword+" ") {
			return entry.region
		}
	}
	// Unrecognized country text can still carry a known US place name.
	if region, ok := lookupUSRegion(haystack); ok {
		return region
	}
	return "OTHER"
}

func lookupUSRegion(haystack string) (string, bool) {
	for _, entry := range usRegionKeywords {
		needle := entry.keyword + " "
		if !strings.HasPrefix(needle, " ") {
			needle = " " + needle
		}
		if strings.Contains(haystack, needle) {
			return entry.region, true
		}
	}
	return "", false
}

// IsInternational reports whether a lane crosses a border: either endpoint
// outside the US, or origin and destination in different countries.
func IsInternational(originCountry, destCountry string) bool {
	_, originUS := usCountryTokens[strings.ToLower(strings.TrimSpace(originCountry))]
	_, destUS := usCountryTokens[strings.ToLower(strings.TrimSpace(destCountry))]
	return !originUS || !destUS
}
