package domain

import "strings"

// NormalizeHeadline collapses internal whitespace, trims the ends and
// lowercases, the same normalisation a dedup key is built from.
func NormalizeHeadline(headline string) string {
	return strings.ToLower(strings.Join(strings.Fields(headline), " "))
}

// eventTypeAliases folds loose upstream spellings onto canonical event
// types. monetary_policy, geopolitical and supply_shock are keys of the
// scorer's base tables; inflation_data and labor_data are not (they key
// the channel catalogue's event-type table).
var eventTypeAliases = map[string]string{
	"rate_cut":        "monetary_policy",
	"rate_hike":       "monetary_policy",
	"fomc":            "monetary_policy",
	"fed_decision":    "monetary_policy",
	"central_bank":    "monetary_policy",
	"sanctions":       "geopolitical",
	"war":             "geopolitical",
	"conflict":        "geopolitical",
	"export_ban":      "supply_shock",
	"production_cut":  "supply_shock",
	"opec":            "supply_shock",
	"inflation_print": "inflation_data",
	"cpi":             "inflation_data",
	"ppi":             "inflation_data",
	"jobs_report":     "labor_data",
	"nfp":             "labor_data",
}

// NormalizeEventType lowercases and trims an event type, then folds known
// aliases onto their canonical form. Unknown types pass through unchanged.
// The historical matcher uses it; the scorer has its own
// scoring.NormalizeEventType.
func NormalizeEventType(eventType string) string {
	t := strings.ToLower(strings.TrimSpace(eventType))
	if canon, ok := eventTypeAliases[t]; ok {
		return canon
	}
	return t
}

// regionAliases maps common surface forms onto short canonical region
// codes. China and Japan fold to CN and JP here, while the scorer's
// major-region table spells them CHINA and JAPAN.
var regionAliases = map[string]string{
	"united states": "US",
	"u.s.":          "US",
	"usa":           "US",
	"america":       "US",
	"eurozone":      "EU",
	"european union": "EU",
	"europe":        "EU",
	"china":         "CN",
	"prc":           "CN",
	"japan":         "JP",
	"united kingdom": "UK",
	"britain":       "UK",
	"russia":        "RU",
	"middle east":   "MENA",
}

// NormalizeRegion folds a free-text region mention onto its canonical code,
// leaving already-canonical codes (e.g. "US") untouched.
func NormalizeRegion(region string) string {
	key := strings.ToLower(strings.TrimSpace(region))
	if canon, ok := regionAliases[key]; ok {
		return canon
	}
	return strings.ToUpper(strings.TrimSpace(region))
}

// entityAliases folds common surface forms of major institutions onto the
// canonical names the scorer's major-entity table recognises once
// lowercased.
var entityAliases = map[string]string{
	"the fed":           "Federal Reserve",
	"federal reserve":   "Federal Reserve",
	"fomc":               "Federal Reserve",
	"ecb":                "European Central Bank",
	"european central bank": "European Central Bank",
	"boj":                "Bank of Japan",
	"bank of japan":      "Bank of Japan",
	"pboc":               "People's Bank of China",
	"opec":               "OPEC",
	"opec+":              "OPEC",
}

// NormalizeEntity folds a free-text entity mention onto its canonical name.
func NormalizeEntity(entity string) string {
	key := strings.ToLower(strings.TrimSpace(entity))
	if canon, ok := entityAliases[key]; ok {
		return canon
	}
	return strings.TrimSpace(entity)
}
