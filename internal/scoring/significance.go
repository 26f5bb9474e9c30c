// Package scoring implements the four-component significance scorer,
// grounded line-for-line on analysis/significance.py: the weight table,
// the base/default tables, the term buckets, and the weighted-total
// rounding all reproduce that file's constants and arithmetic exactly.
package scoring

import (
	"sort"
	"strings"

	"github.com/satriapamudji/meridian/internal/domain"
)

const (
	priorityThreshold   = 65
	monitoringThreshold = 50

	structuralWeight   = 35
	transmissionWeight = 30
	historicalWeight   = 20
	attentionWeight    = 15
)

var structuralBase = map[string]int{
	"financial_crisis": 90,
	"monetary_policy":  75,
	"geopolitical":     70,
	"economic_data":    55,
	"supply_shock":     80,
}

var transmissionBase = map[string]int{
	"financial_crisis": 80,
	"monetary_policy":  80,
	"geopolitical":     65,
	"economic_data":    55,
	"supply_shock":     75,
}

var historicalBase = map[string]int{
	"financial_crisis": 80,
	"monetary_policy":  65,
	"geopolitical":     60,
	"economic_data":    50,
	"supply_shock":     70,
}

var sourceAttentionBase = map[string]int{
	"reuters":     60,
	"ap":          55,
	"google_news": 45,
}

var eventTypeAliasTable = map[string]string{
	"monetary":       "monetary_policy",
	"central_bank":   "monetary_policy",
	"rate_decision":  "monetary_policy",
	"geopolitics":    "geopolitical",
	"sanctions":      "geopolitical",
	"war":            "geopolitical",
	"crisis":         "financial_crisis",
	"banking_crisis": "financial_crisis",
	"data":           "economic_data",
	"macro_data":     "economic_data",
	"supply":         "supply_shock",
	"energy":         "supply_shock",
}

var majorRegions = map[string]bool{
	"US": true, "EU": true, "CHINA": true, "UK": true, "JAPAN": true, "GLOBAL": true,
}

var regionAliasTable = map[string]string{
	"UNITED STATES":            "US",
	"UNITED STATES OF AMERICA": "US",
	"USA":                      "US",
	"U.S.":                     "US",
	"EUROPE":                   "EU",
	"EUROZONE":                 "EU",
	"UNITED KINGDOM":           "UK",
	"UK":                       "UK",
	"CHINA":                    "CHINA",
	"JAPAN":                    "JAPAN",
	"GLOBAL":                   "GLOBAL",
	"WORLD":                    "GLOBAL",
}

var majorEntities = map[string]bool{
	"federal reserve":        true,
	"fed":                    true,
	"european central bank":  true,
	"ecb":                    true,
	"people's bank of china": true,
	"pboc":                   true,
	"bank of japan":          true,
	"boj":                    true,
	"bank of england":        true,
	"boe":                    true,
	"imf":                    true,
	"opec":                   true,
	"treasury":               true,
}

var (
	monetaryTerms     = []string{"rate", "rates", "central bank", "fed", "ecb", "boj", "pboc", "hike"}
	crisisTerms       = []string{"crisis", "default", "bank", "collapse", "liquidity", "bailout"}
	geopoliticalTerms = []string{"war", "sanction", "invasion", "conflict", "missile"}
	supplyTerms       = []string{"supply", "production", "strike", "shutdown", "export ban", "mine"}
	econDataTerms     = []string{"cpi", "inflation", "gdp", "jobs", "payrolls", "unemployment", "pmi"}

	metalTerms      = []string{"gold", "silver", "copper", "metals", "bullion"}
	macroTerms      = []string{"rate", "rates", "inflation", "cpi", "yield", "usd", "dollar"}
	historicalTerms = []string{"crisis", "default", "war", "recession", "sanction", "bank"}
	attentionTerms  = []string{"breaking", "urgent", "emergency", "surprise", "unexpected", "shock"}
)

// Input is the subset of a MacroEvent the scorer consumes.
type Input struct {
	Source    string
	Headline  string
	FullText  string
	EventType string
	Regions   []string
	Entities  []string
}

// Result is the scored outcome: per-component breakdown, weighted total,
// tier, and priority flag.
type Result struct {
	EventType    string
	Regions      []string
	Components   domain.SignificanceComponents
	Total        int
	Tier         string
	PriorityFlag bool
}

// NormalizeEventType lowercases, folds separators to underscores, and
// applies the fixed alias table.
func NormalizeEventType(value string) string {
	if value == "" {
		return ""
	}
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")
	if alias, ok := eventTypeAliasTable[normalized]; ok {
		return alias
	}
	return normalized
}

// ClassifyScore maps a total score onto its tier name.
func ClassifyScore(score int) string {
	if score >= priorityThreshold {
		return "priority"
	}
	if score >= monitoringThreshold {
		return "monitoring"
	}
	return "logged"
}

// Score computes the four-component significance score for one event.
func Score(in Input) Result {
	text := normalizeText(in.Headline, in.FullText)
	eventType := NormalizeEventType(in.EventType)
	if eventType == "" {
		eventType = inferEventType(text)
	}
	regions := normalizeRegionSet(in.Regions)
	entities := normalizeEntitySet(in.Entities)

	structural := scoreStructural(eventType, regions, entities)
	transmission := scoreTransmission(eventType, text, entities)
	historical := scoreHistorical(eventType, text, regions)
	attention := scoreAttention(in.Source, text, regions, entities)

	components := domain.SignificanceComponents{
		Structural:   structural,
		Transmission: transmission,
		Historical:   historical,
		Attention:    attention,
	}
	total := weightedTotal(components)

	return Result{
		EventType:    eventType,
		Regions:      sortedKeys(regions),
		Components:   components,
		Total:        total,
		Tier:         ClassifyScore(total),
		PriorityFlag: total >= priorityThreshold,
	}
}

func weightedTotal(c domain.SignificanceComponents) int {
	raw := c.Structural*structuralWeight + c.Transmission*transmissionWeight +
		c.Historical*historicalWeight + c.Attention*attentionWeight
	total := (raw + 50) / 100
	return clamp(total, 0, 100)
}

func scoreStructural(eventType string, regions, entities map[string]bool) int {
	base := lookupOr(structuralBase, eventType, 40)
	regionScore := minInt(25, 8*countIn(regions, majorRegions))
	entityScore := minInt(15, 5*countIn(entities, majorEntities))
	return clamp(base+regionScore+entityScore, 0, 100)
}

func scoreTransmission(eventType, text string, entities map[string]bool) int {
	base := lookupOr(transmissionBase, eventType, 35)
	boost := 0
	if containsAny(text, metalTerms) {
		boost += 20
	}
	if containsAny(text, macroTerms) {
		boost += 10
	}
	if containsAny(text, supplyTerms) {
		boost += 10
	}
	if countIn(entities, majorEntities) > 0 {
		boost += 5
	}
	return clamp(base+boost, 0, 100)
}

func scoreHistorical(eventType, text string, regions map[string]bool) int {
	base := lookupOr(historicalBase, eventType, 30)
	boost := 0
	if containsAny(text, historicalTerms) {
		boost += 10
	}
	if n := countIn(regions, majorRegions); n > 0 {
		boost += minInt(10, 5*n)
	}
	return clamp(base+boost, 0, 100)
}

func scoreAttention(source, text string, regions, entities map[string]bool) int {
	base := lookupOr(sourceAttentionBase, strings.ToLower(strings.TrimSpace(source)), 50)
	boost := 0
	if containsAny(text, attentionTerms) {
		boost += 15
	}
	if countIn(regions, majorRegions) >= 2 {
		boost += 5
	}
	if countIn(entities, majorEntities) >= 2 {
		boost += 5
	}
	return clamp(base+boost, 0, 100)
}

func inferEventType(text string) string {
	switch {
	case containsAny(text, crisisTerms):
		return "financial_crisis"
	case containsAny(text, monetaryTerms):
		return "monetary_policy"
	case containsAny(text, geopoliticalTerms):
		return "geopolitical"
	case containsAny(text, supplyTerms):
		return "supply_shock"
	case containsAny(text, econDataTerms):
		return "economic_data"
	default:
		return ""
	}
}

func normalizeText(headline, fullText string) string {
	if fullText == "" {
		return strings.ToLower(headline)
	}
	return strings.ToLower(headline + " " + fullText)
}

func normalizeRegionSet(regions []string) map[string]bool {
	out := make(map[string]bool, len(regions))
	for _, r := range regions {
		if r == "" {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(r))
		if alias, ok := regionAliasTable[key]; ok {
			key = alias
		}
		out[key] = true
	}
	return out
}

func normalizeEntitySet(entities []string) map[string]bool {
	out := make(map[string]bool, len(entities))
	for _, e := range entities {
		if e == "" {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(e))] = true
	}
	return out
}

func countIn(set, universe map[string]bool) int {
	n := 0
	for k := range set {
		if universe[k] {
			n++
		}
	}
	return n
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func lookupOr(table map[string]int, key string, def int) int {
	if v, ok := table[key]; ok {
		return v
	}
	return def
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
