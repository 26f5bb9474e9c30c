// Package channels catalogues the transmission channels a macro event can
// move markets through (oil supply shocks, dollar strength, risk-off flows,
// and so on) and discovers the concrete tradeable assets each channel
// implicates for a given headline. The channel taxonomy (24 types across
// six families) and the ticker-extraction heuristics are grounded on
// original_source's transmission_channels.py and asset_discovery.py; the
// literal asset lists per channel were not present in the retrieved
// original_source pack and are authored here consistent with the domain.
package channels

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Type identifies one of the 24 recognised transmission channels.
type Type string

const (
	// Commodity supply
	OilSupplyDisruption Type = "OIL_SUPPLY_DISRUPTION"
	OilDemandShock      Type = "OIL_DEMAND_SHOCK"
	NaturalGasSupply    Type = "NATURAL_GAS_SUPPLY"
	MetalsSupply        Type = "METALS_SUPPLY"
	AgriculturalSupply  Type = "AGRICULTURAL_SUPPLY"

	// Currency / FX
	DollarStrength    Type = "DOLLAR_STRENGTH"
	DollarWeakness    Type = "DOLLAR_WEAKNESS"
	EMCurrencyStress  Type = "EM_CURRENCY_STRESS"
	CarryTradeUnwind  Type = "CARRY_TRADE_UNWIND"
	YuanDevaluation   Type = "YUAN_DEVALUATION"

	// Rates / liquidity
	FedHawkish          Type = "FED_HAWKISH"
	FedDovish           Type = "FED_DOVISH"
	YieldCurveInversion Type = "YIELD_CURVE_INVERSION"
	CreditTightening    Type = "CREDIT_TIGHTENING"
	LiquidityCrisis     Type = "LIQUIDITY_CRISIS"

	// Risk sentiment
	RiskOffFlight Type = "RISK_OFF_FLIGHT"
	RiskOnRally   Type = "RISK_ON_RALLY"
	VIXSpike      Type = "VIX_SPIKE"

	// Sanctions / controls
	TradeSanctions    Type = "TRADE_SANCTIONS"
	CapitalControls   Type = "CAPITAL_CONTROLS"
	ExportRestrictions Type = "EXPORT_RESTRICTIONS"

	// Inflation
	InflationSpike Type = "INFLATION_SPIKE"
	DeflationRisk  Type = "DEFLATION_RISK"
	WagePressure   Type = "WAGE_PRESSURE"
)

// TimeHorizon is the channel's own typical time-to-play-out window,
// distinct from the trade-horizon recommendations in internal/horizon.
type TimeHorizon string

const (
	Immediate  TimeHorizon = "IMMEDIATE"
	ShortTerm  TimeHorizon = "SHORT_TERM"
	MediumTerm TimeHorizon = "MEDIUM_TERM"
	LongTerm   TimeHorizon = "LONG_TERM"
)

// Channel is one catalogued transmission channel: what it is, what it
// typically moves, and the keywords that flag it in a headline.
type Channel struct {
	Type            Type
	Name            string
	Description     string
	PrimaryAssets   []string
	SecondaryAssets []string
	SearchQueries   []string
	TypicalMagnitude string
	TimeHorizon     TimeHorizon
	Keywords        []string
}

// AllAssets returns the channel's primary assets followed by its
// secondary assets, deduplicated, preserving first-seen order.
func (c Channel) AllAssets() []string {
	return dedupOrdered(append(append([]string{}, c.PrimaryAssets...), c.SecondaryAssets...))
}

// Catalogue is the full, ordered set of recognised channels.
var Catalogue = []Channel{
	{
		Type: OilSupplyDisruption, Name: "Oil Supply Disruption",
		Description:      "Physical crude supply is cut or threatened (production cuts, sanctions on exporters, attacks on infrastructure).",
		PrimaryAssets:    []string{"CL=F", "BZ=F"},
		SecondaryAssets:  []string{"XLE", "XOP", "USO"},
		SearchQueries:    []string{"oil supply disruption", "crude export halt"},
		TypicalMagnitude: "2-8% crude move over days",
		TimeHorizon:      ShortTerm,
		Keywords:         []string{"opec", "production cut", "export ban", "pipeline attack", "oil embargo", "supply disruption"},
	},
	{
		Type: OilDemandShock, Name: "Oil Demand Shock",
		Description:      "A sharp change in expected global oil consumption (growth scare, lockdown, efficiency shock).",
		PrimaryAssets:    []string{"CL=F", "BZ=F"},
		SecondaryAssets:  []string{"XLE"},
		SearchQueries:    []string{"oil demand forecast cut"},
		TypicalMagnitude: "2-6% crude move",
		TimeHorizon:      MediumTerm,
		Keywords:         []string{"demand forecast", "recession fears", "demand destruction"},
	},
	{
		Type: NaturalGasSupply, Name: "Natural Gas Supply",
		Description:      "Pipeline, LNG terminal, or storage disruption affecting natural gas supply.",
		PrimaryAssets:    []string{"NG=F"},
		SecondaryAssets:  []string{"UNG"},
		SearchQueries:    []string{"natural gas pipeline outage", "LNG export disruption"},
		TypicalMagnitude: "5-15% gas move",
		TimeHorizon:      ShortTerm,
		Keywords:         []string{"gas pipeline", "lng terminal", "gas storage"},
	},
	{
		Type: MetalsSupply, Name: "Metals Supply",
		Description:      "Mine closures, export controls, or strikes affecting industrial or precious metals supply.",
		PrimaryAssets:    []string{"GC=F", "SI=F", "HG=F"},
		SecondaryAssets:  []string{"GLD", "SLV", "COPX"},
		SearchQueries:    []string{"mine strike", "metal export controls"},
		TypicalMagnitude: "1-5% metals move",
		TimeHorizon:      MediumTerm,
		Keywords:         []string{"mine strike", "copper mine", "metal export ban", "smelter"},
	},
	{
		Type: AgriculturalSupply, Name: "Agricultural Supply",
		Description:      "Weather, export bans, or war disrupting grain, oilseed, or soft commodity supply.",
		PrimaryAssets:    []string{"ZC=F", "ZW=F", "ZS=F"},
		SecondaryAssets:  []string{"DBA"},
		SearchQueries:    []string{"grain export ban", "crop failure"},
		TypicalMagnitude: "3-10% grains move",
		TimeHorizon:      MediumTerm,
		Keywords:         []string{"grain export", "wheat export ban", "crop failure", "drought"},
	},
	{
		Type: DollarStrength, Name: "Dollar Strength",
		Description:      "Hawkish Fed surprise, global flight to safety, or relative growth divergence strengthening the dollar.",
		PrimaryAssets:    []string{"DX=F", "UUP"},
		SecondaryAssets:  []string{"EURUSD=X", "GLD"},
		SearchQueries:    []string{"dollar rally", "dxy surge"},
		TypicalMagnitude: "1-3% DXY move",
		TimeHorizon:      ShortTerm,
		Keywords:         []string{"dollar surges", "dollar strength", "safe haven dollar"},
	},
	{
		Type: DollarWeakness, Name: "Dollar Weakness",
		Description:      "Dovish Fed surprise or narrowing rate differential weakening the dollar.",
		PrimaryAssets:    []string{"DX=F", "UUP"},
		SecondaryAssets:  []string{"EURUSD=X", "GLD"},
		SearchQueries:    []string{"dollar slides", "dxy weakens"},
		TypicalMagnitude: "1-3% DXY move",
		TimeHorizon:      ShortTerm,
		Keywords:         []string{"dollar weakens", "dollar slides", "dollar falls"},
	},
	{
		Type: EMCurrencyStress, Name: "EM Currency Stress",
		Description:      "Capital flight or a funding squeeze pressuring emerging-market currencies.",
		PrimaryAssets:    []string{"EEM"},
		SecondaryAssets:  []string{"UUP"},
		SearchQueries:    []string{"emerging market currency crisis"},
		TypicalMagnitude: "3-10% EM FX move",
		TimeHorizon:      MediumTerm,
		Keywords:         []string{"currency crisis", "capital flight", "peso slumps", "lira crashes"},
	},
	{
		Type: CarryTradeUnwind, Name: "Carry Trade Unwind",
		Description:      "A funding-currency rate shock forcing leveraged carry positions to unwind.",
		PrimaryAssets:    []string{"JPY=X"},
		SecondaryAssets:  []string{"^VIX"},
		SearchQueries:    []string{"carry trade unwind", "yen carry trade"},
		TypicalMagnitude: "broad risk-asset deleveraging",
		TimeHorizon:      Immediate,
		Keywords:         []string{"carry trade", "yen surges", "boj hike"},
	},
	{
		Type: YuanDevaluation, Name: "Yuan Devaluation",
		Description:      "A deliberate or market-driven weakening of the Chinese yuan.",
		PrimaryAssets:    []string{"CNY=X"},
		SecondaryAssets:  []string{"FXI"},
		SearchQueries:    []string{"yuan devaluation", "pboc fixing"},
		TypicalMagnitude: "1-4% yuan move",
		TimeHorizon:      MediumTerm,
		Keywords:         []string{"yuan devalues", "pboc fixing", "renminbi weakens"},
	},
	{
		Type: FedHawkish, Name: "Fed Hawkish",
		Description:      "The Fed surprises toward tighter policy than priced.",
		PrimaryAssets:    []string{"TLT", "DX=F"},
		SecondaryAssets:  []string{"SPY", "GLD"},
		SearchQueries:    []string{"fed hawkish surprise"},
		TypicalMagnitude: "10-30bps on the 2y",
		TimeHorizon:      Immediate,
		Keywords:         []string{"fed hikes", "hawkish fed", "fed tightens", "rate hike"},
	},
	{
		Type: FedDovish, Name: "Fed Dovish",
		Description:      "The Fed surprises toward easier policy than priced.",
		PrimaryAssets:    []string{"TLT", "DX=F"},
		SecondaryAssets:  []string{"SPY", "GLD"},
		SearchQueries:    []string{"fed dovish surprise"},
		TypicalMagnitude: "10-30bps on the 2y",
		TimeHorizon:      Immediate,
		Keywords:         []string{"fed cuts", "dovish fed", "fed eases", "rate cut"},
	},
	{
		Type: YieldCurveInversion, Name: "Yield Curve Inversion",
		Description:      "The 2s10s (or similar) curve inverts or dis-inverts sharply.",
		PrimaryAssets:    []string{"TLT", "SHY"},
		SecondaryAssets:  []string{"KRE"},
		SearchQueries:    []string{"yield curve inverts"},
		TypicalMagnitude: "curve move of 10-20bps",
		TimeHorizon:      MediumTerm,
		Keywords:         []string{"curve inverts", "curve inversion", "2s10s"},
	},
	{
		Type: CreditTightening, Name: "Credit Tightening",
		Description:      "Credit spreads widen sharply on funding stress or default fears.",
		PrimaryAssets:    []string{"HYG", "LQD"},
		SecondaryAssets:  []string{"KRE"},
		SearchQueries:    []string{"credit spreads widen"},
		TypicalMagnitude: "20-80bps OAS widening",
		TimeHorizon:      ShortTerm,
		Keywords:         []string{"credit spreads widen", "credit crunch", "default fears"},
	},
	{
		Type: LiquidityCrisis, Name: "Liquidity Crisis",
		Description:      "A funding-market stress event (repo spike, bank run, margin call cascade).",
		PrimaryAssets:    []string{"^VIX", "SHY"},
		SecondaryAssets:  []string{"KRE"},
		SearchQueries:    []string{"repo spike", "liquidity crunch"},
		TypicalMagnitude: "broad deleveraging",
		TimeHorizon:      Immediate,
		Keywords:         []string{"repo spike", "liquidity crunch", "bank run", "margin call"},
	},
	{
		Type: RiskOffFlight, Name: "Risk-Off Flight",
		Description:      "A broad flight from risk assets into safe havens.",
		PrimaryAssets:    []string{"^VIX", "TLT", "GC=F"},
		SecondaryAssets:  []string{"SPY"},
		SearchQueries:    []string{"flight to safety", "risk off"},
		TypicalMagnitude: "2-5% equity drawdown",
		TimeHorizon:      Immediate,
		Keywords:         []string{"risk off", "flight to safety", "sell-off", "selloff"},
	},
	{
		Type: RiskOnRally, Name: "Risk-On Rally",
		Description:      "A broad rally into risk assets out of safe havens.",
		PrimaryAssets:    []string{"SPY", "HYG"},
		SecondaryAssets:  []string{"^VIX"},
		SearchQueries:    []string{"risk on rally"},
		TypicalMagnitude: "1-3% equity rally",
		TimeHorizon:      Immediate,
		Keywords:         []string{"risk on", "rally", "stocks surge"},
	},
	{
		Type: VIXSpike, Name: "VIX Spike",
		Description:      "Implied volatility spikes sharply on an unexpected shock.",
		PrimaryAssets:    []string{"^VIX"},
		SecondaryAssets:  []string{"SPY"},
		SearchQueries:    []string{"vix spikes"},
		TypicalMagnitude: "vix +20-50%",
		TimeHorizon:      Immediate,
		Keywords:         []string{"vix spikes", "volatility surges", "vix jumps"},
	},
	{
		Type: TradeSanctions, Name: "Trade Sanctions",
		Description:      "New sanctions restrict trade with a country or entity.",
		PrimaryAssets:    []string{"FXI", "EEM"},
		SecondaryAssets:  []string{"CL=F"},
		SearchQueries:    []string{"new sanctions announced"},
		TypicalMagnitude: "sector-specific, 2-10%",
		TimeHorizon:      MediumTerm,
		Keywords:         []string{"sanctions", "trade restrictions", "blacklist"},
	},
	{
		Type: CapitalControls, Name: "Capital Controls",
		Description:      "A country imposes or tightens restrictions on capital flows.",
		PrimaryAssets:    []string{"EEM"},
		SecondaryAssets:  []string{"EWZ"},
		SearchQueries:    []string{"capital controls imposed"},
		TypicalMagnitude: "local market dislocation",
		TimeHorizon:      LongTerm,
		Keywords:         []string{"capital controls", "currency controls"},
	},
	{
		Type: ExportRestrictions, Name: "Export Restrictions",
		Description:      "A government restricts exports of a strategic good (chips, rare earths, grain).",
		PrimaryAssets:    []string{"SMH", "REMX"},
		SecondaryAssets:  []string{"FXI"},
		SearchQueries:    []string{"export restrictions announced", "export ban"},
		TypicalMagnitude: "sector-specific, 3-15%",
		TimeHorizon:      MediumTerm,
		Keywords:         []string{"export restrictions", "export ban", "export controls", "chip export"},
	},
	{
		Type: InflationSpike, Name: "Inflation Spike",
		Description:      "A hot inflation print surprises materially above expectations.",
		PrimaryAssets:    []string{"TIP", "GC=F"},
		SecondaryAssets:  []string{"TLT"},
		SearchQueries:    []string{"cpi surprise hot"},
		TypicalMagnitude: "10-25bps on the 2y",
		TimeHorizon:      Immediate,
		Keywords:         []string{"hot cpi", "inflation surprise", "inflation spikes", "ppi surges"},
	},
	{
		Type: DeflationRisk, Name: "Deflation Risk",
		Description:      "A soft inflation print or outright price declines raise deflation concerns.",
		PrimaryAssets:    []string{"TLT"},
		SecondaryAssets:  []string{"GC=F"},
		SearchQueries:    []string{"deflation fears", "cpi surprise cold"},
		TypicalMagnitude: "10-25bps on the 2y",
		TimeHorizon:      MediumTerm,
		Keywords:         []string{"deflation", "disinflation", "price declines"},
	},
	{
		Type: WagePressure, Name: "Wage Pressure",
		Description:      "Strong wage growth data raises sticky-inflation concerns.",
		PrimaryAssets:    []string{"TIP"},
		SecondaryAssets:  []string{"TLT"},
		SearchQueries:    []string{"wage growth surprise"},
		TypicalMagnitude: "5-15bps on the 2y",
		TimeHorizon:      MediumTerm,
		Keywords:         []string{"wage growth", "wage pressure", "average hourly earnings"},
	},
}

// channelsByEventType maps a normalised event type to the channels most
// likely relevant to it. DiscoverAssets appends these after the channels
// found by the keyword sweep over the whole catalogue.
var channelsByEventType = map[string][]Type{
	"monetary_policy": {FedHawkish, FedDovish, YieldCurveInversion, DollarStrength, DollarWeakness},
	"geopolitical":     {RiskOffFlight, TradeSanctions, CapitalControls, OilSupplyDisruption},
	"supply_shock":     {OilSupplyDisruption, NaturalGasSupply, MetalsSupply, AgriculturalSupply, ExportRestrictions},
	"inflation_data":   {InflationSpike, DeflationRisk, WagePressure},
	"labor_data":       {WagePressure, FedHawkish, FedDovish},
	"fiscal_policy":    {CreditTightening, DollarStrength},
	"trade_data":       {TradeSanctions, ExportRestrictions, YuanDevaluation},
}

// ticker extraction, grounded on asset_discovery.py's TICKER_PATTERN and
// NON_TICKERS stopword/acronym filter.
var tickerPattern = regexp.MustCompile(`\b([A-Z]{1,5}(?:=[A-Z])?)\b`)

var validSuffixes = map[string]bool{"=F": true, "=X": true}

var nonTickers = map[string]bool{
	"A": true, "I": true, "AND": true, "THE": true, "FOR": true, "WITH": true,
	"FROM": true, "THIS": true, "THAT": true, "THEY": true, "ARE": true,
	"WAS": true, "WERE": true, "BEEN": true, "HAVE": true, "HAS": true,
	"HAD": true, "DO": true, "DOES": true, "DID": true, "CAN": true,
	"COULD": true, "WOULD": true, "SHOULD": true, "MAY": true, "MIGHT": true,
	"MUST": true, "WILL": true, "IS": true, "IT": true, "BE": true, "TO": true,
	"OF": true, "IN": true, "ON": true, "AT": true, "BY": true, "AS": true,
	"OR": true, "AN": true, "IF": true, "SO": true, "NO": true, "YES": true,
	"NOT": true, "BUT": true, "ALL": true, "ANY": true, "NEW": true, "US": true,
	"UK": true, "EU": true, "FED": true, "ECB": true, "BOJ": true, "BOE": true,
	"PBOC": true, "OPEC": true, "GDP": true, "CPI": true, "PPI": true,
	"PMI": true, "NFP": true, "ISM": true, "FOMC": true, "RBI": true,
	"SNB": true, "CEO": true, "CFO": true, "COO": true, "IPO": true,
	"ETF": true, "NYSE": true, "NASDAQ": true, "DOW": true, "VS": true,
	"AM": true, "PM": true, "EST": true, "PST": true, "UTC": true, "GMT": true,
	"Q1": true, "Q2": true, "Q3": true, "Q4": true, "YTD": true, "YOY": true,
	"MOM": true, "QOQ": true, "BPS": true, "PCT": true, "MN": true, "BN": true,
	"TN": true, "MM": true, "K": true,
}

// ExtractTickers pulls plausible ticker symbols out of free text, dropping
// matches that are common words or acronyms rather than tickers. A bare
// suffix on its own (e.g. "=F") never passes the word-boundary regex, so
// only symbols with a letter body plus an optional recognised futures/FX
// suffix survive.
func ExtractTickers(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, match := range tickerPattern.FindAllString(text, -1) {
		base := match
		hasSuffix := false
		for suf := range validSuffixes {
			if strings.HasSuffix(match, suf) {
				base = strings.TrimSuffix(match, suf)
				hasSuffix = true
				break
			}
		}
		if !hasSuffix && strings.Contains(match, "=") {
			continue
		}
		if !hasSuffix && nonTickers[base] {
			continue
		}
		if seen[match] {
			continue
		}
		seen[match] = true
		out = append(out, match)
	}
	return out
}

// MatchByKeywords scores every channel by the number of its keywords that
// appear in text and returns the channels with at least one hit, ranked by
// hit count descending. Channels tied on hit count keep catalogue order.
func MatchByKeywords(text string) []Channel {
	t := strings.ToLower(text)
	type scored struct {
		channel Channel
		hits    int
	}
	var candidates []scored
	for _, c := range Catalogue {
		hits := 0
		for _, kw := range c.Keywords {
			if strings.Contains(t, kw) {
				hits++
			}
		}
		if hits > 0 {
			candidates = append(candidates, scored{channel: c, hits: hits})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].hits > candidates[j].hits
	})
	matched := make([]Channel, 0, len(candidates))
	for _, s := range candidates {
		matched = append(matched, s.channel)
	}
	return matched
}

func channelByType(t Type) (Channel, bool) {
	for _, c := range Catalogue {
		if c.Type == t {
			return c, true
		}
	}
	return Channel{}, false
}

// ForEventType returns the channels the catalogue associates with a
// normalised event type, in the order channelsByEventType lists them.
func ForEventType(eventType string) []Channel {
	types, ok := channelsByEventType[eventType]
	if !ok {
		return nil
	}
	out := make([]Channel, 0, len(types))
	for _, t := range types {
		if c, ok := channelByType(t); ok {
			out = append(out, c)
		}
	}
	return out
}

// DiscoveryResult is the combined output of a single discovery pass:
// every matched channel plus the deduplicated asset lists and ticker
// mentions pulled directly from the text.
type DiscoveryResult struct {
	Channels         []Channel
	PrimaryAssets    []string
	SecondaryAssets  []string
	DiscoveredAssets []string
	SearchQueries    []string
}

// AllAssets returns primary, then secondary, then free-text discovered
// assets, deduplicated, preserving first-seen order.
func (d DiscoveryResult) AllAssets() []string {
	all := append(append([]string{}, d.PrimaryAssets...), d.SecondaryAssets...)
	all = append(all, d.DiscoveredAssets...)
	return dedupOrdered(all)
}

// DiscoverAssets finds the transmission channels implicated by headline
// (and optionally fullText for a deeper keyword sweep). Keyword matches are
// combined with event-type fallback matches, deduplicated by channel type
// keeping the first occurrence seen (keyword matches before type matches),
// and capped at maxChannels. It also extracts any literal ticker mentions
// from the combined text. includeSecondary controls whether each channel's
// secondary assets are included in the result.
func DiscoverAssets(headline, eventType, fullText string, maxChannels int, includeSecondary bool) DiscoveryResult {
	if maxChannels <= 0 {
		maxChannels = 5
	}

	seenTypes := make(map[Type]bool)
	var matched []Channel
	// Keyword matches are kept first: they're specific to this event's text,
	// whereas an event-type match is only a fallback for weak keyword signal.
	for _, c := range MatchByKeywords(headline + " " + fullText) {
		if !seenTypes[c.Type] {
			seenTypes[c.Type] = true
			matched = append(matched, c)
		}
	}
	for _, c := range ForEventType(eventType) {
		if !seenTypes[c.Type] {
			seenTypes[c.Type] = true
			matched = append(matched, c)
		}
	}
	if len(matched) > maxChannels {
		matched = matched[:maxChannels]
	}

	var primary, secondary []string
	var queries []string
	for _, c := range matched {
		primary = append(primary, c.PrimaryAssets...)
		if includeSecondary {
			secondary = append(secondary, c.SecondaryAssets...)
		}
		queries = append(queries, c.SearchQueries...)
	}

	discovered := ExtractTickers(headline + " " + fullText)

	return DiscoveryResult{
		Channels:         matched,
		PrimaryAssets:    dedupOrdered(primary),
		SecondaryAssets:  dedupOrdered(secondary),
		DiscoveredAssets: dedupOrdered(discovered),
		SearchQueries:    dedupOrdered(queries),
	}
}

// FormatDiscoveryResult renders a DiscoveryResult the way the LLM synthesis
// prompt expects it, alongside horizon's and conviction's FormatForPrompt.
func FormatDiscoveryResult(d DiscoveryResult) string {
	var b strings.Builder
	b.WriteString("=== DISCOVERY RESULT ===\n")
	for _, c := range d.Channels {
		b.WriteString(fmt.Sprintf("  Channel: %s (%s)\n", c.Name, c.Type))
	}
	b.WriteString(fmt.Sprintf("  Primary assets: %s\n", strings.Join(d.PrimaryAssets, ", ")))
	if len(d.SecondaryAssets) > 0 {
		b.WriteString(fmt.Sprintf("  Secondary assets: %s\n", strings.Join(d.SecondaryAssets, ", ")))
	}
	if len(d.DiscoveredAssets) > 0 {
		b.WriteString(fmt.Sprintf("  Tickers mentioned: %s\n", strings.Join(d.DiscoveredAssets, ", ")))
	}
	b.WriteString("========================\n")
	return b.String()
}

func dedupOrdered(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
