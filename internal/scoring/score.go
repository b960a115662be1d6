package scoring

import "math"

// Exclusion thresholds. Markets thinner than this carry too little signal
// for the spread ratios to mean anything.
const (
	minOpenInterest = 50
	minVolume24h    = 5
)

// Opportunity criteria, applied to unrounded values.
const (
	opportunitySpread = 0.02
	opportunityScore  = 20.0
)

// Analysis labels, keyed by spread width.
const (
	AnalysisVeryWide = "Very wide spread (>10%) - high inefficiency"
	AnalysisWide     = "Wide spread (5-10%) - moderate inefficiency"
	AnalysisModerate = "Moderate spread (2-5%) - potential opportunity"
	AnalysisTight    = "Tight spread (<2%) - efficient market"
)

// MarketSnapshot is one market's metrics at fetch time. Prices are in cents,
// range [0,100]. Built once per request at the gateway boundary with upstream
// defaults already applied (yes_ask 100, everything else zero, category
// "Other"); never mutated afterwards.
type MarketSnapshot struct {
	Ticker       string `json:"ticker"`
	Title        string `json:"title"`
	SeriesTicker string `json:"series_ticker"`
	Category     string `json:"category"`
	YesBid       int    `json:"yes_bid"`
	YesAsk       int    `json:"yes_ask"`
	OpenInterest int    `json:"open_interest"`
	Volume24h    int    `json:"volume_24h"`
	LastPrice    int    `json:"last_price"`
}

// ScoreRecord is the scored view of a market that passed every exclusion
// filter. Numeric fields are rounded to two decimals for presentation;
// IsOpportunity and Analysis were decided on the unrounded values.
type ScoreRecord struct {
	Ticker            string  `json:"ticker"`
	Title             string  `json:"title"`
	SeriesTicker      string  `json:"series_ticker"`
	LVSScore          float64 `json:"lvs_score"`
	MDRScore          float64 `json:"mdr_score"`
	InefficiencyScore float64 `json:"inefficiency_score"`
	IsOpportunity     bool    `json:"is_opportunity"`
	SpreadPct         float64 `json:"spread_pct"`
	MidPrice          float64 `json:"mid_price"`
	YesBid            int     `json:"yes_bid"`
	YesAsk            int     `json:"yes_ask"`
	OpenInterest      int     `json:"open_interest"`
	Volume24h         int     `json:"volume_24h"`
	LastPrice         int     `json:"last_price"`
	Analysis          string  `json:"analysis"`
	Category          string  `json:"category"`
}

// Score rates one market's pricing inefficiency from its spread, open
// interest and recent volume. The second return is false when the market is
// excluded: too thin, too quiet, or showing no price discovery. Pure
// function, no I/O; safe to call from any goroutine.
func Score(m MarketSnapshot) (ScoreRecord, bool) {
	// Filters short-circuit in order; the first hit wins.
	if m.OpenInterest < minOpenInterest {
		return ScoreRecord{}, false
	}
	if m.Volume24h < minVolume24h {
		return ScoreRecord{}, false
	}
	if m.YesBid == 0 && m.YesAsk == 100 {
		return ScoreRecord{}, false
	}

	midPrice := float64(m.YesBid+m.YesAsk) / 2
	if midPrice == 0 {
		return ScoreRecord{}, false
	}

	spread := float64(m.YesAsk - m.YesBid)
	spreadPct := spread / midPrice

	// Liquidity-Volume Spread: wide spreads on thin books score high.
	lvs := (spreadPct * 100) * (1000 / math.Max(float64(m.OpenInterest), 1))

	// Market Depth Ratio: wide spreads with little recent trading score high.
	mdr := (spreadPct * 100) * (500 / math.Max(float64(m.Volume24h+1), 1))

	inefficiency := lvs*0.6 + mdr*0.4

	isOpportunity := spreadPct > opportunitySpread && inefficiency > opportunityScore

	var analysis string
	switch {
	case spreadPct > 0.10:
		analysis = AnalysisVeryWide
	case spreadPct > 0.05:
		analysis = AnalysisWide
	case spreadPct > opportunitySpread:
		analysis = AnalysisModerate
	default:
		analysis = AnalysisTight
	}

	return ScoreRecord{
		Ticker:            m.Ticker,
		Title:             m.Title,
		SeriesTicker:      m.SeriesTicker,
		LVSScore:          round2(lvs),
		MDRScore:          round2(mdr),
		InefficiencyScore: round2(inefficiency),
		IsOpportunity:     isOpportunity,
		SpreadPct:         round2(spreadPct * 100),
		MidPrice:          round2(midPrice),
		YesBid:            m.YesBid,
		YesAsk:            m.YesAsk,
		OpenInterest:      m.OpenInterest,
		Volume24h:         m.Volume24h,
		LastPrice:         m.LastPrice,
		Analysis:          analysis,
		Category:          m.Category,
	}, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
