// Package radar turns a category filter and a result limit into ranked
// inefficiency scores, bounding how much upstream work one request may cost.
package radar

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kalshiradar/radar/internal/kalshi"
	"github.com/kalshiradar/radar/internal/metrics"
	"github.com/kalshiradar/radar/internal/scoring"
)

// ErrMarketNotFound is returned by MarketDetail when the ticker does not
// appear in the open-market listing.
var ErrMarketNotFound = errors.New("market not found")

// Gateway is the slice of the exchange client the aggregator needs.
type Gateway interface {
	ListSeries(ctx context.Context, limit int) ([]kalshi.Series, error)
	ListMarketsForSeries(ctx context.Context, seriesTicker string) ([]kalshi.Market, error)
	ListMarkets(ctx context.Context, limit int, cursor string) ([]kalshi.Market, string, error)
	GetOrderbook(ctx context.Context, ticker string) (*kalshi.Orderbook, error)
	GetHistory(ctx context.Context, ticker string, limit int) []kalshi.Trade
}

// Caps bound how many upstream calls one aggregation may issue. The listing,
// scoring and opportunity endpoints check progressively more series; that is
// a latency/completeness trade-off, not a correctness rule.
type Caps struct {
	SeriesFetchLimit     int `yaml:"series_fetch_limit"`
	ListingMaxSeries     int `yaml:"listing_max_series"`
	ScoringMaxSeries     int `yaml:"scoring_max_series"`
	OpportunityMaxSeries int `yaml:"opportunity_max_series"`
	MarketsPerSeries     int `yaml:"markets_per_series"`
	OpportunityPerSeries int `yaml:"opportunity_markets_per_series"`
	DetailPageSize       int `yaml:"detail_page_size"`
	DetailMaxPages       int `yaml:"detail_max_pages"`
}

// DefaultCaps mirrors the service's production limits.
func DefaultCaps() Caps {
	return Caps{
		SeriesFetchLimit:     200,
		ListingMaxSeries:     20,
		ScoringMaxSeries:     30,
		OpportunityMaxSeries: 50,
		MarketsPerSeries:     5,
		OpportunityPerSeries: 10,
		DetailPageSize:       200,
		DetailMaxPages:       5,
	}
}

func (c *Caps) applyDefaults() {
	d := DefaultCaps()
	if c.SeriesFetchLimit <= 0 {
		c.SeriesFetchLimit = d.SeriesFetchLimit
	}
	if c.ListingMaxSeries <= 0 {
		c.ListingMaxSeries = d.ListingMaxSeries
	}
	if c.ScoringMaxSeries <= 0 {
		c.ScoringMaxSeries = d.ScoringMaxSeries
	}
	if c.OpportunityMaxSeries <= 0 {
		c.OpportunityMaxSeries = d.OpportunityMaxSeries
	}
	if c.MarketsPerSeries <= 0 {
		c.MarketsPerSeries = d.MarketsPerSeries
	}
	if c.OpportunityPerSeries <= 0 {
		c.OpportunityPerSeries = d.OpportunityPerSeries
	}
	if c.DetailPageSize <= 0 {
		c.DetailPageSize = d.DetailPageSize
	}
	if c.DetailMaxPages <= 0 {
		c.DetailMaxPages = d.DetailMaxPages
	}
}

// SeriesList is the /api/series response body.
type SeriesList struct {
	Series []kalshi.Series `json:"series"`
	Count  int             `json:"count"`
}

// MarketList is the /api/markets response body.
type MarketList struct {
	Markets       []scoring.MarketSnapshot `json:"markets"`
	Count         int                      `json:"count"`
	SeriesChecked int                      `json:"series_checked"`
}

// ScoreBoard is the /api/scores response body.
type ScoreBoard struct {
	Scores             []scoring.ScoreRecord `json:"scores"`
	OpportunitiesFound int                   `json:"opportunities_found"`
	TotalScored        int                   `json:"total_scored"`
	SeriesChecked      int                   `json:"series_checked"`
}

// OpportunityList is the /api/opportunities response body.
type OpportunityList struct {
	Opportunities []scoring.ScoreRecord `json:"opportunities"`
	Count         int                   `json:"count"`
	SeriesChecked int                   `json:"series_checked"`
}

// MarketDetail is the /api/markets/{ticker} response body. Liquidity sums
// quantity across the top five levels of both books; it is descriptive only
// and never feeds scoring.
type MarketDetail struct {
	Market    scoring.MarketSnapshot `json:"market"`
	Orderbook *kalshi.Orderbook      `json:"orderbook"`
	Liquidity int                    `json:"liquidity"`
	History   []kalshi.Trade         `json:"history"`
}

// Aggregator orchestrates the fetch -> filter -> score -> sort pipeline over
// a Gateway. One instance is shared by all requests; it holds no per-request
// state.
type Aggregator struct {
	gw   Gateway
	caps Caps
	log  zerolog.Logger
}

// NewAggregator wires the pipeline to a gateway. Zero-valued caps fall back
// to the defaults.
func NewAggregator(gw Gateway, caps Caps, logger zerolog.Logger) *Aggregator {
	caps.applyDefaults()
	return &Aggregator{gw: gw, caps: caps, log: logger}
}

// Series lists up to limit series, with the category defaulted to "Other".
func (a *Aggregator) Series(ctx context.Context, limit int) (*SeriesList, error) {
	series, err := a.gw.ListSeries(ctx, limit)
	if err != nil {
		return nil, err
	}

	out := make([]kalshi.Series, 0, len(series))
	for _, s := range series {
		if s.Category == "" {
			s.Category = "Other"
		}
		out = append(out, s)
	}
	return &SeriesList{Series: out, Count: len(out)}, nil
}

// Markets lists markets across series, honoring the category filter and the
// listing caps.
func (a *Aggregator) Markets(ctx context.Context, limit int, category string) (*MarketList, error) {
	series, err := a.seriesForFilter(ctx, category)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		limit = 0
	}

	list := &MarketList{Markets: []scoring.MarketSnapshot{}}
	for _, s := range capSlice(series, a.caps.ListingMaxSeries) {
		list.SeriesChecked++
		markets, err := a.gw.ListMarketsForSeries(ctx, s.Ticker)
		if err != nil {
			a.skipSeries(s.Ticker, err)
			continue
		}
		for _, m := range capSlice(markets, a.caps.MarketsPerSeries) {
			list.Markets = append(list.Markets, snapshot(m, s.Ticker, s.Category))
			if len(list.Markets) >= limit {
				break
			}
		}
		if len(list.Markets) >= limit {
			break
		}
	}
	// The collection loop can overshoot by a market before it notices the
	// limit, so the final cut is authoritative.
	list.Markets = capSlice(list.Markets, limit)
	list.Count = len(list.Markets)
	return list, nil
}

// Scores scores markets across series and returns the top inefficiencies,
// highest first. It overcollects to twice the limit so the sort has material
// to rank, then truncates.
func (a *Aggregator) Scores(ctx context.Context, limit int, category string) (*ScoreBoard, error) {
	series, err := a.seriesForFilter(ctx, category)
	if err != nil {
		return nil, err
	}

	if limit < 0 {
		limit = 0
	}

	board := &ScoreBoard{}
	target := 2 * limit
	scored := []scoring.ScoreRecord{}
	for _, s := range capSlice(series, a.caps.ScoringMaxSeries) {
		board.SeriesChecked++
		markets, err := a.gw.ListMarketsForSeries(ctx, s.Ticker)
		if err != nil {
			a.skipSeries(s.Ticker, err)
			continue
		}
		for _, m := range capSlice(markets, a.caps.MarketsPerSeries) {
			record, ok := scoring.Score(snapshot(m, s.Ticker, s.Category))
			if !ok {
				continue
			}
			scored = append(scored, record)
			if len(scored) >= target {
				break
			}
		}
		if len(scored) >= target {
			break
		}
	}
	metrics.MarketsScored(len(scored))

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].InefficiencyScore > scored[j].InefficiencyScore
	})

	for _, record := range scored {
		if record.IsOpportunity {
			board.OpportunitiesFound++
		}
	}
	board.TotalScored = len(scored)
	if len(scored) > limit {
		scored = scored[:limit]
	}
	board.Scores = scored
	return board, nil
}

// Opportunities returns only markets flagged as opportunities, in discovery
// order, stopping as soon as limit are found.
func (a *Aggregator) Opportunities(ctx context.Context, limit int, category string) (*OpportunityList, error) {
	series, err := a.seriesForFilter(ctx, category)
	if err != nil {
		return nil, err
	}

	list := &OpportunityList{Opportunities: []scoring.ScoreRecord{}}
	for _, s := range capSlice(series, a.caps.OpportunityMaxSeries) {
		list.SeriesChecked++
		markets, err := a.gw.ListMarketsForSeries(ctx, s.Ticker)
		if err != nil {
			a.skipSeries(s.Ticker, err)
			continue
		}
		for _, m := range capSlice(markets, a.caps.OpportunityPerSeries) {
			record, ok := scoring.Score(snapshot(m, s.Ticker, s.Category))
			if !ok || !record.IsOpportunity {
				continue
			}
			list.Opportunities = append(list.Opportunities, record)
			if len(list.Opportunities) >= limit {
				break
			}
		}
		if len(list.Opportunities) >= limit {
			break
		}
	}
	list.Count = len(list.Opportunities)
	return list, nil
}

// MarketDetail looks a single market up in the open-market listing and
// decorates it with its orderbook, a top-of-book liquidity figure, and
// recent trade history.
func (a *Aggregator) MarketDetail(ctx context.Context, ticker string) (*MarketDetail, error) {
	var found *kalshi.Market
	cursor := ""
	for page := 0; page < a.caps.DetailMaxPages; page++ {
		markets, next, err := a.gw.ListMarkets(ctx, a.caps.DetailPageSize, cursor)
		if err != nil {
			return nil, err
		}
		for i := range markets {
			if markets[i].Ticker == ticker {
				found = &markets[i]
				break
			}
		}
		if found != nil || next == "" {
			break
		}
		cursor = next
	}
	if found == nil {
		return nil, ErrMarketNotFound
	}

	orderbook, err := a.gw.GetOrderbook(ctx, ticker)
	if err != nil {
		return nil, err
	}
	history := a.gw.GetHistory(ctx, ticker, 100)

	return &MarketDetail{
		Market:    snapshot(*found, found.SeriesTicker, found.Category),
		Orderbook: orderbook,
		Liquidity: orderbookLiquidity(orderbook),
		History:   history,
	}, nil
}

// seriesForFilter fetches the series universe and applies the optional
// case-insensitive category filter.
func (a *Aggregator) seriesForFilter(ctx context.Context, category string) ([]kalshi.Series, error) {
	series, err := a.gw.ListSeries(ctx, a.caps.SeriesFetchLimit)
	if err != nil {
		return nil, err
	}
	if category == "" {
		return series, nil
	}

	filtered := make([]kalshi.Series, 0, len(series))
	for _, s := range series {
		if strings.EqualFold(s.Category, category) {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// skipSeries records a per-series fetch failure. One broken series must not
// sink the whole aggregation.
func (a *Aggregator) skipSeries(ticker string, err error) {
	a.log.Warn().Err(err).Str("series", ticker).Msg("skipping series")
	metrics.SeriesSkipped()
}

// snapshot applies the upstream defaults once, at the boundary between the
// exchange payload and the scoring domain.
func snapshot(m kalshi.Market, seriesTicker, category string) scoring.MarketSnapshot {
	yesAsk := 100
	if m.YesAsk != nil {
		yesAsk = *m.YesAsk
	}
	if category == "" {
		category = "Other"
	}
	return scoring.MarketSnapshot{
		Ticker:       m.Ticker,
		Title:        m.Title,
		SeriesTicker: seriesTicker,
		Category:     category,
		YesBid:       m.YesBid,
		YesAsk:       yesAsk,
		OpenInterest: m.OpenInterest,
		Volume24h:    m.Volume24h,
		LastPrice:    m.LastPrice,
	}
}

func orderbookLiquidity(ob *kalshi.Orderbook) int {
	total := 0
	for i, level := range ob.Yes {
		if i >= 5 {
			break
		}
		total += level.Quantity
	}
	for i, level := range ob.No {
		if i >= 5 {
			break
		}
		total += level.Quantity
	}
	return total
}

func capSlice[T any](items []T, max int) []T {
	if len(items) > max {
		return items[:max]
	}
	return items
}
