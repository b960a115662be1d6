package kalshi

// Series is a parent grouping of related markets, one entry from GET /series.
type Series struct {
	Ticker    string `json:"ticker"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Frequency string `json:"frequency"`
}

// Market is one tradeable binary contract from GET /markets. Prices are in
// cents, range [0,100]. YesAsk is a pointer because the exchange omits it for
// markets with an empty ask side; the documented default is 100 and is applied
// when the payload crosses into the scoring domain.
type Market struct {
	Ticker       string `json:"ticker"`
	Title        string `json:"title"`
	SeriesTicker string `json:"series_ticker"`
	Category     string `json:"category"`
	YesBid       int    `json:"yes_bid"`
	YesAsk       *int   `json:"yes_ask"`
	OpenInterest int    `json:"open_interest"`
	Volume24h    int    `json:"volume_24h"`
	LastPrice    int    `json:"last_price"`
	CloseTime    string `json:"close_time"`
	Result       string `json:"result"`
}

// PriceLevel is one resting level of an orderbook side.
type PriceLevel struct {
	Price    int `json:"price"`
	Quantity int `json:"quantity"`
}

// Orderbook holds both sides of a market's book, best price first.
type Orderbook struct {
	Yes []PriceLevel `json:"yes"`
	No  []PriceLevel `json:"no"`
}

// Trade is one executed trade from GET /markets/{ticker}/history.
type Trade struct {
	TradeID     string `json:"trade_id"`
	Ticker      string `json:"ticker"`
	Count       int    `json:"count"`
	YesPrice    int    `json:"yes_price"`
	NoPrice     int    `json:"no_price"`
	TakerSide   string `json:"taker_side"`
	CreatedTime string `json:"created_time"`
}
