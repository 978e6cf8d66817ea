package models

// BuySignal is the JSON payload broadcast to downstream subscribers when a
// buy decision is executed. Field names and types are a compatibility
// contract; do not rename.
type BuySignal struct {
	Type             string  `json:"type"` // always "BUY"
	Ticker           string  `json:"ticker"`
	CompanyName      string  `json:"companyName"`
	Price            float64 `json:"price"`
	Timestamp        string  `json:"timestamp"`
	TargetPrice      float64 `json:"targetPrice"`
	StopLoss         float64 `json:"stopLoss"`
	InvestmentPeriod string  `json:"investmentPeriod"`
	Sector           string  `json:"sector"`
	Rationale        string  `json:"rationale"`
	BuyScore         int     `json:"buyScore"`
	TradeSuccess     bool    `json:"tradeSuccess"`
	TradeMessage     string  `json:"tradeMessage"`
}

// SellSignal is the JSON payload broadcast when a sell decision is executed.
// Same compatibility contract as BuySignal.
type SellSignal struct {
	Type         string  `json:"type"` // always "SELL"
	Ticker       string  `json:"ticker"`
	CompanyName  string  `json:"companyName"`
	Price        float64 `json:"price"`
	Timestamp    string  `json:"timestamp"`
	BuyPrice     float64 `json:"buyPrice"`
	ProfitRate   float64 `json:"profitRate"`
	SellReason   string  `json:"sellReason"`
	TradeSuccess bool    `json:"tradeSuccess"`
	TradeMessage string  `json:"tradeMessage"`
}
