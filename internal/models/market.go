package models

import (
	"fmt"
	"math"
	"time"
)

// CoinIdentity 搜索解析后的币种身份
type CoinIdentity struct {
	ID     string `json:"id"`     // price feed id, eg: bitcoin
	Symbol string `json:"symbol"` // upper case ticker, eg: BTC
	Name   string `json:"name"`
}

// PricePoint is one point of the price chart.
type PricePoint struct {
	Time  string  `json:"time"` // M/D
	Price float64 `json:"price"`
}

// PriceAction 价格历史与当前价
type PriceAction struct {
	History      []PricePoint `json:"history"`
	CurrentPrice float64      `json:"current_price"`
}

// TokenShare is one slice of the tokenomics distribution.
type TokenShare struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"value"`
}

// LongShortPoint 多空比, Long+Short 恒等于 100
type LongShortPoint struct {
	Time  string  `json:"time"`
	Long  float64 `json:"long"`
	Short float64 `json:"short"`
}

// ProjectScore is one axis of the project radar chart.
type ProjectScore struct {
	Subject  string  `json:"subject"`
	Score    float64 `json:"score"`
	FullMark float64 `json:"fullMark"`
}

// ProjectScoreSubjects lists the fixed radar axes in display order.
var ProjectScoreSubjects = []string{"Security", "Decentralization", "Scalability", "Ecosystem", "Tokenomics"}

// MarketSnapshot merges fetched market data with model generated filler.
type MarketSnapshot struct {
	CoinName       string           `json:"coinName"`
	Symbol         string           `json:"symbol"`
	CurrentPrice   float64          `json:"currentPrice"`
	Summary        string           `json:"summary"`
	PriceHistory   []PricePoint     `json:"priceHistory"`
	Tokenomics     []TokenShare     `json:"tokenomics"`
	SentimentScore int              `json:"sentimentScore"` // 0-100
	LongShortRatio []LongShortPoint `json:"longShortRatio"`
	ProjectScores  []ProjectScore   `json:"projectScores"`
}

// RealMarketData holds what the external feeds returned. Nil fields were unavailable.
type RealMarketData struct {
	Coin      CoinIdentity
	Price     *PriceAction
	Sentiment int
	LongShort []LongShortPoint
}

// DayLabel formats t as M/D in UTC, the label used on every chart axis.
func DayLabel(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%d/%d", int(t.Month()), t.Day())
}

// NewLongShortPoint rounds long to one decimal and derives short so both sum to 100.
func NewLongShortPoint(label string, long float64) LongShortPoint {
	long = math.Max(0, math.Min(100, Round1(long)))
	return LongShortPoint{
		Time:  label,
		Long:  long,
		Short: Round1(100 - long),
	}
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
