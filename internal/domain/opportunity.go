// Package domain holds the core value types of the flip scanner: watchlist
// items, flip opportunities, evaluation verdicts, and the store interfaces
// that persistence adapters implement. The package is dependency-free; all
// economics here are pure functions of an opportunity and a policy.
package domain

import "time"

// RiskLevel is a coarse liquidity/volatility classification of a flip.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// RejectReason explains why an evaluated flip was not considered viable.
// An empty value means the flip was accepted.
type RejectReason string

const (
	RejectNegativeROI RejectReason = "NEGATIVE_ROI"
	RejectHighRisk    RejectReason = "HIGH_RISK"
	RejectLowVolume   RejectReason = "LOW_VOLUME"
	RejectLowProfit   RejectReason = "LOW_PROFIT"
	RejectLowROI      RejectReason = "LOW_ROI"
)

// Policy holds the externally configured thresholds that drive evaluation.
// It is read-only input; the model keeps no state of its own.
type Policy struct {
	// FeeRate is the marketplace cut taken from every sale (0.15 = 15%).
	FeeRate float64

	MinVolume int
	MinProfit float64
	MinROI    float64

	RiskHighSpread      float64
	RiskMediumSpread    float64
	RiskHighMinVolume   int
	RiskMediumMinVolume int
}

// DefaultPolicy returns the stock thresholds. Values are tuned for the RUB
// market and are normally overridden from configuration.
func DefaultPolicy() Policy {
	return Policy{
		FeeRate:             0.15,
		MinVolume:           20,
		MinProfit:           5.0,
		MinROI:              0.03,
		RiskHighSpread:      0.40,
		RiskMediumSpread:    0.25,
		RiskHighMinVolume:   50,
		RiskMediumMinVolume: 150,
	}
}

// Opportunity is one potential buy-then-sell cycle on a single item at a
// point in time. BuyPrice and SellPrice are guaranteed positive by the
// builder; Volume is the number of units sold in the last 24h.
type Opportunity struct {
	Name      string
	BuyPrice  float64
	SellPrice float64
	Volume    int
}

// NetProfit is the real profit (or loss) of the flip after the marketplace
// fee: only (1 - fee) of the sell price is actually received.
func (o Opportunity) NetProfit(p Policy) float64 {
	return o.SellPrice*(1-p.FeeRate) - o.BuyPrice
}

// ProfitPct is the return on invested capital after fees. Defined as 0 when
// the buy price is not positive.
func (o Opportunity) ProfitPct(p Policy) float64 {
	if o.BuyPrice <= 0 {
		return 0
	}
	return o.NetProfit(p) / o.BuyPrice
}

// SpreadPct is the relative gap between buy and sell price, as a fraction of
// the buy price. Large spreads usually mean low liquidity or outlier sales
// rather than repeatable profit.
func (o Opportunity) SpreadPct() float64 {
	return (o.SellPrice - o.BuyPrice) / o.BuyPrice
}

// Risk classifies the flip by spread and volume. Checks are ordered HIGH
// then MEDIUM; the first match wins.
func (o Opportunity) Risk(p Policy) RiskLevel {
	if o.SpreadPct() >= p.RiskHighSpread || o.Volume <= p.RiskHighMinVolume {
		return RiskHigh
	}
	if o.SpreadPct() >= p.RiskMediumSpread || o.Volume <= p.RiskMediumMinVolume {
		return RiskMedium
	}
	return RiskLow
}

// Evaluation is the terminal verdict for one evaluated flip. RejectReason is
// empty exactly when Profitable is true.
type Evaluation struct {
	Profitable   bool
	RejectReason RejectReason
}

// Evaluate applies the policy to the opportunity and returns exactly one
// verdict. Reject reasons are checked in strict priority order; an
// opportunity with several defects always reports the highest-priority one.
func (o Opportunity) Evaluate(p Policy) Evaluation {
	if o.ProfitPct(p) < 0 {
		return Evaluation{RejectReason: RejectNegativeROI}
	}
	if o.Risk(p) == RiskHigh {
		return Evaluation{RejectReason: RejectHighRisk}
	}
	if o.Volume < p.MinVolume {
		return Evaluation{RejectReason: RejectLowVolume}
	}
	if o.NetProfit(p) < p.MinProfit {
		return Evaluation{RejectReason: RejectLowProfit}
	}
	if o.ProfitPct(p) < p.MinROI {
		return Evaluation{RejectReason: RejectLowROI}
	}
	return Evaluation{Profitable: true}
}

// Record is one persisted scan-and-evaluate event. The derived metrics are
// stored as columns for queryability; the append-only record table is the
// system's full audit trail, rejected flips included.
type Record struct {
	ID           int64        `json:"id"`
	ItemName     string       `json:"item_name"`
	BuyPrice     float64      `json:"buy_price"`
	SellPrice    float64      `json:"sell_price"`
	NetProfit    float64      `json:"net_profit"`
	ProfitPct    float64      `json:"profit_pct"`
	Volume       int          `json:"volume"`
	SpreadPct    float64      `json:"spread_pct"`
	RiskLevel    RiskLevel    `json:"risk_level"`
	Profitable   bool         `json:"profitable"`
	RejectReason RejectReason `json:"reject_reason,omitempty"`
	DetectedAt   time.Time    `json:"detected_at"`
}

// NewRecord snapshots an opportunity and its evaluation into a Record ready
// for insertion. ID is assigned by the store.
func NewRecord(o Opportunity, ev Evaluation, p Policy, at time.Time) Record {
	return Record{
		ItemName:     o.Name,
		BuyPrice:     o.BuyPrice,
		SellPrice:    o.SellPrice,
		NetProfit:    o.NetProfit(p),
		ProfitPct:    o.ProfitPct(p),
		Volume:       o.Volume,
		SpreadPct:    o.SpreadPct(),
		RiskLevel:    o.Risk(p),
		Profitable:   ev.Profitable,
		RejectReason: ev.RejectReason,
		DetectedAt:   at,
	}
}
