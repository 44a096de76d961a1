package offer

import (
	"math"

	"github.com/mvipergts/value/internal/risk"
)

// LineItem is a costed deduction with a stable identity key. Maintenance and
// reconditioning items share one key namespace; the same logical item must
// never be deducted twice.
type LineItem struct {
	Key    string  `json:"key"`
	Amount float64 `json:"amount"`
}

// CalcInput carries everything Calc needs. The settings snapshot is read once
// by the caller; Calc has no hidden state.
type CalcInput struct {
	RetailBase    float64
	WholesaleBase float64
	MaintItems    []LineItem
	ReconItems    []LineItem
	RiskBuckets   []risk.Bucket
	Settings      Settings
}

// Result is the offer-ceiling breakdown. TargetMaxBuy is never negative.
type Result struct {
	RetailBase     float64 `json:"retail_base"`
	WholesaleBase  float64 `json:"wholesale_base"`
	MaintDeduction float64 `json:"maint_deduction"`
	AdjWholesale   float64 `json:"adj_wholesale"`
	ReconTotal     float64 `json:"recon_total"`
	RiskReserve    float64 `json:"risk_reserve"`
	DesiredProfit  float64 `json:"desired_profit"`
	Holding        float64 `json:"holding"`
	Fees           float64 `json:"fees"`
	TargetMaxBuy   float64 `json:"target_max_buy"`
}

// Calc computes the target purchase ceiling. Pure function of its inputs.
//
// Maintenance items are walked before reconditioning items; within the shared
// key namespace the first occurrence wins, so an item counted toward the
// maintenance deduction is excluded from the reconditioning total and repeat
// keys inside either list count once. The risk reserve is capped once, before
// either ceiling is computed, so both ceilings see the same capped figure.
// Intermediate values keep full precision; the floor lands only on the final
// min of the two ceilings.
func Calc(in CalcInput) Result {
	seen := map[string]struct{}{}
	maintDeduction := 0.0
	for _, item := range in.MaintItems {
		if _, dup := seen[item.Key]; dup {
			continue
		}
		seen[item.Key] = struct{}{}
		maintDeduction += item.Amount
	}
	reconTotal := 0.0
	for _, item := range in.ReconItems {
		if _, dup := seen[item.Key]; dup {
			continue
		}
		seen[item.Key] = struct{}{}
		reconTotal += item.Amount
	}

	adjWholesale := math.Max(0, math.Round(in.WholesaleBase-maintDeduction))

	riskReserve := 0.0
	for _, b := range in.RiskBuckets {
		riskReserve += float64(b.Score) * in.Settings.riskWeight(b.Label)
	}
	// RiskReserveCapPct <= 0 disables the cap.
	if pct := in.Settings.RiskReserveCapPct; pct > 0 {
		if limit := in.WholesaleBase * pct; riskReserve > limit {
			riskReserve = limit
		}
	}

	holding := in.Settings.FloorplanAPR * in.Settings.DaysToTurn * in.RetailBase / 365
	fees := in.Settings.AvgTransport + in.Settings.MarketingFees + in.Settings.WarrantyReserve

	ceiling1 := adjWholesale - reconTotal - riskReserve - in.Settings.DesiredProfit
	ceiling2 := in.RetailBase - in.Settings.DesiredProfit - reconTotal - holding - fees

	target := math.Max(0, math.Floor(math.Min(ceiling1, ceiling2)))

	return Result{
		RetailBase:     in.RetailBase,
		WholesaleBase:  in.WholesaleBase,
		MaintDeduction: maintDeduction,
		AdjWholesale:   adjWholesale,
		ReconTotal:     reconTotal,
		RiskReserve:    riskReserve,
		DesiredProfit:  in.Settings.DesiredProfit,
		Holding:        holding,
		Fees:           fees,
		TargetMaxBuy:   target,
	}
}
