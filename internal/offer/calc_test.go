package offer

import (
	"math"
	"testing"

	"github.com/mvipergts/value/internal/risk"
)

func TestCalcWorkedScenario(t *testing.T) {
	settings := Settings{
		DesiredProfit:     2000,
		DaysToTurn:        30,
		FloorplanAPR:      0.10,
		AvgTransport:      100,
		MarketingFees:     60,
		WarrantyReserve:   75,
		RiskWeights:       map[string]float64{"Transmission": 100},
		DefaultRiskWeight: 50,
		RiskReserveCapPct: 0.15,
	}
	in := CalcInput{
		RetailBase:    14000,
		WholesaleBase: 12040,
		MaintItems: []LineItem{
			{Key: "oil change", Amount: 150},
			{Key: "engine air filter", Amount: 95},
			{Key: "cabin air filter", Amount: 80},
		},
		ReconItems: []LineItem{{Key: "brake pads & rotors", Amount: 450}},
		// 7 * 100 = 700 raw reserve; cap is 12040 * 0.15 = 1806, so raw wins.
		RiskBuckets: []risk.Bucket{{Label: "Transmission", Score: 7}},
		Settings:    settings,
	}
	out := Calc(in)

	if out.MaintDeduction != 325 {
		t.Fatalf("maint deduction: got %v want 325", out.MaintDeduction)
	}
	if out.AdjWholesale != 11715 {
		t.Fatalf("adjusted wholesale: got %v want 11715", out.AdjWholesale)
	}
	if out.RiskReserve != 700 {
		t.Fatalf("risk reserve: got %v want 700", out.RiskReserve)
	}
	if math.Abs(out.Holding-115.068493) > 0.001 {
		t.Fatalf("holding: got %v", out.Holding)
	}
	if out.Fees != 235 {
		t.Fatalf("fees: got %v want 235", out.Fees)
	}
	if out.TargetMaxBuy != 8565 {
		t.Fatalf("target max buy: got %v want 8565", out.TargetMaxBuy)
	}
}

func TestCalcNeverNegative(t *testing.T) {
	in := CalcInput{
		RetailBase:    3000,
		WholesaleBase: 2000,
		MaintItems:    []LineItem{{Key: "a", Amount: 5000}},
		ReconItems:    []LineItem{{Key: "b", Amount: 4000}},
		Settings:      DefaultSettings(),
	}
	out := Calc(in)
	if out.TargetMaxBuy != 0 {
		t.Fatalf("expected clamp to 0, got %v", out.TargetMaxBuy)
	}
	if out.AdjWholesale != 0 {
		t.Fatalf("expected adjusted wholesale clamp to 0, got %v", out.AdjWholesale)
	}
}

func TestCalcSharedKeyNamespaceFirstSeenWins(t *testing.T) {
	in := CalcInput{
		RetailBase:    20000,
		WholesaleBase: 18000,
		MaintItems: []LineItem{
			{Key: "transmission service", Amount: 240},
			{Key: "transmission service", Amount: 240}, // repeat inside one list
		},
		ReconItems: []LineItem{
			{Key: "transmission service", Amount: 500}, // already counted as maintenance
			{Key: "detail", Amount: 150},
		},
		Settings: DefaultSettings(),
	}
	out := Calc(in)
	if out.MaintDeduction != 240 {
		t.Fatalf("maint deduction: got %v want 240", out.MaintDeduction)
	}
	if out.ReconTotal != 150 {
		t.Fatalf("recon total: got %v want 150", out.ReconTotal)
	}
}

func TestCalcRiskReserveCapApplied(t *testing.T) {
	settings := DefaultSettings()
	settings.RiskWeights = map[string]float64{"Engine": 1000}
	in := CalcInput{
		RetailBase:    15000,
		WholesaleBase: 10000,
		RiskBuckets:   []risk.Bucket{{Label: "Engine", Score: 8}}, // raw 8000
		Settings:      settings,
	}
	out := Calc(in)
	if out.RiskReserve != 1500 {
		t.Fatalf("expected reserve capped at 15%% of wholesale (1500), got %v", out.RiskReserve)
	}
}

func TestCalcZeroCapPctDisablesCap(t *testing.T) {
	settings := DefaultSettings()
	settings.RiskWeights = map[string]float64{"Engine": 1000}
	settings.RiskReserveCapPct = 0
	in := CalcInput{
		RetailBase:    15000,
		WholesaleBase: 10000,
		RiskBuckets:   []risk.Bucket{{Label: "Engine", Score: 8}},
		Settings:      settings,
	}
	out := Calc(in)
	if out.RiskReserve != 8000 {
		t.Fatalf("expected uncapped reserve 8000, got %v", out.RiskReserve)
	}
}

func TestCalcUnknownBucketUsesDefaultWeight(t *testing.T) {
	settings := DefaultSettings()
	settings.RiskWeights = map[string]float64{}
	settings.DefaultRiskWeight = 40
	in := CalcInput{
		RetailBase:    15000,
		WholesaleBase: 12000,
		RiskBuckets:   []risk.Bucket{{Label: "Body", Score: 3}},
		Settings:      settings,
	}
	out := Calc(in)
	if out.RiskReserve != 120 {
		t.Fatalf("expected default-weight reserve 120, got %v", out.RiskReserve)
	}
}

func TestCalcFloorOnlyAtFinalStep(t *testing.T) {
	settings := DefaultSettings()
	settings.DesiredProfit = 0
	settings.AvgTransport = 0
	settings.MarketingFees = 0
	settings.WarrantyReserve = 0
	settings.FloorplanAPR = 0
	in := CalcInput{
		RetailBase:    10000.75,
		WholesaleBase: 9000.40,
		Settings:      settings,
	}
	out := Calc(in)
	// adjWholesale rounds 9000.40 to 9000; ceiling1 = 9000, ceiling2 =
	// 10000.75, floor(min) = 9000.
	if out.TargetMaxBuy != 9000 {
		t.Fatalf("got %v want 9000", out.TargetMaxBuy)
	}
}
