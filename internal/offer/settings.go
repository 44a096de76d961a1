package offer

// Settings is the fully-materialized business-economics configuration. The
// engine treats it as a pure input: a calculation reads one consistent
// snapshot and never re-reads mid-run. Partial updates are merged onto the
// last full object by the settings store; this package never sees a
// partially-populated value.
type Settings struct {
	LaborRate         float64            `json:"labor_rate"`
	DesiredProfit     float64            `json:"desired_profit"`
	DaysToTurn        float64            `json:"days_to_turn"`
	FloorplanAPR      float64            `json:"floorplan_apr"`
	AvgTransport      float64            `json:"avg_transport"`
	MarketingFees     float64            `json:"marketing_fees"`
	WarrantyReserve   float64            `json:"warranty_reserve"`
	RiskWeights       map[string]float64 `json:"risk_weights"`
	DefaultRiskWeight float64            `json:"default_risk_weight"`
	RiskReserveCapPct float64            `json:"risk_reserve_cap_pct"`
}

// DefaultSettings seeds a fresh install. Values are dollars except the rates.
func DefaultSettings() Settings {
	return Settings{
		LaborRate:         120,
		DesiredProfit:     2000,
		DaysToTurn:        30,
		FloorplanAPR:      0.10,
		AvgTransport:      100,
		MarketingFees:     60,
		WarrantyReserve:   75,
		RiskWeights:       map[string]float64{"Engine": 120, "Transmission": 120, "Brakes": 60, "Electrical": 80, "Airbags": 100},
		DefaultRiskWeight: 50,
		RiskReserveCapPct: 0.15,
	}
}

func (s Settings) riskWeight(label string) float64 {
	if w, ok := s.RiskWeights[label]; ok {
		return w
	}
	return s.DefaultRiskWeight
}
