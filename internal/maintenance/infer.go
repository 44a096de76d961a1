package maintenance

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/mvipergts/value/internal/carfax"
)

// Provenance tags where a resolved item cost came from, so downstream
// consumers can distinguish confidence levels.
type Provenance string

const (
	ProvenanceMap      Provenance = "map"
	ProvenanceEstimate Provenance = "estimate"
	ProvenanceFallback Provenance = "fallback"
)

// GapItem is one inferred service item. Label doubles as the identity key:
// rules that re-trigger an existing label append to Rationale instead of
// creating a duplicate entry.
type GapItem struct {
	Label      string     `json:"label"`
	Rationale  []string   `json:"rationale"`
	Amount     float64    `json:"amount"`
	Provenance Provenance `json:"provenance"`
}

// Estimate is the result of an external cost estimator lookup.
type Estimate struct {
	Amount    float64
	Rationale string
}

// CostEstimator resolves a cost for an item label with vehicle context. It is
// optional and non-authoritative: a nil estimator or any error falls back to
// the fixed constant.
type CostEstimator interface {
	EstimateCost(ctx context.Context, label string, vehicle string) (Estimate, error)
}

// mileageRule emits an item when none of its keyword family appears in the
// raw report text and the vehicle mileage has reached the threshold.
type mileageRule struct {
	label      string
	keywords   []string
	minMileage int
}

var mileageRules = []mileageRule{
	{label: "oil change", keywords: []string{"oil change", "oil & filter", "oil and filter"}},
	{label: "transmission service", keywords: []string{"transmission service", "transmission fluid", "trans fluid"}, minMileage: 60000},
	{label: "brake fluid flush", keywords: []string{"brake fluid"}, minMileage: 60000},
	{label: "coolant service", keywords: []string{"coolant", "antifreeze"}, minMileage: 60000},
	{label: "spark plugs", keywords: []string{"spark plug"}, minMileage: 90000},
}

// lowHistoryBundle is emitted when the report shows fewer than half the
// service records expected for the vehicle's age.
var lowHistoryBundle = []string{"oil change", "engine air filter", "cabin air filter"}

type Inferrer struct {
	Estimator CostEstimator
	// Now is overridable for tests; zero value means time.Now.
	Now func() time.Time
}

// Infer produces the de-duplicated list of inferred service items for a
// vehicle. It never fails; estimator errors degrade to the fallback constant.
func (inf *Inferrer) Infer(ctx context.Context, summary carfax.Summary, rawText string, mileage, year int) []GapItem {
	acc := newAccumulator()

	expected := inf.expectedServiceCount(year)
	if summary.ServiceRecords < expected/2 {
		reason := fmt.Sprintf("service history shows %d of %d expected records", summary.ServiceRecords, expected)
		for _, label := range lowHistoryBundle {
			acc.add(label, reason)
		}
	}

	lower := strings.ToLower(rawText)
	for _, rule := range mileageRules {
		if mileage < rule.minMileage {
			continue
		}
		if anyKeyword(lower, rule.keywords) {
			continue
		}
		acc.add(rule.label, fmt.Sprintf("no mention of %s in history", rule.label))
	}

	items := acc.items()
	vehicle := fmt.Sprintf("%d, %d mi", year, mileage)
	for i := range items {
		inf.resolveCost(ctx, &items[i], vehicle)
	}
	return items
}

// expectedServiceCount = max(2, round(age * 1.2)); age clamps to 0 for an
// invalid or future model year.
func (inf *Inferrer) expectedServiceCount(year int) int {
	now := time.Now
	if inf.Now != nil {
		now = inf.Now
	}
	age := now().Year() - year
	if year <= 0 || age < 0 {
		age = 0
	}
	expected := int(math.Round(float64(age) * 1.2))
	if expected < 2 {
		expected = 2
	}
	return expected
}

func (inf *Inferrer) resolveCost(ctx context.Context, item *GapItem, vehicle string) {
	if amount, ok := costTable[item.Label]; ok {
		item.Amount = amount
		item.Provenance = ProvenanceMap
		return
	}
	if inf.Estimator != nil {
		est, err := inf.Estimator.EstimateCost(ctx, item.Label, vehicle)
		if err == nil && est.Amount > 0 {
			item.Amount = est.Amount
			item.Provenance = ProvenanceEstimate
			if strings.TrimSpace(est.Rationale) != "" {
				item.Rationale = append(item.Rationale, est.Rationale)
			}
			return
		}
		if err != nil {
			log.Printf("maintenance cost estimate failed label=%q err=%v", item.Label, err)
		}
	}
	item.Amount = fallbackCost
	item.Provenance = ProvenanceFallback
}

func anyKeyword(lowerText string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lowerText, kw) {
			return true
		}
	}
	return false
}

// accumulator keeps identity-keyed items in first-insertion order.
type accumulator struct {
	order []string
	byKey map[string]*GapItem
}

func newAccumulator() *accumulator {
	return &accumulator{byKey: map[string]*GapItem{}}
}

func (a *accumulator) add(label, rationale string) {
	if item, ok := a.byKey[label]; ok {
		item.Rationale = append(item.Rationale, rationale)
		return
	}
	a.order = append(a.order, label)
	a.byKey[label] = &GapItem{Label: label, Rationale: []string{rationale}}
}

func (a *accumulator) items() []GapItem {
	out := make([]GapItem, 0, len(a.order))
	for _, label := range a.order {
		out = append(out, *a.byKey[label])
	}
	return out
}
