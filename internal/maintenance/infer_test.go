package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mvipergts/value/internal/carfax"
)

func fixedNow() time.Time {
	return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
}

func TestLowHistoryBundleEmitted(t *testing.T) {
	inf := &Inferrer{Now: fixedNow}
	// 2016 vehicle: age 10, expected = round(10*1.2) = 12, threshold 6.
	summary := carfax.Summary{ServiceRecords: 3}
	items := inf.Infer(context.Background(), summary, "oil change performed regularly, coolant flushed, brake fluid replaced, transmission fluid ok", 50000, 2016)

	want := []string{"oil change", "engine air filter", "cabin air filter"}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d: %+v", len(want), len(items), items)
	}
	for i, label := range want {
		if items[i].Label != label {
			t.Fatalf("expected item %d to be %q, got %q", i, label, items[i].Label)
		}
	}
	if items[0].Rationale[0] != "service history shows 3 of 12 expected records" {
		t.Fatalf("unexpected rationale: %q", items[0].Rationale[0])
	}
}

func TestIdentityKeyedAccumulationNoDuplicates(t *testing.T) {
	inf := &Inferrer{Now: fixedNow}
	// Low history triggers the bundle (includes oil change); text omits all
	// keyword families, so the absence rules re-trigger oil change and add
	// transmission service at 65k mi.
	summary := carfax.Summary{ServiceRecords: 0}
	items := inf.Infer(context.Background(), summary, "no useful history", 65000, 2016)

	counts := map[string]int{}
	for _, item := range items {
		counts[item.Label]++
	}
	if counts["transmission service"] != 1 {
		t.Fatalf("expected exactly one transmission service item, got %d", counts["transmission service"])
	}
	if counts["oil change"] != 1 {
		t.Fatalf("expected exactly one oil change item, got %d", counts["oil change"])
	}
	for _, item := range items {
		if item.Label == "oil change" && len(item.Rationale) != 2 {
			t.Fatalf("expected oil change to accumulate 2 rationale entries, got %v", item.Rationale)
		}
	}
}

func TestMileageThresholdsGateRules(t *testing.T) {
	inf := &Inferrer{Now: fixedNow}
	summary := carfax.Summary{ServiceRecords: 50} // plenty of history
	items := inf.Infer(context.Background(), summary, "nothing relevant", 59999, 2020)

	for _, item := range items {
		switch item.Label {
		case "transmission service", "brake fluid flush", "coolant service", "spark plugs":
			t.Fatalf("item %q should be gated below its mileage threshold", item.Label)
		}
	}
	// Oil change absence is always checked.
	if len(items) != 1 || items[0].Label != "oil change" {
		t.Fatalf("expected only the oil change absence item, got %+v", items)
	}

	items = inf.Infer(context.Background(), summary, "nothing relevant", 90000, 2020)
	labels := map[string]bool{}
	for _, item := range items {
		labels[item.Label] = true
	}
	for _, want := range []string{"oil change", "transmission service", "brake fluid flush", "coolant service", "spark plugs"} {
		if !labels[want] {
			t.Fatalf("expected %q at 90k mi, got %+v", want, items)
		}
	}
}

func TestCostResolutionProvenance(t *testing.T) {
	inf := &Inferrer{Now: fixedNow}
	summary := carfax.Summary{ServiceRecords: 0}
	items := inf.Infer(context.Background(), summary, "", 10000, 2016)
	for _, item := range items {
		if item.Provenance != ProvenanceMap {
			t.Fatalf("expected table provenance for %q, got %q", item.Label, item.Provenance)
		}
		if item.Amount != costTable[item.Label] {
			t.Fatalf("expected table amount for %q, got %v", item.Label, item.Amount)
		}
	}
}

type fakeEstimator struct {
	est Estimate
	err error
}

func (f *fakeEstimator) EstimateCost(ctx context.Context, label, vehicle string) (Estimate, error) {
	return f.est, f.err
}

func TestEstimatorFailureFallsBackToConstant(t *testing.T) {
	inf := &Inferrer{Now: fixedNow, Estimator: &fakeEstimator{err: errors.New("boom")}}
	item := GapItem{Label: "timing belt", Rationale: []string{"x"}}
	inf.resolveCost(context.Background(), &item, "2016, 100000 mi")
	if item.Provenance != ProvenanceFallback {
		t.Fatalf("expected fallback provenance, got %q", item.Provenance)
	}
	if item.Amount != fallbackCost {
		t.Fatalf("expected fallback amount %v, got %v", float64(fallbackCost), item.Amount)
	}
}

func TestEstimatorResultRecorded(t *testing.T) {
	inf := &Inferrer{Now: fixedNow, Estimator: &fakeEstimator{est: Estimate{Amount: 410, Rationale: "belt plus labor"}}}
	item := GapItem{Label: "timing belt", Rationale: []string{"x"}}
	inf.resolveCost(context.Background(), &item, "2016, 100000 mi")
	if item.Provenance != ProvenanceEstimate || item.Amount != 410 {
		t.Fatalf("expected estimate provenance with amount 410, got %+v", item)
	}
	if item.Rationale[len(item.Rationale)-1] != "belt plus labor" {
		t.Fatalf("expected estimator rationale appended, got %v", item.Rationale)
	}
}

func TestExpectedServiceCountClampsInvalidYear(t *testing.T) {
	inf := &Inferrer{Now: fixedNow}
	if got := inf.expectedServiceCount(0); got != 2 {
		t.Fatalf("invalid year: expected floor of 2, got %d", got)
	}
	if got := inf.expectedServiceCount(2030); got != 2 {
		t.Fatalf("future year: expected floor of 2, got %d", got)
	}
	if got := inf.expectedServiceCount(2016); got != 12 {
		t.Fatalf("expected round(10*1.2)=12, got %d", got)
	}
}
