package risk

// topicVocabulary fixes both the closed set of bucket labels and the stable
// tie-break order used when scores are equal.
var topicVocabulary = []string{
	"Engine",
	"Transmission",
	"Brakes",
	"Electrical",
	"Suspension",
	"Steering",
	"Airbags",
	"Fuel System",
	"Cooling",
	"Body",
}

// bucketKeywords classifies a record into a bucket when any keyword appears
// (case-insensitive substring) in its concatenated free-text fields. A single
// record may populate multiple buckets.
var bucketKeywords = map[string][]string{
	"Engine":       {"engine", "stall", "misfire", "oil consumption", "timing chain", "valve"},
	"Transmission": {"transmission", "gearbox", "shift", "torque converter", "cvt", "clutch"},
	"Brakes":       {"brake", "abs", "rotor", "caliper", "master cylinder"},
	"Electrical":   {"electrical", "wiring", "battery", "alternator", "short circuit", "infotainment"},
	"Suspension":   {"suspension", "strut", "shock absorber", "control arm", "ball joint"},
	"Steering":     {"steering", "power steering", "tie rod", "rack and pinion"},
	"Airbags":      {"airbag", "air bag", "srs", "inflator"},
	"Fuel System":  {"fuel", "fuel pump", "fuel injector", "fuel leak", "gas tank"},
	"Cooling":      {"coolant", "radiator", "overheat", "water pump", "thermostat"},
	"Body":         {"rust", "corrosion", "paint", "door latch", "hood latch"},
}

// suggestedRepairs maps ranked buckets to advisory reconditioning line items.
var suggestedRepairs = map[string][]SuggestedItem{
	"Engine":       {{Label: "engine diagnostic & compression test", Amount: 220, Rationale: "engine risk signals reported for this vehicle"}},
	"Transmission": {{Label: "transmission service", Amount: 240, Rationale: "transmission risk signals reported for this vehicle"}},
	"Brakes":       {{Label: "brake pads & rotors", Amount: 420, Rationale: "brake risk signals reported for this vehicle"}},
	"Electrical":   {{Label: "battery & charging system test", Amount: 90, Rationale: "electrical risk signals reported for this vehicle"}},
	"Suspension":   {{Label: "suspension inspection", Amount: 120, Rationale: "suspension risk signals reported for this vehicle"}, {Label: "alignment", Amount: 110, Rationale: "suspension work commonly requires alignment"}},
	"Steering":     {{Label: "steering inspection", Amount: 120, Rationale: "steering risk signals reported for this vehicle"}},
	"Airbags":      {{Label: "srs system scan", Amount: 150, Rationale: "airbag risk signals reported for this vehicle"}},
	"Fuel System":  {{Label: "fuel system inspection", Amount: 130, Rationale: "fuel system risk signals reported for this vehicle"}},
	"Cooling":      {{Label: "cooling system pressure test", Amount: 110, Rationale: "cooling risk signals reported for this vehicle"}},
	"Body":         {{Label: "body & underbody inspection", Amount: 100, Rationale: "body risk signals reported for this vehicle"}},
}

func vocabularyRank(label string) int {
	for i, l := range topicVocabulary {
		if l == label {
			return i
		}
	}
	return len(topicVocabulary)
}

// SuggestedRepairs returns the advisory reconditioning items for a ranked
// bucket list, in rank order.
func SuggestedRepairs(buckets []Bucket) []SuggestedItem {
	var out []SuggestedItem
	for _, b := range buckets {
		out = append(out, suggestedRepairs[b.Label]...)
	}
	return out
}
