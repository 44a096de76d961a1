package risk

// Identity is a partially-resolved vehicle identity. Zero/empty fields mean
// the resolver could not determine them; scoring proceeds with whatever record
// sets are available regardless.
type Identity struct {
	Year  int    `json:"year,omitempty"`
	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`
}

// Recall, Complaint, and Bulletin are the loosely-typed evidence records
// supplied by external providers. Only their free-text fields matter for
// bucketing; everything else is carried through for report rendering.
type Recall struct {
	Campaign  string `json:"campaign,omitempty"`
	Component string `json:"component"`
	Summary   string `json:"summary"`
}

type Complaint struct {
	ODINumber int    `json:"odi_number,omitempty"`
	Component string `json:"component"`
	Summary   string `json:"summary"`
	Crash     bool   `json:"crash,omitempty"`
	Fire      bool   `json:"fire,omitempty"`
}

type Bulletin struct {
	Number    string `json:"number,omitempty"`
	Component string `json:"component"`
	Summary   string `json:"summary"`
}

// Bucket is one scored topic from the closed vocabulary. Score and Rationale
// are derived from the same inputs; buckets with score 0 never appear in
// output.
type Bucket struct {
	Label          string `json:"label"`
	ComplaintCount int    `json:"complaint_count"`
	HasTSB         bool   `json:"has_tsb"`
	HasRecall      bool   `json:"has_recall"`
	Score          int    `json:"score"`
	Rationale      string `json:"rationale"`
}

// SuggestedItem is an advisory reconditioning line item mapped from a ranked
// bucket. It is never applied to the offer automatically.
type SuggestedItem struct {
	Label     string  `json:"label"`
	Amount    float64 `json:"amount"`
	Rationale string  `json:"rationale"`
}
