package carfax

// UsageType is the single-valued vehicle usage classification pulled from a
// history report. Reports occasionally mention more than one usage phrase;
// classification is first-match-wins in the order the constants are declared.
type UsageType string

const (
	UsagePersonal   UsageType = "Personal"
	UsageCommercial UsageType = "Commercial"
	UsageFleet      UsageType = "Fleet"
	UsageRental     UsageType = "Rental"
	UsageLease      UsageType = "Lease"
)

// Summary is the structured record extracted from a free-text vehicle history
// report. It is created once per upload/paste and never mutated afterwards.
// Counts are best-effort pattern signals, not ground truth; Owners in
// particular is an upper-bound heuristic.
type Summary struct {
	Accidents      int       `json:"accidents"`
	DamageReports  int       `json:"damage_reports"`
	Owners         int       `json:"owners"`
	ServiceRecords int       `json:"service_records"`
	Recalls        int       `json:"recalls"`
	LastOdometer   string    `json:"last_odometer,omitempty"`
	Usage          UsageType `json:"usage,omitempty"`
	Brandings      []string  `json:"brandings,omitempty"`
}

// brandingVocabulary is the closed set of title-brand keywords recognized on
// eligible report lines. Order fixes the order of the Brandings slice.
var brandingVocabulary = []string{
	"salvage",
	"rebuilt",
	"flood",
	"junk",
	"lemon",
	"hail",
	"fire",
	"theft",
	"odometer rollback",
	"total loss",
}
