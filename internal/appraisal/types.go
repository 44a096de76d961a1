package appraisal

import (
	"context"
	"time"

	"github.com/mvipergts/value/internal/carfax"
	"github.com/mvipergts/value/internal/maintenance"
	"github.com/mvipergts/value/internal/offer"
	"github.com/mvipergts/value/internal/risk"
)

// Injected capabilities. Every external service the pipeline touches sits
// behind one of these so the engine stays testable without network access.
type (
	IdentityResolver interface {
		Resolve(ctx context.Context, vinOrLabel string) (risk.Identity, error)
	}
	RecallProvider interface {
		Recalls(ctx context.Context, id risk.Identity) ([]risk.Recall, error)
	}
	ComplaintProvider interface {
		Complaints(ctx context.Context, id risk.Identity) ([]risk.Complaint, error)
	}
	BulletinProvider interface {
		Bulletins(ctx context.Context, id risk.Identity) ([]risk.Bulletin, error)
	}
	SettingsSource interface {
		Read(ctx context.Context) (offer.Settings, error)
	}
)

// Request is one appraisal invocation. Baseline valuations are caller
// supplied; the engine does no marketplace lookups.
type Request struct {
	Vehicle       string           `json:"vehicle"` // VIN or "year make model" label
	ReportText    string           `json:"report_text"`
	Mileage       int              `json:"mileage"`
	Year          int              `json:"year,omitempty"` // fallback when identity resolution fails
	RetailBase    float64          `json:"retail_base"`
	WholesaleBase float64          `json:"wholesale_base"`
	ReconItems    []offer.LineItem `json:"recon_items,omitempty"`
}

// Result is the full appraisal envelope. Degraded lists the evidence sources
// and collaborators that fell back to empty/default values during the run.
type Result struct {
	Identity       risk.Identity         `json:"identity"`
	Summary        carfax.Summary        `json:"summary"`
	GapItems       []maintenance.GapItem `json:"gap_items"`
	RiskBuckets    []risk.Bucket         `json:"risk_buckets"`
	Corroboration  risk.Corroboration    `json:"corroboration"`
	Suggested      []risk.SuggestedItem  `json:"suggested_repairs"`
	Offer          offer.Result          `json:"offer"`
	Settings       offer.Settings        `json:"settings"`
	Degraded       []string              `json:"degraded,omitempty"`
	ReportMarkdown string                `json:"report_markdown"`
	StartedAt      time.Time             `json:"started_at"`
	CompletedAt    time.Time             `json:"completed_at"`
}
