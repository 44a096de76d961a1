package appraisal

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mvipergts/value/internal/carfax"
	"github.com/mvipergts/value/internal/maintenance"
	"github.com/mvipergts/value/internal/offer"
	"github.com/mvipergts/value/internal/risk"
)

const defaultFetchTimeout = 10 * time.Second

// Pipeline runs the four appraisal stages in order: extract, infer, score,
// calculate. It is request-scoped and stateless between runs; the settings
// snapshot is read once at the start and never re-read mid-run.
type Pipeline struct {
	Resolver   IdentityResolver
	Recalls    RecallProvider
	Complaints ComplaintProvider
	Bulletins  BulletinProvider
	Searcher   risk.Searcher
	Estimator  maintenance.CostEstimator
	Settings   SettingsSource

	// FetchTimeout bounds each evidence fetch independently; zero means
	// the default.
	FetchTimeout time.Duration
}

// Run performs a full appraisal. It never returns an error for degraded
// inputs: missing identity, failed evidence fetches, and estimator failures
// all produce a structurally valid, lower-confidence result with the
// degradation recorded.
func (p *Pipeline) Run(ctx context.Context, req Request) Result {
	tracer := otel.Tracer("appraisal")
	res := Result{StartedAt: time.Now()}

	settings, err := p.readSettings(ctx)
	if err != nil {
		log.Printf("appraisal settings read failed, using defaults err=%v", err)
		settings = offer.DefaultSettings()
		res.Degraded = append(res.Degraded, "settings")
	}
	res.Settings = settings

	ctx, span := tracer.Start(ctx, "appraisal.run")
	defer span.End()

	res.Identity = p.resolveIdentity(ctx, tracer, req, &res)
	res.Summary = extractSummary(ctx, tracer, req.ReportText)
	res.GapItems = p.inferGaps(ctx, tracer, res.Summary, req, res.Identity)
	p.scoreRisk(ctx, tracer, &res)
	res.Offer = calcOffer(ctx, tracer, req, res, settings)

	res.ReportMarkdown = buildMarkdown(res, req)
	res.CompletedAt = time.Now()
	return res
}

func (p *Pipeline) readSettings(ctx context.Context) (offer.Settings, error) {
	if p.Settings == nil {
		return offer.DefaultSettings(), nil
	}
	return p.Settings.Read(ctx)
}

func (p *Pipeline) resolveIdentity(ctx context.Context, tracer trace.Tracer, req Request, res *Result) risk.Identity {
	ctx, span := tracer.Start(ctx, "appraisal.identity")
	defer span.End()

	var id risk.Identity
	if p.Resolver != nil {
		resolved, err := p.Resolver.Resolve(ctx, req.Vehicle)
		if err != nil {
			log.Printf("appraisal identity resolution failed vehicle=%q err=%v", req.Vehicle, err)
			res.Degraded = append(res.Degraded, "identity")
		} else {
			id = resolved
		}
	}
	if id.Year == 0 {
		id.Year = req.Year
	}
	return id
}

func extractSummary(ctx context.Context, tracer trace.Tracer, text string) carfax.Summary {
	_, span := tracer.Start(ctx, "appraisal.extract")
	defer span.End()
	return carfax.Extract(text)
}

func (p *Pipeline) inferGaps(ctx context.Context, tracer trace.Tracer, summary carfax.Summary, req Request, id risk.Identity) []maintenance.GapItem {
	ctx, span := tracer.Start(ctx, "appraisal.infer")
	defer span.End()

	inf := &maintenance.Inferrer{Estimator: p.Estimator}
	return inf.Infer(ctx, summary, req.ReportText, req.Mileage, id.Year)
}

// scoreRisk fetches the three evidence sources concurrently, each with its
// own timeout, then classifies and ranks. A failed fetch degrades that one
// source to zero records; scoring always proceeds.
func (p *Pipeline) scoreRisk(ctx context.Context, tracer trace.Tracer, res *Result) {
	ctx, span := tracer.Start(ctx, "appraisal.risk")
	defer span.End()

	timeout := p.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	var (
		mu         sync.Mutex
		recalls    []risk.Recall
		complaints []risk.Complaint
		bulletins  []risk.Bulletin
		wg         sync.WaitGroup
	)
	degrade := func(source string, err error) {
		log.Printf("appraisal evidence fetch degraded source=%s err=%v", source, err)
		mu.Lock()
		res.Degraded = append(res.Degraded, source)
		mu.Unlock()
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		if p.Recalls == nil {
			return
		}
		fctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		out, err := p.Recalls.Recalls(fctx, res.Identity)
		if err != nil {
			degrade("recalls", err)
			return
		}
		mu.Lock()
		recalls = out
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		if p.Complaints == nil {
			return
		}
		fctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		out, err := p.Complaints.Complaints(fctx, res.Identity)
		if err != nil {
			degrade("complaints", err)
			return
		}
		mu.Lock()
		complaints = out
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		if p.Bulletins == nil {
			return
		}
		fctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		out, err := p.Bulletins.Bulletins(fctx, res.Identity)
		if err != nil {
			degrade("bulletins", err)
			return
		}
		mu.Lock()
		bulletins = out
		mu.Unlock()
	}()
	wg.Wait()

	res.RiskBuckets = risk.Score(res.Identity, recalls, complaints, bulletins)
	res.Corroboration = risk.Corroborate(ctx, p.Searcher, res.Identity, res.RiskBuckets)
	res.Suggested = risk.SuggestedRepairs(res.RiskBuckets)
}

func calcOffer(ctx context.Context, tracer trace.Tracer, req Request, res Result, settings offer.Settings) offer.Result {
	_, span := tracer.Start(ctx, "appraisal.offer")
	defer span.End()

	maintItems := make([]offer.LineItem, 0, len(res.GapItems))
	for _, item := range res.GapItems {
		maintItems = append(maintItems, offer.LineItem{Key: item.Label, Amount: item.Amount})
	}
	return offer.Calc(offer.CalcInput{
		RetailBase:    req.RetailBase,
		WholesaleBase: req.WholesaleBase,
		MaintItems:    maintItems,
		ReconItems:    req.ReconItems,
		RiskBuckets:   res.RiskBuckets,
		Settings:      settings,
	})
}
