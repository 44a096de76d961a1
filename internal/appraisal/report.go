package appraisal

import (
	"fmt"
	"strings"
	"time"
)

const Disclaimer = "This is an automated appraisal estimate, not a certified valuation. " +
	"History extraction and risk signals are best-effort pattern matches against limited evidence."

func buildMarkdown(res Result, req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Vehicle Appraisal Report\n\n")
	fmt.Fprintf(&b, "- Vehicle: %s\n", sanitize(describeVehicle(res, req)))
	fmt.Fprintf(&b, "- Mileage: %s\n", formatMileage(req.Mileage))
	fmt.Fprintf(&b, "- Date: %s\n\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "%s\n\n", Disclaimer)

	if len(res.Degraded) > 0 {
		fmt.Fprintf(&b, "> DEGRADED: the following sources fell back to empty/default values: %s. Treat the risk reserve as a lower bound.\n\n", strings.Join(res.Degraded, ", "))
	}

	fmt.Fprintf(&b, "## Offer\n\n")
	fmt.Fprintf(&b, "**Target max buy: $%.0f**\n\n", res.Offer.TargetMaxBuy)
	fmt.Fprintf(&b, "| Figure | Amount |\n|--------|-------:|\n")
	fmt.Fprintf(&b, "| Retail base | $%.0f |\n", res.Offer.RetailBase)
	fmt.Fprintf(&b, "| Wholesale base | $%.0f |\n", res.Offer.WholesaleBase)
	fmt.Fprintf(&b, "| Maintenance deduction | $%.0f |\n", res.Offer.MaintDeduction)
	fmt.Fprintf(&b, "| Adjusted wholesale | $%.0f |\n", res.Offer.AdjWholesale)
	fmt.Fprintf(&b, "| Reconditioning | $%.0f |\n", res.Offer.ReconTotal)
	fmt.Fprintf(&b, "| Risk reserve | $%.0f |\n", res.Offer.RiskReserve)
	fmt.Fprintf(&b, "| Desired profit | $%.0f |\n", res.Offer.DesiredProfit)
	fmt.Fprintf(&b, "| Holding cost | $%.2f |\n", res.Offer.Holding)
	fmt.Fprintf(&b, "| Fees | $%.0f |\n\n", res.Offer.Fees)

	fmt.Fprintf(&b, "## History Summary\n\n")
	fmt.Fprintf(&b, "| Signal | Value |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| Accidents | %d |\n", res.Summary.Accidents)
	fmt.Fprintf(&b, "| Damage reports | %d |\n", res.Summary.DamageReports)
	fmt.Fprintf(&b, "| Owners (upper bound) | %d |\n", res.Summary.Owners)
	fmt.Fprintf(&b, "| Service records | %d |\n", res.Summary.ServiceRecords)
	fmt.Fprintf(&b, "| Recall mentions | %d |\n", res.Summary.Recalls)
	fmt.Fprintf(&b, "| Last odometer | %s |\n", orDash(res.Summary.LastOdometer))
	fmt.Fprintf(&b, "| Usage | %s |\n", orDash(string(res.Summary.Usage)))
	fmt.Fprintf(&b, "| Title brandings | %s |\n\n", orDash(strings.Join(res.Summary.Brandings, ", ")))

	fmt.Fprintf(&b, "## Inferred Maintenance\n\n")
	if len(res.GapItems) == 0 {
		fmt.Fprintf(&b, "No maintenance gaps inferred.\n\n")
	} else {
		fmt.Fprintf(&b, "| Item | Cost | Source | Why |\n|------|-----:|--------|-----|\n")
		for _, item := range res.GapItems {
			fmt.Fprintf(&b, "| %s | $%.0f | %s | %s |\n",
				sanitize(item.Label), item.Amount, item.Provenance, sanitize(strings.Join(item.Rationale, "; ")))
		}
		fmt.Fprintf(&b, "\n")
	}

	fmt.Fprintf(&b, "## Risk Buckets\n\n")
	if len(res.RiskBuckets) == 0 {
		fmt.Fprintf(&b, "No scored risk topics for this vehicle.\n\n")
	} else {
		fmt.Fprintf(&b, "| Topic | Score | Complaints | Recall | TSB | Rationale |\n|-------|------:|-----------:|--------|-----|-----------|\n")
		for _, bucket := range res.RiskBuckets {
			fmt.Fprintf(&b, "| %s | %d | %d | %s | %s | %s |\n",
				bucket.Label, bucket.Score, bucket.ComplaintCount, yesNo(bucket.HasRecall), yesNo(bucket.HasTSB), sanitize(bucket.Rationale))
		}
		fmt.Fprintf(&b, "\n")
	}
	if len(res.Corroboration.WeakSignals) > 0 {
		fmt.Fprintf(&b, "Weak web signals (unscored): %s\n\n", strings.Join(res.Corroboration.WeakSignals, ", "))
	}

	if len(res.Suggested) > 0 {
		fmt.Fprintf(&b, "## Suggested Reconditioning (advisory)\n\n")
		fmt.Fprintf(&b, "These are not applied to the offer automatically.\n\n")
		for _, item := range res.Suggested {
			fmt.Fprintf(&b, "- %s — $%.0f (%s)\n", sanitize(item.Label), item.Amount, sanitize(item.Rationale))
		}
		fmt.Fprintf(&b, "\n")
	}
	return b.String()
}

func describeVehicle(res Result, req Request) string {
	id := res.Identity
	if id.Make != "" || id.Model != "" {
		parts := []string{}
		if id.Year > 0 {
			parts = append(parts, fmt.Sprintf("%d", id.Year))
		}
		if id.Make != "" {
			parts = append(parts, id.Make)
		}
		if id.Model != "" {
			parts = append(parts, id.Model)
		}
		return strings.Join(parts, " ")
	}
	if strings.TrimSpace(req.Vehicle) != "" {
		return req.Vehicle
	}
	return "unknown vehicle"
}

func formatMileage(mi int) string {
	if mi <= 0 {
		return "—"
	}
	return fmt.Sprintf("%d mi", mi)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return sanitize(s)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// sanitize keeps report text from breaking the markdown tables.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
