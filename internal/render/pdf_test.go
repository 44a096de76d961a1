package render

import (
	"strings"
	"testing"
	"time"
)

func TestBuildHTMLIncludesMetaAndBody(t *testing.T) {
	meta := Meta{
		AppraisalID:  "appr_0011223344556677",
		Vehicle:      "2016 Honda Civic",
		TargetMaxBuy: 8565,
		CompletedAt:  time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
		Degraded:     []string{"bulletins"},
	}
	out, err := BuildHTML("# Vehicle Appraisal Report\n\n| Topic | Score |\n|---|---|\n| Transmission | 7 |\n", meta)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"appr_0011223344556677",
		"2016 Honda Civic",
		"$8565",
		"DEGRADED: bulletins",
		"<table>",
		"<td>Transmission</td>",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("html missing %q:\n%s", want, out)
		}
	}
}

func TestBuildHTMLEscapesMeta(t *testing.T) {
	out, err := BuildHTML("x", Meta{Vehicle: `<script>alert(1)</script>`})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "<script>alert(1)</script>") {
		t.Fatal("meta not escaped")
	}
}

func TestApplyPrintLayoutHooksBreaksBeforeOffer(t *testing.T) {
	in := "<h2>History Summary</h2><p>x</p><h2>Offer</h2><p>y</p>"
	out := applyPrintLayoutHooks(in)
	if !strings.Contains(out, `page-break-before:always;">Offer</h2>`) {
		t.Fatalf("expected page break before offer, got: %s", out)
	}
}

func TestApplyPrintLayoutHooksNoopWithoutOffer(t *testing.T) {
	in := "<h2>History Summary</h2><p>x</p>"
	if out := applyPrintLayoutHooks(in); out != in {
		t.Fatalf("expected no change, got: %s", out)
	}
}
