// Package render turns an appraisal's markdown report into printable output.
// HTML assembly is pure and testable; the PDF step drives headless Chromium.
package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Meta is the header strip above the rendered report body.
type Meta struct {
	AppraisalID  string
	Vehicle      string
	TargetMaxBuy float64
	CompletedAt  time.Time
	Degraded     []string
}

type PDFRenderer struct {
	chromePath string
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{chromePath: detectChromePath()}
}

func (r *PDFRenderer) Render(ctx context.Context, markdown string, meta Meta) ([]byte, error) {
	htmlDoc, err := BuildHTML(markdown, meta)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;">` +
				`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.5).
				WithPaperHeight(11).
				WithMarginTop(0.5).
				WithMarginBottom(0.75).
				WithMarginLeft(0.5).
				WithMarginRight(0.5).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, err
	}
	return pdf, nil
}

const styleCSS = `body{font-family:Georgia,'Times New Roman',serif;color:#1c1917;margin:0;padding:0.6rem;background:#fff;}
.appraisal-wrap{max-width:900px;margin:0 auto;}
.appraisal-meta{font-size:0.85rem;color:#44403c;border-bottom:2px solid #1c1917;padding-bottom:0.5rem;margin-bottom:0.75rem;}
.appraisal-meta strong{color:#1c1917;}
.appraisal-badge{display:inline-block;background:#fef3c7;color:#78350f;border:1px solid #fcd34d;border-radius:3px;padding:0.1rem 0.4rem;font-size:0.75rem;margin-right:0.3rem;}
.appraisal-body h1{font-size:1.35rem;}
.appraisal-body h2{font-size:1.05rem;border-bottom:1px solid #d6d3d1;padding-bottom:0.2rem;}
.appraisal-body table{width:100%;border-collapse:collapse;border:1px solid #a8a29e;font-size:0.8rem;}
.appraisal-body th,.appraisal-body td{border:1px solid #a8a29e;padding:0.3rem 0.45rem;text-align:left;vertical-align:top;}
.appraisal-body thead th{background:#f1f5f9;font-weight:700;}
.appraisal-body blockquote{border-left:3px solid #b45309;background:#fffbeb;margin:0;padding:0.4rem 0.6rem;}
html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}
@media print{@page{size:letter;margin:12mm;}}`

// BuildHTML wraps the GFM-converted report in a full printable document.
func BuildHTML(markdown string, meta Meta) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	body := applyPrintLayoutHooks(content.String())

	return "<!doctype html><html><head><meta charset='utf-8'><title>Appraisal Report</title>" +
		"<style>" + styleCSS + "</style></head><body>" +
		"<div class='appraisal-wrap'>" +
		"<div class='appraisal-meta'>" + buildMetaHTML(meta) + "</div>" +
		"<div class='appraisal-body'>" + body + "</div>" +
		"</div></body></html>", nil
}

// applyPrintLayoutHooks starts the offer section on its own page so the
// headline figure never lands mid-table-split.
func applyPrintLayoutHooks(contentHTML string) string {
	reOffer := regexp.MustCompile(`(?i)<h2([^>]*)>\s*Offer\s*</h2>`)
	return reOffer.ReplaceAllString(contentHTML, `<h2$1 style="break-before:page;page-break-before:always;">Offer</h2>`)
}

func buildMetaHTML(meta Meta) string {
	var out strings.Builder
	if meta.AppraisalID != "" {
		out.WriteString("<div><strong>Appraisal:</strong> " + html.EscapeString(meta.AppraisalID) + "</div>")
	}
	if meta.Vehicle != "" {
		out.WriteString("<div><strong>Vehicle:</strong> " + html.EscapeString(meta.Vehicle) + "</div>")
	}
	if !meta.CompletedAt.IsZero() {
		out.WriteString("<div><strong>Date:</strong> " + html.EscapeString(meta.CompletedAt.In(time.Local).Format("January 2, 2006 at 3:04 PM MST")) + "</div>")
	}
	out.WriteString(fmt.Sprintf("<div><strong>Target max buy:</strong> $%.0f</div>", meta.TargetMaxBuy))
	if len(meta.Degraded) > 0 {
		out.WriteString("<span class='appraisal-badge'>DEGRADED: " + html.EscapeString(strings.Join(meta.Degraded, ", ")) + "</span>")
	}
	return out.String()
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
