package risk

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
)

// Snippet is one result from a web-search-style secondary evidence source.
type Snippet struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Searcher is the optional secondary evidence source. Implementations may hit
// a real search API; a nil Searcher or any error leaves the primary result
// untouched.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Snippet, error)
}

// trustedDomains is the allow-list applied to search snippets before any
// keyword scan. Results from anywhere else are discarded outright.
var trustedDomains = []string{
	"nhtsa.gov",
	"carcomplaints.com",
	"repairpal.com",
	"edmunds.com",
	"consumerreports.org",
	"odi.nhtsa.dot.gov",
}

// Corroboration is the outcome of the secondary-evidence pass. WeakSignals
// lists bucket labels with a trusted keyword hit but no scored bucket; they
// never enter the ranked list.
type Corroboration struct {
	Corroborated []string `json:"corroborated,omitempty"`
	WeakSignals  []string `json:"weak_signals,omitempty"`
}

// Corroborate scans trusted search snippets for bucket keywords and applies a
// +1 bonus to buckets already in the ranked list. It mutates the buckets in
// place and never fails: an unavailable searcher degrades to a no-op.
func Corroborate(ctx context.Context, searcher Searcher, identity Identity, buckets []Bucket) Corroboration {
	out := Corroboration{}
	if searcher == nil {
		return out
	}
	query := strings.TrimSpace(fmt.Sprintf("%d %s %s common problems", identity.Year, identity.Make, identity.Model))
	snippets, err := searcher.Search(ctx, query)
	if err != nil {
		log.Printf("risk corroboration unavailable err=%v", err)
		return out
	}

	hits := map[string]struct{}{}
	for _, sn := range snippets {
		if !trustedSource(sn.URL) {
			continue
		}
		for _, label := range classify(sn.Title, sn.Snippet) {
			hits[label] = struct{}{}
		}
	}

	scored := map[string]int{}
	for i, b := range buckets {
		scored[b.Label] = i
	}
	for _, label := range topicVocabulary {
		if _, ok := hits[label]; !ok {
			continue
		}
		idx, ok := scored[label]
		if !ok {
			out.WeakSignals = append(out.WeakSignals, label)
			continue
		}
		buckets[idx].Score++
		buckets[idx].Rationale += "; web corroboration (+1)"
		out.Corroborated = append(out.Corroborated, label)
	}
	return out
}

func trustedSource(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, domain := range trustedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
