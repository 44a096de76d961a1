package risk

import (
	"fmt"
	"sort"
	"strings"
)

const maxRankedBuckets = 5

// Score classifies the supplied evidence records into topic buckets and
// returns the ranked, scored risk list. Empty record sets are valid input;
// the identity is informational and an incomplete one does not prevent
// scoring.
func Score(identity Identity, recalls []Recall, complaints []Complaint, bulletins []Bulletin) []Bucket {
	byLabel := map[string]*Bucket{}
	get := func(label string) *Bucket {
		if b, ok := byLabel[label]; ok {
			return b
		}
		b := &Bucket{Label: label}
		byLabel[label] = b
		return b
	}

	for _, r := range recalls {
		for _, label := range classify(r.Component, r.Summary) {
			get(label).HasRecall = true
		}
	}
	for _, c := range complaints {
		for _, label := range classify(c.Component, c.Summary) {
			get(label).ComplaintCount++
		}
	}
	for _, b := range bulletins {
		for _, label := range classify(b.Component, b.Summary) {
			get(label).HasTSB = true
		}
	}

	ranked := make([]Bucket, 0, len(byLabel))
	for _, b := range byLabel {
		b.Score = bucketScore(*b)
		if b.Score == 0 {
			continue
		}
		b.Rationale = bucketRationale(*b)
		ranked = append(ranked, *b)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return vocabularyRank(ranked[i].Label) < vocabularyRank(ranked[j].Label)
	})
	if len(ranked) > maxRankedBuckets {
		ranked = ranked[:maxRankedBuckets]
	}
	return ranked
}

// classify returns every bucket whose keyword family hits the concatenated
// free-text fields of a record.
func classify(fields ...string) []string {
	haystack := strings.ToLower(strings.Join(fields, " "))
	if strings.TrimSpace(haystack) == "" {
		return nil
	}
	var labels []string
	for _, label := range topicVocabulary {
		for _, kw := range bucketKeywords[label] {
			if strings.Contains(haystack, kw) {
				labels = append(labels, label)
				break
			}
		}
	}
	return labels
}

func bucketScore(b Bucket) int {
	score := 0
	if b.HasTSB {
		score += 3
	}
	if b.HasRecall {
		score += 2
	}
	score += b.ComplaintCount / 10
	return score
}

// bucketRationale concatenates only the non-zero contributing terms with
// their point values, in the order TSB, recall, complaints.
func bucketRationale(b Bucket) string {
	var parts []string
	if b.HasTSB {
		parts = append(parts, "active TSB (+3)")
	}
	if b.HasRecall {
		parts = append(parts, "open recall (+2)")
	}
	if pts := b.ComplaintCount / 10; pts > 0 {
		parts = append(parts, fmt.Sprintf("%d complaints (+%d)", b.ComplaintCount, pts))
	}
	return strings.Join(parts, "; ")
}
