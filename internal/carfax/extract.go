package carfax

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	noAccidentsRe      = regexp.MustCompile(`(?i)\bno\s+accidents?\s+(?:or\s+damage\s+)?reported\b`)
	accidentReportedRe = regexp.MustCompile(`(?i)\baccidents?\s+reported\b`)
	accidentSectionRe  = regexp.MustCompile(`(?i)\baccidents?\s*/\s*damage\b`)
	damageReportedRe   = regexp.MustCompile(`(?i)\bdamage\s+reported\b`)

	ownerHeaderRe = regexp.MustCompile(`(?i)\bowner\s+(\d+)\b`)
	ownerLabelRe  = regexp.MustCompile(`(?i)\bowners?\s*[:=]\s*(\d+)\b`)

	serviceRe = regexp.MustCompile(`(?i)\bservice(?:d|\s+record|\s+performed|\s+history\s+record)\b`)
	recallRe  = regexp.MustCompile(`(?i)\brecall\b`)

	odometerLastRe  = regexp.MustCompile(`(?i)last\s+reported\s+odometer(?:\s+reading)?\s*[:=]?\s*([\d,]+)`)
	odometerPlainRe = regexp.MustCompile(`(?i)\bodometer(?:\s+reading)?\s*[:=]?\s*([\d,]+)`)

	brandingDisclaimerRe = regexp.MustCompile(`(?i)may\s+include|include:`)
)

// usagePhrases is evaluated as an ordered if/else chain; the first family with
// a hit decides the classification. No multi-label support.
var usagePhrases = []struct {
	usage   UsageType
	phrases []string
}{
	{UsagePersonal, []string{"personal use", "personal vehicle", "personal lease"}},
	{UsageCommercial, []string{"commercial use", "commercial vehicle"}},
	{UsageFleet, []string{"fleet use", "fleet vehicle"}},
	{UsageRental, []string{"rental use", "rental vehicle", "rented"}},
	{UsageLease, []string{"lease use", "leased", "lease vehicle"}},
}

// Extract turns raw report text into a Summary. It never fails: empty or
// unparseable text yields an all-zero summary rather than an error.
func Extract(text string) Summary {
	s := Summary{}
	if strings.TrimSpace(text) == "" {
		return s
	}

	s.Accidents = extractAccidents(text)
	s.DamageReports = len(damageReportedRe.FindAllString(text, -1))
	s.Owners = extractOwners(text)
	s.ServiceRecords = len(serviceRe.FindAllString(text, -1))
	s.Recalls = len(recallRe.FindAllString(text, -1))
	s.LastOdometer = extractOdometer(text)
	s.Usage = classifyUsage(text)
	s.Brandings = extractBrandings(text)
	return s
}

// extractAccidents takes the maximum of two independent pattern counts. The
// two patterns catch different report layouts; when they disagree the larger,
// more conservative estimate wins. An explicit no-accident assertion overrides
// every other hit.
func extractAccidents(text string) int {
	if noAccidentsRe.MatchString(text) {
		return 0
	}
	reported := len(accidentReportedRe.FindAllString(text, -1))
	sections := len(accidentSectionRe.FindAllString(text, -1))
	return maxInt(reported, sections)
}

// extractOwners takes the max of distinct "Owner N" section headers and an
// explicit "Owners: N" label. Headers and summary labels are redundant
// encodings in different report dialects.
func extractOwners(text string) int {
	distinct := map[string]struct{}{}
	for _, m := range ownerHeaderRe.FindAllStringSubmatch(text, -1) {
		distinct[m[1]] = struct{}{}
	}
	headers := len(distinct)

	labeled := 0
	if m := ownerLabelRe.FindStringSubmatch(text); len(m) == 2 {
		labeled, _ = strconv.Atoi(m[1])
	}
	return maxInt(headers, labeled)
}

func extractOdometer(text string) string {
	for _, re := range []*regexp.Regexp{odometerLastRe, odometerPlainRe} {
		if m := re.FindStringSubmatch(text); len(m) == 2 {
			return strings.ReplaceAll(m[1], ",", "")
		}
	}
	return ""
}

func classifyUsage(text string) UsageType {
	lower := strings.ToLower(text)
	for _, family := range usagePhrases {
		for _, phrase := range family.phrases {
			if strings.Contains(lower, phrase) {
				return family.usage
			}
		}
	}
	return ""
}

// extractBrandings scans line by line. A line is eligible only if it mentions
// "brand" or "title", and disclaimer lines ("may include one of: salvage,
// flood, ...") are excluded so boilerplate vocabulary lists do not register as
// actual brands. Eligible lines are checked against the fixed vocabulary with
// word-boundary matching on the whitespace-normalized line.
func extractBrandings(text string) []string {
	found := map[string]struct{}{}
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(strings.Join(strings.Fields(line), " "))
		if lower == "" {
			continue
		}
		if !strings.Contains(lower, "brand") && !strings.Contains(lower, "title") {
			continue
		}
		if brandingDisclaimerRe.MatchString(lower) {
			continue
		}
		for _, keyword := range brandingVocabulary {
			if containsWord(lower, keyword) {
				found[keyword] = struct{}{}
			}
		}
	}
	if len(found) == 0 {
		return nil
	}
	out := make([]string, 0, len(found))
	for _, keyword := range brandingVocabulary {
		if _, ok := found[keyword]; ok {
			out = append(out, keyword)
		}
	}
	return out
}

func containsWord(haystack, word string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordByte(haystack[start-1])
		afterOK := end == len(haystack) || !isWordByte(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
