package nhtsa

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mvipergts/value/internal/risk"
)

var (
	vinRe   = regexp.MustCompile(`(?i)^[A-HJ-NPR-Z0-9]{17}$`)
	labelRe = regexp.MustCompile(`^\s*(\d{4})\s+(\S+)\s+(.+?)\s*$`)
)

type vpicResponse struct {
	Results []struct {
		ModelYear string `json:"ModelYear"`
		Make      string `json:"Make"`
		Model     string `json:"Model"`
	} `json:"Results"`
}

// Resolve turns a VIN or a free-text "year make model" label into a vehicle
// identity. Fields it cannot determine stay zero; callers tolerate partial
// identities.
func (c *Client) Resolve(ctx context.Context, vinOrLabel string) (risk.Identity, error) {
	s := strings.TrimSpace(vinOrLabel)
	if s == "" {
		return risk.Identity{}, nil
	}
	if vinRe.MatchString(s) {
		return c.decodeVIN(ctx, s)
	}
	return ParseLabel(s), nil
}

func (c *Client) decodeVIN(ctx context.Context, vin string) (risk.Identity, error) {
	endpoint := fmt.Sprintf("%s/vehicles/DecodeVinValues/%s?format=json",
		strings.TrimRight(c.cfg.VPICBaseURL, "/"), strings.ToUpper(vin))
	var resp vpicResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return risk.Identity{}, fmt.Errorf("vpic decode: %w", err)
	}
	if len(resp.Results) == 0 {
		return risk.Identity{}, nil
	}
	r := resp.Results[0]
	year, _ := strconv.Atoi(strings.TrimSpace(r.ModelYear))
	return risk.Identity{
		Year:  year,
		Make:  strings.TrimSpace(r.Make),
		Model: strings.TrimSpace(r.Model),
	}, nil
}

// ParseLabel parses a free-text "year make model" label. Anything it cannot
// place stays zero; a bare "Honda Civic" still yields make and model.
func ParseLabel(label string) risk.Identity {
	s := strings.Join(strings.Fields(label), " ")
	if s == "" {
		return risk.Identity{}
	}
	if m := labelRe.FindStringSubmatch(s); len(m) == 4 {
		year, _ := strconv.Atoi(m[1])
		return risk.Identity{Year: year, Make: m[2], Model: m[3]}
	}
	fields := strings.Fields(s)
	if len(fields) >= 2 {
		return risk.Identity{Make: fields[0], Model: strings.Join(fields[1:], " ")}
	}
	return risk.Identity{Make: fields[0]}
}
