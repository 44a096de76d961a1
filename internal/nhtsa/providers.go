package nhtsa

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mvipergts/value/internal/risk"
)

type recallsResponse struct {
	Count   int `json:"Count"`
	Results []struct {
		NHTSACampaignNumber string `json:"NHTSACampaignNumber"`
		Component           string `json:"Component"`
		Summary             string `json:"Summary"`
	} `json:"results"`
}

type complaintsResponse struct {
	Count   int `json:"count"`
	Results []struct {
		ODINumber  int    `json:"odiNumber"`
		Components string `json:"components"`
		Summary    string `json:"summary"`
		Crash      bool   `json:"crash"`
		Fire       bool   `json:"fire"`
	} `json:"results"`
}

type safetyIssuesResponse struct {
	Results []struct {
		ManufacturerCommunications []struct {
			CommunicationNumber string `json:"communicationNumber"`
			Component           string `json:"component"`
			Subject             string `json:"subject"`
			Summary             string `json:"summary"`
		} `json:"manufacturerCommunications"`
	} `json:"results"`
}

// Recalls returns recall records for the vehicle. An incomplete identity
// yields an empty set rather than an error; callers already treat empty
// record sets as valid input.
func (c *Client) Recalls(ctx context.Context, id risk.Identity) ([]risk.Recall, error) {
	if !usable(id) {
		return nil, nil
	}
	endpoint := fmt.Sprintf("%s/recalls/recallsByVehicle?make=%s&model=%s&modelYear=%d",
		strings.TrimRight(c.cfg.BaseURL, "/"), url.QueryEscape(id.Make), url.QueryEscape(id.Model), id.Year)
	var resp recallsResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("nhtsa recalls: %w", err)
	}
	out := make([]risk.Recall, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, risk.Recall{
			Campaign:  r.NHTSACampaignNumber,
			Component: r.Component,
			Summary:   r.Summary,
		})
	}
	return out, nil
}

// Complaints returns consumer complaint records for the vehicle.
func (c *Client) Complaints(ctx context.Context, id risk.Identity) ([]risk.Complaint, error) {
	if !usable(id) {
		return nil, nil
	}
	endpoint := fmt.Sprintf("%s/complaints/complaintsByVehicle?make=%s&model=%s&modelYear=%d",
		strings.TrimRight(c.cfg.BaseURL, "/"), url.QueryEscape(id.Make), url.QueryEscape(id.Model), id.Year)
	var resp complaintsResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("nhtsa complaints: %w", err)
	}
	out := make([]risk.Complaint, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, risk.Complaint{
			ODINumber: r.ODINumber,
			Component: r.Components,
			Summary:   r.Summary,
			Crash:     r.Crash,
			Fire:      r.Fire,
		})
	}
	return out, nil
}

// Bulletins returns technical service bulletins, read from the manufacturer
// communications of the safety-issues endpoint.
func (c *Client) Bulletins(ctx context.Context, id risk.Identity) ([]risk.Bulletin, error) {
	if !usable(id) {
		return nil, nil
	}
	endpoint := fmt.Sprintf("%s/safetyIssues/byVehicle?make=%s&model=%s&modelYear=%d",
		strings.TrimRight(c.cfg.BaseURL, "/"), url.QueryEscape(id.Make), url.QueryEscape(id.Model), id.Year)
	var resp safetyIssuesResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("nhtsa bulletins: %w", err)
	}
	var out []risk.Bulletin
	for _, r := range resp.Results {
		for _, mc := range r.ManufacturerCommunications {
			summary := mc.Summary
			if summary == "" {
				summary = mc.Subject
			}
			out = append(out, risk.Bulletin{
				Number:    mc.CommunicationNumber,
				Component: mc.Component,
				Summary:   summary,
			})
		}
	}
	return out, nil
}

// usable reports whether the identity carries enough fields to query the
// by-vehicle endpoints. Partial identities degrade to empty evidence.
func usable(id risk.Identity) bool {
	return id.Year > 0 && strings.TrimSpace(id.Make) != "" && strings.TrimSpace(id.Model) != ""
}
