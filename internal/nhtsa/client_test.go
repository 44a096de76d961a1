package nhtsa

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mvipergts/value/internal/risk"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL, VPICBaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatal(err)
	}
	return c, srv
}

func TestRecallsMapsRecords(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recalls/recallsByVehicle" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"Count":1,"results":[{"NHTSACampaignNumber":"21V123000","Component":"POWER TRAIN","Summary":"transmission may fail"}]}`))
	}))
	out, err := c.Recalls(context.Background(), risk.Identity{Year: 2016, Make: "Honda", Model: "Civic"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Campaign != "21V123000" || out[0].Component != "POWER TRAIN" {
		t.Fatalf("unexpected recalls %+v", out)
	}
}

func TestIncompleteIdentityYieldsEmptySet(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for incomplete identity")
	}))
	out, err := c.Recalls(context.Background(), risk.Identity{Make: "Honda"})
	if err != nil || out != nil {
		t.Fatalf("expected nil, nil for partial identity, got %v, %v", out, err)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"count":0,"results":[]}`))
	}))
	out, err := c.Complaints(context.Background(), risk.Identity{Year: 2016, Make: "Honda", Model: "Civic"})
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty complaints, got %+v", out)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	_, err := c.Complaints(context.Background(), risk.Identity{Year: 2016, Make: "Honda", Model: "Civic"})
	if err == nil {
		t.Fatal("expected error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected single attempt on 400, got %d", calls)
	}
}

func TestResponseCacheAvoidsRefetch(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"Count":0,"results":[]}`))
	}))
	id := risk.Identity{Year: 2016, Make: "Honda", Model: "Civic"}
	for i := 0; i < 3; i++ {
		if _, err := c.Recalls(context.Background(), id); err != nil {
			t.Fatal(err)
		}
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected 1 upstream call, got %d", calls)
	}
}

func TestBulletinsReadManufacturerCommunications(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"manufacturerCommunications":[{"communicationNumber":"TSB-16-084","component":"TRANSMISSION","subject":"shudder on upshift","summary":""}]}]}`))
	}))
	out, err := c.Bulletins(context.Background(), risk.Identity{Year: 2016, Make: "Honda", Model: "Civic"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Number != "TSB-16-084" || out[0].Summary != "shudder on upshift" {
		t.Fatalf("unexpected bulletins %+v", out)
	}
}

func TestResolveVINUsesDecoder(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Results":[{"ModelYear":"2016","Make":"HONDA","Model":"Civic"}]}`))
	}))
	id, err := c.Resolve(context.Background(), "19XFC2F59GE000000")
	if err != nil {
		t.Fatal(err)
	}
	if id.Year != 2016 || id.Make != "HONDA" || id.Model != "Civic" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestParseLabel(t *testing.T) {
	cases := []struct {
		in   string
		want risk.Identity
	}{
		{"2016 Honda Civic", risk.Identity{Year: 2016, Make: "Honda", Model: "Civic"}},
		{"  2019   Ford  F-150  ", risk.Identity{Year: 2019, Make: "Ford", Model: "F-150"}},
		{"Honda Civic", risk.Identity{Make: "Honda", Model: "Civic"}},
		{"Tesla", risk.Identity{Make: "Tesla"}},
		{"", risk.Identity{}},
		{"2016 Jeep Grand Cherokee", risk.Identity{Year: 2016, Make: "Jeep", Model: "Grand Cherokee"}},
	}
	for _, tc := range cases {
		if got := ParseLabel(tc.in); got != tc.want {
			t.Fatalf("ParseLabel(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}
