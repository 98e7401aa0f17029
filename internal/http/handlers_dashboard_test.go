package http

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDashboardPartialShowsIndicators(t *testing.T) {
	srv, store := newTestServer(t)
	seedTwoProductsSameDay(t, store)

	rr := get(t, srv, "/ui/dashboard")
	if rr.Code != 200 {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	body := rr.Body.String()

	// 15 units for R$900,00 gross: average ticket R$60,00
	for _, want := range []string{"R$ 900,00", "R$ 60,00", "R$ 229,00"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q:\n%s", want, body)
		}
	}
}

func TestDashboardPartialEmptyLedger(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := get(t, srv, "/ui/dashboard")
	if rr.Code != 200 {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "R$ 0,00") {
		t.Errorf("empty dashboard should zero the average ticket:\n%s", rr.Body.String())
	}
}

func TestDashboardSeriesJSON(t *testing.T) {
	srv, store := newTestServer(t)
	seedTwoProductsSameDay(t, store)

	rr := get(t, srv, "/dashboard/series")
	if rr.Code != 200 {
		t.Fatalf("series status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("Content-Type = %q, want application/json", ct)
	}

	var points []struct {
		Day     string  `json:"day"`
		Revenue float64 `json:"revenue"`
		Profit  float64 `json:"profit"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &points); err != nil {
		t.Fatalf("decode series: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}
	if points[0].Day != "2026-03-10" {
		t.Errorf("Day = %q, want 2026-03-10", points[0].Day)
	}
	if points[0].Revenue != 900 {
		t.Errorf("Revenue = %v, want 900", points[0].Revenue)
	}
	if points[0].Profit != 229 {
		t.Errorf("Profit = %v, want 229", points[0].Profit)
	}
}

func TestDashboardSeriesRejectsBadFilter(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := get(t, srv, "/dashboard/series?product=-1")
	if rr.Code != 422 {
		t.Fatalf("expected 422 for bad filter, got %d", rr.Code)
	}
}
