package extract

import (
	"strings"
	"testing"
)

func TestExtractStructuredJSON(t *testing.T) {
	payload := `{"title": "Oak Chair", "prices": {"low": "$100", "high": "$300"}}`
	fields, prices := Extract(payload)

	if fields.Title != "Oak Chair" {
		t.Errorf("expected title 'Oak Chair', got %q", fields.Title)
	}
	if len(prices) != 2 || prices[0] != 100 || prices[1] != 300 {
		t.Errorf("expected prices [100 300], got %v", prices)
	}

	_, median, _, ok := Summary(prices)
	if !ok || median != 200 {
		t.Errorf("expected even-count median 200, got %v (ok=%v)", median, ok)
	}
}

func TestExtractSynonymKeys(t *testing.T) {
	payload := `{"name": "Tea Set", "manufacturer": "Tiffany & Co.", "summary": "Five pieces"}`
	fields, _ := Extract(payload)

	if fields.Title != "Tea Set" {
		t.Errorf("expected title from 'name', got %q", fields.Title)
	}
	if fields.Maker != "Tiffany & Co." {
		t.Errorf("expected maker from 'manufacturer', got %q", fields.Maker)
	}
	if fields.Description != "Five pieces" {
		t.Errorf("expected description from 'summary', got %q", fields.Description)
	}
}

func TestExtractCodeFencedJSON(t *testing.T) {
	payload := "Here is the analysis:\n```json\n{\"title\": \"Ming Vase\", \"condition\": \"Good\"}\n```\nDone."
	fields, _ := Extract(payload)

	if fields.Title != "Ming Vase" {
		t.Errorf("expected title 'Ming Vase', got %q", fields.Title)
	}
	if fields.Condition != "Good" {
		t.Errorf("expected condition 'Good', got %q", fields.Condition)
	}
}

func TestExtractLabeledLines(t *testing.T) {
	payload := "Maker: ACME Co.\nCondition: Good"
	fields, _ := Extract(payload)

	if fields.Maker != "ACME Co." {
		t.Errorf("expected maker 'ACME Co.', got %q", fields.Maker)
	}
	if fields.Condition != "Good" {
		t.Errorf("expected condition 'Good', got %q", fields.Condition)
	}
	if fields.Title != "" || fields.Brand != "" || fields.Description != "" || fields.ProvenanceNotes != "" {
		t.Errorf("expected remaining fields empty, got %+v", fields)
	}
}

func TestExtractLabelTolerance(t *testing.T) {
	payload := "PROVENANCE NOTES: From the Hamilton estate.\nbrand: Rolex"
	fields, _ := Extract(payload)

	if fields.ProvenanceNotes != "From the Hamilton estate." {
		t.Errorf("expected provenance notes, got %q", fields.ProvenanceNotes)
	}
	if fields.Brand != "Rolex" {
		t.Errorf("expected brand 'Rolex', got %q", fields.Brand)
	}
}

func TestExtractProseFallback(t *testing.T) {
	payload := "  An old wooden chair, probably handmade. No markings visible.  "
	fields, prices := Extract(payload)

	want := strings.TrimSpace(payload)
	if fields.ProvenanceNotes != want {
		t.Errorf("expected provenance notes %q, got %q", want, fields.ProvenanceNotes)
	}
	if fields.Title != "" || fields.Maker != "" {
		t.Errorf("expected other fields empty, got %+v", fields)
	}
	if len(prices) != 0 {
		t.Errorf("expected no prices, got %v", prices)
	}
}

func TestExtractEmptyPayload(t *testing.T) {
	for _, payload := range []string{"", "   ", "\n\t"} {
		fields, prices := Extract(payload)
		if fields != (Fields{}) {
			t.Errorf("expected all fields empty for %q, got %+v", payload, fields)
		}
		if len(prices) != 0 {
			t.Errorf("expected no prices for %q, got %v", payload, prices)
		}
	}
}

func TestExtractDollarTokens(t *testing.T) {
	payload := "Estimated at $1,250.50 retail, seen as low as $900 at auction."
	_, prices := Extract(payload)

	if len(prices) != 2 || prices[0] != 1250.50 || prices[1] != 900 {
		t.Errorf("expected prices [1250.5 900], got %v", prices)
	}
}

func TestExtractPricesObjectNumbers(t *testing.T) {
	payload := `{"title": "Desk", "prices": {"low": 2000, "median": 2500, "high": 3200}}`
	_, prices := Extract(payload)

	if len(prices) != 3 || prices[0] != 2000 || prices[1] != 2500 || prices[2] != 3200 {
		t.Errorf("expected prices [2000 2500 3200], got %v", prices)
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name               string
		prices             []float64
		low, median, high  float64
		ok                 bool
	}{
		{"empty", nil, 0, 0, 0, false},
		{"single", []float64{42}, 42, 42, 42, true},
		{"odd", []float64{300, 100, 200}, 100, 200, 300, true},
		{"even", []float64{100, 300}, 100, 200, 300, true},
		{"even four", []float64{10, 20, 30, 40}, 10, 25, 40, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			low, median, high, ok := Summary(tt.prices)
			if ok != tt.ok || low != tt.low || median != tt.median || high != tt.high {
				t.Errorf("Summary(%v) = %v %v %v %v, want %v %v %v %v",
					tt.prices, low, median, high, ok, tt.low, tt.median, tt.high, tt.ok)
			}
			if ok && !(low <= median && median <= high) {
				t.Errorf("Summary(%v): low <= median <= high violated", tt.prices)
			}
		})
	}
}
