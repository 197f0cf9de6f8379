// Package extract turns opaque analysis payloads into typed catalog fields
// and numeric prices. Payloads are typically vision-model output: ideally a
// JSON object, often code-fenced or wrapped in prose, sometimes malformed.
// Extraction never fails; each layer that can't make sense of the payload
// falls through to the next, and in the worst case the raw text lands in the
// provenance notes so nothing is silently dropped.
package extract

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Fields is the fixed set of descriptive fields derived from a payload.
// Values are always present; empty string means unknown.
type Fields struct {
	Title           string `json:"title"`
	Brand           string `json:"brand"`
	Maker           string `json:"maker"`
	Description     string `json:"description"`
	Condition       string `json:"condition"`
	ProvenanceNotes string `json:"provenance_notes"`
}

// fieldNames is the canonical field order.
var fieldNames = []string{"title", "brand", "maker", "description", "condition", "provenance_notes"}

// fieldSynonyms maps each field to the source keys accepted for it, in
// preference order. The first key present with a non-empty string value wins.
var fieldSynonyms = map[string][]string{
	"title":            {"title", "name", "object_title", "item_title"},
	"brand":            {"brand", "brand_name", "label", "make"},
	"maker":            {"maker", "manufacturer", "artist", "creator", "author"},
	"description":      {"description", "details", "summary"},
	"condition":        {"condition", "state", "condition_assessment"},
	"provenance_notes": {"provenance_notes", "provenance", "history", "origin"},
}

var (
	fenceRe   = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")
	labelRe   = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z_ ]*?)\s*:\s*(.+)$`)
	dollarRe  = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
	numericRe = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)
)

// Extract derives descriptive fields and raw prices from a payload.
//
// Fields are attempted in layers, first success wins: structured JSON parse
// with synonym mapping, then a labeled-line scan ("Maker: ACME Co."), then
// the whole trimmed payload into provenance notes. Prices come from a
// "prices" object when one parses, otherwise from $-prefixed tokens anywhere
// in the text.
func Extract(payload string) (Fields, []float64) {
	var f Fields
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return f, nil
	}

	obj := parseObject(trimmed)

	populated := false
	if obj != nil {
		for _, name := range fieldNames {
			for _, key := range fieldSynonyms[name] {
				s, ok := stringValue(obj[key])
				if !ok {
					continue
				}
				setField(&f, name, s)
				populated = true
				break
			}
		}
	}

	if !populated {
		populated = scanLabeledLines(&f, trimmed)
	}

	if !populated {
		f.ProvenanceNotes = trimmed
	}

	return f, extractPrices(trimmed, obj)
}

// setField assigns a value to the named field.
func setField(f *Fields, name, value string) {
	switch name {
	case "title":
		f.Title = value
	case "brand":
		f.Brand = value
	case "maker":
		f.Maker = value
	case "description":
		f.Description = value
	case "condition":
		f.Condition = value
	case "provenance_notes":
		f.ProvenanceNotes = value
	}
}

// parseObject tries to interpret the payload as a JSON object. If the whole
// payload doesn't parse, Markdown code fences are stripped and the span from
// the first '{' to the last '}' is tried. Returns nil when nothing parses.
func parseObject(payload string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err == nil {
		return obj
	}

	cleaned := fenceRe.ReplaceAllString(payload, "")
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil
	}

	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &obj); err != nil {
		return nil
	}
	return obj
}

// stringValue extracts a trimmed, non-empty string from a JSON value.
func stringValue(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// scanLabeledLines looks for "fieldname: value" lines, tolerating case and
// underscore/space differences in the label. Synonyms apply here too, so
// "Manufacturer: X" fills the maker field. Reports whether anything matched.
func scanLabeledLines(f *Fields, payload string) bool {
	found := false
	for _, line := range strings.Split(payload, "\n") {
		m := labelRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		label := strings.ToLower(strings.TrimSpace(m[1]))
		label = strings.ReplaceAll(label, " ", "_")
		value := strings.TrimSpace(m[2])
		if value == "" {
			continue
		}

		for _, name := range fieldNames {
			if fieldValue(f, name) != "" {
				continue
			}
			for _, key := range fieldSynonyms[name] {
				if label == key {
					setField(f, name, value)
					found = true
					break
				}
			}
		}
	}
	return found
}

// fieldValue reads the named field.
func fieldValue(f *Fields, name string) string {
	switch name {
	case "title":
		return f.Title
	case "brand":
		return f.Brand
	case "maker":
		return f.Maker
	case "description":
		return f.Description
	case "condition":
		return f.Condition
	case "provenance_notes":
		return f.ProvenanceNotes
	}
	return ""
}

// extractPrices pulls numeric prices from the payload. A parsed "prices"
// object with low/median/high keys takes precedence; otherwise every
// $-prefixed numeric token in the text is collected.
func extractPrices(payload string, obj map[string]any) []float64 {
	if obj != nil {
		if prices, ok := obj["prices"].(map[string]any); ok {
			var out []float64
			for _, key := range []string{"low", "median", "high"} {
				if v, ok := coerceFloat(prices[key]); ok {
					out = append(out, v)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}

	var out []float64
	for _, m := range dollarRe.FindAllStringSubmatch(payload, -1) {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// coerceFloat converts a JSON value to a float, accepting numbers and
// strings with currency symbols or thousands separators ("$1,250.00"). The
// first numeric run in a string is what counts.
func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		run := numericRe.FindString(t)
		if run == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(run, ",", ""), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Summary derives the (low, median, high) triple from raw prices. Median is
// the middle element for odd counts and the mean of the two central elements
// for even counts. Reports false for an empty list.
func Summary(prices []float64) (low, median, high float64, ok bool) {
	if len(prices) == 0 {
		return 0, 0, 0, false
	}

	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	n := len(sorted)
	low = sorted[0]
	high = sorted[n-1]
	if n%2 == 1 {
		median = sorted[n/2]
	} else {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return low, median, high, true
}
