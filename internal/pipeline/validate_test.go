package pipeline

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidateSurveySampleIsValid(t *testing.T) {
	raw, err := SampleBySlug("two-storey-office")
	if err != nil {
		t.Fatalf("bundled sample missing: %v", err)
	}
	if errs := ValidateSurvey(raw); len(errs) != 0 {
		t.Errorf("bundled sample should validate, got: %v", errs)
	}
}

func TestValidateSurveyRequiredFields(t *testing.T) {
	errs := ValidateSurvey(json.RawMessage(`{}`))

	wantSubstrings := []string{
		"meta.project_slug",
		"building.id",
		"storeys",
		"spaces",
	}
	for _, want := range wantSubstrings {
		found := false
		for _, e := range errs {
			if strings.Contains(e, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected an error mentioning %q, got %v", want, errs)
		}
	}
}

func TestValidateSurveyDuplicateAndDanglingIDs(t *testing.T) {
	raw := json.RawMessage(`{
		"meta": {"project_slug": "x"},
		"building": {"id": "b1"},
		"storeys": [
			{"id": "s1", "elevation_m": 0},
			{"id": "s1", "elevation_m": 3.2}
		],
		"spaces": [
			{"id": "sp1", "storey": "missing", "adjacent_elements": ["ghost"]}
		],
		"elements": [{"id": "e1", "type": "Wall"}]
	}`)

	errs := ValidateSurvey(raw)

	joined := strings.Join(errs, "\n")
	if !strings.Contains(joined, "duplicate id \"s1\"") {
		t.Errorf("duplicate storey id not caught: %v", errs)
	}
	if !strings.Contains(joined, "unknown storey \"missing\"") {
		t.Errorf("dangling storey ref not caught: %v", errs)
	}
	if !strings.Contains(joined, "unknown element \"ghost\"") {
		t.Errorf("dangling element ref not caught: %v", errs)
	}
}

func TestValidateSurveyNotJSON(t *testing.T) {
	errs := ValidateSurvey(json.RawMessage(`nope`))
	if len(errs) != 1 || !strings.Contains(errs[0], "(root)") {
		t.Errorf("expected single root error, got %v", errs)
	}
}
