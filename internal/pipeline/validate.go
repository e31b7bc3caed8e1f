package pipeline

import (
	"encoding/json"
	"fmt"
)

// Survey is the ficr-survey-v1 document the chat pipeline starts from. Only
// the fields validation and downstream stages touch are modeled; the full
// document is forwarded to the RDF converter verbatim.
type Survey struct {
	Meta      SurveyMeta     `json:"meta"`
	Building  SurveyBuilding `json:"building"`
	Storeys   []SurveyStorey `json:"storeys"`
	Spaces    []SurveySpace  `json:"spaces"`
	Elements  []SurveyItem   `json:"elements"`
	RiskUnits []SurveyItem   `json:"risk_units"`
}

type SurveyMeta struct {
	ProjectSlug  string `json:"project_slug"`
	BuildingName string `json:"building_name"`
}

type SurveyBuilding struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type SurveyStorey struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	ElevationM *float64 `json:"elevation_m"`
}

type SurveySpace struct {
	ID               string   `json:"id"`
	Label            string   `json:"label"`
	Storey           string   `json:"storey"`
	AdjacentElements []string `json:"adjacent_elements"`
}

type SurveyItem struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// maxReportedErrors caps the errors carried in the validation event payload.
const maxReportedErrors = 10

// ValidateSurvey checks the structural shape of a survey document and
// returns every violation found, empty meaning valid. It deliberately
// validates the whole document instead of stopping at the first problem so
// the UI can show a complete checklist.
func ValidateSurvey(raw json.RawMessage) []string {
	var errs []string

	var survey Survey
	if err := json.Unmarshal(raw, &survey); err != nil {
		return []string{fmt.Sprintf("(root): not a valid survey document: %v", err)}
	}

	if survey.Meta.ProjectSlug == "" {
		errs = append(errs, "meta.project_slug: required")
	}
	if survey.Building.ID == "" {
		errs = append(errs, "building.id: required")
	}
	if len(survey.Storeys) == 0 {
		errs = append(errs, "storeys: at least one storey is required")
	}
	if len(survey.Spaces) == 0 {
		errs = append(errs, "spaces: at least one space is required")
	}

	storeyIDs := make(map[string]bool)
	for i, s := range survey.Storeys {
		if s.ID == "" {
			errs = append(errs, fmt.Sprintf("storeys.%d.id: required", i))
			continue
		}
		if storeyIDs[s.ID] {
			errs = append(errs, fmt.Sprintf("storeys.%d.id: duplicate id %q", i, s.ID))
		}
		storeyIDs[s.ID] = true
		if s.ElevationM == nil {
			errs = append(errs, fmt.Sprintf("storeys.%d.elevation_m: required", i))
		}
	}

	elementIDs := make(map[string]bool)
	for i, e := range survey.Elements {
		if e.ID == "" {
			errs = append(errs, fmt.Sprintf("elements.%d.id: required", i))
			continue
		}
		if elementIDs[e.ID] {
			errs = append(errs, fmt.Sprintf("elements.%d.id: duplicate id %q", i, e.ID))
		}
		elementIDs[e.ID] = true
	}

	spaceIDs := make(map[string]bool)
	for i, sp := range survey.Spaces {
		if sp.ID == "" {
			errs = append(errs, fmt.Sprintf("spaces.%d.id: required", i))
			continue
		}
		if spaceIDs[sp.ID] {
			errs = append(errs, fmt.Sprintf("spaces.%d.id: duplicate id %q", i, sp.ID))
		}
		spaceIDs[sp.ID] = true
		if sp.Storey != "" && !storeyIDs[sp.Storey] {
			errs = append(errs, fmt.Sprintf("spaces.%d.storey: unknown storey %q", i, sp.Storey))
		}
		for j, ref := range sp.AdjacentElements {
			if len(survey.Elements) > 0 && !elementIDs[ref] {
				errs = append(errs, fmt.Sprintf("spaces.%d.adjacent_elements.%d: unknown element %q", i, j, ref))
			}
		}
	}

	return errs
}
