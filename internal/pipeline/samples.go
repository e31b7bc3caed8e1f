package pipeline

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
)

//go:embed samples/*_survey.json
var sampleFS embed.FS

// SampleInfo is the listing entry for one bundled sample survey.
type SampleInfo struct {
	Slug         string `json:"slug"`
	BuildingName string `json:"building_name"`
	Filename     string `json:"filename"`
}

// ListSamples returns metadata for the bundled sample surveys, sorted by
// slug. Files that fail to parse are skipped rather than failing the listing.
func ListSamples() []SampleInfo {
	entries, err := sampleFS.ReadDir("samples")
	if err != nil {
		return nil
	}

	samples := make([]SampleInfo, 0, len(entries))
	for _, entry := range entries {
		data, err := sampleFS.ReadFile("samples/" + entry.Name())
		if err != nil {
			continue
		}
		var survey Survey
		if err := json.Unmarshal(data, &survey); err != nil {
			continue
		}
		name := survey.Meta.BuildingName
		if name == "" {
			name = survey.Building.Label
		}
		samples = append(samples, SampleInfo{
			Slug:         survey.Meta.ProjectSlug,
			BuildingName: name,
			Filename:     entry.Name(),
		})
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].Slug < samples[j].Slug })
	return samples
}

// SampleBySlug returns the full survey document for one sample.
func SampleBySlug(slug string) (json.RawMessage, error) {
	entries, err := sampleFS.ReadDir("samples")
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		data, err := sampleFS.ReadFile("samples/" + entry.Name())
		if err != nil {
			continue
		}
		var survey Survey
		if err := json.Unmarshal(data, &survey); err != nil {
			continue
		}
		if survey.Meta.ProjectSlug == slug {
			return data, nil
		}
	}

	return nil, fmt.Errorf("sample %q not found", slug)
}
