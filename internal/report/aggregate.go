package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ficr/insight/internal/sparql"
)

// Options are the aggregation-level modeling switches.
type Options struct {
	// IncludeDoorObstructionInOverall folds doorset obstruction counts into
	// the overall non-compliance rate. Door obstruction is a maintenance
	// concern rather than a structural fire-spread failure, but the published
	// figure has always included it and downstream consumers depend on it, so
	// the default configuration keeps it on. Per-category rates are
	// unaffected either way.
	IncludeDoorObstructionInOverall bool
}

type bucket struct {
	total        int
	nonCompliant int
}

// Aggregate folds the three report result sets into the assembled report.
// It is a pure transform over already-fetched data: no retries, no partial
// computation. If any input is missing the whole derivation is refused,
// because rates over incomplete category coverage would be silently wrong.
func Aggregate(globalCounts, elementDetail, riskAssessments *sparql.ResultSet, opts Options) (*Report, error) {
	if globalCounts == nil || elementDetail == nil || riskAssessments == nil {
		return nil, fmt.Errorf("report aggregation requires all three result sets")
	}

	metrics := deriveMetrics(globalCounts, opts)
	deficits := extractDeficits(elementDetail)
	riskUnits := rankRiskUnits(riskAssessments)

	for _, ru := range riskUnits {
		if ru.DeclaredExposure > metrics.EML {
			metrics.EML = ru.DeclaredExposure
		}
	}

	return &Report{
		GeneratedAt: time.Now().UTC(),
		Metrics:     metrics,
		Deficits:    deficits,
		RiskUnits:   riskUnits,
	}, nil
}

func deriveMetrics(globalCounts *sparql.ResultSet, opts Options) AggregateMetrics {
	buckets := map[string]*bucket{
		CategoryWall:  {},
		CategoryFloor: {},
		CategoryDoor:  {},
	}

	for _, row := range globalCounts.Rows {
		category := row["category"].AsString()
		status := row["status"].AsString()
		count := int(row["count"].AsNumber())

		b := classifyCategory(buckets, category)
		if b == nil {
			continue
		}

		b.total += count
		if strings.Contains(status, "Non-Compliant") {
			b.nonCompliant += count
		}
	}

	wall, floor, door := buckets[CategoryWall], buckets[CategoryFloor], buckets[CategoryDoor]

	overallTotal := wall.total + floor.total
	overallNC := wall.nonCompliant + floor.nonCompliant
	if opts.IncludeDoorObstructionInOverall {
		overallTotal += door.total
		overallNC += door.nonCompliant
	}

	return AggregateMetrics{
		TotalComponents:    overallTotal,
		TotalNonCompliant:  overallNC,
		OverallRatePercent: rate(overallNC, overallTotal),
		PerCategoryRates: map[string]float64{
			CategoryWall:  rate(wall.nonCompliant, wall.total),
			CategoryFloor: rate(floor.nonCompliant, floor.total),
			CategoryDoor:  rate(door.nonCompliant, door.total),
		},
	}
}

func classifyCategory(buckets map[string]*bucket, category string) *bucket {
	switch {
	case strings.Contains(category, "Wall"):
		return buckets[CategoryWall]
	case strings.Contains(category, "Slab"), strings.Contains(category, "Floor"):
		return buckets[CategoryFloor]
	case strings.Contains(category, "Doorset"), strings.Contains(category, "Door"):
		return buckets[CategoryDoor]
	default:
		return nil
	}
}

// rate is a two-decimal percentage; an empty bucket rates 0.
func rate(nonCompliant, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(nonCompliant)*10000/float64(total)) / 100
}

// extractDeficits maps element detail rows to the actionable deficit list.
// The query returns compliant rows too, for the audit trail; the published
// list shows failures only.
func extractDeficits(elementDetail *sparql.ResultSet) []DeficitRecord {
	deficits := make([]DeficitRecord, 0)
	for _, row := range elementDetail.Rows {
		status := row["complianceStatus"].AsString()
		if status == "Compliant" {
			continue
		}

		assetType := row["assetType"].AsString()
		rec := DeficitRecord{
			ID:               fmt.Sprintf("DEF-%03d", len(deficits)+1),
			Direction:        row["direction"].AsString(),
			AssetType:        assetType,
			ElementLabel:     row["elementLabel"].AsString(),
			ComplianceStatus: status,
			Issue:            row["issue"].AsString(),
			SpaceLabel:       row["spaceLabel"].AsString(),
			ActualValue:      row["actualREI"].AsNumber(),
			RequiredValue:    row["requiredREI"].AsNumber(),
			AffectedValue:    row["affectedValue"].AsNumber(),
			Mitigation:       MitigationFor(assetType),
		}
		rec.Criticality = Criticality(rec.AffectedValue)
		deficits = append(deficits, rec)
	}
	return deficits
}

// rankRiskUnits orders assessments worst-first: evidence gaps dominate,
// unknown-assumption count breaks ties. This surfaces the units with the
// least verifiable safety posture first, independent of their financial
// exposure, favouring epistemic caution over magnitude.
func rankRiskUnits(riskAssessments *sparql.ResultSet) []RiskUnitAssessment {
	units := make([]RiskUnitAssessment, 0, len(riskAssessments.Rows))
	for _, row := range riskAssessments.Rows {
		units = append(units, RiskUnitAssessment{
			RiskUnitLabel:    row["ruLabel"].AsString(),
			TotalAssumptions: int(row["totalAssumptions"].AsNumber()),
			UnknownCount:     int(row["unknownCount"].AsNumber()),
			CompromisedCount: int(row["compromisedCount"].AsNumber()),
			EvidenceGapCount: int(row["evidenceGapCount"].AsNumber()),
			InstallStatus:    row["installStatus"].AsString(),
			AlarmStatus:      row["alarmStatus"].AsString(),
			DeclaredExposure: row["declaredExposure_GBP"].AsNumber(),
		})
	}

	sort.SliceStable(units, func(i, j int) bool {
		if units[i].EvidenceGapCount != units[j].EvidenceGapCount {
			return units[i].EvidenceGapCount > units[j].EvidenceGapCount
		}
		return units[i].UnknownCount > units[j].UnknownCount
	})

	return units
}
