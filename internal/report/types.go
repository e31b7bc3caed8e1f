package report

import "time"

// Category bucket names used in PerCategoryRates.
const (
	CategoryWall  = "wall"
	CategoryFloor = "floor"
	CategoryDoor  = "door"
)

// AggregateMetrics is recomputed wholesale on every report build; it is never
// incrementally updated.
type AggregateMetrics struct {
	TotalComponents    int                `json:"totalComponents"`
	TotalNonCompliant  int                `json:"totalNonCompliant"`
	OverallRatePercent float64            `json:"overallNonComplianceRatePercent"`
	PerCategoryRates   map[string]float64 `json:"perCategoryRates"`
	EML                float64            `json:"eml"`
}

// DeficitRecord is one non-compliant structural element from the element
// compliance detail query. ActualValue/RequiredValue are REI minutes for
// walls and slabs; for doorsets they are the 0/1 obscured placeholders the
// query binds. AffectedValue is the financial exposure the deficit touches,
// zero when the query leaves it unbound.
type DeficitRecord struct {
	ID               string     `json:"id"`
	Direction        string     `json:"direction"`
	AssetType        string     `json:"assetType"`
	ElementLabel     string     `json:"elementLabel"`
	ComplianceStatus string     `json:"complianceStatus"`
	Issue            string     `json:"issue"`
	SpaceLabel       string     `json:"spaceLabel"`
	ActualValue      float64    `json:"actualValue"`
	RequiredValue    float64    `json:"requiredValue"`
	AffectedValue    float64    `json:"affectedValue"`
	Criticality      string     `json:"criticality"`
	Mitigation       Mitigation `json:"mitigation"`
}

// RiskUnitAssessment carries the per-risk-unit aggregate counts computed
// upstream by the confidence query. Invariants the endpoint guarantees:
// unknownCount, compromisedCount <= totalAssumptions and
// evidenceGapCount <= unknownCount (a gap is an unknown without evidence).
// A risk unit with no BoundaryAssumption entries does not appear at all;
// that means "no assumptions recorded", not "fully compliant".
type RiskUnitAssessment struct {
	RiskUnitLabel    string  `json:"riskUnitLabel"`
	TotalAssumptions int     `json:"totalAssumptions"`
	UnknownCount     int     `json:"unknownCount"`
	CompromisedCount int     `json:"compromisedCount"`
	EvidenceGapCount int     `json:"evidenceGapCount"`
	InstallStatus    string  `json:"installationStatus"`
	AlarmStatus      string  `json:"alarmStatus"`
	DeclaredExposure float64 `json:"declaredExposure"`
}

// Report is the assembled audit report handed to the presentation layer.
type Report struct {
	GeneratedAt time.Time            `json:"generatedAt"`
	Metrics     AggregateMetrics     `json:"metrics"`
	Deficits    []DeficitRecord      `json:"deficits"`
	RiskUnits   []RiskUnitAssessment `json:"riskUnits"`
}
