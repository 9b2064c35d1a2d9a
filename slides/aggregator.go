// Package slides - slide-level aggregation of per-cell decisions.
//
// Thousands of per-cell accept/reject decisions collapse into a single
// slide-level diagnosis via a severity-ordered cascade of clinical rules.
// The rule order and its literal thresholds are clinical policy, not
// derived logic; they are kept as an explicit ordered list so the policy
// stays visible and testable.
package slides

import "github.com/cytoscreen/go-screening/detection"

// Diagnosis is the slide-level verdict: one of the Bethesda categories,
// or INSUFFICIENT when no cells were detected at all.
type Diagnosis string

const (
	DiagnosisNILM         Diagnosis = "NILM"
	DiagnosisASCUS        Diagnosis = "ASC-US"
	DiagnosisASCH         Diagnosis = "ASC-H"
	DiagnosisLSIL         Diagnosis = "LSIL"
	DiagnosisHSIL         Diagnosis = "HSIL"
	DiagnosisSCC          Diagnosis = "SCC"
	DiagnosisInsufficient Diagnosis = "INSUFFICIENT"
)

// Rule is one step of the cascade: the slide is diagnosed as Diagnosis
// when the class's cell count exceeds MinCount OR its share of all cells
// exceeds MinPercent (both strict).
type Rule struct {
	Class      string    `json:"class"`
	MinCount   int       `json:"min_count"`
	MinPercent float64   `json:"min_percent"`
	Diagnosis  Diagnosis `json:"diagnosis"`
}

// DefaultRules returns the production cascade, most severe first. The
// thresholds deliberately favor recall on the severe end: a single SCC
// cell flags the whole slide, while milder categories need more absolute
// evidence or a higher density before they override the baseline.
//
// SCC's percentage arm is set above 100 so only its count arm (any
// instance) can fire.
func DefaultRules() []Rule {
	return []Rule{
		{Class: "SCC", MinCount: 0, MinPercent: 101, Diagnosis: DiagnosisSCC},
		{Class: "HSIL", MinCount: 10, MinPercent: 1.0, Diagnosis: DiagnosisHSIL},
		{Class: "ASC-H", MinCount: 15, MinPercent: 2.0, Diagnosis: DiagnosisASCH},
		{Class: "LSIL", MinCount: 5, MinPercent: 2.0, Diagnosis: DiagnosisLSIL},
		{Class: "ASC-US", MinCount: 10, MinPercent: 3.0, Diagnosis: DiagnosisASCUS},
	}
}

// SlideResult is the aggregated verdict for one image. Created once,
// read-only afterward. sum(CellCounts) always equals TotalCells, and the
// diagnosis is INSUFFICIENT exactly when TotalCells is zero.
type SlideResult struct {
	Name            string             `json:"name,omitempty"`
	CellCounts      map[string]int     `json:"cell_counts"`
	CellPercentages map[string]float64 `json:"cell_percentages"`
	TotalCells      int                `json:"total_cells"`
	Diagnosis       Diagnosis          `json:"diagnosis"`

	// DiagnosisConfidence is the diagnosed class's percentage of all
	// cells on the slide.
	DiagnosisConfidence float64 `json:"diagnosis_confidence"`

	// AverageConfidence is the mean confidence of all accepted decisions
	// on the slide, regardless of class.
	AverageConfidence float64 `json:"avg_confidence"`
}

// Aggregator converts accepted per-cell decisions into slide results.
// The zero value is not usable; construct with New.
type Aggregator struct {
	rules    []Rule
	baseline Diagnosis
}

// New builds an aggregator with the given cascade. The baseline diagnosis
// applies when no rule fires.
func New(rules []Rule) *Aggregator {
	return &Aggregator{rules: rules, baseline: DiagnosisNILM}
}

// Aggregate tallies one image's accepted decisions and runs the cascade.
// Decisions that were not accepted are ignored, so callers may pass a
// full decision list.
func (a *Aggregator) Aggregate(name string, decisions []detection.ClassDecision) SlideResult {
	counts := make(map[string]int)
	total := 0
	var confidenceSum float64

	for _, d := range decisions {
		if !d.Accepted {
			continue
		}
		counts[d.ClassName]++
		total++
		confidenceSum += float64(d.Confidence)
	}

	if total == 0 {
		return SlideResult{
			Name:            name,
			CellCounts:      counts,
			CellPercentages: map[string]float64{},
			Diagnosis:       DiagnosisInsufficient,
		}
	}

	percentages := make(map[string]float64, len(counts))
	for class, count := range counts {
		percentages[class] = float64(count) / float64(total) * 100
	}

	diagnosis, diagnosisConfidence := a.applyRules(counts, percentages)

	return SlideResult{
		Name:                name,
		CellCounts:          counts,
		CellPercentages:     percentages,
		TotalCells:          total,
		Diagnosis:           diagnosis,
		DiagnosisConfidence: diagnosisConfidence,
		AverageConfidence:   confidenceSum / float64(total),
	}
}

// applyRules walks the cascade top to bottom and short-circuits at the
// first rule that fires; the baseline category wins otherwise.
func (a *Aggregator) applyRules(counts map[string]int, percentages map[string]float64) (Diagnosis, float64) {
	for _, rule := range a.rules {
		count := counts[rule.Class]
		pct := percentages[rule.Class]
		if count > rule.MinCount || pct > rule.MinPercent {
			return rule.Diagnosis, pct
		}
	}
	return a.baseline, percentages[string(a.baseline)]
}
