package slides

// DiagnosisStat is one diagnosis's share of a slide batch.
type DiagnosisStat struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// BatchSummary holds summary statistics over a batch of slide results.
type BatchSummary struct {
	TotalSlides           int                         `json:"total_slides"`
	TotalCells            int                         `json:"total_cells"`
	AvgCellsPerSlide      float64                     `json:"avg_cells_per_slide"`
	DiagnosisCounts       map[Diagnosis]int           `json:"diagnosis_counts"`
	DiagnosisDistribution map[Diagnosis]DiagnosisStat `json:"diagnosis_distribution"`
}

// Summarize reduces a batch of slide results into distribution
// statistics for reporting.
func Summarize(results []SlideResult) BatchSummary {
	summary := BatchSummary{
		TotalSlides:           len(results),
		DiagnosisCounts:       make(map[Diagnosis]int),
		DiagnosisDistribution: make(map[Diagnosis]DiagnosisStat),
	}

	for _, r := range results {
		summary.DiagnosisCounts[r.Diagnosis]++
		summary.TotalCells += r.TotalCells
	}

	if summary.TotalSlides > 0 {
		summary.AvgCellsPerSlide = float64(summary.TotalCells) / float64(summary.TotalSlides)
		for diagnosis, count := range summary.DiagnosisCounts {
			summary.DiagnosisDistribution[diagnosis] = DiagnosisStat{
				Count:      count,
				Percentage: float64(count) / float64(summary.TotalSlides) * 100,
			}
		}
	}

	return summary
}
