// Package report serializes screening results into files for human
// review: per-class metrics and slide results as CSV, batch summaries
// as JSON.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/cytoscreen/go-screening/evaluation"
	"github.com/cytoscreen/go-screening/slides"
)

// WriteClassMetricsCSV writes one row per class with detection counts
// and derived metrics.
func WriteClassMetricsCSV(path string, metrics []evaluation.ClassMetrics) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"class", "tp", "fp", "fn", "precision", "recall", "f1"}); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for _, m := range metrics {
		record := []string{
			m.Class,
			fmt.Sprintf("%d", m.TP),
			fmt.Sprintf("%d", m.FP),
			fmt.Sprintf("%d", m.FN),
			fmt.Sprintf("%.4f", m.Precision),
			fmt.Sprintf("%.4f", m.Recall),
			fmt.Sprintf("%.4f", m.F1),
		}
		if err := w.Write(record); err != nil {
			return errors.Wrapf(err, "writing class %s", m.Class)
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flushing metrics csv")
}

// WriteSlideResultsCSV writes one row per slide with its diagnosis and
// cell statistics.
func WriteSlideResultsCSV(path string, results []slides.SlideResult) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"slide", "diagnosis", "total_cells", "diagnosis_confidence", "avg_confidence"}
	if err := w.Write(header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for _, r := range results {
		record := []string{
			r.Name,
			string(r.Diagnosis),
			fmt.Sprintf("%d", r.TotalCells),
			fmt.Sprintf("%.2f", r.DiagnosisConfidence),
			fmt.Sprintf("%.4f", r.AverageConfidence),
		}
		if err := w.Write(record); err != nil {
			return errors.Wrapf(err, "writing slide %s", r.Name)
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flushing slide csv")
}

// WriteJSON writes any summary value as indented JSON.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling report")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "writing %s", path)
}
