package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/entrainlab/entrain/internal/models"
)

// csvHeader is the wide indicator-summary layout: one row per indicator.
var csvHeader = []string{
	"dimension",
	"dimension_name",
	"indicator",
	"value",
	"baseline",
	"unit",
	"confidence",
	"insufficient_data",
	"interpretation",
}

func writeCSV(w io.Writer, r *models.EntrainReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, code := range orderedDimensions(r) {
		dim := r.Dimensions[code]
		for _, name := range orderedIndicators(dim.Indicators) {
			ind := dim.Indicators[name]
			if err := cw.Write(indicatorRow(code, name, ind)); err != nil {
				return fmt.Errorf("writing csv row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func indicatorRow(code, name string, ind models.IndicatorResult) []string {
	value, baseline, confidence := "", "", ""
	if !ind.Insufficient {
		value = formatFloat(ind.Value)
	}
	if ind.Baseline != nil {
		baseline = formatFloat(*ind.Baseline)
	}
	if ind.Confidence != nil {
		confidence = formatFloat(*ind.Confidence)
	}
	return []string{
		code,
		models.DimensionName(code),
		name,
		value,
		baseline,
		ind.Unit,
		confidence,
		strconv.FormatBool(ind.Insufficient),
		ind.Interpretation,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
