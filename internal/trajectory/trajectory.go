/*
Package trajectory provides the temporal analysis engine: trend fitting
for indicator series, interaction frequency windowing, session duration
series and time-of-day distributions.

Trend direction comes from an ordinary least squares fit against elapsed
time normalized by the mean sampling interval, so the slope reads "change
per observation interval" and unevenly spaced corpora still fit sensibly.
*/
package trajectory

import (
	"sort"
	"time"

	"github.com/entrainlab/entrain/internal/models"
)

// Defaults for trend classification. A fitted slope within the epsilon
// band around zero reads as stable.
const (
	DefaultMinPoints       = 3
	DefaultRelativeEpsilon = 0.1  // fraction of mean(|values|)
	DefaultAbsoluteEpsilon = 0.01 // used when mean(|values|) is zero
)

// Options tune trend fitting. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	// MinPoints is the minimum number of observations for a fit; series
	// below it classify as insufficient_data.
	MinPoints int
	// RelativeEpsilon scales the stability band by the mean absolute
	// value of the series.
	RelativeEpsilon float64
	// AbsoluteEpsilon is the stability band for an all-zero series.
	AbsoluteEpsilon float64
}

// DefaultOptions returns the standard trend-fitting parameters.
func DefaultOptions() Options {
	return Options{
		MinPoints:       DefaultMinPoints,
		RelativeEpsilon: DefaultRelativeEpsilon,
		AbsoluteEpsilon: DefaultAbsoluteEpsilon,
	}
}

// Point is one timestamped observation of an indicator.
type Point struct {
	Timestamp time.Time
	Value     float64
}

// Analyze fits a trend over the observations using the default options.
func Analyze(points []Point) models.TrajectoryData {
	return AnalyzeWith(points, DefaultOptions())
}

// AnalyzeWith fits a trend over the observations. Points are sorted by
// timestamp before fitting; the input slice is not modified.
func AnalyzeWith(points []Point, opts Options) models.TrajectoryData {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	data := models.TrajectoryData{
		Snapshots: make([]models.TrajectorySnapshot, len(sorted)),
		Trend:     models.TrendInsufficientData,
	}
	for i, p := range sorted {
		data.Snapshots[i] = models.TrajectorySnapshot{Timestamp: p.Timestamp, Value: p.Value}
	}

	n := len(sorted)
	if n < opts.MinPoints {
		return data
	}

	x := normalizedTimes(sorted)
	y := make([]float64, n)
	for i, p := range sorted {
		y[i] = p.Value
	}

	slope, r2 := fitLine(x, y)
	data.Slope = &slope
	data.Confidence = r2

	// The stability band scales with the series magnitude: the mean of
	// absolute values, so a mixed-sign series centered on zero still gets
	// a proportional band rather than the absolute fallback.
	magnitude := 0.0
	for _, v := range y {
		magnitude += abs(v)
	}
	magnitude /= float64(n)

	epsilon := opts.AbsoluteEpsilon
	if magnitude != 0 {
		epsilon = opts.RelativeEpsilon * magnitude
	}

	switch {
	case abs(slope) < epsilon:
		data.Trend = models.TrendStable
	case slope > 0:
		data.Trend = models.TrendIncreasing
	default:
		data.Trend = models.TrendDecreasing
	}
	return data
}

// normalizedTimes maps timestamps to elapsed time in units of the mean
// sampling interval. For evenly spaced observations this reduces to the
// indices 0..n-1. Degenerate series (all timestamps equal) fall back to
// indices so the fit still succeeds.
func normalizedTimes(points []Point) []float64 {
	n := len(points)
	x := make([]float64, n)
	span := points[n-1].Timestamp.Sub(points[0].Timestamp).Seconds()
	if span <= 0 {
		for i := range x {
			x[i] = float64(i)
		}
		return x
	}
	meanInterval := span / float64(n-1)
	for i, p := range points {
		x[i] = p.Timestamp.Sub(points[0].Timestamp).Seconds() / meanInterval
	}
	return x
}

// fitLine computes the OLS slope of y against x and the fit's R². A flat
// series fits exactly: slope 0, R² 1.
func fitLine(x, y []float64) (slope, r2 float64) {
	n := float64(len(x))
	xMean, yMean := 0.0, 0.0
	for i := range x {
		xMean += x[i]
		yMean += y[i]
	}
	xMean /= n
	yMean /= n

	sxy, sxx, syy := 0.0, 0.0, 0.0
	for i := range x {
		dx := x[i] - xMean
		dy := y[i] - yMean
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 {
		return 0, 0
	}
	slope = sxy / sxx
	if syy == 0 {
		return slope, 1
	}
	return slope, (sxy * sxy) / (sxx * syy)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
