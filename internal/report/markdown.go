package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/entrainlab/entrain/internal/models"
)

// strongCorrelationThreshold selects which pairs the markdown matrix
// section surfaces.
const strongCorrelationThreshold = 0.7

const maxInterpretation = 60

func writeMarkdown(w io.Writer, r *models.EntrainReport) error {
	var b strings.Builder

	writeHeader(&b, r)
	writeInputSummary(&b, r)
	for _, code := range orderedDimensions(r) {
		writeDimensionSection(&b, r.Dimensions[code])
	}
	if r.CrossDimensional != nil {
		writeCrossDimensional(&b, r.CrossDimensional)
	}
	writeFooter(&b, r)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeHeader(b *strings.Builder, r *models.EntrainReport) {
	fmt.Fprintf(b, "# Entrain Assessment Report\n\n")
	fmt.Fprintf(b, "**Version:** %s\n", r.Version)
	fmt.Fprintf(b, "**Generated:** %s\n\n---\n\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
}

func writeInputSummary(b *strings.Builder, r *models.EntrainReport) {
	b.WriteString("## Input Summary\n\n")
	if r.Input.Source != "" {
		fmt.Fprintf(b, "- **source**: %s\n", r.Input.Source)
	}
	fmt.Fprintf(b, "- **conversations**: %d\n", r.Input.Conversations)
	fmt.Fprintf(b, "- **events**: %d (%d user, %d assistant)\n",
		r.Input.Events, r.Input.UserEvents, r.Input.AssistantEvents)
	if !r.Input.From.IsZero() {
		fmt.Fprintf(b, "- **date range**: %s to %s\n",
			r.Input.From.Format("2006-01-02"), r.Input.To.Format("2006-01-02"))
	}
	b.WriteString("\n")
}

func writeDimensionSection(b *strings.Builder, dim *models.DimensionReport) {
	fmt.Fprintf(b, "## %s: %s\n\n", dim.Dimension, models.DimensionName(dim.Dimension))
	if dim.Description != "" {
		fmt.Fprintf(b, "%s\n\n", dim.Description)
	}

	b.WriteString("### Indicators\n\n")
	b.WriteString("| Indicator | Value | Baseline | Unit | Confidence | Interpretation |\n")
	b.WriteString("|-----------|-------|----------|------|------------|----------------|\n")
	for _, name := range orderedIndicators(dim.Indicators) {
		ind := dim.Indicators[name]
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s |\n",
			name, valueCell(ind), baselineCell(ind), ind.Unit,
			confidenceCell(ind), truncate(ind.Interpretation, maxInterpretation))
	}
	b.WriteString("\n")

	if dim.Trajectory != nil {
		writeTrajectory(b, dim.Trajectory)
	}
	if dim.BaselineComparison != "" {
		fmt.Fprintf(b, "### Baseline Comparison\n\n%s\n\n", dim.BaselineComparison)
	}
	if dim.ResearchContext != "" {
		fmt.Fprintf(b, "### Research Context\n\n%s\n\n", dim.ResearchContext)
	}
	if len(dim.Limitations) > 0 {
		b.WriteString("### Limitations\n\n")
		for _, l := range dim.Limitations {
			fmt.Fprintf(b, "- %s\n", l)
		}
		b.WriteString("\n")
	}
}

func writeTrajectory(b *strings.Builder, traj *models.TrajectoryData) {
	fmt.Fprintf(b, "### Trajectory\n\n**Trend:** %s", traj.Trend)
	if traj.Slope != nil {
		fmt.Fprintf(b, " (slope %+.4f per interval)", *traj.Slope)
	}
	fmt.Fprintf(b, "\n\n")
}

func writeCrossDimensional(b *strings.Builder, cd *models.CrossDimensionalReport) {
	b.WriteString("## Cross-Dimensional Analysis\n\n")

	b.WriteString("### Overall Risk Assessment\n\n")
	fmt.Fprintf(b, "**Risk Level:** %s **%s** (%.0f%%)\n\n",
		levelIcon(cd.Risk.Level), cd.Risk.Level, cd.Risk.Score*100)
	if cd.Risk.Interpretation != "" {
		fmt.Fprintf(b, "%s\n\n", cd.Risk.Interpretation)
	}
	if len(cd.Risk.TopContributors) > 0 {
		b.WriteString("**Primary Concerns:**\n\n")
		for _, code := range cd.Risk.TopContributors {
			fmt.Fprintf(b, "- %s (%s)\n", code, models.DimensionName(code))
		}
		b.WriteString("\n")
	}

	if len(cd.Patterns) > 0 {
		b.WriteString("### Detected Patterns\n\n")
		for _, p := range cd.Patterns {
			fmt.Fprintf(b, "#### %s %s\n\n", levelIcon(p.Severity), titleCase(p.ID))
			fmt.Fprintf(b, "**Severity:** %s\n\n", p.Severity)
			fmt.Fprintf(b, "**Description:** %s\n\n", p.Description)
			fmt.Fprintf(b, "**Dimensions Involved:** %s\n\n", strings.Join(p.Dimensions, ", "))
			fmt.Fprintf(b, "**Recommendation:** %s\n\n", p.Recommendation)
		}
	}

	if cd.Correlations != nil {
		writeCorrelations(b, cd.Correlations)
	}

	if cd.Summary != "" {
		fmt.Fprintf(b, "### Summary\n\n%s\n\n", cd.Summary)
	}
}

func writeCorrelations(b *strings.Builder, m *models.CorrelationMatrix) {
	b.WriteString("### Correlation Matrix\n\n")
	strong := m.StrongCorrelations(strongCorrelationThreshold)
	if len(strong) == 0 {
		fmt.Fprintf(b, "*No strong correlations detected (all |r| < %.1f)*\n\n", strongCorrelationThreshold)
		return
	}
	fmt.Fprintf(b, "**Strong Correlations** (|r| >= %.1f):\n\n", strongCorrelationThreshold)
	b.WriteString("| Dimension 1 | Dimension 2 | Correlation |\n")
	b.WriteString("|-------------|-------------|-------------|\n")
	for _, c := range strong {
		fmt.Fprintf(b, "| %s | %s | %+.3f |\n", c.A, c.B, c.R)
	}
	b.WriteString("\n")
}

func writeFooter(b *strings.Builder, r *models.EntrainReport) {
	b.WriteString("---\n\n")
	fmt.Fprintf(b, "*Generated by entrain v%s*\n", r.Version)
}

func valueCell(ind models.IndicatorResult) string {
	if ind.Insufficient {
		return "insufficient data"
	}
	return fmt.Sprintf("%.3f", ind.Value)
}

func baselineCell(ind models.IndicatorResult) string {
	if ind.Baseline == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.3f", *ind.Baseline)
}

func confidenceCell(ind models.IndicatorResult) string {
	if ind.Confidence == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.0f%%", *ind.Confidence*100)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// titleCase renders a pattern id like "sycophancy_autonomy_erosion" as a
// heading.
func titleCase(id string) string {
	words := strings.Split(id, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
