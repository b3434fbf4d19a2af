package axes

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const (
	plotWidth  = 50
	plotHeight = 20
)

// RenderMarkdown renders the report with a summary table and an ASCII
// scatter plot per pair
func RenderMarkdown(r Report) string {
	var sb strings.Builder

	sb.WriteString("# Axis Independence\n\n")
	fmt.Fprintf(&sb, "Vectors analysed: %d", r.Vectors)
	if r.Empty > 0 {
		fmt.Fprintf(&sb, " (%d without events excluded)", r.Empty)
	}
	if r.TrustUndefined > 0 {
		fmt.Fprintf(&sb, ", %d without trust events left out of trust pairs", r.TrustUndefined)
	}
	sb.WriteString("\n\n")

	sb.WriteString("| Pair | n | Pearson r | Spearman ρ | t | p | Verdict |\n")
	sb.WriteString("|---|---|---|---|---|---|---|\n")
	for _, p := range r.Pairs {
		if p.Verdict == VerdictInsufficient {
			fmt.Fprintf(&sb, "| %s | %d | - | - | - | - | %s |\n", p.Name(), p.N, p.Verdict)
			continue
		}
		fmt.Fprintf(&sb, "| %s | %d | %.3f | %.3f | %s | %.4f | %s |\n",
			p.Name(), p.N, p.Pearson, p.Spearman, formatT(p.T), p.P, p.Verdict)
	}
	sb.WriteString("\n")

	if r.Independent() {
		sb.WriteString("**Overall:** all pairs are weakly correlated; the axes look independent.\n\n")
	} else {
		sb.WriteString("**Overall:** at least one pair is not weakly correlated.\n\n")
	}
	fmt.Fprintf(&sb, "Bands: |r| < %g weak, %g to %g moderate, > %g strong. ",
		r.WeakBelow, r.WeakBelow, r.StrongAbove, r.StrongAbove)
	sb.WriteString("p-values use a normal approximation and are rough for small samples.\n")

	for _, p := range r.Pairs {
		fmt.Fprintf(&sb, "\n## %s\n\n", strings.ToUpper(p.Name()[:1])+p.Name()[1:])
		if len(p.Points) == 0 {
			sb.WriteString("No data.\n")
			continue
		}
		sb.WriteString("```text\n")
		sb.WriteString(Scatter(p.Points, p.X, p.Y))
		sb.WriteString("\n```\n")
	}
	return sb.String()
}

// RenderHTML converts the Markdown report to an HTML fragment
func RenderHTML(r Report) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(RenderMarkdown(r)), &buf); err != nil {
		return nil, fmt.Errorf("failed to render axis report: %w", err)
	}
	return buf.Bytes(), nil
}

// Scatter draws points on a fixed [0,1] x [0,1] grid
func Scatter(points [][2]float64, xLabel, yLabel string) string {
	grid := make([][]byte, plotHeight)
	for i := range grid {
		grid[i] = bytes.Repeat([]byte{' '}, plotWidth)
	}
	for _, pt := range points {
		col := cell(pt[0], plotWidth)
		row := plotHeight - 1 - cell(pt[1], plotHeight)
		if grid[row][col] == '*' || grid[row][col] == '#' {
			grid[row][col] = '#'
		} else {
			grid[row][col] = '*'
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", yLabel)
	sb.WriteString(" 1.00 +" + strings.Repeat("-", plotWidth) + "+\n")
	for _, row := range grid {
		sb.WriteString("      |" + string(row) + "|\n")
	}
	sb.WriteString(" 0.00 +" + strings.Repeat("-", plotWidth) + "+\n")
	fmt.Fprintf(&sb, "      0.00%s1.00\n", strings.Repeat(" ", plotWidth-6))
	fmt.Fprintf(&sb, "%s%s", strings.Repeat(" ", 7+plotWidth/2-len(xLabel)/2), xLabel)
	return sb.String()
}

func cell(v float64, size int) int {
	if math.IsNaN(v) {
		return 0
	}
	c := int(math.Round(v * float64(size-1)))
	return min(max(c, 0), size-1)
}

func formatT(t float64) string {
	if math.IsInf(t, 1) {
		return "+inf"
	}
	if math.IsInf(t, -1) {
		return "-inf"
	}
	return fmt.Sprintf("%.2f", t)
}
