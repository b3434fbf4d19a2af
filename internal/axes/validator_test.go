package axes

import (
	"math"
	"strings"
	"testing"

	"github.com/TheApexWu/suzerain/internal/config"
	"github.com/TheApexWu/suzerain/internal/models"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func vec(trust, soph, variance float64) models.FeatureVector {
	return models.FeatureVector{
		TrustLevel:     trust,
		TrustDefined:   true,
		Sophistication: soph,
		Variance:       variance,
		Events:         40,
	}
}

func pairByName(t *testing.T, r Report, x, y string) Correlation {
	t.Helper()
	for _, p := range r.Pairs {
		if p.X == x && p.Y == y {
			return p
		}
	}
	t.Fatalf("pair %s/%s missing", x, y)
	return Correlation{}
}

func TestPearson(t *testing.T) {
	tests := []struct {
		name   string
		xs, ys []float64
		want   float64
		ok     bool
	}{
		{"perfect positive", []float64{0, 0.25, 0.5, 0.75, 1}, []float64{0.1, 0.2, 0.3, 0.4, 0.5}, 1, true},
		{"perfect negative", []float64{0, 0.5, 1}, []float64{1, 0.5, 0}, -1, true},
		{"uncorrelated", []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}, []float64{0.5, 0.1, 0.9, 0.9, 0.1, 0.5}, 0, true},
		{"constant series", []float64{0.2, 0.4, 0.6}, []float64{0.5, 0.5, 0.5}, 0, false},
		{"single point", []float64{0.2}, []float64{0.5}, 0, false},
		{"length mismatch", []float64{0.2, 0.3}, []float64{0.5}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Pearson(tt.xs, tt.ys)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !approx(got, tt.want, 1e-9) {
				t.Errorf("Pearson = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRanksAverageTies(t *testing.T) {
	got := Ranks([]float64{3, 1, 3, 2})
	want := []float64{3.5, 1, 3.5, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Ranks = %v, want %v", got, want)
		}
	}
}

func TestSpearmanIsRankBased(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{1, 4, 9, 16, 25}

	rho, ok := Spearman(xs, ys)
	if !ok || !approx(rho, 1, 1e-12) {
		t.Errorf("Spearman = %v (%v), want 1", rho, ok)
	}
	r, _ := Pearson(xs, ys)
	if r >= 1 {
		t.Errorf("Pearson of a convex curve should be below 1, got %v", r)
	}
}

func TestTStatisticAndPValue(t *testing.T) {
	if got := TStatistic(0.5, 10); !approx(got, 1.63299, 1e-4) {
		t.Errorf("TStatistic(0.5, 10) = %v", got)
	}
	if got := TStatistic(1, 10); !math.IsInf(got, 1) {
		t.Errorf("TStatistic(1, 10) = %v, want +Inf", got)
	}
	if got := TStatistic(0.5, 2); got != 0 {
		t.Errorf("TStatistic with n=2 = %v, want 0", got)
	}
	if got := PValue(0); got != 1 {
		t.Errorf("PValue(0) = %v, want 1", got)
	}
	if got := PValue(1.96); !approx(got, 0.05, 1e-3) {
		t.Errorf("PValue(1.96) = %v, want about 0.05", got)
	}
	if got := PValue(math.Inf(-1)); got != 0 {
		t.Errorf("PValue(-Inf) = %v, want 0", got)
	}
}

func TestVerdictBands(t *testing.T) {
	v := NewValidator(config.DefaultConfig().Axes)
	tests := []struct {
		r    float64
		want Verdict
	}{
		{0, VerdictWeak},
		{0.29, VerdictWeak},
		{-0.29, VerdictWeak},
		{0.3, VerdictModerate},
		{0.5, VerdictModerate},
		{-0.45, VerdictModerate},
		{0.51, VerdictStrong},
		{-0.9, VerdictStrong},
	}
	for _, tt := range tests {
		if got := v.verdict(tt.r); got != tt.want {
			t.Errorf("verdict(%v) = %s, want %s", tt.r, got, tt.want)
		}
	}
}

func TestValidateStrongSet(t *testing.T) {
	// sophistication tracks trust; variance does not follow either
	vectors := []models.FeatureVector{
		vec(0.1, 0.12, 0.5),
		vec(0.3, 0.28, 0.1),
		vec(0.5, 0.52, 0.9),
		vec(0.7, 0.69, 0.9),
		vec(0.9, 0.91, 0.1),
		vec(0.6, 0.60, 0.5),
	}
	report := Validate(vectors)

	ts := pairByName(t, report, AxisTrust, AxisSophistication)
	if ts.Verdict != VerdictStrong {
		t.Errorf("trust vs sophistication verdict = %s (r=%.3f), want strong", ts.Verdict, ts.Pearson)
	}
	if ts.N != 6 || ts.Pearson < 0.99 {
		t.Errorf("N = %d Pearson = %v", ts.N, ts.Pearson)
	}
	if ts.P > 0.01 {
		t.Errorf("p = %v, want a small p-value", ts.P)
	}
	if report.Independent() {
		t.Error("a strongly correlated set is not independent")
	}
}

func TestValidateWeakSet(t *testing.T) {
	// each axis is orthogonal to the others over this grid
	vectors := []models.FeatureVector{
		vec(0.2, 0.2, 0.2),
		vec(0.2, 0.8, 0.8),
		vec(0.8, 0.2, 0.8),
		vec(0.8, 0.8, 0.2),
	}
	report := Validate(vectors)
	for _, p := range report.Pairs {
		if p.Verdict != VerdictWeak {
			t.Errorf("%s verdict = %s (r=%.3f), want weak", p.Name(), p.Verdict, p.Pearson)
		}
		if !approx(p.Pearson, 0, 1e-12) {
			t.Errorf("%s Pearson = %v, want 0", p.Name(), p.Pearson)
		}
	}
	if !report.Independent() {
		t.Error("Independent() = false, want true")
	}
}

func TestValidateExclusions(t *testing.T) {
	noTrust := vec(0, 0.4, 0.3)
	noTrust.TrustDefined = false

	vectors := []models.FeatureVector{
		vec(0.2, 0.1, 0.2),
		vec(0.5, 0.5, 0.4),
		noTrust,
		{},
	}
	report := Validate(vectors)

	if report.Vectors != 4 || report.Empty != 1 || report.TrustUndefined != 1 {
		t.Errorf("counts = %d/%d/%d, want 4/1/1", report.Vectors, report.Empty, report.TrustUndefined)
	}
	ts := pairByName(t, report, AxisTrust, AxisSophistication)
	if ts.N != 2 || ts.Verdict != VerdictInsufficient {
		t.Errorf("trust pair N = %d verdict = %s, want 2 insufficient", ts.N, ts.Verdict)
	}
	sv := pairByName(t, report, AxisSophistication, AxisVariance)
	if sv.N != 3 || sv.Verdict == VerdictInsufficient {
		t.Errorf("sophistication pair N = %d verdict = %s", sv.N, sv.Verdict)
	}
}

func TestValidateConstantAxis(t *testing.T) {
	vectors := []models.FeatureVector{
		vec(0.2, 0.3, 0),
		vec(0.5, 0.4, 0),
		vec(0.9, 0.6, 0),
	}
	report := Validate(vectors)
	tv := pairByName(t, report, AxisTrust, AxisVariance)
	if tv.Verdict != VerdictInsufficient {
		t.Errorf("constant variance verdict = %s, want insufficient", tv.Verdict)
	}
	if report.Independent() {
		t.Error("insufficient pairs cannot establish independence")
	}
}

func TestRenderMarkdownAndHTML(t *testing.T) {
	report := Validate([]models.FeatureVector{
		vec(0.2, 0.2, 0.2),
		vec(0.2, 0.8, 0.8),
		vec(0.8, 0.2, 0.8),
		vec(0.8, 0.8, 0.2),
	})

	md := RenderMarkdown(report)
	for _, want := range []string{
		"# Axis Independence",
		"| trust vs sophistication | 4 |",
		"## Trust vs variance",
		"```text",
		"look independent",
		"Bands: |r| < 0.3 weak, 0.3 to 0.5 moderate",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}

	html, err := RenderHTML(report)
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	out := string(html)
	for _, want := range []string{"<h1>Axis Independence</h1>", "<table>", "<pre><code class=\"language-text\">"} {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestScatterCorners(t *testing.T) {
	plot := Scatter([][2]float64{{0, 0}, {1, 1}}, "trust", "variance")
	lines := strings.Split(plot, "\n")
	if lines[0] != "variance" {
		t.Errorf("first line = %q", lines[0])
	}
	top := lines[2]
	bottom := lines[1+plotHeight]
	if top[7+plotWidth-1] != '*' {
		t.Errorf("(1,1) not plotted top right: %q", top)
	}
	if bottom[7] != '*' {
		t.Errorf("(0,0) not plotted bottom left: %q", bottom)
	}
	if !strings.Contains(lines[len(lines)-1], "trust") {
		t.Errorf("x label missing: %q", lines[len(lines)-1])
	}
}
