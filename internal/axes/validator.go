// Package axes measures how independent the three classification axes are
// across a population of feature vectors. The result is a diagnostic and
// never feeds back into classification.
package axes

import (
	"math"

	"github.com/TheApexWu/suzerain/internal/config"
	"github.com/TheApexWu/suzerain/internal/models"
)

// Axis names
const (
	AxisTrust          = "trust"
	AxisSophistication = "sophistication"
	AxisVariance       = "variance"
)

// Verdict grades the strength of a correlation
type Verdict string

const (
	VerdictWeak         Verdict = "weak"
	VerdictModerate     Verdict = "moderate"
	VerdictStrong       Verdict = "strong"
	VerdictInsufficient Verdict = "insufficient"
)

// minPairs is the smallest sample a correlation is reported for
const minPairs = 3

// Correlation is the outcome for one pair of axes
type Correlation struct {
	X, Y     string
	N        int
	Pearson  float64
	Spearman float64
	T        float64
	P        float64
	Verdict  Verdict

	// Points are the (x, y) values the statistics were computed from
	Points [][2]float64
}

// Name renders the pair as "trust vs sophistication"
func (c Correlation) Name() string {
	return c.X + " vs " + c.Y
}

// Report is the result of validating a set of vectors
type Report struct {
	// Vectors is the number of vectors supplied
	Vectors int
	// Empty counts vectors without events, excluded from every pair
	Empty int
	// TrustUndefined counts vectors excluded from the trust pairs
	TrustUndefined int
	// WeakBelow and StrongAbove are the verdict bands applied
	WeakBelow   float64
	StrongAbove float64
	Pairs       []Correlation
}

// Independent reports whether every pair is weak
func (r Report) Independent() bool {
	if len(r.Pairs) == 0 {
		return false
	}
	for _, p := range r.Pairs {
		if p.Verdict != VerdictWeak {
			return false
		}
	}
	return true
}

// Validator computes pairwise axis correlations
type Validator struct {
	weakBelow   float64
	strongAbove float64
}

// NewValidator uses the verdict bands from cfg
func NewValidator(cfg config.AxesConfig) *Validator {
	return &Validator{weakBelow: cfg.WeakBelow, strongAbove: cfg.StrongAbove}
}

// Validate runs the validator with the default verdict bands
func Validate(vectors []models.FeatureVector) Report {
	return NewValidator(config.DefaultConfig().Axes).Validate(vectors)
}

type axisValue func(models.FeatureVector) float64

func trustOf(v models.FeatureVector) float64 { return v.TrustLevel }
func sophOf(v models.FeatureVector) float64  { return v.Sophistication }
func varOf(v models.FeatureVector) float64   { return v.Variance }

// Validate computes trust–sophistication, trust–variance and
// sophistication–variance correlations. Vectors with undefined trust are
// left out of the pairs involving trust.
func (v *Validator) Validate(vectors []models.FeatureVector) Report {
	report := Report{Vectors: len(vectors), WeakBelow: v.weakBelow, StrongAbove: v.strongAbove}

	var all, trusted []models.FeatureVector
	for _, vec := range vectors {
		if vec.Events == 0 {
			report.Empty++
			continue
		}
		all = append(all, vec)
		if vec.TrustDefined {
			trusted = append(trusted, vec)
		} else {
			report.TrustUndefined++
		}
	}

	report.Pairs = []Correlation{
		v.correlate(AxisTrust, AxisSophistication, trusted, trustOf, sophOf),
		v.correlate(AxisTrust, AxisVariance, trusted, trustOf, varOf),
		v.correlate(AxisSophistication, AxisVariance, all, sophOf, varOf),
	}
	return report
}

func (v *Validator) correlate(xName, yName string, vectors []models.FeatureVector, fx, fy axisValue) Correlation {
	c := Correlation{X: xName, Y: yName, N: len(vectors), Verdict: VerdictInsufficient}

	xs := make([]float64, len(vectors))
	ys := make([]float64, len(vectors))
	for i, vec := range vectors {
		xs[i], ys[i] = fx(vec), fy(vec)
		c.Points = append(c.Points, [2]float64{xs[i], ys[i]})
	}
	if c.N < minPairs {
		return c
	}

	r, ok := Pearson(xs, ys)
	if !ok {
		return c
	}
	c.Pearson = r
	c.Spearman, _ = Spearman(xs, ys)
	c.T = TStatistic(r, c.N)
	c.P = PValue(c.T)
	c.Verdict = v.verdict(r)
	return c
}

// verdict bands: |r| below weakBelow is weak, above strongAbove strong,
// moderate in between with both ends inclusive
func (v *Validator) verdict(r float64) Verdict {
	abs := math.Abs(r)
	switch {
	case abs < v.weakBelow:
		return VerdictWeak
	case abs > v.strongAbove:
		return VerdictStrong
	default:
		return VerdictModerate
	}
}
