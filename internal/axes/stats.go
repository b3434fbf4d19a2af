package axes

import (
	"math"
	"sort"
)

// Pearson returns the linear correlation of xs and ys and false when it is
// undefined (fewer than two points or a constant series).
func Pearson(xs, ys []float64) (float64, bool) {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0, false
	}
	mx, my := mean(xs), mean(ys)

	var num, sx, sy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		num += dx * dy
		sx += dx * dx
		sy += dy * dy
	}
	if sx == 0 || sy == 0 {
		return 0, false
	}
	r := num / math.Sqrt(sx*sy)
	// rounding can push |r| a hair past 1
	return math.Max(-1, math.Min(1, r)), true
}

// Spearman returns the rank correlation, with tied values sharing the
// average of their ranks
func Spearman(xs, ys []float64) (float64, bool) {
	if len(xs) != len(ys) {
		return 0, false
	}
	return Pearson(Ranks(xs), Ranks(ys))
}

// Ranks assigns 1-based ranks, averaging over ties
func Ranks(xs []float64) []float64 {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	ranks := make([]float64, len(xs))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && xs[idx[j+1]] == xs[idx[i]] {
			j++
		}
		// positions i..j (0-based) share rank mean(i+1..j+1)
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// TStatistic tests r against zero with n-2 degrees of freedom. A perfect
// correlation gives an infinite statistic.
func TStatistic(r float64, n int) float64 {
	if n <= 2 {
		return 0
	}
	if math.Abs(r) >= 1 {
		return math.Copysign(math.Inf(1), r)
	}
	return r * math.Sqrt(float64(n-2)/(1-r*r))
}

// PValue approximates the two-sided p-value of t with the normal
// distribution. It is rough for small samples.
func PValue(t float64) float64 {
	return math.Erfc(math.Abs(t) / math.Sqrt2)
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
