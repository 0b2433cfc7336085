// Package classify partitions attribute values into contiguous bins for
// choropleth styling. All functions are pure and deterministic.
package classify

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/citymetrics/choromap/internal/feature"
)

// Scheme names a classification method.
type Scheme string

const (
	Quantile      Scheme = "quantile"
	EqualInterval Scheme = "equal-interval"
	NaturalBreaks Scheme = "natural-breaks"
)

// ParseScheme validates a scheme name from user input. There is no default:
// the scheme is always an explicit choice.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case Quantile, EqualInterval, NaturalBreaks:
		return Scheme(s), nil
	case "":
		return "", eris.Wrap(feature.ErrInvalidInput, "classify: scheme is required")
	default:
		return "", eris.Wrapf(feature.ErrInvalidInput, "classify: unknown scheme %q", s)
	}
}

// Interval is one classification bin. Membership is half-open
// [Lower, Upper), except the last bin of a set which is closed so the
// maximum value always falls in a bin.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Contains reports whether v falls in the interval, treating it as the last
// (closed) bin when last is true.
func (iv Interval) Contains(v float64, last bool) bool {
	if last {
		return v >= iv.Lower && v <= iv.Upper
	}
	return v >= iv.Lower && v < iv.Upper
}

// Breaks partitions values into exactly k contiguous, non-overlapping
// intervals covering [min(values), max(values)] using the named scheme.
func Breaks(values []float64, scheme Scheme, k int) ([]Interval, error) {
	if len(values) == 0 {
		return nil, eris.Wrap(feature.ErrInvalidInput, "classify: empty value set")
	}
	if k < 1 {
		return nil, eris.Wrapf(feature.ErrInvalidInput, "classify: class count %d", k)
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var edges []float64
	switch scheme {
	case EqualInterval:
		edges = equalIntervalEdges(sorted, k)
	case Quantile:
		edges = quantileEdges(sorted, k)
	case NaturalBreaks:
		edges = jenksEdges(sorted, k)
	default:
		return nil, eris.Wrapf(feature.ErrInvalidInput, "classify: unknown scheme %q", scheme)
	}

	bins := make([]Interval, k)
	for i := 0; i < k; i++ {
		bins[i] = Interval{Lower: edges[i], Upper: edges[i+1]}
	}
	return bins, nil
}

// equalIntervalEdges returns k+1 edges with uniform width over the value range.
func equalIntervalEdges(sorted []float64, k int) []float64 {
	lo, hi := sorted[0], sorted[len(sorted)-1]
	width := (hi - lo) / float64(k)

	edges := make([]float64, k+1)
	for i := 0; i <= k; i++ {
		edges[i] = lo + width*float64(i)
	}
	// Endpoints exactly, regardless of accumulated rounding.
	edges[0] = lo
	edges[k] = hi
	return edges
}

// quantileEdges returns k+1 edges at evenly spaced quantiles using the R-7
// linear interpolation definition.
func quantileEdges(sorted []float64, k int) []float64 {
	edges := make([]float64, k+1)
	for i := 0; i <= k; i++ {
		edges[i] = quantile(sorted, float64(i)/float64(k))
	}
	edges[0] = sorted[0]
	edges[k] = sorted[len(sorted)-1]
	return edges
}

// quantile computes the p-quantile of sorted values, 0 <= p <= 1.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// jenksEdges computes natural-breaks edges with the standard Jenks dynamic
// program minimizing within-class variance. Quadratic in the number of
// values, which is fine at the few-hundred-feature scale this tool targets.
func jenksEdges(sorted []float64, k int) []float64 {
	n := len(sorted)
	if k >= n {
		// Degenerate case: more classes than values. Fall back to equal
		// intervals so the contract of exactly k bins still holds.
		return equalIntervalEdges(sorted, k)
	}

	// lowerClassLimits[i][j]: index of the lowest value in class j for the
	// optimal classification of the first i values.
	lower := make([][]int, n+1)
	variance := make([][]float64, n+1)
	for i := 0; i <= n; i++ {
		lower[i] = make([]int, k+1)
		variance[i] = make([]float64, k+1)
	}

	for j := 1; j <= k; j++ {
		lower[1][j] = 1
		for i := 2; i <= n; i++ {
			variance[i][j] = math.Inf(1)
		}
	}

	for i := 2; i <= n; i++ {
		var sum, sumSq float64
		var w float64
		var v float64

		for m := 1; m <= i; m++ {
			idx := i - m + 1
			val := sorted[idx-1]

			w++
			sum += val
			sumSq += val * val
			v = sumSq - (sum*sum)/w

			if idx != 1 {
				for j := 2; j <= k; j++ {
					if variance[i][j] >= v+variance[idx-1][j-1] {
						lower[i][j] = idx
						variance[i][j] = v + variance[idx-1][j-1]
					}
				}
			}
		}
		lower[i][1] = 1
		variance[i][1] = v
	}

	// Walk the class limits back into break edges.
	edges := make([]float64, k+1)
	edges[0] = sorted[0]
	edges[k] = sorted[n-1]

	idx := n
	for j := k; j >= 2; j-- {
		edges[j-1] = sorted[lower[idx][j]-2]
		idx = lower[idx][j] - 1
	}

	return edges
}
