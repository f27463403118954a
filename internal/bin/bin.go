// Package bin picks "nice" bin boundaries for a numeric extent.
//
// Steps are drawn from the 1, 2, 5 x 10^k sequence. Each step is a tick
// level; the lowest level whose bin count fits the requested maximum is
// chosen with go-moremath's tick search, so the result never has more
// bins than asked for.
package bin

import (
	"errors"
	"fmt"
	"math"

	"github.com/aclements/go-moremath/scale"
	"github.com/aclements/go-moremath/stats"
)

// ErrEmptyExtent is returned when there are no finite values to bin.
var ErrEmptyExtent = errors.New("bin: empty extent")

var mantissas = [3]float64{1, 2, 5}

// Bins is a resolved binning. Boundaries are Start, Start+Step, ..., Stop.
type Bins struct {
	Start float64 `json:"start"`
	Stop  float64 `json:"stop"`
	Step  float64 `json:"step"`
}

// Count returns the number of bins.
func (b Bins) Count() int {
	return int(math.Round((b.Stop - b.Start) / b.Step))
}

// Boundaries returns the bin edges in increasing order.
func (b Bins) Boundaries() []float64 {
	n := b.Count()
	out := make([]float64, n+1)
	for i := range out {
		out[i] = b.Start + float64(i)*b.Step
	}
	return out
}

// Compute returns nice bins covering [min, max] with at most maxbins bins.
func Compute(min, max float64, maxbins int) (Bins, error) {
	if maxbins < 1 {
		return Bins{}, fmt.Errorf("bin: maxbins must be positive, got %d", maxbins)
	}
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return Bins{}, ErrEmptyExtent
	}
	if min > max {
		min, max = max, min
	}

	span := max - min
	if span == 0 {
		step := 1.0
		if min != 0 {
			step = math.Pow(10, math.Floor(math.Log10(math.Abs(min))))
		}
		start := math.Floor(min/step) * step
		return Bins{Start: start, Stop: start + step, Step: step}, nil
	}

	t := ticker{min: min, max: max}
	guess := int(math.Floor(3 * math.Log10(span/float64(maxbins))))
	opts := scale.TickOptions{Max: maxbins, MinLevel: guess - 30, MaxLevel: guess + 30}
	level, ok := opts.FindLevel(t, guess)
	if !ok {
		return Bins{}, fmt.Errorf("bin: no step fits %d bins over [%g, %g]", maxbins, min, max)
	}

	step := levelStep(level)
	start, stop := edges(min, max, step)
	if !finite(step) || step <= 0 || !finite(start) || !finite(stop) {
		return Bins{}, ErrEmptyExtent
	}
	b := Bins{Start: start, Stop: stop, Step: step}
	if b.Stop <= b.Start {
		b.Stop = b.Start + step
	}
	return b, nil
}

// edges returns the bin edges at step covering [min, max]. An edge moves
// one step inward only if the extent still lies inside it.
func edges(min, max, step float64) (start, stop float64) {
	start = math.Floor(min/step) * step
	switch {
	case start > min:
		start -= step
	case start+step <= min:
		start += step
	}
	stop = math.Ceil(max/step) * step
	switch {
	case stop < max:
		stop += step
	case stop-step >= max:
		stop -= step
	}
	return start, stop
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Of bins the finite values of xs.
func Of(xs []float64, maxbins int) (Bins, error) {
	finite := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			finite = append(finite, x)
		}
	}
	min, max := stats.Bounds(finite)
	return Compute(min, max, maxbins)
}

// levelStep maps a tick level to its step: level 3k+i is mantissas[i]*10^k.
func levelStep(level int) float64 {
	k := level / 3
	i := level % 3
	if i < 0 {
		i += 3
		k--
	}
	if k < 0 {
		return mantissas[i] / math.Pow(10, float64(-k))
	}
	return mantissas[i] * math.Pow(10, float64(k))
}

// ticker adapts an extent to scale.Ticker. Its ticks are bin edges.
type ticker struct {
	min, max float64
}

// CountTicks is the bin count at level. Levels whose step cannot be
// represented never fit.
func (t ticker) CountTicks(level int) int {
	step := levelStep(level)
	if !finite(step) || step <= 0 {
		return math.MaxInt32
	}
	start, stop := edges(t.min, t.max, step)
	n := (stop - start) / step
	if !finite(n) || n > math.MaxInt32 {
		return math.MaxInt32
	}
	if n := int(math.Round(n)); n > 1 {
		return n
	}
	return 1
}

func (t ticker) TicksAtLevel(level int) interface{} {
	step := levelStep(level)
	if !finite(step) || step <= 0 {
		return []float64(nil)
	}
	start, _ := edges(t.min, t.max, step)
	b := Bins{Start: start, Step: step}
	b.Stop = b.Start + float64(t.CountTicks(level))*step
	return b.Boundaries()
}

var _ scale.Ticker = ticker{}
