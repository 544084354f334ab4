package engine

import (
	"fmt"

	"github.com/bknight1/gtpath/internal/magemin"
)

// EvaluateGrid equilibrates the same bulk at every (ps[i], ts[i]) pair in a
// single solver round trip. Grid points are independent of each other:
// there is no step coupling and no bulk evolution, so the result at any
// point equals an EvaluatePoint call there. Results align with the inputs.
func (t *Tracker) EvaluateGrid(ps, ts []float64, bulk []float64, oxides []string, basis magemin.Basis) ([]PointResult, error) {
	if err := basis.Validate(); err != nil {
		return nil, err
	}
	if len(ps) != len(ts) {
		return nil, fmt.Errorf("%d pressures for %d temperatures", len(ps), len(ts))
	}
	out := make([]PointResult, 0, len(ps))
	if len(ps) == 0 {
		return out, nil
	}

	results, err := t.Solver.MinimizeMany(ps, ts, bulk, oxides, basis)
	if err != nil {
		return nil, fmt.Errorf("minimize grid of %d points: %w", len(ps), err)
	}
	for _, res := range results {
		s := t.sample(res)
		out = append(out, PointResult{
			P:          res.P,
			T:          res.T,
			MolFrac:    s.molFrac,
			WtFrac:     s.wtFrac,
			VolFrac:    s.volFrac,
			EndMembers: s.endMembers,
			Elements:   s.elements,
			Raw:        res,
		})
	}
	return out, nil
}

// Linspace returns n evenly spaced values from start to stop inclusive.
// n of 1 yields just start; n below 1 yields nil.
func Linspace(start, stop float64, n int) []float64 {
	if n < 1 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}

// GridPoints flattens two axes into aligned coordinate lists, temperature
// varying fastest.
func GridPoints(pAxis, tAxis []float64) (ps, ts []float64) {
	ps = make([]float64, 0, len(pAxis)*len(tAxis))
	ts = make([]float64, 0, len(pAxis)*len(tAxis))
	for _, p := range pAxis {
		for _, t := range tAxis {
			ps = append(ps, p)
			ts = append(ts, t)
		}
	}
	return ps, ts
}

// PathPoints interpolates n points linearly between two P-T conditions,
// endpoints included.
func PathPoints(start, end Point, n int) []Point {
	ps := Linspace(start.P, end.P, n)
	ts := Linspace(start.T, end.T, n)
	pts := make([]Point, len(ps))
	for i := range pts {
		pts[i] = Point{P: ps[i], T: ts[i]}
	}
	return pts
}
