package engine

import (
	"fmt"

	"github.com/bknight1/gtpath/internal/garnet"
	"github.com/bknight1/gtpath/internal/magemin"
)

// GrowthRecord is one step of a tracked path. Fractions come straight from
// the solver; growth series are zeroed against the first step so records
// read as growth since the path began; deltas are the per-step increments
// of the growth series and feed fractionation.
type GrowthRecord struct {
	Step int     `json:"step"`
	P    float64 `json:"p"` // kbar
	T    float64 `json:"t"` // °C

	MolFrac float64 `json:"mol_frac"`
	WtFrac  float64 `json:"wt_frac"`
	VolFrac float64 `json:"vol_frac"`

	GrowthMol float64 `json:"growth_mol"`
	GrowthWt  float64 `json:"growth_wt"`
	GrowthVol float64 `json:"growth_vol"`

	DeltaMol float64 `json:"delta_mol"`
	DeltaWt  float64 `json:"delta_wt"`

	EndMembers garnet.EndMemberSet `json:"end_members"`
	Elements   garnet.Elements     `json:"elements"`
}

// TrackPath equilibrates bulk at every point in order and records garnet
// growth along the way. With fractionate set, each step where garnet is
// stable locks the newly grown increment out of the reactive bulk before
// the next step; otherwise every step sees the same starting bulk. The
// caller's bulk slice is never modified. An empty path yields zero records.
// Any solver failure aborts the whole path: a partial growth history would
// misstate the bulk evolution that later steps depend on.
func (t *Tracker) TrackPath(points []Point, bulk []float64, oxides []string, basis magemin.Basis, fractionate bool) ([]GrowthRecord, error) {
	if err := basis.Validate(); err != nil {
		return nil, err
	}

	records := make([]GrowthRecord, 0, len(points))
	current := append([]float64(nil), bulk...)

	var initMol, initWt, initVol float64
	var prevGrowthMol, prevGrowthWt float64

	for i, pt := range points {
		res, err := t.Solver.Minimize(pt.P, pt.T, current, oxides, basis)
		if err != nil {
			return nil, fmt.Errorf("step %d (P %g kbar, T %g °C): %w", i, pt.P, pt.T, err)
		}
		s := t.sample(res)

		if i == 0 {
			initMol, initWt, initVol = s.molFrac, s.wtFrac, s.volFrac
		}
		growthMol := s.molFrac - initMol
		growthWt := s.wtFrac - initWt
		growthVol := s.volFrac - initVol

		// First-step deltas are zero by construction: growth starts at
		// zero and prev starts at zero.
		deltaMol := growthMol - prevGrowthMol
		deltaWt := growthWt - prevGrowthWt
		prevGrowthMol, prevGrowthWt = growthMol, growthWt

		if fractionate && s.molFrac > 0 {
			if sol, ok := res.Solution(t.Phase); ok {
				// The solver's normalized bulk, oxide ordering and
				// basis flag become canonical for the rest of the path.
				current = depleteBulk(res, sol, basis, deltaMol, deltaWt)
				if len(res.Oxides) > 0 {
					oxides = res.Oxides
				}
				if res.SysIn.Validate() == nil {
					basis = res.SysIn
				}
			}
		}

		rec := GrowthRecord{
			Step:       i,
			P:          pt.P,
			T:          pt.T,
			MolFrac:    s.molFrac,
			WtFrac:     s.wtFrac,
			VolFrac:    s.volFrac,
			GrowthMol:  growthMol,
			GrowthWt:   growthWt,
			GrowthVol:  growthVol,
			DeltaMol:   deltaMol,
			DeltaWt:    deltaWt,
			EndMembers: s.endMembers,
			Elements:   s.elements,
		}
		records = append(records, rec)
		if t.OnStep != nil {
			t.OnStep(rec)
		}
	}
	return records, nil
}

// depleteBulk removes the just-grown garnet increment from the reactive
// bulk. It starts from the solver's normalized bulk for this step and
// subtracts, oxide by oxide, the share held in the garnet composition
// scaled by the growth delta. The basis selects which tables take part:
// weight bulk with weight composition and weight delta, or the molar trio.
// A negative delta (resorption) returns material to the bulk.
func depleteBulk(res *magemin.Result, sol *magemin.SolutionPhase, basis magemin.Basis, dMol, dWt float64) []float64 {
	var src, comp []float64
	var d float64
	if basis == magemin.BasisWt {
		src, comp, d = res.BulkWt, sol.CompWt, dWt
	} else {
		src, comp, d = res.Bulk, sol.Comp, dMol
	}
	next := make([]float64, len(src))
	for k := range src {
		next[k] = src[k] - src[k]*comp[k]*d
	}
	return next
}
