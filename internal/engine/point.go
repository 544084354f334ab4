package engine

import (
	"fmt"

	"github.com/bknight1/gtpath/internal/garnet"
	"github.com/bknight1/gtpath/internal/magemin"
)

// PointResult is the garnet view of one equilibrated P-T point. Fractions
// are zero when garnet is not stable there. Raw keeps the full assemblage
// for callers that need more than the tracked phase.
type PointResult struct {
	P       float64 `json:"p"`
	T       float64 `json:"t"`
	MolFrac float64 `json:"mol_frac"`
	WtFrac  float64 `json:"wt_frac"`
	VolFrac float64 `json:"vol_frac"`

	EndMembers garnet.EndMemberSet `json:"end_members"`
	Elements   garnet.Elements     `json:"elements"`

	Raw *magemin.Result `json:"-"`
}

// EvaluatePoint equilibrates bulk at a single point and reduces the result
// to the tracked phase. The bulk is never modified.
func (t *Tracker) EvaluatePoint(p, temp float64, bulk []float64, oxides []string, basis magemin.Basis) (*PointResult, error) {
	if err := basis.Validate(); err != nil {
		return nil, err
	}
	res, err := t.Solver.Minimize(p, temp, bulk, oxides, basis)
	if err != nil {
		return nil, fmt.Errorf("minimize at P %g kbar, T %g °C: %w", p, temp, err)
	}
	s := t.sample(res)
	return &PointResult{
		P:          res.P,
		T:          res.T,
		MolFrac:    s.molFrac,
		WtFrac:     s.wtFrac,
		VolFrac:    s.volFrac,
		EndMembers: s.endMembers,
		Elements:   s.elements,
		Raw:        res,
	}, nil
}
