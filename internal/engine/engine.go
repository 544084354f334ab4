// Package engine drives garnet growth tracking over P-T points, paths and
// grids. It owns no thermodynamics: every equilibrium comes from a Solver,
// and the engine reduces solver output to growth and bulk evolution.
// See design doc Section 4.
package engine

import (
	"github.com/bknight1/gtpath/internal/garnet"
	"github.com/bknight1/gtpath/internal/magemin"
)

// Solver produces equilibrated assemblages for a bulk composition. Both the
// bridge client and the synthetic field satisfy it. Implementations must be
// safe for concurrent use; the engine itself holds no mutable state across
// calls, so a Tracker may be shared once configured.
type Solver interface {
	Minimize(p, t float64, bulk []float64, oxides []string, basis magemin.Basis) (*magemin.Result, error)
	MinimizeMany(ps, ts []float64, bulk []float64, oxides []string, basis magemin.Basis) ([]*magemin.Result, error)
}

// Point is one pressure-temperature condition along a path.
type Point struct {
	P float64 `json:"p"` // kbar
	T float64 `json:"t"` // °C
}

// Tracker evaluates solver results for one tracked phase. The zero value is
// not usable; NewTracker fills in the garnet defaults, and callers may
// override fields before first use to follow another solution phase or to
// swap the cation model.
type Tracker struct {
	Solver     Solver
	Phase      string           // solution phase to follow
	EndMembers []string         // end-member names handed to Convert
	Convert    garnet.Converter // end-member to element mapping

	// OnStep, when set, observes each record as TrackPath produces it.
	// Long paths mean many solver round trips; this is the progress hook.
	OnStep func(GrowthRecord)
}

// NewTracker returns a Tracker following garnet with the default cation
// model.
func NewTracker(s Solver) *Tracker {
	return &Tracker{
		Solver:     s,
		Phase:      garnet.PhaseName,
		EndMembers: garnet.EndMemberNames,
		Convert:    garnet.CationFractions,
	}
}

// sample is the per-result reduction shared by point, path and grid
// evaluation. Absent phases read as zero fractions throughout; this is the
// single place where the lookup defaults are applied. End-member and
// element fractions always come from the molar tables: the cation model is
// defined over mole fractions, whatever basis the run itself uses.
type sample struct {
	molFrac    float64
	wtFrac     float64
	volFrac    float64
	endMembers garnet.EndMemberSet
	elements   garnet.Elements
}

func (t *Tracker) sample(res *magemin.Result) sample {
	mol, _ := garnet.MolFraction(res, t.Phase)
	wt, _ := garnet.WtFraction(res, t.Phase)
	em := garnet.EndMemberFractions(res, t.Phase, t.EndMembers, magemin.BasisMol)
	return sample{
		molFrac:    mol,
		wtFrac:     wt,
		volFrac:    t.volFraction(res),
		endMembers: em,
		elements:   t.Convert(em),
	}
}

// volFraction prefers solver-reported volumes and falls back to the density
// reconstruction when the backend omits them.
func (t *Tracker) volFraction(res *magemin.Result) float64 {
	if len(res.VolFrac) > 0 {
		f, _ := garnet.VolFraction(res, t.Phase)
		return f
	}
	i, ok := res.PhaseIndex(t.Phase)
	if !ok {
		return 0
	}
	return garnet.VolumeFractions(res)[i]
}
