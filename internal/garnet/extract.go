package garnet

import "github.com/bknight1/gtpath/internal/magemin"

// MolFraction returns the mole fraction of the named phase. The second
// return is false when the phase is not part of the assemblage; stability
// of a phase depends on P, T and bulk, so absence is an ordinary outcome.
func MolFraction(r *magemin.Result, phase string) (float64, bool) {
	i, ok := r.PhaseIndex(phase)
	if !ok {
		return 0, false
	}
	return r.MolFrac[i], true
}

// WtFraction returns the weight fraction of the named phase.
func WtFraction(r *magemin.Result, phase string) (float64, bool) {
	i, ok := r.PhaseIndex(phase)
	if !ok {
		return 0, false
	}
	return r.WtFrac[i], true
}

// VolFraction returns the volume fraction of the named phase. It reports
// false both when the phase is absent and when the backend did not supply
// volume fractions at all; callers fall back to VolumeFractions for the
// latter case.
func VolFraction(r *magemin.Result, phase string) (float64, bool) {
	if len(r.VolFrac) == 0 {
		return 0, false
	}
	i, ok := r.PhaseIndex(phase)
	if !ok {
		return 0, false
	}
	return r.VolFrac[i], true
}

// EndMemberFraction returns one end-member fraction of a solution phase on
// the given basis. Basis values are validated at the tracking entry points;
// anything other than wt reads the molar table.
func EndMemberFraction(r *magemin.Result, phase, em string, basis magemin.Basis) (float64, bool) {
	s, ok := r.Solution(phase)
	if !ok {
		return 0, false
	}
	i, ok := s.EndMemberIndex(em)
	if !ok {
		return 0, false
	}
	if basis == magemin.BasisWt {
		return s.EMWtFrac[i], true
	}
	return s.EMMolFrac[i], true
}

// EndMemberFractions collects the named end-member fractions into a set.
// Names the solver did not report come back as zero: a missing end-member
// contributes nothing to the cation budget, so zero is the honest value.
func EndMemberFractions(r *magemin.Result, phase string, names []string, basis magemin.Basis) EndMemberSet {
	set := make(EndMemberSet, len(names))
	for _, name := range names {
		f, _ := EndMemberFraction(r, phase, name, basis)
		set[name] = f
	}
	return set
}
