// Package magemin defines the solver boundary: the structured result of a
// MAGEMin Gibbs minimization and the bridge client that obtains one from a
// sidecar daemon. The solver itself stays external; this package only models
// its output and transports it.
// See design doc Section 2.
package magemin

import (
	"errors"
	"fmt"
)

// Basis selects whether composition vectors are expressed as weight or
// molar proportions. It mirrors MAGEMin's sys_in parameter.
type Basis string

const (
	// BasisWt expresses compositions as weight proportions.
	BasisWt Basis = "wt"
	// BasisMol expresses compositions as molar proportions.
	BasisMol Basis = "mol"
)

var (
	// ErrInvalidBasis is returned for any basis value outside {wt, mol}.
	// The original tooling silently skipped work on unknown basis strings,
	// which masked configuration mistakes; here it is always an error.
	ErrInvalidBasis = errors.New("magemin: basis must be \"wt\" or \"mol\"")

	// ErrMalformedResult is returned when a solver result is internally
	// inconsistent (mismatched vector lengths, impossible phase counts).
	// Distinct from legitimate absence of a phase, which is not an error.
	ErrMalformedResult = errors.New("magemin: malformed result")
)

// ParseBasis converts a configuration string into a Basis.
func ParseBasis(s string) (Basis, error) {
	b := Basis(s)
	if err := b.Validate(); err != nil {
		return "", err
	}
	return b, nil
}

// Validate reports ErrInvalidBasis unless b is BasisWt or BasisMol.
func (b Basis) Validate() error {
	if b != BasisWt && b != BasisMol {
		return fmt.Errorf("%w: got %q", ErrInvalidBasis, string(b))
	}
	return nil
}

// SolutionPhase is one solid-solution phase of an assemblage, carrying its
// end-member breakdown and its composition over the result's oxide list.
type SolutionPhase struct {
	Name       string    `json:"name"`
	Density    float64   `json:"rho"`        // kg/m³
	EndMembers []string  `json:"em_names"`   // end-member names, solver order
	EMMolFrac  []float64 `json:"em_frac"`    // end-member mole fractions
	EMWtFrac   []float64 `json:"em_frac_wt"` // end-member weight fractions
	Comp       []float64 `json:"comp"`       // molar composition over Result.Oxides
	CompWt     []float64 `json:"comp_wt"`    // weight composition over Result.Oxides
}

// EndMemberIndex returns the position of the named end-member, or false if
// the phase does not carry it. Absence is a normal outcome, not an error.
func (s *SolutionPhase) EndMemberIndex(name string) (int, bool) {
	for i, em := range s.EndMembers {
		if em == name {
			return i, true
		}
	}
	return 0, false
}

// PurePhase is a stoichiometric (fixed-composition) phase of an assemblage.
type PurePhase struct {
	Name    string    `json:"name"`
	Density float64   `json:"rho"`     // kg/m³
	Comp    []float64 `json:"comp"`    // molar composition over Result.Oxides
	CompWt  []float64 `json:"comp_wt"` // weight composition over Result.Oxides
}

// Result is the output of one minimization at a single P-T point.
//
// Phases lists solution phases first and pure phases after them, mirroring
// MAGEMin's ph/SS_vec/PP_vec convention: index i < len(Solutions) refers to
// Solutions[i], otherwise to Pures[i-len(Solutions)]. The per-phase fraction
// slices are aligned with Phases. A Result is immutable once produced.
type Result struct {
	P float64 `json:"p"` // kbar
	T float64 `json:"t"` // °C

	Phases  []string  `json:"ph"`                    // assemblage phase names
	MolFrac []float64 `json:"ph_frac"`               // per-phase mole fraction
	WtFrac  []float64 `json:"ph_frac_wt"`            // per-phase weight fraction
	VolFrac []float64 `json:"ph_frac_vol,omitempty"` // per-phase volume fraction; empty when the backend does not report volumes

	Solutions []SolutionPhase `json:"ss"`
	Pures     []PurePhase     `json:"pp"`

	Bulk   []float64 `json:"bulk"`    // molar-basis bulk composition over Oxides
	BulkWt []float64 `json:"bulk_wt"` // weight-basis bulk composition over Oxides
	Oxides []string  `json:"oxides"`  // oxide names, solver-canonical order
	SysIn  Basis     `json:"sys_in"`  // basis the minimization was requested in
}

// PhaseIndex returns the first assemblage position of the named phase, or
// false if the phase is not present.
func (r *Result) PhaseIndex(name string) (int, bool) {
	for i, ph := range r.Phases {
		if ph == name {
			return i, true
		}
	}
	return 0, false
}

// Solution returns the named solution phase, or false if the name is absent
// or refers to a pure phase.
func (r *Result) Solution(name string) (*SolutionPhase, bool) {
	for i := range r.Solutions {
		if r.Solutions[i].Name == name {
			return &r.Solutions[i], true
		}
	}
	return nil, false
}

// DensityAt returns the density of the phase at assemblage position i,
// dispatching between the solution and pure phase lists.
func (r *Result) DensityAt(i int) float64 {
	if i < len(r.Solutions) {
		return r.Solutions[i].Density
	}
	return r.Pures[i-len(r.Solutions)].Density
}

// Validate checks the internal consistency of a result. It distinguishes a
// malformed result (fatal for the caller) from an assemblage that simply
// lacks some phase (never an error). All checks wrap ErrMalformedResult.
func (r *Result) Validate() error {
	n := len(r.Phases)
	if len(r.Solutions)+len(r.Pures) != n {
		return fmt.Errorf("%w: %d phase names for %d solution + %d pure entries",
			ErrMalformedResult, n, len(r.Solutions), len(r.Pures))
	}
	if len(r.MolFrac) != n {
		return fmt.Errorf("%w: ph_frac has %d entries for %d phases", ErrMalformedResult, len(r.MolFrac), n)
	}
	if len(r.WtFrac) != n {
		return fmt.Errorf("%w: ph_frac_wt has %d entries for %d phases", ErrMalformedResult, len(r.WtFrac), n)
	}
	if len(r.VolFrac) != 0 && len(r.VolFrac) != n {
		return fmt.Errorf("%w: ph_frac_vol has %d entries for %d phases", ErrMalformedResult, len(r.VolFrac), n)
	}
	nox := len(r.Oxides)
	if len(r.Bulk) != nox {
		return fmt.Errorf("%w: bulk has %d entries for %d oxides", ErrMalformedResult, len(r.Bulk), nox)
	}
	if len(r.BulkWt) != nox {
		return fmt.Errorf("%w: bulk_wt has %d entries for %d oxides", ErrMalformedResult, len(r.BulkWt), nox)
	}
	for i := range r.Solutions {
		s := &r.Solutions[i]
		if len(s.EMMolFrac) != len(s.EndMembers) {
			return fmt.Errorf("%w: phase %q has %d em_frac entries for %d end-members",
				ErrMalformedResult, s.Name, len(s.EMMolFrac), len(s.EndMembers))
		}
		if len(s.EMWtFrac) != len(s.EndMembers) {
			return fmt.Errorf("%w: phase %q has %d em_frac_wt entries for %d end-members",
				ErrMalformedResult, s.Name, len(s.EMWtFrac), len(s.EndMembers))
		}
		if len(s.Comp) != nox {
			return fmt.Errorf("%w: phase %q comp has %d entries for %d oxides",
				ErrMalformedResult, s.Name, len(s.Comp), nox)
		}
		if len(s.CompWt) != nox {
			return fmt.Errorf("%w: phase %q comp_wt has %d entries for %d oxides",
				ErrMalformedResult, s.Name, len(s.CompWt), nox)
		}
	}
	for i := range r.Pures {
		p := &r.Pures[i]
		if len(p.Comp) != nox {
			return fmt.Errorf("%w: phase %q comp has %d entries for %d oxides",
				ErrMalformedResult, p.Name, len(p.Comp), nox)
		}
		if len(p.CompWt) != nox {
			return fmt.Errorf("%w: phase %q comp_wt has %d entries for %d oxides",
				ErrMalformedResult, p.Name, len(p.CompWt), nox)
		}
	}
	if err := r.SysIn.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	return nil
}
