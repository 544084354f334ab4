// Package synth provides a deterministic synthetic equilibrium field used
// in place of the MAGEMin bridge during development and in tests. It
// reproduces the qualitative shape of garnet stability in a metapelite: a
// garnet-in boundary rising with pressure, growth increasing with overstep,
// and less growth out of a nutrient-depleted bulk. It is not a
// thermodynamic solver; numbers it emits are shaped, not computed.
// See design doc Section 5.
package synth

import (
	"fmt"

	"github.com/bknight1/gtpath/internal/magemin"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Field is a seeded synthetic phase field. The same seed always produces
// the same assemblages, which keeps runs reproducible end to end. Field is
// safe for concurrent use; the noise sources are read-only after creation.
type Field struct {
	growth opensimplex.Noise // modulates garnet amount
	drift  opensimplex.Noise // perturbs end-member proportions
}

// NewField creates a synthetic field from a seed.
func NewField(seed int64) *Field {
	return &Field{
		growth: opensimplex.NewNormalized(seed),
		drift:  opensimplex.NewNormalized(seed + 1),
	}
}

// garnetIn is the garnet-in boundary in °C at pressure p in kbar. Below it
// no garnet saturates.
func garnetIn(p float64) float64 {
	return 480 + 18*p
}

// garnetEMs matches the metapelite database order for garnet end-members.
var garnetEMs = []string{"py", "alm", "spss", "gr", "kho"}

// phaseModels are the garnet-free matrix phases. Shares sum to one and are
// scaled down as garnet takes over; the weight skew separates the weight
// fractions from the molar ones so the two series stay distinguishable.
var phaseModels = []struct {
	name    string
	share   float64
	wtSkew  float64
	density float64 // kg/m³
	formula map[string]float64
}{
	{"bi", 0.20, 1.05, 3050, map[string]float64{"SiO2": 3, "Al2O3": 1, "MgO": 1.5, "FeO": 1.2, "TiO2": 0.1, "K2O": 0.5, "H2O": 1}},
	{"mu", 0.15, 1.02, 2830, map[string]float64{"SiO2": 3, "Al2O3": 1.5, "K2O": 0.5, "Na2O": 0.1, "H2O": 1}},
	{"pl", 0.22, 0.98, 2650, map[string]float64{"SiO2": 2.8, "Al2O3": 1.1, "CaO": 0.3, "Na2O": 0.35}},
	{"q", 0.36, 0.97, 2650, map[string]float64{"SiO2": 1}},
	{"H2O", 0.07, 0.35, 1000, map[string]float64{"H2O": 1}},
}

const garnetDensity = 3780

// Minimize builds the synthetic assemblage for one P-T point. The returned
// result passes the same validation a bridge result does, and deliberately
// omits volume fractions so the density reconstruction path stays
// exercised.
func (f *Field) Minimize(p, t float64, bulk []float64, oxides []string, basis magemin.Basis) (*magemin.Result, error) {
	if err := basis.Validate(); err != nil {
		return nil, err
	}
	if len(bulk) != len(oxides) {
		return nil, fmt.Errorf("synth: %d bulk entries for %d oxides", len(bulk), len(oxides))
	}

	var bulkMol, bulkWt []float64
	var err error
	if basis == magemin.BasisWt {
		bulkWt = magemin.Normalize(bulk)
		bulkMol, err = magemin.WtToMol(bulk, oxides)
	} else {
		bulkMol = magemin.Normalize(bulk)
		bulkWt, err = magemin.MolToWt(bulk, oxides)
	}
	if err != nil {
		return nil, err
	}

	g := f.garnetFraction(p, t, bulkMol, oxides)

	res := &magemin.Result{
		P:      p,
		T:      t,
		Bulk:   bulkMol,
		BulkWt: bulkWt,
		Oxides: append([]string(nil), oxides...),
		SysIn:  basis,
	}

	var wtRaw []float64
	if g > 0 {
		emMol, emWt := f.endMemberFractions(p, t)
		compMol, compWt, err := garnetComp(emMol, oxides)
		if err != nil {
			return nil, err
		}
		res.Phases = append(res.Phases, "g")
		res.MolFrac = append(res.MolFrac, g)
		wtRaw = append(wtRaw, g*1.12)
		res.Solutions = append(res.Solutions, magemin.SolutionPhase{
			Name:       "g",
			Density:    garnetDensity,
			EndMembers: append([]string(nil), garnetEMs...),
			EMMolFrac:  emMol,
			EMWtFrac:   emWt,
			Comp:       compMol,
			CompWt:     compWt,
		})
	}
	for _, m := range phaseModels {
		frac := m.share * (1 - g)
		compMol, compWt, err := phaseComp(m.formula, oxides)
		if err != nil {
			return nil, err
		}
		res.Phases = append(res.Phases, m.name)
		res.MolFrac = append(res.MolFrac, frac)
		wtRaw = append(wtRaw, frac*m.wtSkew)
		res.Pures = append(res.Pures, magemin.PurePhase{
			Name:    m.name,
			Density: m.density,
			Comp:    compMol,
			CompWt:  compWt,
		})
	}
	res.WtFrac = magemin.Normalize(wtRaw)
	return res, nil
}

// MinimizeMany evaluates each (ps[i], ts[i]) pair independently.
func (f *Field) MinimizeMany(ps, ts []float64, bulk []float64, oxides []string, basis magemin.Basis) ([]*magemin.Result, error) {
	if len(ps) != len(ts) {
		return nil, fmt.Errorf("synth: %d pressures for %d temperatures", len(ps), len(ts))
	}
	out := make([]*magemin.Result, len(ps))
	for i := range ps {
		res, err := f.Minimize(ps[i], ts[i], bulk, oxides, basis)
		if err != nil {
			return nil, err
		}
		out[i] = res
	}
	return out, nil
}

// garnetFraction grows with overstep past the garnet-in boundary, wobbles
// with the noise field and scales with how much cation feedstock the bulk
// still holds.
func (f *Field) garnetFraction(p, t float64, bulkMol []float64, oxides []string) float64 {
	margin := t - garnetIn(p)
	if margin <= 0 {
		return 0
	}
	base := margin / 900
	if base > 0.30 {
		base = 0.30
	}
	mod := 0.75 + 0.5*f.growth.Eval2(p*0.15, t*0.01)
	frac := base * mod * nutrientScale(bulkMol, oxides)
	if frac > 0.35 {
		frac = 0.35
	}
	return frac
}

// nutrientScale compares the bulk's divalent-cation share against the
// default metapelite. Fractionation strips MgO, FeO, MnO and CaO from the
// reactive bulk, so a depleted rock grows less garnet at the same P-T.
func nutrientScale(bulkMol []float64, oxides []string) float64 {
	var nut float64
	for i, ox := range oxides {
		switch ox {
		case "MgO", "FeO", "MnO", "CaO":
			nut += bulkMol[i]
		}
	}
	const ref = 0.085 // nutrient share of DefaultBulk
	s := nut / ref
	if s > 1.2 {
		s = 1.2
	}
	return s
}

// endMemberFractions drifts the garnet composition smoothly across P-T:
// almandine-rich near the boundary, more pyrope with temperature, more
// grossular with pressure, spessartine fading as growth matures.
func (f *Field) endMemberFractions(p, t float64) (mol, wt []float64) {
	x := clamp((t-480)/300, 0, 1)
	y := clamp(p/12, 0, 1)
	jitter := 0.08 * (f.drift.Eval2(p*0.2, t*0.008) - 0.5)

	mol = magemin.Normalize([]float64{
		0.08 + 0.18*x + 0.06*y + jitter, // py
		0.62 - 0.10*x,                   // alm
		0.12 * (1 - x),                  // spss
		0.12 + 0.10*y - 0.04*x,          // gr
		0.02,                            // kho
	})
	skew := []float64{0.90, 1.07, 1.05, 1.00, 0.95}
	raw := make([]float64, len(mol))
	for i := range mol {
		raw[i] = mol[i] * skew[i]
	}
	return mol, magemin.Normalize(raw)
}

// garnetComp spreads the garnet formula over the caller's oxide list:
// 3 SiO2, 1 Al2O3 and three divalent cations split by end-member.
func garnetComp(emMol []float64, oxides []string) (mol, wt []float64, err error) {
	return phaseComp(map[string]float64{
		"SiO2":  3,
		"Al2O3": 1,
		"MgO":   3 * (emMol[0] + emMol[4]), // py + kho
		"FeO":   3 * emMol[1],              // alm
		"MnO":   3 * emMol[2],              // spss
		"CaO":   3 * emMol[3],              // gr
	}, oxides)
}

// phaseComp places a formula onto the caller's oxide list and returns
// normalized molar and weight compositions. Oxides the formula does not
// mention stay zero.
func phaseComp(formula map[string]float64, oxides []string) (mol, wt []float64, err error) {
	v := make([]float64, len(oxides))
	for i, ox := range oxides {
		v[i] = formula[ox]
	}
	mol = magemin.Normalize(v)
	wt, err = magemin.MolToWt(mol, oxides)
	if err != nil {
		return nil, nil, err
	}
	return mol, wt, nil
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
