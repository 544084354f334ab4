// Package garnet holds the domain knowledge for reading garnet out of an
// equilibrated assemblage: which phase it is, which end-members compose it,
// and how end-member proportions map onto divalent cations.
// See design doc Section 3.
package garnet

// PhaseName is the solver's label for the garnet solid solution.
const PhaseName = "g"

// EndMemberNames lists the garnet end-members in the metapelite database:
// pyrope, almandine, spessartine, grossular and khoharite.
var EndMemberNames = []string{"py", "alm", "spss", "gr", "kho"}

// EndMemberSet maps end-member names to their fractions within the garnet
// phase. A set built by EndMemberFractions always carries every requested
// name; end-members the solver did not report read as zero.
type EndMemberSet map[string]float64

// Elements is the divalent cation budget of a garnet composition.
type Elements struct {
	Mg float64 `json:"mg"`
	Mn float64 `json:"mn"`
	Fe float64 `json:"fe"`
	Ca float64 `json:"ca"`
}

// Converter turns an end-member breakdown into element fractions. Tracking
// code takes one of these so alternative site-allocation models can be
// swapped in without touching the growth loop.
type Converter func(EndMemberSet) Elements

// CationFractions is the default Converter for the metapelite garnet model.
// Pyrope and khoharite both occupy their X site with Mg, so their fractions
// add; almandine, spessartine and grossular map one-to-one.
func CationFractions(em EndMemberSet) Elements {
	return Elements{
		Mg: em["py"] + em["kho"],
		Fe: em["alm"],
		Mn: em["spss"],
		Ca: em["gr"],
	}
}
