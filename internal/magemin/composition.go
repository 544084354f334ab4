package magemin

import "fmt"

// MetapeliteOxides is the oxide order of the metapelite database. Bulk
// compositions handed to the solver follow this order unless a caller
// supplies its own list.
var MetapeliteOxides = []string{
	"SiO2", "Al2O3", "CaO", "MgO", "FeO", "K2O", "Na2O", "TiO2", "O", "MnO", "H2O",
}

// DefaultBulk is an average amphibolite-facies metapelite on the molar
// basis, water-saturated, aligned with MetapeliteOxides.
var DefaultBulk = []float64{
	70.999, 12.805, 0.771, 3.978, 6.342, 2.7895, 1.481, 0.758, 0.72933, 0.075, 30.0,
}

// molarMasses in g/mol for the oxides the metapelite database knows about.
var molarMasses = map[string]float64{
	"SiO2":  60.084,
	"Al2O3": 101.961,
	"CaO":   56.077,
	"MgO":   40.304,
	"FeO":   71.844,
	"K2O":   94.196,
	"Na2O":  61.979,
	"TiO2":  79.866,
	"O":     15.999,
	"MnO":   70.937,
	"H2O":   18.015,
	"Cr2O3": 151.990,
	"S":     32.06,
}

// MolarMass returns the molar mass of an oxide in g/mol.
func MolarMass(oxide string) (float64, bool) {
	m, ok := molarMasses[oxide]
	return m, ok
}

// Normalize scales v so its entries sum to one. An all-zero vector comes
// back as a zero copy. The input is never modified.
func Normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	var total float64
	for _, x := range v {
		total += x
	}
	if total == 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / total
	}
	return out
}

// MolToWt converts a molar composition to normalized weight proportions.
func MolToWt(v []float64, oxides []string) ([]float64, error) {
	if len(v) != len(oxides) {
		return nil, fmt.Errorf("magemin: %d values for %d oxides", len(v), len(oxides))
	}
	out := make([]float64, len(v))
	for i, ox := range oxides {
		m, ok := MolarMass(ox)
		if !ok {
			return nil, fmt.Errorf("magemin: unknown oxide %q", ox)
		}
		out[i] = v[i] * m
	}
	return Normalize(out), nil
}

// WtToMol converts a weight composition to normalized molar proportions.
func WtToMol(v []float64, oxides []string) ([]float64, error) {
	if len(v) != len(oxides) {
		return nil, fmt.Errorf("magemin: %d values for %d oxides", len(v), len(oxides))
	}
	out := make([]float64, len(v))
	for i, ox := range oxides {
		m, ok := MolarMass(ox)
		if !ok {
			return nil, fmt.Errorf("magemin: unknown oxide %q", ox)
		}
		out[i] = v[i] / m
	}
	return Normalize(out), nil
}
