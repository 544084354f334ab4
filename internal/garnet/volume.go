package garnet

import "github.com/bknight1/gtpath/internal/magemin"

// VolumeFractions rebuilds per-phase volume fractions from weight fractions
// and densities, for backends that do not report volumes directly.
//
// Position i divides the summed weight fraction of every assemblage entry
// sharing its phase name by the mean density of those entries, then the
// vector is normalized over positions. With unique phase names this reduces
// to WtFrac[i]/rho[i] renormalized. When a name repeats (immiscible pairs
// reported as two entries) each repeated position carries the combined
// group value, and downstream code reads a single position per phase name.
// An assemblage with zero total weight yields all zeros.
func VolumeFractions(r *magemin.Result) []float64 {
	v := make([]float64, len(r.Phases))
	var total float64
	for i, name := range r.Phases {
		var wt, rho float64
		var members int
		for j, other := range r.Phases {
			if other != name {
				continue
			}
			wt += r.WtFrac[j]
			rho += r.DensityAt(j)
			members++
		}
		mean := rho / float64(members)
		if mean == 0 {
			continue
		}
		v[i] = wt / mean
		total += v[i]
	}
	if total == 0 {
		return v
	}
	for i := range v {
		v[i] /= total
	}
	return v
}
