package garnet

import (
	"testing"

	"github.com/bknight1/gtpath/internal/magemin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseFractionsPresent(t *testing.T) {
	r := assemblageWithGarnet()

	f, ok := MolFraction(r, PhaseName)
	require.True(t, ok)
	assert.Equal(t, 0.12, f)

	f, ok = WtFraction(r, PhaseName)
	require.True(t, ok)
	assert.Equal(t, 0.15, f)

	f, ok = VolFraction(r, PhaseName)
	require.True(t, ok)
	assert.Equal(t, 0.10, f)
}

func TestPhaseFractionsAbsent(t *testing.T) {
	r := assemblageWithoutGarnet()

	f, ok := MolFraction(r, PhaseName)
	assert.False(t, ok)
	assert.Zero(t, f)

	_, ok = WtFraction(r, PhaseName)
	assert.False(t, ok)

	_, ok = VolFraction(r, PhaseName)
	assert.False(t, ok)
}

func TestVolFractionMissingTable(t *testing.T) {
	r := assemblageWithGarnet()
	r.VolFrac = nil

	_, ok := VolFraction(r, PhaseName)
	assert.False(t, ok)
}

func TestEndMemberFractionByBasis(t *testing.T) {
	r := assemblageWithGarnet()

	f, ok := EndMemberFraction(r, PhaseName, "alm", magemin.BasisMol)
	require.True(t, ok)
	assert.Equal(t, 0.55, f)

	f, ok = EndMemberFraction(r, PhaseName, "alm", magemin.BasisWt)
	require.True(t, ok)
	assert.Equal(t, 0.60, f)
}

func TestEndMemberFractionAbsent(t *testing.T) {
	r := assemblageWithGarnet()

	// Unknown end-member on a present phase.
	_, ok := EndMemberFraction(r, PhaseName, "and", magemin.BasisMol)
	assert.False(t, ok)

	// Pure phases carry no end-members.
	_, ok = EndMemberFraction(r, "q", "py", magemin.BasisMol)
	assert.False(t, ok)

	// Phase not in the assemblage.
	_, ok = EndMemberFraction(assemblageWithoutGarnet(), PhaseName, "py", magemin.BasisMol)
	assert.False(t, ok)
}

func TestEndMemberFractionsFillsZeros(t *testing.T) {
	r := assemblageWithGarnet()
	// "maj" is not in the reported breakdown and must read as zero.
	names := []string{"py", "alm", "maj"}

	set := EndMemberFractions(r, PhaseName, names, magemin.BasisMol)
	require.Len(t, set, 3)
	assert.Equal(t, 0.20, set["py"])
	assert.Equal(t, 0.55, set["alm"])
	assert.Zero(t, set["maj"])
}

func TestEndMemberFractionsAbsentPhase(t *testing.T) {
	set := EndMemberFractions(assemblageWithoutGarnet(), PhaseName, EndMemberNames, magemin.BasisWt)
	require.Len(t, set, len(EndMemberNames))
	for name, f := range set {
		assert.Zero(t, f, "end-member %s", name)
	}
}
