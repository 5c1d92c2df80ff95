package structure_test

import (
	"testing"

	"github.com/andrew-torda/pdbrenum/pdb/cmmn"
	. "github.com/andrew-torda/pdbrenum/pdb/structure"
	"github.com/andrew-torda/pdbrenum/pdberr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// build makes a structure with one residue of two atoms per entry in
// chains, chains[i] residues going into chain named names[i].
func build(t *testing.T, names []string, nres []int) *Structure {
	t.Helper()
	s := New()
	num := 1
	for ic, name := range names {
		var rl []int
		for k := 0; k < nres[ic]; k++ {
			a1 := s.AddAtom(NewAtom("N", "N"))
			a2 := s.AddAtom(NewAtom("CA", "C"))
			rl = append(rl, s.AddResidue(NewResidue("GLY", num, "", a1, a2)))
			num++
		}
		s.AddChain(NewChain(name, rl...))
	}
	require.NoError(t, s.Check())
	return s
}

func TestAdd(t *testing.T) {
	s := build(t, []string{"A", "B"}, []int{2, 3})
	assert.Len(t, s.Atoms(), 10)
	assert.Len(t, s.Residues(), 5)
	assert.Len(t, s.Chains(), 2)
	r := s.Residue(3)
	assert.Equal(t, []int{6, 7}, r.AtomIndices())
	assert.Equal(t, "B", s.ResidueChain(r).Name)
	assert.Equal(t, "B", s.AtomChain(s.Atom(7)).Name)
	assert.Same(t, r, s.AtomResidue(s.Atom(6)))
	assert.Equal(t, []int{2, 3, 4}, s.Chain(1).ResidueIndices())
}

func TestAddResidueBadAtom(t *testing.T) {
	s := New()
	s.AddAtom(NewAtom("CA", "C"))
	assert.Panics(t, func() { s.AddResidue(NewResidue("ALA", 1, "", 0, 5)) })
}

func TestPurgeNotEmpty(t *testing.T) {
	s := build(t, []string{"A"}, []int{1})
	err := s.PurgeChain(s.Chain(0))
	assert.ErrorIs(t, err, pdberr.ErrState)
	assert.NoError(t, s.Check())
}

func TestPurgeForeign(t *testing.T) {
	s := build(t, []string{"A"}, []int{1})
	assert.ErrorIs(t, s.PurgeChain(NewChain("Q")), pdberr.ErrState)
}

// Emptying a chain in the middle must shift every later chain and all
// the back references of their residues.
func TestCompaction(t *testing.T) {
	s := build(t, []string{"A", "B", "C", "D"}, []int{2, 1, 2, 3})
	moved := s.Residue(2) // the only residue of B
	require.NoError(t, s.SetResidueChainName(moved, "D"))
	require.NoError(t, s.Check())

	var names []string
	for i, c := range s.Chains() {
		names = append(names, c.Name)
		assert.Equal(t, i, c.Index())
	}
	assert.Equal(t, []string{"A", "C", "D"}, names)
	d := s.ChainByName("D")
	assert.Equal(t, 2, d.Index())
	assert.Equal(t, []int{2, 5, 6, 7}, d.ResidueIndices())
	for _, r := range s.ChainResidues(d) {
		assert.Equal(t, 2, r.ChainIndex())
	}
	assert.Equal(t, 1, s.Residue(3).ChainIndex()) // residues of C moved down
}

func TestSetResidueChainEarlier(t *testing.T) {
	s := build(t, []string{"A", "B", "C"}, []int{1, 1, 1})
	r := s.Residue(2)
	require.NoError(t, s.SetResidueChain(r, s.Chain(0)))
	require.NoError(t, s.Check())
	assert.Len(t, s.Chains(), 2)
	assert.Equal(t, 0, r.ChainIndex())
	assert.Equal(t, []int{0, 2}, s.Chain(0).ResidueIndices())
}

func TestSetResidueChainNew(t *testing.T) {
	s := build(t, []string{"A"}, []int{3})
	require.NoError(t, s.SetResidueChainName(s.Residue(1), "Z"))
	require.NoError(t, s.Check())
	z := s.ChainByName("Z")
	require.NotNil(t, z)
	assert.Equal(t, []int{1}, z.ResidueIndices())
	assert.Equal(t, []int{0, 2}, s.Chain(0).ResidueIndices())
}

// A residue from another structure is refused before any chain is made.
func TestSetResidueChainForeign(t *testing.T) {
	s := build(t, []string{"A"}, []int{2})
	other := build(t, []string{"B"}, []int{3})
	err := s.SetResidueChainName(other.Residue(2), "Z")
	assert.ErrorIs(t, err, pdberr.ErrState)
	assert.Nil(t, s.ChainByName("Z"))
	assert.Len(t, s.Chains(), 1)
	assert.NoError(t, s.Check())
}

func TestSetResidueChainSame(t *testing.T) {
	s := build(t, []string{"A"}, []int{2})
	require.NoError(t, s.SetResidueChainName(s.Residue(0), "A"))
	assert.NoError(t, s.Check())
	assert.Len(t, s.Chains(), 1)
}

func TestMoveAtom(t *testing.T) {
	s := build(t, []string{"A"}, []int{2})
	a := s.Atom(1)
	s.MoveAtom(a, s.Residue(1))
	require.NoError(t, s.Check())
	assert.Equal(t, []int{0}, s.Residue(0).AtomIndices())
	assert.Equal(t, []int{1, 2, 3}, s.Residue(1).AtomIndices())
	assert.Equal(t, 1, a.ResidueIndex())
}

func TestNextChainName(t *testing.T) {
	s := build(t, []string{"A", "C"}, []int{1, 1})
	name, ok := s.NextChainName()
	assert.True(t, ok)
	assert.Equal(t, "B", name)

	s = New()
	for l := 'A'; l <= 'Z'; l++ {
		a := s.AddAtom(NewAtom("CA", "C"))
		r := s.AddResidue(NewResidue("ALA", int(l), "", a))
		s.AddChain(NewChain(string(l), r))
	}
	_, ok = s.NextChainName()
	assert.False(t, ok)
}

func TestSamePosition(t *testing.T) {
	r := NewResidue("ALA", 52, "A")
	assert.True(t, r.SamePosition(52, "A"))
	assert.False(t, r.SamePosition(52, ""))
	assert.False(t, r.SamePosition(53, "A"))
}

func TestAtomDefaults(t *testing.T) {
	a := NewAtom("CA", "C")
	assert.Equal(t, -1, a.Index())
	assert.Equal(t, -1, a.ResidueIndex())
	assert.False(t, a.Coords.Ok())
	a.Coords = cmmn.Xyz{X: 1}
	assert.True(t, a.Coords.Ok())
}
