// Package structure holds atoms, residues and chains of one model.
//
// Everything lives in three dense slices. An element knows its own index
// and the index of its parent; a parent keeps a sorted list of the
// indices of its children. There are no pointers between elements, so
// nothing dangles when a chain is removed and the later chains move down.
// The price is that every mutation has to go through the methods here.
package structure

import (
	"slices"

	"github.com/andrew-torda/pdbrenum/pdb/cmmn"
	"github.com/andrew-torda/pdbrenum/pdberr"
)

const detached = -1

// Atom is one atom record.
type Atom struct {
	Name    string
	Element string
	Coords  cmmn.Xyz
	index   int
	residue int
}

// NewAtom returns an atom without coordinates, not yet in any structure.
func NewAtom(name, element string) *Atom {
	return &Atom{Name: name, Element: element, Coords: cmmn.BrokenXyz,
		index: detached, residue: detached}
}

// Index is the position of the atom in the structure, -1 if not added.
func (a *Atom) Index() int { return a.index }

// ResidueIndex is the index of the owning residue, -1 if there is none.
func (a *Atom) ResidueIndex() int { return a.residue }

// Residue is a named, numbered group of atoms.
type Residue struct {
	Name   string
	Number int    // may be negative
	Icode  string // insertion code, "" if there is none
	index  int
	chain  int
	atoms  []int
}

// NewResidue makes a residue over atoms which must already be in the
// structure it will be added to.
func NewResidue(name string, number int, icode string, atoms ...int) *Residue {
	r := &Residue{Name: name, Number: number, Icode: icode,
		index: detached, chain: detached}
	for _, a := range atoms {
		r.atoms = insertSorted(r.atoms, a)
	}
	return r
}

func (r *Residue) Index() int      { return r.index }
func (r *Residue) ChainIndex() int { return r.chain }

// AtomIndices are the atoms of the residue in ascending order. The slice
// belongs to the residue.
func (r *Residue) AtomIndices() []int { return r.atoms }

// SamePosition says whether two residues occupy the same place in a
// chain. The name plays no part in this.
func (r *Residue) SamePosition(number int, icode string) bool {
	return r.Number == number && r.Icode == icode
}

// Chain is a named list of residues.
type Chain struct {
	Name     string
	index    int
	residues []int
}

// NewChain makes a chain over residues which must already be in the
// structure.
func NewChain(name string, residues ...int) *Chain {
	c := &Chain{Name: name, index: detached}
	for _, r := range residues {
		c.residues = insertSorted(c.residues, r)
	}
	return c
}

func (c *Chain) Index() int { return c.index }

// ResidueIndices are the residues of the chain in ascending order.
func (c *Chain) ResidueIndices() []int { return c.residues }

// Structure is the whole model.
type Structure struct {
	atoms    []*Atom
	residues []*Residue
	chains   []*Chain
}

// New returns an empty structure.
func New() *Structure { return &Structure{} }

func (s *Structure) Atoms() []*Atom       { return s.atoms }
func (s *Structure) Residues() []*Residue { return s.residues }
func (s *Structure) Chains() []*Chain     { return s.chains }

func (s *Structure) Atom(i int) *Atom       { return s.atoms[i] }
func (s *Structure) Residue(i int) *Residue { return s.residues[i] }
func (s *Structure) Chain(i int) *Chain     { return s.chains[i] }

// AddAtom appends an atom and returns its index.
func (s *Structure) AddAtom(a *Atom) int {
	a.index = len(s.atoms)
	s.atoms = append(s.atoms, a)
	return a.index
}

// AddResidue appends a residue and points each of its atoms back at it.
func (s *Structure) AddResidue(r *Residue) int {
	r.index = len(s.residues)
	for _, ia := range r.atoms {
		if ia < 0 || ia >= len(s.atoms) {
			panic(pdberr.State("AddResidue", "residue %s %d lists atom %d, only %d atoms",
				r.Name, r.Number, ia, len(s.atoms)))
		}
		s.atoms[ia].residue = r.index
	}
	s.residues = append(s.residues, r)
	return r.index
}

// AddChain appends a chain and points each of its residues back at it.
func (s *Structure) AddChain(c *Chain) int {
	c.index = len(s.chains)
	for _, ir := range c.residues {
		if ir < 0 || ir >= len(s.residues) {
			panic(pdberr.State("AddChain", "chain %q lists residue %d, only %d residues",
				c.Name, ir, len(s.residues)))
		}
		s.residues[ir].chain = c.index
	}
	s.chains = append(s.chains, c)
	return c.index
}

// owns checks that c really is chain c.index of s.
func (s *Structure) owns(c *Chain) bool {
	return c.index >= 0 && c.index < len(s.chains) && s.chains[c.index] == c
}

func (s *Structure) ownsResidue(r *Residue) bool {
	return r.index >= 0 && r.index < len(s.residues) && s.residues[r.index] == r
}

// PurgeChain removes an empty chain. Later chains shift down by one and
// their residues follow.
func (s *Structure) PurgeChain(c *Chain) error {
	const op = "PurgeChain"
	if !s.owns(c) {
		return pdberr.State(op, "chain %q is not in this structure", c.Name)
	}
	if len(c.residues) != 0 {
		return pdberr.State(op, "chain %q still has %d residues", c.Name, len(c.residues))
	}
	ic := c.index
	s.chains = slices.Delete(s.chains, ic, ic+1)
	for _, later := range s.chains[ic:] {
		later.index--
		for _, ir := range later.residues {
			s.residues[ir].chain = later.index
		}
	}
	c.index = detached
	return nil
}

// SetResidueChain moves r into chain c. If r's old chain is left empty,
// it is purged.
func (s *Structure) SetResidueChain(r *Residue, c *Chain) error {
	const op = "SetResidueChain"
	if !s.owns(c) {
		return pdberr.State(op, "chain %q is not in this structure", c.Name)
	}
	if !s.ownsResidue(r) {
		return pdberr.State(op, "residue %s %d is not in this structure", r.Name, r.Number)
	}
	if r.chain == c.index {
		return nil
	}
	var old *Chain
	if r.chain != detached {
		old = s.chains[r.chain]
		old.residues = removeSorted(old.residues, r.index, "residue")
	}
	c.residues = insertSorted(c.residues, r.index)
	r.chain = c.index
	if old != nil && len(old.residues) == 0 {
		return s.PurgeChain(old) // updates r.chain if c sat after old
	}
	return nil
}

// SetResidueChainName moves r into the chain called name, making the
// chain if there is none. A residue from elsewhere leaves s unchanged.
func (s *Structure) SetResidueChainName(r *Residue, name string) error {
	if !s.ownsResidue(r) {
		return pdberr.State("SetResidueChainName", "residue %s %d is not in this structure", r.Name, r.Number)
	}
	c := s.ChainByName(name)
	if c == nil {
		c = NewChain(name)
		s.AddChain(c)
	}
	return s.SetResidueChain(r, c)
}

// MoveAtom moves atom a into residue r.
func (s *Structure) MoveAtom(a *Atom, r *Residue) {
	if a.residue == r.index {
		return
	}
	if a.residue != detached {
		old := s.residues[a.residue]
		old.atoms = removeSorted(old.atoms, a.index, "atom")
	}
	r.atoms = insertSorted(r.atoms, a.index)
	a.residue = r.index
}

// ChainByName returns the first chain with the name or nil.
func (s *Structure) ChainByName(name string) *Chain {
	for _, c := range s.chains {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// NextChainName is the first letter A..Z not used as a chain name. ok is
// false once all are taken.
func (s *Structure) NextChainName() (name string, ok bool) {
	for l := byte('A'); l <= 'Z'; l++ {
		if s.ChainByName(string(l)) == nil {
			return string(l), true
		}
	}
	return "", false
}

func (s *Structure) ResidueAtoms(r *Residue) []*Atom {
	ret := make([]*Atom, len(r.atoms))
	for i, ia := range r.atoms {
		ret[i] = s.atoms[ia]
	}
	return ret
}

func (s *Structure) ChainResidues(c *Chain) []*Residue {
	ret := make([]*Residue, len(c.residues))
	for i, ir := range c.residues {
		ret[i] = s.residues[ir]
	}
	return ret
}

// AtomResidue returns the residue of a or nil.
func (s *Structure) AtomResidue(a *Atom) *Residue {
	if a.residue == detached {
		return nil
	}
	return s.residues[a.residue]
}

// ResidueChain returns the chain of r or nil.
func (s *Structure) ResidueChain(r *Residue) *Chain {
	if r.chain == detached {
		return nil
	}
	return s.chains[r.chain]
}

// AtomChain returns the chain of a or nil.
func (s *Structure) AtomChain(a *Atom) *Chain {
	if r := s.AtomResidue(a); r != nil {
		return s.ResidueChain(r)
	}
	return nil
}

// insertSorted puts v into an ascending list, leaving it alone if it
// is already there.
func insertSorted(l []int, v int) []int {
	i, found := slices.BinarySearch(l, v)
	if found {
		return l
	}
	return slices.Insert(l, i, v)
}

// removeSorted takes v out of an ascending list. v not being there means
// the back references are broken, which is a bug, not bad input.
func removeSorted(l []int, v int, what string) []int {
	i, found := slices.BinarySearch(l, v)
	if !found {
		panic(pdberr.State("remove", "%s %d is not in its parent's list", what, v))
	}
	return slices.Delete(l, i, i+1)
}
