package structure

import (
	"github.com/andrew-torda/pdbrenum/pdb/calpha/geom"
)

// NoCaChain collects residues without a C-alpha during raw chaining.
const NoCaChain = "X"

// NeedsChaining is true when the chain labels carry no information: no
// chains at all, or one chain called " " or "X".
func (s *Structure) NeedsChaining() bool {
	switch len(s.chains) {
	case 0:
		return true
	case 1:
		n := s.chains[0].Name
		return n == " " || n == "" || n == NoCaChain
	}
	return false
}

// caAtom returns the first atom called CA in r, or nil.
func (s *Structure) caAtom(r *Residue) *Atom {
	for _, ia := range r.atoms {
		if a := s.atoms[ia]; a.Name == "CA" {
			return a
		}
	}
	return nil
}

// RawProteinChainer splits residues into chains by walking the C-alpha
// trace in file order. A gap of MaxCaLink or more starts a new chain
// with the next free letter. Residues without a C-alpha go to chain X.
// When the letters run out, residues stay where they are.
func (s *Structure) RawProteinChainer() error {
	current, ok := s.NextChainName()
	var prev *Atom
	for _, r := range s.residues {
		ca := s.caAtom(r)
		if ca == nil {
			if err := s.SetResidueChainName(r, NoCaChain); err != nil {
				return err
			}
			continue
		}
		if prev == nil || !geom.CaLinked(prev.Coords, ca.Coords) {
			current, ok = s.NextChainName()
		}
		if ok {
			if err := s.SetResidueChainName(r, current); err != nil {
				return err
			}
		}
		prev = ca
	}
	return nil
}
