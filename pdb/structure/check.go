package structure

import (
	"slices"

	"github.com/andrew-torda/pdbrenum/pdberr"
)

// Check walks the whole structure and returns a state error on the first
// broken link it finds. It is for tests and for paranoid callers after a
// batch of mutations.
func (s *Structure) Check() error {
	const op = "Check"
	for i, a := range s.atoms {
		if a.index != i {
			return pdberr.State(op, "atom %d thinks it is %d", i, a.index)
		}
		if a.residue == detached {
			continue
		}
		if a.residue < 0 || a.residue >= len(s.residues) {
			return pdberr.State(op, "atom %d points at residue %d", i, a.residue)
		}
		if _, found := slices.BinarySearch(s.residues[a.residue].atoms, i); !found {
			return pdberr.State(op, "atom %d missing from residue %d", i, a.residue)
		}
	}
	for i, r := range s.residues {
		if r.index != i {
			return pdberr.State(op, "residue %d thinks it is %d", i, r.index)
		}
		if !ascending(r.atoms) {
			return pdberr.State(op, "atoms of residue %d not sorted", i)
		}
		for _, ia := range r.atoms {
			if ia < 0 || ia >= len(s.atoms) || s.atoms[ia].residue != i {
				return pdberr.State(op, "residue %d lists atom %d which is not its own", i, ia)
			}
		}
		if r.chain == detached {
			continue
		}
		if r.chain < 0 || r.chain >= len(s.chains) {
			return pdberr.State(op, "residue %d points at chain %d", i, r.chain)
		}
		if _, found := slices.BinarySearch(s.chains[r.chain].residues, i); !found {
			return pdberr.State(op, "residue %d missing from chain %d", i, r.chain)
		}
	}
	for i, c := range s.chains {
		if c.index != i {
			return pdberr.State(op, "chain %d thinks it is %d", i, c.index)
		}
		if len(c.residues) == 0 {
			return pdberr.State(op, "chain %q is empty", c.Name)
		}
		if !ascending(c.residues) {
			return pdberr.State(op, "residues of chain %q not sorted", c.Name)
		}
		for _, ir := range c.residues {
			if ir < 0 || ir >= len(s.residues) || s.residues[ir].chain != i {
				return pdberr.State(op, "chain %q lists residue %d which is not its own", c.Name, ir)
			}
		}
	}
	return nil
}

// ascending is true for strictly increasing lists.
func ascending(l []int) bool {
	for i := 1; i < len(l); i++ {
		if l[i] <= l[i-1] {
			return false
		}
	}
	return true
}
