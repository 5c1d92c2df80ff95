package renumber

import (
	"github.com/andrew-torda/pdbrenum/align"
	"github.com/andrew-torda/pdbrenum/pdb/structure"
	"github.com/andrew-torda/pdbrenum/pdberr"
	"github.com/andrew-torda/pdbrenum/refseq"
)

// NoRef marks a residue with no reference position.
const NoRef = -1

// ResidueRef is where one residue sits in reference coordinates. Ref
// indexes Mapping.References, Number is 1-based.
type ResidueRef struct {
	Ref    int
	Number int
}

// Mapping has one entry per structure residue. References are in the
// order matched chains first used them.
type Mapping struct {
	References []*refseq.Reference
	Residues   []ResidueRef
}

// Accessions lists the references by accession.
func (m *Mapping) Accessions() []string {
	ret := make([]string, len(m.References))
	for i, r := range m.References {
		ret[i] = r.Accession
	}
	return ret
}

// Mapped counts residues with a reference position.
func (m *Mapping) Mapped() int {
	n := 0
	for _, rr := range m.Residues {
		if rr.Ref != NoRef {
			n++
		}
	}
	return n
}

// buildMapping goes through the matches in structure order.
func buildMapping(nres int, matches []Match) (*Mapping, error) {
	const op = "mapping"
	m := &Mapping{Residues: make([]ResidueRef, nres)}
	for i := range m.Residues {
		m.Residues[i] = ResidueRef{Ref: NoRef}
	}
	refIdx := make(map[string]int)
	for _, mt := range matches {
		if mt.Reference == nil {
			return nil, pdberr.State(op, "chain %s has no reference", mt.Chain.Name)
		}
		idx, ok := refIdx[mt.Reference.Accession]
		if !ok {
			idx = len(m.References)
			refIdx[mt.Reference.Accession] = idx
			m.References = append(m.References, mt.Reference)
		}
		if len(mt.Result.Map) != len(mt.Chain.Residues) {
			return nil, pdberr.Consistency(op, "chain %s: %d mapped positions for %d residues",
				mt.Chain.Name, len(mt.Result.Map), len(mt.Chain.Residues))
		}
		for k, num := range mt.Result.Map {
			if num == align.Unmapped {
				continue
			}
			m.Residues[mt.Chain.Residues[k]] = ResidueRef{Ref: idx, Number: num}
		}
	}
	return m, nil
}

// Apply gives every mapped residue its reference number and clears its
// insertion code. Unmapped residues keep what they had.
func Apply(s *structure.Structure, m *Mapping) error {
	if m == nil {
		return pdberr.State("apply", "no mapping")
	}
	res := s.Residues()
	if len(m.Residues) != len(res) {
		return pdberr.State("apply", "mapping has %d residues, structure %d", len(m.Residues), len(res))
	}
	for i, rr := range m.Residues {
		if rr.Ref == NoRef {
			continue
		}
		res[i].Number = rr.Number
		res[i].Icode = ""
	}
	return nil
}
