// Package chainseq turns the chains of a structure into one-letter
// sequences and remembers which residue each letter came from.
package chainseq

import (
	"strings"

	"github.com/andrew-torda/pdbrenum/pdb/structure"
)

// Kind picks which residue table Letter looks in.
type Kind byte

const (
	All Kind = iota
	AminoAcids
	Nucleotides
)

// Unknown is the letter for anything not in the tables.
const Unknown = 'X'

// aminoAcids includes the terminal (N, C suffix) and protonation state
// names written by simulation packages.
var aminoAcids = map[string]byte{
	"ALA": 'A', "ALAN": 'A', "ALAC": 'A',
	"ARG": 'R', "ARGN": 'R', "ARGC": 'R',
	"ASN": 'N', "ASNN": 'N', "ASNC": 'N',
	"ASP": 'D', "ASPN": 'D', "ASPC": 'D',
	"CYS": 'C', "CYSN": 'C', "CYSC": 'C', "CYH": 'C', "CSH": 'C', "CSS": 'C', "CYX": 'C', "CYP": 'C',
	"GLN": 'Q', "GLNN": 'Q', "GLNC": 'Q',
	"GLU": 'E', "GLUN": 'E', "GLUC": 'E',
	"GLY": 'G', "GLYN": 'G', "GLYC": 'G',
	"HIS": 'H', "HISN": 'H', "HISC": 'H', "HID": 'H', "HIE": 'H', "HIP": 'H', "HSD": 'H', "HSE": 'H',
	"ILE": 'I', "ILEN": 'I', "ILEC": 'I', "ILU": 'I',
	"LEU": 'L', "LEUN": 'L', "LEUC": 'L',
	"LYS": 'K', "LYSN": 'K', "LYSC": 'K',
	"MET": 'M', "METN": 'M', "METC": 'M',
	"PHE": 'F', "PHEN": 'F', "PHEC": 'F',
	"PRO": 'P', "PRON": 'P', "PROC": 'P', "PRØ": 'P', "PR0": 'P', "PRZ": 'P',
	"SER": 'S', "SERN": 'S', "SERC": 'S',
	"THR": 'T', "THRN": 'T', "THRC": 'T',
	"TRP": 'W', "TRPN": 'W', "TRPC": 'W', "TRY": 'W',
	"TYR": 'Y', "TYRN": 'Y', "TYRC": 'Y',
	"VAL": 'V', "VALN": 'V', "VALC": 'V',
}

// nucleotides has 3' and 5' terminal variants.
var nucleotides = map[string]byte{
	"A": 'A', "A3": 'A', "A5": 'A',
	"C": 'C', "C3": 'C', "C5": 'C',
	"T": 'T', "T3": 'T', "T5": 'T',
	"G": 'G', "G3": 'G', "G5": 'G',
	"U": 'U', "U3": 'U', "U5": 'U',
	"DA": 'A', "DT": 'T', "DC": 'C', "DG": 'G',
}

// Letter gives the one-letter code of a residue name or Unknown.
// With All, amino acid names are tried first.
func Letter(name string, kind Kind) byte {
	if kind != Nucleotides {
		if l, ok := aminoAcids[name]; ok {
			return l
		}
	}
	if kind != AminoAcids {
		if l, ok := nucleotides[name]; ok {
			return l
		}
	}
	return Unknown
}

// ChainSeq is the amino acid sequence of one chain. Residues[i] is the
// structure index of the residue behind Seq[i].
type ChainSeq struct {
	Name     string
	Seq      string
	Residues []int
}

// IsProtein is false when no residue is a known amino acid.
func (c ChainSeq) IsProtein() bool {
	return strings.Trim(c.Seq, string(Unknown)) != ""
}

// Sequences reads every chain in order. Only amino acids are looked up,
// so nucleic acid chains come out as all X and are not protein.
func Sequences(s *structure.Structure) []ChainSeq {
	ret := make([]ChainSeq, 0, len(s.Chains()))
	for _, c := range s.Chains() {
		idx := c.ResidueIndices()
		seq := make([]byte, len(idx))
		for i, ir := range idx {
			seq[i] = Letter(s.Residue(ir).Name, AminoAcids)
		}
		ret = append(ret, ChainSeq{Name: c.Name, Seq: string(seq),
			Residues: append([]int(nil), idx...)})
	}
	return ret
}
