// Package align lines up the sequence of a chain against a reference
// sequence and turns the alignment into reference residue numbers.
package align

import (
	"strings"

	"github.com/andrew-torda/pdbrenum/gotoh"
	"github.com/andrew-torda/pdbrenum/pdberr"
	"github.com/andrew-torda/pdbrenum/submat"
)

// Unmapped marks a residue with no reference position.
const Unmapped = 0

const (
	gap     = '-'
	unknown = 'X'
)

// Params are the scoring settings. GapOpen is the cost of the first gap
// position, GapExtend of each further one. MinScore is the lowest
// accepted score per candidate residue.
type Params struct {
	GapOpen   float32
	GapExtend float32
	MinScore  float64
}

// DefaultParams are BLOSUM62-friendly settings. A real match usually
// scores over 4 per residue, an unrelated one under 0.5.
var DefaultParams = Params{GapOpen: 10, GapExtend: 0.5, MinScore: 1.0}

// Aligner is safe for concurrent use. It holds nothing that changes.
type Aligner struct {
	smat   *submat.Submat
	pnlty  gotoh.Pnlty
	params Params
}

// New returns an aligner. A nil smat means BLOSUM62.
func New(smat *submat.Submat, params Params) *Aligner {
	if smat == nil {
		smat = submat.Blosum62()
	}
	return &Aligner{
		smat:   smat,
		pnlty:  gotoh.FromOpenExtend(params.GapOpen, params.GapExtend),
		params: params,
	}
}

// Result is an accepted alignment.
type Result struct {
	Score      float64 // raw score over candidate length
	Raw        float32
	Map        []int  // reference position for each candidate residue, 1-based
	RefAligned string // both strings are the full length alignment,
	SeqAligned string // unaligned ends padded with gaps
	Mapped     int    // how many entries of Map are not Unmapped
}

// allUnknown is true for an empty sequence too.
func allUnknown(seq string) bool {
	return strings.Trim(seq, string(unknown)) == ""
}

// Align aligns a candidate chain sequence against a reference. It returns
// nil, nil when the candidate is all X, when nothing aligns, or when the
// score per residue is below the threshold.
func (al *Aligner) Align(ref, seq string) (*Result, error) {
	res, err := al.Score(ref, seq)
	if err != nil || res == nil || res.Score < al.params.MinScore {
		return nil, err
	}
	return res, nil
}

// Score is Align without the threshold. Callers who want to see why a
// pair was rejected use this.
func (al *Aligner) Score(ref, seq string) (*Result, error) {
	if allUnknown(seq) || ref == "" {
		return nil, nil
	}
	r, s := []byte(ref), []byte(seq)
	pairlist, raw := gotoh.Align(al.smat.ScoreSeqs(r, s), al.pnlty)
	if len(pairlist) == 0 {
		return nil, nil
	}
	refAl, seqAl := pad(pairlist, r, s)
	mp, nmapped, err := mapping(refAl, seqAl, seq)
	if err != nil {
		return nil, err
	}
	return &Result{
		Score:      float64(raw) / float64(len(seq)),
		Raw:        raw,
		Map:        mp,
		RefAligned: refAl,
		SeqAligned: seqAl,
		Mapped:     nmapped,
	}, nil
}

// pad writes out the whole of both sequences. Unaligned starts are right
// justified against each other, unaligned ends left justified.
func pad(pairlist []gotoh.Pair, r, s []byte) (refAl, seqAl string) {
	first, last := pairlist[0], pairlist[len(pairlist)-1] // local alignments start and end on a pair
	var rb, sb strings.Builder
	lead := max(first.I, first.J)
	rb.WriteString(strings.Repeat(string(gap), lead-first.I))
	rb.Write(r[:first.I])
	sb.WriteString(strings.Repeat(string(gap), lead-first.J))
	sb.Write(s[:first.J])

	core1, core2 := gotoh.Gapped(pairlist, r, s)
	rb.WriteString(core1)
	sb.WriteString(core2)

	rtail, stail := r[last.I+1:], s[last.J+1:]
	tail := max(len(rtail), len(stail))
	rb.Write(rtail)
	rb.WriteString(strings.Repeat(string(gap), tail-len(rtail)))
	sb.Write(stail)
	sb.WriteString(strings.Repeat(string(gap), tail-len(stail)))
	return rb.String(), sb.String()
}

// mapping walks the padded strings. Every candidate character must turn
// up in order, or the strings are broken. A candidate residue gets a
// reference position if it sits opposite a real reference residue and
// neither of them is X. This holds in the unaligned ends too, so the
// numbers along a chain always go up.
func mapping(refAl, seqAl, seq string) (mp []int, nmapped int, err error) {
	const op = "align"
	if len(refAl) != len(seqAl) {
		return nil, 0, pdberr.Consistency(op, "aligned strings differ in length, %d and %d",
			len(refAl), len(seqAl))
	}
	mp = make([]int, 0, len(seq))
	refPos := 0
	for col := 0; col < len(seqAl); col++ {
		rc, sc := refAl[col], seqAl[col]
		if rc != gap {
			refPos++
		}
		if sc == gap {
			continue
		}
		k := len(mp)
		if k >= len(seq) || seq[k] != sc {
			return nil, 0, pdberr.Consistency(op, "aligned sequence differs from input at residue %d", k)
		}
		if rc == gap || rc == unknown || sc == unknown {
			mp = append(mp, Unmapped)
			continue
		}
		mp = append(mp, refPos)
		nmapped++
	}
	if len(mp) != len(seq) {
		return nil, 0, pdberr.Consistency(op, "aligned sequence has %d residues, input %d",
			len(mp), len(seq))
	}
	return mp, nmapped, nil
}
