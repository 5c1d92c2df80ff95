// Feb 2018

// Package gotoh implements the Gotoh version of pair-wise alignments.
// We use a full scoring matrix, filled out before we start. Of the three
// Gotoh matrices only the current and previous rows are kept, but every
// cell records its direction, so the traceback knows whether a gap was
// opened or extended. Only local alignments are done. A cell never drops below
// zero and the traceback stops at the first zero.
package gotoh

import (
	"fmt"
	"strings"

	"github.com/andrew-torda/matrix"
)

// Pnlty has the gap opening and widening values. Note, this is different to
// some earlier code. Opening costs you -(Open+Wdn). Each extension costs
// -Wdn
type Pnlty struct {
	Open float32
	Wdn  float32
}

// FromOpenExtend converts the convention where the first gap position
// costs open and each further position costs extend.
func FromOpenExtend(open, extend float32) Pnlty {
	return Pnlty{Open: open - extend, Wdn: extend}
}

type Match_scr struct {
	Match    float32 // matched characters
	Mismatch float32 // mismatched
}

const (
	diag byte = iota // diagonal movement
	pway             // along the P direction, vertical, over rows
	qway             // Q direction, horizontal, over columns
	stop             // Can be used to signal traceback should stop
)

const (
	hmask  byte = 3      // low bits hold the direction for the H matrix
	pwiden byte = 1 << 2 // P cell came from widening a gap
	qwiden byte = 1 << 3 // Q cell came from widening a gap
)

// Pair is one column of an alignment. I indexes the first sequence,
// J the second. A gap is -1.
type Pair struct {
	I, J int
}

const bigf float32 = -1e+38

// IdentScore fills out a score matrix using identity. Values for match/mismatch
// come from the scr structure.
// for an M x N pair, we have an M x N matrix. There is no extra room
// at the start and end.
func IdentScore(s []byte, t []byte, scr *Match_scr) (smat *matrix.FMatrix2d) {
	smat = matrix.NewFMatrix2d(len(s), len(t))
	mat := smat.Mat
	for i, cs := range s {
		for j, ct := range t {
			if cs == ct {
				mat[i][j] = scr.Match
			} else {
				mat[i][j] = scr.Mismatch
			}
		}
	}
	return
}

// Gapped writes out the aligned part of two sequences with '-' for gaps.
func Gapped(pairlist []Pair, s, t []byte) (string, string) {
	var b1, b2 strings.Builder
	for _, p := range pairlist {
		if p.I == -1 {
			b1.WriteByte('-')
		} else {
			b1.WriteByte(s[p.I])
		}
		if p.J == -1 {
			b2.WriteByte('-')
		} else {
			b2.WriteByte(t[p.J])
		}
	}
	return b1.String(), b2.String()
}

// PrintSeqDebug is a primitive printer for aligned sequences, but
// it is essential for debugging.
func PrintSeqDebug(verbose bool, pairlist []Pair, s, t []byte) {
	if !verbose {
		return
	}
	outs1, outs2 := Gapped(pairlist, s, t)
	fmt.Println("aligned:\n", outs1, "\n", outs2)
}

// traceback starts from the best cell and walks back until the score
// hits zero. dir is laid out row by row with ncol+1 columns.
func traceback(dir []byte, ncol, max_i, max_j int) (pairlist []Pair) {
	const (
		inH = iota
		inP
		inQ
	)
	pairlist = make([]Pair, 0, max_i+max_i/10+1)
	state := inH
	for i, j := max_i, max_j; i > 0 && j > 0; {
		cell := dir[i*(ncol+1)+j]
		switch state {
		case inH:
			switch cell & hmask {
			case stop:
				i = 0 // done
			case diag:
				pairlist = append(pairlist, Pair{i - 1, j - 1})
				i--
				j--
			case pway:
				state = inP
			case qway:
				state = inQ
			}
		case inP:
			pairlist = append(pairlist, Pair{i - 1, -1})
			if cell&pwiden == 0 {
				state = inH
			}
			i--
		case inQ:
			pairlist = append(pairlist, Pair{-1, j - 1})
			if cell&qwiden == 0 {
				state = inH
			}
			j--
		}
	}

	for i, j := 0, len(pairlist)-1; i < j; i, j = i+1, j-1 {
		pairlist[i], pairlist[j] = pairlist[j], pairlist[i]
	}
	return pairlist
}

// Align implements Gotoh, O. J. Mol. Biol. (1982) 162, 705-708 for a
// local alignment.
// It does not have the bugs described in Flouri, T, Kobert, K., Rognes, T
// and Stamatakis, doi: http://dx.doi.org/10.1101/031500 (2015).
// scr_mat is M x N for sequences of length M and N and is not changed.
// If nothing scores above zero, pairlist is empty.
// Only two rows of the h, p and q matrices are kept. The traceback
// works from dir, one byte per cell.
func Align(scr_mat_mat *matrix.FMatrix2d, pnlty Pnlty) (pairlist []Pair, max_scr float32) {
	scr_mat := scr_mat_mat.Mat
	nrow := len(scr_mat)
	if nrow < 1 || len(scr_mat[0]) < 1 {
		return nil, 0
	}
	ncol := len(scr_mat[0])
	w1 := pnlty.Open + pnlty.Wdn // cost of the first gap position
	wdn := pnlty.Wdn

	// Rows have an extra column of zeros at the start. Row 0 of h is zero
	// and row 0 of p can never be widened.
	hPrev, hCur := make([]float32, ncol+1), make([]float32, ncol+1)
	pPrev, pCur := make([]float32, ncol+1), make([]float32, ncol+1)
	q := make([]float32, ncol+1)
	for j := range pPrev {
		pPrev[j] = bigf
	}
	dir := make([]byte, (nrow+1)*(ncol+1))

	var max_i, max_j int
	for i := 1; i <= nrow; i++ { // Indexing is such that we walk
		hCur[0], q[0] = 0, bigf
		for j := 1; j <= ncol; j++ { // along each row, left to right.
			var drctn byte
			if opn, wdnd := hPrev[j]-w1, pPrev[j]-wdn; wdnd > opn {
				pCur[j] = wdnd
				drctn |= pwiden
			} else {
				pCur[j] = opn
			}
			if opn, wdnd := hCur[j-1]-w1, q[j-1]-wdn; wdnd > opn {
				q[j] = wdnd
				drctn |= qwiden
			} else {
				q[j] = opn
			}
			best, hdir := hPrev[j-1]+scr_mat[i-1][j-1], diag
			if pCur[j] > best {
				best, hdir = pCur[j], pway
			}
			if q[j] > best {
				best, hdir = q[j], qway
			}
			if best <= 0 {
				best, hdir = 0, stop
			}
			hCur[j] = best
			dir[i*(ncol+1)+j] = drctn | hdir
			if best > max_scr {
				max_scr, max_i, max_j = best, i, j
			}
		}
		hPrev, hCur = hCur, hPrev
		pPrev, pCur = pCur, pPrev
	}
	if max_scr <= 0 {
		return nil, 0
	}
	return traceback(dir, ncol, max_i, max_j), max_scr
}
