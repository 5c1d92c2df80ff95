// 23 Feb 2018
// read a substitution matrix

package submat

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/andrew-torda/matrix"
)

// Submat is the export type. it internals do not have to be exported.
type Submat struct {
	mat  *matrix.FMatrix2d
	cmap [128]int8
	unk  int8 // index used for characters not in the alphabet
}

const notset int8 = -1

//go:embed blosum62.txt
var blosum62Text string

// Blosum62 is read once from the copy compiled into the binary. The
// returned matrix is shared, so nobody may change it.
var Blosum62 = sync.OnceValue(func() *Submat {
	smat, err := Parse(strings.NewReader(blosum62Text))
	if err != nil {
		panic("embedded blosum62 broken: " + err.Error())
	}
	return smat
})

// String prints out a substitution matrix. Useful during debugging.
func (submat *Submat) String() string {
	var b strings.Builder
	cmap := submat.cmap[:]
	b.WriteString(fmt.Sprintf("%4s", " "))
	for c := '*'; c <= 'Z'; c++ {
		if cmap[c] != notset {
			b.WriteString(fmt.Sprintf("%4s", string(c)))
		}
	}
	b.WriteString("\n")
	for c := '*'; c <= 'Z'; c++ {
		if cmap[c] == notset {
			continue
		}
		b.WriteString(fmt.Sprintf("%4s", string(c)))
		for d := '*'; d <= 'Z'; d++ {
			if cmap[d] != notset {
				b.WriteString(fmt.Sprintf("%4.0f", submat.mat.Mat[cmap[c]][cmap[d]]))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// CmmtScanner is a wrapper around bufio.Scanner that will ignore anything
// after a comment character and remove leading and trailing white space.
type CmmtScanner struct {
	*bufio.Scanner
	cmmt byte // Comment character
}

// NewCmmtScanner is a wrapper around scanner, but
//   - jumps over blank lines
//   - removes leading spaces
//   - removes anything after a comment character
func NewCmmtScanner(r io.Reader, cmmt byte) *CmmtScanner {
	return &CmmtScanner{bufio.NewScanner(r), cmmt}
}

// CBytes presents exactly the same interface as scanner.Bytes, but
// has to do a bit more work.
// Before returning, we remove anything after the comment symbol and
// strip leading and trailing white space.
// If this leaves us with an empty string, we call Scan again.
// Like the Bytes function, this works directly in the i/o buffer
// and does not allocate any memory. If you like the string it returns,
// you have to save it somewhere.
func (s *CmmtScanner) CBytes() []byte {
	ok := true
	for b := s.Bytes(); ok; ok, b = s.Scan(), s.Bytes() {
		if i := bytes.IndexByte(b, s.cmmt); i != -1 {
			b = b[:i]
		}
		b = bytes.TrimSpace(b)
		if len(b) > 0 {
			return b
		}
	}
	return nil
}

// The first non-comment line  of the substitution matrix file
// contains a list of the allowed characters. Each field has to be
// one character long
func alfbt_line(inline []byte, submat *Submat) (n_alfbt int, err error) {
	cmap := submat.cmap[:]
	for i := range cmap {
		cmap[i] = notset
	}
	f := bytes.Fields(inline)
	if len(f) == 0 {
		return 0, errors.New("alfbt_line: no alphabet line")
	}
	for _, c := range f {
		if len(c) != 1 {
			return 0, errors.New("alfbt_line: expected a single character, got " + string(c))
		}
		if c[0] >= 128 {
			return 0, errors.New("alfbt_line: saw a non-ascii character in " + string(inline))
		}
	}
	for i, c := range f {
		cmap[c[0]] = int8(i)
	}
	for i, c := range f { // If not set, set both upper and lower case
		l := (bytes.ToLower(c))[0] // This is safe, since we have checked
		u := (bytes.ToUpper(c))[0] // that c is one-byte long
		if cmap[l] == notset {     // Lower case index
			cmap[l] = int8(i)
		}
		if cmap[u] == notset { //     Corresponding upper case index
			cmap[u] = int8(i)
		}
	}
	submat.unk = cmap['X']
	return len(f), nil
}

// Parse reads a substitution matrix, alphabet line first, then one
// row per letter.
func Parse(rdr io.Reader) (*Submat, error) {
	submat := new(Submat)
	scnr := NewCmmtScanner(rdr, '#')
	scnr.Scan()
	n_alfbt, err := alfbt_line(scnr.CBytes(), submat)
	if err != nil {
		return nil, err
	}
	submat.mat = matrix.NewFMatrix2d(n_alfbt, n_alfbt)
	nc := 0
	for scnr.Scan() {
		line := scnr.CBytes()
		if line == nil {
			break
		}
		fields := bytes.Fields(line)
		if len(fields) != n_alfbt+1 {
			return nil, errors.New("wrong number of items on line:\n" + string(line))
		}
		if len(fields[0]) != 1 || fields[0][0] >= 128 || submat.cmap[fields[0][0]] == notset {
			return nil, errors.New("invalid character on line " + string(line))
		}
		i := submat.cmap[fields[0][0]]
		for j := 0; j < n_alfbt; j++ {
			f, err := strconv.ParseFloat(string(fields[j+1]), 32)
			if err != nil {
				return nil, err
			}
			x := float32(f)
			submat.mat.Mat[i][j], submat.mat.Mat[j][i] = x, x
		}
		nc++
	}
	if err := scnr.Err(); err != nil {
		return nil, err
	}
	if nc != n_alfbt {
		return nil, fmt.Errorf("found %d rows for %d letters", nc, n_alfbt)
	}
	return submat, nil
}

// Read will read a substitution matrix from a filename.
func Read(fname string) (*Submat, error) {
	fp, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	submat, err := Parse(fp)
	if err != nil {
		return nil, errors.New("reading from " + fname + ": " + err.Error())
	}
	return submat, nil
}

// index maps a character to its row. Characters outside the alphabet
// are scored like X, or as zero if the matrix has no X.
func (submat *Submat) index(c byte) int8 {
	if c < 128 {
		if i := submat.cmap[c]; i != notset {
			return i
		}
	}
	return submat.unk
}

// Score returns the similarity score of bytes a and b, given
// a specific scoring matrix.
func (submat *Submat) Score(a, b byte) float32 {
	i, j := submat.index(a), submat.index(b)
	if i == notset || j == notset {
		return 0
	}
	return submat.mat.Mat[i][j]
}

// ScoreSeqs will take two sequences and calculate a similarity matrix
// based on the substitution matrix.
// We return an M x N matrix, where M and N are the lengths of first
// and second sequences respectively.
func (submat *Submat) ScoreSeqs(s, t []byte) (scr_mat *matrix.FMatrix2d) {
	scr_mat = matrix.NewFMatrix2d(len(s), len(t))
	mat := scr_mat.Mat
	for i, cs := range s {
		for j, ct := range t {
			mat[i][j] = submat.Score(cs, ct)
		}
	}
	return
}
