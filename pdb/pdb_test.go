package pdb_test

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andrew-torda/pdbrenum/brokenio"
	. "github.com/andrew-torda/pdbrenum/pdb"
	"github.com/andrew-torda/pdbrenum/pdb/structure"
	"github.com/andrew-torda/pdbrenum/pdberr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rec is one atom record in the layout other programs write, so we are
// not just reading our own output.
type rec struct {
	tag, name, resName, chain string
	num                       int
	icode                     string
	x, y, z                   float64
	elem                      string
}

func (r rec) String() string {
	name := r.name
	if len(name) < 4 {
		name = " " + name
	}
	return fmt.Sprintf("%-6s%5d %-4s %-3s %1s%4d%1s   %8.3f%8.3f%8.3f  1.00 20.00          %2s",
		r.tag, 1, name, r.resName, r.chain, r.num, r.icode, r.x, r.y, r.z, r.elem)
}

func lines(recs ...fmt.Stringer) string {
	var b strings.Builder
	b.WriteString("HEADER    TEST STRUCTURE\n")
	for _, r := range recs {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	b.WriteString("END\n")
	return b.String()
}

type raw string

func (r raw) String() string { return string(r) }

var small = lines(
	rec{"ATOM", "N", "MET", "A", 1, "", 1, 2, 3, "N"},
	rec{"ATOM", "CA", "MET", "A", 1, "", 2.5, 2, 3, "C"},
	rec{"ATOM", "N", "LYS", "A", 2, "", 4, 2, 3, "N"},
	rec{"ATOM", "CA", "LYS", "A", 2, "", 5.5, 2, 3, "C"},
	rec{"ATOM", "CA", "LYS", "A", 2, "A", 8, 2, 3, "C"},
	raw("TER"),
	rec{"HETATM", "O", "HOH", "W", 301, "", -1.5, -22.25, 100.125, "O"},
	rec{"ATOM", "CA", "GLY", "B", 7, "", 30, 2, 3, "C"},
)

func TestParse(t *testing.T) {
	s, err := Parse(strings.NewReader(small))
	require.NoError(t, err)
	require.NoError(t, s.Check())
	assert.Len(t, s.Atoms(), 7)
	assert.Len(t, s.Residues(), 5)
	require.Len(t, s.Chains(), 3)

	r := s.Residue(1)
	assert.Equal(t, "LYS", r.Name)
	assert.Equal(t, 2, r.Number)
	assert.Equal(t, "", r.Icode)
	assert.Equal(t, []int{2, 3}, r.AtomIndices())
	assert.Equal(t, "A", s.Residue(2).Icode) // insertion code splits residues

	w := s.Atom(5)
	assert.Equal(t, "O", w.Name)
	assert.Equal(t, "O", w.Element)
	assert.InDelta(t, -22.25, w.Coords.Y, 1e-9)
	assert.InDelta(t, 100.125, w.Coords.Z, 1e-9)
	assert.Equal(t, "W", s.AtomChain(w).Name)

	var names []string
	for _, c := range s.Chains() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"A", "W", "B"}, names)
}

// Residues with the same position are only merged when they are next to
// each other. A chain name that comes back starts a new chain.
func TestParseNoMerge(t *testing.T) {
	in := lines(
		rec{"ATOM", "CA", "ALA", "A", 1, "", 0, 0, 0, "C"},
		rec{"ATOM", "CA", "ALA", "A", 2, "", 3.8, 0, 0, "C"},
		rec{"ATOM", "CB", "ALA", "A", 1, "", 0, 1, 0, "C"},
		rec{"ATOM", "CA", "ALA", "B", 1, "", 0, 9, 0, "C"},
		rec{"ATOM", "CA", "ALA", "A", 9, "", 0, 19, 0, "C"},
	)
	s, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, s.Residues(), 5)
	assert.Len(t, s.Chains(), 3)
	assert.Equal(t, []int{0, 1, 2}, s.Chain(0).ResidueIndices())
}

// The residue name does not take part in residue identity.
func TestParseNameIgnored(t *testing.T) {
	in := lines(
		rec{"ATOM", "CA", "ARG", "A", 5, "", 0, 0, 0, "C"},
		rec{"ATOM", "CB", "LYS", "A", 5, "", 0, 1, 0, "C"},
	)
	s, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, s.Residues(), 1)
	assert.Equal(t, "ARG", s.Residue(0).Name)
}

func TestParseErrors(t *testing.T) {
	var tests = []struct {
		name string
		in   string
		msg  string
	}{
		{"bad number", "ATOM      1  CA  ALA A  x1       0.000   0.000   0.000  1.00  0.00           C\n", "residue number"},
		{"bad coord", "ATOM      1  CA  ALA A   1       0.000   abcde   0.000  1.00  0.00           C\n", "coordinate"},
		{"short", "ATOM      1  CA  ALA A   1       0.000\n", "coordinate"},
		{"nothing", "HEADER\nEND\n", "no ATOM"},
		{"mmcif", "data_1ABC\nloop_\n_atom_site.id\n", "mmCIF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.ErrorIs(t, err, pdberr.ErrData)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestWriteColumns(t *testing.T) {
	s, err := Parse(strings.NewReader(small))
	require.NoError(t, err)
	var b bytes.Buffer
	require.NoError(t, Write(&b, s))
	out := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	require.Len(t, out, 8)
	assert.Equal(t, Remark, out[0])
	for _, l := range out[1:] {
		assert.Len(t, l, 80)
	}
	assert.Equal(t,
		"ATOM      1  N   MET A   1       1.000   2.000   3.000  1.00  0.00           N  ",
		out[1])
	assert.Equal(t,
		"ATOM      5  CA  LYS A   2A      8.000   2.000   3.000  1.00  0.00           C  ",
		out[5])
	assert.Equal(t,
		"ATOM      6  O   HOH W 301      -1.500 -22.250 100.125  1.00  0.00           O  ",
		out[6])
}

// Parsing what we wrote and writing it again gives the same bytes, and
// the structure is the same.
func TestRoundTrip(t *testing.T) {
	s1, err := Parse(strings.NewReader(small))
	require.NoError(t, err)
	var b1, b2 bytes.Buffer
	require.NoError(t, Write(&b1, s1))
	s2, err := Parse(bytes.NewReader(b1.Bytes()))
	require.NoError(t, err)
	require.NoError(t, Write(&b2, s2))
	assert.Equal(t, b1.String(), b2.String())

	require.Len(t, s2.Atoms(), len(s1.Atoms()))
	for i, a1 := range s1.Atoms() {
		a2 := s2.Atom(i)
		assert.Equal(t, a1.Name, a2.Name)
		assert.Equal(t, a1.Element, a2.Element)
		assert.Equal(t, a1.Coords, a2.Coords)
		r1, r2 := s1.AtomResidue(a1), s2.AtomResidue(a2)
		assert.Equal(t, r1.Name, r2.Name)
		assert.Equal(t, r1.Number, r2.Number)
		assert.Equal(t, r1.Icode, r2.Icode)
		assert.Equal(t, s1.ResidueChain(r1).Name, s2.ResidueChain(r2).Name)
	}
}

func TestLongAtomName(t *testing.T) {
	in := lines(rec{"HETATM", "HG21", "THR", "A", 1, "", 0, 0, 0, "H"})
	s, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "HG21", s.Atom(0).Name)
	var b bytes.Buffer
	require.NoError(t, Write(&b, s))
	assert.Contains(t, b.String(), "ATOM      1 HG21 THR A   1")
}

func TestWriteNoCoords(t *testing.T) {
	s := structure.New()
	ia := s.AddAtom(structure.NewAtom("CA", "C"))
	ir := s.AddResidue(structure.NewResidue("ALA", 1, "", ia))
	s.AddChain(structure.NewChain("A", ir))
	err := Write(&bytes.Buffer{}, s)
	assert.ErrorIs(t, err, pdberr.ErrData)
}

func TestWriteBigNumber(t *testing.T) {
	s, err := Parse(strings.NewReader(small))
	require.NoError(t, err)
	s.Residue(0).Number = 12345
	assert.ErrorIs(t, Write(&bytes.Buffer{}, s), pdberr.ErrData)
	s.Residue(0).Number = -12
	assert.NoError(t, Write(&bytes.Buffer{}, s))
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "x.pdb")
	require.NoError(t, os.WriteFile(plain, []byte(small), 0o644))

	var zb bytes.Buffer
	zw := gzip.NewWriter(&zb)
	_, err := zw.Write([]byte(small))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	zipped := filepath.Join(dir, "x.pdb.gz")
	require.NoError(t, os.WriteFile(zipped, zb.Bytes(), 0o644))

	for _, fname := range []string{plain, zipped} {
		s, err := ReadFile(fname)
		require.NoError(t, err, fname)
		assert.Len(t, s.Atoms(), 7, fname)
	}
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.pdb")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	cif := filepath.Join(dir, "x.cif")
	require.NoError(t, os.WriteFile(cif, []byte("data_x\n"), 0o644))

	_, err := ReadFile(filepath.Join(dir, "does", "not", "exist.pdb"))
	assert.ErrorIs(t, err, pdberr.ErrNotFound)
	for _, fname := range []string{dir, empty, cif} {
		_, err := ReadFile(fname)
		assert.ErrorIs(t, err, pdberr.ErrData, fname)
	}
}

func TestWriteFile(t *testing.T) {
	s, err := Parse(strings.NewReader(small))
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "out.pdb")
	require.NoError(t, WriteFile(out, s))
	s2, err := ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, s2.Atoms(), 7)

	// a failed write leaves nothing behind
	s.Residue(0).Number = 99999
	out2 := filepath.Join(filepath.Dir(out), "out2.pdb")
	assert.Error(t, WriteFile(out2, s))
	_, err = os.Stat(out2)
	assert.True(t, os.IsNotExist(err))
	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// A reader that dies half way is a data error, not a short structure.
func TestParseReadError(t *testing.T) {
	_, err := Parse(brokenio.NewReader(strings.NewReader(small), len(small)/2))
	assert.ErrorIs(t, err, pdberr.ErrData)
	assert.ErrorIs(t, err, brokenio.ErrBroken)
}

func TestWriteError(t *testing.T) {
	s, err := Parse(strings.NewReader(small))
	require.NoError(t, err)
	err = Write(brokenio.NewWriter(&bytes.Buffer{}, 100), s)
	assert.ErrorIs(t, err, brokenio.ErrBroken)
}
