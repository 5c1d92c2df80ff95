// This is the upper level for reading PDB files.
// Decide if a file is compressed or not and whether it is in the fixed
// column format at all. Then read the ATOM and HETATM records into a
// structure.Structure.

package pdb

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/andrew-torda/pdbrenum/pdb/cmmn"
	"github.com/andrew-torda/pdbrenum/pdb/structure"
	"github.com/andrew-torda/pdbrenum/pdb/zwrap"
	"github.com/andrew-torda/pdbrenum/pdberr"
	"github.com/edsrzf/mmap-go"
)

const (
	old_fmt byte = iota
	mmcif_fmt
	unk_fmt
)

const lineLen = 80 // records are padded to this before slicing

// fmtFromName guesses the format from the file name. We cannot use
// filepath.Ext, since it will return .gz if we feed it a.pdb.gz.
func fmtFromName(fname string) byte {
	s := filepath.Base(fname)
	i := strings.IndexByte(s, '.')
	if i == -1 {
		return unk_fmt
	}
	s = strings.ToLower(s[i+1:]) // change .ent to ent
	switch {
	case strings.Contains(s, "pdb") || strings.Contains(s, "ent"):
		return old_fmt
	case strings.Contains(s, "cif"):
		return mmcif_fmt
	}
	return unk_fmt
}

// ReadFile reads a fixed column PDB file, plain or gzipped. Plain files
// are memory mapped.
func ReadFile(fname string) (*structure.Structure, error) {
	const op = "ReadFile"
	if fmtFromName(fname) == mmcif_fmt {
		return nil, pdberr.Data(op, "%s: mmCIF is not read, only fixed column PDB", fname)
	}
	fp, err := os.Open(fname)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, pdberr.NotFound(op, "file %q not found", fname)
	} else if err != nil {
		return nil, err
	}
	defer fp.Close()
	info, err := fp.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, pdberr.Data(op, "%s is a directory", fname)
	}

	gz, err := zwrap.Compressed(fp)
	if err != nil {
		return nil, errors.New("reading " + fname + " " + err.Error())
	}
	if gz {
		rdr, err := zwrap.Wrap(fp)
		if err != nil {
			return nil, pdberr.Wrap(pdberr.KindData, op, err)
		}
		s, err := Parse(rdr)
		if e := rdr.Close(); err == nil && e != nil {
			err = e
		}
		return s, named(fname, err)
	}
	if info.Size() == 0 {
		return nil, pdberr.Data(op, "%s is empty", fname)
	}
	mm, err := mmap.Map(fp, mmap.RDONLY, 0)
	if err != nil {
		return nil, errors.New("mapping " + fname + " " + err.Error())
	}
	defer mm.Unmap()
	s, err := Parse(bytes.NewReader(mm))
	return s, named(fname, err)
}

// named puts the file name in front of a parse error.
func named(fname string, err error) error {
	var e *pdberr.Error
	if errors.As(err, &e) && e.Op == "Parse" {
		e.Op = fname
	}
	return err
}

// field is a trimmed fixed column slice.
func field(line string, from, to int) string {
	return strings.TrimSpace(line[from:to])
}

// residueAcc collects atoms until the residue position changes.
type residueAcc struct {
	name   string
	number int
	icode  string
	chain  string
	atoms  []int
}

func (acc *residueAcc) same(chain string, number int, icode string) bool {
	return len(acc.atoms) > 0 && acc.chain == chain && acc.number == number && acc.icode == icode
}

// Parse reads ATOM and HETATM records. Other records are skipped.
// Atoms go into the residue before them if the chain, number and
// insertion code match. Residues go into the chain before them if the
// chain name matches. Nothing is sorted or merged beyond that.
func Parse(rdr io.Reader) (*structure.Structure, error) {
	const op = "Parse"
	s := structure.New()
	var res residueAcc
	var chainName string
	var chainRes []int
	looksCif := false

	flushChain := func() {
		if len(chainRes) > 0 {
			s.AddChain(structure.NewChain(chainName, chainRes...))
			chainRes = nil
		}
	}
	flushRes := func() {
		if len(res.atoms) == 0 {
			return
		}
		if len(chainRes) > 0 && chainName != res.chain {
			flushChain()
		}
		chainName = res.chain
		ir := s.AddResidue(structure.NewResidue(res.name, res.number, res.icode, res.atoms...))
		chainRes = append(chainRes, ir)
		res.atoms = nil
	}

	scnr := bufio.NewScanner(rdr)
	scnr.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for nline := 1; scnr.Scan(); nline++ {
		line := strings.TrimRight(scnr.Text(), "\r")
		if nline < 50 && (strings.HasPrefix(line, "data_") || strings.HasPrefix(line, "loop_")) {
			looksCif = true
		}
		if len(line) < 6 {
			continue
		}
		if tag := line[0:6]; tag != "ATOM  " && tag != "HETATM" {
			continue
		}
		if len(line) < lineLen {
			line += strings.Repeat(" ", lineLen-len(line))
		}
		number, err := strconv.Atoi(field(line, 22, 26))
		if err != nil {
			return nil, pdberr.Data(op, "line %d: residue number %q", nline, line[22:26])
		}
		var xyz [3]float64
		for i := range xyz {
			from := 30 + 8*i
			if xyz[i], err = strconv.ParseFloat(field(line, from, from+8), 64); err != nil {
				return nil, pdberr.Data(op, "line %d: coordinate %q", nline, line[from:from+8])
			}
		}
		atom := structure.NewAtom(field(line, 11, 16), field(line, 77, 79))
		atom.Coords = cmmn.Xyz{X: xyz[0], Y: xyz[1], Z: xyz[2]}
		ia := s.AddAtom(atom)

		chain := line[21:22]
		icode := field(line, 26, 27)
		if !res.same(chain, number, icode) {
			flushRes()
			res = residueAcc{name: field(line, 17, 21), number: number, icode: icode, chain: chain}
		}
		res.atoms = append(res.atoms, ia)
	}
	if err := scnr.Err(); err != nil {
		return nil, pdberr.Wrap(pdberr.KindData, op, err)
	}
	flushRes()
	flushChain()

	if len(s.Atoms()) == 0 {
		if looksCif {
			return nil, pdberr.Data(op, "looks like mmCIF, only fixed column PDB is read")
		}
		return nil, pdberr.Data(op, "no ATOM or HETATM records")
	}
	return s, nil
}
