package pdb

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/andrew-torda/pdbrenum/pdb/structure"
	"github.com/andrew-torda/pdbrenum/pdberr"
)

// Remark is the first line of every file we write.
const Remark = "REMARK pdbrenum generated pdb file"

// atomName follows the convention that names shorter than four
// characters start in column 14.
func atomName(name string) string {
	if len(name) < 4 {
		return " " + fmt.Sprintf("%-3s", name)
	}
	return name
}

// Write prints the structure as fixed column ATOM records, one per atom
// in index order, each padded to 80 columns.
func Write(w io.Writer, s *structure.Structure) error {
	const op = "Write"
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, Remark)
	for i, a := range s.Atoms() {
		res := s.AtomResidue(a)
		if res == nil {
			return pdberr.State(op, "atom %d %s has no residue", i, a.Name)
		}
		chain := " "
		if c := s.ResidueChain(res); c != nil && c.Name != "" {
			chain = c.Name
		}
		switch {
		case !a.Coords.Ok():
			return pdberr.Data(op, "atom %d %s in %s %d has no coordinates", i, a.Name, res.Name, res.Number)
		case len(a.Name) > 4 || len(res.Name) > 4 || len(chain) != 1 || len(res.Icode) > 1:
			return pdberr.Data(op, "atom %d %s in %s %d: names do not fit their columns",
				i, a.Name, res.Name, res.Number)
		case res.Number < -999 || res.Number > 9999:
			return pdberr.Data(op, "residue %s %d does not fit in four columns", res.Name, res.Number)
		}
		line := fmt.Sprintf("ATOM  %5d %s %-4s%s%4d%1s   %8.3f%8.3f%8.3f  1.00  0.00           %-2s",
			(i+1)%100000, atomName(a.Name), res.Name, chain, res.Number, res.Icode,
			a.Coords.X, a.Coords.Y, a.Coords.Z, a.Element)
		fmt.Fprintf(bw, "%-80s\n", line)
	}
	return bw.Flush()
}

// WriteFile writes to a temporary file next to fname and renames it,
// so fname is either complete or untouched.
func WriteFile(fname string, s *structure.Structure) (err error) {
	fp, err := os.CreateTemp(filepath.Dir(fname), "."+filepath.Base(fname)+".*")
	if err != nil {
		return err
	}
	tmp := fp.Name()
	if err = fp.Chmod(0o644); err != nil {
		fp.Close()
		os.Remove(tmp)
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()
	if err = Write(fp, s); err != nil {
		fp.Close()
		return err
	}
	if err = fp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, fname)
}
