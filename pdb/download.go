// Go to a pdb website and download coordinates for a four character
// code. Only fixed column files are fetched, since that is all Parse
// reads.

package pdb

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/andrew-torda/pdbrenum/pdb/structure"
	"github.com/andrew-torda/pdbrenum/pdb/zwrap"
	"github.com/andrew-torda/pdbrenum/pdberr"
)

// Site says where a pdb server keeps its files. The URL is
// Base + "/" + Prefix + code + Suffix. Some sites want lower case codes.
type Site struct {
	Base    string
	Prefix  string
	Suffix  string
	Gzipped bool
	Lower   bool
}

// Sites we know about. Pick one with SiteNamed.
var (
	RCSB = Site{Base: "https://files.rcsb.org/download", Suffix: ".pdb.gz", Gzipped: true}
	PDBe = Site{Base: "https://www.ebi.ac.uk/pdbe/entry-files/download", Prefix: "pdb", Suffix: ".ent", Lower: true}
)

// SiteNamed returns the site for "rcsb" or "pdbe" with base moved to
// another server if base is not empty.
func SiteNamed(name, base string) (Site, error) {
	var site Site
	switch strings.ToLower(name) {
	case "", "rcsb":
		site = RCSB
	case "pdbe":
		site = PDBe
	default:
		return Site{}, pdberr.Data("SiteNamed", "unknown pdb site %q", name)
	}
	if base != "" {
		site.Base = strings.TrimRight(base, "/")
	}
	return site, nil
}

// URL is where site keeps code.
func (site Site) URL(code string) string {
	if site.Lower {
		code = strings.ToLower(code)
	} else {
		code = strings.ToUpper(code)
	}
	return site.Base + "/" + site.Prefix + code + site.Suffix
}

// validCode is four letters or digits, the first a digit.
func validCode(code string) bool {
	if len(code) != 4 || code[0] < '1' || code[0] > '9' {
		return false
	}
	for _, c := range code[1:] {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}

// Download fetches a structure by its pdb code. A code the site does not
// have is ErrNotFound. If the site sends gzipped data, it is
// decompressed on the way to Parse.
func Download(ctx context.Context, client *http.Client, site Site, code string) (*structure.Structure, error) {
	const op = "Download"
	if !validCode(code) {
		return nil, pdberr.Data(op, "pdb code should be four characters like 1abc, not %q", code)
	}
	if client == nil {
		client = http.DefaultClient
	}
	url := site.URL(code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, pdberr.Wrap(pdberr.KindLookup, op, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, pdberr.NotFound(op, "%s not found at %s", code, url)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, pdberr.Lookup(op, "wanted %s using %s, got %s", code, url, resp.Status)
	}

	var body io.ReadCloser = resp.Body
	if site.Gzipped {
		if body, err = zwrap.Wrap(resp.Body); err != nil {
			resp.Body.Close()
			return nil, pdberr.Wrap(pdberr.KindData, op, err)
		}
	}
	defer body.Close()
	s, err := Parse(body)
	return s, named(code, err)
}
