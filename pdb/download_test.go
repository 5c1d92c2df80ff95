package pdb_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/andrew-torda/pdbrenum/pdb"
	"github.com/andrew-torda/pdbrenum/pdberr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pdbServer(t *testing.T) *httptest.Server {
	t.Helper()
	var zb bytes.Buffer
	zw := gzip.NewWriter(&zb)
	_, err := zw.Write([]byte(small))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	mux := http.NewServeMux()
	mux.HandleFunc("/download/1ABC.pdb.gz", func(w http.ResponseWriter, r *http.Request) {
		w.Write(zb.Bytes())
	})
	mux.HandleFunc("/pdbe/pdb1abc.ent", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(small))
	})
	mux.HandleFunc("/download/2BAD.pdb.gz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(small)) // says gzip, is not
	})
	mux.HandleFunc("/download/3ERR.pdb.gz", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/download/4SLO.pdb.gz", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDownload(t *testing.T) {
	srv := pdbServer(t)
	rcsb, err := SiteNamed("rcsb", srv.URL+"/download/")
	require.NoError(t, err)
	pdbe, err := SiteNamed("PDBe", srv.URL+"/pdbe")
	require.NoError(t, err)

	for _, site := range []Site{rcsb, pdbe} {
		s, err := Download(context.Background(), srv.Client(), site, "1abc")
		require.NoError(t, err, site.URL("1abc"))
		assert.Len(t, s.Atoms(), 7)
		assert.Len(t, s.Chains(), 3)
	}
}

func TestDownloadErrors(t *testing.T) {
	srv := pdbServer(t)
	site, err := SiteNamed("", srv.URL+"/download")
	require.NoError(t, err)
	var tests = []struct {
		code string
		want error
	}{
		{"abcd", pdberr.ErrData}, // must start with a digit
		{"1ab", pdberr.ErrData},
		{"1a-c", pdberr.ErrData},
		{"9zzz", pdberr.ErrNotFound},
		{"2bad", pdberr.ErrData},
		{"3err", pdberr.ErrLookup},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			_, err := Download(context.Background(), srv.Client(), site, tt.code)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = Download(ctx, srv.Client(), site, "4slo")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSiteNamed(t *testing.T) {
	site, err := SiteNamed("", "")
	require.NoError(t, err)
	assert.Equal(t, "https://files.rcsb.org/download/5ZCK.pdb.gz", site.URL("5zck"))
	site, err = SiteNamed("pdbe", "")
	require.NoError(t, err)
	assert.Equal(t, "https://www.ebi.ac.uk/pdbe/entry-files/download/pdb5zck.ent", site.URL("5ZCK"))
	_, err = SiteNamed("pdbj", "")
	assert.ErrorIs(t, err, pdberr.ErrData)
}
