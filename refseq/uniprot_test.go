package refseq_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andrew-torda/pdbrenum/pdberr"
	"github.com/andrew-torda/pdbrenum/refseq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const egfrJSON = `{
  "accession": "P00533",
  "id": "EGFR_HUMAN",
  "protein": {"recommendedName": {"fullName": {"value": "Epidermal growth factor receptor"}}},
  "gene": [{"name": {"value": "EGFR"}, "synonyms": [{"value": "ERBB"}]}],
  "organism": {"taxonomy": 9606, "names": [
    {"type": "common", "value": "Human"},
    {"type": "scientific", "value": "Homo sapiens"}]},
  "sequence": {"version": 2, "length": 12, "sequence": "MRPSGTAGAALL"}
}`

const submittedJSON = `{
  "protein": {"submittedName": [{"fullName": {"value": "Uncharacterized protein"}}]},
  "sequence": {"sequence": "mkv"}
}`

func uniprotServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/proteins/api/proteins/P00533", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(egfrJSON))
	})
	mux.HandleFunc("/proteins/api/proteins/A0A000", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(submittedJSON))
	})
	mux.HandleFunc("/proteins/api/proteins/BADACC", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Invalid accession", http.StatusBadRequest)
	})
	mux.HandleFunc("/proteins/api/proteins/BROKEN", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sequence": `))
	})
	mux.HandleFunc("/proteins/api/proteins/NOSEQ", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"accession": "NOSEQ"}`))
	})
	mux.HandleFunc("/proteins/api/proteins/DOWN", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/proteins/api/proteins/SLOW", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestUniProtFetch(t *testing.T) {
	srv := uniprotServer(t)
	u := refseq.NewUniProt(srv.URL+"/", time.Second)
	ref, err := u.Fetch(context.Background(), "P00533")
	require.NoError(t, err)
	assert.Equal(t, &refseq.Reference{
		Accession: "P00533",
		Sequence:  "MRPSGTAGAALL",
		Name:      "Epidermal growth factor receptor",
		Gene:      "EGFR",
		Organism:  "Homo sapiens",
	}, ref)
	assert.Equal(t, "P00533 (Epidermal growth factor receptor)", ref.String())

	ref, err = u.Fetch(context.Background(), "A0A000")
	require.NoError(t, err)
	assert.Equal(t, "MKV", ref.Sequence)
	assert.Equal(t, "Uncharacterized protein", ref.Name)
	assert.Empty(t, ref.Gene)
}

func TestUniProtErrors(t *testing.T) {
	srv := uniprotServer(t)
	u := refseq.NewUniProt(srv.URL, 100*time.Millisecond)
	for _, acc := range []string{"BADACC", "MISSING", "BROKEN", "NOSEQ", "DOWN", "SLOW", "", "P0/0533"} {
		t.Run(acc, func(t *testing.T) {
			_, err := u.Fetch(context.Background(), acc)
			require.Error(t, err)
			assert.ErrorIs(t, err, pdberr.ErrLookup)
		})
	}
	_, err := u.Fetch(context.Background(), "BADACC")
	assert.Contains(t, err.Error(), "bad accession")
	_, err = u.Fetch(context.Background(), "SLOW")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
