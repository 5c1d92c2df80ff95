package refseq

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andrew-torda/pdbrenum/internal/metrics"
	"github.com/andrew-torda/pdbrenum/pdberr"
	"github.com/tidwall/gjson"
)

const maxBody = 32 << 20

// UniProt fetches entries from the EBI proteins API,
// {BaseURL}/proteins/api/proteins/{accession}.
type UniProt struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration // per request, zero means none
	Metrics *metrics.Metrics
}

func NewUniProt(baseURL string, timeout time.Duration) *UniProt {
	return &UniProt{BaseURL: baseURL, Client: http.DefaultClient, Timeout: timeout}
}

// get does one GET and returns the body of a 200 answer. Any other status
// comes back as the status code with a nil body.
func get(ctx context.Context, client *http.Client, u, accept string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, resp.StatusCode, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	return body, resp.StatusCode, err
}

// Fetch returns the reference for acc. An accession UniProt does not
// know is a lookup error.
func (u *UniProt) Fetch(ctx context.Context, acc string) (ref *Reference, err error) {
	const op = "uniprot"
	defer func() { u.Metrics.Remote(op, err) }()
	if acc == "" || strings.ContainsAny(acc, "/?# ") {
		return nil, pdberr.Lookup(op, "bad accession %q", acc)
	}
	if u.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.Timeout)
		defer cancel()
	}
	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}
	where := strings.TrimSuffix(u.BaseURL, "/") + "/proteins/api/proteins/" + url.PathEscape(acc)
	body, status, err := get(ctx, client, where, "application/json")
	switch {
	case err != nil:
		return nil, &pdberr.Error{Kind: pdberr.KindLookup, Op: op, Msg: acc, Err: err}
	case status == http.StatusBadRequest || status == http.StatusNotFound:
		return nil, pdberr.Lookup(op, "bad accession %q (HTTP %d)", acc, status)
	case status != http.StatusOK:
		return nil, pdberr.Lookup(op, "%s: HTTP %d", acc, status)
	}
	return parseUniProt(acc, body)
}

func parseUniProt(acc string, body []byte) (*Reference, error) {
	const op = "uniprot"
	if !gjson.ValidBytes(body) {
		return nil, pdberr.Lookup(op, "%s: answer is not json", acc)
	}
	seq := gjson.GetBytes(body, "sequence.sequence").String()
	if seq == "" {
		return nil, pdberr.Lookup(op, "%s: entry has no sequence", acc)
	}
	res := gjson.GetManyBytes(body,
		"protein.recommendedName.fullName.value",
		"protein.submittedName.0.fullName.value",
		"gene.0.name.value",
		`organism.names.#(type=="scientific").value`)
	name := res[0].String()
	if name == "" {
		name = res[1].String()
	}
	return &Reference{
		Accession: acc,
		Sequence:  strings.ToUpper(seq),
		Name:      name,
		Gene:      res[2].String(),
		Organism:  res[3].String(),
	}, nil
}

func (r *Reference) String() string {
	if r.Name == "" {
		return r.Accession
	}
	return fmt.Sprintf("%s (%s)", r.Accession, r.Name)
}
