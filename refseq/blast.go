package refseq

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/andrew-torda/pdbrenum/internal/metrics"
	"github.com/andrew-torda/pdbrenum/pdberr"
)

// Blast talks to the NCBI BLAST URL API. A search is submitted with
// CMD=Put, polled with FORMAT_OBJECT=SearchInfo and the hits are read
// back as XML.
type Blast struct {
	URL      string
	Program  string
	Database string
	Client   *http.Client
	Timeout  time.Duration // whole search, zero means none
	Poll     time.Duration
	Metrics  *metrics.Metrics
}

func NewBlast(u, database string, timeout, poll time.Duration) *Blast {
	return &Blast{
		URL:      u,
		Program:  "blastp",
		Database: database,
		Client:   http.DefaultClient,
		Timeout:  timeout,
		Poll:     poll,
	}
}

var (
	ridRe    = regexp.MustCompile(`RID = (\S+)`)
	statusRe = regexp.MustCompile(`Status=(\w+)`)
	hitsRe   = regexp.MustCompile(`ThereAreHits=yes`)
)

type blastOutput struct {
	Iterations []struct {
		Hits []blastHit `xml:"Iteration_hits>Hit"`
	} `xml:"BlastOutput_iterations>Iteration"`
}

type blastHit struct {
	ID        string `xml:"Hit_id"`
	Def       string `xml:"Hit_def"`
	Accession string `xml:"Hit_accession"`
}

// Search returns the accession of the top hit for seq. Only the first
// hit is looked at.
func (b *Blast) Search(ctx context.Context, seq string) (acc string, err error) {
	const op = "blast"
	defer func() { b.Metrics.Remote(op, err) }()
	if seq == "" {
		return "", pdberr.Lookup(op, "empty query")
	}
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}
	rid, err := b.put(ctx, seq)
	if err != nil {
		return "", err
	}
	if err := b.wait(ctx, rid); err != nil {
		return "", err
	}
	return b.topHit(ctx, rid)
}

func (b *Blast) client() *http.Client {
	if b.Client == nil {
		return http.DefaultClient
	}
	return b.Client
}

func (b *Blast) put(ctx context.Context, seq string) (string, error) {
	const op = "blast put"
	form := url.Values{
		"CMD":      {"Put"},
		"PROGRAM":  {b.Program},
		"DATABASE": {b.Database},
		"QUERY":    {seq},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", pdberr.Wrap(pdberr.KindLookup, op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := b.client().Do(req)
	if err != nil {
		return "", pdberr.Wrap(pdberr.KindLookup, op, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", pdberr.Wrap(pdberr.KindLookup, op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", pdberr.Lookup(op, "HTTP %d", resp.StatusCode)
	}
	m := ridRe.FindSubmatch(body)
	if m == nil {
		return "", pdberr.Lookup(op, "no request id in answer")
	}
	return string(m[1]), nil
}

func (b *Blast) getURL(rid string, kv ...string) string {
	q := url.Values{"CMD": {"Get"}, "RID": {rid}}
	for i := 0; i+1 < len(kv); i += 2 {
		q.Set(kv[i], kv[i+1])
	}
	return b.URL + "?" + q.Encode()
}

// wait polls until the search is READY. FAILED, UNKNOWN or a search with
// no hits are lookup errors.
func (b *Blast) wait(ctx context.Context, rid string) error {
	const op = "blast poll"
	poll := b.Poll
	if poll <= 0 {
		poll = time.Second
	}
	tick := time.NewTicker(poll)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return pdberr.Wrap(pdberr.KindLookup, op, ctx.Err())
		case <-tick.C:
		}
		body, status, err := get(ctx, b.client(), b.getURL(rid, "FORMAT_OBJECT", "SearchInfo"), "")
		if err != nil {
			return pdberr.Wrap(pdberr.KindLookup, op, err)
		}
		if status != http.StatusOK {
			return pdberr.Lookup(op, "%s: HTTP %d", rid, status)
		}
		m := statusRe.FindSubmatch(body)
		if m == nil {
			continue
		}
		switch string(m[1]) {
		case "WAITING":
			continue
		case "READY":
			if !hitsRe.Match(body) {
				return pdberr.Lookup(op, "%s: no hits", rid)
			}
			return nil
		default:
			return pdberr.Lookup(op, "%s: search status %s", rid, m[1])
		}
	}
}

func (b *Blast) topHit(ctx context.Context, rid string) (string, error) {
	const op = "blast get"
	body, status, err := get(ctx, b.client(), b.getURL(rid, "FORMAT_TYPE", "XML"), "")
	if err != nil {
		return "", pdberr.Wrap(pdberr.KindLookup, op, err)
	}
	if status != http.StatusOK {
		return "", pdberr.Lookup(op, "%s: HTTP %d", rid, status)
	}
	var out blastOutput
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = false // the answer names an NCBI DTD we do not fetch
	if err := dec.Decode(&out); err != nil {
		return "", pdberr.Wrap(pdberr.KindLookup, op, err)
	}
	for _, it := range out.Iterations {
		if len(it.Hits) == 0 {
			continue
		}
		acc := it.Hits[0].Accession
		if i := strings.IndexByte(acc, '.'); i > 0 { // drop a version suffix
			acc = acc[:i]
		}
		if acc == "" {
			break
		}
		return acc, nil
	}
	return "", pdberr.Lookup(op, "%s: no hits", rid)
}
