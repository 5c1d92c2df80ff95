// Package refseq finds canonical reference sequences. Accessions are
// fetched from UniProt, optionally through a cache, and chains with no
// known reference can be sent to a homology search.
package refseq

import (
	"context"
	"strings"

	"github.com/andrew-torda/pdbrenum/internal/logging"
	"github.com/andrew-torda/pdbrenum/internal/metrics"
	"github.com/andrew-torda/pdbrenum/pdberr"
	"golang.org/x/sync/singleflight"
)

// Reference is one canonical protein sequence. Accession is the one
// that was asked for, not whatever the service calls the entry.
type Reference struct {
	Accession string `json:"accession"`
	Sequence  string `json:"sequence"`
	Name      string `json:"name,omitempty"`
	Gene      string `json:"gene,omitempty"`
	Organism  string `json:"organism,omitempty"`
}

// Fetcher gets a reference by accession.
type Fetcher interface {
	Fetch(ctx context.Context, acc string) (*Reference, error)
}

// Searcher runs a homology search and returns the accession of the best
// hit.
type Searcher interface {
	Search(ctx context.Context, seq string) (string, error)
}

// Cache stores references. Get returns nil, nil on a miss.
type Cache interface {
	Get(ctx context.Context, acc string) (*Reference, error)
	Put(ctx context.Context, ref *Reference) error
}

// Failure is an accession that could not be resolved.
type Failure struct {
	Accession string
	Err       error
}

// Resolver puts the fetcher, searcher and cache together. It is safe for
// concurrent use and asks for each accession at most once at a time.
type Resolver struct {
	fetcher  Fetcher
	searcher Searcher
	cache    Cache
	log      logging.Logger
	metrics  *metrics.Metrics
	group    singleflight.Group
}

type Option func(*Resolver)

// WithCache sets the cache. Without one every lookup goes to the fetcher.
func WithCache(c Cache) Option { return func(r *Resolver) { r.cache = c } }

func WithLogger(l logging.Logger) Option { return func(r *Resolver) { r.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(r *Resolver) { r.metrics = m } }

// NewResolver returns a resolver. searcher may be nil, in which case
// Discover always fails.
func NewResolver(f Fetcher, s Searcher, opts ...Option) *Resolver {
	r := &Resolver{fetcher: f, searcher: s, log: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lookup returns the reference for acc, from the cache if it is there.
// Cache failures are logged and otherwise ignored.
func (r *Resolver) Lookup(ctx context.Context, acc string) (*Reference, error) {
	acc = strings.TrimSpace(acc)
	if acc == "" {
		return nil, pdberr.Lookup("lookup", "empty accession")
	}
	v, err, _ := r.group.Do(acc, func() (any, error) {
		if r.cache != nil {
			ref, err := r.cache.Get(ctx, acc)
			if err != nil {
				r.log.Warn("reference cache read failed", logging.String("accession", acc), logging.Err(err))
			}
			r.metrics.Cache(ref != nil)
			if ref != nil {
				return ref, nil
			}
		}
		ref, err := r.fetcher.Fetch(ctx, acc)
		if err != nil {
			return nil, err
		}
		r.log.Info("fetched reference",
			logging.String("accession", ref.Accession),
			logging.Int("length", len(ref.Sequence)),
			logging.String("name", ref.Name),
			logging.String("gene", ref.Gene),
			logging.String("organism", ref.Organism))
		if r.cache != nil {
			if err := r.cache.Put(ctx, ref); err != nil {
				r.log.Warn("reference cache write failed", logging.String("accession", acc), logging.Err(err))
			}
		}
		return ref, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Reference), nil
}

// Resolve looks up each accession on its own. A bad accession does not
// stop the others; it goes into the failures. Only a cancelled or
// expired context is returned as an error.
func (r *Resolver) Resolve(ctx context.Context, accs []string) ([]*Reference, []Failure, error) {
	var refs []*Reference
	var failed []Failure
	for _, acc := range accs {
		ref, err := r.Lookup(ctx, acc)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			r.log.Warn("reference lookup failed", logging.String("accession", acc), logging.Err(err))
			failed = append(failed, Failure{Accession: acc, Err: err})
			continue
		}
		refs = append(refs, ref)
	}
	return refs, failed, nil
}

// Discover searches once with seq, takes the single top hit and looks it
// up.
func (r *Resolver) Discover(ctx context.Context, seq string) (*Reference, error) {
	const op = "discover"
	if r.searcher == nil {
		return nil, pdberr.Lookup(op, "no homology search configured")
	}
	acc, err := r.searcher.Search(ctx, seq)
	if err != nil {
		return nil, err
	}
	r.log.Info("homology search hit", logging.String("accession", acc))
	ref, err := r.Lookup(ctx, acc)
	if err != nil {
		return nil, err
	}
	return ref, nil
}
