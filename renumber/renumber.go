// Package renumber matches the protein chains of a structure to
// reference sequences and works out reference residue numbers for them.
//
// A run goes
//
//	Init -> Sequenced -> MatchedAll -> Resolved
//	                  -> NeedsBlast -> Resolved | Failed
//
// Forced accessions are tried first. Chains still without a reference
// are sent, one at a time and in structure order, to a homology search
// and every chain is scored again against the grown pool. A run that
// ends with an unmatched protein chain has no mapping at all.
package renumber

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/andrew-torda/pdbrenum/align"
	"github.com/andrew-torda/pdbrenum/internal/logging"
	"github.com/andrew-torda/pdbrenum/internal/metrics"
	"github.com/andrew-torda/pdbrenum/pdb/chainseq"
	"github.com/andrew-torda/pdbrenum/pdb/structure"
	"github.com/andrew-torda/pdbrenum/refseq"
	"golang.org/x/sync/errgroup"
)

// Resolver is what a run needs from the reference side.
type Resolver interface {
	Resolve(ctx context.Context, accs []string) ([]*refseq.Reference, []refseq.Failure, error)
	Discover(ctx context.Context, seq string) (*refseq.Reference, error)
}

// Match is the best accepted alignment of one protein chain. Reference
// and Result are nil while the chain has none.
type Match struct {
	Chain     chainseq.ChainSeq
	Reference *refseq.Reference
	Result    *align.Result
}

// Outcome is what Map found. Mapping is nil unless State is Resolved.
type Outcome struct {
	State      State
	Mapping    *Mapping
	Matches    []Match  // protein chains, structure order
	NonProtein []string // names of chains left alone
	Trace      *Trace
}

// Renumberer runs renumbering. It keeps nothing between runs and can be
// shared.
type Renumberer struct {
	aligner  *align.Aligner
	resolver Resolver
	workers  int
	log      logging.Logger
	metrics  *metrics.Metrics
}

type Option func(*Renumberer)

// WithWorkers bounds how many alignments run at once.
func WithWorkers(n int) Option {
	return func(r *Renumberer) {
		if n > 0 {
			r.workers = n
		}
	}
}

func WithLogger(l logging.Logger) Option { return func(r *Renumberer) { r.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(r *Renumberer) { r.metrics = m } }

func New(al *align.Aligner, res Resolver, opts ...Option) *Renumberer {
	r := &Renumberer{
		aligner:  al,
		resolver: res,
		workers:  runtime.NumCPU(),
		log:      logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type pairKey struct {
	chain int // index into run.protein
	acc   string
}

// run is the state of one call to Map.
type run struct {
	*Renumberer
	log     logging.Logger
	trace   *Trace
	protein []chainseq.ChainSeq
	chains  []chainseq.ChainSeq // every chain, for the summary
	protIdx []int               // chains[i] is protein[protIdx[i]], or -1
	pool    []*refseq.Reference
	inPool  map[string]bool
	scored  map[pairKey]*align.Result // nil result means rejected
	best    []Match
}

// Map works out the mapping for s. The structure is only read. forced
// are accessions to try before any homology search; ones that cannot be
// fetched are noted in the trace and skipped.
//
// A run that fails to match every protein chain is not an error: the
// Outcome has State Failed and no Mapping. Errors are a cancelled or
// expired ctx and alignment consistency failures.
func (rn *Renumberer) Map(ctx context.Context, s *structure.Structure, forced []string) (*Outcome, error) {
	start := time.Now()
	r := &run{
		Renumberer: rn,
		trace:      newTrace(),
		inPool:     make(map[string]bool),
		scored:     make(map[pairKey]*align.Result),
	}
	r.log = rn.log.With(logging.String("run_id", r.trace.RunID))
	out, err := r.do(ctx, s, forced)
	state := r.trace.State()
	if err != nil {
		state = Failed
		r.log.Error("renumbering aborted", logging.Err(err))
	}
	rn.metrics.Run(state.String(), time.Since(start))
	return out, err
}

func (r *run) do(ctx context.Context, s *structure.Structure, forced []string) (*Outcome, error) {
	r.chains = chainseq.Sequences(s)
	out := &Outcome{Trace: r.trace}
	r.protIdx = make([]int, len(r.chains))
	for i, cs := range r.chains {
		r.protIdx[i] = -1
		if cs.IsProtein() {
			r.protIdx[i] = len(r.protein)
			r.protein = append(r.protein, cs)
		} else {
			out.NonProtein = append(out.NonProtein, cs.Name)
			r.metrics.Alignment(metrics.Skipped)
		}
	}
	r.best = make([]Match, len(r.protein))
	for i, cs := range r.protein {
		r.best[i].Chain = cs
	}
	r.trace.enter(Sequenced)
	r.trace.note("", "", fmt.Sprintf("%d protein and %d other chains", len(r.protein), len(out.NonProtein)))

	if len(forced) > 0 {
		refs, failed, err := r.resolver.Resolve(ctx, forced)
		if err != nil {
			return nil, err
		}
		for _, f := range failed {
			r.trace.fail("", f.Accession, "forced reference not usable", f.Err)
		}
		for _, ref := range refs {
			r.addRef(ref)
		}
	}
	if err := r.score(ctx); err != nil {
		return nil, err
	}
	r.summary()

	if r.allMatched() {
		r.trace.enter(MatchedAll)
	} else {
		r.trace.enter(NeedsBlast)
		if err := r.blast(ctx); err != nil {
			return nil, err
		}
	}
	out.Matches = r.best
	if !r.allMatched() {
		r.trace.enter(Failed)
		r.log.Warn("no reference for every protein chain", logging.String("unmatched", strings.Join(r.unmatched(), " ")))
		out.State = Failed
		return out, nil
	}
	m, err := buildMapping(len(s.Residues()), r.best)
	if err != nil {
		return nil, err
	}
	r.trace.enter(Resolved)
	out.State = Resolved
	out.Mapping = m
	r.log.Info("renumbering resolved",
		logging.String("references", strings.Join(m.Accessions(), " ")),
		logging.Int("mapped_residues", m.Mapped()))
	return out, nil
}

// blast takes the orphans in structure order. An orphan that a previous
// discovery already fixed is skipped.
func (r *run) blast(ctx context.Context) error {
	for i := range r.protein {
		if r.best[i].Reference != nil {
			continue
		}
		name := r.protein[i].Name
		ref, err := r.resolver.Discover(ctx, r.protein[i].Seq)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			r.trace.fail(name, "", "homology search gave nothing usable", err)
			r.log.Warn("homology search failed", logging.String("chain", name), logging.Err(err))
			continue
		}
		if !r.addRef(ref) {
			r.trace.note(name, ref.Accession, "homology hit already in the pool")
			continue
		}
		if err := r.score(ctx); err != nil {
			return err
		}
		r.summary()
		if r.best[i].Reference == nil {
			r.trace.note(name, ref.Accession, "discovered reference does not match the chain that found it")
			r.log.Warn("discovered reference below threshold",
				logging.String("chain", name), logging.String("accession", ref.Accession))
		}
		if r.allMatched() {
			break
		}
	}
	return nil
}

// addRef is false if the accession is already pooled.
func (r *run) addRef(ref *refseq.Reference) bool {
	if r.inPool[ref.Accession] {
		return false
	}
	r.inPool[ref.Accession] = true
	r.pool = append(r.pool, ref)
	r.trace.note("", ref.Accession, "reference added to pool")
	return true
}

type job struct {
	chain int
	ref   *refseq.Reference
}

// score aligns every pair not yet scored, in parallel, then picks the
// best for each chain again from scratch. Only a strictly higher score
// replaces a match, so ties go to the reference pooled first.
func (r *run) score(ctx context.Context) error {
	var jobs []job
	for i := range r.protein {
		for _, ref := range r.pool {
			if _, done := r.scored[pairKey{i, ref.Accession}]; !done {
				jobs = append(jobs, job{i, ref})
			}
		}
	}
	results := make([]*align.Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for k, jb := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.aligner.Align(jb.ref.Sequence, r.protein[jb.chain].Seq)
			if err != nil {
				return fmt.Errorf("chain %s against %s: %w", r.protein[jb.chain].Name, jb.ref.Accession, err)
			}
			results[k] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for k, jb := range jobs {
		r.scored[pairKey{jb.chain, jb.ref.Accession}] = results[k]
		if results[k] == nil {
			r.metrics.Alignment(metrics.Rejected)
		} else {
			r.metrics.Alignment(metrics.Accepted)
		}
	}
	for i := range r.protein {
		m := Match{Chain: r.protein[i]}
		for _, ref := range r.pool {
			res := r.scored[pairKey{i, ref.Accession}]
			if res == nil {
				continue
			}
			if m.Result == nil || res.Score > m.Result.Score {
				m.Reference, m.Result = ref, res
			}
		}
		r.best[i] = m
	}
	return nil
}

func (r *run) allMatched() bool {
	return len(r.unmatched()) == 0
}

func (r *run) unmatched() []string {
	var ret []string
	for _, m := range r.best {
		if m.Reference == nil {
			ret = append(ret, m.Chain.Name)
		}
	}
	return ret
}

// summary notes, for every chain, what it is matched to. Unmatched
// protein chains are "¿?".
func (r *run) summary() {
	parts := make([]string, 0, len(r.chains))
	for i, cs := range r.chains {
		what := "not protein"
		if k := r.protIdx[i]; k >= 0 {
			what = "¿?"
			if m := r.best[k]; m.Reference != nil {
				what = fmt.Sprintf("%s (%.2f)", m.Reference.Accession, m.Result.Score)
			}
		}
		parts = append(parts, cs.Name+" -> "+what)
	}
	line := strings.Join(parts, ", ")
	r.trace.note("", "", "reference summary: "+line)
	r.log.Info("reference summary", logging.String("chains", line), logging.Int("pool", len(r.pool)))
}
