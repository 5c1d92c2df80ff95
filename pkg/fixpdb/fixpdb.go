// Package fixpdb is the top level of the fixpdb command, after the
// command line has been read. It reads a structure, renumbers its
// protein chains in reference coordinates and writes it out again.
package fixpdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/andrew-torda/pdbrenum/align"
	"github.com/andrew-torda/pdbrenum/internal/config"
	"github.com/andrew-torda/pdbrenum/internal/logging"
	"github.com/andrew-torda/pdbrenum/internal/metrics"
	"github.com/andrew-torda/pdbrenum/pdb"
	"github.com/andrew-torda/pdbrenum/pdb/chainseq"
	"github.com/andrew-torda/pdbrenum/pdb/structure"
	"github.com/andrew-torda/pdbrenum/pdberr"
	"github.com/andrew-torda/pdbrenum/refseq"
	"github.com/andrew-torda/pdbrenum/renumber"
	"github.com/redis/go-redis/v9"
)

const (
	ExitSuccess = iota
	ExitFailure
	ExitUsageError
)

// Options say what to read and write.
type Options struct {
	Input      string
	Code       string // pdb code to download when Input is empty
	Output     string
	References []string // accessions to try before any homology search
	Restart    bool     // do nothing if Output exists
}

// Deps are the collaborators of a run. Only Resolver has to be set.
type Deps struct {
	Resolver renumber.Resolver
	Aligner  *align.Aligner
	Site     pdb.Site     // where Code is downloaded from
	Client   *http.Client // for the download
	Workers  int
	Log      logging.Logger
	Metrics  *metrics.Metrics
}

// Report says what a run did.
type Report struct {
	Skipped    bool // output was there already
	Chained    bool // chains were rebuilt from CA distances
	State      renumber.State
	References []*refseq.Reference
	Mapped     int
	Trace      *renumber.Trace
}

// Run renumbers opts.Input into opts.Output. When some protein chain
// cannot be matched the error is pdberr.ErrMappingFailure, the report
// is still filled in and nothing is written.
func Run(ctx context.Context, opts Options, deps Deps) (*Report, error) {
	log := deps.Log
	if log == nil {
		log = logging.NewNopLogger()
	}
	if deps.Resolver == nil {
		return nil, errors.New("fixpdb: no reference resolver")
	}
	if opts.Restart {
		if _, err := os.Stat(opts.Output); err == nil {
			log.Info("output exists, skipping", logging.String("output", opts.Output))
			return &Report{Skipped: true}, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	s, err := read(ctx, opts, deps, log)
	if err != nil {
		return nil, err
	}
	rep := &Report{}
	if s.NeedsChaining() {
		if err := s.RawProteinChainer(); err != nil {
			return nil, err
		}
		rep.Chained = true
		log.Info("rebuilt chains from CA distances", logging.Int("chains", len(s.Chains())))
	}

	al := deps.Aligner
	if al == nil {
		al = align.New(nil, align.DefaultParams)
	}
	rn := renumber.New(al, deps.Resolver,
		renumber.WithWorkers(deps.Workers),
		renumber.WithLogger(log.Named("renumber")),
		renumber.WithMetrics(deps.Metrics))
	out, err := rn.Map(ctx, s, opts.References)
	if err != nil {
		return nil, err
	}
	rep.State, rep.Trace = out.State, out.Trace
	if out.State != renumber.Resolved {
		var unmatched []string
		for _, m := range out.Matches {
			if m.Reference == nil {
				unmatched = append(unmatched, m.Chain.Name)
			}
		}
		return rep, fmt.Errorf("%w: chains %s", pdberr.ErrMappingFailure, strings.Join(unmatched, " "))
	}
	rep.References = out.Mapping.References
	rep.Mapped = out.Mapping.Mapped()
	if err := renumber.Apply(s, out.Mapping); err != nil {
		return nil, err
	}
	if err := pdb.WriteFile(opts.Output, s); err != nil {
		return nil, err
	}
	log.Info("fixed",
		logging.String("output", opts.Output),
		logging.Int("mapped_residues", rep.Mapped),
		logging.String("run_id", out.Trace.RunID))
	return rep, nil
}

// read takes the input file, or downloads opts.Code if there is none.
func read(ctx context.Context, opts Options, deps Deps, log logging.Logger) (*structure.Structure, error) {
	switch {
	case opts.Input != "":
		return pdb.ReadFile(opts.Input)
	case opts.Code == "":
		return nil, errors.New("fixpdb: no input file or pdb code")
	}
	site := deps.Site
	if site.Base == "" {
		site = pdb.RCSB
	}
	log.Info("downloading", logging.String("code", opts.Code), logging.String("url", site.URL(opts.Code)))
	s, err := pdb.Download(ctx, deps.Client, site, opts.Code)
	deps.Metrics.Remote("pdb", err)
	return s, err
}

// Setup builds the reference resolver a config asks for. The returned
// function releases what Setup opened. A redis that does not answer is
// logged and the run goes on without a cache.
func Setup(ctx context.Context, cfg *config.Config, log logging.Logger, m *metrics.Metrics) (Deps, func()) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	up := refseq.NewUniProt(cfg.Remote.UniProtURL, cfg.Remote.Timeout)
	up.Metrics = m
	bl := refseq.NewBlast(cfg.Remote.BlastURL, cfg.Remote.BlastDatabase, cfg.Remote.BlastTimeout, cfg.Remote.BlastPoll)
	bl.Metrics = m

	opts := []refseq.Option{refseq.WithLogger(log.Named("refseq")), refseq.WithMetrics(m)}
	closer := func() {}
	if cfg.Cache.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr, DB: cfg.Cache.DB})
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.Ping(pctx).Err()
		cancel()
		if err != nil {
			log.Warn("reference cache unavailable", logging.String("addr", cfg.Cache.RedisAddr), logging.Err(err))
			client.Close()
		} else {
			cache := refseq.NewRedisCache(client, cfg.Cache.Prefix, cfg.Cache.TTL)
			opts = append(opts, refseq.WithCache(cache))
			closer = func() { cache.Close() }
		}
	}
	site, err := pdb.SiteNamed(cfg.Remote.PDBSite, cfg.Remote.PDBURL)
	if err != nil {
		log.Warn("unknown pdb site, using rcsb", logging.String("site", cfg.Remote.PDBSite))
		site = pdb.RCSB
	}
	deps := Deps{
		Resolver: refseq.NewResolver(up, bl, opts...),
		Site:     site,
		Client:   &http.Client{Timeout: cfg.Remote.Timeout},
		Aligner: align.New(nil, align.Params{
			GapOpen:   cfg.Align.GapOpen,
			GapExtend: cfg.Align.GapExtend,
			MinScore:  cfg.Align.MinScore,
		}),
		Workers: cfg.Align.Workers,
		Log:     log,
		Metrics: m,
	}
	return deps, closer
}

// Summary writes counts and the sequence of every chain.
func Summary(w io.Writer, s *structure.Structure) error {
	if _, err := fmt.Fprintf(w, "Atoms: %d\nResidues: %d\nChains: %d\n",
		len(s.Atoms()), len(s.Residues()), len(s.Chains())); err != nil {
		return err
	}
	for _, cs := range chainseq.Sequences(s) {
		kind := "protein"
		if !cs.IsProtein() {
			kind = "not protein"
		}
		if _, err := fmt.Fprintf(w, "Chain %s (%d residues, %s)\n -> %s\n",
			cs.Name, len(cs.Residues), kind, cs.Seq); err != nil {
			return err
		}
	}
	return nil
}
