package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andrew-torda/pdbrenum/internal/config"
	"github.com/andrew-torda/pdbrenum/internal/logging"
	"github.com/andrew-torda/pdbrenum/internal/metrics"
	"github.com/andrew-torda/pdbrenum/pdb"
	"github.com/andrew-torda/pdbrenum/pkg/fixpdb"
	"github.com/spf13/cobra"
)

type usageError struct{ error }

type rootOptions struct {
	input, output string
	code          string
	configPath    string
	references    []string
	restart       bool
	logLevel      string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "fixpdb -i in.pdb -o out.pdb",
		Short:         "Renumber protein residues in reference (UniProt) coordinates",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case opts.output == "":
				return usageError{errors.New("need -o")}
			case (opts.input == "") == (opts.code == ""):
				return usageError{errors.New("need one of -i or --pdb")}
			}
			return runFix(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "input pdb file, may be gzipped")
	f.StringVar(&opts.code, "pdb", "", "download this pdb code instead of reading -i")
	f.StringVarP(&opts.output, "output", "o", "", "output pdb file")
	f.StringArrayVarP(&opts.references, "ref", "r", nil, "UniProt accession to try first (repeat, or quote a list)")
	f.BoolVar(&opts.restart, "restart", false, "do nothing if the output exists")
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "yaml config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })
	cmd.AddCommand(newSummaryCommand())
	return cmd
}

func newSummaryCommand() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "summary -i in.pdb",
		Short: "Print chains and sequences of a structure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if input == "" {
				return usageError{errors.New("need -i")}
			}
			s, err := pdb.ReadFile(input)
			if err != nil {
				return err
			}
			return fixpdb.Summary(cmd.OutOrStdout(), s)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "input pdb file")
	return cmd
}

func runFix(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return usageError{err}
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if cmd.Flags().Changed("restart") {
		cfg.Restart = opts.restart
	}
	refs := config.SplitReferences(opts.references)
	if len(refs) == 0 {
		refs = cfg.References
	}
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return usageError{err}
	}
	defer logger.Sync()

	m := metrics.New()
	deps, closer := fixpdb.Setup(cmd.Context(), cfg, logger, m)
	defer closer()
	rep, err := fixpdb.Run(cmd.Context(), fixpdb.Options{
		Input:      opts.input,
		Code:       opts.code,
		Output:     opts.output,
		References: refs,
		Restart:    cfg.Restart,
	}, deps)
	if werr := m.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
		logger.Warn("writing metrics", logging.Err(werr))
	}
	if rep != nil && rep.Trace != nil {
		for _, e := range rep.Trace.Failures() {
			logger.Warn(e.String())
		}
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err == nil {
		os.Exit(fixpdb.ExitSuccess)
	}
	fmt.Fprintln(os.Stderr, "fixpdb:", err)
	var ue usageError
	if errors.As(err, &ue) {
		os.Exit(fixpdb.ExitUsageError)
	}
	os.Exit(fixpdb.ExitFailure)
}
