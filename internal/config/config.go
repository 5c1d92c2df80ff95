// Package config loads the settings for a renumbering run from an
// optional YAML file and FIXPDB_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/andrew-torda/pdbrenum/internal/logging"
)

// Config is everything a run can be told.
type Config struct {
	Log        logging.Config `mapstructure:"log"`
	Remote     RemoteConfig   `mapstructure:"remote"`
	Cache      CacheConfig    `mapstructure:"cache"`
	Align      AlignConfig    `mapstructure:"align"`
	Metrics    MetricsConfig  `mapstructure:"metrics"`
	References []string       `mapstructure:"references"`
	Restart    bool           `mapstructure:"restart"`
}

// RemoteConfig points at the sequence services.
type RemoteConfig struct {
	UniProtURL    string        `mapstructure:"uniprot_url"`
	BlastURL      string        `mapstructure:"blast_url"`
	BlastDatabase string        `mapstructure:"blast_database"`
	Timeout       time.Duration `mapstructure:"timeout"`
	BlastTimeout  time.Duration `mapstructure:"blast_timeout"`
	BlastPoll     time.Duration `mapstructure:"blast_poll"`
	PDBSite       string        `mapstructure:"pdb_site"` // rcsb or pdbe
	PDBURL        string        `mapstructure:"pdb_url"`  // overrides the site's server
}

// CacheConfig is for the reference cache. An empty RedisAddr turns the
// cache off.
type CacheConfig struct {
	RedisAddr string        `mapstructure:"redis_addr"`
	DB        int           `mapstructure:"db"`
	Prefix    string        `mapstructure:"prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// AlignConfig sets the alignment scores. Each of the Workers alignments
// running at once holds a float32 score matrix and one direction byte
// per residue pair, so a 5000 residue reference against a 2000 residue
// chain needs about 50 MB.
type AlignConfig struct {
	GapOpen   float32 `mapstructure:"gap_open"`
	GapExtend float32 `mapstructure:"gap_extend"`
	MinScore  float64 `mapstructure:"min_score"`
	Workers   int     `mapstructure:"workers"`
}

// MetricsConfig names a node-exporter textfile. Empty means no metrics
// are written.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// SplitReferences flattens accessions given as lists, as space or comma
// separated strings, or both. Order is kept and repeats are dropped.
func SplitReferences(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range in {
		for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' }) {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

// Validate checks values that would make a run meaningless.
func (c *Config) Validate() error {
	switch {
	case c.Remote.UniProtURL == "":
		return fmt.Errorf("remote.uniprot_url is empty")
	case c.Remote.BlastURL == "":
		return fmt.Errorf("remote.blast_url is empty")
	case c.Remote.Timeout <= 0:
		return fmt.Errorf("remote.timeout must be positive, got %s", c.Remote.Timeout)
	case c.Remote.BlastTimeout <= 0:
		return fmt.Errorf("remote.blast_timeout must be positive, got %s", c.Remote.BlastTimeout)
	case c.Remote.BlastPoll <= 0:
		return fmt.Errorf("remote.blast_poll must be positive, got %s", c.Remote.BlastPoll)
	case c.Align.GapExtend < 0 || c.Align.GapOpen < c.Align.GapExtend:
		return fmt.Errorf("need gap_open >= gap_extend >= 0, got %g and %g",
			c.Align.GapOpen, c.Align.GapExtend)
	case c.Align.MinScore < 0:
		return fmt.Errorf("align.min_score is negative")
	case c.Align.Workers < 1:
		return fmt.Errorf("align.workers must be at least 1, got %d", c.Align.Workers)
	case c.Cache.RedisAddr != "" && c.Cache.TTL < 0:
		return fmt.Errorf("cache.ttl is negative")
	}
	switch strings.ToLower(c.Remote.PDBSite) {
	case "", "rcsb", "pdbe":
	default:
		return fmt.Errorf("remote.pdb_site %q is not rcsb or pdbe", c.Remote.PDBSite)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("log.format %q is not json or console", c.Log.Format)
	}
	return nil
}
