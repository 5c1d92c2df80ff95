package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "FIXPDB"

// Default service locations.
const (
	DefaultUniProtURL = "https://www.ebi.ac.uk"
	DefaultBlastURL   = "https://blast.ncbi.nlm.nih.gov/Blast.cgi"
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

// setDefaults registers every key. Unmarshal only looks at keys viper
// knows, so a key without a default cannot be set from the environment.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_paths", []string{"stderr"})
	v.SetDefault("remote.uniprot_url", DefaultUniProtURL)
	v.SetDefault("remote.blast_url", DefaultBlastURL)
	v.SetDefault("remote.blast_database", "swissprot")
	v.SetDefault("remote.timeout", 30*time.Second)
	v.SetDefault("remote.blast_timeout", 15*time.Minute)
	v.SetDefault("remote.blast_poll", 10*time.Second)
	v.SetDefault("remote.pdb_site", "rcsb")
	v.SetDefault("remote.pdb_url", "")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.prefix", "pdbrenum:ref:")
	v.SetDefault("cache.ttl", 7*24*time.Hour)
	v.SetDefault("align.gap_open", 10.0)
	v.SetDefault("align.gap_extend", 0.5)
	v.SetDefault("align.min_score", 1.0)
	v.SetDefault("align.workers", runtime.NumCPU())
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("references", []string{})
	v.SetDefault("restart", false)
}

// Load reads the YAML file at path if path is not empty, then the
// environment, then checks the result.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %q: %w", path, err)
		}
	}
	return unmarshalAndFinalize(v)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.References = SplitReferences(cfg.References)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
