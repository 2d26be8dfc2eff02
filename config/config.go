// Package config holds the settings shared by the binaries.
package config

import (
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/carbocation/pfx"
)

type Config struct {
	// SQLite database holding genomes and models.
	Database string `toml:"database"`

	Trials  int   `toml:"trials"`
	Buckets int   `toml:"buckets"`
	Workers int   `toml:"workers"`
	Seed    int64 `toml:"seed"` // 0 means a fresh random seed per analysis

	ResolverWorkers int `toml:"resolver_workers"`

	AbsentCacheSize int `toml:"absent_cache_size"`
	ModelCacheSize  int `toml:"model_cache_size"`

	Listen     string `toml:"listen"`
	CatalogURL string `toml:"catalog_url"`

	// SkipIndels drops multi-letter effect alleles when registering scores.
	SkipIndels bool `toml:"skip_indels"`
}

func Default() Config {
	return Config{
		Database:        "pgsinherit.sqlite",
		Trials:          20000,
		Buckets:         20,
		Workers:         runtime.NumCPU(),
		ResolverWorkers: 8,
		AbsentCacheSize: 100000,
		ModelCacheSize:  64,
		Listen:          ":8080",
		CatalogURL:      "https://www.pgscatalog.org",
	}
}

// Load reads the TOML file at path over the defaults. An empty path yields
// the defaults.
func Load(path string) (Config, error) {
	config := Default()

	if path == "" {
		return config, nil
	}

	if _, err := toml.DecodeFile(path, &config); err != nil {
		return config, pfx.Err(err)
	}

	return config, nil
}
