package geno

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	GenoFile   string `toml:"geno_file"`
	PhenoFile  string `toml:"pheno_file"`
	MapFile    string `toml:"map_file"`
	FieldDelim string `toml:"field_delim"`

	OutDir   string `toml:"output_dir"`
	CacheDir string `toml:"cache_dir"`

	NumPerms   int     `toml:"num_permutations"`
	PermSeed   uint64  `toml:"perm_seed"`
	LodThres   float64 `toml:"lod_threshold"`
	MinSepCM   float64 `toml:"min_sep_cm"`
	MaxRF      float64 `toml:"linkage_max_rf"`
	MinLinkLod float64 `toml:"linkage_min_lod"`

	MafLB     float64 `toml:"maf_lb"`
	SnpMissUB float64 `toml:"gmiss"`
	HweUB     float64 `toml:"hwe_ub"`

	SnpListFile string  `toml:"snp_list_file"`
	LdWindowBP  float64 `toml:"ld_window_bp"`

	NumClusters int `toml:"num_clusters"`
	NumCoords   int `toml:"num_coords"`

	LocalNumThreads int    `toml:"local_num_threads"`
	MemoryLimit     uint64 `toml:"memory_limit"`

	Debug bool `toml:"debug"`
}

// LoadConfig decodes a global config file, then an optional local overlay on
// top of it.
func LoadConfig(globalPath, localPath string) (*Config, error) {
	config := &Config{
		FieldDelim: ",",
		NumPerms:   1000,
		LodThres:   4.0,
		MinSepCM:   10,
		MaxRF:      0.35,
		MinLinkLod: 3.0,
		NumCoords:  2,
	}
	if _, err := toml.DecodeFile(globalPath, config); err != nil {
		return nil, fmt.Errorf("decode %s: %w", globalPath, err)
	}
	if localPath != "" {
		if _, err := toml.DecodeFile(localPath, config); err != nil {
			return nil, fmt.Errorf("decode %s: %w", localPath, err)
		}
	}
	if config.OutDir != "" {
		if err := os.MkdirAll(config.OutDir, 0755); err != nil {
			return nil, err
		}
	}
	if config.CacheDir != "" {
		if err := os.MkdirAll(config.CacheDir, 0755); err != nil {
			return nil, err
		}
	}
	return config, nil
}

func (c *Config) Delim() rune {
	if c.FieldDelim == "" {
		return ','
	}
	return []rune(c.FieldDelim)[0]
}
