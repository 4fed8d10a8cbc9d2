// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"github.com/featurebasedb/ids/config"
	"github.com/spf13/cobra"
)

// BuildConfigFlags attaches the flags of every config option to cmd. Flag
// names match the toml keys, so a config file or IDS_* environment
// variables can set the same options.
func BuildConfigFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	flags.StringVarP(&cfg.Base, "base", "b", cfg.Base, "Directory holding the register extracts.")
	flags.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Rows per decoded record batch.")
	flags.IntVar(&cfg.MaxThreads, "max-threads", cfg.MaxThreads, "Decode workers per register file.")
	flags.BoolVar(&cfg.UseFamilyFiltering, "use-family-filtering", cfg.UseFamilyFiltering, "Only keep subjects and parents named in the family file.")
	flags.BoolVar(&cfg.Diagnostic, "diagnostic", cfg.Diagnostic, "Fall back to synthetic data when no register can be loaded.")
	flags.StringVar(&cfg.MappingsDir, "mappings-dir", cfg.MappingsDir, "Directory of JSON code translation tables overriding the built-in ones.")
	flags.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Enable verbose logging.")

	// Parallel
	flags.BoolVar(&cfg.Parallel.Family, "parallel.family", cfg.Parallel.Family, "Decode the family file with several workers.")
	flags.BoolVar(&cfg.Parallel.Demographics, "parallel.bef", cfg.Parallel.Demographics, "Decode BEF files with several workers.")
	flags.BoolVar(&cfg.Parallel.Income, "parallel.ind", cfg.Parallel.Income, "Decode IND files with several workers.")
	flags.BoolVar(&cfg.Parallel.Education, "parallel.uddf", cfg.Parallel.Education, "Decode UDDF files with several workers.")
	flags.BoolVar(&cfg.Parallel.Employment, "parallel.akm", cfg.Parallel.Employment, "Decode AKM files with several workers.")

	// Paths
	flags.StringVar(&cfg.Paths.Family, "paths.family", cfg.Paths.Family, "Family file, or directory holding family.parquet.")
	flags.StringVar(&cfg.Paths.Demographics, "paths.bef", cfg.Paths.Demographics, "Directory of BEF extracts.")
	flags.StringVar(&cfg.Paths.Income, "paths.ind", cfg.Paths.Income, "Directory of IND extracts.")
	flags.StringVar(&cfg.Paths.Education, "paths.uddf", cfg.Paths.Education, "Directory of UDDF extracts.")
	flags.StringVar(&cfg.Paths.Employment, "paths.akm", cfg.Paths.Employment, "Directory of AKM extracts.")

	// Cache
	flags.IntVar(&cfg.Cache.Capacity, "cache.capacity", cfg.Cache.Capacity, "Maximum cached covariates; zero or less is unbounded.")
}
