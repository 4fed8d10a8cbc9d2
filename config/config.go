// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package config holds the settings shared by the loader, the store and the
// cache. The same keys are used on the command line, in the environment
// (prefixed with IDS_) and in TOML config files.
package config

import (
	"strings"

	"github.com/featurebasedb/ids/errors"
	"github.com/featurebasedb/ids/gopsutil"
	"github.com/featurebasedb/ids/register"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when reading the environment.
const EnvPrefix = "IDS"

// DefaultBatchSize is the number of rows decoded per record batch.
const DefaultBatchSize = 65536

// Config represents the configuration for a load.
type Config struct {
	// Base is the directory holding the register extracts.
	Base string `toml:"base"`

	// BatchSize is the number of rows per decoded record batch.
	BatchSize int `toml:"batch-size"`

	// MaxThreads is the number of decode workers per file.
	MaxThreads int `toml:"max-threads"`

	// UseFamilyFiltering restricts the other registers to the subjects
	// and parents named in the family file.
	UseFamilyFiltering bool `toml:"use-family-filtering"`

	// Diagnostic enables the synthetic store when no register can be
	// loaded at all.
	Diagnostic bool `toml:"diagnostic"`

	// MappingsDir optionally overrides the built-in code translation
	// tables.
	MappingsDir string `toml:"mappings-dir"`

	Verbose bool `toml:"verbose"`

	// Parallel toggles multi-worker decoding per register. When off, the
	// register's files are read one after another by a single worker.
	Parallel struct {
		Family       bool `toml:"family"`
		Demographics bool `toml:"bef"`
		Income       bool `toml:"ind"`
		Education    bool `toml:"uddf"`
		Employment   bool `toml:"akm"`
	} `toml:"parallel"`

	// Paths overrides where each register is read from.
	Paths struct {
		Family       string `toml:"family"`
		Demographics string `toml:"bef"`
		Income       string `toml:"ind"`
		Education    string `toml:"uddf"`
		Employment   string `toml:"akm"`
	} `toml:"paths"`

	Cache struct {
		// Capacity bounds the covariate cache. Zero or less means the
		// cache grows without bound for the life of the process.
		Capacity int `toml:"capacity"`
	} `toml:"cache"`
}

// NewConfig returns an instance of Config with default options.
func NewConfig() *Config {
	c := &Config{
		BatchSize:          DefaultBatchSize,
		MaxThreads:         gopsutil.DefaultWorkers(),
		UseFamilyFiltering: true,
		Diagnostic:         true,
	}
	c.Parallel.Family = true
	c.Parallel.Demographics = true
	c.Parallel.Income = true
	c.Parallel.Education = true
	c.Parallel.Employment = true
	return c
}

// Validate reports the first setting which can't be used.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return errors.Newf(errors.ErrValidation, "batch-size must be positive, got %d", c.BatchSize)
	}
	if c.MaxThreads <= 0 {
		return errors.Newf(errors.ErrValidation, "max-threads must be positive, got %d", c.MaxThreads)
	}
	return nil
}

// ParallelFor returns the parallel toggle of a register.
func (c *Config) ParallelFor(k register.Kind) bool {
	switch k {
	case register.Family:
		return c.Parallel.Family
	case register.Demographics:
		return c.Parallel.Demographics
	case register.Income:
		return c.Parallel.Income
	case register.Education:
		return c.Parallel.Education
	case register.Employment:
		return c.Parallel.Employment
	}
	return false
}

// PathFor returns the path override of a register, or "".
func (c *Config) PathFor(k register.Kind) string {
	switch k {
	case register.Family:
		return c.Paths.Family
	case register.Demographics:
		return c.Paths.Demographics
	case register.Income:
		return c.Paths.Income
	case register.Education:
		return c.Paths.Education
	case register.Employment:
		return c.Paths.Employment
	}
	return ""
}

// FromEnv returns the defaults overlaid with any IDS_* environment
// variables, for library users that don't go through the command line.
// IDS_BATCH_SIZE sets batch-size and IDS_PARALLEL_BEF sets parallel.bef.
func FromEnv() (*Config, error) {
	c := NewConfig()
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("base", c.Base)
	v.SetDefault("batch-size", c.BatchSize)
	v.SetDefault("max-threads", c.MaxThreads)
	v.SetDefault("use-family-filtering", c.UseFamilyFiltering)
	v.SetDefault("diagnostic", c.Diagnostic)
	v.SetDefault("mappings-dir", c.MappingsDir)
	v.SetDefault("verbose", c.Verbose)
	v.SetDefault("cache.capacity", c.Cache.Capacity)

	c.Base = v.GetString("base")
	c.BatchSize = v.GetInt("batch-size")
	c.MaxThreads = v.GetInt("max-threads")
	c.UseFamilyFiltering = v.GetBool("use-family-filtering")
	c.Diagnostic = v.GetBool("diagnostic")
	c.MappingsDir = v.GetString("mappings-dir")
	c.Verbose = v.GetBool("verbose")
	c.Cache.Capacity = v.GetInt("cache.capacity")

	for _, k := range register.Kinds() {
		pkey, dkey := "parallel."+k.String(), "paths."+k.String()
		v.SetDefault(pkey, c.ParallelFor(k))
		v.SetDefault(dkey, "")
		c.setParallel(k, v.GetBool(pkey))
		c.setPath(k, v.GetString(dkey))
	}
	return c, c.Validate()
}

func (c *Config) setParallel(k register.Kind, on bool) {
	switch k {
	case register.Family:
		c.Parallel.Family = on
	case register.Demographics:
		c.Parallel.Demographics = on
	case register.Income:
		c.Parallel.Income = on
	case register.Education:
		c.Parallel.Education = on
	case register.Employment:
		c.Parallel.Employment = on
	}
}

func (c *Config) setPath(k register.Kind, path string) {
	switch k {
	case register.Family:
		c.Paths.Family = path
	case register.Demographics:
		c.Paths.Demographics = path
	case register.Income:
		c.Paths.Income = path
	case register.Education:
		c.Paths.Education = path
	case register.Employment:
		c.Paths.Employment = path
	}
}
