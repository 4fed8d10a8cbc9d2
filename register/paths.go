// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package register

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/featurebasedb/ids/errors"
)

// ParquetExt is the extension of register files.
const ParquetExt = ".parquet"

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// IsParquetFile reports whether path is a regular file with a .parquet
// extension.
func IsParquetFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ParquetExt) && isFile(path)
}

// ResolveDir returns where k's files live. It tries override if one is
// given, then base/<dir>, then base/registers/<dir>, and finally base itself.
// The returned path is not guaranteed to exist.
func ResolveDir(k Kind, base, override string) string {
	if override != "" && (isDir(override) || isFile(override)) {
		return override
	}
	for _, candidate := range []string{
		filepath.Join(base, k.String()),
		filepath.Join(base, "registers", k.String()),
	} {
		if isDir(candidate) {
			return candidate
		}
	}
	return base
}

// ResolveFamilyFile finds the single family relations file. Besides an
// explicit override it accepts base itself when base is a Parquet file, and
// otherwise probes a family.parquet directly under base, in base/family,
// and in the same two places under base/registers.
func ResolveFamilyFile(base, override string) (string, bool) {
	if override != "" {
		if IsParquetFile(override) {
			return override, true
		}
		if p := filepath.Join(override, "family"+ParquetExt); isFile(p) {
			return p, true
		}
	}
	if IsParquetFile(base) {
		return base, true
	}
	name := "family" + ParquetExt
	for _, candidate := range []string{
		filepath.Join(base, name),
		filepath.Join(base, "family", name),
		filepath.Join(base, "registers", name),
		filepath.Join(base, "registers", "family", name),
	} {
		if isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// PeriodFile is one per-period extract of a register.
type PeriodFile struct {
	Period string
	Path   string
}

// PeriodFiles lists the Parquet files in dir, one per period, sorted by
// period. The period is the file name without its extension. If dir is
// itself a Parquet file, it is returned as the only period.
func PeriodFiles(dir string) ([]PeriodFile, error) {
	if IsParquetFile(dir) {
		return []PeriodFile{{Period: PeriodOf(dir), Path: dir}}, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WithCode(errors.Wrapf(err, "listing %s", dir), errors.ErrIO)
	}
	var files []PeriodFile
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ParquetExt) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		files = append(files, PeriodFile{Period: PeriodOf(path), Path: path})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Period < files[j].Period })
	return files, nil
}

// PeriodOf returns the period a register file holds: its base name without
// the extension.
func PeriodOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
