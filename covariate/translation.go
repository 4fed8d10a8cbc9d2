// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package covariate

import (
	"embed"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/featurebasedb/ids/errors"
)

// TranslationType names a code table.
type TranslationType int

const (
	Statsb TranslationType = iota
	Civst
	FamilyType
	FmMark
	Hustype
	Reg
	Socio13
	Hfaudd
)

var translationFiles = [...]string{
	Statsb:     "statsb.json",
	Civst:      "civst.json",
	FamilyType: "family_type.json",
	FmMark:     "fm_mark.json",
	Hustype:    "hustype.json",
	Reg:        "reg.json",
	Socio13:    "socio13.json",
	Hfaudd:     "hfaudd.json",
}

func (t TranslationType) String() string {
	return translationFiles[t][:len(translationFiles[t])-len(".json")]
}

//go:embed mappings/*.json
var embedded embed.FS

// Translations maps register codes to labels, one table per
// TranslationType. It is safe for concurrent use.
type Translations struct {
	mu     sync.RWMutex
	tables map[TranslationType]map[string]string
}

// NewTranslations returns an empty set of tables; every lookup misses.
func NewTranslations() *Translations {
	return &Translations{tables: make(map[TranslationType]map[string]string)}
}

// DefaultTranslations returns the tables compiled into the binary.
func DefaultTranslations() *Translations {
	t := NewTranslations()
	for tt, name := range translationFiles {
		data, err := embedded.ReadFile("mappings/" + name)
		if err != nil {
			continue
		}
		_ = t.load(TranslationType(tt), data)
	}
	return t
}

// LoadDir replaces every table for which dir holds a JSON file (a flat
// object of code to label). Tables without a file are left alone.
func (t *Translations) LoadDir(dir string) error {
	for tt, name := range translationFiles {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return errors.WithCode(errors.Wrapf(err, "reading %s", name), errors.ErrIO)
		}
		if err := t.load(TranslationType(tt), data); err != nil {
			return errors.Wrapf(err, "loading %s", name)
		}
	}
	return nil
}

func (t *Translations) load(tt TranslationType, data []byte) error {
	table := make(map[string]string)
	if err := json.Unmarshal(data, &table); err != nil {
		return errors.WithCode(err, errors.ErrFormat)
	}
	t.mu.Lock()
	t.tables[tt] = table
	t.mu.Unlock()
	return nil
}

// Set adds or replaces a single code.
func (t *Translations) Set(tt TranslationType, code, label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tables[tt] == nil {
		t.tables[tt] = make(map[string]string)
	}
	t.tables[tt][code] = label
}

// Translate returns the label for code.
func (t *Translations) Translate(tt TranslationType, code string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	label, ok := t.tables[tt][code]
	return label, ok
}

// CodesFor returns, sorted, every code in a table whose label is label.
// This is how all HFAUDD codes belonging to one ISCED level are found.
func (t *Translations) CodesFor(tt TranslationType, label string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var codes []string
	for code, l := range t.tables[tt] {
		if l == label {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

// Len is the number of codes in a table.
func (t *Translations) Len(tt TranslationType) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.tables[tt])
}
