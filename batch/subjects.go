// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package batch provides tooling for the Arrow record batches held by the
// register store: subject filtering, layout normalization, validation and
// typed column access.
package batch

import (
	"sort"
)

// Subjects is a set of subject identifiers used to filter rows during
// ingest. A nil Subjects is an inactive filter which keeps every row. A
// non-nil but empty Subjects is active and keeps nothing.
type Subjects map[string]struct{}

// NewSubjects returns an active filter holding ids.
func NewSubjects(ids ...string) Subjects {
	s := make(Subjects, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add adds ids to the set.
func (s Subjects) Add(ids ...string) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Contains reports whether id is in the set. An inactive filter contains
// everything.
func (s Subjects) Contains(id string) bool {
	if s == nil {
		return true
	}
	_, ok := s[id]
	return ok
}

// Active reports whether the filter restricts anything.
func (s Subjects) Active() bool {
	return s != nil
}

func (s Subjects) Len() int {
	return len(s)
}

// Sorted returns the ids in lexical order.
func (s Subjects) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
