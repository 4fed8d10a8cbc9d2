// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"bufio"
	"os"
	"strings"

	"github.com/featurebasedb/ids/batch"
	"github.com/featurebasedb/ids/errors"
)

// ReadSubjectsFile reads subject identifiers from path, one per line. Blank
// lines and lines starting with # are ignored.
func ReadSubjectsFile(path string) (batch.Subjects, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithCode(errors.Wrap(err, "opening subjects file"), errors.ErrIO)
	}
	defer f.Close()

	subjects := batch.NewSubjects()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		subjects.Add(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WithCode(errors.Wrapf(err, "reading %s", path), errors.ErrIO)
	}
	return subjects, nil
}

// subjectFilter combines subjects named on the command line with those of
// a subjects file. It returns nil, meaning no filter, when there are none.
func subjectFilter(ids []string, file string) (batch.Subjects, error) {
	var out batch.Subjects
	if file != "" {
		s, err := ReadSubjectsFile(file)
		if err != nil {
			return nil, err
		}
		out = s
	}
	if len(ids) > 0 {
		if out == nil {
			out = batch.NewSubjects()
		}
		for _, id := range ids {
			out.Add(id)
		}
	}
	return out, nil
}
