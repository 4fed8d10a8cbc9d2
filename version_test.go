// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package ids_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/featurebasedb/ids"
	"github.com/featurebasedb/ids/logger"
	"github.com/stretchr/testify/assert"
)

func TestVersionInfo(t *testing.T) {
	defer func(v, c string) { ids.Version, ids.Commit = v, c }(ids.Version, ids.Commit)
	ids.Version, ids.Commit = "v1.2.3", "abc123"
	info := ids.VersionInfo()
	assert.True(t, strings.HasPrefix(info, "ids v1.2.3 (abc123)"), info)
}

func TestCmdIOVerbose(t *testing.T) {
	var stderr bytes.Buffer
	cio := ids.NewCmdIO(nil, nil, &stderr)
	cio.Logger().Debugf("hidden")
	cio.SetVerbose(true)
	cio.Logger().Debugf("shown")
	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), logger.LevelPrefix(logger.LevelDebug)+"shown")
}
