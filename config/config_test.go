// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package config_test

import (
	"testing"

	"github.com/featurebasedb/ids/config"
	"github.com/featurebasedb/ids/errors"
	"github.com/featurebasedb/ids/gopsutil"
	"github.com/featurebasedb/ids/register"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	c := config.NewConfig()
	assert.Equal(t, config.DefaultBatchSize, c.BatchSize)
	assert.GreaterOrEqual(t, c.MaxThreads, gopsutil.MinWorkers)
	assert.True(t, c.UseFamilyFiltering)
	assert.True(t, c.Diagnostic)
	for _, k := range register.Kinds() {
		assert.True(t, c.ParallelFor(k), k.String())
		assert.Empty(t, c.PathFor(k), k.String())
	}
	require.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	c := config.NewConfig()
	c.BatchSize = 0
	assert.True(t, errors.Is(c.Validate(), errors.ErrValidation))

	c = config.NewConfig()
	c.MaxThreads = -1
	assert.True(t, errors.Is(c.Validate(), errors.ErrValidation))
}

func TestFromEnv(t *testing.T) {
	t.Setenv("IDS_BATCH_SIZE", "1024")
	t.Setenv("IDS_MAX_THREADS", "3")
	t.Setenv("IDS_PARALLEL_AKM", "false")
	t.Setenv("IDS_PATHS_BEF", "/data/bef-2020")
	t.Setenv("IDS_USE_FAMILY_FILTERING", "false")
	t.Setenv("IDS_CACHE_CAPACITY", "500")

	c, err := config.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 1024, c.BatchSize)
	assert.Equal(t, 3, c.MaxThreads)
	assert.False(t, c.ParallelFor(register.Employment))
	assert.True(t, c.ParallelFor(register.Demographics))
	assert.Equal(t, "/data/bef-2020", c.PathFor(register.Demographics))
	assert.False(t, c.UseFamilyFiltering)
	assert.Equal(t, 500, c.Cache.Capacity)
}

func TestFromEnvInvalid(t *testing.T) {
	t.Setenv("IDS_BATCH_SIZE", "-5")
	_, err := config.FromEnv()
	assert.True(t, errors.Is(err, errors.ErrValidation))
}
