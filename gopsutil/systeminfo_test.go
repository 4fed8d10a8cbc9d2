// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package gopsutil_test

import (
	"testing"

	"github.com/featurebasedb/ids/gopsutil"
)

func TestSystemInfo(t *testing.T) {
	systemInfo := gopsutil.NewSystemInfo()

	cores, err := systemInfo.LogicalCores()
	if err != nil || cores < 1 {
		t.Fatalf("Error counting cores (cores: %d, error: %v)", cores, err)
	}

	total, err := systemInfo.MemTotal()
	if err != nil || total == 0 {
		t.Fatalf("Error getting total memory (error: %v)", err)
	}

	avail, err := systemInfo.MemAvailable()
	if err != nil || avail > total {
		t.Fatalf("Available memory must not exceed total. (available: %d, total: %d, error: %v)", avail, total, err)
	}
}

func TestDefaultWorkers(t *testing.T) {
	if n := gopsutil.DefaultWorkers(); n < gopsutil.MinWorkers {
		t.Fatalf("DefaultWorkers() = %d, want at least %d", n, gopsutil.MinWorkers)
	}
}
