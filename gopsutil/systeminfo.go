// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package gopsutil reports the host facts the loader sizes itself by.
package gopsutil

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// MinWorkers is the smallest default decode pool.
const MinWorkers = 2

// SystemInfo collects CPU and memory information about the host using
// gopsutil. Results are cached after the first successful call.
type SystemInfo struct {
	memInfo *mem.VirtualMemoryStat
	logical int
}

// NewSystemInfo is a constructor for SystemInfo.
func NewSystemInfo() *SystemInfo {
	return &SystemInfo{}
}

// LogicalCores returns the number of logical CPUs.
func (s *SystemInfo) LogicalCores() (int, error) {
	if s.logical == 0 {
		n, err := cpu.Counts(true)
		if err != nil {
			return 0, err
		}
		s.logical = n
	}
	return s.logical, nil
}

// collectMemoryInfo fetches and caches memory stats
func (s *SystemInfo) collectMemoryInfo() (err error) {
	if s.memInfo == nil {
		s.memInfo, err = mem.VirtualMemory()
		if err != nil {
			return err
		}
	}
	return nil
}

// MemTotal returns the amount of total memory in bytes
func (s *SystemInfo) MemTotal() (uint64, error) {
	err := s.collectMemoryInfo()
	if err != nil {
		return 0, err
	}
	return s.memInfo.Total, err
}

// MemAvailable returns the amount of memory in bytes that can be used
// without swapping.
func (s *SystemInfo) MemAvailable() (uint64, error) {
	err := s.collectMemoryInfo()
	if err != nil {
		return 0, err
	}
	return s.memInfo.Available, err
}

// DefaultWorkers is the decode pool size used when none is configured: one
// worker per logical core, but never fewer than MinWorkers. If gopsutil
// can't count the cores, the Go runtime's count is used.
func DefaultWorkers() int {
	n, err := NewSystemInfo().LogicalCores()
	if err != nil || n <= 0 {
		n = runtime.NumCPU()
	}
	if n < MinWorkers {
		n = MinWorkers
	}
	return n
}
