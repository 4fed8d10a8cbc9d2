// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package task provides a small work-stealing worker pool used by the
// ingest pipeline.
//
// The shape is the usual scheduler one. Each worker owns a local deque
// which it pushes to and pops from at the back. A shared injector queue
// holds work that doesn't belong to anybody yet; an idle worker grabs up to
// half of it at once, moving the surplus into its own deque. If both are
// empty, a worker tries to steal the oldest item from a sibling's deque.
// Only after all of that comes the optional source channel: first a
// non-blocking receive, then a blocking one.
//
// Two workloads use this. Decoding a single Parquet file has one feeder
// goroutine writing record batches into a bounded channel, and the pool's
// workers filter and normalize them as they arrive. Scanning a directory
// of per-period files pushes every file onto the injector up front and
// runs with no channel at all; workers exit when there is nothing left to
// find.
//
// A worker exits once its source is exhausted (or absent) and no queue it
// can see has anything in it. Work pushed by a handler onto its own deque
// is always picked up by that same worker before it exits, so nothing
// queued is ever lost.
package task
