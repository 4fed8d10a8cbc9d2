// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package ingest reads register extracts into Arrow record batches and
// feeds them to a store. The overall pipeline is:
//
//  1. resolve where each register's files live below the base directory
//  2. load the family file, and derive the subject filter from it
//  3. spread each register's per-period files over a worker pool
//  4. per file, stream batches from one feeder goroutine to decode workers
//  5. per batch, filter to the wanted subjects, validate and normalize
//  6. hand every register's batches to the store, one register at a time
//
// A file which fails never stops the others; it is reported instead.
package ingest
