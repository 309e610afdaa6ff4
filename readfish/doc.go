// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package readfish summarises the alignments of a nanopore adaptive-sampling
// (readfish) run.
//
// A Summary attributes each aligned read to an experimental condition, using
// the read's channel and barcode, and records whether its alignment overlaps
// that condition's target regions.  Channel and barcode usually come from ch
// and ba tags on the PAF line.  When they are missing, they are joined in from
// the sequencing summary, whose rows are held in a bounded first-in first-out
// window (see circular.JoinBuffer) because the two streams are only roughly
// in step.
//
// Ingest runs in two stages.  PAF lines of a batch are parsed in parallel,
// then resolved, classified and counted one at a time in input order, since
// both the join window and the totals depend on that order.  Snapshot may be
// called between batches and never changes state.
package readfish
