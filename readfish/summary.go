// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package readfish

import (
	"runtime"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/looselab/readfishsum/circular"
	"github.com/looselab/readfishsum/config"
	"github.com/looselab/readfishsum/encoding/paf"
	"github.com/looselab/readfishsum/encoding/seqsum"
)

// Opts configures a Summary.
type Opts struct {
	// JoinBufferSize is the number of sequencing summary rows kept while
	// waiting for their alignments.
	JoinBufferSize int
	// Parallelism bounds the number of goroutines parsing PAF lines.
	Parallelism int
	// JoinBuffer, if set, replaces the default circular.JoinBuffer and
	// JoinBufferSize is ignored.
	JoinBuffer JoinBuffer
}

// DefaultOpts are the default Summary options.
var DefaultOpts = Opts{
	JoinBufferSize: circular.DefaultJoinBufferSize,
	Parallelism:    runtime.NumCPU(),
}

// Input is one PAF line, optionally with its read metadata already known.
type Input struct {
	Line     string
	Metadata *ReadMetadata
}

// IngestStats counts what happened to the inputs of one Ingest call.
type IngestStats struct {
	Processed         int
	SkippedParseError int
	SkippedUnresolved int
}

// Add accumulates o into s.
func (s *IngestStats) Add(o IngestStats) {
	s.Processed += o.Processed
	s.SkippedParseError += o.SkippedParseError
	s.SkippedUnresolved += o.SkippedUnresolved
}

// Summary is the running summary of one readfish run.  All methods are
// serialized on a single lock and may be called from any goroutine.
type Summary struct {
	mu          sync.Mutex
	parallelism int
	cls         *classifier
	res         resolver
	agg         aggregator
}

type parsed struct {
	rec *paf.Record
	err error
}

// NewSummary creates an unconfigured Summary.  Zero fields of opts take their
// value from DefaultOpts.
func NewSummary(opts Opts) *Summary {
	if opts.Parallelism <= 0 {
		opts.Parallelism = DefaultOpts.Parallelism
	}
	buf := opts.JoinBuffer
	if buf == nil {
		size := opts.JoinBufferSize
		if size <= 0 {
			size = DefaultOpts.JoinBufferSize
		}
		buf = circular.NewJoinBuffer[ReadMetadata](size)
	}
	return &Summary{
		parallelism: opts.Parallelism,
		res:         resolver{buf: buf},
		agg:         newAggregator(),
	}
}

// SetConfig validates cfg and makes it the active configuration.  Totals
// gathered so far are kept as they are; reads are never reclassified.
// Conditions of cfg appear in subsequent snapshots even if they have no
// reads.  On error the previous configuration remains active.
func (s *Summary) SetConfig(cfg *config.Config) error {
	if cfg == nil {
		return errors.E(errors.Invalid, "config: nil configuration")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cls, err := newClassifier(cfg)
	if err != nil {
		return errors.E(errors.Invalid, "config:", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cls = cls
	for _, cond := range cls.conds {
		s.agg.register(cond.name, cond.control)
	}
	log.Printf("readfish: configured %d condition(s)", len(cls.conds))
	return nil
}

// SetMetadataSource attaches a stream of sequencing summary rows.  When a
// read is missing from the join window, rows are pulled from src into the
// window until the read turns up or src is exhausted.  A nil src detaches
// the current source.  src is dropped on its first read failure other than a
// malformed row, or after a long run of malformed rows.
func (s *Summary) SetMetadataSource(src MetadataSource) {
	s.mu.Lock()
	s.res.src = src
	s.res.consecutiveBad = 0
	s.mu.Unlock()
}

// IngestSummaryRow adds one sequencing summary row to the join window,
// evicting the oldest row if the window is full.  A malformed row is
// rejected with an error of kind errors.Invalid.  No configuration is needed.
func (s *Summary) IngestSummaryRow(row seqsum.Row) error {
	md, err := ParseRow(row)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.res.insert(md)
	s.mu.Unlock()
	return nil
}

// Ingest parses, classifies and counts a batch of alignments.  It may be
// called any number of times; totals accumulate.  Malformed lines and reads
// whose metadata cannot be resolved are skipped and counted in the returned
// stats.  Ingest fails only when no configuration has been set, with
// ErrNotConfigured.
func (s *Summary) Ingest(inputs []Input) (IngestStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats IngestStats
	if s.cls == nil {
		return stats, ErrNotConfigured
	}
	if len(inputs) == 0 {
		return stats, nil
	}
	recs := s.parse(inputs)
	for i := range recs {
		if recs[i].err != nil {
			stats.SkippedParseError++
			log.Debug.Printf("readfish: skipping input %d: %v", i, recs[i].err)
			continue
		}
		rec := recs[i].rec
		md, err := s.res.resolve(rec, inputs[i].Metadata, s.cls.barcoded)
		if err != nil {
			if errors.Is(errors.NotExist, err) {
				stats.SkippedUnresolved++
			} else {
				stats.SkippedParseError++
			}
			log.Debug.Printf("readfish: skipping %s: %v", rec.ReadID, err)
			continue
		}
		s.apply(md, rec)
		stats.Processed++
	}
	log.Debug.Printf("readfish: ingested %d, skipped %d malformed and %d unresolved (%d evicted from join window so far)",
		stats.Processed, stats.SkippedParseError, stats.SkippedUnresolved, s.res.evicted)
	return stats, nil
}

// parse runs paf.Parse over inputs on up to s.parallelism goroutines.  Each
// goroutine writes a disjoint slice of the result.
func (s *Summary) parse(inputs []Input) []parsed {
	recs := make([]parsed, len(inputs))
	parallelism := s.parallelism
	if parallelism > len(inputs) {
		parallelism = len(inputs)
	}
	_ = traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * len(inputs)) / parallelism
		endIdx := ((jobIdx + 1) * len(inputs)) / parallelism
		for i := startIdx; i < endIdx; i++ {
			recs[i].rec, recs[i].err = paf.Parse(inputs[i].Line)
		}
		return nil
	})
	return recs
}

// apply classifies one resolved record and counts it.
func (s *Summary) apply(md ReadMetadata, rec *paf.Record) {
	cond, v := s.cls.classify(md, rec)
	if cond == nil {
		s.agg.update(config.Unassigned, false, "", 0, Exempt, rec.QueryLen)
		return
	}
	var contig string
	if rec.Mapped() {
		contig = rec.TargetName
	}
	s.agg.update(cond.name, cond.control, contig, rec.TargetLen, v, rec.QueryLen)
}

// Snapshot returns a copy of the current totals keyed by condition name.  It
// never changes the Summary, and the result is not affected by later calls.
func (s *Summary) Snapshot() map[string]ConditionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agg.snapshot()
}

// JoinWindowLen returns the number of rows currently in the join window.
func (s *Summary) JoinWindowLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.res.buf.Len()
}
