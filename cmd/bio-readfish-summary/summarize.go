package main

import (
	"context"
	"io"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
	"github.com/looselab/readfishsum/config"
	"github.com/looselab/readfishsum/encoding/paf"
	"github.com/looselab/readfishsum/encoding/seqsum"
	"github.com/looselab/readfishsum/readfish"
	"github.com/pkg/errors"
)

const defaultBatchSize = 10000

type summarizeOpts struct {
	SeqSumPath  string
	OutPrefix   string
	BatchSize   int
	Parallelism int
	JoinWindow  int
}

// input is an open, possibly decompressed, input file.
type input struct {
	f file.File
	r io.Reader
}

// openInput opens path for reading, decompressing it if its name ends in .gz.
func openInput(ctx context.Context, path string) (*input, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	in := &input{f: f, r: f.Reader(ctx)}
	if fileio.DetermineType(path) == fileio.Gzip {
		if in.r, err = gzip.NewReader(in.r); err != nil {
			f.Close(ctx) // nolint: errcheck
			return nil, errors.Wrapf(err, "reading %s", path)
		}
	}
	return in, nil
}

func (in *input) close(ctx context.Context) error {
	return in.f.Close(ctx)
}

// runSummary feeds the alignments at pafPath through a readfish.Summary
// configured from configPath, and returns the totals.
func runSummary(ctx context.Context, configPath, pafPath string, opts summarizeOpts) (readfish.IngestStats, map[string]readfish.ConditionSummary, error) {
	var stats readfish.IngestStats
	cfg, err := config.LoadTOML(ctx, configPath)
	if err != nil {
		return stats, nil, err
	}
	s := readfish.NewSummary(readfish.Opts{
		JoinBufferSize: opts.JoinWindow,
		Parallelism:    opts.Parallelism,
	})
	if err := s.SetConfig(cfg); err != nil {
		return stats, nil, err
	}

	if opts.SeqSumPath != "" {
		in, err := openInput(ctx, opts.SeqSumPath)
		if err != nil {
			return stats, nil, err
		}
		defer in.close(ctx) // nolint: errcheck
		r, err := seqsum.NewReader(in.r)
		if err != nil {
			return stats, nil, errors.Wrapf(err, "reading %s", opts.SeqSumPath)
		}
		if cfg.Barcoded() && !r.Barcoded() {
			log.Error.Printf("%s has no %s column; barcode conditions will only match reads with ba tags",
				opts.SeqSumPath, seqsum.BarcodeColumn)
		}
		s.SetMetadataSource(r)
	}

	in, err := openInput(ctx, pafPath)
	if err != nil {
		return stats, nil, err
	}
	defer in.close(ctx) // nolint: errcheck
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	var (
		sc     = paf.NewScanner(in.r)
		lines  = make([]string, 0, batchSize)
		inputs = make([]readfish.Input, 0, batchSize)
	)
	for {
		lines = sc.Batch(lines[:0], batchSize)
		if len(lines) == 0 {
			break
		}
		inputs = inputs[:0]
		for _, line := range lines {
			inputs = append(inputs, readfish.Input{Line: line})
		}
		batchStats, err := s.Ingest(inputs)
		if err != nil {
			return stats, nil, err
		}
		stats.Add(batchStats)
		log.Debug.Printf("%s: %d lines read", pafPath, sc.LineNum())
		if len(lines) < batchSize {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return stats, nil, errors.Wrapf(err, "reading %s", pafPath)
	}
	log.Printf("%s: %d reads counted, %d malformed lines, %d reads without metadata",
		pafPath, stats.Processed, stats.SkippedParseError, stats.SkippedUnresolved)
	return stats, s.Snapshot(), nil
}

// summarize runs the whole tool: it summarises the alignments and writes the
// condition and contig tables under opts.OutPrefix.
func summarize(ctx context.Context, configPath, pafPath string, opts summarizeOpts) error {
	_, snap, err := runSummary(ctx, configPath, pafPath, opts)
	if err != nil {
		return err
	}
	return writeTables(ctx, opts.OutPrefix, snap)
}
