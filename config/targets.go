package config

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
	"github.com/looselab/readfishsum/interval"
)

// parseTargetString parses a readfish target of the form "contig" or
// "contig,start,end[,strand]".  Coordinates follow BED conventions (0-based
// start, exclusive end) and are returned as a 1-based closed interval.  A bare
// contig covers the whole contig.  The strand is checked but otherwise unused.
func parseTargetString(s string) (string, interval.Interval, error) {
	fields := strings.Split(strings.TrimSpace(s), ",")
	contig := strings.TrimSpace(fields[0])
	if contig == "" {
		return "", interval.Interval{}, invalid("empty contig in target", strconv.Quote(s))
	}
	switch len(fields) {
	case 1:
		return contig, interval.WholeContig, nil
	case 3, 4:
	default:
		return "", interval.Interval{}, invalid("target", strconv.Quote(s), "must be contig or contig,start,end[,strand]")
	}
	start0, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return "", interval.Interval{}, invalid("bad start in target", strconv.Quote(s))
	}
	end, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return "", interval.Interval{}, invalid("bad end in target", strconv.Quote(s))
	}
	if start0 < 0 || end <= start0 || end >= interval.PosTypeMax {
		return "", interval.Interval{}, invalid("invalid coordinates in target", strconv.Quote(s))
	}
	if len(fields) == 4 {
		switch strings.TrimSpace(fields[3]) {
		case "+", "-", "1", "-1", ".":
		default:
			return "", interval.Interval{}, invalid("bad strand in target", strconv.Quote(s))
		}
	}
	return contig, interval.Interval{Start: interval.PosType(start0 + 1), End: interval.PosType(end)}, nil
}

// parseTargetStrings groups targets by contig and merges overlaps, as readfish
// does when it builds its lookup tables.
func parseTargetStrings(targets []string) (map[string][]interval.Interval, error) {
	regions := make(map[string][]interval.Interval)
	for _, t := range targets {
		if strings.TrimSpace(t) == "" {
			continue
		}
		contig, iv, err := parseTargetString(t)
		if err != nil {
			return nil, err
		}
		regions[contig] = append(regions[contig], iv)
	}
	for contig, ivs := range regions {
		regions[contig] = interval.MergeIntervals(ivs)
	}
	return regions, nil
}

// loadTargetFile reads targets from a .bed or .csv file, optionally gzipped.
func loadTargetFile(ctx context.Context, path string) (map[string][]interval.Interval, error) {
	name := strings.TrimSuffix(path, ".gz")
	switch {
	case strings.HasSuffix(name, ".bed"):
		regions, err := interval.LoadBEDFromPath(ctx, path)
		if err != nil {
			return nil, errors.E(errors.Invalid, "config: loading targets", path, err)
		}
		return regions, nil
	case strings.HasSuffix(name, ".csv"):
	default:
		return nil, invalid("target file", path, "must end in .bed or .csv")
	}
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(errors.Invalid, "config: loading targets", path, err)
	}
	defer f.Close(ctx) // nolint: errcheck
	reader := io.Reader(f.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		if reader, err = gzip.NewReader(reader); err != nil {
			return nil, errors.E(errors.Invalid, "config: loading targets", path, err)
		}
	}
	var lines []string
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(errors.Invalid, "config: loading targets", path, err)
	}
	return parseTargetStrings(lines)
}
