package interval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
)

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// isBEDHeader reports whether a BED line is a comment or a browser/track
// directive.
func isBEDHeader(line []byte) bool {
	for _, prefix := range []string{"#", "track", "browser"} {
		if len(line) >= len(prefix) && string(line[:len(prefix)]) == prefix {
			return true
		}
	}
	return false
}

// LoadBED reads the first three columns of a BED file (0-based start,
// exclusive end) and returns 1-based closed intervals per contig, with
// overlapping and touching intervals merged.  Input need not be sorted.
// Empty intervals are dropped, but their contig is still reported.
func LoadBED(reader io.Reader) (map[string][]Interval, error) {
	scanner := bufio.NewScanner(reader)
	regions := make(map[string][]Interval)

	var tokens [3][]byte
	lineIdx := 0
	totBases := 0
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		if isBEDHeader(curLine) {
			continue
		}
		nToken := getTokens(tokens[:], curLine)
		if nToken != 3 {
			if nToken == 0 {
				continue
			}
			return nil, fmt.Errorf("interval.LoadBED: line %d has fewer tokens than expected", lineIdx)
		}
		start0, err := strconv.Atoi(string(tokens[1]))
		if err != nil {
			return nil, fmt.Errorf("interval.LoadBED: line %d: %v", lineIdx, err)
		}
		end, err := strconv.Atoi(string(tokens[2]))
		if err != nil {
			return nil, fmt.Errorf("interval.LoadBED: line %d: %v", lineIdx, err)
		}
		if start0 < 0 || end < start0 || end >= PosTypeMax {
			return nil, fmt.Errorf("interval.LoadBED: invalid coordinate pair on line %d", lineIdx)
		}
		contig := string(tokens[0])
		if end == start0 {
			if _, ok := regions[contig]; !ok {
				regions[contig] = []Interval{}
			}
			continue
		}
		regions[contig] = append(regions[contig], Interval{Start: PosType(start0 + 1), End: PosType(end)})
		totBases += end - start0
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	for contig, ivs := range regions {
		regions[contig] = MergeIntervals(ivs)
	}
	log.Debug.Printf("BED loaded, %d interval base(s) over %d contig(s)", totBases, len(regions))
	return regions, nil
}

// LoadBEDFromPath is a wrapper for LoadBED that takes a path instead of an
// io.Reader.  Gzipped files are detected by extension.
func LoadBEDFromPath(ctx context.Context, path string) (regions map[string][]Interval, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			return
		}
	}
	return LoadBED(reader)
}
