package paf

import (
	"bufio"
	"io"
)

// MaxLineLen bounds the length of a single PAF line.  Long nanopore reads
// with cs/cg tags can produce lines well beyond bufio's 64KiB default.
const MaxLineLen = 64 << 20

// Scanner splits a PAF stream into lines without parsing them, so that the
// caller can hand batches of lines to a parallel parser.  Blank lines are
// skipped.  Scanners are not threadsafe.
type Scanner struct {
	b    *bufio.Scanner
	line string
	n    int
}

// NewScanner constructs a Scanner over r.
func NewScanner(r io.Reader) *Scanner {
	b := bufio.NewScanner(r)
	b.Buffer(make([]byte, 0, 1<<16), MaxLineLen)
	return &Scanner{b: b}
}

// Scan advances to the next nonblank line.  Once Scan returns false, it
// never returns true again; the caller should then check Err.
func (s *Scanner) Scan() bool {
	for s.b.Scan() {
		s.n++
		if len(s.b.Bytes()) == 0 {
			continue
		}
		s.line = s.b.Text()
		return true
	}
	return false
}

// Text returns the current line.
func (s *Scanner) Text() string { return s.line }

// LineNum returns the 1-based number of the current line in the stream.
func (s *Scanner) LineNum() int { return s.n }

// Batch scans up to n lines, appending them to buf.  It returns the extended
// slice; a result shorter than len(buf)+n means the stream is exhausted.
func (s *Scanner) Batch(buf []string, n int) []string {
	for i := 0; i < n && s.Scan(); i++ {
		buf = append(buf, s.line)
	}
	return buf
}

// Err returns the scanning error, if any.
func (s *Scanner) Err() error {
	return s.b.Err()
}
