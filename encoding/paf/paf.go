// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package paf parses minimap2-style pairwise alignment (PAF) records, including
// the custom channel and barcode tags that readfish appends to each line.
package paf

import (
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// NumFields is the number of mandatory tab-separated columns in a PAF line.
const NumFields = 12

// Custom tag keys written by readfish.
const (
	ChannelKey = "ch"
	BarcodeKey = "ba"
)

// Unmapped is the placeholder written in the target columns of a read that
// did not align.
const Unmapped = "*"

// Strand is the relative orientation of the query and target.
type Strand byte

const (
	// NoStrand is used for unmapped records.
	NoStrand Strand = 0
	Forward  Strand = '+'
	Reverse  Strand = '-'
)

// String implements fmt.Stringer.
func (s Strand) String() string {
	if s == NoStrand {
		return Unmapped
	}
	return string(byte(s))
}

// TagKind identifies the tags that downstream code understands.  Everything
// else is kept as OtherTag.
type TagKind uint8

const (
	// OtherTag is any tag not listed below.  Its value is kept verbatim.
	OtherTag TagKind = iota
	// ChannelTag is "ch:i:<channel>".
	ChannelTag
	// BarcodeTag is "ba:Z:<barcode>".
	BarcodeTag
)

// Tag is one optional "key:type:value" column.  Int is set for ChannelTag,
// Value holds the raw value text for every kind.
type Tag struct {
	Kind  TagKind
	Key   string
	Type  byte
	Value string
	Int   int
}

// Record is one parsed PAF line.  Coordinates are kept exactly as written
// (0-based start, exclusive end).
type Record struct {
	ReadID      string
	QueryLen    int
	QueryStart  int
	QueryEnd    int
	Strand      Strand
	TargetName  string
	TargetLen   int
	TargetStart int
	TargetEnd   int
	Matches     int
	BlockLen    int
	MapQ        int
	Tags        []Tag

	// Channel is the decoded ch tag, or 0 if absent.
	Channel int
	// Barcode is the decoded ba tag; HasBarcode distinguishes an absent tag.
	Barcode    string
	HasBarcode bool
}

// Mapped reports whether the record carries a reference alignment.
func (r *Record) Mapped() bool {
	return r.TargetName != Unmapped
}

// HasChannel reports whether the record carried a ch tag.
func (r *Record) HasChannel() bool {
	return r.Channel > 0
}

func parseErr(col int, msg string, val string) error {
	return errors.E(errors.Invalid, "paf: column", strconv.Itoa(col+1), msg, strconv.Quote(val))
}

func atoi(tokens []string, col int) (int, error) {
	v, err := strconv.Atoi(tokens[col])
	if err != nil {
		return 0, parseErr(col, "is not an integer:", tokens[col])
	}
	if v < 0 {
		return 0, parseErr(col, "is negative:", tokens[col])
	}
	return v, nil
}

// parseRange parses the len/start/end triple starting at column col and
// enforces 0 <= start <= end <= len.
func parseRange(tokens []string, col int) (length, start, end int, err error) {
	if length, err = atoi(tokens, col); err != nil {
		return
	}
	if start, err = atoi(tokens, col+1); err != nil {
		return
	}
	if end, err = atoi(tokens, col+2); err != nil {
		return
	}
	if start > end {
		err = errors.E(errors.Invalid, "paf: start", strconv.Itoa(start), "after end", strconv.Itoa(end), "in column", strconv.Itoa(col+2))
		return
	}
	if end > length {
		err = errors.E(errors.Invalid, "paf: end", strconv.Itoa(end), "beyond length", strconv.Itoa(length), "in column", strconv.Itoa(col+3))
	}
	return
}

// parseTag decodes one "key:type:value" token.  The key is two characters and
// the type one character, as in SAM.
func parseTag(tok string) (Tag, error) {
	if len(tok) < 5 || tok[2] != ':' || tok[4] != ':' {
		return Tag{}, errors.E(errors.Invalid, "paf: malformed tag", strconv.Quote(tok))
	}
	t := Tag{Key: tok[:2], Type: tok[3], Value: tok[5:]}
	switch t.Key {
	case ChannelKey:
		if t.Type != 'i' {
			return Tag{}, errors.E(errors.Invalid, "paf: channel tag must have type i:", strconv.Quote(tok))
		}
		v, err := strconv.Atoi(t.Value)
		if err != nil || v <= 0 {
			return Tag{}, errors.E(errors.Invalid, "paf: channel must be a positive integer:", strconv.Quote(tok))
		}
		t.Kind, t.Int = ChannelTag, v
	case BarcodeKey:
		if t.Value == "" {
			return Tag{}, errors.E(errors.Invalid, "paf: empty barcode tag")
		}
		t.Kind = BarcodeTag
	}
	return t, nil
}

// Parse parses a single PAF line.  The line may end in "\n" or "\r\n".
// Columns are tab-separated; a line without any tab is split on runs of
// spaces instead.  Parse keeps no state, so lines can be parsed concurrently.
func Parse(line string) (*Record, error) {
	line = strings.TrimRight(line, "\r\n")
	var tokens []string
	if strings.IndexByte(line, '\t') >= 0 {
		tokens = strings.Split(line, "\t")
	} else {
		tokens = strings.Fields(line)
	}
	if len(tokens) < NumFields {
		return nil, errors.E(errors.Invalid, "paf: expected at least", strconv.Itoa(NumFields), "columns, found", strconv.Itoa(len(tokens)))
	}
	r := &Record{ReadID: tokens[0]}
	if r.ReadID == "" {
		return nil, errors.E(errors.Invalid, "paf: empty read id")
	}
	var err error
	if r.QueryLen, r.QueryStart, r.QueryEnd, err = parseRange(tokens, 1); err != nil {
		return nil, err
	}
	r.TargetName = tokens[5]
	if r.TargetName == "" {
		return nil, parseErr(5, "is empty:", tokens[5])
	}
	if r.Mapped() {
		switch tokens[4] {
		case "+":
			r.Strand = Forward
		case "-":
			r.Strand = Reverse
		default:
			return nil, parseErr(4, "is not a strand:", tokens[4])
		}
		if r.TargetLen, r.TargetStart, r.TargetEnd, err = parseRange(tokens, 6); err != nil {
			return nil, err
		}
		if r.Matches, err = atoi(tokens, 9); err != nil {
			return nil, err
		}
		if r.BlockLen, err = atoi(tokens, 10); err != nil {
			return nil, err
		}
	} else {
		// Unmapped lines carry '*' (or zeros) in every alignment column.
		for col := 4; col <= 10; col++ {
			if tokens[col] == Unmapped {
				continue
			}
			if _, err = atoi(tokens, col); err != nil {
				return nil, err
			}
		}
	}
	if !r.Mapped() && tokens[11] == Unmapped {
		r.MapQ = 0
	} else if r.MapQ, err = atoi(tokens, 11); err != nil {
		return nil, err
	}
	if n := len(tokens) - NumFields; n > 0 {
		r.Tags = make([]Tag, 0, n)
	}
	for _, tok := range tokens[NumFields:] {
		if tok == "" {
			continue
		}
		t, err := parseTag(tok)
		if err != nil {
			return nil, err
		}
		switch t.Kind {
		case ChannelTag:
			r.Channel = t.Int
		case BarcodeTag:
			r.Barcode, r.HasBarcode = t.Value, true
		}
		r.Tags = append(r.Tags, t)
	}
	return r, nil
}
