// Package seqsum reads the sequencing summary TSV written by nanopore
// basecallers.  Only the columns needed to attribute a read to an experimental
// condition are extracted; every other column is ignored.
package seqsum

import (
	"bufio"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
)

// Column names recognized in the header row.
const (
	ReadIDColumn  = "read_id"
	ChannelColumn = "channel"
	BarcodeColumn = "barcode_arrangement"
)

// Row holds the raw text of the recognized columns of one summary line.
// Fields are not validated beyond being present; see readfish.ParseRow.
type Row struct {
	ReadID  string
	Channel string
	// Barcode is empty for runs without demultiplexing, in which case
	// HasBarcode is false.
	Barcode    string
	HasBarcode bool
}

type plainRow struct {
	ReadID  string `tsv:"read_id"`
	Channel string `tsv:"channel"`
}

type barcodedRow struct {
	ReadID  string `tsv:"read_id"`
	Channel string `tsv:"channel"`
	Barcode string `tsv:"barcode_arrangement"`
}

// Reader yields Rows from a sequencing summary.  Readers are not threadsafe.
type Reader struct {
	r        *tsv.Reader
	barcoded bool
	line     int
}

// NewReader reads the header row of r and returns a Reader positioned at the
// first data row.  The header must name at least the read_id and channel
// columns.  Rows carry a barcode if the header has a barcode_arrangement
// column.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, 1<<16)
	header, err := br.ReadString('\n')
	if err != nil && (err != io.EOF || header == "") {
		if err == io.EOF {
			return nil, errors.E(errors.Invalid, "seqsum: missing header row")
		}
		return nil, errors.E(err, "seqsum: reading header")
	}
	cols := make(map[string]bool)
	for _, col := range strings.Split(strings.TrimRight(header, "\r\n"), "\t") {
		cols[col] = true
	}
	for _, col := range []string{ReadIDColumn, ChannelColumn} {
		if !cols[col] {
			return nil, errors.E(errors.Invalid, "seqsum: header is missing column", col)
		}
	}
	tr := tsv.NewReader(io.MultiReader(strings.NewReader(header), br))
	tr.HasHeaderRow = true
	tr.UseHeaderNames = true
	return &Reader{r: tr, barcoded: cols[BarcodeColumn], line: 1}, nil
}

// Barcoded reports whether the summary has a barcode_arrangement column.
func (r *Reader) Barcoded() bool { return r.barcoded }

// Read returns the next row, or io.EOF after the last one.  A malformed row
// yields an error of kind errors.Invalid, and reading may continue past it.
// Any other error comes from the underlying reader and keeps its own kind;
// the Reader should not be used after one.
func (r *Reader) Read() (Row, error) {
	r.line++
	if r.barcoded {
		var row barcodedRow
		if err := r.r.Read(&row); err != nil {
			return Row{}, r.wrap(err)
		}
		return Row{ReadID: row.ReadID, Channel: row.Channel, Barcode: row.Barcode, HasBarcode: true}, nil
	}
	var row plainRow
	if err := r.r.Read(&row); err != nil {
		return Row{}, r.wrap(err)
	}
	return Row{ReadID: row.ReadID, Channel: row.Channel}, nil
}

func (r *Reader) wrap(err error) error {
	if err == io.EOF {
		return err
	}
	if _, ok := err.(*csv.ParseError); ok {
		return errors.E(errors.Invalid, "seqsum: line", strconv.Itoa(r.line), err)
	}
	return errors.E(err, "seqsum: reading line", strconv.Itoa(r.line))
}
