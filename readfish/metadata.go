package readfish

import (
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/looselab/readfishsum/encoding/paf"
	"github.com/looselab/readfishsum/encoding/seqsum"
)

// ReadMetadata is what a read contributes to condition lookup.
type ReadMetadata struct {
	ReadID string
	// Channel is the 1-based sequencing channel.
	Channel int
	// Barcode is meaningful only when HasBarcode is set.
	Barcode    string
	HasBarcode bool
}

// ParseRow converts a sequencing summary row to ReadMetadata.  Errors have
// kind errors.Invalid.
func ParseRow(row seqsum.Row) (ReadMetadata, error) {
	ch, err := strconv.Atoi(row.Channel)
	if err != nil {
		return ReadMetadata{}, errors.E(errors.Invalid, "seqsum: read", row.ReadID, "has invalid channel", strconv.Quote(row.Channel))
	}
	md := ReadMetadata{ReadID: row.ReadID, Channel: ch, Barcode: row.Barcode, HasBarcode: row.HasBarcode}
	if err := md.validate(); err != nil {
		return ReadMetadata{}, errors.E(errors.Invalid, "seqsum", err)
	}
	return md, nil
}

// validate checks that md names a read, a channel, and a barcode if it claims
// one.
func (md ReadMetadata) validate() error {
	if md.ReadID == "" {
		return errors.E(errors.Invalid, "empty read_id")
	}
	if md.Channel < 1 {
		return errors.E(errors.Invalid, "read", md.ReadID, "has invalid channel", strconv.Itoa(md.Channel))
	}
	if md.HasBarcode && md.Barcode == "" {
		return errors.E(errors.Invalid, "read", md.ReadID, "has an empty barcode")
	}
	return nil
}

// JoinBuffer is the bounded window of metadata waiting for alignments.
// *circular.JoinBuffer[ReadMetadata] implements it.
type JoinBuffer interface {
	// Insert adds md under readID, evicting the oldest entry if the buffer
	// is full.
	Insert(readID string, md ReadMetadata) (evictedKey string, evicted bool)
	// Lookup finds readID without changing eviction order.
	Lookup(readID string) (ReadMetadata, bool)
	Len() int
}

// MetadataSource supplies sequencing summary rows on demand.  Read returns
// io.EOF once exhausted.  *seqsum.Reader implements it.
type MetadataSource interface {
	Read() (seqsum.Row, error)
}

// maxConsecutiveBadRows is how many unusable rows in a row the resolver
// tolerates from a metadata source before giving up on it.
const maxConsecutiveBadRows = 1000

// resolver finds the metadata of an alignment record.
type resolver struct {
	buf JoinBuffer
	src MetadataSource

	// Counters for logging.
	evicted, badRows int64
	// consecutiveBad counts unusable rows since the last good one.
	consecutiveBad int
}

func (r *resolver) insert(md ReadMetadata) {
	if key, ok := r.buf.Insert(md.ReadID, md); ok {
		r.evicted++
		log.Debug.Printf("readfish: join window full, evicted %s", key)
	}
}

// resolve returns the metadata for rec, trying in order: metadata supplied by
// the caller, the ch/ba tags of rec, the join window, and rows pulled from the
// metadata source.  Tags are used only if ch is present, and ba as well when
// needBarcode is set.  The join window is never touched when tags suffice.
func (r *resolver) resolve(rec *paf.Record, supplied *ReadMetadata, needBarcode bool) (ReadMetadata, error) {
	if supplied != nil {
		md := *supplied
		if md.ReadID == "" {
			md.ReadID = rec.ReadID
		}
		if md.ReadID != rec.ReadID {
			return ReadMetadata{}, errors.E(errors.Invalid, "readfish: metadata for read", md.ReadID, "supplied with alignment of", rec.ReadID)
		}
		if err := md.validate(); err != nil {
			return ReadMetadata{}, errors.E(errors.Invalid, "readfish: supplied metadata", err)
		}
		return md, nil
	}
	if rec.HasChannel() && (rec.HasBarcode || !needBarcode) {
		return ReadMetadata{
			ReadID:     rec.ReadID,
			Channel:    rec.Channel,
			Barcode:    rec.Barcode,
			HasBarcode: rec.HasBarcode,
		}, nil
	}
	if md, ok := r.buf.Lookup(rec.ReadID); ok {
		return md, nil
	}
	if md, ok := r.pull(rec.ReadID); ok {
		return md, nil
	}
	return ReadMetadata{}, ErrMetadataUnresolved
}

// pull moves rows from the source into the join window until readID is seen
// or the source runs dry.  Malformed rows are skipped, but the source is
// dropped after maxConsecutiveBadRows of them with no good row between.  It is
// also dropped at EOF or on any other read failure.
func (r *resolver) pull(readID string) (ReadMetadata, bool) {
	for r.src != nil {
		row, err := r.src.Read()
		if err == io.EOF {
			log.Debug.Printf("readfish: metadata source exhausted")
			r.src = nil
			break
		}
		if err != nil {
			if !errors.Is(errors.Invalid, err) {
				log.Error.Printf("readfish: dropping metadata source: %v", err)
				r.src = nil
				break
			}
			r.skip(err)
			continue
		}
		md, err := ParseRow(row)
		if err != nil {
			r.skip(err)
			continue
		}
		r.consecutiveBad = 0
		r.insert(md)
		if md.ReadID == readID {
			return md, true
		}
	}
	return ReadMetadata{}, false
}

func (r *resolver) skip(err error) {
	r.badRows++
	r.consecutiveBad++
	log.Debug.Printf("readfish: skipping summary row: %v", err)
	if r.consecutiveBad >= maxConsecutiveBadRows {
		log.Error.Printf("readfish: dropping metadata source after %d unusable rows in a row: %v", r.consecutiveBad, err)
		r.src = nil
	}
}
