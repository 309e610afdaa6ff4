package readfish

import "github.com/grailbio/base/errors"

var (
	// ErrMetadataUnresolved is reported for a record whose channel and
	// barcode are neither inline nor in the join window.  Such records are
	// counted in IngestStats.SkippedUnresolved and otherwise ignored.
	ErrMetadataUnresolved = errors.E(errors.NotExist, "readfish: read metadata unresolved")

	// ErrNotConfigured is returned by Ingest before SetConfig has succeeded.
	ErrNotConfigured = errors.E(errors.Precondition, "readfish: no configuration set")
)
