/*Package interval stores per-contig target regions as sorted arrays of
  interval endpoints and answers overlap queries against them.  It is used to
  decide whether an alignment is on-target.

  Unlike a BED file, intervals here are 1-based and closed on both ends, and a
  TargetSet refuses overlapping input: callers that want union semantics
  should run MergeIntervals first (LoadBED does this for them).
  Every position must fit in a PosType, which is int32 since that's what
  BAM-derived reference coordinates are limited to.
*/
package interval
