// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Given the TOML configuration of a readfish adaptive-sampling run and the PAF
alignments of its reads, bio-readfish-summary reports, for every condition of
the run, how many reads and bases were sequenced and how many of them aligned
on and off the condition's targets.

Reads are assigned to conditions by channel and barcode.  These are taken from
the ch and ba tags of each PAF line when present (as written by readfish), and
otherwise from the sequencing summary given with -seq-sum.  The summary is
consumed in step with the alignments through a window of -join-window rows, so
both files should be in roughly the order the reads were basecalled.

Sample usage:
bio-readfish-summary \
    --seq-sum sequencing_summary.txt.gz \
    --out run1 \
    readfish.toml \
    alignments.paf.gz

Two tables are written: <out>.conditions.tsv, one row per condition, and
<out>.contigs.tsv, one row per condition and contig.  Inputs may be gzipped
and may be S3 paths.
*/
package main
