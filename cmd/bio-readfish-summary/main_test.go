package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/klauspost/compress/gzip"
	"github.com/looselab/readfishsum/readfish"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[caller_settings]
config_name = "dna_r9.4.1_450bps_fast"

[[regions]]
name = "enrich"
min_channel = 1
max_channel = 2
targets = ["chr1,99,200"]
single_on = "stop_receiving"
single_off = "unblock"

[[regions]]
name = "control"
min_channel = 3
max_channel = 4
control = true
`

var testPAF = []string{
	"r1\t100\t0\t100\t+\tchr1\t1000000\t150\t180\t30\t30\t60\tch:i:1",
	"r2\t300\t0\t300\t-\tchr1\t1000000\t500\t600\t90\t100\t60",
	"r3\t50\t0\t50\t+\tchr2\t1000000\t0\t10\t10\t10\t60\tch:i:3",
	"r4\t70\t0\t0\t*\t*\t*\t*\t*\t*\t*\t*\tch:i:9",
	"not a paf line",
	"r5\t80\t0\t80\t+\tchr1\t1000000\t150\t180\t30\t30\t60",
}

const testSeqSum = "filename\tread_id\tchannel\tmux\n" +
	"a.fast5\trX\t1\t1\n" +
	"a.fast5\tr2\t2\t1\n"

func writeGzip(t *testing.T, path, data string) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func setup(t *testing.T, dir string) (configPath, pafPath, seqSumPath string) {
	configPath = filepath.Join(dir, "readfish.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0644))
	pafPath = filepath.Join(dir, "alignments.paf.gz")
	writeGzip(t, pafPath, strings.Join(testPAF, "\n")+"\n")
	seqSumPath = filepath.Join(dir, "sequencing_summary.txt")
	require.NoError(t, os.WriteFile(seqSumPath, []byte(testSeqSum), 0644))
	return
}

func TestRunSummary(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	configPath, pafPath, seqSumPath := setup(t, tempDir)

	for _, batch := range []int{1, 2, 100} {
		stats, snap, err := runSummary(context.Background(), configPath, pafPath, summarizeOpts{
			SeqSumPath:  seqSumPath,
			BatchSize:   batch,
			Parallelism: 3,
			JoinWindow:  10,
		})
		require.NoError(t, err)
		assert.Equal(t, readfish.IngestStats{Processed: 4, SkippedParseError: 1, SkippedUnresolved: 1}, stats)
		assert.EqualValues(t, 2, snap["enrich"].Reads)
		assert.EqualValues(t, 1, snap["enrich"].OnTargetReads)
		assert.EqualValues(t, 300, snap["enrich"].OffTargetYield)
	}

	// Without the summary, r2 cannot be placed either.
	stats, _, err := runSummary(context.Background(), configPath, pafPath, summarizeOpts{})
	require.NoError(t, err)
	assert.Equal(t, readfish.IngestStats{Processed: 3, SkippedParseError: 1, SkippedUnresolved: 2}, stats)

	_, _, err = runSummary(context.Background(), filepath.Join(tempDir, "missing.toml"), pafPath, summarizeOpts{})
	assert.Error(t, err)
	_, _, err = runSummary(context.Background(), configPath, filepath.Join(tempDir, "missing.paf"), summarizeOpts{})
	assert.Error(t, err)
}

func TestSummarizeWritesTables(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	configPath, pafPath, seqSumPath := setup(t, tempDir)

	prefix := filepath.Join(tempDir, "run1")
	require.NoError(t, summarize(context.Background(), configPath, pafPath, summarizeOpts{
		SeqSumPath: seqSumPath,
		OutPrefix:  prefix,
	}))

	conditions, err := os.ReadFile(prefix + ".conditions.tsv")
	require.NoError(t, err)
	assert.Equal(t, conditionsHeader+"\n"+
		"control\ttrue\t1\t50\t50.00\t50\t0\t0\t0\t0\t0\t0\t1\n"+
		"enrich\tfalse\t2\t400\t200.00\t300\t1\t100\t100\t1\t300\t300\t1\n"+
		"unassigned\tfalse\t1\t70\t70.00\t70\t0\t0\t0\t0\t0\t0\t0\n",
		string(conditions))

	contigs, err := os.ReadFile(prefix + ".contigs.tsv")
	require.NoError(t, err)
	assert.Equal(t, contigsHeader+"\n"+
		"control\tchr2\t1000000\t1\t50\t50.00\t50\t0\t0\t0\t0\n"+
		"enrich\tchr1\t1000000\t2\t400\t200.00\t300\t1\t100\t1\t300\n",
		string(contigs))
}

func TestConditionNames(t *testing.T) {
	snap := map[string]readfish.ConditionSummary{
		"b": {}, "unassigned": {}, "a": {}, "z": {},
	}
	assert.Equal(t, []string{"a", "b", "z", "unassigned"}, conditionNames(snap))
}
