package main

import (
	"context"
	"io"
	"sort"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/looselab/readfishsum/config"
	"github.com/looselab/readfishsum/readfish"
)

const (
	conditionsHeader = "condition\tcontrol\treads\tyield\tmean_read_length\tn50\t" +
		"on_target_reads\ton_target_yield\ton_target_n50\toff_target_reads\toff_target_yield\toff_target_n50\tcontigs"
	contigsHeader = "condition\tcontig\tcontig_length\treads\tyield\tmean_read_length\tn50\t" +
		"on_target_reads\ton_target_yield\toff_target_reads\toff_target_yield"
)

// conditionNames returns the conditions of snap sorted by name, with the
// unassigned bucket last.
func conditionNames(snap map[string]readfish.ConditionSummary) []string {
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if (names[i] == config.Unassigned) != (names[j] == config.Unassigned) {
			return names[j] == config.Unassigned
		}
		return names[i] < names[j]
	})
	return names
}

func formatMean(m float64) string {
	return strconv.FormatFloat(m, 'f', 2, 64)
}

func writeConditions(w io.Writer, snap map[string]readfish.ConditionSummary) (err error) {
	out := tsv.NewWriter(w)
	out.WriteString(conditionsHeader)
	if err = out.EndLine(); err != nil {
		return
	}
	for _, name := range conditionNames(snap) {
		cs := snap[name]
		out.WriteString(name)
		out.WriteString(strconv.FormatBool(cs.Control))
		out.WriteInt64(cs.Reads)
		out.WriteInt64(cs.Yield)
		out.WriteString(formatMean(cs.MeanReadLength))
		out.WriteInt64(int64(cs.N50))
		out.WriteInt64(cs.OnTargetReads)
		out.WriteInt64(cs.OnTargetYield)
		out.WriteInt64(int64(cs.OnTargetN50))
		out.WriteInt64(cs.OffTargetReads)
		out.WriteInt64(cs.OffTargetYield)
		out.WriteInt64(int64(cs.OffTargetN50))
		out.WriteInt64(int64(len(cs.Contigs)))
		if err = out.EndLine(); err != nil {
			return
		}
	}
	return out.Flush()
}

func writeContigs(w io.Writer, snap map[string]readfish.ConditionSummary) (err error) {
	out := tsv.NewWriter(w)
	out.WriteString(contigsHeader)
	if err = out.EndLine(); err != nil {
		return
	}
	for _, name := range conditionNames(snap) {
		cs := snap[name]
		contigs := make([]string, 0, len(cs.Contigs))
		for contig := range cs.Contigs {
			contigs = append(contigs, contig)
		}
		sort.Strings(contigs)
		for _, contig := range contigs {
			c := cs.Contigs[contig]
			out.WriteString(name)
			out.WriteString(contig)
			out.WriteInt64(int64(c.Length))
			out.WriteInt64(c.Reads)
			out.WriteInt64(c.Yield)
			out.WriteString(formatMean(c.MeanReadLength))
			out.WriteInt64(int64(c.N50))
			out.WriteInt64(c.OnTargetReads)
			out.WriteInt64(c.OnTargetYield)
			out.WriteInt64(c.OffTargetReads)
			out.WriteInt64(c.OffTargetYield)
			if err = out.EndLine(); err != nil {
				return
			}
		}
	}
	return out.Flush()
}

func writeTable(ctx context.Context, path string, write func(io.Writer) error) (err error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return write(f.Writer(ctx))
}

// writeTables writes <prefix>.conditions.tsv and <prefix>.contigs.tsv.
func writeTables(ctx context.Context, prefix string, snap map[string]readfish.ConditionSummary) error {
	if err := writeTable(ctx, prefix+".conditions.tsv", func(w io.Writer) error {
		return writeConditions(w, snap)
	}); err != nil {
		return err
	}
	if err := writeTable(ctx, prefix+".contigs.tsv", func(w io.Writer) error {
		return writeContigs(w, snap)
	}); err != nil {
		return err
	}
	log.Printf("wrote %s.{conditions,contigs}.tsv", prefix)
	return nil
}
