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
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/looselab/readfishsum/readfish"
)

var (
	seqSumPath  = flag.String("seq-sum", "", "Sequencing summary path, used for reads whose PAF lines lack ch/ba tags")
	outPrefix   = flag.String("out", "bio-readfish-summary", "Output path prefix")
	batchSize   = flag.Int("batch-size", defaultBatchSize, "Number of PAF lines parsed together")
	parallelism = flag.Int("parallelism", 0, "Maximum number of goroutines parsing PAF lines; 0 = runtime.NumCPU()")
	joinWindow  = flag.Int("join-window", readfish.DefaultOpts.JoinBufferSize, "Number of sequencing summary rows held while waiting for their alignments")
)

func bioReadfishSummaryUsage() {
	fmt.Printf("Usage: %s [OPTIONS] config.toml alignments.paf\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = bioReadfishSummaryUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 2 {
		log.Fatalf("Expected two positional arguments (config.toml and alignments.paf), got: '%s'", strings.Join(flag.Args(), " "))
	}
	ctx := vcontext.Background()
	opts := summarizeOpts{
		SeqSumPath:  *seqSumPath,
		OutPrefix:   *outPrefix,
		BatchSize:   *batchSize,
		Parallelism: *parallelism,
		JoinWindow:  *joinWindow,
	}
	if err := summarize(ctx, flag.Arg(0), flag.Arg(1), opts); err != nil {
		log.Fatalf("%v", err)
	}
	log.Debug.Printf("exiting")
}
