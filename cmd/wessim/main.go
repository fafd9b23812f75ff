package main

/*
wessim is a targeted-resequencing read simulator. It samples DNA fragments
from capture targets on a reference FASTA, applies an empirical sequencing
error model, and writes single-end or paired-end FASTQ output.
*/

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/tinyheero/wessim/sim"
)

var (
	bedPath    = flag.String("bed", sim.DefaultOpts.BEDPath, "Target BED path (ideal-target mode); this xor -probe-psl required")
	pslPath    = flag.String("probe-psl", sim.DefaultOpts.PSLPath, "Probe alignment PSL path (probe-hybridization mode); this xor -bed required")
	modelPath  = flag.String("model", sim.DefaultOpts.ModelPath, "Empirical error model path (required)")
	numReads   = flag.Int("n", 1000000, "Number of reads (single-end) or read pairs (paired-end) to generate")
	readLen    = flag.Int("read-len", 100, "Read length; must be covered by the error model")
	paired     = flag.Bool("paired", sim.DefaultOpts.Paired, "Generate paired-end reads")
	fragMean   = flag.Float64("frag-mean", sim.DefaultOpts.FragMean, "Mean fragment length")
	fragSD     = flag.Float64("frag-sd", sim.DefaultOpts.FragSD, "Fragment length standard deviation")
	fragMin    = flag.Int("frag-min", sim.DefaultOpts.FragMin, "Minimum fragment length; 0 = read-len + 20")
	slack      = flag.Int64("slack", sim.DefaultOpts.Slack, "Bases of slack added to each side of a BED target")
	useRCE     = flag.Bool("use-rce", sim.DefaultOpts.UseRCE, "Weight BED targets by their capture-efficiency column")
	qualBase   = flag.Int("qual-base", sim.DefaultOpts.QualBase, "Quality score ASCII offset")
	workers    = flag.Int("workers", sim.DefaultOpts.Workers, "Number of simultaneous generation workers")
	seed       = flag.Int64("seed", sim.DefaultOpts.Seed, "Random seed; runs with the same seed and worker count are reproducible")
	outPrefix  = flag.String("out", sim.DefaultOpts.OutPrefix, "Output path prefix")
	gzipOut    = flag.Bool("z", sim.DefaultOpts.Gzip, "Gzip-compress the output FASTQ file(s)")
	namePrefix = flag.String("read-name-prefix", sim.DefaultOpts.ReadNamePrefix, "Read name text between the read number and the position tag")
	tempDir    = flag.String("temp-dir", sim.DefaultOpts.TempDir, "Directory to write temporary shard files to (default os.TempDir())")
	verbose    = flag.Bool("verbose", sim.DefaultOpts.Verbose, "Log per-worker progress")
)

func wessimUsage() {
	fmt.Printf("Usage: %s [OPTIONS] fapath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = wessimUsage
	shutdown := grail.Init()
	defer shutdown()

	positionalArgs := flag.Args()
	if flag.NArg() != 1 {
		if flag.NArg() < 1 {
			log.Fatalf("Missing positional argument (fapath required); please check flag syntax: '%s'", strings.Join(positionalArgs, " "))
		} else {
			log.Fatalf("Too many positional arguments (only fapath expected); please check flag syntax: '%s'", strings.Join(positionalArgs, " "))
		}
	}
	ctx := vcontext.Background()
	opts := sim.Opts{
		BEDPath:        *bedPath,
		PSLPath:        *pslPath,
		ModelPath:      *modelPath,
		NumReads:       *numReads,
		ReadLen:        *readLen,
		Paired:         *paired,
		FragMean:       *fragMean,
		FragSD:         *fragSD,
		FragMin:        *fragMin,
		Slack:          *slack,
		UseRCE:         *useRCE,
		QualBase:       *qualBase,
		Workers:        *workers,
		Seed:           *seed,
		OutPrefix:      *outPrefix,
		Gzip:           *gzipOut,
		TempDir:        *tempDir,
		ReadNamePrefix: *namePrefix,
		Verbose:        *verbose,
	}
	if err := sim.Run(ctx, positionalArgs[0], &opts); err != nil {
		log.Fatalf("%v", err)
	}
	log.Debug.Printf("exiting")
}
