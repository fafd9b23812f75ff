// Package sim generates synthetic targeted-capture sequencing reads: it
// samples DNA fragments from a weighted target set, pushes them through an
// empirical error model, and writes FASTQ output, fanning the work out
// across independent workers whose shards are concatenated in worker order.
package sim

import (
	"github.com/pkg/errors"
)

// Opts is the full configuration surface of a simulation run.
type Opts struct {
	// Exactly one of BEDPath / PSLPath selects the target source.
	BEDPath string // ideal-target mode: BED intervals
	PSLPath string // probe-hybridization mode: probe alignment matches

	FragMean float64 // mean fragment (insert) length
	FragSD   float64 // fragment length standard deviation
	FragMin  int     // minimum fragment length; 0 means ReadLen+20
	Slack    int64   // boundary slack margin, ideal mode only

	Paired   bool
	NumReads int // total reads (single) or read pairs (paired)
	ReadLen  int

	ModelPath string
	QualBase  int // quality score ASCII offset

	Workers int
	Seed    int64

	OutPrefix string
	Gzip      bool
	TempDir   string // shard directory; "" means os.TempDir()

	UseRCE         bool   // weight BED regions by their capture-efficiency column
	ReadNamePrefix string // between the read number and the position tag
	Verbose        bool
}

// DefaultOpts holds the option defaults mirrored by the CLI flags.
var DefaultOpts = Opts{
	FragMean:       200,
	FragSD:         50,
	Workers:        1,
	QualBase:       33,
	Seed:           1,
	ReadNamePrefix: "_from_",
	OutPrefix:      "wessim",
}

// checkSources validates the input-path configuration; Run calls it before
// loading anything.
func (o *Opts) checkSources() error {
	if (o.BEDPath == "") == (o.PSLPath == "") {
		return errors.New("exactly one of a BED path and a PSL path is required")
	}
	if o.ModelPath == "" {
		return errors.New("an error model file is required")
	}
	return nil
}

func (o *Opts) check() error {
	if o.NumReads <= 0 {
		return errors.New("total read count must be positive")
	}
	if o.ReadLen <= 0 {
		return errors.New("read length must be positive")
	}
	if o.Workers <= 0 {
		return errors.New("worker count must be positive")
	}
	if o.FragSD < 0 || o.FragMean <= 0 {
		return errors.New("fragment length distribution parameters must be positive")
	}
	if o.Slack < 0 {
		return errors.New("slack must be non-negative")
	}
	min := o.fragMin()
	if min < o.ReadLen {
		return errors.Errorf("minimum fragment length %d is below the read length %d", min, o.ReadLen)
	}
	if o.FragMean < float64(min) {
		return errors.Errorf("mean fragment size %g is too small for minimum length %d; increase it and try again",
			o.FragMean, min)
	}
	return nil
}

func (o *Opts) fragMin() int {
	if o.FragMin > 0 {
		return o.FragMin
	}
	return o.ReadLen + 20
}
