package sim

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/klauspost/compress/gzip"
	"github.com/tinyheero/wessim/encoding/fasta"
	"github.com/tinyheero/wessim/encoding/fastq"
	"github.com/tinyheero/wessim/model"
	"github.com/tinyheero/wessim/target"
)

// Run loads the genome, error model and target input named by opts and runs
// the simulation.  genomePath may have a faidx index alongside; without one
// the FASTA is held in memory.
func Run(ctx context.Context, genomePath string, opts *Opts) error {
	if err := opts.checkSources(); err != nil {
		return err
	}
	if err := opts.check(); err != nil {
		return err
	}
	g, err := fasta.Open(genomePath)
	if err != nil {
		return err
	}
	m, err := model.Load(opts.ModelPath)
	if err != nil {
		return err
	}
	var targets *target.Set
	if opts.BEDPath != "" {
		regions, err := target.LoadBED(opts.BEDPath)
		if err != nil {
			return err
		}
		targets, err = target.Resolve(g, regions, target.ResolveOpts{Slack: opts.Slack, UseRCE: opts.UseRCE})
		if err != nil {
			return err
		}
	} else {
		matches, err := target.LoadPSL(opts.PSLPath)
		if err != nil {
			return err
		}
		targets, err = target.ResolveMatches(g, matches)
		if err != nil {
			return err
		}
	}
	log.Printf("wessim: %d target intervals spanning %d bases (total weight %g)",
		targets.Len(), targets.TotalSpan(), targets.TotalWeight())
	return Simulate(ctx, g, targets, m, opts)
}

// workShard is one worker's slice of the run: a read quota, a private
// random stream, and private output file(s) merged in index order at the
// end.
type workShard struct {
	index   int
	quota   int
	firstID int64 // global number of the shard's first read
	seed    int64
	files   [2]*os.File
}

// Simulate generates opts.NumReads reads (or pairs) from the already-loaded
// genome, target set and error model.  All validation happens before any
// worker starts or any file is created; on any worker failure every shard is
// removed and no final output exists.
func Simulate(ctx context.Context, g fasta.Fasta, targets *target.Set, m *model.Model, opts *Opts) (err error) {
	if err = opts.check(); err != nil {
		return err
	}
	if err = m.Validate(opts.ReadLen, opts.Paired); err != nil {
		return err
	}

	s := &sampler{
		genome:  g,
		targets: targets,
		lengths: LengthDist{Mean: opts.FragMean, SD: opts.FragSD, Min: opts.fragMin()},
	}
	streams := 1
	if opts.Paired {
		streams = 2
	}
	nWorkers := opts.Workers
	if nWorkers > opts.NumReads {
		nWorkers = opts.NumReads
	}

	shards := make([]workShard, nWorkers)
	quota := opts.NumReads / nWorkers
	rem := opts.NumReads % nWorkers
	firstID := int64(0)
	for i := range shards {
		n := quota
		if i < rem {
			n++
		}
		shards[i] = workShard{index: i, quota: n, firstID: firstID, seed: opts.Seed + int64(i)}
		firstID += int64(n)
	}

	defer func() {
		// Shard files are nil'ed out as they are merged; anything left here
		// belongs to a failed run.
		for i := range shards {
			for j := 0; j < streams; j++ {
				if f := shards[i].files[j]; f != nil {
					name := f.Name()
					_ = f.Close()
					_ = os.Remove(name)
				}
			}
		}
	}()
	for i := range shards {
		for j := 0; j < streams; j++ {
			shards[i].files[j], err = os.CreateTemp(opts.TempDir,
				"wessim_shard"+strconv.Itoa(i)+"_*.fastq")
			if err != nil {
				return err
			}
		}
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	err = traverse.Each(nWorkers, func(i int) error {
		if e := shards[i].generate(wctx, s, m, streams, opts); e != nil {
			cancel() // stop the other workers promptly
			return e
		}
		return nil
	})
	if err != nil {
		return errors.E(err, "simulation aborted; partial shards removed")
	}
	return merge(ctx, shards, streams, opts)
}

// generate runs one worker's sampling loop against its private random
// stream, writing FASTQ records to the shard file(s).
func (ws *workShard) generate(ctx context.Context, s *sampler, m *model.Model, streams int, opts *Opts) error {
	rng := rand.New(rand.NewSource(ws.seed))
	var bufs [2]*bufio.Writer
	var writers [2]*fastq.Writer
	for j := 0; j < streams; j++ {
		bufs[j] = bufio.NewWriter(ws.files[j])
		writers[j] = fastq.NewWriter(bufs[j])
	}
	templateLen := opts.ReadLen + model.TemplatePad

	for n := 0; n < ws.quota; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		frag, err := s.sample(rng)
		if err != nil {
			return err
		}
		id := ws.firstID + int64(n)
		if opts.Paired {
			seq1, q1 := m.Apply(head(frag.Seq, templateLen), model.Read1, opts.ReadLen, opts.QualBase, rng)
			seq2, q2 := m.Apply(head(revComp(frag.Seq), templateLen), model.Read2, opts.ReadLen, opts.QualBase, rng)
			p1, p2 := mateTags(frag, opts.ReadLen)
			name := fmt.Sprintf("@r%d%s%s:%s", id, opts.ReadNamePrefix, p1, p2)
			if err := writers[0].Write(name+"/1", seq1, q1); err != nil {
				return err
			}
			if err := writers[1].Write(name+"/2", seq2, q2); err != nil {
				return err
			}
		} else {
			seq, q := m.Apply(head(frag.Seq, templateLen), model.Read1, opts.ReadLen, opts.QualBase, rng)
			name := fmt.Sprintf("@r%d%s%s", id, opts.ReadNamePrefix, readTag(frag, opts.ReadLen))
			if err := writers[0].Write(name, seq, q); err != nil {
				return err
			}
		}
		if opts.Verbose && (n+1)%100000 == 0 {
			log.Printf("[worker %d] %d of %d reads generated", ws.index, n+1, ws.quota)
		}
	}
	for j := 0; j < streams; j++ {
		if err := bufs[j].Flush(); err != nil {
			return err
		}
	}
	return nil
}

// merge concatenates shard files in worker-index order into the final
// output stream(s), then removes them.
func merge(ctx context.Context, shards []workShard, streams int, opts *Opts) error {
	suffixes := []string{".fastq"}
	if streams == 2 {
		suffixes = []string{"_1.fastq", "_2.fastq"}
	}
	for j := 0; j < streams; j++ {
		path := opts.OutPrefix + suffixes[j]
		if opts.Gzip {
			path += ".gz"
		}
		if err := mergeStream(ctx, shards, j, path, opts.Gzip); err != nil {
			_ = file.Remove(ctx, path) // never leave a partial final artifact
			return err
		}
		log.Printf("wessim: wrote %s", path)
	}
	return nil
}

func mergeStream(ctx context.Context, shards []workShard, stream int, path string, gzipped bool) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	var (
		w  io.Writer = out.Writer(ctx)
		gz *gzip.Writer
	)
	if gzipped {
		gz = gzip.NewWriter(w)
		w = gz
	}
	bw := bufio.NewWriterSize(w, 1<<20)

	for i := range shards {
		f := shards[i].files[stream]
		if _, err = f.Seek(0, io.SeekStart); err != nil {
			break
		}
		if _, err = io.Copy(bw, f); err != nil {
			break
		}
		name := f.Name()
		if err = f.Close(); err != nil {
			break
		}
		shards[i].files[stream] = nil
		_ = os.Remove(name)
	}

	once := errors.Once{}
	once.Set(err)
	once.Set(bw.Flush())
	if gz != nil {
		once.Set(gz.Close())
	}
	once.Set(out.Close(ctx))
	return once.Err()
}
