// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/popgensims/sweep/common"
	"github.com/popgensims/sweep/common/fileutil"
	"github.com/popgensims/sweep/common/log"
	"github.com/popgensims/sweep/common/metrics"
	"github.com/popgensims/sweep/genome"
	"github.com/popgensims/sweep/harnesses"
	"github.com/popgensims/sweep/trees"
)

// A Runner drives manifest entries through the engine, at most Jobs at
// a time. Failures are fatal per entry: the entry is reported and the
// rest keep running unless StopOnError is set.
type Runner struct {
	Campaign *common.Campaign
	Engine   *common.Tool
	Jobs     int
	Sink     *metrics.Sink

	// Force reruns entries whose outputs already exist.
	Force bool
	// StopOnError abandons the remaining entries after the first
	// failure.
	StopOnError bool

	mu     sync.Mutex
	annots map[string]*genome.AnnotSet
}

// Run executes the entries. It returns an error if any entry failed.
func (r *Runner) Run(ctx context.Context, entries []Entry) error {
	jobs := r.Jobs
	if jobs <= 0 {
		jobs = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var g errgroup.Group
	g.SetLimit(jobs)
	var failures atomic.Int64
	for i := range entries {
		e := &entries[i]
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if err := r.runOne(ctx, e); err != nil {
				failures.Add(1)
				log.Error(fmt.Errorf("%s: %w", e, err))
				if r.StopOnError {
					cancel()
				}
			}
			return nil
		})
	}
	g.Wait()
	if n := failures.Load(); n > 0 {
		return fmt.Errorf("%d of %d simulations failed, see log for details", n, len(entries))
	}
	return ctx.Err()
}

func (r *Runner) runOne(ctx context.Context, e *Entry) error {
	c := r.Campaign
	dir := e.Dir(c.OutputDir)
	treesPath := e.TreesPath(c.OutputDir)
	if !r.Force {
		if _, err := trees.ReadMeta(treesPath); err == nil {
			log.Printf("%s: output exists, skipping (use -force to rerun)", e)
			return nil
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	m, err := c.Model(e.Model)
	if err != nil {
		return err
	}
	ch, err := c.Chromosome(e.Chrom)
	if err != nil {
		return err
	}

	var sweepTime float64
	if e.Scenario == Sweep {
		sweepTime = SweepTime(e, m.Ne)
	}
	meta := BuildMeta(e, sweepTime)

	annotPath := ""
	if e.Scenario == BGS {
		annotPath, err = r.writeAnnot(e, dir)
		if err != nil {
			return err
		}
	}

	args := EngineArgs(e, c, m, meta, c.AssetPath(ch.RecMap), annotPath, treesPath)
	eng := harnesses.Runner{Tool: r.Engine, Step: "sim", Sink: r.Sink}
	if err := eng.Run(ctx, dir, args...); err != nil {
		return err
	}
	if ok, err := fileutil.FileExists(treesPath); err != nil || !ok {
		return fmt.Errorf("engine exited successfully but wrote no %s", treesPath)
	}
	// The sidecar is written last: its presence marks the entry done.
	return trees.WriteMeta(treesPath, meta)
}

// writeAnnot clips the entry's annotation intervals to its buffered
// region and writes them beside the output. Parsed annotation sets are
// cached per (set, chromosome) across entries.
func (r *Runner) writeAnnot(e *Entry, dir string) (string, error) {
	set, err := r.annotSet(e.Annot, e.Chrom)
	if err != nil {
		return "", err
	}
	ivs := set.Clip(e.Window.Buffered())
	if len(ivs) == 0 {
		// An empty intersection is a valid contig: the engine runs it
		// neutrally, with nothing for the DFE to act on.
		log.Printf("%s: annotation %s has no intervals in %s", e, e.Annot, e.Window.Buffered())
	}
	path := filepath.Join(dir, "annot.tsv")
	if err := genome.WriteIntervalsFile(path, ivs); err != nil {
		return "", err
	}
	return path, nil
}

func (r *Runner) annotSet(id, chrom string) (*genome.AnnotSet, error) {
	key := id + "/" + chrom
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.annots[key]; ok {
		return set, nil
	}
	a, err := r.Campaign.Annotation(id)
	if err != nil {
		return nil, err
	}
	set, err := genome.LoadAnnots(r.Campaign.AssetPath(a.Path), id, chrom, a.Types)
	if err != nil {
		return nil, err
	}
	if r.annots == nil {
		r.annots = make(map[string]*genome.AnnotSet)
	}
	r.annots[key] = set
	return set, nil
}
