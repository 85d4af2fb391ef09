// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/popgensims/sweep/common"
	"github.com/popgensims/sweep/common/log"
	"github.com/popgensims/sweep/common/metrics"
	"github.com/popgensims/sweep/harnesses"
	"github.com/popgensims/sweep/merge"
)

// TrainRoot returns the training workspace under the output root.
func TrainRoot(c *common.Campaign) string {
	return filepath.Join(c.OutputDir, "train")
}

// ModelDir returns where trained model artifacts land.
func ModelDir(c *common.Campaign) string {
	if c.Train.ModelDir != "" {
		return c.Train.ModelDir
	}
	return filepath.Join(TrainRoot(c), "model")
}

// ClassFvecPath returns the concatenated feature file for one class.
func ClassFvecPath(root string, class Class) string {
	return filepath.Join(root, "fvec", string(class)+".fvec")
}

// A Trainer builds the classifier: coalescent training simulations,
// per-replicate feature extraction, per-class concatenation, then the
// classifier tool's training mode. The three stages are separately
// invocable so a workflow engine can schedule them as distinct rules.
type Trainer struct {
	Campaign   *common.Campaign
	TrainSim   *common.Tool
	Classifier *common.Tool
	Jobs       int
	Sink       *metrics.Sink

	Force       bool
	StopOnError bool
}

// Simulate runs the coalescent simulator for every training replicate.
func (t *Trainer) Simulate(ctx context.Context, entries []TrainEntry) error {
	root := TrainRoot(t.Campaign)
	return t.each(ctx, entries, "simulating training data", func(ctx context.Context, e *TrainEntry) error {
		out := e.MSOutPath(root)
		if !t.Force {
			if _, err := os.Stat(out); err == nil {
				log.Printf("%s: output exists, skipping (use -force to rerun)", e)
				return nil
			}
		}
		dir := e.Dir(root)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		sim := harnesses.Runner{Tool: t.TrainSim, Step: "train-sim", Sink: t.Sink}
		return sim.RunOutput(ctx, dir, out, SimArgs(e, &t.Campaign.Train)...)
	})
}

// ExtractFeatures runs the classifier tool's simulated-data feature
// extraction per replicate, then concatenates each class's feature
// files (header kept once) into the class training file.
func (t *Trainer) ExtractFeatures(ctx context.Context, entries []TrainEntry) error {
	root := TrainRoot(t.Campaign)
	err := t.each(ctx, entries, "extracting training features", func(ctx context.Context, e *TrainEntry) error {
		msout := e.MSOutPath(root)
		fvec := msout + ".fvec"
		if !t.Force {
			if _, err := os.Stat(fvec); err == nil {
				log.Printf("%s: features exist, skipping (use -force to rerun)", e)
				return nil
			}
		}
		cl := harnesses.Runner{Tool: t.Classifier, Step: "train-fvec", Sink: t.Sink}
		return cl.Run(ctx, e.Dir(root), "fvecSim", "haploid", msout, fvec,
			"--totalPhysLen", strconv.FormatInt(t.Campaign.Train.Sites, 10))
	})
	if err != nil {
		return err
	}
	for _, class := range Classes {
		var inputs []string
		for i := range entries {
			if entries[i].Class == class {
				inputs = append(inputs, entries[i].MSOutPath(root)+".fvec")
			}
		}
		out := ClassFvecPath(root, class)
		log.Printf("concatenating %d %s feature files into %s", len(inputs), class, out)
		if err := merge.ConcatFile(out, merge.HeaderDedup, inputs...); err != nil {
			return err
		}
	}
	return nil
}

// TrainModel invokes the classifier tool's training mode on the three
// class feature files. Model artifacts land in the model directory.
func (t *Trainer) TrainModel(ctx context.Context) error {
	root := TrainRoot(t.Campaign)
	modelDir := ModelDir(t.Campaign)
	if err := os.MkdirAll(modelDir, 0755); err != nil {
		return err
	}
	for _, class := range Classes {
		if _, err := os.Stat(ClassFvecPath(root, class)); err != nil {
			return fmt.Errorf("missing %s training features (run the feature stage first): %w", class, err)
		}
	}
	cl := harnesses.Runner{Tool: t.Classifier, Step: "train-model", Sink: t.Sink}
	return cl.Run(ctx, modelDir, "train",
		ClassFvecPath(root, ClassNeutral),
		ClassFvecPath(root, ClassHard),
		ClassFvecPath(root, ClassSoft),
		filepath.Join(modelDir, "model"))
}

func (t *Trainer) each(ctx context.Context, entries []TrainEntry, what string, f func(context.Context, *TrainEntry) error) error {
	jobs := t.Jobs
	if jobs <= 0 {
		jobs = 1
	}
	log.Printf("%s: %d replicates", what, len(entries))
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
			if err := f(ctx, e); err != nil {
				failures.Add(1)
				log.Error(fmt.Errorf("%s: %w", e, err))
				if t.StopOnError {
					cancel()
				}
			}
			return nil
		})
	}
	g.Wait()
	if n := failures.Load(); n > 0 {
		return fmt.Errorf("%s failed for %d of %d replicates, see log for details", what, n, len(entries))
	}
	return ctx.Err()
}
