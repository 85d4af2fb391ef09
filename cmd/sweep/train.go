// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/popgensims/sweep/classify"
	"github.com/popgensims/sweep/common"
)

const (
	trainLongDesc = `Build the sweep classifier from coalescent training simulations.

Training is decoupled from the primary grid. It runs in three stages:
  sim    simulate neutral, hard-sweep, and soft-sweep training replicates
         with the coalescent simulator (sweep classes at each of the eleven
         sub-window positions)
  fvec   extract feature vectors per replicate and concatenate them into
         one feature file per class
  model  train the classifier on the three class files

By default all three run in order; -stage runs one, so a workflow engine
can schedule them as separate rules.
`
	trainUsage = `Usage: %s train [flags]
`
)

type trainCmd struct {
	pipelineCfg
	stage string
}

func (*trainCmd) Name() string     { return "train" }
func (*trainCmd) Synopsis() string { return "Simulate training data and train the classifier." }
func (*trainCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprint(w, trainLongDesc)
	fmt.Fprintf(w, trainUsage, base)
}

func (c *trainCmd) SetFlags(f *flag.FlagSet) {
	c.pipelineCfg.setFlags(f)
	f.StringVar(&c.stage, "stage", "all", "which training stage to run (sim, fvec, model, all)")
}

func (c *trainCmd) Run(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unexpected arguments")
	}
	switch c.stage {
	case "sim", "fvec", "model", "all":
	default:
		return fmt.Errorf("unknown training stage %q", c.stage)
	}
	c.logging()

	camp, err := c.campaign()
	if err != nil {
		return err
	}
	tf, err := c.toolFile()
	if err != nil {
		return err
	}
	classifier, err := tf.Tool(common.ToolClassifier)
	if err != nil {
		return err
	}
	t := classify.Trainer{
		Campaign:    camp,
		Classifier:  classifier,
		Jobs:        c.jobs,
		Force:       c.force,
		StopOnError: c.stopOnError,
	}
	if c.stage == "sim" || c.stage == "all" {
		if t.TrainSim, err = tf.Tool(common.ToolTrainSim); err != nil {
			return err
		}
	}
	sink, err := c.sink()
	if err != nil {
		return err
	}
	defer sink.Close()
	t.Sink = sink

	var entries []classify.TrainEntry
	if c.stage != "model" {
		if entries, err = classify.TrainPlan(&camp.Train, camp.Seed); err != nil {
			return err
		}
	}

	ctx := context.Background()
	if c.stage == "sim" || c.stage == "all" {
		if err := t.Simulate(ctx, entries); err != nil {
			return err
		}
	}
	if c.stage == "fvec" || c.stage == "all" {
		if err := t.ExtractFeatures(ctx, entries); err != nil {
			return err
		}
	}
	if c.stage == "model" || c.stage == "all" {
		if err := t.TrainModel(ctx); err != nil {
			return err
		}
	}
	return nil
}
