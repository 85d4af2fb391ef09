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
	predictLongDesc = `Apply the trained classifier to extracted feature vectors.

For each manifest entry and population this runs the classifier's predict
mode over the feature vectors from 'sweep fvec', shifts the windowed
predictions from window-relative back to chromosome coordinates, and
writes the entry's prediction table keyed by its parameter tuple.
`
	predictUsage = `Usage: %s predict [flags]
`
)

type predictCmd struct {
	pipelineCfg
	filterFlags
}

func (*predictCmd) Name() string     { return "predict" }
func (*predictCmd) Synopsis() string { return "Classify simulations with the trained model." }
func (*predictCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprint(w, predictLongDesc)
	fmt.Fprintf(w, predictUsage, base)
}

func (c *predictCmd) SetFlags(f *flag.FlagSet) {
	c.pipelineCfg.setFlags(f)
	c.filterFlags.setFlags(f)
}

func (c *predictCmd) Run(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unexpected arguments")
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
	entries, err := c.manifest(camp)
	if err != nil {
		return err
	}
	flt, err := c.filter()
	if err != nil {
		return err
	}
	entries = flt.Apply(entries)
	if len(entries) == 0 {
		return fmt.Errorf("no manifest entries match the given filters")
	}
	sink, err := c.sink()
	if err != nil {
		return err
	}
	defer sink.Close()

	p := classify.Predictor{
		Campaign:    camp,
		Classifier:  classifier,
		Jobs:        c.jobs,
		Sink:        sink,
		Force:       c.force,
		StopOnError: c.stopOnError,
	}
	return p.Predict(context.Background(), entries)
}
