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
	fvecLongDesc = `Extract classifier feature vectors from completed simulations.

For each manifest entry and each of its populations this runs the
classifier tool's VCF feature extraction over the focal VCF, ancestral
sequence, and sample table that 'sweep stats' exported. The resulting
per-population feature files feed 'sweep predict'.
`
	fvecUsage = `Usage: %s fvec [flags]
`
)

type fvecCmd struct {
	pipelineCfg
	filterFlags
}

func (*fvecCmd) Name() string     { return "fvec" }
func (*fvecCmd) Synopsis() string { return "Extract classifier feature vectors." }
func (*fvecCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprint(w, fvecLongDesc)
	fmt.Fprintf(w, fvecUsage, base)
}

func (c *fvecCmd) SetFlags(f *flag.FlagSet) {
	c.pipelineCfg.setFlags(f)
	c.filterFlags.setFlags(f)
}

func (c *fvecCmd) Run(args []string) error {
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
	return p.ExtractFeatures(context.Background(), entries)
}
