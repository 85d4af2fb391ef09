// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/popgensims/sweep/common"
	"github.com/popgensims/sweep/stats"
)

const (
	statsLongDesc = `Compute summary statistics over completed simulations.

For each manifest entry this exports the simulated variants (VCF over the
buffered region, trimmed and rebased to the focal window), the ancestral
sequence, and the sample table; computes per-population, per-sub-window
nucleotide diversity and segregating sites; tallies site-frequency spectra;
pools the neutral spectra per model; and runs the CLR sweep detector at the
campaign's grid sites against the pooled spectra. Statistic rows land in
stats.tsv and clr.tsv in each entry's directory.
`
	statsUsage = `Usage: %s stats [flags]
`
)

type statsCmd struct {
	pipelineCfg
	filterFlags
	profileCfg
	troughs      bool
	skipDetector bool
}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "Compute statistics and run the sweep detector." }
func (*statsCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprint(w, statsLongDesc)
	fmt.Fprintf(w, statsUsage, base)
}

func (c *statsCmd) SetFlags(f *flag.FlagSet) {
	c.pipelineCfg.setFlags(f)
	c.filterFlags.setFlags(f)
	c.profileCfg.setFlags(f)
	f.BoolVar(&c.troughs, "troughs", false, "also run the nonparametric trough scan over each diversity series")
	f.BoolVar(&c.skipDetector, "skip-detector", false, "stop after extraction and spectrum pooling")
}

func (c *statsCmd) Run(args []string) (err error) {
	if len(args) != 0 {
		return fmt.Errorf("unexpected arguments")
	}
	c.logging()
	if err := c.profileCfg.start(); err != nil {
		return err
	}
	// Profiles are finalized even when a stage fails, so partial runs
	// still merge their parts.
	defer func() {
		if perr := c.profileCfg.stop(); perr != nil && err == nil {
			err = perr
		}
	}()

	camp, err := c.campaign()
	if err != nil {
		return err
	}
	tf, err := c.toolFile()
	if err != nil {
		return err
	}
	treetool, err := tf.Tool(common.ToolTreeTool)
	if err != nil {
		return err
	}
	var detector *common.Tool
	if !c.skipDetector {
		if detector, err = tf.Tool(common.ToolDetector); err != nil {
			return err
		}
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

	r := stats.Runner{
		Campaign:     camp,
		TreeTool:     treetool,
		Detector:     detector,
		Jobs:         c.jobs,
		Sink:         sink,
		Troughs:      c.troughs,
		SkipDetector: c.skipDetector,
		Force:        c.force,
		StopOnError:  c.stopOnError,
	}
	return r.Run(context.Background(), entries)
}
