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
	"github.com/popgensims/sweep/sim"
)

const (
	simLongDesc = `Run the forward simulations the manifest calls for.

Each manifest entry becomes one engine invocation over its buffered window,
with the scenario's extras (fitness-effect intervals for background
selection, a selected mutation for sweeps) derived from the campaign. The
windowing metadata is attached to every output. Entries whose outputs exist
are skipped, so interrupted runs resume where they stopped.
`
	simUsage = `Usage: %s sim [flags]
`
)

type simCmd struct {
	pipelineCfg
	filterFlags
}

func (*simCmd) Name() string     { return "sim" }
func (*simCmd) Synopsis() string { return "Run the manifest's forward simulations." }
func (*simCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprint(w, simLongDesc)
	fmt.Fprintf(w, simUsage, base)
}

func (c *simCmd) SetFlags(f *flag.FlagSet) {
	c.pipelineCfg.setFlags(f)
	c.filterFlags.setFlags(f)
}

func (c *simCmd) Run(args []string) error {
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
	engine, err := tf.Tool(common.ToolEngine)
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

	r := sim.Runner{
		Campaign:    camp,
		Engine:      engine,
		Jobs:        c.jobs,
		Sink:        sink,
		Force:       c.force,
		StopOnError: c.stopOnError,
	}
	return r.Run(context.Background(), entries)
}
