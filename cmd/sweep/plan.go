// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/popgensims/sweep/common"
	"github.com/popgensims/sweep/common/log"
	"github.com/popgensims/sweep/sim"
)

const (
	planLongDesc = `Expand a campaign into its simulation manifest.

The manifest has one row per simulation: the full cross product of the
campaign's models, scenarios, selection coefficients, time multipliers,
windows, and replicates, with per-entry seeds and genetic-distance window
buffers derived here once. Every later stage works from manifest rows, so
planning is the only stage that reads the grid definition.
`
	planUsage = `Usage: %s plan [flags]
`
)

type planCmd struct {
	campaignPath string
	outPath      string
	check        bool
	quiet        bool
}

func (*planCmd) Name() string     { return "plan" }
func (*planCmd) Synopsis() string { return "Expand a campaign into its simulation manifest." }
func (*planCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprint(w, planLongDesc)
	fmt.Fprintln(w, common.CampaignHelp)
	fmt.Fprintf(w, planUsage, base)
}

func (c *planCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.campaignPath, "campaign", "campaign.yaml", "campaign YAML file defining the study")
	f.StringVar(&c.outPath, "o", "", "manifest output path (default: <output>/manifest.tsv)")
	f.BoolVar(&c.check, "check", false, "verify an existing manifest against the campaign instead of writing")
	f.BoolVar(&c.quiet, "quiet", false, "suppress activity output on stderr")
}

func (c *planCmd) Run(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unexpected arguments")
	}
	log.SetActivityLog(!c.quiet)

	camp, err := common.LoadCampaign(c.campaignPath)
	if err != nil {
		return err
	}
	entries, err := sim.Plan(camp)
	if err != nil {
		return err
	}
	path := c.outPath
	if path == "" {
		path = filepath.Join(camp.OutputDir, "manifest.tsv")
	}

	if c.check {
		existing, err := sim.LoadManifest(path)
		if err != nil {
			return err
		}
		if !sim.SameEntries(entries, existing) {
			return fmt.Errorf("%s does not match the campaign: re-plan (outputs keyed by the old manifest may be stale)", path)
		}
		log.Printf("%s matches the campaign (%d entries)", path, len(entries))
		return nil
	}

	if err := sim.WriteManifestFile(path, entries); err != nil {
		return err
	}
	log.Printf("planned %d simulations into %s", len(entries), path)
	return nil
}
