// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/popgensims/sweep/classify"
	"github.com/popgensims/sweep/common"
	"github.com/popgensims/sweep/common/log"
	"github.com/popgensims/sweep/merge"
	"github.com/popgensims/sweep/sim"
	"github.com/popgensims/sweep/stats"
)

const (
	mergeLongDesc = `Concatenate per-simulation tables into combined reports.

With explicit files (or -glob), merges them into -o. Without, walks the
manifest and builds the campaign's three combined tables under
<output>/combined/: statistics, detector results, and classifier
predictions. Headers are deduplicated: the first file's header is kept and
the rest must match it. Row order follows input order.
`
	mergeUsage = `Usage: %s merge [flags] [file ...]
`
)

type mergeCmd struct {
	campaignPath string
	manifestPath string
	outPath      string
	glob         string
	headerMode   string
	quiet        bool
}

func (*mergeCmd) Name() string     { return "merge" }
func (*mergeCmd) Synopsis() string { return "Concatenate per-simulation tables into reports." }
func (*mergeCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprint(w, mergeLongDesc)
	fmt.Fprintf(w, mergeUsage, base)
}

func (c *mergeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.campaignPath, "campaign", "campaign.yaml", "campaign YAML file (used when no files are given)")
	f.StringVar(&c.manifestPath, "manifest", "", "manifest to walk (default: <output>/manifest.tsv)")
	f.StringVar(&c.outPath, "o", "", "combined output path (required with explicit files or -glob)")
	f.StringVar(&c.glob, "glob", "", "merge the files matching this pattern instead of explicit files")
	f.StringVar(&c.headerMode, "header", "dedup", "header handling: dedup or none")
	f.BoolVar(&c.quiet, "quiet", false, "suppress activity output on stderr")
}

func (c *mergeCmd) Run(args []string) error {
	log.SetActivityLog(!c.quiet)
	mode, err := c.mode()
	if err != nil {
		return err
	}

	if len(args) > 0 || c.glob != "" {
		if c.outPath == "" {
			return fmt.Errorf("-o is required when merging explicit files")
		}
		inputs := args
		if c.glob != "" {
			if len(args) > 0 {
				return fmt.Errorf("give either explicit files or -glob, not both")
			}
			if inputs, err = merge.Glob(c.glob); err != nil {
				return err
			}
		}
		if err := merge.ConcatFile(c.outPath, mode, inputs...); err != nil {
			return err
		}
		log.Printf("merged %d files into %s", len(inputs), c.outPath)
		return nil
	}

	return c.mergeCampaign(mode)
}

func (c *mergeCmd) mode() (merge.HeaderMode, error) {
	switch c.headerMode {
	case "dedup":
		return merge.HeaderDedup, nil
	case "none":
		return merge.HeaderNone, nil
	}
	return 0, fmt.Errorf("unknown header mode %q", c.headerMode)
}

// mergeCampaign walks the manifest and merges each kind of per-entry
// table that exists. Entries missing a table are skipped: a campaign
// merged before prediction still gets its statistics report.
func (c *mergeCmd) mergeCampaign(mode merge.HeaderMode) error {
	camp, err := common.LoadCampaign(c.campaignPath)
	if err != nil {
		return err
	}
	manifestPath := c.manifestPath
	if manifestPath == "" {
		manifestPath = filepath.Join(camp.OutputDir, "manifest.tsv")
	}
	entries, err := sim.LoadManifest(manifestPath)
	if err != nil {
		return err
	}
	combined := filepath.Join(camp.OutputDir, "combined")
	for _, kind := range []struct {
		name string
		out  string
	}{
		{stats.StatsName, "statistics.tsv"},
		{stats.CLRName, "detector.tsv"},
		{classify.PredictionsName, "predictions.tsv"},
	} {
		var inputs []string
		for i := range entries {
			p := filepath.Join(entries[i].Dir(camp.OutputDir), kind.name)
			if _, err := os.Stat(p); err == nil {
				inputs = append(inputs, p)
			}
		}
		if len(inputs) == 0 {
			log.Printf("no %s files yet, skipping", kind.name)
			continue
		}
		out := filepath.Join(combined, kind.out)
		if err := merge.ConcatFile(out, mode, inputs...); err != nil {
			return err
		}
		log.Printf("merged %d %s files into %s", len(inputs), kind.name, out)
	}
	return nil
}
