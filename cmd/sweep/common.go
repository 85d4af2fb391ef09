// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"

	"github.com/popgensims/sweep/common"
	"github.com/popgensims/sweep/common/log"
	"github.com/popgensims/sweep/common/metrics"
	"github.com/popgensims/sweep/common/profile"
	"github.com/popgensims/sweep/sim"
)

type csvFlag []string

func (c *csvFlag) String() string {
	return strings.Join([]string(*c), ",")
}

func (c *csvFlag) Set(input string) error {
	*c = strings.Split(input, ",")
	return nil
}

// pipelineCfg holds the flags every grid-processing subcommand shares:
// which campaign and tool file to use, local parallelism, logging, and
// where step metrics go.
type pipelineCfg struct {
	campaignPath string
	toolsPath    string
	manifestPath string
	metricsPath  string
	jobs         int
	quiet        bool
	printCmd     bool
	force        bool
	stopOnError  bool
}

func (c *pipelineCfg) setFlags(f *flag.FlagSet) {
	f.StringVar(&c.campaignPath, "campaign", "campaign.yaml", "campaign YAML file defining the study")
	f.StringVar(&c.toolsPath, "tools", "tools.toml", "tool file naming the external program binaries")
	f.StringVar(&c.manifestPath, "manifest", "", "manifest to operate on (default: <output>/manifest.tsv)")
	f.StringVar(&c.metricsPath, "metrics", "", "append per-step resource metrics to this JSON-lines file")
	f.IntVar(&c.jobs, "jobs", 1, "maximum simultaneous external tool runs")
	f.BoolVar(&c.quiet, "quiet", false, "suppress activity output on stderr")
	f.BoolVar(&c.printCmd, "shell", false, "print external commands as they run")
	f.BoolVar(&c.force, "force", false, "redo work whose outputs already exist")
	f.BoolVar(&c.stopOnError, "stop-on-error", false, "abandon remaining work after the first failure")
}

func (c *pipelineCfg) logging() {
	log.SetActivityLog(!c.quiet)
	log.SetCommandTrace(c.printCmd)
}

func (c *pipelineCfg) campaign() (*common.Campaign, error) {
	return common.LoadCampaign(c.campaignPath)
}

func (c *pipelineCfg) toolFile() (*common.ToolFile, error) {
	return common.LoadToolFile(c.toolsPath)
}

func (c *pipelineCfg) manifest(camp *common.Campaign) ([]sim.Entry, error) {
	path := c.manifestPath
	if path == "" {
		path = filepath.Join(camp.OutputDir, "manifest.tsv")
	}
	return sim.LoadManifest(path)
}

func (c *pipelineCfg) sink() (*metrics.Sink, error) {
	if c.metricsPath == "" {
		return nil, nil
	}
	return metrics.NewSink(c.metricsPath)
}

// filterFlags are the manifest-subset flags shared by the stages that
// walk manifest entries.
type filterFlags struct {
	scenario string
	chrom    string
	reps     string
}

func (ff *filterFlags) setFlags(f *flag.FlagSet) {
	f.StringVar(&ff.scenario, "scenario", "", "restrict to one scenario (neutral, bgs, sweep)")
	f.StringVar(&ff.chrom, "chrom", "", "restrict to one chromosome")
	f.StringVar(&ff.reps, "reps", "", "restrict to a replicate range lo:hi (inclusive; either side may be empty)")
}

func (ff *filterFlags) filter() (sim.Filter, error) {
	flt := sim.Filter{RepHi: -1}
	switch sim.Scenario(ff.scenario) {
	case "", sim.Neutral, sim.BGS, sim.Sweep:
		flt.Scenario = sim.Scenario(ff.scenario)
	default:
		return flt, fmt.Errorf("unknown scenario %q", ff.scenario)
	}
	flt.Chrom = ff.chrom
	if ff.reps == "" {
		return flt, nil
	}
	lo, hi, ok := strings.Cut(ff.reps, ":")
	if !ok {
		return flt, fmt.Errorf("bad -reps %q: want lo:hi", ff.reps)
	}
	var err error
	if lo != "" {
		if flt.RepLo, err = strconv.Atoi(lo); err != nil {
			return flt, fmt.Errorf("bad -reps lower bound %q", lo)
		}
	}
	if hi != "" {
		if flt.RepHi, err = strconv.Atoi(hi); err != nil {
			return flt, fmt.Errorf("bad -reps upper bound %q", hi)
		}
	}
	return flt, nil
}

// profileCfg collects pprof profiles of sweep's own in-process work.
// Repeated runs pointing at the same output merge into it, so a
// campaign profiled stage by stage accumulates one profile per kind.
type profileCfg struct {
	cpuPath string
	memPath string

	cpuPart string
}

func (pc *profileCfg) setFlags(f *flag.FlagSet) {
	f.StringVar(&pc.cpuPath, "cpuprofile", "", "write (merging into any existing) CPU profile to this file")
	f.StringVar(&pc.memPath, "memprofile", "", "write (merging into any existing) heap profile to this file")
}

func (pc *profileCfg) start() error {
	if pc.cpuPath == "" {
		return nil
	}
	pc.cpuPart = partName(pc.cpuPath)
	f, err := os.Create(pc.cpuPart)
	if err != nil {
		return err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return err
	}
	return nil
}

// stop finishes profiling and folds the new parts into the output
// files, merging with profiles previous stage runs left there.
func (pc *profileCfg) stop() error {
	if pc.cpuPart != "" {
		pprof.StopCPUProfile()
		if err := mergeProfile(pc.cpuPath); err != nil {
			return err
		}
	}
	if pc.memPath != "" {
		runtime.GC()
		part := partName(pc.memPath)
		f, err := os.Create(part)
		if err != nil {
			return err
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		if err := mergeProfile(pc.memPath); err != nil {
			return err
		}
	}
	return nil
}

func partName(out string) string {
	return fmt.Sprintf("%s.part.%d", out, os.Getpid())
}

func mergeProfile(out string) error {
	if _, err := os.Stat(out); err == nil {
		if err := os.Rename(out, out+".part.prev"); err != nil {
			return err
		}
	}
	dir := filepath.Dir(out)
	base := filepath.Base(out)
	return profile.MergeDir(dir, out, func(name string) bool {
		return strings.HasPrefix(name, base+".part.")
	})
}
