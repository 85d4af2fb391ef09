// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/popgensims/sweep/common"
	"github.com/popgensims/sweep/common/log"
	"github.com/popgensims/sweep/common/metrics"
	"github.com/popgensims/sweep/genome"
	"github.com/popgensims/sweep/harnesses"
	"github.com/popgensims/sweep/sim"
	"github.com/popgensims/sweep/trees"
)

// Per-entry artifact names, all under the entry's directory. The
// buffered VCF is the tree toolkit's raw export; the focal VCF is
// trimmed to the focal window and rebased so its left edge is
// position 1, the coordinate frame the classifier consumes.
const (
	BufferedVCFName = "sim.vcf"
	FocalVCFName    = "focal.vcf"
	PopfileName     = "popfile.tsv"
	AncestralName   = "anc.fa"
	StatsName       = "stats.tsv"
	CLRName         = "clr.tsv"
)

// SFSName returns the per-population spectrum file name in an entry
// directory.
func SFSName(pop string) string {
	return "sfs." + pop + ".tsv"
}

// SpectrumPath returns the pooled neutral spectrum path for a
// (model, population) pair under the output root. Sample sizes differ
// between models, so spectra pool within a model only.
func SpectrumPath(root, model, pop string) string {
	return filepath.Join(root, "spectrum", model+"."+pop+".tsv")
}

// A Runner derives statistics for manifest entries, at most Jobs at a
// time: VCF export through the tree toolkit, per-sub-window diversity,
// per-population spectra, ancestral sequence and sample-table exports,
// then the CLR detector against pooled neutral spectra. Failures are
// fatal per entry.
type Runner struct {
	Campaign *common.Campaign
	TreeTool *common.Tool
	Detector *common.Tool
	Jobs     int
	Sink     *metrics.Sink

	// Troughs adds the nonparametric trough scan over each
	// population's diversity series.
	Troughs bool
	// SkipDetector stops after extraction and spectrum pooling.
	SkipDetector bool
	// Force recomputes entries whose statistic tables already exist.
	Force       bool
	StopOnError bool

	mu      sync.Mutex
	recmaps map[string]*genome.RecMap
}

// Run processes the entries: extraction over all of them, neutral
// spectrum pooling, then detection. Pooling needs every neutral entry
// extracted, so the phases do not overlap.
func (r *Runner) Run(ctx context.Context, entries []sim.Entry) error {
	if err := r.each(ctx, entries, "extracting statistics", r.extractOne); err != nil {
		return err
	}
	if err := r.PoolSpectra(entries); err != nil {
		return err
	}
	if r.SkipDetector {
		return nil
	}
	return r.each(ctx, entries, "running detector", r.detectOne)
}

func (r *Runner) each(ctx context.Context, entries []sim.Entry, what string, f func(context.Context, *sim.Entry) error) error {
	jobs := r.Jobs
	if jobs <= 0 {
		jobs = 1
	}
	log.Printf("%s for %d simulations", what, len(entries))
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
				if r.StopOnError {
					cancel()
				}
			}
			return nil
		})
	}
	g.Wait()
	if n := failures.Load(); n > 0 {
		return fmt.Errorf("%s failed for %d of %d simulations, see log for details", what, n, len(entries))
	}
	return ctx.Err()
}

// extractOne produces everything derivable from one simulation without
// the detector: the buffered and focal VCFs, the sample table, the
// ancestral sequence, per-population spectra, and the diversity rows.
func (r *Runner) extractOne(ctx context.Context, e *sim.Entry) error {
	dir := e.Dir(r.Campaign.OutputDir)
	statsPath := filepath.Join(dir, StatsName)
	if !r.Force {
		if _, err := os.Stat(statsPath); err == nil {
			log.Printf("%s: statistics exist, skipping (use -force to recompute)", e)
			return nil
		}
	}

	treesPath := e.TreesPath(r.Campaign.OutputDir)
	meta, err := trees.ReadMeta(treesPath)
	if err != nil {
		return fmt.Errorf("simulation output missing or incomplete: %w", err)
	}
	if meta.Window() != e.Window {
		return fmt.Errorf("sidecar window %v disagrees with manifest window %v", meta.Window(), e.Window)
	}

	bufferedVCF := filepath.Join(dir, BufferedVCFName)
	tt := harnesses.Runner{Tool: r.TreeTool, Step: "vcf-export", Sink: r.Sink}
	if err := tt.RunOutput(ctx, dir, bufferedVCF, "vcf", treesPath); err != nil {
		return err
	}

	// The export's positions are 1-based within the simulated slice,
	// which starts at the buffered left bound. Trim to the focal
	// window and rebase so position 1 is the focal left edge.
	focalVCF := filepath.Join(dir, FocalVCFName)
	exportRegion := genome.Region{
		Chrom: e.Chrom,
		Left:  e.Window.Left - e.Window.BLeft,
		Right: e.Window.Right - e.Window.BLeft,
	}
	if err := filterVCFFile(bufferedVCF, focalVCF, exportRegion); err != nil {
		return err
	}

	v, err := genome.LoadVCF(focalVCF)
	if err != nil {
		return err
	}

	m, err := r.Campaign.Model(e.Model)
	if err != nil {
		return err
	}
	names := make([]string, len(m.Populations))
	counts := make([]int, len(m.Populations))
	for i, p := range m.Populations {
		names[i] = p.Name
		counts[i] = p.Samples
	}
	assigns := genome.Assignments(names, counts)
	if err := genome.WritePopfileFile(filepath.Join(dir, PopfileName), assigns); err != nil {
		return err
	}
	pops, err := genome.PopIndices(v, assigns)
	if err != nil {
		return err
	}

	anc := genome.AncestralSeq(v, 0, e.Window.Len())
	if err := genome.WriteFastaFile(filepath.Join(dir, AncestralName), e.Chrom, anc); err != nil {
		return err
	}

	// Frequencies come out in focal-relative positions; lift them to
	// chromosome coordinates for the statistic rows and the detector.
	freqs := PopFreqs(v, pops)
	for pop, fs := range freqs {
		for i := range fs {
			fs[i].Pos += e.Window.Left
		}
		freqs[pop] = fs
	}

	for i, p := range m.Populations {
		s := Spectrum(freqs[p.Name], 2*counts[i])
		if err := WriteSFSFile(filepath.Join(dir, SFSName(p.Name)), s); err != nil {
			return err
		}
	}

	rows, err := Diversity(e, freqs, r.Campaign.Subwindows)
	if err != nil {
		return err
	}
	if r.Troughs {
		rows = append(rows, troughRows(e, rows, names)...)
	}
	return WriteRowsFile(statsPath, rows)
}

// troughDelta is the minimum sub-window count on each side of a
// candidate break in the trough scan.
const troughDelta = 2

// troughRows runs the breakout scan over each population's diversity
// series and emits a row per detected trough, located at the flagged
// sub-window.
func troughRows(e *sim.Entry, rows []Row, pops []string) []Row {
	var out []Row
	for _, pop := range pops {
		series := PiSeries(rows, pop)
		idx, stat, ok := Trough(series, troughDelta)
		if !ok {
			continue
		}
		subs := Subwindows(e.Window.Region, len(series))
		out = append(out, Row{
			Entry: *e, Pop: pop, Stat: StatTrough,
			Left: subs[idx].Left, Right: subs[idx].Right, Value: stat,
		})
	}
	return out
}

// PoolSpectra pools the per-entry neutral spectra into one spectrum
// per (model, population), the detector's background. At least one
// extracted neutral entry per model is required.
func (r *Runner) PoolSpectra(entries []sim.Entry) error {
	pooled := make(map[string]*SFS)
	seen := make(map[string]bool)
	for i := range entries {
		e := &entries[i]
		if e.Scenario != sim.Neutral {
			continue
		}
		m, err := r.Campaign.Model(e.Model)
		if err != nil {
			return err
		}
		dir := e.Dir(r.Campaign.OutputDir)
		for _, p := range m.Populations {
			s, err := LoadSFS(filepath.Join(dir, SFSName(p.Name)))
			if err != nil {
				return fmt.Errorf("%s: %w", e, err)
			}
			key := e.Model + "." + p.Name
			seen[e.Model] = true
			if pooled[key] == nil {
				pooled[key] = NewSFS(s.N)
			}
			if err := pooled[key].Add(s); err != nil {
				return fmt.Errorf("%s (%s): %w", e, p.Name, err)
			}
		}
	}
	// A filtered run may exclude the neutral entries; pooled spectra
	// from an earlier unfiltered run then have to be on disk already.
	for i := range entries {
		e := &entries[i]
		if seen[e.Model] {
			continue
		}
		m, err := r.Campaign.Model(e.Model)
		if err != nil {
			return err
		}
		for _, p := range m.Populations {
			path := SpectrumPath(r.Campaign.OutputDir, e.Model, p.Name)
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("no neutral entries for model %s and no pooled spectrum at %s: the detector needs one", e.Model, path)
			}
		}
	}
	if err := os.MkdirAll(filepath.Join(r.Campaign.OutputDir, "spectrum"), 0755); err != nil {
		return err
	}
	for key, s := range pooled {
		path := filepath.Join(r.Campaign.OutputDir, "spectrum", key+".tsv")
		log.Printf("pooled neutral spectrum %s: %d sites", key, s.Segregating())
		if err := WriteSFSFile(path, s); err != nil {
			return err
		}
	}
	return nil
}

// detectOne writes the detector's four input files and runs it once
// per population, collecting CLR rows into the entry's clr table.
func (r *Runner) detectOne(ctx context.Context, e *sim.Entry) error {
	dir := e.Dir(r.Campaign.OutputDir)
	clrPath := filepath.Join(dir, CLRName)
	if !r.Force {
		if _, err := os.Stat(clrPath); err == nil {
			log.Printf("%s: detector output exists, skipping (use -force to rerun)", e)
			return nil
		}
	}

	v, err := genome.LoadVCF(filepath.Join(dir, FocalVCFName))
	if err != nil {
		return err
	}
	assigns, err := loadPopfile(filepath.Join(dir, PopfileName))
	if err != nil {
		return err
	}
	pops, err := genome.PopIndices(v, assigns)
	if err != nil {
		return err
	}
	freqs := PopFreqs(v, pops)
	for pop, fs := range freqs {
		for i := range fs {
			fs[i].Pos += e.Window.Left
		}
		freqs[pop] = fs
	}

	rm, err := r.recmap(e.Chrom)
	if err != nil {
		return err
	}

	m, err := r.Campaign.Model(e.Model)
	if err != nil {
		return err
	}
	var rows []Row
	for _, p := range m.Populations {
		points, err := r.detectPop(ctx, e, dir, p.Name, freqs[p.Name], rm)
		if err != nil {
			return fmt.Errorf("population %s: %w", p.Name, err)
		}
		rows = append(rows, CLRRows(e, p.Name, points)...)
	}
	if want := 2 * r.Campaign.Gridpoints * len(m.Populations); len(rows) != want {
		return fmt.Errorf("detector produced %d rows, want %d (%d grid points × %d populations × 2 statistics)",
			len(rows), want, r.Campaign.Gridpoints, len(m.Populations))
	}
	return WriteRowsFile(clrPath, rows)
}

func (r *Runner) detectPop(ctx context.Context, e *sim.Entry, dir, pop string, freqs []SiteFreq, rm *genome.RecMap) ([]CLRPoint, error) {
	prefix := filepath.Join(dir, "sf2."+pop)
	freqPath := prefix + ".freq.tsv"
	recPath := prefix + ".rec.tsv"
	gridPath := prefix + ".grid.tsv"
	outPath := prefix + ".out.tsv"
	spectPath := SpectrumPath(r.Campaign.OutputDir, e.Model, pop)

	if err := writeFormatted(freqPath, func(f *os.File) error {
		return WriteFreqFile(f, freqs)
	}); err != nil {
		return nil, err
	}
	if err := writeFormatted(recPath, func(f *os.File) error {
		return WriteRecFile(f, freqs, rm, e.Window.Left)
	}); err != nil {
		return nil, err
	}
	if err := writeFormatted(gridPath, func(f *os.File) error {
		return WriteGridFile(f, e.Window.Region, r.Campaign.Gridpoints)
	}); err != nil {
		return nil, err
	}

	det := harnesses.Runner{Tool: r.Detector, Step: "detector", Sink: r.Sink}
	if err := det.Run(ctx, dir, "-lrug", gridPath, freqPath, spectPath, recPath, outPath); err != nil {
		return nil, err
	}
	return LoadCLR(outPath)
}

func (r *Runner) recmap(chrom string) (*genome.RecMap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.recmaps[chrom]; ok {
		return m, nil
	}
	ch, err := r.Campaign.Chromosome(chrom)
	if err != nil {
		return nil, err
	}
	m, err := genome.LoadRecMap(r.Campaign.AssetPath(ch.RecMap))
	if err != nil {
		return nil, err
	}
	if r.recmaps == nil {
		r.recmaps = make(map[string]*genome.RecMap)
	}
	r.recmaps[chrom] = m
	return m, nil
}

func filterVCFFile(inPath, outPath string, region genome.Region) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if _, err := genome.FilterVCF(in, out, region, true); err != nil {
		out.Close()
		return fmt.Errorf("trimming %s: %w", inPath, err)
	}
	return out.Close()
}

func loadPopfile(path string) ([]genome.PopSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return genome.ReadPopfile(f)
}

func writeFormatted(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
