// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classify

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/popgensims/sweep/common"
	"github.com/popgensims/sweep/common/log"
	"github.com/popgensims/sweep/common/metrics"
	"github.com/popgensims/sweep/harnesses"
	"github.com/popgensims/sweep/sim"
	"github.com/popgensims/sweep/stats"
)

// FvecName returns the per-population feature-vector file name in an
// entry directory; PredsName the classifier's raw windowed output, and
// PredictionsName the remapped prediction table.
func FvecName(pop string) string  { return "fvec." + pop + ".tsv" }
func PredsName(pop string) string { return "preds." + pop + ".tsv" }

const PredictionsName = "predictions.tsv"

// Prediction is one row of the classifier's windowed output: a
// sub-window, the predicted class, and the per-class probabilities.
// Start/End are 0-based half-open, in whatever coordinate frame the
// input was in; Remap translates them.
type Prediction struct {
	Chrom string
	Start int64
	End   int64
	Class string
	Probs []float64
}

// Predictions is a parsed classifier output file. ProbNames are the
// probability column names as the classifier wrote them.
type Predictions struct {
	ProbNames []string
	Rows      []Prediction
}

// ParsePredictions reads the classifier's prediction table: a header
// (chrom, winStart, winEnd, predClass, then one column per class
// probability) and one row per classified sub-window.
func ParsePredictions(r io.Reader) (*Predictions, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("empty prediction output")
	}
	header := strings.Split(sc.Text(), "\t")
	if len(header) < 5 || header[0] != "chrom" {
		return nil, fmt.Errorf("unexpected prediction header %q", sc.Text())
	}
	p := &Predictions{ProbNames: header[4:]}
	lineno := 1
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != len(header) {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", lineno, len(header), len(fields))
		}
		var row Prediction
		row.Chrom = fields[0]
		var err error
		if row.Start, err = strconv.ParseInt(fields[1], 10, 64); err != nil {
			return nil, fmt.Errorf("line %d: bad window start %q", lineno, fields[1])
		}
		if row.End, err = strconv.ParseInt(fields[2], 10, 64); err != nil {
			return nil, fmt.Errorf("line %d: bad window end %q", lineno, fields[2])
		}
		row.Class = fields[3]
		row.Probs = make([]float64, len(p.ProbNames))
		for i, f := range fields[4:] {
			if row.Probs[i], err = strconv.ParseFloat(f, 64); err != nil {
				return nil, fmt.Errorf("line %d: bad probability %q", lineno, f)
			}
		}
		p.Rows = append(p.Rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// Remap shifts every row's coordinates by offset: a pure translation
// from window-relative to chromosome coordinates. The row count and
// order are untouched.
func (p *Predictions) Remap(offset int64) {
	for i := range p.Rows {
		p.Rows[i].Start += offset
		p.Rows[i].End += offset
	}
}

// WritePredictions writes the remapped prediction table for one
// entry: the manifest tuple columns, the population, the absolute
// sub-window, the predicted class, and the probabilities under their
// classifier-given names. All populations share one header, so their
// probability column names must agree.
func WritePredictions(w io.Writer, e *sim.Entry, pops []string, preds []*Predictions) error {
	if len(pops) == 0 || len(pops) != len(preds) {
		return fmt.Errorf("got %d populations and %d prediction sets", len(pops), len(preds))
	}
	for _, p := range preds[1:] {
		if strings.Join(p.ProbNames, "\t") != strings.Join(preds[0].ProbNames, "\t") {
			return fmt.Errorf("probability columns differ between populations: %v vs %v",
				p.ProbNames, preds[0].ProbNames)
		}
	}
	bw := bufio.NewWriter(w)
	header := append(append([]string(nil), sim.ManifestHeader...), "population", "left", "right", "class")
	header = append(header, preds[0].ProbNames...)
	if _, err := fmt.Fprintln(bw, strings.Join(header, "\t")); err != nil {
		return err
	}
	for pi, p := range preds {
		for i := range p.Rows {
			row := &p.Rows[i]
			cols := append(e.TupleRow(), pops[pi],
				strconv.FormatInt(row.Start, 10),
				strconv.FormatInt(row.End, 10),
				row.Class)
			for _, pr := range row.Probs {
				cols = append(cols, strconv.FormatFloat(pr, 'g', -1, 64))
			}
			if _, err := fmt.Fprintln(bw, strings.Join(cols, "\t")); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// A Predictor applies the trained classifier to primary simulations:
// feature extraction from each entry's focal VCF, ancestral sequence,
// and sample table, then the classifier's predict mode, then
// coordinate remapping. Extraction and prediction are separate stages
// ('sweep fvec' and 'sweep predict') sharing this type.
type Predictor struct {
	Campaign   *common.Campaign
	Classifier *common.Tool
	Jobs       int
	Sink       *metrics.Sink

	Force       bool
	StopOnError bool
}

// ExtractFeatures runs feature extraction for every entry and each of
// its populations. The stats stage must have run first: it wrote the
// focal VCF and its companions.
func (p *Predictor) ExtractFeatures(ctx context.Context, entries []sim.Entry) error {
	return p.each(ctx, entries, "extracting features", p.extractOne)
}

// Predict runs the classifier and writes each entry's remapped
// prediction table.
func (p *Predictor) Predict(ctx context.Context, entries []sim.Entry) error {
	modelDir := ModelDir(p.Campaign)
	if _, err := os.Stat(filepath.Join(modelDir, "model.json")); err != nil {
		return fmt.Errorf("no trained model in %s (run 'sweep train' first): %w", modelDir, err)
	}
	return p.each(ctx, entries, "predicting", p.predictOne)
}

func (p *Predictor) extractOne(ctx context.Context, e *sim.Entry) error {
	dir := e.Dir(p.Campaign.OutputDir)
	focalVCF := filepath.Join(dir, stats.FocalVCFName)
	if _, err := os.Stat(focalVCF); err != nil {
		return fmt.Errorf("no focal VCF (run 'sweep stats' first): %w", err)
	}
	m, err := p.Campaign.Model(e.Model)
	if err != nil {
		return err
	}
	for _, pop := range m.Populations {
		fvec := filepath.Join(dir, FvecName(pop.Name))
		if !p.Force {
			if _, err := os.Stat(fvec); err == nil {
				log.Printf("%s (%s): features exist, skipping (use -force to rerun)", e, pop.Name)
				continue
			}
		}
		cl := harnesses.Runner{Tool: p.Classifier, Step: "fvec", Sink: p.Sink}
		err := cl.Run(ctx, dir, "fvecVcf", "diploid", focalVCF, e.Chrom,
			strconv.FormatInt(e.Window.Len(), 10), fvec,
			"--ancFileName", filepath.Join(dir, stats.AncestralName),
			"--sampleToPopFileName", filepath.Join(dir, stats.PopfileName),
			"--targetPop", pop.Name)
		if err != nil {
			return fmt.Errorf("population %s: %w", pop.Name, err)
		}
	}
	return nil
}

func (p *Predictor) predictOne(ctx context.Context, e *sim.Entry) error {
	dir := e.Dir(p.Campaign.OutputDir)
	outPath := filepath.Join(dir, PredictionsName)
	if !p.Force {
		if _, err := os.Stat(outPath); err == nil {
			log.Printf("%s: predictions exist, skipping (use -force to rerun)", e)
			return nil
		}
	}
	m, err := p.Campaign.Model(e.Model)
	if err != nil {
		return err
	}
	modelDir := ModelDir(p.Campaign)
	pops := make([]string, len(m.Populations))
	preds := make([]*Predictions, len(m.Populations))
	for i, pop := range m.Populations {
		pops[i] = pop.Name
		rawPath := filepath.Join(dir, PredsName(pop.Name))
		cl := harnesses.Runner{Tool: p.Classifier, Step: "predict", Sink: p.Sink}
		err := cl.Run(ctx, dir, "predict",
			filepath.Join(modelDir, "model.json"),
			filepath.Join(modelDir, "model.weights.hdf5"),
			filepath.Join(dir, FvecName(pop.Name)),
			rawPath)
		if err != nil {
			return fmt.Errorf("population %s: %w", pop.Name, err)
		}
		if preds[i], err = loadPredictions(rawPath); err != nil {
			return fmt.Errorf("population %s: %w", pop.Name, err)
		}
		// The classifier saw window-relative coordinates (the focal
		// VCF is rebased); shift them back to the chromosome.
		preds[i].Remap(e.Window.Left)
	}
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := WritePredictions(out, e, pops, preds); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func loadPredictions(path string) (*Predictions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := ParsePredictions(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func (p *Predictor) each(ctx context.Context, entries []sim.Entry, what string, f func(context.Context, *sim.Entry) error) error {
	jobs := p.Jobs
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
				if p.StopOnError {
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
