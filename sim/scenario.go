// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sim expands a campaign into its simulation grid and runs the
// grid through the forward-simulation engine. Each manifest entry is
// one engine invocation; everything downstream (statistics, detector
// runs, classification) is derived per entry from its output files.
package sim

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/popgensims/sweep/genome"
)

// Scenario is the selective regime a simulation runs under.
type Scenario string

const (
	// Neutral simulates the demographic model alone.
	Neutral Scenario = "neutral"
	// BGS adds a fitness-effect distribution over annotation intervals
	// (background selection), no sweep.
	BGS Scenario = "bgs"
	// Sweep adds a single selected mutation at the window midpoint.
	Sweep Scenario = "sweep"
)

// Entry is one row of the manifest: a scenario, the parameter tuple
// that identifies it, and the buffered window it simulates. Axes a
// scenario doesn't use hold placeholder values ("none", "neutral", 0)
// so one directory layout covers all three regimes.
type Entry struct {
	Scenario Scenario
	Model    string
	Annot    string
	DFE      string
	Coeff    float64
	TimeMult float64
	Chrom    string
	Window   genome.Window
	Rep      int
	Seed     int64
}

const (
	// NoAnnot and NoDFE fill the annotation and DFE axes for
	// scenarios that don't use them.
	NoAnnot = "none"
	NoDFE   = "neutral"
)

// Dir returns the entry's directory under the output root:
// <model>/<annot>/<dfe>/s<coeff>/t<tmult>/<chrom>/w<left>-<right>/r<rep>.
func (e *Entry) Dir(root string) string {
	return filepath.Join(root,
		e.Model, e.Annot, e.DFE,
		"s"+formatFloat(e.Coeff), "t"+formatFloat(e.TimeMult),
		e.Chrom,
		fmt.Sprintf("w%d-%d", e.Window.Left, e.Window.Right),
		fmt.Sprintf("r%d", e.Rep),
	)
}

// TreesPath returns the engine output path for the entry.
func (e *Entry) TreesPath(root string) string {
	return filepath.Join(e.Dir(root), "sim.trees")
}

// String identifies the entry in logs and errors.
func (e *Entry) String() string {
	return fmt.Sprintf("%s %s %s:%d-%d r%d", e.Scenario, e.Model,
		e.Chrom, e.Window.Left, e.Window.Right, e.Rep)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ManifestHeader is the manifest's fixed column order. Downstream
// stat tables reuse the same tuple columns so merged outputs stay
// keyed consistently.
var ManifestHeader = []string{
	"scenario", "model", "annotation", "dfe", "coefficient", "time_mult",
	"chrom", "window_left", "window_right", "bleft", "bright", "rep", "seed",
}

// TupleRow renders the entry's tuple columns in ManifestHeader order.
func (e *Entry) TupleRow() []string {
	return []string{
		string(e.Scenario), e.Model, e.Annot, e.DFE,
		formatFloat(e.Coeff), formatFloat(e.TimeMult),
		e.Chrom,
		strconv.FormatInt(e.Window.Left, 10),
		strconv.FormatInt(e.Window.Right, 10),
		strconv.FormatInt(e.Window.BLeft, 10),
		strconv.FormatInt(e.Window.BRight, 10),
		strconv.Itoa(e.Rep),
		strconv.FormatInt(e.Seed, 10),
	}
}

// WriteManifest writes entries as TSV with a header line.
func WriteManifest(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, strings.Join(ManifestHeader, "\t")); err != nil {
		return err
	}
	for i := range entries {
		if _, err := fmt.Fprintln(bw, strings.Join(entries[i].TupleRow(), "\t")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteManifestFile writes the manifest to path, creating parents.
func WriteManifestFile(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteManifest(f, entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadManifest parses a manifest, validating scenarios and windowing
// on every row.
func ReadManifest(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("empty manifest")
	}
	if got := sc.Text(); got != strings.Join(ManifestHeader, "\t") {
		return nil, fmt.Errorf("unexpected manifest header %q", got)
	}
	var entries []Entry
	lineno := 1
	for sc.Scan() {
		lineno++
		line := sc.Text()
		if line == "" {
			continue
		}
		e, err := parseEntry(line)
		if err != nil {
			return nil, fmt.Errorf("manifest line %d: %w", lineno, err)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// LoadManifest reads the manifest at path.
func LoadManifest(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	entries, err := ReadManifest(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

func parseEntry(line string) (Entry, error) {
	var e Entry
	f := strings.Split(line, "\t")
	if len(f) != len(ManifestHeader) {
		return e, fmt.Errorf("expected %d columns, got %d", len(ManifestHeader), len(f))
	}
	switch Scenario(f[0]) {
	case Neutral, BGS, Sweep:
		e.Scenario = Scenario(f[0])
	default:
		return e, fmt.Errorf("unknown scenario %q", f[0])
	}
	e.Model, e.Annot, e.DFE = f[1], f[2], f[3]
	var err error
	if e.Coeff, err = strconv.ParseFloat(f[4], 64); err != nil {
		return e, fmt.Errorf("bad coefficient %q", f[4])
	}
	if e.TimeMult, err = strconv.ParseFloat(f[5], 64); err != nil {
		return e, fmt.Errorf("bad time multiplier %q", f[5])
	}
	e.Chrom = f[6]
	e.Window.Chrom = f[6]
	ints := []struct {
		dst *int64
		col int
	}{
		{&e.Window.Left, 7}, {&e.Window.Right, 8},
		{&e.Window.BLeft, 9}, {&e.Window.BRight, 10},
	}
	for _, it := range ints {
		if *it.dst, err = strconv.ParseInt(f[it.col], 10, 64); err != nil {
			return e, fmt.Errorf("bad %s %q", ManifestHeader[it.col], f[it.col])
		}
	}
	if e.Rep, err = strconv.Atoi(f[11]); err != nil {
		return e, fmt.Errorf("bad rep %q", f[11])
	}
	if e.Seed, err = strconv.ParseInt(f[12], 10, 64); err != nil {
		return e, fmt.Errorf("bad seed %q", f[12])
	}
	if !e.Window.Valid() {
		return e, fmt.Errorf("windowing violates bleft <= left < right <= bright: %+v", e.Window)
	}
	return e, nil
}
