// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/popgensims/sweep/genome"
	"github.com/popgensims/sweep/sim"
)

// Subwindows splits a region into n equal parts. Lengths differ by at
// most one base; the remainder is spread over the leading parts so the
// parts tile the region exactly.
func Subwindows(r genome.Region, n int) []genome.Region {
	out := make([]genome.Region, n)
	length := r.Len()
	base := length / int64(n)
	rem := length % int64(n)
	left := r.Left
	for i := range out {
		size := base
		if int64(i) < rem {
			size++
		}
		out[i] = genome.Region{Chrom: r.Chrom, Left: left, Right: left + size}
		left += size
	}
	return out
}

// SiteFreq is one segregating site's derived-allele frequency in one
// population: x derived alleles among n called haplotypes at pos
// (1-based, as in the VCF).
type SiteFreq struct {
	Pos int64
	X   int
	N   int
}

// PopFreqs computes per-population derived-allele frequencies for
// every biallelic site in the VCF. Sites where a population has no
// called haplotypes are dropped for that population.
func PopFreqs(v *genome.VCF, pops map[string][]int) map[string][]SiteFreq {
	out := make(map[string][]SiteFreq, len(pops))
	for pop, samples := range pops {
		var freqs []SiteFreq
		for i := range v.Records {
			rec := &v.Records[i]
			if !rec.Biallelic() {
				continue
			}
			x, n := rec.DerivedCount(samples)
			if n == 0 {
				continue
			}
			freqs = append(freqs, SiteFreq{Pos: rec.Pos, X: x, N: n})
		}
		out[pop] = freqs
	}
	return out
}

// pi is the average pairwise diversity contributed by one site:
// 2x(n−x)/(n(n−1)).
func pi(x, n int) float64 {
	if n < 2 {
		return 0
	}
	return 2 * float64(x) * float64(n-x) / (float64(n) * float64(n-1))
}

// Diversity computes per-population, per-sub-window diversity rows for
// one simulation: nucleotide diversity (pi, per base pair) and the
// count of segregating sites. The VCF must already be trimmed to the
// entry's focal window, with positions on the focal chromosome
// (1-based). It returns exactly
// subwindows × populations × 2 rows (the two statistics), in
// population name order, or an error if the computed shape disagrees.
func Diversity(e *sim.Entry, freqs map[string][]SiteFreq, subwindows int) ([]Row, error) {
	if subwindows < 1 || e.Window.Len() < int64(subwindows) {
		return nil, fmt.Errorf("cannot split %d bp window %s into %d sub-windows",
			e.Window.Len(), e.Window.Region, subwindows)
	}
	subs := Subwindows(e.Window.Region, subwindows)
	pops := make([]string, 0, len(freqs))
	for pop := range freqs {
		pops = append(pops, pop)
	}
	sort.Strings(pops)

	var rows []Row
	for _, pop := range pops {
		sites := freqs[pop]
		for _, sub := range subs {
			var sum float64
			var seg int
			for _, s := range sites {
				if !sub.Contains(s.Pos - 1) {
					continue
				}
				if s.X == 0 || s.X == s.N {
					continue
				}
				sum += pi(s.X, s.N)
				seg++
			}
			rows = append(rows,
				Row{Entry: *e, Pop: pop, Stat: StatPi, Left: sub.Left, Right: sub.Right, Value: sum / float64(sub.Len())},
				Row{Entry: *e, Pop: pop, Stat: StatSegSites, Left: sub.Left, Right: sub.Right, Value: float64(seg)},
			)
		}
	}
	if want := subwindows * len(pops) * 2; len(rows) != want {
		return nil, fmt.Errorf("diversity produced %d rows, want %d (%d subwindows × %d populations × 2 statistics)",
			len(rows), want, subwindows, len(pops))
	}
	return rows, nil
}

// PiSeries extracts one population's per-sub-window pi values from
// diversity rows, in sub-window order. The trough scan runs over it.
func PiSeries(rows []Row, pop string) []float64 {
	var out []float64
	for i := range rows {
		if rows[i].Pop == pop && rows[i].Stat == StatPi {
			out = append(out, rows[i].Value)
		}
	}
	return out
}

// SFS is a site-frequency spectrum: Count[x] holds the number of
// segregating sites with derived-allele count x among N haplotypes,
// for x in 1..N−1. Count[0] and Count[N] are unused.
type SFS struct {
	N     int
	Count []int64
}

// NewSFS returns an empty spectrum for n haplotypes.
func NewSFS(n int) *SFS {
	return &SFS{N: n, Count: make([]int64, n+1)}
}

// Spectrum tallies one population's spectrum from its site
// frequencies. Sites whose called sample size differs from the modal
// one are skipped; fixed and absent classes are not counted.
func Spectrum(freqs []SiteFreq, n int) *SFS {
	s := NewSFS(n)
	for _, f := range freqs {
		if f.N != n || f.X <= 0 || f.X >= f.N {
			continue
		}
		s.Count[f.X]++
	}
	return s
}

// Add accumulates other into s. The two spectra must describe the same
// haplotype count.
func (s *SFS) Add(other *SFS) error {
	if s.N != other.N {
		return fmt.Errorf("cannot pool spectra for %d and %d haplotypes", s.N, other.N)
	}
	for i := range s.Count {
		s.Count[i] += other.Count[i]
	}
	return nil
}

// Segregating reports the total number of sites in the spectrum.
func (s *SFS) Segregating() int64 {
	var total int64
	for _, c := range s.Count {
		total += c
	}
	return total
}

// WriteSFS writes the spectrum as x<TAB>count lines for x in 1..N−1.
func WriteSFS(w io.Writer, s *SFS) error {
	bw := bufio.NewWriter(w)
	for x := 1; x < s.N; x++ {
		if _, err := fmt.Fprintf(bw, "%d\t%d\n", x, s.Count[x]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteSFSFile writes the spectrum at path.
func WriteSFSFile(path string, s *SFS) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSFS(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadSFS parses x<TAB>count lines back into a spectrum. The haplotype
// count is the largest x plus one.
func ReadSFS(r io.Reader) (*SFS, error) {
	sc := bufio.NewScanner(r)
	counts := make(map[int]int64)
	maxX := 0
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected 2 columns, got %d", lineno, len(fields))
		}
		x, err := strconv.Atoi(fields[0])
		if err != nil || x <= 0 {
			return nil, fmt.Errorf("line %d: bad frequency class %q", lineno, fields[0])
		}
		c, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || c < 0 {
			return nil, fmt.Errorf("line %d: bad count %q", lineno, fields[1])
		}
		counts[x] = c
		if x > maxX {
			maxX = x
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if maxX == 0 {
		return nil, fmt.Errorf("empty spectrum")
	}
	s := NewSFS(maxX + 1)
	for x, c := range counts {
		s.Count[x] = c
	}
	return s, nil
}

// LoadSFS reads the spectrum file at path.
func LoadSFS(path string) (*SFS, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := ReadSFS(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
