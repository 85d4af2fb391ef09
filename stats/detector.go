// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/popgensims/sweep/genome"
	"github.com/popgensims/sweep/sim"
)

// The CLR detector takes four input files, each in its own
// fixed-column format: observed allele frequencies, the neutral
// spectrum to test against, cumulative recombination distances, and
// the grid of test sites. The writers below produce them byte-exactly;
// ParseCLR reads the detector's output back.

// WriteFreqFile writes the allele-frequency file: a
// position/x/n/folded header then one row per segregating site.
// Derived counts are unfolded (folded is 0 throughout) since the
// simulations record true ancestral states.
func WriteFreqFile(w io.Writer, freqs []SiteFreq) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, "position\tx\tn\tfolded"); err != nil {
		return err
	}
	for _, f := range freqs {
		if f.X <= 0 || f.X >= f.N {
			continue
		}
		if _, err := fmt.Fprintf(bw, "%d\t%d\t%d\t0\n", f.Pos, f.X, f.N); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteRecFile writes the recombination file: a position/rate header
// then, for each segregating site, the site's cumulative genetic
// distance in centimorgans from the window's left edge.
func WriteRecFile(w io.Writer, freqs []SiteFreq, m *genome.RecMap, left int64) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, "position\trate"); err != nil {
		return err
	}
	for _, f := range freqs {
		if f.X <= 0 || f.X >= f.N {
			continue
		}
		cm := m.DistCM(left, f.Pos-1)
		if _, err := fmt.Fprintf(bw, "%d\t%s\n", f.Pos, strconv.FormatFloat(cm, 'g', -1, 64)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteGridFile writes the test-site grid: n positions evenly spaced
// over the region, one per line.
func WriteGridFile(w io.Writer, r genome.Region, n int) error {
	if n <= 0 {
		return fmt.Errorf("gridpoints must be positive")
	}
	bw := bufio.NewWriter(w)
	for _, pos := range GridPositions(r, n) {
		if _, err := fmt.Fprintf(bw, "%d\n", pos); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// GridPositions returns n test sites evenly spaced over the region:
// the midpoints of n equal parts, so sites stay away from the window
// edges where the detector's likelihood is unstable.
func GridPositions(r genome.Region, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = r.Left + (2*int64(i)+1)*r.Len()/(2*int64(n))
	}
	return out
}

// CLRPoint is one row of the detector's output: the composite
// likelihood ratio and fitted selection strength at a test location.
type CLRPoint struct {
	Location float64
	LR       float64
	Alpha    float64
}

// ParseCLR reads the detector's location/LR/alpha output table.
func ParseCLR(r io.Reader) ([]CLRPoint, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("empty detector output")
	}
	header := strings.Fields(sc.Text())
	if len(header) != 3 || header[0] != "location" {
		return nil, fmt.Errorf("unexpected detector header %q", sc.Text())
	}
	var points []CLRPoint
	lineno := 1
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 columns, got %d", lineno, len(fields))
		}
		var p CLRPoint
		var err error
		if p.Location, err = strconv.ParseFloat(fields[0], 64); err != nil {
			return nil, fmt.Errorf("line %d: bad location %q", lineno, fields[0])
		}
		if p.LR, err = strconv.ParseFloat(fields[1], 64); err != nil {
			return nil, fmt.Errorf("line %d: bad LR %q", lineno, fields[1])
		}
		if p.Alpha, err = strconv.ParseFloat(fields[2], 64); err != nil {
			return nil, fmt.Errorf("line %d: bad alpha %q", lineno, fields[2])
		}
		points = append(points, p)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

// LoadCLR reads a detector output file.
func LoadCLR(path string) ([]CLRPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	points, err := ParseCLR(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return points, nil
}

// CLRRows converts detector output into statistic rows: one clr and
// one alpha row per grid point, located at the (rounded) test site.
func CLRRows(e *sim.Entry, pop string, points []CLRPoint) []Row {
	rows := make([]Row, 0, 2*len(points))
	for _, p := range points {
		loc := int64(math.Round(p.Location))
		rows = append(rows,
			Row{Entry: *e, Pop: pop, Stat: StatCLR, Left: loc, Right: loc, Value: p.LR},
			Row{Entry: *e, Pop: pop, Stat: StatAlpha, Left: loc, Right: loc, Value: p.Alpha},
		)
	}
	return rows
}
