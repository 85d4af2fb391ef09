// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package genome

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/biogo/biogo/io/featio"
	"github.com/biogo/biogo/io/featio/gff"
	"github.com/biogo/store/interval"
)

// AnnotSet holds the merged intervals of one annotation track (say,
// every exon on a chromosome), indexed for fast per-window queries.
// Selection regimes apply fitness effects over these intervals.
type AnnotSet struct {
	ID    string
	Chrom string
	tree  *interval.IntTree
	count int
}

// annotIval adapts a half-open interval to the store's interval tree.
type annotIval struct {
	start, end int
	id         uintptr
}

func (iv annotIval) Range() interval.IntRange { return interval.IntRange{Start: iv.start, End: iv.end} }
func (iv annotIval) Overlap(b interval.IntRange) bool {
	return iv.end > b.Start && iv.start < b.End
}
func (iv annotIval) ID() uintptr { return iv.id }

// LoadAnnots reads a GFF annotation file and returns the merged
// feature intervals on chrom. types restricts which feature types
// (GFF column 3) contribute; an empty list keeps everything. Flanking
// and overlapping features collapse into single intervals, so the
// result is a sorted, disjoint cover.
func LoadAnnots(path, id, chrom string, types []string) (*AnnotSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	set, err := ReadAnnots(f, id, chrom, types)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// ReadAnnots is LoadAnnots over an io.Reader.
func ReadAnnots(r io.Reader, id, chrom string, types []string) (*AnnotSet, error) {
	want := make(map[string]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	sc := featio.NewScanner(gff.NewReader(bufio.NewReader(r)))
	var ivs []Region
	for sc.Next() {
		gf, ok := sc.Feat().(*gff.Feature)
		if !ok {
			continue
		}
		if gf.SeqName != chrom {
			continue
		}
		if len(want) > 0 && !want[gf.Feature] {
			continue
		}
		ivs = append(ivs, Region{
			Chrom: chrom,
			Left:  int64(gf.FeatStart),
			Right: int64(gf.FeatEnd),
		})
	}
	if err := sc.Error(); err != nil {
		return nil, err
	}
	return newAnnotSet(id, chrom, ivs), nil
}

func newAnnotSet(id, chrom string, ivs []Region) *AnnotSet {
	merged := mergeRegions(ivs)
	set := &AnnotSet{
		ID:    id,
		Chrom: chrom,
		tree:  &interval.IntTree{},
		count: len(merged),
	}
	for i, iv := range merged {
		set.tree.Insert(annotIval{
			start: int(iv.Left),
			end:   int(iv.Right),
			id:    uintptr(i),
		}, true)
	}
	set.tree.AdjustRanges()
	return set
}

// mergeRegions sorts and coalesces overlapping or abutting intervals.
func mergeRegions(ivs []Region) []Region {
	if len(ivs) == 0 {
		return nil
	}
	sort.Slice(ivs, func(i, j int) bool {
		if ivs[i].Left != ivs[j].Left {
			return ivs[i].Left < ivs[j].Left
		}
		return ivs[i].Right < ivs[j].Right
	})
	merged := ivs[:1]
	for _, iv := range ivs[1:] {
		last := &merged[len(merged)-1]
		if iv.Left <= last.Right {
			if iv.Right > last.Right {
				last.Right = iv.Right
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Len returns the number of disjoint intervals in the set.
func (a *AnnotSet) Len() int { return a.count }

// Clip returns the set's intervals intersected with r, sorted by
// start. An empty result means the region carries no annotated
// sequence and a run over it is effectively neutral.
func (a *AnnotSet) Clip(r Region) []Region {
	got := a.tree.Get(annotIval{start: int(r.Left), end: int(r.Right)})
	out := make([]Region, 0, len(got))
	for _, g := range got {
		ir := g.Range()
		left, right := int64(ir.Start), int64(ir.End)
		if left < r.Left {
			left = r.Left
		}
		if right > r.Right {
			right = r.Right
		}
		if left < right {
			out = append(out, Region{Chrom: a.Chrom, Left: left, Right: right})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Left < out[j].Left })
	return out
}

// WriteIntervals writes intervals as the two-column, tab-separated
// form the simulation engine consumes: one "left<TAB>right" line per
// interval, half-open physical coordinates.
func WriteIntervals(w io.Writer, ivs []Region) error {
	bw := bufio.NewWriter(w)
	for _, iv := range ivs {
		if _, err := fmt.Fprintf(bw, "%d\t%d\n", iv.Left, iv.Right); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteIntervalsFile writes intervals to the file at path.
func WriteIntervalsFile(path string, ivs []Region) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteIntervals(f, ivs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
