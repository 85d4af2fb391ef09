// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package genome

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// PopSample assigns one VCF sample column to a population.
type PopSample struct {
	Sample string
	Pop    string
}

// Assignments builds the sample table for populations with the given
// diploid sample counts. The tree toolkit names exported individuals
// tsk_0, tsk_1, ... in the order populations were sampled, so the
// table is one contiguous block per population.
func Assignments(pops []string, counts []int) []PopSample {
	var out []PopSample
	n := 0
	for i, pop := range pops {
		for j := 0; j < counts[i]; j++ {
			out = append(out, PopSample{Sample: fmt.Sprintf("tsk_%d", n), Pop: pop})
			n++
		}
	}
	return out
}

// WritePopfile writes tab-separated sample/population pairs, one per
// line, the layout downstream feature extraction expects.
func WritePopfile(w io.Writer, assigns []PopSample) error {
	bw := bufio.NewWriter(w)
	for _, a := range assigns {
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", a.Sample, a.Pop); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WritePopfileFile writes the sample table to path.
func WritePopfileFile(path string, assigns []PopSample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePopfile(f, assigns); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadPopfile parses tab-separated sample/population pairs.
func ReadPopfile(r io.Reader) ([]PopSample, error) {
	var out []PopSample
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("bad sample table line %q", line)
		}
		out = append(out, PopSample{Sample: fields[0], Pop: fields[1]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// PopIndices maps each population to the VCF sample column indices of
// its members. Every assigned sample must appear in the VCF header.
func PopIndices(v *VCF, assigns []PopSample) (map[string][]int, error) {
	byName := make(map[string]int, len(v.Samples))
	for i, s := range v.Samples {
		byName[s] = i
	}
	out := make(map[string][]int)
	for _, a := range assigns {
		i, ok := byName[a.Sample]
		if !ok {
			return nil, fmt.Errorf("sample %s assigned to %s is not in the VCF", a.Sample, a.Pop)
		}
		out[a.Pop] = append(out[a.Pop], i)
	}
	return out, nil
}
