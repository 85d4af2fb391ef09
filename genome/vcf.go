// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package genome

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// VCF holds the variants the tree toolkit exported for one simulation:
// the sample column names and one record per site. Windows are at most
// a few megabases, so whole files are kept in memory.
type VCF struct {
	Samples []string
	Records []VCFRecord
}

// VCFRecord is one biallelic SNP row. Pos is 1-based as written in the
// file; genotype alleles are stored per haplotype, -1 for missing.
type VCFRecord struct {
	Chrom string
	Pos   int64
	ID    string
	Ref   string
	Alt   []string
	aa    string
	gts   []int8
}

// Biallelic reports whether the record has exactly one alternate
// allele. Statistics skip anything else.
func (r *VCFRecord) Biallelic() bool {
	return len(r.Alt) == 1
}

// Ancestral returns the site's ancestral allele: the INFO AA value
// when present, otherwise the reference allele. Tree-sequence exports
// put the ancestral state in REF, so the fallback is exact for them.
func (r *VCFRecord) Ancestral() string {
	if r.aa != "" {
		return r.aa
	}
	return r.Ref
}

// DerivedCount counts derived alleles (x) among the called haplotypes
// (n) of the given samples. When AA marks the alternate allele as
// ancestral, the reference allele is the derived one.
func (r *VCFRecord) DerivedCount(samples []int) (x, n int) {
	derivedIsRef := len(r.Alt) == 1 && r.aa != "" && r.aa == r.Alt[0]
	for _, s := range samples {
		for _, a := range r.gts[2*s : 2*s+2] {
			if a < 0 {
				continue
			}
			n++
			if derivedIsRef {
				if a == 0 {
					x++
				}
			} else if a > 0 {
				x++
			}
		}
	}
	return x, n
}

// ReadVCF parses a VCF. Only the fields the pipeline consumes are
// retained: positions, alleles, AA, and GT per sample. Records must
// carry genotypes for every sample named in the header.
func ReadVCF(r io.Reader) (*VCF, error) {
	v := new(VCF)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := sc.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "##") {
			continue
		}
		if strings.HasPrefix(line, "#CHROM") {
			fields := strings.Split(line, "\t")
			if len(fields) < 10 {
				return nil, fmt.Errorf("line %d: header has no sample columns", lineno)
			}
			v.Samples = fields[9:]
			continue
		}
		if v.Samples == nil {
			return nil, fmt.Errorf("line %d: record before #CHROM header", lineno)
		}
		rec, err := parseVCFRecord(line, len(v.Samples))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
		v.Records = append(v.Records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if v.Samples == nil {
		return nil, fmt.Errorf("missing #CHROM header")
	}
	return v, nil
}

func parseVCFRecord(line string, nsamples int) (VCFRecord, error) {
	var rec VCFRecord
	fields := strings.Split(line, "\t")
	if len(fields) != 9+nsamples {
		return rec, fmt.Errorf("expected %d columns, got %d", 9+nsamples, len(fields))
	}
	rec.Chrom = fields[0]
	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return rec, fmt.Errorf("bad position %q", fields[1])
	}
	rec.Pos = pos
	rec.ID = fields[2]
	rec.Ref = fields[3]
	if fields[4] != "." {
		rec.Alt = strings.Split(fields[4], ",")
	}
	for _, kv := range strings.Split(fields[7], ";") {
		if strings.HasPrefix(kv, "AA=") {
			rec.aa = kv[len("AA="):]
		}
	}
	gtIndex := 0 // VCF requires GT first, but honor FORMAT anyway
	for i, k := range strings.Split(fields[8], ":") {
		if k == "GT" {
			gtIndex = i
			break
		}
	}
	rec.gts = make([]int8, 0, 2*nsamples)
	for _, sample := range fields[9:] {
		gt := sample
		if idx := strings.Split(sample, ":"); len(idx) > 1 {
			gt = idx[gtIndex]
		}
		alleles := strings.FieldsFunc(gt, func(r rune) bool { return r == '|' || r == '/' })
		if len(alleles) == 1 {
			// Haploid call; pad so every sample spans two slots.
			alleles = append(alleles, ".")
		}
		if len(alleles) != 2 {
			return rec, fmt.Errorf("genotype %q is not haploid or diploid", gt)
		}
		for _, a := range alleles {
			if a == "." {
				rec.gts = append(rec.gts, -1)
				continue
			}
			ai, err := strconv.Atoi(a)
			if err != nil || ai < 0 || ai > 127 {
				return rec, fmt.Errorf("bad allele %q", a)
			}
			rec.gts = append(rec.gts, int8(ai))
		}
	}
	return rec, nil
}

// LoadVCF reads the VCF at path.
func LoadVCF(path string) (*VCF, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	v, err := ReadVCF(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// FilterVCF streams a VCF from r to w keeping only records inside
// region. With rebase set, positions are shifted so the region's left
// edge becomes position 1 and the CHROM column is preserved; the
// classifier consumes window-relative coordinates and its predictions
// are shifted back afterward. Returns the number of records kept.
func FilterVCF(r io.Reader, w io.Writer, region Region, rebase bool) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	bw := bufio.NewWriter(w)
	kept := 0
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "#") {
			if _, err := fmt.Fprintln(bw, line); err != nil {
				return kept, err
			}
			continue
		}
		if line == "" {
			continue
		}
		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			continue
		}
		rest := line[tab+1:]
		tab2 := strings.IndexByte(rest, '\t')
		if tab2 < 0 {
			continue
		}
		pos, err := strconv.ParseInt(rest[:tab2], 10, 64)
		if err != nil {
			return kept, fmt.Errorf("bad position %q", rest[:tab2])
		}
		// VCF positions are 1-based; the region is 0-based half-open.
		if !region.Contains(pos - 1) {
			continue
		}
		kept++
		if rebase {
			if _, err := fmt.Fprintf(bw, "%s\t%d\t%s\n", line[:tab], pos-region.Left, rest[tab2+1:]); err != nil {
				return kept, err
			}
			continue
		}
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return kept, err
		}
	}
	if err := sc.Err(); err != nil {
		return kept, err
	}
	return kept, bw.Flush()
}
