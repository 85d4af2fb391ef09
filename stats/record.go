// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/popgensims/sweep/sim"
)

// Statistic names as they appear in the statistic column.
const (
	StatPi       = "pi"
	StatSegSites = "segsites"
	StatCLR      = "clr"
	StatAlpha    = "alpha"
	StatTrough   = "trough"
)

// Row is one statistic record: the parameter tuple it derives from
// plus population, statistic name, the interval the value describes
// (0-based half-open; point statistics use left == right), and the
// value.
type Row struct {
	Entry sim.Entry
	Pop   string
	Stat  string
	Left  int64
	Right int64
	Value float64
}

// RowHeader is the statistic table's column order: the manifest tuple
// columns followed by the record fields, so merged tables stay keyed
// the same way as the manifest.
var RowHeader = append(append([]string(nil), sim.ManifestHeader...),
	"population", "statistic", "left", "right", "value")

// WriteRows writes rows as TSV with a header line.
func WriteRows(w io.Writer, rows []Row) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, strings.Join(RowHeader, "\t")); err != nil {
		return err
	}
	for i := range rows {
		r := &rows[i]
		cols := append(r.Entry.TupleRow(),
			r.Pop, r.Stat,
			strconv.FormatInt(r.Left, 10),
			strconv.FormatInt(r.Right, 10),
			strconv.FormatFloat(r.Value, 'g', -1, 64),
		)
		if _, err := fmt.Fprintln(bw, strings.Join(cols, "\t")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteRowsFile writes the statistic table at path.
func WriteRowsFile(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteRows(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
