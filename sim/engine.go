// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"strconv"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/popgensims/sweep/common"
	"github.com/popgensims/sweep/trees"
)

// SweepTime draws the sweep's end time in generations before present:
// uniform over (0, tmult · 4Ne), the entry's time multiplier scaling
// the model's expected coalescent time scale. The draw is seeded by
// the entry's own seed, so it is reproducible from the manifest alone
// and independent of which entries run in the same process.
func SweepTime(e *Entry, ne float64) float64 {
	u := distuv.Uniform{
		Min: 0,
		Max: e.TimeMult * 4 * ne,
		Src: exprand.NewSource(uint64(e.Seed)),
	}
	return u.Rand()
}

// BuildMeta composes the entry's sidecar. Sweep entries record the
// drawn end time under extra's sweep_time; background-selection
// entries record their DFE and annotation set.
func BuildMeta(e *Entry, sweepTime float64) trees.Meta {
	extra := map[string]string{
		"scenario": string(e.Scenario),
		"model":    e.Model,
		"seed":     strconv.FormatInt(e.Seed, 10),
	}
	switch e.Scenario {
	case BGS:
		extra["dfe"] = e.DFE
		extra["annotation"] = e.Annot
	case Sweep:
		extra["selection_coefficient"] = formatFloat(e.Coeff)
		extra["time_multiplier"] = formatFloat(e.TimeMult)
		extra["sweep_time"] = formatFloat(sweepTime)
	}
	return trees.NewMeta(e.Window, extra)
}

// EngineArgs builds the engine's argument list for an entry. The tool
// binary and any tool-file args come first at execution time; these
// are the derived per-entry arguments: the contig slice over the
// buffered bounds, the demographic model and its sample sets, the
// scenario extras, the sidecar key/value pairs (so the output binary
// carries a redundant copy of its metadata), and the output path.
func EngineArgs(e *Entry, c *common.Campaign, m *common.Model, meta trees.Meta, recmapPath, annotPath, outPath string) []string {
	args := []string{
		c.Species,
		"--model", e.Model,
		"--chrom", e.Chrom,
		"--left", strconv.FormatInt(e.Window.BLeft, 10),
		"--right", strconv.FormatInt(e.Window.BRight, 10),
		"--recmap", recmapPath,
		"--seed", strconv.FormatInt(e.Seed, 10),
	}
	switch e.Scenario {
	case BGS:
		args = append(args, "--dfe", e.DFE, "--annot", annotPath)
	case Sweep:
		mid := (e.Window.Left + e.Window.Right) / 2
		args = append(args,
			"--sweep-pos", strconv.FormatInt(mid, 10),
			"--sweep-coeff", formatFloat(e.Coeff),
			"--sweep-time", meta.Extra["sweep_time"],
		)
	}
	for _, kv := range meta.Pairs() {
		args = append(args, "--meta", kv)
	}
	args = append(args, "--output", outPath)
	for _, p := range m.Populations {
		args = append(args, p.Name+":"+strconv.Itoa(p.Samples))
	}
	return args
}
