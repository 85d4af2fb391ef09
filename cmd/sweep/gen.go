// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/popgensims/sweep/common/log"
	"github.com/popgensims/sweep/gen"
)

const (
	genUsage = `Regenerates the bundled example assets: synthetic recombination
maps, a toy annotation track, and a complete example campaign.

Usage: %s gen [flags]
`
)

type genCmd struct {
	names  csvFlag
	outDir string
	seed   int64
}

func (*genCmd) Name() string     { return "gen" }
func (*genCmd) Synopsis() string { return "Regenerates the bundled example assets." }
func (*genCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprintf(w, genUsage, base)
}

func (c *genCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.names, "gen", fmt.Sprintf("comma-separated generators to run (default: all; options: %s)",
		strings.Join(gen.Names(), ", ")))
	f.StringVar(&c.outDir, "out", "./assets", "directory to generate assets into")
	f.Int64Var(&c.seed, "seed", 1729, "seed for stochastic asset structure")
}

func (c *genCmd) Run(_ []string) error {
	log.SetActivityLog(true)
	names := []string(c.names)
	if len(names) == 0 {
		names = gen.Names()
	}
	cfg := &gen.Config{OutputDir: c.outDir, Seed: c.seed}
	for _, name := range names {
		g, err := gen.ByName(name)
		if err != nil {
			return err
		}
		log.Printf("Generating %s", name)
		if err := g.Generate(cfg); err != nil {
			return fmt.Errorf("generating %s: %w", name, err)
		}
	}
	return nil
}
