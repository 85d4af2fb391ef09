// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/popgensims/sweep/common"
	"github.com/popgensims/sweep/common/log"
	"github.com/popgensims/sweep/harnesses"
)

const (
	toolsLongDesc = `Fetches and builds the external programs the pipeline drives, then
writes a tool file pointing at them. Tools that are already installed
can be skipped with -only and merged into the tool file by hand.
` + common.ToolsHelp
	toolsUsage = `Usage: %s tools [flags]
`
)

type toolsCmd struct {
	outPath  string
	toolsDir string
	only     csvFlag
	printCmd bool
}

func (*toolsCmd) Name() string     { return "tools" }
func (*toolsCmd) Synopsis() string { return "Fetches and builds the external programs." }
func (*toolsCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprint(w, toolsLongDesc)
	fmt.Fprintf(w, toolsUsage, base)
}

func (c *toolsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.outPath, "o", "tools.toml", "tool file to write")
	f.StringVar(&c.toolsDir, "dir", "./tools", "directory to fetch sources and place binaries under")
	f.Var(&c.only, "only", "comma-separated tool roles to prepare (default: all)")
	f.BoolVar(&c.printCmd, "shell", false, "print fetch and build commands as they run")
}

func (c *toolsCmd) Run(_ []string) error {
	log.SetActivityLog(true)
	log.SetCommandTrace(c.printCmd)

	roles := []string(c.only)
	if len(roles) == 0 {
		roles = harnesses.Roles
	}

	var tf common.ToolFile
	for _, role := range roles {
		h, err := harnesses.ByRole(role)
		if err != nil {
			return err
		}
		if err := h.CheckPrerequisites(); err != nil {
			return fmt.Errorf("%s: %w", role, err)
		}
		srcDir := filepath.Join(c.toolsDir, "src", role)
		binDir := filepath.Join(c.toolsDir, "bin")
		if err := os.MkdirAll(binDir, 0755); err != nil {
			return err
		}
		log.Printf("Fetching %s", role)
		if err := h.Get(&harnesses.GetConfig{SrcDir: srcDir}); err != nil {
			return fmt.Errorf("fetching %s: %w", role, err)
		}
		log.Printf("Building %s", role)
		bcfg := &harnesses.BuildConfig{SrcDir: srcDir, BinDir: binDir}
		if err := h.Build(bcfg); err != nil {
			return fmt.Errorf("building %s: %w", role, err)
		}
		bin, err := h.Bin(bcfg)
		if err != nil {
			return err
		}
		log.Printf("%s: %s", role, bin)
		tf.Tools = append(tf.Tools, &common.Tool{Name: role, Bin: bin})
	}

	b, err := common.ToolFileMarshalTOML(&tf)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.outPath, b, 0644); err != nil {
		return err
	}
	log.Printf("Wrote tool file %s", c.outPath)
	return nil
}
