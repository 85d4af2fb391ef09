// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/popgensims/sweep/common/diagnostics"
)

const ToolsHelp = `
The tool file format is TOML consisting of a single array field called 'tool'.
Each element of the array describes one external program and consists of the
following fields:
         name: which pipeline role the entry fills (required); one of:
               engine, treetool, detector, trainsim, classifier
          bin: path to the program's executable (required)
         args: extra arguments prepended to every invocation, e.g. a script
               path for interpreter-launched tools (optional)
          env: additional environment variables for the program's runs, each
               of the form "X=Y" (optional)
   memorymax: cap the program's memory via a transient systemd scope, e.g.
               "8G" (optional, Linux with systemd only)
  runtimemax: cap the program's wall time via the same scope, in seconds
               (optional)
 diagnostics: profiling to collect around this program's runs; currently only
               "perf[=flags]" applies to external tools (optional)

A minimal example covering the full pipeline:

[[tool]]
  name = "engine"
  bin = "/usr/local/bin/slim-engine"

[[tool]]
  name = "treetool"
  bin = "tskit"

[[tool]]
  name = "detector"
  bin = "/opt/sf2/SweepFinder2"

[[tool]]
  name = "trainsim"
  bin = "/opt/discoal/discoal"

[[tool]]
  name = "classifier"
  bin = "python3"
  args = ["/opt/diploSHIC/diploSHIC.py"]
  env = ["PYTHONHASHSEED=0"]
`

// Tool roles a tool file may define. Every subcommand states which
// roles it needs; missing roles are an error at lookup time, not load
// time, so partial tool files work for partial pipelines.
const (
	ToolEngine     = "engine"     // forward simulator
	ToolTreeTool   = "treetool"   // tree-sequence toolkit (VCF export)
	ToolDetector   = "detector"   // CLR sweep detector
	ToolTrainSim   = "trainsim"   // coalescent simulator for training data
	ToolClassifier = "classifier" // feature extraction / train / predict
)

type ToolFile struct {
	Tools []*Tool `toml:"tool"`
}

type Tool struct {
	Name        string                `toml:"name"`
	Bin         string                `toml:"bin"`
	Args        []string              `toml:"args"`
	Env         ConfigEnv             `toml:"env"`
	MemoryMax   string                `toml:"memorymax"`
	RuntimeMax  int                   `toml:"runtimemax"`
	Diagnostics diagnostics.ConfigSet `toml:"diagnostics"`
}

// ExecEnv returns the environment for the tool's runs: the process
// environment with the tool file's overrides layered on top.
func (t *Tool) ExecEnv() *Env {
	if t.Env.Env == nil {
		return NewEnvFromEnviron()
	}
	return t.Env.Env
}

// LoadToolFile reads and decodes a tool file, checking that each entry
// names a known role exactly once and carries an executable path.
func LoadToolFile(path string) (*ToolFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tf ToolFile
	if err := toml.Unmarshal(b, &tf); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	seen := make(map[string]bool)
	for _, t := range tf.Tools {
		switch t.Name {
		case ToolEngine, ToolTreeTool, ToolDetector, ToolTrainSim, ToolClassifier:
		default:
			return nil, fmt.Errorf("%s: unknown tool name %q", path, t.Name)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("%s: duplicate tool %q", path, t.Name)
		}
		seen[t.Name] = true
		if t.Bin == "" {
			return nil, fmt.Errorf("%s: tool %q has no bin", path, t.Name)
		}
	}
	return &tf, nil
}

// Tool returns the entry for the named role, or an error naming the
// role if the file doesn't define it.
func (tf *ToolFile) Tool(name string) (*Tool, error) {
	for _, t := range tf.Tools {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, fmt.Errorf("tool file does not define %q", name)
}

// ToolFileMarshalTOML encodes a tool file. The github.com/BurntSushi/toml
// package at v1.0.0 doesn't correctly support Marshaler
// (see https://github.com/BurntSushi/toml/issues/341), so ConfigEnv
// can't implement it; we map through plain types that encode cleanly.
func ToolFileMarshalTOML(tf *ToolFile) ([]byte, error) {
	type tool struct {
		Name        string   `toml:"name"`
		Bin         string   `toml:"bin"`
		Args        []string `toml:"args"`
		Env         []string `toml:"env"`
		MemoryMax   string   `toml:"memorymax"`
		RuntimeMax  int      `toml:"runtimemax"`
		Diagnostics []string `toml:"diagnostics"`
	}
	type toolFile struct {
		Tools []*tool `toml:"tool"`
	}
	var out toolFile
	for _, t := range tf.Tools {
		var o tool
		o.Name = t.Name
		o.Bin = t.Bin
		o.Args = t.Args
		if t.Env.Env != nil {
			o.Env = t.Env.Collapse()
		}
		o.MemoryMax = t.MemoryMax
		o.RuntimeMax = t.RuntimeMax
		o.Diagnostics = t.Diagnostics.Strings()
		out.Tools = append(out.Tools, &o)
	}
	var b bytes.Buffer
	if err := toml.NewEncoder(&b).Encode(&out); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

type ConfigEnv struct {
	*Env
}

func (c *ConfigEnv) UnmarshalTOML(data interface{}) error {
	ldata, ok := data.([]interface{})
	if !ok {
		return fmt.Errorf("expected data for env to be a list")
	}
	vars := make([]string, 0, len(ldata))
	for _, d := range ldata {
		s, ok := d.(string)
		if !ok {
			return fmt.Errorf("expected data for env to contain strings")
		}
		vars = append(vars, s)
	}
	var err error
	c.Env = NewEnvFromEnviron()
	c.Env, err = c.Env.Set(vars...)
	return err
}
