// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package harnesses manages the external tools the pipeline drives:
// fetching and building them from source, checking host prerequisites,
// and running them with the plumbing every step gets (traced argv,
// tool-file environment, resource scoping, per-step logs, metrics).
package harnesses

import (
	"fmt"

	"github.com/popgensims/sweep/common"
)

// GetConfig tells a harness where tool sources go.
type GetConfig struct {
	// SrcDir is the directory the tool's source is fetched into.
	SrcDir string
}

// BuildConfig tells a harness where to build from and where built
// executables land.
type BuildConfig struct {
	SrcDir string
	BinDir string
}

// A Harness knows how to obtain one external tool. Get and Build are
// conveniences; any tool may instead be installed by hand and pointed
// at from the tool file.
type Harness interface {
	// CheckPrerequisites reports whether the host can fetch and build
	// the tool.
	CheckPrerequisites() error

	// Get fetches the tool's source into cfg.SrcDir.
	Get(cfg *GetConfig) error

	// Build builds the tool.
	Build(cfg *BuildConfig) error

	// Bin reports the executable path after a successful Build: under
	// cfg.BinDir for tools built in place, or resolved from PATH for
	// tools that install into the environment.
	Bin(cfg *BuildConfig) (string, error)
}

// Roles lists every tool role, in the order 'sweep tools' prepares
// them.
var Roles = []string{
	common.ToolEngine,
	common.ToolTreeTool,
	common.ToolDetector,
	common.ToolTrainSim,
	common.ToolClassifier,
}

// ByRole returns the harness for a tool-file role.
func ByRole(role string) (Harness, error) {
	switch role {
	case common.ToolEngine:
		return Engine(), nil
	case common.ToolTreeTool:
		return TreeTool(), nil
	case common.ToolDetector:
		return Detector(), nil
	case common.ToolTrainSim:
		return TrainSim(), nil
	case common.ToolClassifier:
		return Classifier(), nil
	}
	return nil, fmt.Errorf("no harness for tool role %q", role)
}
