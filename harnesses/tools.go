// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harnesses

import (
	"fmt"
	"os/exec"
	"path/filepath"
)

// Pinned sources for tools fetched from git. Update deliberately;
// statistic and feature definitions can shift between releases.
const (
	engineURL = "https://github.com/popsim-consortium/stdpopsim"
	engineRef = "0.2.0"

	treeToolURL = "https://github.com/tskit-dev/tskit"
	treeToolRef = "main"

	trainSimURL = "https://github.com/kern-lab/discoal"
	trainSimRef = "master"

	classifierURL = "https://github.com/kern-lab/diploSHIC"
	classifierRef = "master"
)

// pipHarness covers the Python tools: fetched with git, installed with
// pip, found on PATH afterward.
type pipHarness struct {
	url, ref string
	bin      string
	// subdir, when set, is the package directory under the checkout
	// that pip installs from.
	subdir string
}

func (h pipHarness) CheckPrerequisites() error {
	return checkTools("git", "python3")
}

func (h pipHarness) Get(cfg *GetConfig) error {
	return gitShallowClone(cfg.SrcDir, h.url, h.ref)
}

func (h pipHarness) Build(cfg *BuildConfig) error {
	return pipInstall(filepath.Join(cfg.SrcDir, h.subdir))
}

func (h pipHarness) Bin(cfg *BuildConfig) (string, error) {
	path, err := exec.LookPath(h.bin)
	if err != nil {
		return "", fmt.Errorf("%s not on PATH after install (is the pip user bin dir on PATH?): %w", h.bin, err)
	}
	return path, nil
}

// makeHarness covers the C tools: fetched with git, built with make,
// with the named executable copied into the bin dir.
type makeHarness struct {
	url, ref string
	bin      string
	target   string
}

func (h makeHarness) CheckPrerequisites() error {
	tools := []string{"make", "cc"}
	if h.url != "" {
		tools = append(tools, "git")
	}
	return checkTools(tools...)
}

func (h makeHarness) Get(cfg *GetConfig) error {
	if h.url == "" {
		return fmt.Errorf("%s has no public git source; unpack its distribution into %s and re-run",
			h.bin, cfg.SrcDir)
	}
	return gitShallowClone(cfg.SrcDir, h.url, h.ref)
}

func (h makeHarness) Build(cfg *BuildConfig) error {
	args := []string{}
	if h.target != "" {
		args = append(args, h.target)
	}
	if err := runIn(cfg.SrcDir, "make", args...); err != nil {
		return err
	}
	return copyFile(filepath.Join(cfg.BinDir, h.bin), filepath.Join(cfg.SrcDir, h.bin))
}

func (h makeHarness) Bin(cfg *BuildConfig) (string, error) {
	return filepath.Join(cfg.BinDir, h.bin), nil
}

// Engine returns the harness for the forward-simulation driver. The
// driver needs a SLiM binary on PATH at simulation time; that is a
// runtime concern, not a build prerequisite, so it isn't checked here.
func Engine() Harness {
	return pipHarness{url: engineURL, ref: engineRef, bin: "stdpopsim"}
}

// TreeTool returns the harness for the tree-sequence toolkit CLI used
// for VCF export. The Python package lives under python/ in the
// upstream checkout.
func TreeTool() Harness {
	return pipHarness{url: treeToolURL, ref: treeToolRef, bin: "tskit", subdir: "python"}
}

// Detector returns the harness for the CLR sweep detector. SweepFinder2
// is distributed as a source tarball, not a git repository, so Get
// only explains where to put it; Build runs its makefile.
func Detector() Harness {
	return makeHarness{bin: "SweepFinder2"}
}

// TrainSim returns the harness for the coalescent simulator that
// generates classifier training data.
func TrainSim() Harness {
	return makeHarness{url: trainSimURL, ref: trainSimRef, bin: "discoal", target: "discoal"}
}

// Classifier returns the harness for the sweep classifier tool.
func Classifier() Harness {
	return pipHarness{url: classifierURL, ref: classifierRef, bin: "diploSHIC"}
}
