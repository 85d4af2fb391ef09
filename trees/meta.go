// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trees names the engine's tree-sequence outputs and manages
// the windowing metadata that travels with them. The tree-sequence
// binary itself is engine-owned and opaque to the pipeline; everything
// the downstream stages need to interpret it lives in a JSON sidecar
// next to the file, and the same key/value pairs are handed to the
// engine so the binary carries a redundant copy.
package trees

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/popgensims/sweep/genome"
)

// Windowing records which focal window a simulation covers and the
// buffered bounds that were actually simulated.
type Windowing struct {
	Chrom       string `json:"chrom"`
	WindowLeft  int64  `json:"window_left"`
	WindowRight int64  `json:"window_right"`
	BLeft       int64  `json:"bleft"`
	BRight      int64  `json:"bright"`
}

// Meta is the sidecar content: the windowing block plus free-form
// scenario parameters (model, selection coefficient, sweep time, seed)
// recorded by the stage that ran the engine.
type Meta struct {
	Windowing Windowing         `json:"windowing"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// NewMeta builds a sidecar for a window.
func NewMeta(w genome.Window, extra map[string]string) Meta {
	return Meta{
		Windowing: Windowing{
			Chrom:       w.Chrom,
			WindowLeft:  w.Left,
			WindowRight: w.Right,
			BLeft:       w.BLeft,
			BRight:      w.BRight,
		},
		Extra: extra,
	}
}

// Window reconstructs the window the sidecar describes.
func (m Meta) Window() genome.Window {
	return genome.Window{
		Region: genome.Region{
			Chrom: m.Windowing.Chrom,
			Left:  m.Windowing.WindowLeft,
			Right: m.Windowing.WindowRight,
		},
		BLeft:  m.Windowing.BLeft,
		BRight: m.Windowing.BRight,
	}
}

// Pairs flattens the sidecar to sorted key=value strings, the form the
// engine's --meta flag takes.
func (m Meta) Pairs() []string {
	w := m.Windowing
	pairs := []string{
		fmt.Sprintf("windowing.window_left=%d", w.WindowLeft),
		fmt.Sprintf("windowing.window_right=%d", w.WindowRight),
		fmt.Sprintf("windowing.bleft=%d", w.BLeft),
		fmt.Sprintf("windowing.bright=%d", w.BRight),
	}
	for k, v := range m.Extra {
		pairs = append(pairs, fmt.Sprintf("extra.%s=%s", k, v))
	}
	sort.Strings(pairs)
	return pairs
}

// MetaPath returns the sidecar path for a tree-sequence file.
func MetaPath(treesPath string) string {
	return treesPath + ".meta.json"
}

// WriteMeta writes the sidecar for treesPath. The write goes through a
// temporary file in the same directory so a crash never leaves a
// half-written sidecar next to a complete tree sequence.
func WriteMeta(treesPath string, m Meta) (err error) {
	if !m.Window().Valid() {
		return fmt.Errorf("refusing to write invalid windowing %+v", m.Windowing)
	}
	b, err := json.MarshalIndent(&m, "", "\t")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	path := MetaPath(treesPath)
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(f.Name())
		}
	}()
	if _, err = f.Write(b); err != nil {
		f.Close()
		return err
	}
	if err = f.Chmod(0o644); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// ReadMeta reads and validates the sidecar for treesPath.
func ReadMeta(treesPath string) (Meta, error) {
	var m Meta
	b, err := os.ReadFile(MetaPath(treesPath))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("%s: %w", MetaPath(treesPath), err)
	}
	if !m.Window().Valid() {
		return m, fmt.Errorf("%s: windowing violates bleft <= left < right <= bright: %+v",
			MetaPath(treesPath), m.Windowing)
	}
	return m, nil
}
