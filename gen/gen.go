// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gen regenerates the bundled example assets: synthetic
// recombination maps, a toy annotation track, and a complete example
// campaign, all deterministic so the checked-in copies can be
// reproduced exactly. These assets drive the documentation examples
// and the integration tests; real campaigns download real assets with
// 'sweep get'.
package gen

import (
	"fmt"
	"sort"
)

// Config tells a generator where assets land.
type Config struct {
	// OutputDir is the directory generated assets are written into.
	OutputDir string
	// Seed drives any stochastic structure (hotspot placement). The
	// same seed always regenerates identical files.
	Seed int64
}

// A Generator produces one example asset.
type Generator interface {
	// Generate writes the asset under cfg.OutputDir.
	Generate(cfg *Config) error
}

var generators = map[string]Generator{
	"recmap-uniform": uniformRecMap{},
	"recmap-hotspot": hotspotRecMap{},
	"annotation":     annotTrack{},
	"campaign":       campaignFile{},
}

// Names lists the available generators, sorted.
func Names() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName returns the named generator.
func ByName(name string) (Generator, error) {
	g, ok := generators[name]
	if !ok {
		return nil, fmt.Errorf("no generator named %q", name)
	}
	return g, nil
}
