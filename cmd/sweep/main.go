// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Sweep orchestrates selective-sweep simulation studies: it expands a
// campaign into a simulation grid, drives the external simulators,
// detector, and classifier over it, and merges their outputs into
// genome-wide tables.
package main

import (
	"os"

	"github.com/popgensims/sweep/cli/subcommands"
)

func main() {
	subcommands.Register(&planCmd{})
	subcommands.Register(&simCmd{})
	subcommands.Register(&statsCmd{})
	subcommands.Register(&fvecCmd{})
	subcommands.Register(&trainCmd{})
	subcommands.Register(&predictCmd{})
	subcommands.Register(&mergeCmd{})
	subcommands.Register(&getCmd{})
	subcommands.Register(&putCmd{})
	subcommands.Register(&toolsCmd{})
	subcommands.Register(&genCmd{})
	os.Exit(subcommands.Run())
}
