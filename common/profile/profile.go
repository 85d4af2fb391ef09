// Copyright 2025 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package profile supports working with pprof profiles collected while
// the pipeline computes statistics in-process. Parallel workers each
// write their own profile; Merge folds a run's worth into one file.
package profile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/pprof/profile"
)

func ReadPprof(filename string) (*profile.Profile, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return profile.Parse(f)
}

func WritePprof(filename string, p *profile.Profile) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	err = p.Write(f)
	if err == nil {
		err = f.Close()
	}
	if err != nil {
		return fmt.Errorf("error writing profile %s: %s", filename, err)
	}

	return nil
}

// ReadDirPprof reads all pprof profiles in dir whose name matches match(name).
func ReadDirPprof(dir string, match func(string) bool) ([]*profile.Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var profiles []*profile.Profile
	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)
		if info, err := entry.Info(); err != nil {
			return nil, err
		} else if info.Size() == 0 {
			// Skip zero-sized files, otherwise the pprof package
			// will call it a parsing error.
			continue
		}
		if match(name) {
			p, err := ReadPprof(path)
			if err != nil {
				return nil, err
			}
			profiles = append(profiles, p)
			continue
		}
	}
	return profiles, nil
}

// MergeDir merges every profile in dir whose name matches match into a
// single profile written to outfile, then removes the inputs. A run
// with no matching profiles writes nothing and returns nil.
func MergeDir(dir, outfile string, match func(string) bool) error {
	profiles, err := ReadDirPprof(dir, match)
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		return nil
	}
	merged, err := profile.Merge(profiles)
	if err != nil {
		return fmt.Errorf("merging profiles for %s: %w", outfile, err)
	}
	if err := WritePprof(outfile, merged); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if match(entry.Name()) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}
