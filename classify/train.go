// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package classify drives the machine-learning side of the pipeline:
// simulating classifier training data with an external coalescent
// simulator, extracting feature vectors, training the external
// classifier, and applying it to the primary simulations. The training
// workflow is decoupled from the main grid; it shares only the
// campaign's training settings and the tool file.
package classify

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strconv"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/popgensims/sweep/common"
)

// Class is a training scenario the classifier learns to distinguish.
type Class string

const (
	// ClassNeutral is drift under the demographic model alone.
	ClassNeutral Class = "neutral"
	// ClassHard is a completed sweep from a new mutation.
	ClassHard Class = "hard"
	// ClassSoft is a completed sweep from standing variation.
	ClassSoft Class = "soft"
)

// Classes lists the training classes in file order: the order the
// class feature files are handed to the classifier's training mode.
var Classes = []Class{ClassNeutral, ClassHard, ClassSoft}

// NumPositions is how many focal positions sweep training classes are
// simulated at: the classifier scores the central sub-window of an
// 11-sub-window frame, so sweeps are planted at each sub-window
// center in turn.
const NumPositions = 11

// Position returns the i-th sweep position as a fraction of the
// simulated region: the center of sub-window i, (2i+1)/22.
func Position(i int) float64 {
	return float64(2*i+1) / (2 * NumPositions)
}

// TrainEntry is one coalescent replicate of the training set. Neutral
// entries have PosIndex −1 and zero Alpha/Freq; hard entries draw
// Alpha; soft entries draw Alpha and Freq.
type TrainEntry struct {
	Class    Class
	PosIndex int
	Rep      int
	Seed     int64
	Alpha    float64
	Freq     float64
}

// Dir returns the entry's output directory under the training root:
// sims/<class> for neutral, sims/<class>/x<i> for sweep classes.
func (e *TrainEntry) Dir(root string) string {
	d := filepath.Join(root, "sims", string(e.Class))
	if e.PosIndex >= 0 {
		d = filepath.Join(d, fmt.Sprintf("x%d", e.PosIndex))
	}
	return d
}

// MSOutPath returns the entry's ms-format output path.
func (e *TrainEntry) MSOutPath(root string) string {
	return filepath.Join(e.Dir(root), fmt.Sprintf("r%d.msout", e.Rep))
}

func (e *TrainEntry) String() string {
	if e.PosIndex < 0 {
		return fmt.Sprintf("train %s r%d", e.Class, e.Rep)
	}
	return fmt.Sprintf("train %s x%d r%d", e.Class, e.PosIndex, e.Rep)
}

// TrainPlan expands the training settings into replicate entries:
// every neutral replicate, then hard and soft replicates at each of
// the eleven positions. Selection strengths are drawn log-uniformly
// over AlphaRange and initial frequencies uniformly over FreqRange,
// each from a PRNG seeded by the entry's own seed so any entry can be
// reproduced in isolation; the seeds themselves come from one PRNG
// seeded with the campaign seed, in exactly this order.
func TrainPlan(ts *common.TrainSettings, campaignSeed int64) ([]TrainEntry, error) {
	if err := validateTrain(ts); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(campaignSeed))
	var entries []TrainEntry
	for rep := 0; rep < ts.Replicates; rep++ {
		entries = append(entries, TrainEntry{
			Class: ClassNeutral, PosIndex: -1, Rep: rep, Seed: rng.Int63(),
		})
	}
	for _, class := range []Class{ClassHard, ClassSoft} {
		for i := 0; i < NumPositions; i++ {
			for rep := 0; rep < ts.Replicates; rep++ {
				e := TrainEntry{Class: class, PosIndex: i, Rep: rep, Seed: rng.Int63()}
				src := exprand.NewSource(uint64(e.Seed))
				e.Alpha = distuv.LogUniform{Min: ts.AlphaRange[0], Max: ts.AlphaRange[1], Src: src}.Rand()
				if class == ClassSoft {
					e.Freq = distuv.Uniform{Min: ts.FreqRange[0], Max: ts.FreqRange[1], Src: src}.Rand()
				}
				entries = append(entries, e)
			}
		}
	}
	return entries, nil
}

func validateTrain(ts *common.TrainSettings) error {
	if ts.Replicates <= 0 {
		return fmt.Errorf("train.replicates must be positive")
	}
	if ts.SampleSize <= 1 {
		return fmt.Errorf("train.sample_size must be at least 2")
	}
	if ts.Sites <= 0 {
		return fmt.Errorf("train.sites must be positive")
	}
	if ts.Theta <= 0 || ts.Rho < 0 {
		return fmt.Errorf("train.theta must be positive and train.rho non-negative")
	}
	if len(ts.AlphaRange) != 2 || ts.AlphaRange[0] <= 0 || ts.AlphaRange[0] >= ts.AlphaRange[1] {
		return fmt.Errorf("train.alpha_range must be [min, max] with 0 < min < max")
	}
	if len(ts.FreqRange) != 2 || ts.FreqRange[0] <= 0 || ts.FreqRange[0] >= ts.FreqRange[1] || ts.FreqRange[1] > 1 {
		return fmt.Errorf("train.freq_range must be [min, max] with 0 < min < max ≤ 1")
	}
	return nil
}

// SimArgs builds the coalescent simulator's argument list for one
// training replicate: sample size, one replicate, the region length,
// mutation and recombination rates, the simulator's two seeds derived
// from the entry seed, and for sweep classes the selection strength,
// sweep position, completed-sweep event, and (soft only) the starting
// frequency.
func SimArgs(e *TrainEntry, ts *common.TrainSettings) []string {
	args := []string{
		strconv.Itoa(ts.SampleSize),
		"1",
		strconv.FormatInt(ts.Sites, 10),
		"-t", formatFloat(ts.Theta),
		"-r", formatFloat(ts.Rho),
		"-d", strconv.FormatInt(e.Seed&0xffffff|1, 10), strconv.FormatInt((e.Seed>>24)&0xffffff|1, 10),
	}
	if e.Class == ClassNeutral {
		return args
	}
	args = append(args,
		"-ws", "0",
		"-a", formatFloat(e.Alpha),
		"-x", formatFloat(Position(e.PosIndex)),
	)
	if e.Class == ClassSoft {
		args = append(args, "-f", formatFloat(e.Freq))
	}
	return args
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
