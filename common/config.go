// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const CampaignHelp = `
The campaign file is YAML describing the full simulation study: which
demographic models, populations, annotations, and fitness-effect regimes to
cross, over which chromosome windows, and where outputs land. 'sweep plan'
expands it into one manifest row per simulation. See example/campaign.yaml
for a complete, commented file.
`

// Campaign is the study definition: every axis of the parameter grid
// plus paths. The grid expands to
// models × populations × annotations × DFEs × coefficients ×
// time multipliers × replicates × windows, with the neutral and
// background-selection scenarios collapsing the axes they don't use.
type Campaign struct {
	Species  string `yaml:"species"`
	Assembly string `yaml:"assembly"`

	OutputDir string `yaml:"output"`
	AssetsDir string `yaml:"assets"`

	Seed       int64 `yaml:"seed"`
	Replicates int   `yaml:"replicates"`

	// BufferCM is the genetic distance, in centimorgans, added on each
	// side of a focal window before simulating.
	BufferCM float64 `yaml:"buffer_cm"`

	// Subwindows is how many equal parts a focal window is split into
	// when computing diversity statistics.
	Subwindows int `yaml:"subwindows"`

	// Gridpoints is how many evenly spaced test sites the CLR detector
	// evaluates per window.
	Gridpoints int `yaml:"gridpoints"`

	Models          []Model       `yaml:"models"`
	Annotations     []Annotation  `yaml:"annotations"`
	DFEs            []string      `yaml:"dfes"`
	Coefficients    []float64     `yaml:"selection_coefficients"`
	TimeMultipliers []float64     `yaml:"time_multipliers"`
	Chromosomes     []Chromosome  `yaml:"chromosomes"`
	Train           TrainSettings `yaml:"train"`
}

type Model struct {
	ID string `yaml:"id"`
	// Ne is the model's reference effective population size. Sweep end
	// times are drawn over the expected coalescent scale 4·Ne
	// generations, scaled by each time multiplier.
	Ne          float64      `yaml:"ne"`
	Populations []Population `yaml:"populations"`
}

type Population struct {
	Name string `yaml:"name"`
	// Samples is the number of diploid individuals sampled from the
	// population; the engine emits 2×Samples haplotypes.
	Samples int `yaml:"samples"`
}

type Annotation struct {
	ID   string `yaml:"id"`
	Path string `yaml:"path"`
	// Types restricts which GFF feature types contribute intervals,
	// e.g. [exon]. Empty means all features.
	Types []string `yaml:"types"`
}

type Chromosome struct {
	ID     string `yaml:"id"`
	Length int64  `yaml:"length"`
	RecMap string `yaml:"recmap"`

	// Either an explicit window list or a size/step derivation over
	// the whole chromosome. Exactly one form must be given.
	Windows    []WindowSpec `yaml:"windows"`
	WindowSize int64        `yaml:"window_size"`
	WindowStep int64        `yaml:"window_step"`
}

type WindowSpec struct {
	Left  int64 `yaml:"left"`
	Right int64 `yaml:"right"`
}

// TrainSettings parameterizes the classifier training pipeline, which
// is decoupled from the primary grid.
type TrainSettings struct {
	Replicates int   `yaml:"replicates"`
	SampleSize int   `yaml:"sample_size"` // haploid sample size for the coalescent simulator
	Sites      int64 `yaml:"sites"`

	Theta float64 `yaml:"theta"` // 4Nμ over the simulated region
	Rho   float64 `yaml:"rho"`   // 4Nr over the simulated region

	// AlphaRange bounds the per-replicate draw of 2Ns for sweep
	// training classes; FreqRange bounds the initial sweeping-allele
	// frequency for the soft class.
	AlphaRange []float64 `yaml:"alpha_range"`
	FreqRange  []float64 `yaml:"freq_range"`

	ModelDir string `yaml:"model_dir"`
}

func LoadCampaign(path string) (*Campaign, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Campaign
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

func (c *Campaign) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.Replicates <= 0 {
		return fmt.Errorf("replicates must be positive")
	}
	if c.BufferCM < 0 {
		return fmt.Errorf("buffer_cm may not be negative")
	}
	if c.Subwindows <= 0 {
		return fmt.Errorf("subwindows must be positive")
	}
	if c.Gridpoints <= 0 {
		return fmt.Errorf("gridpoints must be positive")
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("at least one demographic model is required")
	}
	for _, m := range c.Models {
		if m.Ne <= 0 {
			return fmt.Errorf("model %s: ne must be positive", m.ID)
		}
		if len(m.Populations) == 0 {
			return fmt.Errorf("model %s: at least one population is required", m.ID)
		}
		for _, p := range m.Populations {
			if p.Samples <= 0 {
				return fmt.Errorf("model %s: population %s: samples must be positive", m.ID, p.Name)
			}
		}
	}
	for _, s := range c.Coefficients {
		if s <= 0 {
			return fmt.Errorf("selection coefficient %v: sweep coefficients must be positive", s)
		}
	}
	for _, tm := range c.TimeMultipliers {
		if tm <= 0 {
			return fmt.Errorf("time multiplier %v: must be positive", tm)
		}
	}
	if len(c.Coefficients) > 0 && len(c.TimeMultipliers) == 0 {
		return fmt.Errorf("time_multipliers is required when selection_coefficients is set")
	}
	if len(c.Chromosomes) == 0 {
		return fmt.Errorf("at least one chromosome is required")
	}
	for i := range c.Chromosomes {
		ch := &c.Chromosomes[i]
		if err := ch.validate(); err != nil {
			return err
		}
		// Splitting a window into more sub-windows than it has base
		// pairs would leave empty sub-windows downstream.
		for _, w := range ch.WindowList() {
			if w.Right-w.Left < int64(c.Subwindows) {
				return fmt.Errorf("chromosome %s: window [%d, %d) is shorter than %d subwindows",
					ch.ID, w.Left, w.Right, c.Subwindows)
			}
		}
	}
	return nil
}

func (ch *Chromosome) validate() error {
	if ch.Length <= 0 {
		return fmt.Errorf("chromosome %s: length must be positive", ch.ID)
	}
	explicit := len(ch.Windows) > 0
	derived := ch.WindowSize > 0
	if explicit == derived {
		return fmt.Errorf("chromosome %s: give either a windows list or window_size, not both", ch.ID)
	}
	if derived && ch.WindowStep == 0 {
		ch.WindowStep = ch.WindowSize
	}
	if derived && ch.WindowStep < 0 {
		return fmt.Errorf("chromosome %s: window_step may not be negative", ch.ID)
	}
	for _, w := range ch.Windows {
		if w.Left < 0 || w.Left >= w.Right || w.Right > ch.Length {
			return fmt.Errorf("chromosome %s: window [%d, %d) out of bounds", ch.ID, w.Left, w.Right)
		}
	}
	return nil
}

// AssetPath resolves a campaign-relative asset reference: absolute
// paths pass through, everything else is joined onto the assets dir.
func (c *Campaign) AssetPath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.AssetsDir == "" {
		return p
	}
	return filepath.Join(c.AssetsDir, p)
}

// Model returns the configured model with the given id.
func (c *Campaign) Model(id string) (*Model, error) {
	for i := range c.Models {
		if c.Models[i].ID == id {
			return &c.Models[i], nil
		}
	}
	return nil, fmt.Errorf("campaign does not define model %q", id)
}

// Chromosome returns the configured chromosome with the given id.
func (c *Campaign) Chromosome(id string) (*Chromosome, error) {
	for i := range c.Chromosomes {
		if c.Chromosomes[i].ID == id {
			return &c.Chromosomes[i], nil
		}
	}
	return nil, fmt.Errorf("campaign does not define chromosome %q", id)
}

// Annotation returns the configured annotation set with the given id.
func (c *Campaign) Annotation(id string) (*Annotation, error) {
	for i := range c.Annotations {
		if c.Annotations[i].ID == id {
			return &c.Annotations[i], nil
		}
	}
	return nil, fmt.Errorf("campaign does not define annotation %q", id)
}

// WindowList returns the chromosome's focal windows: the explicit list
// if given, otherwise consecutive [i·step, i·step+size) windows
// truncated at the first that would overrun the chromosome.
func (ch *Chromosome) WindowList() []WindowSpec {
	if len(ch.Windows) > 0 {
		return ch.Windows
	}
	var ws []WindowSpec
	for left := int64(0); left+ch.WindowSize <= ch.Length; left += ch.WindowStep {
		ws = append(ws, WindowSpec{Left: left, Right: left + ch.WindowSize})
	}
	return ws
}
