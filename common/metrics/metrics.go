// Copyright 2025 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metrics records what each pipeline step cost: wall and CPU
// time plus peak memory for every external tool run, reported as one
// JSON object per line so campaign-wide resource use can be audited
// after the fact.
package metrics

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/popgensims/sweep/common/log"
)

// Result holds the outcome of one pipeline step.
type Result struct {
	// Step names the pipeline stage, e.g. "sim" or "detector".
	Step string `json:"step"`

	// Tool is the base name of the executable that ran, empty for
	// in-process steps.
	Tool string `json:"tool,omitempty"`

	// Start is when the step began.
	Start time.Time `json:"start"`

	// Metrics maps metric names to values. Common keys:
	// wall-ns, user+sys-ns, peak-RSS-bytes, exit-status.
	Metrics map[string]uint64 `json:"metrics"`

	// Files maps artifact labels to the paths the step produced.
	Files map[string]string `json:"files,omitempty"`
}

func NewResult(step string) *Result {
	return &Result{
		Step:    step,
		Start:   time.Now(),
		Metrics: make(map[string]uint64),
	}
}

// AddFile records that the step produced the artifact at path under
// the given label.
func (r *Result) AddFile(label, path string) {
	if r.Files == nil {
		r.Files = make(map[string]string)
	}
	r.Files[label] = path
}

// WriteJSON appends the result to w as a single JSON line.
func (r *Result) WriteJSON(w io.Writer) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// A Sink accumulates step results into a JSON-lines file. A nil Sink
// discards everything, so callers may thread one through
// unconditionally. Add is safe for concurrent use.
type Sink struct {
	mu sync.Mutex
	f  *os.File
}

// NewSink opens (creating or appending) the JSON-lines file at path.
func NewSink(path string) (*Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &Sink{f: f}, nil
}

func (s *Sink) Add(r *Result) {
	if s == nil || r == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := r.WriteJSON(s.f); err != nil {
		log.Printf("failed to record step metrics: %v", err)
	}
}

func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	return s.f.Close()
}
