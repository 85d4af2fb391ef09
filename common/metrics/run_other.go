// Copyright 2025 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !unix

package metrics

import (
	"os/exec"
	"path/filepath"
	"time"

	"github.com/popgensims/sweep/common/log"
)

// RunCommand traces and runs cmd, recording wall time and exit status.
// Rusage-derived metrics are unavailable on this platform.
func RunCommand(cmd *exec.Cmd, step string) (*Result, error) {
	res := NewResult(step)
	if cmd.Path != "" {
		res.Tool = filepath.Base(cmd.Path)
	}
	log.TraceCommand(cmd)
	t0 := time.Now()
	err := cmd.Run()
	res.Metrics["wall-ns"] = uint64(time.Since(t0))
	if ps := cmd.ProcessState; ps != nil {
		res.Metrics["exit-status"] = uint64(ps.ExitCode())
	}
	return res, err
}
