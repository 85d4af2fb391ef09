// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harnesses

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/popgensims/sweep/common"
	"github.com/popgensims/sweep/common/diagnostics"
	"github.com/popgensims/sweep/common/metrics"
)

// Runner executes one external tool for one pipeline step. Every run
// gets the same plumbing: argv from the tool file plus step arguments,
// the tool's environment chain, optional perf wrapping and systemd
// resource scoping, stdout/stderr captured to a per-step log in the
// working directory, and resource metrics in the sink.
type Runner struct {
	Tool *common.Tool
	Step string
	Sink *metrics.Sink
}

// Command builds the tool's command for dir with args appended to the
// tool file's args. Callers that need custom stdio use this directly;
// Run is the usual path.
func (r *Runner) Command(ctx context.Context, dir string, args ...string) *exec.Cmd {
	argv := append(append([]string(nil), r.Tool.Args...), args...)
	cmd := exec.CommandContext(ctx, r.Tool.Bin, argv...)
	cmd.Dir = dir
	cmd.Env = r.Tool.ExecEnv().Collapse()
	return cmd
}

// Run executes the tool in dir. Output goes to <step>.log there; a
// failure names the log.
func (r *Runner) Run(ctx context.Context, dir string, args ...string) error {
	return r.run(ctx, dir, "", args)
}

// RunOutput executes the tool in dir with stdout captured to outPath.
// Stderr still lands in the step log.
func (r *Runner) RunOutput(ctx context.Context, dir, outPath string, args ...string) error {
	return r.run(ctx, dir, outPath, args)
}

func (r *Runner) run(ctx context.Context, dir, outPath string, args []string) error {
	cmd := r.Command(ctx, dir, args...)
	if err := r.wrapPerf(cmd, dir); err != nil {
		return err
	}
	cmd, err := ScopeCommand(cmd, r.Tool)
	if err != nil {
		return err
	}
	logPath := filepath.Join(dir, r.Step+".log")
	lf, err := os.Create(logPath)
	if err != nil {
		return err
	}
	defer lf.Close()
	cmd.Stdout = lf
	cmd.Stderr = lf
	if outPath != "" {
		out, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer out.Close()
		cmd.Stdout = out
	}
	res, err := metrics.RunCommand(cmd, r.Step)
	if res != nil && outPath != "" {
		res.AddFile("output", outPath)
	}
	r.Sink.Add(res)
	if err != nil {
		return fmt.Errorf("%s (%s): %w; see %s", r.Step, r.Tool.Name, err, logPath)
	}
	return nil
}

// wrapPerf prepends 'perf record' when the tool's diagnostics ask for
// it. The profile lands next to the step log.
func (r *Runner) wrapPerf(cmd *exec.Cmd, dir string) error {
	d, ok := r.Tool.Diagnostics.Get(diagnostics.Perf)
	if !ok {
		return nil
	}
	perfPath, err := exec.LookPath("perf")
	if err != nil {
		return fmt.Errorf("tool %s requests perf diagnostics: %w", r.Tool.Name, err)
	}
	perfArgs := []string{perfPath, "record", "-o", filepath.Join(dir, r.Step+".perf.data")}
	if d.Flags != "" {
		perfArgs = append(perfArgs, strings.Fields(d.Flags)...)
	}
	perfArgs = append(perfArgs, "--")
	cmd.Args = append(perfArgs, cmd.Args...)
	cmd.Path = perfPath
	return nil
}
