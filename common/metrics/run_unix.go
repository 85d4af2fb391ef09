// Copyright 2025 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build unix

package metrics

import (
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/popgensims/sweep/common/log"
)

// RunCommand traces and runs cmd, harvesting resource usage from the
// finished process into a Result for the named step. The Result is
// returned even when the command fails so the failure's cost is still
// recorded; exit-status carries the code when the process ran at all.
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
		if su, ok := ps.SysUsage().(*syscall.Rusage); ok {
			usage := fromStdUsage(su)
			res.Metrics["user+sys-ns"] = cpuTime(usage)
			res.Metrics["peak-RSS-bytes"] = uint64(usage.Maxrss) * rssMultiplier
		}
	}
	return res, err
}

func cpuTime(usage *unix.Rusage) uint64 {
	return uint64(usage.Utime.Sec)*1e9 + uint64(usage.Utime.Usec*1e3) +
		uint64(usage.Stime.Sec)*1e9 + uint64(usage.Stime.Usec)*1e3
}

func fromStdUsage(su *syscall.Rusage) *unix.Rusage {
	return &unix.Rusage{
		Utime:  unix.Timeval{Sec: su.Utime.Sec, Usec: su.Utime.Usec},
		Stime:  unix.Timeval{Sec: su.Stime.Sec, Usec: su.Stime.Usec},
		Maxrss: su.Maxrss,
	}
}
