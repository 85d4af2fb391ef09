// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harnesses

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync/atomic"

	"github.com/popgensims/sweep/common"
	"github.com/popgensims/sweep/common/log"
)

var scopeSeq atomic.Uint64

// ScopeCommand rewrites cmd to run inside a transient systemd scope
// carrying the tool's resource hints (MemoryMax, RuntimeMaxSec). With
// no hints set, or on hosts without systemd-run, the command is
// returned unchanged; the hints are best-effort, not a sandbox.
func ScopeCommand(cmd *exec.Cmd, t *common.Tool) (*exec.Cmd, error) {
	props := scopeProperties(t)
	if len(props) == 0 {
		return cmd, nil
	}
	systemdRunPath, err := exec.LookPath("systemd-run")
	if errors.Is(err, exec.ErrNotFound) {
		log.Printf("warning: systemd-run not available, running %s without resource caps", t.Name)
		return cmd, nil
	} else if err != nil {
		return nil, err
	}
	unit := fmt.Sprintf("sweep-%s-%d-%d", t.Name, os.Getpid(), scopeSeq.Add(1))
	args := []string{systemdRunPath, "--user", "--scope", "--quiet", "--unit=" + unit}
	for _, p := range props {
		args = append(args, "-p", p)
	}
	cmd.Args = append(args, cmd.Args...)
	cmd.Path = systemdRunPath
	return cmd, nil
}

func scopeProperties(t *common.Tool) []string {
	var props []string
	if t.MemoryMax != "" {
		props = append(props, "MemoryMax="+t.MemoryMax)
	}
	if t.RuntimeMax > 0 {
		props = append(props, fmt.Sprintf("RuntimeMaxSec=%d", t.RuntimeMax))
	}
	return props
}
