// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harnesses

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/popgensims/sweep/common/fileutil"
	"github.com/popgensims/sweep/common/log"
)

func gitShallowClone(dir, url, ref string) error {
	cmd := exec.Command("git", "-c", "advice.detachedHead=false", "clone", "--depth", "1", "-b", ref, url, dir)
	log.TraceCommand(cmd)
	var buf bytes.Buffer
	cmd.Stderr = &buf
	if _, err := cmd.Output(); err != nil {
		return fmt.Errorf("git shallow clone: %v: stderr:\n%s", err, &buf)
	}
	return nil
}

// runIn runs name with args in dir, capturing output for the error.
// Build steps go through here so every compiler invocation is traced.
func runIn(dir, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	log.TraceCommand(cmd)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v in %s: %v: output:\n%s", name, args, dir, err, &buf)
	}
	return nil
}

func pipInstall(srcDir string) error {
	return runIn(srcDir, "python3", "-m", "pip", "install", "--user", ".")
}

func copyFile(dst, src string) error {
	log.CommandPrintf("cp %s %s", src, dst)
	return fileutil.CopyFile(dst, src, nil)
}

// checkTools verifies the named programs are on PATH.
func checkTools(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, err := exec.LookPath(n); err != nil {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required programs: %v", missing)
	}
	return nil
}
