// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileExists returns true if a file or directory exists at the
// specified path, otherwise it returns false. If an error is
// encountered while checking, an error is returned.
func FileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

// CopyFile copies the regular file at path src to dst, creating dst
// with the same file mode. sfinfo, if non-nil, must be the os.FileInfo
// for src; it exists only to avoid re-statting paths the caller has
// already walked. Symbolic links are followed.
func CopyFile(dst, src string, sfinfo os.FileInfo) error {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sf.Close()
	if sfinfo == nil || sfinfo.Mode()&os.ModeSymlink != 0 {
		sfinfo, err = sf.Stat()
		if err != nil {
			return err
		}
	}
	df, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, sfinfo.Mode())
	if err != nil {
		return err
	}
	defer df.Close()
	_, err = io.Copy(df, sf)
	return err
}

// CopySymlink installs a new symlink at dst carrying the same link
// path as the symlink at src. Relative links therefore resolve
// relative to dst's directory. sfinfo, if non-nil, must come from an
// Lstat of src.
func CopySymlink(dst, src string, sfinfo os.FileInfo) error {
	if sfinfo == nil || sfinfo.Mode()&os.ModeSymlink == 0 {
		var err error
		sfinfo, err = os.Lstat(src)
		if err != nil {
			return err
		}
	}
	if sfinfo.Mode()&os.ModeSymlink == 0 {
		return fmt.Errorf("source file is not a symlink")
	}
	link, err := os.Readlink(src)
	if err != nil {
		return err
	}
	return os.Symlink(link, dst)
}

// CopyDir recursively copies the directory at path src to a new
// directory at path dst. Symlinks are copied verbatim as in
// CopySymlink. New directories are always created 0755 regardless of
// the source permissions so the copy remains modifiable.
func CopyDir(dst, src string) error {
	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}
	ents, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, ent := range ents {
		d, s := filepath.Join(dst, ent.Name()), filepath.Join(src, ent.Name())
		fi, err := ent.Info()
		if err != nil {
			return err
		}
		if ent.IsDir() {
			if err := CopyDir(d, s); err != nil {
				return err
			}
		} else if ent.Type()&os.ModeSymlink != 0 {
			if err := CopySymlink(d, s, fi); err != nil {
				return err
			}
		} else {
			if err := CopyFile(d, s, fi); err != nil {
				return err
			}
		}
	}
	return nil
}
