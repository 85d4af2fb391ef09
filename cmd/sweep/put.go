// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"archive/tar"
	"compress/gzip"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/popgensims/sweep/cli/bootstrap"
	"github.com/popgensims/sweep/common"
	"github.com/popgensims/sweep/common/log"
)

const (
	putUsage = `Uploads a new version of the campaign assets to GCS and records
its hash in the assets hash file. Published versions are immutable;
-force overwrites anyway, for fixing a botched upload of an unreleased
version.

Usage: %s put [flags]
`
)

type putCmd struct {
	auth           bootstrap.AuthOption
	force          bool
	public         bool
	bucket         string
	assetsDir      string
	assetsHashFile string
	version        string
}

func (*putCmd) Name() string { return "put" }
func (*putCmd) Synopsis() string {
	return "Uploads a new version of the campaign assets."
}
func (*putCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprintf(w, putUsage, base)
}

func (c *putCmd) SetFlags(f *flag.FlagSet) {
	c.auth = bootstrap.AuthAppDefault
	f.Var(&c.auth, "auth", fmt.Sprintf("authentication method (options: %s)", authOpts(false)))
	f.BoolVar(&c.force, "force", false, "overwrite an existing archive for this version")
	f.BoolVar(&c.public, "public", false, "make the uploaded archive publicly readable")
	f.StringVar(&c.version, "version", common.Version, "the version to upload assets for")
	f.StringVar(&c.bucket, "bucket", "sweep-assets", "GCS bucket to upload assets to")
	f.StringVar(&c.assetsDir, "assets-dir", "./assets", "assets directory to archive and upload")
	f.StringVar(&c.assetsHashFile, "assets-hash-file", "./assets.hash", "file to record the SHA256 hash of the archive in")
}

func (c *putCmd) Run(_ []string) error {
	log.SetActivityLog(true)

	if err := bootstrap.ValidateVersion(c.version); err != nil {
		return err
	}
	log.Printf("Archiving %s", c.assetsDir)
	archive, hash, err := createAssetsArchive(c.assetsDir, c.version)
	if err != nil {
		return err
	}
	defer func() {
		archive.Close()
		os.Remove(archive.Name())
	}()

	log.Printf("Uploading %s to %s (version %s)", archive.Name(), c.bucket, c.version)
	if err := bootstrap.UploadArchive(archive, c.bucket, c.version, c.auth, c.force, c.public); err != nil {
		return err
	}

	log.Printf("Recording hash in %s", c.assetsHashFile)
	hashes, err := bootstrap.ReadHashesFile(c.assetsHashFile)
	if err != nil {
		return err
	}
	if !hashes.Put(c.version, hash, c.force) {
		return fmt.Errorf("hash for version %s already exists in %s", c.version, c.assetsHashFile)
	}
	return hashes.WriteToFile(c.assetsHashFile)
}

// createAssetsArchive tars and compresses dir into a temporary file and
// returns the file positioned at the start, along with the hash of the
// compressed bytes. The caller removes the file.
func createAssetsArchive(dir, version string) (*os.File, string, error) {
	f, err := os.CreateTemp("", bootstrap.VersionArchiveName(version))
	if err != nil {
		return nil, "", err
	}
	hash := bootstrap.Hash()
	if err := writeAssetsArchive(io.MultiWriter(f, hash), dir); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, "", err
	}
	return f, bootstrap.CanonicalizeHash(hash), nil
}

func writeAssetsArchive(w io.Writer, dir string) error {
	gw := gzip.NewWriter(w)
	tw := tar.NewWriter(gw)
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("%s: only regular files may be archived", path)
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(tw, src)
		src.Close()
		return err
	})
	if err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gw.Close()
}
