// Copyright 2026 EngFlow Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pack

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ccforge/sandbox/internal/errs"
	"github.com/ccforge/sandbox/platform"
)

// Result carries the three identifiers Package produces.
type Result struct {
	Path     string // output tarball path
	SHA256   string
	TreeHash string
}

// Package snapshots prefixDir's top-level entries, content-addresses the
// snapshot as a git-tree-sha1, and archives it to
// "<outBase>.v<version>.<triplet>.tar.gz" (spec.md §4.8).
//
// If the output path already exists and force is false, it returns
// errs.ErrOutputExists without touching the existing file.
func Package(prefixDir, outBase, version string, plat platform.Platform, force bool) (Result, error) {
	outputPath := fmt.Sprintf("%s.v%s.%s.tar.gz", outBase, version, platform.Triplet(plat))
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return Result{}, fmt.Errorf("%w: %s", errs.ErrOutputExists, outputPath)
		}
	}

	rootInfo, err := os.Stat(prefixDir)
	if err != nil {
		return Result{}, err
	}

	staging, err := os.MkdirTemp(filepath.Dir(outputPath), ".pack-*")
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(staging)

	snapshotRoot := filepath.Join(staging, "snapshot")
	if err := copySnapshot(prefixDir, snapshotRoot); err != nil {
		return Result{}, err
	}
	if err := os.Chmod(snapshotRoot, rootInfo.Mode().Perm()); err != nil {
		return Result{}, err
	}

	treeHash, err := TreeHash(snapshotRoot)
	if err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return Result{}, err
	}
	tmpOutput := outputPath + ".tmp"
	if err := archiveTarGz(snapshotRoot, tmpOutput); err != nil {
		return Result{}, err
	}

	sum, err := sha256File(tmpOutput)
	if err != nil {
		return Result{}, err
	}
	if err := os.Rename(tmpOutput, outputPath); err != nil {
		return Result{}, err
	}

	return Result{Path: outputPath, SHA256: sum, TreeHash: treeHash}, nil
}

func copySnapshot(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			return os.Symlink(link, target)
		case info.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		default:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			return copyFile(path, target, info.Mode().Perm())
		}
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

// archiveTarGz writes a POSIX tar, gzip level 9, of root's contents (with
// symlinks preserved) to outputPath (spec.md §6: "Tarball output").
func archiveTarGz(root, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewWriterLevel(f, gzip.BestCompression)
	if err != nil {
		return err
	}
	defer gz.Close()

	tw := tar.NewWriter(gz)
	defer tw.Close()

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		var link string
		if info.Mode()&os.ModeSymlink != 0 {
			link, err = os.Readlink(path)
			if err != nil {
				return err
			}
		}
		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			header.Name += "/"
		}
		// Zero every timestamp so packaging the same prefix twice produces a
		// byte-identical tarball and thus a stable sha256 (spec.md §8).
		header.ModTime = time.Unix(0, 0)
		header.AccessTime = time.Time{}
		header.ChangeTime = time.Time{}
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			in, err := os.Open(path)
			if err != nil {
				return err
			}
			defer in.Close()
			if _, err := io.Copy(tw, in); err != nil {
				return err
			}
		}
		return nil
	})
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
