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

package stage

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/ccforge/sandbox/internal/errs"
)

// setup extracts the archive into srcdir/<target>. Host tar/unzip are used
// for speed when available (spec.md §4.5: "use host tar/unzip (speed)");
// the pure-Go fallback (tar+gzip/xz/bzip2, archive/zip) keeps extraction
// working even when those host tools are missing.
func (a *ArchiveSource) setup(ws Workspace) error {
	dest := ws.TargetDir(a.Target)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	name := strings.ToLower(filepath.Base(a.Path))
	switch {
	case strings.HasSuffix(name, ".zip"):
		if err := tryHostUnzip(a.Path, dest); err == nil {
			return nil
		}
		return unzipPure(a.Path, dest)
	case hasAnyTarSuffix(name):
		if err := tryHostTar(a.Path, dest); err == nil {
			return nil
		}
		return untarPure(a.Path, dest)
	default:
		return fmt.Errorf("%w: %s", errs.ErrArchiveFormatUnknown, name)
	}
}

func hasAnyTarSuffix(name string) bool {
	for _, suf := range []string{".tar", ".tar.gz", ".tgz", ".tar.xz", ".tar.bz2"} {
		if strings.HasSuffix(name, suf) {
			return true
		}
	}
	return false
}

func tryHostTar(path, dest string) error {
	if _, err := exec.LookPath("tar"); err != nil {
		return err
	}
	cmd := exec.Command("tar", "-xf", path, "-C", dest)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func tryHostUnzip(path, dest string) error {
	if _, err := exec.LookPath("unzip"); err != nil {
		return err
	}
	cmd := exec.Command("unzip", "-q", "-o", path, "-d", dest)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func untarPure(path, dest string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	name := strings.ToLower(path)
	var r io.Reader
	switch {
	case strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz"):
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer gzr.Close()
		r = gzr
	case strings.HasSuffix(name, ".tar.xz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			return err
		}
		r = xzr
	case strings.HasSuffix(name, ".tar.bz2"):
		r = bzip2.NewReader(f)
	case strings.HasSuffix(name, ".tar"):
		r = f
	default:
		return fmt.Errorf("%w: %s", errs.ErrArchiveFormatUnknown, name)
	}
	return untar(r, dest)
}

func untar(r io.Reader, outDir string) error {
	tr := tar.NewReader(r)
	for {
		h, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		dst := filepath.Join(outDir, filepath.FromSlash(h.Name))
		switch h.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dst, 0o755); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
				return err
			}
			_ = os.Remove(dst)
			if err := os.Symlink(h.Linkname, dst); err != nil {
				return err
			}
		default:
			if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(h.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				_ = out.Close()
				return err
			}
			_ = out.Close()
		}
	}
}

func unzipPure(path, dest string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer r.Close()
	for _, f := range r.File {
		dst := filepath.Join(dest, filepath.FromSlash(f.Name))
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dst, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		w, err := os.Create(dst)
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(w, rc)
		rc.Close()
		w.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
