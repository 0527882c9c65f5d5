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
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"

	"github.com/ccforge/sandbox/internal/errs"
)

// Codec is a compression format CompressDir can target.
type Codec string

const (
	Gzip Codec = "gzip"
	Xz   Codec = "xz"
)

// CompressDir compresses every regular file directly under dir in place,
// appending ext to its name and deleting the original (spec.md §4.8).
// Symlinks and subdirectories are left untouched.
func CompressDir(dir string, codec Codec, level int, ext string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := compressFile(path, path+ext, codec, level); err != nil {
			return err
		}
		if err := os.Remove(path); err != nil {
			return err
		}
	}
	return nil
}

func compressFile(src, dst string, codec Codec, level int) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	switch codec {
	case Gzip:
		w, err := gzip.NewWriterLevel(out, level)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, in); err != nil {
			return err
		}
		return w.Close()
	case Xz:
		w, err := xz.NewWriter(out)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, in); err != nil {
			return err
		}
		return w.Close()
	default:
		return fmt.Errorf("%w: codec %q", errs.ErrArchiveFormatUnknown, codec)
	}
}
