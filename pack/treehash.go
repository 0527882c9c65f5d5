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

// Package pack implements the Packager (C8): content-addressing a build
// prefix's snapshot as a git-tree-sha1 and archiving it to a tarball.
package pack

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	modeTree       = "40000"
	modeFile       = "100644"
	modeExecutable = "100755"
	modeSymlink    = "120000"
)

// TreeHash computes the git-tree-sha1 of root: recursively, each directory
// hashes to the SHA-1 of "tree <len>\0" followed by the wire-format
// concatenation of its entries ("<mode> <name>\0<20-byte-sha1>", sorted by
// name with directory names compared as if they ended in "/", as git sorts
// them) -- git's own tree object format, so the result matches `git
// hash-object -t tree` for an equivalent worktree.
func TreeHash(root string) (string, error) {
	sum, err := hashTree(root)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum), nil
}

func hashTree(dir string) ([]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sortKey := func(e os.DirEntry) string {
		if e.IsDir() {
			return e.Name() + "/"
		}
		return e.Name()
	}
	sort.Slice(entries, func(i, j int) bool { return sortKey(entries[i]) < sortKey(entries[j]) })

	var buf []byte
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		info, err := os.Lstat(path)
		if err != nil {
			return nil, err
		}

		var mode string
		var sum []byte
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			mode = modeSymlink
			sum, err = hashSymlink(path)
		case info.IsDir():
			mode = modeTree
			sum, err = hashTree(path)
		case info.Mode()&0o111 != 0:
			mode = modeExecutable
			sum, err = hashBlob(path)
		default:
			mode = modeFile
			sum, err = hashBlob(path)
		}
		if err != nil {
			return nil, err
		}

		buf = append(buf, []byte(fmt.Sprintf("%s %s\x00", mode, e.Name()))...)
		buf = append(buf, sum...)
	}

	h := sha1.New()
	fmt.Fprintf(h, "tree %d\x00", len(buf))
	h.Write(buf)
	return h.Sum(nil), nil
}

func hashBlob(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	header := fmt.Sprintf("blob %d\x00", len(data))
	h := sha1.New()
	h.Write([]byte(header))
	h.Write(data)
	return h.Sum(nil), nil
}

func hashSymlink(path string) ([]byte, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return nil, err
	}
	header := fmt.Sprintf("blob %d\x00", len(target))
	h := sha1.New()
	h.Write([]byte(header))
	h.Write([]byte(target))
	return h.Sum(nil), nil
}
