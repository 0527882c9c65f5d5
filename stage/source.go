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

// Package stage implements the SourceStager (C5): it fetches/extracts each
// source kind into a build's srcdir. Source variants are a sum type, each
// owning its own Setup behavior -- dispatched by tag match, not by method
// lookup on a dynamic object (spec.md §9).
package stage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccforge/sandbox/prefix"
)

// Workspace is where sources are staged: srcdir, with a random nonce prefix
// so a later audit pass can detect absolute-path leaks in built binaries.
type Workspace struct {
	Root  string // <prefix>/srcdir
	Nonce string
}

// NewWorkspace creates the srcdir root under p, with a fresh
// crypto/rand-backed nonce. The nonce is security-relevant (it lets an
// auditor recognise a leaked build path), so it is not math/rand-derived.
func NewWorkspace(p prefix.Prefix) (Workspace, error) {
	nonce, err := randomNonce()
	if err != nil {
		return Workspace{}, err
	}
	root := p.SrcDir()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return Workspace{}, err
	}
	return Workspace{Root: root, Nonce: nonce}, nil
}

func randomNonce() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// TargetDir returns the staging directory for a source named target, under
// srcdir, prefixed with the workspace nonce.
func (w Workspace) TargetDir(target string) string {
	return filepath.Join(w.Root, fmt.Sprintf("%s-%s", w.Nonce, target))
}

// PatchesDir returns srcdir/patches.
func (w Workspace) PatchesDir() string {
	return filepath.Join(w.Root, "patches")
}

// Source is the sum type of stageable inputs. Exactly one of the embedded
// variant fields is non-nil.
type Source struct {
	Archive   *ArchiveSource
	File      *FileSource
	Directory *DirectorySource
	Git       *GitSource
	Patch     *PatchSource
}

// ArchiveSource extracts an archive file at srcdir/<target>; format is
// detected from the file extension.
type ArchiveSource struct {
	Path   string
	Hash   string
	Target string
}

// FileSource copies a single file to srcdir/<target>.
type FileSource struct {
	Path   string
	Hash   string
	Target string
}

// DirectorySource copies a directory's contents into srcdir/<target>.
type DirectorySource struct {
	Path           string
	Target         string
	FollowSymlinks bool
}

// GitSource clones Path and checks out Commit; the target directory name
// strips a trailing ".git".
type GitSource struct {
	Path   string
	Commit string
}

// PatchSource materialises Payload under srcdir/patches/<Name>.
type PatchSource struct {
	Name    string
	Payload []byte
}

// Setup dispatches to the variant's staging behavior by tag match.
func (s Source) Setup(ws Workspace) error {
	switch {
	case s.Archive != nil:
		return s.Archive.setup(ws)
	case s.File != nil:
		return s.File.setup(ws)
	case s.Directory != nil:
		return s.Directory.setup(ws)
	case s.Git != nil:
		return s.Git.setup(ws)
	case s.Patch != nil:
		return s.Patch.setup(ws)
	default:
		return fmt.Errorf("stage: empty Source has no variant set")
	}
}

func gitTargetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, ".git")
}
