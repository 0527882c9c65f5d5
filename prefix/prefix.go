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

// Package prefix models the build Prefix (spec.md §3/§6): a canonicalised
// absolute directory owning srcdir, metadir, per-triplet destdirs, and a
// stable destdir symlink. Lifetime equals one build; ownership is exclusive
// to it.
package prefix

import (
	"os"
	"path/filepath"

	"github.com/ccforge/sandbox/platform"
)

// Prefix is the canonicalised root of one build's workspace.
type Prefix struct {
	Root string
}

// New canonicalises root (absolute path, symlinks resolved where possible)
// and returns the Prefix rooted there. It does not create any directories;
// call Init to lay out the subtree.
func New(root string) (Prefix, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Prefix{}, err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return Prefix{Root: abs}, nil
}

// Init creates the fixed subtree for host and target triplets and the
// stable destdir -> <target-triplet>/destdir symlink (spec.md §6).
func (p Prefix) Init(host, target platform.Platform) error {
	dirs := []string{
		p.SrcDir(),
		p.MetaDir(),
		p.DestDir(host),
		p.DestDir(target),
		p.ArtifactsDir(target),
		p.ProjectDir(target),
		p.MountsDir(),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return p.ensureStableDestdirSymlink(target)
}

func (p Prefix) ensureStableDestdirSymlink(target platform.Platform) error {
	link := filepath.Join(p.Root, "destdir")
	rel := filepath.Join(platform.Triplet(target), "destdir")
	if existing, err := os.Readlink(link); err == nil {
		if existing == rel {
			return nil
		}
		if err := os.Remove(link); err != nil {
			return err
		}
	}
	return os.Symlink(rel, link)
}

// SrcDir is <prefix>/srcdir.
func (p Prefix) SrcDir() string { return filepath.Join(p.Root, "srcdir") }

// MetaDir is <prefix>/metadir.
func (p Prefix) MetaDir() string { return filepath.Join(p.Root, "metadir") }

// TripletDir is <prefix>/<triplet>.
func (p Prefix) TripletDir(plat platform.Platform) string {
	return filepath.Join(p.Root, platform.Triplet(plat))
}

// DestDir is <prefix>/<triplet>/destdir.
func (p Prefix) DestDir(plat platform.Platform) string {
	return filepath.Join(p.TripletDir(plat), "destdir")
}

// ArtifactsDir is <prefix>/<triplet>/artifacts.
func (p Prefix) ArtifactsDir(plat platform.Platform) string {
	return filepath.Join(p.TripletDir(plat), "artifacts")
}

// ArtifactDir is <prefix>/<triplet>/artifacts/<hash>.
func (p Prefix) ArtifactDir(plat platform.Platform, hash string) string {
	return filepath.Join(p.ArtifactsDir(plat), hash)
}

// ProjectDir is <prefix>/<triplet>/.project, the private package
// environment DepInstaller registers dependency specs into.
func (p Prefix) ProjectDir(plat platform.Platform) string {
	return filepath.Join(p.TripletDir(plat), ".project")
}

// MountsDir is <prefix>/.mounts.
func (p Prefix) MountsDir() string { return filepath.Join(p.Root, ".mounts") }

// SymlinkManifestPath is where the applied symlink-tree diff is recorded
// (spec.md §9: "store the applied diff... under metadir").
func (p Prefix) SymlinkManifestPath(plat platform.Platform) string {
	return filepath.Join(p.MetaDir(), "symlinks-"+platform.Triplet(plat)+".json")
}
