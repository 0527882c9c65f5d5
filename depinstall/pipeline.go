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

package depinstall

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/ccforge/sandbox/platform"
	"github.com/ccforge/sandbox/prefix"
)

// ArtifactsOf resolves the artifact hashes a package's Artifacts.toml (or
// StdlibArtifacts.toml) describes -- an external collaborator, since
// Artifacts.toml parsing belongs to the registry client (spec.md §1).
type ArtifactsOf func(spec PackageSpec) ([]string, error)

// ProjectManifest is the "private package environment" instantiated under
// <prefix>/<triplet>/.project (spec.md §4.6 step 3). It is intentionally a
// flat JSON registration record, not a full package-manager environment:
// this module only needs to remember which specs were requested for this
// build, not solve a dependency graph of its own.
type ProjectManifest struct {
	Specs []PackageSpec `json:"specs"`
}

func registerProject(p prefix.Prefix, plat platform.Platform, specs []PackageSpec) error {
	dir := p.ProjectDir(plat)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(ProjectManifest{Specs: specs}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0o644)
}

// InstallDeps runs the full C6 pipeline against p for plat:
//  0. resolve stdlib-provided specs (no tree hash) against plat's
//     julia_version, if stdlib is non-nil (spec.md §4.6's stdlib-JLL
//     subtlety)
//  1. collapse tree-hash-wins specs
//  2. resolve the _jll dependency closure
//  3. instantiate the private package environment and register specs
//  4. ensure+copy each dependency's artifact into <prefix>/<triplet>/artifacts
//  5. symlink-tree every per-build artifact into destdir
//
// It returns the symlink entries created (already persisted to metadir via
// SaveManifest) so the caller can hand them straight to Cleanup later
// without re-deriving them.
func (in *Installer) InstallDeps(p prefix.Prefix, plat platform.Platform, specs []PackageSpec, graph DependencyGraph, artifactsOf ArtifactsOf, stdlib StdlibResolver, verbose bool) ([]SymlinkEntry, error) {
	if stdlib != nil {
		resolved, hadStdlib, err := ResolveStdlibSpecs(stdlib, specs, plat.Extensions["julia_version"])
		if err != nil {
			return nil, err
		}
		specs = resolved
		if ForceRedownload(hadStdlib) && verbose {
			log.Printf("depinstall: stdlib-provided dependency resolved for %s, forcing source/artifact re-download with julia_version=nil", platform.Triplet(plat))
		}
	}

	collapsed := CollapseSpecs(specs)
	closure, err := ResolveClosure(graph, collapsed)
	if err != nil {
		return nil, err
	}
	if err := registerProject(p, plat, closure); err != nil {
		return nil, err
	}

	destDir := p.DestDir(plat)
	var allEntries []SymlinkEntry
	for _, spec := range closure {
		hashes, err := artifactsOf(spec)
		if err != nil {
			return nil, err
		}
		for _, hash := range hashes {
			artifactDest := p.ArtifactDir(plat, hash)
			if err := in.CopyArtifact(hash, artifactDest); err != nil {
				return nil, err
			}
			entries, err := InstallSymlinkTree(artifactDest, destDir, verbose)
			if err != nil {
				return nil, err
			}
			allEntries = append(allEntries, entries...)
		}
	}

	if err := SaveManifest(p.SymlinkManifestPath(plat), allEntries); err != nil {
		return nil, err
	}
	return allEntries, nil
}

// CleanupDeps reverses InstallDeps for plat, using the manifest recorded
// under metadir. Per spec.md §9's open question on cleanup_dependencies
// (its readdir(prefix) loop variable goes unused, the constant "destdir"
// is what's actually cleaned): this module treats cleanup as operating on
// the single target destdir named by plat, not on every triplet directory
// under the prefix.
func CleanupDeps(p prefix.Prefix, plat platform.Platform) error {
	manifestPath := p.SymlinkManifestPath(plat)
	entries, err := LoadManifest(manifestPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := Unsymlink(entries); err != nil {
		return err
	}
	return os.Remove(manifestPath)
}
