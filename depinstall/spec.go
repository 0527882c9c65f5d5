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

// Package depinstall implements the DepInstaller (C6): resolving the
// artifact-dependency closure, copying each dependency's tree into the
// per-build prefix, and symlink-treeing it into destdir.
package depinstall

import (
	"strings"

	"github.com/ccforge/sandbox/internal/collections"
)

// PackageSpec identifies one requested artifact dependency. Version and
// TreeHash are both optional on input; CollapseSpecs resolves a spec that
// carries both into "tree hash wins" form (spec.md §4.6 step 1).
type PackageSpec struct {
	Name     string
	Version  string // empty if unset
	TreeHash string // empty if unset
}

// collapsed resolves s into hash-pinned form when possible.
func (s PackageSpec) collapsed() PackageSpec {
	if s.TreeHash != "" {
		return PackageSpec{Name: s.Name, TreeHash: s.TreeHash}
	}
	return s
}

// CollapseSpecs applies "tree hash wins" to every spec that carries both a
// version and a tree hash.
func CollapseSpecs(specs []PackageSpec) []PackageSpec {
	out := make([]PackageSpec, len(specs))
	for i, s := range specs {
		out[i] = s.collapsed()
	}
	return out
}

// IsJLL reports whether name follows the "_jll" artifact-dependency naming
// convention (spec.md Glossary: JLL is an opaque tag, not otherwise
// interpreted).
func IsJLL(name string) bool {
	return strings.HasSuffix(name, "_jll")
}

// DependencyGraph resolves a package's direct dependencies, used to compute
// the full _jll closure. It is satisfied by the external registry client
// (an out-of-scope collaborator per spec.md §1).
type DependencyGraph interface {
	Dependencies(spec PackageSpec) ([]PackageSpec, error)
}

// ResolveClosure repeatedly unions any dependency whose name ends "_jll"
// into the working set until fixpoint (spec.md §4.6 step 2).
func ResolveClosure(graph DependencyGraph, roots []PackageSpec) ([]PackageSpec, error) {
	seen := collections.Set[string]{}
	var closure []PackageSpec
	work := append([]PackageSpec{}, roots...)

	for len(work) > 0 {
		spec := work[0]
		work = work[1:]
		key := spec.Name + "@" + spec.TreeHash + spec.Version
		if seen.Contains(key) {
			continue
		}
		seen.Add(key)
		closure = append(closure, spec)

		deps, err := graph.Dependencies(spec)
		if err != nil {
			return nil, err
		}
		for _, d := range deps {
			if IsJLL(d.Name) {
				work = append(work, d.collapsed())
			}
		}
	}
	return closure, nil
}
