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
	"fmt"

	"github.com/ccforge/sandbox/internal/errs"
)

// StdlibResolver looks up the concrete tree hash for a stdlib-provided JLL
// dependency given the target's julia_version, bypassing the normal
// resolver (which would otherwise collapse distinct "+buildN" suffixes) --
// spec.md §4.6's "stdlib-JLL subtlety".
type StdlibResolver interface {
	ResolveStdlibTreeHash(packageName, juliaVersion string) (string, error)
}

// ResolveStdlibSpecs resolves every spec in specs that carries no tree hash
// (it "came in as a stdlib") against juliaVersion, returning specs with
// TreeHash populated. Specs that already carry a tree hash pass through
// unchanged.
func ResolveStdlibSpecs(resolver StdlibResolver, specs []PackageSpec, juliaVersion string) ([]PackageSpec, bool, error) {
	out := make([]PackageSpec, len(specs))
	var hadStdlib bool
	for i, s := range specs {
		if s.TreeHash != "" {
			out[i] = s
			continue
		}
		hash, err := resolver.ResolveStdlibTreeHash(s.Name, juliaVersion)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %s: %v", errs.ErrStdlibResolutionFailed, s.Name, err)
		}
		out[i] = PackageSpec{Name: s.Name, TreeHash: hash}
		hadStdlib = true
	}
	return out, hadStdlib, nil
}

// ForceRedownload reports whether, given hadStdlib from ResolveStdlibSpecs,
// sources and artifacts should be re-fetched with julia_version=nil --
// spec.md §4.6: "When such entries exist, force re-download of
// sources/artifacts with julia_version=nil."
func ForceRedownload(hadStdlib bool) bool {
	return hadStdlib
}
