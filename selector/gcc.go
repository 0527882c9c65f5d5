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

// Package selector implements the compiler-shard selection engine (C3):
// given a target platform and a requested compiler set, it chooses the
// minimal set of CompilerShards that must be mounted.
package selector

import (
	"fmt"

	"github.com/ccforge/sandbox/catalog"
	"github.com/ccforge/sandbox/internal/errs"
	"github.com/ccforge/sandbox/internal/gccabi"
	"github.com/ccforge/sandbox/platform"
)

// SelectGCC is pure (no I/O): it takes the catalog's available builds as a
// parameter so it is directly table-testable without a real ShardCatalog.
// It picks, among GCC builds satisfying target's ABI constraints, the one
// whose (major,minor,patch) has minimum L1 distance from preferred.
func SelectGCC(target platform.Platform, preferred gccabi.Version, available []gccabi.GCCBuild) (gccabi.GCCBuild, error) {
	survivors := make([]gccabi.GCCBuild, 0, len(available))
	for _, build := range available {
		if !satisfiesABI(target, build) {
			continue
		}
		survivors = append(survivors, build)
	}
	if len(survivors) == 0 {
		return gccabi.GCCBuild{}, fmt.Errorf("%w: no GCC build satisfies target %s", errs.ErrImpossibleABI, platform.Triplet(target))
	}

	best := survivors[0]
	bestDist := gccabi.Distance(best.Version, preferred)
	for _, b := range survivors[1:] {
		if d := gccabi.Distance(b.Version, preferred); d < bestDist {
			best, bestDist = b, d
		}
	}
	return best, nil
}

func satisfiesABI(target platform.Platform, build gccabi.GCCBuild) bool {
	if v := target.ABI.LibgfortranVersion; v != nil {
		if build.ABI.LibgfortranVersion == nil || *build.ABI.LibgfortranVersion != *v {
			return false
		}
	}
	if v := target.ABI.LibstdcxxVersion; v != nil {
		// A binary built against an older libstdc++ runs on a newer one but
		// not vice versa: require build.libstdcxx <= target.libstdcxx.
		if build.ABI.LibstdcxxVersion == nil || *build.ABI.LibstdcxxVersion > *v {
			return false
		}
	}
	if target.ABI.CxxstringABI != nil && *target.ABI.CxxstringABI == platform.Cxx11 {
		if gccabi.Compare(build.Version, gccabi.Version{Major: 5}) < 0 {
			return false
		}
	}
	if march, ok := target.March(); ok {
		if minVersion, tracked := gccabi.MinVersionForMarch[march]; tracked {
			if gccabi.Compare(build.Version, minVersion) < 0 {
				return false
			}
		}
	}
	return true
}

// catalogBuildsFor adapts a ShardCatalog's registered GCC builds (discovered
// for both target and host) into the []gccabi.GCCBuild survivors list that
// SelectGCC filters; a build only counts if GCCBootstrap shards of that
// version targeting both target and host are present (spec.md §4.3: "filter to
// builds present in the catalog for both (target) and (host)").
func catalogBuildsFor(cat *catalog.Catalog, host, target platform.Platform) []gccabi.GCCBuild {
	out := make([]gccabi.GCCBuild, 0, len(gccabi.GCCBuilds))
	for _, build := range gccabi.GCCBuilds {
		version := fmt.Sprintf("v%d.%d.%d", build.Version.Major, build.Version.Minor, build.Version.Patch)
		if cat.Has(catalog.Query{Name: catalog.GCCBootstrap, Version: version, Host: host, Target: &target}) &&
			cat.Has(catalog.Query{Name: catalog.GCCBootstrap, Version: version, Host: host, Target: &host}) {
			out = append(out, build)
		}
	}
	return out
}
