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

package selector

import (
	"fmt"

	"github.com/ccforge/sandbox/catalog"
	"github.com/ccforge/sandbox/internal/collections"
	"github.com/ccforge/sandbox/internal/gccabi"
	"github.com/ccforge/sandbox/platform"
)

// Compiler is one of the compiler families a build may request.
type Compiler string

const (
	C    Compiler = "c"
	Rust Compiler = "rust"
	GoLang Compiler = "go"
)

// hostPlatform is the universal host reference: Linux/x86_64/musl, except
// Rust shards which are hosted on Linux/x86_64/glibc ("Rust is broken on
// musl" -- do not change without evidence, per spec.md §4.3).
var hostPlatform = platform.New(platform.Linux, platform.X86_64).WithLibc(platform.Musl)
var rustHostPlatform = platform.New(platform.Linux, platform.X86_64).WithLibc(platform.Glibc)

// Request bundles the inputs to Select.
type Request struct {
	Target        platform.Platform
	Compilers     collections.Set[Compiler]
	PreferredGCC  gccabi.Version
	PreferredLLVM gccabi.Version
	ArchiveKind   catalog.ArchiveKind
	// Bootstrap, if non-empty, switches Select into bootstrap mode: for each
	// tag it emits the newest-version shard of that name for every
	// supported target, instead of running the non-bootstrap algorithm.
	Bootstrap []catalog.ShardName
}

// Select runs the non-bootstrap or bootstrap selection algorithm (spec.md
// §4.3) and returns the ordered list of CompilerShards that must be mounted.
// Selecting for an empty Compilers set returns exactly Rootfs + target
// PlatformSupport (the selector-monotonicity property in spec.md §8):
// adding a compiler to Compilers never removes a shard already selected.
func Select(cat *catalog.Catalog, req Request) ([]catalog.CompilerShard, error) {
	if len(req.Bootstrap) > 0 {
		return selectBootstrap(cat, req)
	}

	var shards []catalog.CompilerShard
	rootfs, err := resolveLatest(cat, catalog.Rootfs, hostPlatform, nil)
	if err == nil {
		shards = append(shards, rootfs)
	}
	platformSupport, err := resolveLatest(cat, catalog.PlatformSupport, hostPlatform, &req.Target)
	if err != nil {
		return nil, err
	}
	shards = append(shards, platformSupport)

	if req.Compilers.Contains(C) {
		gccBuild, err := SelectGCC(req.Target, req.PreferredGCC, catalogBuildsFor(cat, hostPlatform, req.Target))
		if err != nil {
			return nil, err
		}
		gccVersion := fmt.Sprintf("v%d.%d.%d", gccBuild.Version.Major, gccBuild.Version.Minor, gccBuild.Version.Patch)
		gccShard, err := resolveLatestVersion(cat, catalog.GCCBootstrap, gccVersion, hostPlatform, &req.Target)
		if err != nil {
			return nil, err
		}
		shards = append(shards, gccShard)

		llvmShard, err := resolveLatest(cat, catalog.LLVMBootstrap, hostPlatform, nil)
		if err == nil {
			shards = append(shards, llvmShard)
		}

		if req.Target.IsCrossCompiling(hostPlatform) {
			hostSupport, err := resolveLatest(cat, catalog.PlatformSupport, hostPlatform, &hostPlatform)
			if err == nil {
				shards = append(shards, hostSupport)
			}
			hostGCC, err := resolveLatestVersion(cat, catalog.GCCBootstrap, gccVersion, hostPlatform, &hostPlatform)
			if err == nil {
				shards = append(shards, hostGCC)
			}
		}
	}

	if req.Compilers.Contains(Rust) {
		rustBase, err := resolveLatest(cat, catalog.RustBase, rustHostPlatform, nil)
		if err == nil {
			shards = append(shards, rustBase)
		}
		rustToolchain, err := resolveLatest(cat, catalog.RustToolchain, rustHostPlatform, &req.Target)
		if err != nil {
			return nil, err
		}
		shards = append(shards, rustToolchain)

		if req.Target.IsCrossCompiling(rustHostPlatform) {
			selfTargeted, err := resolveLatest(cat, catalog.RustToolchain, rustHostPlatform, &rustHostPlatform)
			if err == nil {
				shards = append(shards, selfTargeted)
			}
			hostSupport, err := resolveLatest(cat, catalog.PlatformSupport, rustHostPlatform, &rustHostPlatform)
			if err == nil {
				shards = append(shards, hostSupport)
			}
			hostGCC, err := resolveLatest(cat, catalog.GCCBootstrap, rustHostPlatform, &rustHostPlatform)
			if err == nil {
				shards = append(shards, hostGCC)
			}
		}
		if req.Target.IsCrossCompiling(hostPlatform) {
			muslTargeted, err := resolveLatest(cat, catalog.RustToolchain, rustHostPlatform, &hostPlatform)
			if err == nil {
				shards = append(shards, muslTargeted)
			}
		}
	}

	if req.Compilers.Contains(GoLang) {
		goShard, err := resolveLatest(cat, catalog.Go, hostPlatform, nil)
		if err == nil {
			shards = append(shards, goShard)
		}
	}

	return shards, nil
}

// selectBootstrap implements the bootstrap-mode branch of spec.md §4.3: for
// each tag in req.Bootstrap, emit the newest-version shard of that name,
// potentially for every supported target present in the catalog.
func selectBootstrap(cat *catalog.Catalog, req Request) ([]catalog.CompilerShard, error) {
	all, err := cat.All()
	if err != nil {
		return nil, err
	}
	tags := collections.ToSet(req.Bootstrap)
	byNameTarget := map[string]catalog.CompilerShard{}
	for _, s := range all {
		if !tags.Contains(s.Name) {
			continue
		}
		key := string(s.Name)
		if s.Target != nil {
			key += "@" + platform.Triplet(*s.Target)
		}
		existing, ok := byNameTarget[key]
		if !ok || isNewerVersion(s.Version, existing.Version) {
			byNameTarget[key] = s
		}
	}
	result := make([]catalog.CompilerShard, 0, len(byNameTarget))
	for _, s := range byNameTarget {
		result = append(result, s)
	}
	return result, nil
}

// isNewerVersion orders "vMAJOR.MINOR.PATCH" shard versions numerically via
// gccabi.ParseVersion/Compare (a date-stamped tag such as "v2024.01.01"
// parses too, as 2024.1.1); versions that don't parse fall back to a plain
// string compare, which is the best available ordering for an opaque tag.
func isNewerVersion(candidate, current string) bool {
	cv, cErr := gccabi.ParseVersion(candidate)
	pv, pErr := gccabi.ParseVersion(current)
	if cErr == nil && pErr == nil {
		return gccabi.Compare(cv, pv) > 0
	}
	return candidate > current
}

func resolveLatest(cat *catalog.Catalog, name catalog.ShardName, host platform.Platform, target *platform.Platform) (catalog.CompilerShard, error) {
	all, err := cat.All()
	if err != nil {
		return catalog.CompilerShard{}, err
	}
	var best *catalog.CompilerShard
	for i := range all {
		s := &all[i]
		if s.Name != name || !platform.Match(s.Host, host) {
			continue
		}
		if (s.Target == nil) != (target == nil) {
			continue
		}
		if s.Target != nil && !platform.Match(*s.Target, *target) {
			continue
		}
		if best == nil || isNewerVersion(s.Version, best.Version) {
			best = s
		}
	}
	if best == nil {
		return catalog.CompilerShard{}, fmt.Errorf("no %s shard registered for host=%s", name, platform.Triplet(host))
	}
	return *best, nil
}

func resolveLatestVersion(cat *catalog.Catalog, name catalog.ShardName, version string, host platform.Platform, target *platform.Platform) (catalog.CompilerShard, error) {
	q := catalog.Query{Name: name, Version: version, Host: host, Target: target}
	return cat.Resolve(q)
}
