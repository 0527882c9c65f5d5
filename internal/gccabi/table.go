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

// Package gccabi is the static source of truth mapping GCC (and LLVM)
// build versions to the ABI they produce: the libgfortran version, the
// libstdc++ SONAME minor, and the cxxstring ABI (cxx03 vs cxx11). Both the
// Platform ABI docs (C1) and the shard selector (C3) read from this single
// table, per spec.md §3's "GCCBuild/LLVMBuild... static table is the source
// of truth for ABI-to-toolchain mapping".
package gccabi

import (
	"cmp"
	"fmt"

	"github.com/ccforge/sandbox/platform"
)

// Version is a (major, minor, patch) tuple compared by L1 distance in
// selectGCC's nearest-preferred-version search.
type Version struct {
	Major, Minor, Patch int
}

// ParseVersion parses the "vMAJOR.MINOR.PATCH" shard-version format used
// throughout the catalog. Selection needs numeric comparison here: a
// lexicographic string compare would rank "v11.0.0" below "v4.0.0".
func ParseVersion(s string) (Version, error) {
	var v Version
	n, err := fmt.Sscanf(s, "v%d.%d.%d", &v.Major, &v.Minor, &v.Patch)
	if err != nil || n != 3 {
		return Version{}, fmt.Errorf("gccabi: malformed version %q", s)
	}
	return v, nil
}

// Compare orders Versions lexicographically by (major, minor, patch).
func Compare(a, b Version) int {
	if d := cmp.Compare(a.Major, b.Major); d != 0 {
		return d
	}
	if d := cmp.Compare(a.Minor, b.Minor); d != 0 {
		return d
	}
	return cmp.Compare(a.Patch, b.Patch)
}

// Distance is the L1 (Manhattan) distance between two Versions, used to pick
// the build closest to a caller's preferred version among survivors.
func Distance(a, b Version) int {
	return absInt(a.Major-b.Major) + absInt(a.Minor-b.Minor) + absInt(a.Patch-b.Patch)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// GCCBuild records the ABI a particular GCC release produces.
type GCCBuild struct {
	Version Version
	ABI     platform.CompilerABI
}

func intp(v int) *int                       { return &v }
func cxxp(v platform.CxxstringABI) *platform.CxxstringABI { return &v }

// GCCBuilds enumerates the available GCC builds v4.8.5 through v11.1.0 with
// the libgfortran/libstdc++/cxxstring ABI each produces. This is the
// complete static table; selectGCC never sees a build outside this list.
var GCCBuilds = []GCCBuild{
	{Version: Version{4, 8, 5}, ABI: platform.CompilerABI{LibgfortranVersion: intp(3), LibstdcxxVersion: intp(18), CxxstringABI: cxxp(platform.Cxx03)}},
	{Version: Version{5, 2, 0}, ABI: platform.CompilerABI{LibgfortranVersion: intp(3), LibstdcxxVersion: intp(19), CxxstringABI: cxxp(platform.Cxx03)}},
	{Version: Version{6, 1, 0}, ABI: platform.CompilerABI{LibgfortranVersion: intp(3), LibstdcxxVersion: intp(20), CxxstringABI: cxxp(platform.Cxx03)}},
	{Version: Version{7, 1, 0}, ABI: platform.CompilerABI{LibgfortranVersion: intp(4), LibstdcxxVersion: intp(21), CxxstringABI: cxxp(platform.Cxx11)}},
	{Version: Version{8, 1, 0}, ABI: platform.CompilerABI{LibgfortranVersion: intp(5), LibstdcxxVersion: intp(22), CxxstringABI: cxxp(platform.Cxx11)}},
	{Version: Version{9, 1, 0}, ABI: platform.CompilerABI{LibgfortranVersion: intp(5), LibstdcxxVersion: intp(23), CxxstringABI: cxxp(platform.Cxx11)}},
	{Version: Version{10, 2, 0}, ABI: platform.CompilerABI{LibgfortranVersion: intp(5), LibstdcxxVersion: intp(24), CxxstringABI: cxxp(platform.Cxx11)}},
	{Version: Version{11, 1, 0}, ABI: platform.CompilerABI{LibgfortranVersion: intp(5), LibstdcxxVersion: intp(25), CxxstringABI: cxxp(platform.Cxx11)}},
}

// MinVersionForMarch gives the minimum GCC version that introduced support
// for a given microarchitecture tag, per spec.md §4.3:
//   avx/avx2 >= 4.9, avx512 >= 6.1, thunderx2 >= 7.1, arm-v8 SIMD
//   (neon/vfp4/carmel) >= 8.1.
var MinVersionForMarch = map[string]Version{
	"avx":       {4, 9, 0},
	"avx2":      {4, 9, 0},
	"avx512":    {6, 1, 0},
	"thunderx2": {7, 1, 0},
	"neon":      {8, 1, 0},
	"vfp4":      {8, 1, 0},
	"carmel":    {8, 1, 0},
}
