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

// Package toolchain implements the ToolchainEmitter (C7): rendering the
// CMake, Meson, Bazel and Cargo files a build-system invocation needs to
// find the right compiler, linker, and sysroot for a (host, target) pair.
package toolchain

import (
	"fmt"
	"path/filepath"

	"github.com/ccforge/sandbox/platform"
)

// Role distinguishes the "host" file (describes the machine doing the
// building, no CMAKE_SYSTEM_* lines) from the "target" file (adds
// CMAKE_SYSTEM_*, which is CMake's own signal that a build is a cross build).
type Role string

const (
	RoleHost   Role = "host"
	RoleTarget Role = "target"
)

// Toolset is the compiler family a set of emitted files pins.
type Toolset string

const (
	GCC   Toolset = "gcc"
	Clang Toolset = "clang"
)

// PreferredToolset returns the toolset a bare role_<aat>.<frontend> symlink
// should point at for plat: Clang on FreeBSD/MacOS, GCC everywhere else.
func PreferredToolset(plat platform.Platform) Toolset {
	if plat.OS == platform.FreeBSD || plat.OS == platform.MacOS {
		return Clang
	}
	return GCC
}

// ToolBinDir is /opt/bin/<triplet>, the directory tool binaries for plat's
// compiler build live under.
func ToolBinDir(plat platform.Platform) string {
	return "/opt/bin/" + platform.Triplet(plat)
}

// ToolPath is /opt/bin/<triplet>/<aatriplet>-<tool>.
func ToolPath(plat platform.Platform, tool string) string {
	return filepath.Join(ToolBinDir(plat), platform.AAtriplet(plat)+"-"+tool)
}

// SysrootDir is /opt/<aatriplet>/<aatriplet>/sys-root.
func SysrootDir(plat platform.Platform) string {
	aa := platform.AAtriplet(plat)
	return fmt.Sprintf("/opt/%s/%s/sys-root", aa, aa)
}

// LinkerPath resolves the linker binary for toolset per spec.md §4.7: GCC
// toolchains always use the aatriplet-prefixed "ld"; Clang toolchains use
// the same unless opts.ClangUseLLD is set, in which case "ld.lld" (or
// "ld64.lld" on MacOS) — neither of which is aatriplet-prefixed, since lld
// is a single cross-capable binary.
func LinkerPath(plat platform.Platform, toolset Toolset, clangUseLLD bool) string {
	if toolset == GCC || !clangUseLLD {
		return ToolPath(plat, "ld")
	}
	if plat.OS == platform.MacOS {
		return filepath.Join(ToolBinDir(plat), "ld64.lld")
	}
	return filepath.Join(ToolBinDir(plat), "ld.lld")
}

// CCacheWrap returns the compiler launcher ("ccache") when useCcache is set
// and "" otherwise; emitters pass it through CMAKE_<LANG>_COMPILER_LAUNCHER
// (or Meson's *_launcher) instead of mutating $CC directly.
func CCacheWrap(useCcache bool) string {
	if useCcache {
		return "ccache"
	}
	return ""
}

// Options carries the facts an emitted file needs that aren't derivable
// from the platform values alone.
type Options struct {
	// HostUnameRelease is the `uname -r` string CMAKE_HOST_SYSTEM_VERSION
	// is set to. Passed in rather than shelled out to at emit time, so
	// emission stays a pure, deterministic function of its arguments
	// (spec.md §8: "Package determinism").
	HostUnameRelease string
	// ClangUseLLD selects ld.lld/ld64.lld over the aatriplet ld when the
	// toolset is Clang.
	ClangUseLLD bool
	// UseCcache routes CMake compiler invocations through ccache.
	UseCcache bool
}
