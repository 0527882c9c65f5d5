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

package toolchain

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccforge/sandbox/catalog"
	"github.com/ccforge/sandbox/mount"
	"github.com/ccforge/sandbox/platform"
)

// compilerWrapperTools and binutilsWrapperTools name the tool suffixes
// BinaryBuilder wraps for a given compiler family: the compiler binaries
// get a --sysroot flag injected; the binutils alongside them are execed
// as-is.
var compilerWrapperTools = map[Toolset][]string{
	GCC:   {"gcc", "g++", "gfortran"},
	Clang: {"clang", "clang++"},
}

var binutilsWrapperTools = []string{"ld", "ar", "nm", "ranlib", "objcopy"}

// WriteWrappers emits one small executable shell script per (tool, target
// triplet) pair for every GCCBootstrap/LLVMBootstrap shard in shards,
// staged under dir at the same /opt/bin/<triplet>/<aatriplet>-<tool> path
// ToolPath computes for the in-sandbox layout (spec.md's supplemented
// "Wrapper scripts" domain note: BinaryBuilder emits tiny wrapper shell
// scripts per tool that set sysroot flags before exec-ing the real
// compiler). Shards that aren't a compiler build (PlatformSupport, Rootfs,
// Go, Rust) are skipped -- wrapping is only meaningful for the GCC/Clang
// tools CMake/Meson/Bazel pin by path.
func WriteWrappers(dir string, shards []catalog.CompilerShard) error {
	for _, shard := range shards {
		toolset, ok := wrapperToolsetFor(shard.Name)
		if !ok {
			continue
		}
		target := shard.Host
		if shard.Target != nil {
			target = *shard.Target
		}
		binDir := filepath.Join(dir, platform.Triplet(target))
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			return err
		}

		aat := platform.AAtriplet(target)
		realBinDir := filepath.Join(mount.MapTarget(shard), "bin")
		sysroot := SysrootDir(target)

		for _, tool := range compilerWrapperTools[toolset] {
			if err := writeWrapperScript(binDir, aat, tool, realBinDir, sysroot); err != nil {
				return err
			}
		}
		for _, tool := range binutilsWrapperTools {
			if err := writeWrapperScript(binDir, aat, tool, realBinDir, ""); err != nil {
				return err
			}
		}
	}
	return nil
}

func wrapperToolsetFor(name catalog.ShardName) (Toolset, bool) {
	switch name {
	case catalog.GCCBootstrap:
		return GCC, true
	case catalog.LLVMBootstrap:
		return Clang, true
	default:
		return "", false
	}
}

// writeWrapperScript writes the <binDir>/<aat>-<tool> script: it execs the
// real tool binary under realBinDir, passing --sysroot first when sysroot
// is non-empty (binutils tools don't take --sysroot, only the compiler
// drivers do).
func writeWrapperScript(binDir, aat, tool, realBinDir, sysroot string) error {
	realTool := filepath.Join(realBinDir, aat+"-"+tool)
	var b strings.Builder
	fmt.Fprintf(&b, "#!/bin/sh\n")
	fmt.Fprintf(&b, "# wrapper for %s-%s\n", aat, tool)
	if sysroot != "" {
		fmt.Fprintf(&b, "exec %q --sysroot=%q \"$@\"\n", realTool, sysroot)
	} else {
		fmt.Fprintf(&b, "exec %q \"$@\"\n", realTool)
	}
	path := filepath.Join(binDir, aat+"-"+tool)
	return os.WriteFile(path, []byte(b.String()), 0o755)
}
