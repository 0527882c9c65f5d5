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
	"strings"

	"github.com/ccforge/sandbox/platform"
)

// cpuFamily maps an Arch to the token Meson's cpu_family expects.
func cpuFamily(a platform.Arch) string {
	switch a {
	case platform.Powerpc64le:
		return "ppc64"
	case platform.I686:
		return "x86"
	case platform.Armv7l, platform.Aarch64:
		return "arm"
	default:
		return string(a)
	}
}

// NeedsExeWrapper reports whether Meson must be told to use an exe wrapper
// (e.g. qemu-user) to run target-built binaries during the build. Only the
// musl/x86_64 host can run target binaries directly, and only for
// i686-linux-gnu and x86_64-linux-{gnu,musl} targets (spec.md §4.7).
func NeedsExeWrapper(host, target platform.Platform) bool {
	if host.OS != platform.Linux || host.Arch != platform.X86_64 || host.Libc != platform.Musl {
		return true
	}
	if target.OS != platform.Linux {
		return true
	}
	switch target.Arch {
	case platform.I686:
		return target.Libc != platform.Glibc
	case platform.X86_64:
		return target.Libc != platform.Glibc && target.Libc != platform.Musl
	default:
		return true
	}
}

func mesonSystem(os platform.OS) string {
	switch os {
	case platform.MacOS:
		return "darwin"
	default:
		return string(os)
	}
}

// EmitMeson renders a Meson cross/native file for role (spec.md §4.7).
func EmitMeson(host, target platform.Platform, role Role, toolset Toolset, opts Options) string {
	var b strings.Builder
	describing := host
	if role == RoleTarget {
		describing = target
	}

	cc := ToolPath(describing, "gcc")
	cxx := ToolPath(describing, "g++")
	if toolset == Clang {
		cc = ToolPath(describing, "clang")
		cxx = ToolPath(describing, "clang++")
	}

	fmt.Fprintln(&b, "[binaries]")
	fmt.Fprintf(&b, "c = '%s'\n", cc)
	fmt.Fprintf(&b, "cpp = '%s'\n", cxx)
	fmt.Fprintf(&b, "fortran = '%s'\n", ToolPath(describing, "gfortran"))
	fmt.Fprintf(&b, "ar = '%s'\n", ToolPath(describing, "ar"))
	fmt.Fprintf(&b, "strip = '%s'\n", ToolPath(describing, "strip"))
	fmt.Fprintf(&b, "ld = '%s'\n", LinkerPath(describing, toolset, opts.ClangUseLLD))
	if launcher := CCacheWrap(opts.UseCcache); launcher != "" {
		fmt.Fprintf(&b, "c_launcher = '%s'\n", launcher)
		fmt.Fprintf(&b, "cpp_launcher = '%s'\n", launcher)
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "[built-in options]")
	fmt.Fprintf(&b, "c_args = ['--sysroot=%s']\n", SysrootDir(describing))
	fmt.Fprintf(&b, "cpp_args = ['--sysroot=%s']\n", SysrootDir(describing))
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "[properties]")
	fmt.Fprintf(&b, "sys_root = '%s'\n", SysrootDir(describing))
	if role == RoleTarget {
		needsWrapper := "false"
		if NeedsExeWrapper(host, target) {
			needsWrapper = "true"
		}
		fmt.Fprintf(&b, "needs_exe_wrapper = %s\n", needsWrapper)
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "[build_machine]")
	fmt.Fprintf(&b, "system = '%s'\n", mesonSystem(host.OS))
	fmt.Fprintf(&b, "cpu_family = '%s'\n", cpuFamily(host.Arch))
	fmt.Fprintf(&b, "cpu = '%s'\n", host.Arch)
	fmt.Fprintln(&b, "endian = 'little'")
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "[host_machine]")
	fmt.Fprintf(&b, "system = '%s'\n", mesonSystem(describing.OS))
	fmt.Fprintf(&b, "cpu_family = '%s'\n", cpuFamily(describing.Arch))
	fmt.Fprintf(&b, "cpu = '%s'\n", describing.Arch)
	fmt.Fprintln(&b, "endian = 'little'")

	return b.String()
}
