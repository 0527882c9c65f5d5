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

// cmakeProcessor maps an Arch to the token CMAKE_{HOST_,}SYSTEM_PROCESSOR
// expects, which CMake itself sources from `uname -m` and doesn't normalise
// the way this module's cpu_family mapping (Meson) does.
func cmakeProcessor(a platform.Arch) string {
	if a == platform.Armv7l {
		return "armv7l"
	}
	return string(a)
}

func cmakeSystemName(os platform.OS) string {
	switch os {
	case platform.MacOS:
		return "Darwin"
	case platform.FreeBSD:
		return "FreeBSD"
	case platform.Windows:
		return "Windows"
	default:
		return "Linux"
	}
}

// EmitCMake renders a CMake toolchain file for role describing host/target
// under toolset (spec.md §4.7). role determines whether CMAKE_SYSTEM_* is
// present: its presence is CMake's own cross-compiling signal, so it must
// never appear on a host file even when host != target.
func EmitCMake(host, target platform.Platform, role Role, toolset Toolset, opts Options) string {
	var b strings.Builder
	describing := host
	if role == RoleTarget {
		describing = target
	}

	fmt.Fprintf(&b, "set(CMAKE_HOST_SYSTEM_NAME %s)\n", cmakeSystemName(host.OS))
	fmt.Fprintf(&b, "set(CMAKE_HOST_SYSTEM_PROCESSOR %s)\n", cmakeProcessor(host.Arch))
	fmt.Fprintf(&b, "set(CMAKE_HOST_SYSTEM_VERSION %s)\n", opts.HostUnameRelease)

	if role == RoleTarget {
		fmt.Fprintf(&b, "set(CMAKE_SYSTEM_NAME %s)\n", cmakeSystemName(target.OS))
		fmt.Fprintf(&b, "set(CMAKE_SYSTEM_PROCESSOR %s)\n", cmakeProcessor(target.Arch))
	}

	sysroot := SysrootDir(describing)
	fmt.Fprintf(&b, "set(CMAKE_SYSROOT %s)\n", sysroot)

	if describing.OS == platform.MacOS {
		fmt.Fprintf(&b, "set(CMAKE_SYSTEM_FRAMEWORK_PATH %s/Frameworks %s/PrivateFrameworks)\n", sysroot, sysroot)
		fmt.Fprintln(&b, "set(DARWIN_MAJOR_VERSION 20)")
		fmt.Fprintln(&b, "set(DARWIN_MINOR_VERSION 0)")
	}

	cc := ToolPath(describing, "gcc")
	cxx := ToolPath(describing, "g++")
	if toolset == Clang {
		cc = ToolPath(describing, "clang")
		cxx = ToolPath(describing, "clang++")
	}
	fmt.Fprintf(&b, "set(CMAKE_C_COMPILER %s)\n", cc)
	fmt.Fprintf(&b, "set(CMAKE_CXX_COMPILER %s)\n", cxx)
	fmt.Fprintf(&b, "set(CMAKE_Fortran_COMPILER %s)\n", ToolPath(describing, "gfortran"))
	fmt.Fprintf(&b, "set(CMAKE_LINKER %s)\n", LinkerPath(describing, toolset, opts.ClangUseLLD))
	fmt.Fprintf(&b, "set(CMAKE_AR %s)\n", ToolPath(describing, "ar"))
	fmt.Fprintf(&b, "set(CMAKE_NM %s)\n", ToolPath(describing, "nm"))
	fmt.Fprintf(&b, "set(CMAKE_RANLIB %s)\n", ToolPath(describing, "ranlib"))
	fmt.Fprintf(&b, "set(CMAKE_OBJCOPY %s)\n", ToolPath(describing, "objcopy"))

	if launcher := CCacheWrap(opts.UseCcache); launcher != "" {
		fmt.Fprintf(&b, "set(CMAKE_C_COMPILER_LAUNCHER %s)\n", launcher)
		fmt.Fprintf(&b, "set(CMAKE_CXX_COMPILER_LAUNCHER %s)\n", launcher)
	}

	return b.String()
}
