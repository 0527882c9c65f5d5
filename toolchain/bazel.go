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

	"github.com/bazelbuild/bazel-gazelle/label"
	"github.com/bazelbuild/bazel-gazelle/rule"
	bzl "github.com/bazelbuild/buildtools/build"

	"github.com/ccforge/sandbox/platform"
)

var platformsOSToken = map[platform.OS]string{
	platform.Linux:   "linux",
	platform.MacOS:   "osx",
	platform.FreeBSD: "freebsd",
	platform.Windows: "windows",
}

var platformsCPUToken = map[platform.Arch]string{
	platform.X86_64:     "x86_64",
	platform.I686:       "x86_32",
	platform.Armv7l:     "arm",
	platform.Aarch64:    "aarch64",
	platform.Powerpc64le: "ppc",
}

func constraintLabels(plat platform.Platform) []string {
	return []string{
		label.New("platforms", "os", platformsOSToken[plat.OS]).String(),
		label.New("platforms", "cpu", platformsCPUToken[plat.Arch]).String(),
	}
}

// EmitBazel renders a standalone .bzl-adjacent source defining a
// cc_toolchain and its registering toolchain() rule for role (spec.md
// §4.7), built as a *build.File AST via buildtools/rule and printed with
// build.Format rather than assembled by string concatenation -- the same
// idiom used for BUILD.bazel generation elsewhere in this code's lineage.
func EmitBazel(host, target platform.Platform, role Role, toolset Toolset, opts Options) []byte {
	describing := host
	if role == RoleTarget {
		describing = target
	}
	aat := platform.AAtriplet(describing)
	toolchainName := fmt.Sprintf("%s_%s_cc_toolchain", aat, toolset)
	defName := toolchainName + "_def"
	toolBin := ToolBinDir(describing)

	f := rule.EmptyFile("", "")

	cc := rule.NewRule("cc_toolchain", toolchainName)
	cc.SetAttr("toolchain_identifier", toolchainName)
	cc.SetAttr("all_files", fmt.Sprintf("%s:all", toolBin))
	cc.SetAttr("compiler_files", fmt.Sprintf("%s:all", toolBin))
	cc.SetAttr("linker_files", fmt.Sprintf("%s:all", toolBin))
	cc.SetAttr("ar_files", ToolPath(describing, "ar"))
	cc.SetAttr("as_files", ToolPath(describing, "as"))
	cc.SetAttr("dwp_files", "")
	cc.SetAttr("strip_files", ToolPath(describing, "strip"))
	cc.SetAttr("supports_param_files", false)
	cc.SetAttr("toolchain_config", ":"+toolchainName+"_config")
	includeDirs := []string{
		SysrootDir(describing) + "/usr/include",
		SysrootDir(describing) + "/usr/include/c++/v1",
		fmt.Sprintf("%s/usr/include/%s/c++", SysrootDir(describing), aat),
	}
	cc.SetAttr("cxx_builtin_include_directories", rule.SortedStrings(includeDirs))
	cc.Insert(f)

	tc := rule.NewRule("toolchain", defName)
	tc.SetAttr("exec_compatible_with", rule.SortedStrings(constraintLabels(host)))
	tc.SetAttr("target_compatible_with", rule.SortedStrings(constraintLabels(target)))
	tc.SetAttr("toolchain", label.New("", "", toolchainName).String())
	tc.SetAttr("toolchain_type", "@bazel_tools//tools/cpp:toolchain_type")
	tc.Insert(f)

	return bzl.Format(f.File)
}
