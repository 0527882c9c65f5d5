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
	"sort"
	"strings"

	"github.com/ccforge/sandbox/platform"
)

// RustTargetTriple derives the Rust target triple string from p's
// ABI-agnostic base platform (spec.md §4.7: "keyed by the Rust target
// triple derived from the abi-agnostic platform").
func RustTargetTriple(p platform.Platform) string {
	base := p.AbiAgnostic()
	arch := string(base.Arch)
	if base.Arch == platform.Armv7l {
		arch = "armv7"
	}
	vendor := "unknown"
	switch base.OS {
	case platform.MacOS:
		return fmt.Sprintf("%s-apple-darwin", arch)
	case platform.FreeBSD:
		return fmt.Sprintf("%s-unknown-freebsd", arch)
	case platform.Windows:
		return fmt.Sprintf("%s-pc-windows-gnu", arch)
	}
	libc := "gnu"
	if base.Libc == platform.Musl {
		libc = "musl"
	}
	if base.CallABI == platform.EABIHF {
		libc += "eabihf"
	}
	return fmt.Sprintf("%s-%s-linux-%s", arch, vendor, libc)
}

// EmitCargo renders a Cargo config.toml pinning a linker for every platform
// in plats, keyed by RustTargetTriple (spec.md §4.7). Platforms are sorted
// by their target triple so output is deterministic (spec.md §8: "Package
// determinism").
func EmitCargo(plats []platform.Platform) string {
	type entry struct{ triple, linker string }
	entries := make([]entry, 0, len(plats))
	for _, p := range plats {
		entries = append(entries, entry{
			triple: RustTargetTriple(p),
			linker: fmt.Sprintf("%s-cc", platform.AAtriplet(p)),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].triple < entries[j].triple })

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "[target.%s]\n", e.triple)
		fmt.Fprintf(&b, "linker = \"%s\"\n\n", e.linker)
	}
	return b.String()
}
