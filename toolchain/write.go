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

	"github.com/ccforge/sandbox/platform"
)

var allToolsets = []Toolset{GCC, Clang}

// WriteAll renders every (role, frontend, toolset) file for (host, target)
// into dir, plus a Cargo config.toml and the host_<aat>.{cmake,meson,bzl}
// (resp. target_…) symlinks pointing at the preferred toolset's variant
// (spec.md §4.7).
func WriteAll(dir string, host, target platform.Platform, opts Options) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	roles := []struct {
		role Role
		plat platform.Platform
	}{
		{RoleHost, host},
		{RoleTarget, target},
	}

	for _, r := range roles {
		aat := platform.AAtriplet(r.plat)
		for _, toolset := range allToolsets {
			if err := writeVariant(dir, r.role, aat, "cmake", toolset, EmitCMake(host, target, r.role, toolset, opts)); err != nil {
				return err
			}
			if err := writeVariant(dir, r.role, aat, "meson", toolset, EmitMeson(host, target, r.role, toolset, opts)); err != nil {
				return err
			}
			bzlBytes := EmitBazel(host, target, r.role, toolset, opts)
			if err := writeVariant(dir, r.role, aat, "bzl", toolset, string(bzlBytes)); err != nil {
				return err
			}
		}

		preferred := PreferredToolset(r.plat)
		for _, ext := range []string{"cmake", "meson", "bzl"} {
			if err := symlinkPreferred(dir, r.role, aat, ext, preferred); err != nil {
				return err
			}
		}
	}

	cargoPath := filepath.Join(dir, "config.toml")
	return os.WriteFile(cargoPath, []byte(EmitCargo([]platform.Platform{host, target})), 0o644)
}

func variantName(role Role, aat, ext string, toolset Toolset) string {
	return fmt.Sprintf("%s_%s.%s_%s", role, aat, ext, toolset)
}

func linkName(role Role, aat, ext string) string {
	return fmt.Sprintf("%s_%s.%s", role, aat, ext)
}

func writeVariant(dir string, role Role, aat, ext string, toolset Toolset, content string) error {
	path := filepath.Join(dir, variantName(role, aat, ext, toolset))
	return os.WriteFile(path, []byte(content), 0o644)
}

func symlinkPreferred(dir string, role Role, aat, ext string, preferred Toolset) error {
	link := filepath.Join(dir, linkName(role, aat, ext))
	target := variantName(role, aat, ext, preferred)
	if existing, err := os.Readlink(link); err == nil {
		if existing == target {
			return nil
		}
		if err := os.Remove(link); err != nil {
			return err
		}
	}
	return os.Symlink(target, link)
}
