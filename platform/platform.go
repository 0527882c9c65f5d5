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

// Package platform defines the normalized representation of a target
// platform used throughout the sandbox orchestrator: the OS/arch/ABI sum
// type, its canonical triplet string form, matching, and the expansion
// operations used by shard selection.
//
// Platform values are immutable; every derivation (AbiAgnostic,
// ReplaceLibgfortranVersion, ReplaceCxxstringABI, Extend...) returns a
// new value rather than mutating the receiver.
package platform

import (
	"fmt"
	"maps"
	"slices"

	"github.com/ccforge/sandbox/internal/errs"
)

// OS identifies the operating system family of a Platform.
type OS string

const (
	Linux   OS = "linux"
	MacOS   OS = "macos"
	FreeBSD OS = "freebsd"
	Windows OS = "windows"
	// Any is the wildcard OS used by AnyPlatform; it triplets to "any" and
	// behaves identically to Linux/x86_64/musl in every build-environment
	// context (spec: AnyPlatform aliasing).
	Any OS = "any"
)

// Arch identifies the CPU architecture of a Platform.
type Arch string

const (
	I686       Arch = "i686"
	X86_64     Arch = "x86_64"
	Armv7l     Arch = "armv7l"
	Aarch64    Arch = "aarch64"
	Powerpc64le Arch = "powerpc64le"
)

// Libc identifies the C runtime on Linux targets. Zero value means
// unspecified; Linux platforms require one to be set once fully resolved.
type Libc string

const (
	Glibc Libc = "glibc"
	Musl  Libc = "musl"
)

// CallABI is the calling-convention tag that applies only to armv7l-linux.
type CallABI string

const (
	EABIHF CallABI = "eabihf"
)

// CxxstringABI is the libstdc++ std::string ABI a compiler build targets.
type CxxstringABI string

const (
	Cxx03 CxxstringABI = "cxx03"
	Cxx11 CxxstringABI = "cxx11"
)

// CompilerABI carries the optional ABI facts that participate in a
// platform's non-aatriplet suffix (libgfortranN, cxxNN tags).
type CompilerABI struct {
	LibgfortranVersion *int
	LibstdcxxVersion   *int
	CxxstringABI       *CxxstringABI
}

func (a CompilerABI) equal(b CompilerABI) bool {
	return intPtrEqual(a.LibgfortranVersion, b.LibgfortranVersion) &&
		intPtrEqual(a.LibstdcxxVersion, b.LibstdcxxVersion) &&
		cxxPtrEqual(a.CxxstringABI, b.CxxstringABI)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cxxPtrEqual(a, b *CxxstringABI) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Platform is the central domain entity: an OS/arch pair plus optional ABI
// qualifiers and a free-form, sorted extensions map. It is immutable; all
// methods that "change" a Platform return a new value.
type Platform struct {
	OS       OS
	Arch     Arch
	Libc     Libc    // Linux only, required once resolved
	CallABI  CallABI // armv7l-Linux only, required once resolved
	ABI      CompilerABI
	// Extensions is a sorted string->string map carrying keys such as
	// "march", "cuda", "cuda_capability", "julia_version". Values may not
	// contain "+".
	Extensions map[string]string
}

// AnyPlatform triplets to the literal string "any" and behaves identically
// to Linux/x86_64/musl in every build-environment context.
var AnyPlatform = Platform{OS: Any, Arch: X86_64}

// New constructs a base Platform with no ABI qualifiers or extensions set.
func New(os OS, arch Arch) Platform {
	return Platform{OS: os, Arch: arch}
}

// WithLibc returns a copy with Libc set.
func (p Platform) WithLibc(libc Libc) Platform {
	p.Libc = libc
	return p
}

// WithCallABI returns a copy with CallABI set.
func (p Platform) WithCallABI(abi CallABI) Platform {
	p.CallABI = abi
	return p
}

// WithExtension returns a copy with Extensions[key] = value. It does not
// validate the key/value; use Extend for validated mutation.
func (p Platform) WithExtension(key, value string) Platform {
	next := make(map[string]string, len(p.Extensions)+1)
	maps.Copy(next, p.Extensions)
	next[key] = value
	p.Extensions = next
	return p
}

// Extend validates and applies a batch of extension key/value pairs,
// returning errs.ErrInvalidKey if any value contains '+', if a march value
// is not in the per-arch whitelist, or if a key is set twice to conflicting
// values. Setting the same key to the same value twice is idempotent.
func (p Platform) Extend(kv map[string]string) (Platform, error) {
	next := make(map[string]string, len(p.Extensions)+len(kv))
	maps.Copy(next, p.Extensions)
	for k, v := range kv {
		if containsPlus(v) {
			return Platform{}, fmt.Errorf("%w: extension value %q for key %q contains '+'", errs.ErrInvalidKey, v, k)
		}
		if existing, ok := next[k]; ok && existing != v {
			return Platform{}, fmt.Errorf("%w: key %q already set to %q, conflicts with %q", errs.ErrInvalidKey, k, existing, v)
		}
		if k == "march" && !isValidMarch(p.Arch, v) {
			return Platform{}, fmt.Errorf("%w: march %q is not valid for arch %q", errs.ErrInvalidKey, v, p.Arch)
		}
		next[k] = v
	}
	p.Extensions = next
	return p, nil
}

func containsPlus(s string) bool {
	return slices.Contains([]rune(s), '+')
}

// AbiAgnostic returns a copy with all CompilerABI fields cleared.
func (p Platform) AbiAgnostic() Platform {
	p.ABI = CompilerABI{}
	return p
}

// ReplaceLibgfortranVersion returns a copy with ABI.LibgfortranVersion set.
func (p Platform) ReplaceLibgfortranVersion(v int) Platform {
	p.ABI.LibgfortranVersion = &v
	return p
}

// ReplaceCxxstringABI returns a copy with ABI.CxxstringABI set.
func (p Platform) ReplaceCxxstringABI(v CxxstringABI) Platform {
	p.ABI.CxxstringABI = &v
	return p
}

// March returns the "march" extension value, if any.
func (p Platform) March() (string, bool) {
	v, ok := p.Extensions["march"]
	return v, ok
}

// IsCrossCompiling reports whether building for p from host requires a
// cross-compiler, i.e. p's base platform (OS/Arch/Libc/CallABI) differs from
// host's. ABI and extensions are ignored: two platforms differing only in
// march or cxxstring ABI run the same compiler, just configured differently.
func (p Platform) IsCrossCompiling(host Platform) bool {
	return p.OS != host.OS || p.Arch != host.Arch || p.Libc != host.Libc || p.CallABI != host.CallABI
}

// Equal reports exact field-for-field equality (not Match).
func (p Platform) Equal(o Platform) bool {
	return p.OS == o.OS && p.Arch == o.Arch && p.Libc == o.Libc && p.CallABI == o.CallABI &&
		p.ABI.equal(o.ABI) && maps.Equal(p.Extensions, o.Extensions)
}

// Match returns true when every field specified on both sides agrees. A
// field unspecified on one side never forces a mismatch. For extensions, a
// key present on both sides must match; a key present on only one side is
// ignored. Match is reflexive and symmetric.
func Match(a, b Platform) bool {
	if a.OS == Any || b.OS == Any {
		a = normalizeAny(a)
		b = normalizeAny(b)
	}
	if a.OS != b.OS {
		return false
	}
	if a.Arch != b.Arch {
		return false
	}
	if !fieldMatch(string(a.Libc), string(b.Libc)) {
		return false
	}
	if !fieldMatch(string(a.CallABI), string(b.CallABI)) {
		return false
	}
	if !optIntMatch(a.ABI.LibgfortranVersion, b.ABI.LibgfortranVersion) {
		return false
	}
	if !optIntMatch(a.ABI.LibstdcxxVersion, b.ABI.LibstdcxxVersion) {
		return false
	}
	if a.ABI.CxxstringABI != nil && b.ABI.CxxstringABI != nil && *a.ABI.CxxstringABI != *b.ABI.CxxstringABI {
		return false
	}
	for k, av := range a.Extensions {
		if bv, ok := b.Extensions[k]; ok && av != bv {
			return false
		}
	}
	return true
}

func normalizeAny(p Platform) Platform {
	if p.OS == Any {
		return Platform{OS: Linux, Arch: X86_64, Libc: Musl}
	}
	return p
}

func fieldMatch(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	return a == b
}

func optIntMatch(a, b *int) bool {
	if a == nil || b == nil {
		return true
	}
	return *a == *b
}

// BasePlatform strips ABI and Extensions, leaving OS/Arch/Libc/CallABI.
func (p Platform) BasePlatform() Platform {
	return Platform{OS: p.OS, Arch: p.Arch, Libc: p.Libc, CallABI: p.CallABI}
}

// sortedExtensionKeys returns p.Extensions' keys in lexicographic order.
func (p Platform) sortedExtensionKeys() []string {
	keys := slices.Collect(maps.Keys(p.Extensions))
	slices.Sort(keys)
	return keys
}

// archNormalizedForAATriplet returns the arch token as it appears in the
// aatriplet: armv7l normalises to "arm".
func archNormalizedForAATriplet(a Arch) string {
	if a == Armv7l {
		return "arm"
	}
	return string(a)
}
