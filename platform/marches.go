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

package platform

import "slices"

// marchesByArch is the per-arch microarchitecture whitelist used both to
// validate "march" extension values and to drive ExpandMicroarchitectures.
// Order matters: it is the order microarchitectures are emitted in.
var marchesByArch = map[Arch][]string{
	X86_64:  {"x86_64", "avx", "avx2", "avx512"},
	Aarch64: {"armv8", "carmel", "thunderx2"},
	Armv7l:  {"armv7l", "neon", "vfp4"},
}

func isValidMarch(arch Arch, march string) bool {
	return slices.Contains(marchesByArch[arch], march)
}

// ExpandMicroarchitectures returns one extended Platform per supported march
// for arch(p) if p does not already carry a march extension. If p already
// carries march, it returns []Platform{p}. If arch(p) has no marches, it
// also returns []Platform{p}.
func ExpandMicroarchitectures(p Platform) []Platform {
	if _, ok := p.March(); ok {
		return []Platform{p}
	}
	marches, ok := marchesByArch[p.Arch]
	if !ok || len(marches) == 0 {
		return []Platform{p}
	}
	result := make([]Platform, 0, len(marches))
	for _, m := range marches {
		extended, err := p.Extend(map[string]string{"march": m})
		if err != nil {
			// marches table is internally consistent; Extend cannot fail here.
			continue
		}
		result = append(result, extended)
	}
	return result
}

// ExpandGfortran produces variants with libgfortran versions {3,4,5} when p
// leaves LibgfortranVersion unspecified; otherwise returns []Platform{p}.
func ExpandGfortran(p Platform) []Platform {
	if p.ABI.LibgfortranVersion != nil {
		return []Platform{p}
	}
	result := make([]Platform, 0, 3)
	for _, v := range []int{3, 4, 5} {
		result = append(result, p.ReplaceLibgfortranVersion(v))
	}
	return result
}

// ExpandCxxstringOptions controls ExpandCxxstring's default OS skip.
type ExpandCxxstringOptions struct {
	// IncludeSkippedOS forces expansion even on FreeBSD/MacOS, which are
	// skipped by default (those platforms don't carry the GNU libstdc++
	// std::string ABI split).
	IncludeSkippedOS bool
}

// ExpandCxxstring produces variants with CxxstringABI in {cxx03, cxx11}
// when p leaves it unspecified. By default it skips FreeBSD/MacOS (returns
// []Platform{p} unchanged for those), matching BinaryBuilder's rationale
// that only the glibc/musl libstdc++ ever split on this ABI.
func ExpandCxxstring(p Platform, opts ...ExpandCxxstringOptions) []Platform {
	var o ExpandCxxstringOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if p.ABI.CxxstringABI != nil {
		return []Platform{p}
	}
	if !o.IncludeSkippedOS && (p.OS == FreeBSD || p.OS == MacOS) {
		return []Platform{p}
	}
	return []Platform{
		p.ReplaceCxxstringABI(Cxx03),
		p.ReplaceCxxstringABI(Cxx11),
	}
}

// cpuFeature is a recognised entry in a host's reported CPU feature set, used
// by ExtendedPlatformKeyAbi to classify the coarsest fitting march.
type cpuFeature = string

const (
	FeatureAVX    cpuFeature = "AVX"
	FeatureAVX2   cpuFeature = "AVX2"
	FeatureAVX512F cpuFeature = "AVX512F"
)

// ExtendedPlatformKeyAbi classifies a host's CPU feature set into the
// coarsest march that still fits: AVX512F => avx512; AVX2 without AVX512F =>
// avx2; AVX without AVX2 => avx; neither => base arch name (no march set).
// Returns p unextended if arch(p) is not x86_64.
func ExtendedPlatformKeyAbi(p Platform, cpuFeatures []string) Platform {
	if p.Arch != X86_64 {
		return p
	}
	has := func(f string) bool { return slices.Contains(cpuFeatures, f) }
	switch {
	case has(FeatureAVX512F):
		return p.WithExtension("march", "avx512")
	case has(FeatureAVX2):
		return p.WithExtension("march", "avx2")
	case has(FeatureAVX):
		return p.WithExtension("march", "avx")
	default:
		return p
	}
}
