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

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ccforge/sandbox/internal/errs"
)

// AAtriplet returns the "architecture-abi" subset of p's triplet
// (arch-os[-libc][eabihf]), used for tool path prefixes.
func AAtriplet(p Platform) string {
	if p.OS == Any {
		return AAtriplet(normalizeAny(p))
	}
	parts := []string{archNormalizedForAATriplet(p.Arch), osToken(p.OS)}
	if p.Libc != "" {
		parts = append(parts, string(p.Libc))
	}
	aa := strings.Join(parts, "-")
	if p.CallABI != "" {
		aa += string(p.CallABI)
	}
	return aa
}

func osToken(os OS) string {
	switch os {
	case MacOS:
		return "darwin"
	default:
		return string(os)
	}
}

// Triplet returns the full canonical triplet string: aatriplet + ABI tags
// (libgfortranN, cxxNN) + sorted key+value extension pairs.
func Triplet(p Platform) string {
	if p.OS == Any {
		return "any"
	}
	s := AAtriplet(p)
	if v := p.ABI.LibgfortranVersion; v != nil {
		s += fmt.Sprintf("-libgfortran%d", *v)
	}
	if v := p.ABI.CxxstringABI; v != nil {
		s += "-" + string(*v)
	}
	for _, k := range p.sortedExtensionKeys() {
		s += fmt.Sprintf("-%s+%s", k, p.Extensions[k])
	}
	return s
}

var (
	libcToken    = regexp.MustCompile(`^(glibc|musl)$`)
	gfortranRe   = regexp.MustCompile(`^libgfortran(\d+)$`)
	cxxstringRe  = regexp.MustCompile(`^(cxx03|cxx11)$`)
	extensionRe  = regexp.MustCompile(`^([^+\-]+)\+(.+)$`)
	archTokenSet = map[string]Arch{
		"i686":        I686,
		"x86_64":      X86_64,
		"armv7l":      Armv7l,
		"arm":         Armv7l,
		"aarch64":     Aarch64,
		"powerpc64le": Powerpc64le,
	}
	osTokenSet = map[string]OS{
		"linux":   Linux,
		"darwin":  MacOS,
		"macos":   MacOS,
		"freebsd": FreeBSD,
		"windows": Windows,
	}
)

// Parse is the inverse of Triplet for every valid output of Triplet: for all
// p, Parse(Triplet(p)) == p. It returns errs.ErrInvalidTriplet on
// unparseable input.
func Parse(s string) (Platform, error) {
	if s == "any" {
		return AnyPlatform, nil
	}
	segments := strings.Split(s, "-")
	if len(segments) < 2 {
		return Platform{}, fmt.Errorf("%w: %q has too few segments", errs.ErrInvalidTriplet, s)
	}

	archTok := segments[0]
	arch, ok := archTokenSet[archTok]
	if !ok {
		return Platform{}, fmt.Errorf("%w: unknown arch token %q in %q", errs.ErrInvalidTriplet, archTok, s)
	}

	osIdx := 1
	osTok := segments[osIdx]
	// eabihf may be glued onto the last base-triplet segment (os or libc).
	callABI := CallABI("")
	if strings.HasSuffix(osTok, "eabihf") {
		osTok = strings.TrimSuffix(osTok, "eabihf")
		callABI = EABIHF
	}
	os, ok := osTokenSet[osTok]
	if !ok {
		return Platform{}, fmt.Errorf("%w: unknown OS token %q in %q", errs.ErrInvalidTriplet, osTok, s)
	}

	p := Platform{OS: os, Arch: arch}
	rest := segments[osIdx+1:]

	if os == Linux && len(rest) > 0 {
		libcTok := rest[0]
		if strings.HasSuffix(libcTok, "eabihf") {
			libcTok = strings.TrimSuffix(libcTok, "eabihf")
			callABI = EABIHF
		}
		if libcToken.MatchString(libcTok) {
			p.Libc = Libc(libcTok)
			rest = rest[1:]
		}
	}
	p.CallABI = callABI

	extensions := map[string]string{}
	for _, seg := range rest {
		trimmed := strings.TrimSuffix(seg, "eabihf")
		if trimmed != seg && p.CallABI == "" {
			p.CallABI = EABIHF
			seg = trimmed
			if seg == "" {
				continue
			}
		}
		switch {
		case gfortranRe.MatchString(seg):
			m := gfortranRe.FindStringSubmatch(seg)
			v, err := strconv.Atoi(m[1])
			if err != nil {
				return Platform{}, fmt.Errorf("%w: bad libgfortran version in %q", errs.ErrInvalidTriplet, s)
			}
			p.ABI.LibgfortranVersion = &v
		case cxxstringRe.MatchString(seg):
			abi := CxxstringABI(seg)
			p.ABI.CxxstringABI = &abi
		case extensionRe.MatchString(seg):
			m := extensionRe.FindStringSubmatch(seg)
			extensions[m[1]] = m[2]
		default:
			return Platform{}, fmt.Errorf("%w: unrecognised segment %q in %q", errs.ErrInvalidTriplet, seg, s)
		}
	}
	if len(extensions) > 0 {
		var err error
		p, err = p.Extend(extensions)
		if err != nil {
			return Platform{}, err
		}
	}
	return p, nil
}
