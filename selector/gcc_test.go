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

package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccforge/sandbox/internal/gccabi"
	"github.com/ccforge/sandbox/platform"
)

func TestSelectGCCPicksNearestVersion(t *testing.T) {
	target := platform.New(platform.Linux, platform.X86_64).WithLibc(platform.Musl)
	build, err := SelectGCC(target, gccabi.Version{Major: 9, Minor: 0, Patch: 0}, gccabi.GCCBuilds)
	require.NoError(t, err)
	assert.Equal(t, gccabi.Version{Major: 9, Minor: 1, Patch: 0}, build.Version)
}

func TestSelectGCCRejectsImpossibleCxx11Before5(t *testing.T) {
	cxx11 := platform.Cxx11
	target := platform.New(platform.Linux, platform.X86_64).WithLibc(platform.Musl)
	target.ABI.CxxstringABI = &cxx11

	_, err := SelectGCC(target, gccabi.Version{Major: 4, Minor: 8, Patch: 5}, []gccabi.GCCBuild{gccabi.GCCBuilds[0]})
	assert.Error(t, err)
}

func TestSelectGCCFiltersByMarchMinimumVersion(t *testing.T) {
	target, err := platform.New(platform.Linux, platform.X86_64).WithLibc(platform.Musl).Extend(map[string]string{"march": "avx512"})
	require.NoError(t, err)

	build, err := SelectGCC(target, gccabi.Version{Major: 4, Minor: 8, Patch: 5}, gccabi.GCCBuilds)
	require.NoError(t, err)
	assert.True(t, gccabi.Compare(build.Version, gccabi.MinVersionForMarch["avx512"]) >= 0)
}

func TestSelectGCCFiltersByLibstdcxxCeiling(t *testing.T) {
	target := platform.New(platform.Linux, platform.X86_64).WithLibc(platform.Musl)
	ceiling := 20
	target.ABI.LibstdcxxVersion = &ceiling

	build, err := SelectGCC(target, gccabi.Version{Major: 11, Minor: 1, Patch: 0}, gccabi.GCCBuilds)
	require.NoError(t, err)
	assert.LessOrEqual(t, *build.ABI.LibstdcxxVersion, ceiling)
}

func TestSelectGCCErrorsWhenNoBuildSurvives(t *testing.T) {
	target := platform.New(platform.Linux, platform.X86_64).WithLibc(platform.Musl)
	_, err := SelectGCC(target, gccabi.Version{}, nil)
	assert.Error(t, err)
}
