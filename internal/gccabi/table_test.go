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

package gccabi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersionParsesThreeComponents(t *testing.T) {
	v, err := ParseVersion("v11.1.0")
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 11, Minor: 1, Patch: 0}, v)
}

func TestParseVersionRejectsMalformedInput(t *testing.T) {
	for _, s := range []string{"11.1.0", "vX.Y.Z", "v11.1", ""} {
		_, err := ParseVersion(s)
		assert.Error(t, err, "expected error for %q", s)
	}
}

func TestCompareOrdersByMajorThenMinorThenPatch(t *testing.T) {
	assert.Equal(t, -1, Compare(Version{4, 8, 5}, Version{11, 1, 0}))
	assert.Equal(t, 1, Compare(Version{11, 1, 0}, Version{4, 8, 5}))
	assert.Equal(t, 0, Compare(Version{9, 1, 0}, Version{9, 1, 0}))
	assert.Equal(t, -1, Compare(Version{9, 0, 9}, Version{9, 1, 0}))
}

func TestDistanceIsManhattanAndSymmetric(t *testing.T) {
	a, b := Version{9, 1, 0}, Version{10, 2, 0}
	assert.Equal(t, 2, Distance(a, b))
	assert.Equal(t, Distance(a, b), Distance(b, a))
	assert.Equal(t, 0, Distance(a, a))
}

func TestGCCBuildsIsSortedAscendingByVersion(t *testing.T) {
	for i := 1; i < len(GCCBuilds); i++ {
		assert.True(t, Compare(GCCBuilds[i-1].Version, GCCBuilds[i].Version) < 0,
			"GCCBuilds must be strictly increasing, found %v before %v", GCCBuilds[i-1].Version, GCCBuilds[i].Version)
	}
}

func TestMinVersionForMarchCoversDocumentedTags(t *testing.T) {
	for _, tag := range []string{"avx", "avx2", "avx512", "thunderx2", "neon", "vfp4", "carmel"} {
		_, ok := MinVersionForMarch[tag]
		assert.True(t, ok, "expected a minimum version entry for %q", tag)
	}
}
