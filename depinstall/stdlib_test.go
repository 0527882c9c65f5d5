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

package depinstall

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccforge/sandbox/internal/errs"
)

type fakeStdlibResolver map[string]string

func (r fakeStdlibResolver) ResolveStdlibTreeHash(packageName, juliaVersion string) (string, error) {
	hash, ok := r[packageName+"@"+juliaVersion]
	if !ok {
		return "", fmt.Errorf("no stdlib artifact for %s", packageName)
	}
	return hash, nil
}

func TestResolveStdlibSpecsPopulatesMissingTreeHash(t *testing.T) {
	resolver := fakeStdlibResolver{"OpenBLAS_jll@1.9.0": "abc123"}
	specs := []PackageSpec{{Name: "OpenBLAS_jll"}}

	out, hadStdlib, err := ResolveStdlibSpecs(resolver, specs, "1.9.0")
	require.NoError(t, err)
	assert.True(t, hadStdlib)
	require.Len(t, out, 1)
	assert.Equal(t, "abc123", out[0].TreeHash)
}

func TestResolveStdlibSpecsLeavesHashPinnedSpecsAlone(t *testing.T) {
	resolver := fakeStdlibResolver{}
	specs := []PackageSpec{{Name: "Zlib_jll", TreeHash: "already-pinned"}}

	out, hadStdlib, err := ResolveStdlibSpecs(resolver, specs, "1.9.0")
	require.NoError(t, err)
	assert.False(t, hadStdlib)
	assert.Equal(t, specs, out)
}

func TestResolveStdlibSpecsWrapsResolverError(t *testing.T) {
	resolver := fakeStdlibResolver{}
	_, _, err := ResolveStdlibSpecs(resolver, []PackageSpec{{Name: "Missing_jll"}}, "1.9.0")
	assert.ErrorIs(t, err, errs.ErrStdlibResolutionFailed)
}

func TestForceRedownloadMirrorsHadStdlib(t *testing.T) {
	assert.True(t, ForceRedownload(true))
	assert.False(t, ForceRedownload(false))
}
