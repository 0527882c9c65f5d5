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
)

func TestCollapseSpecsTreeHashWins(t *testing.T) {
	in := []PackageSpec{
		{Name: "Foo_jll", Version: "1.2.3", TreeHash: "abc"},
		{Name: "Bar_jll", Version: "4.5.6"},
	}
	out := CollapseSpecs(in)
	require.Len(t, out, 2)
	assert.Equal(t, PackageSpec{Name: "Foo_jll", TreeHash: "abc"}, out[0])
	assert.Equal(t, PackageSpec{Name: "Bar_jll", Version: "4.5.6"}, out[1])
}

func TestIsJLL(t *testing.T) {
	assert.True(t, IsJLL("Zlib_jll"))
	assert.False(t, IsJLL("Zlib"))
}

type fakeGraph map[string][]PackageSpec

func (g fakeGraph) Dependencies(spec PackageSpec) ([]PackageSpec, error) {
	key := spec.Name
	if spec.TreeHash != "" {
		key = spec.Name + "@" + spec.TreeHash
	}
	if deps, ok := g[key]; ok {
		return deps, nil
	}
	return g[spec.Name], nil
}

func TestResolveClosureFollowsOnlyJLLDeps(t *testing.T) {
	graph := fakeGraph{
		"Root":    {{Name: "Zlib_jll", TreeHash: "z1"}, {Name: "SomeApp"}},
		"SomeApp": {{Name: "Unrelated_jll", TreeHash: "u1"}},
	}
	closure, err := ResolveClosure(graph, []PackageSpec{{Name: "Root"}})
	require.NoError(t, err)

	names := make([]string, len(closure))
	for i, s := range closure {
		names[i] = s.Name
	}
	assert.ElementsMatch(t, []string{"Root", "Zlib_jll"}, names)
}

func TestResolveClosureDeduplicatesByKey(t *testing.T) {
	graph := fakeGraph{
		"Root": {
			{Name: "Zlib_jll", TreeHash: "z1"},
			{Name: "Zlib_jll", TreeHash: "z1"},
		},
	}
	closure, err := ResolveClosure(graph, []PackageSpec{{Name: "Root"}})
	require.NoError(t, err)
	assert.Len(t, closure, 2) // Root + one Zlib_jll
}

func TestResolveClosurePropagatesGraphError(t *testing.T) {
	errGraph := errGraphFunc(func(PackageSpec) ([]PackageSpec, error) {
		return nil, fmt.Errorf("registry unreachable")
	})
	_, err := ResolveClosure(errGraph, []PackageSpec{{Name: "Root"}})
	assert.Error(t, err)
}

type errGraphFunc func(PackageSpec) ([]PackageSpec, error)

func (f errGraphFunc) Dependencies(spec PackageSpec) ([]PackageSpec, error) { return f(spec) }
