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

package prefix

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccforge/sandbox/platform"
)

func TestInitCreatesFixedSubtreeAndStableSymlink(t *testing.T) {
	root := t.TempDir()
	p, err := New(root)
	require.NoError(t, err)

	host := platform.New(platform.Linux, platform.X86_64).WithLibc(platform.Musl)
	target := platform.New(platform.Linux, platform.Aarch64).WithLibc(platform.Musl)
	require.NoError(t, p.Init(host, target))

	for _, dir := range []string{p.SrcDir(), p.MetaDir(), p.DestDir(host), p.DestDir(target), p.ArtifactsDir(target), p.ProjectDir(target), p.MountsDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err, "expected %s to exist", dir)
		assert.True(t, info.IsDir())
	}

	link := filepath.Join(p.Root, "destdir")
	resolved, err := filepath.EvalSymlinks(link)
	require.NoError(t, err)
	expected, err := filepath.EvalSymlinks(p.DestDir(target))
	require.NoError(t, err)
	assert.Equal(t, expected, resolved)
}

func TestInitIsIdempotent(t *testing.T) {
	root := t.TempDir()
	p, err := New(root)
	require.NoError(t, err)
	host := platform.New(platform.Linux, platform.X86_64).WithLibc(platform.Musl)

	require.NoError(t, p.Init(host, host))
	require.NoError(t, p.Init(host, host))
}

func TestArtifactDirUnderArtifactsDir(t *testing.T) {
	p, err := New(t.TempDir())
	require.NoError(t, err)
	target := platform.New(platform.Linux, platform.X86_64).WithLibc(platform.Musl)
	assert.Equal(t, filepath.Join(p.ArtifactsDir(target), "abc123"), p.ArtifactDir(target, "abc123"))
}

func TestNewCanonicalisesRelativePath(t *testing.T) {
	rel := "."
	p, err := New(rel)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(p.Root))
}
