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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccforge/sandbox/catalog"
	"github.com/ccforge/sandbox/platform"
)

func TestWriteWrappersEmitsCompilerAndBinutilsScripts(t *testing.T) {
	dir := t.TempDir()
	shard := catalog.CompilerShard{
		Name:    catalog.GCCBootstrap,
		Version: "v8.1.0",
		Host:    linuxHost,
		Target:  &linuxTarget,
	}

	require.NoError(t, WriteWrappers(dir, []catalog.CompilerShard{shard}))

	aat := platform.AAtriplet(linuxTarget)
	binDir := filepath.Join(dir, platform.Triplet(linuxTarget))

	gccScript, err := os.ReadFile(filepath.Join(binDir, aat+"-gcc"))
	require.NoError(t, err)
	assert.Contains(t, string(gccScript), "--sysroot=")
	assert.Contains(t, string(gccScript), SysrootDir(linuxTarget))

	arScript, err := os.ReadFile(filepath.Join(binDir, aat+"-ar"))
	require.NoError(t, err)
	assert.NotContains(t, string(arScript), "--sysroot")

	info, err := os.Stat(filepath.Join(binDir, aat+"-gcc"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestWriteWrappersSkipsNonCompilerShards(t *testing.T) {
	dir := t.TempDir()
	shard := catalog.CompilerShard{
		Name:   catalog.PlatformSupport,
		Host:   linuxHost,
		Target: &linuxTarget,
	}

	require.NoError(t, WriteWrappers(dir, []catalog.CompilerShard{shard}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
