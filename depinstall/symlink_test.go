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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifactTree(t *testing.T, root string) string {
	t.Helper()
	artifactsDir := filepath.Join(root, "artifacts")
	dir := filepath.Join(artifactsDir, "hash1")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "libfoo.so"), []byte("binary"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("hi"), 0o644))
	return dir
}

func TestInstallSymlinkTreeMirrorsFilesAsRelativeSymlinks(t *testing.T) {
	root := t.TempDir()
	artifactDir := writeArtifactTree(t, root)
	destDir := filepath.Join(root, "destdir")

	entries, err := InstallSymlinkTree(artifactDir, destDir, false)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	for _, e := range entries {
		info, err := os.Lstat(e.Dest)
		require.NoError(t, err)
		assert.True(t, info.Mode()&os.ModeSymlink != 0)
		assert.False(t, e.IsDir)
	}

	data, err := os.ReadFile(filepath.Join(destDir, "README"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))
}

func TestInstallSymlinkTreeIsIdempotentForIdenticalContent(t *testing.T) {
	root := t.TempDir()
	artifactDir := writeArtifactTree(t, root)
	destDir := filepath.Join(root, "destdir")

	_, err := InstallSymlinkTree(artifactDir, destDir, false)
	require.NoError(t, err)

	entries, err := InstallSymlinkTree(artifactDir, destDir, false)
	require.NoError(t, err)
	assert.Empty(t, entries, "re-installing an identical tree should add no new entries")
}

func TestInstallSymlinkTreeLogsConflictButDoesNotFail(t *testing.T) {
	root := t.TempDir()
	artifactDir := writeArtifactTree(t, root)
	destDir := filepath.Join(root, "destdir")
	require.NoError(t, os.MkdirAll(destDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(destDir, "README"), []byte("different content!"), 0o644))

	entries, err := InstallSymlinkTree(artifactDir, destDir, false)
	require.NoError(t, err, "a conflicting destination must be logged and skipped, never fatal")

	data, err := os.ReadFile(filepath.Join(destDir, "README"))
	require.NoError(t, err)
	assert.Equal(t, "different content!", string(data), "the conflicting file is left untouched")

	for _, e := range entries {
		assert.NotEqual(t, filepath.Join(destDir, "README"), e.Dest)
	}
}

func TestSaveAndLoadManifestRoundTrip(t *testing.T) {
	manifestPath := filepath.Join(t.TempDir(), "manifest.json")
	entries := []SymlinkEntry{{Dest: "/a/b", IsDir: false}, {Dest: "/a/c", IsDir: true}}

	require.NoError(t, SaveManifest(manifestPath, entries))
	got, err := LoadManifest(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestUnsymlinkRemovesRecordedEntriesOnly(t *testing.T) {
	root := t.TempDir()
	artifactDir := writeArtifactTree(t, root)
	destDir := filepath.Join(root, "destdir")

	entries, err := InstallSymlinkTree(artifactDir, destDir, false)
	require.NoError(t, err)

	require.NoError(t, Unsymlink(entries))
	for _, e := range entries {
		_, err := os.Lstat(e.Dest)
		assert.True(t, os.IsNotExist(err))
	}
}

func TestUnsymlinkToleratesAlreadyMissingEntries(t *testing.T) {
	entries := []SymlinkEntry{{Dest: filepath.Join(t.TempDir(), "gone"), IsDir: false}}
	assert.NoError(t, Unsymlink(entries))
}
