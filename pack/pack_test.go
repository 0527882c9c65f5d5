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

package pack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccforge/sandbox/internal/errs"
	"github.com/ccforge/sandbox/platform"
)

func writeTree(t *testing.T, root string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin", "tool"), []byte("#!/bin/sh\necho hi\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README"), []byte("hello\n"), 0o644))
	require.NoError(t, os.Symlink("tool", filepath.Join(root, "bin", "tool-alias")))
}

func TestPackageIsDeterministic(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src)

	out1 := t.TempDir()
	r1, err := Package(src, filepath.Join(out1, "shard"), "1.0.0", platform.New(platform.Linux, platform.X86_64).WithLibc(platform.Musl), false)
	require.NoError(t, err)

	out2 := t.TempDir()
	r2, err := Package(src, filepath.Join(out2, "shard"), "1.0.0", platform.New(platform.Linux, platform.X86_64).WithLibc(platform.Musl), false)
	require.NoError(t, err)

	assert.Equal(t, r1.TreeHash, r2.TreeHash, "tree hash must be deterministic for identical input trees")
	assert.Equal(t, r1.SHA256, r2.SHA256, "tarball sha256 must be stable across repeated packaging of an identical tree")
	assert.NotEmpty(t, r1.SHA256)
	assert.FileExists(t, r1.Path)
}

func TestPackageRefusesExistingOutputWithoutForce(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src)
	out := t.TempDir()

	plat := platform.New(platform.Linux, platform.X86_64).WithLibc(platform.Musl)
	_, err := Package(src, filepath.Join(out, "shard"), "1.0.0", plat, false)
	require.NoError(t, err)

	_, err = Package(src, filepath.Join(out, "shard"), "1.0.0", plat, false)
	assert.ErrorIs(t, err, errs.ErrOutputExists)

	_, err = Package(src, filepath.Join(out, "shard"), "1.0.0", plat, true)
	assert.NoError(t, err)
}

func TestTreeHashDiffersOnContentChange(t *testing.T) {
	a := t.TempDir()
	writeTree(t, a)
	hashA, err := TreeHash(a)
	require.NoError(t, err)

	b := t.TempDir()
	writeTree(t, b)
	require.NoError(t, os.WriteFile(filepath.Join(b, "README"), []byte("different\n"), 0o644))
	hashB, err := TreeHash(b)
	require.NoError(t, err)

	assert.NotEqual(t, hashA, hashB)
}

func TestCompressDirSkipsSymlinksAndSubdirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.Symlink("a.txt", filepath.Join(dir, "link")))

	require.NoError(t, CompressDir(dir, Gzip, 6, ".gz"))

	assert.FileExists(t, filepath.Join(dir, "a.txt.gz"))
	assert.NoFileExists(t, filepath.Join(dir, "a.txt"))
	assert.DirExists(t, filepath.Join(dir, "sub"))
	assert.NoFileExists(t, filepath.Join(dir, "sub.gz"))
	_, err := os.Lstat(filepath.Join(dir, "link"))
	assert.NoError(t, err, "symlink itself must be untouched")
	assert.NoFileExists(t, filepath.Join(dir, "link.gz"))
}
