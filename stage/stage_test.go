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

package stage

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccforge/sandbox/platform"
	"github.com/ccforge/sandbox/prefix"
)

func newTestWorkspace(t *testing.T) Workspace {
	t.Helper()
	p, err := prefix.New(t.TempDir())
	require.NoError(t, err)
	host := platform.New(platform.Linux, platform.X86_64).WithLibc(platform.Musl)
	require.NoError(t, p.Init(host, host))
	ws, err := NewWorkspace(p)
	require.NoError(t, err)
	return ws
}

func TestFileSourceCopiesSingleFile(t *testing.T) {
	ws := newTestWorkspace(t)
	src := filepath.Join(t.TempDir(), "payload.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))

	s := Source{File: &FileSource{Path: src, Target: "payload.txt"}}
	require.NoError(t, s.Setup(ws))

	got, err := os.ReadFile(ws.TargetDir("payload.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestDirectorySourceExcludesDotGit(t *testing.T) {
	ws := newTestWorkspace(t)
	srcDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, ".git", "HEAD"), []byte("ref"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "main.c"), []byte("int main(){}"), 0o644))

	s := Source{Directory: &DirectorySource{Path: srcDir, Target: "proj"}}
	require.NoError(t, s.Setup(ws))

	dest := ws.TargetDir("proj")
	_, err := os.Stat(filepath.Join(dest, "main.c"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dest, ".git"))
	assert.True(t, os.IsNotExist(err))
}

func TestPatchSourceWritesUnderPatchesDir(t *testing.T) {
	ws := newTestWorkspace(t)
	s := Source{Patch: &PatchSource{Name: "fix.patch", Payload: []byte("--- a\n+++ b\n")}}
	require.NoError(t, s.Setup(ws))

	got, err := os.ReadFile(filepath.Join(ws.PatchesDir(), "fix.patch"))
	require.NoError(t, err)
	assert.Equal(t, "--- a\n+++ b\n", string(got))
}

func TestArchiveSourceExtractsTarGz(t *testing.T) {
	ws := newTestWorkspace(t)
	archivePath := filepath.Join(t.TempDir(), "src.tar.gz")
	writeTestTarGz(t, archivePath, map[string]string{"lib.c": "int lib(){return 0;}"})

	s := Source{Archive: &ArchiveSource{Path: archivePath, Target: "src"}}
	require.NoError(t, s.Setup(ws))

	got, err := os.ReadFile(filepath.Join(ws.TargetDir("src"), "lib.c"))
	require.NoError(t, err)
	assert.Equal(t, "int lib(){return 0;}", string(got))
}

func TestEmptySourceSetupErrors(t *testing.T) {
	ws := newTestWorkspace(t)
	err := (Source{}).Setup(ws)
	assert.Error(t, err)
}

func writeTestTarGz(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	gz := gzip.NewWriter(f)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Size: int64(len(content)), Mode: 0o644}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
}
