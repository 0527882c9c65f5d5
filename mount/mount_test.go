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

package mount

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccforge/sandbox/catalog"
	"github.com/ccforge/sandbox/config"
	"github.com/ccforge/sandbox/internal/errs"
	"github.com/ccforge/sandbox/platform"
)

func resolveFixed(path string) func(catalog.CompilerShard) (string, error) {
	return func(catalog.CompilerShard) (string, error) { return path, nil }
}

func TestMountUnpackedShardIsBindOnlyAndIdempotent(t *testing.T) {
	storeDir := t.TempDir()
	m := New(config.Config{}, resolveFixed(storeDir))
	host := platform.New(platform.Linux, platform.X86_64).WithLibc(platform.Musl)
	shard := catalog.CompilerShard{Name: catalog.Rootfs, Version: "v1", Host: host, ArchiveKind: catalog.Unpacked}

	dest1, err := m.Mount(shard, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, storeDir, dest1)

	dest2, err := m.Mount(shard, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, dest1, dest2)

	require.NoError(t, m.Unmount(shard, t.TempDir(), true))
}

func TestMountRefusesMacOSSDKWithoutEULA(t *testing.T) {
	m := New(config.Config{}, resolveFixed(t.TempDir()))
	shard := catalog.CompilerShard{
		Name:    catalog.PlatformSupport,
		Version: "v1",
		Host:    platform.New(platform.MacOS, platform.Aarch64),
	}
	_, err := m.Mount(shard, t.TempDir())
	assert.ErrorIs(t, err, errs.ErrSDKNotAccepted)
}

func TestMountAllowsMacOSSDKWithAutomaticApple(t *testing.T) {
	m := New(config.Config{AutomaticApple: true}, resolveFixed(t.TempDir()))
	shard := catalog.CompilerShard{
		Name:        catalog.PlatformSupport,
		Version:     "v1",
		Host:        platform.New(platform.MacOS, platform.Aarch64),
		ArchiveKind: catalog.Unpacked,
	}
	_, err := m.Mount(shard, t.TempDir())
	assert.NoError(t, err)
}

func TestSquashfsMountPathIsUnderBuildRootMounts(t *testing.T) {
	m := New(config.Config{}, resolveFixed("/store/whatever"))
	host := platform.New(platform.Linux, platform.X86_64).WithLibc(platform.Musl)
	shard := catalog.CompilerShard{Name: catalog.Rootfs, Version: "v1", Host: host, ArchiveKind: catalog.Squashfs}

	path, err := m.MountPath(shard, "/build/root")
	require.NoError(t, err)
	assert.Equal(t, "/build/root/.mounts/"+shard.ArtifactName(), path)
}

func TestMapTargetRootfsMapsToSandboxRoot(t *testing.T) {
	host := platform.New(platform.Linux, platform.X86_64).WithLibc(platform.Musl)
	shard := catalog.CompilerShard{Name: catalog.Rootfs, Version: "v1", Host: host}
	assert.Equal(t, "/", MapTarget(shard))
}

func TestShardMappingsOmitsRootfsAndReversesOrder(t *testing.T) {
	host := platform.New(platform.Linux, platform.X86_64).WithLibc(platform.Musl)
	m := New(config.Config{}, resolveFixed(t.TempDir()))
	shards := []catalog.CompilerShard{
		{Name: catalog.Rootfs, Version: "v1", Host: host, ArchiveKind: catalog.Unpacked},
		{Name: catalog.PlatformSupport, Version: "v1", Host: host, Target: &host, ArchiveKind: catalog.Unpacked},
		{Name: catalog.Go, Version: "v1", Host: host, ArchiveKind: catalog.Unpacked},
	}
	mappings, err := m.ShardMappings(shards, t.TempDir())
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, MapTarget(shards[2]), mappings[0].SandboxPath)
	assert.Equal(t, MapTarget(shards[1]), mappings[1].SandboxPath)
}

func TestMountRefusesEcryptfsStoreWithoutAllowEcryptfs(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("real squashfs loop mounts are only attempted on linux")
	}
	prev := isEcryptfs
	isEcryptfs = func(string) bool { return true }
	defer func() { isEcryptfs = prev }()

	cfg := config.Config{Runner: config.RunnerUserNS, UseSquashfs: true}
	m := New(cfg, resolveFixed(t.TempDir()))
	host := platform.New(platform.Linux, platform.X86_64).WithLibc(platform.Musl)
	shard := catalog.CompilerShard{Name: catalog.PlatformSupport, Version: "v1", Host: host, ArchiveKind: catalog.Squashfs}

	_, err := m.Mount(shard, t.TempDir())
	assert.ErrorIs(t, err, errs.ErrMountFailed)
}
