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

// Package mount implements the Mounter (C4): materialising CompilerShards
// (unpacked directory or squashfs loop mount) into a per-build sandbox root,
// and releasing them on teardown.
package mount

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"github.com/ccforge/sandbox/catalog"
	"github.com/ccforge/sandbox/config"
	"github.com/ccforge/sandbox/internal/errs"
	"github.com/ccforge/sandbox/platform"
)

// ShardMapping is one (mountPath, sandboxPath) pair the sandbox driver binds
// into the build root.
type ShardMapping struct {
	MountPath   string
	SandboxPath string
}

// Mounter materialises shards into a build root. Mount and Unmount are both
// idempotent; a matching Unmount must execute on every exit path, including
// panic (spec.md §5).
type Mounter struct {
	cfg          config.Config
	catalogPaths func(catalog.CompilerShard) (string, error)

	mu       sync.Mutex
	mounted  map[string]bool // keyed by MountPath(shard, buildRoot)
	privOnce sync.Once
	privArgs []string
}

// New constructs a Mounter resolving shard storage paths via resolvePath
// (typically (*catalog.Catalog).Path).
func New(cfg config.Config, resolvePath func(catalog.CompilerShard) (string, error)) *Mounter {
	return &Mounter{cfg: cfg, catalogPaths: resolvePath, mounted: map[string]bool{}}
}

// MountPath computes the destination path deterministically: squashfs shards
// land under <buildRoot>/.mounts/<shard-artifact-name>; unpacked shards are
// bind-only and resolve directly to the artifact store path.
func (m *Mounter) MountPath(shard catalog.CompilerShard, buildRoot string) (string, error) {
	if shard.ArchiveKind == catalog.Squashfs {
		return filepath.Join(buildRoot, ".mounts", shard.ArtifactName()), nil
	}
	return m.catalogPaths(shard)
}

// MapTarget computes the in-sandbox path a shard should appear at.
func MapTarget(shard catalog.CompilerShard) string {
	switch shard.Name {
	case catalog.Rootfs:
		return "/"
	case catalog.RustToolchain:
		hostAA := platform.AAtriplet(shard.Host)
		targetAA := hostAA
		if shard.Target != nil {
			targetAA = platform.AAtriplet(*shard.Target)
		}
		return fmt.Sprintf("/opt/%s/%s-%s-%s", hostAA, shard.Name, shard.Version, targetAA)
	default:
		aa := platform.AAtriplet(shard.Host)
		if shard.Target != nil {
			aa = platform.AAtriplet(*shard.Target)
		}
		return fmt.Sprintf("/opt/%s/%s-%s", aa, shard.Name, shard.Version)
	}
}

// ShardMappings returns an ordered list of (mountPath, sandboxPath) pairs
// for shards, omitting Rootfs (which is the container root itself). Order
// is reversed from input order because the sandbox driver layers shards
// back-to-front.
func (m *Mounter) ShardMappings(shards []catalog.CompilerShard, buildRoot string) ([]ShardMapping, error) {
	var mappings []ShardMapping
	for _, shard := range shards {
		if shard.Name == catalog.Rootfs {
			continue
		}
		mountPath, err := m.MountPath(shard, buildRoot)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, ShardMapping{MountPath: mountPath, SandboxPath: MapTarget(shard)})
	}
	slices.Reverse(mappings)
	return mappings, nil
}

// eulaAccepted decides whether a MacOS SDK shard may be mounted
// non-interactively: either AUTOMATIC_APPLE=true or a persistent sentinel
// file recorded previously.
func (m *Mounter) eulaAccepted() bool {
	if m.cfg.AutomaticApple {
		return true
	}
	if _, err := os.Stat(m.cfg.AppleEULASentinelPath()); err == nil {
		return true
	}
	return false
}

// Mount materialises shard into buildRoot and returns the path it was mounted
// at. It is idempotent: mounting an already-mounted shard is a no-op that
// returns the same path. Failure of the mount syscall is fatal; the caller
// is expected to propagate the error up to the build orchestrator.
func (m *Mounter) Mount(shard catalog.CompilerShard, buildRoot string) (string, error) {
	if shard.Host.OS == platform.MacOS && !m.eulaAccepted() {
		return "", fmt.Errorf("%w: shard %s requires Apple SDK EULA acceptance", errs.ErrSDKNotAccepted, shard.ArtifactName())
	}

	dest, err := m.MountPath(shard, buildRoot)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mounted[dest] {
		return dest, nil
	}

	if shard.ArchiveKind != catalog.Squashfs {
		// Unpacked shards are bind-only: no actual mount syscall, dest IS
		// the artifact store path.
		m.mounted[dest] = true
		return dest, nil
	}

	if !m.squashfsMountsAreReal() {
		m.mounted[dest] = true
		return dest, nil
	}

	src, err := m.catalogPaths(shard)
	if err != nil {
		return "", err
	}
	if !m.cfg.AllowEcryptfs && isEcryptfs(src) {
		return "", fmt.Errorf("%w: %s is on an eCryptfs filesystem; set ALLOW_ECRYPTFS to mount anyway", errs.ErrMountFailed, src)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrMountFailed, err)
	}
	if err := m.loopMount(src, dest); err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrMountFailed, err)
	}
	m.mounted[dest] = true
	return dest, nil
}

// squashfsMountsAreReal reports whether a real loop mount should be
// attempted: false when host is not Linux, when the configured runner is
// not userns/docker, or squashfs is disabled in config -- spec.md §4.4's
// fall-back-to-no-op conditions.
func (m *Mounter) squashfsMountsAreReal() bool {
	if runtime.GOOS != "linux" {
		return false
	}
	if m.cfg.Runner != config.RunnerUserNS && m.cfg.Runner != config.RunnerDocker {
		return false
	}
	if !m.cfg.UseSquashfs {
		return false
	}
	return true
}

func (m *Mounter) loopMount(src, dest string) error {
	prefix := m.privilegePrefix()
	args := append(append([]string{}, prefix...), "mount", "-t", "squashfs", "-o", "loop,ro", src, dest)
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// privilegePrefix resolves and caches the privilege-escalation command
// prefix (empty if already root, otherwise "sudo" or "su -c") once per
// process (spec.md §5).
func (m *Mounter) privilegePrefix() []string {
	m.privOnce.Do(func() {
		if os.Geteuid() == 0 {
			m.privArgs = nil
			return
		}
		if _, err := exec.LookPath("sudo"); err == nil {
			m.privArgs = []string{"sudo"}
			return
		}
		m.privArgs = []string{"su", "-c"}
	})
	return m.privArgs
}

// Unmount releases a shard mounted at buildRoot. Failure is logged and
// swallowed unless failOnError is set (spec.md §4.4/§7). Unmount is
// idempotent: unmounting an already-unmounted shard is a no-op.
func (m *Mounter) Unmount(shard catalog.CompilerShard, buildRoot string, failOnError bool) error {
	dest, err := m.MountPath(shard, buildRoot)
	if err != nil {
		if failOnError {
			return err
		}
		log.Printf("mount: could not compute path for unmount of %s: %v", shard.ArtifactName(), err)
		return nil
	}

	m.mu.Lock()
	wasMounted := m.mounted[dest]
	delete(m.mounted, dest)
	m.mu.Unlock()
	if !wasMounted {
		return nil
	}

	if shard.ArchiveKind != catalog.Squashfs || !m.squashfsMountsAreReal() {
		return nil
	}

	prefix := m.privilegePrefix()
	args := append(append([]string{}, prefix...), "umount", dest)
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		wrapped := fmt.Errorf("%w: %v", errs.ErrUnmountFailed, err)
		if failOnError {
			return wrapped
		}
		log.Printf("mount: %v", wrapped)
		return nil
	}
	removeMountsDirIfEmpty(filepath.Dir(dest))
	return nil
}

// removeMountsDirIfEmpty removes the .mounts directory once it has no
// remaining mountpoints (spec.md §4.4).
func removeMountsDirIfEmpty(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}
	_ = os.Remove(dir)
}
