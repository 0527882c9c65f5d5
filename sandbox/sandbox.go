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

// Package sandbox wires C1 through C8 into the single entrypoint a build
// invocation actually calls: resolve shards, mount them, stage sources,
// install dependencies, emit toolchain files, run the build command, and
// package the result (spec.md §2's data flow).
package sandbox

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ccforge/sandbox/catalog"
	"github.com/ccforge/sandbox/config"
	"github.com/ccforge/sandbox/depinstall"
	"github.com/ccforge/sandbox/internal/collections"
	"github.com/ccforge/sandbox/internal/gccabi"
	"github.com/ccforge/sandbox/internal/runctl"
	"github.com/ccforge/sandbox/mount"
	"github.com/ccforge/sandbox/pack"
	"github.com/ccforge/sandbox/platform"
	"github.com/ccforge/sandbox/prefix"
	"github.com/ccforge/sandbox/selector"
	"github.com/ccforge/sandbox/stage"
	"github.com/ccforge/sandbox/toolchain"
)

// Orchestrator binds the catalog, mounter and dependency installer a
// process needs across many builds. One Orchestrator is safe to reuse
// concurrently across builds that each own a distinct Request.
type Orchestrator struct {
	cfg       config.Config
	cat       *catalog.Catalog
	mounter   *mount.Mounter
	installer *depinstall.Installer
}

// New constructs an Orchestrator. cat resolves CompilerShard artifact
// names to on-disk paths (C2); depStore resolves package
// artifact tree hashes to on-disk paths (C6's collaborator). Both are
// typically backed by the same physical content-addressed directory, keyed
// differently.
func New(cfg config.Config, cat *catalog.Catalog, depStore depinstall.Store) *Orchestrator {
	o := &Orchestrator{cfg: cfg, cat: cat, installer: depinstall.New(depStore)}
	o.mounter = mount.New(cfg, cat.Path)
	return o
}

// Request bundles one build's inputs.
type Request struct {
	Host, Target  platform.Platform
	Compilers     collections.Set[selector.Compiler]
	PreferredGCC  gccabi.Version
	PreferredLLVM gccabi.Version
	ArchiveKind   catalog.ArchiveKind

	Sources []stage.Source

	Deps        []depinstall.PackageSpec
	DepGraph    depinstall.DependencyGraph
	ArtifactsOf depinstall.ArtifactsOf
	// Stdlib resolves stdlib-provided JLL specs (no tree hash) against the
	// target's julia_version before closure resolution (spec.md §4.6's
	// stdlib-JLL subtlety). Nil if the caller has no such dependencies.
	Stdlib depinstall.StdlibResolver

	RunCmd []string
	Env    []string
	// Runner drives RunCmd inside the mounted sandbox (spec.md §1's opaque
	// "runner implementing Run(cmd, env, mounts)"). Required whenever
	// RunCmd is non-empty; Build binds the selected shards' ShardMappings
	// into the call so the toolchain files' /opt/... paths resolve.
	Runner runctl.Runner

	OutBase, Version string
	Force            bool

	HostUnameRelease string
	ClangUseLLD      bool
}

// Build runs one full cross-compilation sandbox build end to end and
// returns the packaged artifact's identifiers. Every Mount has a matching
// Unmount on every return path (including panics propagated through
// recover-free unwinding, since Unmount is deferred immediately after
// Mount succeeds); the staged workspace and installed dependency symlinks
// are likewise cleaned up unconditionally (spec.md §5).
func (o *Orchestrator) Build(ctx context.Context, req Request) (pack.Result, error) {
	p, err := prefix.New(filepath.Join(o.cfg.StorageDir, "builds", buildNonce()))
	if err != nil {
		return pack.Result{}, err
	}
	if err := p.Init(req.Host, req.Target); err != nil {
		return pack.Result{}, err
	}

	shards, err := selector.Select(o.cat, selector.Request{
		Target:        req.Target,
		Compilers:     req.Compilers,
		PreferredGCC:  req.PreferredGCC,
		PreferredLLVM: req.PreferredLLVM,
		ArchiveKind:   req.ArchiveKind,
	})
	if err != nil {
		return pack.Result{}, err
	}

	var mounted []catalog.CompilerShard
	defer func() {
		for i := len(mounted) - 1; i >= 0; i-- {
			if err := o.mounter.Unmount(mounted[i], p.Root, false); err != nil {
				log.Printf("sandbox: unmount %s: %v", mounted[i].ArtifactName(), err)
			}
		}
	}()
	for _, shard := range shards {
		if _, err := o.mounter.Mount(shard, p.Root); err != nil {
			return pack.Result{}, fmt.Errorf("mounting %s: %w", shard.ArtifactName(), err)
		}
		mounted = append(mounted, shard)
	}

	ws, err := stage.NewWorkspace(p)
	if err != nil {
		return pack.Result{}, err
	}
	defer func() {
		if err := os.RemoveAll(ws.Root); err != nil {
			log.Printf("sandbox: cleanup workspace: %v", err)
		}
	}()
	for _, src := range req.Sources {
		if err := src.Setup(ws); err != nil {
			return pack.Result{}, fmt.Errorf("staging source: %w", err)
		}
	}

	if req.DepGraph != nil {
		if _, err := o.installer.InstallDeps(p, req.Target, req.Deps, req.DepGraph, req.ArtifactsOf, req.Stdlib, o.cfg.Verbose); err != nil {
			return pack.Result{}, fmt.Errorf("installing dependencies: %w", err)
		}
		defer func() {
			if err := depinstall.CleanupDeps(p, req.Target); err != nil {
				log.Printf("sandbox: cleanup dependencies: %v", err)
			}
		}()
	}

	toolchainDir := filepath.Join(p.MetaDir(), "toolchains")
	if err := toolchain.WriteAll(toolchainDir, req.Host, req.Target, toolchain.Options{
		HostUnameRelease: req.HostUnameRelease,
		ClangUseLLD:      req.ClangUseLLD,
		UseCcache:        o.cfg.UseCcache,
	}); err != nil {
		return pack.Result{}, fmt.Errorf("emitting toolchain files: %w", err)
	}

	wrapperDir := filepath.Join(p.MetaDir(), "wrappers")
	if err := toolchain.WriteWrappers(wrapperDir, mounted); err != nil {
		return pack.Result{}, fmt.Errorf("writing compiler wrappers: %w", err)
	}

	if len(req.RunCmd) > 0 {
		if req.Runner == nil {
			return pack.Result{}, fmt.Errorf("sandbox: RunCmd set without a Runner to execute it in")
		}
		mappings, err := o.mounter.ShardMappings(mounted, p.Root)
		if err != nil {
			return pack.Result{}, fmt.Errorf("computing shard mappings: %w", err)
		}
		if err := req.Runner.Run(ctx, req.RunCmd, req.Env, mappings); err != nil {
			return pack.Result{}, fmt.Errorf("build command: %w", err)
		}
	}

	return pack.Package(p.DestDir(req.Target), req.OutBase, req.Version, req.Target, req.Force)
}

// buildNonce gives every build a distinct workspace directory so concurrent
// builds in separate processes cannot collide on disk (spec.md §5).
func buildNonce() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("build-%d", os.Getpid())
	}
	return fmt.Sprintf("build-%d-%s", os.Getpid(), hex.EncodeToString(buf))
}
