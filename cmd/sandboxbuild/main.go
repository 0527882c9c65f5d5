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

// Command sandboxbuild is an example entrypoint for the cross-compilation
// sandbox orchestrator: it resolves a shard manifest and a content-addressed
// artifact store from plain directories on disk, then runs one build.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ccforge/sandbox/catalog"
	"github.com/ccforge/sandbox/config"
	"github.com/ccforge/sandbox/internal/collections"
	"github.com/ccforge/sandbox/internal/runctl"
	"github.com/ccforge/sandbox/mount"
	"github.com/ccforge/sandbox/platform"
	"github.com/ccforge/sandbox/sandbox"
	"github.com/ccforge/sandbox/selector"
	"github.com/ccforge/sandbox/stage"
)

// dirStore resolves an artifact name to <root>/<artifactName>, the layout a
// locally-materialised content-addressed store uses (spec.md §2).
type dirStore struct{ root string }

func (s dirStore) Path(artifactName string) (string, bool) {
	p := filepath.Join(s.root, artifactName)
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}

// Ensure satisfies depinstall.Store. This example entrypoint expects the
// dependency store to be pre-populated out of band; it never fabricates
// artifacts itself.
func (s dirStore) Ensure(hash string) error {
	if _, ok := s.Path(hash); !ok {
		return fmt.Errorf("dependency artifact %s not present in %s", hash, s.root)
	}
	return nil
}

// ExecRunner is the minimal runctl.Runner this example entrypoint wires in:
// it runs the build command with plain os/exec, with no namespace or
// container sandboxing of its own (spec.md §1 assumes that isolation is an
// opaque external runner's job). It still logs the shard mappings Build
// computed, so the binding the real runner is expected to perform -- the
// wrapped compilers' /opt/... paths the toolchain files reference -- is at
// least visible when exercising this command standalone.
type ExecRunner struct{ Verbose bool }

func (r ExecRunner) Run(ctx context.Context, cmd []string, env []string, mounts []mount.ShardMapping) error {
	if r.Verbose {
		for _, m := range mounts {
			log.Printf("sandboxbuild: bind %s -> %s", m.MountPath, m.SandboxPath)
		}
	}
	return runctl.ExecEnv(ctx, env, cmd[0], cmd[1:]...)
}

func main() {
	var (
		manifestPath = flag.String("manifest", "", "Path to the shard manifest file")
		artifactDir  = flag.String("artifact-dir", "", "Content-addressed toolchain shard store")
		depDir       = flag.String("dep-dir", "", "Content-addressed dependency artifact store")
		targetFlag   = flag.String("target", "", "Target triplet, e.g. x86_64-linux-gnu")
		hostFlag     = flag.String("host", "", "Host triplet (defaults to the universal musl host)")
		compilers    = flag.String("compilers", "", "Comma-separated compiler families: c,rust,go")
		outBase      = flag.String("out", "", "Output artifact base path (without extension)")
		version      = flag.String("version", "0.0.0", "Version string embedded in the output filename")
		force        = flag.Bool("force", false, "Overwrite an existing output artifact")
		runCmd       = flag.String("run", "", "Build command to run inside the staged sandbox")
		verbose      = flag.Bool("v", false, "Verbose")
	)
	flag.Parse()

	if err := run(*manifestPath, *artifactDir, *depDir, *targetFlag, *hostFlag, *compilers, *outBase, *version, *runCmd, *force, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "sandboxbuild:", err)
		os.Exit(1)
	}
}

func run(manifestPath, artifactDir, depDir, targetFlag, hostFlag, compilersFlag, outBase, version, runCmd string, force, verbose bool) error {
	if manifestPath == "" || artifactDir == "" || outBase == "" || targetFlag == "" {
		return fmt.Errorf("-manifest, -artifact-dir, -target and -out are required")
	}

	manifest, err := os.Open(manifestPath)
	if err != nil {
		return err
	}
	defer manifest.Close()
	shards, err := catalog.DecodeManifest(manifest)
	if err != nil {
		return fmt.Errorf("decoding manifest: %w", err)
	}

	cat := catalog.New(dirStore{root: artifactDir}, func() ([]catalog.CompilerShard, error) {
		return shards, nil
	})

	target, err := platform.Parse(targetFlag)
	if err != nil {
		return fmt.Errorf("parsing -target: %w", err)
	}
	host := platform.New(platform.Linux, platform.X86_64).WithLibc(platform.Musl)
	if hostFlag != "" {
		host, err = platform.Parse(hostFlag)
		if err != nil {
			return fmt.Errorf("parsing -host: %w", err)
		}
	}

	wanted := collections.Set[selector.Compiler]{}
	for _, c := range strings.Split(compilersFlag, ",") {
		c = strings.TrimSpace(c)
		if c != "" {
			wanted.Add(selector.Compiler(c))
		}
	}

	cfg := config.FromEnv(os.Environ())
	cfg.Verbose = cfg.Verbose || verbose

	depStore := dirStore{root: depDir}
	orch := sandbox.New(cfg, cat, depStore)

	req := sandbox.Request{
		Host:      host,
		Target:    target,
		Compilers: wanted,
		OutBase:   outBase,
		Version:   version,
		Force:     force,
	}
	if runCmd != "" {
		req.Sources = []stage.Source{{Directory: &stage.DirectorySource{Path: ".", Target: "src"}}}
		req.RunCmd = strings.Fields(runCmd)
		req.Env = os.Environ()
		req.Runner = ExecRunner{Verbose: cfg.Verbose}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := orch.Build(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("packaged %s (sha256=%s treehash=%s)\n", result.Path, result.SHA256, result.TreeHash)
	return nil
}
