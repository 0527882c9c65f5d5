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

// Package catalog implements the shard catalog (C2): it decodes the static
// toolchain-shard manifest (an "Artifacts.toml" analogue) into CompilerShard
// values and resolves each one's on-disk storage path via the
// content-addressed artifact store.
package catalog

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/ccforge/sandbox/internal/errs"
	"github.com/ccforge/sandbox/platform"
)

// ShardName is the closed vocabulary of toolchain-fragment kinds.
type ShardName string

const (
	Rootfs          ShardName = "Rootfs"
	PlatformSupport ShardName = "PlatformSupport"
	GCCBootstrap    ShardName = "GCCBootstrap"
	LLVMBootstrap   ShardName = "LLVMBootstrap"
	RustBase        ShardName = "RustBase"
	RustToolchain   ShardName = "RustToolchain"
	Go              ShardName = "Go"
)

// ArchiveKind is how a shard's bytes are packaged.
type ArchiveKind string

const (
	Unpacked ArchiveKind = "unpacked"
	Squashfs ArchiveKind = "squashfs"
)

// CompilerShard is one toolchain fragment: a compiler, sysroot, or rootfs
// packaged as a content-addressed artifact. Host and target are always
// stored in ABI-agnostic form: ABI decisions live at selection time (C3),
// not in the shard's identity.
type CompilerShard struct {
	Name        ShardName
	Version     string
	Host        platform.Platform
	Target      *platform.Platform // nil for host-only shards (Rootfs, RustBase, Go)
	ArchiveKind ArchiveKind
}

// ArtifactName reconstructs the manifest filename stem this shard was
// decoded from (sans extension), used both for re-deriving the mount
// destination (C4) and for cache-directory naming.
func (s CompilerShard) ArtifactName() string {
	name := string(s.Name)
	if s.Target != nil {
		name += "-" + platform.AAtriplet(*s.Target)
	}
	return fmt.Sprintf("%s.%s.%s", name, s.Version, platform.AAtriplet(s.Host))
}

// manifestEntryPattern matches manifest filenames of the form:
//
//	<name>[-<target>].<version>.<host>.<ext>
//
// Entries that don't match are silently skipped (spec.md §4.2).
var manifestEntryPattern = regexp.MustCompile(
	`^(?P<name>[^-]+)(-(?P<target>.+))?\.(?P<version>v[\d.]+(?:-[^.]+)?)\.(?P<host>[^0-9].+-.+)\.(?P<ext>\w+)$`,
)

// ManifestEntry is one decoded line of the static shard manifest, prior to
// being resolved into a CompilerShard (which needs host/target Platform
// parsing, done by the caller via Parse).
type ManifestEntry struct {
	Raw    string
	Name   string
	Target string // aatriplet string, empty if shard is host-only
	Version string
	Host   string // aatriplet string
	Ext    string
}

// ParseManifestLine decodes a single manifest filename. It returns
// (entry, true) on a match, or (ManifestEntry{}, false) if the line doesn't
// match manifestEntryPattern -- callers should skip non-matches silently.
func ParseManifestLine(line string) (ManifestEntry, bool) {
	m := manifestEntryPattern.FindStringSubmatch(line)
	if m == nil {
		return ManifestEntry{}, false
	}
	groups := map[string]string{}
	for i, name := range manifestEntryPattern.SubexpNames() {
		if name != "" {
			groups[name] = m[i]
		}
	}
	return ManifestEntry{
		Raw:     line,
		Name:    groups["name"],
		Target:  groups["target"],
		Version: groups["version"],
		Host:    groups["host"],
		Ext:     groups["ext"],
	}, true
}

// archiveKindFromExt maps a manifest entry's file extension to an
// ArchiveKind. Unrecognised extensions are treated as Unpacked directory
// trees (the common case for locally-materialised shards).
func archiveKindFromExt(ext string) ArchiveKind {
	if ext == "squashfs" {
		return Squashfs
	}
	return Unpacked
}

// Store resolves a shard's artifact name to its on-disk storage path. It is
// satisfied by the content-addressed artifact store, an external
// collaborator of this module.
type Store interface {
	Path(artifactName string) (string, bool)
}

// Catalog enumerates available toolchain shards and resolves name->storage
// path. It is built once from a manifest and is safe for concurrent read
// access; it caches its decoded shard list after first use, mirroring
// spec.md's "list is cached process-wide after first use".
type Catalog struct {
	store  Store
	once   sync.Once
	shards []CompilerShard
	build  func() ([]CompilerShard, error)
	err    error
}

// New constructs a Catalog that lazily runs build, once, on the first call
// to All/Path/Has.
func New(store Store, build func() ([]CompilerShard, error)) *Catalog {
	return &Catalog{store: store, build: build}
}

func (c *Catalog) ensure() error {
	c.once.Do(func() {
		c.shards, c.err = c.build()
	})
	return c.err
}

// All returns every CompilerShard decoded from the manifest.
func (c *Catalog) All() ([]CompilerShard, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	return c.shards, nil
}

// Path resolves shard's storage path via the content-addressed artifact
// store, returning errs.ErrShardUnregistered if the store has no entry
// for it (spec.md §4.2).
func (c *Catalog) Path(shard CompilerShard) (string, error) {
	if err := c.ensure(); err != nil {
		return "", err
	}
	path, ok := c.store.Path(shard.ArtifactName())
	if !ok {
		return "", fmt.Errorf("%w: %s", errs.ErrShardUnregistered, shard.ArtifactName())
	}
	return path, nil
}

// Query filters All() for a matching shard, used by the selector to probe
// whether a given (name, version, host, target) triple is registered.
type Query struct {
	Name    ShardName
	Version string
	Host    platform.Platform
	Target  *platform.Platform
}

// Has reports whether q is present in the catalog. Unregistered shards
// reported by Has never error: ShardUnregistered is reserved for Resolve,
// which callers use when they need the actual CompilerShard back.
func (c *Catalog) Has(q Query) bool {
	_, err := c.Resolve(q)
	return err == nil
}

// Resolve returns the CompilerShard matching q, or errs.ErrShardUnregistered
// if none is present.
func (c *Catalog) Resolve(q Query) (CompilerShard, error) {
	shards, err := c.All()
	if err != nil {
		return CompilerShard{}, err
	}
	for _, s := range shards {
		if s.Name != q.Name || s.Version != q.Version {
			continue
		}
		if !platform.Match(s.Host, q.Host) {
			continue
		}
		if (s.Target == nil) != (q.Target == nil) {
			continue
		}
		if s.Target != nil && !platform.Match(*s.Target, *q.Target) {
			continue
		}
		return s, nil
	}
	return CompilerShard{}, fmt.Errorf("%w: %s %s host=%s", errs.ErrShardUnregistered, q.Name, q.Version, platform.Triplet(q.Host))
}
