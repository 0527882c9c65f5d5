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
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"
)

// Store is the global content-addressed artifact store: a pure
// content-addressed directory with no locking beyond atomic rename on
// finalisation (spec.md §9). It is an external collaborator; this module
// only reads it (Path) and asks it to materialise new hashes (Ensure).
type Store interface {
	// Path returns the on-disk tree for hash if already installed.
	Path(hash string) (string, bool)
	// Ensure installs hash into the store if absent. Concurrent producers of
	// the same hash are tolerated (spec.md §5): Ensure must itself be safe
	// to call concurrently for the same hash from multiple processes; the
	// in-process dedup below only protects against redundant same-process
	// calls.
	Ensure(hash string) error
}

// Installer installs resolved dependency artifacts into a build's prefix.
type Installer struct {
	store Store
	group singleflight.Group
}

// New constructs an Installer backed by store.
func New(store Store) *Installer {
	return &Installer{store: store}
}

// EnsureArtifactInstalled installs hash into the global store if absent.
// It is idempotent and, within this process, deduplicates concurrent
// callers racing to produce the same hash via singleflight -- spec.md §5:
// "ensure_artifact_installed is idempotent and tolerant of concurrent
// writers racing to produce the same tree hash."
func (in *Installer) EnsureArtifactInstalled(hash string) error {
	_, err, _ := in.group.Do(hash, func() (any, error) {
		if _, ok := in.store.Path(hash); ok {
			return nil, nil
		}
		return nil, in.store.Ensure(hash)
	})
	return err
}

// CopyArtifact copies hash's tree from the global store to
// destDir (normally <prefix>/<triplet>/artifacts/<hash>), per spec.md §4.6
// step 4: "This copy (not symlink) is required to insulate the global store
// from any build-script misbehaviour."
func (in *Installer) CopyArtifact(hash, destDir string) error {
	if err := in.EnsureArtifactInstalled(hash); err != nil {
		return err
	}
	src, ok := in.store.Path(hash)
	if !ok {
		return os.ErrNotExist
	}
	if _, err := os.Stat(destDir); err == nil {
		return nil // already copied; copy is idempotent
	}
	return copyTree(src, destDir)
}

func copyTree(src, dest string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if info.Mode()&os.ModeSymlink != 0 {
			linkDest, err := os.Readlink(path)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			return os.Symlink(linkDest, target)
		}
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm())
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return copyFilePreservingMode(path, target, info.Mode().Perm())
	})
}

func copyFilePreservingMode(src, dest string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
