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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccforge/sandbox/internal/errs"
)

// SymlinkEntry records one symlink created by InstallSymlinkTree, so
// cleanup (Unsymlink) can reverse it without re-walking the artifact tree
// (spec.md §9: "store the applied diff... under metadir").
type SymlinkEntry struct {
	// Dest is the path created under destdir (absolute).
	Dest string `json:"dest"`
	// IsDir records whether Dest is a copy of a symlink found in the source
	// tree (true; whatever that symlink points at) or is a per-file relative
	// symlink to a regular file (false).
	IsDir bool `json:"is_dir"`
}

// InstallSymlinkTree mirrors artifactDir's structure into destDir: real
// directories are mkdir'd, a symlinked directory in the source becomes the
// same symlink in the destination, and every regular file becomes a
// relative symlink from destination to source (spec.md §4.6 step 5).
//
// If a destination path already exists: if sizes and SHA-256s match, it is
// skipped silently (idempotent re-install); otherwise a warning is logged
// naming the artifact currently occupying that path (found by climbing
// realpath until ".../artifacts/<hash>"), and errs.ErrSymlinkConflict is
// never returned as fatal -- spec.md §7 marks it warning-only when hashes
// match, and non-fatal-but-logged otherwise too, since the tree may simply
// be shared by two dependencies that happen to both provide the same path.
func InstallSymlinkTree(artifactDir, destDir string, verbose bool) ([]SymlinkEntry, error) {
	var entries []SymlinkEntry
	err := filepath.Walk(artifactDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(artifactDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return os.MkdirAll(destDir, 0o755)
		}
		dest := filepath.Join(destDir, rel)

		if info.Mode()&os.ModeSymlink != 0 {
			linkTarget, err := os.Readlink(path)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return err
			}
			if resolved, ok := conflictingArtifact(dest); ok {
				if verbose {
					log.Printf("depinstall: %s occupied by artifact %s, overwriting symlinked dir entry", dest, resolved)
				}
				_ = os.RemoveAll(dest)
			}
			if err := os.Symlink(linkTarget, dest); err != nil {
				return err
			}
			entries = append(entries, SymlinkEntry{Dest: dest, IsDir: true})
			return nil
		}
		if info.IsDir() {
			return os.MkdirAll(dest, info.Mode().Perm())
		}

		rel2, err := filepath.Rel(filepath.Dir(dest), path)
		if err != nil {
			return err
		}
		if existing, ok, conflict := checkExisting(dest, path); ok {
			if conflict {
				occupier, _ := conflictingArtifact(existing)
				log.Printf("depinstall: %v: %s already provided by %s, skipping", errs.ErrSymlinkConflict, dest, occupier)
				return nil
			}
			return nil // identical content already present: skip silently
		}
		if err := os.Symlink(rel2, dest); err != nil {
			return err
		}
		entries = append(entries, SymlinkEntry{Dest: dest, IsDir: false})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// checkExisting reports (path, exists, conflict). conflict is true only
// when dest exists with content that differs from src (size or SHA-256
// mismatch); a matching dest is (dest, true, false).
func checkExisting(dest, src string) (string, bool, bool) {
	if _, err := os.Lstat(dest); err != nil {
		return "", false, false
	}
	destInfo, err := os.Stat(dest)
	if err != nil {
		return dest, true, true
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return dest, true, true
	}
	if destInfo.Size() != srcInfo.Size() {
		return dest, true, true
	}
	destSum, err1 := fileSHA256(dest)
	srcSum, err2 := fileSHA256(src)
	if err1 != nil || err2 != nil || destSum != srcSum {
		return dest, true, true
	}
	return dest, true, false
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// conflictingArtifact climbs path's realpath parents until it finds an
// ".../artifacts/<hash>" segment, returning that hash.
func conflictingArtifact(path string) (string, bool) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	segments := strings.Split(filepath.ToSlash(resolved), "/")
	for i, seg := range segments {
		if seg == "artifacts" && i+1 < len(segments) {
			return segments[i+1], true
		}
	}
	return "", false
}

// SaveManifest records entries to manifestPath as JSON.
func SaveManifest(manifestPath string, entries []SymlinkEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(manifestPath, data, 0o644)
}

// LoadManifest reads entries previously recorded by SaveManifest.
func LoadManifest(manifestPath string) ([]SymlinkEntry, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, err
	}
	var entries []SymlinkEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Unsymlink reverses InstallSymlinkTree using the recorded manifest instead
// of re-scanning artifactDir (spec.md §9). Real directories are left
// untouched for the audit step; only the recorded symlinks are removed.
func Unsymlink(entries []SymlinkEntry) error {
	for _, e := range entries {
		if err := os.Remove(e.Dest); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
