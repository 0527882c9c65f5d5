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
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

func (f *FileSource) setup(ws Workspace) error {
	dest := ws.TargetDir(f.Target)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return copyFile(f.Path, dest)
}

// excludedDirPatterns are doublestar patterns skipped while mirroring a
// Directory source.
var excludedDirPatterns = []string{"**/.git/**", "**/.git", "**/.svn/**"}

func (d *DirectorySource) setup(ws Workspace) error {
	dest := ws.TargetDir(d.Target)
	return copyDirectory(d.Path, dest, d.FollowSymlinks)
}

func copyDirectory(src, dest string, followSymlinks bool) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return os.MkdirAll(dest, 0o755)
		}
		if excluded(rel) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		target := filepath.Join(dest, rel)

		if info.Mode()&os.ModeSymlink != 0 {
			if followSymlinks {
				resolved, err := filepath.EvalSymlinks(path)
				if err != nil {
					return err
				}
				fi, err := os.Stat(resolved)
				if err != nil {
					return err
				}
				if fi.IsDir() {
					return copyDirectory(resolved, target, true)
				}
				return copyFile(resolved, target)
			}
			linkDest, err := os.Readlink(path)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			_ = os.Remove(target)
			return os.Symlink(linkDest, target)
		}
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm())
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return copyFile(path, target)
	})
}

func excluded(rel string) bool {
	for _, pattern := range excludedDirPatterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

func (g *GitSource) setup(ws Workspace) error {
	target := ws.TargetDir(gitTargetName(g.Path))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	cloneCmd := exec.Command("git", "clone", g.Path, target)
	cloneCmd.Stderr = os.Stderr
	if err := cloneCmd.Run(); err != nil {
		return err
	}
	checkoutCmd := exec.Command("git", "checkout", g.Commit)
	checkoutCmd.Dir = target
	checkoutCmd.Stderr = os.Stderr
	return checkoutCmd.Run()
}

func (p *PatchSource) setup(ws Workspace) error {
	dir := ws.PatchesDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, p.Name), p.Payload, 0o644)
}
