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

//go:build linux

package mount

import "syscall"

// ecryptfsSuperMagic is Linux's f_type value for an eCryptfs mount
// (linux/magic.h ECRYPTFS_SUPER_MAGIC).
const ecryptfsSuperMagic = 0xf15f

// isEcryptfs reports whether path resolves onto an eCryptfs-encrypted
// filesystem, where loop-mounting a squashfs image commonly fails with an
// opaque EIO instead of a clear diagnostic (spec.md §6's ALLOW_ECRYPTFS).
// It is a package-level var so tests can stub it without a real eCryptfs
// mount.
var isEcryptfs = func(path string) bool {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return false
	}
	return int64(st.Type) == ecryptfsSuperMagic
}
