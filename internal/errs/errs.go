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

// Package errs defines the sentinel error kinds shared across the sandbox
// orchestrator. Callers distinguish kinds with errors.Is; detail is attached
// with fmt.Errorf("%w: ...", errs.Xxx) at the call site, not by subclassing.
package errs

import "errors"

var (
	ErrInvalidTriplet             = errors.New("invalid triplet")
	ErrInvalidKey                 = errors.New("invalid extension key")
	ErrImpossibleABI              = errors.New("no toolchain satisfies requested ABI")
	ErrShardUnregistered          = errors.New("shard not registered in catalog")
	ErrShardArtifactMissing       = errors.New("shard artifact missing from store")
	ErrMountFailed                = errors.New("mount failed")
	ErrUnmountFailed              = errors.New("unmount failed")
	ErrSDKNotAccepted             = errors.New("platform SDK EULA not accepted")
	ErrArchiveFormatUnknown       = errors.New("unknown archive format")
	ErrOutputExists               = errors.New("output artifact already exists")
	ErrDependencyResolutionFailed = errors.New("dependency resolution failed")
	ErrSymlinkConflict            = errors.New("symlink destination occupied by another artifact")
	ErrStdlibResolutionFailed     = errors.New("stdlib artifact resolution failed")
)
