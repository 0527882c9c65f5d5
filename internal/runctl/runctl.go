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

// Package runctl wraps an external build-command invocation with
// cooperative, context-based cancellation: on cancellation it stops
// spawning new work and escalates the active process from SIGTERM to
// SIGKILL (spec.md §5).
package runctl

import (
	"context"
	"errors"
	"os/exec"
	"syscall"
	"time"

	"github.com/ccforge/sandbox/mount"
)

// ErrCancelled is returned by Exec when ctx was cancelled while the child
// process was running, regardless of whether SIGTERM or SIGKILL ended it.
var ErrCancelled = errors.New("runctl: execution cancelled")

// Runner is the external collaborator that actually drives a build
// invocation inside the mounted sandbox (spec.md §6: "Run(cmd, env,
// mounts)"). It is satisfied by a namespace/container driver in production
// and by the plain os/exec-based ExecRunner in the example entrypoint.
// mounts is the ordered (mountPath, sandboxPath) list Mounter.ShardMappings
// produced for the build, which the Runner must bind into the sandbox
// before the command sees the wrapped compiler paths the toolchain files
// reference.
type Runner interface {
	Run(ctx context.Context, cmd []string, env []string, mounts []mount.ShardMapping) error
}

// GracePeriod is how long Exec waits after SIGTERM before escalating to
// SIGKILL.
var GracePeriod = 5 * time.Second

// Exec runs name/args as a child process, honoring ctx cancellation: on
// cancellation it delivers SIGTERM, waits up to GracePeriod, then SIGKILL
// if the process hasn't exited (spec.md §5, step 2 of cooperative
// cancellation). It never starts the process at all if ctx is already
// done, satisfying step 1 ("stop spawning new child processes").
func Exec(ctx context.Context, name string, args ...string) error {
	return ExecEnv(ctx, nil, name, args...)
}

// ExecEnv behaves like Exec but runs the child with env as its environment
// (inherited from the current process when env is nil), so a Runner can
// pass through variables that point the command at the bound sandbox paths.
func ExecEnv(ctx context.Context, env []string, name string, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cmd := exec.Command(name, args...)
	cmd.Env = env

	if err := cmd.Start(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return terminateThenKill(cmd, done)
	}
}

func terminateThenKill(cmd *exec.Cmd, done chan error) error {
	_ = cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-done:
		return ErrCancelled
	case <-time.After(GracePeriod):
		_ = cmd.Process.Kill()
		<-done
		return ErrCancelled
	}
}
