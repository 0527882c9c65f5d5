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

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvParsesRecognisedVariables(t *testing.T) {
	cfg := FromEnv([]string{
		"STORAGE_DIR=/tmp/sandboxcc",
		"AUTOMATIC_APPLE=true",
		"RUNNER=docker",
		"ALLOW_ECRYPTFS=1",
		"USE_CCACHE=true",
	})
	assert.Equal(t, "/tmp/sandboxcc", cfg.StorageDir)
	assert.True(t, cfg.AutomaticApple)
	assert.Equal(t, RunnerDocker, cfg.Runner)
	assert.True(t, cfg.AllowEcryptfs)
	assert.True(t, cfg.UseCcache)
}

func TestFromEnvResetsUnrecognisedRunner(t *testing.T) {
	cfg := FromEnv([]string{"RUNNER=not-a-real-runner"})
	assert.Equal(t, RunnerNone, cfg.Runner)
}

func TestSquashfsDefaultOffUnderDocker(t *testing.T) {
	cfg := FromEnv([]string{"RUNNER=docker", "CI=true"})
	assert.False(t, cfg.UseSquashfs)
}

func TestSquashfsDefaultOnUnderCI(t *testing.T) {
	cfg := FromEnv([]string{"CI=true"})
	assert.True(t, cfg.UseSquashfs)
}

func TestSquashfsExplicitValueWins(t *testing.T) {
	cfg := FromEnv([]string{"RUNNER=docker", "USE_SQUASHFS=true"})
	assert.True(t, cfg.UseSquashfs)
}

func TestAppleEULASentinelPathUnderStorageDir(t *testing.T) {
	cfg := Config{StorageDir: "/var/lib/sandboxcc"}
	assert.Equal(t, "/var/lib/sandboxcc/apple-sdk-eula-accepted", cfg.AppleEULASentinelPath())
}
