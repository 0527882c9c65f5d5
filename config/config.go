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

// Package config builds the single immutable Config value read from the
// process environment once and passed explicitly down the call graph
// (spec.md §9), instead of scattering os.Getenv calls (or mutable
// process-wide globals) through the component packages.
package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Runner identifies which sandbox executor process this build runs under.
// An unrecognised RUNNER value is warned about and reset to RunnerNone.
type Runner string

const (
	RunnerNone       Runner = ""
	RunnerUserNS     Runner = "userns"
	RunnerPrivileged Runner = "privileged"
	RunnerDocker     Runner = "docker"
)

// Config is the process-wide immutable configuration, built once from the
// environment by FromEnv and passed explicitly to the constructors that
// need it (mount.New, sandbox.New).
type Config struct {
	StorageDir      string
	AutomaticApple  bool
	Runner          Runner
	UseSquashfs     bool
	AllowEcryptfs   bool
	UseCcache       bool
	Verbose         bool
	// CI reflects whether we appear to be running under a CI system,
	// used only to pick USE_SQUASHFS's default.
	CI bool
}

// FromEnv builds a Config by reading the recognised environment variables
// (spec.md §6): STORAGE_DIR, AUTOMATIC_APPLE, RUNNER, USE_SQUASHFS,
// ALLOW_ECRYPTFS, USE_CCACHE.
func FromEnv(environ []string) Config {
	env := toMap(environ)
	cfg := Config{
		StorageDir:     valueOr(env, "STORAGE_DIR", defaultStorageDir()),
		AutomaticApple: boolValue(env, "AUTOMATIC_APPLE", false),
		Runner:         parseRunner(env["RUNNER"]),
		AllowEcryptfs:  boolValue(env, "ALLOW_ECRYPTFS", false),
		UseCcache:      boolValue(env, "USE_CCACHE", false),
		Verbose:        boolValue(env, "VERBOSE", false),
		CI:             env["CI"] != "",
	}
	cfg.UseSquashfs = squashfsDefault(env, cfg)
	return cfg
}

func toMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if idx := strings.IndexByte(kv, '='); idx >= 0 {
			m[kv[:idx]] = kv[idx+1:]
		}
	}
	return m
}

func valueOr(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok && v != "" {
		return v
	}
	return fallback
}

func boolValue(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok {
		return fallback
	}
	return strings.EqualFold(v, "true") || v == "1"
}

func parseRunner(v string) Runner {
	switch Runner(v) {
	case RunnerNone, RunnerUserNS, RunnerPrivileged, RunnerDocker:
		return Runner(v)
	default:
		log.Printf("config: unrecognised RUNNER=%q, resetting to empty", v)
		return RunnerNone
	}
}

// squashfsDefault implements spec.md §6's default: on under CI or the
// privileged runner, off under Docker, explicit value otherwise.
func squashfsDefault(env map[string]string, cfg Config) bool {
	if v, ok := env["USE_SQUASHFS"]; ok {
		return boolValue(env, "USE_SQUASHFS", false) || v == "1"
	}
	if cfg.Runner == RunnerDocker {
		return false
	}
	return cfg.CI || cfg.Runner == RunnerPrivileged
}

func defaultStorageDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "sandbox-storage")
	}
	return filepath.Join(home, ".cache", "sandboxcc")
}

// AppleEULASentinelPath is the persistent sentinel file recording prior
// interactive acceptance of the MacOS SDK EULA.
func (c Config) AppleEULASentinelPath() string {
	return filepath.Join(c.StorageDir, "apple-sdk-eula-accepted")
}

// CcacheDir is the ccache directory under the storage root, only meaningful
// when UseCcache is set.
func (c Config) CcacheDir() string {
	return filepath.Join(c.StorageDir, "ccache")
}
