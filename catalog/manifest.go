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

package catalog

import (
	"bufio"
	"io"
	"strings"

	"github.com/ccforge/sandbox/platform"
)

// DecodeManifest reads one shard-manifest filename per line (blank lines and
// '#'-prefixed comments ignored) and decodes each into a CompilerShard.
// Lines that don't match manifestEntryPattern are silently skipped, per
// spec.md §4.2.
func DecodeManifest(r io.Reader) ([]CompilerShard, error) {
	var shards []CompilerShard
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entry, ok := ParseManifestLine(line)
		if !ok {
			continue
		}
		shard, ok := decodeShard(entry)
		if !ok {
			continue
		}
		shards = append(shards, shard)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return shards, nil
}

func decodeShard(entry ManifestEntry) (CompilerShard, bool) {
	host, err := platform.Parse(entry.Host)
	if err != nil {
		return CompilerShard{}, false
	}
	shard := CompilerShard{
		Name:        ShardName(entry.Name),
		Version:     entry.Version,
		Host:        host.AbiAgnostic(),
		ArchiveKind: archiveKindFromExt(entry.Ext),
	}
	if entry.Target != "" {
		target, err := platform.Parse(entry.Target)
		if err != nil {
			return CompilerShard{}, false
		}
		target = target.AbiAgnostic()
		shard.Target = &target
	}
	return shard, true
}
