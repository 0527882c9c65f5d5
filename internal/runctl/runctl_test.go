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

package runctl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunsToCompletion(t *testing.T) {
	err := Exec(context.Background(), "true")
	require.NoError(t, err)
}

func TestExecReturnsUnderlyingErrorOnFailure(t *testing.T) {
	err := Exec(context.Background(), "false")
	assert.Error(t, err)
}

func TestExecRefusesToStartWithDoneContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Exec(ctx, "sleep", "1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecCancelsRunningProcess(t *testing.T) {
	orig := GracePeriod
	GracePeriod = 50 * time.Millisecond
	defer func() { GracePeriod = orig }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Exec(ctx, "sleep", "5")
	assert.ErrorIs(t, err, ErrCancelled)
}
