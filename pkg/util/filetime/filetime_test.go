/*
 * Copyright 2024-2025 by Procwatch Authors
 * All Rights Reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package filetime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToEpoch(t *testing.T) {
	// 2021-03-01 10:15:00 UTC expressed in 100ns intervals since 1601
	ts := uint64(132590673000000000)
	epoch := ToEpoch(ts).UTC()
	assert.Equal(t, 2021, epoch.Year())
	assert.Equal(t, time.March, epoch.Month())
	assert.Equal(t, 1, epoch.Day())
}

func TestFromTimeRoundtrip(t *testing.T) {
	now := time.Now().Truncate(100 * time.Nanosecond)
	require.True(t, ToEpoch(FromTime(now)).Equal(now))
}
