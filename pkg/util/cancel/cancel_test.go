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

package cancel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSetOnce(t *testing.T) {
	tok := NewToken()
	require.False(t, tok.Requested())
	require.True(t, tok.Set())
	require.True(t, tok.Requested())
	// repeated set attempts are no-ops and the token remains set
	assert.False(t, tok.Set())
	assert.True(t, tok.Requested())
}

func TestTokenConcurrentSet(t *testing.T) {
	tok := NewToken()
	var wg sync.WaitGroup
	flips := make(chan bool, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			flips <- tok.Set()
		}()
	}
	wg.Wait()
	close(flips)
	var n int
	for flipped := range flips {
		if flipped {
			n++
		}
	}
	assert.Equal(t, 1, n)
	assert.True(t, tok.Requested())
}
