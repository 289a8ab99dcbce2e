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
	"sync/atomic"
)

// Token is the write-once cancellation flag shared between the signal
// handler and the trace pump checkpoint. Once set, the token remains set,
// and subsequent Set calls are no-ops. The token is the only state shared
// across threads, so atomic load/store semantics suffice and no locking
// is required.
type Token struct {
	requested uint32
}

// NewToken creates an unset cancellation token.
func NewToken() *Token { return &Token{} }

// Set requests cancellation. Returns true if this call flipped the token,
// false if cancellation was already requested.
func (t *Token) Set() bool {
	return atomic.CompareAndSwapUint32(&t.requested, 0, 1)
}

// Requested reports whether cancellation has been requested.
func (t *Token) Requested() bool {
	return atomic.LoadUint32(&t.requested) == 1
}
