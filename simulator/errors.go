// Copyright 2024 The Update Framework Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License
//
// SPDX-License-Identifier: Apache-2.0
//

package simulator

import (
	"fmt"
)

// ErrNotFound - the requested role, metadata version or target file does not
// exist in the repository. Surfaced to HTTP callers as a 404.
type ErrNotFound struct {
	Msg string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("not found: %s", e.Msg)
}

// ErrSequence - an append would break the contiguous, append-only version
// history of a role. A publish attempt hitting this error is abandoned; the
// previously stored state stays valid and servable.
type ErrSequence struct {
	Msg string
}

func (e ErrSequence) Error() string {
	return fmt.Sprintf("sequence error: %s", e.Msg)
}
