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

	"github.com/rdimitrov/go-tuf-simulator/metadata"
)

// RepositoryTarget contains the actual target data and the related target
// file metadata
type RepositoryTarget struct {
	Data       []byte
	TargetFile *metadata.TargetFiles
}

// BlobStore holds the current raw content for each published target path.
// Only the current content is kept, the targets metadata history is what
// retains each version's hash and length.
//
// BlobStore does no locking of its own, the owning Repository serializes
// access.
type BlobStore struct {
	files map[string]RepositoryTarget
}

// NewBlobStore returns an empty BlobStore
func NewBlobStore() *BlobStore {
	return &BlobStore{
		files: map[string]RepositoryTarget{},
	}
}

// Put creates or replaces the content stored for path
func (s *BlobStore) Put(path string, data []byte, targetFile *metadata.TargetFiles) {
	s.files[path] = RepositoryTarget{
		Data:       data,
		TargetFile: targetFile,
	}
}

// Get returns the current content for path
func (s *BlobStore) Get(path string) ([]byte, error) {
	target, ok := s.files[path]
	if !ok {
		return nil, ErrNotFound{Msg: fmt.Sprintf("no target %s", path)}
	}
	return target.Data, nil
}
