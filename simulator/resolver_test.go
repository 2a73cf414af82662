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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdimitrov/go-tuf-simulator/metadata"
)

func TestResolveMetadataLatest(t *testing.T) {
	repo, err := New()
	require.NoError(t, err)
	require.NoError(t, repo.Publish("file1.txt", []byte("hello")))

	doc, err := repo.ResolveMetadata(metadata.TARGETS, LatestVersion())
	require.NoError(t, err)
	assert.Equal(t, int64(2), doc.Version)
	assert.Equal(t, metadata.TARGETS, doc.Role)

	// latest always tracks the head of the history
	exact, err := repo.ResolveMetadata(metadata.TARGETS, ExactVersion(2))
	require.NoError(t, err)
	assert.Equal(t, doc.Bytes, exact.Bytes)
}

func TestResolveMetadataExact(t *testing.T) {
	repo, err := New()
	require.NoError(t, err)
	require.NoError(t, repo.Publish("file1.txt", []byte("hello")))

	doc, err := repo.ResolveMetadata(metadata.TARGETS, ExactVersion(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Version)
}

func TestResolveMetadataNotFound(t *testing.T) {
	repo, err := New()
	require.NoError(t, err)

	// zero is an exact version, not an alias for latest
	_, err = repo.ResolveMetadata(metadata.TARGETS, ExactVersion(0))
	assert.ErrorAs(t, err, &ErrNotFound{})
	_, err = repo.ResolveMetadata(metadata.TARGETS, ExactVersion(-1))
	assert.ErrorAs(t, err, &ErrNotFound{})
	_, err = repo.ResolveMetadata(metadata.TARGETS, ExactVersion(2))
	assert.ErrorAs(t, err, &ErrNotFound{})
	_, err = repo.ResolveMetadata("nosuchrole", LatestVersion())
	assert.ErrorAs(t, err, &ErrNotFound{})
}
