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

func TestRoleStoreAppendContiguous(t *testing.T) {
	store := NewRoleStore()
	assert.Equal(t, int64(0), store.MaxVersion(metadata.TARGETS))

	require.NoError(t, store.Append(Document{Role: metadata.TARGETS, Version: 1, Bytes: []byte("v1")}))
	require.NoError(t, store.Append(Document{Role: metadata.TARGETS, Version: 2, Bytes: []byte("v2")}))
	assert.Equal(t, int64(2), store.MaxVersion(metadata.TARGETS))

	latest, err := store.Latest(metadata.TARGETS)
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest.Version)
	assert.Equal(t, []byte("v2"), latest.Bytes)
}

func TestRoleStoreAppendOutOfSequence(t *testing.T) {
	store := NewRoleStore()

	// first version for a role must be 1
	err := store.Append(Document{Role: metadata.TARGETS, Version: 2, Bytes: []byte("v2")})
	assert.ErrorAs(t, err, &ErrSequence{})

	require.NoError(t, store.Append(Document{Role: metadata.TARGETS, Version: 1, Bytes: []byte("v1")}))

	// duplicate version
	err = store.Append(Document{Role: metadata.TARGETS, Version: 1, Bytes: []byte("v1")})
	assert.ErrorAs(t, err, &ErrSequence{})

	// gap
	err = store.Append(Document{Role: metadata.TARGETS, Version: 3, Bytes: []byte("v3")})
	assert.ErrorAs(t, err, &ErrSequence{})

	// a rejected append leaves the history untouched
	assert.Equal(t, int64(1), store.MaxVersion(metadata.TARGETS))
}

func TestRoleStoreGet(t *testing.T) {
	store := NewRoleStore()
	require.NoError(t, store.Append(Document{Role: metadata.ROOT, Version: 1, Bytes: []byte("v1")}))
	require.NoError(t, store.Append(Document{Role: metadata.ROOT, Version: 2, Bytes: []byte("v2")}))

	doc, err := store.Get(metadata.ROOT, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), doc.Bytes)

	_, err = store.Get(metadata.ROOT, 0)
	assert.ErrorAs(t, err, &ErrNotFound{})
	_, err = store.Get(metadata.ROOT, 3)
	assert.ErrorAs(t, err, &ErrNotFound{})
	_, err = store.Get("nosuchrole", 1)
	assert.ErrorAs(t, err, &ErrNotFound{})
	_, err = store.Latest("nosuchrole")
	assert.ErrorAs(t, err, &ErrNotFound{})
}

func TestRoleStoreRoles(t *testing.T) {
	store := NewRoleStore()
	assert.Empty(t, store.Roles())

	require.NoError(t, store.Append(Document{Role: metadata.ROOT, Version: 1}))
	require.NoError(t, store.Append(Document{Role: metadata.TIMESTAMP, Version: 1}))
	assert.ElementsMatch(t, []string{metadata.ROOT, metadata.TIMESTAMP}, store.Roles())
}

func TestBlobStore(t *testing.T) {
	blobs := NewBlobStore()

	target, err := metadata.TargetFile().FromBytes("file1.txt", []byte("hello"))
	require.NoError(t, err)
	blobs.Put("file1.txt", []byte("hello"), target)

	got, err := blobs.Get("file1.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	_, err = blobs.Get("nosuch.txt")
	assert.ErrorAs(t, err, &ErrNotFound{})
}
