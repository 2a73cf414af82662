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

// Document is one immutable, signed, serialized version of a role. Once
// appended to the RoleStore it is never mutated; a change to a role produces
// a new Document with Version = previous + 1.
type Document struct {
	Role    string
	Version int64
	Bytes   []byte
}

// RoleStore keeps an append-only version history per role name. Entry i of a
// role's history always carries version i+1; the sequence never has gaps.
//
// RoleStore does no locking of its own, the owning Repository serializes
// access.
type RoleStore struct {
	versions map[string][]Document
}

// NewRoleStore returns an empty RoleStore
func NewRoleStore() *RoleStore {
	return &RoleStore{
		versions: map[string][]Document{},
	}
}

// Append adds doc as the next version of its role. It fails with ErrSequence
// unless doc.Version is exactly the current maximum version plus one.
func (s *RoleStore) Append(doc Document) error {
	next := s.MaxVersion(doc.Role) + 1
	if doc.Version != next {
		return ErrSequence{Msg: fmt.Sprintf("role %s: appending version %d, want %d", doc.Role, doc.Version, next)}
	}
	s.versions[doc.Role] = append(s.versions[doc.Role], doc)
	return nil
}

// Latest returns the highest-version document stored for role
func (s *RoleStore) Latest(role string) (Document, error) {
	history, ok := s.versions[role]
	if !ok {
		return Document{}, ErrNotFound{Msg: fmt.Sprintf("unknown role %s", role)}
	}
	return history[len(history)-1], nil
}

// Get returns the document of role with that exact version number
func (s *RoleStore) Get(role string, version int64) (Document, error) {
	history, ok := s.versions[role]
	if !ok {
		return Document{}, ErrNotFound{Msg: fmt.Sprintf("unknown role %s", role)}
	}
	if version < 1 || version > int64(len(history)) {
		return Document{}, ErrNotFound{Msg: fmt.Sprintf("unknown %s version %d", role, version)}
	}
	return history[version-1], nil
}

// MaxVersion returns the highest stored version of role, or 0 if the role is
// unknown
func (s *RoleStore) MaxVersion(role string) int64 {
	return int64(len(s.versions[role]))
}

// Roles returns the names of all stored roles
func (s *RoleStore) Roles() []string {
	names := make([]string, 0, len(s.versions))
	for role := range s.versions {
		names = append(names, role)
	}
	return names
}
