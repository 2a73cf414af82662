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

// VersionRequest names a stored metadata version: either the latest one or an
// exact version number. The wire protocol's "version 0 means latest"
// convention is translated into the Latest kind at the HTTP boundary and
// never leaks past it.
type VersionRequest struct {
	latest  bool
	version int64
}

// LatestVersion requests the highest stored version of a role
func LatestVersion() VersionRequest {
	return VersionRequest{latest: true}
}

// ExactVersion requests one specific version of a role
func ExactVersion(version int64) VersionRequest {
	return VersionRequest{version: version}
}

// ResolveMetadata translates a (role, version request) pair into the stored
// signed document. Unknown roles, versions below 1 and versions above the
// current maximum all yield ErrNotFound.
func (r *Repository) ResolveMetadata(role string, req VersionRequest) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if req.latest {
		return r.store.Latest(role)
	}
	return r.store.Get(role, req.version)
}
