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

import "time"

// RepositoryOption configures a Repository at construction time
type RepositoryOption interface {
	apply(*Repository)
}

type expiryOption time.Duration

func (o expiryOption) apply(r *Repository) {
	r.expiry = time.Duration(o)
}

// WithExpiry sets how far in the future newly created metadata expires.
// The default is 30 days.
func WithExpiry(d time.Duration) RepositoryOption {
	return expiryOption(d)
}

type metafileHashesOption bool

func (o metafileHashesOption) apply(r *Repository) {
	r.computeMetafileHashesAndLength = bool(o)
}

// WithMetafileHashesAndLength enables embedding hashes and length of the
// referenced metadata in snapshot and timestamp entries
func WithMetafileHashesAndLength(enabled bool) RepositoryOption {
	return metafileHashesOption(enabled)
}

type hashPrefixOption bool

func (o hashPrefixOption) apply(r *Repository) {
	r.prefixTargetsWithHash = bool(o)
}

// WithHashPrefixedTargets controls whether target paths are expected to carry
// a hash prefix segment when served. The prefix is accepted but not verified.
func WithHashPrefixedTargets(enabled bool) RepositoryOption {
	return hashPrefixOption(enabled)
}
