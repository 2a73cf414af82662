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

// Package simulator implements an in-memory TUF repository that evolves over
// time. Signed metadata versions are kept in an append-only per-role store and
// served byte-identically on every read; target content lives in a blob store
// keyed by target path. All repository mutations cascade through the
// dependent roles in order (targets, then snapshot, then timestamp), so a
// reader can never observe a role referencing a version that does not exist.
package simulator

import (
	"crypto"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sigstore/sigstore/pkg/signature"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ed25519"

	"github.com/rdimitrov/go-tuf-simulator/metadata"
)

const defaultExpiry = 30 * 24 * time.Hour

// Repository is the single authorized mutator of the simulated repository
// state. One RWMutex guards the role store, the blob store and the working
// metadata: mutators hold the write lock for a whole publish transaction,
// readers (ResolveMetadata, Target) take read locks and therefore always see
// a self-consistent state.
type Repository struct {
	mu      sync.RWMutex
	store   *RoleStore
	blobs   *BlobStore
	roles   *roles
	signers map[string]map[string]signature.Signer

	expiry                         time.Duration
	computeMetafileHashesAndLength bool
	prefixTargetsWithHash          bool
}

// New bootstraps a minimal valid repository: a fresh ed25519 key per top
// level role, root v1 listing all of them, an empty targets v1, snapshot v1
// referencing targets@1 and timestamp v1 referencing snapshot@1.
func New(opts ...RepositoryOption) (*Repository, error) {
	r := &Repository{
		store:                 NewRoleStore(),
		blobs:                 NewBlobStore(),
		roles:                 newRoles(),
		signers:               map[string]map[string]signature.Signer{},
		expiry:                defaultExpiry,
		prefixTargetsWithHash: true,
	}
	for _, o := range opts {
		o.apply(r)
	}

	expires := time.Now().UTC().Truncate(time.Second).Add(r.expiry)
	r.roles.SetTargets(metadata.TARGETS, metadata.Targets(expires))
	r.roles.SetSnapshot(metadata.Snapshot(expires))
	r.roles.SetTimestamp(metadata.Timestamp(expires))
	r.roles.SetRoot(metadata.Root(expires))

	for _, role := range metadata.TOP_LEVEL_ROLE_NAMES {
		public, _, signer, err := createKey()
		if err != nil {
			return nil, err
		}
		key, err := metadata.KeyFromPublicKey(public)
		if err != nil {
			return nil, err
		}
		if err := r.roles.Root().Signed.AddKey(key, role); err != nil {
			return nil, err
		}
		r.addSigner(role, key.ID(), signer)
	}

	// commit the bootstrap versions, dependency leaves first
	if err := r.appendSigned(metadata.ROOT, r.roles.Root()); err != nil {
		return nil, err
	}
	if err := r.appendSigned(metadata.TARGETS, r.roles.Targets(metadata.TARGETS)); err != nil {
		return nil, err
	}
	if err := r.appendSigned(metadata.SNAPSHOT, r.roles.Snapshot()); err != nil {
		return nil, err
	}
	if err := r.appendSigned(metadata.TIMESTAMP, r.roles.Timestamp()); err != nil {
		return nil, err
	}
	return r, nil
}

// createKey generates a fresh ed25519 keypair and a signer for it
func createKey() (ed25519.PublicKey, ed25519.PrivateKey, signature.Signer, error) {
	public, private, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, nil, nil, err
	}
	signer, err := signature.LoadSigner(private, crypto.Hash(0))
	if err != nil {
		return nil, nil, nil, err
	}
	return public, private, signer, nil
}

func (r *Repository) addSigner(role string, keyID string, signer signature.Signer) {
	if _, ok := r.signers[role]; !ok {
		r.signers[role] = map[string]signature.Signer{}
	}
	r.signers[role][keyID] = signer
}

// signAndSerialize clears previous signatures, signs md with every signer
// registered for role and returns the serialized document bytes
func signAndSerialize[T metadata.Roles](r *Repository, role string, md *metadata.Metadata[T]) ([]byte, error) {
	md.ClearSignatures()
	for _, signer := range r.signers[role] {
		if _, err := md.Sign(signer); err != nil {
			return nil, err
		}
	}
	return md.ToBytes(false)
}

// appendSigned signs md and appends it to the role store under role, using
// the version recorded in the metadata itself
func (r *Repository) appendSigned(role string, md any) error {
	var data []byte
	var version int64
	var err error
	switch m := md.(type) {
	case *metadata.Metadata[metadata.RootType]:
		version = m.Signed.Version
		data, err = signAndSerialize(r, metadata.ROOT, m)
	case *metadata.Metadata[metadata.SnapshotType]:
		version = m.Signed.Version
		data, err = signAndSerialize(r, metadata.SNAPSHOT, m)
	case *metadata.Metadata[metadata.TimestampType]:
		version = m.Signed.Version
		data, err = signAndSerialize(r, metadata.TIMESTAMP, m)
	case *metadata.Metadata[metadata.TargetsType]:
		version = m.Signed.Version
		data, err = signAndSerialize(r, role, m)
	default:
		return fmt.Errorf("unsupported metadata type for role %s", role)
	}
	if err != nil {
		return err
	}
	return r.store.Append(Document{Role: role, Version: version, Bytes: data})
}

// preflight verifies, before anything is mutated, that appending the next
// version of each given role cannot hit a sequence error. With the write
// lock held and a single logical writer this only fails on a controller
// defect, in which case the publish attempt must not leave partial state.
func (r *Repository) preflight(targetsRoles ...string) error {
	for _, role := range targetsRoles {
		md := r.roles.Targets(role)
		if md != nil && md.Signed.Version != r.store.MaxVersion(role) {
			return ErrSequence{Msg: fmt.Sprintf("role %s: working version %d does not match stored history", role, md.Signed.Version)}
		}
	}
	if r.roles.Snapshot().Signed.Version != r.store.MaxVersion(metadata.SNAPSHOT) {
		return ErrSequence{Msg: "snapshot working version does not match stored history"}
	}
	if r.roles.Timestamp().Signed.Version != r.store.MaxVersion(metadata.TIMESTAMP) {
		return ErrSequence{Msg: "timestamp working version does not match stored history"}
	}
	return nil
}

// Publish adds or replaces a target file under the top level targets role and
// cascades the metadata version bumps. It is the operation the scheduler
// drives.
func (r *Repository) Publish(path string, data []byte) error {
	return r.PublishTo(metadata.TARGETS, path, data)
}

// PublishTo is Publish for an arbitrary targets role, the top level one or a
// delegated one. The whole cascade happens under the write lock: blob write,
// then targets, snapshot and timestamp appends, in that order, or nothing at
// all.
func (r *Repository) PublishTo(role string, path string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	targetsMD := r.roles.Targets(role)
	if targetsMD == nil {
		return ErrNotFound{Msg: fmt.Sprintf("unknown targets role %s", role)}
	}
	if err := r.preflight(role); err != nil {
		return err
	}
	targetFile, err := metadata.TargetFile().FromBytes(path, data, "sha256")
	if err != nil {
		return err
	}

	r.blobs.Put(path, data, targetFile)

	targetsMD.Signed.Targets[path] = targetFile
	targetsMD.Signed.Version++
	targetsMD.Signed.Expires = r.nextExpiry()
	if err := r.appendSigned(role, targetsMD); err != nil {
		return err
	}
	log.Debugf("published target %s (%d bytes) as %s v%d", path, len(data), role, targetsMD.Signed.Version)

	return r.updateSnapshot(role)
}

// updateSnapshot records the latest version of the changed targets roles in
// snapshot, appends the new snapshot version and updates timestamp
func (r *Repository) updateSnapshot(changedRoles ...string) error {
	for _, role := range changedRoles {
		md := r.roles.Targets(role)
		r.roles.Snapshot().Signed.Meta[fmt.Sprintf("%s.json", role)] = r.metaFileFor(role, md.Signed.Version)
	}
	r.roles.Snapshot().Signed.Version++
	r.roles.Snapshot().Signed.Expires = r.nextExpiry()
	if err := r.appendSigned(metadata.SNAPSHOT, r.roles.Snapshot()); err != nil {
		return err
	}
	return r.updateTimestamp()
}

// updateTimestamp points timestamp at the latest snapshot version and appends
// the new timestamp version
func (r *Repository) updateTimestamp() error {
	r.roles.Timestamp().Signed.Meta["snapshot.json"] = r.metaFileFor(metadata.SNAPSHOT, r.roles.Snapshot().Signed.Version)
	r.roles.Timestamp().Signed.Version++
	r.roles.Timestamp().Signed.Expires = r.nextExpiry()
	return r.appendSigned(metadata.TIMESTAMP, r.roles.Timestamp())
}

// metaFileFor builds the MetaFiles entry referencing version of role,
// embedding hashes and length of the stored document when enabled
func (r *Repository) metaFileFor(role string, version int64) metadata.MetaFiles {
	meta := metadata.MetaFile(version)
	if r.computeMetafileHashesAndLength {
		if doc, err := r.store.Get(role, version); err == nil {
			digest := sha256.Sum256(doc.Bytes)
			meta.Hashes = metadata.Hashes{"sha256": digest[:]}
			meta.Length = int64(len(doc.Bytes))
		}
	}
	return meta
}

// AddDelegation creates a delegated targets role under delegator with a fresh
// key, publishes its first metadata version and cascades snapshot and
// timestamp
func (r *Repository) AddDelegation(delegator string, role metadata.DelegatedRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delegatorMD := r.roles.Targets(delegator)
	if delegatorMD == nil {
		return ErrNotFound{Msg: fmt.Sprintf("unknown targets role %s", delegator)}
	}
	if r.roles.Targets(role.Name) != nil {
		return metadata.ErrValue{Msg: fmt.Sprintf("role %s already exists", role.Name)}
	}
	if err := r.preflight(delegator); err != nil {
		return err
	}

	if delegatorMD.Signed.Delegations == nil {
		delegatorMD.Signed.Delegations = &metadata.Delegations{
			Keys:  map[string]*metadata.Key{},
			Roles: []metadata.DelegatedRole{},
		}
	}
	// put the delegation last by default
	delegatorMD.Signed.Delegations.Roles = append(delegatorMD.Signed.Delegations.Roles, role)

	public, _, signer, err := createKey()
	if err != nil {
		return err
	}
	key, err := metadata.KeyFromPublicKey(public)
	if err != nil {
		return err
	}
	if err := delegatorMD.Signed.AddKey(key, role.Name); err != nil {
		return err
	}
	r.addSigner(role.Name, key.ID(), signer)

	delegated := metadata.Targets(r.nextExpiry())
	r.roles.SetTargets(role.Name, delegated)
	if err := r.appendSigned(role.Name, delegated); err != nil {
		return err
	}

	delegatorMD.Signed.Version++
	delegatorMD.Signed.Expires = r.nextExpiry()
	if err := r.appendSigned(delegator, delegatorMD); err != nil {
		return err
	}
	log.Debugf("delegated %s from %s", role.Name, delegator)

	return r.updateSnapshot(delegator, role.Name)
}

// RotateKeys replaces every key of role with a threshold of fresh ones in the
// working root metadata. The change becomes visible with the next
// PublishRoot.
func (r *Repository) RotateKeys(role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	root := &r.roles.Root().Signed
	if _, ok := root.Roles[role]; !ok {
		return ErrNotFound{Msg: fmt.Sprintf("unknown role %s", role)}
	}
	for _, keyID := range append([]string{}, root.Roles[role].KeyIDs...) {
		if err := root.RevokeKey(keyID, role); err != nil {
			return err
		}
	}
	for keyID := range r.signers[role] {
		delete(r.signers[role], keyID)
	}
	for i := 0; i < root.Roles[role].Threshold; i++ {
		public, _, signer, err := createKey()
		if err != nil {
			return err
		}
		key, err := metadata.KeyFromPublicKey(public)
		if err != nil {
			return err
		}
		if err := root.AddKey(key, role); err != nil {
			return err
		}
		r.addSigner(role, key.ID(), signer)
	}
	log.Debugf("rotated keys for role %s", role)
	return nil
}

// PublishRoot signs and appends a new root version carrying the current
// working root metadata
func (r *Repository) PublishRoot() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.roles.Root().Signed.Version != r.store.MaxVersion(metadata.ROOT) {
		return ErrSequence{Msg: "root working version does not match stored history"}
	}
	r.roles.Root().Signed.Version++
	r.roles.Root().Signed.Expires = r.nextExpiry()
	if err := r.appendSigned(metadata.ROOT, r.roles.Root()); err != nil {
		return err
	}
	log.Debugf("published root v%d", r.roles.Root().Signed.Version)
	return nil
}

// Target returns the current content of the target at path
func (r *Repository) Target(path string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.blobs.Get(path)
}

// HashPrefixedTargets reports whether target paths are expected to carry a
// hash prefix segment
func (r *Repository) HashPrefixedTargets() bool {
	return r.prefixTargetsWithHash
}

func (r *Repository) nextExpiry() time.Time {
	return time.Now().UTC().Truncate(time.Second).Add(r.expiry)
}

// Write dumps every stored metadata version to dir as {version}.{role}.json
// files. This is a debugging tool, not a persistence mechanism.
func (r *Repository) Write(dir string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}
	for _, role := range r.store.Roles() {
		for version := int64(1); version <= r.store.MaxVersion(role); version++ {
			doc, err := r.store.Get(role, version)
			if err != nil {
				return err
			}
			name := filepath.Join(dir, fmt.Sprintf("%d.%s.json", version, role))
			if err := os.WriteFile(name, doc.Bytes, 0644); err != nil {
				return err
			}
		}
	}
	return nil
}
