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

package metadata

import (
	"crypto"
	"testing"
	"time"

	"github.com/sigstore/sigstore/pkg/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"
)

func TestDefaultValuesRoot(t *testing.T) {
	// without setting expiration
	meta := Root()
	assert.NotNil(t, meta)
	assert.WithinDuration(t, time.Now().UTC(), meta.Signed.Expires, time.Minute)

	// setting expiration
	expire := time.Now().AddDate(0, 0, 2).UTC()
	meta = Root(expire)
	assert.NotNil(t, meta)
	assert.Equal(t, expire, meta.Signed.Expires)

	assert.Equal(t, ROOT, meta.Signed.Type)
	assert.Equal(t, SPECIFICATION_VERSION, meta.Signed.SpecVersion)
	assert.Equal(t, int64(1), meta.Signed.Version)

	// threshold and keyIDs for roles
	for _, role := range []string{ROOT, SNAPSHOT, TARGETS, TIMESTAMP} {
		assert.Equal(t, 1, meta.Signed.Roles[role].Threshold)
		assert.Equal(t, []string{}, meta.Signed.Roles[role].KeyIDs)
	}

	assert.Equal(t, map[string]*Key{}, meta.Signed.Keys)
	assert.True(t, meta.Signed.ConsistentSnapshot)
	assert.Equal(t, []Signature{}, meta.Signatures)
}

func TestDefaultValuesSnapshot(t *testing.T) {
	meta := Snapshot()
	assert.NotNil(t, meta)
	assert.WithinDuration(t, time.Now().UTC(), meta.Signed.Expires, time.Minute)

	assert.Equal(t, SNAPSHOT, meta.Signed.Type)
	assert.Equal(t, SPECIFICATION_VERSION, meta.Signed.SpecVersion)
	assert.Equal(t, int64(1), meta.Signed.Version)
	assert.Equal(t, map[string]MetaFiles{"targets.json": {Version: 1}}, meta.Signed.Meta)
	assert.Equal(t, []Signature{}, meta.Signatures)
}

func TestDefaultValuesTimestamp(t *testing.T) {
	meta := Timestamp()
	assert.NotNil(t, meta)
	assert.WithinDuration(t, time.Now().UTC(), meta.Signed.Expires, time.Minute)

	assert.Equal(t, TIMESTAMP, meta.Signed.Type)
	assert.Equal(t, SPECIFICATION_VERSION, meta.Signed.SpecVersion)
	assert.Equal(t, int64(1), meta.Signed.Version)
	assert.Equal(t, map[string]MetaFiles{"snapshot.json": {Version: 1}}, meta.Signed.Meta)
	assert.Equal(t, []Signature{}, meta.Signatures)
}

func TestDefaultValuesTargets(t *testing.T) {
	meta := Targets()
	assert.NotNil(t, meta)
	assert.WithinDuration(t, time.Now().UTC(), meta.Signed.Expires, time.Minute)

	assert.Equal(t, TARGETS, meta.Signed.Type)
	assert.Equal(t, SPECIFICATION_VERSION, meta.Signed.SpecVersion)
	assert.Equal(t, int64(1), meta.Signed.Version)
	assert.Equal(t, map[string]*TargetFiles{}, meta.Signed.Targets)
	assert.Equal(t, []Signature{}, meta.Signatures)
}

func TestMetaFileDefaults(t *testing.T) {
	meta := MetaFile(0)
	assert.Equal(t, int64(1), meta.Version)

	meta = MetaFile(3)
	assert.Equal(t, int64(3), meta.Version)
	assert.Empty(t, meta.Hashes)
	assert.Zero(t, meta.Length)
}

func TestTargetFilesFromBytes(t *testing.T) {
	data := []byte("hello")
	target, err := TargetFile().FromBytes("file1.txt", data, "sha256")
	require.NoError(t, err)

	assert.Equal(t, int64(len(data)), target.Length)
	assert.Equal(t, "file1.txt", target.Path)
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		target.Hashes["sha256"].String())
	assert.NoError(t, target.VerifyLengthHashes(data))
	assert.Error(t, target.VerifyLengthHashes([]byte("tampered")))
}

func TestTargetFilesUnsupportedAlgorithm(t *testing.T) {
	_, err := TargetFile().FromBytes("file1.txt", []byte("hello"), "md5")
	assert.ErrorIs(t, err, ErrValue{Msg: "failed generating TargetFile - unsupported hashing algorithm - md5"})
}

func TestSerializationRoundTrip(t *testing.T) {
	expire := time.Now().AddDate(0, 0, 7).UTC().Truncate(time.Second)
	targets := Targets(expire)
	target, err := TargetFile().FromBytes("file1.txt", []byte("hello"))
	require.NoError(t, err)
	targets.Signed.Targets["file1.txt"] = target

	data, err := targets.ToBytes(false)
	require.NoError(t, err)

	parsed, err := (&Metadata[TargetsType]{}).FromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, targets.Signed.Version, parsed.Signed.Version)
	assert.Equal(t, expire, parsed.Signed.Expires)
	assert.Contains(t, parsed.Signed.Targets, "file1.txt")
	assert.Equal(t, target.Hashes["sha256"], parsed.Signed.Targets["file1.txt"].Hashes["sha256"])
}

func TestFromBytesTypeMismatch(t *testing.T) {
	data, err := Snapshot().ToBytes(false)
	require.NoError(t, err)

	_, err = (&Metadata[TargetsType]{}).FromBytes(data)
	assert.Error(t, err)
}

func TestSignAndVerify(t *testing.T) {
	public, private, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	signer, err := signature.LoadSigner(private, crypto.Hash(0))
	require.NoError(t, err)
	key, err := KeyFromPublicKey(public)
	require.NoError(t, err)

	root := Root(time.Now().AddDate(0, 0, 1).UTC())
	require.NoError(t, root.Signed.AddKey(key, TIMESTAMP))

	timestamp := Timestamp(time.Now().AddDate(0, 0, 1).UTC())
	_, err = timestamp.Sign(signer)
	require.NoError(t, err)
	require.Len(t, timestamp.Signatures, 1)
	assert.Equal(t, key.ID(), timestamp.Signatures[0].KeyID)

	// signed with the timestamp key, so only timestamp verifies
	assert.NoError(t, root.VerifyDelegate(TIMESTAMP, timestamp))
	assert.Error(t, root.VerifyDelegate(SNAPSHOT, timestamp))

	// tampering after signing must break verification
	timestamp.Signed.Version++
	assert.Error(t, root.VerifyDelegate(TIMESTAMP, timestamp))
}

func TestVerifyThreshold(t *testing.T) {
	root := Root(time.Now().AddDate(0, 0, 1).UTC())
	targets := Targets(time.Now().AddDate(0, 0, 1).UTC())

	var signers []signature.Signer
	for i := 0; i < 2; i++ {
		public, private, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		signer, err := signature.LoadSigner(private, crypto.Hash(0))
		require.NoError(t, err)
		key, err := KeyFromPublicKey(public)
		require.NoError(t, err)
		require.NoError(t, root.Signed.AddKey(key, TARGETS))
		signers = append(signers, signer)
	}
	root.Signed.Roles[TARGETS].Threshold = 2

	_, err := targets.Sign(signers[0])
	require.NoError(t, err)
	assert.Error(t, root.VerifyDelegate(TARGETS, targets))

	_, err = targets.Sign(signers[1])
	require.NoError(t, err)
	assert.NoError(t, root.VerifyDelegate(TARGETS, targets))
}

func TestKeyConversionRoundTrip(t *testing.T) {
	public, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	key, err := KeyFromPublicKey(public)
	require.NoError(t, err)
	assert.Equal(t, KeyTypeEd25519, key.Type)
	assert.Equal(t, KeySchemeEd25519, key.Scheme)
	assert.NotEmpty(t, key.ID())

	back, err := key.ToPublicKey()
	require.NoError(t, err)
	assert.Equal(t, public, back)
}

func TestRevokeKey(t *testing.T) {
	public, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	key, err := KeyFromPublicKey(public)
	require.NoError(t, err)

	root := Root()
	require.NoError(t, root.Signed.AddKey(key, SNAPSHOT))
	require.NoError(t, root.Signed.AddKey(key, TIMESTAMP))

	// key still referenced by timestamp after the first revocation
	require.NoError(t, root.Signed.RevokeKey(key.ID(), SNAPSHOT))
	assert.Contains(t, root.Signed.Keys, key.ID())

	require.NoError(t, root.Signed.RevokeKey(key.ID(), TIMESTAMP))
	assert.NotContains(t, root.Signed.Keys, key.ID())

	assert.Error(t, root.Signed.RevokeKey(key.ID(), TIMESTAMP))
	assert.Error(t, root.Signed.RevokeKey(key.ID(), "nosuchrole"))
}

func TestIsExpired(t *testing.T) {
	now := time.Now().UTC()
	meta := Timestamp(now.Add(time.Hour))
	assert.False(t, meta.Signed.IsExpired(now))
	assert.True(t, meta.Signed.IsExpired(now.Add(2*time.Hour)))
}
