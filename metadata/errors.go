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
	"fmt"
)

// Error types used by the metadata API. Names start with 'Err'.

// ErrRepository - an error with a repository's state, such as a missing file.
// It covers all exceptions that come from the repository side when
// looking from the perspective of users of the metadata API
type ErrRepository struct {
	Msg string
}

func (e ErrRepository) Error() string {
	return fmt.Sprintf("repository error: %s", e.Msg)
}

// ErrUnsignedMetadata - an error about metadata object with insufficient
// threshold of signatures
type ErrUnsignedMetadata struct {
	Msg string
}

func (e ErrUnsignedMetadata) Error() string {
	return fmt.Sprintf("unsigned metadata error: %s", e.Msg)
}

// ErrUnsignedMetadata is a subset of ErrRepository
func (e ErrUnsignedMetadata) Is(target error) bool {
	return target == ErrRepository{} || target == ErrUnsignedMetadata{}
}

// ErrBadVersionNumber - an error for metadata that contains an invalid version number
type ErrBadVersionNumber struct {
	Msg string
}

func (e ErrBadVersionNumber) Error() string {
	return fmt.Sprintf("bad version number error: %s", e.Msg)
}

// ErrBadVersionNumber is a subset of ErrRepository
func (e ErrBadVersionNumber) Is(target error) bool {
	return target == ErrRepository{} || target == ErrBadVersionNumber{}
}

// ErrExpiredMetadata - indicates that a TUF metadata file has expired
type ErrExpiredMetadata struct {
	Msg string
}

func (e ErrExpiredMetadata) Error() string {
	return fmt.Sprintf("expired metadata error: %s", e.Msg)
}

// ErrExpiredMetadata is a subset of ErrRepository
func (e ErrExpiredMetadata) Is(target error) bool {
	return target == ErrRepository{} || target == ErrExpiredMetadata{}
}

// ErrLengthOrHashMismatch - an error while checking the length and hash values of an object
type ErrLengthOrHashMismatch struct {
	Msg string
}

func (e ErrLengthOrHashMismatch) Error() string {
	return fmt.Sprintf("length/hash verification error: %s", e.Msg)
}

// ErrLengthOrHashMismatch is a subset of ErrRepository
func (e ErrLengthOrHashMismatch) Is(target error) bool {
	return target == ErrRepository{} || target == ErrLengthOrHashMismatch{}
}

// ErrValue - an error for invalid values
type ErrValue struct {
	Msg string
}

func (e ErrValue) Error() string {
	return fmt.Sprintf("value error: %s", e.Msg)
}

// ErrType - an error for invalid types
type ErrType struct {
	Msg string
}

func (e ErrType) Error() string {
	return fmt.Sprintf("type error: %s", e.Msg)
}
