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

// Package server exposes the repository's read protocol over HTTP:
// "/metadata/{version}.{role}.json" (bare "{role}.json" means latest) and
// "/targets/{hash}.{name}". It holds no state of its own and exposes no
// write endpoints, publication is internal to the repository process.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/rdimitrov/go-tuf-simulator/simulator"
)

// Server serves the repository read protocol
type Server struct {
	repo *simulator.Repository
}

// New returns a Server reading from repo
func New(repo *simulator.Repository) *Server {
	return &Server{repo: repo}
}

// Handler builds the HTTP routes
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/metadata/{file}", s.handleMetadata).Methods(http.MethodGet)
	r.PathPrefix("/targets/").HandlerFunc(s.handleTarget).Methods(http.MethodGet)
	return r
}

// handleMetadata resolves "{version}.{role}.json" or "{role}.json" requests
func (s *Server) handleMetadata(w http.ResponseWriter, req *http.Request) {
	file := mux.Vars(req)["file"]
	if !strings.HasSuffix(file, ".json") {
		http.Error(w, fmt.Sprintf("unknown metadata file %s", file), http.StatusNotFound)
		return
	}
	role, version := parseMetadataPath(strings.TrimSuffix(file, ".json"))

	doc, err := s.repo.ResolveMetadata(role, version)
	if err != nil {
		writeError(w, req, err)
		return
	}
	log.Debugf("serving %s v%d", doc.Role, doc.Version)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Bytes)))
	w.Write(doc.Bytes)
}

// parseMetadataPath splits the filename stem into a role name and a version
// request. A leading positive-integer segment is the version; without one
// the latest version is requested.
func parseMetadataPath(stem string) (string, simulator.VersionRequest) {
	prefix, rest, found := strings.Cut(stem, ".")
	if found {
		if version, err := strconv.ParseInt(prefix, 10, 64); err == nil {
			return rest, simulator.ExactVersion(version)
		}
	}
	return stem, simulator.LatestVersion()
}

// handleTarget serves raw target content. The optional hash prefix on the
// filename is accepted but not verified against the content; lookup is by
// target path alone and an exact match on the full path wins over prefix
// stripping.
func (s *Server) handleTarget(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, "/targets/")
	if path == "" {
		http.Error(w, "no target path", http.StatusNotFound)
		return
	}

	data, err := s.repo.Target(path)
	if err != nil && s.repo.HashPrefixedTargets() {
		if stripped, ok := stripHashPrefix(path); ok {
			data, err = s.repo.Target(stripped)
		}
	}
	if err != nil {
		writeError(w, req, err)
		return
	}
	log.Debugf("serving target %s", path)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// stripHashPrefix removes the "{hash}." segment from the last path element
func stripHashPrefix(path string) (string, bool) {
	dir, file := "", path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		dir, file = path[:i+1], path[i+1:]
	}
	_, name, found := strings.Cut(file, ".")
	if !found {
		return "", false
	}
	return dir + name, true
}

// writeError maps repository errors onto the HTTP contract
func writeError(w http.ResponseWriter, req *http.Request, err error) {
	var notFound simulator.ErrNotFound
	if errors.As(err, &notFound) {
		log.Debugf("%s %s: %v", req.Method, req.URL.Path, err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	log.Errorf("%s %s: %v", req.Method, req.URL.Path, err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
