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
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultPublishPeriod is how often the scheduler publishes a new target
// unless configured otherwise
const DefaultPublishPeriod = 10 * time.Second

// Scheduler drives the repository: at a fixed cadence it synthesizes a new
// target and publishes it, simulating a live, evolving repository. It is the
// only writer. A failed publish is logged and dropped; the next tick starts
// fresh from the current latest state. Missed ticks are absorbed, not queued.
type Scheduler struct {
	repo    *Repository
	period  time.Duration
	counter int
}

// NewScheduler returns a scheduler publishing to repo every period. A zero or
// negative period falls back to DefaultPublishPeriod.
func NewScheduler(repo *Repository, period time.Duration) *Scheduler {
	if period <= 0 {
		period = DefaultPublishPeriod
	}
	return &Scheduler{
		repo:   repo,
		period: period,
	}
}

// Run publishes on every tick until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	log.Infof("scheduler: publishing a new target every %s", s.period)
	for {
		select {
		case <-ctx.Done():
			log.Info("scheduler: stopping")
			return
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

// tick performs one scheduled publish
func (s *Scheduler) tick(now time.Time) {
	s.counter++
	path := fmt.Sprintf("file%d.txt", s.counter)
	data := []byte(now.UTC().Format(time.RFC3339))
	if err := s.repo.Publish(path, data); err != nil {
		log.Errorf("scheduler: publishing %s failed: %v", path, err)
		return
	}
	log.Infof("scheduler: published %s", path)
}
