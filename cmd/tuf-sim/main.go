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

package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-logr/stdr"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rdimitrov/go-tuf-simulator/metadata"
	"github.com/rdimitrov/go-tuf-simulator/server"
	"github.com/rdimitrov/go-tuf-simulator/simulator"
)

var (
	port          int
	publishPeriod time.Duration
	verbosity     bool
)

var rootCmd = &cobra.Command{
	Use:   "tuf-sim",
	Short: "tuf-sim - an in-memory TUF repository that publishes new targets on a timer",
	Long: "tuf-sim - an in-memory TUF repository that publishes new targets on a timer.\n" +
		"Metadata is served under /metadata/, target files under /targets/.",
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func main() {
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 8001, "port to listen on")
	rootCmd.PersistentFlags().DurationVar(&publishPeriod, "publish-period", simulator.DefaultPublishPeriod, "how often a new target is published")
	rootCmd.PersistentFlags().BoolVarP(&verbosity, "verbose", "v", false, "verbose output")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// set logger and debug verbosity level
	metadata.SetLogger(stdr.New(stdlog.New(os.Stdout, "tuf-sim", stdlog.LstdFlags)))
	if verbosity {
		stdr.SetVerbosity(5)
		log.SetLevel(log.DebugLevel)
	}

	repo, err := simulator.New(simulator.WithExpiry(30 * 24 * time.Hour))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go simulator.NewScheduler(repo, publishPeriod).Run(ctx)

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(port),
		Handler: server.New(repo).Handler(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}()

	log.Infof("serving repository on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
