// Copyright 2024 Threadlens Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/threadlens/threadlens/clients/openai"
	"github.com/threadlens/threadlens/clients/pinecone"
	"github.com/threadlens/threadlens/clients/reddit"
	"github.com/threadlens/threadlens/services/web/httpserver"
	"github.com/threadlens/threadlens/services/web/rag"
	"github.com/threadlens/threadlens/services/web/store"
	"github.com/threadlens/threadlens/services/web/store/bolt"
	"github.com/threadlens/threadlens/services/web/store/memory"
)

var log = logrus.WithField("component", "web")

type Options struct {
	Port      uint
	StoreFile string

	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string

	OpenAIAPIKey string

	PineconeAPIKey    string
	PineconeIndexHost string
	IndexName         string
}

var DefaultOptions = Options{
	Port:      5000,
	StoreFile: "",
}

func Run(ctx context.Context, options Options) error {
	// Build the upstream clients
	redditClient, err := reddit.NewClient(reddit.Config{
		ClientID:     options.RedditClientID,
		ClientSecret: options.RedditClientSecret,
		UserAgent:    options.RedditUserAgent,
	})
	if err != nil {
		return err
	}

	openaiClient, err := openai.NewClient(openai.Config{
		APIKey: options.OpenAIAPIKey,
	})
	if err != nil {
		return err
	}

	pineconeClient, err := pinecone.NewClient(pinecone.Config{
		APIKey:    options.PineconeAPIKey,
		IndexHost: options.PineconeIndexHost,
	})
	if err != nil {
		return err
	}

	// Build the rag pipeline
	pipeline := rag.NewPipeline(openaiClient, pineconeClient)

	// Build the post store
	var backend store.Backend
	if options.StoreFile != "" {
		backend, err = bolt.CreateBackend(options.StoreFile)
		if err != nil {
			return err
		}
	} else {
		backend = memory.CreateBackend()
	}
	defer backend.Destroy()

	// Build the http server
	httpServer, err := httpserver.New(options.Port, redditClient, pipeline, backend)
	if err != nil {
		return err
	}

	group, ctx := errgroup.WithContext(ctx)

	// Start the http server
	group.Go(func() error {
		log.WithFields(logrus.Fields{
			"port":  options.Port,
			"index": options.IndexName,
		}).Info("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("unexpected error while serving http routes: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		log.Info("Gracefully stopping")

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(stopCtx); err != nil {
			log.WithField("error", err).Warning("Error while stopping")
		}
		return ctx.Err()
	})

	return group.Wait()
}
