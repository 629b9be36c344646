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

package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/threadlens/threadlens/api"
	"github.com/threadlens/threadlens/clients/reddit"
	"github.com/threadlens/threadlens/services/web/store"
	"github.com/threadlens/threadlens/version"
)

var log = logrus.WithField("component", "web").WithField("sub_component", "http")

const (
	defaultSubreddit = "wallstreetbets"
	defaultCategory  = "hot"
	defaultLimit     = 10
)

// PostFetcher is the subset of the reddit client used by the server.
type PostFetcher interface {
	ListPosts(ctx context.Context, subreddit string, category reddit.Category, limit int) ([]reddit.Submission, error)
	GetPost(ctx context.Context, postID string) (reddit.Submission, []string, error)
}

// Answerer is the subset of the rag pipeline used by the server.
type Answerer interface {
	EmbedPost(ctx context.Context, post api.Post) (int, error)
	Answer(ctx context.Context, message string) (string, error)
}

type Server struct {
	http.Server
	fetcher  PostFetcher
	pipeline Answerer
	backend  store.Backend

	gin *gin.Engine
}

func New(port uint, fetcher PostFetcher, pipeline Answerer, backend store.Backend) (*Server, error) {
	// Debug mode can be helpful during development
	gin.SetMode(gin.ReleaseMode)
	//gin.SetMode(gin.DebugMode)

	ginEngine := gin.New()

	server := &Server{
		Server: http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: ginEngine,
		},
		fetcher:  fetcher,
		pipeline: pipeline,
		backend:  backend,
		gin:      ginEngine,
	}

	server.gin.HandleMethodNotAllowed = true

	// Allows all origins
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	server.gin.Use(cors.New(corsConfig))

	// Use a custom error handler
	server.gin.Use(ginErrorHandlerMiddleware)

	// Use the custom logger middleware
	server.gin.Use(ginLoggerMiddleware)

	// Recovery middleware recovers from any panics and writes a 500 if there was one.
	server.gin.Use(gin.Recovery())

	server.gin.GET("/", server.getInfo)
	redditGroup := server.gin.Group("/reddit")
	redditGroup.GET("/posts", server.getPosts)
	redditGroup.GET("/post", server.getPost)
	redditGroup.GET("/chat", server.chat)
	redditGroup.GET("/history", server.getHistory)

	return server, nil
}

type infoResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Message string `json:"message"`
}

func (s *Server) getInfo(c *gin.Context) {
	c.JSON(http.StatusOK, infoResponse{
		Name:    "threadlens",
		Version: version.Version,
		Message: "Welcome to the threadlens API",
	})
}

func (s *Server) getPosts(c *gin.Context) {
	subreddit := c.DefaultQuery("subreddit", defaultSubreddit)
	categories := strings.Split(c.DefaultQuery("categories", defaultCategory), ",")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("limit must be a positive integer"))
		return
	}

	posts := []api.Post{}
	for _, categoryStr := range categories {
		category := reddit.Category(strings.TrimSpace(categoryStr))
		if !reddit.IsValidCategory(category) {
			abortWithError(c, http.StatusBadRequest, fmt.Errorf("invalid category %q", category))
			return
		}

		submissions, err := s.fetcher.ListPosts(c.Request.Context(), subreddit, category, limit)
		if err != nil {
			abortWithError(c, http.StatusBadGateway, err)
			return
		}

		for _, submission := range submissions {
			post := api.Post{
				ID:       submission.ID,
				Title:    submission.Title,
				Upvotes:  submission.Score,
				Username: submission.Author,
			}
			if err := s.backend.StorePost(post); err != nil {
				abortWithError(c, http.StatusInternalServerError, err)
				return
			}
			posts = append(posts, post)
		}
	}

	log.WithFields(logrus.Fields{
		"subreddit": subreddit,
		"posts":     len(posts),
	}).Debug("posts listed")
	c.JSON(http.StatusOK, posts)
}

func (s *Server) getPost(c *gin.Context) {
	postID := c.Query("post_id")
	if postID == "" {
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("post_id is required"))
		return
	}

	submission, comments, err := s.fetcher.GetPost(c.Request.Context(), postID)
	if err != nil {
		abortWithError(c, http.StatusBadGateway, err)
		return
	}

	post := api.Post{
		ID:       postID,
		Title:    submission.Title,
		Upvotes:  submission.Score,
		Username: submission.Author,
		Body:     submission.SelfText,
		Comments: comments,
	}
	if err := s.backend.StorePost(post); err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	if _, err := s.pipeline.EmbedPost(c.Request.Context(), post); err != nil {
		abortWithError(c, http.StatusBadGateway, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

type chatResponse struct {
	Response string `json:"response"`
}

func (s *Server) chat(c *gin.Context) {
	message := c.Query("message")
	if message == "" {
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("message is required"))
		return
	}

	answer, err := s.pipeline.Answer(c.Request.Context(), message)
	if err != nil {
		abortWithError(c, http.StatusBadGateway, err)
		return
	}

	c.JSON(http.StatusOK, chatResponse{Response: answer})
}

func (s *Server) getHistory(c *gin.Context) {
	posts, err := s.backend.ListPosts()
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}
