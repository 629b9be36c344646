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
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/threadlens/threadlens/api"
	"github.com/threadlens/threadlens/clients/reddit"
	"github.com/threadlens/threadlens/services/web/store/memory"
)

type mockedFetcher struct {
	mock.Mock
}

func (m *mockedFetcher) ListPosts(ctx context.Context, subreddit string, category reddit.Category, limit int) ([]reddit.Submission, error) {
	args := m.Called(ctx, subreddit, category, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reddit.Submission), args.Error(1)
}

func (m *mockedFetcher) GetPost(ctx context.Context, postID string) (reddit.Submission, []string, error) {
	args := m.Called(ctx, postID)
	if args.Get(1) == nil {
		return args.Get(0).(reddit.Submission), nil, args.Error(2)
	}
	return args.Get(0).(reddit.Submission), args.Get(1).([]string), args.Error(2)
}

type mockedPipeline struct {
	mock.Mock
}

func (m *mockedPipeline) EmbedPost(ctx context.Context, post api.Post) (int, error) {
	args := m.Called(ctx, post)
	return args.Int(0), args.Error(1)
}

func (m *mockedPipeline) Answer(ctx context.Context, message string) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

func createTestServer(t *testing.T) (*Server, *mockedFetcher, *mockedPipeline) {
	fetcher := new(mockedFetcher)
	pipeline := new(mockedPipeline)
	server, err := New(0, fetcher, pipeline, memory.CreateBackend())
	require.NoError(t, err)
	return server, fetcher, pipeline
}

func performRequest(server *Server, method string, target string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(method, target, nil)
	server.Server.Handler.ServeHTTP(recorder, request)
	return recorder
}

func TestGetInfo(t *testing.T) {
	server, _, _ := createTestServer(t)

	recorder := performRequest(server, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, recorder.Code)

	info := infoResponse{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &info))
	assert.Equal(t, "threadlens", info.Name)
}

func TestGetPostsDefaults(t *testing.T) {
	server, fetcher, _ := createTestServer(t)

	fetcher.On("ListPosts", mock.Anything, "wallstreetbets", reddit.CategoryHot, 10).
		Return([]reddit.Submission{
			{ID: "p1", Title: "First", Score: 42, Author: "alice"},
			{ID: "p2", Title: "Second", Score: 7, Author: "bob"},
		}, nil).Once()

	recorder := performRequest(server, http.MethodGet, "/reddit/posts")
	require.Equal(t, http.StatusOK, recorder.Code)

	posts := []api.Post{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &posts))
	require.Len(t, posts, 2)
	assert.Equal(t, "p1", posts[0].ID)
	assert.Equal(t, 42, posts[0].Upvotes)
	assert.Equal(t, "alice", posts[0].Username)
	assert.Empty(t, posts[0].Body)

	fetcher.AssertExpectations(t)
}

func TestGetPostsMultipleCategories(t *testing.T) {
	server, fetcher, _ := createTestServer(t)

	fetcher.On("ListPosts", mock.Anything, "golang", reddit.CategoryHot, 2).
		Return([]reddit.Submission{{ID: "h1", Title: "hot one"}}, nil).Once()
	fetcher.On("ListPosts", mock.Anything, "golang", reddit.CategoryNew, 2).
		Return([]reddit.Submission{{ID: "n1", Title: "new one"}}, nil).Once()

	recorder := performRequest(server, http.MethodGet, "/reddit/posts?subreddit=golang&categories=hot,new&limit=2")
	require.Equal(t, http.StatusOK, recorder.Code)

	posts := []api.Post{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &posts))
	assert.Len(t, posts, 2)

	fetcher.AssertExpectations(t)
}

func TestGetPostsInvalidQuery(t *testing.T) {
	server, _, _ := createTestServer(t)

	recorder := performRequest(server, http.MethodGet, "/reddit/posts?limit=abc")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = performRequest(server, http.MethodGet, "/reddit/posts?categories=bogus")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetPostsUpstreamFailure(t *testing.T) {
	server, fetcher, _ := createTestServer(t)

	fetcher.On("ListPosts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("reddit is down")).Once()

	recorder := performRequest(server, http.MethodGet, "/reddit/posts")
	require.Equal(t, http.StatusBadGateway, recorder.Code)

	response := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Contains(t, response["message"], "reddit is down")
}

func TestGetPost(t *testing.T) {
	server, fetcher, pipeline := createTestServer(t)

	fetcher.On("GetPost", mock.Anything, "abc123").
		Return(
			reddit.Submission{ID: "abc123", Title: "The post", Score: 99, Author: "alice", SelfText: "the body"},
			[]string{"first comment", "second comment"},
			nil,
		).Once()
	pipeline.On("EmbedPost", mock.Anything, mock.MatchedBy(func(post api.Post) bool {
		return post.ID == "abc123" && post.Body == "the body" && len(post.Comments) == 2
	})).Return(3, nil).Once()

	recorder := performRequest(server, http.MethodGet, "/reddit/post?post_id=abc123")
	require.Equal(t, http.StatusOK, recorder.Code)

	post := api.Post{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &post))
	assert.Equal(t, "The post", post.Title)
	assert.Equal(t, []string{"first comment", "second comment"}, post.Comments)

	fetcher.AssertExpectations(t)
	pipeline.AssertExpectations(t)

	// the fetched post ends up in the history
	recorder = performRequest(server, http.MethodGet, "/reddit/history")
	require.Equal(t, http.StatusOK, recorder.Code)
	history := []api.Post{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, "abc123", history[0].ID)
}

func TestGetPostMissingID(t *testing.T) {
	server, _, _ := createTestServer(t)

	recorder := performRequest(server, http.MethodGet, "/reddit/post")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestChat(t *testing.T) {
	server, _, pipeline := createTestServer(t)

	pipeline.On("Answer", mock.Anything, "what happened?").
		Return("a concise answer", nil).Once()

	recorder := performRequest(server, http.MethodGet, "/reddit/chat?message=what+happened%3F")
	require.Equal(t, http.StatusOK, recorder.Code)

	response := chatResponse{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "a concise answer", response.Response)

	pipeline.AssertExpectations(t)
}

func TestChatMissingMessage(t *testing.T) {
	server, _, _ := createTestServer(t)

	recorder := performRequest(server, http.MethodGet, "/reddit/chat")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestUnknownRoute(t *testing.T) {
	server, _, _ := createTestServer(t)

	recorder := performRequest(server, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
