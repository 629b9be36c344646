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

// Package test includes a backend agnostic test suite for post store backends
package test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadlens/threadlens/api"
	"github.com/threadlens/threadlens/services/web/store"
)

// RunSuite runs the common backend test suite against the given backend factory
func RunSuite(t *testing.T, createBackend func() store.Backend, destroyBackend func(store.Backend)) {
	t.Run("TestRetrieveUnknownPost", func(t *testing.T) {
		b := createBackend()
		defer destroyBackend(b)

		_, err := b.RetrievePost("nope")
		unknownErr := &store.UnknownPostError{}
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "nope", unknownErr.PostID)
	})

	t.Run("TestStoreAndRetrievePost", func(t *testing.T) {
		b := createBackend()
		defer destroyBackend(b)

		post := api.Post{
			ID:       "abc123",
			Title:    "The post",
			Upvotes:  42,
			Username: "alice",
			Body:     "the body",
			Comments: []string{"first", "second"},
		}
		require.NoError(t, b.StorePost(post))

		retrieved, err := b.RetrievePost("abc123")
		require.NoError(t, err)
		assert.Equal(t, post, retrieved)
	})

	t.Run("TestListPostsMostRecentFirst", func(t *testing.T) {
		b := createBackend()
		defer destroyBackend(b)

		require.NoError(t, b.StorePost(api.Post{ID: "p1", Title: "first"}))
		require.NoError(t, b.StorePost(api.Post{ID: "p2", Title: "second"}))
		require.NoError(t, b.StorePost(api.Post{ID: "p3", Title: "third"}))

		posts, err := b.ListPosts()
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, "p3", posts[0].ID)
		assert.Equal(t, "p2", posts[1].ID)
		assert.Equal(t, "p1", posts[2].ID)
	})

	t.Run("TestRestorePostRefreshesRecency", func(t *testing.T) {
		b := createBackend()
		defer destroyBackend(b)

		require.NoError(t, b.StorePost(api.Post{ID: "p1", Title: "first"}))
		require.NoError(t, b.StorePost(api.Post{ID: "p2", Title: "second"}))
		require.NoError(t, b.StorePost(api.Post{ID: "p1", Title: "first, updated"}))

		posts, err := b.ListPosts()
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, "p1", posts[0].ID)
		assert.Equal(t, "first, updated", posts[0].Title)
		assert.Equal(t, "p2", posts[1].ID)
	})

	t.Run("TestListEmptyStore", func(t *testing.T) {
		b := createBackend()
		defer destroyBackend(b)

		posts, err := b.ListPosts()
		require.NoError(t, err)
		assert.Empty(t, posts)
	})
}
