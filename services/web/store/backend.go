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

// Package store defines the post store, a local cache of the posts fetched
// from reddit by this instance.
package store

import (
	"fmt"

	"github.com/threadlens/threadlens/api"
)

// Backend is the interface of a post store
type Backend interface {
	// StorePost inserts or replaces a post, a replaced post becomes the most
	// recent one.
	StorePost(post api.Post) error

	// RetrievePost retrieves a post by its id, returns an *UnknownPostError
	// if the post was never stored.
	RetrievePost(postID string) (api.Post, error)

	// ListPosts lists the stored posts, most recently stored first.
	ListPosts() ([]api.Post, error)

	// Destroy the store, indicating it won't be used anymore.
	Destroy()
}

// UnknownPostError is raised when trying to operate on an unknown post
type UnknownPostError struct {
	PostID string
}

func (e *UnknownPostError) Error() string {
	return fmt.Sprintf("no post %q in the store", e.PostID)
}
