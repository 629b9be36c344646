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

package memory

import (
	"sync"

	"github.com/threadlens/threadlens/api"
	"github.com/threadlens/threadlens/services/web/store"
)

type memoryBackend struct {
	posts map[string]api.Post
	order []string // post ids from oldest to most recent
	mutex sync.RWMutex
}

// CreateBackend creates a new in-memory post store
func CreateBackend() store.Backend {
	return &memoryBackend{
		posts: map[string]api.Post{},
		order: []string{},
	}
}

func (b *memoryBackend) Destroy() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.posts = map[string]api.Post{}
	b.order = []string{}
}

func (b *memoryBackend) StorePost(post api.Post) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if _, ok := b.posts[post.ID]; ok {
		for orderIdx, postID := range b.order {
			if postID == post.ID {
				b.order = append(b.order[:orderIdx], b.order[orderIdx+1:]...)
				break
			}
		}
	}
	b.posts[post.ID] = post
	b.order = append(b.order, post.ID)
	return nil
}

func (b *memoryBackend) RetrievePost(postID string) (api.Post, error) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	post, ok := b.posts[postID]
	if !ok {
		return api.Post{}, &store.UnknownPostError{PostID: postID}
	}
	return post, nil
}

func (b *memoryBackend) ListPosts() ([]api.Post, error) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	posts := make([]api.Post, 0, len(b.order))
	for orderIdx := len(b.order) - 1; orderIdx >= 0; orderIdx-- {
		posts = append(posts, b.posts[b.order[orderIdx]])
	}
	return posts, nil
}
