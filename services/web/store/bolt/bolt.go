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

package bolt

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/threadlens/threadlens/api"
	"github.com/threadlens/threadlens/services/web/store"
)

var log = logrus.WithField("component", "web").WithField("sub_component", "store")

// Bucket structure is
//	posts       > {post_id}  > {api.Post as json}
//	post_index  > {sequence} > {post_id}

var postsBucketName = []byte("posts")
var indexBucketName = []byte("post_index")

type boltBackend struct {
	db       *bolt.DB
	filePath string
}

// CreateBackend creates a new file backed post store
func CreateBackend(filePath string) (store.Backend, error) {
	db, err := bolt.Open(filePath, 0666, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to open the post store file %q: %w", filePath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(postsBucketName); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(indexBucketName); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to initialize the post store: %w", err)
	}

	log.WithField("path", filePath).Info("post store opened")
	return &boltBackend{db: db, filePath: filePath}, nil
}

func (b *boltBackend) Destroy() {
	if err := b.db.Close(); err != nil {
		log.WithField("path", b.filePath).WithField("error", err).Warning("unable to close the post store")
	}
}

func serializeSequence(sequence uint64) []byte {
	// Fixed length hex so that the byte order matches the numeric order
	return []byte(fmt.Sprintf("%016x", sequence))
}

func (b *boltBackend) StorePost(post api.Post) error {
	value, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("unable to serialize post %q: %w", post.ID, err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		postsBucket := tx.Bucket(postsBucketName)
		indexBucket := tx.Bucket(indexBucketName)

		if err := postsBucket.Put([]byte(post.ID), value); err != nil {
			return err
		}

		// A restored post gets a fresh index entry, listing dedupes keeping
		// the most recent one
		sequence, err := indexBucket.NextSequence()
		if err != nil {
			return err
		}
		return indexBucket.Put(serializeSequence(sequence), []byte(post.ID))
	})
}

func (b *boltBackend) RetrievePost(postID string) (api.Post, error) {
	post := api.Post{}
	err := b.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(postsBucketName).Get([]byte(postID))
		if value == nil {
			return &store.UnknownPostError{PostID: postID}
		}
		return json.Unmarshal(value, &post)
	})
	if err != nil {
		return api.Post{}, err
	}
	return post, nil
}

func (b *boltBackend) ListPosts() ([]api.Post, error) {
	posts := []api.Post{}
	err := b.db.View(func(tx *bolt.Tx) error {
		postsBucket := tx.Bucket(postsBucketName)
		indexCursor := tx.Bucket(indexBucketName).Cursor()

		seen := map[string]bool{}
		for key, postID := indexCursor.Last(); key != nil; key, postID = indexCursor.Prev() {
			if seen[string(postID)] {
				continue
			}
			seen[string(postID)] = true

			value := postsBucket.Get(postID)
			if value == nil {
				continue
			}
			post := api.Post{}
			if err := json.Unmarshal(value, &post); err != nil {
				return err
			}
			posts = append(posts, post)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}
