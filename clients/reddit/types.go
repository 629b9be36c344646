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

package reddit

import "encoding/json"

// Category is a subreddit listing sort order.
type Category string

const (
	CategoryHot           Category = "hot"
	CategoryNew           Category = "new"
	CategoryTop           Category = "top"
	CategoryRising        Category = "rising"
	CategoryControversial Category = "controversial"
)

var expectedCategories = []Category{
	CategoryHot,
	CategoryNew,
	CategoryTop,
	CategoryRising,
	CategoryControversial,
}

// IsValidCategory checks a category against the listings the reddit API serves.
func IsValidCategory(category Category) bool {
	for _, expected := range expectedCategories {
		if category == expected {
			return true
		}
	}
	return false
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// thing is the generic envelope of the reddit API, `kind` discriminates the
// payload ("Listing", "t1" comment, "t3" submission, "more", ...).
type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type listingData struct {
	Children []thing `json:"children"`
	After    string  `json:"after"`
}

type submissionData struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	SelfText string  `json:"selftext"`
	Score    int     `json:"score"`
	Author   string  `json:"author"`
	Sub      string  `json:"subreddit"`
	Created  float64 `json:"created_utc"`
}

type commentData struct {
	ID      string          `json:"id"`
	Body    string          `json:"body"`
	Author  string          `json:"author"`
	Score   int             `json:"score"`
	Replies json.RawMessage `json:"replies"`
}

const (
	kindListing    = "Listing"
	kindComment    = "t1"
	kindSubmission = "t3"
)

// Submission is a reddit post as returned by the listing and comments endpoints.
type Submission struct {
	ID       string
	Title    string
	SelfText string
	Score    int
	Author   string
}
