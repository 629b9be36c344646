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

package api

// Post represents a reddit submission as served by the web API. Summaries
// returned by the listing endpoint leave Body and Comments empty.
type Post struct {
	ID       string   `json:"post_id"`
	Title    string   `json:"title"`
	Upvotes  int      `json:"upvotes"`
	Username string   `json:"username,omitempty"`
	Body     string   `json:"body,omitempty"`
	Comments []string `json:"comments,omitempty"`
}
