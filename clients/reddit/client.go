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

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "clients").WithField("sub_component", "reddit")

const (
	defaultAuthBaseURL = "https://www.reddit.com"
	defaultAPIBaseURL  = "https://oauth.reddit.com"

	// Refresh the application-only token slightly before reddit expires it.
	tokenExpiryMargin = time.Minute
)

// Config holds the reddit API credentials, a custom user agent is mandatory
// per the reddit API rules.
type Config struct {
	ClientID     string
	ClientSecret string
	UserAgent    string

	// AuthBaseURL and APIBaseURL override the reddit endpoints, used in tests.
	AuthBaseURL string
	APIBaseURL  string
}

// Client is an application-only ("client credentials") reddit API client.
type Client struct {
	cfg        Config
	authClient *resty.Client
	apiClient  *resty.Client

	tokenMutex  sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("reddit API credentials are not defined")
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("reddit API user agent is not defined")
	}
	if cfg.AuthBaseURL == "" {
		cfg.AuthBaseURL = defaultAuthBaseURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}

	authClient := resty.New().
		SetBaseURL(cfg.AuthBaseURL).
		SetHeader("User-Agent", cfg.UserAgent)

	apiClient := resty.New().
		SetBaseURL(cfg.APIBaseURL).
		SetHeader("User-Agent", cfg.UserAgent)

	return &Client{
		cfg:        cfg,
		authClient: authClient,
		apiClient:  apiClient,
	}, nil
}

// AuthHTTPClient and APIHTTPClient expose the underlying http clients, used in
// tests to activate httpmock.
func (c *Client) AuthHTTPClient() *resty.Client { return c.authClient }
func (c *Client) APIHTTPClient() *resty.Client  { return c.apiClient }

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.tokenMutex.Lock()
	defer c.tokenMutex.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	tokenResponse := accessTokenResponse{}
	resp, err := c.authClient.R().
		SetContext(ctx).
		SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&tokenResponse).
		Post("/api/v1/access_token")
	if err != nil {
		return "", fmt.Errorf("unable to retrieve a reddit access token: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("unable to retrieve a reddit access token: [%d] %s", resp.StatusCode(), resp.String())
	}
	if tokenResponse.AccessToken == "" {
		return "", fmt.Errorf("reddit returned an empty access token")
	}

	c.token = tokenResponse.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResponse.ExpiresIn)*time.Second - tokenExpiryMargin)
	log.WithField("expires_in", tokenResponse.ExpiresIn).Debug("reddit access token retrieved")
	return c.token, nil
}

// ListPosts retrieves up to limit submissions from the given subreddit listing.
func (c *Client) ListPosts(ctx context.Context, subreddit string, category Category, limit int) ([]Submission, error) {
	if !IsValidCategory(category) {
		return nil, fmt.Errorf("invalid category %q expecting one of %v", category, expectedCategories)
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	listing := thing{}
	resp, err := c.apiClient.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&listing).
		Get(fmt.Sprintf("/r/%s/%s", subreddit, category))
	if err != nil {
		return nil, fmt.Errorf("unable to list posts from r/%s: %w", subreddit, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unable to list posts from r/%s: [%d] %s", subreddit, resp.StatusCode(), resp.String())
	}

	return parseListing(listing)
}

// GetPost retrieves a single submission and its flattened comment bodies.
// Nested replies are included, unresolved "more" nodes are skipped.
func (c *Client) GetPost(ctx context.Context, postID string) (Submission, []string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return Submission{}, nil, err
	}

	// The comments endpoint returns two listings, the submission itself and
	// the comment tree.
	listings := []thing{}
	resp, err := c.apiClient.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&listings).
		Get(fmt.Sprintf("/comments/%s", postID))
	if err != nil {
		return Submission{}, nil, fmt.Errorf("unable to retrieve post %q: %w", postID, err)
	}
	if resp.IsError() {
		return Submission{}, nil, fmt.Errorf("unable to retrieve post %q: [%d] %s", postID, resp.StatusCode(), resp.String())
	}
	if len(listings) < 2 {
		return Submission{}, nil, fmt.Errorf("unexpected response for post %q, expected 2 listings got %d", postID, len(listings))
	}

	submissions, err := parseListing(listings[0])
	if err != nil {
		return Submission{}, nil, err
	}
	if len(submissions) < 1 {
		return Submission{}, nil, fmt.Errorf("post %q not found", postID)
	}

	comments, err := flattenComments(listings[1])
	if err != nil {
		return Submission{}, nil, err
	}

	return submissions[0], comments, nil
}

func parseListing(listing thing) ([]Submission, error) {
	if listing.Kind != kindListing {
		return nil, fmt.Errorf("unexpected reddit payload of kind %q", listing.Kind)
	}
	data := listingData{}
	if err := json.Unmarshal(listing.Data, &data); err != nil {
		return nil, fmt.Errorf("unable to decode reddit listing: %w", err)
	}

	submissions := []Submission{}
	for _, child := range data.Children {
		if child.Kind != kindSubmission {
			continue
		}
		submission := submissionData{}
		if err := json.Unmarshal(child.Data, &submission); err != nil {
			return nil, fmt.Errorf("unable to decode reddit submission: %w", err)
		}
		submissions = append(submissions, Submission{
			ID:       submission.ID,
			Title:    submission.Title,
			SelfText: submission.SelfText,
			Score:    submission.Score,
			Author:   submission.Author,
		})
	}
	return submissions, nil
}

func flattenComments(listing thing) ([]string, error) {
	if listing.Kind != kindListing {
		return nil, fmt.Errorf("unexpected reddit payload of kind %q", listing.Kind)
	}
	data := listingData{}
	if err := json.Unmarshal(listing.Data, &data); err != nil {
		return nil, fmt.Errorf("unable to decode reddit comment listing: %w", err)
	}

	comments := []string{}
	for _, child := range data.Children {
		if child.Kind != kindComment {
			// "more" placeholders in particular carry no body
			continue
		}
		comment := commentData{}
		if err := json.Unmarshal(child.Data, &comment); err != nil {
			return nil, fmt.Errorf("unable to decode reddit comment: %w", err)
		}
		if comment.Body != "" {
			comments = append(comments, comment.Body)
		}

		// Replies is either an empty string or a nested listing
		if len(comment.Replies) == 0 || string(comment.Replies) == `""` || string(comment.Replies) == "null" {
			continue
		}
		replies := thing{}
		if err := json.Unmarshal(comment.Replies, &replies); err != nil {
			return nil, fmt.Errorf("unable to decode reddit comment replies: %w", err)
		}
		nested, err := flattenComments(replies)
		if err != nil {
			return nil, err
		}
		comments = append(comments, nested...)
	}
	return comments, nil
}
