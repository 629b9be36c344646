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

// Package pinecone implements a client for the data plane of a pinecone
// vector index, addressed by its index host.
package pinecone

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// Config holds the pinecone index configuration.
type Config struct {
	APIKey string
	// IndexHost is the https endpoint of the index data plane.
	IndexHost string
}

type Client struct {
	client *resty.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone API key is not defined")
	}
	if cfg.IndexHost == "" {
		return nil, fmt.Errorf("pinecone index host is not defined")
	}

	client := resty.New().
		SetBaseURL(cfg.IndexHost).
		SetHeader("Api-Key", cfg.APIKey)

	return &Client{client: client}, nil
}

// HTTPClient exposes the underlying http client, used in tests to activate httpmock.
func (c *Client) HTTPClient() *resty.Client { return c.client }

// Vector is a single embedded chunk with its metadata.
type Vector struct {
	ID       string                 `json:"id"`
	Values   []float32              `json:"values"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Match is a query result.
type Match struct {
	ID       string                 `json:"id"`
	Score    float32                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type indexStatsResponse struct {
	TotalVectorCount int `json:"totalVectorCount"`
}

type upsertRequest struct {
	Vectors []Vector `json:"vectors"`
}

type deleteRequest struct {
	DeleteAll bool `json:"deleteAll"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []Match `json:"matches"`
}

// TotalVectorCount returns the number of vectors currently held by the index.
func (c *Client) TotalVectorCount(ctx context.Context) (int, error) {
	stats := indexStatsResponse{}
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{}).
		SetResult(&stats).
		Post("/describe_index_stats")
	if err != nil {
		return 0, fmt.Errorf("unable to describe the index: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("unable to describe the index: [%d] %s", resp.StatusCode(), resp.String())
	}
	return stats.TotalVectorCount, nil
}

// DeleteAll removes every vector from the index.
func (c *Client) DeleteAll(ctx context.Context) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(deleteRequest{DeleteAll: true}).
		Post("/vectors/delete")
	if err != nil {
		return fmt.Errorf("unable to clear the index: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("unable to clear the index: [%d] %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// Upsert inserts or replaces the given vectors.
func (c *Client) Upsert(ctx context.Context, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(upsertRequest{Vectors: vectors}).
		Post("/vectors/upsert")
	if err != nil {
		return fmt.Errorf("unable to upsert %d vectors: %w", len(vectors), err)
	}
	if resp.IsError() {
		return fmt.Errorf("unable to upsert %d vectors: [%d] %s", len(vectors), resp.StatusCode(), resp.String())
	}
	return nil
}

// Query retrieves the topK nearest vectors with their metadata.
func (c *Client) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	result := queryResponse{}
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(queryRequest{Vector: vector, TopK: topK, IncludeMetadata: true}).
		SetResult(&result).
		Post("/query")
	if err != nil {
		return nil, fmt.Errorf("unable to query the index: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unable to query the index: [%d] %s", resp.StatusCode(), resp.String())
	}
	return result.Matches, nil
}
