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

package openai

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://api.openai.com"

	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultChatModel      = "gpt-4o-mini"
)

// Config holds the openai API configuration.
type Config struct {
	APIKey string

	// BaseURL overrides the openai endpoint, used in tests.
	BaseURL string
}

type Client struct {
	client *resty.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is not defined")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey)

	return &Client{client: client}, nil
}

// HTTPClient exposes the underlying http client, used in tests to activate httpmock.
func (c *Client) HTTPClient() *resty.Client { return c.client }

// Message is a chat completion message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type chatCompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CreateEmbeddings embeds the given inputs, the returned vectors are in input order.
func (c *Client) CreateEmbeddings(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	if model == "" {
		model = DefaultEmbeddingModel
	}

	result := embeddingsResponse{}
	apiErr := apiError{}
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(embeddingsRequest{Model: model, Input: inputs}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/v1/embeddings")
	if err != nil {
		return nil, fmt.Errorf("unable to create embeddings: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unable to create embeddings: [%d] %s", resp.StatusCode(), apiErr.Error.Message)
	}
	if len(result.Data) != len(inputs) {
		return nil, fmt.Errorf("expected %d embeddings got %d", len(inputs), len(result.Data))
	}

	embeddings := make([][]float32, len(inputs))
	for _, data := range result.Data {
		if data.Index < 0 || data.Index >= len(inputs) {
			return nil, fmt.Errorf("embedding index %d out of range", data.Index)
		}
		embeddings[data.Index] = data.Embedding
	}
	return embeddings, nil
}

// CreateChatCompletion runs a single chat completion and returns the first choice.
func (c *Client) CreateChatCompletion(ctx context.Context, model string, messages []Message) (string, error) {
	if model == "" {
		model = DefaultChatModel
	}

	result := chatCompletionResponse{}
	apiErr := apiError{}
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(chatCompletionRequest{Model: model, Messages: messages}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/v1/chat/completions")
	if err != nil {
		return "", fmt.Errorf("unable to create a chat completion: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("unable to create a chat completion: [%d] %s", resp.StatusCode(), apiErr.Error.Message)
	}
	if len(result.Choices) < 1 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}
