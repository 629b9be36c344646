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
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createMockedClient(t *testing.T) *Client {
	client, err := NewClient(Config{APIKey: "test-api-key"})
	require.NoError(t, err)

	httpmock.ActivateNonDefault(client.HTTPClient().GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestCreateEmbeddings(t *testing.T) {
	client := createMockedClient(t)

	httpmock.RegisterResponder(http.MethodPost, "https://api.openai.com/v1/embeddings",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer test-api-key", req.Header.Get("Authorization"))

			body, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			request := embeddingsRequest{}
			require.NoError(t, json.Unmarshal(body, &request))
			assert.Equal(t, DefaultEmbeddingModel, request.Model)
			assert.Equal(t, []string{"first chunk", "second chunk"}, request.Input)

			// out of order on purpose, the client reorders by index
			return httpmock.NewJsonResponse(200, map[string]interface{}{
				"data": []interface{}{
					map[string]interface{}{"index": 1, "embedding": []float32{0.3, 0.4}},
					map[string]interface{}{"index": 0, "embedding": []float32{0.1, 0.2}},
				},
			})
		},
	)

	embeddings, err := client.CreateEmbeddings(context.Background(), "", []string{"first chunk", "second chunk"})
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.Equal(t, []float32{0.1, 0.2}, embeddings[0])
	assert.Equal(t, []float32{0.3, 0.4}, embeddings[1])
}

func TestCreateEmbeddingsError(t *testing.T) {
	client := createMockedClient(t)

	httpmock.RegisterResponder(http.MethodPost, "https://api.openai.com/v1/embeddings",
		httpmock.NewJsonResponderOrPanic(401, map[string]interface{}{
			"error": map[string]interface{}{"message": "Incorrect API key provided", "type": "invalid_request_error"},
		}),
	)

	_, err := client.CreateEmbeddings(context.Background(), "", []string{"chunk"})
	assert.ErrorContains(t, err, "Incorrect API key provided")
}

func TestCreateChatCompletion(t *testing.T) {
	client := createMockedClient(t)

	httpmock.RegisterResponder(http.MethodPost, "https://api.openai.com/v1/chat/completions",
		func(req *http.Request) (*http.Response, error) {
			body, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			request := chatCompletionRequest{}
			require.NoError(t, json.Unmarshal(body, &request))
			assert.Equal(t, "gpt-4o-mini", request.Model)
			require.Len(t, request.Messages, 1)
			assert.Equal(t, "user", request.Messages[0].Role)

			return httpmock.NewJsonResponse(200, map[string]interface{}{
				"choices": []interface{}{
					map[string]interface{}{"message": map[string]interface{}{"role": "assistant", "content": "the answer"}},
				},
			})
		},
	)

	answer, err := client.CreateChatCompletion(
		context.Background(),
		"",
		[]Message{{Role: "user", Content: "a question"}},
	)
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
}

func TestCreateChatCompletionNoChoices(t *testing.T) {
	client := createMockedClient(t)

	httpmock.RegisterResponder(http.MethodPost, "https://api.openai.com/v1/chat/completions",
		httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{"choices": []interface{}{}}),
	)

	_, err := client.CreateChatCompletion(context.Background(), "", []Message{{Role: "user", Content: "hi"}})
	assert.ErrorContains(t, err, "no choices")
}
