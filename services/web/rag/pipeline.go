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

// Package rag implements the retrieval augmented generation pipeline, one
// embedded post at a time: embedding a post replaces the whole index content.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/threadlens/threadlens/api"
	"github.com/threadlens/threadlens/clients/openai"
	"github.com/threadlens/threadlens/clients/pinecone"
)

var log = logrus.WithField("component", "web").WithField("sub_component", "rag")

// LanguageModel is the subset of the openai client used by the pipeline.
type LanguageModel interface {
	CreateEmbeddings(ctx context.Context, model string, inputs []string) ([][]float32, error)
	CreateChatCompletion(ctx context.Context, model string, messages []openai.Message) (string, error)
}

// VectorIndex is the subset of the pinecone client used by the pipeline.
type VectorIndex interface {
	TotalVectorCount(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
	Upsert(ctx context.Context, vectors []pinecone.Vector) error
	Query(ctx context.Context, vector []float32, topK int) ([]pinecone.Match, error)
}

const answerPromptTemplate = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know.
Use 3 sentences maximum and keep the answer concise.

%s

Question: %s

Helpful Answer:`

const defaultTopK = 4

type Pipeline struct {
	languageModel  LanguageModel
	index          VectorIndex
	splitter       Splitter
	embeddingModel string
	chatModel      string
	topK           int
}

func NewPipeline(languageModel LanguageModel, index VectorIndex) *Pipeline {
	return &Pipeline{
		languageModel:  languageModel,
		index:          index,
		splitter:       NewSplitter(),
		embeddingModel: openai.DefaultEmbeddingModel,
		chatModel:      openai.DefaultChatModel,
		topK:           defaultTopK,
	}
}

// EmbedPost replaces the index content with the chunks of the given post.
// It returns the number of chunks upserted.
func (p *Pipeline) EmbedPost(ctx context.Context, post api.Post) (int, error) {
	count, err := p.index.TotalVectorCount(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		if err := p.index.DeleteAll(ctx); err != nil {
			return 0, err
		}
	}

	content := fmt.Sprintf(
		"Title: %s\nBody: %s\nComments: %s",
		post.Title, post.Body, strings.Join(post.Comments, " "),
	)
	chunks := p.splitter.Split(content)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("post %q has no content to embed", post.ID)
	}

	embeddings, err := p.languageModel.CreateEmbeddings(ctx, p.embeddingModel, chunks)
	if err != nil {
		return 0, err
	}

	vectors := make([]pinecone.Vector, len(chunks))
	for chunkIdx, chunk := range chunks {
		vectors[chunkIdx] = pinecone.Vector{
			ID:     fmt.Sprintf("%s-%d", post.ID, chunkIdx),
			Values: embeddings[chunkIdx],
			Metadata: map[string]interface{}{
				"title":   post.Title,
				"upvotes": post.Upvotes,
				"text":    chunk,
			},
		}
	}
	if err := p.index.Upsert(ctx, vectors); err != nil {
		return 0, err
	}

	log.WithFields(logrus.Fields{
		"post_id": post.ID,
		"chunks":  len(chunks),
	}).Info("post embedded")
	return len(chunks), nil
}

// Answer retrieves the chunks nearest to the message and generates a concise
// answer grounded in them.
func (p *Pipeline) Answer(ctx context.Context, message string) (string, error) {
	embeddings, err := p.languageModel.CreateEmbeddings(ctx, p.embeddingModel, []string{message})
	if err != nil {
		return "", err
	}

	matches, err := p.index.Query(ctx, embeddings[0], p.topK)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("the index holds no embedded post to answer from")
	}

	contextParts := []string{}
	for _, match := range matches {
		text, ok := match.Metadata["text"].(string)
		if !ok {
			continue
		}
		contextParts = append(contextParts, text)
	}

	prompt := fmt.Sprintf(answerPromptTemplate, strings.Join(contextParts, "\n\n"), message)
	answer, err := p.languageModel.CreateChatCompletion(ctx, p.chatModel, []openai.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return "", err
	}

	log.WithField("matches", len(matches)).Debug("answer generated")
	return answer, nil
}
