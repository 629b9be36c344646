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

package rag

import "strings"

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultSeparator    = "\n\n"
)

// Splitter cuts a text into overlapping chunks. The text is first split on the
// separator, pieces are then merged back into chunks of at most ChunkSize
// characters, consecutive chunks sharing up to ChunkOverlap trailing characters.
// A single piece longer than ChunkSize is hard-cut.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separator    string
}

func NewSplitter() Splitter {
	return Splitter{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		Separator:    DefaultSeparator,
	}
}

func (s Splitter) Split(text string) []string {
	pieces := []string{}
	for _, piece := range strings.Split(text, s.Separator) {
		if len(piece) <= s.ChunkSize {
			pieces = append(pieces, piece)
			continue
		}
		// Hard cut of an oversized piece
		step := s.ChunkSize - s.ChunkOverlap
		for start := 0; start < len(piece); start += step {
			end := start + s.ChunkSize
			if end > len(piece) {
				end = len(piece)
			}
			pieces = append(pieces, piece[start:end])
			if end == len(piece) {
				break
			}
		}
	}

	chunks := []string{}
	current := []string{}
	for _, piece := range pieces {
		if joinedLen(current, s.Separator) > 0 &&
			joinedLen(append(current, piece), s.Separator) > s.ChunkSize {
			appendChunk(&chunks, current, s.Separator)

			// Keep a tail of pieces as the overlap of the next chunk
			for len(current) > 0 &&
				(joinedLen(current, s.Separator) > s.ChunkOverlap ||
					joinedLen(append(current, piece), s.Separator) > s.ChunkSize) {
				current = current[1:]
			}
		}
		current = append(current, piece)
	}
	appendChunk(&chunks, current, s.Separator)

	return chunks
}

func joinedLen(pieces []string, separator string) int {
	length := 0
	for pieceIdx, piece := range pieces {
		if pieceIdx > 0 {
			length += len(separator)
		}
		length += len(piece)
	}
	return length
}

func appendChunk(chunks *[]string, pieces []string, separator string) {
	chunk := strings.TrimSpace(strings.Join(pieces, separator))
	if chunk != "" {
		*chunks = append(*chunks, chunk)
	}
}
