package rag

import (
	"context"
	"fmt"
	"sort"

	"github.com/ExpertVagabond/watsonx-mcp-server/internal/vector"
)

// SearchResult pairs a document with its cosine similarity to a query.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// Rank scores every stored document against queryVec and returns the topK
// most similar, ordered by similarity descending. Ties keep their index
// order, so results are deterministic. topK larger than the index size is
// clamped.
func (idx *Index) Rank(queryVec []float32, topK int) []SearchResult {
	results := make([]SearchResult, len(idx.Documents))
	for i, doc := range idx.Documents {
		results[i] = SearchResult{
			Document:   doc,
			Similarity: vector.CosineSimilarity(queryVec, idx.Embeddings[i]),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if topK < 0 {
		topK = 0
	}
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK]
}

// Search embeds the query (a batch of one) and ranks the index against it.
func Search(ctx context.Context, emb Embedder, idx *Index, query string, topK int) ([]SearchResult, error) {
	vectors, err := emb.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding service returned no vector for query")
	}
	return idx.Rank(vectors[0], topK), nil
}
