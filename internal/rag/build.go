package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const (
	// embedCharBudget caps the text sent per document to the embedding
	// endpoint, bounding request size and cost.
	embedCharBudget = 500

	// previewChars is how much of each document the index stores for
	// display; full text is re-read from disk at answer time.
	previewChars = 200

	// embedBatchSize is how many documents are embedded per request.
	// Batches run strictly in sequence.
	embedBatchSize = 10
)

// Embedder converts a batch of texts to vectors, one per input, in input
// order. *watsonx.Client satisfies this.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// SkipError records a source file that could not be read during a build.
type SkipError struct {
	Filename string
	Err      error
}

// Build enumerates the .txt and .md files directly under sourceDir in
// lexicographic filename order, takes the first maxDocs, and embeds their
// (truncated) contents in sequential batches. Files that cannot be read
// are reported in the skip list and excluded from the index. Any
// embedding failure aborts the build; the partial index is discarded.
//
// The returned index is not persisted; callers decide whether to Save it.
func Build(ctx context.Context, emb Embedder, sourceDir string, maxDocs int) (*Index, []SkipError, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read source directory %s: %w", sourceDir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".md":
			names = append(names, e.Name())
		}
	}
	// os.ReadDir sorts by filename, but the contract matters enough for
	// reproducible builds that we do not rely on it implicitly.
	sort.Strings(names)
	if maxDocs >= 0 && len(names) > maxDocs {
		names = names[:maxDocs]
	}

	idx := NewIndex()
	var skipped []SkipError
	var pendingDocs []Document
	var pendingTexts []string

	flush := func() error {
		if len(pendingTexts) == 0 {
			return nil
		}
		vectors, err := emb.Embed(ctx, pendingTexts)
		if err != nil {
			return fmt.Errorf("embedding batch failed: %w", err)
		}
		idx.Documents = append(idx.Documents, pendingDocs...)
		idx.Embeddings = append(idx.Embeddings, vectors...)
		pendingDocs = pendingDocs[:0]
		pendingTexts = pendingTexts[:0]
		return nil
	}

	for _, name := range names {
		path := filepath.Join(sourceDir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			skipped = append(skipped, SkipError{Filename: name, Err: err})
			continue
		}

		text := string(content)
		pendingDocs = append(pendingDocs, Document{
			ID:       uuid.New().String(),
			Filename: name,
			Path:     path,
			Preview:  truncate(text, previewChars),
			Length:   len(content),
		})
		pendingTexts = append(pendingTexts, truncate(text, embedCharBudget))

		if len(pendingTexts) == embedBatchSize {
			if err := flush(); err != nil {
				return nil, skipped, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, skipped, err
	}

	idx.Metadata.Count = len(idx.Documents)
	return idx, skipped, nil
}

// truncate cuts s to at most n runes, keeping the result valid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
