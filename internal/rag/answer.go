package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ExpertVagabond/watsonx-mcp-server/internal/watsonx"
)

const (
	// DefaultAnswerTopK is how many documents feed the answer context.
	DefaultAnswerTopK = 3

	// contextCharBudget caps each document's contribution to the prompt.
	contextCharBudget = 1500

	answerMaxNewTokens = 400
	answerTemperature  = 0.3

	contextDelimiter = "\n---\n"
)

// ErrNoDocuments is returned when the index holds nothing to retrieve.
var ErrNoDocuments = errors.New("no documents found in index; run build first")

// ErrNoContext is returned when every retrieved source file has become
// unreadable since the index was built.
var ErrNoContext = errors.New("none of the retrieved source files could be read")

// Generator produces text from a prompt. *watsonx.Client satisfies this.
type Generator interface {
	Generate(ctx context.Context, prompt string, params watsonx.GenerateParams) (string, error)
}

// Answer is a generated response plus the source files it was grounded on,
// in retrieval rank order.
type Answer struct {
	Text    string
	Sources []string
}

// Ask answers a question over the index: retrieve the topK most similar
// documents, re-read their full text from disk, and condition a single
// generation request on the assembled context. An empty index
// short-circuits with ErrNoDocuments before any remote call. Sources that
// have disappeared since indexing are skipped; if none survive, no
// generation request is made.
func Ask(ctx context.Context, emb Embedder, gen Generator, idx *Index, question string, topK int) (*Answer, error) {
	if len(idx.Documents) == 0 {
		return nil, ErrNoDocuments
	}
	if topK <= 0 {
		topK = DefaultAnswerTopK
	}

	results, err := Search(ctx, emb, idx, question, topK)
	if err != nil {
		return nil, err
	}

	var contexts []string
	var sources []string
	for _, r := range results {
		content, err := os.ReadFile(r.Document.Path)
		if err != nil {
			log.Warn("skipping unreadable source", "file", r.Document.Filename, "error", err)
			continue
		}
		contexts = append(contexts, fmt.Sprintf("[%s]\n%s", r.Document.Filename, truncate(string(content), contextCharBudget)))
		sources = append(sources, r.Document.Filename)
	}
	if len(contexts) == 0 {
		return nil, ErrNoContext
	}

	prompt := fmt.Sprintf(`Answer the question using only the context below. If the context does not contain the answer, say so.

Context:
%s

Question: %s

Answer:`, strings.Join(contexts, contextDelimiter), question)

	text, err := gen.Generate(ctx, prompt, watsonx.GenerateParams{
		MaxNewTokens: answerMaxNewTokens,
		Temperature:  answerTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	return &Answer{Text: strings.TrimSpace(text), Sources: sources}, nil
}
