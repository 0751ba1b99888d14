package rag

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ExpertVagabond/watsonx-mcp-server/internal/watsonx"
)

type fakeGenerator struct {
	calls   int
	prompt  string
	params  watsonx.GenerateParams
	respond string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string, params watsonx.GenerateParams) (string, error) {
	f.calls++
	f.prompt = prompt
	f.params = params
	return f.respond, nil
}

func TestAskEmptyIndexMakesNoRemoteCalls(t *testing.T) {
	emb := &fakeEmbedder{}
	gen := &fakeGenerator{}

	_, err := Ask(context.Background(), emb, gen, NewIndex(), "anything?", 3)
	require.ErrorIs(t, err, ErrNoDocuments)

	assert.Empty(t, emb.batches)
	assert.Zero(t, gen.calls)
}

func TestAskAssemblesContextFromTopDocuments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cats.txt"), []byte("Cats sleep a lot."), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dogs.txt"), []byte("Dogs bark at mail."), 0644))

	idx := NewIndex()
	idx.Documents = []Document{
		{Filename: "cats.txt", Path: filepath.Join(dir, "cats.txt"), Preview: "Cats"},
		{Filename: "dogs.txt", Path: filepath.Join(dir, "dogs.txt"), Preview: "Dogs"},
	}
	idx.Embeddings = [][]float32{{1, 0}, {0, 1}}
	idx.Metadata.Count = 2

	emb := &fakeEmbedder{vecFor: func(string) []float32 { return []float32{1, 0} }}
	gen := &fakeGenerator{respond: "  Cats sleep a lot.  "}

	ans, err := Ask(context.Background(), emb, gen, idx, "what do cats do?", 2)
	require.NoError(t, err)

	assert.Equal(t, "Cats sleep a lot.", ans.Text)
	assert.Equal(t, []string{"cats.txt", "dogs.txt"}, ans.Sources)

	// Prompt carries labeled full contents, delimiter, and the question.
	assert.Contains(t, gen.prompt, "[cats.txt]\nCats sleep a lot.")
	assert.Contains(t, gen.prompt, "[dogs.txt]\nDogs bark at mail.")
	assert.Contains(t, gen.prompt, contextDelimiter)
	assert.Contains(t, gen.prompt, "what do cats do?")

	assert.Equal(t, answerMaxNewTokens, gen.params.MaxNewTokens)
	assert.InDelta(t, answerTemperature, gen.params.Temperature, 1e-9)
}

func TestAskTruncatesEachContext(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("y", 4000)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "long.txt"), []byte(long), 0644))

	idx := NewIndex()
	idx.Documents = []Document{{Filename: "long.txt", Path: filepath.Join(dir, "long.txt")}}
	idx.Embeddings = [][]float32{{1}}

	emb := &fakeEmbedder{vecFor: func(string) []float32 { return []float32{1} }}
	gen := &fakeGenerator{respond: "ok"}

	_, err := Ask(context.Background(), emb, gen, idx, "q", 1)
	require.NoError(t, err)

	assert.Contains(t, gen.prompt, strings.Repeat("y", contextCharBudget))
	assert.NotContains(t, gen.prompt, strings.Repeat("y", contextCharBudget+1))
}

func TestAskSkipsVanishedSources(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kept.txt"), []byte("still here"), 0644))

	idx := NewIndex()
	idx.Documents = []Document{
		{Filename: "gone.txt", Path: filepath.Join(dir, "gone.txt")},
		{Filename: "kept.txt", Path: filepath.Join(dir, "kept.txt")},
	}
	idx.Embeddings = [][]float32{{1, 0}, {0.5, 0}}

	emb := &fakeEmbedder{vecFor: func(string) []float32 { return []float32{1, 0} }}
	gen := &fakeGenerator{respond: "ok"}

	ans, err := Ask(context.Background(), emb, gen, idx, "q", 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"kept.txt"}, ans.Sources)
	assert.NotContains(t, gen.prompt, "gone.txt")
}

func TestAskAllSourcesGoneSkipsGeneration(t *testing.T) {
	idx := NewIndex()
	idx.Documents = []Document{{Filename: "gone.txt", Path: filepath.Join(t.TempDir(), "gone.txt")}}
	idx.Embeddings = [][]float32{{1}}

	emb := &fakeEmbedder{vecFor: func(string) []float32 { return []float32{1} }}
	gen := &fakeGenerator{}

	_, err := Ask(context.Background(), emb, gen, idx, "q", 1)
	require.ErrorIs(t, err, ErrNoContext)
	assert.Zero(t, gen.calls)
}
