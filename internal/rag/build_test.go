package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns a fixed-dimension vector per text and records every
// batch it receives.
type fakeEmbedder struct {
	batches [][]string
	vecFor  func(text string) []float32
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.batches = append(f.batches, append([]string(nil), texts...))
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if f.vecFor != nil {
			out[i] = f.vecFor(text)
		} else {
			out[i] = []float32{float32(len(text)), 1}
		}
	}
	return out, nil
}

func writeDocs(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
}

func TestBuildIndexesSortedFiles(t *testing.T) {
	dir := t.TempDir()
	writeDocs(t, dir, map[string]string{
		"charlie.txt": "charlie content",
		"alpha.txt":   "alpha content",
		"bravo.md":    "bravo content",
		"skip.json":   "not a text file",
	})

	emb := &fakeEmbedder{}
	idx, skipped, err := Build(context.Background(), emb, dir, 50)
	require.NoError(t, err)
	assert.Empty(t, skipped)

	require.Len(t, idx.Documents, 3)
	assert.Equal(t, "alpha.txt", idx.Documents[0].Filename)
	assert.Equal(t, "bravo.md", idx.Documents[1].Filename)
	assert.Equal(t, "charlie.txt", idx.Documents[2].Filename)
	assert.Len(t, idx.Embeddings, 3)
	assert.Equal(t, 3, idx.Metadata.Count)

	for _, doc := range idx.Documents {
		assert.NotEmpty(t, doc.ID)
		assert.Equal(t, filepath.Join(dir, doc.Filename), doc.Path)
	}
	assert.Equal(t, "alpha content", idx.Documents[0].Preview)
	assert.Equal(t, len("alpha content"), idx.Documents[0].Length)
}

func TestBuildRespectsMaxDocs(t *testing.T) {
	dir := t.TempDir()
	writeDocs(t, dir, map[string]string{
		"a.txt": "a", "b.txt": "b", "c.txt": "c", "d.txt": "d",
	})

	idx, _, err := Build(context.Background(), &fakeEmbedder{}, dir, 2)
	require.NoError(t, err)
	require.Len(t, idx.Documents, 2)
	assert.Equal(t, "a.txt", idx.Documents[0].Filename)
	assert.Equal(t, "b.txt", idx.Documents[1].Filename)
}

func TestBuildZeroMaxDocsYieldsEmptyIndex(t *testing.T) {
	dir := t.TempDir()
	writeDocs(t, dir, map[string]string{"a.txt": "a"})

	emb := &fakeEmbedder{}
	idx, skipped, err := Build(context.Background(), emb, dir, 0)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Empty(t, idx.Documents)
	assert.Empty(t, idx.Embeddings)
	assert.Equal(t, 0, idx.Metadata.Count)
	assert.Empty(t, emb.batches)
}

func TestBuildBatchesOfTen(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 23; i++ {
		files[string(rune('a'+i))+".txt"] = "content"
	}
	writeDocs(t, dir, files)

	emb := &fakeEmbedder{}
	idx, _, err := Build(context.Background(), emb, dir, 100)
	require.NoError(t, err)

	require.Len(t, idx.Documents, 23)
	require.Len(t, emb.batches, 3)
	assert.Len(t, emb.batches[0], 10)
	assert.Len(t, emb.batches[1], 10)
	assert.Len(t, emb.batches[2], 3)
}

func TestBuildTruncatesEmbeddingInput(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("x", 2000)
	writeDocs(t, dir, map[string]string{"long.txt": long})

	emb := &fakeEmbedder{}
	idx, _, err := Build(context.Background(), emb, dir, 10)
	require.NoError(t, err)

	require.Len(t, emb.batches, 1)
	assert.Len(t, emb.batches[0][0], embedCharBudget)
	// Preview is shorter still; Length records the original size.
	assert.Len(t, idx.Documents[0].Preview, previewChars)
	assert.Equal(t, 2000, idx.Documents[0].Length)
}

func TestBuildReportsSkippedFiles(t *testing.T) {
	dir := t.TempDir()
	writeDocs(t, dir, map[string]string{"good.txt": "fine"})
	// A directory with a matching extension cannot be read as a file.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	badPath := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0000))
	if _, err := os.ReadFile(badPath); err == nil {
		t.Skip("running as privileged user; cannot provoke read failure")
	}

	idx, skipped, err := Build(context.Background(), &fakeEmbedder{}, dir, 10)
	require.NoError(t, err)

	require.Len(t, skipped, 1)
	assert.Equal(t, "bad.txt", skipped[0].Filename)
	assert.Error(t, skipped[0].Err)

	require.Len(t, idx.Documents, 1)
	assert.Equal(t, "good.txt", idx.Documents[0].Filename)
}

func TestBuildAbortsOnEmbeddingFailure(t *testing.T) {
	dir := t.TempDir()
	writeDocs(t, dir, map[string]string{"a.txt": "a", "b.txt": "b"})

	emb := &fakeEmbedder{err: errors.New("service unavailable")}
	_, _, err := Build(context.Background(), emb, dir, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding batch failed")
}

func TestBuildMissingDirectory(t *testing.T) {
	_, _, err := Build(context.Background(), &fakeEmbedder{}, filepath.Join(t.TempDir(), "absent"), 10)
	assert.Error(t, err)
}
