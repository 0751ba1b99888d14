// Package rag implements the local retrieval layer: a flat JSON embedding
// index over a directory of text documents, cosine-similarity search, and
// retrieval-augmented answer assembly.
package rag

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// Document holds the metadata captured for one indexed file. Immutable
// once written except by a full rebuild.
type Document struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Preview  string `json:"preview"`
	Length   int    `json:"length"`
}

// Metadata describes the index aggregate.
type Metadata struct {
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
	Count   int       `json:"count"`
}

// Index is the persisted collection of documents and their embeddings.
// Embeddings are positionally aligned with Documents: the vector at
// position i belongs to the document at position i. It is rebuilt
// wholesale, never updated incrementally, and assumes a single writer.
type Index struct {
	Documents  []Document  `json:"documents"`
	Embeddings [][]float32 `json:"embeddings"`
	Metadata   Metadata    `json:"metadata"`
}

// NewIndex returns an empty index stamped with a fresh creation time.
func NewIndex() *Index {
	return &Index{
		Documents:  []Document{},
		Embeddings: [][]float32{},
		Metadata:   Metadata{Created: time.Now().UTC()},
	}
}

// Load reads the index file at path. A missing, unreadable, or malformed
// file is not an error: it means "no index yet" and yields a fresh empty
// index. Corruption (including a document/embedding count mismatch) is
// logged and likewise treated as absent.
func Load(path string) *Index {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("could not read index file, starting empty", "path", path, "error", err)
		}
		return NewIndex()
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		log.Warn("index file is malformed, starting empty", "path", path, "error", err)
		return NewIndex()
	}
	if len(idx.Documents) != len(idx.Embeddings) {
		log.Warn("index file is corrupt: document/embedding count mismatch, starting empty",
			"path", path, "documents", len(idx.Documents), "embeddings", len(idx.Embeddings))
		return NewIndex()
	}

	if idx.Documents == nil {
		idx.Documents = []Document{}
	}
	if idx.Embeddings == nil {
		idx.Embeddings = [][]float32{}
	}
	return &idx
}

// Save stamps the updated time and count, then writes the whole index as
// JSON. The write goes to a temporary file in the same directory followed
// by a rename, so a crash mid-write cannot leave a truncated index behind.
func (idx *Index) Save(path string) error {
	idx.Metadata.Updated = time.Now().UTC()
	idx.Metadata.Count = len(idx.Documents)
	if idx.Metadata.Created.IsZero() {
		idx.Metadata.Created = idx.Metadata.Updated
	}

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".rag_index-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp index file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp index file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	return nil
}
