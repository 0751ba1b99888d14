package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ExpertVagabond/watsonx-mcp-server/internal/rag"
)

const defaultMaxDocs = 50

var searchTopK int

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	scoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sourceStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("4"))
)

// buildCmd rebuilds the embedding index from the docs directory.
var buildCmd = &cobra.Command{
	Use:   "build [maxDocuments]",
	Short: "Build the embedding index from the docs directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxDocs := defaultMaxDocs
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 0 {
				return fmt.Errorf("maxDocuments must be a non-negative integer, got %q", args[0])
			}
			maxDocs = n
		}

		client, cfg, err := newClient()
		if err != nil {
			return err
		}

		log.Info("building index", "dir", cfg.DocsDir, "max_docs", maxDocs, "model", client.EmbeddingModel())
		idx, skipped, err := rag.Build(cmd.Context(), client, cfg.DocsDir, maxDocs)
		if err != nil {
			return err
		}
		for _, s := range skipped {
			log.Warn("skipped unreadable file", "file", s.Filename, "error", s.Err)
		}

		if err := idx.Save(cfg.IndexPath); err != nil {
			return err
		}
		log.Info("index written", "path", cfg.IndexPath, "documents", idx.Metadata.Count, "skipped", len(skipped))
		fmt.Printf("Indexed %d documents into %s\n", idx.Metadata.Count, cfg.IndexPath)
		return nil
	},
}

// searchCmd runs a similarity search against the index.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the index by semantic similarity",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		client, cfg, err := newClient()
		if err != nil {
			return err
		}

		idx := rag.Load(cfg.IndexPath)
		if len(idx.Documents) == 0 {
			return fmt.Errorf("index %s is empty; run build first", cfg.IndexPath)
		}

		results, err := rag.Search(cmd.Context(), client, idx, query, searchTopK)
		if err != nil {
			return err
		}

		fmt.Println(titleStyle.Render(fmt.Sprintf("Top %d matches for %q", len(results), query)))
		for i, r := range results {
			fmt.Printf("%d. %s %s\n", i+1,
				r.Document.Filename,
				scoreStyle.Render(fmt.Sprintf("(%.4f)", r.Similarity)))
			if r.Document.Preview != "" {
				fmt.Println(dimStyle.Render("   " + firstLine(r.Document.Preview)))
			}
		}
		return nil
	},
}

// ragCmd answers a question grounded in retrieved documents.
var ragCmd = &cobra.Command{
	Use:   "rag <question>",
	Short: "Answer a question using retrieved documents as context",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		client, cfg, err := newClient()
		if err != nil {
			return err
		}

		idx := rag.Load(cfg.IndexPath)
		answer, err := rag.Ask(cmd.Context(), client, client, idx, question, rag.DefaultAnswerTopK)
		if err != nil {
			if errors.Is(err, rag.ErrNoDocuments) || errors.Is(err, rag.ErrNoContext) {
				fmt.Println("No answer available:", err)
				return nil
			}
			return err
		}

		fmt.Println(answer.Text)
		fmt.Println(sourceStyle.Render("Sources: " + strings.Join(answer.Sources, ", ")))
		return nil
	},
}

// statsCmd prints index metadata.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigOnly()
		if err != nil {
			return err
		}

		idx := rag.Load(cfg.IndexPath)
		fmt.Println(titleStyle.Render("Index: " + cfg.IndexPath))
		fmt.Printf("Documents: %d\n", idx.Metadata.Count)
		if !idx.Metadata.Created.IsZero() {
			fmt.Printf("Created:   %s\n", idx.Metadata.Created.Format("2006-01-02 15:04:05 MST"))
		}
		if !idx.Metadata.Updated.IsZero() {
			fmt.Printf("Updated:   %s\n", idx.Metadata.Updated.Format("2006-01-02 15:04:05 MST"))
		}
		if len(idx.Embeddings) > 0 {
			fmt.Printf("Dimensions: %d\n", len(idx.Embeddings[0]))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 5, "number of results to return")
}

// firstLine flattens a preview to a single display line.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
