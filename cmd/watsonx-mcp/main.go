package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ExpertVagabond/watsonx-mcp-server/internal/config"
	"github.com/ExpertVagabond/watsonx-mcp-server/internal/version"
	"github.com/ExpertVagabond/watsonx-mcp-server/internal/watsonx"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "watsonx-mcp",
	Short: "watsonx.ai CLI and MCP server with local RAG",
	Long: `watsonx-mcp fronts IBM watsonx.ai text generation and embeddings.

It can run as an MCP stdio server exposing generation, model listing and
embedding tools, or as a CLI for building a local embedding index over a
directory of documents, searching it, and answering questions grounded in
the retrieved text.`,
	Version: version.Full(),
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("watsonx-mcp %s\n", version.Full())
		if version.BuildDate != "unknown" {
			fmt.Printf("Build date: %s\n", version.BuildDate)
		}
		fmt.Printf("Go version: %s\n", version.GoVersion)
	},
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.json", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(ragCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)

	// If no command is specified, default to serve
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	}
}

func initLogging() {
	// Progress goes to stderr so stdout stays clean for results and, in
	// serve mode, for the protocol stream.
	log.SetOutput(os.Stderr)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

// newClient loads configuration and constructs the watsonx client,
// failing fast when credentials are missing.
func newClient() (*watsonx.Client, *config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	client, err := watsonx.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

// loadConfigOnly loads configuration without requiring credentials, for
// commands that never touch the remote service.
func loadConfigOnly() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
