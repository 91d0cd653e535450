package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var (
	buildSource       string
	buildOutput       string
	buildChunkSize    int
	buildChunkOverlap int
	searchTopK        int
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build and inspect the vector index",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Chunk, embed and store the source text",
	Long: `Read the source text, drop blocklisted lines, split it into overlapping
chunks, embed every chunk and write the index with its build record.

A running 'ragchat serve' picks up the new index without a restart.

Examples:
  ragchat index build
  ragchat index build --source data/book.txt --chunk-size 256 --chunk-overlap 64`,
	Args: cobra.NoArgs,
	RunE: runIndexBuild,
}

var indexSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Show the chunks most similar to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIndexSearch,
}

var indexInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the last build record",
	Args:  cobra.NoArgs,
	RunE:  runIndexInfo,
}

func init() {
	indexBuildCmd.Flags().StringVar(&buildSource, "source", "", "source text file (default paths.data_path)")
	indexBuildCmd.Flags().StringVar(&buildOutput, "output", "", "output directory (default the configured index location)")
	indexBuildCmd.Flags().IntVar(&buildChunkSize, "chunk-size", 0, "chunk length in characters (default index.chunk_size)")
	indexBuildCmd.Flags().IntVar(&buildChunkOverlap, "chunk-overlap", -1,
		"characters shared by consecutive chunks (default index.chunk_overlap)")
	indexSearchCmd.Flags().IntVarP(&searchTopK, "limit", "k", 0, "number of chunks (default chat.top_k)")

	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexSearchCmd)
	indexCmd.AddCommand(indexInfoCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexBuild(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	builder, err := ensureIndexBuilder(settings, buildOutput)
	if err != nil {
		return err
	}

	req := domain.BuildRequest{
		SourcePath:   settings.Paths.DataPath,
		ChunkSize:    settings.Index.ChunkSize,
		ChunkOverlap: settings.Index.ChunkOverlap,
	}
	if buildSource != "" {
		req.SourcePath = buildSource
	}
	if buildChunkSize > 0 {
		req.ChunkSize = buildChunkSize
	}
	if buildChunkOverlap >= 0 {
		req.ChunkOverlap = buildChunkOverlap
	}

	cmd.Printf("Building index from %s\n", req.SourcePath)
	meta, err := builder.Build(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	cmd.Printf("Indexed %d chunks with %s\n", meta.TotalChunks, meta.EmbeddingModel)
	cmd.Printf("  Chunk size: %d, overlap: %d\n", meta.ChunkSettings.ChunkSize, meta.ChunkSettings.ChunkOverlap)
	cmd.Printf("  Embedding: %s\n", meta.Timing.EmbeddingDuration)
	cmd.Printf("  Total: %s\n", meta.Timing.TotalDuration)
	return nil
}

func runIndexSearch(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	retriever, err := ensureRetriever(cmd.Context(), settings, nil)
	if err != nil {
		return err
	}

	topK := searchTopK
	if topK <= 0 {
		topK = settings.Chat.TopK
	}

	query := strings.Join(args, " ")
	results, err := retriever.Search(cmd.Context(), query, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		cmd.Println("The index is empty.")
		return nil
	}

	for i, r := range results {
		cmd.Printf("%d. [chunk %d] %.4f\n", i+1, r.Chunk.Ordinal, r.Similarity)
		cmd.Printf("   %s\n", preview(r.Chunk.Text))
	}
	return nil
}

func runIndexInfo(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	inspector := ensureIndexInspector(settings)

	meta, err := inspector.Metadata(cmd.Context())
	if errors.Is(err, domain.ErrNotFound) {
		cmd.Printf("No index at %s. Run 'ragchat index build' first.\n", inspector.Location())
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading build record: %w", err)
	}

	cmd.Printf("Index: %s\n", inspector.Location())
	cmd.Printf("Built: %s\n", meta.Timestamp)
	cmd.Printf("Chunks: %d\n", meta.TotalChunks)
	cmd.Printf("Chunk size: %d, overlap: %d\n", meta.ChunkSettings.ChunkSize, meta.ChunkSettings.ChunkOverlap)
	cmd.Printf("Embedding model: %s\n", meta.EmbeddingModel)
	cmd.Printf("Embedding time: %s\n", meta.Timing.EmbeddingDuration)
	cmd.Printf("Total time: %s\n", meta.Timing.TotalDuration)
	return nil
}

// preview flattens a chunk to one line of at most 120 characters.
func preview(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) > 120 {
		return string(runes[:117]) + "..."
	}
	return flat
}
