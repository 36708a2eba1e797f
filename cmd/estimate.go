package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docchat/internal/indexer"
	"github.com/ziadkadry99/docchat/internal/walker"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate [files...]",
	Short: "Estimate embedding costs for documents",
	Long:  `Loads and chunks the given documents offline and prints chunk counts, estimated embedding tokens and cost without making any API calls.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEstimate,
}

func init() {
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	files, err := walker.Collect(args, walker.WalkerConfig{})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No documents found.")
		return nil
	}

	// Estimation never embeds, so no embedder is needed.
	pipeline := indexer.NewPipeline(nil, newSplitter(cfg), cfg.SummaryLength)

	fmt.Println("Cost Estimate")
	fmt.Println("=============")
	fmt.Printf("  %-32s %-8s %7s %7s %10s %10s\n", "Document", "Format", "Units", "Chunks", "Tokens", "Cost")

	var totalChunks, totalTokens int
	var totalCost float64
	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", f.Path, err)
		}
		est, err := pipeline.Estimate(f.Name(), data, cfg.EmbeddingModel)
		if err != nil {
			fmt.Printf("  %-32s error: %v\n", truncate(f.Name(), 32), err)
			continue
		}
		fmt.Printf("  %-32s %-8s %7d %7d %10d %10s\n",
			truncate(est.Name, 32), est.Format, est.Units, est.Chunks, est.Tokens, fmt.Sprintf("$%.4f", est.EstimatedCost))
		totalChunks += est.Chunks
		totalTokens += est.Tokens
		totalCost += est.EstimatedCost
	}

	fmt.Printf("  %-32s %-8s %7s %7d %10d %10s\n", "Total", "", "", totalChunks, totalTokens, fmt.Sprintf("$%.4f", totalCost))
	fmt.Println()
	fmt.Printf("  Embedding model: %s\n", cfg.EmbeddingModel)
	fmt.Printf("  Chunking:        %d chars, %d overlap\n", cfg.ChunkSize, cfg.ChunkOverlap)
	return nil
}
