package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docchat/internal/chat"
	"github.com/ziadkadry99/docchat/internal/progress"
	"github.com/ziadkadry99/docchat/internal/session"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question about a document",
	Long: `Uploads the files given with --file and answers one question from the
first of them. Without --file the question goes to the model directly.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringSliceP("file", "f", nil, "document paths, directories or globs to upload")
	askCmd.Flags().String("document", "", "name of the uploaded document to ask (default: first uploaded)")
	askCmd.Flags().String("model", "", "chat model (overrides config)")
	askCmd.Flags().Float64("temperature", -1, "sampling temperature (overrides config)")
	askCmd.Flags().Bool("json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	question := strings.Join(args, " ")

	files, _ := cmd.Flags().GetStringSlice("file")
	document, _ := cmd.Flags().GetString("document")
	model, _ := cmd.Flags().GetString("model")
	temperature, _ := cmd.Flags().GetFloat64("temperature")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reporter := progress.NewReporter()
	backend, cleanup, err := buildBackend(cfg, progress.Func(reporter))
	if err != nil {
		return err
	}
	defer cleanup()

	svc := backend.Service(session.NewState("ask", cfg.ModelConfig()))
	modelCfg := svc.ModelConfig()
	if model != "" {
		modelCfg.Model = model
	}
	if temperature >= 0 {
		modelCfg.Temperature = temperature
	}
	if err := svc.SetModelConfig(modelCfg); err != nil {
		return err
	}

	var ans *chat.Answer
	if len(files) == 0 {
		ans, err = svc.AskGeneral(ctx, question, modelCfg)
	} else {
		ready, uploadErr := uploadFiles(ctx, svc, reporter, files)
		if uploadErr != nil {
			return uploadErr
		}
		if document == "" {
			if len(ready) == 0 {
				return fmt.Errorf("no document could be processed")
			}
			document = ready[0]
		}
		ans, err = svc.AskDocument(ctx, document, question)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ans)
	}

	fmt.Println(ans.Text)
	if verbose {
		fmt.Fprintf(os.Stderr, "\n%s: %d in / %d out tokens, ~$%.4f\n", ans.Model, ans.InputTokens, ans.OutputTokens, ans.Cost)
		for i, src := range ans.Sources {
			fmt.Fprintf(os.Stderr, "  %d. [%.1f%%] chunk %d: %s\n", i+1, src.Similarity*100, src.Position, truncate(src.Content, 120))
		}
	}
	return nil
}
