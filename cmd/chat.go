package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docchat/internal/assistant"
	"github.com/ziadkadry99/docchat/internal/chat"
	"github.com/ziadkadry99/docchat/internal/llm"
	"github.com/ziadkadry99/docchat/internal/logger"
	"github.com/ziadkadry99/docchat/internal/progress"
	"github.com/ziadkadry99/docchat/internal/session"
	"github.com/ziadkadry99/docchat/internal/vectordb"
)

var chatCmd = &cobra.Command{
	Use:   "chat [files...]",
	Short: "Start an interactive chat over your documents",
	Long: `Uploads the given files (paths, directories or globs such as "docs/**/*.pdf")
and starts an interactive prompt. Questions go to the selected document, or
to the general conversation when none is selected. Type /help for commands.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

const chatHelp = `Commands:
  /docs              list uploaded documents
  /use <name>        chat with a document
  /general           switch to the general conversation
  /upload <glob>     upload more files
  /history           show the current conversation
  /sources           show the passages behind the last answer
  /clear             clear the current conversation
  /remove <name>     remove a document
  /model [id]        show or select the chat model
  /temp <t>          set the temperature (0 to 1)
  /quit              exit`

// repl holds the interactive session's selection.
type repl struct {
	svc      *assistant.Service
	reporter progress.Reporter
	current  string // selected document; empty means general chat
	last     *chat.Answer
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

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

	r := &repl{
		svc:      backend.Service(session.NewState("cli", cfg.ModelConfig())),
		reporter: reporter,
	}

	if len(args) > 0 {
		ready, err := uploadFiles(ctx, r.svc, reporter, args)
		if err != nil {
			return err
		}
		if len(ready) > 0 {
			r.current = ready[0]
		}
	}

	fmt.Fprintf(os.Stderr, "docchat %s, model %s. Type /help for commands.\n", Version, r.svc.ModelConfig())

	for {
		prompt := promptui.Prompt{Label: r.label()}
		line, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := r.command(ctx, line); quit {
				return nil
			}
			continue
		}
		r.ask(ctx, line)
	}
}

func (r *repl) label() string {
	if r.current == "" {
		return "general"
	}
	return r.current
}

// command runs a slash command and reports whether the REPL should exit.
func (r *repl) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Println(chatHelp)
	case "/docs":
		docs := r.svc.Documents()
		if len(docs) == 0 {
			fmt.Println("No documents uploaded. Use /upload <glob>.")
		}
		for _, d := range docs {
			marker := " "
			if d.Name == r.current {
				marker = "*"
			}
			fmt.Printf("%s %s (%s, %d chunks, %d turns)\n    %s\n", marker, d.Name, d.Format, d.Chunks, d.Turns, d.Summary)
		}
	case "/use":
		if _, err := r.svc.Document(arg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return false
		}
		r.current = arg
	case "/general":
		r.current = ""
	case "/upload":
		if arg == "" {
			fmt.Fprintln(os.Stderr, "Usage: /upload <path or glob>")
			return false
		}
		ready, err := uploadFiles(ctx, r.svc, r.reporter, strings.Fields(arg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return false
		}
		if r.current == "" && len(ready) > 0 {
			r.current = ready[0]
		}
	case "/history":
		r.printHistory()
	case "/sources":
		if r.last == nil {
			fmt.Println("Nothing asked yet.")
			return false
		}
		fmt.Print(vectordb.FormatMatches(r.last.Sources))
	case "/clear":
		if r.current == "" {
			r.svc.ClearGeneralHistory()
		} else if err := r.svc.ClearHistory(r.current); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	case "/remove":
		target := arg
		if target == "" {
			target = r.current
		}
		if err := r.svc.RemoveDocument(target); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return false
		}
		if target == r.current {
			r.current = ""
		}
		fmt.Printf("Removed %s.\n", target)
	case "/model":
		cfg := r.svc.ModelConfig()
		if arg == "" {
			fmt.Printf("Model: %s\n", cfg)
			return false
		}
		cfg.Model = arg
		r.setModel(cfg)
	case "/temp":
		t, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Usage: /temp <0..1>")
			return false
		}
		cfg := r.svc.ModelConfig()
		cfg.Temperature = t
		r.setModel(cfg)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %s. Type /help.\n", name)
	}
	return false
}

func (r *repl) setModel(cfg llm.ModelConfig) {
	if err := r.svc.SetModelConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Printf("Model: %s\n", cfg)
}

func (r *repl) ask(ctx context.Context, question string) {
	var (
		ans *chat.Answer
		err error
	)
	if r.current == "" {
		ans, err = r.svc.AskGeneral(ctx, question, r.svc.ModelConfig())
	} else {
		ans, err = r.svc.AskDocument(ctx, r.current, question)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	r.last = ans

	fmt.Printf("\n%s\n\n", ans.Text)
	logger.Debug("%s: %d in / %d out tokens, ~$%.4f", ans.Model, ans.InputTokens, ans.OutputTokens, ans.Cost)
}

func (r *repl) printHistory() {
	var turns []session.Turn
	if r.current == "" {
		turns = r.svc.GeneralHistory()
	} else {
		var err error
		if turns, err = r.svc.GetHistory(r.current); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
	}
	if len(turns) == 0 {
		fmt.Println("The conversation is empty.")
	}
	for _, t := range turns {
		fmt.Printf("[%s] %s\n", t.Role, t.Text)
	}
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
