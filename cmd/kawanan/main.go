// Command kawanan is a demo REPL: it runs a single agent against the
// configured backend and streams replies to the terminal.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hmaulana/kawanan/internal/logger"
	"github.com/hmaulana/kawanan/pkg/agent"
	"github.com/hmaulana/kawanan/pkg/chat"
	"github.com/hmaulana/kawanan/pkg/orchestrator"
)

type options struct {
	mode         string
	model        string
	instructions string
	configFile   string
	logFile      string
	logLevel     string
	debug        bool
}

func main() {
	opts := &options{}

	root := &cobra.Command{
		Use:   "kawanan",
		Short: "Interactive agent REPL",
		Long:  "Run a single agent loop against an OpenAI-compatible or Anthropic backend. Type /exit or press Ctrl+C to quit.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
		SilenceUsage: true,
	}

	flags := root.Flags()
	flags.StringVarP(&opts.mode, "mode", "M", "openai", "backend mode: openai, ollama, gemini or anthropic")
	flags.StringVarP(&opts.model, "model", "m", "", "model name (required)")
	flags.StringVarP(&opts.instructions, "instructions", "i", "", "agent system prompt")
	flags.StringVarP(&opts.configFile, "config", "c", "", "path to a JSON credentials file")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to this file")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flags.BoolVarP(&opts.debug, "debug", "d", false, "raise run logging to debug level")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, opts *options) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := logger.New(logger.Config{
		Level:   opts.logLevel,
		File:    opts.logFile,
		Console: opts.logFile == "",
		Pretty:  true,
	})
	if err != nil {
		return err
	}
	defer log.Close()

	o, err := orchestrator.New(orchestrator.Config{
		Mode:       orchestrator.Mode(opts.mode),
		ConfigFile: opts.configFile,
		Logger:     log.Zerolog(),
	})
	if err != nil {
		return err
	}

	active, err := agent.New("assistant",
		agent.WithModel(opts.model),
		agent.WithInstructions(opts.instructions),
	)
	if err != nil {
		return err
	}

	params := orchestrator.DefaultRunParams()
	params.Debug = opts.debug

	var history []chat.Message
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/exit" {
			break
		}

		history = append(history, chat.Message{Role: chat.RoleUser, Content: line})

		var failed bool
		for ev := range o.RunStream(ctx, active, history, params) {
			switch ev.Kind {
			case orchestrator.EventDelta:
				fmt.Print(ev.Delta.Content)
			case orchestrator.EventDelimEnd:
				fmt.Println()
			case orchestrator.EventResponse:
				history = append(history, ev.Response.Messages...)
				active = ev.Response.Agent
				params.ContextVariables = ev.Response.ContextVariables
			case orchestrator.EventError:
				fmt.Fprintln(os.Stderr, "error:", ev.Err)
				failed = true
			}
		}
		if failed && ctx.Err() != nil {
			break
		}
	}

	return scanner.Err()
}
