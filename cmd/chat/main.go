// Interactive chat client demonstrating conversation windowing.
//
// The full dialog accumulates locally while every request carries only the
// trailing window that fits the model's context budget.
//
// Usage:
//
//	# Hosted API (reads OPENAI_API_KEY from the environment or .env)
//	go run ./cmd/chat/ -model gpt-4o
//
//	# Any compatible server
//	go run ./cmd/chat/ -base-url "http://localhost:8080/v1" -api-key "..." -model "my-model"
//
//	# Tight window to watch splitting happen
//	go run ./cmd/chat/ -backfill 4000 -max-turns 16 -verbose
//
//	# Custom model definitions, hot reloaded on change
//	go run ./cmd/chat/ -models-file models.yaml -model my-finetune
//
//	# Claude models count tokens via the Anthropic API (ANTHROPIC_API_KEY);
//	# completions still go to -base-url
//	go run ./cmd/chat/ -model claude-sonnet-4-5 -base-url "http://localhost:4000/v1"
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"

	"github.com/jg-phare/chatsplit/pkg/chat"
	"github.com/jg-phare/chatsplit/pkg/claude"
	"github.com/jg-phare/chatsplit/pkg/memory"
	"github.com/jg-phare/chatsplit/pkg/openai"
	"github.com/jg-phare/chatsplit/pkg/splitter"
	"github.com/jg-phare/chatsplit/pkg/tokenizer"
)

func main() {
	model := flag.String("model", splitter.DefaultModel, "Model ID used for token counting and completions")
	baseURL := flag.String("base-url", "", "Chat-completions API root (default "+openai.DefaultBaseURL+")")
	apiKey := flag.String("api-key", "", "API key (overrides OPENAI_API_KEY)")
	system := flag.String("system", "You are a helpful assistant.", "System prompt sent with every request")
	maxTurns := flag.Int("max-turns", 0, "Most recent turns eligible for the window (0 = default)")
	maxTokens := flag.Int("max-tokens", 0, "Completion token reservation (0 = half the context window)")
	modelsFile := flag.String("models-file", "", "YAML file with extra model definitions, hot reloaded on change")
	backfill := flag.Int("backfill", 0, "Seed the log with N alternating filler messages")
	envFile := flag.String("env", ".env", "Path to .env file (empty to skip)")
	verbose := flag.Bool("verbose", false, "Log window decisions to stderr")
	flag.Parse()

	if *envFile != "" {
		// Missing .env is fine
		_ = godotenv.Load(*envFile)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	tok := tokenizer.New(logger)
	if *modelsFile != "" {
		if err := tok.LoadModels(*modelsFile); err != nil {
			fatal(err)
		}
	}

	var est splitter.CostEstimator = tok
	if strings.HasPrefix(*model, "claude-") {
		ce, err := claude.New(claude.Config{APIKey: os.Getenv("ANTHROPIC_API_KEY")})
		if err != nil {
			fatal(err)
		}
		est = ce
	}

	// Fail fast on models nothing can count for
	ctxSize, err := est.ContextSize(*model)
	if err != nil {
		var unsupported *splitter.UnsupportedModelError
		if errors.As(err, &unsupported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintln(os.Stderr, "Register it in a -models-file with a context size and encoding.")
			os.Exit(1)
		}
		fatal(err)
	}

	key := *apiKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" && *baseURL == "" {
		fatal(fmt.Errorf("no API key: set OPENAI_API_KEY, use -api-key, or point -base-url at a server that needs none"))
	}

	conv := memory.NewConversation(splitter.New(est, splitter.Config{
		Model:               *model,
		MaxCompletionTokens: *maxTokens,
		MaxTurns:            *maxTurns,
		Logger:              logger,
	}))

	for i := 0; i < *backfill; i++ {
		var msg chat.Message
		if i%2 == 0 {
			msg = chat.NewUserMessage(fmt.Sprintf("Earlier question %d about the project history.", i/2))
		} else {
			msg = chat.NewAssistantMessage(fmt.Sprintf("Earlier answer %d with the details that were asked for.", i/2))
		}
		if _, err := conv.Append(msg); err != nil {
			fatal(err)
		}
	}

	client := openai.NewClient(openai.ClientConfig{
		BaseURL: *baseURL,
		APIKey:  key,
		Model:   *model,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *modelsFile != "" {
		go func() {
			if err := tok.Watch(ctx, *modelsFile); err != nil && ctx.Err() == nil {
				logger.Warn("model definitions watch stopped", "error", err)
			}
		}()
	}

	fmt.Printf("Model:   %s\n", *model)
	fmt.Printf("Context: %d tokens\n", ctxSize)
	if *backfill > 0 {
		fmt.Printf("Backfill: %d messages seeded\n", *backfill)
	}
	fmt.Println("Type a message and press enter. Commands: /clear drops history, /quit exits.")
	fmt.Println(strings.Repeat("-", 60))

	s := &session{
		conv:      conv,
		client:    client,
		system:    *system,
		maxTokens: *maxTokens,
	}

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
		switch line {
		case "/quit", "/exit":
			return
		case "/clear":
			conv.Clear()
			fmt.Println("history cleared")
			continue
		}

		if err := s.turn(ctx, line); err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

// session holds what one REPL turn needs.
type session struct {
	conv      *memory.Conversation
	client    openai.Client
	system    string
	maxTokens int
}

// turn appends the user input, sends the fitting window, streams the
// reply to stdout, and appends it to the log.
func (s *session) turn(ctx context.Context, input string) error {
	if _, err := s.conv.Append(chat.NewUserMessage(input)); err != nil {
		return err
	}

	win, err := s.conv.Window(ctx)
	if err != nil {
		return err
	}
	if len(win.Outdated) > 0 {
		fmt.Printf("[window] sending %d of %d messages, %d tokens left for the reply\n",
			len(win.Recent), s.conv.Len(), win.Remaining)
	}
	if !win.BudgetSatisfied {
		fmt.Println("[window] the last message alone exceeds the budget, sending it anyway")
	}

	msgs, err := openai.FromMessages(win.Recent)
	if err != nil {
		return err
	}
	sys := s.system
	req := &openai.CompletionRequest{
		Messages:  append([]openai.ChatMessage{{Role: "system", Content: &sys}}, msgs...),
		MaxTokens: s.maxTokens,
	}

	stream, err := s.client.StreamChatCompletion(ctx, req)
	if err != nil {
		return err
	}
	resp, err := stream.AccumulateWithCallback(func(chunk *openai.StreamChunk) {
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != nil {
				fmt.Print(*choice.Delta.Content)
			}
		}
	})
	if err != nil {
		return err
	}
	fmt.Println()

	if len(resp.Choices) == 0 {
		return fmt.Errorf("empty response from %s", resp.Model)
	}
	reply, err := resp.Choices[0].Message.ToMessage()
	if err != nil {
		return err
	}
	if _, err := s.conv.Append(reply); err != nil {
		return err
	}
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
