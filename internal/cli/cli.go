// Package cli implements the anthropic command.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/Bowery/prompt"
	"github.com/livebud/cli"
	"github.com/livebud/color"
	"github.com/matthewmueller/anthropic"
	"github.com/matthewmueller/anthropic/tool/fetch"
)

func New(log *slog.Logger) *CLI {
	return &CLI{
		log:    log,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

type CLI struct {
	log    *slog.Logger
	Stdout io.Writer
	Stderr io.Writer
}

func (c *CLI) Parse(ctx context.Context, args ...string) error {
	cmd := &Chat{Log: c.log}
	cli := cli.New("anthropic", "chat with Claude models")
	cli.Flag("model", "model to use").Short('m').Env("ANTHROPIC_MODEL").String(&cmd.Model).Default("claude-sonnet-4-5")
	cli.Flag("max-tokens", "maximum response tokens").Int(&cmd.MaxTokens).Default(4096)
	cli.Flag("system", "system prompt").Optional().String(&cmd.System)
	cli.Flag("thinking", "thinking token budget, 0 disables").Int(&cmd.Thinking).Default(0)
	cli.Args("prompt", "prompt to send to the model").Optional().Strings(&cmd.Prompt)
	cli.Run(func(ctx context.Context) error {
		return c.Chat(ctx, cmd)
	})

	{ // $ anthropic models
		cli := cli.Command("models", "list available models")
		cli.Run(func(ctx context.Context) error {
			return c.Models(ctx)
		})
	}

	return cli.Parse(ctx, args...)
}

type Chat struct {
	Log       *slog.Logger
	Model     string
	MaxTokens int
	System    *string
	Thinking  int
	Prompt    []string
}

// Chat streams a conversation to stdout. Thinking goes to stderr, dimmed,
// so piping stdout captures only the answer.
func (c *CLI) Chat(ctx context.Context, in *Chat) error {
	client, err := anthropic.Load(anthropic.WithLogger(c.log))
	if err != nil {
		return fmt.Errorf("cli: unable to load client: %w", err)
	}

	options := []anthropic.AgentOption{
		anthropic.WithMaxTokens(in.MaxTokens),
		anthropic.WithTools(fetch.New(http.DefaultClient)),
	}
	if in.System != nil {
		options = append(options, anthropic.WithSystem(*in.System))
	}
	if in.Thinking > 0 {
		options = append(options, anthropic.WithThinking(in.Thinking))
	}
	agent := client.Agent(in.Model, options...)

	fmt.Fprintln(c.Stderr, color.Dim(in.Model))

	if len(in.Prompt) > 0 {
		if err := c.turn(ctx, agent, strings.Join(in.Prompt, " ")); err != nil {
			return err
		}
		fmt.Fprintln(c.Stdout)
		return nil
	}

	// Interactive mode
	for {
		input, err := prompt.Basic("> ", true)
		if err != nil {
			if err == prompt.ErrEOF || err == prompt.ErrCTRLC {
				return nil
			}
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if err := c.turn(ctx, agent, input); err != nil {
			return err
		}
		fmt.Fprintln(c.Stdout)
	}
}

func (c *CLI) turn(ctx context.Context, agent *anthropic.Agent, input string) error {
	for event, err := range agent.Run(ctx, input) {
		if err != nil {
			return err
		}
		delta, ok := event.(*anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		switch d := delta.Delta.(type) {
		case *anthropic.TextDelta:
			fmt.Fprint(c.Stdout, d.Text)
		case *anthropic.ThinkingDelta:
			fmt.Fprint(c.Stderr, color.Dim(d.Thinking))
		}
	}
	return nil
}

// Models lists the models available to the configured API key.
func (c *CLI) Models(ctx context.Context) error {
	client, err := anthropic.Load(anthropic.WithLogger(c.log))
	if err != nil {
		return fmt.Errorf("cli: unable to load client: %w", err)
	}
	models, err := client.Models(ctx)
	if err != nil {
		return fmt.Errorf("cli: listing models: %w", err)
	}
	for _, m := range models {
		fmt.Fprint(c.Stdout, m.ID)
		if m.DisplayName != "" {
			fmt.Fprintf(c.Stdout, " (%s)", m.DisplayName)
		}
		fmt.Fprintln(c.Stdout)
	}
	return nil
}
