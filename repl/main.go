// Command webterm-repl is an interactive terminal for the blog shell.
// It uses raw terminal input for Tab completion and live hints, and writes
// a TOML transcript of submitted commands to stdout.
//
// Usage:
//
//	./webterm-repl             # interactive, transcript on screen
//	./webterm-repl > log.toml  # prompt on screen, transcript to file
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Paranoid-AF/webterm"
	"github.com/Paranoid-AF/webterm/interp"
)

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "webterm-repl",
		Short: "Interactive terminal for the webterm command service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return run()
		},
	}
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "log debug output to stderr")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := webterm.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	opts, err := interp.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}

	editor, err := NewEditor()
	if err != nil {
		return err
	}
	defer editor.Close()

	tty := editor.Tty()
	show := func(intents []webterm.Intent) {
		for _, it := range intents {
			if text := render(it); text != "" {
				editor.Notify(text)
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts.Sink = func(it webterm.Intent) { show([]webterm.Intent{it}) }
	in := interp.New(ctx, opts)
	defer in.Wait()

	fmt.Fprintf(tty, "\033[2J\033[H") // clear screen
	fmt.Fprintf(tty, "webterm repl (%s)\r\n", webterm.ResolveBaseURL(cfg))
	fmt.Fprintf(tty, "Tab completes, Up/Down browse history, :quit exits\r\n\r\n")

	show(in.Start(ctx))

	editor.History = in.History()
	editor.OnChange = func(line string) { show(in.OnInput(line)) }
	editor.OnTab = func(line string, cursor int) (string, int, bool) {
		for _, it := range in.OnTab(line, cursor) {
			switch it.Kind {
			case webterm.IntentRewrite:
				return it.Line, it.Cursor, true
			case webterm.IntentCandidates:
				show([]webterm.Intent{it})
			}
		}
		return "", 0, false
	}

	// stdout writer: converts \n → \r\n when stdout is a terminal (raw mode),
	// passes \n through unchanged when redirected to a file.
	out := termWriter(os.Stdout)

	for {
		prompt := in.Session().CurrentPath + " $ "
		text, _, err := editor.ReadLine(prompt)
		if err == io.EOF || err == ErrInterrupt {
			break
		}
		if err != nil {
			fmt.Fprintf(tty, "read error: %v\r\n", err)
			break
		}

		if text == ":quit" || text == ":q" {
			break
		}

		cwd := in.Session().CurrentPath
		sub := in.Prepare(text)
		show(in.OnInput(""))
		res, intents := in.Run(ctx, sub)
		show(intents)

		if text == "" {
			continue
		}
		if err := writeEntry(out, text, cwd, in.Session(), res); err != nil {
			slog.Warn("failed to write transcript", "error", err)
		}
	}
	return nil
}
