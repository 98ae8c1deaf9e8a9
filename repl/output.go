package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/term"

	"github.com/Paranoid-AF/webterm"
	"github.com/Paranoid-AF/webterm/dispatch"
	"github.com/Paranoid-AF/webterm/redact"
)

// termWriter wraps a file and converts \n to \r\n when the file is a terminal
// (needed because raw mode disables the kernel's NL→CRNL translation).
// When the file is redirected, \n passes through unchanged.
func termWriter(f *os.File) io.Writer {
	if term.IsTerminal(int(f.Fd())) {
		return &crlfWriter{w: f}
	}
	return f
}

type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	replaced := bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))
	_, err := c.w.Write(replaced)
	return len(p), err // report original length to caller
}

const (
	ansiReset = "\x1b[0m"
	ansiDim   = "\x1b[2m"
	ansiRed   = "\x1b[31m"
	ansiCyan  = "\x1b[36m"
)

// render turns an intent into text for the terminal. Intents with no
// visible form return "".
func render(it webterm.Intent) string {
	switch it.Kind {
	case webterm.IntentShowHint:
		return ansiDim + "hint: " + it.Text + ansiReset
	case webterm.IntentShowCaptcha:
		if it.Captcha == nil {
			return ""
		}
		return ansiCyan + "captcha: " + it.Captcha.Challenge + ansiReset + " (answer with --captcha <code>)"
	case webterm.IntentOutput:
		text := strings.ReplaceAll(it.Text, "\n", "\r\n")
		if it.Error {
			return ansiRed + text + ansiReset
		}
		return text
	case webterm.IntentCandidates:
		return strings.Join(it.Candidates, "  ")
	case webterm.IntentClear:
		return "\x1b[2J\x1b[H"
	case webterm.IntentTheme:
		return "theme: " + it.Text
	}
	return ""
}

// transcriptEntry is one submitted command as recorded on stdout.
type transcriptEntry struct {
	Request transcriptRequest `toml:"request"`
	Result  transcriptResult  `toml:"result"`
}

type transcriptRequest struct {
	Timestamp time.Time `toml:"timestamp"`
	Input     string    `toml:"input"`
	Cwd       string    `toml:"cwd"`
	Identity  string    `toml:"identity"`
}

type transcriptResult struct {
	Success     bool     `toml:"success"`
	Message     string   `toml:"message"`
	Remote      bool     `toml:"remote"`
	Path        string   `toml:"path,omitempty"`
	Suggestions []string `toml:"suggestions,omitempty"`
}

// writeEntry appends a TOML-formatted transcript entry to w. Secrets in
// the input are masked.
func writeEntry(w io.Writer, input, cwd string, sess dispatch.Session, res dispatch.Result) error {
	entry := transcriptEntry{
		Request: transcriptRequest{
			Timestamp: time.Now().Truncate(time.Second),
			Input:     redact.Line(input),
			Cwd:       cwd,
			Identity:  string(sess.Identity()),
		},
		Result: transcriptResult{
			Success:     res.Success,
			Message:     res.Message,
			Remote:      res.Remote,
			Suggestions: res.Suggestions,
		},
	}
	if res.PathChanged {
		entry.Result.Path = sess.CurrentPath
	}

	if _, err := io.WriteString(w, "# "+strings.Repeat("═", 60)+"\n\n"); err != nil {
		return err
	}
	if err := toml.NewEncoder(w).Encode(entry); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
