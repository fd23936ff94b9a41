// Package ui is the terminal front end of the interactive session: it
// asks questions, prints entries and reports progress.
package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/matsen/bibshelf/internal/bibtex"
	"github.com/matsen/bibshelf/internal/prompt"
	"github.com/matsen/bibshelf/internal/reference"
)

// Console reads answers from in and writes to out. It implements
// prompt.Prompter and the fix engine's display.
type Console struct {
	in     *bufio.Reader
	out    io.Writer
	theme  Theme
	logger *slog.Logger
}

// NewConsole creates a console. A nil logger discards log lines.
func NewConsole(in io.Reader, out io.Writer, theme Theme, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Console{in: bufio.NewReader(in), out: out, theme: theme, logger: logger}
}

// Logger returns the logger behind Log and Debug.
func (c *Console) Logger() *slog.Logger { return c.logger }

// Log records a progress line.
func (c *Console) Log(msg string, args ...any) { c.logger.Info(msg, args...) }

// Debug records a diagnostic line.
func (c *Console) Debug(msg string, args ...any) { c.logger.Debug(msg, args...) }

// Message prints a user-facing notice.
func (c *Console) Message(msg string) { fmt.Fprintln(c.out, c.theme.Message.Render(msg)) }

// Warn prints a warning.
func (c *Console) Warn(msg string) { fmt.Fprintln(c.out, c.theme.Warn.Render(msg)) }

// Error prints an error notice. The session carries on.
func (c *Console) Error(msg string) { fmt.Fprintln(c.out, c.theme.Error.Render(msg)) }

// Print writes a plain line.
func (c *Console) Print(msg string) { fmt.Fprintln(c.out, msg) }

// Clear clears the terminal.
func (c *Console) Clear() { fmt.Fprint(c.out, "\033[H\033[2J") }

// ReadCommand shows the command prompt and reads one line.
func (c *Console) ReadCommand() (string, error) {
	fmt.Fprint(c.out, c.theme.Prompt.Render("bib> "))
	return c.readLine()
}

// AskUser prints message with its options and maps the answer onto them.
// Free-text questions pass no options.
func (c *Console) AskUser(message string, options []string) (string, error) {
	fmt.Fprint(c.out, c.theme.Prompt.Render(message))
	if len(options) > 0 {
		fmt.Fprint(c.out, " ", c.renderOptions(options))
	}
	fmt.Fprint(c.out, ": ")
	line, err := c.readLine()
	if err != nil {
		return "", err
	}
	return prompt.Resolve(line, options), nil
}

// YesNo asks a yes/no question, repeating it until the answer is one or the other.
func (c *Console) YesNo(message string, defaultYes bool) (bool, error) {
	for {
		ans, err := c.AskUser(message, prompt.YesNoOptions(defaultYes))
		if err != nil {
			return false, err
		}
		switch {
		case prompt.Matches(ans, "yes"):
			return true, nil
		case prompt.Matches(ans, "no"):
			return false, nil
		}
		c.Error(fmt.Sprintf("Answer yes or no, not %q.", ans))
	}
}

func (c *Console) renderOptions(options []string) string {
	parts := make([]string, len(options))
	for i, o := range options {
		switch {
		case strings.HasPrefix(o, "*"):
			parts[i] = c.theme.Default.Render(prompt.Name(o))
		case strings.HasPrefix(o, "#"):
			parts[i] = c.theme.Label.Render(prompt.Name(o))
		default:
			parts[i] = o
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", prompt.ErrNoInput
		}
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ShowEntry prints the full BibTeX text of e.
func (c *Console) ShowEntry(e *reference.Entry) {
	fmt.Fprint(c.out, bibtex.Format(e))
}

// ShowEntries prints the full text of several entries.
func (c *Console) ShowEntries(entries []*reference.Entry) {
	for _, e := range entries {
		c.ShowEntry(e)
	}
}
