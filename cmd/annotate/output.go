package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"wiki-annotator/internal/annotator"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorCyan, "→ "+msg))
}

// terminalNotifier shows session notices on stderr.
type terminalNotifier struct{}

func (terminalNotifier) Notify(level annotator.Level, message string) {
	switch level {
	case annotator.LevelError:
		printError("%s", message)
	case annotator.LevelWarning:
		printWarning("%s", message)
	case annotator.LevelSuccess:
		printSuccess("%s", message)
	default:
		printStep("%s", message)
	}
}

// promptConfirmer asks on stderr and reads a y/N answer.
type promptConfirmer struct {
	in *bufio.Reader
}

var _ annotator.Confirmer = promptConfirmer{}

func newPromptConfirmer(r io.Reader) promptConfirmer {
	return promptConfirmer{in: bufio.NewReader(r)}
}

func (p promptConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	answer, err := p.in.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
