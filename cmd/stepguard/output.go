package main

import (
	"bytes"
	"io"
	"os"
	"strings"

	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/colorprofile"
	"github.com/mark3labs/stepguard/internal/tui/theme"
)

// stdout returns a writer that downsamples ANSI output to what the terminal
// supports and strips it entirely when stdout is not a terminal.
func stdout() io.Writer {
	return colorprofile.NewWriter(os.Stdout, os.Environ())
}

// highlight colors source for the terminal. The lexer is picked from the
// file name, then from the content, then plain text. Any failure returns
// source unchanged.
func highlight(source, fileName string) string {
	lexer := lexers.Match(fileName)
	if lexer == nil {
		lexer = lexers.Analyse(source)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	formatter := formatters.Get("terminal16m")
	if formatter == nil {
		formatter = formatters.Get("terminal256")
	}
	if formatter == nil {
		return source
	}

	baseStyle := styles.Get("monokai")
	if baseStyle == nil {
		baseStyle = styles.Fallback
	}

	// Match the token background to the theme's base background.
	bg := chroma.MustParseColour(theme.Current().BgBase)
	style, err := baseStyle.Builder().Transform(func(entry chroma.StyleEntry) chroma.StyleEntry {
		entry.Background = bg
		return entry
	}).Build()
	if err != nil {
		style = baseStyle
	}

	// The formatter closes its output with a reset after the last newline, so
	// the trailing newline is added back after formatting.
	iterator, err := lexer.Tokenise(nil, strings.TrimRight(source, "\n"))
	if err != nil {
		return source
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return source
	}
	return buf.String() + "\n"
}
