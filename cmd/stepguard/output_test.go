package main

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestHighlight_KeepsText(t *testing.T) {
	src := "log_level: info\ncooldown_seconds: 45\n"

	out := highlight(src, "stepguard.yml")

	assert.Contains(t, out, "\x1b[")
	assert.Equal(t, src, ansi.Strip(out))
}

func TestHighlight_NoEscapesAfterFinalNewline(t *testing.T) {
	out := highlight("log_level: info\ncooldown_seconds: 45\n", "stepguard.yml")

	assert.True(t, strings.HasSuffix(out, "\n"))
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Len(t, lines, 2, "a reset sequence must not spill onto its own line")
}

func TestHighlight_UnknownFileFallsBack(t *testing.T) {
	out := highlight("just words", "notes")

	assert.Equal(t, "just words\n", ansi.Strip(out))
}
