package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const item = "# BACKLOG-123: Fix contact sorting\n\n" +
	"**Priority**: High\n" +
	"**Status**: In Progress\n" +
	"**Category**: bug / ui\n" +
	"**Sprint**: SPRINT-042\n" +
	"**Estimate**: ~30K tokens\n\n" +
	"## Summary\n\n\n" +
	"## Problem Statement\n\n" +
	"Contacts sort by first name.\n\n" +
	"### Repro\n\nOpen contacts.\n\n" +
	"## Notes\n\nIgnored.\n"

func TestTitle(t *testing.T) {
	assert.Equal(t, "Fix contact sorting", Parse([]byte(item)).Title())
	assert.Equal(t, "Plain title", Parse([]byte("intro\n\n# Plain title\n")).Title())
	assert.Equal(t, "", Parse([]byte("no headings")).Title())
}

func TestTitleSkipsCodeBlocks(t *testing.T) {
	src := "```\n# BACKLOG-1: not a title\n```\n\n# BACKLOG-2 Real one\n"
	assert.Equal(t, "Real one", Parse([]byte(src)).Title())
}

func TestSection(t *testing.T) {
	doc := Parse([]byte(item))
	// Summary is empty so the next candidate wins; subsections stay attached.
	assert.Equal(t, "Contacts sort by first name.\n\n### Repro\n\nOpen contacts.", doc.Description())
	assert.Equal(t, "Ignored.", doc.Section("Notes"))
	assert.Equal(t, "", doc.Section("Missing"))
}

func TestSectionTruncates(t *testing.T) {
	src := "# T\n\n## Description\n\n" + strings.Repeat("é", 600) + "\n"
	got := Parse([]byte(src)).Description()
	require.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, []rune(got), MaxSectionLen+3)
}

func TestFields(t *testing.T) {
	doc := Parse([]byte(item))
	assert.Equal(t, "High", doc.Word("priority"))
	assert.Equal(t, "In", doc.Word("Status"))
	assert.Equal(t, "In Progress", doc.Field("Status"))
	assert.Equal(t, "bug / ui", doc.Field("Category"))
	assert.Equal(t, "SPRINT-042", doc.Match("Sprint", `SPRINT-\d+|-`))
	assert.Equal(t, "~30K tokens", doc.Field("Estimate"))
	assert.Equal(t, "", doc.Field("Owner"))
}
