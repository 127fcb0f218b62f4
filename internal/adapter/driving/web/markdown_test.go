package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		contains    []string
		notContains []string
	}{
		{name: "plain text", in: "clean fix", contains: []string{"clean fix"}},
		{name: "bold", in: "**great** work", contains: []string{"<strong>great</strong>"}},
		{name: "inline code", in: "use `errors.Is`", contains: []string{"<code>errors.Is</code>"}},
		{name: "link", in: "[PR](https://example.com/pr/1)", contains: []string{`<a href="https://example.com/pr/1"`, "PR</a>"}},
		{name: "strikethrough", in: "~~flaky~~", contains: []string{"<del>flaky</del>"}},
		{name: "hard wraps", in: "line one\nline two", contains: []string{"<br"}},
		{name: "script stripped", in: `<script>alert("xss")</script>`, notContains: []string{"<script>"}},
		{name: "event handler stripped", in: `<img src="x" onerror="alert(1)">`, notContains: []string{"onerror"}},
		{name: "javascript link stripped", in: `[x](javascript:alert(1))`, notContains: []string{"javascript:"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderMarkdown(tt.in)
			for _, s := range tt.contains {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, got, s)
			}
		})
	}
}

func TestRenderMarkdown_Blank(t *testing.T) {
	assert.Equal(t, "", RenderMarkdown(""))
	assert.Equal(t, "", RenderMarkdown("  \n"))
}
