package web

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// reasons renders review reasons: GFM markdown, then the UGC sanitizer.
// Raw HTML in the source passes through goldmark and is left to bluemonday.
var reasons = struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}{
	md: goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe(), html.WithHardWraps()),
	),
	policy: bluemonday.UGCPolicy(),
}

// RenderMarkdown converts a review reason to sanitized HTML. Blank input
// yields "".
func RenderMarkdown(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := reasons.md.Convert([]byte(src), &buf); err != nil {
		return reasons.policy.Sanitize(src)
	}
	return reasons.policy.Sanitize(buf.String())
}
