package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vm "github.com/ericfisherdev/pointspanel/internal/adapter/driving/web/viewmodel"
)

func testPanel() vm.ReviewPanelViewModel {
	return vm.ReviewPanelViewModel{
		SessionID:    "s-1",
		DocumentType: "Task",
		DocumentName: "TASK-0001",
		CSRFToken:    "tok",
		ReviewPoints: 4,
		CanReview:    true,
		Recipients: []vm.RecipientViewModel{
			{User: "bob@example.com", Name: "Bob"},
			{User: "cora@example.com", Name: "Cora <QA>"},
		},
		Pills: []vm.PillViewModel{
			{ReviewID: "R1", Label: "-2", Class: "criticism", Detail: `a "criticized" b`, ReasonHTML: "<em>flaky</em>"},
		},
		Form: vm.ReviewFormViewModel{Open: true, ToUser: "cora@example.com", Polarity: "Criticism", Points: 2, Reason: "x < y"},
	}
}

func TestReviewPanel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ReviewPanel(testPanel()).Render(context.Background(), &buf))
	html := buf.String()

	assert.True(t, strings.HasPrefix(html, `<section class="review-panel" id="review-panel" data-session="s-1">`))
	assert.Contains(t, html, `<span class="balance">4 review points</span>`)
	assert.Contains(t, html, `<dialog class="review-dialog" open>`)
	assert.Contains(t, html, `action="/app/sessions/s-1/reviews"`)
	assert.Contains(t, html, `<option value="bob@example.com">Bob</option>`)
	assert.Contains(t, html, `<option value="cora@example.com" selected>Cora &lt;QA&gt;</option>`)
	assert.Contains(t, html, `value="Criticism" checked> Criticism`)
	assert.Contains(t, html, `max="4" value="2"`)
	assert.Contains(t, html, `<textarea name="reason" required>x &lt; y</textarea>`)
	assert.Contains(t, html, `<details class="pill" data-polarity="criticism" data-review="R1">`)
	assert.Contains(t, html, `<summary title="a &#34;criticized&#34; b">-2</summary>`)
	assert.Contains(t, html, `<div class="reason"><em>flaky</em></div>`)
	assert.True(t, strings.HasSuffix(html, `</ul></section>`))
}

func TestReviewPanel_Disabled(t *testing.T) {
	panel := testPanel()
	panel.CanReview = false
	panel.DisabledTitle = "You don't have enough review points"
	panel.Message = &vm.MessageViewModel{Kind: "error", Text: "insufficient points"}

	var buf bytes.Buffer
	require.NoError(t, ReviewPanel(panel).Render(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, `disabled title="You don&#39;t have enough review points">Review</button>`)
	assert.Contains(t, html, `<p role="status" class="message" data-kind="error">insufficient points</p>`)
	assert.NotContains(t, html, "<dialog")
}

func TestLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Layout("TASK <1>", PillList("s-1", nil)).Render(context.Background(), &buf))
	html := buf.String()

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<title>TASK &lt;1&gt;</title>")
	assert.Contains(t, html, `<body><ul class="review-pills" id="review-pills" data-refresh="/app/sessions/s-1/pills"></ul></body>`)
}
