package web

import (
	"context"
	"fmt"

	vm "github.com/ericfisherdev/pointspanel/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/pointspanel/internal/application"
	"github.com/ericfisherdev/pointspanel/internal/domain/model"
)

// noPointsTitle is the tooltip of the review trigger once the budget is spent.
const noPointsTitle = "You don't have enough review points"

// toPillViewModels converts derived pills for display.
func toPillViewModels(pills []application.ReviewPill) []vm.PillViewModel {
	out := make([]vm.PillViewModel, 0, len(pills))
	for _, p := range pills {
		sign := "+"
		if p.Class == model.PillClassCriticism {
			sign = "-"
		}
		out = append(out, vm.PillViewModel{
			ReviewID:   p.ReviewID,
			Label:      fmt.Sprintf("%s%d", sign, p.Magnitude),
			Class:      p.Class,
			Detail:     p.Detail,
			ReasonHTML: RenderMarkdown(p.Reason),
			When:       p.When,
		})
	}
	return out
}

// toRecipientViewModels pairs each involved user with a display name.
func toRecipientViewModels(ctx context.Context, users model.InvolvementSet, names *application.DisplayNames) []vm.RecipientViewModel {
	out := make([]vm.RecipientViewModel, 0, len(users))
	for _, u := range users {
		out = append(out, vm.RecipientViewModel{User: u, Name: names.FullName(ctx, u)})
	}
	return out
}

// toReviewPanelViewModel builds the panel for a session. The trigger is
// disabled when the balance is unknown or spent.
func toReviewPanelViewModel(
	ctx context.Context,
	session *application.DocumentSession,
	budget model.PointsBalance,
	loaded bool,
	names *application.DisplayNames,
	csrf string,
) vm.ReviewPanelViewModel {
	panel := vm.ReviewPanelViewModel{
		SessionID:    session.ID,
		DocumentType: session.Ref.Type,
		DocumentName: session.Ref.Name,
		CSRFToken:    csrf,
		ReviewPoints: budget.ReviewPoints,
		CanReview:    loaded && !budget.Exhausted(),
		Recipients:   toRecipientViewModels(ctx, session.Involvement(), names),
		Pills:        toPillViewModels(session.Pills()),
		Form:         vm.ReviewFormViewModel{Polarity: string(model.PolarityAppreciation), Points: 1},
	}
	if !panel.CanReview {
		panel.DisabledTitle = noPointsTitle
		if !loaded {
			panel.DisabledTitle = "Review points are not available yet"
		}
	}
	return panel
}
