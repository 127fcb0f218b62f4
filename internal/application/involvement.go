package application

import (
	"strings"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
)

// DefaultAdminUser is the system account that can never receive points.
const DefaultAdminUser = "Administrator"

// ResolveInvolvement derives the eligible recipients for a document: the
// owner, every user-reference field value, senders of sent communications and
// the authors of comments, versions and assignments. The result is
// deduplicated and never contains empty values, adminUser or actingUser.
// User IDs compare as model.SameUser does; the first spelling seen is kept.
func ResolveInvolvement(
	schema model.Schema,
	doc model.Document,
	history model.DocumentHistory,
	actingUser string,
	adminUser string,
) model.InvolvementSet {
	candidates := []string{doc.Owner}

	for _, f := range schema.UserFields() {
		candidates = append(candidates, doc.Value(f.FieldName))
	}

	for _, c := range history.Communications {
		if c.DeliveryStatus == model.DeliveryStatusSent {
			candidates = append(candidates, c.Sender)
		}
	}
	for _, feed := range [][]model.HistoryEntry{history.Comments, history.Versions, history.Assignments} {
		for _, e := range feed {
			candidates = append(candidates, e.Owner)
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	involved := make(model.InvolvementSet, 0, len(candidates))
	for _, user := range candidates {
		user = strings.TrimSpace(user)
		if user == "" || model.SameUser(user, adminUser) || model.SameUser(user, actingUser) {
			continue
		}
		key := strings.ToLower(user)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		involved = append(involved, user)
	}

	return involved
}
