// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// ReviewPanelViewModel holds everything the review panel of a document shows.
type ReviewPanelViewModel struct {
	SessionID     string
	DocumentType  string
	DocumentName  string
	CSRFToken     string
	ReviewPoints  int
	CanReview     bool
	DisabledTitle string // Tooltip on the disabled trigger.
	Recipients    []RecipientViewModel
	Pills         []PillViewModel
	Form          ReviewFormViewModel
	Message       *MessageViewModel
}

// RecipientViewModel is one option of the recipient select.
type RecipientViewModel struct {
	User string
	Name string
}

// ReviewFormViewModel is the dialog input. It is echoed back after a failed
// submission so nothing the user typed is lost.
type ReviewFormViewModel struct {
	Open     bool
	ToUser   string
	Polarity string
	Points   int
	Reason   string
}

// PillViewModel is one review indicator.
type PillViewModel struct {
	ReviewID   string
	Label      string // Signed magnitude, e.g. "+2" or "-1".
	Class      string
	Detail     string
	ReasonHTML string // Sanitized.
	When       string
}

// MessageViewModel is an inline status message.
type MessageViewModel struct {
	Kind string // "success" or "error".
	Text string
}
