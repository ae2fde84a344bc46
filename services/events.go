package services

import "strings"

const (
	KindClaimAttempted  = "claim_attempted"
	KindActionActivated = "action_activated"
	KindFormSubmitted   = "form_submitted"
)

// ClaimAttempted is a user reacting to a message that may be a hidden item.
type ClaimAttempted struct {
	ItemID   string
	UserID   string
	UserName string
	ItemURL  string
}

func (ClaimAttempted) Kind() string { return KindClaimAttempted }

// ActionActivated is the "open form" button in a submission surface being pressed.
type ActionActivated struct {
	SessionID   string
	UserID      string
	Interaction Interaction
}

func (ActionActivated) Kind() string { return KindActionActivated }

// FormSubmitted carries the text a finder entered.
type FormSubmitted struct {
	SessionID   string
	UserID      string
	UserName    string
	AvatarURL   string
	Text        string
	Interaction Interaction
}

func (FormSubmitted) Kind() string { return KindFormSubmitted }

const (
	actionIDPrefix = "initiate:"
	formIDPrefix   = "finalize:"
)

// ActionID is the custom id of the button that opens the form for a session.
func ActionID(sessionID string) string { return actionIDPrefix + sessionID }

// FormID is the custom id of the submission form for a session.
func FormID(sessionID string) string { return formIDPrefix + sessionID }

// ParseActionID returns the session id encoded by ActionID.
func ParseActionID(customID string) (string, bool) {
	return parseCustomID(customID, actionIDPrefix)
}

// ParseFormID returns the session id encoded by FormID.
func ParseFormID(customID string) (string, bool) {
	return parseCustomID(customID, formIDPrefix)
}

func parseCustomID(customID, prefix string) (string, bool) {
	if !strings.HasPrefix(customID, prefix) {
		return "", false
	}
	id := strings.TrimPrefix(customID, prefix)
	return id, id != ""
}
