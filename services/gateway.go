// services/gateway.go
package services

import "context"

// SurfaceRequest describes a private channel: only Grant and the bot can see it, everyone else is denied.
type SurfaceRequest struct {
	Name  string
	Grant []string
}

// Action is a single button attached to a message.
type Action struct {
	ID    string
	Label string
}

// Message is a platform-neutral chat message. Adapters render it as text plus an optional embed.
type Message struct {
	MentionUserID string // rendered as a mention in front of Content
	Content       string

	Title         string
	Description   string
	AuthorName    string
	AuthorIconURL string
	Footer        string

	Action *Action
}

// FormField is the single free-text input of a form.
type FormField struct {
	ID          string
	Label       string
	Placeholder string
	MaxLength   int
	Required    bool
}

type Form struct {
	ID    string
	Title string
	Field FormField
}

// Gateway is the outbound side of the messaging platform.
type Gateway interface {
	CreateScopedSurface(ctx context.Context, req SurfaceRequest) (string, error)
	SendMessage(ctx context.Context, surfaceID string, msg Message) error
	DeleteSurface(ctx context.Context, surfaceID string) error
}

// Interaction is the reply handle of a button press or form submission.
type Interaction interface {
	PresentForm(ctx context.Context, form Form) error
	// Acknowledge replaces the prompt with msg and removes its controls.
	Acknowledge(ctx context.Context, msg Message) error
}
