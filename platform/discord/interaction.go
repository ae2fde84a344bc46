package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"

	"hide-seek-bot/services"
)

// interaction implements services.Interaction for one component or modal interaction.
type interaction struct {
	session *discordgo.Session
	ix      *discordgo.Interaction

	mu        sync.Mutex
	responded bool
}

func newInteraction(s *discordgo.Session, ix *discordgo.Interaction) *interaction {
	return &interaction{session: s, ix: ix}
}

func (i *interaction) PresentForm(ctx context.Context, form services.Form) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	err := i.session.InteractionRespond(i.ix, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: form.ID,
			Title:    form.Title,
			Components: []discordgo.MessageComponent{discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{discordgo.TextInput{
					CustomID:    form.Field.ID,
					Label:       form.Field.Label,
					Style:       discordgo.TextInputParagraph,
					Placeholder: form.Field.Placeholder,
					Required:    form.Field.Required,
					MaxLength:   form.Field.MaxLength,
				}},
			}},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to present form: %w", err)
	}
	i.responded = true
	return nil
}

// Acknowledge rewrites the prompt message and strips its button.
func (i *interaction) Acknowledge(ctx context.Context, msg services.Message) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	embeds := []*discordgo.MessageEmbed{}
	if embed := toEmbed(msg); embed != nil {
		embeds = append(embeds, embed)
	}
	components := []discordgo.MessageComponent{}

	if i.responded {
		_, err := i.session.InteractionResponseEdit(i.ix, &discordgo.WebhookEdit{
			Embeds:     &embeds,
			Components: &components,
		}, discordgo.WithContext(ctx))
		return err
	}
	err := i.session.InteractionRespond(i.ix, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{Embeds: embeds, Components: components},
	}, discordgo.WithContext(ctx))
	if err == nil {
		i.responded = true
	}
	return err
}

// deferUpdate answers within Discord's 3 second window; the real reply follows via Acknowledge.
func (i *interaction) deferUpdate() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	err := i.session.InteractionRespond(i.ix, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err == nil {
		i.responded = true
	}
	return err
}

func (i *interaction) notify(ctx context.Context, content string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.responded {
		_, err := i.session.FollowupMessageCreate(i.ix, true, &discordgo.WebhookParams{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		}, discordgo.WithContext(ctx))
		return err
	}
	err := i.session.InteractionRespond(i.ix, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: discordgo.MessageFlagsEphemeral},
	}, discordgo.WithContext(ctx))
	if err == nil {
		i.responded = true
	}
	return err
}

// NotifyFailure tells the user privately why their button press or form was refused.
func NotifyFailure(ctx context.Context, ix services.Interaction, err error) {
	di, ok := ix.(*interaction)
	if !ok || err == nil {
		return
	}
	if nerr := di.notify(ctx, failureText(err)); nerr != nil {
		log.Printf("⚠️ [DISCORD] Failed to report interaction error: %v", nerr)
	}
}

func failureText(err error) string {
	switch {
	case errors.Is(err, services.ErrNotSessionOwner):
		return "This submission belongs to someone else."
	case errors.Is(err, services.ErrSessionClosed), errors.Is(err, services.ErrSessionNotFound):
		return "This submission is no longer accepting input."
	case errors.Is(err, services.ErrInvalidInput):
		return "Your submission was empty or too long, please try again."
	default:
		return "Something went wrong, please try again later."
	}
}
