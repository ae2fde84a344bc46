// platform/discord/bridge.go
package discord

import (
	"context"
	"log"

	"github.com/bwmarrin/discordgo"

	"hide-seek-bot/services"
	"hide-seek-bot/workers"
)

// Publisher accepts events for asynchronous handling.
type Publisher interface {
	Publish(ev workers.Event) bool
}

// Bridge turns discordgo callbacks into dispatcher events and routes chat commands.
type Bridge struct {
	session    *discordgo.Session
	publisher  Publisher
	commands   *Commands
	claimEmoji string
}

func NewBridge(session *discordgo.Session, publisher Publisher, commands *Commands, claimEmoji string) *Bridge {
	return &Bridge{session: session, publisher: publisher, commands: commands, claimEmoji: claimEmoji}
}

// Register attaches the bridge's handlers. Call before opening the session.
func (b *Bridge) Register() {
	b.session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent

	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onReactionAdd)
	b.session.AddHandler(b.onInteraction)
	if b.commands != nil {
		b.session.AddHandler(b.onMessageCreate)
	}
}

func (b *Bridge) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	log.Printf("✅ [DISCORD] Logged in as %s", r.User.Username)
}

func (b *Bridge) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	ev, ok := claimFromReaction(r, b.claimEmoji, selfID(s))
	if !ok {
		return
	}
	b.publisher.Publish(ev)
}

func (b *Bridge) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	if user == nil {
		return
	}

	switch i.Type {
	case discordgo.InteractionMessageComponent:
		sessionID, ok := services.ParseActionID(i.MessageComponentData().CustomID)
		if !ok {
			return
		}
		b.publisher.Publish(services.ActionActivated{
			SessionID:   sessionID,
			UserID:      user.ID,
			Interaction: newInteraction(s, i.Interaction),
		})

	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		sessionID, ok := services.ParseFormID(data.CustomID)
		if !ok {
			return
		}
		ix := newInteraction(s, i.Interaction)
		if err := ix.deferUpdate(); err != nil {
			log.Printf("⚠️ [DISCORD] Failed to defer modal submit %s: %v", sessionID, err)
		}
		b.publisher.Publish(services.FormSubmitted{
			SessionID:   sessionID,
			UserID:      user.ID,
			UserName:    user.Username,
			AvatarURL:   user.AvatarURL(""),
			Text:        formText(data),
			Interaction: ix,
		})
	}
}

func (b *Bridge) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	reply, ok := b.commands.Execute(context.Background(), m.Author.ID, m.Content)
	if !ok {
		return
	}

	send := &discordgo.MessageSend{
		Content:         reply.Content,
		Reference:       m.Reference(),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	if embed := toEmbed(services.Message{Title: reply.Title, Description: reply.Description}); embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{embed}
	}
	if reply.FileName != "" {
		send.Files = []*discordgo.File{{
			Name:        reply.FileName,
			ContentType: "text/plain",
			Reader:      reply.FileReader(),
		}}
	}
	if _, err := s.ChannelMessageSendComplex(m.ChannelID, send); err != nil {
		log.Printf("❌ [DISCORD] Failed to reply to command in %s: %v", m.ChannelID, err)
	}
}

func claimFromReaction(r *discordgo.MessageReactionAdd, claimEmoji, botID string) (services.ClaimAttempted, bool) {
	if r.MessageReaction == nil || r.GuildID == "" || r.UserID == "" || r.UserID == botID {
		return services.ClaimAttempted{}, false
	}
	if claimEmoji != "" && r.Emoji.Name != claimEmoji && r.Emoji.APIName() != claimEmoji {
		return services.ClaimAttempted{}, false
	}

	ev := services.ClaimAttempted{
		ItemID:  r.MessageID,
		UserID:  r.UserID,
		ItemURL: MessageURL(r.GuildID, r.ChannelID, r.MessageID),
	}
	if r.Member != nil && r.Member.User != nil {
		if r.Member.User.Bot {
			return services.ClaimAttempted{}, false
		}
		ev.UserName = r.Member.User.Username
	}
	return ev, true
}

func formText(data discordgo.ModalSubmitInteractionData) string {
	for _, c := range data.Components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if input, ok := inner.(*discordgo.TextInput); ok {
				return input.Value
			}
		}
	}
	return ""
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func selfID(s *discordgo.Session) string {
	if s != nil && s.State != nil && s.State.User != nil {
		return s.State.User.ID
	}
	return ""
}
