// platform/discord/gateway.go
package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"hide-seek-bot/services"
)

const embedColor = 0x2b2d31

const surfacePermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionReadMessageHistory

// Gateway implements services.Gateway on a discordgo session.
type Gateway struct {
	session *discordgo.Session
	guildID string
}

func NewGateway(session *discordgo.Session, guildID string) *Gateway {
	return &Gateway{session: session, guildID: guildID}
}

// CreateScopedSurface creates a text channel only the granted users and the bot can see.
func (g *Gateway) CreateScopedSurface(ctx context.Context, req services.SurfaceRequest) (string, error) {
	ch, err := g.session.GuildChannelCreateComplex(g.guildID, discordgo.GuildChannelCreateData{
		Name:                 req.Name,
		Type:                 discordgo.ChannelTypeGuildText,
		PermissionOverwrites: scopedOverwrites(g.guildID, selfID(g.session), req.Grant),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to create channel %s: %w", req.Name, err)
	}
	return ch.ID, nil
}

func (g *Gateway) SendMessage(ctx context.Context, surfaceID string, msg services.Message) error {
	if _, err := g.session.ChannelMessageSendComplex(surfaceID, toMessageSend(msg), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", surfaceID, err)
	}
	return nil
}

func (g *Gateway) DeleteSurface(ctx context.Context, surfaceID string) error {
	_, err := g.session.ChannelDelete(surfaceID, discordgo.WithContext(ctx))
	return err
}

// scopedOverwrites denies @everyone (whose role id is the guild id) and allows the bot and grantees.
func scopedOverwrites(guildID, botID string, grant []string) []*discordgo.PermissionOverwrite {
	overwrites := []*discordgo.PermissionOverwrite{{
		ID:   guildID,
		Type: discordgo.PermissionOverwriteTypeRole,
		Deny: discordgo.PermissionViewChannel,
	}}
	members := grant
	if botID != "" {
		members = append(append([]string(nil), grant...), botID)
	}
	for _, id := range members {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    id,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: surfacePermissions,
		})
	}
	return overwrites
}

func toMessageSend(msg services.Message) *discordgo.MessageSend {
	send := &discordgo.MessageSend{
		Content:         renderContent(msg),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	if msg.MentionUserID != "" {
		send.AllowedMentions.Users = []string{msg.MentionUserID}
	}
	if embed := toEmbed(msg); embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{embed}
	}
	if msg.Action != nil {
		send.Components = []discordgo.MessageComponent{actionRow(msg.Action)}
	}
	return send
}

func renderContent(msg services.Message) string {
	if msg.MentionUserID == "" {
		return msg.Content
	}
	return strings.TrimSpace(fmt.Sprintf("<@%s> %s", msg.MentionUserID, msg.Content))
}

func toEmbed(msg services.Message) *discordgo.MessageEmbed {
	if msg.Title == "" && msg.Description == "" && msg.AuthorName == "" && msg.Footer == "" {
		return nil
	}
	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Description,
		Color:       embedColor,
	}
	if msg.AuthorName != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: msg.AuthorName, IconURL: msg.AuthorIconURL}
	}
	if msg.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: msg.Footer}
	}
	return embed
}

func actionRow(action *services.Action) discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{Label: action.Label, Style: discordgo.PrimaryButton, CustomID: action.ID},
	}}
}

// MessageURL links to a message in a guild channel.
func MessageURL(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}
